// Package bibtex parses BibTeX bibliographies into entries with upper-cased
// field names.
//
// The parser is tolerant: a malformed entry is skipped and scanning resumes
// at the next '@'. Only a payload from which nothing at all can be recovered
// is reported through ParseResult.Err.
package bibtex

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrNoEntries is reported when non-blank input contains no parsable entry.
var ErrNoEntries = errors.New("no bibtex entries found")

// Entry is one bibliography record.
type Entry struct {
	// Type is the lower-cased entry type, e.g. "article".
	Type string

	// Key is the citation key.
	Key string

	// Fields maps upper-cased field names to their raw values. Outer
	// delimiters are removed; inner braces are kept.
	Fields map[string]string
}

// Field returns the value of name (case-insensitive) with whitespace
// collapsed, or "" when absent.
func (e Entry) Field(name string) string {
	return strings.Join(strings.Fields(e.Fields[strings.ToUpper(name)]), " ")
}

// ParseResult is the outcome of parsing a bibliography.
type ParseResult struct {
	Entries []Entry

	// Skipped counts entries that were dropped as malformed.
	Skipped int

	// Err is set when the input is non-blank but yielded no entry.
	Err error
}

// Parse reads every entry in text. @comment, @preamble and @string blocks
// are skipped.
func Parse(text string) ParseResult {
	p := &parser{src: []rune(text)}
	var result ParseResult
	var firstErr error

	for p.seekEntry() {
		entry, ok, err := p.entry()
		if err != nil {
			result.Skipped++
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			result.Entries = append(result.Entries, entry)
		}
	}

	if len(result.Entries) == 0 && strings.TrimSpace(text) != "" && result.Skipped+p.special == 0 {
		result.Err = ErrNoEntries
	} else if len(result.Entries) == 0 && firstErr != nil {
		result.Err = firstErr
	}
	return result
}

// StripBraces removes every '{' and '}' and collapses whitespace, so that
// "{{T}itle}" becomes "Title".
func StripBraces(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '{' || r == '}' {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

type parser struct {
	src     []rune
	pos     int
	special int
}

// seekEntry advances to just after the next '@'.
func (p *parser) seekEntry() bool {
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		if r == '@' {
			return true
		}
	}
	return false
}

// entry parses the record following '@'. ok is false for special blocks.
func (p *parser) entry() (Entry, bool, error) {
	start := p.pos
	entryType := strings.ToLower(p.identifier())
	if entryType == "" {
		return Entry{}, false, fmt.Errorf("offset %d: missing entry type", start)
	}

	p.skipSpace()
	open, ok := p.peek()
	if !ok || (open != '{' && open != '(') {
		return Entry{}, false, fmt.Errorf("offset %d: expected '{' after @%s", p.pos, entryType)
	}
	closeRune := '}'
	if open == '(' {
		closeRune = ')'
	}
	p.pos++

	switch entryType {
	case "comment", "preamble", "string":
		p.special++
		if err := p.skipBalanced(open, closeRune); err != nil {
			return Entry{}, false, err
		}
		return Entry{}, false, nil
	}

	p.skipSpace()
	key := strings.TrimSpace(p.until(',', closeRune))
	entry := Entry{Type: entryType, Key: key, Fields: make(map[string]string)}

	r, ok := p.peek()
	if !ok {
		return Entry{}, false, fmt.Errorf("@%s{%s: unterminated entry", entryType, key)
	}
	p.pos++
	if r == closeRune {
		return entry, true, nil
	}

	for {
		p.skipSpace()
		r, ok := p.peek()
		if !ok {
			return Entry{}, false, fmt.Errorf("@%s{%s: unterminated entry", entryType, key)
		}
		if r == closeRune {
			p.pos++
			return entry, true, nil
		}
		if r == ',' {
			p.pos++
			continue
		}
		if r == '@' {
			// A new entry started before this one closed.
			return Entry{}, false, fmt.Errorf("@%s{%s: unterminated entry", entryType, key)
		}

		name := strings.ToUpper(p.identifier())
		if name == "" {
			return Entry{}, false, fmt.Errorf("@%s{%s: offset %d: expected field name", entryType, key, p.pos)
		}
		p.skipSpace()
		if r, ok := p.peek(); !ok || r != '=' {
			return Entry{}, false, fmt.Errorf("@%s{%s: field %s: expected '='", entryType, key, name)
		}
		p.pos++

		value, err := p.value(closeRune)
		if err != nil {
			return Entry{}, false, fmt.Errorf("@%s{%s: field %s: %w", entryType, key, name, err)
		}
		entry.Fields[name] = value
	}
}

// value reads a possibly concatenated field value.
func (p *parser) value(closeRune rune) (string, error) {
	var sb strings.Builder
	for {
		p.skipSpace()
		r, ok := p.peek()
		if !ok {
			return "", errors.New("unexpected end of input")
		}

		switch r {
		case '{':
			p.pos++
			part, err := p.balanced('{', '}')
			if err != nil {
				return "", err
			}
			sb.WriteString(part)
		case '"':
			p.pos++
			part, err := p.quoted()
			if err != nil {
				return "", err
			}
			sb.WriteString(part)
		default:
			part := strings.TrimSpace(p.until(',', closeRune, '#'))
			if part == "" {
				return "", errors.New("empty value")
			}
			sb.WriteString(part)
		}

		p.skipSpace()
		if r, ok := p.peek(); ok && r == '#' {
			p.pos++
			continue
		}
		return sb.String(), nil
	}
}

// balanced reads up to the matching close delimiter, which is consumed but
// not returned. Nested delimiters are kept.
func (p *parser) balanced(open, closeRune rune) (string, error) {
	depth := 0
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		switch r {
		case open:
			depth++
		case closeRune:
			if depth == 0 {
				return string(p.src[start : p.pos-1]), nil
			}
			depth--
		}
	}
	return "", errors.New("unbalanced braces")
}

func (p *parser) skipBalanced(open, closeRune rune) error {
	_, err := p.balanced(open, closeRune)
	return err
}

// quoted reads a "..." value; quotes inside braces do not terminate it.
func (p *parser) quoted() (string, error) {
	depth := 0
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		p.pos++
		switch {
		case r == '{':
			depth++
		case r == '}' && depth > 0:
			depth--
		case r == '"' && depth == 0:
			return string(p.src[start : p.pos-1]), nil
		}
	}
	return "", errors.New("unterminated quoted value")
}

func (p *parser) identifier() string {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune("_-:.+/", r) {
			p.pos++
			continue
		}
		break
	}
	return string(p.src[start:p.pos])
}

// until reads up to, but not including, the first of stops.
func (p *parser) until(stops ...rune) string {
	start := p.pos
	for p.pos < len(p.src) {
		r := p.src[p.pos]
		for _, s := range stops {
			if r == s {
				return string(p.src[start:p.pos])
			}
		}
		p.pos++
	}
	return string(p.src[start:p.pos])
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) && unicode.IsSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *parser) peek() (rune, bool) {
	if p.pos >= len(p.src) {
		return 0, false
	}
	return p.src[p.pos], true
}
