package bibtex

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const halSample = `@inproceedings{dupont:hal-01234567,
  TITLE = {{D}eep {L}earning for {G}raphs},
  AUTHOR = {Dupont, Jean and Martin, Claire},
  URL = {https://hal.science/hal-01234567},
  BOOKTITLE = {{Proceedings of ICML}},
  YEAR = {2021},
  HAL_ID = {hal-01234567},
}

@phdthesis{durand:tel-00000001,
  TITLE = "A {Study} of Things",
  AUTHOR = {Durand, Paul},
  SCHOOL = {Universit{\'e} de Lyon},
  YEAR = 2019
}
`

func TestParse(t *testing.T) {
	t.Run("parses multiple entries", func(t *testing.T) {
		result := Parse(halSample)

		require.NoError(t, result.Err)
		require.Len(t, result.Entries, 2)

		first := result.Entries[0]
		assert.Equal(t, "inproceedings", first.Type)
		assert.Equal(t, "dupont:hal-01234567", first.Key)
		assert.Equal(t, "{D}eep {L}earning for {G}raphs", first.Fields["TITLE"])
		assert.Equal(t, "Dupont, Jean and Martin, Claire", first.Field("author"))
		assert.Equal(t, "2021", first.Field("YEAR"))
		assert.Equal(t, "hal-01234567", first.Field("hal_id"))

		second := result.Entries[1]
		assert.Equal(t, "phdthesis", second.Type)
		assert.Equal(t, "A {Study} of Things", second.Fields["TITLE"])
		assert.Equal(t, "2019", second.Field("year"))
		assert.Equal(t, `Universit{\'e} de Lyon`, second.Field("school"))
	})

	t.Run("nested braces in title", func(t *testing.T) {
		result := Parse(`@inproceedings{x, TITLE={{T}itle}, BOOKTITLE={Conf X}}`)

		require.NoError(t, result.Err)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "Title", StripBraces(result.Entries[0].Fields["TITLE"]))
		assert.Equal(t, "Conf X", result.Entries[0].Field("booktitle"))
	})

	t.Run("string concatenation", func(t *testing.T) {
		result := Parse(`@misc{k, NOTE = "part one" # { and two}}`)

		require.Len(t, result.Entries, 1)
		assert.Equal(t, "part one and two", result.Entries[0].Field("note"))
	})

	t.Run("parenthesised entry", func(t *testing.T) {
		result := Parse(`@article(k, TITLE={Paren})`)

		require.Len(t, result.Entries, 1)
		assert.Equal(t, "Paren", result.Entries[0].Field("title"))
	})

	t.Run("skips special blocks", func(t *testing.T) {
		result := Parse(`@comment{ignore me} @string{foo = "bar"} @book{b, TITLE={Kept}}`)

		require.NoError(t, result.Err)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "book", result.Entries[0].Type)
	})

	t.Run("blank input is an empty success", func(t *testing.T) {
		result := Parse("  \n ")

		assert.NoError(t, result.Err)
		assert.Empty(t, result.Entries)
	})

	t.Run("non bibtex text is an error", func(t *testing.T) {
		result := Parse("<html><body>Service Unavailable</body></html>")

		assert.True(t, errors.Is(result.Err, ErrNoEntries))
		assert.Empty(t, result.Entries)
	})

	t.Run("malformed entry is skipped", func(t *testing.T) {
		result := Parse(`@article{bad, TITLE {missing equals}}
@article{good, TITLE={Fine}}`)

		require.NoError(t, result.Err)
		require.Len(t, result.Entries, 1)
		assert.Equal(t, "good", result.Entries[0].Key)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("only malformed entries reports the failure", func(t *testing.T) {
		result := Parse(`@article{bad, TITLE={never closed`)

		require.Error(t, result.Err)
		assert.Empty(t, result.Entries)
		assert.Equal(t, 1, result.Skipped)
	})

	t.Run("entry without fields", func(t *testing.T) {
		result := Parse(`@misc{lonely}`)

		require.Len(t, result.Entries, 1)
		assert.Equal(t, "lonely", result.Entries[0].Key)
		assert.Empty(t, result.Entries[0].Fields)
	})
}

func TestStripBraces(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"{{T}itle}", "Title"},
		{"{D}eep  {L}earning", "Deep Learning"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, StripBraces(tt.in))
		})
	}
}
