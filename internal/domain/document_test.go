package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

func TestBuildEmbeddingText(t *testing.T) {
	text := domain.BuildEmbeddingText(domain.DocTypeFunction, "pkg.Foo", "func Foo(x int) error", "Foo does a thing.")
	assert.Equal(t, "function pkg.Foo\nfunc Foo(x int) error\nFoo does a thing.", text)
}

func TestBuildEmbeddingTextNoDocstring(t *testing.T) {
	text := domain.BuildEmbeddingText(domain.DocTypeMethod, "T.Bar", "func (T) Bar()", "")
	assert.Equal(t, "method T.Bar\nfunc (T) Bar()", text)
}

func TestTruncateSnippetUnderLimit(t *testing.T) {
	text := "a\nb\nc"
	assert.Equal(t, text, domain.TruncateSnippet(text, 50))
}

func TestTruncateSnippetOverLimit(t *testing.T) {
	lines := make([]string, 60)
	for i := range lines {
		lines[i] = "x"
	}
	joined := ""
	for i, l := range lines {
		if i > 0 {
			joined += "\n"
		}
		joined += l
	}
	out := domain.TruncateSnippet(joined, 50)
	assert.Contains(t, out, "// ... 10 more lines")
}

func TestDocumentValidate(t *testing.T) {
	d := domain.Document{ID: "f.go:Foo:1", Text: "function Foo", Type: domain.DocTypeFunction}
	require.NoError(t, d.Validate())

	bad := domain.Document{ID: "", Text: "x"}
	assert.ErrorIs(t, bad.Validate(), domain.ErrPrecondition)

	emptyText := domain.Document{ID: "id", Text: "  "}
	assert.ErrorIs(t, emptyText.Validate(), domain.ErrPrecondition)

	badLines := domain.Document{ID: "id", Text: "x", Metadata: domain.CoreMetadata{StartLine: 10, EndLine: 1}}
	assert.ErrorIs(t, badLines.Validate(), domain.ErrPrecondition)
}

func TestMetadataRoundTrip(t *testing.T) {
	d := domain.Document{
		ID:   "a.go:Foo:3",
		Text: "function Foo",
		Type: domain.DocTypeFunction,
		Metadata: domain.CoreMetadata{
			File:      "a.go",
			StartLine: 3,
			EndLine:   5,
			Name:      "Foo",
			Exported:  true,
			Callees:   []domain.Callee{{Name: "Bar", Line: 4}},
			Custom:    map[string]any{"isArrowFunction": true},
		},
	}

	raw, err := d.MetadataJSON()
	require.NoError(t, err)

	parsed, err := domain.ParseMetadataJSON(raw)
	require.NoError(t, err)
	assert.Equal(t, d.Metadata.File, parsed.File)
	assert.Equal(t, d.Metadata.Callees, parsed.Callees)
	v, ok := parsed.Get("isArrowFunction")
	require.True(t, ok)
	assert.Equal(t, true, v)
}

func TestParseMetadataJSONMalformed(t *testing.T) {
	_, err := domain.ParseMetadataJSON("{not json")
	assert.ErrorIs(t, err, domain.ErrConsistency)
}

func TestCommitMessage(t *testing.T) {
	c := domain.Commit{Subject: "fix: bug"}
	assert.Equal(t, "fix: bug", c.Message())

	c.Body = "more detail"
	assert.Equal(t, "fix: bug\n\nmore detail", c.Message())
}

func TestCommitValidate(t *testing.T) {
	c := domain.Commit{
		Hash:      "0123456789abcdef0123456789abcdef01234567",
		ShortHash: "0123456",
	}
	assert.NoError(t, c.Validate())

	bad := domain.Commit{Hash: "tooshort", ShortHash: "0123456"}
	assert.ErrorIs(t, bad.Validate(), domain.ErrPrecondition)

	upper := domain.Commit{
		Hash:      "0123456789ABCDEF0123456789abcdef01234567",
		ShortHash: "0123456",
	}
	assert.ErrorIs(t, upper.Validate(), domain.ErrPrecondition)
}
