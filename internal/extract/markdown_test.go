package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lytics/dev-agent-sub000/internal/domain"
)

func TestMarkdownExtractorCanHandle(t *testing.T) {
	e := NewMarkdownExtractor()
	assert.True(t, e.CanHandle("docs/guide.md"))
	assert.True(t, e.CanHandle("README.markdown"))
	assert.False(t, e.CanHandle("docs/guide.txt"))
}

const mdFixture = `# Getting Started

This section explains how to install the tool.

## Installation

Run the installer from a terminal.

## Configuration

Edit the config file to set your preferences.
`

func TestMarkdownExtractorSections(t *testing.T) {
	e := NewMarkdownExtractor()
	docs, err := e.Extract("guide.md", []byte(mdFixture))
	require.NoError(t, err)
	require.Len(t, docs, 3)

	for _, d := range docs {
		assert.Equal(t, domain.DocTypeDocumentation, d.Type)
		assert.Equal(t, "markdown", d.Language)
	}

	assert.Equal(t, "Getting Started", docs[0].Metadata.Name)
	assert.Equal(t, "Installation", docs[1].Metadata.Name)
	assert.Equal(t, "Configuration", docs[2].Metadata.Name)

	slug, _ := docs[1].Metadata.Get("slug")
	assert.Equal(t, "installation", slug)

	assert.Contains(t, docs[0].Metadata.Snippet, "install the tool")
	assert.True(t, docs[1].Metadata.StartLine < docs[1].Metadata.EndLine || docs[1].Metadata.StartLine == docs[1].Metadata.EndLine)
	assert.True(t, docs[0].Metadata.EndLine < docs[1].Metadata.StartLine)
}

func TestMarkdownExtractorEmptyFile(t *testing.T) {
	e := NewMarkdownExtractor()
	docs, err := e.Extract("empty.md", []byte(""))
	require.NoError(t, err)
	assert.Empty(t, docs)
}
