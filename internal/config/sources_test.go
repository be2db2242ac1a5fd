package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/internal/domain/entity"
)

func TestLoadSources_EmbeddedDefault(t *testing.T) {
	list, err := LoadSources("")
	require.NoError(t, err)

	assert.Equal(t, "TechCrunch", list.Publisher)
	assert.Len(t, list.Sources, 20)
	for _, src := range list.Sources {
		assert.Equal(t, entity.SourceKindRSS, src.Kind)
		assert.Equal(t, "TechCrunch", src.Publisher)
	}
	assert.Equal(t, "Latest", list.Categories()[0])
}

func TestLoadSources_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	content := `publisher: Ars Technica
sources:
  - category: AI
    url: https://arstechnica.com/ai/
    kind: html
  - category: Wire
    url: https://example.com/feed.xml
    publisher: Example Wire
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	list, err := LoadSources(path)
	require.NoError(t, err)
	require.Len(t, list.Sources, 2)

	assert.Equal(t, entity.SourceKindHTML, list.Sources[0].Kind)
	assert.Equal(t, "Ars Technica", list.Sources[0].Publisher)
	assert.Equal(t, entity.SourceKindRSS, list.Sources[1].Kind)
	assert.Equal(t, "Example Wire", list.Sources[1].Publisher)
}

func TestParseSources_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{name: "not yaml", yaml: "sources: [::"},
		{name: "empty list", yaml: "publisher: X\nsources: []\n"},
		{name: "bad url", yaml: "sources:\n  - {category: A, url: ftp://example.com/feed}\n"},
		{name: "bad kind", yaml: "sources:\n  - {category: A, url: https://example.com/, kind: atom}\n"},
		{name: "duplicate category", yaml: "sources:\n  - {category: A, url: https://a.example.com/}\n  - {category: A, url: https://b.example.com/}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSources([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}

	_, err := ParseSources([]byte("publisher: X\n"))
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestLoadSources_MissingFile(t *testing.T) {
	_, err := LoadSources(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadSources_ShippedLists(t *testing.T) {
	// configs/ 配下の同梱リストもロードできること
	list, err := LoadSources(filepath.Join("..", "..", "configs", "arstechnica.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "Ars Technica", list.Publisher)
	assert.Contains(t, list.Categories(), "Space")
	for _, src := range list.Sources {
		assert.Equal(t, entity.SourceKindHTML, src.Kind, src.Category)
		assert.Equal(t, "Ars Technica", src.Publisher)
	}
}
