package entity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSource_Validate(t *testing.T) {
	tests := []struct {
		name     string
		source   Source
		wantErr  bool
		field    string
		wantKind SourceKind
	}{
		{
			name:     "valid rss source",
			source:   Source{Category: "Tech", URL: "https://example.com/feed"},
			wantKind: SourceKindRSS,
		},
		{
			name:     "valid html source",
			source:   Source{Category: "Gaming", URL: "https://example.com/gaming/", Kind: SourceKindHTML},
			wantKind: SourceKindHTML,
		},
		{
			name:    "missing category",
			source:  Source{URL: "https://example.com/feed"},
			wantErr: true,
			field:   "category",
		},
		{
			name:    "unknown kind",
			source:  Source{Category: "Tech", URL: "https://example.com/feed", Kind: "atom"},
			wantErr: true,
			field:   "kind",
		},
		{
			name:    "ftp url",
			source:  Source{Category: "Tech", URL: "ftp://example.com/feed"},
			wantErr: true,
			field:   "url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.source.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantKind, tt.source.Kind)
				return
			}

			var vErr *ValidationError
			assert.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
			assert.ErrorIs(t, err, ErrValidationFailed)
		})
	}
}

func TestSource_CacheKey(t *testing.T) {
	a := Source{Category: "Tech", URL: "https://example.com/feed"}
	b := Source{Category: "Science", URL: "https://example.com/feed"}

	assert.Equal(t, "source:Tech|https://example.com/feed", a.CacheKey())
	// 同じURLでもカテゴリが違えば別キー
	assert.NotEqual(t, a.CacheKey(), b.CacheKey())
}
