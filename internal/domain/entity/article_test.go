package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestArticle_HasImage(t *testing.T) {
	tests := []struct {
		name  string
		image *string
		want  bool
	}{
		{name: "nil image", image: nil, want: false},
		{name: "empty image", image: strPtr(""), want: false},
		{name: "image set", image: strPtr("https://example.com/a.jpg"), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Article{Title: "t", Link: "https://example.com/a", ImageURL: tt.image}
			assert.Equal(t, tt.want, a.HasImage())
		})
	}
}

func TestNewAggregateResult_TopicsAreUnionOfArticleTopics(t *testing.T) {
	articles := []Article{
		{Title: "a", Link: "https://example.com/a", Topics: []string{"Startups", "AI"}},
		{Title: "b", Link: "https://example.com/b", Topics: []string{"AI", "Security"}},
		{Title: "c", Link: "https://example.com/c"},
	}

	got := NewAggregateResult(articles)

	assert.Equal(t, []string{"AI", "Security", "Startups"}, got.Topics)
	assert.Equal(t, 3, got.Len())
}

func TestNewAggregateResult_DeduplicatesByLink(t *testing.T) {
	articles := []Article{
		{Title: "first", Link: "https://example.com/same", Category: "Tech", Topics: []string{"Keep"}},
		{Title: "second", Link: "https://example.com/same", Category: "Science", Topics: []string{"Dropped"}},
		{Title: "other", Link: "https://example.com/other"},
	}

	got := NewAggregateResult(articles)

	require.Len(t, got.Articles, 2)
	assert.Equal(t, "first", got.Articles[0].Title)
	assert.Equal(t, "other", got.Articles[1].Title)
	// 捨てられた記事のトピックは含まれない
	assert.Equal(t, []string{"Keep"}, got.Topics)
}

func TestNewAggregateResult_Empty(t *testing.T) {
	got := NewAggregateResult(nil)

	assert.NotNil(t, got.Articles)
	assert.NotNil(t, got.Topics)
	assert.Empty(t, got.Articles)
	assert.Empty(t, got.Topics)
}
