package aggregate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"feedhub/internal/domain/entity"
	"feedhub/internal/usecase/fetch"
)

func TestGather_KeepsResultsBufferedAtDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// 期限と結果が同時に準備完了でも、届いた結果は失われないこと
	for range 50 {
		done := make(chan outcome, 3)
		for i := range 3 {
			done <- outcome{index: i, result: fetch.SourceResult{Reason: fetch.ReasonOK}}
		}

		got := map[int]bool{}
		gather(ctx, done, 3, func(o outcome) { got[o.index] = true })

		assert.Len(t, got, 3)
	}
}

func TestGather_StopsAtDeadlineWithoutResults(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	gather(ctx, make(chan outcome, 2), 2, func(outcome) { calls++ })

	assert.Zero(t, calls)
}

func TestPreferEarliestSource(t *testing.T) {
	a := func(cat, link string) entity.Article { return entity.Article{Category: cat, Link: link} }
	merged := []sourcedArticle{
		{index: 2, article: a("AI", "https://example.com/shared")},
		{index: 2, article: a("AI", "https://example.com/ai-only")},
		{index: 0, article: a("Latest", "https://example.com/shared")},
		{index: 1, article: a("Apps", "https://example.com/shared")},
	}

	got := preferEarliestSource(merged)

	assert.Equal(t, []entity.Article{
		a("AI", "https://example.com/ai-only"),
		a("Latest", "https://example.com/shared"),
	}, got)
}
