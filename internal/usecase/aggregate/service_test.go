package aggregate_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedhub/internal/domain/entity"
	"feedhub/internal/infra/cache"
	"feedhub/internal/usecase/aggregate"
	"feedhub/internal/usecase/fetch"
)

// fakeFetcher returns canned articles per category and tracks concurrency.
type fakeFetcher struct {
	articles map[string][]entity.Article
	failing  map[string]bool
	stall    map[string]bool
	delay    time.Duration
	delays   map[string]time.Duration

	calls    atomic.Int32
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) Fetch(ctx context.Context, src entity.Source) fetch.SourceResult {
	f.calls.Add(1)
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		cur := f.maxSeen.Load()
		if n <= cur || f.maxSeen.CompareAndSwap(cur, n) {
			break
		}
	}

	if f.stall[src.Category] {
		// ignores ctx on purpose
		time.Sleep(2 * time.Second)
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if d := f.delays[src.Category]; d > 0 {
		time.Sleep(d)
	}
	if f.failing[src.Category] {
		err := &fetch.HTTPStatusError{StatusCode: 502, URL: src.URL}
		return fetch.SourceResult{Source: src, Articles: []entity.Article{}, Err: err, Reason: fetch.Classify(err)}
	}
	return fetch.SourceResult{Source: src, Articles: f.articles[src.Category], Reason: fetch.ReasonOK}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func sources(n int) []entity.Source {
	out := make([]entity.Source, 0, n)
	for i := range n {
		out = append(out, entity.Source{
			Category: fmt.Sprintf("cat-%02d", i),
			URL:      fmt.Sprintf("https://feeds.example.com/%02d/feed/", i),
			Kind:     entity.SourceKindRSS,
		})
	}
	return out
}

func article(category string, i int, topics ...string) entity.Article {
	return entity.Article{
		Title:      fmt.Sprintf("%s story %d", category, i),
		Link:       fmt.Sprintf("https://example.com/%s/%d", category, i),
		Topics:     topics,
		Category:   category,
		SourceName: "TechCrunch",
	}
}

func links(r entity.AggregateResult) []string {
	out := make([]string, 0, len(r.Articles))
	for _, a := range r.Articles {
		out = append(out, a.Link)
	}
	sort.Strings(out)
	return out
}

func TestCollect_ConcurrencyIsBounded(t *testing.T) {
	srcs := sources(18)
	f := &fakeFetcher{delay: 20 * time.Millisecond}
	svc := aggregate.NewService(srcs, f, nil, aggregate.Config{Concurrency: 5, Timeout: 5 * time.Second}, quietLogger())

	rep := svc.Collect(context.Background(), srcs)

	assert.Equal(t, int32(18), f.calls.Load())
	assert.LessOrEqual(t, f.maxSeen.Load(), int32(5))
	assert.Len(t, rep.Sources, 18)
}

func TestCollect_MergesAndUnionsTopics(t *testing.T) {
	srcs := sources(3)
	f := &fakeFetcher{articles: map[string][]entity.Article{
		"cat-00": {article("cat-00", 1, "AI"), article("cat-00", 2, "AI", "Robotics")},
		"cat-01": {article("cat-01", 1, "Security")},
		"cat-02": {article("cat-02", 1)},
	}}
	svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

	rep := svc.Collect(context.Background(), srcs)

	assert.Len(t, rep.Result.Articles, 4)
	assert.Equal(t, []string{"AI", "Robotics", "Security"}, rep.Result.Topics)

	// 全記事のトピックが集合に含まれ、集合は記事トピックの和集合と一致する
	union := map[string]bool{}
	for _, a := range rep.Result.Articles {
		for _, tp := range a.Topics {
			union[tp] = true
			assert.Contains(t, rep.Result.Topics, tp)
		}
	}
	assert.Len(t, rep.Result.Topics, len(union))
}

func TestCollect_DeduplicatesByLink(t *testing.T) {
	srcs := sources(2)
	shared := article("shared", 1, "AI")
	f := &fakeFetcher{articles: map[string][]entity.Article{
		"cat-00": {shared},
		"cat-01": {shared, article("cat-01", 1)},
	}}
	svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

	rep := svc.Collect(context.Background(), srcs)

	assert.Len(t, rep.Result.Articles, 2)
}

func TestCollect_DuplicateLinkKeepsFirstConfiguredSource(t *testing.T) {
	srcs := []entity.Source{
		{Category: "Latest", URL: "https://feeds.example.com/latest/", Kind: entity.SourceKindRSS},
		{Category: "AI", URL: "https://feeds.example.com/ai/", Kind: entity.SourceKindRSS},
	}
	shared := func(cat string) entity.Article {
		return entity.Article{Title: "Shared", Link: "https://example.com/shared", Category: cat, Topics: []string{"AI"}}
	}
	articles := map[string][]entity.Article{
		"Latest": {shared("Latest")},
		"AI":     {shared("AI"), article("AI", 1)},
	}

	// どちらが先に完了しても、設定順で先のソースの記事が残ること
	for _, slow := range []string{"Latest", "AI"} {
		t.Run("slow "+slow, func(t *testing.T) {
			f := &fakeFetcher{articles: articles, delays: map[string]time.Duration{slow: 50 * time.Millisecond}}
			svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

			rep := svc.Collect(context.Background(), srcs)

			require.Len(t, rep.Result.Articles, 2)
			for _, a := range rep.Result.Articles {
				if a.Link == "https://example.com/shared" {
					assert.Equal(t, "Latest", a.Category)
				}
			}
		})
	}
}

func TestCollect_PartialFailure(t *testing.T) {
	srcs := sources(4)
	f := &fakeFetcher{
		articles: map[string][]entity.Article{
			"cat-00": {article("cat-00", 1, "AI")},
			"cat-02": {article("cat-02", 1, "Space")},
		},
		failing: map[string]bool{"cat-01": true, "cat-03": true},
	}
	svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

	rep := svc.Collect(context.Background(), srcs)

	assert.Len(t, rep.Result.Articles, 2)
	assert.Equal(t, 2, rep.Failed())
	assert.Equal(t, fetch.ReasonHTTPStatus, rep.Sources[1].Reason)
	assert.NotEmpty(t, rep.Sources[1].Error)
	assert.Equal(t, fetch.ReasonOK, rep.Sources[0].Reason)
}

func TestCollect_AllFailingYieldsEmptyResult(t *testing.T) {
	srcs := sources(3)
	f := &fakeFetcher{failing: map[string]bool{"cat-00": true, "cat-01": true, "cat-02": true}}
	svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

	rep := svc.Collect(context.Background(), srcs)

	assert.NotNil(t, rep.Result.Articles)
	assert.NotNil(t, rep.Result.Topics)
	assert.Empty(t, rep.Result.Articles)
	assert.Empty(t, rep.Result.Topics)
	assert.Equal(t, 3, rep.Failed())
}

func TestCollect_NoSources(t *testing.T) {
	svc := aggregate.NewService(nil, &fakeFetcher{}, nil, aggregate.DefaultConfig(), quietLogger())

	rep := svc.Collect(context.Background(), nil)

	assert.Empty(t, rep.Result.Articles)
	assert.Empty(t, rep.Sources)
}

func TestCollect_StalledSourceDoesNotBlock(t *testing.T) {
	srcs := sources(3)
	f := &fakeFetcher{
		articles: map[string][]entity.Article{
			"cat-00": {article("cat-00", 1)},
			"cat-02": {article("cat-02", 1)},
		},
		stall: map[string]bool{"cat-01": true},
	}
	svc := aggregate.NewService(srcs, f, nil, aggregate.Config{Concurrency: 3, Timeout: 100 * time.Millisecond}, quietLogger())

	start := time.Now()
	rep := svc.Collect(context.Background(), srcs)

	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, rep.Result.Articles, 2)
	assert.Equal(t, fetch.ReasonTimeout, rep.Sources[1].Reason)
}

func TestAggregate_ResponseCache(t *testing.T) {
	srcs := sources(2)
	f := &fakeFetcher{articles: map[string][]entity.Article{
		"cat-00": {article("cat-00", 1, "AI")},
		"cat-01": {article("cat-01", 1, "Apps")},
	}}
	rc := cache.NewJSONCache[entity.AggregateResult](cache.NewMemoryStore(), cache.LayerResponse, 5*time.Minute, quietLogger())
	svc := aggregate.NewService(srcs, f, rc, aggregate.DefaultConfig(), quietLogger())

	first := svc.Aggregate(context.Background())
	second := svc.Aggregate(context.Background())

	assert.False(t, first.Cached)
	assert.True(t, second.Cached)
	assert.Equal(t, int32(2), f.calls.Load(), "cache hit must skip the fan-out")
	assert.Equal(t, first.Result, second.Result)
	assert.Empty(t, second.Sources)

	statuses, at := svc.LastStatuses()
	assert.Len(t, statuses, 2)
	assert.False(t, at.IsZero())
}

func TestAggregate_AllFailedIsNotCached(t *testing.T) {
	srcs := sources(2)
	f := &fakeFetcher{failing: map[string]bool{"cat-00": true, "cat-01": true}}
	rc := cache.NewJSONCache[entity.AggregateResult](cache.NewMemoryStore(), cache.LayerResponse, 5*time.Minute, quietLogger())
	svc := aggregate.NewService(srcs, f, rc, aggregate.DefaultConfig(), quietLogger())

	svc.Aggregate(context.Background())
	rep := svc.Aggregate(context.Background())

	assert.False(t, rep.Cached)
	assert.Equal(t, int32(4), f.calls.Load())
}

func TestRefresh_OverwritesCache(t *testing.T) {
	srcs := sources(1)
	f := &fakeFetcher{articles: map[string][]entity.Article{"cat-00": {article("cat-00", 1)}}}
	rc := cache.NewJSONCache[entity.AggregateResult](cache.NewMemoryStore(), cache.LayerResponse, 5*time.Minute, quietLogger())
	svc := aggregate.NewService(srcs, f, rc, aggregate.DefaultConfig(), quietLogger())

	svc.Aggregate(context.Background())
	f.articles["cat-00"] = append(f.articles["cat-00"], article("cat-00", 2))
	svc.Refresh(context.Background())

	rep := svc.Aggregate(context.Background())
	assert.True(t, rep.Cached)
	assert.Len(t, rep.Result.Articles, 2)
}

func TestAggregate_BypassEquivalence(t *testing.T) {
	srcs := sources(6)
	f := &fakeFetcher{articles: map[string][]entity.Article{}}
	for i, src := range srcs {
		f.articles[src.Category] = []entity.Article{article(src.Category, i, "AI")}
	}
	svc := aggregate.NewService(srcs, f, nil, aggregate.Config{Concurrency: 3, Timeout: time.Second}, quietLogger())

	a := svc.Aggregate(context.Background())
	b := svc.Aggregate(context.Background())

	assert.Equal(t, links(a.Result), links(b.Result))
}

func TestAggregate_ConcurrentCallers(t *testing.T) {
	srcs := sources(5)
	f := &fakeFetcher{articles: map[string][]entity.Article{"cat-00": {article("cat-00", 1)}}}
	rc := cache.NewJSONCache[entity.AggregateResult](cache.NewMemoryStore(), cache.LayerResponse, 5*time.Minute, quietLogger())
	svc := aggregate.NewService(srcs, f, rc, aggregate.DefaultConfig(), quietLogger())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep := svc.Aggregate(context.Background())
			assert.Len(t, rep.Result.Articles, 1)
		}()
	}
	wg.Wait()
}

func TestService_Categories(t *testing.T) {
	svc := aggregate.NewService(sources(3), &fakeFetcher{}, nil, aggregate.DefaultConfig(), quietLogger())
	assert.Equal(t, []string{"cat-00", "cat-01", "cat-02"}, svc.Categories())
	assert.Equal(t, "aggregate:news", svc.CacheKey())
}

func TestCollect_CanceledContext(t *testing.T) {
	srcs := sources(3)
	f := &fakeFetcher{}
	svc := aggregate.NewService(srcs, f, nil, aggregate.DefaultConfig(), quietLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rep := svc.Collect(ctx, srcs)

	require.Len(t, rep.Sources, 3)
	assert.Empty(t, rep.Result.Articles)
	for _, st := range rep.Sources {
		assert.NotEqual(t, fetch.ReasonOK, st.Reason)
	}
}
