// Package entity defines the core domain values of the aggregator: the normalized
// Article, the configured Source, the raw feed Entry and the AggregateResult that
// the read API serves.
package entity

import "sort"

// Article is a normalized news item. It is a value type and is never mutated
// after construction; a fresher generation replaces it on cache refresh.
type Article struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	PublishedAt string   `json:"published"`
	ImageURL    *string  `json:"image"`
	Topics      []string `json:"topics"`
	Category    string   `json:"category"`
	SourceName  string   `json:"source"`
}

// HasImage reports whether the article carries an image URL.
func (a Article) HasImage() bool {
	return a.ImageURL != nil && *a.ImageURL != ""
}

// AggregateResult is the merged output of one fan-out over all sources.
// Topics is always exactly the union of the topics of Articles.
type AggregateResult struct {
	Articles []Article `json:"articles"`
	Topics   []string  `json:"topics"`
}

// NewAggregateResult builds a result from articles in arrival order.
// Articles sharing a link are collapsed (the first one wins) and the topic set
// is derived from the articles that survive, so the union invariant holds by
// construction.
func NewAggregateResult(articles []Article) AggregateResult {
	kept := make([]Article, 0, len(articles))
	seenLinks := make(map[string]struct{}, len(articles))
	topicSet := make(map[string]struct{})

	for _, a := range articles {
		if _, dup := seenLinks[a.Link]; dup {
			continue
		}
		seenLinks[a.Link] = struct{}{}
		kept = append(kept, a)
		for _, t := range a.Topics {
			topicSet[t] = struct{}{}
		}
	}

	topics := make([]string, 0, len(topicSet))
	for t := range topicSet {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	return AggregateResult{Articles: kept, Topics: topics}
}

// Len returns the number of articles in the result.
func (r AggregateResult) Len() int {
	return len(r.Articles)
}
