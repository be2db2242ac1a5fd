// Package news serves the aggregated news endpoints and shapes their payloads.
package news

import (
	"sort"

	"feedhub/internal/domain/entity"
)

// ArticleDTO is the wire form of an article.
type ArticleDTO struct {
	Title       string   `json:"title"`
	Link        string   `json:"link"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Published   string   `json:"published"`
	Image       *string  `json:"image"`
	Topics      []string `json:"topics"`
	Category    string   `json:"category"`
	Source      string   `json:"source"`
}

// NewsResponse is the body of GET /api/news.
type NewsResponse struct {
	News   []ArticleDTO `json:"news"`
	Topics []string     `json:"topics"`
}

// GroupedResponse is the body of GET /api/news/categories.
type GroupedResponse struct {
	Categories map[string][]ArticleDTO `json:"categories"`
	Topics     []string                `json:"topics"`
}

// Options controls presentation-only choices.
type Options struct {
	// PlaceholderImage replaces a missing image. Empty keeps it null.
	PlaceholderImage string
}

// Build shapes an aggregate result for the wire. Topics are sorted and the
// slices are never null.
func Build(result entity.AggregateResult, opts Options) NewsResponse {
	news := make([]ArticleDTO, 0, len(result.Articles))
	for _, a := range result.Articles {
		news = append(news, toDTO(a, opts))
	}
	return NewsResponse{News: news, Topics: sortedTopics(result.Topics)}
}

// BuildGrouped groups articles by category. Every category in categories is
// present, possibly with an empty list; articles of unlisted categories get
// their own key.
func BuildGrouped(result entity.AggregateResult, categories []string, opts Options) GroupedResponse {
	grouped := make(map[string][]ArticleDTO, len(categories))
	for _, c := range categories {
		grouped[c] = []ArticleDTO{}
	}
	for _, a := range result.Articles {
		grouped[a.Category] = append(grouped[a.Category], toDTO(a, opts))
	}
	return GroupedResponse{Categories: grouped, Topics: sortedTopics(result.Topics)}
}

func toDTO(a entity.Article, opts Options) ArticleDTO {
	dto := ArticleDTO{
		Title:       a.Title,
		Link:        a.Link,
		Description: a.Description,
		Author:      a.Author,
		Published:   a.PublishedAt,
		Image:       a.ImageURL,
		Topics:      a.Topics,
		Category:    a.Category,
		Source:      a.SourceName,
	}
	if dto.Topics == nil {
		dto.Topics = []string{}
	}
	if dto.Image == nil && opts.PlaceholderImage != "" {
		placeholder := opts.PlaceholderImage
		dto.Image = &placeholder
	}
	return dto
}

func sortedTopics(topics []string) []string {
	out := append([]string{}, topics...)
	sort.Strings(out)
	return out
}
