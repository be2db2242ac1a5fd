package extract

import (
	"strings"

	"feedhub/internal/domain/entity"
)

// Topics maps the entry's tag list to a set of trimmed terms, keeping first
// occurrence order. The result is never nil.
func Topics(e entity.Entry) []string {
	topics := make([]string, 0, len(e.Tags))
	seen := make(map[string]struct{}, len(e.Tags))
	for _, tag := range e.Tags {
		term := strings.TrimSpace(tag)
		if term == "" {
			continue
		}
		if _, ok := seen[term]; ok {
			continue
		}
		seen[term] = struct{}{}
		topics = append(topics, term)
	}
	return topics
}
