package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"feedhub/internal/domain/entity"
)

//go:embed defaults/sources.yaml
var defaultSourcesYAML []byte

// ErrNoSources is returned when a source list parses but lists nothing.
var ErrNoSources = errors.New("source list is empty")

// SourceList is the on-disk shape of a source list.
type SourceList struct {
	Publisher string          `yaml:"publisher"`
	Sources   []entity.Source `yaml:"sources"`
}

// Categories returns the category labels in configuration order.
func (l SourceList) Categories() []string {
	out := make([]string, 0, len(l.Sources))
	for _, s := range l.Sources {
		out = append(out, s.Category)
	}
	return out
}

// LoadSources reads the list at path, or the embedded default when path is
// empty. Every source is validated, its Publisher defaulted from the list,
// and duplicate categories rejected.
func LoadSources(path string) (*SourceList, error) {
	data := defaultSourcesYAML
	if path != "" {
		// #nosec G304 -- path comes from operator configuration
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read source list: %w", err)
		}
		data = b
	}
	return ParseSources(data)
}

// ParseSources decodes and validates a YAML source list.
func ParseSources(data []byte) (*SourceList, error) {
	var list SourceList
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse source list: %w", err)
	}
	if len(list.Sources) == 0 {
		return nil, ErrNoSources
	}

	seen := make(map[string]struct{}, len(list.Sources))
	for i := range list.Sources {
		src := &list.Sources[i]
		src.Category = strings.TrimSpace(src.Category)
		src.URL = strings.TrimSpace(src.URL)
		if err := src.Validate(); err != nil {
			return nil, fmt.Errorf("source %d (%s): %w", i, src.Category, err)
		}
		if _, dup := seen[src.Category]; dup {
			return nil, fmt.Errorf("source %d: duplicate category %q", i, src.Category)
		}
		seen[src.Category] = struct{}{}
		if src.Publisher == "" {
			src.Publisher = list.Publisher
		}
	}
	return &list, nil
}
