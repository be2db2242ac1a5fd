package text_test

import (
	"testing"

	"feedhub/internal/utils/text"
)

func TestCountRunes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{name: "ASCII text", input: "hello", expected: 5},
		{name: "Japanese hiragana", input: "こんにちは", expected: 5},
		{name: "English and Japanese", input: "hello世界", expected: 7},
		{name: "ASCII with emoji", input: "Hello👋", expected: 6},
		{name: "empty", input: "", expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.CountRunes(tt.input); got != tt.expected {
				t.Errorf("CountRunes(%q) = %d, want %d", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCollapseSpace(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already clean", input: "a b c", want: "a b c"},
		{name: "newlines and tabs", input: "\n\ta\n\n b\t\tc  ", want: "a b c"},
		{name: "non-breaking space", input: "a  b", want: "a b"},
		{name: "only whitespace", input: " \n\t ", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := text.CollapseSpace(tt.input); got != tt.want {
				t.Errorf("CollapseSpace(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{name: "disabled", input: "hello world", max: 0, want: "hello world"},
		{name: "shorter than max", input: "hello", max: 10, want: "hello"},
		{name: "exact length", input: "hello", max: 5, want: "hello"},
		{name: "cut with ellipsis", input: "hello world", max: 8, want: "hello..."},
		{name: "multibyte", input: "こんにちは世界", max: 5, want: "こん..."},
		{name: "tiny max", input: "hello", max: 2, want: "he"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := text.Truncate(tt.input, tt.max)
			if got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.want)
			}
			if tt.max > 0 && text.CountRunes(got) > tt.max {
				t.Errorf("Truncate(%q, %d) returned %d runes", tt.input, tt.max, text.CountRunes(got))
			}
		})
	}
}

func BenchmarkCollapseSpace(b *testing.B) {
	input := "  Machine Learning\n\n and Deep Learning\tare transforming technology.  "
	for i := 0; i < b.N; i++ {
		_ = text.CollapseSpace(input)
	}
}
