package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil slice", input: nil, want: nil},
		{name: "empty slice", input: []string{}, want: []string{}},
		{
			name:  "trims whitespace",
			input: []string{"  water  ", "wells  ", "  health"},
			want:  []string{"water", "wells", "health"},
		},
		{
			name:  "drops duplicates preserving first-seen order",
			input: []string{"water", "wells", "water", "health", "wells"},
			want:  []string{"water", "wells", "health"},
		},
		{
			name:  "drops empties and whitespace-only elements",
			input: []string{"water", "", "  ", "wells"},
			want:  []string{"water", "wells"},
		},
		{
			name:  "keeps case-distinct elements",
			input: []string{"Water", "water", "WATER"},
			want:  []string{"Water", "water", "WATER"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrim(tt.input))
		})
	}
}

func TestDedupeAndTrimLower(t *testing.T) {
	tests := []struct {
		name  string
		input []string
		want  []string
	}{
		{name: "nil slice", input: nil, want: nil},
		{
			name:  "lowercases before deduplicating",
			input: []string{"Water", "water", "WATER"},
			want:  []string{"water"},
		},
		{
			name:  "trims then lowercases then deduplicates",
			input: []string{"  WATER ", "wells", "Water", "WELLS"},
			want:  []string{"water", "wells"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DedupeAndTrimLower(tt.input))
		})
	}
}
