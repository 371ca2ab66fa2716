package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDedupeAndTrim(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{name: "nil stays nil", input: nil, expected: nil},
		{name: "empty stays empty", input: []string{}, expected: []string{}},
		{
			name:     "first occurrence wins",
			input:    []string{"ocr_service", "face_api", "ocr_service"},
			expected: []string{"ocr_service", "face_api"},
		},
		{
			name:     "trims before comparing",
			input:    []string{" watchlist_ofac", "watchlist_ofac ", "\tpep_check"},
			expected: []string{"watchlist_ofac", "pep_check"},
		},
		{
			name:     "blanks are dropped",
			input:    []string{"", "  ", "data_quality_gate"},
			expected: []string{"data_quality_gate"},
		},
		{
			name:     "case sensitive",
			input:    []string{"OFAC", "ofac"},
			expected: []string{"OFAC", "ofac"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DedupeAndTrim(tt.input))
		})
	}
}
