package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"plain", "Glycerin", "Glycerin"},
		{"asterisk suffix", "Aqua*", "Aqua"},
		{"multiple decorations", "**Tocopherol†**", "Tocopherol"},
		{"surrounding whitespace", "  Cetyl Alcohol \t", "Cetyl Alcohol"},
		{"only decoration", "***", ""},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
		{"interior asterisk", "Shea*Butter", "SheaButter"},
		{"decomposed accent", "Acaí", "Acaí"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.raw))
		})
	}
}
