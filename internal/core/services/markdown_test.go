package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripMarkdown(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "headings removed",
			input:    "# Title\n## Subtitle",
			expected: "Title\nSubtitle",
		},
		{
			name:     "bold removed",
			input:    "Give **oxygen** early",
			expected: "Give oxygen early",
		},
		{
			name:     "links converted",
			input:    "See [sepsis pathway](/protocols/sepsis)",
			expected: "See sepsis pathway",
		},
		{
			name:     "image alt text kept",
			input:    "![ECG strip](ecg.png)",
			expected: "ECG strip",
		},
		{
			name:     "inline code kept",
			input:    "Start `piperacillin` IV",
			expected: "Start piperacillin IV",
		},
		{
			name:     "code fences dropped",
			input:    "Before\n```\ndose = 4.5 g\n```\nAfter",
			expected: "Before\n\ndose = 4.5 g\n\nAfter",
		},
		{
			name:     "blockquotes cleaned",
			input:    "> Escalate to senior",
			expected: "Escalate to senior",
		},
		{
			name:     "list markers removed",
			input:    "- Fluids\n- Antibiotics",
			expected: "Fluids\nAntibiotics",
		},
		{
			name:     "numbered list markers removed",
			input:    "1. Assess\n2) Treat",
			expected: "Assess\nTreat",
		},
		{
			name:     "table pipes removed",
			input:    "| Drug | Dose |\n|---|---|\n| Paracetamol | 1 g |",
			expected: "Drug   Dose  \n\n  Paracetamol   1 g",
		},
		{
			name:     "snake case untouched",
			input:    "anion_gap",
			expected: "anion_gap",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, stripMarkdown(tc.input))
		})
	}
}
