package pipeline

import (
	"fmt"
	"strings"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// FormatReport generates a human-readable verification report.
func FormatReport(category string, rows []model.ReportRow, phases []model.PhaseResult, totalUsage model.TokenUsage) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Formulation Report: %s\n\n", category)

	// Summary.
	counts := map[model.RowStatus]int{}
	for _, row := range rows {
		counts[row.Status]++
	}
	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Ingredients checked: %d\n", len(rows))
	fmt.Fprintf(&b, "- Verified: %d\n", counts[model.StatusVerified])
	fmt.Fprintf(&b, "- Complex: %d\n", counts[model.StatusComplex])
	fmt.Fprintf(&b, "- Not found: %d\n", counts[model.StatusNotFound])
	fmt.Fprintf(&b, "- Errors: %d\n",
		counts[model.StatusAPIError]+counts[model.StatusAnalysisFailed])
	fmt.Fprintf(&b, "- Token usage: %d prompt, %d completion\n\n",
		totalUsage.PromptTokens, totalUsage.CompletionTokens)

	// Ingredient table.
	b.WriteString("## Ingredients\n")
	if len(rows) == 0 {
		b.WriteString("No ingredients extracted.\n\n")
	} else {
		b.WriteString("| Ingredient | Status | Detail |\n")
		b.WriteString("|---|---|---|\n")
		for _, row := range rows {
			fmt.Fprintf(&b, "| %s | %s | %s |\n",
				escapeCell(row.Ingredient), row.Status, escapeCell(row.Detail))
		}
		b.WriteString("\n")
	}

	// Phase results.
	b.WriteString("## Phases\n")
	for _, p := range phases {
		fmt.Fprintf(&b, "- %s: %s (%dms)\n", p.Name, p.Status, p.Duration)
		if p.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", p.Error)
		}
	}

	return b.String()
}

// escapeCell keeps free-text values from breaking the markdown table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
