package pipeline

import (
	"regexp"
	"strings"

	"github.com/formulary-labs/formulation-cli/internal/model"
)

// extractStrategy is a pure text → candidates function. Strategies are
// tried in priority order; the first one yielding at least one candidate
// wins and later strategies are not run.
type extractStrategy func(text string) []model.CandidateIngredient

var extractStrategies = []extractStrategy{
	extractTableRows,
	extractListItems,
}

// ExtractIngredients pulls candidate ingredient names out of generated
// formulation text. Returns nil when nothing parseable is found; the caller
// decides how to surface that. Never panics on malformed input.
func ExtractIngredients(text string) []model.CandidateIngredient {
	for _, strategy := range extractStrategies {
		if candidates := strategy(text); len(candidates) > 0 {
			return candidates
		}
	}
	return nil
}

// extractTableRows scans for Markdown table rows. A line qualifies when its
// trimmed form starts and ends with "|". Splitting on "|" must yield at
// least 3 segments; the ingredient column is fixed at segment index 2 by the
// brief's table layout, never inferred from header text.
func extractTableRows(text string) []model.CandidateIngredient {
	var out []model.CandidateIngredient
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if len(trimmed) < 2 || !strings.HasPrefix(trimmed, "|") || !strings.HasSuffix(trimmed, "|") {
			continue
		}
		cols := strings.Split(trimmed, "|")
		if len(cols) < 3 {
			continue
		}
		name := strings.TrimSpace(cols[2])
		if name == "" || isHeaderCell(name) || isSeparatorCell(name) {
			continue
		}
		out = append(out, model.CandidateIngredient{
			Raw:      name,
			Index:    len(out),
			Strategy: model.StrategyTableRow,
		})
	}
	return out
}

// isHeaderCell reports whether a cell is a column header rather than data.
func isHeaderCell(cell string) bool {
	lower := strings.ToLower(cell)
	return strings.Contains(lower, "ingredient name") || strings.EqualFold(cell, "Phase")
}

// isSeparatorCell reports whether a cell is table separator punctuation
// (runs of "-", optionally with ":" alignment markers).
func isSeparatorCell(cell string) bool {
	return strings.Trim(cell, "-: ") == ""
}

// listItemRe matches numbered ("1.") or bulleted ("-") items followed by a
// name of letters, spaces, parentheses, and hyphens. Capture stops at the
// first disallowed character (digits of a percentage, a colon, etc.).
var listItemRe = regexp.MustCompile(`^\s*(?:\d+\.|-)\s+([A-Za-z][A-Za-z() \-]*)`)

// extractListItems is the fallback for formulations written as plain lists
// instead of tables.
func extractListItems(text string) []model.CandidateIngredient {
	var out []model.CandidateIngredient
	for _, line := range strings.Split(text, "\n") {
		m := listItemRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := strings.TrimRight(m[1], " -")
		if name == "" {
			continue
		}
		out = append(out, model.CandidateIngredient{
			Raw:      name,
			Index:    len(out),
			Strategy: model.StrategyListItem,
		})
	}
	return out
}
