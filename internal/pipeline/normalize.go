package pipeline

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// decorationReplacer strips asterisks and footnote daggers that generated
// tables attach to ingredient names.
var decorationReplacer = strings.NewReplacer("*", "", "†", "", "‡", "")

// NormalizeName prepares a raw extracted name for database lookup: Unicode
// NFC composition (generated text mixes composed and decomposed accents),
// decoration stripping, and whitespace trimming. An empty result means the
// ingredient is degenerate and must be excluded from the report entirely.
func NormalizeName(raw string) string {
	s := norm.NFC.String(raw)
	s = decorationReplacer.Replace(s)
	return strings.TrimSpace(s)
}
