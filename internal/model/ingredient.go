package model

import "strings"

// ExtractionStrategy tags which parsing strategy produced a candidate.
type ExtractionStrategy string

const (
	StrategyTableRow ExtractionStrategy = "table_row"
	StrategyListItem ExtractionStrategy = "list_item"
)

// CandidateIngredient is a raw ingredient name pulled out of generated
// formulation text. Raw is kept exactly as extracted (decoration included)
// because the final report displays the original string.
type CandidateIngredient struct {
	Raw      string             `json:"raw"`
	Index    int                `json:"index"`
	Strategy ExtractionStrategy `json:"strategy"`
}

// LookupOutcome classifies a single compound-database lookup.
type LookupOutcome string

const (
	OutcomeVerified    LookupOutcome = "Verified"
	OutcomeNotFound    LookupOutcome = "NotFound"
	OutcomeEmptyQuery  LookupOutcome = "EmptyQuery"
	OutcomeLookupError LookupOutcome = "LookupError"
)

// LookupResult is the outcome of verifying a normalized ingredient name
// against the compound database. Formula is set only for Verified.
type LookupResult struct {
	Outcome   LookupOutcome `json:"outcome"`
	Formula   string        `json:"formula,omitempty"`
	IUPACName string        `json:"iupac_name,omitempty"`
}

// ComponentResult pairs a decomposed component name with its re-verification
// result.
type ComponentResult struct {
	Name   string       `json:"name"`
	Result LookupResult `json:"result"`
}

// ComplexAnalysis is the escalator's decomposition of an unverifiable
// ingredient. A failed parse of the model response yields Rationale
// "Analysis Failed" and no components.
type ComplexAnalysis struct {
	Rationale  string            `json:"rationale"`
	Components []ComponentResult `json:"components,omitempty"`
}

// Summary renders the analysis as a single human-readable detail string of
// the form "<rationale>: <component> (<outcome>), ...". With no components
// only the rationale is returned.
func (a ComplexAnalysis) Summary() string {
	if len(a.Components) == 0 {
		return a.Rationale
	}
	parts := make([]string, len(a.Components))
	for i, c := range a.Components {
		parts[i] = c.Name + " (" + string(c.Result.Outcome) + ")"
	}
	return a.Rationale + ": " + strings.Join(parts, ", ")
}

// RowStatus is the closed set of statuses a report row can carry.
type RowStatus string

const (
	StatusVerified       RowStatus = "Verified"
	StatusNotFound       RowStatus = "Not Found"
	StatusComplex        RowStatus = "Complex"
	StatusAnalysisFailed RowStatus = "Analysis Failed"
	StatusAPIError       RowStatus = "API Error"
	StatusEmpty          RowStatus = "Empty"
)

// RowStatusFor maps a direct lookup outcome to its display status. NotFound
// rows normally go through escalation first; this mapping is for rows that
// end without escalation.
func RowStatusFor(outcome LookupOutcome) RowStatus {
	switch outcome {
	case OutcomeVerified:
		return StatusVerified
	case OutcomeNotFound:
		return StatusNotFound
	case OutcomeEmptyQuery:
		return StatusEmpty
	default:
		return StatusAPIError
	}
}

// DisplayClass is the status-to-color hint consumed by renderers.
type DisplayClass string

const (
	DisplaySuccess DisplayClass = "success"
	DisplayInfo    DisplayClass = "info"
	DisplayError   DisplayClass = "error"
)

// ReportRow is the final per-ingredient record handed to the rendering
// collaborator. Ingredient is the raw extracted string, not the normalized
// form.
type ReportRow struct {
	Ingredient string    `json:"ingredient"`
	Status     RowStatus `json:"status"`
	Detail     string    `json:"detail"`
}

// DisplayClass returns the rendering hint for the row's status.
func (r ReportRow) DisplayClass() DisplayClass {
	switch r.Status {
	case StatusVerified:
		return DisplaySuccess
	case StatusComplex, StatusAnalysisFailed:
		return DisplayInfo
	default:
		return DisplayError
	}
}
