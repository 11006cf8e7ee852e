package structure

import "fmt"

// DiagnosticKind classifies a parse decision worth reporting.
type DiagnosticKind string

const (
	DiagDuplicateArticle DiagnosticKind = "duplicate-article"
	DiagDuplicateClause  DiagnosticKind = "duplicate-clause"
	DiagDuplicatePoint   DiagnosticKind = "duplicate-point"
	DiagOrphanClause     DiagnosticKind = "orphan-clause"
	DiagOrphanPoint      DiagnosticKind = "orphan-point"
	DiagOrphanNote       DiagnosticKind = "orphan-note"
	DiagSentinel         DiagnosticKind = "sentinel"
	DiagGrouping         DiagnosticKind = "grouping"
	DiagPeekAbandoned    DiagnosticKind = "peek-abandoned"
	DiagAppendedNote     DiagnosticKind = "appended-note"
	DiagUnattachedNote   DiagnosticKind = "unattached-note"
)

// Diagnostic records a recovered irregularity or a notable decision. Line is
// 1-based over the whole input.
type Diagnostic struct {
	Line    int            `json:"line"`
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	Key     string         `json:"key,omitempty"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("line %d: %s: %s", d.Line, d.Kind, d.Message)
}

// Sink receives diagnostics as the parser produces them.
type Sink func(Diagnostic)
