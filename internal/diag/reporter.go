package diag

import (
	"fmt"
	"go/token"
	"sort"
	"sync"

	"github.com/sirkon/gomacros/internal/macrules"
	"github.com/sirkon/gomacros/internal/syntax"
)

// Severity of a diagnostic.
type Severity int

const (
	severityInvalid Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return fmt.Sprintf("unknown-severity(%d)", s)
	}
}

// SeverityOf returns the severity a code is reported with.
func SeverityOf(code macrules.Code) Severity {
	if code == macrules.NothingToGenerate() {
		return SeverityWarning
	}
	return SeverityError
}

// Phase marks the pipeline stage where a diagnostic was generated.
type Phase int

const (
	phaseInvalid Phase = iota
	PhaseIngest        // directive and item reading
	PhaseValidate      // option decoding and macro preconditions
	PhaseSynthesize    // plan rendering
	PhaseAssemble      // package-level merge of site outputs
)

func (p Phase) String() string {
	switch p {
	case PhaseIngest:
		return "ingest"
	case PhaseValidate:
		return "validate"
	case PhaseSynthesize:
		return "synthesize"
	case PhaseAssemble:
		return "assemble"
	default:
		return fmt.Sprintf("unknown-phase(%d)", p)
	}
}

// Diagnostic represents a single diagnostic entry.
type Diagnostic struct {
	Phase    Phase
	Severity Severity
	Code     macrules.Code
	Message  string
	Span     syntax.Span

	// Context names the innermost syntax node holding the span, like
	// "field Cache". It is empty when unknown.
	Context string
}

// Reporter collects diagnostics of an expansion.
type Reporter struct {
	mu       sync.Mutex
	diags    []Diagnostic
	describe func(token.Pos) string
}

// NewReporter creates a reporter. The optional describe function fills
// Diagnostic.Context for every report without one.
func NewReporter(describe func(token.Pos) string) *Reporter {
	return &Reporter{describe: describe}
}

// ReporterPhase binds a Reporter to a fixed phase.
type ReporterPhase struct {
	parent *Reporter
	phase  Phase
}

// Phase returns a phase-bound reporter that sets the given phase for all
// diagnostics produced through it.
func (r *Reporter) Phase(p Phase) *ReporterPhase {
	return &ReporterPhase{parent: r, phase: p}
}

// Report adds a new record to the reporter.
func (r *Reporter) Report(d Diagnostic) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if d.Severity == severityInvalid {
		d.Severity = SeverityOf(d.Code)
	}
	if d.Context == "" && r.describe != nil {
		d.Context = r.describe(d.Span.Pos)
	}
	r.diags = append(r.diags, d)
}

// Report records a diagnostic under the bound phase. The code description is
// used when the message is empty.
func (rp *ReporterPhase) Report(code macrules.Code, span syntax.Span, message string) {
	if message == "" {
		message = code.Description()
	}
	rp.parent.Report(Diagnostic{
		Phase:   rp.phase,
		Code:    code,
		Message: message,
		Span:    span,
	})
}

// Reportf is Report with a formatted message.
func (rp *ReporterPhase) Reportf(code macrules.Code, span syntax.Span, format string, args ...any) {
	rp.Report(code, span, fmt.Sprintf(format, args...))
}

// Diagnostics returns a snapshot of all collected records.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.diags))
	copy(out, r.diags)
	return out
}

// HasErrors reports whether an error-level diagnostic was collected.
func (r *Reporter) HasErrors() bool {
	return HasErrors(r.Diagnostics())
}

// HasErrors reports whether the list contains an error-level diagnostic.
func HasErrors(ds []Diagnostic) bool {
	for _, d := range ds {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Sort orders diagnostics by position, then code, then message.
func Sort(ds []Diagnostic) {
	sort.SliceStable(ds, func(i, j int) bool {
		di, dj := ds[i], ds[j]
		if di.Span.Pos != dj.Span.Pos {
			return di.Span.Pos < dj.Span.Pos
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})
}
