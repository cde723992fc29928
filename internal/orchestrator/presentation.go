package orchestrator

import "github.com/local/pdfcutter/internal/pages"

// Scope names a group of user controls the orchestrator enables or disables.
type Scope uint8

const (
	ScopeFile      Scope = 1 << iota // open / choose source
	ScopeSelection                   // mode and page fields
	ScopeOutput                      // custom output toggle and directory
	ScopeCut                         // the cut trigger

	ScopeAll = ScopeFile | ScopeSelection | ScopeOutput | ScopeCut
)

// Has reports whether s includes every bit of other.
func (s Scope) Has(other Scope) bool { return s&other == other }

// NoticeKind classifies a user-visible message.
type NoticeKind string

const (
	NoticeInfo  NoticeKind = "info"
	NoticeError NoticeKind = "error"
)

// User-facing texts.
const (
	MsgEnterPages = "Enter page numbers"
	MsgValueError = "Option value error"
	MsgCompleted  = "Successfully completed"

	StatusCutting = "Cut process.."
	StatusReady   = "Ready.."
)

// Presentation is the user surface a cut reads its inputs from and reports to.
// Methods may be called from the cut worker goroutine.
type Presentation interface {
	SelectionMode() pages.Mode
	// RawFields returns the untrimmed field texts for mode: start and end for
	// Range, the comma list for Multiple. Each ignores them.
	RawFields(mode pages.Mode) []string
	WantsCustomOutput() bool
	OutputDir() string
	SourcePath() string

	SetControlsEnabled(enabled bool, scope Scope)
	ShowNotice(kind NoticeKind, text string)
	SetStatusText(text string)
}
