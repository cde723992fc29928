// Package console presents a cut on a terminal: inputs come from command
// flags and notices are printed.
package console

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/pages"
)

// Options carries the raw flag values of one cut.
type Options struct {
	Source string
	Mode   pages.Mode
	Start  string
	End    string
	Pages  string
	Out    string // non-empty selects a custom output directory

	Stdout io.Writer
	Stderr io.Writer
}

// Console implements orchestrator.Presentation.
type Console struct {
	opts Options

	mu      sync.Mutex
	enabled orchestrator.Scope
	status  string
}

func New(opts Options) *Console {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	return &Console{opts: opts, enabled: orchestrator.ScopeAll}
}

func (c *Console) SelectionMode() pages.Mode { return c.opts.Mode }

func (c *Console) RawFields(mode pages.Mode) []string {
	switch mode {
	case pages.Range:
		return []string{c.opts.Start, c.opts.End}
	case pages.Multiple:
		return []string{c.opts.Pages}
	default:
		return nil
	}
}

func (c *Console) WantsCustomOutput() bool { return c.opts.Out != "" }
func (c *Console) OutputDir() string       { return c.opts.Out }
func (c *Console) SourcePath() string      { return c.opts.Source }

func (c *Console) SetControlsEnabled(enabled bool, scope orchestrator.Scope) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if enabled {
		c.enabled |= scope
	} else {
		c.enabled &^= scope
	}
}

// Enabled reports whether every control in scope is enabled.
func (c *Console) Enabled(scope orchestrator.Scope) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled.Has(scope)
}

func (c *Console) ShowNotice(kind orchestrator.NoticeKind, text string) {
	if kind == orchestrator.NoticeError {
		fmt.Fprintln(c.opts.Stderr, "error:", text)
		return
	}
	fmt.Fprintln(c.opts.Stdout, text)
}

func (c *Console) SetStatusText(text string) {
	c.mu.Lock()
	c.status = text
	c.mu.Unlock()
	log.Debug().Str("status", text).Msg("status")
}

// Status returns the last status text.
func (c *Console) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
