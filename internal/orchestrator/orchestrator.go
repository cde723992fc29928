// Package orchestrator runs one cut at a time: it reads the user's selection
// from a Presentation, validates it against the open document, and drives the
// split and write pipeline on a background goroutine.
package orchestrator

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/codec"
	"github.com/local/pdfcutter/internal/limiter"
	"github.com/local/pdfcutter/internal/logger"
	"github.com/local/pdfcutter/internal/metrics"
	"github.com/local/pdfcutter/internal/pages"
	"github.com/local/pdfcutter/internal/planner"
	"github.com/local/pdfcutter/internal/sink"
	"github.com/local/pdfcutter/internal/splitter"
)

// ErrBusy is returned when a cut or open is requested while a cut is running.
var ErrBusy = errors.New("a cut is already running")

// Guard admits a single cut at a time. Share one Guard between orchestrators
// that must not run concurrently.
type Guard = limiter.Slots

func NewGuard() *Guard { return limiter.New(1) }

// Fetcher makes a source reference available as a local file.
type Fetcher interface {
	Fetch(ctx context.Context, ref string) (path string, cleanup func(), err error)
}

// Verifier checks that the file at path holds the given number of pages.
type Verifier func(path string, pages int) error

// Dependencies wires an Orchestrator.
type Dependencies struct {
	Codec        codec.Codec
	Sink         sink.Sink
	Presentation Presentation
	Fetcher      Fetcher  // nil: references are local paths
	Guard        *Guard   // nil: a private guard
	Verify       Verifier // nil: written files are not re-checked
	JobID        string
}

// Outcome is the result of the last finished cut.
type Outcome struct {
	State State
	Files []string
	Err   error
}

type Orchestrator struct {
	deps  Dependencies
	guard *Guard
	state atomic.Int32

	mu      sync.Mutex
	doc     codec.Document
	ref     string
	cleanup func()
	done    chan struct{}
	last    Outcome
}

func New(deps Dependencies) *Orchestrator {
	g := deps.Guard
	if g == nil {
		g = NewGuard()
	}
	if deps.Sink == nil {
		deps.Sink = sink.Local{}
	}
	return &Orchestrator{deps: deps, guard: g}
}

// State returns the current lifecycle state.
func (o *Orchestrator) State() State { return State(o.state.Load()) }

func (o *Orchestrator) setState(s State) {
	prev := State(o.state.Swap(int32(s)))
	if prev != s {
		log.Debug().Str("job_id", o.deps.JobID).Stringer("from", prev).Stringer("to", s).Msg("cut state")
	}
}

// Open replaces the current document with the one at ref. On failure the
// selection and cut controls stay disabled until a readable document is opened.
func (o *Orchestrator) Open(ctx context.Context, ref string) error {
	release, ok := o.guard.Allow()
	if !ok {
		return ErrBusy
	}
	defer release()

	p := o.deps.Presentation
	if _, err := o.open(ctx, ref); err != nil {
		p.ShowNotice(NoticeError, err.Error())
		p.SetControlsEnabled(false, ScopeSelection|ScopeOutput|ScopeCut)
		p.SetControlsEnabled(true, ScopeFile)
		return err
	}
	p.SetControlsEnabled(true, ScopeAll)
	return nil
}

// open must be called with the guard held.
func (o *Orchestrator) open(ctx context.Context, ref string) (codec.Document, error) {
	o.mu.Lock()
	o.closeLocked()
	o.mu.Unlock()

	path, cleanup := ref, func() {}
	if o.deps.Fetcher != nil {
		var err error
		path, cleanup, err = o.deps.Fetcher.Fetch(ctx, ref)
		if err != nil {
			return nil, &codec.UnreadableDocumentError{Path: ref, Err: err}
		}
	}
	doc, err := o.deps.Codec.Open(path)
	if err != nil {
		cleanup()
		var ue *codec.UnreadableDocumentError
		if !errors.As(err, &ue) {
			err = &codec.UnreadableDocumentError{Path: ref, Err: err}
		}
		log.Warn().Err(err).Str("source", ref).Msg("cannot open document")
		return nil, err
	}

	o.mu.Lock()
	o.doc, o.ref, o.cleanup = doc, ref, cleanup
	o.mu.Unlock()
	log.Info().Str("source", ref).Int("pages", doc.PageCount()).Msg("document opened")
	return doc, nil
}

// document returns the open document for ref, opening it if ref changed.
func (o *Orchestrator) document(ctx context.Context, ref string) (codec.Document, string, error) {
	o.mu.Lock()
	doc, cur := o.doc, o.ref
	o.mu.Unlock()

	if doc != nil && (ref == "" || ref == cur) {
		return doc, cur, nil
	}
	if ref == "" {
		return nil, "", &codec.UnreadableDocumentError{Err: errors.New("no document selected")}
	}
	doc, err := o.open(ctx, ref)
	return doc, ref, err
}

// Cut starts a cut on a background goroutine and returns immediately.
// It returns ErrBusy if a cut is already running. The cut is not tied to
// ctx's cancellation; it always runs to completion or failure.
func (o *Orchestrator) Cut(ctx context.Context) error {
	release, ok := o.guard.Allow()
	if !ok {
		log.Warn().Str("job_id", o.deps.JobID).Msg("cut rejected, another cut is running")
		return ErrBusy
	}
	o.deps.Presentation.SetControlsEnabled(false, ScopeAll)

	done := make(chan struct{})
	o.mu.Lock()
	o.done = done
	o.mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	go func() {
		defer close(done)
		defer release()
		out := o.run(ctx)
		o.mu.Lock()
		o.last = out
		o.mu.Unlock()
	}()
	return nil
}

// Wait blocks until the running cut, if any, finishes and returns the outcome
// of the last cut.
func (o *Orchestrator) Wait() Outcome {
	o.mu.Lock()
	done := o.done
	o.mu.Unlock()
	if done != nil {
		<-done
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.last
}

// Close waits for a running cut and releases the open document.
func (o *Orchestrator) Close() error {
	o.Wait()
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closeLocked()
}

func (o *Orchestrator) closeLocked() error {
	var err error
	if o.doc != nil {
		err = o.doc.Close()
	}
	if o.cleanup != nil {
		o.cleanup()
	}
	o.doc, o.ref, o.cleanup = nil, "", nil
	return err
}

func (o *Orchestrator) run(ctx context.Context) (out Outcome) {
	p := o.deps.Presentation
	start := time.Now()
	mode := p.SelectionMode()
	l := logger.ForJob(o.deps.JobID).With().Str("mode", mode.String()).Logger()

	restore := ScopeAll
	result := "completed"
	defer func() {
		o.setState(out.State)
		metrics.ObserveCut(mode.String(), result, time.Since(start))
		p.SetControlsEnabled(true, restore)
		p.SetStatusText(StatusReady)
		o.setState(Idle)

		ev := l.Info()
		if out.Err != nil {
			ev = l.Warn().Err(out.Err)
		}
		ev.Int("files", len(out.Files)).Dur("elapsed", time.Since(start)).Msg("cut finished")
	}()
	fail := func(kind NoticeKind, text, res string, err error, files []string) Outcome {
		p.ShowNotice(kind, text)
		result = res
		return Outcome{State: Failed, Files: files, Err: err}
	}

	o.setState(Validating)
	doc, source, err := o.document(ctx, p.SourcePath())
	if err != nil {
		restore = ScopeFile
		return fail(NoticeError, err.Error(), "unreadable", err, nil)
	}
	l = l.With().Str("source", source).Logger()
	l.Info().Int("pages", doc.PageCount()).Msg("cut started")

	sel, err := pages.Resolve(mode, p.RawFields(mode), doc.PageCount())
	switch {
	case errors.Is(err, pages.ErrEmptyInput):
		return fail(NoticeInfo, MsgEnterPages, "empty", err, nil)
	case err != nil:
		l.Debug().Err(err).Msg("selection rejected")
		return fail(NoticeError, MsgValueError, "invalid", err, nil)
	}

	o.setState(Splitting)
	p.SetStatusText(StatusCutting)
	dir := planner.Destination(source, p.WantsCustomOutput(), p.OutputDir())
	files, err := o.produce(ctx, &l, doc, sel, source, dir)
	if err != nil {
		return fail(NoticeError, err.Error(), "failed", err, files)
	}

	p.ShowNotice(NoticeInfo, MsgCompleted)
	return Outcome{State: Completed, Files: files}
}

// produce pairs each split document with its planned path and writes it.
// Files written before a failure are returned and left in place.
func (o *Orchestrator) produce(ctx context.Context, l *zerolog.Logger, doc codec.Document, sel pages.Selection, source, dir string) ([]string, error) {
	next, stop := iter.Pull(planner.Plan(sel, source, dir))
	defer stop()

	var files []string
	for part, err := range splitter.Split(doc, sel) {
		if err != nil {
			return files, err
		}
		dest, ok := next()
		if !ok {
			return files, errors.New("no output path planned for document")
		}

		o.setState(Writing)
		if err := o.write(ctx, dest, part); err != nil {
			return files, err
		}
		files = append(files, dest)
		metrics.IncWritten(sel.Mode.String(), len(part.Pages))
		l.Info().Str("path", dest).Int("pages", len(part.Pages)).Msg("document written")

		if o.deps.Verify != nil && isLocal(dest) {
			if err := o.deps.Verify(strings.TrimPrefix(dest, "file://"), len(part.Pages)); err != nil {
				metrics.IncVerifyMismatch()
				l.Warn().Err(err).Str("path", dest).Msg("written document failed verification")
			}
		}
		o.setState(Splitting)
	}
	return files, nil
}

func (o *Orchestrator) write(ctx context.Context, dest string, part splitter.Output) error {
	w, err := o.deps.Sink.Create(ctx, dest)
	if err != nil {
		return asWriteError(dest, err)
	}
	if err := o.deps.Codec.WriteDocument(w, part.Pages); err != nil {
		w.Close()
		return asWriteError(dest, err)
	}
	if err := w.Close(); err != nil {
		return asWriteError(dest, err)
	}
	return nil
}

func asWriteError(dest string, err error) error {
	var we *sink.WriteError
	if errors.As(err, &we) {
		return we
	}
	return &sink.WriteError{Path: dest, Err: err}
}

func isLocal(path string) bool {
	return !strings.Contains(path, "://") || strings.HasPrefix(path, "file://")
}
