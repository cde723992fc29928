package web

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfcutter/internal/orchestrator"
	"github.com/local/pdfcutter/internal/pages"
	"github.com/local/pdfcutter/internal/store"
)

const stateRunning = "running"

// jobPresentation feeds a cut from an API request and records what the cut
// reports in the status store under the job id.
type jobPresentation struct {
	id    string
	req   cutRequest
	mode  pages.Mode
	store store.Store

	mu sync.Mutex
	st store.Status
}

func newJobPresentation(id string, req cutRequest, mode pages.Mode, st store.Store) *jobPresentation {
	now := time.Now()
	return &jobPresentation{
		id:    id,
		req:   req,
		mode:  mode,
		store: st,
		st: store.Status{
			State: stateRunning,
			Start: &now,
			Metadata: map[string]interface{}{
				"source": req.Source,
				"mode":   mode.String(),
			},
		},
	}
}

func (j *jobPresentation) SelectionMode() pages.Mode { return j.mode }

func (j *jobPresentation) RawFields(pages.Mode) []string { return j.req.Fields }

func (j *jobPresentation) WantsCustomOutput() bool { return j.req.OutputDir != "" }
func (j *jobPresentation) OutputDir() string       { return j.req.OutputDir }
func (j *jobPresentation) SourcePath() string      { return j.req.Source }

// SetControlsEnabled persists the record; an API job has no controls of its own.
func (j *jobPresentation) SetControlsEnabled(bool, orchestrator.Scope) {
	j.update(func(*store.Status) {})
}

func (j *jobPresentation) ShowNotice(kind orchestrator.NoticeKind, text string) {
	j.update(func(st *store.Status) {
		st.Notice = string(kind)
		st.Message = text
	})
}

func (j *jobPresentation) SetStatusText(text string) {
	j.update(func(st *store.Status) { st.Progress = text })
}

// finish records the outcome of the cut.
func (j *jobPresentation) finish(out orchestrator.Outcome) {
	j.update(func(st *store.Status) {
		now := time.Now()
		st.State = out.State.String()
		st.Files = out.Files
		st.End = &now
	})
}

func (j *jobPresentation) update(fn func(*store.Status)) {
	// Held across Set so saves reach the store in order.
	j.mu.Lock()
	defer j.mu.Unlock()
	fn(&j.st)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := j.store.Set(ctx, j.id, j.st); err != nil {
		log.Warn().Err(err).Str("job_id", j.id).Msg("failed to save job status")
	}
}
