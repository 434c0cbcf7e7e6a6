package server

import (
	"context"
	"errors"
	"io"

	"github.com/codeincontext/claudeck/internal/otel"
	"github.com/codeincontext/claudeck/internal/pty"
	"github.com/codeincontext/claudeck/internal/state"
)

// Runner owns the read loop: it drains the session PTY and feeds every
// chunk to the tracker. One Runner per session, run on its own goroutine.
type Runner struct {
	sup     *pty.Supervisor
	tracker *state.Tracker
	tel     *otel.Telemetry

	// Tee receives a copy of all raw output, for attached terminals.
	// nil disables the copy.
	Tee io.Writer

	// Transcript records raw traffic for debugging. nil disables it.
	Transcript *Transcript
}

// NewRunner returns a Runner over the given session.
func NewRunner(sup *pty.Supervisor, tracker *state.Tracker, tel *otel.Telemetry) *Runner {
	return &Runner{sup: sup, tracker: tracker, tel: tel}
}

// Run reads until the PTY is exhausted or ctx is done. On EOF the child
// is gone: the tracker flips to offline and Run returns nil. Once the
// wait goroutine has also reaped the child, Alive reflects it too.
func (r *Runner) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		chunk, err := r.sup.ReadAvailable()
		if err != nil {
			if errors.Is(err, io.EOF) {
				r.tracker.SetAlive(false)
				return nil
			}
			r.tracker.SetAlive(false)
			return err
		}
		if len(chunk) == 0 {
			// Poll timeout with no pending output. Cheap moment to
			// notice an exit that produced no final bytes.
			if !r.sup.Alive() {
				r.tracker.SetAlive(false)
				return nil
			}
			continue
		}

		if r.Tee != nil {
			_, _ = r.Tee.Write(chunk)
		}
		if r.Transcript != nil {
			r.Transcript.Out(chunk)
		}
		if r.tel != nil {
			r.tel.Metrics.RecordRead(ctx, int64(len(chunk)))
		}
		r.tracker.Feed(chunk)
	}
}
