// Package server exposes a running session over a small HTTP API and
// drives the read loop that feeds the classifier.
package server

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/codeincontext/claudeck/internal/inject"
	"github.com/codeincontext/claudeck/internal/otel"
	"github.com/codeincontext/claudeck/internal/state"
)

// Session is the supervisor surface the service needs.
type Session interface {
	Alive() bool
}

// Sender injects one command into the session.
type Sender interface {
	Send(command string) error
}

// CommandResult is the outcome reported for a submitted command.
type CommandResult struct {
	Status  string `json:"status"` // "sent" or "failed"
	Command string `json:"command"`
	Error   string `json:"error,omitempty"`
}

// Service ties the supervised process, its state tracker and the injector
// together behind the operations the HTTP layer serves.
type Service struct {
	sup     Session
	tracker *state.Tracker
	inj     Sender
	tel     *otel.Telemetry
}

// NewService wires a Service. tel may be nil for telemetry-free use.
func NewService(sup Session, tracker *state.Tracker, inj Sender, tel *otel.Telemetry) *Service {
	return &Service{sup: sup, tracker: tracker, inj: inj, tel: tel}
}

// GetState returns the current classified snapshot. It never fails: when
// the child is gone the snapshot says so instead.
func (s *Service) GetState(ctx context.Context) state.Snapshot {
	if s.tel != nil {
		s.tel.Metrics.RecordStateRead(ctx)
	}
	return s.tracker.Snapshot()
}

// SubmitCommand injects one command into the session. A dead child is a
// failure before any byte is written.
func (s *Service) SubmitCommand(ctx context.Context, command string) CommandResult {
	kind := "text"
	if _, ok := inject.Controls[strings.ToLower(command)]; ok {
		kind = "control"
	}

	var span trace.Span
	if s.tel != nil {
		ctx, span = s.tel.Tracer.Start(ctx, "claudeck.command")
		span.SetAttributes(
			attribute.String("command.kind", kind),
			attribute.Int("command.length", len(command)),
		)
		defer span.End()
	}

	res := CommandResult{Command: command}
	if !s.sup.Alive() {
		res.Status = "failed"
		res.Error = "session is not running"
	} else if err := s.inj.Send(command); err != nil {
		res.Status = "failed"
		res.Error = fmt.Sprintf("write to session: %v", err)
	} else {
		res.Status = "sent"
	}

	if s.tel != nil {
		s.tel.Metrics.RecordCommand(ctx, res.Status, kind)
		if res.Error != "" {
			span.SetAttributes(attribute.String("command.error", res.Error))
		}
	}
	return res
}
