package server

import (
	"context"
	"errors"
	"testing"

	"github.com/codeincontext/claudeck/internal/state"
)

type fakeSession struct {
	alive bool
}

func (f *fakeSession) Alive() bool { return f.alive }

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) Send(command string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, command)
	return nil
}

func newTestService(alive bool) (*Service, *fakeSender, *state.Tracker) {
	tracker := state.NewTracker(0, nil)
	tracker.SetAlive(alive)
	sender := &fakeSender{}
	svc := NewService(&fakeSession{alive: alive}, tracker, sender, nil)
	return svc, sender, tracker
}

func TestGetStateReflectsTracker(t *testing.T) {
	svc, _, tracker := newTestService(true)
	tracker.Feed([]byte("✻ Pondering… (3s)\n"))

	snap := svc.GetState(context.Background())
	if snap.Mode != state.ModeThinking {
		t.Errorf("mode: got %q, want %q", snap.Mode, state.ModeThinking)
	}
	if !snap.Alive {
		t.Error("alive: got false, want true")
	}
}

func TestGetStateSurvivesDeadChild(t *testing.T) {
	svc, _, _ := newTestService(false)
	snap := svc.GetState(context.Background())
	if snap.Mode != state.ModeOffline {
		t.Errorf("mode: got %q, want %q", snap.Mode, state.ModeOffline)
	}
	if snap.Alive {
		t.Error("alive: got true, want false")
	}
}

func TestSubmitCommand(t *testing.T) {
	svc, sender, _ := newTestService(true)
	res := svc.SubmitCommand(context.Background(), "run the linter")
	if res.Status != "sent" {
		t.Fatalf("status: got %q, want sent (%s)", res.Status, res.Error)
	}
	if res.Command != "run the linter" {
		t.Errorf("command echo: got %q", res.Command)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "run the linter" {
		t.Errorf("sender saw %v", sender.sent)
	}
}

func TestSubmitCommandDeadChildWritesNothing(t *testing.T) {
	svc, sender, _ := newTestService(false)
	res := svc.SubmitCommand(context.Background(), "hello")
	if res.Status != "failed" {
		t.Errorf("status: got %q, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
	if len(sender.sent) != 0 {
		t.Errorf("dead child must see zero writes, got %v", sender.sent)
	}
}

func TestSubmitCommandWriteFailure(t *testing.T) {
	svc, sender, _ := newTestService(true)
	sender.err = errors.New("broken pipe")
	res := svc.SubmitCommand(context.Background(), "hello")
	if res.Status != "failed" {
		t.Errorf("status: got %q, want failed", res.Status)
	}
	if res.Error == "" {
		t.Error("expected an error message")
	}
}

// A permission dialog appears, a poller sees it, answers it, and the
// session goes back to work.
func TestDialogRoundTrip(t *testing.T) {
	svc, sender, tracker := newTestService(true)

	tracker.Feed([]byte("Do you want to proceed?\n❯ 1. Yes\n  2. No\n"))
	snap := svc.GetState(context.Background())
	if snap.Mode != state.ModeInteractive {
		t.Fatalf("mode: got %q, want %q", snap.Mode, state.ModeInteractive)
	}
	if len(snap.Options) != 2 {
		t.Fatalf("options: got %v", snap.Options)
	}

	if res := svc.SubmitCommand(context.Background(), "1"); res.Status != "sent" {
		t.Fatalf("answer not sent: %+v", res)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sender saw %v", sender.sent)
	}

	tracker.Feed([]byte("\n✻ Hammering… (1s)\n"))
	if got := svc.GetState(context.Background()).Mode; got != state.ModeThinking {
		t.Errorf("mode after answer: got %q, want %q", got, state.ModeThinking)
	}
}
