package server

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/codeincontext/claudeck/internal/pty"
	"github.com/codeincontext/claudeck/internal/state"
)

func requireCommand(t *testing.T, name string) {
	t.Helper()
	if _, err := exec.LookPath(name); err != nil {
		t.Skipf("%s not available", name)
	}
}

func startRunner(t *testing.T, command string, args ...string) (*pty.Supervisor, *state.Tracker, chan error) {
	t.Helper()
	opts := pty.DefaultOptions()
	opts.Command = command
	opts.Args = args
	opts.PollInterval = 20 * time.Millisecond
	sup := pty.NewSupervisor(opts)
	if err := sup.Start(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { sup.Close() })

	tracker := state.NewTracker(0, nil)
	done := make(chan error, 1)
	go func() { done <- NewRunner(sup, tracker, nil).Run(context.Background()) }()
	return sup, tracker, done
}

func TestRunnerStopsOnChildExit(t *testing.T) {
	requireCommand(t, "sh")
	_, tracker, done := startRunner(t, "sh", "-c", "echo session done")

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("reader loop did not stop after child exit")
	}

	snap := tracker.Snapshot()
	if snap.Mode != state.ModeOffline {
		t.Errorf("mode: got %q, want %q", snap.Mode, state.ModeOffline)
	}
	if snap.Alive {
		t.Error("alive: got true, want false")
	}
	if snap.BufferSize == 0 {
		t.Error("child output never reached the tracker")
	}
}

func TestRunnerStopsOnClose(t *testing.T) {
	requireCommand(t, "cat")
	sup, tracker, done := startRunner(t, "cat")

	if err := sup.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("reader loop did not observe the closed pty")
	}

	if got := tracker.Snapshot().Mode; got != state.ModeOffline {
		t.Errorf("mode: got %q, want %q", got, state.ModeOffline)
	}
}
