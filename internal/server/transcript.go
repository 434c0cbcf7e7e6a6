package server

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Transcript appends timestamped raw session traffic to a file. Useful
// when a rule misfires: the transcript shows exactly what the TUI sent.
type Transcript struct {
	mu sync.Mutex
	f  *os.File
}

// OpenTranscript opens (appending) the transcript file at path.
func OpenTranscript(path string) (*Transcript, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}
	return &Transcript{f: f}, nil
}

// Out records bytes read from the session.
func (t *Transcript) Out(p []byte) { t.append("OUT", p) }

// In records bytes written into the session.
func (t *Transcript) In(p []byte) { t.append("IN", p) }

func (t *Transcript) append(dir string, p []byte) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	ts := time.Now().Format("15:04:05.000")
	fmt.Fprintf(t.f, "%s %-3s %q\n", ts, dir, p)
}

// Close flushes and closes the transcript file.
func (t *Transcript) Close() error {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.f.Close()
}
