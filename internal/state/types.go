// Package state turns the raw byte stream of the wrapped program into a
// small structured state record: the current interaction mode, the last
// prompt line, and any choices the program is offering.
//
// Classification is deterministic protocol parsing over an ordered rule
// table of the strings the wrapped program is known to render. Unrecognized
// output never changes the mode (sticky classification), which keeps the
// record stable while partial escape sequences and half-drawn frames
// stream by.
package state

import "time"

// Mode is the closed-set classification of what the wrapped program is
// currently expecting from the user.
type Mode string

const (
	// ModeUnknown is the initial state before any marker is recognized.
	ModeUnknown Mode = "unknown"
	// ModeInteractive means the program is idle at an ordinary prompt.
	ModeInteractive Mode = "interactive"
	// ModeThinking means a busy/spinner marker is showing.
	ModeThinking Mode = "thinking"
	// ModePlanning means the program's plan mode is toggled on.
	ModePlanning Mode = "planning"
	// ModeAutoAccept means the program's auto-accept mode is toggled on.
	ModeAutoAccept Mode = "auto-accept"
	// ModeExitConfirm means the program is asking to confirm exit.
	ModeExitConfirm Mode = "exit-confirm"
	// ModeError means a failure marker was recognized.
	ModeError Mode = "error"
	// ModeOffline means the child process is not running.
	ModeOffline Mode = "offline"
)

// ValidMode reports whether m is one of the closed set.
func ValidMode(m Mode) bool {
	switch m {
	case ModeUnknown, ModeInteractive, ModeThinking, ModePlanning,
		ModeAutoAccept, ModeExitConfirm, ModeError, ModeOffline:
		return true
	default:
		return false
	}
}

// Snapshot is a copy of the shared state record, safe to hand to callers.
type Snapshot struct {
	// Mode is the current interaction mode.
	Mode Mode `json:"mode"`
	// Prompt is the last recognized prompt line, ANSI codes stripped.
	Prompt string `json:"prompt"`
	// Options is the ordered list of currently offered choices. Empty
	// when no choice dialog is showing.
	Options []string `json:"options,omitempty"`
	// Model is the last model name the program reported switching to.
	Model string `json:"model,omitempty"`
	// Alive reports whether the child process is running.
	Alive bool `json:"alive"`
	// LastUpdate is the time of the last classification pass. Monotonic
	// non-decreasing.
	LastUpdate time.Time `json:"last_update"`
	// BufferSize is the current size of the rolling output window.
	BufferSize int `json:"buffer_size"`
}
