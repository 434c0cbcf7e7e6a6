// Package inject writes commands and key presses into the PTY of a
// wrapped Claude Code session.
//
// Claude Code's input box (inquirer-style) treats text and the submitting
// return as separate events, and drops a return that arrives in the same
// read as the text. Free text is therefore written in two steps with a
// short pause before the carriage return.
package inject

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Controls maps symbolic action names to the raw byte sequences they
// send. These go out in a single write, no submit delay.
var Controls = map[string][]byte{
	"enter":      {'\r'},
	"confirm":    {'\r'},
	"escape":     {0x1b},
	"cancel":     {0x1b},
	"tab":        {'\t'},
	"shift-tab":  {0x1b, '[', 'Z'},
	"cycle-mode": {0x1b, '[', 'Z'},
	"interrupt":  {0x03},
	"up":         {0x1b, '[', 'A'},
	"down":       {0x1b, '[', 'B'},
	"right":      {0x1b, '[', 'C'},
	"left":       {0x1b, '[', 'D'},
	"backspace":  {0x7f},
}

// Injector serializes writes into a session's input.
type Injector struct {
	w     io.Writer
	delay time.Duration
	sleep func(time.Duration) // stubbed in tests
}

// New returns an Injector writing to w. delay is the pause between a text
// payload and its submitting return; zero selects a default suited to
// Claude Code's input handling.
func New(w io.Writer, delay time.Duration) *Injector {
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}
	return &Injector{w: w, delay: delay, sleep: time.Sleep}
}

// Send delivers one command to the session. Resolution order:
//
//   - a name present in Controls sends that control sequence
//   - a string starting with ESC is passed through verbatim for callers
//     that build their own sequences
//   - the empty string sends a bare return
//   - anything else is typed as text and submitted
func (inj *Injector) Send(command string) error {
	if seq, ok := Controls[strings.ToLower(command)]; ok {
		return inj.write(seq)
	}
	if strings.HasPrefix(command, "\x1b") {
		return inj.write([]byte(command))
	}
	if command == "" {
		return inj.write([]byte{'\r'})
	}
	if err := inj.write([]byte(command)); err != nil {
		return err
	}
	inj.sleep(inj.delay)
	return inj.write([]byte{'\r'})
}

func (inj *Injector) write(p []byte) error {
	if _, err := inj.w.Write(p); err != nil {
		return fmt.Errorf("inject: %w", err)
	}
	return nil
}
