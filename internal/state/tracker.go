package state

import (
	"regexp"
	"strings"
	"sync"
	"time"
)

var (
	optionLine = regexp.MustCompile(`(?m)^\s*(?:❯\s*)?(\d+)\.\s+(\S.*?)\s*$`)
	// Prompt content is anything except a numbered option line (digits,
	// dot, then whitespace); "2+2" or "1.5*3" are legitimate prompt text.
	promptLine = regexp.MustCompile(`(?m)^[ \t]*[❯>][ \t]+(\d+\.\S[^\n]*|\d+[^.\n][^\n]*|\d+|[^0-9\s][^\n]*)$`)
)

// Tracker turns a raw PTY byte stream into a classified snapshot of the
// wrapped session. Feed it chunks in arrival order; it strips terminal
// escape sequences, keeps a bounded window of recent text, and runs the
// rule table over the window after every chunk.
//
// Classification is sticky: when nothing in the window matches, the mode
// stays what it was. Matches are anchored to absolute stream offsets so
// that evicting old text from the window can never flip the mode back,
// and so the result is identical whether the stream arrived as one chunk
// or byte by byte.
//
// A Tracker is safe for concurrent use. The PTY reader goroutine calls
// Feed and SetAlive; everything else reads through Snapshot.
type Tracker struct {
	mu    sync.RWMutex
	rules []Rule
	strip stripper

	window     []byte
	maxWindow  int
	streamBase int64 // absolute stream offset of window[0]

	lastModeAbs  int64 // offset of the newest applied mode match
	lastModelAbs int64

	mode       Mode
	prompt     string
	options    []string
	model      string
	alive      bool
	lastUpdate time.Time

	onTransition func(from, to Mode)
}

// NewTracker returns a Tracker over the given rule table. maxWindow bounds
// the retained text window in bytes; zero or negative selects a default
// large enough to hold one repaint of the Claude Code screen.
func NewTracker(maxWindow int, rules []Rule) *Tracker {
	if maxWindow <= 0 {
		maxWindow = 64 * 1024
	}
	if rules == nil {
		rules = DefaultRules()
	}
	return &Tracker{
		rules:        rules,
		maxWindow:    maxWindow,
		lastModeAbs:  -1,
		lastModelAbs: -1,
		mode:         ModeUnknown,
		alive:        true,
	}
}

// OnTransition registers a hook invoked (under the tracker lock, keep it
// cheap) whenever the mode changes.
func (t *Tracker) OnTransition(fn func(from, to Mode)) {
	t.mu.Lock()
	t.onTransition = fn
	t.mu.Unlock()
}

// Feed ingests one chunk of raw PTY output.
func (t *Tracker) Feed(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	plain := t.strip.Strip(chunk)
	if len(plain) == 0 {
		return
	}
	t.window = append(t.window, plain...)
	if evict := len(t.window) - t.maxWindow; evict > 0 {
		t.window = append(t.window[:0], t.window[evict:]...)
		t.streamBase += int64(evict)
	}
	t.lastUpdate = time.Now()
	t.scanLocked()
}

// scanLocked runs the rule table over the current window and applies the
// winning matches. Caller holds t.mu.
//
// A dead child forces offline unconditionally: output drained from the
// PTY after death still lands in the window but must not drive the mode,
// fire transitions, or update fields.
func (t *Tracker) scanLocked() {
	if !t.alive {
		return
	}
	text := string(t.window)

	modeIdx, modePos := -1, -1
	modelIdx, modelPos := -1, -1
	for i := range t.rules {
		r := &t.rules[i]
		pos := r.lastMatch(text)
		if pos < 0 {
			continue
		}
		// Later stream position wins; earlier table entry breaks ties.
		if r.Mode != "" && pos > modePos {
			modeIdx, modePos = i, pos
		}
		if r.Model != "" && pos > modelPos {
			modelIdx, modelPos = i, pos
		}
	}

	if modeIdx >= 0 {
		abs := t.streamBase + int64(modePos)
		if abs >= t.lastModeAbs {
			t.lastModeAbs = abs
			t.applyLocked(&t.rules[modeIdx], text, modePos)
		}
	}
	if modelIdx >= 0 {
		abs := t.streamBase + int64(modelPos)
		if abs >= t.lastModelAbs {
			t.lastModelAbs = abs
			t.model = t.rules[modelIdx].Model
		}
	}
}

func (t *Tracker) applyLocked(r *Rule, text string, pos int) {
	if r.Options {
		t.options = parseOptions(text[pos:])
	} else {
		t.options = nil
	}
	t.prompt = extractPrompt(text, r, pos)

	if t.mode != r.Mode {
		from := t.mode
		t.mode = r.Mode
		if t.onTransition != nil {
			t.onTransition(from, r.Mode)
		}
	}
}

// parseOptions collects the numbered choices of a dialog, in screen order.
func parseOptions(text string) []string {
	matches := optionLine.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}
	opts := make([]string, 0, len(matches))
	for _, m := range matches {
		opts = append(opts, m[1]+". "+m[2])
	}
	return opts
}

// extractPrompt picks the text the user is being asked about: for dialog
// rules the matched question line, otherwise the content of the last
// visible input line.
func extractPrompt(text string, r *Rule, pos int) string {
	if r.Options {
		line := text[pos:]
		if nl := strings.IndexByte(line, '\n'); nl >= 0 {
			line = line[:nl]
		}
		return strings.TrimSpace(line)
	}
	all := promptLine.FindAllStringSubmatch(text, -1)
	for i := len(all) - 1; i >= 0; i-- {
		s := strings.TrimSpace(all[i][1])
		if s != "" && !strings.HasPrefix(s, "[") {
			return s
		}
	}
	return ""
}

// SetAlive records whether the wrapped process is running. A dead child
// forces the offline mode regardless of what the window still shows; a
// restart clears it back to unknown until fresh output arrives.
func (t *Tracker) SetAlive(alive bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.alive == alive {
		return
	}
	t.alive = alive
	t.lastUpdate = time.Now()
	from := t.mode
	if !alive {
		t.mode = ModeOffline
	} else if t.mode == ModeOffline {
		t.mode = ModeUnknown
		// Window content accumulated while the child was dead must not
		// classify the restarted session; only fresh output counts.
		t.lastModeAbs = t.streamBase + int64(len(t.window))
		t.lastModelAbs = t.lastModeAbs
	}
	if t.mode != from && t.onTransition != nil {
		t.onTransition(from, t.mode)
	}
}

// SetRules swaps the rule table and rescans the current window so a hot
// reload takes effect without waiting for new output.
func (t *Tracker) SetRules(rules []Rule) {
	if len(rules) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules = rules
	t.lastModeAbs = t.streamBase
	t.lastModelAbs = t.streamBase
	t.scanLocked()
}

// Snapshot returns a copy of the current classified state.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	s := Snapshot{
		Mode:       t.mode,
		Prompt:     t.prompt,
		Model:      t.model,
		Alive:      t.alive,
		LastUpdate: t.lastUpdate,
		BufferSize: len(t.window),
	}
	if len(t.options) > 0 {
		s.Options = append([]string(nil), t.options...)
	}
	if !t.alive {
		s.Mode = ModeOffline
	}
	return s
}
