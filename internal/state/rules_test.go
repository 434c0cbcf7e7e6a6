package state

import "testing"

func TestDefaultRulesValid(t *testing.T) {
	for _, r := range DefaultRules() {
		if r.Name == "" {
			t.Error("rule with empty name")
		}
		if (r.Contains == "") == (r.Pattern == nil) {
			t.Errorf("rule %q: want exactly one of contains or pattern", r.Name)
		}
		if r.Mode != "" && !ValidMode(r.Mode) {
			t.Errorf("rule %q: invalid mode %q", r.Name, r.Mode)
		}
		if r.Mode == "" && r.Model == "" {
			t.Errorf("rule %q: neither mode nor model", r.Name)
		}
	}
}

func TestLastMatchContains(t *testing.T) {
	r := Rule{Contains: "abc"}
	if got := r.lastMatch("xxabcxxabcxx"); got != 7 {
		t.Errorf("got %d, want 7", got)
	}
	if got := r.lastMatch("nothing"); got != -1 {
		t.Errorf("got %d, want -1", got)
	}
}

func TestParseRules(t *testing.T) {
	rules, err := ParseRules([]byte(`
rules:
  - name: busy
    pattern: "⠋"
    mode: thinking
  - name: ready
    contains: "? for shortcuts"
    mode: interactive
  - name: opus
    contains: "Set model to opus"
    model: opus
  - name: dialog
    contains: "Do you want to proceed?"
    mode: interactive
    options: true
`))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 4 {
		t.Fatalf("got %d rules, want 4", len(rules))
	}
	if rules[0].Pattern == nil || rules[0].Mode != ModeThinking {
		t.Errorf("rule 0 not parsed: %+v", rules[0])
	}
	if rules[2].Model != "opus" || rules[2].Mode != "" {
		t.Errorf("rule 2 not parsed: %+v", rules[2])
	}
	if !rules[3].Options {
		t.Error("rule 3: options flag lost")
	}
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"empty", `rules: []`},
		{"missing name", "rules:\n  - contains: x\n    mode: thinking"},
		{"both matchers", "rules:\n  - name: a\n    contains: x\n    pattern: y\n    mode: thinking"},
		{"no matcher", "rules:\n  - name: a\n    mode: thinking"},
		{"bad mode", "rules:\n  - name: a\n    contains: x\n    mode: bogus"},
		{"bad regex", "rules:\n  - name: a\n    pattern: \"[\"\n    mode: thinking"},
		{"no effect", "rules:\n  - name: a\n    contains: x"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseRules([]byte(tc.yaml)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
