package state

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule is one entry of the declarative recognizer table. A rule matches
// either a literal marker (Contains) or a regular expression (Pattern),
// never both.
//
// Rules fall into two groups: mode rules (Mode set) drive the state
// machine, field rules (Model set) only record a detail. Table order is
// the priority order: when two rules match at the same position in the
// stream, the earlier rule wins. Between different positions the later
// occurrence in the stream wins, so a prompt that appears after a spinner
// correctly ends the thinking state no matter how the bytes were chunked.
type Rule struct {
	Name     string
	Contains string
	Pattern  *regexp.Regexp
	Mode     Mode
	Model    string
	// Options marks rules that introduce a numbered choice dialog; the
	// block following the match is parsed into the options list.
	Options bool
}

// lastMatch returns the byte offset of the last occurrence of the rule's
// marker in text, or -1.
func (r *Rule) lastMatch(text string) int {
	if r.Contains != "" {
		return strings.LastIndex(text, r.Contains)
	}
	if r.Pattern != nil {
		locs := r.Pattern.FindAllStringIndex(text, -1)
		if len(locs) > 0 {
			return locs[len(locs)-1][0]
		}
	}
	return -1
}

// DefaultRules returns the recognizer table for Claude Code's TUI.
//
// Source reference: observed output of the claude binary (Ink-based TUI in
// raw mode). The stable markers:
//
//	"⏵⏵ auto-accept edits on"       auto-accept toggled (shift+tab cycles)
//	"⏸ plan mode on"                plan mode toggled
//	"Press Ctrl-C again to exit"    exit confirmation
//	"? for shortcuts"               persistent idle footer
//	"✻ Pondering… (2m · ↓ 2.8k)"    busy indicator, randomized verb + ellipsis
//	"✻ Worked for 3m"               completed (no ellipsis, not busy)
//	"Do you want to proceed?"       permission dialog with numbered options
//	braille spinners ⠋ through ⠿    tool execution in progress
//
// Most specific first: overlapping textual cues (the exit confirmation
// also contains a ">" somewhere on screen) must resolve unambiguously.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "exit-confirm", Contains: "Press Ctrl-C again to exit", Mode: ModeExitConfirm},
		{Name: "auto-accept", Contains: "auto-accept edits on", Mode: ModeAutoAccept},
		{Name: "plan-mode", Contains: "plan mode on", Mode: ModePlanning},
		{Name: "error-line", Pattern: regexp.MustCompile(`(?m)^\s*(?:✗|Error:|error:)`), Mode: ModeError},
		{Name: "permission-dialog", Contains: "Do you want to proceed?", Mode: ModeInteractive, Options: true},
		{Name: "edit-approval", Contains: "Do you want to make this edit to", Mode: ModeInteractive, Options: true},
		{Name: "busy-spinner", Pattern: regexp.MustCompile(`✻[^\n]*(?:…|\.\.\.)`), Mode: ModeThinking},
		{Name: "braille-spinner", Pattern: regexp.MustCompile(`[⠋-⠿]`), Mode: ModeThinking},
		{Name: "busy-word", Pattern: regexp.MustCompile(`(?i)\b(?:thinking|processing)(?:…|\.\.\.)`), Mode: ModeThinking},
		{Name: "model-opus", Contains: "Set model to opus", Model: "opus"},
		{Name: "model-sonnet", Pattern: regexp.MustCompile(`Set model to (?:Default|sonnet)`), Model: "sonnet"},
		{Name: "welcome", Contains: "Welcome to Claude Code", Mode: ModeInteractive},
		{Name: "shortcuts-footer", Contains: "? for shortcuts", Mode: ModeInteractive},
		// Input line marker. Numbered option lines (digits, dot, then
		// whitespace) are excluded so the selected entry of a choice
		// dialog is not mistaken for the input box; typed text that merely
		// starts with a digit ("2+2") still counts.
		{Name: "prompt-line", Pattern: regexp.MustCompile(`(?m)^[ \t]*[❯>][ \t]+(?:\d+\.\S[^\n]*|\d+[^.\n][^\n]*|\d+|[^0-9\s][^\n]*)?$`), Mode: ModeInteractive},
	}
}

// ruleSpec is the YAML form of a rule.
type ruleSpec struct {
	Name     string `yaml:"name"`
	Contains string `yaml:"contains"`
	Pattern  string `yaml:"pattern"`
	Mode     string `yaml:"mode"`
	Model    string `yaml:"model"`
	Options  bool   `yaml:"options"`
}

type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

// LoadRules reads a recognizer table from a YAML file. The file replaces
// the built-in table wholesale; order in the file is priority order.
func LoadRules(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	return ParseRules(data)
}

// ParseRules parses and validates a YAML rule table.
func ParseRules(data []byte) ([]Rule, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("parse rules: no rules defined")
	}

	rules := make([]Rule, 0, len(f.Rules))
	for i, spec := range f.Rules {
		if spec.Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		if (spec.Contains == "") == (spec.Pattern == "") {
			return nil, fmt.Errorf("rule %q: exactly one of contains or pattern is required", spec.Name)
		}
		if spec.Mode == "" && spec.Model == "" {
			return nil, fmt.Errorf("rule %q: one of mode or model is required", spec.Name)
		}
		if spec.Mode != "" && !ValidMode(Mode(spec.Mode)) {
			return nil, fmt.Errorf("rule %q: invalid mode %q", spec.Name, spec.Mode)
		}

		r := Rule{
			Name:     spec.Name,
			Contains: spec.Contains,
			Mode:     Mode(spec.Mode),
			Model:    spec.Model,
			Options:  spec.Options,
		}
		if spec.Pattern != "" {
			re, err := regexp.Compile(spec.Pattern)
			if err != nil {
				return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
			}
			r.Pattern = re
		}
		rules = append(rules, r)
	}
	return rules, nil
}
