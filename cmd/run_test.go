package cmd

import (
	"testing"
	"time"

	"github.com/codeincontext/claudeck/internal/config"
)

func resetRunFlags(t *testing.T) {
	t.Helper()
	savedListen := flagListen
	savedPoll := flagPollInterval
	savedDelay := flagSubmitDelay
	savedBuffer := flagBufferSize
	savedRules := flagRulesFile
	savedDebug := flagDebugFile
	t.Cleanup(func() {
		flagListen = savedListen
		flagPollInterval = savedPoll
		flagSubmitDelay = savedDelay
		flagBufferSize = savedBuffer
		flagRulesFile = savedRules
		flagDebugFile = savedDebug
	})
	flagListen = ""
	flagPollInterval = ""
	flagSubmitDelay = ""
	flagBufferSize = 0
	flagRulesFile = ""
	flagDebugFile = ""
}

func TestApplyRunFlagsOverrides(t *testing.T) {
	resetRunFlags(t)
	flagListen = "127.0.0.1:9999"
	flagPollInterval = "50ms"
	flagSubmitDelay = "1s"
	flagBufferSize = 1024

	cfg := config.Defaults()
	if err := applyRunFlags(cfg, []string{"claude", "--continue"}); err != nil {
		t.Fatalf("applyRunFlags: %v", err)
	}

	if cfg.Command != "claude" || len(cfg.Args) != 1 || cfg.Args[0] != "--continue" {
		t.Errorf("command: got %q %v", cfg.Command, cfg.Args)
	}
	if cfg.Listen != "127.0.0.1:9999" {
		t.Errorf("Listen: got %q", cfg.Listen)
	}
	if cfg.PollDuration != 50*time.Millisecond {
		t.Errorf("PollDuration: got %v, want 50ms", cfg.PollDuration)
	}
	if cfg.SubmitDelayDuration != time.Second {
		t.Errorf("SubmitDelayDuration: got %v, want 1s", cfg.SubmitDelayDuration)
	}
	if cfg.BufferSize != 1024 {
		t.Errorf("BufferSize: got %d, want 1024", cfg.BufferSize)
	}
}

func TestApplyRunFlagsRejectsBadDurations(t *testing.T) {
	resetRunFlags(t)
	flagPollInterval = "sideways"
	if err := applyRunFlags(config.Defaults(), nil); err == nil {
		t.Error("invalid poll interval accepted")
	}

	resetRunFlags(t)
	flagSubmitDelay = "not-a-duration"
	if err := applyRunFlags(config.Defaults(), nil); err == nil {
		t.Error("invalid submit delay accepted")
	}
}
