package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CLAUDECK_COMMAND", "CLAUDECK_LISTEN", "CLAUDECK_POLL_INTERVAL",
		"CLAUDECK_SUBMIT_DELAY", "CLAUDECK_RULES_FILE", "CLAUDECK_DEBUG_FILE",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_HEADERS",
	} {
		t.Setenv(key, "")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Command != "claude" {
		t.Errorf("Command: got %q, want %q", cfg.Command, "claude")
	}
	if cfg.Listen != "127.0.0.1:8765" {
		t.Errorf("Listen: got %q, want %q", cfg.Listen, "127.0.0.1:8765")
	}
	if cfg.PollInterval != "100ms" {
		t.Errorf("PollInterval: got %q, want %q", cfg.PollInterval, "100ms")
	}
	if cfg.BufferSize != 64*1024 {
		t.Errorf("BufferSize: got %d, want %d", cfg.BufferSize, 64*1024)
	}
	if cfg.SubmitDelay != "200ms" {
		t.Errorf("SubmitDelay: got %q, want %q", cfg.SubmitDelay, "200ms")
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"empty returns fallback", "", 5 * time.Second, false},
		{"valid duration", "30s", 30 * time.Second, false},
		{"valid short duration", "500ms", 500 * time.Millisecond, false},
		{"invalid", "not-a-duration", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDuration(tt.input, 5*time.Second)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDuration(%q): error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".claudeck.yaml")
	content := `command: claude
args:
  - --dangerously-skip-permissions
listen: "0.0.0.0:9000"
poll_interval: "50ms"
buffer_size: 32768
submit_delay: "150ms"
rules_file: rules.yaml
otel_endpoint: "http://localhost:4318"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// Change to temp dir so Load() finds the config
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != "0.0.0.0:9000" {
		t.Errorf("Listen: got %q, want %q", cfg.Listen, "0.0.0.0:9000")
	}
	if len(cfg.Args) != 1 || cfg.Args[0] != "--dangerously-skip-permissions" {
		t.Errorf("Args: got %v", cfg.Args)
	}
	if cfg.BufferSize != 32768 {
		t.Errorf("BufferSize: got %d, want %d", cfg.BufferSize, 32768)
	}
	if cfg.PollDuration != 50*time.Millisecond {
		t.Errorf("PollDuration: got %v, want 50ms", cfg.PollDuration)
	}
	if cfg.SubmitDelayDuration != 150*time.Millisecond {
		t.Errorf("SubmitDelayDuration: got %v, want 150ms", cfg.SubmitDelayDuration)
	}
	if cfg.RulesFile != "rules.yaml" {
		t.Errorf("RulesFile: got %q", cfg.RulesFile)
	}
	if cfg.OTELEndpoint != "http://localhost:4318" {
		t.Errorf("OTELEndpoint: got %q", cfg.OTELEndpoint)
	}
	if cfg.ConfigFile != ".claudeck.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, ".claudeck.yaml")
	content := `listen: "127.0.0.1:1111"
poll_interval: "50ms"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	clearEnv(t)

	// Env should override file
	t.Setenv("CLAUDECK_LISTEN", "127.0.0.1:2222")
	t.Setenv("CLAUDECK_POLL_INTERVAL", "75ms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Listen != "127.0.0.1:2222" {
		t.Errorf("Listen: got %q, want %q (env should override file)", cfg.Listen, "127.0.0.1:2222")
	}
	if cfg.PollDuration != 75*time.Millisecond {
		t.Errorf("PollDuration: got %v, want 75ms (env should override file)", cfg.PollDuration)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)
	os.Chdir(dir)

	t.Setenv("CLAUDECK_POLL_INTERVAL", "sideways")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}
