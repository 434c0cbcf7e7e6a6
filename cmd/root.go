package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags.
var Version = "dev"

var (
	// Global flags.
	flagListen  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "claudeck",
	Short: "Remote-controllable wrapper around a Claude Code session",
	Long: `claudeck runs Claude Code inside a pseudo-terminal, classifies its
output into a small set of session modes (interactive, thinking, waiting
for permission, ...) and exposes the result over a local HTTP API.

Other tools can poll GET /state to see what the session is doing and
POST /command to type into it, while the terminal in front of you keeps
working exactly as if Claude Code were running directly.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagListen, "listen", envOrDefault("CLAUDECK_LISTEN", ""), "control service address (default: 127.0.0.1:8765)")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "log wrapper internals to stderr")
}

func envOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}
