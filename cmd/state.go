package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeincontext/claudeck/internal/client"
	"github.com/codeincontext/claudeck/internal/config"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the current session state as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(controlAddr())
		snap, err := c.State(cmd.Context())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

// controlAddr resolves the service address the client commands talk to,
// honoring the same config file and env the run command uses. The flag
// wins, then config (file + CLAUDECK_LISTEN), then the built-in default.
func controlAddr() string {
	if flagListen != "" {
		return flagListen
	}
	if cfg, err := config.Load(); err == nil {
		return cfg.Listen
	}
	return config.Defaults().Listen
}
