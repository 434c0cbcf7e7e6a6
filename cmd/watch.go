package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/codeincontext/claudeck/internal/client"
	"github.com/codeincontext/claudeck/internal/watch"
)

var flagWatchInterval time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard for a running session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr := controlAddr()
		w := &watch.Watch{
			Client:   client.New(addr),
			Addr:     addr,
			Interval: flagWatchInterval,
		}
		return w.Run(cmd.Context())
	},
}

func init() {
	watchCmd.Flags().DurationVar(&flagWatchInterval, "interval", time.Second, "poll interval")
	rootCmd.AddCommand(watchCmd)
}
