package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeincontext/claudeck/internal/client"
)

var sendCmd = &cobra.Command{
	Use:   "send <command...>",
	Short: "Inject a command or key press into the session",
	Long: `Inject input into the running session.

Plain text is typed into the input box and submitted. A handful of names
send key presses instead: enter, escape, tab, shift-tab, interrupt, up,
down, left, right, backspace. An empty string sends a bare return.

Examples:

  claudeck send "explain this stack trace"
  claudeck send escape
  claudeck send 1`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := client.New(controlAddr())
		res, err := c.Send(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if res.Status != "sent" {
			return fmt.Errorf("command not delivered: %s", res.Error)
		}
		fmt.Printf("sent: %s\n", res.Command)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
}
