// Package cli implements the pomd command line interface: daemon
// supervision, one-shot timer commands and the live event tail.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/color"
)

// Version is stamped by the build; the daemon reports it in ping
// responses.
var Version = "dev"

var (
	jsonOutput  bool
	noColor     bool
	flagDataDir string
	flagCfgDir  string

	rootCmd = &cobra.Command{
		Use:   "pomd",
		Short: "pomd - pomodoro timer daemon",
		Long: `pomd is a pomodoro timer that runs as a background daemon.

A single daemon owns the timer state and serves clients over a unix
socket: one-shot commands from this CLI, and live event subscriptions
for status bars and widgets. State survives restarts through an
integrity-checked snapshot, and finished sessions are appended to a
local history log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "override the data directory (default: $XDG_DATA_HOME/pomd)")
	rootCmd.PersistentFlags().StringVar(&flagCfgDir, "config-dir", "", "override the config directory (default: $XDG_CONFIG_HOME/pomd)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
