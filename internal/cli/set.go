package cli

import (
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

var setCmd = &cobra.Command{
	Use:   "set <command>",
	Short: "Attach metadata or override the session duration",
	Long: `Attach metadata to sessions or override the current duration.

Examples:
  pomd set label "write report"   # label recorded on finished sessions
  pomd set label ""               # clear the label
  pomd set project thesis
  pomd set duration 45            # this session runs 45 minutes`,
	DisableFlagsInUseLine: true,
}

var setLabelCmd = &cobra.Command{
	Use:   "label <text>",
	Short: "Set the label recorded on finished sessions (empty clears)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.SetLabel(ctx, args[0])
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

var setProjectCmd = &cobra.Command{
	Use:   "project <name>",
	Short: "Set the project recorded on finished sessions (empty clears)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.SetProject(ctx, args[0])
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

var setDurationCmd = &cobra.Command{
	Use:   "duration <minutes>",
	Short: "Override the current session's duration in minutes",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		minutes, err := strconv.Atoi(args[0])
		if err != nil {
			fmtErr("duration must be a whole number of minutes, got %q", args[0])
			os.Exit(1)
		}
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.SetDuration(ctx, minutes)
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

func init() {
	setCmd.AddCommand(setLabelCmd)
	setCmd.AddCommand(setProjectCmd)
	setCmd.AddCommand(setDurationCmd)
	rootCmd.AddCommand(setCmd)
}
