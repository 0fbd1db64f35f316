package cli

import (
	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/pomd"
)

var stopwatchCmd = &cobra.Command{
	Use:   "stopwatch <command>",
	Short: "Count up instead of down",
	Long: `Count up instead of down, for unplanned work.

The stopwatch runs until stopped; stopping records the elapsed time as
a session and returns the timer to countdown mode.

Examples:
  pomd stopwatch start
  pomd stopwatch stop`,
	DisableFlagsInUseLine: true,
}

var stopwatchStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Switch to stopwatch mode and start counting",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).SwitchToStopwatch)
	},
}

var stopwatchStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the stopwatch and record the elapsed time",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).StopStopwatch)
	},
}

func init() {
	stopwatchCmd.AddCommand(stopwatchStartCmd)
	stopwatchCmd.AddCommand(stopwatchStopCmd)
	rootCmd.AddCommand(stopwatchCmd)
}
