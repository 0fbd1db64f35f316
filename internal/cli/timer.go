package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/internal/statusfile"
	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/format"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/pomd"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the current session",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Start)
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause the running timer",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Pause)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a paused timer",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Resume)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Start, pause or resume depending on the current state",
	Long: `Start, pause or resume depending on the current state.

This is the command to bind to a single hotkey or status-bar click:
idle starts, running pauses, paused resumes.`,
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Toggle)
	},
}

var skipCmd = &cobra.Command{
	Use:   "skip",
	Short: "End the current session early and move to the next",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Skip)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Put the current session back to its full duration, stopped",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Reset)
	},
}

var abandonCmd = &cobra.Command{
	Use:   "abandon",
	Short: "Discard the running session without crediting it",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).Abandon)
	},
}

var advanceCmd = &cobra.Command{
	Use:   "advance",
	Short: "Move to the next session without crediting the current one",
	Run: func(cmd *cobra.Command, args []string) {
		runTimerCommand((*pomd.Client).AdvanceSession)
	},
}

var resetLogProductive bool

var resetLogCmd = &cobra.Command{
	Use:   "reset-log",
	Short: "Reset the day's session counters",
	Long: `Reset the day's session counters back to session one.

With --productive the current session is credited as done before the
counters reset; without it the session is discarded.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.ResetLog(ctx, resetLogProductive)
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current timer state",
	Long: `Show the current timer state.

Examples:
  pomd status          # one-line human summary
  pomd status --json   # full state for scripts`,
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.Status(ctx)
		if err != nil {
			exitErr(err)
		}
		printState(st)
	},
}

// runTimerCommand sends one state-changing command and prints the
// resulting state.
func runTimerCommand(op func(*pomd.Client, context.Context) (pomd.State, error)) {
	c := newClient()
	ctx, cancel := cmdCtx()
	defer cancel()
	st, err := op(c, ctx)
	if err != nil {
		exitErr(err)
	}
	printState(st)
}

// printState renders engine state: full JSON with --json, a compact
// human summary otherwise.
func printState(st pomd.State) {
	if jsonOutput {
		outputJSON(st)
		return
	}

	rendered := statusfile.Render(st)
	line := fmt.Sprintf("%s  %s", color.Clock(rendered.Text), color.Session(rendered.Class))

	if st.TimerMode != model.ModeStopwatch {
		line += color.Dim(fmt.Sprintf("  session %d/%d", st.SessionNumber, st.TotalWorkSessions))
		if st.IsRunning || st.IsComplete {
			line += color.Dim(fmt.Sprintf("  %d%%", rendered.Percentage))
		}
	}
	if st.CurrentLabel != "" {
		line += "  " + st.CurrentLabel
	}
	if st.CurrentProject != "" {
		line += color.Dim("  ("+st.CurrentProject+")")
	}
	fmt.Println(line)

	if st.SequenceIsActive && len(st.SequenceBlocks) > 0 {
		idx := st.SequenceBlockIndex
		block := st.SequenceBlocks[idx]
		name := st.SequenceName
		if name == "" {
			name = "(inline)"
		}
		fmt.Println(color.Dim(fmt.Sprintf("sequence %s  block %d/%d (%s %s)",
			name, idx+1, len(st.SequenceBlocks), block.Type,
			format.HumanDuration(block.DurationMinutes*60))))
	}
}

func init() {
	resetLogCmd.Flags().BoolVar(&resetLogProductive, "productive", false, "credit the current session before resetting")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(resumeCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(skipCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(abandonCmd)
	rootCmd.AddCommand(advanceCmd)
	rootCmd.AddCommand(resetLogCmd)
	rootCmd.AddCommand(statusCmd)
}
