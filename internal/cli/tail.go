package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/format"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/pomd"
)

var tailEvents []string

var tailCmd = &cobra.Command{
	Use:   "tail",
	Short: "Subscribe to the daemon and print events as they happen",
	Long: `Subscribe to the daemon and print events as they happen,
until interrupted.

The subscription survives daemon restarts: tail keeps reconnecting and
says so in between.

Examples:
  pomd tail                                  # everything, ticks included
  pomd tail --events session:complete        # just completions
  pomd tail --json | jq .                    # raw event lines`,
	Run: func(cmd *cobra.Command, args []string) {
		wanted := map[string]bool{}
		for _, name := range tailEvents {
			wanted[strings.TrimSpace(name)] = true
		}

		c := newClient()
		sub, err := c.Subscribe(pomd.SubscribeOptions{
			OnEvent: func(ev pomd.Event) {
				if len(wanted) > 0 && !wanted[ev.Name] {
					return
				}
				printEvent(ev)
			},
			OnConnState: func(cs pomd.ConnState) {
				if jsonOutput {
					return
				}
				switch cs {
				case pomd.ConnConnected:
					fmt.Fprintln(os.Stderr, color.Dim("-- connected --"))
				case pomd.ConnDisconnected:
					fmt.Fprintln(os.Stderr, color.Dim("-- connection lost, retrying --"))
				}
			},
			OnUnreachable: func() {
				fmt.Fprintln(os.Stderr, formatDaemonNotRunningError())
				os.Exit(1)
			},
		})
		if err != nil {
			exitErr(err)
		}
		defer sub.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
	},
}

// printEvent renders one event: the raw line with --json, a timestamped
// summary otherwise.
func printEvent(ev pomd.Event) {
	if jsonOutput {
		line, err := json.Marshal(ev)
		if err != nil {
			return
		}
		fmt.Println(string(line))
		return
	}

	ts := color.Dim(time.Now().Format("15:04:05"))
	switch ev.Name {
	case pomd.EventSessionComplete, pomd.EventSessionSkip, pomd.EventSessionAbandon:
		rec, err := ev.Session()
		if err != nil {
			return
		}
		detail := fmt.Sprintf("%s %s", color.Session(string(rec.Type)), format.HumanDuration(rec.DurationActual))
		if rec.Label != "" {
			detail += "  " + rec.Label
		}
		fmt.Printf("%s  %-18s %s\n", ts, ev.Name, detail)
	case pomd.EventSequenceAdvance, pomd.EventSequenceComplete:
		pos, err := ev.SequencePosition()
		if err != nil {
			return
		}
		detail := fmt.Sprintf("block %d", pos.BlockIndex+1)
		if pos.Block != nil {
			detail += fmt.Sprintf(" (%s %s)", pos.Block.Type, format.HumanDuration(pos.Block.DurationMinutes*60))
		}
		fmt.Printf("%s  %-18s %s\n", ts, ev.Name, detail)
	default:
		st, err := ev.State()
		if err != nil {
			return
		}
		clock := st.SecondsLeft
		if st.TimerMode == model.ModeStopwatch {
			clock = st.StopwatchElapsed
		}
		fmt.Printf("%s  %-18s %s %s\n", ts, ev.Name,
			color.Clock(format.Clock(clock)), color.Session(string(st.SessionType)))
	}
}

func init() {
	tailCmd.Flags().StringSliceVar(&tailEvents, "events", nil, "only print these event names (comma-separated)")
	rootCmd.AddCommand(tailCmd)
}
