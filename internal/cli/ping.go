package cli

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/color"
)

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the daemon answers",
	Long: `Check that the daemon answers and report its identity.

With --json the reply includes the daemon's internal counters.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()

		started := time.Now()
		info, err := c.Ping(ctx)
		if err != nil {
			exitErr(err)
		}
		rtt := time.Since(started)

		if jsonOutput {
			outputJSON(info)
			return
		}

		fmt.Printf("%s pid %d, version %s, %s\n",
			color.Success("pong:"), info.PID, info.Version, rtt.Round(time.Microsecond))
		if len(info.Metrics) > 0 {
			names := make([]string, 0, len(info.Metrics))
			for name := range info.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Println(color.Dim(fmt.Sprintf("  %s: %d", name, info.Metrics[name])))
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(pingCmd)
}
