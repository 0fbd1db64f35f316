package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/format"
	"github.com/pomd-project/pomd/pkg/model"
)

var (
	historyLimit   int
	historyType    string
	historyStatus  string
	historyProject string
	historyTag     string
	historySince   string
	historyStats   bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show finished sessions",
	Long: `Show finished sessions from the history log.

The log is read directly from the data directory, so history works with
or without a running daemon.

Examples:
  pomd history                     # everything, oldest first
  pomd history -n 10               # last 10 sessions
  pomd history --type work         # work sessions only
  pomd history --status completed  # completed only
  pomd history --project thesis    # one project
  pomd history --since 24h         # sessions that ended since yesterday
  pomd history --stats             # aggregate summary`,
	Run: func(cmd *cobra.Command, args []string) {
		filter := history.FilterOptions{
			Type:    model.SessionType(historyType),
			Status:  model.SessionStatus(historyStatus),
			Project: historyProject,
			HasTag:  historyTag,
			Limit:   historyLimit,
		}
		if historySince != "" {
			age, err := time.ParseDuration(historySince)
			if err != nil {
				fmtErr("invalid --since duration %q: %v", historySince, err)
				os.Exit(1)
			}
			filter.Since = time.Now().Add(-age)
		}

		log := history.NewLog(paths.History(dataDir()))
		records, err := log.Find(filter)
		if err != nil {
			fmtErr("read history: %v", err)
			os.Exit(1)
		}

		if historyStats {
			printHistoryStats(history.Summarize(records))
			return
		}

		if jsonOutput {
			outputJSON(records)
			return
		}
		if len(records) == 0 {
			fmt.Println("No sessions recorded.")
			return
		}
		for _, rec := range records {
			line := fmt.Sprintf("%s  %-12s %-10s %s",
				color.Dim(rec.EndedAt.Local().Format("2006-01-02 15:04")),
				color.Session(string(rec.Type)),
				statusColor(rec.Status),
				format.HumanDuration(rec.DurationActual))
			if rec.Label != "" {
				line += "  " + rec.Label
			}
			if rec.Project != "" {
				line += color.Dim("  (" + rec.Project + ")")
			}
			fmt.Println(line)
		}
	},
}

var historyPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Remove old sessions per the retention policy",
	Long: `Remove old sessions per the retention policy in config.yaml.

A record is removed only when it is beyond keep_min_sessions AND older
than keep_min_age. The daemon also prunes on startup; this forces a
pass now.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(configDir())
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}
		minAge, _ := cfg.History.MinAge()

		log := history.NewLog(paths.History(dataDir()))
		removed, err := log.Prune(history.RetentionPolicy{
			KeepMinSessions: cfg.History.KeepMinSessions,
			KeepMinAge:      minAge,
		}, time.Now())
		if err != nil {
			fmtErr("prune history: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(map[string]int{"removed": removed})
			return
		}
		if removed == 0 {
			fmt.Println("Nothing to prune.")
			return
		}
		fmt.Printf("Pruned %d session(s).\n", removed)
	},
}

func printHistoryStats(stats history.Stats) {
	if jsonOutput {
		outputJSON(map[string]int{
			"total":       stats.Total,
			"completed":   stats.Completed,
			"skipped":     stats.Skipped,
			"abandoned":   stats.Abandoned,
			"workSeconds": stats.WorkSeconds,
		})
		return
	}
	fmt.Printf("Sessions: %d  (%s %d, %s %d, %s %d)\n",
		stats.Total,
		color.Success("completed"), stats.Completed,
		color.Warning("skipped"), stats.Skipped,
		color.Error("abandoned"), stats.Abandoned)
	fmt.Printf("Focused work: %s\n", color.Header(format.HumanDuration(stats.WorkSeconds)))
}

func statusColor(status model.SessionStatus) string {
	switch status {
	case model.StatusCompleted:
		return color.Success(string(status))
	case model.StatusSkipped:
		return color.Warning(string(status))
	case model.StatusAbandoned:
		return color.Error(string(status))
	default:
		return string(status)
	}
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "limit number of entries (0 = all)")
	historyCmd.Flags().StringVar(&historyType, "type", "", "filter by session type (work, short-break, long-break)")
	historyCmd.Flags().StringVar(&historyStatus, "status", "", "filter by status (completed, skipped, abandoned)")
	historyCmd.Flags().StringVar(&historyProject, "project", "", "filter by project")
	historyCmd.Flags().StringVar(&historyTag, "tag", "", "filter by tag")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only sessions that ended within this duration (e.g. 24h)")
	historyCmd.Flags().BoolVar(&historyStats, "stats", false, "print an aggregate summary instead of the list")
	historyCmd.AddCommand(historyPruneCmd)
	rootCmd.AddCommand(historyCmd)
}
