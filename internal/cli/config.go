package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config <command>",
	Short: "Inspect and reload pomd configuration",
	Long: `Inspect and reload pomd configuration.

Configuration lives in config.yaml in the config directory; sequences
in sequences.toml next to it. The daemon picks up edits on its own, but
reload forces a re-read immediately.

Available commands:
  show      - Show the effective configuration
  reload    - Make the running daemon re-read its config files`,
	DisableFlagsInUseLine: true,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Long:  "Show the effective configuration: file values merged over defaults.",
	Run: func(cmd *cobra.Command, args []string) {
		cDir := configDir()
		cfg, err := config.Load(cDir)
		if err != nil {
			fmtErr("load config: %v", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(cfg)
			return
		}

		fmt.Println("# pomd configuration")
		fmt.Printf("# Location: %s\n\n", filepath.Join(cDir, config.FileName))
		fmt.Printf("timer:\n")
		fmt.Printf("  work_minutes: %d\n", cfg.Timer.WorkMinutes)
		fmt.Printf("  short_break_minutes: %d\n", cfg.Timer.ShortBreakMinutes)
		fmt.Printf("  long_break_minutes: %d\n", cfg.Timer.LongBreakMinutes)
		fmt.Printf("  long_break_interval: %d\n", cfg.Timer.LongBreakInterval)
		fmt.Printf("  strict_mode: %v\n", cfg.Timer.StrictMode)
		fmt.Printf("  autostart_work: %v\n", cfg.Timer.AutostartWork)
		fmt.Printf("  autostart_breaks: %v\n", cfg.Timer.AutostartBreaks)
		fmt.Printf("status:\n")
		fmt.Printf("  enabled: %v\n", cfg.Status.Enabled)
		if cfg.Status.SignalCommand != "" {
			fmt.Printf("  signal_command: %s\n", cfg.Status.SignalCommand)
		}
		fmt.Printf("  signal_min_interval: %s\n", cfg.Status.SignalMinInterval)
		fmt.Printf("history:\n")
		fmt.Printf("  keep_min_sessions: %d\n", cfg.History.KeepMinSessions)
		fmt.Printf("  keep_min_age: %s\n", cfg.History.KeepMinAge)
		fmt.Printf("logging:\n")
		fmt.Printf("  level: %s\n", cfg.Logging.Level)
		if len(cfg.Hooks) > 0 {
			fmt.Printf("hooks: %d configured\n", len(cfg.Hooks))
		}
	},
}

var configReloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Make the running daemon re-read its config files",
	Run: func(cmd *cobra.Command, args []string) {
		c := newClient()
		ctx, cancel := cmdCtx()
		defer cancel()
		st, err := c.ReloadConfig(ctx)
		if err != nil {
			exitErr(err)
		}
		if jsonOutput {
			outputJSON(st)
			return
		}
		fmt.Println(color.Success("Config reloaded."))
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configReloadCmd)
	rootCmd.AddCommand(configCmd)
}
