package cli

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/internal/server"
	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/format"
	"github.com/pomd-project/pomd/pkg/logging"
)

const daemonStartTimeout = 5 * time.Second

var daemonCmd = &cobra.Command{
	Use:   "daemon <command>",
	Short: "Supervise the pomd daemon",
	Long: `Supervise the pomd daemon.

The daemon owns the timer: it ticks once per second, persists state,
records finished sessions and pushes events to subscribers. Exactly one
daemon runs per data directory.

Examples:
  pomd daemon start     # start in the background
  pomd daemon status    # is it running?
  pomd daemon stop      # shut it down
  pomd daemon run       # run in the foreground (for service managers)`,
	DisableFlagsInUseLine: true,
}

var daemonRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	Long: `Run the daemon in the foreground until SIGINT or SIGTERM.

This is the entry point for service managers (systemd, launchd) and for
pomd daemon start, which spawns it detached.`,
	Run: func(cmd *cobra.Command, args []string) {
		dDir, cDir := dataDir(), configDir()

		// The log level comes from config once at startup; reloads
		// change timer settings only.
		if cfg, err := config.Load(cDir); err == nil {
			if level, err := logging.ParseLevel(cfg.Logging.Level); err == nil {
				logging.SetGlobal(logging.NewLogger(level))
			}
		}

		srv, err := server.New(server.Options{
			DataDir:   dDir,
			ConfigDir: cDir,
			Version:   Version,
		})
		if err != nil {
			exitDaemonErr(err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := srv.Run(ctx); err != nil {
			exitDaemonErr(err)
		}
	},
}

var daemonStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the daemon in the background",
	Run: func(cmd *cobra.Command, args []string) {
		dDir := dataDir()
		check := liveness.New(paths.PIDFile(dDir), paths.Socket(dDir))
		if state, pid := check.Status(); state == liveness.StateRunning {
			fmt.Printf("Daemon already running (pid %d).\n", pid)
			return
		}

		if err := spawnDaemon(dDir); err != nil {
			fmtErr("start daemon: %v", err)
			os.Exit(1)
		}

		deadline := time.Now().Add(daemonStartTimeout)
		for !liveness.SocketAccepts(paths.Socket(dDir), 100*time.Millisecond) {
			if time.Now().After(deadline) {
				fmtErr("daemon did not come up within %s, see %s", daemonStartTimeout, daemonLogPath(dDir))
				os.Exit(1)
			}
			time.Sleep(50 * time.Millisecond)
		}

		_, pid := check.Status()
		fmt.Printf("%s (pid %d)\n", color.Success("Daemon started"), pid)
	},
}

var daemonStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the daemon",
	Run: func(cmd *cobra.Command, args []string) {
		if err := stopDaemon(); err != nil {
			exitErr(err)
		}
	},
}

var daemonRestartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Stop the daemon and start it again",
	Run: func(cmd *cobra.Command, args []string) {
		if err := stopDaemon(); err != nil {
			exitErr(err)
		}
		daemonStartCmd.Run(cmd, nil)
	},
}

// daemonStatusReport is the --json shape of pomd daemon status.
type daemonStatusReport struct {
	Running   bool             `json:"running"`
	Stale     bool             `json:"stale,omitempty"`
	PID       int              `json:"pid,omitempty"`
	Version   string           `json:"version,omitempty"`
	StartedAt time.Time        `json:"startedAt,omitempty"`
	Metrics   map[string]int64 `json:"metrics,omitempty"`
}

var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the daemon is running",
	Long: `Report whether the daemon is running.

Exits 0 when a daemon answers, 1 otherwise. With --json the report
includes the daemon's counters.`,
	Run: func(cmd *cobra.Command, args []string) {
		dDir := dataDir()
		check := liveness.New(paths.PIDFile(dDir), paths.Socket(dDir))
		state, pid := check.Status()

		report := daemonStatusReport{Running: state == liveness.StateRunning, PID: pid}
		if state == liveness.StateRunning {
			ctx, cancel := cmdCtx()
			defer cancel()
			if info, err := newClient().Ping(ctx); err == nil {
				report.Version = info.Version
				report.StartedAt = info.StartedAt
				report.Metrics = info.Metrics
			}
		}
		report.Stale = state == liveness.StateStale

		if jsonOutput {
			outputJSON(report)
			if !report.Running {
				os.Exit(1)
			}
			return
		}

		switch state {
		case liveness.StateRunning:
			line := fmt.Sprintf("%s (pid %d)", color.Success("Daemon running"), pid)
			if !report.StartedAt.IsZero() {
				up := int(time.Since(report.StartedAt).Seconds())
				line += color.Dim(fmt.Sprintf("  version %s, up %s", report.Version, format.HumanDuration(up)))
			}
			fmt.Println(line)
		case liveness.StateStale:
			fmt.Println(color.Warning("Daemon not running (stale files left behind)"))
			fmt.Println(color.Dim("  The next start cleans them up; pomd doctor has details."))
			os.Exit(1)
		default:
			fmt.Println("Daemon not running.")
			os.Exit(1)
		}
	},
}

// spawnDaemon launches "pomd daemon run" detached, logging to
// daemon.log in the data directory.
func spawnDaemon(dDir string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	if err := os.MkdirAll(dDir, 0o700); err != nil {
		return err
	}
	logFile, err := os.OpenFile(daemonLogPath(dDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	args := []string{"daemon", "run", "--data-dir", dDir, "--config-dir", configDir()}
	child := exec.Command(exe, args...)
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = detachAttr()
	if err := child.Start(); err != nil {
		return fmt.Errorf("spawn daemon: %w", err)
	}
	// The child owns its own session; it is not waited on.
	return child.Process.Release()
}

// stopDaemon asks the daemon to shut down and waits for the socket to
// disappear. A daemon that is not running is not an error.
func stopDaemon() error {
	c := newClient()
	ctx, cancel := cmdCtx()
	defer cancel()
	if err := c.Shutdown(ctx); err != nil {
		if errclass.Is(err, errclass.ErrUnreachable) {
			fmt.Println("Daemon is not running.")
			return nil
		}
		return err
	}

	socket := paths.Socket(dataDir())
	deadline := time.Now().Add(daemonStartTimeout)
	for liveness.SocketAccepts(socket, 100*time.Millisecond) {
		if time.Now().After(deadline) {
			return fmt.Errorf("daemon acknowledged shutdown but is still accepting after %s", daemonStartTimeout)
		}
		time.Sleep(50 * time.Millisecond)
	}
	fmt.Println(color.Success("Daemon stopped."))
	return nil
}

func daemonLogPath(dDir string) string {
	return filepath.Join(dDir, "daemon.log")
}

// exitDaemonErr prints startup failures with the class spelled out, so
// a second start attempt reads as "already running" rather than a
// stack of socket errors.
func exitDaemonErr(err error) {
	if errclass.Is(err, errclass.ErrAlreadyRunning) {
		fmtErr("%v", err)
		os.Exit(1)
	}
	fmtErr("daemon: %v", err)
	os.Exit(1)
}

func init() {
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStartCmd)
	daemonCmd.AddCommand(daemonStopCmd)
	daemonCmd.AddCommand(daemonRestartCmd)
	daemonCmd.AddCommand(daemonStatusCmd)
	rootCmd.AddCommand(daemonCmd)
}
