package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/pkg/color"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/pomd"
)

const commandTimeout = 5 * time.Second

// dataDir resolves the data directory from the flag or the XDG default,
// or exits with error.
func dataDir() string {
	if flagDataDir != "" {
		return flagDataDir
	}
	dir, err := paths.DataDir()
	if err != nil {
		fmtErr("resolve data dir: %v", err)
		os.Exit(1)
	}
	return dir
}

// configDir resolves the config directory from the flag or the XDG
// default, or exits with error.
func configDir() string {
	if flagCfgDir != "" {
		return flagCfgDir
	}
	dir, err := paths.ConfigDir()
	if err != nil {
		fmtErr("resolve config dir: %v", err)
		os.Exit(1)
	}
	return dir
}

// newClient builds the daemon client for the resolved data directory,
// or exits with error.
func newClient() *pomd.Client {
	c, err := pomd.New(pomd.Options{DataDir: dataDir(), RequestTimeout: commandTimeout})
	if err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
	return c
}

// cmdCtx returns the context for one command round-trip.
func cmdCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), commandTimeout)
}

// exitErr prints err and exits non-zero. Unreachable daemons get a
// pointer to daemon start instead of a raw dial error.
func exitErr(err error) {
	if errclass.Is(err, errclass.ErrUnreachable) {
		fmt.Fprintln(os.Stderr, formatDaemonNotRunningError())
		os.Exit(1)
	}
	fmtErr("%v", err)
	os.Exit(1)
}

func fmtErr(format string, args ...any) {
	prefix := "pomd: "
	if color.Enabled() {
		prefix = color.Error("pomd:") + " "
	}
	fmt.Fprintf(os.Stderr, prefix+format+"\n", args...)
}
