// Package doctor diagnoses a pomd installation: daemon liveness leftovers,
// snapshot integrity, config parse health, history sanity and stray temp
// files.
package doctor

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/internal/snapshot"
	"github.com/pomd-project/pomd/pkg/config"
)

// Finding represents a detected issue.
type Finding struct {
	Category    string `json:"category"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Path        string `json:"path,omitempty"`
}

// Result contains doctor check results.
type Result struct {
	Healthy  bool      `json:"healthy"`
	Findings []Finding `json:"findings"`
}

// Doctor performs installation health checks.
type Doctor struct {
	dataDir   string
	configDir string
}

// NewDoctor creates a doctor over the given directories.
func NewDoctor(dataDir, configDir string) *Doctor {
	return &Doctor{dataDir: dataDir, configDir: configDir}
}

// Check runs all diagnostic checks. Critical and error findings mark the
// installation unhealthy; warnings and infos do not.
func (d *Doctor) Check() (*Result, error) {
	result := &Result{Healthy: true}

	d.checkDataDir(result)
	d.checkDaemonFiles(result)
	d.checkSnapshot(result)
	d.checkConfig(result)
	d.checkSequences(result)
	d.checkHistory(result)
	d.checkOrphanTmp(result)

	for _, f := range result.Findings {
		if f.Severity == "critical" || f.Severity == "error" {
			result.Healthy = false
			break
		}
	}
	return result, nil
}

func (d *Doctor) checkDataDir(result *Result) {
	info, err := os.Stat(d.dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			result.Findings = append(result.Findings, Finding{
				Category:    "layout",
				Description: "data directory missing (created on first daemon start)",
				Severity:    "info",
				Path:        d.dataDir,
			})
			return
		}
		result.Findings = append(result.Findings, Finding{
			Category:    "layout",
			Description: fmt.Sprintf("cannot stat data directory: %v", err),
			Severity:    "critical",
			Path:        d.dataDir,
		})
		return
	}
	if !info.IsDir() {
		result.Findings = append(result.Findings, Finding{
			Category:    "layout",
			Description: "data directory path is not a directory",
			Severity:    "critical",
			Path:        d.dataDir,
		})
		return
	}

	// Probe writability the honest way.
	probe, err := os.CreateTemp(d.dataDir, ".pomd-doctor-*")
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "layout",
			Description: fmt.Sprintf("data directory not writable: %v", err),
			Severity:    "critical",
			Path:        d.dataDir,
		})
		return
	}
	probe.Close()
	os.Remove(probe.Name())
}

func (d *Doctor) checkDaemonFiles(result *Result) {
	check := liveness.New(paths.PIDFile(d.dataDir), paths.Socket(d.dataDir))
	state, pid := check.Status()
	if state != liveness.StateStale {
		return
	}
	desc := "stale pid/socket files from a dead daemon (run 'pomd daemon start' or remove them)"
	if pid > 0 {
		desc = fmt.Sprintf("stale pid/socket files from dead daemon pid %d", pid)
	}
	result.Findings = append(result.Findings, Finding{
		Category:    "daemon",
		Description: desc,
		Severity:    "warning",
		Path:        paths.PIDFile(d.dataDir),
	})
}

func (d *Doctor) checkSnapshot(result *Result) {
	store := snapshot.NewStore(paths.Snapshot(d.dataDir))
	if _, err := store.Load(); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "snapshot",
			Description: fmt.Sprintf("snapshot unusable, daemon will start fresh: %v", err),
			Severity:    "warning",
			Path:        store.Path(),
		})
	}
}

func (d *Doctor) checkConfig(result *Result) {
	if _, err := config.Load(d.configDir); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "config",
			Description: fmt.Sprintf("config invalid: %v", err),
			Severity:    "error",
			Path:        filepath.Join(d.configDir, config.FileName),
		})
	}
}

func (d *Doctor) checkSequences(result *Result) {
	if _, err := config.LoadSequences(d.configDir); err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "sequences",
			Description: fmt.Sprintf("sequences invalid: %v", err),
			Severity:    "error",
			Path:        filepath.Join(d.configDir, config.SequencesFileName),
		})
	}
}

func (d *Doctor) checkHistory(result *Result) {
	path := paths.History(d.dataDir)
	log := history.NewLog(path)
	records, err := log.List()
	if err != nil {
		result.Findings = append(result.Findings, Finding{
			Category:    "history",
			Description: fmt.Sprintf("cannot read history: %v", err),
			Severity:    "error",
			Path:        path,
		})
		return
	}

	lines, err := countNonEmptyLines(path)
	if err != nil {
		return
	}
	if skipped := lines - len(records); skipped > 0 {
		result.Findings = append(result.Findings, Finding{
			Category:    "history",
			Description: fmt.Sprintf("%d unreadable history lines (kept, ignored by queries)", skipped),
			Severity:    "warning",
			Path:        path,
		})
	}
}

func (d *Doctor) checkOrphanTmp(result *Result) {
	entries, err := os.ReadDir(d.dataDir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".pomd-tmp-") {
			result.Findings = append(result.Findings, Finding{
				Category:    "tmp",
				Description: fmt.Sprintf("orphan temp file: %s", entry.Name()),
				Severity:    "info",
				Path:        filepath.Join(d.dataDir, entry.Name()),
			})
		}
	}
}

func countNonEmptyLines(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	defer file.Close()

	count := 0
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if strings.TrimSpace(scanner.Text()) != "" {
			count++
		}
	}
	return count, scanner.Err()
}
