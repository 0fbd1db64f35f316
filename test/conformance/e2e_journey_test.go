//go:build conformance

package conformance

import (
	"strings"
	"testing"
	"time"
)

// E2E Scenario 1: Complete User Journey (Integration)
// User Story: One working day driven entirely through the CLI

// TestE2E_Journey_WorkingDay walks a full day: daemon up, a timed work
// session, history review, a sequence, a stopwatch interlude, daemon down.
func TestE2E_Journey_WorkingDay(t *testing.T) {
	dataDir, cfgDir := testDirs(t)
	t.Cleanup(func() { stopDaemonQuiet(dataDir, cfgDir) })

	writeSequences(t, cfgDir, `[sequences.deepwork]
blocks = [
    { type = "work", minutes = 1 },
    { type = "short-break", minutes = 1 },
]
`)

	// ===== Morning: bring the daemon up =====
	t.Run("morning_startup", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "daemon", "start")
		if code != 0 {
			t.Fatalf("daemon start failed: %s%s", stdout, stderr)
		}
		if !strings.Contains(stdout, "Daemon started") {
			t.Errorf("expected start confirmation, got: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "daemon", "status")
		if code != 0 || !strings.Contains(stdout, "Daemon running") {
			t.Errorf("daemon should report running: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "ping")
		if code != 0 || !strings.Contains(stdout, "pong") {
			t.Errorf("ping should answer: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "doctor")
		if code != 0 || !strings.Contains(stdout, "healthy") {
			t.Errorf("fresh installation should be healthy: %s", stdout)
		}
	})

	// ===== First work session =====
	t.Run("first_session", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "status")
		if code != 0 {
			t.Fatalf("status failed: %s", stderr)
		}
		if !strings.Contains(stdout, "25:00") || !strings.Contains(stdout, "idle") {
			t.Errorf("fresh timer should be idle at 25:00: %s", stdout)
		}

		stdout, stderr, code = runPomd(t, dataDir, cfgDir, "set", "duration", "1")
		if code != 0 {
			t.Fatalf("set duration failed: %s", stderr)
		}
		if !strings.Contains(stdout, "01:00") {
			t.Errorf("duration override should show: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "set", "label", "deep work")
		if code != 0 || !strings.Contains(stdout, "deep work") {
			t.Errorf("label should show: %s", stdout)
		}

		_, stderr, code = runPomd(t, dataDir, cfgDir, "start")
		if code != 0 {
			t.Fatalf("start failed: %s", stderr)
		}

		// Let the daemon tick a couple of real seconds.
		time.Sleep(2500 * time.Millisecond)

		stdout, _, _ = runPomd(t, dataDir, cfgDir, "status")
		if strings.Contains(stdout, "01:00") || !strings.Contains(stdout, "00:") {
			t.Errorf("countdown should have advanced: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "pause")
		if code != 0 || !strings.Contains(stdout, "paused") {
			t.Errorf("pause should show paused state: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "resume")
		if code != 0 || strings.Contains(stdout, "paused") {
			t.Errorf("resume should leave paused state: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "skip")
		if code != 0 {
			t.Fatalf("skip failed: %s", stdout)
		}
		if !strings.Contains(stdout, "05:00") {
			t.Errorf("skip should arm the short break: %s", stdout)
		}
	})

	// ===== Review the log =====
	t.Run("history_review", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "history")
		if code != 0 {
			t.Fatalf("history failed: %s", stderr)
		}
		if !strings.Contains(stdout, "work") || !strings.Contains(stdout, "skipped") {
			t.Errorf("history should list the skipped work session: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "history", "--stats")
		if code != 0 || !strings.Contains(stdout, "Sessions: 1") {
			t.Errorf("stats should count one session: %s", stdout)
		}
	})

	// ===== Afternoon: structured sequence =====
	t.Run("afternoon_sequence", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "sequence", "list")
		if code != 0 {
			t.Fatalf("sequence list failed: %s", stderr)
		}
		if !strings.Contains(stdout, "deepwork") || !strings.Contains(stdout, "2 blocks") {
			t.Errorf("sequence list should show deepwork: %s", stdout)
		}

		stdout, stderr, code = runPomd(t, dataDir, cfgDir, "sequence", "activate", "deepwork")
		if code != 0 {
			t.Fatalf("sequence activate failed: %s", stderr)
		}
		if !strings.Contains(stdout, "sequence deepwork") || !strings.Contains(stdout, "01:00") {
			t.Errorf("activation should arm the first block: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "sequence", "clear")
		if code != 0 || strings.Contains(stdout, "sequence deepwork") {
			t.Errorf("clear should drop the sequence: %s", stdout)
		}
	})

	// ===== Stopwatch interlude =====
	t.Run("stopwatch_interlude", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "stopwatch", "start")
		if code != 0 {
			t.Fatalf("stopwatch start failed: %s", stderr)
		}
		if !strings.Contains(stdout, "stopwatch") {
			t.Errorf("stopwatch mode should show: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "stopwatch", "stop")
		if code != 0 || strings.Contains(stdout, "stopwatch") {
			t.Errorf("countdown mode should be back: %s", stdout)
		}
	})

	// ===== Evening: shut down =====
	t.Run("evening_shutdown", func(t *testing.T) {
		stdout, stderr, code := runPomd(t, dataDir, cfgDir, "daemon", "stop")
		if code != 0 {
			t.Fatalf("daemon stop failed: %s%s", stdout, stderr)
		}
		if !strings.Contains(stdout, "Daemon stopped.") {
			t.Errorf("expected stop confirmation, got: %s", stdout)
		}

		stdout, _, code = runPomd(t, dataDir, cfgDir, "daemon", "status")
		if code == 0 || !strings.Contains(stdout, "Daemon not running.") {
			t.Errorf("daemon should report stopped: %s", stdout)
		}

		// Timer commands now point the user at daemon start.
		_, stderr, code = runPomd(t, dataDir, cfgDir, "status")
		if code == 0 {
			t.Error("status without a daemon should fail")
		}
		if !strings.Contains(stderr, "daemon is not running") || !strings.Contains(stderr, "pomd daemon start") {
			t.Errorf("expected guidance, got: %s", stderr)
		}
	})
}
