// Package stress provides large-scale stress tests for the pomd daemon.
// These tests are designed to find limits and edge cases with:
// - 100+ concurrent subscribers
// - thousands of back-to-back commands
// - history logs with thousands of records
//
// Run with: go test -v -timeout=10m ./test/stress/...
package stress

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/internal/server"
	"github.com/pomd-project/pomd/pkg/model"
	"github.com/pomd-project/pomd/pkg/pomd"
)

// TestStress_ConcurrentClients hammers one daemon with 50 clients issuing
// commands in parallel. Every command must get a response; the daemon must
// stay consistent throughout.
func TestStress_ConcurrentClients(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dataDir := startStressDaemon(t)

	const clients = 50
	const commandsPerClient = 20

	start := time.Now()
	var failures atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < clients; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c, err := pomd.New(pomd.Options{DataDir: dataDir, RequestTimeout: 10 * time.Second})
			if err != nil {
				failures.Add(int64(commandsPerClient))
				t.Logf("client %d: %v", n, err)
				return
			}
			ctx := context.Background()
			for j := 0; j < commandsPerClient; j++ {
				var err error
				switch j % 3 {
				case 0:
					_, err = c.Status(ctx)
				case 1:
					_, err = c.Toggle(ctx)
				case 2:
					_, err = c.SetLabel(ctx, fmt.Sprintf("client-%d-%d", n, j))
				}
				if err != nil {
					failures.Add(1)
					t.Logf("client %d command %d: %v", n, j, err)
				}
			}
		}(i)
	}
	wg.Wait()
	elapsed := time.Since(start)

	total := clients * commandsPerClient
	t.Logf("%d commands across %d clients in %v (%.0f cmds/sec)",
		total, clients, elapsed, float64(total)/elapsed.Seconds())
	if n := failures.Load(); n > 0 {
		t.Errorf("%d of %d commands failed", n, total)
	}

	// The daemon must still answer after the storm.
	c, err := pomd.New(pomd.Options{DataDir: dataDir})
	if err != nil {
		t.Fatalf("client: %v", err)
	}
	st, err := c.Status(context.Background())
	if err != nil {
		t.Fatalf("status after storm: %v", err)
	}
	if st.SessionType == "" {
		t.Error("state lost its session type under load")
	}
}

// TestStress_ManySubscribers attaches 100 reading subscribers and drives
// transitions past them. Every subscriber that keeps reading must see every
// transition; the per-connection queues only drop when a reader stalls.
func TestStress_ManySubscribers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dataDir := startStressDaemon(t)
	socket := paths.Socket(dataDir)

	const subscribers = 100
	const toggles = 30

	// Attach all subscribers before driving events.
	counts := make([]atomic.Int64, subscribers)
	var ready, done sync.WaitGroup
	for i := 0; i < subscribers; i++ {
		ready.Add(1)
		done.Add(1)
		go func(n int) {
			defer done.Done()
			first := true
			defer func() {
				if first {
					ready.Done()
				}
			}()

			conn, err := net.DialTimeout("unix", socket, 5*time.Second)
			if err != nil {
				t.Errorf("subscriber %d dial: %v", n, err)
				return
			}
			defer conn.Close()
			if _, err := conn.Write([]byte(`{"cmd":"subscribe"}` + "\n")); err != nil {
				t.Errorf("subscriber %d subscribe: %v", n, err)
				return
			}

			scanner := bufio.NewScanner(conn)
			scanner.Buffer(make([]byte, 0, 4096), 1024*1024)
			deadline := time.Now().Add(60 * time.Second)
			for counts[n].Load() < toggles && time.Now().Before(deadline) {
				conn.SetReadDeadline(time.Now().Add(10 * time.Second))
				if !scanner.Scan() {
					break
				}
				msg, err := protocol.DecodeServerMessage(scanner.Bytes())
				if err != nil {
					continue
				}
				if first {
					// Handshake response with the initial snapshot.
					if msg.Response == nil || !msg.Response.OK {
						t.Errorf("subscriber %d: bad handshake", n)
						return
					}
					first = false
					ready.Done()
					continue
				}
				if msg.Event != nil && msg.Event.Name == protocol.EventStateChange {
					counts[n].Add(1)
				}
			}
		}(i)
	}
	ready.Wait()

	driver, err := pomd.New(pomd.Options{DataDir: dataDir, RequestTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("driver client: %v", err)
	}
	start := time.Now()
	for i := 0; i < toggles; i++ {
		if _, err := driver.Toggle(context.Background()); err != nil {
			t.Fatalf("toggle %d: %v", i, err)
		}
	}
	done.Wait()
	elapsed := time.Since(start)

	delivered := int64(0)
	for i := range counts {
		got := counts[i].Load()
		delivered += got
		if got < toggles {
			t.Errorf("subscriber %d saw %d of %d transitions", i, got, toggles)
		}
	}
	t.Logf("%d events delivered to %d subscribers in %v", delivered, subscribers, elapsed)
}

// TestStress_StalledSubscribers opens subscribers that never read, then
// drives an event storm past them. The daemon resets the stalled
// connections instead of blocking; a live client must keep getting answers
// the whole time.
func TestStress_StalledSubscribers(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dataDir := startStressDaemon(t)
	socket := paths.Socket(dataDir)

	// Subscribers that subscribe and then go silent.
	const stalled = 20
	conns := make([]net.Conn, 0, stalled)
	defer func() {
		for _, c := range conns {
			c.Close()
		}
	}()
	for i := 0; i < stalled; i++ {
		conn, err := net.DialTimeout("unix", socket, 5*time.Second)
		if err != nil {
			t.Fatalf("dial stalled subscriber %d: %v", i, err)
		}
		conns = append(conns, conn)
		if _, err := conn.Write([]byte(`{"cmd":"subscribe"}` + "\n")); err != nil {
			t.Fatalf("subscribe stalled subscriber %d: %v", i, err)
		}
	}

	driver, err := pomd.New(pomd.Options{DataDir: dataDir, RequestTimeout: 10 * time.Second})
	if err != nil {
		t.Fatalf("driver client: %v", err)
	}
	start := time.Now()
	for i := 0; i < 500; i++ {
		if _, err := driver.Toggle(context.Background()); err != nil {
			t.Fatalf("toggle %d under stalled subscribers: %v", i, err)
		}
	}
	t.Logf("500 toggles with %d stalled subscribers in %v", stalled, time.Since(start))

	st, err := driver.Status(context.Background())
	if err != nil {
		t.Fatalf("status after storm: %v", err)
	}
	if st.SessionType != model.SessionWork {
		t.Errorf("unexpected session type %q after storm", st.SessionType)
	}
}

// TestStress_SequentialThroughput measures raw request/response throughput
// over a single connection.
func TestStress_SequentialThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dataDir := startStressDaemon(t)
	socket := paths.Socket(dataDir)

	conn, err := net.DialTimeout("unix", socket, 5*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), 1024*1024)

	const rounds = 2000
	start := time.Now()
	for i := 0; i < rounds; i++ {
		if _, err := conn.Write([]byte(`{"cmd":"status"}` + "\n")); err != nil {
			t.Fatalf("write round %d: %v", i, err)
		}
		if !scanner.Scan() {
			t.Fatalf("no response at round %d: %v", i, scanner.Err())
		}
		var resp protocol.Response
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("decode round %d: %v", i, err)
		}
		if !resp.OK {
			t.Fatalf("round %d: %s", i, resp.Error)
		}
	}
	elapsed := time.Since(start)
	t.Logf("%d round trips in %v (%.0f req/sec)", rounds, elapsed, float64(rounds)/elapsed.Seconds())
}

// TestStress_HistoryChurn loads the history log with thousands of records
// and exercises queries and pruning at that size.
func TestStress_HistoryChurn(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping stress test in short mode")
	}

	dir, err := os.MkdirTemp("", "pomd-hist-")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	log := history.NewLog(paths.History(dir))
	const records = 2000
	base := time.Now().Add(-time.Duration(records) * time.Minute)

	start := time.Now()
	for i := 0; i < records; i++ {
		end := base.Add(time.Duration(i) * time.Minute)
		rec := model.NewSessionRecord(model.SessionWork, model.StatusCompleted,
			end.Add(-25*time.Minute), end, 1500, 1500)
		if i%4 == 0 {
			rec.Project = "stress"
		}
		if err := log.Append(rec); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	t.Logf("appended %d records in %v", records, time.Since(start))

	start = time.Now()
	matches, err := log.Find(history.FilterOptions{Project: "stress"})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(matches) != records/4 {
		t.Errorf("project filter matched %d, want %d", len(matches), records/4)
	}
	t.Logf("filtered %d records in %v", records, time.Since(start))

	all, err := log.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	stats := history.Summarize(all)
	if stats.Total != records || stats.Completed != records {
		t.Errorf("stats %+v, want %d total completed", stats, records)
	}

	start = time.Now()
	removed, err := log.Prune(history.RetentionPolicy{
		KeepMinSessions: 500,
		KeepMinAge:      time.Hour,
	}, time.Now())
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	t.Logf("pruned %d records in %v", removed, time.Since(start))

	left, err := log.List()
	if err != nil {
		t.Fatalf("list after prune: %v", err)
	}
	if len(left) < 500 {
		t.Errorf("prune kept %d records, want at least 500", len(left))
	}
}

// startStressDaemon runs an in-process daemon and returns its data dir.
func startStressDaemon(t *testing.T) string {
	t.Helper()
	dataDir, err := os.MkdirTemp("", "pomd-data-")
	if err != nil {
		t.Fatal(err)
	}
	cfgDir, err := os.MkdirTemp("", "pomd-cfg-")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dataDir)
		os.RemoveAll(cfgDir)
	})

	srv, err := server.New(server.Options{
		DataDir:      dataDir,
		ConfigDir:    cfgDir,
		Version:      "stress",
		TickInterval: 50 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		srv.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(10 * time.Second):
			t.Error("daemon did not stop")
		}
	})

	socket := paths.Socket(dataDir)
	deadline := time.Now().Add(5 * time.Second)
	for !liveness.SocketAccepts(socket, 100*time.Millisecond) {
		if time.Now().After(deadline) {
			t.Fatal("daemon socket never came up")
		}
		time.Sleep(10 * time.Millisecond)
	}
	return dataDir
}
