// Package server runs the pomd daemon: one goroutine owns the engine and
// serializes every mutation, ticking it once per second and applying
// client commands from a channel. Persistence and broadcasts happen after
// each in-memory commit, so clients always observe a committed state.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pomd-project/pomd/internal/engine"
	"github.com/pomd-project/pomd/internal/history"
	"github.com/pomd-project/pomd/internal/liveness"
	"github.com/pomd-project/pomd/internal/notify"
	"github.com/pomd-project/pomd/internal/paths"
	"github.com/pomd-project/pomd/internal/protocol"
	"github.com/pomd-project/pomd/internal/snapshot"
	"github.com/pomd-project/pomd/internal/statusfile"
	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/pomd-project/pomd/pkg/metrics"
	"github.com/pomd-project/pomd/pkg/model"
)

// Options configures a daemon instance.
type Options struct {
	DataDir   string
	ConfigDir string
	// Version is reported in ping responses.
	Version string
	// TickInterval shortens the 1s cadence for tests. Each tick still
	// advances the engine by one logical second.
	TickInterval time.Duration
	// Recorder overrides where finished sessions go. Nil selects the
	// JSONL history log in the data directory.
	Recorder history.Recorder
}

// Server is the pomd daemon. Construct with New, drive with Run.
type Server struct {
	opts       Options
	socketPath string

	cfg       *config.Config
	sequences map[string]model.Sequence
	eng       *engine.Engine
	store     *snapshot.Store
	hist      *history.Log
	recorder  history.Recorder
	statusW   *statusfile.Writer
	notifier  *notify.Notifier
	check     *liveness.Check
	reg       *metrics.Registry
	log       *logging.Logger

	ln        net.Listener
	cancel    context.CancelFunc
	commandCh chan request
	connCh    chan *connection
	removeCh  chan *connection
	reloadCh  chan struct{}
	conns     map[*connection]struct{}
	nextConn  atomic.Int64

	pid       int
	startedAt time.Time
}

// New loads configuration and the last snapshot and assembles a daemon.
// An unusable snapshot is logged and replaced with a fresh engine; an
// unusable config file is an error, since starting with silently wrong
// durations would be worse than not starting.
func New(opts Options) (*Server, error) {
	if opts.DataDir == "" || opts.ConfigDir == "" {
		return nil, fmt.Errorf("server: data and config directories required")
	}
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	if err := paths.EnsureLayout(opts.DataDir, opts.ConfigDir); err != nil {
		return nil, err
	}

	cfg, err := config.Load(opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	sequences, err := config.LoadSequences(opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(map[string]any{"component": "daemon"})
	store := snapshot.NewStore(paths.Snapshot(opts.DataDir))
	settings := settingsFromConfig(cfg)
	hist := history.NewLog(paths.History(opts.DataDir))
	recorder := history.Recorder(hist)
	if opts.Recorder != nil {
		recorder = opts.Recorder
	}

	eng := engine.New(settings)
	if saved, err := store.Load(); err != nil {
		log.Warn("snapshot unusable, starting fresh", map[string]any{"error": err.Error()})
	} else if saved != nil {
		restored, err := engine.Restore(settings, *saved)
		if err != nil {
			log.Warn("snapshot state rejected, starting fresh", map[string]any{"error": err.Error()})
		} else {
			eng = restored
		}
	}

	return &Server{
		opts:       opts,
		socketPath: paths.Socket(opts.DataDir),
		cfg:        cfg,
		sequences:  sequences,
		eng:        eng,
		store:      store,
		hist:       hist,
		recorder:   recorder,
		statusW:    newStatusWriter(cfg, opts.DataDir),
		notifier:   notify.New(cfg.Hooks),
		check:      liveness.New(paths.PIDFile(opts.DataDir), paths.Socket(opts.DataDir)),
		reg:        metrics.NewRegistry(),
		log:        log,
		commandCh:  make(chan request, 64),
		connCh:     make(chan *connection, 8),
		removeCh:   make(chan *connection, 16),
		reloadCh:   make(chan struct{}, 1),
		conns:      make(map[*connection]struct{}),
	}, nil
}

// Run claims the pid file, listens on the unix socket and serves until
// ctx is cancelled or a shutdown command arrives. On return the pid and
// socket files are removed and the final state is snapshotted.
func (s *Server) Run(ctx context.Context) error {
	defer s.notifier.Close()

	pid, err := s.check.Acquire()
	if err != nil {
		return err
	}
	s.pid = pid
	s.startedAt = time.Now()
	defer s.check.Release()

	ln, err := listenDaemon(s.opts.DataDir, s.socketPath)
	if err != nil {
		return errclass.ErrSocketUnavailable.WithMessagef("listen %s: %v", s.socketPath, err)
	}
	s.ln = ln

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.cancel = cancel

	if removed, err := s.hist.Prune(s.retention(), time.Now()); err != nil {
		s.log.Warn("history prune failed", map[string]any{"error": err.Error()})
	} else if removed > 0 {
		s.log.Info("history pruned", map[string]any{"removed": removed})
	}

	// Snapshot and status reflect reality before the first client connects.
	s.persist(s.eng.State())

	watcher := s.watchConfig(runCtx)
	if watcher != nil {
		defer watcher.Close()
	}

	var accepting sync.WaitGroup
	accepting.Add(1)
	go func() {
		defer accepting.Done()
		s.acceptLoop(runCtx)
	}()

	s.log.Info("daemon listening", map[string]any{
		"socket":  s.socketPath,
		"pid":     pid,
		"version": s.opts.Version,
	})

	s.mutate(runCtx)

	_ = ln.Close()
	removeListenerFiles(s.opts.DataDir)
	accepting.Wait()
	s.closeConns()
	if err := s.store.Save(s.eng.State()); err != nil {
		s.log.ErrorErr("final snapshot", err)
	}
	s.log.Info("daemon stopped")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		netConn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
			default:
				s.log.ErrorErr("accept", err)
			}
			return
		}
		c := newConnection(s.nextConn.Add(1), netConn)
		select {
		case s.connCh <- c:
		case <-ctx.Done():
			_ = netConn.Close()
			return
		}
		go c.writeLoop()
		go c.readLoop(ctx, s)
	}
}

// mutate is the single mutator goroutine. Every engine transition in the
// process happens here; nothing else touches the engine or the conns map.
func (s *Server) mutate(ctx context.Context) {
	ticker := time.NewTicker(s.opts.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-s.connCh:
			s.conns[c] = struct{}{}
			s.reg.Inc(metrics.ConnsAccepted)
			s.log.Debug("connection opened", map[string]any{"conn": c.id, "open": len(s.conns)})
		case c := <-s.removeCh:
			s.forget(c)
		case req := <-s.commandCh:
			s.handle(req)
		case <-ticker.C:
			s.tick()
		case <-s.reloadCh:
			prev := s.eng.State()
			events, err := s.reloadFromDisk()
			if err != nil {
				s.log.ErrorErr("config reload failed, keeping previous config", err)
				continue
			}
			s.finish(prev, s.eng.State(), events)
			s.log.Info("config reloaded")
		}
	}
}

func (s *Server) tick() {
	s.reg.Inc(metrics.TicksDelivered)
	prev := s.eng.State()
	events := s.eng.Tick()
	post := s.eng.State()
	s.finish(prev, post, events)
	if line, ok := s.stateLine(protocol.EventTick, post); ok {
		s.broadcast([][]byte{line})
	}
}

// forget removes a connection that went away on its own.
func (s *Server) forget(c *connection) {
	if _, ok := s.conns[c]; !ok {
		return
	}
	delete(s.conns, c)
	c.stop()
	s.log.Debug("connection closed", map[string]any{"conn": c.id, "open": len(s.conns)})
}

// drop resets a connection the daemon no longer wants, discarding its
// queued lines.
func (s *Server) drop(c *connection, reason string) {
	delete(s.conns, c)
	c.abort()
	s.reg.Inc(metrics.ConnsDropped)
	s.log.Warn("dropping connection", map[string]any{"conn": c.id, "reason": reason})
}

func (s *Server) closeConns() {
	for c := range s.conns {
		c.stop()
	}
	s.conns = make(map[*connection]struct{})
}

func (s *Server) persist(state model.EngineFullState) {
	if err := s.store.Save(state); err != nil {
		s.log.ErrorErr("save snapshot", err)
	} else {
		s.reg.Inc(metrics.SnapshotSaves)
	}
	if s.statusW == nil {
		return
	}
	if err := s.statusW.Write(state); err != nil {
		s.log.ErrorErr("write status file", err)
	}
}

func (s *Server) retention() history.RetentionPolicy {
	age, _ := s.cfg.History.MinAge()
	return history.RetentionPolicy{
		KeepMinSessions: s.cfg.History.KeepMinSessions,
		KeepMinAge:      age,
	}
}

func settingsFromConfig(cfg *config.Config) engine.Settings {
	return engine.Settings{
		WorkSeconds:       cfg.Timer.WorkMinutes * 60,
		ShortBreakSeconds: cfg.Timer.ShortBreakMinutes * 60,
		LongBreakSeconds:  cfg.Timer.LongBreakMinutes * 60,
		LongBreakInterval: cfg.Timer.LongBreakInterval,
		StrictMode:        cfg.Timer.StrictMode,
		AutostartWork:     cfg.Timer.AutostartWork,
		AutostartBreaks:   cfg.Timer.AutostartBreaks,
	}
}

func newStatusWriter(cfg *config.Config, dataDir string) *statusfile.Writer {
	if !cfg.Status.Enabled {
		return nil
	}
	interval, _ := cfg.Status.MinInterval()
	signaler := statusfile.NewSignaler(cfg.Status.SignalCommand, interval)
	return statusfile.NewWriter(paths.Status(dataDir), signaler)
}
