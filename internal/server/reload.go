package server

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/pomd-project/pomd/internal/engine"
	"github.com/pomd-project/pomd/pkg/config"
	"github.com/pomd-project/pomd/pkg/metrics"
)

// reloadFromDisk re-reads config.yaml and sequences.toml and applies
// both: cadence settings to the engine, hooks to the notifier, status
// writer rebuilt. It returns the engine events the settings change
// produced; the caller persists and broadcasts them so response ordering
// stays intact. On error nothing is applied.
//
// The logging level is applied at startup only; a reload does not change
// it.
func (s *Server) reloadFromDisk() ([]engine.Event, error) {
	cfg, err := config.Load(s.opts.ConfigDir)
	if err != nil {
		return nil, err
	}
	sequences, err := config.LoadSequences(s.opts.ConfigDir)
	if err != nil {
		return nil, err
	}

	s.cfg = cfg
	s.sequences = sequences
	s.notifier.SetHooks(cfg.Hooks)
	s.statusW = newStatusWriter(cfg, s.opts.DataDir)
	s.reg.Inc(metrics.ConfigReloads)
	return s.eng.ApplySettings(settingsFromConfig(cfg)), nil
}

// watchConfig requests a reload when config.yaml or sequences.toml change
// on disk. Best effort: without a watcher the daemon still reloads via
// the update-config command.
func (s *Server) watchConfig(ctx context.Context) *fsnotify.Watcher {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		s.log.Warn("config watcher unavailable", map[string]any{"error": err.Error()})
		return nil
	}
	if err := watcher.Add(s.opts.ConfigDir); err != nil {
		s.log.Warn("config watcher unavailable", map[string]any{"error": err.Error()})
		_ = watcher.Close()
		return nil
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !watchedFile(ev.Name) {
					continue
				}
				// Editors replace files via rename as often as they
				// write in place.
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				select {
				case s.reloadCh <- struct{}{}:
				default:
				}
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn("config watcher error", map[string]any{"error": werr.Error()})
			}
		}
	}()
	return watcher
}

func watchedFile(name string) bool {
	base := filepath.Base(name)
	return base == config.FileName || base == config.SequencesFileName
}
