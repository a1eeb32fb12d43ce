package hotreload

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/ternarybob/arbor"
	"golang.org/x/time/rate"

	"github.com/Derthenier/Akhanda-sub004/internal/common"
	"github.com/Derthenier/Akhanda-sub004/internal/interfaces"
)

// Watcher polls watched files on a fixed interval and raises change
// notifications. Unreadable files are silently dropped from that poll (a
// save in progress often stats as missing for a tick); notifications are
// rate limited so an editor writing in bursts does not trigger a recompile
// storm.
type Watcher struct {
	tracker  *Tracker
	handler  interfaces.ReloadHandler
	interval time.Duration
	limiter  *rate.Limiter
	logger   arbor.ILogger
	// pollLog runs on the hot path every tick; phuslu's zero-allocation
	// logger keeps the poll loop cheap when trace is enabled.
	pollLog log.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup

	startOnce sync.Once
	stopOnce  sync.Once
}

// NewWatcher creates a watcher over the tracker's watch set.
func NewWatcher(tracker *Tracker, handler interfaces.ReloadHandler, config common.HotReloadConfig, logger arbor.ILogger) *Watcher {
	perSecond := config.NotifyPerSecond
	if perSecond <= 0 {
		perSecond = 4
	}
	burst := config.NotifyBurst
	if burst <= 0 {
		burst = 8
	}
	return &Watcher{
		tracker:  tracker,
		handler:  handler,
		interval: config.Interval(),
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:   logger,
		pollLog: log.Logger{
			Level:  log.WarnLevel,
			Writer: &log.ConsoleWriter{},
		},
	}
}

// Start launches the poll loop. Safe to call once; further calls are no-ops.
func (w *Watcher) Start() {
	w.startOnce.Do(func() {
		ctx, cancel := context.WithCancel(context.Background())
		w.cancel = cancel
		w.wg.Add(1)
		go w.loop(ctx)
		w.logger.Info().
			Str("interval", w.interval.String()).
			Msg("Hot reload watcher started")
	})
}

// Stop terminates the poll loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel != nil {
			w.cancel()
			w.wg.Wait()
		}
		w.logger.Info().Msg("Hot reload watcher stopped")
	})
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error().Str("panic", fmt.Sprintf("%v", r)).Msg("Hot reload watcher panicked")
		}
	}()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *Watcher) poll() {
	for path, lastMtime := range w.tracker.snapshot() {
		info, err := os.Stat(path)
		if err != nil {
			// transient; the file stays watched for the next tick
			continue
		}
		mtime := info.ModTime()
		if !mtime.After(lastMtime) {
			continue
		}
		if !w.limiter.Allow() {
			// baseline not advanced; the change fires on a later tick
			w.pollLog.Warn().Str("path", path).Msg("change notification rate limited")
			continue
		}
		if !w.tracker.advance(path, mtime) {
			continue
		}

		w.logger.Debug().Str("path", path).Msg("Watched file changed")
		w.handler.OnShaderChanged(path)
		if dependents := w.tracker.Dependents(path); len(dependents) > 0 {
			w.handler.OnShaderDependencyChanged(path, dependents)
		}
	}
}
