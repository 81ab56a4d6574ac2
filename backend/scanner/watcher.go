package scanner

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Watcher rescans the media root on a fixed interval so new uploads show up
// without an operator-triggered scan. Ticks that land while a scan is still
// running are skipped, not queued.
type Watcher struct {
	reconciler *Reconciler
	root       string
	interval   time.Duration
	logger     *log.Logger
	scheduler  *gocron.Scheduler
}

func NewWatcher(reconciler *Reconciler, root string, interval time.Duration, logger *log.Logger) *Watcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Watcher{
		reconciler: reconciler,
		root:       root,
		interval:   interval,
		logger:     logger,
	}
}

// Start schedules the periodic rescan. A zero interval disables the watcher.
func (w *Watcher) Start() error {
	if w.interval <= 0 {
		w.logger.Println("watcher: disabled (no interval configured)")
		return nil
	}

	w.scheduler = gocron.NewScheduler(time.UTC)
	_, err := w.scheduler.Every(w.interval).Do(w.tick)
	if err != nil {
		return err
	}
	w.scheduler.StartAsync()
	w.logger.Printf("watcher: rescanning %s every %s", w.root, w.interval)
	return nil
}

func (w *Watcher) Stop() {
	if w.scheduler != nil {
		w.scheduler.Stop()
	}
}

func (w *Watcher) tick() {
	_, err := w.reconciler.Scan(context.Background(), w.root, false)
	if errors.Is(err, ErrScanInProgress) {
		w.logger.Println("watcher: previous scan still running, skipping tick")
		return
	}
	if err != nil {
		w.logger.Printf("watcher: scheduled scan failed: %v", err)
	}
}
