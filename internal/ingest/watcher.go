package ingest

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/finsage/internal/extract"
)

// settleDelay is how long a file must stay quiet before it is ingested, so
// that a file still being written is not picked up half way.
const settleDelay = 300 * time.Millisecond

// Callback receives the result of each watcher-driven ingestion.
type Callback func(FileResult)

// Watch ingests supported files created or written in Dir until ctx is
// cancelled. A rewritten file replaces the document stored under its name.
// cb may be nil.
func (s *Scanner) Watch(ctx context.Context, cb Callback) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.Dir); err != nil {
		return err
	}
	s.Logger.Info("watcher: started", slog.String("dir", s.Dir))

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settleDelay / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Logger.Info("watcher: stopped")
			return nil

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settleDelay {
					continue
				}
				delete(pending, path)
				if info, statErr := os.Stat(path); statErr != nil || !info.Mode().IsRegular() {
					continue
				}
				res := s.RefreshFile(ctx, path)
				s.Logger.Debug("watcher: ingested",
					slog.String("file", res.Name),
					slog.String("outcome", res.Outcome))
				if cb != nil {
					cb(res)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !extract.IsSupported(ev.Name) || filepath.Dir(ev.Name) != filepath.Clean(s.Dir) {
				continue
			}
			pending[ev.Name] = time.Now()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.Logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
