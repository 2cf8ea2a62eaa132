package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Runner executes one synchronization pass.
type Runner func(ctx context.Context) error

// DefaultDebounce is how long the watcher waits after the last file event
// before triggering a run. Editors often emit bursts of writes for a single
// save.
const DefaultDebounce = 500 * time.Millisecond

// Watcher re-runs a pipeline whenever files under the watched directories
// change.
type Watcher struct {
	dirs     []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher over dirs. Missing directories are skipped at
// start but picked up if created later inside a watched parent.
func New(dirs []string, logger *slog.Logger) *Watcher {
	return &Watcher{dirs: dirs, debounce: DefaultDebounce, logger: logger}
}

// Run performs one initial pass, then blocks watching for changes until
// ctx is cancelled. Runner errors are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, run Runner) error {
	if err := run(ctx); err != nil {
		w.logger.Error("watch: initial run failed", slog.String("error", err.Error()))
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	for _, dir := range w.dirs {
		if _, statErr := os.Stat(dir); statErr != nil {
			w.logger.Warn("watch: skipping missing dir", slog.String("path", dir))
			continue
		}
		if addErr := addDirsRecursive(fw, dir); addErr != nil {
			return addErr
		}
	}

	w.logger.Info("watch: started", slog.Int("dirs", len(w.dirs)))

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C
		} else {
			timer.Reset(w.debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			w.logger.Info("watch: stopped")
			return nil

		case <-timerCh:
			if runErr := run(ctx); runErr != nil {
				w.logger.Error("watch: run failed", slog.String("error", runErr.Error()))
			}

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(fw, ev.Name); addErr != nil {
						w.logger.Warn("watch: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					schedule()
					continue
				}
			}
			if !relevantFile(ev.Name) {
				continue
			}
			w.logger.Debug("watch: change", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
			schedule()

		case watchErr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch: error", slog.String("error", watchErr.Error()))
		}
	}
}

// relevantFile reports whether a change to path should trigger a run.
// Markdown notes and embeddable images count, editor temp files do not.
func relevantFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".mdx", ".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tiff", ".webp":
		return true
	}
	return false
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
