package dashboard

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watch reloads the table whenever the CSV is created, written, renamed or
// removed. The parent directory is watched because the CSV is replaced by
// rename. While that directory does not exist yet, its nearest existing
// ancestor is watched instead and the watch moves down as directories
// appear. It blocks until ctx is done.
func (s *Server) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Dir(s.opts.CSVPath)
	watched, err := watchNearest(watcher, target, "")
	if err != nil {
		return err
	}
	if watched != target {
		s.logger.Info("waiting for output directory", "dir", target, "watching", watched)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name := filepath.Clean(event.Name)
			if watched != target && event.Has(fsnotify.Create) && onPathTo(name, target) {
				if watched, err = watchNearest(watcher, target, watched); err != nil {
					return err
				}
				if watched == target {
					s.logger.Info("output directory ready", "dir", target)
					_ = s.Reload()
				}
				continue
			}
			if name != s.opts.CSVPath {
				continue
			}
			if event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				s.logger.Debug("result table changed", "op", event.Op.String())
				_ = s.Reload()
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", "error", err)
		}
	}
}

// watchNearest watches the deepest existing directory on the way to target
// and drops the previous watch. It repeats until no deeper directory has
// appeared meanwhile, so directories created between the check and Add are
// not missed.
func watchNearest(w *fsnotify.Watcher, target, previous string) (string, error) {
	for {
		dir := nearestDir(target)
		if dir != previous {
			if err := w.Add(dir); err != nil {
				return "", fmt.Errorf("watching %s: %w", dir, err)
			}
			if previous != "" {
				_ = w.Remove(previous)
			}
		}
		if dir == target || nearestDir(target) == dir {
			return dir, nil
		}
		previous = dir
	}
}

func nearestDir(path string) string {
	for {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}

// onPathTo reports whether dir is target or one of its ancestors.
func onPathTo(dir, target string) bool {
	rel, err := filepath.Rel(dir, target)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
