package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch re-reads the session file when another process changes it and
// re-checks authentication. It blocks until ctx is done.
func (s *Session) Watch(ctx context.Context) error {
	if s.config.Store == nil {
		return fmt.Errorf("session watch requires a store")
	}

	path := s.config.Store.Path()
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// The file is replaced by rename, so watch the directory.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	s.logger.Debug().Str("path", path).Msg("Watching session file")

	var debounce *time.Timer
	var fire <-chan time.Time
	defer func() {
		if debounce != nil {
			debounce.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if debounce == nil {
				debounce = time.NewTimer(s.config.Debounce)
			} else {
				if !debounce.Stop() {
					select {
					case <-debounce.C:
					default:
					}
				}
				debounce.Reset(s.config.Debounce)
			}
			fire = debounce.C

		case <-fire:
			fire = nil
			if !s.config.Store.changedExternally() {
				continue
			}
			s.logger.Info().Str("path", path).Msg("Session file changed, re-checking auth")
			if err := s.Restore(); err != nil {
				s.logger.Warn().Err(err).Msg("Failed to restore session")
			}
			s.CheckAuth(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("Session watcher error")
		}
	}
}
