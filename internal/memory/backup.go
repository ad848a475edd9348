package memory

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const backupDirName = "backups"

// BackupFile copies a memory file into the user's backup directory if it
// has grown. Shrinks are never propagated; a large shrink is logged so the
// old copy can be recovered by hand.
func (s *Store) BackupFile(username, filename string) {
	src := filepath.Join(s.UserDir(username), filename)
	content, err := os.ReadFile(src)
	if err != nil {
		return
	}

	backupDir := filepath.Join(s.UserDir(username), backupDirName)
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		s.log.Error().Err(err).Str("user", username).Msg("backup dir create failed")
		return
	}

	backupPath := filepath.Join(backupDir, filename)
	backupSize := 0
	if prev, err := os.ReadFile(backupPath); err == nil {
		backupSize = len(prev)
	}

	switch {
	case len(content) > backupSize:
		if err := os.WriteFile(backupPath, content, 0o644); err != nil {
			s.log.Error().Err(err).Str("user", username).Str("file", filename).Msg("backup write failed")
			return
		}
		s.log.Info().Str("user", username).Str("file", filename).Int("bytes", len(content)).Msg("backup updated")
	case len(content) < backupSize/2:
		s.log.Warn().Str("user", username).Str("file", filename).
			Int("from", backupSize).Int("to", len(content)).
			Msg("memory file shrank, backup preserved")
	}
}

// BackupAll backs up every daily note for the user.
func (s *Store) BackupAll(username string) error {
	dates, err := s.ListDailyDates(username)
	if err != nil {
		return err
	}
	for _, date := range dates {
		s.BackupFile(username, date+".md")
	}
	return nil
}

// Watcher keeps backups current with filesystem events plus a polling
// sweep for the events the watcher misses.
type Watcher struct {
	store    *Store
	interval time.Duration
	stopChan chan struct{}
}

func NewWatcher(store *Store, interval time.Duration) *Watcher {
	return &Watcher{
		store:    store,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (w *Watcher) Start(usernames []string) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.store.log.Error().Err(err).Msg("fsnotify unavailable, polling only")
		fw = nil
	}

	dirToUser := make(map[string]string, len(usernames))
	for _, username := range usernames {
		dir := w.store.UserDir(username)
		if err := os.MkdirAll(filepath.Join(dir, backupDirName), 0o755); err != nil {
			w.store.log.Error().Err(err).Str("user", username).Msg("backup dir create failed")
			continue
		}
		dirToUser[dir] = username
		if fw != nil {
			if err := fw.Add(dir); err != nil {
				w.store.log.Warn().Err(err).Str("user", username).Msg("memory watch failed")
			}
		}
	}

	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		if fw != nil {
			defer fw.Close()
		}

		var events chan fsnotify.Event
		var errs chan error
		if fw != nil {
			events = fw.Events
			errs = fw.Errors
		}

		for {
			select {
			case <-w.stopChan:
				return
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				name := filepath.Base(ev.Name)
				if !dailyFileRegex.MatchString(name) {
					continue
				}
				if username, ok := dirToUser[filepath.Dir(ev.Name)]; ok {
					w.store.BackupFile(username, name)
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				w.store.log.Warn().Err(err).Msg("memory watch error")
			case <-ticker.C:
				for _, username := range dirToUser {
					if err := w.store.BackupAll(username); err != nil {
						w.store.log.Warn().Err(err).Str("user", username).Msg("backup sweep failed")
					}
				}
			}
		}
	}()
}

func (w *Watcher) Stop() {
	close(w.stopChan)
}
