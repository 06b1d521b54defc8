// Package watch reports changes to templates and variable files so a
// preview can be re-rendered.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arthur-debert/slack-send/pkg/errors"
	"github.com/arthur-debert/slack-send/pkg/logging"
)

// DefaultDelay is how long the watcher waits for a burst of events to settle.
const DefaultDelay = 150 * time.Millisecond

// Event is a single changed path after debouncing.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Handler receives each debounced batch, one Event per path, sorted by path.
// A returned error is logged and watching continues.
type Handler func(events []Event) error

// Watcher watches template directories and individual files.
type Watcher struct {
	fsw   *fsnotify.Watcher
	delay time.Duration

	mu    sync.RWMutex
	dirs  map[string]bool
	files map[string]bool
}

// New creates a Watcher. A delay <= 0 means DefaultDelay.
func New(delay time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "failed to create file watcher")
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{
		fsw:   fsw,
		delay: delay,
		dirs:  make(map[string]bool),
		files: make(map[string]bool),
	}, nil
}

// AddDir watches every file under dir, including subdirectories created
// later.
func (w *Watcher) AddDir(dir string) error {
	root, err := filepath.Abs(dir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid watch directory %s", dir)
	}

	w.mu.Lock()
	w.dirs[root] = true
	w.mu.Unlock()

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return errors.FileNotFound(path, err)
			}
			return errors.Wrapf(err, errors.ErrFileAccess, "cannot watch %s", path)
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.add(path)
	})
}

// AddFile watches a single file. Its parent directory is watched so the
// file is still seen after editors replace it.
func (w *Watcher) AddFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid watch path %s", path)
	}
	if _, err := os.Stat(abs); err != nil {
		if os.IsNotExist(err) {
			return errors.FileNotFound(abs, err)
		}
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot watch %s", abs)
	}

	w.mu.Lock()
	w.files[abs] = true
	w.mu.Unlock()

	return w.add(filepath.Dir(abs))
}

func (w *Watcher) add(dir string) error {
	if err := w.fsw.Add(dir); err != nil {
		return errors.Wrapf(err, errors.ErrFileAccess, "cannot watch %s", dir)
	}
	return nil
}

// Run dispatches debounced batches to handler until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context, handler Handler) error {
	logger := logging.GetLogger("watch")

	pending := make(map[string]fsnotify.Op)
	timer := time.NewTimer(w.delay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.track(event)
			if !w.matches(event.Name) {
				continue
			}
			logger.Trace().Str("path", event.Name).Str("op", event.Op.String()).Msg("file event")
			pending[event.Name] |= event.Op
			timer.Reset(w.delay)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("file watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			batch := flush(pending)
			pending = make(map[string]fsnotify.Op)
			if err := handler(batch); err != nil {
				logger.Error().Err(err).Msg("watch handler failed")
			}
		}
	}
}

// Close releases the underlying watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// track starts watching directories created inside a watched tree.
func (w *Watcher) track(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) || !w.inDir(event.Name) {
		return
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.add(event.Name); err != nil {
		logger := logging.GetLogger("watch")
		logger.Debug().Err(err).Str("path", event.Name).Msg("cannot watch new directory")
	}
}

func (w *Watcher) matches(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.files[path] {
		return true
	}
	return w.inDirLocked(path)
}

func (w *Watcher) inDir(path string) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.inDirLocked(path)
}

func (w *Watcher) inDirLocked(path string) bool {
	for dir := range w.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func flush(pending map[string]fsnotify.Op) []Event {
	batch := make([]Event, 0, len(pending))
	for path, op := range pending {
		batch = append(batch, Event{Path: path, Op: op})
	}
	sort.Slice(batch, func(i, j int) bool { return batch[i].Path < batch[j].Path })
	return batch
}
