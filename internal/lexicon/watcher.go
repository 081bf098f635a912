package lexicon

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"atsscore/internal/errors"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a lexicon override file when it changes on disk and hands
// the freshly parsed lexicon to a callback. A file that fails to parse is
// logged and ignored; the previous lexicon stays in use.
type Watcher struct {
	mu sync.Mutex

	path        string
	lastModTime time.Time

	fsWatcher     *fsnotify.Watcher
	debounceDelay time.Duration
	debounceTimer *time.Timer

	stopChan   chan struct{}
	reloadChan chan struct{}

	onReload func(*Lexicon)
	logger   *errors.Logger

	running bool
}

// NewWatcher creates a watcher for path. onReload runs on the watcher goroutine.
func NewWatcher(path string, debounceDelay time.Duration, onReload func(*Lexicon), logger *errors.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("lexicon watcher needs a file path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve lexicon path '%s': %w", path, err)
	}
	if debounceDelay == 0 {
		debounceDelay = 500 * time.Millisecond
	}

	return &Watcher{
		path:          absPath,
		debounceDelay: debounceDelay,
		stopChan:      make(chan struct{}),
		reloadChan:    make(chan struct{}, 1),
		onReload:      onReload,
		logger:        logger,
	}, nil
}

// Start begins watching. The directory is watched as well so that editors
// which replace the file with a rename are picked up.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("lexicon watcher is already running")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("failed to watch directory of %s: %w", w.path, err)
	}
	w.fsWatcher = watcher

	if stat, err := os.Stat(w.path); err == nil {
		w.lastModTime = stat.ModTime()
	}

	w.running = true
	go w.watchLoop()

	if w.logger != nil {
		w.logger.Info("Lexicon file watcher started",
			"file", w.path,
			"debounce_delay", w.debounceDelay)
	}
	return nil
}

// Stop ends the watch loop. Calling Stop on a stopped watcher is a no-op.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}
	close(w.stopChan)
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.running = false

	if err := w.fsWatcher.Close(); err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Failed to close lexicon file watcher")
		}
		return err
	}
	if w.logger != nil {
		w.logger.Info("Lexicon file watcher stopped")
	}
	return nil
}

// IsRunning reports whether the watch loop is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *Watcher) watchLoop() {
	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if w.isRelevant(event) {
				w.scheduleReload()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.LogError(err, "Lexicon file watcher error")
			}

		case <-w.reloadChan:
			if w.hasChanged() {
				w.reload()
			}

		case <-w.stopChan:
			return
		}
	}
}

func (w *Watcher) isRelevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

func (w *Watcher) hasChanged() bool {
	stat, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	if !stat.ModTime().Equal(w.lastModTime) {
		w.lastModTime = stat.ModTime()
		return true
	}
	return false
}

func (w *Watcher) reload() {
	lex, err := Load(w.path)
	if err != nil {
		if w.logger != nil {
			w.logger.LogError(err, "Lexicon reload failed, keeping previous lexicon", "file", w.path)
		}
		return
	}
	if w.logger != nil {
		w.logger.Info("Lexicon reloaded", "file", w.path)
	}
	w.onReload(lex)
}

func (w *Watcher) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounceDelay, func() {
		select {
		case w.reloadChan <- struct{}{}:
		default:
		}
	})
}
