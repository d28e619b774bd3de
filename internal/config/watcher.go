package config

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"rtimcp/pkg/logging"
)

const (
	// DefaultDebounceInterval is the time to wait after the last change
	// before reloading.
	DefaultDebounceInterval = 500 * time.Millisecond

	// DefaultPollInterval is the polling interval used when fsnotify is
	// unavailable.
	DefaultPollInterval = 5 * time.Second
)

// WatcherConfig holds configuration for the config file watcher.
type WatcherConfig struct {
	// Path is the YAML file to watch.
	Path string

	// PollInterval is the fallback polling interval.
	PollInterval time.Duration

	// Debounce delays the reload after the last detected change.
	Debounce time.Duration

	// OnChange receives every configuration that loads and validates.
	OnChange func(Config)
}

// Watcher reloads the configuration file when it changes. It watches the
// parent directory, so atomic replacements such as mounted ConfigMaps are
// seen, and falls back to polling when fsnotify is unavailable.
type Watcher struct {
	mu sync.Mutex

	config WatcherConfig

	fsWatcher *fsnotify.Watcher
	stopCh    chan struct{}
	running   bool

	lastModTime time.Time

	debounceTimer *time.Timer
	debounceMu    sync.Mutex
}

// NewWatcher creates a watcher for the file in config.Path.
func NewWatcher(config WatcherConfig) *Watcher {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.Debounce <= 0 {
		config.Debounce = DefaultDebounceInterval
	}
	return &Watcher{config: config}
}

// Start begins watching. It is a no-op when already running.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.stopCh = make(chan struct{})
	w.running = true

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logging.Warn("Config", "fsnotify not available, falling back to polling: %v", err)
		go w.pollForChanges()
		return nil
	}

	dir := filepath.Dir(w.config.Path)
	if err := watcher.Add(dir); err != nil {
		logging.Warn("Config", "Failed to watch directory %s, falling back to polling: %v", dir, err)
		watcher.Close()
		go w.pollForChanges()
		return nil
	}
	w.fsWatcher = watcher

	// Capture channels before releasing lock to avoid races with Stop.
	go w.processEvents(watcher.Events, watcher.Errors)

	logging.Info("Config", "Watching %s for changes", w.config.Path)
	return nil
}

func (w *Watcher) processEvents(eventsCh <-chan fsnotify.Event, errorsCh <-chan error) {
	for {
		select {
		case <-w.stopCh:
			return

		case event, ok := <-eventsCh:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-errorsCh:
			if !ok {
				return
			}
			logging.Error("Config", err, "fsnotify error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(w.config.Path) {
		return
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}
	logging.Debug("Config", "Config file changed: %s (%s)", event.Name, event.Op)
	w.triggerReloadDebounced()
}

// triggerReloadDebounced coalesces the burst of events editors produce for
// a single save.
func (w *Watcher) triggerReloadDebounced() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.config.Debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	cfg, err := Load(w.config.Path)
	if err != nil {
		logging.Error("Config", err, "Reload of %s failed, keeping current configuration", w.config.Path)
		return
	}
	if err := cfg.Validate(); err != nil {
		logging.Error("Config", err, "Reloaded configuration is invalid, keeping current configuration")
		return
	}

	logging.Info("Config", "Reloaded configuration from %s", w.config.Path)
	if w.config.OnChange != nil {
		w.config.OnChange(cfg)
	}
}

func (w *Watcher) pollForChanges() {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.lastModTime = w.modTime()

	for {
		select {
		case <-w.stopCh:
			return

		case <-ticker.C:
			current := w.modTime()
			if current.After(w.lastModTime) {
				logging.Debug("Config", "Config file change detected via polling")
				w.lastModTime = current
				w.triggerReloadDebounced()
			}
		}
	}
}

func (w *Watcher) modTime() time.Time {
	info, err := os.Stat(w.config.Path)
	if err != nil {
		return time.Time{}
	}
	return info.ModTime()
}

// Stop stops the watcher and cancels a pending reload.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return nil
	}

	w.running = false
	close(w.stopCh)

	w.debounceMu.Lock()
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
		w.debounceTimer = nil
	}
	w.debounceMu.Unlock()

	if w.fsWatcher != nil {
		if err := w.fsWatcher.Close(); err != nil {
			logging.Warn("Config", "Error closing fsnotify watcher: %v", err)
		}
		w.fsWatcher = nil
	}

	logging.Info("Config", "Stopped config watcher")
	return nil
}

// IsRunning reports whether the watcher is active.
func (w *Watcher) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
