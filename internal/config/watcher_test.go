package config

import (
	"os"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWatcher_Defaults(t *testing.T) {
	w := NewWatcher(WatcherConfig{Path: "/tmp/config.yaml"})
	assert.Equal(t, DefaultPollInterval, w.config.PollInterval)
	assert.Equal(t, DefaultDebounceInterval, w.config.Debounce)
}

func TestWatcher_StartStop(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\n")
	w := NewWatcher(WatcherConfig{Path: path})

	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())
	require.NoError(t, w.Start(), "second start is a no-op")

	require.NoError(t, w.Stop())
	assert.False(t, w.IsRunning())
	require.NoError(t, w.Stop(), "second stop is a no-op")
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := writeConfig(t, "kusto:\n  allowUnknownServices: true\n")

	var (
		mu     sync.Mutex
		loaded []Config
	)
	w := NewWatcher(WatcherConfig{
		Path:         path,
		Debounce:     20 * time.Millisecond,
		PollInterval: 50 * time.Millisecond,
		OnChange: func(cfg Config) {
			mu.Lock()
			defer mu.Unlock()
			loaded = append(loaded, cfg)
		},
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	content := "kusto:\n  allowUnknownServices: false\n  knownServices:\n    - serviceUri: https://a.kusto.windows.net\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(loaded) > 0
	}, 5*time.Second, 20*time.Millisecond)

	mu.Lock()
	last := loaded[len(loaded)-1]
	mu.Unlock()
	assert.False(t, last.Kusto.AllowUnknownServices)
	require.Len(t, last.Kusto.KnownServices, 1)
	assert.Equal(t, "https://a.kusto.windows.net", last.Kusto.KnownServices[0].URI)
}

func TestWatcher_InvalidReloadIsSkipped(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 3000\n")

	called := make(chan struct{}, 1)
	w := NewWatcher(WatcherConfig{
		Path:     path,
		Debounce: 10 * time.Millisecond,
		OnChange: func(Config) { called <- struct{}{} },
	})
	require.NoError(t, w.Start())
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("server:\n  transport: sse\n"), 0600))
	w.reload()

	select {
	case <-called:
		t.Fatal("invalid configuration must not be delivered")
	default:
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	w := NewWatcher(WatcherConfig{Path: "/etc/rtimcp/config.yaml"})
	w.handleEvent(fsEvent("/etc/rtimcp/other.yaml"))

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	assert.Nil(t, w.debounceTimer)
}

func fsEvent(name string) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: fsnotify.Write}
}
