package status

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/mmcdole/cftpd/pkg/logging"
)

// MetricsProvider defines the interface for collecting runtime metrics
type MetricsProvider interface {
	GetActiveConnections() int32
	GetStartTime() time.Time
}

// AuthStats reports authentication outcome counters
type AuthStats interface {
	Successes() int64
	Failures() int64
	Errors() int64
}

// Writer manages status files for daemon health monitoring:
// last_start, running (refreshed by the heartbeat) and last_stop.
type Writer struct {
	fs             afero.Fs
	dir            string
	updateInterval time.Duration
	pid            int
	version        string
	provider       string

	metricsProvider MetricsProvider
	authStats       AuthStats

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new status Writer on the OS filesystem
func New(dir string, updateInterval time.Duration, version string) (*Writer, error) {
	return NewWithFs(afero.NewOsFs(), dir, updateInterval, version)
}

// NewWithFs creates a status Writer on fs
func NewWithFs(fs afero.Fs, dir string, updateInterval time.Duration, version string) (*Writer, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create status directory: %w", err)
	}
	if updateInterval <= 0 {
		return nil, fmt.Errorf("status update interval must be positive, got %s", updateInterval)
	}

	return &Writer{
		fs:             fs,
		dir:            dir,
		updateInterval: updateInterval,
		pid:            os.Getpid(),
		version:        version,
		stopCh:         make(chan struct{}),
	}, nil
}

// SetMetricsProvider sets the provider for runtime metrics
func (w *Writer) SetMetricsProvider(provider MetricsProvider) {
	w.metricsProvider = provider
}

// SetAuthStats sets the source of authentication counters
func (w *Writer) SetAuthStats(stats AuthStats) {
	w.authStats = stats
}

// SetProvider records the authentication provider identifier reported in last_start
func (w *Writer) SetProvider(identifier string) {
	w.provider = identifier
}

// WriteStartFile writes the last_start file with startup information
func (w *Writer) WriteStartFile() error {
	now := time.Now()
	content := formatFields(
		"timestamp_unix", now.Unix(),
		"timestamp_human", now.Format("Mon Jan 02 15:04:05 2006"),
		"pid", w.pid,
		"version", w.version,
		"auth_provider", w.provider,
	)

	if err := w.atomicWrite("last_start", content); err != nil {
		return fmt.Errorf("failed to write last_start: %w", err)
	}

	logging.App.Info("Wrote status file", "file", "last_start")
	return nil
}

// WriteStopFile writes the last_stop file with shutdown information
func (w *Writer) WriteStopFile(reason string, uptime time.Duration) error {
	now := time.Now()
	content := formatFields(
		"timestamp_unix", now.Unix(),
		"timestamp_human", now.Format("Mon Jan 02 15:04:05 2006"),
		"reason", reason,
		"uptime_seconds", int64(uptime.Seconds()),
	)

	if err := w.atomicWrite("last_stop", content); err != nil {
		return fmt.Errorf("failed to write last_stop: %w", err)
	}

	logging.App.Info("Wrote status file", "file", "last_stop", "reason", reason)
	return nil
}

// StartHeartbeat starts a goroutine that periodically updates the running file
func (w *Writer) StartHeartbeat() {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		ticker := time.NewTicker(w.updateInterval)
		defer ticker.Stop()

		// Write immediately on start
		if err := w.writeRunningFile(); err != nil {
			logging.App.Error("Failed to write running file", "error", err)
		}

		for {
			select {
			case <-ticker.C:
				if err := w.writeRunningFile(); err != nil {
					logging.App.Error("Failed to write running file", "error", err)
				}
			case <-w.stopCh:
				return
			}
		}
	}()

	logging.App.Info("Started status heartbeat", "interval", w.updateInterval)
}

// Stop stops the heartbeat goroutine. It is safe to call more than once.
func (w *Writer) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		logging.App.Info("Stopped status heartbeat")
	})
}

// Shutdown stops the heartbeat, refreshes running one last time and writes last_stop
func (w *Writer) Shutdown(reason string) error {
	w.Stop()

	if err := w.writeRunningFile(); err != nil {
		logging.App.Error("Failed to write running file", "error", err)
	}

	var uptime time.Duration
	if w.metricsProvider != nil {
		if start := w.metricsProvider.GetStartTime(); !start.IsZero() {
			uptime = time.Since(start)
		}
	}
	return w.WriteStopFile(reason, uptime)
}

// writeRunningFile writes the current runtime status to the running file
func (w *Writer) writeRunningFile() error {
	now := time.Now()

	var startTime time.Time
	var activeConnections int32
	if w.metricsProvider != nil {
		startTime = w.metricsProvider.GetStartTime()
		activeConnections = w.metricsProvider.GetActiveConnections()
	}

	uptime := int64(0)
	if !startTime.IsZero() {
		uptime = int64(now.Sub(startTime).Seconds())
	}

	var successes, failures, errors int64
	if w.authStats != nil {
		successes = w.authStats.Successes()
		failures = w.authStats.Failures()
		errors = w.authStats.Errors()
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	content := formatFields(
		"timestamp_unix", now.Unix(),
		"uptime_seconds", uptime,
		"active_connections", activeConnections,
		"auth_successes", successes,
		"auth_failures", failures,
		"auth_errors", errors,
		"memory_alloc_mb", memStats.Alloc/1024/1024,
		"memory_sys_mb", memStats.Sys/1024/1024,
		"goroutines", runtime.NumGoroutine(),
		"gc_cpu_fraction", fmt.Sprintf("%.6f", memStats.GCCPUFraction),
	)

	if err := w.atomicWrite("running", content); err != nil {
		return fmt.Errorf("failed to write running: %w", err)
	}

	logging.App.Debug("Updated running file", "active_connections", activeConnections, "auth_failures", failures)
	return nil
}

// formatFields renders "key: value" lines from alternating arguments
func formatFields(kv ...interface{}) []byte {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, "%v: %v\n", kv[i], kv[i+1])
	}
	return []byte(b.String())
}

// atomicWrite writes content to a temp file and renames it over name,
// so readers never see a partial write.
func (w *Writer) atomicWrite(name string, content []byte) error {
	path := filepath.Join(w.dir, name)
	tmpPath := path + ".tmp"

	if err := afero.WriteFile(w.fs, tmpPath, content, 0644); err != nil {
		return err
	}
	if err := w.fs.Rename(tmpPath, path); err != nil {
		_ = w.fs.Remove(tmpPath)
		return err
	}
	return nil
}
