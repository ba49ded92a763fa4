// Package flightrecorder keeps the last moments of execution in memory and dumps them to disk when a request
// misbehaves.
package flightrecorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/trace"
	"sync"
	"time"
)

const (
	defaultMinAge   = 5 * time.Minute
	defaultMaxBytes = 64 * 1024 * 1024
	defaultCooldown = 30 * time.Minute
)

// Config tunes a Recorder. Zero durations and sizes use the defaults.
type Config struct {
	// Directory receives the trace files. It is created when missing.
	Directory string
	// MinAge is how far back the in-memory window reaches.
	MinAge   time.Duration
	MaxBytes uint64
	// Cooldown is the minimum time between two captures.
	Cooldown time.Duration
}

// Recorder wraps a [trace.FlightRecorder] with rate limited captures.
type Recorder struct {
	logger   *slog.Logger
	fr       *trace.FlightRecorder
	dir      string
	cooldown time.Duration
	now      func() time.Time

	mu          sync.Mutex
	lastCapture time.Time
}

// New creates a stopped Recorder.
func New(logger *slog.Logger, cfg Config) (*Recorder, error) {
	if cfg.Directory == "" {
		return nil, errors.New("traces directory is required")
	}
	if err := os.MkdirAll(cfg.Directory, 0o750); err != nil { //nolint:mnd // owner and group only.
		return nil, fmt.Errorf("create traces directory: %w", err)
	}
	minAge := orDefault(cfg.MinAge, defaultMinAge)
	maxBytes := cfg.MaxBytes
	if maxBytes == 0 {
		maxBytes = defaultMaxBytes
	}
	return &Recorder{
		logger:      logger,
		fr:          trace.NewFlightRecorder(trace.FlightRecorderConfig{MinAge: minAge, MaxBytes: maxBytes}),
		dir:         cfg.Directory,
		cooldown:    orDefault(cfg.Cooldown, defaultCooldown),
		now:         time.Now,
		mu:          sync.Mutex{},
		lastCapture: time.Time{},
	}, nil
}

func orDefault(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}

// Start begins recording. Only one flight recorder can run per process.
func (r *Recorder) Start(ctx context.Context) error {
	if err := r.fr.Start(); err != nil {
		return fmt.Errorf("start flight recorder: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder started",
		slog.String("directory", r.dir), slog.Duration("cooldown", r.cooldown))
	return nil
}

// Stop ends recording.
func (r *Recorder) Stop(ctx context.Context) {
	r.fr.Stop()
	r.logger.LogAttrs(ctx, slog.LevelInfo, "flight recorder stopped")
}

// Capture writes the recorded window to "<reason>-<timestamp>.trace" and returns the file path. Nothing is
// written while the previous capture is younger than the cooldown.
func (r *Recorder) Capture(ctx context.Context, reason string) (string, bool) {
	now := r.now()
	r.mu.Lock()
	if !r.lastCapture.IsZero() && now.Sub(r.lastCapture) < r.cooldown {
		r.mu.Unlock()
		r.logger.LogAttrs(ctx, slog.LevelDebug, "skipping trace capture during cooldown",
			slog.Time("last_capture", r.lastCapture))
		return "", false
	}
	r.lastCapture = now
	r.mu.Unlock()

	path := filepath.Join(r.dir, fmt.Sprintf("%s-%s.trace", reason, now.UTC().Format("20060102-150405")))
	if err := r.writeTrace(path); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to capture trace",
			slog.String("file", path), slog.Any("error", err))
		return "", false
	}
	r.logger.LogAttrs(ctx, slog.LevelWarn, "captured trace", slog.String("file", path))
	return path, true
}

func (r *Recorder) writeTrace(path string) (err error) {
	file, err := os.Create(path) //nolint:gosec // the path is built from configuration.
	if err != nil {
		return fmt.Errorf("create trace file: %w", err)
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close trace file: %w", closeErr))
		}
	}()
	if _, err = r.fr.WriteTo(file); err != nil {
		return fmt.Errorf("write trace: %w", err)
	}
	return nil
}
