package journal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"swapPilot/internal/observability"
)

// DefaultInterval is the time between two scheduled flushes.
const DefaultInterval = 24 * time.Hour

const shutdownFlushTimeout = 10 * time.Second

// FlusherConfig controls where and how often summaries are written.
type FlusherConfig struct {
	Dir      string
	Interval time.Duration
}

// Flusher periodically moves the buffer into a dated summary file.
type Flusher struct {
	cfg    FlusherConfig
	buffer *Buffer
	state  StateStore
	logger *zap.Logger
	now    func() time.Time
}

// NewFlusher builds a flusher. state may be nil, in which case the first
// flush happens one interval after start.
func NewFlusher(cfg FlusherConfig, buffer *Buffer, state StateStore, logger *zap.Logger) (*Flusher, error) {
	if buffer == nil {
		return nil, errors.New("flusher requires a buffer")
	}
	if cfg.Interval == 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval < 0 {
		return nil, fmt.Errorf("flush interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Dir == "" {
		cfg.Dir = "."
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Flusher{cfg: cfg, buffer: buffer, state: state, logger: logger, now: time.Now}, nil
}

// FileName returns the summary file name for the UTC day of t.
func FileName(t time.Time) string {
	return t.UTC().Format("2006-01-02") + "_transaction_summary.txt"
}

// Flush writes every pending entry to today's summary file and clears the
// buffer. Entries are put back if the write fails. An empty buffer writes no
// file and returns an empty path.
func (f *Flusher) Flush(ctx context.Context) (string, error) {
	entries := f.buffer.Drain()
	at := f.now()
	path := filepath.Join(f.cfg.Dir, FileName(at))
	if len(entries) == 0 {
		observability.RecordFlush(0, nil)
		f.saveState(ctx, at)
		return "", nil
	}

	if err := appendEntries(path, entries); err != nil {
		f.buffer.Restore(entries)
		observability.RecordFlush(len(entries), err)
		return "", err
	}
	observability.RecordFlush(len(entries), nil)

	f.saveState(ctx, at)
	f.logger.Info("summary flushed", zap.String("path", path), zap.Int("entries", len(entries)))
	return path, nil
}

// saveState records the flush time so the cadence survives restarts.
func (f *Flusher) saveState(ctx context.Context, at time.Time) {
	if f.state == nil {
		return
	}
	if err := f.state.Save(ctx, uint64(at.Unix())); err != nil {
		f.logger.Warn("flush state save failed", zap.Error(err))
	}
}

// Run flushes on schedule until ctx is cancelled, then flushes once more.
func (f *Flusher) Run(ctx context.Context) error {
	timer := time.NewTimer(f.initialDelay(ctx))
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownFlushTimeout)
			_, err := f.Flush(flushCtx)
			cancel()
			if err != nil {
				f.logger.Error("shutdown flush failed", zap.Error(err))
				return fmt.Errorf("shutdown flush: %w", err)
			}
			return nil
		case <-timer.C:
			if _, err := f.Flush(ctx); err != nil {
				f.logger.Error("summary flush failed", zap.Error(err))
			}
			timer.Reset(f.cfg.Interval)
		}
	}
}

// initialDelay keeps the cadence across restarts using the stored last flush.
func (f *Flusher) initialDelay(ctx context.Context) time.Duration {
	if f.state == nil {
		return f.cfg.Interval
	}
	last, ok, err := f.state.Load(ctx)
	if err != nil {
		f.logger.Warn("flush state load failed", zap.Error(err))
		return f.cfg.Interval
	}
	if !ok {
		return f.cfg.Interval
	}
	next := time.Unix(int64(last), 0).Add(f.cfg.Interval)
	delay := next.Sub(f.now())
	if delay < 0 {
		return 0
	}
	if delay > f.cfg.Interval {
		return f.cfg.Interval
	}
	return delay
}

func appendEntries(path string, entries []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create summary dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open summary file: %w", err)
	}
	for _, entry := range entries {
		if _, err := file.WriteString(entry); err != nil {
			file.Close()
			return fmt.Errorf("write summary file: %w", err)
		}
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close summary file: %w", err)
	}
	return nil
}
