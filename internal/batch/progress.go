package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Progress receives notifications while a batch runs. Implementations must
// be safe for concurrent use.
type Progress interface {
	OnStart(total int)
	OnProgress(current, total int)
	OnComplete()
	OnError(index int, err error)
}

// NoOpProgress discards every notification.
type NoOpProgress struct{}

func (NoOpProgress) OnStart(int)         {}
func (NoOpProgress) OnProgress(int, int) {}
func (NoOpProgress) OnComplete()         {}
func (NoOpProgress) OnError(int, error)  {}

// LogProgress reports progress through slog every Interval items.
type LogProgress struct {
	logger   *slog.Logger
	level    slog.Level
	prefix   string
	interval int

	mu      sync.Mutex
	lastLog int
	start   time.Time
}

// NewLogProgress creates a log-based progress reporter. A nil logger uses
// slog.Default().
func NewLogProgress(logger *slog.Logger, level slog.Level, prefix string) *LogProgress {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogProgress{logger: logger, level: level, prefix: prefix, interval: 10}
}

// WithInterval sets how often progress is logged (every n items).
func (l *LogProgress) WithInterval(n int) *LogProgress {
	l.interval = max(1, n)
	return l
}

func (l *LogProgress) OnStart(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.start = time.Now()
	l.lastLog = 0
	l.logger.Log(context.Background(), l.level, l.prefix+"starting", "total", total)
}

func (l *LogProgress) OnProgress(current, total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if current-l.lastLog < l.interval && current != total {
		return
	}
	l.lastLog = current
	elapsed := time.Since(l.start)
	l.logger.Log(context.Background(), l.level, l.prefix+"progress",
		"current", current,
		"total", total,
		"percent", fmt.Sprintf("%.1f", float64(current)/float64(total)*100),
		"elapsed", elapsed.Round(time.Millisecond),
	)
}

func (l *LogProgress) OnComplete() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.Log(context.Background(), l.level, l.prefix+"completed", "elapsed", time.Since(l.start).Round(time.Millisecond))
}

func (l *LogProgress) OnError(index int, err error) {
	l.logger.Log(context.Background(), slog.LevelError, l.prefix+"page failed", "page", index, "error", err)
}
