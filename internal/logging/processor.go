package logging

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"vision-webapi/internal/repositories"
)

const pruneTimeout = 30 * time.Second

// LogProcessor periodically removes app_logs entries older than the retention window.
type LogProcessor struct {
	logRepo   repositories.LogRepository
	logger    *zap.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time

	mu       sync.Mutex
	stopChan chan struct{}
	done     chan struct{}
}

// NewLogProcessor creates a LogProcessor. A zero retention disables pruning.
func NewLogProcessor(logRepo repositories.LogRepository, retention, interval time.Duration, logger *zap.Logger) *LogProcessor {
	return &LogProcessor{
		logRepo:   logRepo,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins the pruning loop in a separate goroutine.
func (p *LogProcessor) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stopChan != nil {
		p.logger.Warn("Log processor already running")
		return
	}
	if p.retention <= 0 {
		p.logger.Info("Log retention disabled, processor not started")
		return
	}
	p.stopChan = make(chan struct{})
	p.done = make(chan struct{})
	go p.run(p.stopChan, p.done)
	p.logger.Info("SQLite log retention processor started",
		zap.Duration("interval", p.interval),
		zap.Duration("retention", p.retention),
	)
}

// Stop signals the pruning loop to terminate and waits for it to exit.
func (p *LogProcessor) Stop() {
	p.mu.Lock()
	stop, done := p.stopChan, p.done
	p.stopChan, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		p.logger.Debug("Log processor not running")
		return
	}
	close(stop)
	<-done
	p.logger.Info("Log processor stopped.")
}

func (p *LogProcessor) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
			p.PruneOnce(ctx)
			cancel()
		case <-stop:
			return
		}
	}
}

// PruneOnce deletes every entry older than the retention window and returns the count removed.
func (p *LogProcessor) PruneOnce(ctx context.Context) int64 {
	cutoff := p.now().UTC().Add(-p.retention)
	n, err := p.logRepo.DeleteBefore(ctx, cutoff)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			p.logger.Info("Log pruning interrupted", zap.Error(err))
		} else {
			p.logger.Error("Failed to prune SQLite logs", zap.Error(err))
		}
		return 0
	}
	if n > 0 {
		p.logger.Info("Pruned SQLite log entries", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n
}
