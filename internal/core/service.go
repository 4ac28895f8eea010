package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/catalogmerge/internal/metrics"
)

// ErrRunNotFound is returned for run ids that are unknown or no longer in
// the in-memory history.
var ErrRunNotFound = errors.New("run not found")

// DefaultHistorySize is the number of finished runs kept when none is configured.
const DefaultHistorySize = 20

// ServiceConfig wires a Service. Every field is optional.
type ServiceConfig struct {
	// Limiter bounds concurrent runs; nil means unbounded.
	Limiter *RunLimiter

	// Metrics receives run instrumentation; nil disables it.
	Metrics *metrics.Metrics

	// Sinks persist successful runs in order.
	Sinks []Sink

	// HistorySize is the number of finished runs kept in memory.
	HistorySize int

	// Timeout bounds a single run; zero means no timeout.
	Timeout time.Duration
}

// Service runs catalog merges and keeps their history.
type Service struct {
	limiter     *RunLimiter
	metrics     *metrics.Metrics
	sinks       []Sink
	historySize int
	timeout     time.Duration

	mu      sync.RWMutex
	history []*Run // newest first
}

// NewService creates a new Service instance.
func NewService(cfg ServiceConfig) *Service {
	if cfg.HistorySize <= 0 {
		cfg.HistorySize = DefaultHistorySize
	}

	return &Service{
		limiter:     cfg.Limiter,
		metrics:     cfg.Metrics,
		sinks:       cfg.Sinks,
		historySize: cfg.HistorySize,
		timeout:     cfg.Timeout,
	}
}

// Runs returns the finished runs, newest first.
func (s *Service) Runs() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Run, len(s.history))
	copy(out, s.history)
	return out
}

// Run returns the finished run with the given id.
func (s *Service) Run(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.history {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
}

// Latest returns the most recent successful run, or nil if there is none.
func (s *Service) Latest() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.history {
		if r.Succeeded() {
			return r
		}
	}
	return nil
}

// LimiterStatus returns the merge limiter state. The zero status is
// returned when runs are unbounded.
func (s *Service) LimiterStatus() LimiterStatus {
	if s.limiter == nil {
		return LimiterStatus{}
	}
	return s.limiter.Status()
}

// Shutdown waits for running merges to finish or ctx to end.
func (s *Service) Shutdown(ctx context.Context) error {
	if s.limiter == nil {
		return nil
	}
	return s.limiter.WaitForDrain(ctx)
}

// record adds a finished run to the history, dropping the oldest entries
// beyond historySize.
func (s *Service) record(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = append([]*Run{run}, s.history...)
	if len(s.history) > s.historySize {
		clear(s.history[s.historySize:])
		s.history = s.history[:s.historySize]
	}
}
