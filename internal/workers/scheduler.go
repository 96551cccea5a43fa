package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockpulse/pkg/errors"
	"stockpulse/pkg/logger"
)

const defaultStopTimeout = 2 * time.Minute

// Scheduler manages and coordinates multiple workers
type Scheduler struct {
	workers     []Worker
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	mu          sync.RWMutex
	log         *logger.Logger
	started     bool
	stopTimeout time.Duration
}

// NewScheduler creates a new worker scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		workers:     make([]Worker, 0),
		log:         logger.Get().With("component", "scheduler"),
		stopTimeout: defaultStopTimeout,
	}
}

// RegisterWorker adds a worker to the scheduler
func (s *Scheduler) RegisterWorker(w Worker) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		s.log.Warnw("Cannot register worker after scheduler has started", "worker", w.Name())
		return
	}

	s.workers = append(s.workers, w)
	s.log.Infow("Worker registered", "worker", w.Name(), "interval", w.Interval(), "enabled", w.Enabled())
}

// Start begins running all registered workers
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler already started")
	}

	s.started = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	workers := append([]Worker(nil), s.workers...)
	s.mu.Unlock()

	s.log.Infow("Starting worker scheduler", "workers", len(workers))

	for _, worker := range workers {
		if !worker.Enabled() {
			s.log.Infow("Skipping disabled worker", "worker", worker.Name())
			continue
		}

		s.wg.Add(1)
		go s.runWorker(worker)
	}

	return nil
}

// Stop cancels all workers and waits for in-flight runs to finish
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return errors.Wrapf(errors.ErrInternal, "scheduler not started")
	}
	s.cancel()
	s.mu.Unlock()

	s.log.Info("Stopping worker scheduler...")

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		s.log.Info("All workers stopped gracefully")
	case <-time.After(s.stopTimeout):
		s.log.Warnw("Worker shutdown timed out", "timeout", s.stopTimeout)
		shutdownErr = errors.Wrapf(errors.ErrTimeout, "worker shutdown after %s", s.stopTimeout)
	}

	s.mu.Lock()
	s.started = false
	s.mu.Unlock()

	return shutdownErr
}

// runWorker executes a single worker in a loop
func (s *Scheduler) runWorker(worker Worker) {
	defer s.wg.Done()

	ticker := time.NewTicker(worker.Interval())
	defer ticker.Stop()

	// Run immediately on start
	s.executeWorker(worker)

	for {
		select {
		case <-s.ctx.Done():
			s.log.Infow("Worker stopping due to context cancellation", "worker", worker.Name())
			return

		case <-ticker.C:
			s.executeWorker(worker)
		}
	}
}

// executeWorker runs one iteration, converting a panic into a recorded error
func (s *Scheduler) executeWorker(worker Worker) {
	start := time.Now()
	var err error

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker panicked: %v", r)
			s.log.Errorw("Worker panicked", "worker", worker.Name(), "panic", r)
		}

		duration := time.Since(start)
		if hw, ok := worker.(WorkerWithHealth); ok {
			if err != nil {
				hw.RecordError(err, duration)
			} else {
				hw.RecordRun(duration)
			}
		}
	}()

	err = worker.Run(s.ctx)
	if err != nil {
		s.log.Errorw("Worker execution failed",
			"worker", worker.Name(),
			"error", err,
			"duration", time.Since(start),
		)
		return
	}
	s.log.Debugw("Worker execution completed",
		"worker", worker.Name(),
		"duration", time.Since(start),
	)
}

// GetWorkers returns a list of all registered workers
func (s *Scheduler) GetWorkers() []Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()

	workers := make([]Worker, len(s.workers))
	copy(workers, s.workers)
	return workers
}

// Health reports per-worker health for workers that track it
func (s *Scheduler) Health() map[string]WorkerHealth {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]WorkerHealth, len(s.workers))
	for _, w := range s.workers {
		if hw, ok := w.(WorkerWithHealth); ok {
			out[w.Name()] = hw.Health()
		}
	}
	return out
}

// IsRunning returns whether the scheduler is currently running
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
