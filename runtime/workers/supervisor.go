package workers

import (
	"context"
	"fmt"
	"log/slog"
	"room-lab/contract"
	"room-lab/errors"
	"sync"
	"time"
)

var _ contract.ISupervisor = (*Supervisor)(nil)

// Supervisor keeps the background workers of the engine alive.
// A worker returning nil is done for good. A worker returning an error or
// panicking is started again after restartInterval, until the supervised
// context ends.
type Supervisor struct {
	log             *slog.Logger
	restartInterval time.Duration
	workers         []contract.Worker
	wg              sync.WaitGroup

	mu       sync.Mutex
	cancel   context.CancelFunc
	stopped  bool
	restarts map[string]int
}

func NewSupervisor(log *slog.Logger, restartInterval time.Duration) *Supervisor {
	return &Supervisor{log: log, restartInterval: restartInterval, restarts: make(map[string]int)}
}

func (s *Supervisor) Add(worker ...contract.Worker) contract.ISupervisor {
	s.workers = append(s.workers, worker...)
	return s
}

// Run starts the added workers and returns once all of them are done.
// Canceling ctx or calling Stop ends them.
func (s *Supervisor) Run(ctx context.Context) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	cancel := s.cancel
	s.mu.Unlock()
	defer cancel()

	for _, worker := range s.workers {
		s.Start(ctx, worker)
	}
	s.wg.Wait()
}

// Start supervises one worker on its own goroutine. Run waits for it too.
func (s *Supervisor) Start(ctx context.Context, worker contract.Worker) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.supervise(ctx, worker)
	}()
}

// Stop cancels every supervised worker. Run called after Stop returns at once.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.cancel != nil {
		s.cancel()
	}
}

// Restarts reports how many times the named worker was started again.
func (s *Supervisor) Restarts(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.restarts[name]
}

func (s *Supervisor) supervise(ctx context.Context, worker contract.Worker) {
	name := contract.GetWorkerName(worker)
	log := s.log.With("worker", name)

	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			log.Info("Worker not started, supervisor stopping")
			return
		}
		if attempt > 0 {
			s.countRestart(name)
			log.Info("Worker restarted", "attempt", attempt)
		}

		err := runOnce(ctx, worker)
		switch {
		case err == nil:
			log.Info("Worker done")
			return
		case ctx.Err() != nil:
			log.Info("Worker stopped", "cause", context.Cause(ctx))
			return
		}

		log.Warn("Worker failed", "attempt", attempt, "retry_in", s.restartInterval, "error", err)
		timer := time.NewTimer(s.restartInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (s *Supervisor) countRestart(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.restarts[name]++
}

// runOnce turns a panic in worker.Run into an ErrWorkerPanic error.
func runOnce(ctx context.Context, worker contract.Worker) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", errors.ErrWorkerPanic, r)
		}
	}()
	return worker.Run(ctx)
}
