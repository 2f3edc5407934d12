package workers

import (
	"context"
	"log/slog"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/errors"
	"sync"
	"time"
)

var (
	_ contract.Worker        = (*FillNotifierWorker)(nil)
	_ contract.IFillNotifier = (*FillNotifierWorker)(nil)
)

// FillNotifierWorker decouples the fill-winning join from the notification
// fan-out. Notify only enqueues; Run dispatches each event in its own
// goroutine so one slow room never holds back another.
//
// Events live in the queue until Run picks them, so a supervisor restart
// loses nothing that was accepted. On shutdown the queue is drained within
// drainTimeout.
type FillNotifierWorker struct {
	dispatcher   contract.IFillDispatcher
	fills        chan domain.FillEvent
	stopped      chan struct{}
	stopOnce     sync.Once
	mu           sync.RWMutex // held for reading while Notify sends
	inFlight     sync.WaitGroup
	drainTimeout time.Duration
	log          *slog.Logger
	onReport     func(domain.DispatchReport)
}

func NewFillNotifierWorker(
	dispatcher contract.IFillDispatcher,
	queueSize int,
	drainTimeout time.Duration,
	log *slog.Logger) *FillNotifierWorker {
	return &FillNotifierWorker{
		dispatcher:   dispatcher,
		fills:        make(chan domain.FillEvent, queueSize),
		stopped:      make(chan struct{}),
		drainTimeout: drainTimeout,
		log:          log,
	}
}

// OnReport registers a callback receiving every dispatch report.
func (w *FillNotifierWorker) OnReport(fn func(domain.DispatchReport)) *FillNotifierWorker {
	w.onReport = fn
	return w
}

// Notify hands the event over. It blocks only while the queue is full and
// fails once the worker has stopped.
func (w *FillNotifierWorker) Notify(ctx context.Context, event domain.FillEvent) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	select {
	case <-w.stopped:
		return errors.ErrDispatcherStopped
	default:
	}
	select {
	case w.fills <- event:
		return nil
	case <-w.stopped:
		return errors.ErrDispatcherStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *FillNotifierWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, draining fill notifications")
			w.drain()
			return nil
		case evt := <-w.fills:
			w.dispatch(evt)
		}
	}
}

func (w *FillNotifierWorker) dispatch(evt domain.FillEvent) {
	w.inFlight.Add(1)
	go func() {
		defer w.inFlight.Done()
		defer func() {
			if r := recover(); r != nil {
				w.log.Error("Fill dispatch panicked", "room_id", evt.RoomID, "panic", r)
			}
		}()
		// Accepted events are delivered even while the worker is stopping;
		// each attempt is bounded by the dispatcher timeout.
		report := w.dispatcher.NotifyFill(context.Background(), evt)
		if w.onReport != nil {
			w.onReport(report)
		}
	}()
}

// drain refuses new events, dispatches what is still queued and waits for
// in-flight dispatches, all bounded by drainTimeout.
func (w *FillNotifierWorker) drain() {
	w.stopOnce.Do(func() { close(w.stopped) })
	// Wait for pending Notify calls so nothing lands in the queue after it is emptied
	w.mu.Lock()
	defer w.mu.Unlock()

	for drained := false; !drained; {
		select {
		case evt := <-w.fills:
			w.dispatch(evt)
		default:
			drained = true
		}
	}

	done := make(chan struct{})
	go func() {
		w.inFlight.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(w.drainTimeout):
		w.log.Warn("Drain timeout reached, fill notifications still in flight")
	}
}
