//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"
	"room-lab/domain"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// Used for logging during supervision.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// IFillNotifier schedules the fan-out of a fill event.
// Notify must not perform the delivery itself: it only hands the event over,
// and every accepted event is dispatched exactly once.
type IFillNotifier interface {
	Notify(ctx context.Context, event domain.FillEvent) error
}

// IFillDispatcher delivers the roster of a filled room to every participant.
type IFillDispatcher interface {
	NotifyFill(ctx context.Context, event domain.FillEvent) domain.DispatchReport
}
