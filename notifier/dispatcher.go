package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"room-lab/contract"
	"room-lab/domain"
	"room-lab/errors"
	"time"

	"github.com/sourcegraph/conc/pool"
)

var _ contract.IFillDispatcher = (*Dispatcher)(nil)

type Config struct {
	// Timeout bounds one delivery attempt.
	Timeout time.Duration
	// Retries is the number of extra attempts after a failed one.
	Retries    int
	RetryDelay time.Duration
	// Concurrency caps simultaneous deliveries of a single fill.
	Concurrency int
}

// Dispatcher fans the roster of a filled room out to each participant.
// Deliveries are independent: a slow or unreachable address never delays
// the others beyond the global concurrency cap.
type Dispatcher struct {
	deliverer IDeliverer
	config    Config
	log       *slog.Logger
}

func NewDispatcher(deliverer IDeliverer, config Config, log *slog.Logger) *Dispatcher {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	return &Dispatcher{deliverer: deliverer, config: config, log: log}
}

// NotifyFill blocks until every address has either been delivered or failed.
// The report keeps roster order.
func (d *Dispatcher) NotifyFill(ctx context.Context, event domain.FillEvent) domain.DispatchReport {
	notification := NewFillNotification(event)
	deliveries := make([]domain.Delivery, len(event.Roster))

	p := pool.New().WithMaxGoroutines(d.config.Concurrency)
	for i, participant := range event.Roster {
		p.Go(func() {
			deliveries[i] = d.deliver(ctx, participant, notification)
		})
	}
	p.Wait()

	report := domain.DispatchReport{RoomID: event.RoomID, Deliveries: deliveries}
	for _, delivery := range deliveries {
		if delivery.Status == domain.Failed {
			d.log.Warn("Fill notification not delivered",
				"room_id", event.RoomID,
				"username", delivery.Username,
				"address", delivery.Address,
				"attempts", delivery.Attempts,
				"error", delivery.Err)
		}
	}
	d.log.Info("Fill notification dispatched",
		"room_id", event.RoomID,
		"delivered", report.Delivered(),
		"failed", report.Failed())
	return report
}

func (d *Dispatcher) deliver(ctx context.Context, participant domain.Participant, notification FillNotification) domain.Delivery {
	delivery := domain.Delivery{Username: participant.Username(), Address: participant.Address}
	var lastErr error
	for attempt := 0; attempt <= d.config.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return failed(delivery, ctx.Err())
			case <-time.After(d.config.RetryDelay):
			}
		}
		delivery.Attempts++
		if lastErr = d.attempt(ctx, participant.Address, notification); lastErr == nil {
			delivery.Status = domain.Delivered
			return delivery
		}
		d.log.Debug("Delivery attempt failed",
			"address", participant.Address, "attempt", delivery.Attempts, "error", lastErr)
	}
	return failed(delivery, lastErr)
}

func (d *Dispatcher) attempt(ctx context.Context, address domain.Address, notification FillNotification) error {
	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}
	return d.deliverer.Deliver(ctx, address, notification)
}

func failed(delivery domain.Delivery, cause error) domain.Delivery {
	delivery.Status = domain.Failed
	delivery.Err = fmt.Errorf("%w: %v", errors.ErrDispatchFailure, cause)
	return delivery
}
