// Package worker sweeps payments that were interrupted mid-processing.
// An authorization that dies between the processing write and the
// terminal write (process crash, deploy) would otherwise stay
// "processing" forever.
package worker

import (
	"context"
	"log"
	"time"

	"paygate/internal/models"
	"paygate/internal/services"
)

type PaymentSweepStore interface {
	FindProcessingBefore(ctx context.Context, before time.Time, limit int) ([]*models.Payment, error)
	FinalizePayment(ctx context.Context, payment *models.Payment) error
}

type Reconciler struct {
	Store    PaymentSweepStore
	Interval time.Duration
	// MaxAge is how long a payment may legitimately sit in processing;
	// anything older is considered interrupted. Must exceed the
	// simulator's maximum delay.
	MaxAge time.Duration
	Limit  int

	// A swept payment is a status transition like any other: a client
	// streaming it and the event bus both hear about it.
	Feed   services.StatusNotifier
	Events services.EventPublisher
}

func (r *Reconciler) Run(ctx context.Context) {
	interval := r.Interval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("reconciler started (max age %v)", r.MaxAge)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.sweep(ctx); err != nil {
				log.Printf("reconcile sweep failed: %v", err)
			}
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) error {
	limit := r.Limit
	if limit <= 0 {
		limit = 100
	}
	cutoff := time.Now().UTC().Add(-r.MaxAge)
	stuck, err := r.Store.FindProcessingBefore(ctx, cutoff, limit)
	if err != nil {
		return err
	}

	for _, p := range stuck {
		code := "PAYMENT_FAILED"
		desc := "Payment interrupted during processing"
		p.Status = models.PaymentFailed
		p.ErrorCode = &code
		p.ErrorDescription = &desc
		if err := r.Store.FinalizePayment(ctx, p); err != nil {
			log.Printf("reconcile: finalize %s failed: %v", p.ID, err)
			continue
		}
		if r.Feed != nil {
			r.Feed.PaymentUpdated(p)
		}
		if r.Events != nil {
			if err := r.Events.PaymentStatusChanged(ctx, p); err != nil {
				log.Printf("reconcile: publish %s failed: %v", p.ID, err)
			}
		}
		log.Printf("reconcile: failed stuck payment %s (order %s)", p.ID, p.OrderID)
	}
	return nil
}
