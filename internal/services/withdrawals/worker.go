package withdrawals

import (
	"context"
	"log/slog"
	"time"
)

// Worker polls for due pending withdrawals and settles them.
type Worker struct {
	svc      *Service
	interval time.Duration
}

func NewWorker(svc *Service, interval time.Duration) *Worker {
	return &Worker{svc: svc, interval: interval}
}

// Start launches the polling loop. The returned stop function cancels the
// loop and waits for an in-flight pass to finish.
func (w *Worker) Start(ctx context.Context) func() {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := w.svc.SettleDue(ctx)
				if err != nil {
					slog.Error("withdrawal settlement pass failed", "error", err, "settled", n)
					continue
				}

				if n > 0 {
					slog.Info("withdrawal settlement pass finished", "settled", n)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
