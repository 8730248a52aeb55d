package draws

import (
	"context"
	"log/slog"
	"time"
)

// Worker polls for ticket batches that reached their draw date.
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
				n, err := w.svc.SettleDueDraws(ctx)
				if err != nil {
					slog.Error("draw settlement pass failed", "error", err, "tickets", n)
					continue
				}

				if n > 0 {
					slog.Info("draw settlement pass finished", "tickets", n)
				}
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
