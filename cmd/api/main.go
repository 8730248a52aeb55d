package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"spinbank/internal/api"
	"spinbank/internal/infra/logging"
	"spinbank/internal/infra/pgutils"
	"spinbank/internal/notify"
	pggames "spinbank/internal/repos/games/postgres"
	"spinbank/internal/services/draws"
	"spinbank/internal/services/prize"
	"spinbank/internal/services/tickets"
	"spinbank/internal/services/wallet"
	"spinbank/internal/services/withdrawals"
	"spinbank/pkg/envconf"
	"spinbank/pkg/shutdownqueue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error running api: %v", err)
		//nolint:gocritic
		os.Exit(1)
	}
}

func run(ctx context.Context) (retErr error) {
	_ = godotenv.Load() // optional .env for local runs

	cfg := new(apiConfig)

	err := envconf.Load(cfg)
	if err != nil {
		return fmt.Errorf("init config: %w", err)
	}

	logging.SetupJSON(cfg.LogLevel)

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		serr := shutdownqueue.Shutdown(shutdownCtx)
		if serr != nil {
			retErr = errors.Join(retErr, serr)
		}
	}()

	// --- Infra ---
	dbConns, err := pgutils.OpenDB(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}

	notifier := notify.LogNotifier{}

	// --- Services ---
	walletSvc := wallet.New(dbConns)
	withdrawalsSvc := withdrawals.New(dbConns, notifier, cfg.SettlementDelay)
	ticketsSvc := tickets.New(dbConns)
	prizeSvc := prize.New(dbConns)
	drawsSvc := draws.New(dbConns)
	gamesRepo := pggames.New(dbConns)

	// --- Background workers ---
	stopWithdrawals := withdrawals.NewWorker(withdrawalsSvc, cfg.PollInterval).Start(ctx)
	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Stop withdrawal worker")
		stopWithdrawals()

		return nil
	})

	stopDraws := draws.NewWorker(drawsSvc, cfg.PollInterval).Start(ctx)
	shutdownqueue.Add(func(context.Context) error {
		slog.Info("Stop draw worker")
		stopDraws()

		return nil
	})

	// --- HTTP server ---
	handler := api.NewHandler(walletSvc, withdrawalsSvc, ticketsSvc, prizeSvc, gamesRepo)
	srv := api.NewServer(cfg.Port, handler)

	shutdownqueue.Add(func(c context.Context) error {
		slog.Info("Shut down server")

		err := srv.Shutdown(c)
		if err != nil {
			return fmt.Errorf("shutdown srv: %w", err)
		}

		return nil
	})

	errCh := make(chan error, 1)

	go func() {
		serr := srv.ListenAndServe()
		// http.ErrServerClosed is the normal path during Shutdown
		if serr != nil && !errors.Is(serr, http.ErrServerClosed) {
			errCh <- serr
			return
		}

		errCh <- nil
	}()

	slog.Info("API started", "port", cfg.Port)

	select {
	case <-ctx.Done():
		// graceful path; deferred shutdownqueue.Shutdown will run
		return nil
	case serr := <-errCh:
		if serr != nil {
			return fmt.Errorf("server error: %w", serr)
		}

		return nil
	}
}
