package main

import (
	"log/slog"
	"time"
)

type apiConfig struct {
	Port            uint16        `env:"API_PORT" envDefault:"8080"`
	Postgres        string        `env:"PG_DSN"`
	LogLevel        slog.Level    `env:"APP_LOG_LEVEL" envDefault:"INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// SettlementDelay is how long a withdrawal stays pending before the
	// worker is allowed to settle it.
	SettlementDelay time.Duration `env:"WITHDRAWAL_SETTLEMENT_DELAY" envDefault:"5s"`
	PollInterval    time.Duration `env:"SETTLEMENT_POLL_INTERVAL" envDefault:"1s"`
}
