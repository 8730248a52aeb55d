package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter constructs the API router with all endpoints registered.
func NewRouter(h *HandlerProvider) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/games", h.ListGamesHandler)

	r.Route("/user/{userId}", func(r chi.Router) {
		r.Get("/balance", h.GetBalanceHandler)
		r.Get("/transactions", h.ListTransactionsHandler)
		r.Post("/deposit", h.DepositHandler)
		r.Post("/withdraw", h.WithdrawHandler)
		r.Post("/tickets", h.PurchaseTicketsHandler)
		r.Post("/games/{gameId}/spin", h.SpinHandler)
	})

	return r
}
