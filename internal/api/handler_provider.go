package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"spinbank/internal/repos/games"
	ticketrepo "spinbank/internal/repos/tickets"
	"spinbank/internal/repos/transactions"
	"spinbank/internal/repos/users"
	"spinbank/internal/services/prize"
	"spinbank/internal/services/tickets"
	"spinbank/internal/services/wallet"
	"spinbank/internal/services/withdrawals"
)

// HandlerProvider wires the services into HTTP handlers.
type HandlerProvider struct {
	wallet      *wallet.Service
	withdrawals *withdrawals.Service
	tickets     *tickets.Service
	prize       *prize.Service
	games       games.Games
}

// NewHandler returns a new Handler provider.
func NewHandler(
	walletSvc *wallet.Service,
	withdrawalsSvc *withdrawals.Service,
	ticketsSvc *tickets.Service,
	prizeSvc *prize.Service,
	gamesRepo games.Games,
) *HandlerProvider {
	return &HandlerProvider{
		wallet:      walletSvc,
		withdrawals: withdrawalsSvc,
		tickets:     ticketsSvc,
		prize:       prizeSvc,
		games:       gamesRepo,
	}
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to encode JSON response", "error", err)

		http.Error(w, `{"error":"internal json encode failure"}`, http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors to their status codes. Anything
// unmapped is logged and reported as a 500.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, users.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, games.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, users.ErrInsufficientFunds):
		writeError(w, http.StatusConflict, "insufficient funds")
	case errors.Is(err, games.ErrGameNotActive):
		writeError(w, http.StatusConflict, "game is not active")
	case errors.Is(err, transactions.ErrDuplicateTransaction):
		writeError(w, http.StatusConflict, "duplicate transaction id")
	case errors.Is(err, ticketrepo.ErrDuplicateCode):
		writeError(w, http.StatusConflict, "duplicate ticket code")
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrMissingExternalID),
		errors.Is(err, withdrawals.ErrInvalidAmount),
		errors.Is(err, withdrawals.ErrMissingDestination),
		errors.Is(err, tickets.ErrInvalidQuantity),
		errors.Is(err, prize.ErrNotSpinnable),
		errors.Is(err, prize.ErrNoPrizes):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseUserIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "userId")
	if idStr == "" {
		return 0, fmt.Errorf("missing userId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid userId: %w", err)
	}
	if id == 0 {
		return 0, fmt.Errorf("invalid userId: must be positive")
	}

	return id, nil
}

func parseGameIDFromPath(r *http.Request) (uint64, error) {
	idStr := chi.URLParam(r, "gameId")
	if idStr == "" {
		return 0, fmt.Errorf("missing gameId")
	}

	id, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid gameId")
	}

	return id, nil
}

// parseAmount accepts a positive decimal string with at most 2 fractional digits.
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount required")
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount")
	}

	if !d.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be > 0")
	}

	if d.Exponent() < -2 {
		return decimal.Zero, fmt.Errorf("amount supports up to 2 decimals")
	}

	return d, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB cap
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body")
		}

		return fmt.Errorf("invalid JSON")
	}

	return nil
}

// --- JSON shapes ---

type transactionView struct {
	ID          string  `json:"id"`
	Type        string  `json:"type"`
	Status      string  `json:"status"`
	Amount      string  `json:"amount"`
	Description string  `json:"description,omitempty"`
	Destination string  `json:"destination,omitempty"`
	SettleAt    *string `json:"settleAt,omitempty"`
	CreatedAt   string  `json:"createdAt"`
}

func toTransactionView(rec transactions.Transaction) transactionView {
	v := transactionView{
		ID:          rec.ID,
		Type:        string(rec.Type),
		Status:      string(rec.Status),
		Amount:      rec.Amount.StringFixed(2),
		Description: rec.Description,
		Destination: rec.Destination,
		CreatedAt:   rec.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}

	if rec.SettleAt != nil {
		s := rec.SettleAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		v.SettleAt = &s
	}

	return v
}

type ticketView struct {
	ID       uint64 `json:"id"`
	Code     string `json:"code"`
	Status   string `json:"status"`
	DrawDate string `json:"drawDate"`
}

func toTicketView(t ticketrepo.Ticket) ticketView {
	return ticketView{
		ID:       t.ID,
		Code:     t.Code,
		Status:   string(t.Status),
		DrawDate: t.DrawDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
}

// --- Handlers ---

// GetBalanceHandler handles GET /user/{userId}/balance
func (h *HandlerProvider) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	balance, err := h.wallet.GetBalance(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"balance": balance.StringFixed(2),
	})
}

// ListTransactionsHandler handles GET /user/{userId}/transactions
func (h *HandlerProvider) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	recs, err := h.wallet.ListTransactions(r.Context(), userID, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]transactionView, 0, len(recs))
	for _, rec := range recs {
		views = append(views, toTransactionView(rec))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":       userID,
		"transactions": views,
	})
}

type depositRequest struct {
	Amount                string `json:"amount"`
	ExternalTransactionID string `json:"externalTransactionId"`
}

// DepositHandler handles POST /user/{userId}/deposit
func (h *HandlerProvider) DepositHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req depositRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	balance, err := h.wallet.Deposit(r.Context(), userID, amount, req.ExternalTransactionID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"balance": balance.StringFixed(2),
	})
}

type withdrawRequest struct {
	Amount      string `json:"amount"`
	Destination string `json:"destination"`
}

// WithdrawHandler handles POST /user/{userId}/withdraw
func (h *HandlerProvider) WithdrawHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req withdrawRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rec, err := h.withdrawals.Request(r.Context(), userID, amount, req.Destination)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"transactionId": rec.ID,
		"status":        string(rec.Status),
	})
}

type purchaseRequest struct {
	GameID   uint64 `json:"gameId"`
	Quantity int    `json:"quantity"`
}

// PurchaseTicketsHandler handles POST /user/{userId}/tickets
func (h *HandlerProvider) PurchaseTicketsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	var req purchaseRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.GameID == 0 {
		writeError(w, http.StatusBadRequest, "gameId required")
		return
	}

	result, err := h.tickets.Purchase(r.Context(), userID, req.GameID, req.Quantity)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	views := make([]ticketView, 0, len(result.Tickets))
	for _, t := range result.Tickets {
		views = append(views, toTicketView(t))
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"transactionId": result.TransactionID,
		"balance":       result.Balance.StringFixed(2),
		"tickets":       views,
	})
}

// SpinHandler handles POST /user/{userId}/games/{gameId}/spin
func (h *HandlerProvider) SpinHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := parseUserIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid userId in path")
		return
	}

	gameID, err := parseGameIDFromPath(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid gameId in path")
		return
	}

	result, err := h.prize.Spin(r.Context(), userID, gameID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"position": result.Position,
		"amount":   result.Amount.StringFixed(2),
		"balance":  result.Balance.StringFixed(2),
	})
}

// ListGamesHandler handles GET /games
func (h *HandlerProvider) ListGamesHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.games.ListActive(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type prizeView struct {
		Position int    `json:"position"`
		Amount   string `json:"amount"`
	}

	type gameView struct {
		ID           uint64      `json:"id"`
		Name         string      `json:"name"`
		Kind         string      `json:"kind"`
		Price        string      `json:"price"`
		PrizePool    string      `json:"prizePool"`
		DurationDays int         `json:"durationDays"`
		SpinsPerDay  int         `json:"spinsPerDay"`
		Prizes       []prizeView `json:"prizes,omitempty"`
	}

	views := make([]gameView, 0, len(list))

	for _, g := range list {
		gv := gameView{
			ID:           g.ID,
			Name:         g.Name,
			Kind:         string(g.Kind),
			Price:        g.Price.StringFixed(2),
			PrizePool:    g.PrizePool.StringFixed(2),
			DurationDays: g.DurationDays,
			SpinsPerDay:  g.SpinsPerDay,
		}

		for _, p := range g.Prizes {
			gv.Prizes = append(gv.Prizes, prizeView{Position: p.Position, Amount: p.Amount.StringFixed(2)})
		}

		views = append(views, gv)
	}

	writeJSON(w, http.StatusOK, map[string]any{"games": views})
}
