package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"wallet/internal/middleware"
	"wallet/internal/money"
	"wallet/internal/services"
	"wallet/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createWithdrawalRequest struct {
	Amount      string `json:"amount"`
	BankAccount string `json:"bank_account"`
}

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createWithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseAmount(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if strings.TrimSpace(req.BankAccount) == "" {
		respondError(w, http.StatusBadRequest, "bank_account is required")
		return
	}
	// The funds check happens at approval time, but refusing requests that
	// already exceed the balance keeps the admin queue clean.
	wallet, err := h.wallets.GetByUser(r.Context(), userID)
	if err == nil && wallet.Balance < amountMinor {
		respondError(w, http.StatusBadRequest, "insufficient_funds")
		return
	}
	withdrawalID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.withdrawals.Create(r.Context(), tx, store.WithdrawalInput{
			ID:          withdrawalID,
			UserID:      userID,
			Amount:      amountMinor,
			BankAccount: req.BankAccount,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create withdrawal")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":     withdrawalID,
		"amount": valueToMoney(amountMinor),
		"status": store.StatusPending,
	})
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	withdrawals, err := h.withdrawals.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	for _, withdrawal := range withdrawals {
		withdrawal["amount"] = valueToMoney(withdrawal["amount"])
	}
	respondJSON(w, http.StatusOK, withdrawals)
}

func (h *Handler) AdminListWithdrawals(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.StatusPending
	}
	limit, offset := parsePagination(r)
	withdrawals, err := h.withdrawals.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load withdrawals")
		return
	}
	for _, withdrawal := range withdrawals {
		withdrawal["amount"] = valueToMoney(withdrawal["amount"])
	}
	respondJSON(w, http.StatusOK, withdrawals)
}

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, h.approvals.ApproveWithdrawal)
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.reviewWithdrawal(w, r, h.approvals.RejectWithdrawal)
}

func (h *Handler) reviewWithdrawal(w http.ResponseWriter, r *http.Request, review func(ctx context.Context, withdrawalID string, req services.ReviewRequest) (store.Withdrawal, error)) {
	actorID, actorRole, ok := actorFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := buildReviewRequest(w, r, actorID, actorRole)
	if !ok {
		return
	}
	withdrawal, err := review(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondReviewError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":            withdrawal.ID,
		"user_id":       withdrawal.UserID,
		"amount":        valueToMoney(withdrawal.Amount),
		"bank_account":  withdrawal.BankAccount,
		"status":        withdrawal.Status,
		"admin_comment": valueToString(withdrawal.AdminComment),
		"reviewed_by":   valueToString(withdrawal.ReviewedBy),
	})
}
