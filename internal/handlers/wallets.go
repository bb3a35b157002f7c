package handlers

import (
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"

	"wallet/internal/auth"
	"wallet/internal/middleware"
	"wallet/internal/websocket"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if balance, hit := h.cache.GetBalance(r.Context(), userID); hit {
		respondJSON(w, http.StatusOK, map[string]any{
			"user_id": userID,
			"balance": valueToMoney(balance),
			"cached":  true,
		})
		return
	}
	wallet, err := h.wallets.GetByUser(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			// No wallet yet means nothing has been credited.
			respondJSON(w, http.StatusOK, map[string]any{
				"user_id": userID,
				"balance": valueToMoney(int64(0)),
			})
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	h.cache.SetBalance(r.Context(), userID, wallet.Balance)
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"balance": valueToMoney(wallet.Balance),
	})
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	txType := r.URL.Query().Get("type")
	transactions, err := h.transactions.ListByUser(r.Context(), userID, txType, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	for _, tx := range transactions {
		tx["amount"] = valueToMoney(tx["amount"])
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) WSBalance(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	claims, err := auth.ParseToken(h.cfg.JWTSecret, token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	websocket.ServeWS(w, r, h.hub, claims.UserID)
}

// AuditWallet compares one user's wallet balance against the signed sum
// of that wallet's transactions.
func (h *Handler) AuditWallet(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	wallet, err := h.wallets.GetByUser(r.Context(), userID)
	if err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "wallet not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to load wallet")
		return
	}
	sum, err := h.transactions.SumByWallet(r.Context(), wallet.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to sum transactions")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"wallet_id":      wallet.ID,
		"user_id":        wallet.UserID,
		"wallet_balance": valueToMoney(wallet.Balance),
		"tx_sum":         valueToMoney(sum),
		"difference":     valueToMoney(wallet.Balance - sum),
	})
}

// Reconcile compares each wallet's cached balance against the signed sum
// of its transactions. Any non-zero difference means the conservation
// invariant was violated somewhere.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	type row struct {
		WalletID      string `db:"wallet_id"`
		UserID        string `db:"user_id"`
		WalletBalance int64  `db:"wallet_balance"`
		TxSum         int64  `db:"tx_sum"`
		Difference    int64  `db:"difference"`
	}
	query := `
		SELECT w.id AS wallet_id,
		       w.user_id,
		       w.balance AS wallet_balance,
		       COALESCE(SUM(CASE
		           WHEN t.type IN ('DEPOSIT', 'TRANSFER_IN', 'GIFT') THEN t.amount
		           ELSE -t.amount
		       END), 0) AS tx_sum,
		       (w.balance - COALESCE(SUM(CASE
		           WHEN t.type IN ('DEPOSIT', 'TRANSFER_IN', 'GIFT') THEN t.amount
		           ELSE -t.amount
		       END), 0)) AS difference
		FROM wallets w
		LEFT JOIN transactions t ON t.wallet_id = w.id
		GROUP BY w.id, w.user_id, w.balance
		ORDER BY w.user_id
	`
	var rows []row
	if err := h.reconcileDB.SelectContext(r.Context(), &rows, query); err != nil {
		respondError(w, http.StatusInternalServerError, "unable to reconcile")
		return
	}
	response := make([]map[string]any, 0, len(rows))
	for _, item := range rows {
		response = append(response, map[string]any{
			"wallet_id":      item.WalletID,
			"user_id":        item.UserID,
			"wallet_balance": valueToMoney(item.WalletBalance),
			"tx_sum":         valueToMoney(item.TxSum),
			"difference":     valueToMoney(item.Difference),
		})
	}
	respondJSON(w, http.StatusOK, response)
}
