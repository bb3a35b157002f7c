package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"wallet/internal/middleware"
	"wallet/internal/money"
	"wallet/internal/services"
	"wallet/internal/store"
	"wallet/internal/validator"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type createDepositRequest struct {
	Amount    string `json:"amount"`
	Rate      string `json:"rate"`
	SlipImage string `json:"slip_image"`
}

func (h *Handler) CreateDeposit(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseAmount(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if err := validator.ValidateSlipImage(req.SlipImage); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	rate := req.Rate
	if rate == "" {
		rate = "1"
	}
	if _, err := money.ParseRate(rate); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_rate")
		return
	}
	depositID := uuid.NewString()
	err = h.txRunner.WithTx(r.Context(), func(tx *sqlx.Tx) error {
		return h.deposits.Create(r.Context(), tx, store.DepositInput{
			ID:        depositID,
			UserID:    userID,
			Amount:    amountMinor,
			Rate:      rate,
			SlipImage: req.SlipImage,
		})
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to create deposit")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"id":     depositID,
		"amount": valueToMoney(amountMinor),
		"status": store.StatusPending,
	})
}

func (h *Handler) ListDeposits(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	limit, offset := parsePagination(r)
	deposits, err := h.deposits.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load deposits")
		return
	}
	for _, deposit := range deposits {
		deposit["amount"] = valueToMoney(deposit["amount"])
	}
	respondJSON(w, http.StatusOK, deposits)
}

func (h *Handler) AdminListDeposits(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status == "" {
		status = store.StatusPending
	}
	limit, offset := parsePagination(r)
	deposits, err := h.deposits.ListByStatus(r.Context(), status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load deposits")
		return
	}
	for _, deposit := range deposits {
		deposit["amount"] = valueToMoney(deposit["amount"])
	}
	respondJSON(w, http.StatusOK, deposits)
}

func (h *Handler) ApproveDeposit(w http.ResponseWriter, r *http.Request) {
	h.reviewDeposit(w, r, h.approvals.ApproveDeposit)
}

func (h *Handler) RejectDeposit(w http.ResponseWriter, r *http.Request) {
	h.reviewDeposit(w, r, h.approvals.RejectDeposit)
}

type reviewPayload struct {
	Comment *string `json:"comment"`
}

func (h *Handler) reviewDeposit(w http.ResponseWriter, r *http.Request, review func(ctx context.Context, depositID string, req services.ReviewRequest) (store.Deposit, error)) {
	actorID, actorRole, ok := actorFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := buildReviewRequest(w, r, actorID, actorRole)
	if !ok {
		return
	}
	deposit, err := review(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		respondReviewError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":            deposit.ID,
		"user_id":       deposit.UserID,
		"amount":        valueToMoney(deposit.Amount),
		"rate":          deposit.Rate,
		"slip_image":    deposit.SlipImage,
		"status":        deposit.Status,
		"admin_comment": valueToString(deposit.AdminComment),
		"reviewed_by":   valueToString(deposit.ReviewedBy),
	})
}

func actorFromRequest(r *http.Request) (string, string, bool) {
	actorID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	actorRole, ok := middleware.RoleFromContext(r.Context())
	if !ok {
		return "", "", false
	}
	return actorID, actorRole, true
}

func buildReviewRequest(w http.ResponseWriter, r *http.Request, actorID, actorRole string) (services.ReviewRequest, bool) {
	var payload reviewPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return services.ReviewRequest{}, false
		}
	}
	if payload.Comment != nil {
		if err := validator.ValidateComment(*payload.Comment); err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return services.ReviewRequest{}, false
		}
	}
	return services.ReviewRequest{
		ActorID:   actorID,
		ActorRole: actorRole,
		Comment:   payload.Comment,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}, true
}

func respondReviewError(w http.ResponseWriter, err error) {
	switch err {
	case services.ErrForbidden:
		respondError(w, http.StatusForbidden, "admin privileges required")
	case services.ErrNotFound:
		respondError(w, http.StatusNotFound, "not found")
	case services.ErrNotPending:
		respondError(w, http.StatusBadRequest, "not_pending")
	case services.ErrInsufficientFunds:
		respondError(w, http.StatusBadRequest, "insufficient_funds")
	default:
		respondError(w, http.StatusInternalServerError, "review failed")
	}
}
