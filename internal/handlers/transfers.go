package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"wallet/internal/middleware"
	"wallet/internal/money"
	"wallet/internal/services"
)

type transferRequest struct {
	ToUserID   string `json:"to_user_id"`
	ToUsername string `json:"to_username"`
	Amount     string `json:"amount"`
	Reference  string `json:"reference"`
}

func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req transferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseAmount(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	toUserID := req.ToUserID
	if toUserID == "" {
		if req.ToUsername == "" {
			respondError(w, http.StatusBadRequest, "recipient is required")
			return
		}
		target, err := h.users.GetByUsername(r.Context(), req.ToUsername)
		if err != nil {
			if err == sql.ErrNoRows {
				respondError(w, http.StatusNotFound, "recipient not found")
				return
			}
			respondError(w, http.StatusInternalServerError, "unable to resolve recipient")
			return
		}
		toUserID = valueToString(target["id"])
	} else if _, err := h.users.GetByID(r.Context(), toUserID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "recipient not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve recipient")
		return
	}
	transactionID, err := h.transfers.Transfer(r.Context(), services.TransferRequest{
		ActorID:     userID,
		ToUserID:    toUserID,
		AmountMinor: amountMinor,
		Reference:   req.Reference,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		switch err {
		case services.ErrInsufficientFunds:
			respondError(w, http.StatusBadRequest, "insufficient_funds")
		case services.ErrSameUserTransfer:
			respondError(w, http.StatusBadRequest, "cannot transfer to yourself")
		case services.ErrInvalidAmount:
			respondError(w, http.StatusBadRequest, "invalid_amount")
		default:
			respondError(w, http.StatusInternalServerError, "transfer failed")
		}
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}

type purchaseRequest struct {
	Amount  string `json:"amount"`
	ItemRef string `json:"item_ref"`
}

func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseAmount(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	transactionID, err := h.transfers.Purchase(r.Context(), services.PurchaseRequest{
		ActorID:     userID,
		AmountMinor: amountMinor,
		ItemRef:     req.ItemRef,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		if err == services.ErrInsufficientFunds {
			respondError(w, http.StatusBadRequest, "insufficient_funds")
			return
		}
		respondError(w, http.StatusInternalServerError, "purchase failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}

type giftRequest struct {
	ToUserID  string `json:"to_user_id"`
	Amount    string `json:"amount"`
	Reference string `json:"reference"`
}

func (h *Handler) Gift(w http.ResponseWriter, r *http.Request) {
	actorID, actorRole, ok := actorFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req giftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ToUserID == "" {
		respondError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	amountMinor, err := money.ParseAmount(req.Amount)
	if err != nil || amountMinor <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_amount")
		return
	}
	if _, err := h.users.GetByID(r.Context(), req.ToUserID); err != nil {
		if err == sql.ErrNoRows {
			respondError(w, http.StatusNotFound, "recipient not found")
			return
		}
		respondError(w, http.StatusInternalServerError, "unable to resolve recipient")
		return
	}
	transactionID, err := h.transfers.Gift(r.Context(), services.GiftRequest{
		ActorID:     actorID,
		ActorRole:   actorRole,
		ToUserID:    req.ToUserID,
		AmountMinor: amountMinor,
		Reference:   req.Reference,
		IPAddress:   r.RemoteAddr,
		UserAgent:   r.UserAgent(),
	})
	if err != nil {
		if err == services.ErrForbidden {
			respondError(w, http.StatusForbidden, "admin privileges required")
			return
		}
		respondError(w, http.StatusInternalServerError, "gift failed")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"transaction_id": transactionID})
}
