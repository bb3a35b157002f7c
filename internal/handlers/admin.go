package handlers

import (
	"encoding/json"
	"net/http"

	"wallet/internal/services"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	users, err := h.users.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load users")
		return
	}
	respondJSON(w, http.StatusOK, users)
}

func (h *Handler) BlockUser(w http.ResponseWriter, r *http.Request) {
	h.toggleBlock(w, r, true)
}

func (h *Handler) UnblockUser(w http.ResponseWriter, r *http.Request) {
	h.toggleBlock(w, r, false)
}

func (h *Handler) toggleBlock(w http.ResponseWriter, r *http.Request, block bool) {
	actorID, actorRole, ok := actorFromRequest(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	targetID := chi.URLParam(r, "id")
	if targetID == actorID {
		respondError(w, http.StatusBadRequest, "cannot block yourself")
		return
	}
	var payload blockPayload
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respondError(w, http.StatusBadRequest, "invalid payload")
			return
		}
	}
	var reason *string
	if payload.Reason != "" {
		reason = &payload.Reason
	}
	req := services.BlockRequest{
		ActorID:   actorID,
		ActorRole: actorRole,
		Reason:    reason,
		Until:     payload.Until,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	}
	var err error
	if block {
		err = h.userService.BlockUser(r.Context(), targetID, req)
	} else {
		err = h.userService.UnblockUser(r.Context(), targetID, req)
	}
	if err != nil {
		switch err {
		case services.ErrForbidden:
			respondError(w, http.StatusForbidden, "admin privileges required")
		case services.ErrNotFound:
			respondError(w, http.StatusNotFound, "user not found")
		case services.ErrNotPending:
			respondError(w, http.StatusBadRequest, "already in requested state")
		default:
			respondError(w, http.StatusInternalServerError, "unable to update block state")
		}
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":    targetID,
		"is_blocked": block,
	})
}

func (h *Handler) AdminListTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	transactions, err := h.transactions.ListAll(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load transactions")
		return
	}
	for _, tx := range transactions {
		tx["amount"] = valueToMoney(tx["amount"])
	}
	respondJSON(w, http.StatusOK, transactions)
}

func (h *Handler) ListActivity(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	logs, err := h.activity.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "unable to load activity logs")
		return
	}
	respondJSON(w, http.StatusOK, logs)
}
