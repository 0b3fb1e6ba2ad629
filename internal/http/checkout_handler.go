package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tikprofil/checkout-service-go/internal/checkout"
	"github.com/tikprofil/checkout-service-go/internal/session"
)

type CheckoutHandler struct {
	sessions *session.Manager
	prefill  checkout.PrefillStore
}

func NewCheckoutHandler(sessions *session.Manager, prefill checkout.PrefillStore) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, prefill: prefill}
}

// Submit runs the whole checkout attempt. The submit timeout is owned by the
// submitter, so the handler context only covers session loading generously.
func (h *CheckoutHandler) Submit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	var form checkout.Form
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	s, err := h.sessions.Get(r.Context(), sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}

	res, err := s.Submitter.Submit(r.Context(), form)
	if err != nil {
		var fieldErrs checkout.FieldErrors
		var submitErr *checkout.SubmitError
		switch {
		case errors.As(err, &fieldErrs):
			writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":  "validation failed",
				"fields": fieldErrs,
			})
		case errors.Is(err, checkout.ErrSubmitInFlight):
			writeError(w, http.StatusConflict, "a submission is already in flight")
		case errors.Is(err, checkout.ErrEmptyCart):
			writeError(w, http.StatusBadRequest, "cart is empty")
		case errors.As(err, &submitErr):
			writeError(w, http.StatusBadGateway, submitErr.Message)
		default:
			writeError(w, http.StatusInternalServerError, "checkout failed")
		}
		return
	}

	// The cart is already cleared in memory; drop the persisted row and the
	// session so the next visit starts fresh.
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	if err := h.sessions.Finish(ctx, sessionID); err != nil {
		// The order went through; losing the cleanup only leaves a stale row.
		writeJSON(w, http.StatusOK, res)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

type prefillResponse struct {
	Name  string `json:"customerName"`
	Phone string `json:"customerPhone"`
}

// Prefill returns the customer details stored after the last confirmed
// order, used to prefill the checkout form.
func (h *CheckoutHandler) Prefill(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	name, phone, err := h.prefill.Load(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load prefill")
		return
	}

	writeJSON(w, http.StatusOK, prefillResponse{Name: name, Phone: phone})
}
