package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tikprofil/checkout-service-go/internal/cart"
	"github.com/tikprofil/checkout-service-go/internal/pricing"
	"github.com/tikprofil/checkout-service-go/internal/session"
)

type CartHandler struct {
	sessions *session.Manager
}

func NewCartHandler(sessions *session.Manager) *CartHandler {
	return &CartHandler{sessions: sessions}
}

type cartResponse struct {
	Cart    cart.Cart           `json:"cart"`
	Pricing pricing.Result      `json:"pricing"`
	Coupon  pricing.CouponState `json:"coupon"`
}

func (h *CartHandler) respondCart(w http.ResponseWriter, s *session.Session) {
	snap := s.Store.Snapshot()
	coupon := s.Coupons.State()
	// Delivery fee is not known until the checkout form picks a channel, so
	// the cart view prices it at zero.
	quote := pricing.Quote(snap.Subtotal(), 0, s.Coupons.Discount())

	writeJSON(w, http.StatusOK, cartResponse{Cart: snap, Pricing: quote, Coupon: coupon})
}

func (h *CartHandler) session(ctx context.Context, w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionID := chi.URLParam(r, "sessionId")
	if sessionID == "" {
		writeError(w, http.StatusBadRequest, "missing sessionId")
		return nil, false
	}

	s, err := h.sessions.Get(ctx, sessionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return nil, false
	}
	return s, true
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}
	h.respondCart(w, s)
}

type addItemRequest struct {
	Product cart.Product          `json:"product"`
	Options []cart.SelectedOption `json:"options,omitempty"`
	TableID string                `json:"tableId,omitempty"`
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if body.Product.ID == "" || body.Product.BusinessSlug == "" {
		writeError(w, http.StatusBadRequest, "product id and business slug required")
		return
	}
	if body.Product.UnitPrice < 0 {
		writeError(w, http.StatusBadRequest, "unit price must not be negative")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	if body.TableID != "" {
		s.Store.SetTableID(body.TableID)
	}

	if _, err := s.Store.AddItem(body.Product, body.Options); err != nil {
		if errors.Is(err, cart.ErrWrongBusiness) {
			writeError(w, http.StatusConflict, "cart already belongs to another business")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to add item")
		return
	}

	if err := h.sessions.Persist(ctx, s); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}
	h.respondCart(w, s)
}

func (h *CartHandler) lineOp(w http.ResponseWriter, r *http.Request, op func(*session.Session, string)) {
	lineID := chi.URLParam(r, "lineId")
	if lineID == "" {
		writeError(w, http.StatusBadRequest, "missing lineId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	op(s, lineID)

	if err := h.sessions.Persist(ctx, s); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}
	h.respondCart(w, s)
}

func (h *CartHandler) IncrementLine(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, func(s *session.Session, lineID string) { s.Store.IncrementLine(lineID) })
}

func (h *CartHandler) DecrementLine(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, func(s *session.Session, lineID string) { s.Store.DecrementLine(lineID) })
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	h.lineOp(w, r, func(s *session.Session, lineID string) { s.Store.RemoveLine(lineID) })
}

// ClearCart empties the cart. Destructive, so the caller has to confirm
// explicitly with ?confirm=true.
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("confirm") != "true" {
		writeError(w, http.StatusBadRequest, "clearing the cart must be confirmed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	s.Store.Clear()
	if err := h.sessions.Finish(ctx, s.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to clear cart")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cart cleared"})
}

type noteRequest struct {
	Note string `json:"note"`
}

func (h *CartHandler) SetOrderNote(w http.ResponseWriter, r *http.Request) {
	var body noteRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	s.Store.SetOrderNote(body.Note)
	if err := h.sessions.Persist(ctx, s); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save cart")
		return
	}
	h.respondCart(w, s)
}

type couponRequest struct {
	Code string `json:"code"`
}

// SetCoupon records the code and kicks off the debounced validation. The
// response returns immediately; the verdict lands on the next cart read.
func (h *CartHandler) SetCoupon(w http.ResponseWriter, r *http.Request) {
	var body couponRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	s, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	s.Coupons.SetSubtotal(s.Store.Subtotal())
	s.Coupons.SetCode(body.Code)

	writeJSON(w, http.StatusAccepted, s.Coupons.State())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
