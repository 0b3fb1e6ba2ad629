package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tikprofil/checkout-service-go/internal/metrics"
)

func NewRouter(carts *CartHandler, checkouts *CheckoutHandler, m *metrics.ServerMetrics) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	if m != nil {
		r.Use(m.Middleware)
	}

	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/cart/{sessionId}", func(r chi.Router) {
		r.Get("/", carts.GetCart)
		r.Delete("/", carts.ClearCart)
		r.Post("/items", carts.AddItem)
		r.Post("/lines/{lineId}/increment", carts.IncrementLine)
		r.Post("/lines/{lineId}/decrement", carts.DecrementLine)
		r.Delete("/lines/{lineId}", carts.RemoveLine)
		r.Put("/note", carts.SetOrderNote)
		r.Post("/coupon", carts.SetCoupon)
		r.Post("/checkout", checkouts.Submit)
		r.Get("/prefill", checkouts.Prefill)
	})

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "checkout-service"})
}
