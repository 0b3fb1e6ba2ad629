package httpapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tikprofil/checkout-service-go/internal/checkout"
)

func checkoutBody(deliveryType string) map[string]any {
	body := map[string]any{
		"customer": map[string]any{"name": "Ayşe Yılmaz", "phone": "+90 555 111 2233"},
		"delivery": map[string]any{"type": deliveryType},
		"payment":  map[string]any{"method": "cash"},
	}
	if deliveryType == checkout.DeliveryCourier {
		body["delivery"] = map[string]any{"type": deliveryType, "address": "Atatürk Cad. 12"}
	}
	return body
}

func TestSubmitPickupOrder(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/cart/sess-1/items", addItemBody(100))

	w := h.do(t, http.MethodPost, "/api/cart/sess-1/checkout", checkoutBody(checkout.DeliveryPickup))
	require.Equal(t, http.StatusOK, w.Code)

	var res checkout.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Success)
	assert.Equal(t, "ord-1", res.OrderID)

	// Order confirmed: the persisted cart is gone and the next read is empty.
	assert.False(t, h.repo.has("sess-1"))
	after := decodeCart(t, h.do(t, http.MethodGet, "/api/cart/sess-1", nil))
	assert.Empty(t, after.Cart.Lines)
}

func TestSubmitValidationFailure(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/cart/sess-1/items", addItemBody(100))

	body := checkoutBody(checkout.DeliveryCourier)
	body["delivery"] = map[string]any{"type": checkout.DeliveryCourier} // no address

	w := h.do(t, http.MethodPost, "/api/cart/sess-1/checkout", body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var res struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Contains(t, res.Fields, "delivery.address")

	// The failed attempt must not touch the cart.
	assert.True(t, h.repo.has("sess-1"))
	assert.Equal(t, 0, h.backend.orders)
}

func TestSubmitEmptyCart(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/cart/sess-1/checkout", checkoutBody(checkout.DeliveryPickup))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitInvalidJSON(t *testing.T) {
	h := newHarness(t)

	r := httptest.NewRequest(http.MethodPost, "/api/cart/sess-1/checkout", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPrefillAfterConfirmedOrder(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/cart/sess-1/items", addItemBody(100))

	w := h.do(t, http.MethodPost, "/api/cart/sess-1/checkout", checkoutBody(checkout.DeliveryPickup))
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodGet, "/api/cart/sess-1/prefill", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Name  string `json:"customerName"`
		Phone string `json:"customerPhone"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Ayşe Yılmaz", res.Name)
	assert.Equal(t, "+90 555 111 2233", res.Phone)
}
