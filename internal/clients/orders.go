package clients

import (
	"context"
	"net/http"

	"github.com/tikprofil/checkout-service-go/internal/checkout"
	"github.com/tikprofil/checkout-service-go/internal/pricing"
)

// OrdersClient talks to the order-service: coupon validation and order
// creation.
type OrdersClient struct {
	c *Client
}

func NewOrdersClient(c *Client) *OrdersClient {
	return &OrdersClient{c: c}
}

type couponRequest struct {
	BusinessSlug string  `json:"businessSlug"`
	Code         string  `json:"code"`
	Subtotal     float64 `json:"subtotal"`
}

func (oc *OrdersClient) ValidateCoupon(ctx context.Context, businessSlug, code string, subtotal float64) (pricing.CouponResult, error) {
	var res pricing.CouponResult
	err := oc.c.doJSON(ctx, http.MethodPost, "/api/coupons/validate",
		couponRequest{BusinessSlug: businessSlug, Code: code, Subtotal: subtotal}, &res)
	if err != nil {
		return pricing.CouponResult{}, err
	}
	return res, nil
}

func (oc *OrdersClient) CreateOrder(ctx context.Context, req checkout.Request) (checkout.Result, error) {
	var res checkout.Result
	if err := oc.c.doJSON(ctx, http.MethodPost, "/api/orders", req, &res); err != nil {
		return checkout.Result{}, err
	}
	return res, nil
}
