package pricing

import (
	"context"
	"log"
)

// Settings are the per-business knobs that pricing depends on, resolved by
// the settings collaborator.
type Settings struct {
	DeliveryFee    float64 `json:"deliveryFee"`
	MinOrderAmount float64 `json:"minOrderAmount"`
}

type SettingsClient interface {
	GetSettings(ctx context.Context, businessSlug string) (Settings, error)
}

// Result is derived, never stored.
type Result struct {
	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"deliveryFee"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`
}

// DeliveryFee is the configured flat fee for home delivery; pickup and table
// orders carry none.
func DeliveryFee(deliveryType string, s Settings) float64 {
	if deliveryType == "delivery" {
		return s.DeliveryFee
	}
	return 0
}

// Quote clamps the discount so the total can never go negative, no matter
// what the coupon resolved to.
func Quote(subtotal, deliveryFee, discount float64) Result {
	if discount < 0 {
		discount = 0
	}
	if max := subtotal + deliveryFee; discount > max {
		discount = max
	}
	return Result{
		Subtotal:    subtotal,
		DeliveryFee: deliveryFee,
		Discount:    discount,
		Total:       subtotal + deliveryFee - discount,
	}
}

// Engine wraps the settings collaborator with the fail-open rule: a settings
// outage must not block checkout, so a failed fetch prices delivery at 0.
type Engine struct {
	settings SettingsClient
	logger   *log.Logger
}

func NewEngine(settings SettingsClient, logger *log.Logger) *Engine {
	return &Engine{settings: settings, logger: logger}
}

func (e *Engine) SettingsFor(ctx context.Context, businessSlug string) Settings {
	s, err := e.settings.GetSettings(ctx, businessSlug)
	if err != nil {
		e.logger.Printf("settings fetch for %s failed, pricing delivery at 0: %v", businessSlug, err)
		return Settings{}
	}
	return s
}
