package clients

import (
	"context"
	"net/http"

	"github.com/tikprofil/checkout-service-go/internal/pricing"
)

// SettingsClient fetches per-business ordering settings (delivery fee,
// minimum order amount).
type SettingsClient struct {
	c *Client
}

func NewSettingsClient(c *Client) *SettingsClient {
	return &SettingsClient{c: c}
}

func (sc *SettingsClient) GetSettings(ctx context.Context, businessSlug string) (pricing.Settings, error) {
	var s pricing.Settings
	if err := sc.c.doJSON(ctx, http.MethodGet, "/api/businesses/"+businessSlug+"/settings", nil, &s); err != nil {
		return pricing.Settings{}, err
	}
	return s, nil
}
