package checkout

import (
	"strings"

	"github.com/tikprofil/checkout-service-go/internal/cart"
)

const (
	DeliveryPickup  = "pickup"
	DeliveryCourier = "delivery"
	DeliveryTable   = "table"

	PaymentCash   = "cash"
	PaymentCard   = "credit_card"
	PaymentOnline = "online"
)

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type Delivery struct {
	Type        string `json:"type"`
	Address     string `json:"address,omitempty"`
	TableNumber string `json:"tableNumber,omitempty"`
}

type Payment struct {
	Method string `json:"method"`
}

// Form is what the customer filled in; the cart itself is not part of it.
type Form struct {
	Customer Customer `json:"customer"`
	Delivery Delivery `json:"delivery"`
	Payment  Payment  `json:"payment"`
}

// FieldErrors maps field path to a message. It doubles as the error returned
// for local validation failures, which never reach the network.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	parts := make([]string, 0, len(e))
	for field, msg := range e {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate runs the required-field checks keyed by delivery type.
func (f *Form) Validate() FieldErrors {
	errs := FieldErrors{}

	if strings.TrimSpace(f.Customer.Name) == "" {
		errs["customer.name"] = "name required"
	}
	if strings.TrimSpace(f.Customer.Phone) == "" {
		errs["customer.phone"] = "phone required"
	}

	switch f.Delivery.Type {
	case DeliveryPickup:
	case DeliveryCourier:
		if strings.TrimSpace(f.Delivery.Address) == "" {
			errs["delivery.address"] = "address required for delivery orders"
		}
	case DeliveryTable:
		if strings.TrimSpace(f.Delivery.TableNumber) == "" {
			errs["delivery.tableNumber"] = "table number required for table orders"
		}
	default:
		errs["delivery.type"] = "unknown delivery type"
	}

	switch f.Payment.Method {
	case PaymentCash, PaymentCard, PaymentOnline:
	default:
		errs["payment.method"] = "unknown payment method"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Request is the payload submitted to the order collaborator: the form plus
// a snapshot of the cart and the priced amounts at submit time.
type Request struct {
	BusinessSlug   string          `json:"businessSlug"`
	Customer       Customer        `json:"customer"`
	Delivery       Delivery        `json:"delivery"`
	Payment        Payment         `json:"payment"`
	Items          []cart.LineItem `json:"items"`
	OrderNote      string          `json:"orderNote,omitempty"`
	CouponCode     string          `json:"couponCode,omitempty"`
	Subtotal       float64         `json:"subtotal"`
	DiscountAmount float64         `json:"discountAmount"`
	DeliveryFee    float64         `json:"deliveryFee"`
	Total          float64         `json:"total"`
}

// Result is the order collaborator's answer.
type Result struct {
	Success     bool   `json:"success"`
	OrderID     string `json:"orderId,omitempty"`
	OrderNumber string `json:"orderNumber,omitempty"`
	Error       string `json:"error,omitempty"`
}

// normalize enforces that exactly the field selected by the delivery type is
// populated, so a request never carries both an address and a table number.
func (d *Delivery) normalize() {
	switch d.Type {
	case DeliveryCourier:
		d.TableNumber = ""
	case DeliveryTable:
		d.Address = ""
	default:
		d.Address = ""
		d.TableNumber = ""
	}
}
