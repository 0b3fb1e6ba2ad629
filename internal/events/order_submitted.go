package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/tikprofil/checkout-service-go/internal/checkout"
)

const (
	OrderSubmittedEventName    = "OrderSubmitted"
	OrderSubmittedEventVersion = 1
	checkoutServiceProducer    = "checkout-service"
)

// Envelope is the versioned wrapper every event travels in. PartitionKey is
// the business slug; Sequence is per-partition so consumers can order and
// de-duplicate the feed per tenant.
type Envelope struct {
	EventName    string                `json:"eventName"`
	EventVersion int                   `json:"eventVersion"`
	EventID      string                `json:"eventId"`
	Producer     string                `json:"producer"`
	PartitionKey string                `json:"partitionKey"`
	Sequence     int64                 `json:"sequence"`
	OccurredAt   time.Time             `json:"occurredAt"`
	Payload      OrderSubmittedPayload `json:"payload"`
}

type OrderSubmittedPayload struct {
	OrderID        string      `json:"orderId"`
	OrderNumber    string      `json:"orderNumber,omitempty"`
	BusinessSlug   string      `json:"businessSlug"`
	DeliveryType   string      `json:"deliveryType"`
	PaymentMethod  string      `json:"paymentMethod"`
	Items          []OrderItem `json:"items"`
	Subtotal       float64     `json:"subtotal"`
	DiscountAmount float64     `json:"discountAmount"`
	DeliveryFee    float64     `json:"deliveryFee"`
	Total          float64     `json:"total"`
	SubmittedAt    time.Time   `json:"submittedAt"`
}

type OrderItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	LineTotal   float64 `json:"lineTotal"`
}

func newOrderSubmittedEvent(req checkout.Request, res checkout.Result, seq int64, occurredAt time.Time) Envelope {
	payload := OrderSubmittedPayload{
		OrderID:        res.OrderID,
		OrderNumber:    res.OrderNumber,
		BusinessSlug:   req.BusinessSlug,
		DeliveryType:   req.Delivery.Type,
		PaymentMethod:  req.Payment.Method,
		Subtotal:       req.Subtotal,
		DiscountAmount: req.DiscountAmount,
		DeliveryFee:    req.DeliveryFee,
		Total:          req.Total,
		SubmittedAt:    occurredAt,
	}
	for _, li := range req.Items {
		payload.Items = append(payload.Items, OrderItem{
			ProductID:   li.ProductID,
			ProductName: li.ProductName,
			Quantity:    li.Quantity,
			LineTotal:   li.LineTotal(),
		})
	}

	return Envelope{
		EventName:    OrderSubmittedEventName,
		EventVersion: OrderSubmittedEventVersion,
		EventID:      uuid.NewString(),
		Producer:     checkoutServiceProducer,
		PartitionKey: req.BusinessSlug,
		Sequence:     seq,
		OccurredAt:   occurredAt,
		Payload:      payload,
	}
}
