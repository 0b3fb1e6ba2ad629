package checkout

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/tikprofil/checkout-service-go/internal/cart"
	"github.com/tikprofil/checkout-service-go/internal/pricing"
)

type State string

const (
	StateIdle       State = "idle"
	StateValidating State = "validating"
	StateSubmitting State = "submitting"
	StateSucceeded  State = "succeeded"
	StateFailed     State = "failed"
)

var (
	ErrSubmitInFlight = errors.New("a submission is already in flight")
	ErrEmptyCart      = errors.New("cart is empty")
)

// SubmitError carries the collaborator's message for a failed attempt. The
// cart and form are untouched; the caller may retry.
type SubmitError struct {
	Message string
}

func (e *SubmitError) Error() string {
	return "checkout submission failed: " + e.Message
}

type OrderClient interface {
	CreateOrder(ctx context.Context, req Request) (Result, error)
}

type PrefillStore interface {
	Save(ctx context.Context, sessionID, name, phone string) error
	Load(ctx context.Context, sessionID string) (name, phone string, err error)
}

type EventPublisher interface {
	PublishOrderSubmitted(ctx context.Context, req Request, res Result) error
}

// Submitter drives one session's checkout: idle -> validating -> submitting
// -> succeeded | failed. At most one submission is in flight; the cart is
// cleared only after the collaborator confirms success.
type Submitter struct {
	sessionID string
	store     *cart.Store
	engine    *pricing.Engine
	coupons   *pricing.CouponValidator
	orders    OrderClient
	prefill   PrefillStore
	events    EventPublisher
	timeout   time.Duration
	logger    *log.Logger

	mu       sync.Mutex
	state    State
	settings *pricing.Settings
}

type SubmitterDeps struct {
	Store   *cart.Store
	Engine  *pricing.Engine
	Coupons *pricing.CouponValidator
	Orders  OrderClient
	Prefill PrefillStore
	Events  EventPublisher
	Timeout time.Duration
	Logger  *log.Logger
}

func NewSubmitter(sessionID string, d SubmitterDeps) *Submitter {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Submitter{
		sessionID: sessionID,
		store:     d.Store,
		engine:    d.Engine,
		coupons:   d.Coupons,
		orders:    d.Orders,
		prefill:   d.Prefill,
		events:    d.Events,
		timeout:   timeout,
		logger:    d.Logger,
		state:     StateIdle,
	}
}

func (s *Submitter) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Submit validates the form, builds the request from a cart snapshot taken
// now, and issues exactly one call to the order collaborator. Cart edits made
// while the call is in flight do not affect the request.
func (s *Submitter) Submit(ctx context.Context, form Form) (Result, error) {
	s.mu.Lock()
	if s.state == StateValidating || s.state == StateSubmitting {
		s.mu.Unlock()
		return Result{}, ErrSubmitInFlight
	}
	s.state = StateValidating
	s.mu.Unlock()

	snapshot := s.store.Snapshot()
	if snapshot.IsEmpty() {
		s.setState(StateIdle)
		return Result{}, ErrEmptyCart
	}

	// A table session always orders to its table.
	if snapshot.TableID != "" {
		form.Delivery.Type = DeliveryTable
		if form.Delivery.TableNumber == "" {
			form.Delivery.TableNumber = snapshot.TableID
		}
	}

	if errs := form.Validate(); errs != nil {
		s.setState(StateIdle)
		return Result{}, errs
	}

	s.setState(StateSubmitting)

	req := s.buildRequest(ctx, form, snapshot)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.orders.CreateOrder(callCtx, req)
	if err != nil {
		s.logger.Printf("session %s: create order failed: %v", s.sessionID, err)
		s.setState(StateFailed)
		return Result{}, &SubmitError{Message: "order could not be submitted"}
	}
	if !res.Success {
		msg := res.Error
		if msg == "" {
			msg = "order was rejected"
		}
		s.setState(StateFailed)
		return res, &SubmitError{Message: msg}
	}

	// Confirmed: persist prefill, clear the cart, announce the order. The
	// order exists at this point, so the follow-ups are best effort.
	if err := s.prefill.Save(ctx, s.sessionID, form.Customer.Name, form.Customer.Phone); err != nil {
		s.logger.Printf("session %s: save prefill: %v", s.sessionID, err)
	}
	s.store.Clear()
	if s.events != nil {
		if err := s.events.PublishOrderSubmitted(ctx, req, res); err != nil {
			s.logger.Printf("session %s: publish order submitted: %v", s.sessionID, err)
		}
	}

	s.setState(StateSucceeded)
	return res, nil
}

func (s *Submitter) buildRequest(ctx context.Context, form Form, snapshot cart.Cart) Request {
	form.Delivery.normalize()

	settings := s.settingsFor(ctx, snapshot.BusinessSlug)
	fee := pricing.DeliveryFee(form.Delivery.Type, settings)

	couponState := s.coupons.State()
	quote := pricing.Quote(snapshot.Subtotal(), fee, s.coupons.Discount())

	req := Request{
		BusinessSlug:   snapshot.BusinessSlug,
		Customer:       form.Customer,
		Delivery:       form.Delivery,
		Payment:        form.Payment,
		Items:          snapshot.Lines,
		OrderNote:      snapshot.OrderNote,
		Subtotal:       quote.Subtotal,
		DiscountAmount: quote.Discount,
		DeliveryFee:    quote.DeliveryFee,
		Total:          quote.Total,
	}
	if couponState.Valid {
		req.CouponCode = couponState.Code
	}
	return req
}

// settingsFor fetches business settings once per checkout session and caches
// the answer, including the fail-open zero value on outage.
func (s *Submitter) settingsFor(ctx context.Context, businessSlug string) pricing.Settings {
	s.mu.Lock()
	cached := s.settings
	s.mu.Unlock()
	if cached != nil {
		return *cached
	}

	settings := s.engine.SettingsFor(ctx, businessSlug)

	s.mu.Lock()
	s.settings = &settings
	s.mu.Unlock()
	return settings
}

func (s *Submitter) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
