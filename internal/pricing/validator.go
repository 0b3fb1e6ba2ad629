package pricing

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// CouponResult is the coupon collaborator's verdict for one (code, subtotal)
// pair. Discount is an absolute amount resolved server-side.
type CouponResult struct {
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount,omitempty"`
	Message  string  `json:"message,omitempty"`
}

type CouponClient interface {
	ValidateCoupon(ctx context.Context, businessSlug, code string, subtotal float64) (CouponResult, error)
}

// CouponState is what the UI shows: the code being applied, whether a
// validation is pending, and the last applied verdict.
type CouponState struct {
	Code     string  `json:"code,omitempty"`
	Checking bool    `json:"checking,omitempty"`
	Valid    bool    `json:"valid"`
	Discount float64 `json:"discount"`
	Message  string  `json:"message,omitempty"`
}

// CouponValidator debounces coupon validation and discards stale responses.
// Every input change (code or subtotal) bumps a sequence number; a response
// is applied only when its sequence still equals the latest issued, so a slow
// validation for a superseded code can never overwrite a newer one.
type CouponValidator struct {
	client   CouponClient
	business func() string
	debounce time.Duration
	timeout  time.Duration
	logger   *log.Logger

	mu       sync.Mutex
	code     string
	subtotal float64
	seq      uint64
	timer    *time.Timer
	state    CouponState
}

// NewCouponValidator builds a validator for one session. business is called
// at validation time because a fresh cart learns its tenant on the first add.
func NewCouponValidator(client CouponClient, business func() string, debounce, timeout time.Duration, logger *log.Logger) *CouponValidator {
	return &CouponValidator{
		client:   client,
		business: business,
		debounce: debounce,
		timeout:  timeout,
		logger:   logger,
	}
}

// SetCode replaces the coupon code. Codes are canonicalized to upper-case
// before they reach the collaborator. An empty code clears the coupon and
// supersedes any in-flight validation.
func (v *CouponValidator) SetCode(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))

	v.mu.Lock()
	defer v.mu.Unlock()

	v.code = code
	v.seq++
	if v.timer != nil {
		v.timer.Stop()
	}
	if code == "" {
		v.state = CouponState{}
		return
	}
	v.state = CouponState{Code: code, Checking: true}
	v.scheduleLocked()
}

// SetSubtotal re-triggers validation of the current code even when the code
// itself did not change: minimum-order rules depend on the subtotal.
func (v *CouponValidator) SetSubtotal(subtotal float64) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if subtotal == v.subtotal {
		return
	}
	v.subtotal = subtotal
	if v.code == "" {
		return
	}
	v.seq++
	if v.timer != nil {
		v.timer.Stop()
	}
	v.state.Checking = true
	v.scheduleLocked()
}

func (v *CouponValidator) scheduleLocked() {
	seq, code, subtotal := v.seq, v.code, v.subtotal
	v.timer = time.AfterFunc(v.debounce, func() {
		v.validate(seq, code, subtotal)
	})
}

func (v *CouponValidator) validate(seq uint64, code string, subtotal float64) {
	ctx, cancel := context.WithTimeout(context.Background(), v.timeout)
	defer cancel()

	res, err := v.client.ValidateCoupon(ctx, v.business(), code, subtotal)

	v.mu.Lock()
	defer v.mu.Unlock()

	if seq != v.seq {
		// Input changed while this validation was in flight.
		return
	}

	switch {
	case err != nil:
		v.logger.Printf("coupon validation for %q failed: %v", code, err)
		v.state = CouponState{Code: code, Message: "coupon could not be validated"}
	case !res.Valid:
		v.state = CouponState{Code: code, Message: res.Message}
	default:
		v.state = CouponState{Code: code, Valid: true, Discount: res.Discount, Message: res.Message}
	}
}

func (v *CouponValidator) State() CouponState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Discount is the amount to subtract at checkout: zero unless the latest
// validation came back valid.
func (v *CouponValidator) Discount() float64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.state.Valid {
		return 0
	}
	return v.state.Discount
}
