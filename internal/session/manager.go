// Package session owns the per-session wiring of the checkout core. Each
// session carries its own cart store, coupon validator and submitter; there
// is no process-wide cart state.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/tikprofil/checkout-service-go/internal/cart"
	"github.com/tikprofil/checkout-service-go/internal/checkout"
	"github.com/tikprofil/checkout-service-go/internal/pricing"
)

type Session struct {
	ID        string
	Store     *cart.Store
	Coupons   *pricing.CouponValidator
	Submitter *checkout.Submitter
}

type Deps struct {
	Carts   cart.Repository
	Engine  *pricing.Engine
	Coupons pricing.CouponClient
	Orders  checkout.OrderClient
	Prefill checkout.PrefillStore
	Events  checkout.EventPublisher

	CouponDebounce  time.Duration
	ValidateTimeout time.Duration
	SubmitTimeout   time.Duration
	Logger          *log.Logger
}

type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(deps Deps) *Manager {
	if deps.CouponDebounce <= 0 {
		deps.CouponDebounce = 800 * time.Millisecond
	}
	if deps.ValidateTimeout <= 0 {
		deps.ValidateTimeout = 5 * time.Second
	}
	return &Manager{deps: deps, sessions: make(map[string]*Session)}
}

// Get returns the live session, resuming a persisted cart when the process
// sees the session id for the first time.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[sessionID]; ok {
		return s, nil
	}

	c, err := m.deps.Carts.Load(ctx, sessionID)
	if err != nil && !errors.Is(err, cart.ErrNotFound) {
		return nil, fmt.Errorf("resume cart %s: %w", sessionID, err)
	}

	s := m.build(sessionID, c)
	m.sessions[sessionID] = s
	return s, nil
}

func (m *Manager) build(sessionID string, c cart.Cart) *Session {
	store := cart.NewStore(c)

	coupons := pricing.NewCouponValidator(
		m.deps.Coupons,
		func() string { return store.Snapshot().BusinessSlug },
		m.deps.CouponDebounce,
		m.deps.ValidateTimeout,
		m.deps.Logger,
	)
	// A subtotal change re-prices any applied coupon on the same mutation.
	store.Subscribe(coupons.SetSubtotal)

	submitter := checkout.NewSubmitter(sessionID, checkout.SubmitterDeps{
		Store:   store,
		Engine:  m.deps.Engine,
		Coupons: coupons,
		Orders:  m.deps.Orders,
		Prefill: m.deps.Prefill,
		Events:  m.deps.Events,
		Timeout: m.deps.SubmitTimeout,
		Logger:  m.deps.Logger,
	})

	return &Session{ID: sessionID, Store: store, Coupons: coupons, Submitter: submitter}
}

// Persist writes the session's current cart through to storage. Handlers call
// it after every mutation so a restart resumes where the customer left off.
func (m *Manager) Persist(ctx context.Context, s *Session) error {
	return m.deps.Carts.Save(ctx, s.ID, s.Store.Snapshot())
}

// Finish drops the session after a confirmed checkout or an explicit clear:
// the persisted cart row goes away and the next request starts fresh.
func (m *Manager) Finish(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()

	return m.deps.Carts.Delete(ctx, sessionID)
}
