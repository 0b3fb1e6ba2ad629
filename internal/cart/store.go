package cart

import "sync"

// Subscriber is called synchronously with the new subtotal after every
// successful mutation, before the mutating call returns.
type Subscriber func(subtotal float64)

// Store owns one Cart for one session. There is no package-level store; the
// session manager hands each session its own instance.
type Store struct {
	mu   sync.Mutex
	cart Cart
	subs []Subscriber
}

func NewStore(c Cart) *Store {
	return &Store{cart: c}
}

// Subscribe registers an observer. Subscribers must not call back into the
// store from the callback.
func (s *Store) Subscribe(fn Subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Store) AddItem(p Product, opts []SelectedOption) (string, error) {
	s.mu.Lock()
	lineID, err := s.cart.AddItem(p, opts)
	if err != nil {
		s.mu.Unlock()
		return "", err
	}
	subtotal := s.cart.Subtotal()
	subs := s.subs
	s.mu.Unlock()

	notify(subs, subtotal)
	return lineID, nil
}

func (s *Store) IncrementLine(lineID string) {
	s.mutate(func(c *Cart) { c.IncrementLine(lineID) })
}

func (s *Store) DecrementLine(lineID string) {
	s.mutate(func(c *Cart) { c.DecrementLine(lineID) })
}

func (s *Store) RemoveLine(lineID string) {
	s.mutate(func(c *Cart) { c.RemoveLine(lineID) })
}

func (s *Store) Clear() {
	s.mutate(func(c *Cart) { c.Clear() })
}

func (s *Store) SetOrderNote(note string) {
	s.mutate(func(c *Cart) { c.OrderNote = note })
}

func (s *Store) SetTableID(tableID string) {
	s.mutate(func(c *Cart) { c.TableID = tableID })
}

// Subtotal is recomputed on every read, never cached.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal()
}

func (s *Store) Snapshot() Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Snapshot()
}

func (s *Store) mutate(fn func(*Cart)) {
	s.mu.Lock()
	fn(&s.cart)
	subtotal := s.cart.Subtotal()
	subs := s.subs
	s.mu.Unlock()

	notify(subs, subtotal)
}

func notify(subs []Subscriber, subtotal float64) {
	for _, fn := range subs {
		fn(subtotal)
	}
}
