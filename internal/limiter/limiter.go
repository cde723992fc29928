package limiter

import "sync"

// Slots bounds how many holders may run at once. It never queues: a caller
// that finds every slot taken is refused immediately.
type Slots struct {
	sem chan struct{}
}

func New(n int) *Slots {
	if n <= 0 {
		n = 1
	}
	return &Slots{sem: make(chan struct{}, n)}
}

// Allow tries to reserve a slot.
// Returns a release function and true if allowed; otherwise a no-op,false.
// Release is safe to call more than once.
func (s *Slots) Allow() (func(), bool) {
	select {
	case s.sem <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-s.sem }) }, true
	default:
		return func() {}, false
	}
}

// Busy reports whether every slot is taken.
func (s *Slots) Busy() bool { return len(s.sem) == cap(s.sem) }
