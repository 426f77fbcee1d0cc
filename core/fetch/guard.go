package fetch

import (
	"sync"
	"sync/atomic"
)

// Loading is a scoped "request in flight" signal. Start is called before the first network
// attempt and Done exactly once when the request settles, whatever the outcome.
type Loading interface {
	Start()
	Done()
}

// Indicator counts requests in flight. The zero value is ready to use.
type Indicator struct {
	n int32
}

func (i *Indicator) Start() { atomic.AddInt32(&i.n, 1) }
func (i *Indicator) Done()  { atomic.AddInt32(&i.n, -1) }

// Active reports whether at least one request is in flight.
func (i *Indicator) Active() bool { return atomic.LoadInt32(&i.n) > 0 }

// InFlight returns the number of requests in flight.
func (i *Indicator) InFlight() int { return int(atomic.LoadInt32(&i.n)) }

// Guard hands out monotonic tickets per view. Only the holder of the latest ticket of a view
// may apply its response.
type Guard struct {
	mu     sync.Mutex
	latest map[string]uint64
}

func NewGuard() *Guard {
	return &Guard{latest: make(map[string]uint64)}
}

// Begin issues a new ticket for view, superseding every earlier one.
func (g *Guard) Begin(view string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.latest[view]++
	return g.latest[view]
}

// Current reports whether ticket is still the latest for view.
func (g *Guard) Current(view string, ticket uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.latest[view] == ticket
}
