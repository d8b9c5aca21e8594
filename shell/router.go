package shell

import (
	"sync"
	"time"

	"github.com/chatline/authflow"
)

// Navigator switches the visible view.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

// Navigate calls f(route).
func (f NavigatorFunc) Navigate(route string) { f(route) }

// Router turns flow events into delayed navigations. It is safe for
// concurrent use.
type Router struct {
	nav       Navigator
	afterFunc func(time.Duration, func()) stopper

	mu      sync.Mutex
	pending map[uint64]stopper
	nextID  uint64
	stopped bool
}

type stopper interface {
	Stop() bool
}

// NewRouter returns a Router that navigates through nav.
func NewRouter(nav Navigator) *Router {
	return &Router{
		nav: nav,
		afterFunc: func(d time.Duration, fn func()) stopper {
			return time.AfterFunc(d, fn)
		},
		pending: map[uint64]stopper{},
	}
}

// Handle schedules the event's navigation, if any. Pass it to
// authflow.OnEvent.
func (r *Router) Handle(ev authflow.Event) {
	if ev.Navigation == nil {
		return
	}
	r.Schedule(*ev.Navigation)
}

// Schedule navigates to n.Route once n.After has elapsed. A zero delay still
// runs asynchronously.
func (r *Router) Schedule(n authflow.Navigation) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped {
		return
	}

	r.nextID++
	id := r.nextID
	r.pending[id] = r.afterFunc(n.After, func() { r.fire(id, n.Route) })
}

func (r *Router) fire(id uint64, route string) {
	r.mu.Lock()
	if _, ok := r.pending[id]; !ok || r.stopped {
		r.mu.Unlock()
		return
	}
	delete(r.pending, id)
	r.mu.Unlock()

	r.nav.Navigate(route)
}

// Go navigates immediately. It backs the links between the login and
// registration views.
func (r *Router) Go(route string) {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return
	}
	r.nav.Navigate(route)
}

// Pending returns the number of scheduled navigations that have not fired.
func (r *Router) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}

// Stop cancels every pending navigation. Later events are ignored.
func (r *Router) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopped = true
	for id, t := range r.pending {
		t.Stop()
		delete(r.pending, id)
	}
}
