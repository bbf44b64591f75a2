// Package notify holds armed notification requests and delivers them when
// their wall-clock fire time comes around.
//
// Requests use time-of-day semantics: arming 05:10 fires at the next clock
// occurrence of 05:10, whichever calendar day that lands on. Re-arming with
// the same ID replaces the pending request, so periodic re-arming is
// idempotent.
package notify

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Deliverer sends a single notification to the user.
type Deliverer interface {
	Deliver(title, body string) error
}

// Request is one armed notification.
type Request struct {
	ID     string
	FireAt time.Time
	Title  string
	Body   string
}

// Registry is the set of pending notification requests.
type Registry struct {
	mu        sync.Mutex
	pending   map[string]Request
	deliverer Deliverer
	log       zerolog.Logger
}

// NewRegistry creates an empty registry delivering through d.
func NewRegistry(d Deliverer, log zerolog.Logger) *Registry {
	return &Registry{
		pending:   make(map[string]Request),
		deliverer: d,
		log:       log,
	}
}

// ClearAll drops every pending request.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = make(map[string]Request)
}

// Arm registers a request that fires at the next wall-clock occurrence of
// fireAt's time of day, counted from now. An existing request with the same
// ID is replaced.
func (r *Registry) Arm(id string, fireAt time.Time, title, body string, now time.Time) {
	occ := time.Date(now.Year(), now.Month(), now.Day(),
		fireAt.Hour(), fireAt.Minute(), fireAt.Second(), 0, now.Location())
	if occ.Before(now) {
		occ = occ.AddDate(0, 0, 1)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending[id] = Request{ID: id, FireAt: occ, Title: title, Body: body}
}

// DispatchDue delivers every request whose fire time has been reached and
// removes it from the registry. Delivery failures are logged; a failed
// request is still consumed so it cannot fire again.
func (r *Registry) DispatchDue(now time.Time) {
	r.mu.Lock()
	var due []Request
	for id, req := range r.pending {
		if !req.FireAt.After(now) {
			due = append(due, req)
			delete(r.pending, id)
		}
	}
	r.mu.Unlock()

	sort.Slice(due, func(i, j int) bool { return due[i].FireAt.Before(due[j].FireAt) })

	for _, req := range due {
		if err := r.deliverer.Deliver(req.Title, req.Body); err != nil {
			r.log.Error().Err(err).Str("id", req.ID).Msg("notification delivery failed")
		} else {
			r.log.Debug().Str("id", req.ID).Time("at", req.FireAt).Msg("notification delivered")
		}
	}
}

// Pending returns a snapshot of the armed requests, sorted by fire time.
func (r *Registry) Pending() []Request {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Request, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out
}
