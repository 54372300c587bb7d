// Package registry holds the ordered, bounded set of neighbours known to a
// mesh node.
package registry

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/danmuck/mqmesh/internal/identity"
)

// DefaultLimit is the neighbour bound used when none is configured.
const DefaultLimit = 5

var (
	ErrCapacity  = errors.New("registry: neighbour limit reached")
	ErrDuplicate = errors.New("registry: neighbour already known")
	ErrInvalidID = errors.New("registry: invalid neighbour id")
)

// Registry keeps neighbours in discovery order. Entries are unique; the
// size never exceeds the limit.
type Registry struct {
	mu    sync.RWMutex
	ids   []identity.ID
	limit int
}

func New(limit int) *Registry {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Registry{
		ids:   make([]identity.ID, 0, limit),
		limit: limit,
	}
}

// Add appends id. A rejected add leaves the registry unchanged.
func (r *Registry) Add(id identity.ID) error {
	if id.IsNone() {
		return ErrInvalidID
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.ids, id) {
		return fmt.Errorf("%w: %s", ErrDuplicate, id)
	}
	if len(r.ids) >= r.limit {
		return fmt.Errorf("%w: limit=%d rejected=%s", ErrCapacity, r.limit, id)
	}
	r.ids = append(r.ids, id)
	return nil
}

// Remove drops the first occurrence of id and keeps the rest in order.
// It reports whether anything was removed.
func (r *Registry) Remove(id identity.ID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.ids, id)
	if i < 0 {
		return false
	}
	r.ids = slices.Delete(r.ids, i, i+1)
	return true
}

func (r *Registry) Contains(id identity.ID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.ids, id)
}

// Snapshot returns a copy safe to iterate while the registry changes.
func (r *Registry) Snapshot() []identity.ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.ids)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ids)
}

func (r *Registry) Limit() int {
	return r.limit
}

// Format renders the console listing of neighbours.
func (r *Registry) Format() string {
	ids := r.Snapshot()
	var b strings.Builder
	b.WriteString("My neighbours:\n")
	for i, id := range ids {
		fmt.Fprintf(&b, "%d. [%s]\n", i+1, id)
	}
	return b.String()
}
