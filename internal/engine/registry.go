package engine

import (
	"math"

	"github.com/anreonyr/simphy/internal/geom"
)

// Registry holds placed entities in insertion order.
type Registry struct {
	order []*Entity
	byID  map[string]*Entity
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Entity)}
}

func (r *Registry) Add(e *Entity) {
	if _, ok := r.byID[e.ID]; ok {
		r.Remove(e.ID)
	}
	r.order = append(r.order, e)
	r.byID[e.ID] = e
}

// Remove deletes the entity and reports whether it existed.
func (r *Registry) Remove(id string) bool {
	if _, ok := r.byID[id]; !ok {
		return false
	}
	delete(r.byID, id)
	for i, e := range r.order {
		if e.ID == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (*Entity, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *Registry) Len() int { return len(r.order) }

// All returns the entities in insertion order. The slice is shared; callers
// must not modify it.
func (r *Registry) All() []*Entity { return r.order }

func (r *Registry) Clear() {
	r.order = nil
	r.byID = make(map[string]*Entity)
}

// Nearest returns the entity whose position is closest to p and strictly
// within radius. The first entity in insertion order wins a tie.
func (r *Registry) Nearest(p geom.Vec2, radius float64) (*Entity, bool) {
	var (
		best     *Entity
		bestDist = math.Inf(1)
	)
	for _, e := range r.order {
		d := e.Transform.Position().Distance(p)
		if d < radius && d < bestDist {
			best, bestDist = e, d
		}
	}
	return best, best != nil
}
