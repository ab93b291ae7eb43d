package field

import (
	"log/slog"

	"github.com/anreonyr/simphy/internal/geom"
)

// Bodies is the slice of the physics world the force pass needs. Overlap
// detection belongs to the physics engine; this package only consumes it.
type Bodies interface {
	Overlapping(id string) []string
	Velocity(id string) (geom.Vec2, bool)
	ApplyForce(id string, f geom.Vec2)
}

// Region is a field region as seen by the force pass.
type Region struct {
	ID    string
	Kind  Kind
	Field Field
}

// ChargeFunc returns the charge of a body, or false when it carries none.
type ChargeFunc func(id string) (float64, bool)

// Stats summarizes one Apply call.
type Stats struct {
	Applied    int
	Degenerate int
}

// Engine applies field forces once per physics step, before integration.
type Engine struct {
	logger *slog.Logger
}

func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply runs the magnetic pass over every magnetic region and then the
// electric pass. Forces are additive and are consumed by the next step.
func (e *Engine) Apply(regions []Region, charge ChargeFunc, bodies Bodies) Stats {
	var stats Stats
	for _, kind := range [...]Kind{Magnetic, Electric} {
		for _, r := range regions {
			if r.Kind != kind {
				continue
			}
			e.applyRegion(r, charge, bodies, &stats)
		}
	}
	return stats
}

func (e *Engine) applyRegion(r Region, charge ChargeFunc, bodies Bodies, stats *Stats) {
	overlapping := bodies.Overlapping(r.ID)
	if len(overlapping) == 0 {
		return
	}
	if r.Field.Degenerate() {
		stats.Degenerate++
		e.logger.Debug("skipping field region with zero direction", "region", r.ID, "kind", r.Kind.String())
		return
	}

	for _, id := range overlapping {
		q, ok := charge(id)
		if !ok {
			continue
		}
		var f geom.Vec2
		switch r.Kind {
		case Magnetic:
			v, ok := bodies.Velocity(id)
			if !ok {
				continue
			}
			f = MagneticForce(r.Field, q, v)
		case Electric:
			f = ElectricForce(r.Field, q)
		default:
			continue
		}
		bodies.ApplyForce(id, f)
		stats.Applied++
	}
}
