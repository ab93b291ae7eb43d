package engine

import (
	"fmt"
	"math"

	"github.com/anreonyr/simphy/internal/field"
	"github.com/anreonyr/simphy/internal/geom"
)

// TimeScales are the speeds the toolbar offers. SetTimeScale accepts any
// positive value.
var TimeScales = []float64{0.25, 0.5, 1, 2}

type simulation struct {
	running   bool
	timeScale float64
	steps     uint64
	last      field.Stats
}

func newSimulation() simulation {
	return simulation{timeScale: 1}
}

// --- Commands ---

// Play starts stepping the physics world on Tick.
func (e *Engine) Play() {
	if e.sim.running {
		return
	}
	e.sim.running = true
	e.logger.Debug("simulation started", "timeScale", e.sim.timeScale)
}

// Pause stops stepping. Entities keep their current state.
func (e *Engine) Pause() {
	if !e.sim.running {
		return
	}
	e.sim.running = false
	e.logger.Debug("simulation paused", "steps", e.sim.steps)
}

// Toggle flips between playing and paused and reports the new state.
func (e *Engine) Toggle() bool {
	if e.sim.running {
		e.Pause()
	} else {
		e.Play()
	}
	return e.sim.running
}

func (e *Engine) SetTimeScale(s float64) error {
	if math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return fmt.Errorf("time scale must be positive, got %v", s)
	}
	e.sim.timeScale = s
	return nil
}

// Reset pauses the simulation and returns every entity to the transform and
// velocity it had when it was placed or loaded.
func (e *Engine) Reset() {
	e.sim.running = false
	e.sim.steps = 0
	e.sim.last = field.Stats{}
	for _, ent := range e.entities.All() {
		ent.Transform = ent.Initial.Transform
		e.world.SetPosition(ent.ID, ent.Transform.Position())
		e.world.SetAngle(ent.ID, ent.Transform.Rotation)
		e.world.SetVelocity(ent.ID, ent.Initial.Velocity)
	}
	e.endDrag()
	e.refreshSelection()
	e.logger.Debug("simulation reset", "entities", e.entities.Len())
}

// Tick runs one frame: input handling, then, while playing, field forces,
// constant forces and one physics step of dt scaled by the time scale.
func (e *Engine) Tick(in Input, dt float64) {
	e.HandleInput(in)
	if !e.sim.running || !(dt > 0) {
		return
	}

	e.sim.last = e.forces.Apply(e.regions(), e.chargeOf, e.world)
	for _, ent := range e.entities.All() {
		if p := ent.Particle(); p != nil && p.ConstantForce != (geom.Vec2{}) {
			e.world.ApplyForce(ent.ID, p.ConstantForce)
		}
	}
	e.world.Step(dt * e.sim.timeScale)
	e.sim.steps++

	e.syncTransforms()
	e.refreshSelection()
}

// --- Queries ---

func (e *Engine) IsRunning() bool { return e.sim.running }

func (e *Engine) TimeScale() float64 { return e.sim.timeScale }

// Steps is the number of physics steps since the last reset.
func (e *Engine) Steps() uint64 { return e.sim.steps }

// FieldStats reports the force pass of the last step.
func (e *Engine) FieldStats() field.Stats { return e.sim.last }

// --- Internal helpers ---

func (e *Engine) regions() []field.Region {
	var out []field.Region
	for _, ent := range e.entities.All() {
		if r := ent.Region(); r != nil {
			out = append(out, field.Region{ID: ent.ID, Kind: r.Kind, Field: r.Field})
		}
	}
	return out
}

func (e *Engine) chargeOf(id string) (float64, bool) {
	ent, ok := e.entities.Get(id)
	if !ok {
		return 0, false
	}
	p := ent.Particle()
	if p == nil || p.Charge == nil {
		return 0, false
	}
	return *p.Charge, true
}

// syncTransforms copies the simulated pose of every particle back onto its
// entity. Field regions never move.
func (e *Engine) syncTransforms() {
	for _, ent := range e.entities.All() {
		if ent.Region() != nil {
			continue
		}
		if pos, ok := e.world.Position(ent.ID); ok {
			ent.Transform.SetPosition(pos)
		}
		if a, ok := e.world.Angle(ent.ID); ok {
			ent.Transform.Rotation = a
		}
	}
}
