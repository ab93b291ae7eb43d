package session

import (
	"fmt"

	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/geom"
)

// PointerTracker folds the discrete pointer events received between two
// ticks into the level and edge state the engine expects per frame. A
// press and release inside one tick are both reported.
type PointerTracker struct {
	cursor   *geom.Vec2
	hovered  bool
	pressed  bool
	down     bool
	released bool
}

// Apply records one pointer event.
func (p *PointerTracker) Apply(ev PointerPayload) error {
	switch ev.Event {
	case "move":
		p.moveTo(ev)
	case "down":
		p.moveTo(ev)
		if !p.pressed {
			p.pressed = true
			p.down = true
		}
	case "up":
		p.moveTo(ev)
		if p.pressed {
			p.pressed = false
			p.released = true
		}
	case "leave":
		p.cursor = nil
		p.hovered = false
	default:
		return fmt.Errorf("unknown pointer event %q", ev.Event)
	}
	return nil
}

func (p *PointerTracker) moveTo(ev PointerPayload) {
	c := geom.V2(ev.X, ev.Y)
	p.cursor = &c
	p.hovered = ev.Hovered
}

// Input returns the state for the coming tick and clears the edges.
func (p *PointerTracker) Input() engine.Input {
	in := engine.Input{
		ViewportHovered: p.hovered,
		Primary: engine.Button{
			Pressed:      p.pressed,
			JustPressed:  p.down,
			JustReleased: p.released,
		},
	}
	if p.cursor != nil {
		c := *p.cursor
		in.Cursor = &c
	}
	p.down = false
	p.released = false
	return in
}
