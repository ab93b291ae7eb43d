package session

import (
	"fmt"
	"sync"

	"github.com/anreonyr/simphy/internal/geom"
)

// Cursors tracks each viewer's pointer in world space so the other viewers
// of a session can draw it.
type Cursors struct {
	mu      sync.RWMutex
	viewers map[string]PresencePayload // viewerID -> last report
}

func newCursors() *Cursors {
	return &Cursors{viewers: make(map[string]PresencePayload)}
}

// Set records the viewer's presence. A non-finite cursor is rejected and
// the previous report kept.
func (c *Cursors) Set(viewerID string, p PresencePayload) error {
	if p.Cursor != nil {
		if !geom.V2(p.Cursor.X, p.Cursor.Y).IsFinite() {
			return fmt.Errorf("invalid cursor position (%v, %v)", p.Cursor.X, p.Cursor.Y)
		}
		pos := *p.Cursor
		p.Cursor = &pos
	}
	c.mu.Lock()
	c.viewers[viewerID] = p
	c.mu.Unlock()
	return nil
}

func (c *Cursors) Forget(viewerID string) {
	c.mu.Lock()
	delete(c.viewers, viewerID)
	c.mu.Unlock()
}

func (c *Cursors) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.viewers)
}

// stateMessage is the presence.state snapshot sent to a joining viewer.
func (c *Cursors) stateMessage() (*Message, error) {
	c.mu.RLock()
	presences := make(map[string]PresencePayload, len(c.viewers))
	for id, p := range c.viewers {
		presences[id] = p
	}
	c.mu.RUnlock()
	return newMessage(TypePresenceState, PresenceStatePayload{Presences: presences})
}
