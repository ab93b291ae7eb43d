package session

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/anreonyr/simphy/internal/engine"
)

const inboxSize = 256

type request struct {
	msg    *Message
	sender *Client
	fn     func(*engine.Engine) error
	result chan error
}

// Room is one editing session. Its engine is owned by the room loop; every
// read or write of the engine goes through the inbox.
type Room struct {
	id        string
	sceneDir  string
	interval  time.Duration
	logger    *slog.Logger
	createdAt time.Time

	// Owned by run.
	engine  *engine.Engine
	pointer PointerTracker

	mu       sync.RWMutex
	clients  map[string]*Client // clientID -> client
	presence *Cursors

	inbox  chan request
	done   chan struct{}
	cancel context.CancelFunc
}

func newRoom(id string, opts Options) *Room {
	eopts := opts.Engine
	eopts.Logger = opts.Logger.With("session", id)
	return &Room{
		id:        id,
		sceneDir:  opts.SceneDir,
		interval:  opts.TickInterval,
		logger:    eopts.Logger,
		createdAt: time.Now(),
		engine:    engine.New(eopts),
		clients:   make(map[string]*Client),
		presence:  newCursors(),
		inbox:     make(chan request, inboxSize),
		done:      make(chan struct{}),
	}
}

func (r *Room) ID() string { return r.id }

// Viewers returns the number of connected clients.
func (r *Room) Viewers() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Done is closed once the room loop has exited.
func (r *Room) Done() <-chan struct{} { return r.done }

func (r *Room) run(ctx context.Context) {
	defer close(r.done)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	dt := r.interval.Seconds()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session stopped")
			return
		case req := <-r.inbox:
			r.handle(req)
		case <-ticker.C:
			r.drain()
			r.engine.Tick(r.pointer.Input(), dt)
			r.broadcastFrame()
		}
	}
}

// drain handles every queued request so a tick sees all input that arrived
// before it.
func (r *Room) drain() {
	for {
		select {
		case req := <-r.inbox:
			r.handle(req)
		default:
			return
		}
	}
}

func (r *Room) handle(req request) {
	if req.fn != nil {
		req.result <- req.fn(r.engine)
		return
	}

	reply, err := r.apply(r.engine, req.msg)
	if err != nil {
		r.logger.Warn("command failed", "type", req.msg.Type, "viewer", req.msg.ViewerID, "error", err)
		if req.sender != nil {
			req.sender.SendError(req.msg.Type, err.Error())
		}
		return
	}
	if reply != nil && req.sender != nil {
		req.sender.Send(reply)
	}
}

func (r *Room) broadcastFrame() {
	if r.Viewers() == 0 {
		return
	}
	frame, err := json.Marshal(r.engine.Frame())
	if err != nil {
		r.logger.Error("marshal frame", "error", err)
		return
	}
	data, err := json.Marshal(&Message{Type: TypeFrame, SessionID: r.id, Payload: frame})
	if err != nil {
		r.logger.Error("marshal frame message", "error", err)
		return
	}
	r.broadcastRaw(data, "")
}

func (r *Room) broadcast(msg *Message, excludeClientID string) {
	data, err := json.Marshal(msg)
	if err != nil {
		r.logger.Error("marshal message", "error", err)
		return
	}
	r.broadcastRaw(data, excludeClientID)
}

func (r *Room) broadcastRaw(data []byte, excludeClientID string) {
	r.mu.RLock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		if c.ClientID != excludeClientID {
			clients = append(clients, c)
		}
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.sendRaw(data)
	}
}

// Do runs fn on the room loop between ticks and returns its error.
func (r *Room) Do(ctx context.Context, fn func(*engine.Engine) error) error {
	req := request{fn: fn, result: make(chan error, 1)}
	if err := r.enqueue(ctx, req); err != nil {
		return err
	}
	select {
	case err := <-req.result:
		return err
	case <-r.done:
		select {
		case err := <-req.result:
			return err
		default:
			return ErrSessionClosed
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// submit queues a client command without waiting for it.
func (r *Room) submit(ctx context.Context, sender *Client, msg *Message) error {
	return r.enqueue(ctx, request{msg: msg, sender: sender})
}

func (r *Room) enqueue(ctx context.Context, req request) error {
	select {
	case <-r.done:
		return ErrSessionClosed
	default:
	}
	select {
	case r.inbox <- req:
		return nil
	case <-r.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}
