package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/typeid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionClosed   = errors.New("session closed")
	ErrPathOutsideRoot = errors.New("path outside scene directory")
)

// Options configures every room the hub creates.
type Options struct {
	Engine       engine.Options
	TickInterval time.Duration
	SceneDir     string
	Logger       *slog.Logger
}

// Info describes a live session.
type Info struct {
	ID        string    `json:"id"`
	Viewers   int       `json:"viewers"`
	CreatedAt time.Time `json:"createdAt"`
}

type Hub struct {
	opts Options

	mu         sync.RWMutex
	rooms      map[string]*Room // sessionID -> room
	register   chan *Client
	unregister chan *Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewHub(opts Options) *Hub {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second / 60
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		opts:       opts,
		rooms:      make(map[string]*Room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-h.ctx.Done():
			return
		}
	}
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		client.closeSend()
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// Create starts a new session with an empty scene.
func (h *Hub) Create() *Room {
	id := typeid.NewSessionID()
	room := newRoom(id, h.opts)
	ctx, cancel := context.WithCancel(h.ctx)
	room.cancel = cancel

	h.mu.Lock()
	h.rooms[id] = room
	h.mu.Unlock()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		room.run(ctx)
	}()

	h.opts.Logger.Info("session created", "session", id)
	return room
}

func (h *Hub) Get(id string) (*Room, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.rooms[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return room, nil
}

// Do runs fn on the session's loop. See Room.Do.
func (h *Hub) Do(ctx context.Context, id string, fn func(*engine.Engine) error) error {
	room, err := h.Get(id)
	if err != nil {
		return err
	}
	return room.Do(ctx, fn)
}

// List returns the live sessions, oldest first.
func (h *Hub) List() []Info {
	h.mu.RLock()
	rooms := make([]*Room, 0, len(h.rooms))
	for _, r := range h.rooms {
		rooms = append(rooms, r)
	}
	h.mu.RUnlock()

	out := make([]Info, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, Info{ID: r.id, Viewers: r.Viewers(), CreatedAt: r.createdAt})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Close stops the session and disconnects its viewers.
func (h *Hub) Close(id string) error {
	h.mu.Lock()
	room, ok := h.rooms[id]
	if ok {
		delete(h.rooms, id)
	}
	h.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	room.cancel()
	<-room.done

	room.mu.Lock()
	for _, c := range room.clients {
		c.closeSend()
	}
	room.clients = make(map[string]*Client)
	room.mu.Unlock()
	return nil
}

// Stop closes every session and waits for their loops to exit.
func (h *Hub) Stop() {
	h.mu.RLock()
	ids := make([]string, 0, len(h.rooms))
	for id := range h.rooms {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	for _, id := range ids {
		_ = h.Close(id)
	}
	h.cancel()
	h.wg.Wait()
}

func (h *Hub) addClient(client *Client) {
	room, err := h.Get(client.SessionID)
	if err != nil {
		client.SendError("", err.Error())
		client.closeSend()
		return
	}

	room.mu.Lock()
	room.clients[client.ClientID] = client
	room.mu.Unlock()

	welcome, err := newMessage(TypeWelcome, WelcomePayload{
		SessionID: room.id,
		ClientID:  client.ClientID,
		ViewerID:  client.ViewerID,
	})
	if err == nil {
		client.Send(welcome)
	}

	// Send current presence state to new client
	if stateMsg, err := room.presence.stateMessage(); err == nil {
		client.Send(stateMsg)
	}

	// Broadcast join to other clients
	joinMsg, err := newMessage(TypePresenceJoin, PresenceJoinPayload{
		ViewerID:    client.ViewerID,
		DisplayName: client.DisplayName,
	})
	if err == nil {
		joinMsg.ViewerID = client.ViewerID
		room.broadcast(joinMsg, client.ClientID)
	}

	room.logger.Info("viewer joined", "viewer", client.ViewerID, "client", client.ClientID)
}

func (h *Hub) removeClient(client *Client) {
	client.closeSend()

	room, err := h.Get(client.SessionID)
	if err != nil {
		return
	}

	room.mu.Lock()
	_, ok := room.clients[client.ClientID]
	delete(room.clients, client.ClientID)
	room.mu.Unlock()
	if !ok {
		return
	}
	room.presence.Forget(client.ViewerID)

	// Broadcast leave to remaining clients
	leaveMsg, err := newMessage(TypePresenceLeave, PresenceLeavePayload{ViewerID: client.ViewerID})
	if err == nil {
		leaveMsg.ViewerID = client.ViewerID
		room.broadcast(leaveMsg, "")
	}

	room.logger.Info("viewer left", "viewer", client.ViewerID, "client", client.ClientID)
}

func (h *Hub) handleMessage(ctx context.Context, sender *Client, msg *Message) {
	room, err := h.Get(sender.SessionID)
	if err != nil {
		sender.SendError(msg.Type, err.Error())
		return
	}

	if msg.Type == TypePresenceUpdate {
		h.handlePresenceUpdate(room, sender, msg)
		return
	}
	if err := room.submit(ctx, sender, msg); err != nil {
		sender.SendError(msg.Type, err.Error())
	}
}

func (h *Hub) handlePresenceUpdate(room *Room, sender *Client, msg *Message) {
	var presence PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		slog.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName
	if err := room.presence.Set(sender.ViewerID, presence); err != nil {
		sender.SendError(msg.Type, err.Error())
		return
	}

	// Broadcast to other clients in room
	outMsg, err := newMessage(TypePresenceUpdate, presence)
	if err != nil {
		return
	}
	outMsg.ViewerID = sender.ViewerID
	room.broadcast(outMsg, sender.ClientID)
}
