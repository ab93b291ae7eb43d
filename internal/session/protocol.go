package session

import "encoding/json"

type Message struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
	ViewerID  string          `json:"viewerId,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

const (
	// Connection
	TypeWelcome = "welcome"
	TypeError   = "error"

	// Pointer and editing
	TypePointer        = "pointer"
	TypeToolSet        = "tool.set"
	TypeTemplateUpdate = "template.update"
	TypeSelectionEdit  = "selection.edit"
	TypeEditDelete     = "edit.delete"
	TypeEditDuplicate  = "edit.duplicate"

	// Scene document
	TypeSceneNew    = "scene.new"
	TypeSceneSample = "scene.sample"
	TypeSceneOpen   = "scene.open"
	TypeSceneSave   = "scene.save"
	TypeSceneSaveAs = "scene.saveAs"
	TypeSceneStatus = "scene.status"

	// Simulation
	TypeSimPlay      = "sim.play"
	TypeSimPause     = "sim.pause"
	TypeSimReset     = "sim.reset"
	TypeSimTimeScale = "sim.timeScale"

	// Frame broadcast
	TypeFrame = "frame"

	// Presence
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
)

type WelcomePayload struct {
	SessionID string `json:"sessionId"`
	ClientID  string `json:"clientId"`
	ViewerID  string `json:"viewerId"`
}

type ErrorPayload struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

// PointerPayload is one pointer event in world coordinates. Event is
// "down", "up", "move" or "leave". Hovered is false while UI chrome has
// the pointer.
type PointerPayload struct {
	Event   string  `json:"event"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Hovered bool    `json:"hovered"`
}

type ToolPayload struct {
	Tool string `json:"tool"`
}

// PathPayload names a scene file relative to the server's scene directory.
type PathPayload struct {
	Path string `json:"path"`
}

type TimeScalePayload struct {
	Scale float64 `json:"scale"`
}

// StatusPayload reports the document after a scene command.
type StatusPayload struct {
	Title    string `json:"title"`
	Path     string `json:"path,omitempty"`
	Dirty    bool   `json:"dirty"`
	Entities int    `json:"entities"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	ViewerID string `json:"viewerId"`
}

func newMessage(typ string, payload any) (*Message, error) {
	msg := &Message{Type: typ}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	msg.Payload = data
	return msg, nil
}
