package event

import "encoding/json"

// Client to server actions
const (
	EventJoinRoom      = "join_room"
	EventLeaveRoom     = "leave_room"
	EventSendMessage   = "send_message"
	EventEditMessage   = "edit_message"
	EventDeleteMessage = "delete_message"
	EventDrawStroke    = "draw_stroke"
)

// Server to client events
const (
	EventHistorySnapshot = "history_snapshot"
	EventMessageAdded    = "message_added"
	EventMessageEdited   = "message_edited"
	EventMessageDeleted  = "message_deleted"
	EventUserJoined      = "user_joined"
	EventUserLeft        = "user_left"
	EventCanvasUpdated   = "canvas_updated"
	EventError           = "error"
)

// Envelope is the wire frame for inbound actions. The payload stays raw
// until the hub knows which action it is.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Outbound is the wire frame for server-emitted events.
type Outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type JoinRoom struct {
	RoomID string `json:"room_id"`
}

type SendMessage struct {
	Content string `json:"content"`
}

type EditMessage struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type DeleteMessage struct {
	ID string `json:"id"`
}

type DrawStroke struct {
	Data []byte `json:"data"`
}

// Message is the wire view of a chat message. Timestamps are unix
// milliseconds.
type Message struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Content   string `json:"content"`
	CreatedAt int64  `json:"created_at"`
	Edited    bool   `json:"edited,omitempty"`
	EditedAt  int64  `json:"edited_at,omitempty"`
}

type HistorySnapshot struct {
	Messages []Message `json:"messages"`
	Canvas   []byte    `json:"canvas"`
}

type MessageEdited struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	EditedAt int64  `json:"edited_at"`
}

type MessageDeleted struct {
	ID string `json:"id"`
}

type UserJoined struct {
	Identity string `json:"identity"`
}

type UserLeft struct {
	Identity string `json:"identity"`
}

type CanvasUpdated struct {
	Data []byte `json:"data"`
}

// ErrorPayload is the rejection notice sent back to the connection whose
// action failed. It is never broadcast.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
