package core

import (
	"io"

	"github.com/dkeye/Share/internal/domain"
)

// Frame is a raw payload pushed to a client session.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// IDGenerator yields identifiers. RoomID values are short and human
// presentable, Opaque values are used for connection codes and upload tokens.
type IDGenerator interface {
	RoomID() domain.RoomID
	Opaque() string
}

// RoomStorage owns the per-room file area.
type RoomStorage interface {
	EnsureRoom(id domain.RoomID) error
	DestroyRoom(id domain.RoomID) error
	// PersistUpload stores body under the room area and returns the public path.
	PersistUpload(id domain.RoomID, fileName string, body io.Reader) (string, error)
}

// Event names delivered to client sessions.
const (
	EventNewUser          = "new-user"
	EventUserDisconnected = "user-disconnected"
	EventFileUpload       = "file-upload"
	EventRoomData         = "room-data"
	EventUsernameTaken    = "username-taken"
)

// Broadcaster fans an event out to every live session of a room and returns
// the number of sessions it was handed to. Send targets one session.
type Broadcaster interface {
	Broadcast(room domain.RoomID, event string, payload any) int
	Send(conn SignalConnection, event string, payload any) error
}
