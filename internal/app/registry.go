package app

import (
	"sync"

	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
)

// Registry maps room members to their live connections. It carries no
// membership rules; the room state decides who is a member.
type Registry struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]map[string]core.SignalConnection
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[domain.RoomID]map[string]core.SignalConnection),
	}
}

func (r *Registry) Bind(room domain.RoomID, username string, conn core.SignalConnection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions, ok := r.rooms[room]
	if !ok {
		sessions = make(map[string]core.SignalConnection)
		r.rooms[room] = sessions
	}
	sessions[username] = conn
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("username", username).Msg("bound session")
}

// Unbind removes the session of username. When conn is not nil it must be
// the bound connection, so a stale close cannot unbind a newer session.
func (r *Registry) Unbind(room domain.RoomID, username string, conn core.SignalConnection) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	sessions, ok := r.rooms[room]
	if !ok {
		return false
	}
	bound, ok := sessions[username]
	if !ok || (conn != nil && bound != conn) {
		return false
	}
	delete(sessions, username)
	if len(sessions) == 0 {
		delete(r.rooms, room)
	}
	log.Info().Str("module", "app.registry").Str("room", string(room)).Str("username", username).Msg("unbind session")
	return true
}

func (r *Registry) Session(room domain.RoomID, username string) (core.SignalConnection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.rooms[room][username]
	return conn, ok
}

type regSnap struct {
	Username string
	Conn     core.SignalConnection
}

func (r *Registry) SessionsOf(room domain.RoomID) []regSnap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sessions := r.rooms[room]
	out := make([]regSnap, 0, len(sessions))
	for name, conn := range sessions {
		out = append(out, regSnap{Username: name, Conn: conn})
	}
	return out
}

func (r *Registry) DropRoom(room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, room)
	log.Info().Str("module", "app.registry").Str("room", string(room)).Msg("dropped room sessions")
}

// Count returns the number of bound sessions across all rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, sessions := range r.rooms {
		n += len(sessions)
	}
	return n
}
