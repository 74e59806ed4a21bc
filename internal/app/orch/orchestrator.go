// Package orch applies membership and upload operations to the room
// directory and notifies peers.
package orch

import (
	"github.com/dkeye/Share/internal/app"
	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
)

type Orchestrator struct {
	Rooms    *app.Directory
	Registry *app.Registry
	Events   core.Broadcaster
	Storage  core.RoomStorage
}

func New(rooms *app.Directory, reg *app.Registry, events core.Broadcaster, storage core.RoomStorage) *Orchestrator {
	return &Orchestrator{
		Rooms:    rooms,
		Registry: reg,
		Events:   events,
		Storage:  storage,
	}
}

// RoomExists reports whether id names an active room. Room contents are
// only ever revealed to members, over their session.
func (o *Orchestrator) RoomExists(id domain.RoomID) bool {
	_, ok := o.live(id)
	return ok
}

// live looks up a room that has not been torn down.
func (o *Orchestrator) live(id domain.RoomID) (*core.Room, bool) {
	room, ok := o.Rooms.Get(id)
	if !ok || room.Closed() {
		return nil, false
	}
	return room, true
}
