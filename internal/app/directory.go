package app

import (
	"fmt"
	"sync"

	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
)

const DefaultMaxIDAttempts = 64

// Directory is the authoritative table of active rooms.
// Callers keep room ids, not *core.Room, across operations.
type Directory struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomID]*core.Room
	ids     core.IDGenerator
	storage core.RoomStorage

	MaxIDAttempts int
}

func NewDirectory(ids core.IDGenerator, storage core.RoomStorage) *Directory {
	return &Directory{
		rooms:         make(map[domain.RoomID]*core.Room),
		ids:           ids,
		storage:       storage,
		MaxIDAttempts: DefaultMaxIDAttempts,
	}
}

// Create registers a room with a fresh id, a pending invite for creator and
// its storage area.
func (d *Directory) Create(creator string) (domain.Invitation, error) {
	d.mu.Lock()
	room, err := d.reserve()
	if err != nil {
		d.mu.Unlock()
		return domain.Invitation{}, err
	}
	code, err := room.Invite(creator)
	if err != nil {
		delete(d.rooms, room.ID())
		d.mu.Unlock()
		return domain.Invitation{}, err
	}
	d.mu.Unlock()

	if err := d.storage.EnsureRoom(room.ID()); err != nil {
		d.mu.Lock()
		delete(d.rooms, room.ID())
		d.mu.Unlock()
		return domain.Invitation{}, fmt.Errorf("room storage: %w", err)
	}
	log.Info().Str("module", "app.directory").Str("room", string(room.ID())).Str("creator", creator).Msg("room created")
	return domain.Invitation{Room: room.ID(), Code: code, Username: creator}, nil
}

// reserve picks an unused id. Callers hold mu.
func (d *Directory) reserve() (*core.Room, error) {
	for range d.MaxIDAttempts {
		id := d.ids.RoomID()
		if _, taken := d.rooms[id]; taken {
			log.Debug().Str("module", "app.directory").Str("room", string(id)).Msg("room id collision")
			continue
		}
		room := core.NewRoom(id, d.ids)
		d.rooms[id] = room
		return room, nil
	}
	return nil, domain.ErrRoomIDsExhausted
}

func (d *Directory) Get(id domain.RoomID) (*core.Room, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	room, ok := d.rooms[id]
	return room, ok
}

// Delete removes room and its storage. A room that was already replaced or
// removed is left alone. The id stays reserved until the storage is gone, so
// a room created under the same id never shares a directory with the old one.
func (d *Directory) Delete(room *core.Room) {
	d.mu.RLock()
	current, ok := d.rooms[room.ID()]
	d.mu.RUnlock()
	if !ok || current != room {
		return
	}

	if err := d.storage.DestroyRoom(room.ID()); err != nil {
		log.Error().Err(err).Str("module", "app.directory").Str("room", string(room.ID())).Msg("destroy room storage")
	}

	d.mu.Lock()
	if d.rooms[room.ID()] == room {
		delete(d.rooms, room.ID())
	}
	d.mu.Unlock()
	log.Info().Str("module", "app.directory").Str("room", string(room.ID())).Msg("room deleted")
}

func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.rooms)
}
