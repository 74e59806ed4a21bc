package orch

import (
	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
)

// CreateRoom opens a room and returns the creator's connection code.
// The creator becomes a member only once they connect.
func (o *Orchestrator) CreateRoom(username string) (domain.Invitation, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return domain.Invitation{}, err
	}
	return o.Rooms.Create(username)
}

// JoinRequest issues a connection code for username in an existing room.
func (o *Orchestrator) JoinRequest(id domain.RoomID, username string) (domain.Invitation, error) {
	username, err := domain.NormalizeUsername(username)
	if err != nil {
		return domain.Invitation{}, err
	}
	room, ok := o.Rooms.Get(id)
	if !ok {
		return domain.Invitation{}, domain.ErrRoomNotFound
	}
	code, err := room.Invite(username)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("room", string(id)).Str("username", username).Msg("join rejected")
		return domain.Invitation{}, err
	}
	log.Info().Str("module", "orch").Str("room", string(id)).Str("username", username).Msg("join request accepted")
	return domain.Invitation{Room: id, Code: code, Username: username}, nil
}

// Connect redeems code, binds conn to the new member, hands it the room-data
// snapshot and tells the room. The snapshot is also returned.
// The room-data frame and the binding happen inside the redeem, so every file
// reaches the session either in the snapshot or as a later file-upload, and
// room-data is always its first frame.
func (o *Orchestrator) Connect(id domain.RoomID, code string, conn core.SignalConnection) (domain.RoomData, error) {
	room, ok := o.Rooms.Get(id)
	if !ok {
		return domain.RoomData{}, domain.ErrRoomNotFound
	}
	member, data, err := room.Redeem(code, func(m domain.Member, data domain.RoomData) {
		if err := o.Events.Send(conn, core.EventRoomData, data); err != nil {
			log.Warn().Err(err).Str("module", "orch").Str("room", string(id)).Str("username", m.Username).Msg("room-data not delivered")
		}
		o.Registry.Bind(id, m.Username, conn)
	})
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("room", string(id)).Msg("connect rejected")
		return domain.RoomData{}, err
	}
	o.Events.Broadcast(id, core.EventNewUser, member.Username)
	log.Info().Str("module", "orch").Str("room", string(id)).Str("username", member.Username).Msg("connected")
	return data, nil
}

// Disconnect removes username from the room and tears the room down when it
// was the last member. Unknown rooms and members are ignored.
func (o *Orchestrator) Disconnect(id domain.RoomID, username string) {
	o.Registry.Unbind(id, username, nil)
	room, ok := o.Rooms.Get(id)
	if !ok {
		return
	}
	removed, teardown := room.Remove(username)
	if !removed {
		return
	}
	o.Events.Broadcast(id, core.EventUserDisconnected, username)
	log.Info().Str("module", "orch").Str("room", string(id)).Str("username", username).Msg("disconnected")

	if teardown {
		o.teardown(room)
	}
}

// DisconnectSession is Disconnect for transports that may outlive their
// binding: it does nothing unless conn is still the one bound to username.
func (o *Orchestrator) DisconnectSession(id domain.RoomID, username string, conn core.SignalConnection) {
	if !o.Registry.Unbind(id, username, conn) {
		if _, bound := o.Registry.Session(id, username); bound {
			return
		}
	}
	o.Disconnect(id, username)
}

// teardown drops the room's sessions while its id is still reserved, so a
// room created later under the same id keeps its own bindings.
func (o *Orchestrator) teardown(room *core.Room) {
	o.Registry.DropRoom(room.ID())
	o.Rooms.Delete(room)
	log.Info().Str("module", "orch").Str("room", string(room.ID())).Msg("room torn down")
}
