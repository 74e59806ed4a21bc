package core

import (
	"slices"
	"sync"

	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
)

// Room is the threadsafe membership state of one room.
// Every read-then-write runs under mu; it never touches transport resources.
type Room struct {
	id  domain.RoomID
	ids IDGenerator

	mu      sync.Mutex
	members map[string]*domain.Member
	byToken map[string]string
	invites map[string]string
	files   []domain.FileRecord
	joined  bool
	closed  bool
}

func NewRoom(id domain.RoomID, ids IDGenerator) *Room {
	return &Room{
		id:      id,
		ids:     ids,
		members: make(map[string]*domain.Member),
		byToken: make(map[string]string),
		invites: make(map[string]string),
	}
}

func (r *Room) ID() domain.RoomID { return r.id }

// Invite registers a pending connection code for username.
func (r *Room) Invite(username string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", domain.ErrRoomNotFound
	}
	if r.nameInUse(username) {
		return "", domain.ErrUsernameTaken
	}
	code := r.ids.Opaque()
	for _, dup := r.invites[code]; dup; _, dup = r.invites[code] {
		code = r.ids.Opaque()
	}
	r.invites[code] = username
	log.Debug().Str("module", "core.room").Str("room", string(r.id)).Str("username", username).Msg("invite issued")
	return code, nil
}

// Redeem consumes code and turns its holder into a member. When admit is
// non-nil it runs under the room lock with the new member and its snapshot,
// so nothing appended after the snapshot can slip past a session bound there.
// admit must not call back into the room.
func (r *Room) Redeem(code string, admit func(domain.Member, domain.RoomData)) (domain.Member, domain.RoomData, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.Member{}, domain.RoomData{}, domain.ErrRoomNotFound
	}
	username, ok := r.invites[code]
	if !ok {
		return domain.Member{}, domain.RoomData{}, domain.ErrInvalidCode
	}
	delete(r.invites, code)

	token := r.ids.Opaque()
	for _, dup := r.byToken[token]; dup; _, dup = r.byToken[token] {
		token = r.ids.Opaque()
	}
	m := &domain.Member{Username: username, UploadToken: token}
	r.members[username] = m
	r.byToken[token] = username
	r.joined = true
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("username", username).Msg("member added")

	data := domain.RoomData{
		ID:          r.id,
		Files:       r.fileList(),
		Users:       r.usernames(),
		UploadToken: token,
		Username:    username,
	}
	if admit != nil {
		admit(*m, data)
	}
	return *m, data, nil
}

// Remove drops username from the room. teardown is reported exactly once,
// when the last member leaves a room that has had members.
func (r *Room) Remove(username string) (removed, teardown bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.members[username]
	if !ok {
		return false, false
	}
	delete(r.members, username)
	delete(r.byToken, m.UploadToken)
	log.Info().Str("module", "core.room").Str("room", string(r.id)).Str("username", username).Msg("member removed")

	if len(r.members) == 0 && r.joined && !r.closed {
		r.closed = true
		return true, true
	}
	return true, false
}

// Uploader resolves an upload token to its owner.
func (r *Room) Uploader(token string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", domain.ErrRoomNotFound
	}
	username, ok := r.byToken[token]
	if !ok {
		return "", domain.ErrInvalidToken
	}
	return username, nil
}

func (r *Room) AppendFile(rec domain.FileRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return domain.ErrRoomNotFound
	}
	r.files = append(r.files, rec)
	return nil
}

func (r *Room) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}

func (r *Room) MemberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.members)
}

func (r *Room) Info() domain.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.RoomInfo{
		ID:      r.id,
		Members: r.usernames(),
		Files:   r.fileList(),
	}
}

func (r *Room) nameInUse(username string) bool {
	if _, ok := r.members[username]; ok {
		return true
	}
	for _, invited := range r.invites {
		if invited == username {
			return true
		}
	}
	return false
}

// usernames is sorted so snapshots are stable. Callers hold mu.
func (r *Room) usernames() []string {
	out := make([]string, 0, len(r.members))
	for name := range r.members {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// fileList copies files, never returning nil so JSON renders [].
func (r *Room) fileList() []domain.FileRecord {
	return append(make([]domain.FileRecord, 0, len(r.files)), r.files...)
}
