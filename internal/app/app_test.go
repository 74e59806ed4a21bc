package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedIDs struct {
	mu    sync.Mutex
	rooms []domain.RoomID
	n     int
}

func (s *scriptedIDs) RoomID() domain.RoomID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rooms) == 0 {
		return "ZZZZ"
	}
	id := s.rooms[0]
	s.rooms = s.rooms[1:]
	return id
}

func (s *scriptedIDs) Opaque() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("op-%d", s.n)
}

type memStorage struct {
	mu        sync.Mutex
	rooms     map[domain.RoomID]bool
	destroyed int
	failNext  error

	// when set, DestroyRoom closes entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newMemStorage() *memStorage { return &memStorage{rooms: make(map[domain.RoomID]bool)} }

func (m *memStorage) EnsureRoom(id domain.RoomID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return err
	}
	m.rooms[id] = true
	return nil
}

func (m *memStorage) DestroyRoom(id domain.RoomID) error {
	if m.entered != nil {
		close(m.entered)
		<-m.release
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.rooms, id)
	m.destroyed++
	return nil
}

func (m *memStorage) has(id domain.RoomID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rooms[id]
}

func (m *memStorage) PersistUpload(id domain.RoomID, name string, _ io.Reader) (string, error) {
	return "/uploads/" + string(id) + "/" + name, nil
}

type recConn struct {
	mu     sync.Mutex
	frames []Envelope
	err    error
	closed bool
}

func (c *recConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	var env Envelope
	if err := json.Unmarshal(f, &env); err != nil {
		return err
	}
	c.frames = append(c.frames, env)
	return nil
}

func (c *recConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *recConn) types() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.frames))
	for _, f := range c.frames {
		out = append(out, f.Type)
	}
	return out
}

type panicConn struct{}

func (panicConn) TrySend(core.Frame) error { panic("boom") }
func (panicConn) Close()                   {}

func TestDirectory_CreateRetriesOnCollision(t *testing.T) {
	ids := &scriptedIDs{rooms: []domain.RoomID{"AAAA", "AAAA", "AAAA", "BBBB"}}
	d := NewDirectory(ids, newMemStorage())

	first, err := d.Create("alice")
	require.NoError(t, err)
	second, err := d.Create("bob")
	require.NoError(t, err)

	assert.Equal(t, domain.RoomID("AAAA"), first.Room)
	assert.Equal(t, domain.RoomID("BBBB"), second.Room)
	assert.Equal(t, 2, d.Len())
}

func TestDirectory_CreateGivesUpAfterMaxAttempts(t *testing.T) {
	ids := &scriptedIDs{}
	d := NewDirectory(ids, newMemStorage())
	d.MaxIDAttempts = 3

	_, err := d.Create("alice")
	require.NoError(t, err)
	_, err = d.Create("bob")
	assert.ErrorIs(t, err, domain.ErrRoomIDsExhausted)
	assert.Equal(t, 1, d.Len())
}

func TestDirectory_CreateRollsBackOnStorageFailure(t *testing.T) {
	st := newMemStorage()
	st.failNext = errors.New("disk full")
	d := NewDirectory(&scriptedIDs{rooms: []domain.RoomID{"AAAA"}}, st)

	_, err := d.Create("alice")
	require.Error(t, err)
	_, ok := d.Get("AAAA")
	assert.False(t, ok)
}

func TestDirectory_DeleteIgnoresStaleRoom(t *testing.T) {
	st := newMemStorage()
	d := NewDirectory(&scriptedIDs{rooms: []domain.RoomID{"AAAA"}}, st)
	inv, err := d.Create("alice")
	require.NoError(t, err)

	stale := core.NewRoom(inv.Room, &scriptedIDs{})
	d.Delete(stale)
	_, ok := d.Get(inv.Room)
	assert.True(t, ok)
	assert.Equal(t, 0, st.destroyed)

	room, _ := d.Get(inv.Room)
	d.Delete(room)
	d.Delete(room)
	_, ok = d.Get(inv.Room)
	assert.False(t, ok)
	assert.Equal(t, 1, st.destroyed)
	assert.False(t, st.rooms[inv.Room])
}

func TestDirectory_IDReservedUntilStorageDestroyed(t *testing.T) {
	st := newMemStorage()
	d := NewDirectory(&scriptedIDs{}, st)
	d.MaxIDAttempts = 2

	inv, err := d.Create("alice")
	require.NoError(t, err)
	require.Equal(t, domain.RoomID("ZZZZ"), inv.Room)
	room, _ := d.Get(inv.Room)

	st.entered = make(chan struct{})
	st.release = make(chan struct{})
	deleted := make(chan struct{})
	go func() {
		d.Delete(room)
		close(deleted)
	}()
	<-st.entered

	// storage teardown in flight: the id must not be handed out again
	_, err = d.Create("bob")
	assert.ErrorIs(t, err, domain.ErrRoomIDsExhausted)

	close(st.release)
	<-deleted

	again, err := d.Create("bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("ZZZZ"), again.Room)
	assert.True(t, st.has("ZZZZ"), "new room storage must survive the old teardown")
	fresh, ok := d.Get("ZZZZ")
	require.True(t, ok)
	assert.NotSame(t, room, fresh)
}

func TestRegistry_UnbindChecksConnection(t *testing.T) {
	reg := NewRegistry()
	old, cur := &recConn{}, &recConn{}
	reg.Bind("AAAA", "alice", old)
	reg.Bind("AAAA", "alice", cur)

	assert.False(t, reg.Unbind("AAAA", "alice", old))
	got, ok := reg.Session("AAAA", "alice")
	require.True(t, ok)
	assert.Same(t, cur, got)

	assert.True(t, reg.Unbind("AAAA", "alice", cur))
	assert.Equal(t, 0, reg.Count())
	assert.False(t, reg.Unbind("AAAA", "alice", nil))
}

func TestBroadcaster_DeliversToEveryone(t *testing.T) {
	reg := NewRegistry()
	a, b := &recConn{}, &recConn{}
	other := &recConn{}
	reg.Bind("AAAA", "alice", a)
	reg.Bind("AAAA", "bob", b)
	reg.Bind("BBBB", "carol", other)

	n := NewBroadcaster(reg, SimplePolicy{}).Broadcast("AAAA", core.EventNewUser, "bob")
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{core.EventNewUser}, a.types())
	assert.Equal(t, []string{core.EventNewUser}, b.types())
	assert.Empty(t, other.types())
	assert.Equal(t, "bob", a.frames[0].Data)
}

func TestBroadcaster_FailuresDoNotStopOthers(t *testing.T) {
	reg := NewRegistry()
	ok := &recConn{}
	reg.Bind("AAAA", "alice", ok)
	reg.Bind("AAAA", "bob", &recConn{err: errors.New("closed")})
	reg.Bind("AAAA", "mallory", panicConn{})

	n := NewBroadcaster(reg, nil).Broadcast("AAAA", core.EventFileUpload, domain.FileRecord{Name: "a.txt"})
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{core.EventFileUpload}, ok.types())
}

func TestBroadcaster_BackpressurePolicy(t *testing.T) {
	tests := []struct {
		name       string
		policy     Policy
		wantClosed bool
	}{
		{name: "kick slow member", policy: SimplePolicy{}, wantClosed: true},
		{name: "tolerate slow member", policy: TolerantPolicy{}, wantClosed: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewRegistry()
			slow := &recConn{err: ErrBackpressure}
			reg.Bind("AAAA", "slow", slow)

			NewBroadcaster(reg, tt.policy).Broadcast("AAAA", core.EventNewUser, "x")
			assert.Equal(t, tt.wantClosed, slow.closed)
		})
	}
}
