package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Share/internal/app"
	"github.com/dkeye/Share/internal/app/orch"
	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("connection closed")

type SignalWSController struct {
	Orch *orch.Orchestrator

	ReadLimit  int64
	PingPeriod time.Duration
	SendBuffer int
}

func NewSignalWSController(o *orch.Orchestrator, readLimit int64, pingPeriod time.Duration, sendBuffer int) *SignalWSController {
	if sendBuffer <= 0 {
		sendBuffer = 32
	}
	return &SignalWSController{
		Orch:       o,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
		SendBuffer: sendBuffer,
	}
}

// WsSignalConn implements core.SignalConnection over a websocket.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}
	select {
	case c.send <- f:
	default:
		return app.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// JoinParams selects how a socket becomes a member: by redeeming Code, or in
// one step by Username (an empty Room then creates one).
type JoinParams struct {
	Room     string
	Code     string
	Username string
}

// member is what a live socket is bound to.
type member struct {
	room     domain.RoomID
	username string
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context, p JoinParams) {
	log.Info().Str("module", "signal").Str("room", p.Room).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.SendBuffer),
	}
	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)

	m, err := ctl.join(conn, p)
	if err != nil {
		ctl.reject(conn, err)
		// let the writer flush the rejection before the socket goes away
		time.AfterFunc(time.Second, cancel)
		return
	}
	go ctl.readPump(ctx, cancel, m, conn)
}

func (ctl *SignalWSController) join(conn *WsSignalConn, p JoinParams) (member, error) {
	code := p.Code
	var id domain.RoomID
	switch {
	case code != "":
		parsed, err := domain.ParseRoomID(p.Room)
		if err != nil {
			return member{}, err
		}
		id = parsed
	case p.Username != "" && p.Room == "":
		inv, err := ctl.Orch.CreateRoom(p.Username)
		if err != nil {
			return member{}, err
		}
		id, code = inv.Room, inv.Code
	case p.Username != "":
		parsed, err := domain.ParseRoomID(p.Room)
		if err != nil {
			return member{}, err
		}
		inv, err := ctl.Orch.JoinRequest(parsed, p.Username)
		if err != nil {
			return member{}, err
		}
		id, code = inv.Room, inv.Code
	default:
		return member{}, domain.ErrInvalidCode
	}

	data, err := ctl.Orch.Connect(id, code, conn)
	if err != nil {
		return member{}, err
	}
	return member{room: id, username: data.Username}, nil
}

func (ctl *SignalWSController) reject(conn *WsSignalConn, err error) {
	log.Info().Err(err).Str("module", "signal").Msg("join rejected")
	if errors.Is(err, domain.ErrUsernameTaken) {
		ctl.sendEvent(conn, core.EventUsernameTaken, nil)
		return
	}
	ctl.sendError(conn, err)
}
