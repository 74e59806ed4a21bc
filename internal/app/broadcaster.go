package app

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

// ErrBackpressure is returned by connections whose send buffer is full.
var ErrBackpressure = errors.New("backpressure")

// Envelope is the wire shape of every event sent to a session.
type Envelope struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

func EncodeEvent(event string, payload any) (core.Frame, error) {
	b, err := json.Marshal(Envelope{Type: event, Data: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return b, nil
}

// Broadcaster delivers room events to every bound session and returns once
// each session has been handed the frame.
type Broadcaster struct {
	Registry *Registry
	Policy   Policy
}

func NewBroadcaster(reg *Registry, policy Policy) *Broadcaster {
	return &Broadcaster{Registry: reg, Policy: policy}
}

func (b *Broadcaster) Broadcast(room domain.RoomID, event string, payload any) int {
	frame, err := EncodeEvent(event, payload)
	if err != nil {
		log.Error().Err(err).Str("module", "app.broadcast").Str("room", string(room)).Msg("broadcast dropped")
		return 0
	}

	targets := b.Registry.SessionsOf(room)
	sent := make([]bool, len(targets))
	var wg conc.WaitGroup
	for i, snap := range targets {
		wg.Go(func() {
			sent[i] = b.deliver(room, snap, frame)
		})
	}
	if rec := wg.WaitAndRecover(); rec != nil {
		log.Error().Str("module", "app.broadcast").Str("room", string(room)).Str("panic", rec.String()).Msg("session send panicked")
	}

	n := 0
	for _, ok := range sent {
		if ok {
			n++
		}
	}
	log.Debug().Str("module", "app.broadcast").Str("room", string(room)).Str("event", event).Int("sent_to", n).Int("targets", len(targets)).Msg("broadcast result")
	return n
}

func (b *Broadcaster) Send(conn core.SignalConnection, event string, payload any) error {
	frame, err := EncodeEvent(event, payload)
	if err != nil {
		return err
	}
	return conn.TrySend(frame)
}

func (b *Broadcaster) deliver(room domain.RoomID, snap regSnap, frame core.Frame) bool {
	err := snap.Conn.TrySend(frame)
	if err == nil {
		return true
	}
	log.Warn().Err(err).Str("module", "app.broadcast").Str("room", string(room)).Str("username", snap.Username).Msg("send failed")
	if errors.Is(err, ErrBackpressure) && b.Policy != nil {
		switch b.Policy.OnBackPressure(room, snap.Username) {
		case KickMember:
			snap.Conn.Close()
		case NoAction:
		}
	}
	return false
}
