package app

import "github.com/dkeye/Share/internal/domain"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
)

// Policy decides what happens to a session whose send buffer is full.
type Policy interface {
	OnBackPressure(room domain.RoomID, username string) BackpressureAction
}

// SimplePolicy closes slow sessions; the transport then reports a disconnect.
type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(domain.RoomID, string) BackpressureAction {
	return KickMember
}

// TolerantPolicy drops the frame and keeps the session.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(domain.RoomID, string) BackpressureAction {
	return NoAction
}
