package signal

import "errors"

var errBadPayload = errors.New("bad_payload")

func (ctl *SignalWSController) handlePing(conn *WsSignalConn) {
	ctl.sendEvent(conn, "pong", nil)
}

func (ctl *SignalWSController) sendError(conn *WsSignalConn, err error) {
	ctl.sendEvent(conn, "error", map[string]string{"error": err.Error()})
}
