package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"
)

// handleInvite lets a member mint a connection code for someone else.
func (ctl *SignalWSController) handleInvite(m member, conn *WsSignalConn, data []byte) {
	var p struct {
		Type     string `json:"type"`
		Username string `json:"username"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad invite payload")
		ctl.sendError(conn, errBadPayload)
		return
	}
	inv, err := ctl.Orch.JoinRequest(m.room, p.Username)
	if err != nil {
		ctl.sendError(conn, err)
		return
	}
	log.Info().Str("module", "signal").Str("room", string(m.room)).Str("by", m.username).Str("username", inv.Username).Msg("invite")
	ctl.sendEvent(conn, "invite", inv)
}
