package orch

import (
	"fmt"
	"io"

	"github.com/dkeye/Share/internal/core"
	"github.com/dkeye/Share/internal/domain"
	"github.com/rs/zerolog/log"
)

// Authorize resolves token to the uploading member without changing state.
// Transports use it to reject an upload before reading its body.
func (o *Orchestrator) Authorize(id domain.RoomID, token string) (string, error) {
	_, uploader, err := o.authorize(id, token)
	return uploader, err
}

func (o *Orchestrator) authorize(id domain.RoomID, token string) (*core.Room, string, error) {
	if token == "" {
		return nil, "", domain.ErrMissingToken
	}
	room, ok := o.Rooms.Get(id)
	if !ok {
		return nil, "", domain.ErrRoomNotFound
	}
	uploader, err := room.Uploader(token)
	if err != nil {
		return nil, "", err
	}
	return room, uploader, nil
}

// Upload stores body for the member owning token and records the file.
// The uploader is always taken from the token.
func (o *Orchestrator) Upload(id domain.RoomID, token, fileName string, body io.Reader) (domain.FileRecord, error) {
	room, uploader, err := o.authorize(id, token)
	if err != nil {
		log.Info().Err(err).Str("module", "orch").Str("room", string(id)).Msg("upload rejected")
		return domain.FileRecord{}, err
	}

	// Storage I/O runs outside the room lock.
	path, err := o.Storage.PersistUpload(id, fileName, body)
	if err != nil {
		return domain.FileRecord{}, fmt.Errorf("persist upload: %w", err)
	}

	rec := domain.FileRecord{Name: fileName, Path: path, Uploader: uploader}
	if err := room.AppendFile(rec); err != nil {
		return domain.FileRecord{}, err
	}
	o.Events.Broadcast(id, core.EventFileUpload, rec)
	log.Info().Str("module", "orch").Str("room", string(id)).Str("uploader", uploader).Str("path", path).Msg("file upload")
	return rec, nil
}
