package domain

import "strings"

type RoomID string

const (
	// RoomIDAlphabet leaves out I, L, O, 0 and 1.
	RoomIDAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	RoomIDLen      = 4
)

// ParseRoomID accepts ids in any case. Anything that could never have been
// generated is reported as ErrRoomNotFound.
func ParseRoomID(raw string) (RoomID, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if len(id) != RoomIDLen {
		return "", ErrRoomNotFound
	}
	for _, c := range id {
		if !strings.ContainsRune(RoomIDAlphabet, c) {
			return "", ErrRoomNotFound
		}
	}
	return RoomID(id), nil
}

// Invitation is a pending, single-use connection code.
type Invitation struct {
	Room     RoomID `json:"room"`
	Code     string `json:"code"`
	Username string `json:"username"`
}

// RoomData is the one-time payload handed to a freshly connected member.
type RoomData struct {
	ID          RoomID       `json:"id"`
	Files       []FileRecord `json:"files"`
	Users       []string     `json:"users"`
	UploadToken string       `json:"uploadToken"`
	Username    string       `json:"username"`
}

// RoomInfo is a read-only view of members and files (no credentials).
type RoomInfo struct {
	ID      RoomID       `json:"id"`
	Members []string     `json:"members"`
	Files   []FileRecord `json:"files"`
}
