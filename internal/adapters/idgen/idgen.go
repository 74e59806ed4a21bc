package idgen

import (
	"fmt"

	"github.com/dkeye/Share/internal/domain"
	"github.com/google/uuid"
	nanoid "github.com/jaevor/go-nanoid"
)

// Generator makes short room ids from the unambiguous alphabet and uuid
// based connection codes and upload tokens.
type Generator struct {
	roomID func() string
}

func New() (*Generator, error) {
	gen, err := nanoid.CustomASCII(domain.RoomIDAlphabet, domain.RoomIDLen)
	if err != nil {
		return nil, fmt.Errorf("room id generator: %w", err)
	}
	return &Generator{roomID: gen}, nil
}

func (g *Generator) RoomID() domain.RoomID { return domain.RoomID(g.roomID()) }

func (g *Generator) Opaque() string { return uuid.NewString() }
