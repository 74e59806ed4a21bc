package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoomID(t *testing.T) {
	tests := []struct {
		in      string
		want    RoomID
		wantErr bool
	}{
		{in: "ABCD", want: "ABCD"},
		{in: "abcd", want: "ABCD"},
		{in: " x7kp ", want: "X7KP"},
		{in: "ABC", wantErr: true},
		{in: "ABCDE", wantErr: true},
		{in: "AB0D", wantErr: true},
		{in: "ABIL", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoomID(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrRoomNotFound)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeUsername(t *testing.T) {
	got, err := NormalizeUsername("  alice ")
	assert.NoError(t, err)
	assert.Equal(t, "alice", got)

	_, err = NormalizeUsername("")
	assert.ErrorIs(t, err, ErrInvalidUsername)
	_, err = NormalizeUsername(strings.Repeat("a", MaxUsernameLen+1))
	assert.ErrorIs(t, err, ErrInvalidUsername)
}
