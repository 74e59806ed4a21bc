// Package domain contains entity without logic, just meta-data
package domain

import "strings"

const MaxUsernameLen = 36

// Member is a user's identity inside one room.
// The live connection is tracked separately by the session registry.
type Member struct {
	Username    string `json:"username"`
	UploadToken string `json:"-"`
}

// NormalizeUsername trims the name and checks its length.
func NormalizeUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	if len(username) == 0 || len(username) > MaxUsernameLen {
		return "", ErrInvalidUsername
	}
	return username, nil
}
