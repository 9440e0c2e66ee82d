/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"crypto/rand"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

const roomCodeBytes = 3

// NewRoomCode returns a six character uppercase hex join code. Uniqueness is
// the store's job.
func NewRoomCode() string {
	buf := make([]byte, roomCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		panic("crypto/rand failure: " + err.Error())
	}

	return strings.ToUpper(hex.EncodeToString(buf))
}

// NewID returns a random (v4) UUID used for rooms, participants, games and votes.
func NewID() string {
	return uuid.NewString()
}

// NormalizeCode trims and uppercases a join code for storage and lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
