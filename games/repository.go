/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Repository owns the set of rooms and mediates every mutation of them.
// Lookups that miss return an error wrapping ErrNotFound. Rooms returned
// from any method are copies and never alias the stored state.
//
// The repository applies no voting policy: AddVote is a raw append, and
// category supersession belongs to CastVote.
type Repository interface {
	// CreateRoom stores a room with a fresh id, a join code unused by any
	// held room, and one Game per seed.
	CreateRoom(seeds []GameSeed) (Room, error)

	RoomByID(id string) (Room, error)

	// RoomByJoinCode is case-insensitive.
	RoomByJoinCode(code string) (Room, error)

	// Rooms lists every held room ordered by join code.
	Rooms() []Room

	AddParticipant(roomID string, p Participant) (Participant, error)
	AddGame(roomID string, g Game) (Game, error)
	AddVote(roomID string, v Vote) (Vote, error)

	// RemoveVotes deletes every vote of the room for which match returns
	// true and reports how many went. match must not call back into the
	// repository.
	RemoveVotes(roomID string, match func(Vote) bool) (int, error)

	// UpdateVote replaces the stored vote carrying v.ID, keeping its
	// position in the log.
	UpdateVote(roomID string, v Vote) error

	SetHost(roomID, participantID string) error
	SetSelectedGame(roomID, gameID string) error
}
