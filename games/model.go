/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package games holds the room state model and the game selection algorithm
// behind gamechooser: rooms seeded with candidate games, participants who
// join by code, their votes, and the host-triggered pick.
package games

import (
	"slices"
	"unicode/utf8"
)

const (
	MaxNameLen        = 36
	MaxTitleLen       = 120
	MaxDescriptionLen = 500
)

// VoteValue is what a stored vote says about its game.
type VoteValue string

const (
	Positive VoteValue = "positive"
	Negative VoteValue = "negative"
	Random   VoteValue = "random"
)

// Valid reports whether v is one of the three known values.
func (v VoteValue) Valid() bool {
	switch v {
	case Positive, Negative, Random:
		return true
	}
	return false
}

type Game struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// GameSeed is a candidate title supplied when a room is created.
type GameSeed struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

type Participant struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Vote struct {
	ID            string    `json:"id"`
	ParticipantID string    `json:"participantId"`
	GameID        string    `json:"gameId"`
	Value         VoteValue `json:"value"`
}

// Room is the aggregate root. It exclusively owns its games, participants
// and votes; values handed out by a Repository are copies.
type Room struct {
	ID             string        `json:"id"`
	JoinCode       string        `json:"joinCode"`
	Games          []Game        `json:"games"`
	Participants   []Participant `json:"participants"`
	Votes          []Vote        `json:"votes"`
	HostID         string        `json:"hostId"`
	SelectedGameID string        `json:"selectedGameId,omitempty"`

	// Version grows with every stored change to the room.
	Version int64 `json:"version"`
}

func (r Room) Game(id string) (Game, bool) {
	for _, g := range r.Games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

func (r Room) Participant(id string) (Participant, bool) {
	for _, p := range r.Participants {
		if p.ID == id {
			return p, true
		}
	}
	return Participant{}, false
}

// IsHost reports whether participantID may trigger selection.
func (r Room) IsHost(participantID string) bool {
	return participantID != "" && participantID == r.HostID
}

func (r Room) clone() Room {
	r.Games = slices.Clone(r.Games)
	r.Participants = slices.Clone(r.Participants)
	r.Votes = slices.Clone(r.Votes)
	return r
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}
