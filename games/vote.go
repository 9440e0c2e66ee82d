/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import "fmt"

// Vote types as sent by clients.
const (
	VoteUp       = "up"
	VoteDown     = "down"
	VoteRandomUp = "random_up"
)

// Category groups vote values that a participant may hold only one of.
type Category string

const (
	PositiveClass Category = "positive"
	NegativeClass Category = "negative"
)

// Category returns NegativeClass for negative votes and PositiveClass for
// everything else. Random therefore shares a class with positive: asking
// for a random pick replaces an upvote, but leaves a downvote standing.
func (v VoteValue) Category() Category {
	if v == Negative {
		return NegativeClass
	}
	return PositiveClass
}

// ParseVoteType maps a client vote type onto the stored value.
func ParseVoteType(voteType string) (VoteValue, error) {
	switch voteType {
	case VoteUp:
		return Positive, nil
	case VoteDown:
		return Negative, nil
	case VoteRandomUp:
		return Random, nil
	}
	return "", fmt.Errorf("%w: unknown vote type %q", ErrInvalidInput, voteType)
}

// CastVote records a vote under the one-per-category rule: any earlier vote
// by the same participant in the same category is removed before the new
// one is appended. It returns the stored vote and the room's tally after it.
//
// CastVote is a sequence of repository calls; callers sharing a repository
// across goroutines must serialize it per room.
func CastVote(repo Repository, roomID, participantID, gameID string, value VoteValue) (Vote, Tally, error) {
	if !value.Valid() {
		return Vote{}, nil, fmt.Errorf("%w: unknown vote value %q", ErrInvalidInput, value)
	}
	switch {
	case participantID == "":
		return Vote{}, nil, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	case gameID == "":
		return Vote{}, nil, fmt.Errorf("%w: game id is required", ErrInvalidInput)
	}

	room, err := repo.RoomByID(roomID)
	if err != nil {
		return Vote{}, nil, err
	}
	if _, ok := room.Participant(participantID); !ok {
		return Vote{}, nil, fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	if _, ok := room.Game(gameID); !ok {
		return Vote{}, nil, fmt.Errorf("%w: game %q", ErrNotFound, gameID)
	}

	category := value.Category()
	_, err = repo.RemoveVotes(roomID, func(v Vote) bool {
		return v.ParticipantID == participantID && v.Value.Category() == category
	})
	if err != nil {
		return Vote{}, nil, err
	}

	vote, err := repo.AddVote(roomID, Vote{
		ID:            NewID(),
		ParticipantID: participantID,
		GameID:        gameID,
		Value:         value,
	})
	if err != nil {
		return Vote{}, nil, err
	}

	room, err = repo.RoomByID(roomID)
	if err != nil {
		return Vote{}, nil, err
	}

	return vote, TallyVotes(room), nil
}
