/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"crypto/rand"
	"math/big"
)

// RandFunc returns a uniformly distributed int in [0, n). n is always > 0.
type RandFunc func(n int) int

// CryptoRand is the default RandFunc, backed by crypto/rand.
func CryptoRand(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("crypto/rand failure: " + err.Error())
	}
	return int(v.Int64())
}

// Selection is the outcome of a pick: the winner and the tally it was
// decided on.
type Selection struct {
	Game  Game  `json:"game"`
	Votes Tally `json:"votes"`
}

// Selector runs the game pick. All of its randomness comes from Rand.
type Selector struct {
	Rand RandFunc
}

func NewSelector(rnd RandFunc) *Selector {
	if rnd == nil {
		rnd = CryptoRand
	}
	return &Selector{Rand: rnd}
}

// ResolveRandomVotes rewrites, in log order, every random vote of room into
// a positive vote for a uniformly drawn game of the room, and returns the
// rewritten votes. A room without games is left untouched.
//
// Resolved votes are positive afterwards, so a second call draws nothing
// for them.
func (s *Selector) ResolveRandomVotes(room *Room) []Vote {
	if len(room.Games) == 0 {
		return nil
	}

	var resolved []Vote
	for i, v := range room.Votes {
		if v.Value != Random {
			continue
		}
		v.GameID = room.Games[s.Rand(len(room.Games))].ID
		v.Value = Positive
		room.Votes[i] = v
		resolved = append(resolved, v)
	}
	return resolved
}

// Choose picks a winner from room as it stands, without resolving random
// votes.
//
// The first game in room order backed by more than half of the
// participants with a positive net score wins outright. Otherwise the games
// with the highest net score are narrowed to those with the most positive
// votes, and one of them is drawn at random.
func (s *Selector) Choose(room Room) (Game, Tally, error) {
	tally := TallyVotes(room)
	if len(room.Games) == 0 {
		return Game{}, tally, ErrNoCandidates
	}

	participants := len(room.Participants)
	for _, g := range room.Games {
		c := tally[g.ID]
		if 2*c.Positive > participants && c.Net() > 0 {
			return g, tally, nil
		}
	}

	bestNet := tally[room.Games[0].ID].Net()
	for _, g := range room.Games[1:] {
		bestNet = max(bestNet, tally[g.ID].Net())
	}

	bestPositive := -1
	for _, g := range room.Games {
		if c := tally[g.ID]; c.Net() == bestNet {
			bestPositive = max(bestPositive, c.Positive)
		}
	}

	var candidates []Game
	for _, g := range room.Games {
		if c := tally[g.ID]; c.Net() == bestNet && c.Positive == bestPositive {
			candidates = append(candidates, g)
		}
	}

	return candidates[s.Rand(len(candidates))], tally, nil
}

// SelectGame resolves random votes once, chooses a winner and records it as
// room.SelectedGameID. The rewritten votes are returned so callers can
// store them.
func (s *Selector) SelectGame(room *Room) (Selection, []Vote, error) {
	resolved := s.ResolveRandomVotes(room)

	game, tally, err := s.Choose(*room)
	if err != nil {
		return Selection{}, resolved, err
	}
	room.SelectedGameID = game.ID

	return Selection{Game: game, Votes: tally}, resolved, nil
}
