/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

// Counts is the vote breakdown for one game.
type Counts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Random   int `json:"random"`
}

// Net is positive minus negative votes; random votes do not count until
// they are resolved.
func (c Counts) Net() int {
	return c.Positive - c.Negative
}

func (c Counts) Total() int {
	return c.Positive + c.Negative + c.Random
}

// Tally maps game id to its counts.
type Tally map[string]Counts

// TallyVotes counts the room's votes for every game currently in the room.
// Unvoted games report zero counts, and votes naming a game the room does
// not hold are ignored.
func TallyVotes(room Room) Tally {
	tally := make(Tally, len(room.Games))
	for _, g := range room.Games {
		tally[g.ID] = Counts{}
	}

	for _, v := range room.Votes {
		c, ok := tally[v.GameID]
		if !ok {
			continue
		}
		switch v.Value {
		case Positive:
			c.Positive++
		case Negative:
			c.Negative++
		case Random:
			c.Random++
		}
		tally[v.GameID] = c
	}

	return tally
}
