/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// Member is how a participant appears to everyone in the room. Participant
// ids are credentials, so they never leave through a Snapshot.
type Member struct {
	Name string `json:"name"`
	Host bool   `json:"host,omitempty"`
}

// Snapshot is the public view of a room: what clients render. Version
// orders snapshots of the same room; a higher one is always newer.
type Snapshot struct {
	RoomID         string   `json:"roomId"`
	JoinCode       string   `json:"joinCode"`
	Version        int64    `json:"version"`
	HostName       string   `json:"hostName"`
	Games          []Game   `json:"games"`
	Participants   []Member `json:"participants"`
	Votes          Tally    `json:"votes"`
	SelectedGameID string   `json:"selectedGameId,omitempty"`
}

func newSnapshot(room Room) Snapshot {
	snap := Snapshot{
		RoomID:         room.ID,
		JoinCode:       room.JoinCode,
		Version:        room.Version,
		Games:          room.Games,
		Participants:   make([]Member, 0, len(room.Participants)),
		Votes:          TallyVotes(room),
		SelectedGameID: room.SelectedGameID,
	}
	for _, p := range room.Participants {
		host := room.IsHost(p.ID)
		if host {
			snap.HostName = p.Name
		}
		snap.Participants = append(snap.Participants, Member{Name: p.Name, Host: host})
	}
	return snap
}

// Chooser exposes the room operations to transports. Every operation on a
// room runs under that room's lock, so multi-step sequences such as vote
// supersession or selection never interleave.
type Chooser struct {
	repo     Repository
	selector *Selector
	maxGames int

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type Option func(*Chooser)

// WithRand sets the random source used for random votes and tie-breaks.
func WithRand(rnd RandFunc) Option {
	return func(c *Chooser) {
		c.selector = NewSelector(rnd)
	}
}

// WithMaxGames caps the number of games a room may hold. Zero means no cap.
func WithMaxGames(n int) Option {
	return func(c *Chooser) {
		c.maxGames = n
	}
}

func NewChooser(repo Repository, opts ...Option) *Chooser {
	c := &Chooser{
		repo:     repo,
		selector: NewSelector(nil),
		locks:    make(map[string]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Chooser) lock(roomID string) func() {
	c.mu.Lock()
	l, ok := c.locks[roomID]
	if !ok {
		l = &sync.Mutex{}
		c.locks[roomID] = l
	}
	c.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return "", fmt.Errorf("%w: name is required", ErrInvalidInput)
	case tooLong(name, MaxNameLen):
		return "", fmt.Errorf("%w: name is longer than %d characters", ErrInvalidInput, MaxNameLen)
	}
	return name, nil
}

func cleanGame(title, description string) (GameSeed, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	switch {
	case title == "":
		return GameSeed{}, fmt.Errorf("%w: game title is required", ErrInvalidInput)
	case tooLong(title, MaxTitleLen):
		return GameSeed{}, fmt.Errorf("%w: game title is longer than %d characters", ErrInvalidInput, MaxTitleLen)
	case tooLong(description, MaxDescriptionLen):
		return GameSeed{}, fmt.Errorf("%w: game description is longer than %d characters", ErrInvalidInput, MaxDescriptionLen)
	}
	return GameSeed{Title: title, Description: description}, nil
}

// CreateRoom opens a room seeded with the given games and registers its
// creator as the first participant and host.
func (c *Chooser) CreateRoom(hostName string, seeds []GameSeed) (Room, Participant, error) {
	name, err := cleanName(hostName)
	if err != nil {
		return Room{}, Participant{}, err
	}
	if c.maxGames > 0 && len(seeds) > c.maxGames {
		return Room{}, Participant{}, fmt.Errorf("%w: at most %d games per room", ErrInvalidInput, c.maxGames)
	}

	cleaned := make([]GameSeed, 0, len(seeds))
	for _, seed := range seeds {
		s, err := cleanGame(seed.Title, seed.Description)
		if err != nil {
			return Room{}, Participant{}, err
		}
		cleaned = append(cleaned, s)
	}

	room, err := c.repo.CreateRoom(cleaned)
	if err != nil {
		return Room{}, Participant{}, err
	}

	unlock := c.lock(room.ID)
	defer unlock()

	host, err := c.repo.AddParticipant(room.ID, Participant{ID: NewID(), Name: name})
	if err != nil {
		return Room{}, Participant{}, err
	}
	if err := c.repo.SetHost(room.ID, host.ID); err != nil {
		return Room{}, Participant{}, err
	}

	room, err = c.repo.RoomByID(room.ID)
	if err != nil {
		return Room{}, Participant{}, err
	}

	log.Info().Str("module", "games.chooser").Str("room", room.JoinCode).Int("games", len(room.Games)).Msg("room created")
	return room, host, nil
}

// Join adds a participant to the room holding joinCode.
func (c *Chooser) Join(joinCode, name string) (Room, Participant, error) {
	name, err := cleanName(name)
	if err != nil {
		return Room{}, Participant{}, err
	}

	room, err := c.repo.RoomByJoinCode(joinCode)
	if err != nil {
		return Room{}, Participant{}, err
	}

	unlock := c.lock(room.ID)
	defer unlock()

	p, err := c.repo.AddParticipant(room.ID, Participant{ID: NewID(), Name: name})
	if err != nil {
		return Room{}, Participant{}, err
	}

	room, err = c.repo.RoomByID(room.ID)
	if err != nil {
		return Room{}, Participant{}, err
	}

	log.Info().Str("module", "games.chooser").Str("room", room.JoinCode).Str("participant", p.ID).Msg("participant joined")
	return room, p, nil
}

func (c *Chooser) AddGame(roomID, title, description string) (Game, error) {
	seed, err := cleanGame(title, description)
	if err != nil {
		return Game{}, err
	}

	unlock := c.lock(roomID)
	defer unlock()

	room, err := c.repo.RoomByID(roomID)
	if err != nil {
		return Game{}, err
	}
	if c.maxGames > 0 && len(room.Games) >= c.maxGames {
		return Game{}, fmt.Errorf("%w: room already has %d games", ErrInvalidInput, c.maxGames)
	}

	g, err := c.repo.AddGame(roomID, Game{ID: NewID(), Title: seed.Title, Description: seed.Description})
	if err != nil {
		return Game{}, err
	}

	log.Debug().Str("module", "games.chooser").Str("room", room.JoinCode).Str("game", g.Title).Msg("game added")
	return g, nil
}

// CastVote parses voteType and records the vote, superseding the
// participant's earlier vote in the same category.
func (c *Chooser) CastVote(roomID, participantID, gameID, voteType string) (Tally, error) {
	value, err := ParseVoteType(voteType)
	if err != nil {
		return nil, err
	}

	unlock := c.lock(roomID)
	defer unlock()

	vote, tally, err := CastVote(c.repo, roomID, participantID, gameID, value)
	if err != nil {
		return nil, err
	}

	log.Debug().Str("module", "games.chooser").Str("room", roomID).Str("participant", participantID).Str("game", gameID).Str("value", string(vote.Value)).Msg("vote cast")
	return tally, nil
}

func (c *Chooser) Snapshot(joinCode string) (Snapshot, error) {
	room, err := c.repo.RoomByJoinCode(joinCode)
	if err != nil {
		return Snapshot{}, err
	}

	unlock := c.lock(room.ID)
	defer unlock()

	room, err = c.repo.RoomByID(room.ID)
	if err != nil {
		return Snapshot{}, err
	}
	return newSnapshot(room), nil
}

// Start runs the selection for the room. Only the host may start it. Random
// votes are resolved and stored before the winner is chosen, so a later
// Start does not redraw them.
func (c *Chooser) Start(roomID, participantID string) (Selection, error) {
	if participantID == "" {
		return Selection{}, fmt.Errorf("%w: participant id is required", ErrInvalidInput)
	}

	unlock := c.lock(roomID)
	defer unlock()

	room, err := c.repo.RoomByID(roomID)
	if err != nil {
		return Selection{}, err
	}
	if !room.IsHost(participantID) {
		return Selection{}, fmt.Errorf("%w: participant %q cannot start room %s", ErrForbidden, participantID, room.JoinCode)
	}

	sel, resolved, err := c.selector.SelectGame(&room)
	for _, v := range resolved {
		if err := c.repo.UpdateVote(roomID, v); err != nil {
			return Selection{}, err
		}
	}
	if err != nil {
		return Selection{}, fmt.Errorf("room %s: %w", room.JoinCode, err)
	}

	if err := c.repo.SetSelectedGame(roomID, sel.Game.ID); err != nil {
		return Selection{}, err
	}

	log.Info().Str("module", "games.chooser").Str("room", room.JoinCode).Str("game", sel.Game.Title).Int("resolved", len(resolved)).Msg("game selected")
	return sel, nil
}

// RoomCount reports how many rooms are held.
func (c *Chooser) RoomCount() int {
	return len(c.repo.Rooms())
}
