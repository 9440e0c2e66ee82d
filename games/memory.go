/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// MemoryStore is a Repository held entirely in process memory. Rooms live
// until the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	rooms  map[string]*Room
	byCode map[string]string // join code -> room id

	newCode func() string
}

type StoreOption func(*MemoryStore)

// WithCodeSource replaces NewRoomCode as the join code generator.
func WithCodeSource(fn func() string) StoreOption {
	return func(s *MemoryStore) {
		s.newCode = fn
	}
}

func NewMemoryStore(opts ...StoreOption) *MemoryStore {
	s := &MemoryStore{
		rooms:   make(map[string]*Room),
		byCode:  make(map[string]string),
		newCode: NewRoomCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// uniqueCodeLocked draws join codes until one is not held by any room.
func (s *MemoryStore) uniqueCodeLocked() string {
	for attempt := 1; ; attempt++ {
		code := NormalizeCode(s.newCode())
		if _, exists := s.byCode[code]; !exists {
			return code
		}
		log.Debug().Str("module", "games.memory").Str("code", code).Int("attempt", attempt).Msg("join code collision, retrying")
	}
}

func (s *MemoryStore) CreateRoom(seeds []GameSeed) (Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room := &Room{
		ID:           NewID(),
		JoinCode:     s.uniqueCodeLocked(),
		Games:        make([]Game, 0, len(seeds)),
		Participants: []Participant{},
		Votes:        []Vote{},
		Version:      1,
	}
	for _, seed := range seeds {
		room.Games = append(room.Games, Game{
			ID:          NewID(),
			Title:       seed.Title,
			Description: seed.Description,
		})
	}

	s.rooms[room.ID] = room
	s.byCode[room.JoinCode] = room.ID

	return room.clone(), nil
}

func (s *MemoryStore) roomLocked(id string) (*Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%w: room %q", ErrNotFound, id)
	}
	return room, nil
}

func (s *MemoryStore) RoomByID(id string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	room, err := s.roomLocked(id)
	if err != nil {
		return Room{}, err
	}
	return room.clone(), nil
}

func (s *MemoryStore) RoomByJoinCode(code string) (Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byCode[NormalizeCode(code)]
	if !ok {
		return Room{}, fmt.Errorf("%w: join code %q", ErrNotFound, code)
	}

	room, err := s.roomLocked(id)
	if err != nil {
		return Room{}, err
	}
	return room.clone(), nil
}

func (s *MemoryStore) Rooms() []Room {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, room.clone())
	}
	slices.SortFunc(out, func(a, b Room) int {
		return strings.Compare(a.JoinCode, b.JoinCode)
	})
	return out
}

func (s *MemoryStore) AddParticipant(roomID string, p Participant) (Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return Participant{}, err
	}
	room.Participants = append(room.Participants, p)
	room.Version++
	return p, nil
}

func (s *MemoryStore) AddGame(roomID string, g Game) (Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return Game{}, err
	}
	room.Games = append(room.Games, g)
	room.Version++
	return g, nil
}

func (s *MemoryStore) AddVote(roomID string, v Vote) (Vote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return Vote{}, err
	}
	room.Votes = append(room.Votes, v)
	room.Version++
	return v, nil
}

func (s *MemoryStore) RemoveVotes(roomID string, match func(Vote) bool) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return 0, err
	}

	before := len(room.Votes)
	room.Votes = slices.DeleteFunc(room.Votes, match)
	removed := before - len(room.Votes)
	if removed > 0 {
		room.Version++
	}
	return removed, nil
}

func (s *MemoryStore) UpdateVote(roomID string, v Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}

	i := slices.IndexFunc(room.Votes, func(existing Vote) bool { return existing.ID == v.ID })
	if i < 0 {
		return fmt.Errorf("%w: vote %q", ErrNotFound, v.ID)
	}
	room.Votes[i] = v
	room.Version++
	return nil
}

func (s *MemoryStore) SetHost(roomID, participantID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	if _, ok := room.Participant(participantID); !ok {
		return fmt.Errorf("%w: participant %q", ErrNotFound, participantID)
	}
	room.HostID = participantID
	room.Version++
	return nil
}

func (s *MemoryStore) SetSelectedGame(roomID, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, err := s.roomLocked(roomID)
	if err != nil {
		return err
	}
	if _, ok := room.Game(gameID); !ok {
		return fmt.Errorf("%w: game %q", ErrNotFound, gameID)
	}
	room.SelectedGameID = gameID
	room.Version++
	return nil
}
