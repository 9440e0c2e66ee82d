/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package games

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func gameByTitle(t *testing.T, room Room, title string) Game {
	t.Helper()

	for _, g := range room.Games {
		if g.Title == title {
			return g
		}
	}
	t.Fatalf("no game %q in room", title)
	return Game{}
}

func TestChooser_EndToEnd_ChessWins(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore(), WithRand(noRand(t)))

	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}, {Title: "Go"}})
	require.NoError(t, err)
	assert.Equal(t, host.ID, room.HostID)
	require.Len(t, room.Participants, 1)

	_, second, err := c.Join(strings.ToLower(room.JoinCode), "Grace")
	require.NoError(t, err)
	_, third, err := c.Join(room.JoinCode, "Linus")
	require.NoError(t, err)

	chessGame := gameByTitle(t, room, "Chess")
	goGame := gameByTitle(t, room, "Go")

	_, err = c.CastVote(room.ID, host.ID, chessGame.ID, VoteUp)
	require.NoError(t, err)
	_, err = c.CastVote(room.ID, second.ID, chessGame.ID, VoteUp)
	require.NoError(t, err)
	tally, err := c.CastVote(room.ID, third.ID, goGame.ID, VoteDown)
	require.NoError(t, err)
	assert.Equal(t, Counts{Positive: 2}, tally[chessGame.ID])
	assert.Equal(t, Counts{Negative: 1}, tally[goGame.ID])

	sel, err := c.Start(room.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chess", sel.Game.Title)

	snap, err := c.Snapshot(room.JoinCode)
	require.NoError(t, err)
	assert.Equal(t, chessGame.ID, snap.SelectedGameID)
	assert.Len(t, snap.Participants, 3)
	assert.Equal(t, tally, snap.Votes)
}

func TestChooser_StartRequiresHost(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	room, _, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}})
	require.NoError(t, err)
	_, guest, err := c.Join(room.JoinCode, "Grace")
	require.NoError(t, err)

	for _, id := range []string{guest.ID, "made-up"} {
		_, err = c.Start(room.ID, id)
		assert.ErrorIs(t, err, ErrForbidden, "participant %q", id)
	}

	_, err = c.Start(room.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	snap, err := c.Snapshot(room.JoinCode)
	require.NoError(t, err)
	assert.Empty(t, snap.SelectedGameID)
}

func TestChooser_StartWithoutGames(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	room, host, err := c.CreateRoom("Ada", nil)
	require.NoError(t, err)

	_, err = c.Start(room.ID, host.ID)
	assert.ErrorIs(t, err, ErrNoCandidates)

	// Games added later make the room selectable.
	_, err = c.AddGame(room.ID, "Chess", "")
	require.NoError(t, err)
	sel, err := c.Start(room.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "Chess", sel.Game.Title)
}

func TestChooser_StartStoresResolvedRandomVotes(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := NewChooser(store, WithRand(sequence(t, 1)))
	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}, {Title: "Go"}})
	require.NoError(t, err)
	chessGame := gameByTitle(t, room, "Chess")

	_, err = c.CastVote(room.ID, host.ID, chessGame.ID, VoteRandomUp)
	require.NoError(t, err)

	// First draw resolves the random vote onto Go, which then holds 1 of 1.
	sel, err := c.Start(room.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", sel.Game.Title)

	stored, err := store.RoomByID(room.ID)
	require.NoError(t, err)
	require.Len(t, stored.Votes, 1)
	assert.Equal(t, Positive, stored.Votes[0].Value)
	assert.Equal(t, sel.Game.ID, stored.Votes[0].GameID)

	// A second start does not redraw the resolved vote.
	again, err := c.Start(room.ID, host.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go", again.Game.Title)
}

func TestChooser_InvalidInput(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore(), WithMaxGames(2))

	_, _, err := c.CreateRoom("   ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = c.CreateRoom(strings.Repeat("x", MaxNameLen+1), nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = c.CreateRoom("Ada", []GameSeed{{Title: " "}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = c.CreateRoom("Ada", []GameSeed{{Title: "A"}, {Title: "B"}, {Title: "C"}})
	assert.ErrorIs(t, err, ErrInvalidInput)

	room, host, err := c.CreateRoom(" Ada ", []GameSeed{{Title: " Chess ", Description: " old "}})
	require.NoError(t, err)
	assert.Equal(t, "Ada", host.Name)
	assert.Equal(t, GameSeed{Title: "Chess", Description: "old"}, GameSeed{Title: room.Games[0].Title, Description: room.Games[0].Description})

	_, err = c.AddGame(room.ID, "", "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.AddGame(room.ID, "Go", strings.Repeat("d", MaxDescriptionLen+1))
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.AddGame(room.ID, "Go", "")
	require.NoError(t, err)
	_, err = c.AddGame(room.ID, "Catan", "")
	assert.ErrorIs(t, err, ErrInvalidInput, "room is at the game cap")

	_, err = c.CastVote(room.ID, host.ID, room.Games[0].ID, "sideways")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, _, err = c.Join(room.JoinCode, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChooser_MissingIDsAreInvalid(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}})
	require.NoError(t, err)

	_, err = c.CastVote(room.ID, "", room.Games[0].ID, VoteUp)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.CastVote(room.ID, host.ID, "", VoteUp)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = c.Start(room.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestChooser_SnapshotHidesParticipantIDs(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}})
	require.NoError(t, err)
	_, guest, err := c.Join(room.JoinCode, "Grace")
	require.NoError(t, err)

	snap, err := c.Snapshot(room.JoinCode)
	require.NoError(t, err)

	assert.Equal(t, "Ada", snap.HostName)
	assert.Equal(t, []Member{{Name: "Ada", Host: true}, {Name: "Grace"}}, snap.Participants)

	data, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(data), host.ID)
	assert.NotContains(t, string(data), guest.ID)
}

func TestChooser_SnapshotVersionGrows(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}})
	require.NoError(t, err)

	versions := []int64{}
	record := func() {
		snap, err := c.Snapshot(room.JoinCode)
		require.NoError(t, err)
		versions = append(versions, snap.Version)
	}

	record()
	_, _, err = c.Join(room.JoinCode, "Grace")
	require.NoError(t, err)
	record()
	_, err = c.CastVote(room.ID, host.ID, room.Games[0].ID, VoteUp)
	require.NoError(t, err)
	record()
	_, err = c.Start(room.ID, host.ID)
	require.NoError(t, err)
	record()

	assert.IsIncreasing(t, versions)
}

func TestChooser_NotFound(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())

	_, _, err := c.Join("ZZZZZZ", "Grace")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Snapshot("ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.AddGame("missing", "Chess", "")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.CastVote("missing", "p", "g", VoteUp)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Start("missing", "p")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChooser_ConcurrentVotesKeepOnePerCategory(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore()
	c := NewChooser(store)
	room, host, err := c.CreateRoom("Ada", []GameSeed{{Title: "Chess"}, {Title: "Go"}, {Title: "Catan"}})
	require.NoError(t, err)

	types := []string{VoteUp, VoteRandomUp, VoteDown}
	var wg sync.WaitGroup
	for i := range 60 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g := room.Games[i%len(room.Games)]
			_, err := c.CastVote(room.ID, host.ID, g.ID, types[i%len(types)])
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := store.RoomByID(room.ID)
	require.NoError(t, err)

	perCategory := make(map[Category]int)
	for _, v := range stored.Votes {
		perCategory[v.Value.Category()]++
	}
	assert.Equal(t, map[Category]int{PositiveClass: 1, NegativeClass: 1}, perCategory)
}

func TestChooser_RoomCount(t *testing.T) {
	t.Parallel()

	c := NewChooser(NewMemoryStore())
	assert.Zero(t, c.RoomCount())

	for range 3 {
		_, _, err := c.CreateRoom("Ada", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, c.RoomCount())
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) CreateRoom(seeds []GameSeed) (Room, error) {
	args := m.Called(seeds)
	return args.Get(0).(Room), args.Error(1)
}

func (m *mockRepository) RoomByID(id string) (Room, error) {
	args := m.Called(id)
	return args.Get(0).(Room), args.Error(1)
}

func (m *mockRepository) RoomByJoinCode(code string) (Room, error) {
	args := m.Called(code)
	return args.Get(0).(Room), args.Error(1)
}

func (m *mockRepository) Rooms() []Room {
	return m.Called().Get(0).([]Room)
}

func (m *mockRepository) AddParticipant(roomID string, p Participant) (Participant, error) {
	args := m.Called(roomID, p)
	return args.Get(0).(Participant), args.Error(1)
}

func (m *mockRepository) AddGame(roomID string, g Game) (Game, error) {
	args := m.Called(roomID, g)
	return args.Get(0).(Game), args.Error(1)
}

func (m *mockRepository) AddVote(roomID string, v Vote) (Vote, error) {
	args := m.Called(roomID, v)
	return args.Get(0).(Vote), args.Error(1)
}

func (m *mockRepository) RemoveVotes(roomID string, match func(Vote) bool) (int, error) {
	args := m.Called(roomID, match)
	return args.Int(0), args.Error(1)
}

func (m *mockRepository) UpdateVote(roomID string, v Vote) error {
	return m.Called(roomID, v).Error(0)
}

func (m *mockRepository) SetHost(roomID, participantID string) error {
	return m.Called(roomID, participantID).Error(0)
}

func (m *mockRepository) SetSelectedGame(roomID, gameID string) error {
	return m.Called(roomID, gameID).Error(0)
}

func TestChooser_Start_PropagatesStoreErrors(t *testing.T) {
	t.Parallel()

	storeDown := errors.New("store unavailable")
	room := Room{
		ID:           "r1",
		JoinCode:     "ABCDEF",
		Games:        []Game{chess},
		Participants: []Participant{{ID: "host", Name: "Ada"}},
		Votes:        []Vote{{ID: "v1", ParticipantID: "host", GameID: "chess", Value: Random}},
		HostID:       "host",
	}

	repo := new(mockRepository)
	repo.On("RoomByID", "r1").Return(room, nil).Once()
	repo.On("UpdateVote", "r1", Vote{ID: "v1", ParticipantID: "host", GameID: "chess", Value: Positive}).Return(storeDown).Once()

	c := NewChooser(repo, WithRand(sequence(t, 0)))
	_, err := c.Start("r1", "host")
	require.ErrorIs(t, err, storeDown)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "SetSelectedGame", mock.Anything, mock.Anything)
}

func TestChooser_CastVote_StopsWhenSupersessionFails(t *testing.T) {
	t.Parallel()

	storeDown := fmt.Errorf("remove votes: %w", errors.New("disk full"))
	room := Room{
		ID:           "r1",
		Games:        []Game{chess},
		Participants: []Participant{{ID: "p1", Name: "Ada"}},
	}

	repo := new(mockRepository)
	repo.On("RoomByID", "r1").Return(room, nil).Once()
	repo.On("RemoveVotes", "r1", mock.AnythingOfType("func(games.Vote) bool")).Return(0, storeDown).Once()

	c := NewChooser(repo)
	_, err := c.CastVote("r1", "p1", "chess", VoteUp)
	require.ErrorIs(t, err, storeDown)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "AddVote", mock.Anything, mock.Anything)
}
