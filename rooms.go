/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Seednode/gamechooser/games"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	maxBodyBytes    = 64 << 10
	defaultHostName = "Host"
	defaultJoinName = "Player"
)

type gameRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type createRoomRequest struct {
	HostName string        `json:"hostName"`
	Games    []gameRequest `json:"games"`
}

type createRoomResponse struct {
	RoomID   string `json:"roomId"`
	JoinCode string `json:"joinCode"`
	HostID   string `json:"hostId"`
}

type joinRequest struct {
	Name string `json:"name"`
}

type joinResponse struct {
	RoomID      string            `json:"roomId"`
	JoinCode    string            `json:"joinCode"`
	Participant games.Participant `json:"participant"`
}

type voteRequest struct {
	ParticipantID string `json:"participantId"`
	GameID        string `json:"gameId"`
	Type          string `json:"type"`
}

type voteResponse struct {
	Votes games.Tally `json:"votes"`
}

type startRequest struct {
	ParticipantID string `json:"participantId"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func withDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// rooms carries what the room handlers share.
type rooms struct {
	cfg     *Config
	chooser *games.Chooser
	hubs    *HubManager
}

// notify pushes the current state of the room to its websocket watchers.
func (rs *rooms) notify(code string) {
	snap, err := rs.chooser.Snapshot(code)
	if err != nil {
		log.Debug().Err(err).Str("room", code).Msg("building snapshot for broadcast")
		return
	}
	rs.hubs.publish(snap)
}

// roomID resolves the :code path parameter to the room behind it.
func (rs *rooms) roomID(p httprouter.Params) (string, string, error) {
	snap, err := rs.chooser.Snapshot(games.NormalizeCode(p.ByName("code")))
	if err != nil {
		return "", "", err
	}
	return snap.RoomID, snap.JoinCode, nil
}

func (rs *rooms) createRoom(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	startTime := time.Now()

	var req createRoomRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	seeds := make([]games.GameSeed, 0, len(req.Games))
	for _, g := range req.Games {
		seeds = append(seeds, games.GameSeed{Title: g.Title, Description: g.Description})
	}

	room, host, err := rs.chooser.CreateRoom(withDefault(req.HostName, defaultHostName), seeds)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusCreated, createRoomResponse{
		RoomID:   room.ID,
		JoinCode: room.JoinCode,
		HostID:   host.ID,
	})

	logf("SERVE: Created room %s for %s in %s",
		room.JoinCode,
		realIP(r),
		time.Since(startTime).Round(time.Microsecond),
	)
}

func (rs *rooms) join(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var req joinRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	room, participant, err := rs.chooser.Join(games.NormalizeCode(p.ByName("code")), withDefault(req.Name, defaultJoinName))
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusOK, joinResponse{
		RoomID:      room.ID,
		JoinCode:    room.JoinCode,
		Participant: participant,
	})

	rs.notify(room.JoinCode)
}

func (rs *rooms) show(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := rs.chooser.Snapshot(games.NormalizeCode(p.ByName("code")))
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusOK, snap)
}

func (rs *rooms) addGame(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, code, err := rs.roomID(p)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	var req gameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	game, err := rs.chooser.AddGame(id, req.Title, req.Description)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusCreated, game)

	rs.notify(code)
}

func (rs *rooms) vote(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, code, err := rs.roomID(p)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	var req voteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	tally, err := rs.chooser.CastVote(id, req.ParticipantID, req.GameID, req.Type)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusOK, voteResponse{Votes: tally})

	rs.notify(code)
}

func (rs *rooms) start(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, code, err := rs.roomID(p)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	var req startRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	sel, err := rs.chooser.Start(id, req.ParticipantID)
	if err != nil {
		// Resolved random votes may have been stored even when nothing won.
		rs.notify(code)
		writeError(rs.cfg, w, r, err)
		return
	}

	writeJSON(rs.cfg, w, http.StatusOK, sel)

	rs.notify(code)
}

func (rs *rooms) watch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	snap, err := rs.chooser.Snapshot(games.NormalizeCode(p.ByName("code")))
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	rs.hubs.serve(w, r, snap)
}

// inviteURL is the link a QR code for the room points at.
func (rs *rooms) inviteURL(r *http.Request, code string) string {
	return rs.cfg.scheme() + "://" + r.Host + rs.cfg.prefix + "/room/" + code
}

func (rs *rooms) qr(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	_, code, err := rs.roomID(p)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	png, err := qrcode.Encode(rs.inviteURL(r, code), qrcode.Medium, rs.cfg.qrSize)
	if err != nil {
		writeError(rs.cfg, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.Header().Set("Cache-Control", "public, max-age=3600")
	securityHeaders(rs.cfg, w)

	written, err := w.Write(png)
	if err != nil {
		log.Debug().Err(err).Msg("writing qr code")
		return
	}

	logf("SERVE: QR code for room %s (%s) to %s", code, formatSize(written), realIP(r))
}

func registerRooms(cfg *Config, mux *httprouter.Router, chooser *games.Chooser, hubs *HubManager) {
	rs := &rooms{cfg: cfg, chooser: chooser, hubs: hubs}

	mux.POST(cfg.prefix+"/rooms", rs.createRoom)
	mux.POST(cfg.prefix+"/rooms/:code/join", rs.join)
	mux.GET(cfg.prefix+"/rooms/:code", rs.show)
	mux.POST(cfg.prefix+"/rooms/:code/games", rs.addGame)
	mux.POST(cfg.prefix+"/rooms/:code/vote", rs.vote)
	mux.POST(cfg.prefix+"/rooms/:code/start", rs.start)
	mux.GET(cfg.prefix+"/rooms/:code/ws", rs.watch)
	mux.GET(cfg.prefix+"/rooms/:code/qr", rs.qr)
}
