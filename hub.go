/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/Seednode/gamechooser/games"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	wsReadLimit  = 512
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// Client is one websocket watching a room.
type Client struct {
	conn *websocket.Conn
	send chan games.Snapshot
}

// subscription registers a client along with the snapshot it was opened on.
type subscription struct {
	client *Client
	first  games.Snapshot
}

// Hub fans room snapshots out to every client watching that room. It only
// ever moves forward: a snapshot no newer than the last one sent is dropped.
type Hub struct {
	code      string
	clients   map[*Client]bool
	latest    games.Snapshot
	register  chan subscription
	unreg     chan *Client
	broadcast chan games.Snapshot
}

func newHub(code string) *Hub {
	return &Hub{
		code:      code,
		clients:   make(map[*Client]bool),
		register:  make(chan subscription),
		unreg:     make(chan *Client),
		broadcast: make(chan games.Snapshot, 16),
	}
}

func (h *Hub) run(ctx context.Context) {
	for {
		select {
		case sub := <-h.register:
			snap := sub.first
			if snap.Version < h.latest.Version {
				snap = h.latest
			} else {
				h.latest = snap
			}
			sub.client.send <- snap
			h.clients[sub.client] = true
			log.Debug().Str("module", "hub").Str("room", h.code).Int("clients", len(h.clients)).Msg("client connected")

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			log.Debug().Str("module", "hub").Str("room", h.code).Int("clients", len(h.clients)).Msg("client disconnected")

		case snap := <-h.broadcast:
			if snap.Version <= h.latest.Version {
				log.Debug().Str("module", "hub").Str("room", h.code).Int64("version", snap.Version).Int64("latest", h.latest.Version).Msg("dropping stale snapshot")
				continue
			}
			h.latest = snap

			for c := range h.clients {
				select {
				case c.send <- snap:
				default:
					delete(h.clients, c)
					close(c.send)
				}
			}

		case <-ctx.Done():
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			return
		}
	}
}

// HubManager holds one hub per join code, started on first use.
type HubManager struct {
	ctx  context.Context
	mu   sync.Mutex
	hubs map[string]*Hub
}

func newHubManager(ctx context.Context) *HubManager {
	return &HubManager{
		ctx:  ctx,
		hubs: make(map[string]*Hub),
	}
}

func (hm *HubManager) getHub(code string) *Hub {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	if hub, ok := hm.hubs[code]; ok {
		return hub
	}

	hub := newHub(code)
	hm.hubs[code] = hub
	go hub.run(hm.ctx)
	return hub
}

// publish pushes snap to the room's watchers, if it has any hub at all.
func (hm *HubManager) publish(snap games.Snapshot) {
	hm.mu.Lock()
	hub, ok := hm.hubs[snap.JoinCode]
	hm.mu.Unlock()

	if !ok {
		return
	}

	select {
	case hub.broadcast <- snap:
	case <-hm.ctx.Done():
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// serve attaches an upgraded connection to the hub. Its opening message is
// first, or whatever newer snapshot the hub already holds. It blocks until
// the connection closes.
func (hm *HubManager) serve(w http.ResponseWriter, r *http.Request, first games.Snapshot) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Str("module", "hub").Msg("upgrade failed")
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan games.Snapshot, 8),
	}

	hub := hm.getHub(first.JoinCode)

	select {
	case hub.register <- subscription{client: client, first: first}:
	case <-hm.ctx.Done():
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump(hm.ctx, hub)
}

// readPump only watches for the peer going away; clients never send
// anything the server acts on.
func (c *Client) readPump(ctx context.Context, h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-ctx.Done():
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(wsReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case snap, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(snap); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
