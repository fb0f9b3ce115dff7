// Huematch color-match game
//
// A target color is revealed each round, every player mixes an RGB guess,
// and scores are computed from color-distance accuracy.
//
// Features:
// - One WebSocket endpoint; clients address rooms by short join code
// - First connection to create a game becomes its host
// - Host-only round start and game restart
// - Duplicate display names rejected per room
// - Error messages sent only to the offending client
// - Rooms destroyed the instant the last player disconnects
// - Random 6-char join codes via crypto/rand, with server-side collision check
// - Idle rooms auto-reaped after a configurable timeout
// - In-browser QR button to share the server URL, backed by go-qrcode

package main

import (
	_ "embed"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Client is one WebSocket connection. Its id is opaque and stable until
// disconnect; player identity in every room is keyed to it.
type Client struct {
	id   string
	conn *websocket.Conn
	send chan any

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan any, 8),
	}
}

// closeSend closes the outbound queue exactly once, however many broadcast
// groups race to drop this client.
func (c *Client) closeSend() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// trySend enqueues a message for a single connection without blocking.
func trySend(c *Client, msg any) {
	select {
	case c.send <- msg:
	default:
	}
}

func sendError(c *Client, message string) {
	trySend(c, ErrorMessage{
		Type:    "error",
		Message: message,
	})
}

func (c *Client) readPump(co *Coordinator) {
	defer func() {
		co.disconnect(c)
		c.closeSend()
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		c.dispatch(co, msg)
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// dispatch routes one inbound event. Events from a single connection are
// handled in the order sent; interleaving across connections is resolved by
// the per-room lock.
func (c *Client) dispatch(co *Coordinator, msg ClientMessage) {
	switch msg.Type {
	case "createGame":
		if msg.PlayerName == "" {
			return
		}
		room := co.createRoom(c, msg.PlayerName)

		room.mu.RLock()
		created := GameCreatedMessage{
			Type:        "gameCreated",
			GameID:      room.id,
			Players:     room.playersLocked(),
			RoundNumber: room.roundNumber,
			MaxRounds:   room.maxRounds,
		}
		room.mu.RUnlock()

		trySend(c, created)

	case "joinGame":
		if msg.PlayerName == "" || msg.GameID == "" {
			return
		}
		room := co.getRoom(msg.GameID)
		if room == nil {
			sendError(c, userMessage(errGameNotFound))
			return
		}
		if err := room.join(c, msg.PlayerName); err != nil {
			sendError(c, userMessage(err))
		}

	case "startRound":
		if room := co.getRoom(msg.GameID); room != nil {
			room.startRound(c)
		}

	case "submitColor":
		if msg.Color == nil {
			return
		}
		if room := co.getRoom(msg.GameID); room != nil {
			room.submit(c, *msg.Color)
		}

	case "restartGame":
		if room := co.getRoom(msg.GameID); room != nil {
			room.restart(c)
		}

	default:
		// ignore unknown types
	}
}

// serveWS upgrades the connection and runs its pumps until disconnect.
func serveWS(co *Coordinator) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Debug().Err(err).Msg("websocket upgrade failed")
			return
		}

		client := newClient(conn)

		go client.writePump()
		client.readPump(co)
	}
}

// QR handler: generates a PNG QR code for the server URL using go-qrcode.
func qrHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	// Derive scheme (respecting TLS and X-Forwarded-Proto if present).
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	// We are at /.../qr; strip the trailing "/qr" to get the game URL.
	path := strings.TrimSuffix(r.URL.Path, "/qr")
	if path == "" {
		path = "/"
	}

	url := scheme + "://" + r.Host + path

	const qrSize = 320 // mobile-friendly size
	png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(png)
}

// ---- Static file paths ----

//go:embed colormatch/index.html
var indexHTML []byte

//go:embed colormatch/app.css
var colormatchCSS []byte

//go:embed colormatch/app.js
var colormatchJS []byte

func getIndexHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(indexHTML)
	}
}

func getCssHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "text/css; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(colormatchCSS)
	}
}

func getJsHandler(cfg *Config) func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
		w.Header().Set("Cache-Control", "public, max-age=3600")
		w.Header().Set("Expires", time.Now().Add(time.Hour).UTC().Format(http.TimeFormat))
		securityHeaders(cfg, w)

		_, _ = w.Write(colormatchJS)
	}
}

// registerColorMatch sets up routes so that:
//   - /           → HTML client
//   - /ws         → WebSocket shared by every room
//   - /qr         → PNG QR code for the server URL
func registerColorMatch(cfg *Config, co *Coordinator, mux *httprouter.Router) {
	mux.GET(cfg.prefix+"/", getIndexHandler(cfg))

	// Shared assets
	mux.GET(cfg.prefix+"/assets/colormatch/app.css", getCssHandler(cfg))
	mux.GET(cfg.prefix+"/assets/colormatch/app.js", getJsHandler(cfg))

	// All rooms share one socket endpoint; events carry the join code.
	mux.GET(cfg.prefix+"/ws", serveWS(co))

	mux.GET(cfg.prefix+"/qr", qrHandler)
}
