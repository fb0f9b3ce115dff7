package main

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Coordinator holds every live room keyed by its join code. It is the only
// owner of the registry; rooms are created here, looked up here, and
// deregistered here the instant their roster becomes empty.
type Coordinator struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	maxRounds   int
	idleTimeout time.Duration
}

func newCoordinator(maxRounds int, idleTimeout time.Duration) *Coordinator {
	co := &Coordinator{
		rooms:       make(map[string]*Room),
		maxRounds:   maxRounds,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go co.reaperLoop()
	}
	return co
}

// newRoomID generates a crypto-random join code and ensures it doesn't
// collide with existing rooms.
func (co *Coordinator) newRoomID() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	for {
		buf := make([]byte, 6)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		out := make([]byte, 6)
		for i := range out {
			out[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(out)

		co.mu.RLock()
		_, exists := co.rooms[id]
		co.mu.RUnlock()

		if !exists {
			return id
		}
	}
}

// createRoom allocates a fresh room with c as its host and registers it.
func (co *Coordinator) createRoom(c *Client, hostName string) *Room {
	id := co.newRoomID()
	room := newRoom(id, co.maxRounds, c, hostName)

	co.mu.Lock()
	co.rooms[id] = room
	co.mu.Unlock()

	log.Info().Str("room", id).Str("host", hostName).Msg("game created")

	return room
}

func (co *Coordinator) getRoom(id string) *Room {
	co.mu.RLock()
	defer co.mu.RUnlock()

	return co.rooms[id]
}

func (co *Coordinator) removeRoom(id string) {
	co.mu.Lock()
	defer co.mu.Unlock()

	delete(co.rooms, id)
}

func (co *Coordinator) roomCount() int {
	co.mu.RLock()
	defer co.mu.RUnlock()

	return len(co.rooms)
}

// disconnect removes the connection from every room it belongs to. A
// connection is expected to be in at most one room, but the sweep tolerates
// membership in several.
func (co *Coordinator) disconnect(c *Client) {
	co.mu.RLock()
	rooms := make([]*Room, 0, len(co.rooms))
	for _, room := range co.rooms {
		rooms = append(rooms, room)
	}
	co.mu.RUnlock()

	for _, room := range rooms {
		if _, empty := room.leave(c); empty {
			co.removeRoom(room.id)
		}
	}
}

// reaperLoop periodically removes rooms that have been idle longer than
// idleTimeout.
func (co *Coordinator) reaperLoop() {
	ticker := time.NewTicker(co.idleTimeout / 2)
	for range ticker.C {
		co.reapIdle(time.Now().Add(-co.idleTimeout))
	}
}

func (co *Coordinator) reapIdle(cutoff time.Time) {
	co.mu.Lock()
	for id, room := range co.rooms {
		room.mu.RLock()
		last := room.lastActive
		room.mu.RUnlock()

		if last.Before(cutoff) {
			log.Info().Str("room", id).Msg("reaping idle room")
			delete(co.rooms, id)
			go room.closeAll()
		}
	}
	co.mu.Unlock()
}
