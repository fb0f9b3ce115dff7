package main

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Player holds the data we store server-side for one connection in a room.
type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Submission is one player's single guess for the current round. It is
// created once per player per round and immutable afterward.
type Submission struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	Color      Color  `json:"color"`
	Accuracy   int    `json:"accuracy"`
	Points     int    `json:"points"`
}

// Room is one game session: a host, an ordered roster (insertion order is
// join order), and the state of the current round.
//
// Every handler takes r.mu for its whole observe-mutate-broadcast step, so
// the all-submitted check and the broadcast it triggers are a single atomic
// step relative to events from other connections.
type Room struct {
	id      string
	host    string // connection ID of the current host, always a member of players
	players []Player
	clients map[*Client]bool

	roundNumber int
	maxRounds   int
	target      *Color
	submissions []Submission
	roundActive bool

	createdAt  time.Time
	lastActive time.Time

	mu sync.RWMutex
}

func newRoom(id string, maxRounds int, host *Client, hostName string) *Room {
	now := time.Now()
	return &Room{
		id:   id,
		host: host.id,
		players: []Player{{
			ID:   host.id,
			Name: hostName,
		}},
		clients:     map[*Client]bool{host: true},
		maxRounds:   maxRounds,
		submissions: make([]Submission, 0),
		createdAt:   now,
		lastActive:  now,
	}
}

// playersLocked returns a snapshot of the roster, safe to hand to encoders
// after the lock is released.
func (r *Room) playersLocked() []Player {
	players := make([]Player, len(r.players))
	copy(players, r.players)
	return players
}

func (r *Room) submissionsLocked() []Submission {
	subs := make([]Submission, len(r.submissions))
	copy(subs, r.submissions)
	return subs
}

func (r *Room) hasSubmissionLocked(playerID string) bool {
	for _, s := range r.submissions {
		if s.PlayerID == playerID {
			return true
		}
	}
	return false
}

// allSubmittedLocked reports whether every current player has a submission
// this round. Submissions from players who have since left still count
// toward the list but not toward this check.
func (r *Room) allSubmittedLocked() bool {
	if len(r.players) == 0 {
		return false
	}
	for _, p := range r.players {
		if !r.hasSubmissionLocked(p.ID) {
			return false
		}
	}
	return true
}

// broadcastLocked enqueues msg for every connection in the room. Clients
// with a full send buffer are dropped from the broadcast group; their read
// pump will run full disconnect cleanup when the connection dies.
func (r *Room) broadcastLocked(msg any) {
	for client := range r.clients {
		select {
		case client.send <- msg:
		default:
			delete(r.clients, client)
			client.closeSend()
		}
	}
}

func (r *Room) roomStateLocked(msgType string) RoomStateMessage {
	return RoomStateMessage{
		Type:        msgType,
		Players:     r.playersLocked(),
		RoundNumber: r.roundNumber,
		MaxRounds:   r.maxRounds,
	}
}

// join adds a player to the room and broadcasts the updated roster. The
// returned error is one of the sentinels in errors.go and is surfaced to
// the joining connection only.
func (r *Room) join(c *Client, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.lastActive = time.Now()

	for _, p := range r.players {
		if p.ID == c.id {
			return errAlreadyJoined
		}
	}
	for _, p := range r.players {
		if p.Name == name {
			return errNameTaken
		}
	}

	r.players = append(r.players, Player{
		ID:   c.id,
		Name: name,
	})
	r.clients[c] = true

	log.Info().Str("room", r.id).Str("player", name).Msg("player joined")

	r.broadcastLocked(r.roomStateLocked("playerJoined"))

	return nil
}

// leave removes the player with c's connection ID, if present. The caller
// deregisters the room when empty is true. An active round is left running,
// but the completion threshold recounts against the reduced roster, so a
// removal can itself end the round.
func (r *Room) leave(c *Client) (removed bool, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[c]; ok {
		delete(r.clients, c)
	}

	var name string
	dst := r.players[:0]
	for _, p := range r.players {
		if p.ID == c.id {
			removed = true
			name = p.Name
			continue
		}
		dst = append(dst, p)
	}
	r.players = dst

	if !removed {
		return false, false
	}

	r.lastActive = time.Now()

	if len(r.players) == 0 {
		log.Info().Str("room", r.id).Msg("room empty, destroying")
		return true, true
	}

	// Promote the earliest-joined remaining player if the host left.
	if r.host == c.id {
		r.host = r.players[0].ID
		log.Info().Str("room", r.id).Str("host", r.players[0].Name).Msg("host transferred")
	}

	log.Info().Str("room", r.id).Str("player", name).Msg("player left")

	r.broadcastLocked(r.roomStateLocked("playerLeft"))

	if r.roundActive && r.allSubmittedLocked() {
		r.endRoundLocked()
	}

	return true, false
}

// startRound advances the game to the next round. Host-only: requests from
// anyone else produce no state change and no broadcast.
func (r *Room) startRound(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != c.id {
		return
	}

	r.lastActive = time.Now()

	if r.roundNumber >= r.maxRounds {
		r.broadcastLocked(GameCompleteMessage{
			Type:        "gameComplete",
			Players:     r.playersLocked(),
			TotalRounds: r.maxRounds,
		})
		return
	}

	r.roundNumber++

	// One target per round, shared by all players, so everyone scores
	// against the same color.
	target := randomColor()
	r.target = &target
	r.submissions = r.submissions[:0]
	r.roundActive = true

	log.Info().
		Str("room", r.id).
		Int("round", r.roundNumber).
		Int("r", target.R).Int("g", target.G).Int("b", target.B).
		Msg("round started")

	r.broadcastLocked(RoundStartedMessage{
		Type:        "roundStarted",
		TargetColor: target,
		RoundNumber: r.roundNumber,
		MaxRounds:   r.maxRounds,
	})
}

// submit records one guess for the current round. Guesses outside an active
// round, from non-players, or after the player has already submitted are
// silently dropped; the first submission wins.
func (r *Room) submit(c *Client, color Color) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.roundActive || r.target == nil {
		return
	}

	idx := -1
	for i := range r.players {
		if r.players[i].ID == c.id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return
	}

	if r.hasSubmissionLocked(c.id) {
		return
	}

	r.lastActive = time.Now()

	acc := accuracy(*r.target, color)
	points := max(0, acc)
	r.players[idx].Score += points

	r.submissions = append(r.submissions, Submission{
		PlayerID:   c.id,
		PlayerName: r.players[idx].Name,
		Color:      color,
		Accuracy:   acc,
		Points:     points,
	})

	log.Debug().
		Str("room", r.id).
		Str("player", r.players[idx].Name).
		Int("accuracy", acc).
		Msg("color submitted")

	r.broadcastLocked(SubmissionReceivedMessage{
		Type:       "submissionReceived",
		PlayerName: r.players[idx].Name,
		Count:      len(r.submissions),
		Total:      len(r.players),
	})

	if r.allSubmittedLocked() {
		r.endRoundLocked()
	}
}

// endRoundLocked closes the round and broadcasts the results exactly once.
func (r *Room) endRoundLocked() {
	r.roundActive = false

	log.Info().Str("room", r.id).Int("round", r.roundNumber).Msg("round ended")

	r.broadcastLocked(RoundEndedMessage{
		Type:           "roundEnded",
		Submissions:    r.submissionsLocked(),
		Players:        r.playersLocked(),
		RoundNumber:    r.roundNumber,
		MaxRounds:      r.maxRounds,
		IsGameComplete: r.roundNumber >= r.maxRounds,
	})
}

// restart zeroes every score and returns the room to the lobby. Host-only,
// silently ignored otherwise.
func (r *Room) restart(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.host != c.id {
		return
	}

	r.lastActive = time.Now()

	for i := range r.players {
		r.players[i].Score = 0
	}
	r.roundNumber = 0
	r.roundActive = false
	r.target = nil
	r.submissions = r.submissions[:0]

	log.Info().Str("room", r.id).Msg("game restarted")

	r.broadcastLocked(r.roomStateLocked("gameRestarted"))
}

// closeAll disconnects all clients of this room (used by the reaper).
func (r *Room) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for c := range r.clients {
		c.closeSend()
		if c.conn != nil {
			_ = c.conn.Close()
		}
		delete(r.clients, c)
	}
}
