package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id string) *Client {
	return &Client{
		id:   id,
		send: make(chan any, 32),
	}
}

// drain returns every message currently queued for c.
func drain(c *Client) []any {
	var msgs []any
	for {
		select {
		case m := <-c.send:
			msgs = append(msgs, m)
		default:
			return msgs
		}
	}
}

func messagesOfType(msgs []any, msgType string) []any {
	var out []any
	for _, m := range msgs {
		switch v := m.(type) {
		case RoomStateMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case RoundStartedMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case SubmissionReceivedMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case RoundEndedMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case GameCompleteMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		case ErrorMessage:
			if v.Type == msgType {
				out = append(out, m)
			}
		}
	}
	return out
}

// setTarget pins the round's target so scoring is deterministic.
func setTarget(r *Room, c Color) {
	r.mu.Lock()
	r.target = &c
	r.mu.Unlock()
}

func setupRoom(t *testing.T) (*Coordinator, *Room, *Client) {
	t.Helper()

	co := newCoordinator(6, 0)
	host := newTestClient("host-conn")
	room := co.createRoom(host, "Alice")
	require.NotNil(t, room)

	return co, room, host
}

func TestCreateRoom(t *testing.T) {
	co, room, host := setupRoom(t)

	assert.Same(t, room, co.getRoom(room.id))
	assert.Equal(t, host.id, room.host)
	assert.Equal(t, 0, room.roundNumber)
	assert.Equal(t, 6, room.maxRounds)

	require.Len(t, room.players, 1)
	assert.Equal(t, "Alice", room.players[0].Name)
	assert.Equal(t, 0, room.players[0].Score)
}

func TestJoinRoom(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")

	require.NoError(t, room.join(bob, "Bob"))

	// Both members receive the updated roster, in join order.
	for _, c := range []*Client{host, bob} {
		joined := messagesOfType(drain(c), "playerJoined")
		require.Len(t, joined, 1)

		state := joined[0].(RoomStateMessage)
		require.Len(t, state.Players, 2)
		assert.Equal(t, "Alice", state.Players[0].Name)
		assert.Equal(t, "Bob", state.Players[1].Name)
		assert.Equal(t, 0, state.RoundNumber)
		assert.Equal(t, 6, state.MaxRounds)
	}
}

func TestJoinRoomAlreadyJoined(t *testing.T) {
	_, room, _ := setupRoom(t)
	bob := newTestClient("bob-conn")

	require.NoError(t, room.join(bob, "Bob"))
	assert.ErrorIs(t, room.join(bob, "Bobby"), errAlreadyJoined)
	assert.Len(t, room.players, 2)
}

func TestJoinRoomNameTaken(t *testing.T) {
	_, room, _ := setupRoom(t)
	bob := newTestClient("bob-conn")
	eve := newTestClient("eve-conn")

	require.NoError(t, room.join(bob, "Bob"))
	assert.ErrorIs(t, room.join(eve, "Bob"), errNameTaken)

	// Name matching is case-sensitive and exact.
	assert.NoError(t, room.join(eve, "bob"))
}

func TestJoinRosterIntegrity(t *testing.T) {
	_, room, _ := setupRoom(t)

	joined := 0
	for i := 0; i < 5; i++ {
		c := newTestClient(string(rune('a' + i)))
		if room.join(c, string(rune('A'+i))) == nil {
			joined++
		}
	}

	room.mu.RLock()
	defer room.mu.RUnlock()

	assert.Len(t, room.players, joined+1)

	seen := make(map[string]bool)
	for _, p := range room.players {
		assert.False(t, seen[p.ID], "duplicate connection id in roster")
		seen[p.ID] = true
	}
}

func TestStartRoundHostOnly(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))
	drain(host)
	drain(bob)

	room.startRound(bob)

	// Fail silently: no state change and no broadcast.
	assert.False(t, room.roundActive)
	assert.Equal(t, 0, room.roundNumber)
	assert.Empty(t, drain(host))
	assert.Empty(t, drain(bob))
}

func TestStartRound(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))
	drain(host)
	drain(bob)

	room.startRound(host)

	assert.True(t, room.roundActive)
	assert.Equal(t, 1, room.roundNumber)
	require.NotNil(t, room.target)
	assert.Empty(t, room.submissions)

	for _, c := range []*Client{host, bob} {
		started := messagesOfType(drain(c), "roundStarted")
		require.Len(t, started, 1)

		msg := started[0].(RoundStartedMessage)
		assert.Equal(t, *room.target, msg.TargetColor)
		assert.Equal(t, 1, msg.RoundNumber)
		assert.Equal(t, 6, msg.MaxRounds)
	}
}

func TestSubmitOutsideActiveRound(t *testing.T) {
	_, room, host := setupRoom(t)
	drain(host)

	room.submit(host, Color{R: 1, G: 2, B: 3})

	assert.Equal(t, 0, room.players[0].Score)
	assert.Empty(t, room.submissions)
	assert.Empty(t, drain(host))
}

func TestSubmitUnknownPlayerIgnored(t *testing.T) {
	_, room, host := setupRoom(t)
	room.startRound(host)
	drain(host)

	stranger := newTestClient("stranger-conn")
	room.submit(stranger, Color{R: 1, G: 2, B: 3})

	assert.Empty(t, room.submissions)
	assert.Empty(t, drain(host))
}

func TestRoundFlow(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))

	room.startRound(host)
	setTarget(room, Color{R: 10, G: 20, B: 30})
	drain(host)
	drain(bob)

	room.submit(host, Color{R: 10, G: 20, B: 30})
	room.submit(bob, Color{R: 255, G: 235, B: 225})

	assert.False(t, room.roundActive)
	assert.Equal(t, 100, room.players[0].Score)
	assert.Equal(t, 14, room.players[1].Score)

	for _, c := range []*Client{host, bob} {
		msgs := drain(c)

		received := messagesOfType(msgs, "submissionReceived")
		require.Len(t, received, 2)
		first := received[0].(SubmissionReceivedMessage)
		assert.Equal(t, "Alice", first.PlayerName)
		assert.Equal(t, 1, first.Count)
		assert.Equal(t, 2, first.Total)

		// Exactly one roundEnded per member.
		ended := messagesOfType(msgs, "roundEnded")
		require.Len(t, ended, 1)

		results := ended[0].(RoundEndedMessage)
		assert.False(t, results.IsGameComplete)
		assert.Equal(t, 1, results.RoundNumber)
		require.Len(t, results.Submissions, 2)
		assert.Equal(t, 100, results.Submissions[0].Accuracy)
		assert.Equal(t, 100, results.Submissions[0].Points)
		assert.Equal(t, 14, results.Submissions[1].Accuracy)
		require.Len(t, results.Players, 2)
		assert.Equal(t, 100, results.Players[0].Score)
		assert.Equal(t, 14, results.Players[1].Score)
	}
}

func TestDuplicateSubmissionDropped(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))

	room.startRound(host)
	setTarget(room, Color{R: 0, G: 0, B: 0})
	drain(host)
	drain(bob)

	room.submit(host, Color{R: 0, G: 0, B: 0})
	room.submit(host, Color{R: 255, G: 255, B: 255})

	// First submission wins; the round is still waiting on Bob.
	assert.True(t, room.roundActive)
	assert.Len(t, room.submissions, 1)
	assert.Equal(t, 100, room.players[0].Score)
	assert.Len(t, messagesOfType(drain(host), "submissionReceived"), 1)
}

func TestScoresAccumulateAcrossRounds(t *testing.T) {
	_, room, host := setupRoom(t)

	for round := 1; round <= 2; round++ {
		room.startRound(host)
		setTarget(room, Color{R: 50, G: 60, B: 70})
		room.submit(host, Color{R: 50, G: 60, B: 70})
	}

	assert.Equal(t, 200, room.players[0].Score)
	assert.Equal(t, 2, room.roundNumber)
}

func TestGameCompleteSignal(t *testing.T) {
	_, room, host := setupRoom(t)

	room.mu.Lock()
	room.roundNumber = room.maxRounds
	room.mu.Unlock()
	drain(host)

	room.startRound(host)

	assert.False(t, room.roundActive)
	assert.Equal(t, room.maxRounds, room.roundNumber)

	complete := messagesOfType(drain(host), "gameComplete")
	require.Len(t, complete, 1)
	assert.Equal(t, room.maxRounds, complete[0].(GameCompleteMessage).TotalRounds)
}

func TestFinalRoundMarksGameComplete(t *testing.T) {
	co := newCoordinator(1, 0)
	host := newTestClient("host-conn")
	room := co.createRoom(host, "Alice")

	room.startRound(host)
	drain(host)
	room.submit(host, Color{R: 1, G: 2, B: 3})

	ended := messagesOfType(drain(host), "roundEnded")
	require.Len(t, ended, 1)
	assert.True(t, ended[0].(RoundEndedMessage).IsGameComplete)
}

func TestRestartGame(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))

	room.startRound(host)
	setTarget(room, Color{R: 10, G: 20, B: 30})
	room.submit(host, Color{R: 10, G: 20, B: 30})
	drain(host)
	drain(bob)

	room.restart(host)

	assert.Equal(t, 0, room.roundNumber)
	assert.False(t, room.roundActive)
	assert.Empty(t, room.submissions)
	for _, p := range room.players {
		assert.Equal(t, 0, p.Score)
	}

	restarted := messagesOfType(drain(bob), "gameRestarted")
	require.Len(t, restarted, 1)
	assert.Equal(t, 0, restarted[0].(RoomStateMessage).RoundNumber)
}

func TestRestartGameHostOnly(t *testing.T) {
	_, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))

	room.startRound(host)
	setTarget(room, Color{R: 10, G: 20, B: 30})
	room.submit(host, Color{R: 10, G: 20, B: 30})
	drain(host)
	drain(bob)

	room.restart(bob)

	assert.Equal(t, 1, room.roundNumber)
	assert.Equal(t, 100, room.players[0].Score)
	assert.Empty(t, drain(host))
}

func TestHostTransferOnDisconnect(t *testing.T) {
	co, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	carol := newTestClient("carol-conn")
	require.NoError(t, room.join(bob, "Bob"))
	require.NoError(t, room.join(carol, "Carol"))
	drain(bob)
	drain(carol)

	co.disconnect(host)

	// Earliest-joined remaining player becomes host.
	assert.Equal(t, bob.id, room.host)
	require.Len(t, room.players, 2)
	assert.Equal(t, "Bob", room.players[0].Name)

	left := messagesOfType(drain(carol), "playerLeft")
	require.Len(t, left, 1)
	assert.Len(t, left[0].(RoomStateMessage).Players, 2)
}

func TestLastPlayerDisconnectDestroysRoom(t *testing.T) {
	co, room, host := setupRoom(t)

	co.disconnect(host)

	assert.Nil(t, co.getRoom(room.id))
	assert.Equal(t, 0, co.roomCount())
}

func TestDisconnectCompletesRound(t *testing.T) {
	co, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	require.NoError(t, room.join(bob, "Bob"))

	room.startRound(host)
	setTarget(room, Color{R: 10, G: 20, B: 30})
	room.submit(host, Color{R: 10, G: 20, B: 30})
	drain(host)

	// Bob never submits; his disconnect recounts the threshold against
	// the remaining roster and ends the round.
	co.disconnect(bob)

	assert.False(t, room.roundActive)

	msgs := drain(host)
	require.Len(t, messagesOfType(msgs, "playerLeft"), 1)

	ended := messagesOfType(msgs, "roundEnded")
	require.Len(t, ended, 1)
	results := ended[0].(RoundEndedMessage)
	require.Len(t, results.Players, 1)
	assert.Equal(t, 100, results.Players[0].Score)
}

func TestDisconnectMidRoundKeepsSubmission(t *testing.T) {
	co, room, host := setupRoom(t)
	bob := newTestClient("bob-conn")
	carol := newTestClient("carol-conn")
	require.NoError(t, room.join(bob, "Bob"))
	require.NoError(t, room.join(carol, "Carol"))

	room.startRound(host)
	setTarget(room, Color{R: 10, G: 20, B: 30})
	room.submit(bob, Color{R: 10, G: 20, B: 30})

	co.disconnect(bob)

	// Bob's submission stays in the round; the round keeps waiting for
	// Alice and Carol.
	assert.True(t, room.roundActive)
	assert.Len(t, room.submissions, 1)

	drain(host)
	drain(carol)
	room.submit(host, Color{R: 10, G: 20, B: 30})
	room.submit(carol, Color{R: 10, G: 20, B: 30})

	assert.False(t, room.roundActive)
	ended := messagesOfType(drain(carol), "roundEnded")
	require.Len(t, ended, 1)
	assert.Len(t, ended[0].(RoundEndedMessage).Submissions, 3)
}
