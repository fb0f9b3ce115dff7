package main

// Messages coming from clients
type ClientMessage struct {
	Type       string `json:"type"`                 // "createGame", "joinGame", "startRound", "submitColor", "restartGame"
	PlayerName string `json:"playerName,omitempty"` // createGame / joinGame
	GameID     string `json:"gameId,omitempty"`     // joinGame / startRound / submitColor / restartGame
	Color      *Color `json:"color,omitempty"`      // submitColor
}

// GameCreatedMessage is sent to the creator only.
type GameCreatedMessage struct {
	Type        string   `json:"type"` // "gameCreated"
	GameID      string   `json:"gameId"`
	Players     []Player `json:"players"`
	RoundNumber int      `json:"roundNumber"`
	MaxRounds   int      `json:"maxRounds"`
}

// RoomStateMessage carries the full roster plus round progress, so every
// client converges on identical room state. Used for "playerJoined",
// "playerLeft" and "gameRestarted".
type RoomStateMessage struct {
	Type        string   `json:"type"`
	Players     []Player `json:"players"`
	RoundNumber int      `json:"roundNumber"`
	MaxRounds   int      `json:"maxRounds"`
}

type RoundStartedMessage struct {
	Type        string `json:"type"` // "roundStarted"
	TargetColor Color  `json:"targetColor"`
	RoundNumber int    `json:"roundNumber"`
	MaxRounds   int    `json:"maxRounds"`
}

// SubmissionReceivedMessage reports submission progress after every
// accepted guess.
type SubmissionReceivedMessage struct {
	Type       string `json:"type"` // "submissionReceived"
	PlayerName string `json:"playerName"`
	Count      int    `json:"count"`
	Total      int    `json:"total"`
}

type RoundEndedMessage struct {
	Type           string       `json:"type"` // "roundEnded"
	Submissions    []Submission `json:"submissions"`
	Players        []Player     `json:"players"`
	RoundNumber    int          `json:"roundNumber"`
	MaxRounds      int          `json:"maxRounds"`
	IsGameComplete bool         `json:"isGameComplete"`
}

// GameCompleteMessage is the terminal signal emitted when the host tries
// to start a round past the final one.
type GameCompleteMessage struct {
	Type        string   `json:"type"` // "gameComplete"
	Players     []Player `json:"players"`
	TotalRounds int      `json:"totalRounds"`
}

// ErrorMessage is sent to the originating connection only, never broadcast.
type ErrorMessage struct {
	Type    string `json:"type"` // "error"
	Message string `json:"message"`
}
