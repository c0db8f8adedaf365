package game

import (
	"time"

	"github.com/shopspring/decimal"
)

type State string

const (
	StateIdle    State = "IDLE"
	StateRunning State = "RUNNING"
)

const (
	MSG_TICK          = "tick"
	MSG_RESULT        = "result"
	MSG_BET_RESULT    = "bet_result"
	MSG_ACK           = "ack"
	MSG_PONG          = "pong"
	MSG_INITIAL_STATE = "initial_state"
)

// TickMessage is broadcast on every step of a running round
type TickMessage struct {
	Type          string  `json:"type"`
	RouletteAngle float64 `json:"rouletteAngle"`
	Angle         float64 `json:"angle"`
	Velocity      float64 `json:"velocity"`
	Segment       int     `json:"segment"`
	Color         Color   `json:"color"`
}

// ResultMessage is broadcast once when wheel and ball are both at rest
type ResultMessage struct {
	Type         string `json:"type"`
	Message      string `json:"message"`
	FinalSegment int    `json:"finalSegment"`
	Color        Color  `json:"color"`
	SegmentIndex int    `json:"segmentIndex"`
	RoundID      string `json:"roundId"`
}

// BetResultMessage goes only to the connection that owned the wager
type BetResultMessage struct {
	Type     string  `json:"type"`
	Message  string  `json:"message"`
	Bet      Wager   `json:"bet"`
	Winnings float64 `json:"winnings"`
	RoundID  string  `json:"roundId"`
}

// CommandResponse answers a client command
type CommandResponse struct {
	Type    string `json:"type"`
	Command string `json:"command"`
	Success bool   `json:"success"`
	Message string `json:"message"`
	Bet     *Wager `json:"bet,omitempty"`
}

// Snapshot is a point-in-time view of the table
type Snapshot struct {
	State         State        `json:"state"`
	RoundID       string       `json:"roundId,omitempty"`
	RouletteAngle float64      `json:"rouletteAngle"`
	Angle         float64      `json:"angle"`
	Velocity      float64      `json:"velocity"`
	Segment       Segment      `json:"segment"`
	PendingBets   int          `json:"pendingBets"`
	LastResult    *RoundResult `json:"lastResult,omitempty"`
}

// RoundResult is the archived outcome of a finished round. It carries aggregates only, never
// individual wagers.
type RoundResult struct {
	RoundID      string          `json:"roundId"`
	SegmentIndex int             `json:"segmentIndex"`
	Number       int             `json:"number"`
	Color        Color           `json:"color"`
	BetCount     int             `json:"betCount"`
	TotalStaked  decimal.Decimal `json:"totalStaked"`
	TotalPayout  decimal.Decimal `json:"totalPayout"`
	StartedAt    time.Time       `json:"startedAt"`
	FinishedAt   time.Time       `json:"finishedAt"`
}
