package game

import (
	"context"
	"errors"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const RECORD_TIMEOUT = 5 * time.Second

var ErrRoundInProgress = errors.New("round already in progress")

// Broadcaster delivers outbound messages. Delivery is best-effort and must not block.
type Broadcaster interface {
	Broadcast(message interface{})
	SendTo(handle string, message interface{})
}

// RoundRecorder archives finished rounds
type RoundRecorder interface {
	RecordRound(ctx context.Context, result RoundResult) error
}

type run struct {
	stop chan struct{}
	done chan struct{}
}

// Controller owns the single shared table: wheel, ball and ledger. Every mutation happens under
// mu, both from the tick loop and from client commands.
type Controller struct {
	cfg       Config
	hub       Broadcaster
	recorders []RoundRecorder
	rng       func() float64

	mu           sync.Mutex
	wheel        *Wheel
	ball         *Ball
	ledger       *Ledger
	state        State
	current      *run
	roundID      string
	roundStarted time.Time
	lastResult   *RoundResult
}

func NewController(cfg Config, hub Broadcaster, recorders ...RoundRecorder) *Controller {
	return &Controller{
		cfg:       cfg,
		hub:       hub,
		recorders: recorders,
		rng:       rand.Float64,
		wheel:     NewWheel(cfg.WheelFriction),
		ball:      NewBall(cfg.BallFriction),
		ledger:    NewLedger(),
		state:     StateIdle,
	}
}

// Start launches a round with fresh random speeds. A start while a round is running is refused;
// the running round is left untouched.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.state == StateRunning {
		roundID := c.roundID
		c.mu.Unlock()
		log.Printf("[ROULETTE] Start ignored, round %s still running", roundID)
		return ErrRoundInProgress
	}

	c.roundID = newRoundID()
	c.roundStarted = time.Now()

	wheelSpeed := c.randomIn(c.cfg.WheelSpeedMin, c.cfg.WheelSpeedMax)
	ballSpeed := c.randomIn(c.cfg.BallSpeedMin, c.cfg.BallSpeedMax)
	c.wheel.Start(wheelSpeed)
	c.ball.Start(ballSpeed)

	r := &run{stop: make(chan struct{}), done: make(chan struct{})}
	c.current = r
	c.state = StateRunning
	roundID := c.roundID
	pending := c.ledger.Len()
	c.mu.Unlock()

	log.Printf("\n=== ROUND %s ===", roundID)
	log.Printf("[ROULETTE] Wheel %.2f rad/s, ball %.2f rad/s, %d bets pending", wheelSpeed, ballSpeed, pending)

	go c.loop(r)
	return nil
}

// Reset aborts any running round and discards pending bets without settling them. When it
// returns, no tick of the aborted round can run anymore.
func (c *Controller) Reset() {
	c.mu.Lock()
	r := c.halt()
	c.ledger.Clear()
	c.mu.Unlock()

	if r != nil {
		<-r.done
		log.Println("[ROULETTE] Round aborted")
	}
	log.Println("[ROULETTE] Table reset")
}

// Stop halts the tick loop for shutdown. Pending bets are kept.
func (c *Controller) Stop() {
	c.mu.Lock()
	r := c.halt()
	c.mu.Unlock()

	if r != nil {
		<-r.done
	}
	log.Println("[ROULETTE] Controller stopped")
}

// halt cancels the current run. Caller holds mu.
func (c *Controller) halt() *run {
	r := c.current
	if r != nil {
		close(r.stop)
	}
	c.current = nil
	c.state = StateIdle
	return r
}

// PlaceBet validates the request and stores it as the handle's only wager
func (c *Controller) PlaceBet(handle string, req PlaceBetRequest) CommandResponse {
	resp := CommandResponse{Type: MSG_ACK, Command: CMD_PLACE_BET}

	wager, err := ParseWager(req, c.cfg.MaxBetAmount)
	if err != nil {
		resp.Message = err.Error()
		return resp
	}

	c.mu.Lock()
	c.ledger.Place(handle, wager)
	c.mu.Unlock()

	log.Printf("[BET] %s placed %s", handle, wager)

	resp.Success = true
	resp.Message = "Bet placed successfully"
	resp.Bet = &wager
	return resp
}

// Disconnect forgets the handle's pending wager
func (c *Controller) Disconnect(handle string) {
	c.mu.Lock()
	_, had := c.ledger.Get(handle)
	c.ledger.Remove(handle)
	c.mu.Unlock()

	if had {
		log.Printf("[BET] Dropped pending bet of disconnected %s", handle)
	}
}

// RestoreLastResult seeds the result shown in snapshots, e.g. from storage at startup. It is
// ignored once a round has finished in this process.
func (c *Controller) RestoreLastResult(result RoundResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lastResult == nil {
		c.lastResult = &result
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := Snapshot{
		State:         c.state,
		RouletteAngle: truncate(c.wheel.Angle(), 4),
		Angle:         truncate(c.ball.FinalAngle(c.wheel), 4),
		Velocity:      truncate(c.ball.Velocity(), 2),
		Segment:       Resolve(c.wheel, c.ball),
		PendingBets:   c.ledger.Len(),
	}
	if c.state == StateRunning {
		snap.RoundID = c.roundID
	}
	if c.lastResult != nil {
		last := *c.lastResult
		snap.LastResult = &last
	}
	return snap
}

func (c *Controller) loop(r *run) {
	defer close(r.done)

	ticker := time.NewTicker(c.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			if finished := c.tick(r); finished {
				return
			}
		}
	}
}

// tick advances the table by one timestep. It reports true when the run is over, either because
// the round finished or because it was cancelled while this tick waited for the lock.
func (c *Controller) tick(r *run) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != r {
		return true
	}

	dt := c.cfg.TickInterval.Seconds()
	c.wheel.Advance(dt)
	c.ball.Advance(dt)

	angle := c.ball.FinalAngle(c.wheel)
	segment := Resolve(c.wheel, c.ball)

	c.hub.Broadcast(TickMessage{
		Type:          MSG_TICK,
		RouletteAngle: truncate(c.wheel.Angle(), 4),
		Angle:         truncate(angle, 4),
		Velocity:      truncate(c.ball.Velocity(), 2),
		Segment:       segment.Number,
		Color:         segment.Color,
	})

	if !c.wheel.IsStopped() || !c.ball.IsStopped() {
		return false
	}

	c.finishRound(segment)
	return true
}

// finishRound announces the final segment and settles the ledger. Caller holds mu.
func (c *Controller) finishRound(segment Segment) {
	roundID := c.roundID

	c.hub.Broadcast(ResultMessage{
		Type:         MSG_RESULT,
		Message:      "Ball has stopped",
		FinalSegment: segment.Number,
		Color:        segment.Color,
		SegmentIndex: segment.Index,
		RoundID:      roundID,
	})

	staked := decimal.Zero
	paid := decimal.Zero
	settlements := c.ledger.Settle(segment)
	for _, s := range settlements {
		staked = staked.Add(s.Wager.Amount)
		paid = paid.Add(s.Payout)

		c.hub.SendTo(s.Handle, BetResultMessage{
			Type:     MSG_BET_RESULT,
			Message:  "Bet result",
			Bet:      s.Wager,
			Winnings: s.Payout.InexactFloat64(),
			RoundID:  roundID,
		})

		if s.Payout.IsPositive() {
			log.Printf("[WIN] %s won %s on %s", s.Handle, s.Payout.StringFixed(2), s.Wager)
		} else {
			log.Printf("[LOSS] %s lost %s on %s", s.Handle, s.Payout.Neg().StringFixed(2), s.Wager)
		}
	}

	result := RoundResult{
		RoundID:      roundID,
		SegmentIndex: segment.Index,
		Number:       segment.Number,
		Color:        segment.Color,
		BetCount:     len(settlements),
		TotalStaked:  staked,
		TotalPayout:  paid,
		StartedAt:    c.roundStarted,
		FinishedAt:   time.Now(),
	}
	c.lastResult = &result
	c.current = nil
	c.state = StateIdle

	log.Printf("=== ROUND %s ENDED on %d %s (%d bets) ===\n", roundID, segment.Number, segment.Color, len(settlements))

	if len(c.recorders) > 0 {
		go c.record(result)
	}
}

func (c *Controller) record(result RoundResult) {
	for _, rec := range c.recorders {
		ctx, cancel := context.WithTimeout(context.Background(), RECORD_TIMEOUT)
		if err := rec.RecordRound(ctx, result); err != nil {
			log.Printf("[ROULETTE] Failed to record round %s: %v", result.RoundID, err)
		}
		cancel()
	}
}

func (c *Controller) randomIn(min, max float64) float64 {
	return min + c.rng()*(max-min)
}

// newRoundID returns a time-ordered id, unique across restarts
func newRoundID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// truncate cuts val to the given number of decimals
func truncate(val float64, precision int) float64 {
	p := math.Pow10(precision)
	return float64(int64(val*p)) / p
}
