package game

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// recordingHub captures everything the controller sends out
type recordingHub struct {
	mu         sync.Mutex
	broadcasts []interface{}
	direct     map[string][]interface{}
	results    chan ResultMessage
}

func newRecordingHub() *recordingHub {
	return &recordingHub{
		direct:  make(map[string][]interface{}),
		results: make(chan ResultMessage, 16),
	}
}

func (h *recordingHub) Broadcast(message interface{}) {
	h.mu.Lock()
	h.broadcasts = append(h.broadcasts, message)
	h.mu.Unlock()

	if r, ok := message.(ResultMessage); ok {
		h.results <- r
	}
}

func (h *recordingHub) SendTo(handle string, message interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.direct[handle] = append(h.direct[handle], message)
}

func (h *recordingHub) sentTo(handle string) []interface{} {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]interface{}(nil), h.direct[handle]...)
}

func (h *recordingHub) count() (ticks, results int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range h.broadcasts {
		switch m.(type) {
		case TickMessage:
			ticks++
		case ResultMessage:
			results++
		}
	}
	return ticks, results
}

type recorderFunc func(RoundResult)

func (f recorderFunc) RecordRound(_ context.Context, r RoundResult) error {
	f(r)
	return nil
}

// fastConfig finishes a round in well under a second
func fastConfig() Config {
	return Config{
		TickInterval:  time.Millisecond,
		WheelFriction: 60,
		BallFriction:  6,
		WheelSpeedMin: 3,
		WheelSpeedMax: 6,
		BallSpeedMin:  10,
		BallSpeedMax:  15,
		MaxBetAmount:  MAX_BET_AMOUNT,
	}
}

// slowConfig keeps a round running far longer than any test
func slowConfig() Config {
	cfg := fastConfig()
	cfg.WheelFriction = 0.001
	cfg.BallFriction = 0.0001
	return cfg
}

func placeBet(t *testing.T, c *Controller, handle, betType, value string, amount float64) {
	t.Helper()
	resp := c.PlaceBet(handle, PlaceBetRequest{BetType: betType, BetValue: json.RawMessage(value), Amount: amount})
	if !resp.Success {
		t.Fatalf("PlaceBet(%s) rejected: %s", handle, resp.Message)
	}
}

func waitResult(t *testing.T, hub *recordingHub) ResultMessage {
	t.Helper()
	select {
	case r := <-hub.results:
		return r
	case <-time.After(5 * time.Second):
		t.Fatal("round did not finish")
	}
	return ResultMessage{}
}

// startManual puts the controller into a running round without the background loop so tests
// can drive ticks directly.
func startManual(c *Controller, wheelSpeed, ballSpeed float64) *run {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wheel.Start(wheelSpeed)
	c.ball.Start(ballSpeed)
	r := &run{stop: make(chan struct{}), done: make(chan struct{})}
	c.current = r
	c.state = StateRunning
	c.roundID = "manual"
	return r
}

func TestController_InitialState(t *testing.T) {
	c := NewController(DefaultConfig(), newRecordingHub())
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want %s", c.State(), StateIdle)
	}
}

func TestController_TickUntilRest(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(DefaultConfig(), hub)
	placeBet(t, c, "alice", "color", `"red"`, 10)

	r := startManual(c, 2, 3)

	steps := 0
	for !c.tick(r) {
		steps++
		if steps > 100000 {
			t.Fatal("round never came to rest")
		}
	}

	if c.State() != StateIdle {
		t.Errorf("State() = %s after the round, want %s", c.State(), StateIdle)
	}
	if !c.wheel.IsStopped() || !c.ball.IsStopped() {
		t.Error("round finished while something was still moving")
	}

	ticks, results := hub.count()
	if ticks != steps+1 {
		t.Errorf("broadcast %d ticks, want %d", ticks, steps+1)
	}
	if results != 1 {
		t.Fatalf("broadcast %d results, want 1", results)
	}

	final := <-hub.results
	want := Resolve(c.wheel, c.ball)
	if final.FinalSegment != want.Number || final.Color != want.Color || final.Message != "Ball has stopped" {
		t.Errorf("result = %+v, want segment %+v", final, want)
	}

	sent := hub.sentTo("alice")
	if len(sent) != 1 {
		t.Fatalf("alice received %d messages, want 1", len(sent))
	}
	bet, ok := sent[0].(BetResultMessage)
	if !ok {
		t.Fatalf("alice received %T, want BetResultMessage", sent[0])
	}
	wantWinnings := -10.0
	if want.Color == ColorRed {
		wantWinnings = 20
	}
	if bet.Winnings != wantWinnings {
		t.Errorf("winnings = %v, want %v on %+v", bet.Winnings, wantWinnings, want)
	}
	if c.ledger.Len() != 0 {
		t.Errorf("ledger holds %d bets after settlement", c.ledger.Len())
	}
}

func TestController_TickAfterCancelDoesNothing(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(DefaultConfig(), hub)
	r := startManual(c, 5, 10)

	c.mu.Lock()
	c.halt()
	c.mu.Unlock()

	angle := c.wheel.Angle()
	if finished := c.tick(r); !finished {
		t.Error("tick() on a cancelled run should report finished")
	}
	if c.wheel.Angle() != angle {
		t.Error("cancelled tick moved the wheel")
	}
	if ticks, _ := hub.count(); ticks != 0 {
		t.Errorf("cancelled tick broadcast %d messages", ticks)
	}
}

func TestController_FullRound(t *testing.T) {
	hub := newRecordingHub()
	recorded := make(chan RoundResult, 1)
	c := NewController(fastConfig(), hub, recorderFunc(func(r RoundResult) { recorded <- r }))

	placeBet(t, c, "alice", "number", `17`, 10)
	placeBet(t, c, "bob", "even-odd", `"even"`, 10)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if c.State() != StateRunning {
		t.Errorf("State() = %s after Start(), want %s", c.State(), StateRunning)
	}

	result := waitResult(t, hub)
	segment := SegmentAt(result.SegmentIndex)
	if segment.Number != result.FinalSegment {
		t.Errorf("result index %d does not match number %d", result.SegmentIndex, result.FinalSegment)
	}

	select {
	case r := <-recorded:
		if r.BetCount != 2 || r.RoundID != result.RoundID {
			t.Errorf("recorded %+v, want 2 bets for %s", r, result.RoundID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("round was not recorded")
	}

	for _, handle := range []string{"alice", "bob"} {
		if n := len(hub.sentTo(handle)); n != 1 {
			t.Errorf("%s received %d bet results, want 1", handle, n)
		}
	}

	snap := c.Snapshot()
	if snap.State != StateIdle || snap.LastResult == nil || snap.LastResult.RoundID != result.RoundID {
		t.Errorf("Snapshot() = %+v, want idle with last result %s", snap, result.RoundID)
	}
}

func TestController_StartWhileRunningIsIgnored(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(slowConfig(), hub)
	defer c.Stop()

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	c.mu.Lock()
	first := c.current
	roundID := c.roundID
	c.mu.Unlock()

	if err := c.Start(); !errors.Is(err, ErrRoundInProgress) {
		t.Fatalf("second Start() error = %v, want ErrRoundInProgress", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != first || c.roundID != roundID {
		t.Error("second Start() replaced the running round")
	}
}

func TestController_ResetMidRound(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(slowConfig(), hub)

	speeds := []float64{0.1, 0.2, 0.9, 0.8}
	c.rng = func() float64 {
		v := speeds[0]
		speeds = speeds[1:]
		return v
	}

	placeBet(t, c, "alice", "color", `"black"`, 10)
	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	c.Reset()

	if c.State() != StateIdle {
		t.Errorf("State() = %s after Reset(), want %s", c.State(), StateIdle)
	}
	if c.ledger.Len() != 0 {
		t.Errorf("ledger holds %d bets after Reset()", c.ledger.Len())
	}

	ticks, _ := hub.count()
	time.Sleep(20 * time.Millisecond)
	if after, _ := hub.count(); after != ticks {
		t.Errorf("%d ticks ran after Reset() returned", after-ticks)
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start() after Reset() error: %v", err)
	}
	defer c.Stop()

	c.mu.Lock()
	wheelSpeed := c.wheel.AngularVelocity()
	ballSpeed := c.ball.Velocity()
	c.mu.Unlock()

	cfg := slowConfig()
	wantWheel := cfg.WheelSpeedMin + 0.9*(cfg.WheelSpeedMax-cfg.WheelSpeedMin)
	wantBall := cfg.BallSpeedMin + 0.8*(cfg.BallSpeedMax-cfg.BallSpeedMin)
	if wheelSpeed > wantWheel || wheelSpeed < wantWheel-0.1 {
		t.Errorf("wheel speed %v, want freshly drawn ~%v", wheelSpeed, wantWheel)
	}
	if ballSpeed > wantBall || ballSpeed < wantBall-0.1 {
		t.Errorf("ball speed %v, want freshly drawn ~%v", ballSpeed, wantBall)
	}

	if sent := hub.sentTo("alice"); len(sent) != 0 {
		t.Errorf("reset bet was settled: %v", sent)
	}
}

func TestController_ResetWhenIdle(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(DefaultConfig(), hub)
	placeBet(t, c, "alice", "color", `"red"`, 1)

	c.Reset()

	if c.State() != StateIdle || c.ledger.Len() != 0 {
		t.Errorf("Reset() left state %s with %d bets", c.State(), c.ledger.Len())
	}
	if ticks, results := hub.count(); ticks+results != 0 {
		t.Error("Reset() broadcast a message")
	}
}

func TestController_DisconnectDropsWager(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(fastConfig(), hub)

	placeBet(t, c, "alice", "color", `"red"`, 10)
	placeBet(t, c, "bob", "color", `"black"`, 10)
	c.Disconnect("alice")

	if _, ok := c.ledger.Get("alice"); ok {
		t.Fatal("Disconnect() left alice's wager in the ledger")
	}

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	waitResult(t, hub)

	if sent := hub.sentTo("alice"); len(sent) != 0 {
		t.Errorf("disconnected handle received %d messages", len(sent))
	}
	if sent := hub.sentTo("bob"); len(sent) != 1 {
		t.Errorf("bob received %d messages, want 1", len(sent))
	}
}

func TestController_ConcurrentBetsDuringRound(t *testing.T) {
	hub := newRecordingHub()
	c := NewController(fastConfig(), hub)

	if err := c.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			handle := string(rune('a' + n%26))
			c.PlaceBet(handle, PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"red"`), Amount: 1})
			_ = c.Snapshot()
		}(i)
	}
	wg.Wait()

	waitResult(t, hub)
	if c.State() != StateIdle {
		t.Errorf("State() = %s, want %s", c.State(), StateIdle)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		val       float64
		precision int
		want      float64
	}{
		{1.23456, 2, 1.23},
		{1.23999, 2, 1.23},
		{6.28318, 4, 6.2831},
	}

	for _, tt := range tests {
		if got := truncate(tt.val, tt.precision); got != tt.want {
			t.Errorf("truncate(%v, %d) = %v, want %v", tt.val, tt.precision, got, tt.want)
		}
	}
}

func TestNewRoundID(t *testing.T) {
	seen := make(map[string]bool)
	prev := ""
	for i := 0; i < 1000; i++ {
		id := newRoundID()
		parsed, err := uuid.Parse(id)
		if err != nil {
			t.Fatalf("newRoundID() = %q, not a UUID: %v", id, err)
		}
		if parsed.Version() != 7 {
			t.Errorf("newRoundID() version = %d, want 7", parsed.Version())
		}
		if seen[id] {
			t.Fatalf("newRoundID() repeated %s", id)
		}
		if id < prev {
			t.Errorf("newRoundID() not time-ordered: %s after %s", id, prev)
		}
		seen[id] = true
		prev = id
	}
}

func TestController_ResultPrecedesBetResult(t *testing.T) {
	hub := NewHub()
	go hub.Run()
	defer hub.Stop()

	player := fakeClient(hub, "alice")
	c := NewController(fastConfig(), hub)
	defer c.Stop()

	for round := 0; round < 10; round++ {
		placeBet(t, c, "alice", "color", `"red"`, 1)
		if err := c.Start(); err != nil {
			t.Fatalf("round %d: Start() error: %v", round, err)
		}

		sawResult := false
		for done := false; !done; {
			msg := receive(t, player)
			switch msg["type"] {
			case MSG_RESULT:
				sawResult = true
			case MSG_BET_RESULT:
				if !sawResult {
					t.Fatalf("round %d: bet_result delivered before result", round)
				}
				done = true
			}
		}

		deadline := time.Now().Add(time.Second)
		for c.State() != StateIdle && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
	}
}

func TestController_RestoreLastResult(t *testing.T) {
	c := NewController(DefaultConfig(), newRecordingHub())

	if snap := c.Snapshot(); snap.LastResult != nil {
		t.Fatalf("fresh snapshot has last result %+v", snap.LastResult)
	}

	c.RestoreLastResult(RoundResult{RoundID: "stored", Number: 17, Color: ColorBlack})
	snap := c.Snapshot()
	if snap.LastResult == nil || snap.LastResult.RoundID != "stored" {
		t.Fatalf("Snapshot().LastResult = %+v, want stored round", snap.LastResult)
	}

	c.mu.Lock()
	c.lastResult = &RoundResult{RoundID: "played"}
	c.mu.Unlock()

	c.RestoreLastResult(RoundResult{RoundID: "stale"})
	if got := c.Snapshot().LastResult.RoundID; got != "played" {
		t.Errorf("RestoreLastResult() replaced a played round, got %s", got)
	}
}
