package game

import (
	"log"

	"github.com/shopspring/decimal"
)

// Settlement is the outcome of one wager after a round
type Settlement struct {
	Handle string
	Wager  Wager
	Payout decimal.Decimal
}

// Ledger holds at most one pending wager per connection handle. It is not safe for concurrent
// use; the Controller serializes access.
type Ledger struct {
	wagers map[string]Wager
}

func NewLedger() *Ledger {
	return &Ledger{wagers: make(map[string]Wager)}
}

// Place stores the wager for handle, replacing any earlier one
func (l *Ledger) Place(handle string, w Wager) {
	if prev, ok := l.wagers[handle]; ok {
		log.Printf("[LEDGER] Replacing bet for %s: %s -> %s", handle, prev, w)
	}
	l.wagers[handle] = w
}

func (l *Ledger) Remove(handle string) {
	delete(l.wagers, handle)
}

func (l *Ledger) Get(handle string) (Wager, bool) {
	w, ok := l.wagers[handle]
	return w, ok
}

func (l *Ledger) Len() int {
	return len(l.wagers)
}

// Settle pays out every pending wager against the segment and empties the ledger
func (l *Ledger) Settle(s Segment) []Settlement {
	if len(l.wagers) == 0 {
		return nil
	}

	settlements := make([]Settlement, 0, len(l.wagers))
	for handle, w := range l.wagers {
		settlements = append(settlements, Settlement{
			Handle: handle,
			Wager:  w,
			Payout: w.Payout(s),
		})
	}

	l.wagers = make(map[string]Wager)
	return settlements
}

// Clear drops all wagers without paying anything
func (l *Ledger) Clear() {
	if len(l.wagers) > 0 {
		log.Printf("[LEDGER] Discarding %d pending bets", len(l.wagers))
	}
	l.wagers = make(map[string]Wager)
}
