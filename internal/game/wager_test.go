package game

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseWager(t *testing.T) {
	tests := []struct {
		name    string
		req     PlaceBetRequest
		wantErr error
		check   func(t *testing.T, w Wager)
	}{
		{
			name: "number bet",
			req:  PlaceBetRequest{BetType: "number", BetValue: json.RawMessage(`17`), Amount: 5},
			check: func(t *testing.T, w Wager) {
				if w.Kind != BetKindNumber || w.Number != 17 {
					t.Errorf("got %+v, want number 17", w)
				}
			},
		},
		{
			name: "number bet as string",
			req:  PlaceBetRequest{BetType: "number", BetValue: json.RawMessage(`"0"`), Amount: 5},
			check: func(t *testing.T, w Wager) {
				if w.Number != 0 {
					t.Errorf("Number = %d, want 0", w.Number)
				}
			},
		},
		{
			name: "color bet",
			req:  PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"Red"`), Amount: 2.5},
			check: func(t *testing.T, w Wager) {
				if w.Color != ColorRed || !w.Amount.Equal(decimal.RequireFromString("2.5")) {
					t.Errorf("got %+v, want red 2.5", w)
				}
			},
		},
		{
			name: "parity bet",
			req:  PlaceBetRequest{BetType: "even-odd", BetValue: json.RawMessage(`"odd"`), Amount: 1},
			check: func(t *testing.T, w Wager) {
				if w.Kind != BetKindParity || w.Parity != ParityOdd {
					t.Errorf("got %+v, want odd", w)
				}
			},
		},
		{"unknown type", PlaceBetRequest{BetType: "dozen", BetValue: json.RawMessage(`1`), Amount: 1}, ErrInvalidBetType, nil},
		{"missing type", PlaceBetRequest{BetValue: json.RawMessage(`1`), Amount: 1}, ErrInvalidBetType, nil},
		{"missing value", PlaceBetRequest{BetType: "number", Amount: 1}, ErrInvalidBetValue, nil},
		{"null value", PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`null`), Amount: 1}, ErrInvalidBetValue, nil},
		{"null number value", PlaceBetRequest{BetType: "number", BetValue: json.RawMessage(`null`), Amount: 5}, ErrInvalidBetValue, nil},
		{"null parity value", PlaceBetRequest{BetType: "even-odd", BetValue: json.RawMessage(` null `), Amount: 5}, ErrInvalidBetValue, nil},
		{"number out of range", PlaceBetRequest{BetType: "number", BetValue: json.RawMessage(`37`), Amount: 1}, ErrInvalidBetValue, nil},
		{"fractional number", PlaceBetRequest{BetType: "number", BetValue: json.RawMessage(`3.5`), Amount: 1}, ErrInvalidBetValue, nil},
		{"green is not a color bet", PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"green"`), Amount: 1}, ErrInvalidBetValue, nil},
		{"bad parity", PlaceBetRequest{BetType: "even-odd", BetValue: json.RawMessage(`"both"`), Amount: 1}, ErrInvalidBetValue, nil},
		{"zero amount", PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"red"`), Amount: 0}, ErrInvalidAmount, nil},
		{"negative amount", PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"red"`), Amount: -5}, ErrInvalidAmount, nil},
		{"above maximum", PlaceBetRequest{BetType: "color", BetValue: json.RawMessage(`"red"`), Amount: MAX_BET_AMOUNT + 1}, ErrInvalidAmount, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := ParseWager(tt.req, MAX_BET_AMOUNT)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseWager() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseWager() unexpected error: %v", err)
			}
			tt.check(t, w)
		})
	}
}

func TestWager_Payout(t *testing.T) {
	ten := decimal.NewFromInt(10)
	four := SegmentAt(3)  // 4 black
	five := SegmentAt(18) // 5 red
	zero := SegmentAt(36) // 0 green
	red32 := SegmentAt(0) // 32 red

	tests := []struct {
		name    string
		wager   Wager
		segment Segment
		want    int64
	}{
		{"number hit pays 35x", Wager{Kind: BetKindNumber, Number: 32, Amount: ten}, red32, 350},
		{"number miss loses stake", Wager{Kind: BetKindNumber, Number: 31, Amount: ten}, red32, -10},
		{"zero number hit", Wager{Kind: BetKindNumber, Number: 0, Amount: ten}, zero, 350},
		{"color hit pays 2x", Wager{Kind: BetKindColor, Color: ColorRed, Amount: ten}, five, 20},
		{"color miss", Wager{Kind: BetKindColor, Color: ColorBlack, Amount: ten}, five, -10},
		{"color on zero", Wager{Kind: BetKindColor, Color: ColorRed, Amount: ten}, zero, -10},
		{"even on 4", Wager{Kind: BetKindParity, Parity: ParityEven, Amount: ten}, four, 20},
		{"even on 5", Wager{Kind: BetKindParity, Parity: ParityEven, Amount: ten}, five, -10},
		{"odd on 5", Wager{Kind: BetKindParity, Parity: ParityOdd, Amount: ten}, five, 20},
		{"even on zero", Wager{Kind: BetKindParity, Parity: ParityEven, Amount: ten}, zero, -10},
		{"odd on zero", Wager{Kind: BetKindParity, Parity: ParityOdd, Amount: ten}, zero, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.wager.Payout(tt.segment)
			if !got.Equal(decimal.NewFromInt(tt.want)) {
				t.Errorf("Payout() = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestWager_PayoutIsExact(t *testing.T) {
	w := Wager{Kind: BetKindNumber, Number: 7, Amount: decimal.NewFromFloat(0.1)}
	got := w.Payout(SegmentAt(30)) // 7 red
	if !got.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("Payout() = %s, want 3.5", got)
	}
}

func TestWager_JSONShape(t *testing.T) {
	tests := []struct {
		name  string
		wager Wager
		want  string
	}{
		{"number", Wager{Kind: BetKindNumber, Number: 7, Amount: decimal.NewFromInt(5)}, `{"betType":"number","betValue":7,"amount":5}`},
		{"color", Wager{Kind: BetKindColor, Color: ColorBlack, Amount: decimal.NewFromFloat(2.5)}, `{"betType":"color","betValue":"black","amount":2.5}`},
		{"parity", Wager{Kind: BetKindParity, Parity: ParityEven, Amount: decimal.NewFromInt(10)}, `{"betType":"even-odd","betValue":"even","amount":10}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.wager)
			if err != nil {
				t.Fatalf("Marshal() error: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}
}
