package game

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

type BetKind string

const (
	BetKindNumber BetKind = "number"
	BetKindColor  BetKind = "color"
	BetKindParity BetKind = "even-odd"
)

type Parity string

const (
	ParityEven Parity = "even"
	ParityOdd  Parity = "odd"
)

const (
	NUMBER_PAYOUT = 35
	COLOR_PAYOUT  = 2
	PARITY_PAYOUT = 2
)

var (
	ErrInvalidBetType  = errors.New("invalid bet type")
	ErrInvalidBetValue = errors.New("invalid bet value")
	ErrInvalidAmount   = errors.New("invalid bet amount")
)

var validate = validator.New()

// PlaceBetRequest is the payload of a placeBet command as it arrives from a client
type PlaceBetRequest struct {
	BetType  string          `json:"betType" validate:"required,oneof=number color even-odd"`
	BetValue json.RawMessage `json:"betValue" validate:"required"`
	Amount   float64         `json:"amount" validate:"gt=0"`
}

// Wager is a single pending bet. Only the field matching Kind is meaningful.
type Wager struct {
	Kind   BetKind
	Number int
	Color  Color
	Parity Parity
	Amount decimal.Decimal
}

type wireWager struct {
	BetType  BetKind     `json:"betType"`
	BetValue interface{} `json:"betValue"`
	Amount   float64     `json:"amount"`
}

// ParseWager validates a client request and turns it into a Wager
func ParseWager(req PlaceBetRequest, maxAmount float64) (Wager, error) {
	if err := validate.Struct(req); err != nil {
		return Wager{}, validationError(err)
	}
	// an explicit null passes the required tag but carries no value
	if bytes.Equal(bytes.TrimSpace(req.BetValue), []byte("null")) {
		return Wager{}, fmt.Errorf("%w: betValue is required", ErrInvalidBetValue)
	}
	if maxAmount > 0 && req.Amount > maxAmount {
		return Wager{}, fmt.Errorf("%w: must not exceed %.2f", ErrInvalidAmount, maxAmount)
	}

	w := Wager{
		Kind:   BetKind(req.BetType),
		Amount: decimal.NewFromFloat(req.Amount),
	}

	switch w.Kind {
	case BetKindNumber:
		n, err := parseNumberValue(req.BetValue)
		if err != nil {
			return Wager{}, err
		}
		w.Number = n
	case BetKindColor:
		s, err := parseStringValue(req.BetValue)
		if err != nil {
			return Wager{}, err
		}
		switch Color(s) {
		case ColorRed, ColorBlack:
			w.Color = Color(s)
		default:
			return Wager{}, fmt.Errorf("%w: color must be red or black, got %q", ErrInvalidBetValue, s)
		}
	case BetKindParity:
		s, err := parseStringValue(req.BetValue)
		if err != nil {
			return Wager{}, err
		}
		switch Parity(s) {
		case ParityEven, ParityOdd:
			w.Parity = Parity(s)
		default:
			return Wager{}, fmt.Errorf("%w: parity must be even or odd, got %q", ErrInvalidBetValue, s)
		}
	default:
		return Wager{}, fmt.Errorf("%w: %s", ErrInvalidBetType, req.BetType)
	}

	return w, nil
}

// Payout is the signed result of the wager against a segment: the winnings on a hit, minus the
// stake otherwise.
func (w Wager) Payout(s Segment) decimal.Decimal {
	var won bool
	var multiplier int64

	switch w.Kind {
	case BetKindNumber:
		won, multiplier = w.Number == s.Number, NUMBER_PAYOUT
	case BetKindColor:
		won, multiplier = w.Color == s.Color, COLOR_PAYOUT
	case BetKindParity:
		won = (w.Parity == ParityEven && s.IsEven()) || (w.Parity == ParityOdd && s.IsOdd())
		multiplier = PARITY_PAYOUT
	}

	if !won {
		return w.Amount.Neg()
	}
	return w.Amount.Mul(decimal.NewFromInt(multiplier))
}

func (w Wager) Value() interface{} {
	switch w.Kind {
	case BetKindNumber:
		return w.Number
	case BetKindColor:
		return string(w.Color)
	case BetKindParity:
		return string(w.Parity)
	}
	return nil
}

func (w Wager) String() string {
	return fmt.Sprintf("%s %v (%s)", w.Kind, w.Value(), w.Amount.StringFixed(2))
}

func (w Wager) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireWager{
		BetType:  w.Kind,
		BetValue: w.Value(),
		Amount:   w.Amount.InexactFloat64(),
	})
}

func (w *Wager) UnmarshalJSON(data []byte) error {
	var req PlaceBetRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return err
	}
	parsed, err := ParseWager(req, 0)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func parseNumberValue(raw json.RawMessage) (int, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		// some clients send the pocket as a string
		s, serr := parseStringValue(raw)
		if serr != nil {
			return 0, serr
		}
		n, aerr := strconv.Atoi(strings.TrimSpace(s))
		if aerr != nil {
			return 0, fmt.Errorf("%w: %q is not a pocket number", ErrInvalidBetValue, s)
		}
		f = float64(n)
	}

	n := int(f)
	if float64(n) != f || n < 0 || n > 36 {
		return 0, fmt.Errorf("%w: pocket number must be 0-36, got %v", ErrInvalidBetValue, f)
	}
	return n, nil
}

func parseStringValue(raw json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidBetValue, string(raw))
	}
	return strings.ToLower(s), nil
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	switch verrs[0].Field() {
	case "BetType":
		return fmt.Errorf("%w: %v", ErrInvalidBetType, verrs[0].Value())
	case "BetValue":
		return fmt.Errorf("%w: missing", ErrInvalidBetValue)
	default:
		return fmt.Errorf("%w: must be positive", ErrInvalidAmount)
	}
}
