package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	CMD_START     = "startSimulation"
	CMD_RESET     = "resetSimulation"
	CMD_PLACE_BET = "placeBet"
	CMD_PING      = "ping"
)

var (
	ErrMalformedCommand = errors.New("malformed command")
	ErrUnknownCommand   = errors.New("unknown command")
)

// Command is an inbound client message. Bet fields are only read for placeBet.
type Command struct {
	Type string `json:"type"`
	PlaceBetRequest
}

// HandleCommand applies one raw client message on behalf of handle and returns the reply for
// that client. Malformed or unknown commands return an error and leave the table untouched.
func (c *Controller) HandleCommand(handle string, raw []byte) (interface{}, error) {
	var cmd Command
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCommand, err)
	}

	switch cmd.Type {
	case CMD_START:
		resp := CommandResponse{Type: MSG_ACK, Command: CMD_START, Success: true, Message: "Round started"}
		if err := c.Start(); err != nil {
			resp.Success = false
			resp.Message = err.Error()
		}
		return resp, nil

	case CMD_RESET:
		c.Reset()
		return CommandResponse{Type: MSG_ACK, Command: CMD_RESET, Success: true, Message: "Table reset"}, nil

	case CMD_PLACE_BET:
		return c.PlaceBet(handle, cmd.PlaceBetRequest), nil

	case CMD_PING:
		return map[string]string{"type": MSG_PONG}, nil

	case "":
		return nil, fmt.Errorf("%w: missing type", ErrMalformedCommand)

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Type)
	}
}
