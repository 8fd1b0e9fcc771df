package protocol

import "encoding/json"

const (
	IntentGenerate = "generate"
	IntentCancel   = "cancel"
)

type IntentEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RequestGenerate asks for one maze. Upper bounds on size, budget and delay
// are server configuration and are checked by the handler.
type RequestGenerate struct {
	Width       int     `json:"width" validate:"required"`
	Height      int     `json:"height" validate:"required"`
	Budget      *int    `json:"budget,omitempty" validate:"omitempty,min=0"`
	Seed        *uint64 `json:"seed,omitempty"`
	Policy      string  `json:"policy,omitempty" validate:"omitempty,oneof=unwind first_terminal"`
	StepDelayMS int     `json:"stepDelayMs,omitempty" validate:"min=0"`
}

// RequestCancel stops a run. A /watch spectator must name the run; on /stream
// the connection's own run is cancelled and RunID may be empty.
type RequestCancel struct {
	RunID string `json:"runId,omitempty"`
}
