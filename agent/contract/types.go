package contract

import "time"

type AgentType string

const (
	AgentTypeSDR     AgentType = "sdr"
	AgentTypeGrocery AgentType = "grocery"
	AgentTypeFraud   AgentType = "fraud"
	AgentTypeGame    AgentType = "game"
)

// ParseAgentType accepts the configured variant name.
func ParseAgentType(raw string) (AgentType, bool) {
	switch AgentType(raw) {
	case AgentTypeSDR, AgentTypeGrocery, AgentTypeFraud, AgentTypeGame:
		return AgentType(raw), true
	default:
		return "", false
	}
}

type ToolRequest struct {
	CallID string         `json:"call_id,omitempty"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

// ToolResult always carries a speakable Result. Error classifies the failure
// for logging and is never read back to the user.
type ToolResult struct {
	CallID  string        `json:"call_id,omitempty"`
	Tool    string        `json:"tool"`
	Result  string        `json:"result"`
	Error   string        `json:"error,omitempty"`
	Latency time.Duration `json:"-"`
}

// Checkpoint is one finalized record handed to a Sink.
type Checkpoint struct {
	Kind      string    `json:"kind"`
	Name      string    `json:"name"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Payload   any       `json:"payload"`
}

// ToolSpec is a tool declaration in OpenAI function-calling form.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
