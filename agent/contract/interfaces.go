package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Session is one conversation's tool surface bound to its own state.
type Session interface {
	ID() string
	Tools() []*schema.ToolInfo
	ToolSpecs() []ToolSpec
	Invoke(ctx context.Context, req ToolRequest) ToolResult
}

// Variant builds fresh sessions for one agent flavour.
type Variant interface {
	Name() AgentType
	Instructions() string
	NewSession(sessionID string) Session
}

// Sink persists checkpoints. Write is all-or-nothing and returns the location
// of the written record.
type Sink interface {
	Write(ctx context.Context, cp Checkpoint) (string, error)
}
