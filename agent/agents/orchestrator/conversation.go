package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

type ConversationConfig struct {
	MaxToolRounds int
}

// Conversation drives one session with a chat model: the model picks tools,
// the session runs them and the final assistant text is returned.
type Conversation struct {
	model   model.ToolCallingChatModel
	session contractx.Session
	cfg     ConversationConfig

	mu      sync.Mutex
	history []*schema.Message
}

// NewConversation binds the session's tools to chatModel.
func NewConversation(chatModel model.ToolCallingChatModel, session contractx.Session, instructions string, cfg ConversationConfig) (*Conversation, error) {
	if chatModel == nil {
		return nil, errors.New("chat model is required")
	}
	if session == nil {
		return nil, errors.New("session is required")
	}
	if cfg.MaxToolRounds < 1 {
		cfg.MaxToolRounds = 1
	}

	toolModel, err := chatModel.WithTools(session.Tools())
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools: %v", contractx.ErrModelInvoke, err)
	}

	c := &Conversation{model: toolModel, session: session, cfg: cfg}
	if instructions = strings.TrimSpace(instructions); instructions != "" {
		c.history = append(c.history, schema.SystemMessage(instructions))
	}
	return c, nil
}

// Send adds a user turn and returns the assistant reply. Tool rounds are
// bounded by MaxToolRounds; a failed model call rolls the turn back.
func (c *Conversation) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", fmt.Errorf("%w: empty message", contractx.ErrValidation)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	mark := len(c.history)
	c.history = append(c.history, schema.UserMessage(text))

	for round := 0; round <= c.cfg.MaxToolRounds; round++ {
		msg, err := c.model.Generate(ctx, c.history)
		if err != nil {
			c.history = c.history[:mark]
			return "", fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
		}
		if msg == nil {
			c.history = c.history[:mark]
			return "", fmt.Errorf("%w: empty model response", contractx.ErrSchemaViolation)
		}

		c.history = append(c.history, msg)
		if len(msg.ToolCalls) == 0 {
			return strings.TrimSpace(msg.Content), nil
		}
		if round == c.cfg.MaxToolRounds {
			break
		}

		c.history = append(c.history, ExecuteToolCalls(ctx, c.session, msg.ToolCalls)...)
		log.Debug().
			Str("session_id", c.session.ID()).
			Int("round", round+1).
			Int("tool_calls", len(msg.ToolCalls)).
			Msg("tool round finished")
	}

	// Drop the unanswered tool calls so the history stays valid for the next turn.
	c.history = c.history[:len(c.history)-1]
	log.Warn().Str("session_id", c.session.ID()).Int("max_rounds", c.cfg.MaxToolRounds).Msg("tool round limit reached")
	return "", fmt.Errorf("%w: tool round limit %d reached", contractx.ErrSchemaViolation, c.cfg.MaxToolRounds)
}

// Turns reports the number of messages kept, system prompt included.
func (c *Conversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}
