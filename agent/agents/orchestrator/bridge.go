package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

const ReplyBadArguments = "I'm sorry, I couldn't understand the details for that request."

// ToolRequestFromCall decodes a model tool call. Blank arguments mean none.
func ToolRequestFromCall(callID, name, rawArgs string) (contractx.ToolRequest, error) {
	req := contractx.ToolRequest{CallID: callID, Tool: strings.TrimSpace(name)}
	if req.Tool == "" {
		return req, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
	}
	if rawArgs = strings.TrimSpace(rawArgs); rawArgs != "" {
		args := map[string]any{}
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return req, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, req.Tool, err)
		}
		req.Args = args
	}
	return req, nil
}

// invokeCall runs one model tool call and returns the text for the model.
func invokeCall(ctx context.Context, session contractx.Session, callID, name, rawArgs string) contractx.ToolResult {
	req, err := ToolRequestFromCall(callID, name, rawArgs)
	if err != nil {
		return contractx.ToolResult{CallID: callID, Tool: req.Tool, Result: ReplyBadArguments, Error: err.Error()}
	}
	return session.Invoke(ctx, req)
}

// ExecuteToolCalls runs eino tool calls in order and returns one tool message
// per call.
func ExecuteToolCalls(ctx context.Context, session contractx.Session, calls []schema.ToolCall) []*schema.Message {
	out := make([]*schema.Message, 0, len(calls))
	for _, call := range calls {
		res := invokeCall(ctx, session, call.ID, call.Function.Name, call.Function.Arguments)
		out = append(out, schema.ToolMessage(res.Result, call.ID))
	}
	return out
}
