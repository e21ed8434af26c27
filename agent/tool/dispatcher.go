package tool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

const (
	ReplyUnknownTool   = "I'm sorry, I can't do that in this conversation."
	ReplyNotFound      = "I'm sorry, I couldn't find that."
	ReplyUnauthorized  = "I'm sorry, I can't do that until your identity has been verified."
	ReplyPersistence   = "I'm sorry, something went wrong while saving that. Please try again in a moment."
	ReplyInternal      = "I'm sorry, something went wrong on my side."
	validationTemplate = "I couldn't do that: %s."
)

const redacted = "[redacted]"

// Dispatcher owns one session's tools. Calls are serialized so handlers may
// mutate session state without further locking.
type Dispatcher struct {
	sessionID string
	tools     []Tool
	byName    map[string]Tool

	mu     sync.Mutex
	runner compose.Runnable[contractx.ToolRequest, contractx.ToolResult]
	now    func() time.Time
}

type callState struct {
	req     contractx.ToolRequest
	tool    Tool
	args    Args
	result  string
	err     error
	started time.Time
}

func NewDispatcher(sessionID string, tools []Tool) (*Dispatcher, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	d := &Dispatcher{
		sessionID: sessionID,
		byName:    make(map[string]Tool, len(tools)),
		now:       time.Now,
	}
	for _, t := range tools {
		if err := t.validate(); err != nil {
			return nil, err
		}
		if _, dup := d.byName[t.Name]; dup {
			return nil, fmt.Errorf("tool %s registered twice", t.Name)
		}
		d.byName[t.Name] = t
		d.tools = append(d.tools, t)
	}

	runner, err := d.compile(context.Background())
	if err != nil {
		return nil, err
	}
	d.runner = runner
	return d, nil
}

// MustNewDispatcher panics on invalid tool declarations.
func MustNewDispatcher(sessionID string, tools []Tool) *Dispatcher {
	d, err := NewDispatcher(sessionID, tools)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dispatcher) ID() string { return d.sessionID }

func (d *Dispatcher) Tools() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(d.tools))
	for _, t := range d.tools {
		infos = append(infos, t.Info())
	}
	return infos
}

func (d *Dispatcher) ToolSpecs() []contractx.ToolSpec {
	specs := make([]contractx.ToolSpec, 0, len(d.tools))
	for _, t := range d.tools {
		specs = append(specs, t.Spec())
	}
	return specs
}

func (d *Dispatcher) compile(ctx context.Context) (compose.Runnable[contractx.ToolRequest, contractx.ToolResult], error) {
	graph := compose.NewGraph[contractx.ToolRequest, contractx.ToolResult]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.ToolRequest) (*callState, error) {
			return d.validateRequest(in), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("normalize_args",
		compose.InvokableLambda(func(ctx context.Context, st *callState) (*callState, error) {
			return normalizeArgs(st), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node normalize_args: %w", err)
	}

	if err := graph.AddLambdaNode("execute",
		compose.InvokableLambda(func(ctx context.Context, st *callState) (*callState, error) {
			return execute(ctx, st), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node execute: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, st *callState) (contractx.ToolResult, error) {
			return d.finalize(st), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "normalize_args"},
		{"normalize_args", "execute"},
		{"execute", "finalize"},
		{"finalize", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("tool.dispatch"))
	if err != nil {
		return nil, fmt.Errorf("compile dispatch graph: %w", err)
	}
	return runner, nil
}

// Invoke runs one tool call. It always returns a speakable result.
func (d *Dispatcher) Invoke(ctx context.Context, req contractx.ToolRequest) contractx.ToolResult {
	d.mu.Lock()
	defer d.mu.Unlock()

	started := d.now()
	out, err := d.runner.Invoke(ctx, req)
	if err != nil {
		log.Error().
			Err(err).
			Str("session_id", d.sessionID).
			Str("tool", req.Tool).
			Msg("dispatch pipeline failed")
		return contractx.ToolResult{
			CallID:  req.CallID,
			Tool:    req.Tool,
			Result:  ReplyInternal,
			Error:   err.Error(),
			Latency: d.now().Sub(started),
		}
	}
	return out
}

func (d *Dispatcher) validateRequest(req contractx.ToolRequest) *callState {
	req.Tool = strings.TrimSpace(req.Tool)
	st := &callState{req: req, started: d.now()}
	t, ok := d.byName[req.Tool]
	if !ok {
		st.err = fmt.Errorf("%w: %q", contractx.ErrUnknownTool, req.Tool)
		return st
	}
	st.tool = t
	return st
}

func normalizeArgs(st *callState) *callState {
	if st.err != nil {
		return st
	}
	args, err := normalize(st.tool.Params, st.req.Args)
	if err != nil {
		st.err = err
		return st
	}
	st.args = args
	return st
}

func execute(ctx context.Context, st *callState) (out *callState) {
	if st.err != nil {
		return st
	}
	defer func() {
		if r := recover(); r != nil {
			st.err = fmt.Errorf("tool %s panicked: %v", st.tool.Name, r)
			st.result = ""
			log.Error().
				Str("tool", st.tool.Name).
				Bytes("stack", debug.Stack()).
				Msgf("recovered tool panic: %v", r)
			out = st
		}
	}()
	st.result, st.err = st.tool.Handler(ctx, st.args)
	return st
}

func (d *Dispatcher) finalize(st *callState) contractx.ToolResult {
	res := contractx.ToolResult{
		CallID:  st.req.CallID,
		Tool:    st.req.Tool,
		Result:  st.result,
		Latency: d.now().Sub(st.started),
	}
	if st.err != nil {
		res.Result = ReplyFor(st.err)
		res.Error = st.err.Error()
	}
	d.logCall(st, res)
	return res
}

// ReplyFor maps an error to the text spoken in its place.
func ReplyFor(err error) string {
	var f *Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	switch {
	case errors.Is(err, contractx.ErrUnknownTool):
		return ReplyUnknownTool
	case errors.Is(err, contractx.ErrValidation):
		return fmt.Sprintf(validationTemplate, detail(err, contractx.ErrValidation))
	case errors.Is(err, contractx.ErrNotFound):
		return ReplyNotFound
	case errors.Is(err, contractx.ErrAuthorization):
		return ReplyUnauthorized
	case errors.Is(err, contractx.ErrPersistence):
		return ReplyPersistence
	default:
		return ReplyInternal
	}
}

// Outcome names the error class for logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, contractx.ErrUnknownTool):
		return "unknown_tool"
	case errors.Is(err, contractx.ErrValidation):
		return "validation"
	case errors.Is(err, contractx.ErrNotFound):
		return "not_found"
	case errors.Is(err, contractx.ErrAuthorization):
		return "unauthorized"
	case errors.Is(err, contractx.ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}

func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func (d *Dispatcher) logCall(st *callState, res contractx.ToolResult) {
	outcome := Outcome(st.err)

	var ev *zerolog.Event
	switch outcome {
	case "ok", "not_found", "validation", "unauthorized", "unknown_tool":
		ev = log.Info()
	case "persistence":
		ev = log.Error()
	default:
		ev = log.Warn()
	}
	ev = ev.
		Str("session_id", d.sessionID).
		Str("tool", res.Tool).
		Dur("latency", res.Latency).
		Str("outcome", outcome)
	if res.CallID != "" {
		ev = ev.Str("call_id", res.CallID)
	}
	if args := loggedArgs(st); len(args) > 0 {
		ev = ev.Interface("args", args)
	}
	if st.err != nil {
		ev = ev.Err(st.err)
	}
	ev.Msg("tool call")
}

func loggedArgs(st *callState) map[string]any {
	if st.args == nil {
		return nil
	}
	out := make(map[string]any, len(st.args))
	for _, p := range st.tool.Params {
		v, ok := st.args[p.Name]
		if !ok {
			continue
		}
		if p.Sensitive {
			v = redacted
		}
		out[p.Name] = v
	}
	return out
}
