package orchestrator

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

type fakeSession struct {
	id    string
	mu    sync.Mutex
	calls []contractx.ToolRequest
}

func (f *fakeSession) ID() string { return f.id }

func (f *fakeSession) Tools() []*schema.ToolInfo { return []*schema.ToolInfo{{Name: "lookup"}} }

func (f *fakeSession) ToolSpecs() []contractx.ToolSpec {
	return []contractx.ToolSpec{{Name: "lookup", Description: "Look up", Parameters: map[string]any{"type": "object"}}}
}

func (f *fakeSession) Invoke(_ context.Context, req contractx.ToolRequest) contractx.ToolResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return contractx.ToolResult{CallID: req.CallID, Tool: req.Tool, Result: "result for " + req.Tool}
}

type fakeVariant struct {
	name    contractx.AgentType
	created atomic.Int32
}

func (f *fakeVariant) Name() contractx.AgentType { return f.name }

func (f *fakeVariant) Instructions() string { return "be helpful" }

func (f *fakeVariant) NewSession(id string) contractx.Session {
	f.created.Add(1)
	return &fakeSession{id: id}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r, err := NewRegistry(&fakeVariant{name: contractx.AgentTypeSDR}, &fakeVariant{name: contractx.AgentTypeGame})
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	if _, err := r.Get(contractx.AgentTypeGame); err != nil {
		t.Fatalf("Get(game) error = %v", err)
	}
	if _, err := r.Get(contractx.AgentTypeFraud); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Get(fraud) error = %v, want ErrNotFound", err)
	}
	if names := r.Names(); len(names) != 2 || names[0] != contractx.AgentTypeGame {
		t.Fatalf("Names() = %v", names)
	}
	if _, err := NewRegistry(&fakeVariant{name: "sdr"}, &fakeVariant{name: "sdr"}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("duplicate error = %v, want ErrValidation", err)
	}
}

func TestManagerOpenIsIdempotent(t *testing.T) {
	t.Parallel()

	v := &fakeVariant{name: contractx.AgentTypeSDR}
	var hooked atomic.Int32
	m, err := NewManager(v, WithOnOpen(func(contractx.Session) { hooked.Add(1) }))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Open("s1"); err != nil {
				t.Errorf("Open() error = %v", err)
			}
		}()
	}
	wg.Wait()

	if got := v.created.Load(); got != 1 {
		t.Fatalf("sessions created = %d, want 1", got)
	}
	if got := hooked.Load(); got != 1 {
		t.Fatalf("hook calls = %d, want 1", got)
	}
	if m.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", m.Len())
	}
	if _, err := m.Open("  "); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Open(blank) error = %v, want ErrInvalidSession", err)
	}
}

func TestManagerInvokeAndClose(t *testing.T) {
	t.Parallel()

	m, _ := NewManager(&fakeVariant{name: contractx.AgentTypeSDR})
	if _, err := m.Invoke(context.Background(), "missing", contractx.ToolRequest{Tool: "lookup"}); !errors.Is(err, contractx.ErrNotFound) {
		t.Fatalf("Invoke(missing) error = %v, want ErrNotFound", err)
	}

	_, _ = m.Open("s1")
	res, err := m.Invoke(context.Background(), "s1", contractx.ToolRequest{Tool: "lookup"})
	if err != nil || res.Result != "result for lookup" {
		t.Fatalf("Invoke() = %+v, %v", res, err)
	}
	if !m.Close("s1") || m.Close("s1") {
		t.Fatal("Close() should report true then false")
	}
	if m.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", m.Len())
	}
}

func TestExecuteToolCalls(t *testing.T) {
	t.Parallel()

	s := &fakeSession{id: "s1"}
	msgs := ExecuteToolCalls(context.Background(), s, []schema.ToolCall{
		{ID: "c1", Function: schema.FunctionCall{Name: "lookup", Arguments: `{"query":"price"}`}},
		{ID: "c2", Function: schema.FunctionCall{Name: "lookup", Arguments: `{not json`}},
		{ID: "c3", Function: schema.FunctionCall{Name: "lookup"}},
	})

	if len(msgs) != 3 {
		t.Fatalf("messages = %d, want 3", len(msgs))
	}
	if msgs[0].ToolCallID != "c1" || msgs[0].Content != "result for lookup" || msgs[0].Role != schema.Tool {
		t.Fatalf("first message = %+v", msgs[0])
	}
	if msgs[1].Content != ReplyBadArguments {
		t.Fatalf("bad args message = %q", msgs[1].Content)
	}
	if len(s.calls) != 2 || s.calls[0].Args["query"] != "price" || s.calls[1].Args != nil {
		t.Fatalf("session calls = %+v", s.calls)
	}
}

type scriptedModel struct {
	responses []*schema.Message
	err       error
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
}

func (f *scriptedModel) Generate(_ context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, append([]*schema.Message(nil), input...))
	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[0]
	f.responses = f.responses[1:]
	return msg, nil
}

func (f *scriptedModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *scriptedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

func toolCallMessage() *schema.Message {
	return schema.AssistantMessage("", []schema.ToolCall{
		{ID: "call_1", Function: schema.FunctionCall{Name: "lookup", Arguments: `{"query":"price"}`}},
	})
}

func TestConversationRunsToolsThenAnswers(t *testing.T) {
	t.Parallel()

	s := &fakeSession{id: "s1"}
	chat := &scriptedModel{responses: []*schema.Message{
		toolCallMessage(),
		schema.AssistantMessage(" It costs ten dollars. ", nil),
	}}
	conv, err := NewConversation(chat, s, "be helpful", ConversationConfig{MaxToolRounds: 2})
	if err != nil {
		t.Fatalf("NewConversation() error = %v", err)
	}
	if len(chat.tools) != 1 || chat.tools[0].Name != "lookup" {
		t.Fatalf("bound tools = %+v", chat.tools)
	}

	got, err := conv.Send(context.Background(), "how much is it?")
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got != "It costs ten dollars." {
		t.Fatalf("Send() = %q", got)
	}
	if len(s.calls) != 1 || s.calls[0].CallID != "call_1" {
		t.Fatalf("session calls = %+v", s.calls)
	}
	if len(chat.inputs) != 2 {
		t.Fatalf("model calls = %d, want 2", len(chat.inputs))
	}
	second := chat.inputs[1]
	last := second[len(second)-1]
	if last.Role != schema.Tool || last.ToolCallID != "call_1" || last.Content != "result for lookup" {
		t.Fatalf("tool message = %+v", last)
	}
	// system, user, assistant tool call, tool result, assistant answer
	if conv.Turns() != 5 {
		t.Fatalf("Turns() = %d, want 5", conv.Turns())
	}
}

func TestConversationRoundLimit(t *testing.T) {
	t.Parallel()

	s := &fakeSession{id: "s1"}
	chat := &scriptedModel{responses: []*schema.Message{toolCallMessage(), toolCallMessage()}}
	conv, err := NewConversation(chat, s, "", ConversationConfig{MaxToolRounds: 1})
	if err != nil {
		t.Fatalf("NewConversation() error = %v", err)
	}

	if _, err := conv.Send(context.Background(), "loop"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("Send() error = %v, want ErrSchemaViolation", err)
	}
	if len(s.calls) != 1 {
		t.Fatalf("session calls = %d, want 1", len(s.calls))
	}
	// user, assistant tool call, tool result; the unanswered call is dropped
	if conv.Turns() != 3 {
		t.Fatalf("Turns() = %d, want 3", conv.Turns())
	}
}

func TestConversationModelFailureRollsBack(t *testing.T) {
	t.Parallel()

	chat := &scriptedModel{err: errors.New("503")}
	conv, err := NewConversation(chat, &fakeSession{id: "s1"}, "sys", ConversationConfig{})
	if err != nil {
		t.Fatalf("NewConversation() error = %v", err)
	}

	if _, err := conv.Send(context.Background(), "hello"); !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("Send() error = %v, want ErrModelInvoke", err)
	}
	if conv.Turns() != 1 {
		t.Fatalf("Turns() = %d, want 1", conv.Turns())
	}
	if _, err := conv.Send(context.Background(), "  "); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Send(blank) error = %v, want ErrValidation", err)
	}
}

func TestNewConversationRequiresModel(t *testing.T) {
	t.Parallel()

	if _, err := NewConversation(nil, &fakeSession{id: "s1"}, "", ConversationConfig{}); err == nil {
		t.Fatal("expected error without a chat model")
	}
}
