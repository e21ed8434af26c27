package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/game"
	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	persistx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/persist"
)

func TestAppConfigValidate(t *testing.T) {
	t.Parallel()

	if err := (AppConfig{Variant: "grocery"}).Validate(); err != nil {
		t.Fatalf("grocery should be accepted: %v", err)
	}
	if err := (AppConfig{Variant: "weather"}).Validate(); err == nil {
		t.Fatalf("expected unknown variant error")
	}
}

func TestRunReturnsConfigError(t *testing.T) {
	t.Setenv("AGENT_VARIANT", "weather")

	if err := run(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected validation error from run, got %v", err)
	}
}

func TestRunToolsReadsJSONRequests(t *testing.T) {
	t.Parallel()

	saves, err := persistx.NewFileSink(t.TempDir(), "save")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	variant, err := game.New(game.Deps{Saves: saves})
	if err != nil {
		t.Fatalf("new variant: %v", err)
	}
	manager, err := orchestrator.NewManager(variant)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	in := strings.Join([]string{
		`{"call_id":"1","tool":"set_player_name","args":{"name":"Aria"}}`,
		``,
		`not json`,
		`{"call_id":"2","tool":"fly_away"}`,
	}, "\n")
	var out bytes.Buffer
	if err := runTools(context.Background(), manager, "s1", strings.NewReader(in), &out); err != nil {
		t.Fatalf("run tools: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected banner plus three responses, got %d: %q", len(lines), out.String())
	}

	var first contractx.ToolResult
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("decode first result: %v", err)
	}
	if first.CallID != "1" || first.Result != "Welcome, Aria." || first.Error != "" {
		t.Fatalf("unexpected first result: %+v", first)
	}
	if !strings.HasPrefix(lines[2], "invalid request:") {
		t.Fatalf("expected parse error line, got %q", lines[2])
	}

	var unknown contractx.ToolResult
	if err := json.Unmarshal([]byte(lines[3]), &unknown); err != nil {
		t.Fatalf("decode unknown result: %v", err)
	}
	if unknown.Error == "" || unknown.Result == "" {
		t.Fatalf("unknown tool should carry a reply and an error class: %+v", unknown)
	}
}
