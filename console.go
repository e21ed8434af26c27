package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
)

const toolsCommand = "/tools"

// runChat reads one user utterance per line and prints the assistant reply.
func runChat(ctx context.Context, conv *orchestrator.Conversation, variant contractx.Variant, session contractx.Session, in io.Reader, out io.Writer) error {
	fmt.Fprintf(out, "%s agent ready (session %s). Type a message, Ctrl-D to quit.\n", variant.Name(), session.ID())

	return eachLine(ctx, in, func(line string) {
		reply, err := conv.Send(ctx, line)
		if err != nil {
			log.Error().Err(err).Str("session_id", session.ID()).Msg("chat turn failed")
			fmt.Fprintln(out, "Sorry, I had trouble with that. Could you say it again?")
			return
		}
		fmt.Fprintln(out, reply)
	})
}

// runTools reads JSON tool requests, one per line, and prints each result as
// JSON. "/tools" prints the declared tools.
func runTools(ctx context.Context, manager *orchestrator.Manager, sessionID string, in io.Reader, out io.Writer) error {
	session, err := manager.Open(sessionID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)

	fmt.Fprintf(out, "%s tools ready (session %s). Send {\"tool\":...,\"args\":{...}} per line, %s to list tools.\n",
		manager.Variant().Name(), sessionID, toolsCommand)

	return eachLine(ctx, in, func(line string) {
		if line == toolsCommand {
			if err := enc.Encode(session.ToolSpecs()); err != nil {
				log.Error().Err(err).Msg("write tool list")
			}
			return
		}
		var req contractx.ToolRequest
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			fmt.Fprintf(out, "invalid request: %v\n", err)
			return
		}
		res, err := manager.Invoke(ctx, sessionID, req)
		if err != nil {
			fmt.Fprintf(out, "invoke failed: %v\n", err)
			return
		}
		if err := enc.Encode(res); err != nil {
			log.Error().Err(err).Msg("write tool result")
		}
	})
}

func eachLine(ctx context.Context, in io.Reader, handle func(string)) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		handle(line)
	}
	return scanner.Err()
}
