package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dustin/go-humanize/english"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const defaultPlayerName = "adventurer"

func (s *session) getGameState(context.Context, toolx.Args) (string, error) {
	st := s.game.Snapshot()

	var b strings.Builder
	subject := st.PlayerName
	if subject == "" {
		subject = "The adventurer"
	}
	fmt.Fprintf(&b, "%s is at %s with %d health.", subject, st.CurrentLocation, st.Health)
	if len(st.Inventory) == 0 {
		b.WriteString(" They carry nothing.")
	} else {
		fmt.Fprintf(&b, " They carry %s.", english.OxfordWordSeries(st.Inventory, "and"))
	}
	if len(st.NPCsMet) > 0 {
		names := make([]string, 0, len(st.NPCsMet))
		for _, n := range st.NPCsMet {
			if n.Role != "" {
				names = append(names, fmt.Sprintf("%s the %s", n.Name, n.Role))
			} else {
				names = append(names, n.Name)
			}
		}
		fmt.Fprintf(&b, " They have met %s.", english.OxfordWordSeries(names, "and"))
	}
	fmt.Fprintf(&b, " Quest status: %s.", strings.ReplaceAll(st.QuestStatus, "_", " "))
	if n := len(st.KeyEvents); n > 0 {
		fmt.Fprintf(&b, " Latest event: %s.", strings.TrimSuffix(st.KeyEvents[n-1].Event, "."))
	}
	return b.String(), nil
}

func (s *session) setPlayerName(_ context.Context, args toolx.Args) (string, error) {
	if err := s.game.SetPlayerName(args.String("name")); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Sprintf("Welcome, %s.", args.String("name")), nil
}

func (s *session) moveToLocation(_ context.Context, args toolx.Args) (string, error) {
	prev, err := s.game.MoveTo(args.String("location"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Sprintf("Moved from %s to %s.", prev, args.String("location")), nil
}

func (s *session) addToInventory(_ context.Context, args toolx.Args) (string, error) {
	item := args.String("item")
	if err := s.game.AddItem(item); err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Sprintf("Added %s to the inventory.", item), nil
}

func (s *session) removeFromInventory(_ context.Context, args toolx.Args) (string, error) {
	item := args.String("item")
	removed, err := s.game.RemoveItem(item)
	if errors.Is(err, statex.ErrItemNotCarried) {
		return "", toolx.ReplyCause(contractx.ErrNotFound, fmt.Sprintf("The player isn't carrying %s.", item), err)
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Removed %s from the inventory.", removed), nil
}

func (s *session) updateHealth(_ context.Context, args toolx.Args) (string, error) {
	h := s.game.AdjustHealth(args.Int("change"))
	if s.game.IsDefeated() {
		return "Health is now 0. The player has fallen.", nil
	}
	return fmt.Sprintf("Health is now %d.", h), nil
}

func (s *session) recordEvent(_ context.Context, args toolx.Args) (string, error) {
	ev, err := s.game.RecordEvent(args.String("event"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Sprintf("Noted for turn %d.", ev.Turn), nil
}

func (s *session) meetNPC(_ context.Context, args toolx.Args) (string, error) {
	name := args.String("name")
	isNew, err := s.game.MeetNPC(name, args.String("role"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if !isNew {
		return fmt.Sprintf("The player has met %s before.", name), nil
	}
	return fmt.Sprintf("The player has now met %s.", name), nil
}

func (s *session) setQuestStatus(_ context.Context, args toolx.Args) (string, error) {
	status, err := s.game.SetQuestStatus(args.String("status"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	return fmt.Sprintf("Quest status is now %s.", strings.ReplaceAll(status, "_", " ")), nil
}

func (s *session) saveGame(ctx context.Context, _ toolx.Args) (string, error) {
	st := s.game.Snapshot()
	now := s.deps.Now()
	location, err := s.deps.Saves.Write(ctx, contractx.Checkpoint{
		Kind:      "game",
		Name:      playerName(st),
		CreatedAt: now,
		Payload:   st,
	})
	if err != nil {
		return "", fmt.Errorf("save game: %w", err)
	}

	log.Info().
		Str("path", location).
		Int("turn", st.TurnCount).
		Msg("game saved")
	return fmt.Sprintf("Your adventure has been saved, %s. You can pick it up from %s next time.", playerName(st), st.CurrentLocation), nil
}

func playerName(st statex.GameState) string {
	if st.PlayerName != "" {
		return st.PlayerName
	}
	return defaultPlayerName
}
