package state

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MaxHealth = 100

	QuestNotStarted = "not_started"
	QuestActive     = "active"
	QuestCompleted  = "completed"
	QuestFailed     = "failed"
)

var QuestStatuses = []string{QuestNotStarted, QuestActive, QuestCompleted, QuestFailed}

var (
	ErrUnknownQuestStatus = errors.New("unknown quest status")
	ErrItemNotCarried     = errors.New("item is not in the inventory")
)

type GameEvent struct {
	Turn  int    `json:"turn"`
	Event string `json:"event"`
}

type NPC struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

type GameState struct {
	PlayerName      string      `json:"player_name"`
	CurrentLocation string      `json:"current_location"`
	Inventory       []string    `json:"inventory"`
	Health          int         `json:"health"`
	KeyEvents       []GameEvent `json:"key_events"`
	NPCsMet         []NPC       `json:"npcs_met"`
	QuestStatus     string      `json:"quest_status"`
	TurnCount       int         `json:"turn_count"`
}

// Game is one adventure's mutable state. Every mutation advances the turn
// counter. Not safe for concurrent use.
type Game struct {
	st GameState
}

func NewGame(startLocation string) *Game {
	return &Game{st: GameState{
		CurrentLocation: strings.TrimSpace(startLocation),
		Inventory:       []string{},
		Health:          MaxHealth,
		KeyEvents:       []GameEvent{},
		NPCsMet:         []NPC{},
		QuestStatus:     QuestNotStarted,
	}}
}

func (g *Game) tick() { g.st.TurnCount++ }

func (g *Game) SetPlayerName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errors.New("player name is empty")
	}
	g.st.PlayerName = name
	g.tick()
	return nil
}

// MoveTo returns the previous location.
func (g *Game) MoveTo(location string) (string, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", errors.New("location is empty")
	}
	prev := g.st.CurrentLocation
	g.st.CurrentLocation = location
	g.tick()
	return prev, nil
}

func (g *Game) AddItem(item string) error {
	item = strings.TrimSpace(item)
	if item == "" {
		return errors.New("item is empty")
	}
	g.st.Inventory = append(g.st.Inventory, item)
	g.tick()
	return nil
}

// RemoveItem drops the first carried item matching name, ignoring case.
func (g *Game) RemoveItem(item string) (string, error) {
	item = strings.TrimSpace(item)
	for i, it := range g.st.Inventory {
		if strings.EqualFold(it, item) {
			g.st.Inventory = append(g.st.Inventory[:i], g.st.Inventory[i+1:]...)
			g.tick()
			return it, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrItemNotCarried, item)
}

// AdjustHealth applies delta and clamps the result to 0..MaxHealth.
func (g *Game) AdjustHealth(delta int) int {
	delta = max(-MaxHealth, min(delta, MaxHealth))
	h := g.st.Health + delta
	switch {
	case h < 0:
		h = 0
	case h > MaxHealth:
		h = MaxHealth
	}
	g.st.Health = h
	g.tick()
	return h
}

func (g *Game) RecordEvent(event string) (GameEvent, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return GameEvent{}, errors.New("event is empty")
	}
	g.tick()
	ev := GameEvent{Turn: g.st.TurnCount, Event: event}
	g.st.KeyEvents = append(g.st.KeyEvents, ev)
	return ev, nil
}

// MeetNPC records an encounter; meeting the same name again only refreshes
// a non-empty role. It reports whether the NPC is new.
func (g *Game) MeetNPC(name, role string) (bool, error) {
	name, role = strings.TrimSpace(name), strings.TrimSpace(role)
	if name == "" {
		return false, errors.New("npc name is empty")
	}
	g.tick()
	for i, n := range g.st.NPCsMet {
		if strings.EqualFold(n.Name, name) {
			if role != "" {
				g.st.NPCsMet[i].Role = role
			}
			return false, nil
		}
	}
	g.st.NPCsMet = append(g.st.NPCsMet, NPC{Name: name, Role: role})
	return true, nil
}

func ParseQuestStatus(raw string) (string, error) {
	s := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), " ", "_")
	for _, known := range QuestStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownQuestStatus, raw)
}

func (g *Game) SetQuestStatus(raw string) (string, error) {
	s, err := ParseQuestStatus(raw)
	if err != nil {
		return "", err
	}
	g.st.QuestStatus = s
	g.tick()
	return s, nil
}

func (g *Game) IsDefeated() bool { return g.st.Health == 0 }

func (g *Game) Snapshot() GameState {
	st := g.st
	st.Inventory = append([]string{}, g.st.Inventory...)
	st.KeyEvents = append([]GameEvent{}, g.st.KeyEvents...)
	st.NPCsMet = append([]NPC{}, g.st.NPCsMet...)
	return st
}
