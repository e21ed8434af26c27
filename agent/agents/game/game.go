package game

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/contract"
	promptx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/prompt"
	statex "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/state"
	toolx "github.com/tanpawarit/Chative-Voice-Tool-Agents/agent/tool"
)

const (
	ToolGetGameState        = "get_game_state"
	ToolSetPlayerName       = "set_player_name"
	ToolMoveToLocation      = "move_to_location"
	ToolAddToInventory      = "add_to_inventory"
	ToolRemoveFromInventory = "remove_from_inventory"
	ToolUpdateHealth        = "update_health"
	ToolRecordEvent         = "record_event"
	ToolMeetNPC             = "meet_npc"
	ToolSetQuestStatus      = "set_quest_status"
	ToolSaveGame            = "save_game"

	DefaultStartLocation = "the village square"
)

type Deps struct {
	Saves         contractx.Sink
	StartLocation string
	Now           func() time.Time
}

type Variant struct {
	deps Deps
}

var _ contractx.Variant = (*Variant)(nil)

func New(deps Deps) (*Variant, error) {
	if deps.Saves == nil {
		return nil, errors.New("save sink is required")
	}
	deps.StartLocation = strings.TrimSpace(deps.StartLocation)
	if deps.StartLocation == "" {
		deps.StartLocation = DefaultStartLocation
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Variant{deps: deps}, nil
}

func (v *Variant) Name() contractx.AgentType { return contractx.AgentTypeGame }

func (v *Variant) Instructions() string {
	return promptx.MustRender(contractx.AgentTypeGame, promptx.Data{StartLocation: v.deps.StartLocation})
}

func (v *Variant) NewSession(sessionID string) contractx.Session {
	s := &session{deps: v.deps, game: statex.NewGame(v.deps.StartLocation)}
	return toolx.MustNewDispatcher(sessionID, s.tools())
}

type session struct {
	deps Deps
	game *statex.Game
}

func (s *session) tools() []toolx.Tool {
	text := func(name, desc string) []toolx.Param {
		return []toolx.Param{{Name: name, Type: toolx.String, Desc: desc, Required: true}}
	}
	return []toolx.Tool{
		{
			Name:    ToolGetGameState,
			Desc:    "Read the player's current situation: location, health, inventory and quest.",
			Handler: s.getGameState,
		},
		{
			Name:    ToolSetPlayerName,
			Desc:    "Record the player's character name.",
			Params:  text("name", "Character name"),
			Handler: s.setPlayerName,
		},
		{
			Name:    ToolMoveToLocation,
			Desc:    "Move the player to a new location.",
			Params:  text("location", "Where the player goes"),
			Handler: s.moveToLocation,
		},
		{
			Name:    ToolAddToInventory,
			Desc:    "Give the player an item.",
			Params:  text("item", "Item picked up"),
			Handler: s.addToInventory,
		},
		{
			Name:    ToolRemoveFromInventory,
			Desc:    "Take an item from the player, when used, lost or given away.",
			Params:  text("item", "Item to remove"),
			Handler: s.removeFromInventory,
		},
		{
			Name: ToolUpdateHealth,
			Desc: "Change the player's health by a signed amount. Health stays between 0 and 100.",
			Params: []toolx.Param{
				{Name: "change", Type: toolx.Integer, Desc: "Negative for damage, positive for healing", Required: true},
			},
			Handler: s.updateHealth,
		},
		{
			Name:    ToolRecordEvent,
			Desc:    "Remember a key story event.",
			Params:  text("event", "Short description of what happened"),
			Handler: s.recordEvent,
		},
		{
			Name: ToolMeetNPC,
			Desc: "Record a character the player has met.",
			Params: []toolx.Param{
				{Name: "name", Type: toolx.String, Desc: "Character name", Required: true},
				{Name: "role", Type: toolx.String, Desc: "Who they are, e.g. blacksmith"},
			},
			Handler: s.meetNPC,
		},
		{
			Name: ToolSetQuestStatus,
			Desc: "Update the main quest status.",
			Params: []toolx.Param{
				{Name: "status", Type: toolx.String, Desc: "New quest status", Required: true, Enum: statex.QuestStatuses},
			},
			Handler: s.setQuestStatus,
		},
		{
			Name:    ToolSaveGame,
			Desc:    "Save the adventure so it can be continued later.",
			Handler: s.saveGame,
		},
	}
}
