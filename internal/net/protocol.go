package net

import (
	"encoding/json"

	"github.com/rmcgame/progression/internal/core/event"
)

// Command ops accepted on the feed.
const (
	OpSpawn              = "spawn"
	OpDespawn            = "despawn"
	OpAddXP              = "add_xp"
	OpAddSkillPoints     = "add_skill_points"
	OpUnlockSkill        = "unlock_skill"
	OpAddRiftEnergy      = "add_rift_energy"
	OpAddStyleExperience = "add_style_experience"
	OpAddCurrency        = "add_currency"
	OpSpendCurrency      = "spend_currency"
	OpSnapshot           = "snapshot"
)

// KindResult tags the frame answering a command.
const KindResult = "result"

// Command is one inbound request. Session is filled in by the server and
// never read from the wire.
type Command struct {
	ID        uint64 `json:"id,omitempty"`
	Op        string `json:"op"`
	Character string `json:"character,omitempty"`
	Name      string `json:"name,omitempty"`
	Amount    int64  `json:"amount,omitempty"`
	Skill     string `json:"skill,omitempty"`
	Currency  string `json:"currency,omitempty"`

	Session uint64 `json:"-"`
}

// Frame is the envelope of every outbound message.
type Frame struct {
	Kind      string `json:"kind"`
	Entity    uint64 `json:"entity,omitempty"`
	Character string `json:"character,omitempty"`
	Payload   any    `json:"payload,omitempty"`
}

// Result answers one Command.
type Result struct {
	ID    uint64 `json:"id,omitempty"`
	Op    string `json:"op"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

// EncodeEvent wraps a bus event in a Frame.
func EncodeEvent(ev event.Kinded, characterID string) ([]byte, error) {
	return json.Marshal(Frame{
		Kind:      ev.Kind(),
		Entity:    uint64(ev.Owner()),
		Character: characterID,
		Payload:   ev,
	})
}

// EncodeResult wraps a command result in a Frame.
func EncodeResult(characterID string, r Result) ([]byte, error) {
	return json.Marshal(Frame{
		Kind:      KindResult,
		Character: characterID,
		Payload:   r,
	})
}

// DecodeCommand parses one inbound text message.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, err
	}
	return c, nil
}
