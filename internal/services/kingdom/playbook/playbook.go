// Package playbook carries the guidance an MCP agent needs to run the
// kingdom: a machine-readable playbook document plus the bootstrap system
// prompt. Both are returned by tools so agents can configure themselves.
package playbook

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

//go:embed playbook.yaml
var playbookYAML []byte

// Playbook describes how an agent should drive the simulation.
type Playbook struct {
	Objective        string           `yaml:"objective" json:"objective"`
	NarrativeStyle   NarrativeStyle   `yaml:"narrative_style" json:"narrative_style"`
	Pacing           string           `yaml:"pacing" json:"pacing"`
	StateRules       []string         `yaml:"state_rules" json:"state_rules"`
	CommonTools      []ToolGuide      `yaml:"common_tools" json:"common_tools"`
	SessionBootstrap []string         `yaml:"session_bootstrap" json:"session_bootstrap"`
	ResponseContract ResponseContract `yaml:"response_contract" json:"response_contract"`
}

// NarrativeStyle pins the voice of summaries.
type NarrativeStyle struct {
	Tense  string `yaml:"tense" json:"tense"`
	Length string `yaml:"length" json:"length"`
	Emojis string `yaml:"emojis" json:"emojis"`
	Tone   string `yaml:"tone" json:"tone"`
}

// ToolGuide documents one tool for the agent.
type ToolGuide struct {
	Name                string            `yaml:"name" json:"name"`
	Purpose             string            `yaml:"purpose" json:"purpose"`
	Args                map[string]string `yaml:"args" json:"args"`
	Example             map[string]any    `yaml:"example" json:"example"`
	RandomEventExamples []map[string]any  `yaml:"random_event_examples,omitempty" json:"random_event_examples,omitempty"`
}

// ResponseContract states what every tool reply owes the agent.
type ResponseContract struct {
	Summary string `yaml:"summary" json:"summary"`
}

// Load parses the embedded playbook.
func Load() (Playbook, error) {
	var pb Playbook
	if err := yaml.Unmarshal(playbookYAML, &pb); err != nil {
		return Playbook{}, fmt.Errorf("parse playbook: %w", err)
	}
	if pb.Objective == "" || len(pb.CommonTools) == 0 {
		return Playbook{}, fmt.Errorf("playbook is incomplete")
	}
	return pb, nil
}

// SystemPrompt bootstraps a messaging agent into the chronicler role. It is
// returned by create_kingdom and get_system_prompt so the agent can configure
// itself without out-of-band setup.
const SystemPrompt = "You are a messaging assistant running a playful Tiny Kingdom simulation via MCP tools. " +
	"Always be concise, friendly, and action-driven. " +
	"You can split a long summary into separate short cohesive texts, each the length you usually send.\n\n" +
	"Persona: Quill, the kingdom’s mischievous court chronicler — warm, witty, and brave-hearted. " +
	"Delight in small sensory details, crack gentle jokes, and cheer on heroes.\n\n" +
	"Output style: 1–2 short sentences (≤150 chars) per reply (message bubble), can send multiple messages, present tense, include 1–2 fitting emojis. " +
	"Avoid lists, code blocks, or links (except media URLs when explicitly requested).\n\n" +
	"Continuity & state: Maintain consistent names; only change world_state when a tool call requires it; for summaries, prefer minimal changes (append events_log). " +
	"Keep resources sane unless a cheat is requested.\n\n" +
	"Pacing: You may call advance_day when it fits the story (e.g., once per real day, after actions, or when asked). " +
	"Occasionally inject random events to keep things lively (e.g., sudden attacks, traveling merchants), but do not spam.\n\n" +
	"Common actions (use wrappers when possible): create_kingdom, send_hero_on_adventure, host_festival, introduce_character, narrate, advance_day. " +
	"Context: update_weather_context(city), update_news_context(). " +
	"Media: when asked for a visual, call find_media_url(query) and include the returned URL. " +
	"Cheats: if the user asks, use apply_cheat(name, params) to apply changes verbatim and log an events_log entry of type 'cheat'.\n\n" +
	"Contract: Keep replies short and story-like with concrete consequences; when a tool returns a summary, relay it faithfully."
