package domain

import "github.com/modelcontextprotocol/go-sdk/mcp"

// WorldStateInput requests the committed world document.
type WorldStateInput struct{}

// WorldStateResult carries the full committed world document.
type WorldStateResult struct {
	Ok          bool           `json:"ok" jsonschema:"whether the state was read"`
	WorldState  map[string]any `json:"world_state" jsonschema:"the committed world document"`
	LastUpdated string         `json:"last_updated,omitempty" jsonschema:"commit timestamp of the document"`
	Error       string         `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// PlaybookInput requests the kingdom strategy playbook.
type PlaybookInput struct{}

// SystemPromptInput requests the game master system prompt.
type SystemPromptInput struct{}

// SystemPromptResult carries the agent-facing system prompt.
type SystemPromptResult struct {
	Ok           bool   `json:"ok" jsonschema:"always true"`
	SystemPrompt string `json:"system_prompt" jsonschema:"system prompt for an agent playing the game"`
}

// FindMediaInput searches for an illustrative media link.
type FindMediaInput struct {
	Query string `json:"query" jsonschema:"search query; single words or two-word phrases work best"`
}

// FindMediaResult carries the first safe media hit.
type FindMediaResult struct {
	Ok      bool   `json:"ok" jsonschema:"whether a media URL was found"`
	URL     string `json:"url,omitempty" jsonschema:"direct media URL"`
	Message string `json:"message,omitempty" jsonschema:"human-readable note when ok is false"`
	Error   string `json:"error,omitempty" jsonschema:"stable error code when the query was invalid"`
}

// GetWorldStateTool describes the get_world_state tool.
func GetWorldStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_world_state",
		Description: "Return the entire committed world state document.",
	}
}

// GetPlaybookTool describes the get_playbook tool.
func GetPlaybookTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_playbook",
		Description: "Return the strategy playbook that guides how to run the kingdom.",
	}
}

// GetSystemPromptTool describes the get_system_prompt tool.
func GetSystemPromptTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_system_prompt",
		Description: "Return the system prompt for an agent acting as the kingdom's game master.",
	}
}

// FindMediaTool describes the find_media_url tool.
func FindMediaTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "find_media_url",
		Description: "Find a single safe media URL for a search query.",
	}
}
