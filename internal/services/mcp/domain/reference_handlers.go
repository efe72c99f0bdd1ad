package domain

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
)

// GetWorldStateHandler returns the committed world document.
func GetWorldStateHandler(lifecycle Lifecycle) mcp.ToolHandlerFor[WorldStateInput, WorldStateResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ WorldStateInput) (*mcp.CallToolResult, WorldStateResult, error) {
		snap, err := lifecycle.WorldState(ctx)
		if err != nil {
			return nil, WorldStateResult{Error: string(apperrors.CodeOf(err))}, nil
		}

		var state map[string]any
		if err := json.Unmarshal(snap.Document, &state); err != nil {
			return nil, WorldStateResult{Error: string(apperrors.CodeInvalidState)}, nil
		}

		result := WorldStateResult{Ok: true, WorldState: state}
		if snap.Found {
			result.LastUpdated = formatTime(snap.LastUpdated)
		}
		return nil, result, nil
	}
}

// GetPlaybookHandler returns the playbook exactly as loaded at startup.
func GetPlaybookHandler(pb playbook.Playbook) mcp.ToolHandlerFor[PlaybookInput, playbook.Playbook] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ PlaybookInput) (*mcp.CallToolResult, playbook.Playbook, error) {
		return nil, pb, nil
	}
}

// GetSystemPromptHandler returns the game master system prompt.
func GetSystemPromptHandler() mcp.ToolHandlerFor[SystemPromptInput, SystemPromptResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ SystemPromptInput) (*mcp.CallToolResult, SystemPromptResult, error) {
		return nil, SystemPromptResult{Ok: true, SystemPrompt: playbook.SystemPrompt}, nil
	}
}

// FindMediaHandler resolves a media query through the provider chain.
func FindMediaHandler(media MediaFinder) mcp.ToolHandlerFor[FindMediaInput, FindMediaResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input FindMediaInput) (*mcp.CallToolResult, FindMediaResult, error) {
		query := strings.TrimSpace(input.Query)
		if query == "" {
			return nil, FindMediaResult{Message: "query is required", Error: string(apperrors.CodeMediaQueryEmpty)}, nil
		}

		fetchCtx, cancel := newFetchContext(ctx)
		defer cancel()

		url, err := media.MediaURL(fetchCtx, query)
		if err != nil {
			return nil, FindMediaResult{Message: "No media found"}, nil
		}
		return nil, FindMediaResult{Ok: true, URL: url}, nil
	}
}
