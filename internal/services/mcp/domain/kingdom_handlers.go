package domain

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	kingdom "github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
)

// runIntentCycle executes one cycle and folds the result into the shared outcome.
func runIntentCycle(ctx context.Context, lifecycle Lifecycle, notify ResourceUpdateNotifier, intent kingdom.Intent) CycleOutcome {
	runCtx, cancel := newToolContext(ctx)
	defer cancel()

	res, err := lifecycle.RunCycle(runCtx, intent)
	if err != nil {
		return cycleFailure(err)
	}
	NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
	return committedOutcome(res)
}

// runActionCycle executes an action-mode cycle under a canned action name.
func runActionCycle(ctx context.Context, lifecycle Lifecycle, notify ResourceUpdateNotifier, action string, params map[string]any) CycleOutcome {
	return runIntentCycle(ctx, lifecycle, notify, kingdom.NewActionIntent(action, params))
}

// CreateKingdomHandler founds a kingdom and returns the session briefing.
func CreateKingdomHandler(lifecycle Lifecycle, pb playbook.Playbook, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[CreateKingdomInput, CreateKingdomResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input CreateKingdomInput) (*mcp.CallToolResult, CreateKingdomResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		res, err := lifecycle.RunCycle(runCtx, kingdom.NewCreateIntent(input.KingdomName, input.Theme))
		if err != nil {
			return nil, CreateKingdomResult{Summary: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}

		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, CreateKingdomResult{
			Ok:            true,
			Summary:       res.Summary,
			Backstory:     res.Document.Get("backstory").String(),
			StartingPoint: res.Document.Get("starting_point").String(),
			LastUpdated:   formatTime(res.LastUpdated),
			Warnings:      res.Warnings,
			Playbook:      &pb,
			SystemPrompt:  playbook.SystemPrompt,
		}, nil
	}
}

// KingdomActionHandler performs a free-form action cycle.
func KingdomActionHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[KingdomActionInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input KingdomActionInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runActionCycle(ctx, lifecycle, notify, input.Action, input.Params), nil
	}
}

// KingdomQueryHandler answers a question through a query cycle.
func KingdomQueryHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[KingdomQueryInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input KingdomQueryInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runIntentCycle(ctx, lifecycle, notify, kingdom.NewQueryIntent(input.Question)), nil
	}
}

// SendHeroHandler sends a hero, or a random adventurer, on an adventure.
func SendHeroHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[SendHeroInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SendHeroInput) (*mcp.CallToolResult, CycleOutcome, error) {
		var params map[string]any
		if name := strings.TrimSpace(input.HeroName); name != "" {
			params = map[string]any{"hero_name": name}
		}
		return nil, runActionCycle(ctx, lifecycle, notify, "send_hero_on_adventure", params), nil
	}
}

// HostFestivalHandler throws a festival at the requested scale.
func HostFestivalHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[HostFestivalInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input HostFestivalInput) (*mcp.CallToolResult, CycleOutcome, error) {
		scale := strings.TrimSpace(input.Scale)
		if scale == "" {
			scale = "medium"
		}
		return nil, runActionCycle(ctx, lifecycle, notify, "host_festival", map[string]any{"scale": scale}), nil
	}
}

// IntroduceCharacterHandler brings a named character into the story.
func IntroduceCharacterHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[IntroduceCharacterInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input IntroduceCharacterInput) (*mcp.CallToolResult, CycleOutcome, error) {
		name := strings.TrimSpace(input.Name)
		role := strings.TrimSpace(input.Role)
		if name == "" || role == "" {
			return nil, cycleFailure(apperrors.New(apperrors.CodeCharacterInvalid, "character name and role are required")), nil
		}
		return nil, runActionCycle(ctx, lifecycle, notify, "introduce_character", map[string]any{"name": name, "role": role}), nil
	}
}

// AdvanceDayHandler advances the kingdom clock by one day.
func AdvanceDayHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[AdvanceDayInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ AdvanceDayInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runActionCycle(ctx, lifecycle, notify, "advance_day", nil), nil
	}
}

// DailyTickHandler runs the scheduled daily simulation step.
func DailyTickHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[DailyTickInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ DailyTickInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runActionCycle(ctx, lifecycle, notify, "daily_tick", nil), nil
	}
}

// NarrateHandler retells the realm's current state.
func NarrateHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[NarrateInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input NarrateInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runIntentCycle(ctx, lifecycle, notify, kingdom.NewNarrateIntent(input.Style)), nil
	}
}

// NarrateWithMediaHandler narrates and, when possible, attaches an illustration.
func NarrateWithMediaHandler(lifecycle Lifecycle, media MediaFinder, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[NarrateWithMediaInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input NarrateWithMediaInput) (*mcp.CallToolResult, CycleOutcome, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		res, err := lifecycle.RunCycle(runCtx, kingdom.NewNarrateIntent(input.Style))
		if err != nil {
			return nil, cycleFailure(err), nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)

		outcome := committedOutcome(res)
		outcome.MediaURL = lookupMedia(runCtx, media, input.Query, res.Document)
		return nil, outcome, nil
	}
}

// lookupMedia finds an illustration for a narration. A miss never fails the
// narration itself.
func lookupMedia(ctx context.Context, media MediaFinder, query string, doc kingdom.Document) string {
	if media == nil {
		return ""
	}
	q := strings.TrimSpace(query)
	if q == "" {
		q = doc.KingdomName()
	}
	if q == "" {
		q = "fantasy"
	}
	fetchCtx, cancel := newFetchContext(ctx)
	defer cancel()
	url, err := media.MediaURL(fetchCtx, q)
	if err != nil {
		return ""
	}
	return url
}

// ApplyCheatHandler bends the rules through a cheat cycle.
func ApplyCheatHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[ApplyCheatInput, CycleOutcome] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ApplyCheatInput) (*mcp.CallToolResult, CycleOutcome, error) {
		return nil, runIntentCycle(ctx, lifecycle, notify, kingdom.NewCheatIntent(input.Name, input.Params)), nil
	}
}
