package domain

import (
	"context"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	"github.com/louisbranch/tinykingdom/internal/platform/timeouts"
	kingdom "github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/service"
)

// Lifecycle runs world cycles and serves committed snapshots. The concrete
// implementation is the kingdom service; tests substitute fakes.
type Lifecycle interface {
	RunCycle(ctx context.Context, intent kingdom.Intent) (service.CycleResult, error)
	RunPatch(ctx context.Context, name string, patch service.PatchFunc) (service.CycleResult, error)
	WorldState(ctx context.Context) (service.Snapshot, error)
}

// WeatherClient fetches real-world weather lines for the ambient context.
type WeatherClient interface {
	WeatherSummary(ctx context.Context, city string) (string, error)
	WeatherByCoords(ctx context.Context, lat, lon float64) (string, error)
}

// NewsClient fetches a one-line current events blurb.
type NewsClient interface {
	NewsSummary(ctx context.Context) (string, error)
}

// MediaFinder resolves a short query to a single embeddable media URL.
type MediaFinder interface {
	MediaURL(ctx context.Context, query string) (string, error)
}

// ResourceUpdateNotifier notifies MCP clients about resource updates.
type ResourceUpdateNotifier func(ctx context.Context, uri string)

// NotifyResourceUpdates sends resource update notifications for each URI provided.
func NotifyResourceUpdates(ctx context.Context, notify ResourceUpdateNotifier, uris ...string) {
	if notify == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	for _, uri := range uris {
		if strings.TrimSpace(uri) == "" {
			continue
		}
		notify(ctx, uri)
	}
}

// newToolContext bounds one tool invocation end to end.
func newToolContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeouts.ToolCall)
}

// newFetchContext bounds a single outbound integration call.
func newFetchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeouts.IntegrationCall)
}

// formatTime renders commit timestamps for tool results.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// failureSummary turns a cycle error into the player-facing line shipped with
// ok=false results. Codes without a canned line fall back to the error message.
func failureSummary(err error) string {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeBusy:
		return "The scribes are busy with another decree; try again in a moment."
	case apperrors.CodeTimeout:
		return "The royal messenger took too long; nothing was changed."
	case apperrors.CodeNotFound:
		return "No kingdom exists yet; call create_kingdom first."
	case apperrors.CodeEngineError:
		return "The chronicler is unreachable; nothing was changed."
	case apperrors.CodeMalformedResponse:
		return "The chronicler's reply made no sense; nothing was changed."
	case apperrors.CodeInvalidState:
		return "The chronicler wrote an unreadable world; nothing was changed."
	case apperrors.CodeSizeBudgetExceeded:
		return "The chronicle has grown too large to record; nothing was changed."
	case apperrors.CodeStoreUnavailable:
		return "The royal archive is unreachable; nothing was changed."
	}
	return err.Error()
}

// cycleFailure builds the shared ok=false outcome for a failed cycle.
func cycleFailure(err error) CycleOutcome {
	return CycleOutcome{Summary: failureSummary(err), Error: string(apperrors.CodeOf(err))}
}

// committedOutcome builds the shared ok=true outcome for a committed cycle.
func committedOutcome(res service.CycleResult) CycleOutcome {
	return CycleOutcome{
		Ok:          true,
		Summary:     res.Summary,
		LastUpdated: formatTime(res.LastUpdated),
		Warnings:    res.Warnings,
	}
}

// CycleOutcome is the shared result for tools that run a full world cycle.
type CycleOutcome struct {
	Ok          bool     `json:"ok" jsonschema:"whether the cycle committed"`
	Summary     string   `json:"summary" jsonschema:"short player-facing recap of the cycle"`
	LastUpdated string   `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	MediaURL    string   `json:"media_url,omitempty" jsonschema:"illustrative media link when one was requested and found"`
	Warnings    []string `json:"warnings,omitempty" jsonschema:"compaction notes recorded with the commit"`
	Error       string   `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// CreateKingdomInput founds a new kingdom.
type CreateKingdomInput struct {
	KingdomName string `json:"kingdom_name" jsonschema:"name of the kingdom to found"`
	Theme       string `json:"theme,omitempty" jsonschema:"optional flavor theme such as cozy fantasy"`
}

// CreateKingdomResult reports the founding plus the session briefing material.
type CreateKingdomResult struct {
	Ok            bool               `json:"ok" jsonschema:"whether the kingdom was created"`
	Summary       string             `json:"summary" jsonschema:"short recap of the founding"`
	Backstory     string             `json:"backstory,omitempty" jsonschema:"origin story written into the world"`
	StartingPoint string             `json:"starting_point,omitempty" jsonschema:"opening situation written into the world"`
	LastUpdated   string             `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	Warnings      []string           `json:"warnings,omitempty" jsonschema:"compaction notes recorded with the commit"`
	Playbook      *playbook.Playbook `json:"playbook,omitempty" jsonschema:"strategy playbook for running the kingdom"`
	SystemPrompt  string             `json:"system_prompt,omitempty" jsonschema:"system prompt for an agent playing the game"`
	Error         string             `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// KingdomActionInput performs a free-form action in the kingdom.
type KingdomActionInput struct {
	Action string         `json:"action" jsonschema:"action to perform, e.g. collect_taxes or build_farm"`
	Params map[string]any `json:"params,omitempty" jsonschema:"optional structured action parameters"`
}

// KingdomQueryInput asks about the kingdom.
type KingdomQueryInput struct {
	Question string `json:"question" jsonschema:"question about the kingdom, e.g. what is the population?"`
}

// SendHeroInput sends a hero out adventuring.
type SendHeroInput struct {
	HeroName string `json:"hero_name,omitempty" jsonschema:"hero to send; a random adventurer steps up when omitted"`
}

// HostFestivalInput throws a festival.
type HostFestivalInput struct {
	Scale string `json:"scale,omitempty" jsonschema:"festival scale: small, medium, or large"`
}

// IntroduceCharacterInput adds a named character to the realm.
type IntroduceCharacterInput struct {
	Name string `json:"name" jsonschema:"character name"`
	Role string `json:"role" jsonschema:"character role, e.g. blacksmith or court wizard"`
}

// AdvanceDayInput moves the kingdom clock forward one day.
type AdvanceDayInput struct{}

// DailyTickInput runs the scheduled daily simulation step.
type DailyTickInput struct{}

// NarrateInput retells the realm's current state.
type NarrateInput struct {
	Style string `json:"style,omitempty" jsonschema:"optional narration style, e.g. bard song or town crier"`
}

// NarrateWithMediaInput narrates and attaches an illustration.
type NarrateWithMediaInput struct {
	Style string `json:"style,omitempty" jsonschema:"optional narration style"`
	Query string `json:"query,omitempty" jsonschema:"optional media search query; defaults to the kingdom name"`
}

// ApplyCheatInput bends the rules directly.
type ApplyCheatInput struct {
	Name   string         `json:"name" jsonschema:"cheat to apply, e.g. set_hero_health"`
	Params map[string]any `json:"params,omitempty" jsonschema:"cheat parameters passed through verbatim"`
}

// CreateKingdomTool describes the create_kingdom tool.
func CreateKingdomTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "create_kingdom",
		Description: "Found a brand new kingdom with a generated backstory and starting state.",
	}
}

// KingdomActionTool describes the kingdom_action tool.
func KingdomActionTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "kingdom_action",
		Description: "Perform an action in the kingdom, e.g. collect_taxes, build_farm, or recruit_soldiers.",
	}
}

// KingdomQueryTool describes the kingdom_query tool.
func KingdomQueryTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "kingdom_query",
		Description: "Ask a question about the kingdom, e.g. what is the population?",
	}
}

// SendHeroTool describes the send_hero_on_adventure tool.
func SendHeroTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "send_hero_on_adventure",
		Description: "Send a hero on an adventure. A random adventurer steps up when no hero is named.",
	}
}

// HostFestivalTool describes the host_festival tool.
func HostFestivalTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "host_festival",
		Description: "Host a festival to lift the kingdom's spirits. Scale may be small, medium, or large.",
	}
}

// IntroduceCharacterTool describes the introduce_character tool.
func IntroduceCharacterTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "introduce_character",
		Description: "Introduce a new named character with a role into the kingdom's story.",
	}
}

// AdvanceDayTool describes the advance_day tool.
func AdvanceDayTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "advance_day",
		Description: "Advance the kingdom clock by one day and let daily life unfold.",
	}
}

// DailyTickTool describes the daily_tick tool.
func DailyTickTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "daily_tick",
		Description: "Run the scheduled daily tick, a quiet simulation step for cron-style callers.",
	}
}

// NarrateTool describes the narrate tool.
func NarrateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrate",
		Description: "Narrate the current state of the realm as a short story beat.",
	}
}

// NarrateWithMediaTool describes the narrate_with_media tool.
func NarrateWithMediaTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "narrate_with_media",
		Description: "Narrate the realm and attach an illustrative media link when one can be found.",
	}
}

// ApplyCheatTool describes the apply_cheat tool.
func ApplyCheatTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "apply_cheat",
		Description: "Apply a developer cheat that bends the rules, e.g. set_hero_health or spawn_dragon.",
	}
}
