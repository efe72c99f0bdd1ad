package service

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/louisbranch/tinykingdom/internal/services/kingdom/playbook"
	"github.com/louisbranch/tinykingdom/internal/services/mcp/domain"
)

// registerLifecycleTools registers the tools that run full generate-validate-commit
// cycles against the world state.
func registerLifecycleTools(mcpServer *mcp.Server, lifecycle domain.Lifecycle, pb playbook.Playbook, media domain.MediaFinder, notify domain.ResourceUpdateNotifier) {
	mcp.AddTool(mcpServer, domain.CreateKingdomTool(), domain.CreateKingdomHandler(lifecycle, pb, notify))
	mcp.AddTool(mcpServer, domain.KingdomActionTool(), domain.KingdomActionHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.KingdomQueryTool(), domain.KingdomQueryHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.SendHeroTool(), domain.SendHeroHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.HostFestivalTool(), domain.HostFestivalHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.IntroduceCharacterTool(), domain.IntroduceCharacterHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.AdvanceDayTool(), domain.AdvanceDayHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.DailyTickTool(), domain.DailyTickHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.NarrateTool(), domain.NarrateHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.NarrateWithMediaTool(), domain.NarrateWithMediaHandler(lifecycle, media, notify))
	mcp.AddTool(mcpServer, domain.ApplyCheatTool(), domain.ApplyCheatHandler(lifecycle, notify))
}

// registerContextTools registers the tools that patch ambient context fields
// without a generative cycle.
func registerContextTools(mcpServer *mcp.Server, lifecycle domain.Lifecycle, weather domain.WeatherClient, news domain.NewsClient, notify domain.ResourceUpdateNotifier) {
	mcp.AddTool(mcpServer, domain.UpdateWeatherContextTool(), domain.UpdateWeatherContextHandler(lifecycle, weather, notify))
	mcp.AddTool(mcpServer, domain.UpdateWeatherFromLocationTool(), domain.UpdateWeatherFromLocationHandler(lifecycle, weather, notify))
	mcp.AddTool(mcpServer, domain.SetRealmLocationTool(), domain.SetRealmLocationHandler(lifecycle, notify))
	mcp.AddTool(mcpServer, domain.UpdateNewsContextTool(), domain.UpdateNewsContextHandler(lifecycle, news, notify))
	mcp.AddTool(mcpServer, domain.RefreshContextTool(), domain.RefreshContextHandler(lifecycle, weather, news, notify))
}

// registerReferenceTools registers read-only lookups.
func registerReferenceTools(mcpServer *mcp.Server, lifecycle domain.Lifecycle, pb playbook.Playbook, media domain.MediaFinder) {
	mcp.AddTool(mcpServer, domain.GetWorldStateTool(), domain.GetWorldStateHandler(lifecycle))
	mcp.AddTool(mcpServer, domain.GetPlaybookTool(), domain.GetPlaybookHandler(pb))
	mcp.AddTool(mcpServer, domain.GetSystemPromptTool(), domain.GetSystemPromptHandler())
	mcp.AddTool(mcpServer, domain.FindMediaTool(), domain.FindMediaHandler(media))
}

// registerResources registers readable MCP resources.
func registerResources(mcpServer *mcp.Server, lifecycle domain.Lifecycle, pb playbook.Playbook) {
	mcpServer.AddResource(domain.WorldStateResource(), domain.WorldStateResourceHandler(lifecycle))
	mcpServer.AddResource(domain.PlaybookResource(), domain.PlaybookResourceHandler(pb))
}
