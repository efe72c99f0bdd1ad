package domain

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	kingdom "github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/service"
)

// setContextField writes one ambient field under the world's context object.
func setContextField(field, value string) service.PatchFunc {
	return func(doc kingdom.Document) (kingdom.Document, error) {
		return doc.Set("context."+field, value)
	}
}

// weatherFromStoredLocation resolves weather for the stored realm anchor.
// The boolean reports whether any anchor was stored at all.
func weatherFromStoredLocation(ctx context.Context, weather WeatherClient, doc kingdom.Document) (string, bool, error) {
	loc := doc.Get("context.location")
	lat, lon := loc.Get("lat"), loc.Get("lon")
	city := strings.TrimSpace(loc.Get("city").String())
	theme := strings.TrimSpace(loc.Get("climate_theme").String())

	fetchCtx, cancel := newFetchContext(ctx)
	defer cancel()

	switch {
	case lat.Exists() && lon.Exists():
		summary, err := weather.WeatherByCoords(fetchCtx, lat.Float(), lon.Float())
		return summary, true, err
	case city != "":
		summary, err := weather.WeatherSummary(fetchCtx, city)
		return summary, true, err
	case theme != "":
		return "themed weather: " + theme, true, nil
	}
	return "", false, nil
}

// fetchRealmWeather prefers an explicit city and falls back to the stored anchor.
func fetchRealmWeather(ctx context.Context, weather WeatherClient, city string, doc kingdom.Document) (string, error) {
	if city = strings.TrimSpace(city); city != "" {
		fetchCtx, cancel := newFetchContext(ctx)
		defer cancel()
		return weather.WeatherSummary(fetchCtx, city)
	}
	summary, _, err := weatherFromStoredLocation(ctx, weather, doc)
	return summary, err
}

// UpdateWeatherContextHandler fetches city weather and stores it in the world.
func UpdateWeatherContextHandler(lifecycle Lifecycle, weather WeatherClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[WeatherContextInput, WeatherContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input WeatherContextInput) (*mcp.CallToolResult, WeatherContextResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		city := strings.TrimSpace(input.City)
		if city == "" {
			return nil, WeatherContextResult{Message: "city is required", Error: string(apperrors.CodeCityEmpty)}, nil
		}

		fetchCtx, fetchCancel := newFetchContext(runCtx)
		summary, err := weather.WeatherSummary(fetchCtx, city)
		fetchCancel()
		if err != nil {
			return nil, WeatherContextResult{Message: "Could not fetch weather"}, nil
		}

		res, err := lifecycle.RunPatch(runCtx, "update_weather_context", setContextField("weather", summary))
		if err != nil {
			return nil, WeatherContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, WeatherContextResult{Ok: true, Weather: summary, LastUpdated: formatTime(res.LastUpdated)}, nil
	}
}

// UpdateWeatherFromLocationHandler refreshes weather from the stored anchor.
func UpdateWeatherFromLocationHandler(lifecycle Lifecycle, weather WeatherClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[WeatherFromLocationInput, WeatherContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ WeatherFromLocationInput) (*mcp.CallToolResult, WeatherContextResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		snap, err := lifecycle.WorldState(runCtx)
		if err != nil {
			return nil, WeatherContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}

		summary, found, err := weatherFromStoredLocation(runCtx, weather, snap.Document)
		if !found {
			return nil, WeatherContextResult{Message: "No stored location info", Error: string(apperrors.CodeLocationMissing)}, nil
		}
		if err != nil {
			return nil, WeatherContextResult{Message: "Could not fetch weather"}, nil
		}

		res, err := lifecycle.RunPatch(runCtx, "update_weather_context_from_location", setContextField("weather", summary))
		if err != nil {
			return nil, WeatherContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, WeatherContextResult{Ok: true, Weather: summary, LastUpdated: formatTime(res.LastUpdated)}, nil
	}
}

// SetRealmLocationHandler stores the realm's location anchor in the world.
func SetRealmLocationHandler(lifecycle Lifecycle, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RealmLocationInput, RealmLocationResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RealmLocationInput) (*mcp.CallToolResult, RealmLocationResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		location := map[string]any{}
		if city := strings.TrimSpace(input.ReferenceCity); city != "" {
			location["city"] = city
		}
		// Coordinates only count as a pair; zero is a valid latitude.
		if input.Lat != nil && input.Lon != nil {
			location["lat"] = *input.Lat
			location["lon"] = *input.Lon
		}
		if theme := strings.TrimSpace(input.ClimateTheme); theme != "" {
			location["climate_theme"] = theme
		}
		if len(location) == 0 {
			return nil, RealmLocationResult{Message: "provide a reference city, coordinates, or a climate theme", Error: string(apperrors.CodeLocationMissing)}, nil
		}

		res, err := lifecycle.RunPatch(runCtx, "set_realm_location", func(doc kingdom.Document) (kingdom.Document, error) {
			return doc.Set("context.location", location)
		})
		if err != nil {
			return nil, RealmLocationResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, RealmLocationResult{Ok: true, Location: location, LastUpdated: formatTime(res.LastUpdated)}, nil
	}
}

// UpdateNewsContextHandler fetches a headline and stores it in the world.
func UpdateNewsContextHandler(lifecycle Lifecycle, news NewsClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[NewsContextInput, NewsContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, _ NewsContextInput) (*mcp.CallToolResult, NewsContextResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		fetchCtx, fetchCancel := newFetchContext(runCtx)
		blurb, err := news.NewsSummary(fetchCtx)
		fetchCancel()
		if err != nil {
			return nil, NewsContextResult{Message: "Could not fetch news"}, nil
		}

		res, err := lifecycle.RunPatch(runCtx, "update_news_context", setContextField("news", blurb))
		if err != nil {
			return nil, NewsContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, NewsContextResult{Ok: true, News: blurb, LastUpdated: formatTime(res.LastUpdated)}, nil
	}
}

// RefreshContextHandler fetches weather and news concurrently and stores both
// in one commit. A lone feed miss still refreshes the other feed.
func RefreshContextHandler(lifecycle Lifecycle, weather WeatherClient, news NewsClient, notify ResourceUpdateNotifier) mcp.ToolHandlerFor[RefreshContextInput, RefreshContextResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RefreshContextInput) (*mcp.CallToolResult, RefreshContextResult, error) {
		runCtx, cancel := newToolContext(ctx)
		defer cancel()

		snap, err := lifecycle.WorldState(runCtx)
		if err != nil {
			return nil, RefreshContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}

		var weatherLine, newsLine string
		var g errgroup.Group
		g.Go(func() error {
			line, err := fetchRealmWeather(runCtx, weather, input.City, snap.Document)
			if err != nil {
				return err
			}
			weatherLine = line
			return nil
		})
		g.Go(func() error {
			fetchCtx, fetchCancel := newFetchContext(runCtx)
			defer fetchCancel()
			line, err := news.NewsSummary(fetchCtx)
			if err != nil {
				return err
			}
			newsLine = line
			return nil
		})
		// A lone feed miss still refreshes the other; when both missed
		// there is nothing to commit.
		_ = g.Wait()
		if weatherLine == "" && newsLine == "" {
			return nil, RefreshContextResult{Message: "Could not refresh context"}, nil
		}

		res, err := lifecycle.RunPatch(runCtx, "refresh_context", func(doc kingdom.Document) (kingdom.Document, error) {
			var err error
			if weatherLine != "" {
				if doc, err = doc.Set("context.weather", weatherLine); err != nil {
					return doc, err
				}
			}
			if newsLine != "" {
				if doc, err = doc.Set("context.news", newsLine); err != nil {
					return doc, err
				}
			}
			return doc, nil
		})
		if err != nil {
			return nil, RefreshContextResult{Message: failureSummary(err), Error: string(apperrors.CodeOf(err))}, nil
		}
		NotifyResourceUpdates(ctx, notify, WorldStateResourceURI)
		return nil, RefreshContextResult{Ok: true, Weather: weatherLine, News: newsLine, LastUpdated: formatTime(res.LastUpdated)}, nil
	}
}
