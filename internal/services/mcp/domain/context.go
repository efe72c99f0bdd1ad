package domain

import "github.com/modelcontextprotocol/go-sdk/mcp"

// WeatherContextInput names the real city whose weather colors the realm.
type WeatherContextInput struct {
	City string `json:"city" jsonschema:"real city to fetch current weather for"`
}

// WeatherContextResult reports an ambient weather update.
type WeatherContextResult struct {
	Ok          bool   `json:"ok" jsonschema:"whether the world context was updated"`
	Weather     string `json:"weather,omitempty" jsonschema:"one-line weather summary stored in the world"`
	LastUpdated string `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	Message     string `json:"message,omitempty" jsonschema:"human-readable note when ok is false"`
	Error       string `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// WeatherFromLocationInput refreshes weather from the stored realm anchor.
type WeatherFromLocationInput struct{}

// RealmLocationInput anchors the realm to a real place or a fictional climate.
type RealmLocationInput struct {
	ReferenceCity string   `json:"reference_city,omitempty" jsonschema:"real city the realm's climate mirrors"`
	Lat           *float64 `json:"lat,omitempty" jsonschema:"latitude of the realm anchor"`
	Lon           *float64 `json:"lon,omitempty" jsonschema:"longitude of the realm anchor"`
	ClimateTheme  string   `json:"climate_theme,omitempty" jsonschema:"fictional climate used when no real place fits"`
}

// RealmLocationResult echoes the location written into the world.
type RealmLocationResult struct {
	Ok          bool           `json:"ok" jsonschema:"whether the location was stored"`
	Location    map[string]any `json:"location,omitempty" jsonschema:"location fields as stored in the world"`
	LastUpdated string         `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	Message     string         `json:"message,omitempty" jsonschema:"human-readable note when ok is false"`
	Error       string         `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// NewsContextInput requests a headline refresh.
type NewsContextInput struct{}

// NewsContextResult reports an ambient news update.
type NewsContextResult struct {
	Ok          bool   `json:"ok" jsonschema:"whether the world context was updated"`
	News        string `json:"news,omitempty" jsonschema:"one-line headline stored in the world"`
	LastUpdated string `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	Message     string `json:"message,omitempty" jsonschema:"human-readable note when ok is false"`
	Error       string `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// RefreshContextInput tunes the combined weather and news refresh.
type RefreshContextInput struct {
	City string `json:"city,omitempty" jsonschema:"optional city override for the weather half; defaults to the stored realm location"`
}

// RefreshContextResult reports which ambient feeds were refreshed.
type RefreshContextResult struct {
	Ok          bool   `json:"ok" jsonschema:"whether at least one feed was refreshed and stored"`
	Weather     string `json:"weather,omitempty" jsonschema:"weather line stored in the world, when fetched"`
	News        string `json:"news,omitempty" jsonschema:"headline stored in the world, when fetched"`
	LastUpdated string `json:"last_updated,omitempty" jsonschema:"commit timestamp in RFC 3339 form"`
	Message     string `json:"message,omitempty" jsonschema:"human-readable note when ok is false"`
	Error       string `json:"error,omitempty" jsonschema:"stable error code when ok is false"`
}

// UpdateWeatherContextTool describes the update_weather_context tool.
func UpdateWeatherContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_weather_context",
		Description: "Fetch real weather for a city and fold it into the kingdom's ambient context.",
	}
}

// UpdateWeatherFromLocationTool describes the update_weather_context_from_location tool.
func UpdateWeatherFromLocationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_weather_context_from_location",
		Description: "Refresh ambient weather from the realm's stored location anchor.",
	}
}

// SetRealmLocationTool describes the set_realm_location tool.
func SetRealmLocationTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "set_realm_location",
		Description: "Store the realm's reference location: a real city, coordinates, or a climate theme.",
	}
}

// UpdateNewsContextTool describes the update_news_context tool.
func UpdateNewsContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "update_news_context",
		Description: "Fetch a current headline and fold it into the kingdom's ambient context.",
	}
}

// RefreshContextTool describes the refresh_context tool.
func RefreshContextTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "refresh_context",
		Description: "Refresh ambient weather and news in one sweep and store both in a single commit.",
	}
}
