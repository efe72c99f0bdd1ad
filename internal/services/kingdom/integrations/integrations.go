// Package integrations fetches real-world context for the kingdom: current
// weather, a short news blurb, and media links for narration. Providers are
// free, keyless APIs except Giphy, which joins the media chain only when a
// key is configured.
package integrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// ErrNoMedia indicates every provider in the media chain came up empty.
var ErrNoMedia = errors.New("no media found")

// Config points the client at provider endpoints. Zero values select the
// public APIs; tests inject their own.
type Config struct {
	GeocodingBaseURL string
	ForecastBaseURL  string
	NewsBaseURL      string
	GiphyBaseURL     string
	OpenverseBaseURL string
	CommonsBaseURL   string
	// GiphyAPIKey enables Giphy as the first media provider.
	GiphyAPIKey string
	HTTPClient  *http.Client
	Now         func() time.Time
}

// Client calls the context providers.
type Client struct {
	cfg Config
}

// New builds an integrations client with public endpoints as defaults.
func New(cfg Config) *Client {
	setDefault(&cfg.GeocodingBaseURL, "https://geocoding-api.open-meteo.com")
	setDefault(&cfg.ForecastBaseURL, "https://api.open-meteo.com")
	setDefault(&cfg.NewsBaseURL, "https://en.wikipedia.org")
	setDefault(&cfg.GiphyBaseURL, "https://api.giphy.com")
	setDefault(&cfg.OpenverseBaseURL, "https://api.openverse.engineering")
	setDefault(&cfg.CommonsBaseURL, "https://commons.wikimedia.org")
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Client{cfg: cfg}
}

func setDefault(value *string, fallback string) {
	*value = strings.TrimRight(strings.TrimSpace(*value), "/")
	if *value == "" {
		*value = fallback
	}
}

// weatherCodeText maps Open-Meteo weather codes to short descriptions.
var weatherCodeText = map[int]string{
	0:  "clear",
	1:  "mainly clear",
	2:  "partly cloudy",
	3:  "overcast",
	45: "foggy",
	48: "rime fog",
	51: "light drizzle",
	61: "light rain",
	63: "rain",
	65: "heavy rain",
	71: "light snow",
	73: "snow",
	75: "heavy snow",
	95: "thunderstorms",
}

type currentWeather struct {
	Temperature *float64 `json:"temperature"`
	Windspeed   *float64 `json:"windspeed"`
	Weathercode *float64 `json:"weathercode"`
}

// WeatherSummary geocodes a city and returns a compact current-weather line,
// for example "14.2°C, partly cloudy, wind 8.5 km/h".
func (c *Client) WeatherSummary(ctx context.Context, city string) (string, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return "", fmt.Errorf("city is required")
	}

	query := url.Values{}
	query.Set("name", city)
	query.Set("count", "1")

	var geo struct {
		Results []struct {
			Latitude  *float64 `json:"latitude"`
			Longitude *float64 `json:"longitude"`
		} `json:"results"`
	}
	if err := c.getJSON(ctx, c.cfg.GeocodingBaseURL+"/v1/search?"+query.Encode(), nil, &geo); err != nil {
		return "", fmt.Errorf("geocode %q: %w", city, err)
	}
	if len(geo.Results) == 0 || geo.Results[0].Latitude == nil || geo.Results[0].Longitude == nil {
		return "", fmt.Errorf("no geocoding match for %q", city)
	}
	return c.WeatherByCoords(ctx, *geo.Results[0].Latitude, *geo.Results[0].Longitude)
}

// WeatherByCoords returns the current-weather line for a known location.
func (c *Client) WeatherByCoords(ctx context.Context, lat, lon float64) (string, error) {
	query := url.Values{}
	query.Set("latitude", formatNumber(lat))
	query.Set("longitude", formatNumber(lon))
	query.Set("current_weather", "true")

	var forecast struct {
		CurrentWeather currentWeather `json:"current_weather"`
	}
	if err := c.getJSON(ctx, c.cfg.ForecastBaseURL+"/v1/forecast?"+query.Encode(), nil, &forecast); err != nil {
		return "", fmt.Errorf("fetch forecast: %w", err)
	}
	return describeCurrentWeather(forecast.CurrentWeather), nil
}

func describeCurrentWeather(cw currentWeather) string {
	codeText := "unknown weather"
	if cw.Weathercode != nil {
		if text, ok := weatherCodeText[int(*cw.Weathercode)]; ok {
			codeText = text
		}
	}

	var parts []string
	if cw.Temperature != nil {
		parts = append(parts, formatNumber(*cw.Temperature)+"°C")
	}
	parts = append(parts, codeText)
	if cw.Windspeed != nil {
		parts = append(parts, "wind "+formatNumber(*cw.Windspeed)+" km/h")
	}
	return strings.Join(parts, ", ")
}

func formatNumber(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NewsSummary returns one short blurb from Wikipedia's featured feed for the
// current UTC date: the featured article when present, else the first
// on-this-day entry.
func (c *Client) NewsSummary(ctx context.Context) (string, error) {
	now := c.cfg.Now().UTC()
	endpoint := fmt.Sprintf("%s/api/rest_v1/feed/featured/%04d/%02d/%02d",
		c.cfg.NewsBaseURL, now.Year(), int(now.Month()), now.Day())

	var feed struct {
		Tfa struct {
			Title string `json:"title"`
		} `json:"tfa"`
		Onthisday []struct {
			Year int    `json:"year"`
			Text string `json:"text"`
		} `json:"onthisday"`
	}
	if err := c.getJSON(ctx, endpoint, nil, &feed); err != nil {
		return "", fmt.Errorf("fetch featured feed: %w", err)
	}

	if title := strings.TrimSpace(feed.Tfa.Title); title != "" {
		return "Today's featured article: " + title, nil
	}
	for _, entry := range feed.Onthisday {
		if entry.Year != 0 && strings.TrimSpace(entry.Text) != "" {
			return fmt.Sprintf("On this day in %d: %s", entry.Year, entry.Text), nil
		}
	}
	return "", fmt.Errorf("featured feed has no usable entry")
}

// MediaURL returns a linkable GIF or image for a query. Providers are tried
// in order (Giphy when keyed, Openverse, Wikimedia Commons) and every miss
// falls through silently.
func (c *Client) MediaURL(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	if c.cfg.GiphyAPIKey != "" {
		if mediaURL, ok := c.giphyURL(ctx, query); ok {
			return mediaURL, nil
		}
	}
	if mediaURL, ok := c.openverseURL(ctx, query); ok {
		return mediaURL, nil
	}
	if mediaURL, ok := c.commonsURL(ctx, query); ok {
		return mediaURL, nil
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", ErrNoMedia
}

func (c *Client) giphyURL(ctx context.Context, query string) (string, bool) {
	params := url.Values{}
	params.Set("api_key", c.cfg.GiphyAPIKey)
	params.Set("q", query)
	params.Set("limit", "1")
	params.Set("rating", "g")
	params.Set("lang", "en")

	var reply struct {
		Data []struct {
			Images map[string]struct {
				URL string `json:"url"`
			} `json:"images"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.cfg.GiphyBaseURL+"/v1/gifs/search?"+params.Encode(), nil, &reply); err != nil {
		return "", false
	}
	if len(reply.Data) == 0 {
		return "", false
	}
	for _, key := range []string{"downsized_medium", "downsized", "original"} {
		if mediaURL := reply.Data[0].Images[key].URL; mediaURL != "" {
			return mediaURL, true
		}
	}
	return "", false
}

func (c *Client) openverseURL(ctx context.Context, query string) (string, bool) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page_size", "1")
	params.Set("format", "json")

	var reply struct {
		Results []struct {
			URL       string `json:"url"`
			Thumbnail string `json:"thumbnail"`
		} `json:"results"`
	}
	headers := map[string]string{"User-Agent": "tiny-kingdom-mcp/1.0"}
	if err := c.getJSON(ctx, c.cfg.OpenverseBaseURL+"/v1/images/?"+params.Encode(), headers, &reply); err != nil {
		return "", false
	}
	if len(reply.Results) == 0 {
		return "", false
	}
	for _, candidate := range []string{reply.Results[0].URL, reply.Results[0].Thumbnail} {
		if strings.HasPrefix(candidate, "http") {
			return candidate, true
		}
	}
	return "", false
}

func (c *Client) commonsURL(ctx context.Context, query string) (string, bool) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrnamespace", "6")
	params.Set("gsrlimit", "1")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")
	params.Set("iiurlwidth", "800")

	var reply struct {
		Query struct {
			Pages map[string]struct {
				Imageinfo []struct {
					Thumburl string `json:"thumburl"`
					URL      string `json:"url"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := c.getJSON(ctx, c.cfg.CommonsBaseURL+"/w/api.php?"+params.Encode(), nil, &reply); err != nil {
		return "", false
	}
	for _, page := range reply.Query.Pages {
		if len(page.Imageinfo) == 0 {
			continue
		}
		if page.Imageinfo[0].Thumburl != "" {
			return page.Imageinfo[0].Thumburl, true
		}
		if page.Imageinfo[0].URL != "" {
			return page.Imageinfo[0].URL, true
		}
	}
	return "", false
}

func (c *Client) getJSON(ctx context.Context, endpoint string, headers map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("request status %d", res.StatusCode)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
