package integrations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWeatherSummary(t *testing.T) {
	t.Parallel()

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("latitude"); got != "47.4979" {
			t.Errorf("latitude = %q", got)
		}
		if got := r.URL.Query().Get("longitude"); got != "19.0402" {
			t.Errorf("longitude = %q", got)
		}
		if got := r.URL.Query().Get("current_weather"); got != "true" {
			t.Errorf("current_weather = %q", got)
		}
		fmt.Fprint(w, `{"current_weather":{"temperature":14.2,"windspeed":8.5,"weathercode":2}}`)
	}))
	defer forecast.Close()

	geocoding := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("name"); got != "Budapest" {
			t.Errorf("name = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "1" {
			t.Errorf("count = %q", got)
		}
		fmt.Fprint(w, `{"results":[{"latitude":47.4979,"longitude":19.0402}]}`)
	}))
	defer geocoding.Close()

	client := New(Config{GeocodingBaseURL: geocoding.URL, ForecastBaseURL: forecast.URL})
	got, err := client.WeatherSummary(context.Background(), "Budapest")
	if err != nil {
		t.Fatalf("weather summary: %v", err)
	}
	if want := "14.2°C, partly cloudy, wind 8.5 km/h"; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestWeatherSummaryNoGeocodingMatch(t *testing.T) {
	t.Parallel()

	geocoding := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer geocoding.Close()

	client := New(Config{GeocodingBaseURL: geocoding.URL})
	if _, err := client.WeatherSummary(context.Background(), "Atlantis"); err == nil {
		t.Fatal("expected no-match error")
	}
}

func TestWeatherByCoords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "unknown code",
			body: `{"current_weather":{"temperature":21,"windspeed":5,"weathercode":99}}`,
			want: "21°C, unknown weather, wind 5 km/h",
		},
		{
			name: "missing fields still describe",
			body: `{"current_weather":{}}`,
			want: "unknown weather",
		},
		{
			name: "thunderstorms",
			body: `{"current_weather":{"temperature":-3.5,"windspeed":40,"weathercode":95}}`,
			want: "-3.5°C, thunderstorms, wind 40 km/h",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}))
			defer forecast.Close()

			client := New(Config{ForecastBaseURL: forecast.URL})
			got, err := client.WeatherByCoords(context.Background(), 47.5, 19.0)
			if err != nil {
				t.Fatalf("weather by coords: %v", err)
			}
			if got != tt.want {
				t.Errorf("summary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewsSummaryFeaturedArticle(t *testing.T) {
	t.Parallel()

	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/rest_v1/feed/featured/2026/03/05" {
			t.Errorf("path = %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"tfa":{"title":"Weimar Republic"}}`)
	}))
	defer news.Close()

	client := New(Config{
		NewsBaseURL: news.URL,
		Now:         func() time.Time { return time.Date(2026, time.March, 5, 11, 0, 0, 0, time.UTC) },
	})
	got, err := client.NewsSummary(context.Background())
	if err != nil {
		t.Fatalf("news summary: %v", err)
	}
	if want := "Today's featured article: Weimar Republic"; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestNewsSummaryOnThisDayFallback(t *testing.T) {
	t.Parallel()

	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"onthisday":[{"year":1879,"text":"The first electric tram opens"}]}`)
	}))
	defer news.Close()

	client := New(Config{NewsBaseURL: news.URL})
	got, err := client.NewsSummary(context.Background())
	if err != nil {
		t.Fatalf("news summary: %v", err)
	}
	if want := "On this day in 1879: The first electric tram opens"; got != want {
		t.Errorf("summary = %q, want %q", got, want)
	}
}

func TestNewsSummaryEmptyFeed(t *testing.T) {
	t.Parallel()

	news := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer news.Close()

	client := New(Config{NewsBaseURL: news.URL})
	if _, err := client.NewsSummary(context.Background()); err == nil {
		t.Fatal("expected empty feed error")
	}
}

func TestMediaURLPrefersGiphy(t *testing.T) {
	t.Parallel()

	giphy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("api_key"); got != "giphy-key" {
			t.Errorf("api_key = %q", got)
		}
		if got := r.URL.Query().Get("rating"); got != "g" {
			t.Errorf("rating = %q", got)
		}
		fmt.Fprint(w, `{"data":[{"images":{
			"downsized_medium":{"url":"https://giphy.test/medium.gif"},
			"original":{"url":"https://giphy.test/original.gif"}
		}}]}`)
	}))
	defer giphy.Close()

	var openverseCalled bool
	openverse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		openverseCalled = true
		fmt.Fprint(w, `{"results":[]}`)
	}))
	defer openverse.Close()

	client := New(Config{GiphyBaseURL: giphy.URL, OpenverseBaseURL: openverse.URL, GiphyAPIKey: "giphy-key"})
	got, err := client.MediaURL(context.Background(), "dragon")
	if err != nil {
		t.Fatalf("media url: %v", err)
	}
	if got != "https://giphy.test/medium.gif" {
		t.Errorf("url = %q", got)
	}
	if openverseCalled {
		t.Error("openverse called despite giphy hit")
	}
}

func TestMediaURLFallsThroughToOpenverseThumbnail(t *testing.T) {
	t.Parallel()

	openverse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "tiny-kingdom-mcp/1.0" {
			t.Errorf("user-agent = %q", got)
		}
		fmt.Fprint(w, `{"results":[{"url":"","thumbnail":"https://openverse.test/thumb.jpg"}]}`)
	}))
	defer openverse.Close()

	client := New(Config{OpenverseBaseURL: openverse.URL})
	got, err := client.MediaURL(context.Background(), "castle")
	if err != nil {
		t.Fatalf("media url: %v", err)
	}
	if got != "https://openverse.test/thumb.jpg" {
		t.Errorf("url = %q", got)
	}
}

func TestMediaURLFallsBackToCommons(t *testing.T) {
	t.Parallel()

	openverse := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer openverse.Close()

	commons := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("gsrnamespace"); got != "6" {
			t.Errorf("gsrnamespace = %q", got)
		}
		fmt.Fprint(w, `{"query":{"pages":{"42":{"imageinfo":[{"thumburl":"https://commons.test/thumb.png","url":"https://commons.test/full.png"}]}}}}`)
	}))
	defer commons.Close()

	client := New(Config{OpenverseBaseURL: openverse.URL, CommonsBaseURL: commons.URL})
	got, err := client.MediaURL(context.Background(), "knight")
	if err != nil {
		t.Fatalf("media url: %v", err)
	}
	if got != "https://commons.test/thumb.png" {
		t.Errorf("url = %q", got)
	}
}

func TestMediaURLExhaustedChain(t *testing.T) {
	t.Parallel()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	}))
	defer empty.Close()

	client := New(Config{OpenverseBaseURL: empty.URL, CommonsBaseURL: empty.URL})
	_, err := client.MediaURL(context.Background(), "ghost")
	if !errors.Is(err, ErrNoMedia) {
		t.Fatalf("error = %v, want %v", err, ErrNoMedia)
	}
}
