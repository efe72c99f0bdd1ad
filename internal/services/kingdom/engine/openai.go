package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/gjson"

	apperrors "github.com/louisbranch/tinykingdom/internal/platform/errors"
	"github.com/louisbranch/tinykingdom/internal/services/kingdom/domain"
)

//go:embed envelope.schema.json
var envelopeSchemaJSON string

var envelopeSchema = jsonschema.MustCompileString("envelope.schema.json", envelopeSchemaJSON)

// OpenAIConfig configures the chat completions endpoint and model.
type OpenAIConfig struct {
	// BaseURL points at an OpenAI-compatible API root.
	BaseURL string
	APIKey  string
	Model   string
	// Temperature defaults to 0.7 when zero.
	Temperature float64
	HTTPClient  *http.Client
}

// OpenAI calls an OpenAI-compatible chat completions API with the strict-JSON
// envelope contract.
type OpenAI struct {
	cfg OpenAIConfig
}

// NewOpenAI builds an OpenAI engine adapter.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.Model = strings.TrimSpace(cfg.Model)
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &OpenAI{cfg: cfg}, nil
}

// Transform sends the intent plus current document and returns the model's
// candidate. Transport and provider failures come back as engine errors;
// replies that violate the envelope come back as malformed response errors.
func (o *OpenAI) Transform(ctx context.Context, intent domain.Intent, current domain.Document) (Transformation, error) {
	wireIntent, err := intent.WirePayload()
	if err != nil {
		return Transformation{}, err
	}

	userPayload, err := json.Marshal(map[string]any{
		"intent":              json.RawMessage(wireIntent),
		"current_world_state": json.RawMessage(current),
		"requirements": map[string]any{
			"response_shape": map[string]any{
				"updated_world_state": "object",
				"summary":             "string",
				"metadata":            map[string]any{"changed": "boolean"},
			},
		},
	})
	if err != nil {
		return Transformation{}, fmt.Errorf("marshal user payload: %w", err)
	}

	requestBody, err := json.Marshal(map[string]any{
		"model":           o.cfg.Model,
		"response_format": map[string]any{"type": "json_object"},
		"temperature":     o.cfg.Temperature,
		"messages": []map[string]any{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": string(userPayload)},
		},
	})
	if err != nil {
		return Transformation{}, fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/chat/completions", bytes.NewReader(requestBody))
	if err != nil {
		return Transformation{}, fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// Credential material is sent only as an Authorization header and is never
	// echoed in errors or response payloads.
	req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)

	res, err := o.cfg.HTTPClient.Do(req)
	if err != nil {
		return Transformation{}, apperrors.Wrap(apperrors.CodeEngineError, "chat request failed", err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		body, err := io.ReadAll(io.LimitReader(res.Body, 4096))
		if err != nil {
			return Transformation{}, apperrors.Wrap(apperrors.CodeEngineError, "read chat error body", err)
		}
		return Transformation{}, apperrors.WithMetadata(apperrors.CodeEngineError,
			fmt.Sprintf("chat request status %d: %s", res.StatusCode, strings.TrimSpace(string(body))),
			map[string]string{"status": fmt.Sprint(res.StatusCode)})
	}

	var reply struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(res.Body).Decode(&reply); err != nil {
		return Transformation{}, apperrors.Wrap(apperrors.CodeEngineError, "decode chat response", err)
	}
	if len(reply.Choices) == 0 {
		return Transformation{}, apperrors.New(apperrors.CodeEngineError, "chat response has no choices")
	}

	return parseEnvelope(reply.Choices[0].Message.Content)
}

// parseEnvelope checks the model content against the envelope schema and
// extracts the candidate document without re-encoding it.
func parseEnvelope(content string) (Transformation, error) {
	var envelope any
	if err := json.Unmarshal([]byte(content), &envelope); err != nil {
		return Transformation{}, apperrors.Wrap(apperrors.CodeMalformedResponse, "engine reply is not JSON", err)
	}
	if err := envelopeSchema.Validate(envelope); err != nil {
		return Transformation{}, apperrors.Wrap(apperrors.CodeMalformedResponse, "engine reply violates the envelope contract", err)
	}

	parsed := gjson.Parse(content)
	transformation := Transformation{
		UpdatedState: domain.Document(parsed.Get("updated_world_state").Raw),
		Summary:      NormalizeSummary(parsed.Get("summary").String()),
	}
	if transformation.Summary == "" {
		transformation.Summary = FallbackSummary
	}
	if metadata := parsed.Get("metadata"); metadata.Exists() {
		transformation.Metadata = json.RawMessage(metadata.Raw)
	}
	return transformation, nil
}

var _ Engine = (*OpenAI)(nil)
