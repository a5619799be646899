// Package openai implements the classify.Classifier port on the OpenAI chat API
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"kilter/internal/adapters/classify"
	"kilter/internal/platform/config"
	perr "kilter/internal/platform/errors"

	"github.com/santhosh-tekuri/jsonschema/v6"
	oai "github.com/sashabaranov/go-openai"
)

// Config holds classifier connectivity settings
type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	Timeout   time.Duration
	MaxTokens int
}

// FromConf reads Config from a CLASSIFIER_ prefixed view
func FromConf(cfg config.Conf) Config {
	return Config{
		APIKey:    cfg.MustString("API_KEY"),
		Model:     cfg.MayString("MODEL", "gpt-4o-mini"),
		BaseURL:   cfg.MayString("BASE_URL", ""),
		Timeout:   cfg.MayDuration("TIMEOUT", 20*time.Second),
		MaxTokens: cfg.MayInt("MAX_TOKENS", 2048),
	}
}

// Client calls the chat completions API with a JSON-schema constrained response
type Client struct {
	api       *oai.Client
	model     string
	timeout   time.Duration
	maxTokens int
}

// New builds a Client, failing fast on a missing key
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("classifier api key is required")
	}
	oc := oai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 2048
	}
	return &Client{
		api:       oai.NewClientWithConfig(oc),
		model:     cfg.Model,
		timeout:   cfg.Timeout,
		maxTokens: cfg.MaxTokens,
	}, nil
}

const systemPrompt = `You judge single words or short phrases for an art installation that sorts ` +
	`language along an order/chaos axis. For every item return pos ("order", "chaos" or "neutral"), ` +
	`score (-1 pure chaos to 1 pure order) and confidence (0 to 1). Echo each item's id unchanged. ` +
	`Words may be in any language. Respond only with JSON.`

// wire shapes for the request and response payloads

type wireItem struct {
	ID      int    `json:"id"`
	Keyword string `json:"keyword"`
}

type wireResult struct {
	ID         int     `json:"id"`
	Pos        string  `json:"pos"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

type wirePayload struct {
	Results []wireResult `json:"results"`
}

// responseSchema constrains the model output structurally
// value sanity (label set, numeric ranges) is repaired per item by classify.Sanitize
// so one odd item cannot fail the whole batch
var responseSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []any{"results"},
	"properties": map[string]any{
		"results": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []any{"id", "pos", "score", "confidence"},
				"properties": map[string]any{
					"id":         map[string]any{"type": "integer"},
					"pos":        map[string]any{"type": "string"},
					"score":      map[string]any{"type": "number"},
					"confidence": map[string]any{"type": "number"},
				},
			},
		},
	},
}

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

// compiled returns the process-wide compiled response schema
func compiled() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		// the compiler expects a parsed JSON value, round trip to be safe
		raw, err := json.Marshal(responseSchema)
		if err != nil {
			schemaErr = err
			return
		}
		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			schemaErr = err
			return
		}
		const url = "schema://keyword_classification.json"
		c := jsonschema.NewCompiler()
		if err := c.AddResource(url, parsed); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = c.Compile(url)
	})
	return compiledSchema, schemaErr
}

// validatePayload re-checks the model output against the schema before trusting it
func validatePayload(raw []byte) error {
	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	s, err := compiled()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	if err := s.Validate(parsed); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}

// ClassifyOne classifies a single keyword
func (c *Client) ClassifyOne(ctx context.Context, text string) (classify.Result, error) {
	rs, err := c.ClassifyBatch(ctx, []string{text})
	if err != nil {
		return classify.Result{}, err
	}
	return rs[0], nil
}

// ClassifyBatch classifies texts in one call, returning one Result per input in order
// items the model skips or misaddresses keep the neutral default
func (c *Client) ClassifyBatch(ctx context.Context, texts []string) ([]classify.Result, error) {
	out := make([]classify.Result, len(texts))
	for i := range out {
		out[i] = classify.Neutral()
	}
	if len(texts) == 0 {
		return out, nil
	}

	items := make([]wireItem, len(texts))
	for i, t := range texts {
		items[i] = wireItem{ID: i, Keyword: t}
	}
	user, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, err
	}
	schemaBytes, err := json.Marshal(responseSchema)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.CreateChatCompletion(ctx, oai.ChatCompletionRequest{
		Model: c.model,
		Messages: []oai.ChatCompletionMessage{
			{Role: oai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: oai.ChatMessageRoleUser, Content: string(user)},
		},
		MaxCompletionTokens: c.maxTokens,
		Temperature:         0,
		ResponseFormat: &oai.ChatCompletionResponseFormat{
			Type: oai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &oai.ChatCompletionResponseFormatJSONSchema{
				Name:   "keyword_classification",
				Schema: json.RawMessage(schemaBytes),
				Strict: true,
			},
		},
	})
	if err != nil {
		return nil, mapAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, perr.Unavailablef("classifier returned no choices")
	}

	raw := []byte(resp.Choices[0].Message.Content)
	if err := validatePayload(raw); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "classifier payload rejected")
	}

	var payload wirePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "classifier payload rejected")
	}
	for _, r := range payload.Results {
		if r.ID < 0 || r.ID >= len(out) {
			continue
		}
		out[r.ID] = classify.Sanitize(classify.Result{
			Pos:        classify.Position(r.Pos),
			Score:      r.Score,
			Confidence: r.Confidence,
		})
	}
	return out, nil
}

// mapAPIError translates transport failures into project error codes
func mapAPIError(err error) error {
	var apiErr *oai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return perr.Wrapf(err, perr.ErrorCodeTooManyRequests, "classifier rate limited")
		case apiErr.HTTPStatusCode >= 500:
			return perr.Wrapf(err, perr.ErrorCodeUnavailable, "classifier unavailable")
		}
	}
	return perr.Wrapf(err, perr.ErrorCodeUnavailable, "classifier call failed")
}
