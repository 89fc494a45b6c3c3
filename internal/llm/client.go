// Package llm wraps the OpenAI Responses API for structured-output
// calls. Every call requests JSON (schema-constrained or free-form),
// parses the first assistant text payload, and optionally serves
// repeat calls from a cache keyed on the exact request payload.
package llm

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/freeeve/codenames-bench/internal/cache"
	"github.com/freeeve/codenames-bench/internal/logger"
)

const (
	// DefaultTimeout bounds a single HTTP attempt, not the whole call.
	DefaultTimeout = 60 * time.Second
	// DefaultRetries is the total number of attempts per call.
	DefaultRetries = 5
	// DefaultBackoff is the sleep before the second attempt; it doubles
	// after each retryable failure.
	DefaultBackoff = 1 * time.Second
	// DefaultMaxInFlight bounds concurrent requests per client.
	DefaultMaxInFlight = 8

	defaultBaseURL = "https://api.openai.com/v1"
)

// Output format modes for Request.Mode.
const (
	ModeJSONSchema = "json_schema"
	ModeJSONObject = "json_object"
)

// Message is one input item for the Responses API.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes a single structured-output call.
type Request struct {
	Model           string
	Input           []Message
	Temperature     float64
	TopP            float64
	MaxOutputTokens int

	// Mode selects the output format. ModeJSONSchema sends SchemaName
	// and Schema with strict decoding; ModeJSONObject asks for any
	// JSON object.
	Mode       string
	SchemaName string
	Schema     map[string]any

	// CacheAll caches this call even when sampling parameters make the
	// response non-deterministic. By default only temperature==0 with
	// top_p==1.0 calls touch the cache.
	CacheAll bool
}

// Usage reports token counts from the API response.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Result is the parsed outcome of a call.
type Result struct {
	// Parsed is the JSON value decoded from the assistant's output
	// text. Usually a map, but the model can emit anything; callers
	// classify non-objects themselves.
	Parsed any
	// Raw is the full response body as returned by the API.
	Raw json.RawMessage
	// OutputText is the assistant text the JSON was parsed from.
	OutputText string
	Usage      Usage
	ResponseID string
	Model      string
	// FromCache is true when the response was replayed from the cache.
	FromCache bool
}

// Caller is the surface agents depend on; satisfied by *Client and by
// test fakes.
type Caller interface {
	CreateJSON(ctx context.Context, req Request) (*Result, error)
}

// Options configure a Client beyond its defaults. Zero values mean
// "use the default"; RPS 0 means unlimited.
type Options struct {
	BaseURL        string
	Timeout        time.Duration
	Retries        int
	InitialBackoff time.Duration
	MaxInFlight    int
	RPS            float64
	Cache          cache.Store
}

// Client talks to the Responses API with retries, an in-flight bound,
// an optional rate limiter, and an optional response cache.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	retries int
	backoff time.Duration
	sem     chan struct{}
	limiter *rate.Limiter
	cache   cache.Store
}

// New builds a Client. The API key is required; everything else falls
// back to defaults.
func New(apiKey string, opts Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	retries := opts.Retries
	if retries <= 0 {
		retries = DefaultRetries
	}
	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	maxInFlight := opts.MaxInFlight
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		retries: retries,
		backoff: backoff,
		sem:     make(chan struct{}, maxInFlight),
		limiter: limiter,
		cache:   opts.Cache,
	}, nil
}

// CreateJSON performs one structured-output call: build the payload,
// consult the cache, POST /responses with retries, and parse the first
// assistant text part as JSON. Transient failures (429, 5xx, transport)
// are retried with doubling backoff; refusals and protocol errors are
// not.
func (c *Client) CreateJSON(ctx context.Context, req Request) (*Result, error) {
	body, err := buildPayload(req)
	if err != nil {
		return nil, fmt.Errorf("build payload: %w", err)
	}
	log := logger.ForRun(ctx)

	useCache := c.cache != nil && (req.CacheAll || (req.Temperature == 0 && req.TopP == 1.0))
	var key string
	if useCache {
		sum := sha256.Sum256(body)
		key = hex.EncodeToString(sum[:])
		cached, err := c.cache.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("cache get: %w", err)
		}
		if cached != nil {
			res, err := parseResponse(cached)
			if err != nil {
				return nil, err
			}
			res.FromCache = true
			log.Debug().Str("model", req.Model).Str("cacheKey", key[:12]).Msg("llm cache hit")
			return res, nil
		}
	}

	raw, err := c.post(ctx, body, req.Model)
	if err != nil {
		return nil, err
	}
	res, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}
	if useCache {
		if err := c.cache.Put(ctx, key, raw); err != nil {
			return nil, fmt.Errorf("cache put: %w", err)
		}
	}
	return res, nil
}

// post sends the payload with retries and returns the raw body of the
// first successful response.
func (c *Client) post(ctx context.Context, body []byte, model string) ([]byte, error) {
	log := logger.ForRun(ctx)
	backoff := c.backoff
	var lastErr error
	for attempt := 1; attempt <= c.retries; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}
		raw, err := c.attempt(ctx, body)
		if err == nil {
			if attempt > 1 {
				log.Debug().Str("model", model).Int("attempt", attempt).Msg("llm call recovered")
			}
			return raw, nil
		}
		if _, ok := err.(*TransientError); !ok {
			return nil, err
		}
		lastErr = err
		log.Warn().Err(err).Str("model", model).Int("attempt", attempt).Dur("backoff", backoff).Msg("llm call failed, retrying")
		if attempt == c.retries {
			break
		}
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		backoff *= 2
	}
	return nil, fmt.Errorf("llm call failed after %d attempts: %w", c.retries, lastErr)
}

// attempt performs a single HTTP round trip under the in-flight bound
// and per-attempt timeout.
func (c *Client) attempt(ctx context.Context, body []byte) ([]byte, error) {
	select {
	case c.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-c.sem }()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	log := logger.ForRun(ctx)
	logger.LogRequest(log, body)
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransientError{Detail: err.Error()}
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransientError{Detail: "read body: " + err.Error()}
	}
	switch {
	case resp.StatusCode == http.StatusOK:
		logger.LogResponse(log, raw)
		return raw, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, &TransientError{Status: resp.StatusCode, Detail: truncate(string(raw), 200)}
	default:
		return nil, &ProtocolError{Status: resp.StatusCode, Detail: truncate(string(raw), 200)}
	}
}

// buildPayload marshals the request into the Responses API shape. Maps
// marshal with sorted keys, so identical requests produce identical
// bytes and therefore identical cache keys.
func buildPayload(req Request) ([]byte, error) {
	payload := map[string]any{
		"model":             req.Model,
		"input":             req.Input,
		"temperature":       req.Temperature,
		"top_p":             req.TopP,
		"max_output_tokens": req.MaxOutputTokens,
		"store":             false,
	}
	switch req.Mode {
	case ModeJSONSchema:
		payload["text"] = map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   req.SchemaName,
				"schema": req.Schema,
				"strict": true,
			},
		}
	case ModeJSONObject:
		payload["text"] = map[string]any{
			"format": map[string]any{"type": "json_object"},
		}
	default:
		return nil, fmt.Errorf("unknown output mode %q", req.Mode)
	}
	return json.Marshal(payload)
}

type responseBody struct {
	ID     string       `json:"id"`
	Model  string       `json:"model"`
	Output []outputItem `json:"output"`
	Usage  Usage        `json:"usage"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type    string `json:"type"`
	Text    string `json:"text"`
	Refusal string `json:"refusal"`
}

// parseResponse decodes a raw API body into a Result. Refusals are
// surfaced as RefusalError; a body with no assistant text, or text
// that is not JSON even after salvage, is a ProtocolError.
func parseResponse(raw []byte) (*Result, error) {
	var body responseBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &ProtocolError{Detail: "response body is not JSON: " + err.Error()}
	}
	text, err := extractOutputText(body)
	if err != nil {
		return nil, err
	}
	parsed, err := parseOutputJSON(text)
	if err != nil {
		return nil, err
	}
	return &Result{
		Parsed:     parsed,
		Raw:        json.RawMessage(raw),
		OutputText: text,
		Usage:      body.Usage,
		ResponseID: body.ID,
		Model:      body.Model,
	}, nil
}

// extractOutputText returns the first assistant output_text part. A
// refusal part anywhere in the message wins over text.
func extractOutputText(body responseBody) (string, error) {
	for _, item := range body.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "refusal" {
				return "", &RefusalError{Message: part.Refusal}
			}
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				return part.Text, nil
			}
		}
	}
	return "", &ProtocolError{Detail: "no assistant output_text in response"}
}

// parseOutputJSON decodes the assistant text as JSON. On failure it
// salvages the largest {...} substring exactly once before giving up.
func parseOutputJSON(text string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(text), &v); err == nil {
		return v, nil
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, &ProtocolError{Detail: "output is not JSON: " + truncate(text, 200)}
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &v); err != nil {
		return nil, &ProtocolError{Detail: "output is not JSON after salvage: " + truncate(text, 200)}
	}
	return v, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(truncated)"
}
