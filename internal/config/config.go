// Package config loads runner environment settings and per-agent
// configuration files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Env holds process configuration loaded from environment variables.
type Env struct {
	OpenAIAPIKey  string
	OpenAIBaseURL string
	DatabaseURL   string
	RedisURL      string
}

// LoadEnv reads configuration from environment variables with sensible
// defaults. The API key is validated by the LLM client, not here, so
// commands that never call a model (makeboards, analyze) still run
// without one.
func LoadEnv() *Env {
	return &Env{
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: envOrDefault("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ConfigError describes an invalid configuration file. Fatal before
// any game starts.
type ConfigError struct {
	Path   string
	Detail string
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return "config: " + e.Detail
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Detail)
}

// Generation modes for the spymaster stage.
const (
	GenerationKCalls      = "k_calls"
	GenerationOneCallList = "one_call_list"
)

// Output modes for structured LLM calls.
const (
	OutputJSONSchema = "json_schema"
	OutputJSONObject = "json_object"
)

// SpymasterConfig holds the clue-generation model options.
type SpymasterConfig struct {
	Provider          string  `json:"provider"`
	Model             string  `json:"model"`
	PromptID          string  `json:"prompt_id"`
	Temperature       float64 `json:"temperature"`
	TopP              float64 `json:"top_p"`
	MaxOutputTokens   int     `json:"max_output_tokens"`
	OutputMode        string  `json:"output_mode"`
	CandidatesPerTurn int     `json:"candidates_per_turn"`
	GenerationMode    string  `json:"generation_mode"`
}

// GuesserConfig holds the guessing model options.
type GuesserConfig struct {
	Provider        string  `json:"provider"`
	Model           string  `json:"model"`
	PromptID        string  `json:"prompt_id"`
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"top_p"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	OutputMode      string  `json:"output_mode"`
}

// SelectionConfig controls candidate evaluation and scoring.
// MaxEvalCandidates of 0 evaluates every legal candidate.
type SelectionConfig struct {
	EvalSamplesPerCandidate int     `json:"eval_samples_per_candidate"`
	EvalTemperature         float64 `json:"eval_temperature"`
	EvalTopP                float64 `json:"eval_top_p"`
	Aggregate               string  `json:"aggregate"`
	LambdaStd               float64 `json:"lambda_std"`
	MaxEvalCandidates       int     `json:"max_eval_candidates"`
}

// AgentConfig is one complete agent: a spymaster, a guesser, and the
// selection policy that arbitrates between candidate clues.
type AgentConfig struct {
	Name      string          `json:"name"`
	Spymaster SpymasterConfig `json:"spymaster"`
	Guesser   GuesserConfig   `json:"guesser"`
	Selection SelectionConfig `json:"selection"`
}

// DefaultAgentConfig returns an agent with every tunable at its
// benchmark default. Model names are intentionally empty: they are
// required in the file.
func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Spymaster: SpymasterConfig{
			Provider:          "openai_responses",
			PromptID:          "spymaster_v1",
			Temperature:       0.8,
			TopP:              1.0,
			MaxOutputTokens:   256,
			OutputMode:        OutputJSONSchema,
			CandidatesPerTurn: 8,
			GenerationMode:    GenerationKCalls,
		},
		Guesser: GuesserConfig{
			Provider:        "openai_responses",
			PromptID:        "guesser_v1",
			Temperature:     0.0,
			TopP:            1.0,
			MaxOutputTokens: 256,
			OutputMode:      OutputJSONSchema,
		},
		Selection: SelectionConfig{
			EvalSamplesPerCandidate: 2,
			EvalTemperature:         0.3,
			EvalTopP:                1.0,
			Aggregate:               "mean_minus_lambda_std",
			LambdaStd:               0.7,
			MaxEvalCandidates:       0,
		},
	}
}

// LoadAgentConfig reads, validates, and defaults an agent config file.
// Validation runs against the embedded JSON Schema first so errors
// name the offending field; defaults are applied by unmarshalling over
// a pre-filled struct, which leaves absent fields at their defaults.
func LoadAgentConfig(path string) (*AgentConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigError{Path: path, Detail: err.Error()}
	}
	cfg, err := ParseAgentConfig(data)
	if err != nil {
		if ce, ok := err.(*ConfigError); ok {
			ce.Path = path
			return nil, ce
		}
		return nil, &ConfigError{Path: path, Detail: err.Error()}
	}
	return cfg, nil
}

// ParseAgentConfig validates and defaults raw agent config JSON.
func ParseAgentConfig(data []byte) (*AgentConfig, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(agentConfigSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, &ConfigError{Detail: "not valid JSON: " + err.Error()}
	}
	if !result.Valid() {
		var details []string
		for _, e := range result.Errors() {
			details = append(details, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
		}
		return nil, &ConfigError{Detail: strings.Join(details, "; ")}
	}

	cfg := DefaultAgentConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Detail: err.Error()}
	}
	return &cfg, nil
}
