package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseAgentConfig_Defaults(t *testing.T) {
	cfg, err := ParseAgentConfig([]byte(`{
		"name": "baseline",
		"spymaster": {"model": "gpt-4o-mini"},
		"guesser": {"model": "gpt-4o-mini"}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Name != "baseline" {
		t.Errorf("name = %q", cfg.Name)
	}
	sp := cfg.Spymaster
	if sp.Provider != "openai_responses" || sp.PromptID != "spymaster_v1" ||
		sp.Temperature != 0.8 || sp.TopP != 1.0 || sp.MaxOutputTokens != 256 ||
		sp.OutputMode != OutputJSONSchema || sp.CandidatesPerTurn != 8 ||
		sp.GenerationMode != GenerationKCalls {
		t.Errorf("spymaster defaults = %+v", sp)
	}
	gu := cfg.Guesser
	if gu.Temperature != 0.0 || gu.TopP != 1.0 || gu.PromptID != "guesser_v1" {
		t.Errorf("guesser defaults = %+v", gu)
	}
	sel := cfg.Selection
	if sel.EvalSamplesPerCandidate != 2 || sel.EvalTemperature != 0.3 ||
		sel.EvalTopP != 1.0 || sel.Aggregate != "mean_minus_lambda_std" ||
		sel.LambdaStd != 0.7 || sel.MaxEvalCandidates != 0 {
		t.Errorf("selection defaults = %+v", sel)
	}
}

func TestParseAgentConfig_ExplicitValuesOverrideDefaults(t *testing.T) {
	cfg, err := ParseAgentConfig([]byte(`{
		"name": "risky",
		"spymaster": {
			"model": "gpt-4o",
			"temperature": 0,
			"candidates_per_turn": 12,
			"generation_mode": "one_call_list"
		},
		"guesser": {"model": "gpt-4o", "temperature": 0.5},
		"selection": {"aggregate": "p10", "max_eval_candidates": 4}
	}`))
	if err != nil {
		t.Fatal(err)
	}

	// Explicit zero must survive defaulting.
	if cfg.Spymaster.Temperature != 0 {
		t.Errorf("spymaster temperature = %v, want 0", cfg.Spymaster.Temperature)
	}
	if cfg.Spymaster.CandidatesPerTurn != 12 || cfg.Spymaster.GenerationMode != GenerationOneCallList {
		t.Errorf("spymaster = %+v", cfg.Spymaster)
	}
	if cfg.Guesser.Temperature != 0.5 {
		t.Errorf("guesser temperature = %v", cfg.Guesser.Temperature)
	}
	if cfg.Selection.Aggregate != "p10" || cfg.Selection.MaxEvalCandidates != 4 {
		t.Errorf("selection = %+v", cfg.Selection)
	}
	// Untouched fields keep defaults.
	if cfg.Selection.LambdaStd != 0.7 {
		t.Errorf("lambda_std = %v, want default 0.7", cfg.Selection.LambdaStd)
	}
}

func TestParseAgentConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"not json", `{"name": `},
		{"missing name", `{"spymaster": {"model": "m"}, "guesser": {"model": "m"}}`},
		{"missing spymaster model", `{"name": "a", "spymaster": {}, "guesser": {"model": "m"}}`},
		{"bad generation mode", `{"name": "a", "spymaster": {"model": "m", "generation_mode": "many_calls"}, "guesser": {"model": "m"}}`},
		{"bad aggregate", `{"name": "a", "spymaster": {"model": "m"}, "guesser": {"model": "m"}, "selection": {"aggregate": "median"}}`},
		{"negative temperature", `{"name": "a", "spymaster": {"model": "m", "temperature": -1}, "guesser": {"model": "m"}}`},
		{"zero top_p", `{"name": "a", "spymaster": {"model": "m", "top_p": 0}, "guesser": {"model": "m"}}`},
		{"misspelled field", `{"name": "a", "spymaster": {"model": "m", "temprature": 0.5}, "guesser": {"model": "m"}}`},
		{"unknown top-level field", `{"name": "a", "spymaster": {"model": "m"}, "guesser": {"model": "m"}, "judge": {}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAgentConfig([]byte(tt.json))
			if err == nil {
				t.Fatal("expected error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) {
				t.Errorf("error type = %T, want *ConfigError", err)
			}
		})
	}
}

func TestLoadAgentConfig_FileErrors(t *testing.T) {
	_, err := LoadAgentConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("error type = %T, want *ConfigError", err)
	}

	path := filepath.Join(t.TempDir(), "agent.json")
	if werr := os.WriteFile(path, []byte(`{"name":"a","spymaster":{"model":"m"},"guesser":{"model":"m"}}`), 0644); werr != nil {
		t.Fatal(werr)
	}
	cfg, err := LoadAgentConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Name != "a" {
		t.Errorf("name = %q", cfg.Name)
	}
}

func TestConfigError_IncludesPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.json")
	if err := os.WriteFile(path, []byte(`{}`), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadAgentConfig(path)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error should name the file: %v", err)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_BASE_URL", "")
	t.Setenv("DATABASE_URL", "postgres://localhost/bench")

	env := LoadEnv()
	if env.OpenAIAPIKey != "sk-test" {
		t.Errorf("api key = %q", env.OpenAIAPIKey)
	}
	if env.OpenAIBaseURL != "https://api.openai.com/v1" {
		t.Errorf("base url = %q", env.OpenAIBaseURL)
	}
	if env.DatabaseURL != "postgres://localhost/bench" {
		t.Errorf("database url = %q", env.DatabaseURL)
	}
}
