package config

// agentConfigSchema is the JSON Schema every agent config file must
// satisfy before defaults are applied. additionalProperties is off so
// a misspelled field fails loudly instead of silently using defaults.
const agentConfigSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["name", "spymaster", "guesser"],
  "additionalProperties": false,
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "spymaster": {
      "type": "object",
      "required": ["model"],
      "additionalProperties": false,
      "properties": {
        "provider": {"type": "string", "enum": ["openai_responses"]},
        "model": {"type": "string", "minLength": 1},
        "prompt_id": {"type": "string", "minLength": 1},
        "temperature": {"type": "number", "minimum": 0, "maximum": 2},
        "top_p": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
        "max_output_tokens": {"type": "integer", "minimum": 1},
        "output_mode": {"type": "string", "enum": ["json_schema", "json_object"]},
        "candidates_per_turn": {"type": "integer", "minimum": 1, "maximum": 64},
        "generation_mode": {"type": "string", "enum": ["k_calls", "one_call_list"]}
      }
    },
    "guesser": {
      "type": "object",
      "required": ["model"],
      "additionalProperties": false,
      "properties": {
        "provider": {"type": "string", "enum": ["openai_responses"]},
        "model": {"type": "string", "minLength": 1},
        "prompt_id": {"type": "string", "minLength": 1},
        "temperature": {"type": "number", "minimum": 0, "maximum": 2},
        "top_p": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
        "max_output_tokens": {"type": "integer", "minimum": 1},
        "output_mode": {"type": "string", "enum": ["json_schema", "json_object"]}
      }
    },
    "selection": {
      "type": "object",
      "additionalProperties": false,
      "properties": {
        "eval_samples_per_candidate": {"type": "integer", "minimum": 1, "maximum": 32},
        "eval_temperature": {"type": "number", "minimum": 0, "maximum": 2},
        "eval_top_p": {"type": "number", "exclusiveMinimum": 0, "maximum": 1},
        "aggregate": {"type": "string", "enum": ["mean", "mean_minus_lambda_std", "p10"]},
        "lambda_std": {"type": "number", "minimum": 0},
        "max_eval_candidates": {"type": "integer", "minimum": 0}
      }
    }
  }
}`
