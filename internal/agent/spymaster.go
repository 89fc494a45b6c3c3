package agent

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"

	"github.com/freeeve/codenames-bench/internal/config"
	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

// Rejection reasons produced by the generation stage. Legality and
// number-range reasons come from pkg/codenames.
const (
	reasonCallFailed      = "spymaster_call_failed"
	reasonNonDict         = "spymaster_non_dict"
	reasonNonDictListItem = "non_dict_candidate"
	reasonFallbackUsed    = "no_legal_candidates_fallback_used"
)

// generateCandidates runs the spymaster stage in the configured mode.
// Call failures never abort the batch: they come back as rejection
// entries alongside whatever parsed successfully.
func (a *TeamAgent) generateCandidates(ctx context.Context, gs *codenames.GameState, team codenames.Team) ([]codenames.Candidate, []codenames.RejectedCandidate) {
	if a.cfg.Spymaster.GenerationMode == config.GenerationOneCallList {
		return a.generateOneCallList(ctx, gs, team)
	}
	return a.generateKCalls(ctx, gs, team)
}

// generateKCalls issues K independent single-candidate calls in
// parallel. Slot order is preserved so candidate ordering (and with it
// max_eval_candidates truncation) stays deterministic.
func (a *TeamAgent) generateKCalls(ctx context.Context, gs *codenames.GameState, team codenames.Team) ([]codenames.Candidate, []codenames.RejectedCandidate) {
	k := a.cfg.Spymaster.CandidatesPerTurn
	if k < 1 {
		k = 1
	}
	msgs := spymasterMessages(a.spyPrompt, gs, team)
	schema := spymasterSingleSchema()

	cands := make([]*codenames.Candidate, k)
	rejs := make([]*codenames.RejectedCandidate, k)
	var wg sync.WaitGroup
	for i := 0; i < k; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			res, err := a.client.CreateJSON(ctx, llm.Request{
				Model:           a.cfg.Spymaster.Model,
				Input:           msgs,
				Temperature:     a.cfg.Spymaster.Temperature,
				TopP:            a.cfg.Spymaster.TopP,
				MaxOutputTokens: a.cfg.Spymaster.MaxOutputTokens,
				Mode:            a.cfg.Spymaster.OutputMode,
				SchemaName:      schemaNameSpymasterClue,
				Schema:          schema,
			})
			if err != nil {
				rejs[slot] = &codenames.RejectedCandidate{
					Candidate: codenames.Candidate{Error: err.Error()},
					Reason:    reasonCallFailed,
				}
				return
			}
			obj, ok := res.Parsed.(map[string]any)
			if !ok {
				rejs[slot] = &codenames.RejectedCandidate{
					Candidate: codenames.Candidate{Raw: rawJSON(res.Parsed)},
					Reason:    reasonNonDict,
				}
				return
			}
			c := candidateFromObject(obj)
			cands[slot] = &c
		}(i)
	}
	wg.Wait()

	results := make([]codenames.Candidate, 0, k)
	var rejected []codenames.RejectedCandidate
	for i := 0; i < k; i++ {
		if cands[i] != nil {
			results = append(results, *cands[i])
		}
		if rejs[i] != nil {
			rejected = append(rejected, *rejs[i])
		}
	}
	log := logger.ForRun(ctx)
	log.Debug().
		Str("team", string(team)).
		Int("requested", k).
		Int("parsed", len(results)).
		Int("rejected", len(rejected)).
		Msg("spymaster k_calls generation done")
	return results, rejected
}

// generateOneCallList asks for up to K candidates in a single call.
// A failed or non-object response degrades to a rejection (feeding the
// fallback path) rather than aborting the turn.
func (a *TeamAgent) generateOneCallList(ctx context.Context, gs *codenames.GameState, team codenames.Team) ([]codenames.Candidate, []codenames.RejectedCandidate) {
	k := a.cfg.Spymaster.CandidatesPerTurn
	if k < 1 {
		k = 1
	}
	res, err := a.client.CreateJSON(ctx, llm.Request{
		Model:           a.cfg.Spymaster.Model,
		Input:           spymasterMessages(a.spyPrompt, gs, team),
		Temperature:     a.cfg.Spymaster.Temperature,
		TopP:            a.cfg.Spymaster.TopP,
		MaxOutputTokens: a.cfg.Spymaster.MaxOutputTokens,
		Mode:            a.cfg.Spymaster.OutputMode,
		SchemaName:      schemaNameSpymasterList,
		Schema:          spymasterListSchema(k),
	})
	if err != nil {
		return nil, []codenames.RejectedCandidate{{
			Candidate: codenames.Candidate{Error: err.Error()},
			Reason:    reasonCallFailed,
		}}
	}
	obj, ok := res.Parsed.(map[string]any)
	if !ok {
		return nil, []codenames.RejectedCandidate{{
			Candidate: codenames.Candidate{Raw: rawJSON(res.Parsed)},
			Reason:    reasonNonDict,
		}}
	}

	items, _ := obj["candidates"].([]any)
	results := make([]codenames.Candidate, 0, len(items))
	var rejected []codenames.RejectedCandidate
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			rejected = append(rejected, codenames.RejectedCandidate{
				Candidate: codenames.Candidate{Raw: rawJSON(it)},
				Reason:    reasonNonDictListItem,
			})
			continue
		}
		results = append(results, candidateFromObject(m))
	}
	log := logger.ForRun(ctx)
	log.Debug().
		Str("team", string(team)).
		Int("parsed", len(results)).
		Int("rejected", len(rejected)).
		Msg("spymaster one_call_list generation done")
	return results, rejected
}

// fallbackCandidate is the last resort when nothing survives the
// filters: one near-deterministic spymaster call, then a hardcoded
// clue if even that fails. The result skips re-filtering, matching the
// guarantee that every turn plays some clue.
func (a *TeamAgent) fallbackCandidate(ctx context.Context, gs *codenames.GameState, team codenames.Team) codenames.Clue {
	hardcoded := codenames.Clue{
		Word:   "MYSTERY",
		Number: 1,
		Raw:    json.RawMessage(`{"fallback":true}`),
	}

	temp := a.cfg.Spymaster.Temperature
	if temp > 0.2 {
		temp = 0.2
	}
	res, err := a.client.CreateJSON(ctx, llm.Request{
		Model:           a.cfg.Spymaster.Model,
		Input:           spymasterMessages(a.spyPrompt, gs, team),
		Temperature:     temp,
		TopP:            1.0,
		MaxOutputTokens: a.cfg.Spymaster.MaxOutputTokens,
		Mode:            a.cfg.Spymaster.OutputMode,
		SchemaName:      schemaNameSpymasterClue,
		Schema:          spymasterSingleSchema(),
	})
	if err != nil {
		log := logger.ForRun(ctx)
		log.Warn().Err(err).Str("team", string(team)).Msg("fallback spymaster call failed, using hardcoded clue")
		return hardcoded
	}
	obj, ok := res.Parsed.(map[string]any)
	if !ok {
		obj = map[string]any{}
	}
	word := strings.TrimSpace(stringValue(obj["clue"]))
	if word == "" {
		word = "MYSTERY"
	}
	number := 1
	if n, present := obj["number"]; present {
		v, valid := coerceInt(n)
		if !valid {
			return hardcoded
		}
		number = v
	}
	return codenames.Clue{Word: word, Number: number, Raw: rawJSON(obj)}
}

// candidateFromObject maps one parsed proposal onto a Candidate,
// preserving the model's JSON verbatim for the turn log. A missing
// number defaults to 1; json_object mode can omit fields the strict
// schema would force.
func candidateFromObject(obj map[string]any) codenames.Candidate {
	c := codenames.Candidate{
		Word:            strings.TrimSpace(stringValue(obj["clue"])),
		Number:          1,
		IntendedTargets: stringSlice(obj["intended_targets"]),
		DangerWords:     stringSlice(obj["danger_words"]),
		Raw:             rawJSON(obj),
	}
	if n, present := obj["number"]; present {
		c.Number = n
	}
	return c
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func stringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// coerceInt converts the loose numbers models emit. Floats truncate;
// numeric strings parse; anything else is invalid.
func coerceInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	default:
		return 0, false
	}
}

func rawJSON(v any) json.RawMessage {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
