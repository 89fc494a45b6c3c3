// Command runmatch plays a full benchmark match between two agents
// across a board file, streaming one JSON game record per line and
// printing a per-agent summary at the end.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/codenames-bench/internal/cache"
	"github.com/freeeve/codenames-bench/internal/config"
	"github.com/freeeve/codenames-bench/internal/llm"
	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/internal/metrics"
	"github.com/freeeve/codenames-bench/internal/repository/postgres"
	"github.com/freeeve/codenames-bench/internal/runner"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	var (
		boardsPath string
		agentAPath string
		agentBPath string
		outPath    string
		replicates int
		mirror     bool
		maxTurns   int
		workers    int
		cachePath  string
		redisCache string
		dbURL      string
		dryRun     bool
		rps        float64
		jsonOut    bool
	)
	flag.StringVar(&boardsPath, "boards", "", "Boards NDJSON file (from makeboards)")
	flag.StringVar(&agentAPath, "agent-a", "", "Agent A config JSON")
	flag.StringVar(&agentBPath, "agent-b", "", "Agent B config JSON")
	flag.StringVar(&outPath, "out", "", "Results NDJSON path (default stdout)")
	flag.IntVar(&replicates, "replicates", 1, "Games per board per colour assignment")
	flag.BoolVar(&mirror, "mirror", true, "Replay each game with colours swapped")
	flag.IntVar(&maxTurns, "max-turns", runner.DefaultMaxTurns, "Turn cap before a draw")
	flag.IntVar(&workers, "workers", 2, "Concurrency (parallel games)")
	flag.StringVar(&cachePath, "cache", "", "LevelDB response cache path (empty = no cache)")
	flag.StringVar(&redisCache, "redis-cache", "", "Redis response cache URL (overrides -cache)")
	flag.StringVar(&dbURL, "db", "", "Postgres URL for result rows (or DATABASE_URL env)")
	flag.BoolVar(&dryRun, "dry-run", false, "Skip database writes")
	flag.Float64Var(&rps, "rps", 0, "Model requests per second (0 = unlimited)")
	flag.BoolVar(&jsonOut, "json", false, "Print the summary as JSON")
	flag.Parse()

	if boardsPath == "" || agentAPath == "" || agentBPath == "" {
		log.Fatal().Msg("-boards, -agent-a, and -agent-b are required")
	}

	env := config.LoadEnv()

	agentA, err := config.LoadAgentConfig(agentAPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Agent A config invalid")
	}
	agentB, err := config.LoadAgentConfig(agentBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Agent B config invalid")
	}
	boards, err := codenames.LoadBoards(boardsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Boards load failed")
	}

	store := openCache(cachePath, redisCache)
	client, err := llm.New(env.OpenAIAPIKey, llm.Options{
		BaseURL: env.OpenAIBaseURL,
		RPS:     rps,
		Cache:   store,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("LLM client init failed")
	}

	out := os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			log.Fatal().Err(err).Msg("Create results file failed")
		}
		defer f.Close()
		out = f
	}

	var resultStore runner.ResultStore
	if dbURL == "" {
		dbURL = env.DatabaseURL
	}
	if dbURL != "" && !dryRun {
		db, err := postgres.Connect(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Database connection failed")
		}
		defer db.Close()
		resultStore = postgres.NewResultStore(db)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		log.Info().Msg("Shutting down...")
		cancel()
	}()

	records, err := runner.Run(ctx, runner.RunConfig{
		Boards:     boards,
		AgentA:     agentA,
		AgentB:     agentB,
		Client:     client,
		Replicates: replicates,
		Mirror:     mirror,
		MaxTurns:   maxTurns,
		Workers:    workers,
		Out:        out,
		Store:      resultStore,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Match run failed")
	}

	summaries := metrics.Summarize(records)
	if jsonOut {
		printJSON(summaries, records)
	} else {
		printSummary(summaries, records)
	}
}

// openCache picks the response cache backend: Redis when given,
// otherwise a local LevelDB file, otherwise none.
func openCache(cachePath, redisURL string) cache.Store {
	if redisURL != "" {
		store, err := cache.NewRedis(redisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Redis cache init failed")
		}
		log.Info().Str("url", redisURL).Msg("Using Redis response cache")
		return store
	}
	if cachePath != "" {
		store, err := cache.OpenLevelDB(cachePath)
		if err != nil {
			log.Fatal().Err(err).Msg("LevelDB cache init failed")
		}
		log.Info().Str("path", cachePath).Msg("Using LevelDB response cache")
		return store
	}
	return nil
}

func printSummary(summaries []metrics.AgentSummary, records []*runner.GameRecord) {
	errored := 0
	for _, r := range records {
		if r.EndReason == runner.EndError {
			errored++
		}
	}
	fmt.Fprintf(os.Stderr, "\nResults (%d games):\n", len(records))
	if errored > 0 {
		fmt.Fprintf(os.Stderr, "  (%d games ended with errors)\n", errored)
	}
	for _, s := range summaries {
		fmt.Fprintf(os.Stderr, "  %-16s  %dW %dL %dD  win %.1f%% [%.1f%%, %.1f%%]  assassin %.1f%%  flips %.1f%%  avg correct %.2f\n",
			s.Agent, s.Wins, s.Losses, s.Draws,
			100*s.WinRate, 100*s.WinRateLow, 100*s.WinRateHigh,
			100*s.AssassinLossRate, 100*s.OpponentFlipRate, s.AvgCorrectPerClue)
	}
}

func printJSON(summaries []metrics.AgentSummary, records []*runner.GameRecord) {
	out := struct {
		Games     int                    `json:"games"`
		Summaries []metrics.AgentSummary `json:"summaries"`
	}{
		Games:     len(records),
		Summaries: summaries,
	}
	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}
