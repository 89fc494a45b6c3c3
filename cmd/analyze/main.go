// Command analyze computes per-agent summaries from a results NDJSON
// file produced by runmatch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/internal/metrics"
	"github.com/freeeve/codenames-bench/internal/runner"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	var (
		resultsPath string
		jsonOut     bool
	)
	flag.StringVar(&resultsPath, "results", "", "Results NDJSON file (from runmatch)")
	flag.BoolVar(&jsonOut, "json", false, "Print summaries as JSON")
	flag.Parse()

	if resultsPath == "" {
		log.Fatal().Msg("-results is required")
	}

	f, err := os.Open(resultsPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Open results failed")
	}
	defer f.Close()

	records, err := runner.ReadRecords(f)
	if err != nil {
		log.Fatal().Err(err).Msg("Results parse failed")
	}
	if len(records) == 0 {
		log.Fatal().Msg("No records in results file")
	}

	summaries := metrics.Summarize(records)
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summaries); err != nil {
			log.Fatal().Err(err).Msg("Encode summaries failed")
		}
		return
	}

	fmt.Printf("%-16s %6s %5s %5s %5s %5s %9s %19s %10s %8s %8s %8s\n",
		"AGENT", "GAMES", "WINS", "LOSS", "DRAW", "ERR", "WIN%", "95% CI", "ASSASSIN%", "FLIP%", "CORR/CLUE", "TURNS/G")
	for _, s := range summaries {
		fmt.Printf("%-16s %6d %5d %5d %5d %5d %8.1f%% [%6.1f%%, %6.1f%%] %9.1f%% %7.1f%% %9.2f %8.2f\n",
			s.Agent, s.Games, s.Wins, s.Losses, s.Draws, s.Errors,
			100*s.WinRate, 100*s.WinRateLow, 100*s.WinRateHigh,
			100*s.AssassinLossRate, 100*s.OpponentFlipRate, s.AvgCorrectPerClue, s.AvgTurnsPerGame)
	}
}
