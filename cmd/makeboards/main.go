// Command makeboards generates benchmark boards from a wordlist file
// and writes them as NDJSON, one board per line.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/freeeve/codenames-bench/internal/logger"
	"github.com/freeeve/codenames-bench/pkg/codenames"
)

func main() {
	_ = godotenv.Load()
	logger.Init()

	var (
		wordlist string
		count    int
		seed     int64
		out      string
	)
	flag.StringVar(&wordlist, "wordlist", "", "Path to wordlist file (one word per line, # comments)")
	flag.IntVar(&count, "n", 20, "Number of boards to generate")
	flag.Int64Var(&seed, "seed", 1, "Base seed; board i uses seed+i")
	flag.StringVar(&out, "out", "", "Output path (default stdout)")
	flag.Parse()

	if wordlist == "" {
		log.Fatal().Msg("-wordlist is required")
	}

	pool, err := codenames.LoadWordlist(wordlist)
	if err != nil {
		log.Fatal().Err(err).Msg("Wordlist load failed")
	}
	log.Info().Int("words", len(pool)).Str("path", wordlist).Msg("Wordlist loaded")

	boards := make([]*codenames.Board, 0, count)
	for i := 0; i < count; i++ {
		b, err := codenames.GenerateBoard(pool, fmt.Sprintf("board-%03d", i+1), seed+int64(i))
		if err != nil {
			log.Fatal().Err(err).Int("board", i+1).Msg("Board generation failed")
		}
		boards = append(boards, b)
	}

	w := os.Stdout
	if out != "" {
		f, err := os.Create(out)
		if err != nil {
			log.Fatal().Err(err).Msg("Create output file failed")
		}
		defer f.Close()
		w = f
	}
	if err := codenames.WriteBoards(w, boards); err != nil {
		log.Fatal().Err(err).Msg("Write boards failed")
	}
	log.Info().Int("boards", len(boards)).Str("out", out).Msg("Boards written")
}
