package codenames

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// MinWordlistSize is the smallest usable pool after filtering; below
// this, board sampling gets too repetitive to benchmark with.
const MinWordlistSize = 50

// ErrWordlistTooSmall is returned when a wordlist filters down to
// fewer than MinWordlistSize unique entries.
var ErrWordlistTooSmall = errors.New("wordlist too small")

// LoadWordlist reads a plain-text wordlist: one word per line, `#`
// lines are comments, surrounding whitespace is trimmed, words are
// uppercased, tokens containing inner whitespace are dropped, and
// duplicates are removed keeping first occurrence.
func LoadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open wordlist: %w", err)
	}
	defer f.Close()

	var words []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		w := strings.ToUpper(line)
		if strings.ContainsAny(w, " \t") {
			continue
		}
		if seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}

	if len(words) < MinWordlistSize {
		return nil, fmt.Errorf("%w: %d unique words after filtering, need %d", ErrWordlistTooSmall, len(words), MinWordlistSize)
	}
	return words, nil
}
