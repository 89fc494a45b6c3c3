package codenames

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// LoadBoards reads a newline-delimited JSON board file, validating
// every record. Any malformed or invariant-breaking board fails the
// whole load: a benchmark on a bad board is worthless.
func LoadBoards(path string) ([]*Board, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open boards: %w", err)
	}
	defer f.Close()
	return ReadBoards(f)
}

// ReadBoards decodes boards from NDJSON, one per line.
func ReadBoards(r io.Reader) ([]*Board, error) {
	var boards []*Board
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var b Board
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("boards line %d: %w", line, err)
		}
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("boards line %d: %w", line, err)
		}
		boards = append(boards, &b)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read boards: %w", err)
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("no boards in file")
	}
	return boards, nil
}

// WriteBoards writes boards as NDJSON, one per line.
func WriteBoards(w io.Writer, boards []*Board) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, b := range boards {
		if err := enc.Encode(b); err != nil {
			return fmt.Errorf("encode board %s: %w", b.ID, err)
		}
	}
	return bw.Flush()
}
