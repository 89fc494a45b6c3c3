package codenames

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// singleWordPattern accepts one word of up to 32 letters with an
// optional apostrophe (e.g. O'CLOCK).
var singleWordPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z']{0,31}$`)

// bannedClueWords are meta-words that smuggle game instructions
// instead of cluing board words.
var bannedClueWords = map[string]bool{
	"NONE": true, "NIL": true, "ZERO": true,
	"STOP": true, "PASS": true, "SKIP": true,
	"LEFT": true, "RIGHT": true, "TOP": true, "BOTTOM": true,
	"FIRST": true, "SECOND": true, "THIRD": true,
}

// normalizeClue strips everything but letters and uppercases, so that
// e.g. "o'clock" and "OCLOCK" compare equal against board words.
func normalizeClue(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// IsLegal checks a clue against the game's clue rules. The second
// return value is the rejection reason, "" when legal. Board-word
// conflicts name the offending word, e.g. "substring_overlap:CAT".
func IsLegal(clue string, boardWords []string) (bool, string) {
	c := strings.TrimSpace(clue)
	if c == "" {
		return false, "empty"
	}
	if !singleWordPattern.MatchString(c) {
		return false, "not_single_word"
	}
	norm := normalizeClue(c)
	if norm == "" {
		return false, "no_letters"
	}
	if bannedClueWords[norm] {
		return false, "banned_meta_word"
	}
	for _, w := range boardWords {
		bw := normalizeClue(w)
		if bw == "" {
			continue
		}
		if norm == bw {
			return false, "matches_board_word:" + w
		}
		if norm == bw+"S" || bw == norm+"S" {
			return false, "plural_variant:" + w
		}
		if strings.Contains(bw, norm) || strings.Contains(norm, bw) {
			return false, "substring_overlap:" + w
		}
	}
	return true, ""
}

// FilterLegal partitions candidates into legal and rejected, both
// preserving input order. Rejected entries carry the reason from
// IsLegal. Numbers are not checked here; see FilterNumbers.
func FilterLegal(candidates []Candidate, boardWords []string) ([]Candidate, []RejectedCandidate) {
	legal := make([]Candidate, 0, len(candidates))
	var rejected []RejectedCandidate
	for _, c := range candidates {
		if ok, reason := IsLegal(c.Word, boardWords); !ok {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: reason})
			continue
		}
		legal = append(legal, c)
	}
	return legal, rejected
}

// ClueNumberCap is the largest clue number a team may give: its
// remaining card count, never more than 9.
func ClueNumberCap(remaining int) int {
	return min(9, remaining)
}

// CheckClueNumber validates a raw clue number against the acting
// team's remaining count. Models return numbers as arbitrary JSON, so
// the input is any; non-integers are "bad_number". Returns the
// normalized integer and "" when valid.
func CheckClueNumber(number any, remaining int) (int, string) {
	var n int
	switch v := number.(type) {
	case int:
		n = v
	case float64:
		if v != math.Trunc(v) || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, "bad_number"
		}
		n = int(v)
	default:
		return 0, "bad_number"
	}
	if n < 1 {
		return 0, "number_lt_1"
	}
	if n > ClueNumberCap(remaining) {
		return 0, fmt.Sprintf("number_gt_remaining(%d)", remaining)
	}
	return n, ""
}

// FilterNumbers keeps candidates whose number is an integer in range
// for the team's remaining count, re-classifying the rest as
// bad_number / number_lt_1 / number_gt_remaining. Survivors become
// typed Clues. Order preserved.
func FilterNumbers(candidates []Candidate, remaining int) ([]Clue, []RejectedCandidate) {
	legal := make([]Clue, 0, len(candidates))
	var rejected []RejectedCandidate
	for _, c := range candidates {
		n, reason := CheckClueNumber(c.Number, remaining)
		if reason != "" {
			rejected = append(rejected, RejectedCandidate{Candidate: c, Reason: reason})
			continue
		}
		legal = append(legal, Clue{
			Word:            c.Word,
			Number:          n,
			IntendedTargets: c.IntendedTargets,
			DangerWords:     c.DangerWords,
			Raw:             c.Raw,
		})
	}
	return legal, rejected
}
