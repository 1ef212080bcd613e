package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions is the maximum number of suggestions to return.
const MaxSuggestions = 3

// Suggestion is a candidate name close to a misspelled one.
type Suggestion struct {
	Value    string
	Distance int
}

// SuggestSimilar returns up to MaxSuggestions candidates close to target,
// nearest first. Dotted names are compared whole, so "in.bse" suggests
// "in.base" but not "out.base".
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" {
		return nil
	}
	lowered := strings.ToLower(target)
	limit := suggestionLimit(target)

	var found []Suggestion
	seen := map[string]bool{}
	for _, c := range candidates {
		if c == "" || c == target || seen[c] {
			continue
		}
		seen[c] = true
		d := editDistance(lowered, strings.ToLower(c))
		if d <= limit {
			found = append(found, Suggestion{Value: c, Distance: d})
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Distance != found[j].Distance {
			return found[i].Distance < found[j].Distance
		}
		return found[i].Value < found[j].Value
	})
	if len(found) > MaxSuggestions {
		found = found[:MaxSuggestions]
	}
	return found
}

// suggestionLimit scales the accepted edit distance with the length of the
// final name segment.
func suggestionLimit(target string) int {
	last := target[strings.LastIndexByte(target, '.')+1:]
	switch {
	case len(last) <= 3:
		return 1
	case len(last) <= 5:
		return 2
	default:
		return 3
	}
}

// FormatSuggestions renders suggestions as a hint sentence, or "".
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "did you mean '" + suggestions[0].Value + "'?"
	}
	quoted := make([]string, len(suggestions))
	for i, s := range suggestions {
		quoted[i] = "'" + s.Value + "'"
	}
	return "did you mean one of " + strings.Join(quoted, ", ") + "?"
}

// editDistance is the Levenshtein distance between a and b.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			above := row[j]
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = above
		}
	}
	return row[len(rb)]
}
