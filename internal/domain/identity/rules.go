package identity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultHeuristicMinLen guards the substring tier against short, generic
// keys ("bc", "ax") that would match almost anything.
const DefaultHeuristicMinLen = 4

// Config carries the resolver's matching parameters. It is built once at
// startup and passed in explicitly; resolution never consults mutable
// package state.
type Config struct {
	// Aliases maps canonical keys onto family keys. Values are family keys
	// as-is and are not resolved further.
	Aliases map[string]string
	// StripTokens are corporate/club suffix and sponsor words dropped during
	// normalization.
	StripTokens map[string]struct{}
	// HeuristicMinLen is the minimum canonical-key length for the substring
	// tier; keys shorter than this never match heuristically.
	HeuristicMinLen int
}

func DefaultConfig() Config {
	return Config{
		Aliases:         DefaultAliases(),
		StripTokens:     DefaultStripTokens(),
		HeuristicMinLen: DefaultHeuristicMinLen,
	}
}

// DefaultStripTokens returns the built-in suffix/sponsor token set.
// "basket" is deliberately absent: club names like "Valencia Basket" must
// keep it so they stay distinguishable from their city name.
func DefaultStripTokens() map[string]struct{} {
	tokens := []string{
		"basketball",
		"club",
		"bc",
		"cb",
		"kk",
		"bk",
		"sad",
		"beko",
		"fox",
		"ax",
	}

	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

// Normalize derives the canonical key for a raw team name: lowercase, strip
// diacritics, replace punctuation with spaces, drop known suffix tokens and
// collapse whitespace. It is idempotent. Token stripping never empties a
// name: when every word is a strip token the cleaned unstripped form is kept.
func Normalize(raw string, cfg Config) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	cleaned := stripPunctuation(stripDiacritics(lowered))
	words := strings.Fields(cleaned)
	if len(words) == 0 {
		return ""
	}

	kept := make([]string, 0, len(words))
	for _, word := range words {
		if _, skip := cfg.StripTokens[word]; skip {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		kept = words
	}

	return strings.Join(kept, " ")
}

// FamilyKey resolves a canonical key to its team-family key via the alias
// table. Unknown keys resolve to themselves.
func FamilyKey(canonicalKey string, cfg Config) string {
	if family, ok := cfg.Aliases[canonicalKey]; ok && family != "" {
		return family
	}
	return canonicalKey
}

// MatchTeams decides whether two raw team names refer to the same team.
// EXACT when canonical keys are equal, ALIAS when family keys are equal,
// HEURISTIC when one key contains the other, both keys meet the minimum
// length and the alias table does not place them in different families.
// The result is symmetric in its arguments.
func MatchTeams(nameA, nameB string, cfg Config) MatchResult {
	keyA := Normalize(nameA, cfg)
	keyB := Normalize(nameB, cfg)
	if keyA == "" || keyB == "" {
		return MatchResult{}
	}

	if keyA == keyB {
		return MatchResult{Matched: true, Confidence: ConfidenceExact}
	}
	if FamilyKey(keyA, cfg) == FamilyKey(keyB, cfg) {
		return MatchResult{Matched: true, Confidence: ConfidenceAlias}
	}

	minLen := cfg.HeuristicMinLen
	if minLen <= 0 {
		minLen = DefaultHeuristicMinLen
	}
	if len(keyA) < minLen || len(keyB) < minLen {
		return MatchResult{}
	}
	if !strings.Contains(keyA, keyB) && !strings.Contains(keyB, keyA) {
		return MatchResult{}
	}
	if aliasConflict(keyA, keyB, cfg) {
		return MatchResult{}
	}

	return MatchResult{Matched: true, Confidence: ConfidenceHeuristic}
}

// aliasConflict reports whether both keys carry explicit alias entries that
// point at different families. A key missing from the table is unknown, not
// conflicting.
func aliasConflict(keyA, keyB string, cfg Config) bool {
	familyA, okA := cfg.Aliases[keyA]
	familyB, okB := cfg.Aliases[keyB]
	return okA && okB && familyA != familyB
}

func stripDiacritics(value string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, value)
	if err != nil {
		return value
	}
	return out
}

func stripPunctuation(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return b.String()
}
