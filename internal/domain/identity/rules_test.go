package identity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "lowercases and trims", raw: "  LDLC ASVEL  ", want: "ldlc asvel"},
		{name: "strips diacritics", raw: "Čedevita Olimpija", want: "cedevita olimpija"},
		{name: "punctuation becomes word break", raw: "Lyon-Villeurbanne", want: "lyon villeurbanne"},
		{name: "drops suffix token", raw: "Paris Basketball", want: "paris"},
		{name: "drops sponsor token", raw: "Fenerbahçe Beko", want: "fenerbahce"},
		{name: "drops club prefix token", raw: "KK Crvena Zvezda", want: "crvena zvezda"},
		{name: "keeps basket", raw: "Valencia Basket", want: "valencia basket"},
		{name: "keeps fc", raw: "FC Barcelona", want: "fc barcelona"},
		{name: "all tokens keeps cleaned form", raw: "BC KK", want: "bc kk"},
		{name: "collapses whitespace", raw: "Joventut   Badalona", want: "joventut badalona"},
		{name: "empty input", raw: "   ", want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Normalize(tc.raw, cfg))
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	inputs := []string{
		"Čedevita Olimpija",
		"LDLC ASVEL",
		"Paris Basketball",
		"Valencia Basket",
		"AX Armani Exchange Milan",
		"BC KK",
	}

	for _, raw := range inputs {
		once := Normalize(raw, cfg)
		require.Equal(t, once, Normalize(once, cfg), "normalize must be idempotent for %q", raw)
	}
}

func TestNormalizeDiacriticAndCaseInsensitive(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.Equal(t, Normalize("cedevita olimpija", cfg), Normalize("Čedevita Olimpija", cfg))
}

func TestFamilyKey(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	require.Equal(t, "asvel", FamilyKey("lyon villeurbanne", cfg))
	require.Equal(t, "barcelona", FamilyKey("barca", cfg))
	require.Equal(t, "saint quentin", FamilyKey("saint quentin", cfg), "unknown keys resolve to themselves")
}

func TestMatchTeams(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	tests := []struct {
		name  string
		nameA string
		nameB string
		want  MatchResult
	}{
		{
			name:  "identical names",
			nameA: "ASVEL",
			nameB: "ASVEL",
			want:  MatchResult{Matched: true, Confidence: ConfidenceExact},
		},
		{
			name:  "suffix token stripped to same key",
			nameA: "Paris",
			nameB: "Paris Basketball",
			want:  MatchResult{Matched: true, Confidence: ConfidenceExact},
		},
		{
			name:  "alias table family",
			nameA: "FC Barcelona",
			nameB: "Barca",
			want:  MatchResult{Matched: true, Confidence: ConfidenceAlias},
		},
		{
			name:  "renamed club alias",
			nameA: "ASVEL",
			nameB: "Lyon-Villeurbanne",
			want:  MatchResult{Matched: true, Confidence: ConfidenceAlias},
		},
		{
			name:  "substring containment",
			nameA: "Valencia",
			nameB: "Valencia Basket",
			want:  MatchResult{Matched: true, Confidence: ConfidenceHeuristic},
		},
		{
			name:  "unrelated names",
			nameA: "Real Madrid",
			nameB: "Olimpia Milano",
			want:  MatchResult{},
		},
		{
			name:  "short key never matches heuristically",
			nameA: "ASV",
			nameB: "ASVEL",
			want:  MatchResult{},
		},
		{
			name:  "empty name",
			nameA: "",
			nameB: "ASVEL",
			want:  MatchResult{},
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, MatchTeams(tc.nameA, tc.nameB, cfg))
		})
	}
}

func TestMatchTeamsSymmetric(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	pairs := [][2]string{
		{"ASVEL", "Lyon-Villeurbanne"},
		{"FC Barcelona", "Barca"},
		{"Valencia", "Valencia Basket"},
		{"Paris", "Paris Basketball"},
		{"Real Madrid", "Olimpia Milano"},
		{"", "ASVEL"},
	}

	for _, pair := range pairs {
		forward := MatchTeams(pair[0], pair[1], cfg)
		backward := MatchTeams(pair[1], pair[0], cfg)
		require.Equal(t, forward, backward, "match must be symmetric for %q / %q", pair[0], pair[1])
	}
}

func TestMatchTeamsAliasConflictVetoesHeuristic(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Aliases = MergeAliases(cfg.Aliases, map[string]string{
		"madrid":             "real madrid",
		"estudiantes madrid": "estudiantes",
	})

	// Containment holds, but the table places the keys in different
	// families, so the heuristic tier must not fire.
	got := MatchTeams("Madrid", "Estudiantes Madrid", cfg)
	require.Equal(t, MatchResult{}, got)
}

func TestMatchTeamsHeuristicMinLenConfigurable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.HeuristicMinLen = 9

	require.Equal(t, MatchResult{}, MatchTeams("Valencia", "Valencia Basket", cfg))

	cfg.HeuristicMinLen = 0 // falls back to the default guard
	require.Equal(t,
		MatchResult{Matched: true, Confidence: ConfidenceHeuristic},
		MatchTeams("Valencia", "Valencia Basket", cfg),
	)
}

func TestNormalizeAliasTable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	raw := map[string]string{
		"Lyon-Villeurbanne": "ASVEL",
		"Paris Basketball":  "Paris", // both sides normalize to the same key
		"":                  "asvel",
	}

	got := NormalizeAliasTable(raw, cfg)
	require.Equal(t, map[string]string{"lyon villeurbanne": "asvel"}, got)
}

func TestMergeAliases(t *testing.T) {
	t.Parallel()

	base := map[string]string{"barca": "barcelona"}
	extra := map[string]string{"barca": "fc barcelona", "penya": "joventut badalona"}

	got := MergeAliases(base, extra)
	require.Equal(t, "fc barcelona", got["barca"], "overlay wins")
	require.Equal(t, "joventut badalona", got["penya"])
	require.Equal(t, "barcelona", base["barca"], "base must not be mutated")
}
