package schedule

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// ScopeKind distinguishes the two units of caching and refresh.
type ScopeKind string

const (
	ScopeLeagueDay  ScopeKind = "league_day"
	ScopeTeamWindow ScopeKind = "team_window"
)

// Scope is the unit the engine reconciles and caches: one league on one
// calendar day, or one team family over a date window. Dates are inclusive
// UTC calendar days.
type Scope struct {
	Kind      ScopeKind
	LeagueID  string
	FamilyKey string
	From      time.Time
	To        time.Time
}

func LeagueDay(leagueID string, day time.Time) Scope {
	date := day.UTC().Truncate(24 * time.Hour)
	return Scope{Kind: ScopeLeagueDay, LeagueID: leagueID, From: date, To: date}
}

func TeamWindow(familyKey string, from, to time.Time) Scope {
	return Scope{
		Kind:      ScopeTeamWindow,
		FamilyKey: familyKey,
		From:      from.UTC().Truncate(24 * time.Hour),
		To:        to.UTC().Truncate(24 * time.Hour),
	}
}

func (s Scope) Validate() error {
	switch s.Kind {
	case ScopeLeagueDay:
		if s.LeagueID == "" {
			return fmt.Errorf("league-day scope requires a league id")
		}
	case ScopeTeamWindow:
		if s.FamilyKey == "" {
			return fmt.Errorf("team-window scope requires a family key")
		}
	default:
		return fmt.Errorf("unknown scope kind %q", s.Kind)
	}
	if s.From.IsZero() || s.To.IsZero() {
		return fmt.Errorf("scope date range is required")
	}
	if s.To.Before(s.From) {
		return fmt.Errorf("scope date range is inverted")
	}

	return nil
}

// Identifier returns the league id or family key the scope targets.
func (s Scope) Identifier() string {
	if s.Kind == ScopeLeagueDay {
		return s.LeagueID
	}
	return s.FamilyKey
}

// Key builds the cache key for this scope and source set. Keys are stable:
// the provider set is deduplicated and sorted so the same scope always maps
// to the same entry regardless of adapter registration order.
func (s Scope) Key(providers []string) string {
	return strings.Join([]string{
		string(s.Kind),
		s.Identifier(),
		DateKey(s.From),
		DateKey(s.To),
		joinSourceSet(providers),
	}, "|")
}

// ParseScopeKey reverses Scope.Key. It returns the scope and the source set
// the key was built with.
func ParseScopeKey(key string) (Scope, []string, error) {
	parts := strings.Split(key, "|")
	if len(parts) != 5 {
		return Scope{}, nil, fmt.Errorf("malformed scope key %q", key)
	}

	from, err := time.ParseInLocation(DateKeyLayout, parts[2], time.UTC)
	if err != nil {
		return Scope{}, nil, fmt.Errorf("malformed scope key %q: %w", key, err)
	}
	to, err := time.ParseInLocation(DateKeyLayout, parts[3], time.UTC)
	if err != nil {
		return Scope{}, nil, fmt.Errorf("malformed scope key %q: %w", key, err)
	}

	scope := Scope{Kind: ScopeKind(parts[0]), From: from, To: to}
	switch scope.Kind {
	case ScopeLeagueDay:
		scope.LeagueID = parts[1]
	case ScopeTeamWindow:
		scope.FamilyKey = parts[1]
	default:
		return Scope{}, nil, fmt.Errorf("malformed scope key %q: unknown kind", key)
	}
	if err := scope.Validate(); err != nil {
		return Scope{}, nil, fmt.Errorf("malformed scope key %q: %w", key, err)
	}

	var providers []string
	if parts[4] != "" {
		providers = strings.Split(parts[4], "+")
	}
	return scope, providers, nil
}

// Covers reports whether a UTC timestamp falls inside the scope's window.
func (s Scope) Covers(t time.Time) bool {
	day := t.UTC().Truncate(24 * time.Hour)
	return !day.Before(s.From) && !day.After(s.To)
}

func joinSourceSet(providers []string) string {
	if len(providers) == 0 {
		return ""
	}

	unique := make([]string, 0, len(providers))
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Strings(unique)

	return strings.Join(unique, "+")
}
