package identity

import "fmt"

// Match confidence tiers, ordered from strongest to weakest.
type Confidence string

const (
	ConfidenceExact     Confidence = "EXACT"
	ConfidenceAlias     Confidence = "ALIAS"
	ConfidenceHeuristic Confidence = "HEURISTIC"
)

// MatchResult reports whether two raw team names refer to the same team
// and at which confidence tier the decision was made.
type MatchResult struct {
	Matched    bool
	Confidence Confidence
}

// TeamIdentity is a resolved real-world team. Identities grow append-only:
// new aliases, external IDs and league memberships are added as providers
// are observed, but an identity is never deleted.
type TeamIdentity struct {
	FamilyKey   string
	DisplayName string
	LogoURL     string
	Aliases     []string
	ExternalIDs map[string]string
	Leagues     []string
}

func (t TeamIdentity) Validate() error {
	if t.FamilyKey == "" {
		return fmt.Errorf("team identity family key is required")
	}
	if t.DisplayName == "" {
		return fmt.Errorf("team identity display name is required")
	}

	return nil
}

func (t TeamIdentity) HasAlias(canonicalKey string) bool {
	for _, alias := range t.Aliases {
		if alias == canonicalKey {
			return true
		}
	}
	return false
}

func (t TeamIdentity) HasLeague(leagueID string) bool {
	for _, id := range t.Leagues {
		if id == leagueID {
			return true
		}
	}
	return false
}

func (t TeamIdentity) ExternalID(provider string) (string, bool) {
	if t.ExternalIDs == nil {
		return "", false
	}
	id, ok := t.ExternalIDs[provider]
	return id, ok
}
