package curation

import (
	"fmt"
	"time"
)

// Audit event kinds.
const (
	KindUnmatchedFixture  = "unmatched_fixture"
	KindLowConfidenceLink = "low_confidence_link"
)

// AuditEvent records a reconciliation outcome a human curator should review:
// a fixture whose sides matched no known team family, or a prospect link made
// only at the heuristic tier. Events are append-only; resolving one marks it
// handled without deleting it.
type AuditEvent struct {
	ID           string
	Kind         string
	ScopeKey     string
	DedupKey     string
	RawNames     []string
	Confidence   string
	ProspectID   string
	ResolvedAt   *time.Time
	ResolvedNote string
	CreatedAt    time.Time
}

func (e AuditEvent) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("audit event id is required")
	}
	if e.Kind != KindUnmatchedFixture && e.Kind != KindLowConfidenceLink {
		return fmt.Errorf("invalid audit event kind: %s", e.Kind)
	}
	if e.ScopeKey == "" {
		return fmt.Errorf("audit event scope key is required")
	}
	if len(e.RawNames) == 0 {
		return fmt.Errorf("audit event raw names are required")
	}

	return nil
}

func (e AuditEvent) Resolved() bool {
	return e.ResolvedAt != nil
}
