package usecase

import (
	"context"
	"time"

	"github.com/draftradar/tipoff/internal/domain/schedule"
)

// FetchRequest asks an adapter for the fixtures of one league (or one team
// within a league) over a date window. TeamExternalID is the provider-native
// team ID and is empty for league-wide requests.
type FetchRequest struct {
	LeagueID       string
	TeamExternalID string
	Season         string
	From           time.Time
	To             time.Time
}

// FetchResult carries whatever the adapter could parse. Malformed upstream
// records are skipped and counted, never fail the batch.
type FetchResult struct {
	Fixtures       []schedule.RawFixture
	SkippedRecords int
}

// SourceAdapter is one upstream schedule source. Implementations live in
// external/ and own their transport, retries and circuit breaker;
// callers own concurrency limits and per-call timeouts.
type SourceAdapter interface {
	Name() string
	LiveCapable() bool
	Covers(leagueID string) bool
	FetchFixtures(ctx context.Context, req FetchRequest) (FetchResult, error)
}
