package schedule

import (
	"strings"
	"time"
)

const (
	StatusScheduled = "SCHEDULED"
	StatusLive      = "LIVE"
	StatusFinal     = "FINAL"
)

const (
	SideHome = "home"
	SideAway = "away"
)

// DateKeyLayout formats the UTC calendar date used in dedup and cache keys.
const DateKeyLayout = "2006-01-02"

// Fixture is one reconciled real-world game. The dedup key identifies the
// game regardless of how many providers reported it.
type Fixture struct {
	DedupKey       string
	LeagueID       string
	TipoffUTC      time.Time
	VenueOffsetMin int
	HomeFamilyKey  string
	AwayFamilyKey  string
	HomeName       string
	AwayName       string
	HomeScore      *int
	AwayScore      *int
	Status         string
	Provenance     []Provenance
	Links          []ProspectLink
	UpdatedAt      time.Time
}

// VenueLocal returns the tipoff in the venue's local time using the
// preserved UTC offset.
func (f Fixture) VenueLocal() time.Time {
	return f.TipoffUTC.In(time.FixedZone("venue", f.VenueOffsetMin*60))
}

// Provenance records one upstream report of a fixture.
type Provenance struct {
	Provider string
	NativeID string
}

// ProspectLink attaches a prospect to one side of a fixture. Links made at
// the heuristic tier carry the low-confidence flag for later audit.
type ProspectLink struct {
	ProspectID    string
	Side          string
	Confidence    string
	LowConfidence bool
}

// RawFixture is a provider-native record before reconciliation.
type RawFixture struct {
	Provider       string
	NativeID       string
	LeagueID       string
	HomeName       string
	AwayName       string
	TipoffUTC      time.Time
	VenueOffsetMin int
	HomeScore      *int
	AwayScore      *int
	Status         string
}

func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}

// DedupKey builds the identifier that collapses multiple providers' reports
// of the same game: UTC date plus the unordered pair of family keys.
func DedupKey(tipoffUTC time.Time, familyKeyA, familyKeyB string) string {
	first, second := familyKeyA, familyKeyB
	if second < first {
		first, second = second, first
	}
	return DateKey(tipoffUTC) + "|" + first + "|" + second
}

// NormalizeStatus maps a provider-native status onto the engine's
// three-state taxonomy. Unknown values (including postponements and
// cancellations) are treated as scheduled.
func NormalizeStatus(value string) string {
	status := strings.ToUpper(strings.TrimSpace(value))
	switch {
	case isLive(status):
		return StatusLive
	case isFinal(status):
		return StatusFinal
	default:
		return StatusScheduled
	}
}

func IsLiveStatus(value string) bool {
	return NormalizeStatus(value) == StatusLive
}

func IsFinalStatus(value string) bool {
	return NormalizeStatus(value) == StatusFinal
}

func isLive(status string) bool {
	switch status {
	case StatusLive, "IN_PLAY", "INPLAY", "IN_PROGRESS", "HT", "HALFTIME",
		"Q1", "Q2", "Q3", "Q4", "OT", "OVERTIME":
		return true
	default:
		return false
	}
}

func isFinal(status string) bool {
	switch status {
	case StatusFinal, "FINISHED", "FT", "ENDED", "CLOSED", "COMPLETE", "AOT":
		return true
	default:
		return false
	}
}
