package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/draftradar/tipoff/internal/domain/identity"
)

func testFamilyOf() func(string) string {
	cfg := identity.DefaultConfig()
	return func(name string) string {
		return identity.FamilyKey(identity.Normalize(name, cfg), cfg)
	}
}

func intPtr(v int) *int { return &v }

func TestMergeCollapsesProvidersIntoOneFixture(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "probasket", NativeID: "pb-9", LeagueID: "lnb-proa", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff},
		{Provider: "leaguesites", NativeID: "ls-40", LeagueID: "lnb-proa", HomeName: "LDLC ASVEL", AwayName: "Paris Basketball", TipoffUTC: tipoff},
		{Provider: "collegefeed", NativeID: "cf-17", LeagueID: "lnb-proa", HomeName: "Lyon-Villeurbanne", AwayName: "Paris", TipoffUTC: tipoff},
	}

	now := time.Date(2025, 11, 14, 12, 0, 0, 0, time.UTC)
	got := Merge(records, testFamilyOf(), nil, now)

	require.Len(t, got, 1, "three reports of one real game must merge")
	fx := got[0]
	require.Equal(t, "2025-11-14|asvel|paris", fx.DedupKey)
	require.Equal(t, "asvel", fx.HomeFamilyKey)
	require.Equal(t, "paris", fx.AwayFamilyKey)
	require.Equal(t, now, fx.UpdatedAt)
	require.Equal(t, []Provenance{
		{Provider: "collegefeed", NativeID: "cf-17"},
		{Provider: "leaguesites", NativeID: "ls-40"},
		{Provider: "probasket", NativeID: "pb-9"},
	}, fx.Provenance)
}

func TestMergeIsOrderInsensitive(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "probasket", NativeID: "pb-9", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff, HomeScore: intPtr(81), AwayScore: intPtr(77), Status: "FT"},
		{Provider: "leaguesites", NativeID: "ls-40", HomeName: "LDLC ASVEL", AwayName: "Paris Basketball", TipoffUTC: tipoff, Status: "SCHEDULED"},
		{Provider: "collegefeed", NativeID: "cf-17", HomeName: "Lyon-Villeurbanne", AwayName: "Paris", TipoffUTC: tipoff},
	}
	reversed := []RawFixture{records[2], records[1], records[0]}

	now := time.Unix(0, 0).UTC()
	live := func(provider string) bool { return provider == "probasket" }

	require.Equal(t, Merge(records, testFamilyOf(), live, now), Merge(reversed, testFamilyOf(), live, now))
}

func TestMergePrefersLiveCapableOnConflict(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "leaguesites", NativeID: "ls-1", HomeName: "Valencia Basket", AwayName: "Joventut Badalona", TipoffUTC: tipoff, HomeScore: intPtr(70), AwayScore: intPtr(70), Status: "FT"},
		{Provider: "probasket", NativeID: "pb-1", HomeName: "Valencia Basket", AwayName: "Joventut Badalona", TipoffUTC: tipoff, HomeScore: intPtr(74), AwayScore: intPtr(71), Status: "Q4"},
	}
	live := func(provider string) bool { return provider == "probasket" }

	got := Merge(records, testFamilyOf(), live, time.Unix(0, 0).UTC())

	require.Len(t, got, 1)
	require.Equal(t, 74, *got[0].HomeScore)
	require.Equal(t, 71, *got[0].AwayScore)
	require.Equal(t, StatusLive, got[0].Status)
}

func TestMergeEmptyStatusNeverBlocksRealStatus(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "a-first", NativeID: "1", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff},
		{Provider: "b-second", NativeID: "2", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff, Status: "FT"},
	}

	got := Merge(records, testFamilyOf(), nil, time.Unix(0, 0).UTC())

	require.Len(t, got, 1)
	require.Equal(t, StatusFinal, got[0].Status, "a silent provider must not pin the status at scheduled")

	silent := Merge(records[:1], testFamilyOf(), nil, time.Unix(0, 0).UTC())
	require.Equal(t, StatusScheduled, silent[0].Status, "no status report defaults to scheduled")
}

func TestMergeAlignsFlippedSides(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "a-first", NativeID: "1", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff},
		{Provider: "b-second", NativeID: "2", HomeName: "Paris", AwayName: "ASVEL", TipoffUTC: tipoff, HomeScore: intPtr(90), AwayScore: intPtr(84)},
	}

	got := Merge(records, testFamilyOf(), nil, time.Unix(0, 0).UTC())

	require.Len(t, got, 1)
	require.Equal(t, "asvel", got[0].HomeFamilyKey)
	require.Equal(t, 84, *got[0].HomeScore, "flipped report's away score belongs to the home side")
	require.Equal(t, 90, *got[0].AwayScore)
}

func TestMergeUnionsMissingFields(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "a-first", NativeID: "1", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff},
		{Provider: "b-second", NativeID: "2", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff, VenueOffsetMin: 60, HomeScore: intPtr(62), AwayScore: intPtr(55)},
	}

	got := Merge(records, testFamilyOf(), nil, time.Unix(0, 0).UTC())

	require.Len(t, got, 1)
	require.Equal(t, 60, got[0].VenueOffsetMin)
	require.Equal(t, 62, *got[0].HomeScore)
	require.Equal(t, 55, *got[0].AwayScore)
}

func TestMergeSkipsMalformedRecords(t *testing.T) {
	t.Parallel()

	tipoff := time.Date(2025, 11, 14, 19, 30, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "a", NativeID: "1", HomeName: "", AwayName: "Paris", TipoffUTC: tipoff},
		{Provider: "a", NativeID: "2", HomeName: "ASVEL", AwayName: "Paris"},
		{Provider: "a", NativeID: "3", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: tipoff},
	}

	got := Merge(records, testFamilyOf(), nil, time.Unix(0, 0).UTC())

	require.Len(t, got, 1)
	require.Equal(t, []Provenance{{Provider: "a", NativeID: "3"}}, got[0].Provenance)
}

func TestMergeSortsByTipoffThenDedupKey(t *testing.T) {
	t.Parallel()

	day := time.Date(2025, 11, 14, 0, 0, 0, 0, time.UTC)
	records := []RawFixture{
		{Provider: "a", NativeID: "1", HomeName: "Valencia Basket", AwayName: "Joventut Badalona", TipoffUTC: day.Add(21 * time.Hour)},
		{Provider: "a", NativeID: "2", HomeName: "ASVEL", AwayName: "Paris", TipoffUTC: day.Add(19 * time.Hour)},
		{Provider: "a", NativeID: "3", HomeName: "Barca", AwayName: "Real Madrid", TipoffUTC: day.Add(19 * time.Hour)},
	}

	got := Merge(records, testFamilyOf(), nil, time.Unix(0, 0).UTC())

	require.Len(t, got, 3)
	require.Equal(t, "asvel", got[0].HomeFamilyKey)
	require.Equal(t, "barcelona", got[1].HomeFamilyKey, "tipoff tie breaks on dedup key")
	require.Equal(t, "valencia basket", got[2].HomeFamilyKey)
}
