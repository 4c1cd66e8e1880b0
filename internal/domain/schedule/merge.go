package schedule

import (
	"sort"
	"strings"
	"time"
)

// Merge folds provider-native records into reconciled fixtures. Records
// sharing a dedup key become one fixture: fields are unioned, and on a
// score/status disagreement the record from a live-capable provider wins.
// The fold is deterministic for a given record set: inputs are sorted by
// (provider, native id) before folding, so network arrival order never
// changes the result.
//
// familyOf resolves a raw team name to its family key; liveCapable reports
// whether a provider pushes live score updates.
func Merge(records []RawFixture, familyOf func(rawName string) string, liveCapable func(provider string) bool, now time.Time) []Fixture {
	sorted := make([]RawFixture, 0, len(records))
	for _, rec := range records {
		if rec.HomeName == "" || rec.AwayName == "" || rec.TipoffUTC.IsZero() {
			continue
		}
		sorted = append(sorted, rec)
	}
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Provider != sorted[j].Provider {
			return sorted[i].Provider < sorted[j].Provider
		}
		return sorted[i].NativeID < sorted[j].NativeID
	})

	folds := make(map[string]*fold, len(sorted))
	for _, rec := range sorted {
		homeFamily := familyOf(rec.HomeName)
		awayFamily := familyOf(rec.AwayName)
		key := DedupKey(rec.TipoffUTC, homeFamily, awayFamily)
		class := classOf(rec.Provider, liveCapable)

		f, ok := folds[key]
		if !ok {
			f = &fold{fx: Fixture{
				DedupKey:       key,
				LeagueID:       rec.LeagueID,
				TipoffUTC:      rec.TipoffUTC.UTC(),
				VenueOffsetMin: rec.VenueOffsetMin,
				HomeFamilyKey:  homeFamily,
				AwayFamilyKey:  awayFamily,
				HomeName:       rec.HomeName,
				AwayName:       rec.AwayName,
				Status:         StatusScheduled,
				UpdatedAt:      now,
			}}
			folds[key] = f
			f.addProvenance(rec)
			f.applyScore(rec, false, class)
			f.applyStatus(rec, class)
			continue
		}

		// A provider may report the sides flipped; align scores to the
		// orientation the first record established.
		flipped := homeFamily == f.fx.AwayFamilyKey && homeFamily != f.fx.HomeFamilyKey

		f.addProvenance(rec)
		f.applyScore(rec, flipped, class)
		f.applyStatus(rec, class)
		if f.fx.VenueOffsetMin == 0 && rec.VenueOffsetMin != 0 {
			f.fx.VenueOffsetMin = rec.VenueOffsetMin
		}
	}

	out := make([]Fixture, 0, len(folds))
	for _, f := range folds {
		sort.Slice(f.fx.Provenance, func(i, j int) bool {
			if f.fx.Provenance[i].Provider != f.fx.Provenance[j].Provider {
				return f.fx.Provenance[i].Provider < f.fx.Provenance[j].Provider
			}
			return f.fx.Provenance[i].NativeID < f.fx.Provenance[j].NativeID
		})
		out = append(out, f.fx)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].TipoffUTC.Equal(out[j].TipoffUTC) {
			return out[i].TipoffUTC.Before(out[j].TipoffUTC)
		}
		return out[i].DedupKey < out[j].DedupKey
	})

	return out
}

// fold accumulates one fixture. scoreClass and statusClass remember how
// trusted the current values are: 0 unset, 1 set by a plain provider,
// 2 set by a live-capable provider.
type fold struct {
	fx          Fixture
	scoreClass  int
	statusClass int
}

func classOf(provider string, liveCapable func(string) bool) int {
	if liveCapable != nil && liveCapable(provider) {
		return 2
	}
	return 1
}

func (f *fold) addProvenance(rec RawFixture) {
	for _, p := range f.fx.Provenance {
		if p.Provider == rec.Provider && p.NativeID == rec.NativeID {
			return
		}
	}
	f.fx.Provenance = append(f.fx.Provenance, Provenance{Provider: rec.Provider, NativeID: rec.NativeID})
}

func (f *fold) applyScore(rec RawFixture, flipped bool, class int) {
	home, away := rec.HomeScore, rec.AwayScore
	if flipped {
		home, away = away, home
	}
	if home == nil && away == nil {
		return
	}

	if class > f.scoreClass {
		f.fx.HomeScore = copyScore(home)
		f.fx.AwayScore = copyScore(away)
		f.scoreClass = class
		return
	}
	if class == f.scoreClass {
		if f.fx.HomeScore == nil {
			f.fx.HomeScore = copyScore(home)
		}
		if f.fx.AwayScore == nil {
			f.fx.AwayScore = copyScore(away)
		}
	}
}

// applyStatus ignores records that report no status at all, so a silent
// provider never blocks a later same-class provider's real report.
func (f *fold) applyStatus(rec RawFixture, class int) {
	if strings.TrimSpace(rec.Status) == "" {
		return
	}
	if class > f.statusClass {
		f.fx.Status = NormalizeStatus(rec.Status)
		f.statusClass = class
	}
}

func copyScore(score *int) *int {
	if score == nil {
		return nil
	}
	v := *score
	return &v
}
