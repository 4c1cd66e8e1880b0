package usecase

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/draftradar/tipoff/internal/domain/schedule"
)

// Snapshot payloads are whole reconciled fixture lists. The cache stores
// opaque bytes; this codec is the only place the wire shape lives.

type snapshotFixture struct {
	DedupKey       string           `json:"dedup_key"`
	LeagueID       string           `json:"league_id"`
	TipoffUTC      time.Time        `json:"tipoff_utc"`
	VenueOffsetMin int              `json:"venue_offset_min"`
	HomeFamilyKey  string           `json:"home_family_key"`
	AwayFamilyKey  string           `json:"away_family_key"`
	HomeName       string           `json:"home_name"`
	AwayName       string           `json:"away_name"`
	HomeScore      *int             `json:"home_score,omitempty"`
	AwayScore      *int             `json:"away_score,omitempty"`
	Status         string           `json:"status"`
	Provenance     []snapshotSource `json:"provenance"`
	Links          []snapshotLink   `json:"links,omitempty"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type snapshotSource struct {
	Provider string `json:"provider"`
	NativeID string `json:"native_id"`
}

type snapshotLink struct {
	ProspectID    string `json:"prospect_id"`
	Side          string `json:"side"`
	Confidence    string `json:"confidence"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

func encodeScheduleSnapshot(fixtures []schedule.Fixture) ([]byte, error) {
	rows := make([]snapshotFixture, 0, len(fixtures))
	for _, fx := range fixtures {
		row := snapshotFixture{
			DedupKey:       fx.DedupKey,
			LeagueID:       fx.LeagueID,
			TipoffUTC:      fx.TipoffUTC,
			VenueOffsetMin: fx.VenueOffsetMin,
			HomeFamilyKey:  fx.HomeFamilyKey,
			AwayFamilyKey:  fx.AwayFamilyKey,
			HomeName:       fx.HomeName,
			AwayName:       fx.AwayName,
			HomeScore:      fx.HomeScore,
			AwayScore:      fx.AwayScore,
			Status:         fx.Status,
			Provenance:     make([]snapshotSource, 0, len(fx.Provenance)),
			UpdatedAt:      fx.UpdatedAt,
		}
		for _, src := range fx.Provenance {
			row.Provenance = append(row.Provenance, snapshotSource{
				Provider: src.Provider,
				NativeID: src.NativeID,
			})
		}
		for _, link := range fx.Links {
			row.Links = append(row.Links, snapshotLink{
				ProspectID:    link.ProspectID,
				Side:          link.Side,
				Confidence:    link.Confidence,
				LowConfidence: link.LowConfidence,
			})
		}
		rows = append(rows, row)
	}

	payload, err := sonic.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("encode schedule snapshot: %w", err)
	}
	return payload, nil
}

func decodeScheduleSnapshot(payload []byte) ([]schedule.Fixture, error) {
	var rows []snapshotFixture
	if err := sonic.Unmarshal(payload, &rows); err != nil {
		return nil, fmt.Errorf("decode schedule snapshot: %w", err)
	}

	fixtures := make([]schedule.Fixture, 0, len(rows))
	for _, row := range rows {
		fx := schedule.Fixture{
			DedupKey:       row.DedupKey,
			LeagueID:       row.LeagueID,
			TipoffUTC:      row.TipoffUTC,
			VenueOffsetMin: row.VenueOffsetMin,
			HomeFamilyKey:  row.HomeFamilyKey,
			AwayFamilyKey:  row.AwayFamilyKey,
			HomeName:       row.HomeName,
			AwayName:       row.AwayName,
			HomeScore:      row.HomeScore,
			AwayScore:      row.AwayScore,
			Status:         row.Status,
			UpdatedAt:      row.UpdatedAt,
		}
		for _, src := range row.Provenance {
			fx.Provenance = append(fx.Provenance, schedule.Provenance{
				Provider: src.Provider,
				NativeID: src.NativeID,
			})
		}
		for _, link := range row.Links {
			fx.Links = append(fx.Links, schedule.ProspectLink{
				ProspectID:    link.ProspectID,
				Side:          link.Side,
				Confidence:    link.Confidence,
				LowConfidence: link.LowConfidence,
			})
		}
		fixtures = append(fixtures, fx)
	}
	return fixtures, nil
}
