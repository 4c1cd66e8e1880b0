package httpapi

import (
	"net/http"
	"time"

	"github.com/draftradar/tipoff/internal/domain/league"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/usecase"
)

func (h *Handler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagues")
	defer span.End()

	leagues, err := h.leagueService.ListLeagues(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list leagues failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]leagueDTO, 0, len(leagues))
	for _, l := range leagues {
		items = append(items, leagueToDTO(l))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// ListLeagueFixtures serves one league's games for one calendar day from the
// snapshot cache.
func (h *Handler) ListLeagueFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListLeagueFixtures")
	defer span.End()

	leagueID := r.PathValue("leagueID")
	if _, err := h.leagueService.GetLeague(ctx, leagueID); err != nil {
		writeError(ctx, w, err)
		return
	}

	date, err := parseDateParam(r, "date", true)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.scheduleQuery.Query(ctx, schedule.LeagueDay(leagueID, date))
	if err != nil {
		h.logger.WarnContext(ctx, "league fixtures query failed", "league_id", leagueID, "date", date, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.scheduleViewToDTO(view))
}

// ListTeamFixtures serves one team family's games over a date window. The
// family key must be a known identity; resolving raw names happens on
// /v1/teams/resolve.
func (h *Handler) ListTeamFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeamFixtures")
	defer span.End()

	familyKey := r.PathValue("familyKey")
	team, err := h.identityService.GetTeam(ctx, familyKey)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	from, to, err := h.parseWindowParams(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.scheduleQuery.Query(ctx, schedule.TeamWindow(team.FamilyKey, from, to))
	if err != nil {
		h.logger.WarnContext(ctx, "team fixtures query failed", "family_key", team.FamilyKey, "error", err)
		writeError(ctx, w, err)
		return
	}

	dto := h.scheduleViewToDTO(view)
	dto.Team = identityToDTOPtr(team)
	writeSuccess(ctx, w, http.StatusOK, dto)
}

type leagueDTO struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	CountryCode string   `json:"country_code"`
	Season      string   `json:"season"`
	VenueTZ     string   `json:"venue_tz"`
	Providers   []string `json:"providers"`
}

type scheduleViewDTO struct {
	ScopeKey        string       `json:"scope_key"`
	FetchedAt       time.Time    `json:"fetched_at"`
	Stale           bool         `json:"stale"`
	DisplayTimezone string       `json:"display_timezone"`
	Team            *identityDTO `json:"team,omitempty"`
	Fixtures        []fixtureDTO `json:"fixtures"`
}

type fixtureDTO struct {
	DedupKey         string           `json:"dedup_key"`
	LeagueID         string           `json:"league_id"`
	TipoffUTC        string           `json:"tipoff_utc"`
	TipoffVenueLocal string           `json:"tipoff_venue_local"`
	TipoffDisplay    string           `json:"tipoff_display"`
	Status           string           `json:"status"`
	Home             fixtureSideDTO   `json:"home"`
	Away             fixtureSideDTO   `json:"away"`
	Provenance       []provenanceDTO  `json:"provenance"`
	Links            []prospectRefDTO `json:"prospect_links,omitempty"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

type fixtureSideDTO struct {
	FamilyKey string `json:"family_key"`
	Name      string `json:"name"`
	Score     *int   `json:"score,omitempty"`
}

type provenanceDTO struct {
	Provider string `json:"provider"`
	NativeID string `json:"native_id"`
}

type prospectRefDTO struct {
	ProspectID    string `json:"prospect_id"`
	Side          string `json:"side"`
	Confidence    string `json:"confidence"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

func leagueToDTO(v league.League) leagueDTO {
	providers := v.Providers
	if providers == nil {
		providers = []string{}
	}

	return leagueDTO{
		ID:          v.ID,
		Name:        v.Name,
		CountryCode: v.CountryCode,
		Season:      v.Season,
		VenueTZ:     v.VenueTZ,
		Providers:   providers,
	}
}

func (h *Handler) scheduleViewToDTO(view usecase.ScheduleView) scheduleViewDTO {
	fixtures := make([]fixtureDTO, 0, len(view.Fixtures))
	for _, fx := range view.Fixtures {
		fixtures = append(fixtures, h.fixtureToDTO(fx))
	}

	return scheduleViewDTO{
		ScopeKey:        view.ScopeKey,
		FetchedAt:       view.FetchedAt,
		Stale:           view.Stale,
		DisplayTimezone: h.displayTZ.String(),
		Fixtures:        fixtures,
	}
}

// fixtureToDTO renders the tipoff three ways: UTC for machines, venue-local
// using the offset the providers reported, and the operator's display zone.
func (h *Handler) fixtureToDTO(fx schedule.Fixture) fixtureDTO {
	provenance := make([]provenanceDTO, 0, len(fx.Provenance))
	for _, p := range fx.Provenance {
		provenance = append(provenance, provenanceDTO{Provider: p.Provider, NativeID: p.NativeID})
	}

	var links []prospectRefDTO
	for _, link := range fx.Links {
		links = append(links, prospectRefDTO{
			ProspectID:    link.ProspectID,
			Side:          link.Side,
			Confidence:    link.Confidence,
			LowConfidence: link.LowConfidence,
		})
	}

	return fixtureDTO{
		DedupKey:         fx.DedupKey,
		LeagueID:         fx.LeagueID,
		TipoffUTC:        fx.TipoffUTC.UTC().Format(time.RFC3339),
		TipoffVenueLocal: fx.VenueLocal().Format(time.RFC3339),
		TipoffDisplay:    fx.TipoffUTC.In(h.displayTZ).Format(time.RFC3339),
		Status:           fx.Status,
		Home:             fixtureSideDTO{FamilyKey: fx.HomeFamilyKey, Name: fx.HomeName, Score: fx.HomeScore},
		Away:             fixtureSideDTO{FamilyKey: fx.AwayFamilyKey, Name: fx.AwayName, Score: fx.AwayScore},
		Provenance:       provenance,
		Links:            links,
		UpdatedAt:        fx.UpdatedAt,
	}
}
