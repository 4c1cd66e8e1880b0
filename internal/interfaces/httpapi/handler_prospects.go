package httpapi

import (
	"net/http"
	"time"

	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/usecase"
)

func (h *Handler) ListProspects(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListProspects")
	defer span.End()

	prospects, err := h.prospectService.ListTracked(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list prospects failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]prospectDTO, 0, len(prospects))
	for _, p := range prospects {
		items = append(items, prospectToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// GetProspectSchedule answers the product's core question: when does this
// prospect play next, and can the scout trust the link that put them there.
func (h *Handler) GetProspectSchedule(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetProspectSchedule")
	defer span.End()

	prospectID := r.PathValue("prospectID")
	from, to, err := h.parseWindowParams(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	sched, err := h.prospectService.Schedule(ctx, prospectID, from, to)
	if err != nil {
		h.logger.WarnContext(ctx, "prospect schedule failed", "prospect_id", prospectID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, h.prospectScheduleToDTO(sched))
}

type prospectDTO struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Position  string `json:"position"`
	Class     string `json:"class"`
	BirthYear int    `json:"birth_year,omitempty"`
	FamilyKey string `json:"family_key"`
	Tracked   bool   `json:"tracked"`
}

type prospectScheduleDTO struct {
	Prospect        prospectDTO          `json:"prospect"`
	FetchedAt       time.Time            `json:"fetched_at"`
	Stale           bool                 `json:"stale"`
	DisplayTimezone string               `json:"display_timezone"`
	Fixtures        []prospectFixtureDTO `json:"fixtures"`
}

// prospectFixtureDTO is a fixture seen from one prospect's perspective: the
// side their team plays on and how confident the link is.
type prospectFixtureDTO struct {
	fixtureDTO
	Side          string `json:"side"`
	Confidence    string `json:"confidence"`
	LowConfidence bool   `json:"low_confidence,omitempty"`
}

func prospectToDTO(v prospect.Prospect) prospectDTO {
	return prospectDTO{
		ID:        v.ID,
		FullName:  v.FullName,
		Position:  string(v.Position),
		Class:     v.Class,
		BirthYear: v.BirthYear,
		FamilyKey: v.FamilyKey,
		Tracked:   v.Tracked,
	}
}

func (h *Handler) prospectScheduleToDTO(v usecase.ProspectSchedule) prospectScheduleDTO {
	fixtures := make([]prospectFixtureDTO, 0, len(v.Fixtures))
	for _, fx := range v.Fixtures {
		item := prospectFixtureDTO{fixtureDTO: h.fixtureToDTO(fx)}
		if link, ok := linkFor(fx, v.Prospect.ID); ok {
			item.Side = link.Side
			item.Confidence = link.Confidence
			item.LowConfidence = link.LowConfidence
		}
		fixtures = append(fixtures, item)
	}

	return prospectScheduleDTO{
		Prospect:        prospectToDTO(v.Prospect),
		FetchedAt:       v.FetchedAt,
		Stale:           v.Stale,
		DisplayTimezone: h.displayTZ.String(),
		Fixtures:        fixtures,
	}
}

func linkFor(fx schedule.Fixture, prospectID string) (schedule.ProspectLink, bool) {
	for _, link := range fx.Links {
		if link.ProspectID == prospectID {
			return link, true
		}
	}
	return schedule.ProspectLink{}, false
}
