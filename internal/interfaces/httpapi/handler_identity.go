package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/draftradar/tipoff/internal/domain/identity"
	"github.com/draftradar/tipoff/internal/usecase"
)

// ResolveTeam shows how the engine would read a raw provider name: the
// canonical key, the family it lands in, and the confidence tier that made
// the match. Curation uses this to debug unmatched fixtures.
func (h *Handler) ResolveTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveTeam")
	defer span.End()

	rawName := strings.TrimSpace(r.URL.Query().Get("name"))
	if rawName == "" {
		writeError(ctx, w, fmt.Errorf("%w: query parameter %q is required", usecase.ErrInvalidInput, "name"))
		return
	}

	resolution, err := h.identityService.Resolve(ctx, rawName)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve team failed", "raw_name", rawName, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resolutionToDTO(resolution))
}

func (h *Handler) ListTeams(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListTeams")
	defer span.End()

	teams, err := h.identityService.ListTeams(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list teams failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]identityDTO, 0, len(teams))
	for _, team := range teams {
		items = append(items, identityToDTO(team))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type resolutionDTO struct {
	RawName      string       `json:"raw_name"`
	CanonicalKey string       `json:"canonical_key"`
	FamilyKey    string       `json:"family_key"`
	Confidence   string       `json:"confidence"`
	Known        bool         `json:"known"`
	Identity     *identityDTO `json:"identity,omitempty"`
}

type identityDTO struct {
	FamilyKey   string            `json:"family_key"`
	DisplayName string            `json:"display_name"`
	LogoURL     string            `json:"logo_url,omitempty"`
	Aliases     []string          `json:"aliases,omitempty"`
	ExternalIDs map[string]string `json:"external_ids,omitempty"`
	Leagues     []string          `json:"leagues,omitempty"`
}

func resolutionToDTO(v usecase.Resolution) resolutionDTO {
	dto := resolutionDTO{
		RawName:      v.RawName,
		CanonicalKey: v.CanonicalKey,
		FamilyKey:    v.FamilyKey,
		Confidence:   string(v.Confidence),
		Known:        v.Known,
	}
	if v.Known {
		dto.Identity = identityToDTOPtr(v.Identity)
	}
	return dto
}

func identityToDTO(v identity.TeamIdentity) identityDTO {
	return identityDTO{
		FamilyKey:   v.FamilyKey,
		DisplayName: v.DisplayName,
		LogoURL:     v.LogoURL,
		Aliases:     v.Aliases,
		ExternalIDs: v.ExternalIDs,
		Leagues:     v.Leagues,
	}
}

func identityToDTOPtr(v identity.TeamIdentity) *identityDTO {
	dto := identityToDTO(v)
	return &dto
}
