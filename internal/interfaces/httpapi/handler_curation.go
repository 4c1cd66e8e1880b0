package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/draftradar/tipoff/internal/domain/curation"
	"github.com/draftradar/tipoff/internal/usecase"
)

// ListUnmatched serves the curation feed: fixtures whose sides matched no
// known family and prospect links made only at the heuristic tier.
func (h *Handler) ListUnmatched(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUnmatched")
	defer span.End()

	limit, err := parseLimitParam(r, 0)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	events, err := h.curationService.ListUnresolved(ctx, limit)
	if err != nil {
		h.logger.ErrorContext(ctx, "list unmatched audit events failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]auditEventDTO, 0, len(events))
	for _, event := range events {
		items = append(items, auditEventToDTO(event))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type resolveAuditEventRequest struct {
	Note string `json:"note" validate:"omitempty,max=500"`
}

// ResolveAuditEvent marks one audit event handled. Resolving twice is a
// no-op; the original resolution wins.
func (h *Handler) ResolveAuditEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResolveAuditEvent")
	defer span.End()

	eventID := r.PathValue("eventID")

	req, err := decodeResolveAuditEventRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	event, err := h.curationService.Resolve(ctx, eventID, req.Note)
	if err != nil {
		h.logger.WarnContext(ctx, "resolve audit event failed", "event_id", eventID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, auditEventToDTO(event))
}

func decodeResolveAuditEventRequest(r *http.Request) (resolveAuditEventRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req resolveAuditEventRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return resolveAuditEventRequest{}, nil
		}
		return resolveAuditEventRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

type auditEventDTO struct {
	ID           string     `json:"id"`
	Kind         string     `json:"kind"`
	ScopeKey     string     `json:"scope_key"`
	DedupKey     string     `json:"dedup_key,omitempty"`
	RawNames     []string   `json:"raw_names"`
	Confidence   string     `json:"confidence,omitempty"`
	ProspectID   string     `json:"prospect_id,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`
	ResolvedNote string     `json:"resolved_note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func auditEventToDTO(v curation.AuditEvent) auditEventDTO {
	return auditEventDTO{
		ID:           v.ID,
		Kind:         v.Kind,
		ScopeKey:     v.ScopeKey,
		DedupKey:     v.DedupKey,
		RawNames:     v.RawNames,
		Confidence:   v.Confidence,
		ProspectID:   v.ProspectID,
		ResolvedAt:   v.ResolvedAt,
		ResolvedNote: v.ResolvedNote,
		CreatedAt:    v.CreatedAt,
	}
}
