package httpapi

import (
	"net/http"
	"time"

	"github.com/draftradar/tipoff/internal/platform/resilience"
	"github.com/draftradar/tipoff/internal/usecase"
)

// GetStatus serves the operator view: cache pressure, scheduler liveness,
// recent refresh runs and provider breaker states.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStatus")
	defer span.End()

	report, err := h.statusService.Report(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "status report failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, statusToDTO(report))
}

type statusDTO struct {
	CacheEntries int                          `json:"cache_entries"`
	CacheStale   int                          `json:"cache_stale"`
	LastTick     *time.Time                   `json:"last_tick,omitempty"`
	RecentRuns   []runDTO                     `json:"recent_runs"`
	Breakers     []resilience.CircuitSnapshot `json:"breakers"`
}

func statusToDTO(report usecase.StatusReport) statusDTO {
	runs := make([]runDTO, 0, len(report.RecentRuns))
	for _, run := range report.RecentRuns {
		runs = append(runs, runToDTO(run))
	}

	return statusDTO{
		CacheEntries: report.CacheEntries,
		CacheStale:   report.CacheStale,
		LastTick:     report.LastTick,
		RecentRuns:   runs,
		Breakers:     report.Breakers,
	}
}
