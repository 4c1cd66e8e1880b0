package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	"github.com/draftradar/tipoff/internal/domain/schedule"
	"github.com/draftradar/tipoff/internal/usecase"
)

// RunRefreshJob triggers a full scheduler tick outside the timer: every
// tracked scope is reconciled once and the recorded run comes back for
// inspection.
func (h *Handler) RunRefreshJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshJob")
	defer span.End()

	if h.scheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	run, err := h.scheduler.RunTick(ctx, refreshrun.TriggerManual)
	if err != nil {
		h.logger.WarnContext(ctx, "manual refresh run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runToDTO(run))
}

type refreshScopeRequest struct {
	Kind      string `json:"kind" validate:"required,max=32"`
	LeagueID  string `json:"league_id" validate:"omitempty,max=64"`
	FamilyKey string `json:"family_key" validate:"omitempty,max=128"`
	Date      string `json:"date"`
	From      string `json:"from"`
	To        string `json:"to"`
}

// RunRefreshScopeJob reconciles one scope immediately, skipping cache
// freshness checks. The merged snapshot is written back so readers pick it
// up on their next request.
func (h *Handler) RunRefreshScopeJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunRefreshScopeJob")
	defer span.End()

	if h.reconcileService == nil {
		writeError(ctx, w, fmt.Errorf("%w: reconcile service is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	req, err := decodeRefreshScopeRequest(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	scope, err := h.buildRefreshScope(req)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	result, err := h.reconcileService.Reconcile(ctx, scope)
	if err != nil {
		h.logger.WarnContext(ctx, "scope refresh job failed",
			"scope_key", h.reconcileService.ScopeKey(scope),
			"error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, result)
}

// GetRefreshRun returns one recorded run with its per-scope task results.
func (h *Handler) GetRefreshRun(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetRefreshRun")
	defer span.End()

	if h.scheduler == nil {
		writeError(ctx, w, fmt.Errorf("%w: refresh scheduler is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	run, err := h.scheduler.GetRun(ctx, r.PathValue("runID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, runToDTO(run))
}

func decodeRefreshScopeRequest(r *http.Request) (refreshScopeRequest, error) {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	var req refreshScopeRequest
	if err := decoder.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return refreshScopeRequest{}, nil
		}
		return refreshScopeRequest{}, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}

	return req, nil
}

func (h *Handler) buildRefreshScope(req refreshScopeRequest) (schedule.Scope, error) {
	switch schedule.ScopeKind(req.Kind) {
	case schedule.ScopeLeagueDay:
		if req.LeagueID == "" {
			return schedule.Scope{}, fmt.Errorf("%w: league_id is required for league_day scopes", usecase.ErrInvalidInput)
		}
		date, ok, err := parseBodyDate(req.Date, "date")
		if err != nil {
			return schedule.Scope{}, err
		}
		if !ok {
			date = time.Now().UTC()
		}
		return schedule.LeagueDay(req.LeagueID, date), nil

	case schedule.ScopeTeamWindow:
		if req.FamilyKey == "" {
			return schedule.Scope{}, fmt.Errorf("%w: family_key is required for team_window scopes", usecase.ErrInvalidInput)
		}
		from, ok, err := parseBodyDate(req.From, "from")
		if err != nil {
			return schedule.Scope{}, err
		}
		if !ok {
			from = time.Now().UTC()
		}
		to, ok, err := parseBodyDate(req.To, "to")
		if err != nil {
			return schedule.Scope{}, err
		}
		if !ok {
			to = from.AddDate(0, 0, h.windowDays-1)
		}
		if to.Before(from) {
			return schedule.Scope{}, fmt.Errorf("%w: to must not precede from", usecase.ErrInvalidInput)
		}
		return schedule.TeamWindow(req.FamilyKey, from, to), nil

	default:
		return schedule.Scope{}, fmt.Errorf("%w: unknown scope kind %q", usecase.ErrInvalidInput, req.Kind)
	}
}

func parseBodyDate(value, field string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, nil
	}
	parsed, err := time.ParseInLocation("2006-01-02", value, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: field %q must be YYYY-MM-DD", usecase.ErrInvalidInput, field)
	}
	return parsed, true, nil
}

type runDTO struct {
	ID          string       `json:"id"`
	Trigger     string       `json:"trigger"`
	StartedAt   time.Time    `json:"started_at"`
	FinishedAt  time.Time    `json:"finished_at"`
	Tasks       []runTaskDTO `json:"tasks"`
	FailedCount int          `json:"failed_count"`
}

type runTaskDTO struct {
	ScopeKey     string `json:"scope_key"`
	Status       string `json:"status"`
	FixtureCount int    `json:"fixture_count"`
	DurationMs   int64  `json:"duration_ms"`
	Message      string `json:"message,omitempty"`
}

func runToDTO(run refreshrun.Run) runDTO {
	tasks := make([]runTaskDTO, 0, len(run.Tasks))
	for _, task := range run.Tasks {
		tasks = append(tasks, runTaskDTO{
			ScopeKey:     task.ScopeKey,
			Status:       string(task.Status),
			FixtureCount: task.FixtureCount,
			DurationMs:   task.Duration.Milliseconds(),
			Message:      task.Message,
		})
	}

	return runDTO{
		ID:          run.ID,
		Trigger:     string(run.Trigger),
		StartedAt:   run.StartedAt,
		FinishedAt:  run.FinishedAt,
		Tasks:       tasks,
		FailedCount: run.FailedCount(),
	}
}
