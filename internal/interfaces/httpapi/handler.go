package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/draftradar/tipoff/internal/platform/logging"
	"github.com/draftradar/tipoff/internal/usecase"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	leagueService    *usecase.LeagueService
	scheduleQuery    *usecase.ScheduleQueryService
	identityService  *usecase.IdentityService
	prospectService  *usecase.ProspectService
	curationService  *usecase.CurationService
	statusService    *usecase.StatusService
	scheduler        *usecase.RefreshScheduler
	reconcileService *usecase.ReconcileService
	windowDays       int
	displayTZ        *time.Location
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	leagueService *usecase.LeagueService,
	scheduleQuery *usecase.ScheduleQueryService,
	identityService *usecase.IdentityService,
	prospectService *usecase.ProspectService,
	curationService *usecase.CurationService,
	statusService *usecase.StatusService,
	scheduler *usecase.RefreshScheduler,
	reconcileService *usecase.ReconcileService,
	windowDays int,
	displayTZ *time.Location,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	if displayTZ == nil {
		displayTZ = time.UTC
	}
	if windowDays < 1 {
		windowDays = 14
	}

	return &Handler{
		leagueService:    leagueService,
		scheduleQuery:    scheduleQuery,
		identityService:  identityService,
		prospectService:  prospectService,
		curationService:  curationService,
		statusService:    statusService,
		scheduler:        scheduler,
		reconcileService: reconcileService,
		windowDays:       windowDays,
		displayTZ:        displayTZ,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

// parseDateParam reads a YYYY-MM-DD query parameter. Required parameters
// reject absence; optional ones return the zero time.
func parseDateParam(r *http.Request, name string, required bool) (time.Time, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		if required {
			return time.Time{}, fmt.Errorf("%w: query parameter %q is required (YYYY-MM-DD)", usecase.ErrInvalidInput, name)
		}
		return time.Time{}, nil
	}

	parsed, err := time.ParseInLocation("2006-01-02", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: query parameter %q must be YYYY-MM-DD", usecase.ErrInvalidInput, name)
	}
	return parsed, nil
}

// parseWindowParams reads the from/to pair. Omitted bounds default to a
// window starting today (UTC) spanning the handler's configured length.
func (h *Handler) parseWindowParams(r *http.Request) (time.Time, time.Time, error) {
	from, err := parseDateParam(r, "from", false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := parseDateParam(r, "to", false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if from.IsZero() {
		from = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, h.windowDays-1)
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: to must not precede from", usecase.ErrInvalidInput)
	}

	return from, to, nil
}

func parseLimitParam(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput)
	}
	return v, nil
}
