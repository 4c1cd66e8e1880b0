package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/draftradar/tipoff/internal/domain/prospect"
	"github.com/draftradar/tipoff/internal/domain/schedule"
)

// ProspectSchedule is one prospect's upcoming and recent games, already
// filtered to fixtures the prospect is linked into.
type ProspectSchedule struct {
	Prospect  prospect.Prospect
	Fixtures  []schedule.Fixture
	FetchedAt time.Time
	Stale     bool
}

type scheduleReader interface {
	Query(ctx context.Context, scope schedule.Scope) (ScheduleView, error)
}

type ProspectService struct {
	prospectRepo prospect.Repository
	schedules    scheduleReader
}

func NewProspectService(prospectRepo prospect.Repository, schedules scheduleReader) *ProspectService {
	return &ProspectService{
		prospectRepo: prospectRepo,
		schedules:    schedules,
	}
}

func (s *ProspectService) ListTracked(ctx context.Context) ([]prospect.Prospect, error) {
	ctx, span := startSpan(ctx, "usecase.ProspectService.ListTracked")
	defer span.End()

	prospects, err := s.prospectRepo.ListTracked(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tracked prospects: %w", err)
	}
	return prospects, nil
}

func (s *ProspectService) GetProspect(ctx context.Context, prospectID string) (prospect.Prospect, error) {
	ctx, span := startSpan(ctx, "usecase.ProspectService.GetProspect")
	defer span.End()

	prospectID = strings.TrimSpace(prospectID)
	if prospectID == "" {
		return prospect.Prospect{}, fmt.Errorf("%w: prospect id is required", ErrInvalidInput)
	}

	p, exists, err := s.prospectRepo.GetByID(ctx, prospectID)
	if err != nil {
		return prospect.Prospect{}, fmt.Errorf("get prospect: %w", err)
	}
	if !exists {
		return prospect.Prospect{}, fmt.Errorf("%w: prospect=%s", ErrNotFound, prospectID)
	}
	return p, nil
}

// Schedule reads the prospect's team window through the cache and keeps only
// the fixtures that actually link back to the prospect.
func (s *ProspectService) Schedule(ctx context.Context, prospectID string, from, to time.Time) (ProspectSchedule, error) {
	ctx, span := startSpan(ctx, "usecase.ProspectService.Schedule")
	defer span.End()

	p, err := s.GetProspect(ctx, prospectID)
	if err != nil {
		return ProspectSchedule{}, err
	}
	if p.FamilyKey == "" {
		return ProspectSchedule{}, fmt.Errorf("%w: prospect %s has no team family", ErrNotFound, p.ID)
	}

	view, err := s.schedules.Query(ctx, schedule.TeamWindow(p.FamilyKey, from, to))
	if err != nil {
		return ProspectSchedule{}, err
	}

	result := ProspectSchedule{
		Prospect:  p,
		Fixtures:  make([]schedule.Fixture, 0, len(view.Fixtures)),
		FetchedAt: view.FetchedAt,
		Stale:     view.Stale,
	}
	for _, fx := range view.Fixtures {
		for _, link := range fx.Links {
			if link.ProspectID == p.ID {
				result.Fixtures = append(result.Fixtures, fx)
				break
			}
		}
	}
	return result, nil
}
