package postgres

import (
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/draftradar/tipoff/internal/domain/refreshrun"
	qb "github.com/draftradar/tipoff/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type RefreshRunRepository struct {
	db *sqlx.DB
}

func NewRefreshRunRepository(db *sqlx.DB) *RefreshRunRepository {
	return &RefreshRunRepository{db: db}
}

func (r *RefreshRunRepository) Record(ctx context.Context, run refreshrun.Run) error {
	records := make([]refreshRunTaskRecord, 0, len(run.Tasks))
	for _, task := range run.Tasks {
		records = append(records, refreshRunTaskRecord{
			ScopeKey:     task.ScopeKey,
			Status:       string(task.Status),
			FixtureCount: task.FixtureCount,
			DurationMs:   task.Duration.Milliseconds(),
			Message:      task.Message,
		})
	}
	tasksJSON, err := sonic.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal refresh run tasks: %w", err)
	}

	insertModel := refreshRunInsertModel{
		PublicID:    run.ID,
		TriggerKind: string(run.Trigger),
		StartedAt:   run.StartedAt.UTC(),
		FinishedAt:  run.FinishedAt.UTC(),
		Tasks:       tasksJSON,
	}
	query, args, err := qb.InsertModel("refresh_runs", insertModel, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		return fmt.Errorf("build insert refresh run query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert refresh run %s: %w", run.ID, err)
	}

	return nil
}

func (r *RefreshRunRepository) GetByID(ctx context.Context, runID string) (refreshrun.Run, bool, error) {
	query, args, err := qb.Select("*").From("refresh_runs").
		Where(qb.Eq("public_id", runID)).
		ToSQL()
	if err != nil {
		return refreshrun.Run{}, false, fmt.Errorf("build get refresh run query: %w", err)
	}

	var row refreshRunTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return refreshrun.Run{}, false, nil
		}
		return refreshrun.Run{}, false, fmt.Errorf("get refresh run: %w", err)
	}

	run, err := runFromRow(row)
	if err != nil {
		return refreshrun.Run{}, false, err
	}
	return run, true, nil
}

func (r *RefreshRunRepository) ListRecent(ctx context.Context, limit int) ([]refreshrun.Run, error) {
	query, args, err := qb.Select("*").From("refresh_runs").
		OrderBy("finished_at DESC", "id DESC").
		Limit(limit).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select recent refresh runs query: %w", err)
	}

	var rows []refreshRunTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select recent refresh runs: %w", err)
	}

	out := make([]refreshrun.Run, 0, len(rows))
	for _, row := range rows {
		run, err := runFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, nil
}

func runFromRow(row refreshRunTableModel) (refreshrun.Run, error) {
	var records []refreshRunTaskRecord
	if len(row.Tasks) > 0 {
		if err := sonic.Unmarshal(row.Tasks, &records); err != nil {
			return refreshrun.Run{}, fmt.Errorf("unmarshal refresh run %s tasks: %w", row.PublicID, err)
		}
	}

	tasks := make([]refreshrun.TaskResult, 0, len(records))
	for _, record := range records {
		tasks = append(tasks, refreshrun.TaskResult{
			ScopeKey:     record.ScopeKey,
			Status:       refreshrun.TaskStatus(record.Status),
			FixtureCount: record.FixtureCount,
			Duration:     time.Duration(record.DurationMs) * time.Millisecond,
			Message:      record.Message,
		})
	}

	return refreshrun.Run{
		ID:         row.PublicID,
		Trigger:    refreshrun.Trigger(row.TriggerKind),
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
		Tasks:      tasks,
	}, nil
}
