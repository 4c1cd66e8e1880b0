package querybuilder

import (
	"testing"
	"time"
)

func TestSelectBuilder(t *testing.T) {
	query, args, err := Select("id", "kind", "raw_names").
		From("audit_events").
		Where(Eq("kind", "unmatched_fixture"), IsNull("resolved_at")).
		OrderBy("created_at DESC").
		Limit(10).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT id, kind, raw_names FROM audit_events WHERE kind = $1 AND resolved_at IS NULL ORDER BY created_at DESC LIMIT 10"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 1 || args[0] != "unmatched_fixture" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderExprBindsPlaceholders(t *testing.T) {
	cutoff := time.Date(2026, 2, 11, 18, 0, 0, 0, time.UTC)
	query, args, err := Select("cache_key").
		From("schedule_cache").
		Where(Eq("scope_kind", "league_day"), Expr("fetched_at < ?", cutoff)).
		OrderBy("cache_key").
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT cache_key FROM schedule_cache WHERE scope_kind = $1 AND fetched_at < $2 ORDER BY cache_key"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 2 || args[0] != "league_day" || args[1] != cutoff {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderExprWithoutValuesKeepsFragment(t *testing.T) {
	query, args, err := Select("COUNT(1)").
		From("refresh_runs").
		Where(Expr("finished_at > NOW() - INTERVAL '1 hour'")).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT COUNT(1) FROM refresh_runs WHERE finished_at > NOW() - INTERVAL '1 hour'"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderEqLiteral(t *testing.T) {
	query, args, err := Select("family_key").
		From("team_aliases").
		Where(EqLiteral("canonical_key", "o'hara college")).
		Limit(1).
		ToSQL()
	if err != nil {
		t.Fatalf("build select query: %v", err)
	}

	wantQuery := "SELECT family_key FROM team_aliases WHERE canonical_key = 'o''hara college' LIMIT 1"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestSelectBuilderRequiresColumnsAndTable(t *testing.T) {
	if _, _, err := Select().From("leagues").ToSQL(); err == nil {
		t.Fatalf("expected error for select without columns")
	}
	if _, _, err := Select("id").ToSQL(); err == nil {
		t.Fatalf("expected error for select without table")
	}
}

func TestUpdateBuilder(t *testing.T) {
	resolvedAt := time.Date(2026, 2, 11, 18, 0, 0, 0, time.UTC)
	query, args, err := Update("audit_events").
		Set("resolved_at", resolvedAt).
		Set("resolved_note", "mapped to asvel").
		Where(Eq("public_id", "evt-1"), IsNull("resolved_at")).
		ToSQL()
	if err != nil {
		t.Fatalf("build update query: %v", err)
	}

	wantQuery := "UPDATE audit_events SET resolved_at = $1, resolved_note = $2 WHERE public_id = $3 AND resolved_at IS NULL"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != resolvedAt || args[1] != "mapped to asvel" || args[2] != "evt-1" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestUpdateBuilderRequiresAssignments(t *testing.T) {
	if _, _, err := Update("audit_events").Where(Eq("public_id", "evt-1")).ToSQL(); err == nil {
		t.Fatalf("expected error for update without assignments")
	}
}

func TestInsertModel(t *testing.T) {
	type prospectRow struct {
		ID        string `db:"id"`
		FullName  string `db:"full_name"`
		FamilyKey string `db:"family_key"`
		Scratch   string `db:"-"`
	}

	query, args, err := InsertModel("prospects", prospectRow{
		ID:        "p1",
		FullName:  "Nolan Traore",
		FamilyKey: "saint quentin",
	}, "RETURNING id")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO prospects (id, full_name, family_key) VALUES ($1, $2, $3) RETURNING id"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "p1" || args[1] != "Nolan Traore" || args[2] != "saint quentin" {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModelFlattensEmbeddedStructs(t *testing.T) {
	type AuditRow struct {
		PublicID string `db:"public_id"`
		Kind     string `db:"kind"`
	}
	type timedAuditRow struct {
		AuditRow
		CreatedAt time.Time `db:"created_at"`
	}

	createdAt := time.Date(2026, 2, 11, 18, 0, 0, 0, time.UTC)
	query, args, err := InsertModel("audit_events", &timedAuditRow{
		AuditRow:  AuditRow{PublicID: "evt-1", Kind: "unmatched_fixture"},
		CreatedAt: createdAt,
	}, "ON CONFLICT (public_id) DO NOTHING")
	if err != nil {
		t.Fatalf("build insert query: %v", err)
	}

	wantQuery := "INSERT INTO audit_events (public_id, kind, created_at) VALUES ($1, $2, $3) ON CONFLICT (public_id) DO NOTHING"
	if query != wantQuery {
		t.Fatalf("unexpected query:\nwant: %s\ngot:  %s", wantQuery, query)
	}
	if len(args) != 3 || args[0] != "evt-1" || args[1] != "unmatched_fixture" || args[2] != createdAt {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestInsertModelRejectsUntaggedModels(t *testing.T) {
	type bare struct {
		Name string
	}
	if _, _, err := InsertModel("leagues", bare{Name: "euroleague"}, ""); err == nil {
		t.Fatalf("expected error for model without db tags")
	}
}
