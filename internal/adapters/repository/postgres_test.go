package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/okian/bizlens/internal/domain/model"
)

func TestPostgresStore_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS bi_report_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := NewPostgresStore(db).Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	snap := model.ReportSnapshot{
		ID:            "id-1",
		Operation:     model.OpScorecard,
		GeneratedAt:   at,
		TotalEntities: 12,
		Score:         81.5,
		Grade:         "A",
		Warnings:      []string{"products unavailable"},
		RequestID:     "req-1",
	}

	mock.ExpectExec("INSERT INTO bi_report_snapshots").
		WithArgs("id-1", "scorecard", at, 12, 81.5, "A", []byte(`["products unavailable"]`), "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewPostgresStore(db).Save(context.Background(), snap); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresStore_SaveError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	boom := errors.New("connection reset")
	mock.ExpectExec("INSERT INTO bi_report_snapshots").
		WithArgs("id-2", "aggregate", sqlmock.AnyArg(), 0, 0.0, "", []byte(`[]`), "").
		WillReturnError(boom)

	err = NewPostgresStore(db).Save(context.Background(), model.ReportSnapshot{ID: "id-2", Operation: model.OpAggregate})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestPostgresStore_Recent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	newer := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "operation", "generated_at", "total_entities", "score", "grade", "warnings", "request_id"}).
		AddRow("b", "timeseries", newer, 3, 0.0, "", []byte(`[]`), "r-2").
		AddRow("a", "scorecard", older, 5, 72.0, "B", []byte(`["x"]`), "r-1")

	mock.ExpectQuery("SELECT (.+) FROM bi_report_snapshots").
		WithArgs(2).
		WillReturnRows(rows)

	got, err := NewPostgresStore(db).Recent(context.Background(), 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 snapshots, got %d", len(got))
	}
	if got[0].ID != "b" || got[0].Operation != model.OpTimeSeries || got[0].Warnings != nil {
		t.Errorf("unexpected first snapshot: %+v", got[0])
	}
	if got[1].Grade != "B" || len(got[1].Warnings) != 1 || got[1].Warnings[0] != "x" {
		t.Errorf("unexpected second snapshot: %+v", got[1])
	}
}

func TestPostgresStore_RecentInvalidLimit(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	if _, err := NewPostgresStore(db).Recent(context.Background(), 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("expected ErrInvalidLimit, got %v", err)
	}
}

func TestPostgresStore_Count(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %s", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bi_report_snapshots`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	n, err := NewPostgresStore(db).Count(context.Background())
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestOpenPostgres_EmptyDSN(t *testing.T) {
	if _, err := OpenPostgres(context.Background(), ""); !errors.Is(err, ErrNoDSN) {
		t.Errorf("expected ErrNoDSN, got %v", err)
	}
}
