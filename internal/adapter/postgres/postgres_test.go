package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"healthmonitor/internal/domain"
)

// openTestDB connects to TEST_DATABASE_URL and skips when it is unset.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := Open(url)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestRecordLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	user, err := db.Create(ctx, "pg-test-"+time.Now().Format("150405.000000"), "PG Test", "")
	if err != nil {
		t.Fatalf("Create user: %v", err)
	}

	rec, _ := domain.NewHealthRecord(user.ID, "2026-10-15", 70, 175)
	first, err := db.UpsertRecord(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertRecord: %v", err)
	}
	if first.Date != "2026-10-15" || first.Classification != domain.Healthy {
		t.Fatalf("unexpected record %+v", first)
	}

	rec, _ = domain.NewHealthRecord(user.ID, "2026-10-15", 95, 170)
	second, err := db.UpsertRecord(ctx, rec)
	if err != nil {
		t.Fatalf("UpsertRecord (replace): %v", err)
	}
	if second.ID != first.ID || second.Classification != domain.Obese {
		t.Errorf("expected in-place replacement, got %+v", second)
	}

	rec, _ = domain.NewHealthRecord(user.ID, "2026-10-16", 94, 170)
	_, _ = db.UpsertRecord(ctx, rec)

	recs, err := db.ListRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(recs) != 2 || recs[0].Date != "2026-10-16" {
		t.Fatalf("expected 2 records newest first, got %+v", recs)
	}

	if ok, err := db.DeleteRecord(ctx, user.ID, "2026-10-16"); err != nil || !ok {
		t.Fatalf("DeleteRecord: ok=%v err=%v", ok, err)
	}
	if got, _ := db.GetRecord(ctx, user.ID, "2026-10-16"); got != nil {
		t.Error("expected nil after delete")
	}

	if _, err := db.UpsertGoal(ctx, user.ID, 80); err != nil {
		t.Fatalf("UpsertGoal: %v", err)
	}
	g, err := db.GetGoal(ctx, user.ID)
	if err != nil || g == nil || g.WeightKg != 80 {
		t.Fatalf("GetGoal: %+v err=%v", g, err)
	}

	sessions := NewSessionRepo(db)
	if err := sessions.Create(ctx, user.ID, "tok-"+user.ID, "ua", "127.0.0.1", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("session Create: %v", err)
	}
	s, err := sessions.GetByToken(ctx, "tok-"+user.ID)
	if err != nil || s == nil || s.UserAgent != "ua" {
		t.Fatalf("GetByToken: %+v err=%v", s, err)
	}
	_ = sessions.Delete(ctx, s.Token)
}
