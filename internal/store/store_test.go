package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "lectern.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"session_events", "llm_events", "snapshots", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lectern.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		s.Close()
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		if seq != prev+1 {
			t.Errorf("seq[%d] = %d, want %d", i, seq, prev+1)
		}
		prev = seq
	}
}

func TestSessionEvents_AppendAndQuery(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	events := []SessionEventData{
		{UserID: "u1", CourseID: "c", LessonID: "l1", Action: ActionSessionStarted, State: "idle", Timestamp: base},
		{UserID: "u1", CourseID: "c", LessonID: "l1", Action: ActionSegmentCompleted, SegmentIdx: 0, Timestamp: base.Add(time.Minute)},
		{UserID: "u1", CourseID: "c", LessonID: "l1", Action: ActionSegmentCompleted, SegmentIdx: 0, Timestamp: base.Add(2 * time.Minute)},
		{UserID: "u1", CourseID: "c", LessonID: "l1", Action: ActionLessonCompleted, Timestamp: base.Add(3 * time.Minute)},
		{UserID: "u2", CourseID: "c", LessonID: "l2", Action: ActionSessionStarted, State: "idle", Timestamp: base.Add(4 * time.Minute)},
	}
	for _, e := range events {
		if err := repo.AppendSessionEvent(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	all, err := repo.QuerySessionEvents(ctx, QueryOpts{})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(all) != 5 {
		t.Fatalf("got %d events, want 5", len(all))
	}
	if all[0].UserID != "u2" {
		t.Errorf("newest first: got user %s", all[0].UserID)
	}
	if !all[4].Timestamp.Equal(base) {
		t.Errorf("timestamp = %v, want %v", all[4].Timestamp, base)
	}

	u1, err := repo.QuerySessionEvents(ctx, QueryOpts{UserID: "u1", Limit: 2})
	if err != nil {
		t.Fatalf("query u1: %v", err)
	}
	if len(u1) != 2 || u1[0].Action != ActionLessonCompleted {
		t.Errorf("u1 limited query = %+v", u1)
	}

	windowed, err := repo.QuerySessionEvents(ctx, QueryOpts{From: base.Add(time.Minute), To: base.Add(2 * time.Minute)})
	if err != nil {
		t.Fatalf("query window: %v", err)
	}
	if len(windowed) != 2 {
		t.Errorf("windowed = %d events, want 2", len(windowed))
	}

	after, err := repo.QuerySessionEvents(ctx, QueryOpts{After: all[1].Sequence})
	if err != nil {
		t.Fatalf("query after: %v", err)
	}
	if len(after) != 1 {
		t.Errorf("after = %d events, want 1", len(after))
	}
}

func TestSessionStats(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, e := range []SessionEventData{
		{UserID: "u1", LessonID: "l1", Action: ActionSessionStarted},
		{UserID: "u1", LessonID: "l1", Action: ActionSegmentCompleted, SegmentIdx: 0},
		{UserID: "u1", LessonID: "l1", Action: ActionSegmentCompleted, SegmentIdx: 0},
		{UserID: "u1", LessonID: "l1", Action: ActionSegmentCompleted, SegmentIdx: 1},
		{UserID: "u1", LessonID: "l1", Action: ActionLessonCompleted},
	} {
		if err := repo.AppendSessionEvent(ctx, e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	stats, err := repo.SessionStats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("got %d stats, want 1", len(stats))
	}
	st := stats[0]
	if st.Events != 5 || st.SegmentsCompleted != 2 || st.LessonsCompleted != 1 || st.LessonID != "l1" {
		t.Errorf("stat = %+v", st)
	}
}

func TestLLMEvents(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, d := range []LLMRequestEventData{
		{Provider: "mock", Model: "mock", Purpose: "coach", InputTokens: 10, OutputTokens: 5, Success: true, RequestBody: "[user]\nhi", ResponseBody: `{"feedback":"ok"}`},
		{Provider: "mock", Model: "mock", Purpose: "other", Success: false, ErrorMessage: "boom"},
	} {
		if err := repo.AppendLLMRequest(ctx, d); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	coach, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "coach"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(coach) != 1 || !coach[0].Success || coach[0].InputTokens != 10 {
		t.Fatalf("coach events = %+v", coach)
	}

	e, err := repo.GetLLMEvent(ctx, coach[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.ResponseBody != `{"feedback":"ok"}` {
		t.Errorf("get = %+v", e)
	}

	missing, err := repo.GetLLMEvent(ctx, 9999)
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown id")
	}
}

func TestSnapshots(t *testing.T) {
	s := openTestStore(t)
	repo := s.SnapshotRepo()
	ctx := context.Background()

	snap, err := repo.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("latest (empty): %v", err)
	}
	if snap != nil {
		t.Fatal("expected nil snapshot when none exist")
	}

	for i := 0; i < 4; i++ {
		if err := repo.Save(ctx, &Snapshot{UserID: "u1", Data: []byte(`{"n":` + string(rune('0'+i)) + `}`)}); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	if err := repo.Save(ctx, &Snapshot{UserID: "u2", Data: []byte(`{}`)}); err != nil {
		t.Fatalf("save u2: %v", err)
	}

	snap, err = repo.Latest(ctx, "u1")
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if string(snap.Data) != `{"n":3}` {
		t.Errorf("latest data = %s", snap.Data)
	}

	if err := repo.Prune(ctx, 2); err != nil {
		t.Fatalf("prune: %v", err)
	}
	var count int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM snapshots`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 3 {
		t.Errorf("remaining snapshots = %d, want 3", count)
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("LECTERN_DB", filepath.Join(dir, "nested", "x.db"))
	p, err := DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "nested", "x.db") {
		t.Errorf("path = %s", p)
	}

	t.Setenv("LECTERN_DB", "")
	t.Setenv("XDG_DATA_HOME", dir)
	p, err = DefaultDBPath()
	if err != nil {
		t.Fatalf("DefaultDBPath: %v", err)
	}
	if p != filepath.Join(dir, "lectern", "lectern.db") {
		t.Errorf("path = %s", p)
	}
}
