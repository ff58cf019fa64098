package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
)

func TestGetRun_Found(t *testing.T) {
	s := createTestStore(t)

	written, _, err := s.RecordRun(context.Background(), createTestRun("run-123", "sdl2"))
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	got, err := s.GetRun(context.Background(), "run-123")
	if err != nil {
		t.Fatalf("GetRun() failed: %v", err)
	}

	if got != written {
		t.Errorf("GetRun() = %+v, want %+v", got, written)
	}
}

func TestGetRun_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.GetRun(context.Background(), "nonexistent")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("GetRun() error = %v, want sql.ErrNoRows", err)
	}
}

func TestLatestRun_Empty(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LatestRun(context.Background(), "sdl2")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("LatestRun() error = %v, want sql.ErrNoRows", err)
	}
}

func TestLatestRun_ReturnsHighestSeq(t *testing.T) {
	s := createTestStore(t)

	for _, id := range []string{"run-1", "run-2", "run-3"} {
		if _, _, err := s.RecordRun(context.Background(), createTestRun(id, "sdl2")); err != nil {
			t.Fatalf("RecordRun(%q) failed: %v", id, err)
		}
	}

	latest, err := s.LatestRun(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}

	if latest.ID != "run-3" {
		t.Errorf("latest.ID = %q, want %q", latest.ID, "run-3")
	}
	if latest.Seq != 3 {
		t.Errorf("latest.Seq = %d, want 3", latest.Seq)
	}
}

func TestLatestRun_FiltersByContext(t *testing.T) {
	s := createTestStore(t)

	// Interleave contexts; the sdl3 run is recorded last overall but the
	// sdl2 latest must still be the last sdl2 run.
	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-a", "sdl2")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-b", "sdl2")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-c", "sdl3")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	latest, err := s.LatestRun(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if latest.ID != "run-b" {
		t.Errorf("latest sdl2 run = %q, want %q", latest.ID, "run-b")
	}

	latest, err = s.LatestRun(context.Background(), "sdl3")
	if err != nil {
		t.Fatalf("LatestRun() failed: %v", err)
	}
	if latest.ID != "run-c" {
		t.Errorf("latest sdl3 run = %q, want %q", latest.ID, "run-c")
	}
}

func TestListRuns_Empty(t *testing.T) {
	s := createTestStore(t)

	runs, err := s.ListRuns(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}

	if runs == nil {
		t.Error("ListRuns() returned nil, want empty slice")
	}
	if len(runs) != 0 {
		t.Errorf("len(runs) = %d, want 0", len(runs))
	}
}

func TestListRuns_OrderedBySeq(t *testing.T) {
	s := createTestStore(t)

	ids := []string{"run-1", "run-2", "run-3"}
	for _, id := range ids {
		if _, _, err := s.RecordRun(context.Background(), createTestRun(id, "sdl2")); err != nil {
			t.Fatalf("RecordRun(%q) failed: %v", id, err)
		}
	}

	runs, err := s.ListRuns(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}

	if len(runs) != len(ids) {
		t.Fatalf("len(runs) = %d, want %d", len(runs), len(ids))
	}
	for i, rec := range runs {
		if rec.ID != ids[i] {
			t.Errorf("runs[%d].ID = %q, want %q", i, rec.ID, ids[i])
		}
		if want := int64(i + 1); rec.Seq != want {
			t.Errorf("runs[%d].Seq = %d, want %d", i, rec.Seq, want)
		}
	}
}

func TestListRuns_FiltersByContext(t *testing.T) {
	s := createTestStore(t)

	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-a", "sdl2")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-b", "sdl3")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}
	if _, _, err := s.RecordRun(context.Background(), createTestRun("run-c", "sdl2")); err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	runs, err := s.ListRuns(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(runs))
	}
	if runs[0].ID != "run-a" || runs[1].ID != "run-c" {
		t.Errorf("runs = %q, %q; want run-a, run-c", runs[0].ID, runs[1].ID)
	}
}

func TestListRuns_RoundTripsAllFields(t *testing.T) {
	s := createTestStore(t)

	rec := createTestRun("run-123", "sdl2")
	rec.ProfileDigest = "pd-1"
	rec.HeaderDigest = "hd-1"
	rec.OutputDigest = "od-1"
	rec.OutputPath = "out/sdl2vk.go"
	rec.ToolVersion = "9.9.9"
	rec.CreatedAt = "2024-06-15T12:34:56Z"

	written, _, err := s.RecordRun(context.Background(), rec)
	if err != nil {
		t.Fatalf("RecordRun() failed: %v", err)
	}

	runs, err := s.ListRuns(context.Background(), "sdl2")
	if err != nil {
		t.Fatalf("ListRuns() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}

	if runs[0] != written {
		t.Errorf("runs[0] = %+v, want %+v", runs[0], written)
	}
}
