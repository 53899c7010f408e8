package jsonfile

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/storetest"
)

func TestJSONStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(filepath.Join(t.TempDir(), "members.json"))
		if err != nil {
			t.Fatalf("New failed: %v", err)
		}
		return s
	})
}

func TestChangesSurviveReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "members.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	m := storetest.NewMember("nina", time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC))
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	got, err := reopened.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMember after reopen failed: %v", err)
	}
	if got.Email != m.Email {
		t.Errorf("Email mismatch: got %s, want %s", got.Email, m.Email)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only members.json in data dir, found %d entries", len(entries))
	}
}

func TestLoadsBareMemberArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.json")
	legacy := `[
  {"id": "1", "username": "terry.franklin", "name": "Terry D. Franklin", "email": "terry@example.com",
   "joinedDate": "2025-04-09T00:00:00Z", "totalSolar": 10, "totalDollars": 1360000,
   "isAnonymous": false, "lastDistributionDate": "2025-04-18"},
  {"id": "2", "name": "TC-S Solar Reserve", "joinedDate": "2025-04-07T00:00:00Z",
   "totalSolar": "10000000000", "isReserve": true}
]`
	if err := os.WriteFile(path, []byte(legacy), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := context.Background()
	all, err := s.ListMembers(ctx, storage.All())
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Expected 2 members, got %d", len(all))
	}

	terry, err := s.GetMember(ctx, "1")
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if !terry.TotalSolar.Equal(decimal.NewFromInt(10)) {
		t.Errorf("TotalSolar = %s, want 10", terry.TotalSolar)
	}
	if terry.CreatedAt == 0 {
		t.Error("Expected CreatedAt to be backfilled")
	}
}

func TestEmptyFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.json")
	if err := os.WriteFile(path, []byte("  \n"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	n, err := s.CountMembers(context.Background(), storage.All())
	if err != nil {
		t.Fatalf("CountMembers failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Expected 0 members, got %d", n)
	}
}

func TestCorruptFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "members.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if _, err := New(path); err == nil {
		t.Error("expected error for corrupt file")
	}
}

// blockPath swaps the store file for a non-empty directory so the next rename fails.
func blockPath(t *testing.T, path string) {
	t.Helper()
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(path, "keep"), 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "members.json")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ada := storetest.NewMember("ada", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.CreateMember(ctx, ada); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	blockPath(t, path)

	credit := models.MemberCredit{
		MemberID:     ada.ID,
		DaysCredited: 3,
		TotalSolar:   decimal.NewFromInt(4),
		TotalDollars: decimal.NewFromInt(544000),
	}
	if _, err := s.ApplyDistribution(ctx, "2025-01-04", []models.MemberCredit{credit}); err == nil {
		t.Fatal("expected ApplyDistribution to fail when the file cannot be written")
	}
	got, err := s.GetMember(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if !got.TotalSolar.Equal(decimal.NewFromInt(1)) {
		t.Errorf("TotalSolar = %s after failed write, want 1", got.TotalSolar)
	}
	if got.LastDistributionDate != ada.LastDistributionDate {
		t.Errorf("LastDistributionDate = %s after failed write, want %s", got.LastDistributionDate, ada.LastDistributionDate)
	}

	bob := storetest.NewMember("bob", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err := s.CreateMember(ctx, bob); err == nil {
		t.Fatal("expected CreateMember to fail when the file cannot be written")
	}
	if _, err := s.GetMemberByEmail(ctx, bob.Email); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for unsaved member, got %v", err)
	}

	if err := s.DeleteMember(ctx, ada.ID); err == nil {
		t.Fatal("expected DeleteMember to fail when the file cannot be written")
	}
	if _, err := s.GetMember(ctx, ada.ID); err != nil {
		t.Errorf("Member gone after failed delete: %v", err)
	}

	run := &models.DistributionRun{Date: "2025-01-04", Trigger: models.TriggerManual}
	if err := s.RecordDistributionRun(ctx, run); err == nil {
		t.Fatal("expected RecordDistributionRun to fail when the file cannot be written")
	}
	if _, err := s.LastDistributionRun(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected no recorded runs, got %v", err)
	}

	// Once the path is writable again a retry succeeds instead of conflicting.
	if err := os.RemoveAll(path); err != nil {
		t.Fatalf("RemoveAll failed: %v", err)
	}
	if err := s.CreateMember(ctx, bob); err != nil {
		t.Fatalf("CreateMember retry failed: %v", err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	again, err := reopened.GetMember(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetMember after reopen failed: %v", err)
	}
	if !again.TotalSolar.Equal(decimal.NewFromInt(1)) {
		t.Errorf("TotalSolar on disk = %s, want 1", again.TotalSolar)
	}
}
