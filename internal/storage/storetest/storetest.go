// Package storetest holds the behavior every storage.Store backend must share.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
)

// NewMember returns a member with distinct email and username for the given handle.
func NewMember(handle string, joined time.Time) *models.Member {
	return &models.Member{
		Username:             handle,
		Name:                 "Member " + handle,
		Email:                handle + "@example.com",
		JoinedDate:           joined,
		TotalSolar:           decimal.NewFromInt(1),
		TotalDollars:         decimal.NewFromInt(136000),
		LastDistributionDate: joined.Format(models.DateLayout),
	}
}

// Run exercises a fresh store produced by newStore.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	ctx := context.Background()
	joined := time.Date(2025, 4, 7, 12, 0, 0, 0, time.UTC)

	t.Run("CreateMember generates ID and timestamps", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("alice", joined)

		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}
		if m.ID == "" {
			t.Error("Expected member ID to be generated")
		}
		if m.CreatedAt == 0 {
			t.Error("Expected CreatedAt to be set")
		}
	})

	t.Run("GetMember round trip", func(t *testing.T) {
		store := newStore(t)
		original := NewMember("bob", joined)
		original.TotalSolar = decimal.RequireFromString("12.5")
		original.IsAnonymous = true
		original.Notes = "early supporter"

		if err := store.CreateMember(ctx, original); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		got, err := store.GetMember(ctx, original.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if got.Email != original.Email || got.Username != original.Username || got.Name != original.Name {
			t.Errorf("identity mismatch: got %+v", got)
		}
		if !got.TotalSolar.Equal(original.TotalSolar) {
			t.Errorf("TotalSolar mismatch: got %s, want %s", got.TotalSolar, original.TotalSolar)
		}
		if !got.JoinedDate.Equal(joined) {
			t.Errorf("JoinedDate mismatch: got %v, want %v", got.JoinedDate, joined)
		}
		if !got.IsAnonymous || got.Notes != "early supporter" {
			t.Errorf("flags/notes mismatch: got %+v", got)
		}
		if got.LastDistributionDate != "2025-04-07" {
			t.Errorf("LastDistributionDate mismatch: got %q", got.LastDistributionDate)
		}
	})

	t.Run("GetMember returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		_, err := store.GetMember(ctx, "nonexistent-id")
		if !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("email is unique ignoring case", func(t *testing.T) {
		store := newStore(t)
		if err := store.CreateMember(ctx, NewMember("carol", joined)); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		dup := NewMember("carol2", joined)
		dup.Email = "CAROL@example.com"
		err := store.CreateMember(ctx, dup)
		if !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}

		got, err := store.GetMemberByEmail(ctx, "Carol@Example.com")
		if err != nil {
			t.Fatalf("GetMemberByEmail failed: %v", err)
		}
		if got.Username != "carol" {
			t.Errorf("GetMemberByEmail returned %s", got.Username)
		}
	})

	t.Run("username is unique", func(t *testing.T) {
		store := newStore(t)
		if err := store.CreateMember(ctx, NewMember("dave", joined)); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}
		dup := NewMember("dave", joined)
		dup.Email = "other@example.com"
		if err := store.CreateMember(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	t.Run("placeholders may share empty email", func(t *testing.T) {
		store := newStore(t)
		for _, name := range []string{"Seed One", "Seed Two"} {
			m := &models.Member{Name: name, JoinedDate: joined, IsPlaceholder: true}
			if err := store.CreateMember(ctx, m); err != nil {
				t.Fatalf("CreateMember(%s) failed: %v", name, err)
			}
		}
	})

	t.Run("ListMembers filters and orders", func(t *testing.T) {
		store := newStore(t)
		later := NewMember("later", joined.Add(48*time.Hour))
		first := NewMember("first", joined)
		reserve := NewMember("reserve", joined.Add(time.Hour))
		reserve.IsReserve = true
		placeholder := &models.Member{Name: "Placeholder", JoinedDate: joined, IsPlaceholder: true}

		for _, m := range []*models.Member{later, first, reserve, placeholder} {
			if err := store.CreateMember(ctx, m); err != nil {
				t.Fatalf("CreateMember failed: %v", err)
			}
		}

		public, err := store.ListMembers(ctx, storage.ListOptions{})
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(public) != 2 {
			t.Fatalf("Expected 2 public members, got %d", len(public))
		}
		if public[0].Username != "first" || public[1].Username != "later" {
			t.Errorf("Unexpected order: %s, %s", public[0].Username, public[1].Username)
		}

		all, err := store.ListMembers(ctx, storage.All())
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(all) != 4 {
			t.Errorf("Expected 4 members, got %d", len(all))
		}

		n, err := store.CountMembers(ctx, storage.ListOptions{IncludeReserve: true})
		if err != nil {
			t.Fatalf("CountMembers failed: %v", err)
		}
		if n != 3 {
			t.Errorf("Expected count 3, got %d", n)
		}
	})

	t.Run("UpdateMember persists changes", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("erin", joined)
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		m.Name = "Erin Renamed"
		m.Notes = "moved"
		if err := store.UpdateMember(ctx, m); err != nil {
			t.Fatalf("UpdateMember failed: %v", err)
		}

		got, err := store.GetMember(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if got.Name != "Erin Renamed" || got.Notes != "moved" {
			t.Errorf("Update not persisted: %+v", got)
		}

		missing := NewMember("ghost", joined)
		missing.ID = "ghost-id"
		if err := store.UpdateMember(ctx, missing); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}
	})

	t.Run("UpdateMember rejects taken email", func(t *testing.T) {
		store := newStore(t)
		a := NewMember("frank", joined)
		b := NewMember("grace", joined)
		for _, m := range []*models.Member{a, b} {
			if err := store.CreateMember(ctx, m); err != nil {
				t.Fatalf("CreateMember failed: %v", err)
			}
		}
		b.Email = a.Email
		if err := store.UpdateMember(ctx, b); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}
	})

	t.Run("create, list, delete round trip", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("heidi", joined)
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		listed, err := store.ListMembers(ctx, storage.ListOptions{})
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(listed) != 1 || listed[0].ID != m.ID {
			t.Fatalf("Expected member in list, got %v", listed)
		}

		if err := store.DeleteMember(ctx, m.ID); err != nil {
			t.Fatalf("DeleteMember failed: %v", err)
		}
		listed, err = store.ListMembers(ctx, storage.ListOptions{})
		if err != nil {
			t.Fatalf("ListMembers failed: %v", err)
		}
		if len(listed) != 0 {
			t.Errorf("Expected empty list after delete, got %d", len(listed))
		}
		if err := store.DeleteMember(ctx, m.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})

	t.Run("ApplyDistribution is idempotent per date", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("ivan", joined)
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		credit := models.MemberCredit{
			MemberID:     m.ID,
			DaysCredited: 3,
			TotalSolar:   decimal.NewFromInt(4),
			TotalDollars: decimal.NewFromInt(544000),
		}
		applied, err := store.ApplyDistribution(ctx, "2025-04-10", []models.MemberCredit{credit})
		if err != nil {
			t.Fatalf("ApplyDistribution failed: %v", err)
		}
		if len(applied) != 1 || applied[0].MemberID != m.ID {
			t.Errorf("Expected the one credit applied, got %+v", applied)
		}

		// Re-applying for the same date must not change anything.
		credit.TotalSolar = decimal.NewFromInt(7)
		applied, err = store.ApplyDistribution(ctx, "2025-04-10", []models.MemberCredit{credit})
		if err != nil {
			t.Fatalf("ApplyDistribution failed: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("Expected nothing applied on repeat, got %+v", applied)
		}

		got, err := store.GetMember(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if !got.TotalSolar.Equal(decimal.NewFromInt(4)) {
			t.Errorf("TotalSolar = %s, want 4", got.TotalSolar)
		}
		if got.LastDistributionDate != "2025-04-10" {
			t.Errorf("LastDistributionDate = %s, want 2025-04-10", got.LastDistributionDate)
		}
	})

	t.Run("ApplyDistribution skips missing members", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("judy", joined)
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		credits := []models.MemberCredit{
			{MemberID: "missing", DaysCredited: 1, TotalSolar: decimal.NewFromInt(2), TotalDollars: decimal.NewFromInt(272000)},
			{MemberID: m.ID, DaysCredited: 1, TotalSolar: decimal.NewFromInt(2), TotalDollars: decimal.NewFromInt(272000)},
		}
		applied, err := store.ApplyDistribution(ctx, "2025-04-08", credits)
		if err != nil {
			t.Fatalf("ApplyDistribution failed: %v", err)
		}
		if len(applied) != 1 || applied[0].MemberID != m.ID {
			t.Errorf("Expected only %s applied, got %+v", m.ID, applied)
		}

		got, err := store.GetMember(ctx, m.ID)
		if err != nil {
			t.Fatalf("GetMember failed: %v", err)
		}
		if !got.TotalSolar.Equal(decimal.NewFromInt(2)) {
			t.Errorf("TotalSolar = %s, want 2", got.TotalSolar)
		}
	})

	t.Run("emails are matched beyond ASCII case", func(t *testing.T) {
		store := newStore(t)
		m := NewMember("zoe", joined)
		m.Email = "ÉLODIE@Example.com"
		if err := store.CreateMember(ctx, m); err != nil {
			t.Fatalf("CreateMember failed: %v", err)
		}

		got, err := store.GetMemberByEmail(ctx, "élodie@example.com")
		if err != nil {
			t.Fatalf("GetMemberByEmail failed: %v", err)
		}
		if got.ID != m.ID {
			t.Errorf("GetMemberByEmail returned %s, want %s", got.ID, m.ID)
		}

		dup := NewMember("zed", joined)
		dup.Email = "Élodie@example.com"
		if err := store.CreateMember(ctx, dup); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict for case-folded duplicate, got %v", err)
		}

		got.Email = "ÅSA@Example.com"
		if err := store.UpdateMember(ctx, got); err != nil {
			t.Fatalf("UpdateMember failed: %v", err)
		}
		if _, err := store.GetMemberByEmail(ctx, "åsa@example.com"); err != nil {
			t.Errorf("GetMemberByEmail after update failed: %v", err)
		}
	})

	t.Run("admins", func(t *testing.T) {
		store := newStore(t)
		admin := models.NewAdmin("root@example.com", "Root", "hash")
		if err := store.CreateAdmin(ctx, admin); err != nil {
			t.Fatalf("CreateAdmin failed: %v", err)
		}
		if err := store.CreateAdmin(ctx, models.NewAdmin("ROOT@example.com", "Dup", "hash")); !errors.Is(err, storage.ErrConflict) {
			t.Errorf("Expected ErrConflict, got %v", err)
		}

		byEmail, err := store.GetAdminByEmail(ctx, "Root@Example.com")
		if err != nil {
			t.Fatalf("GetAdminByEmail failed: %v", err)
		}
		if byEmail.ID != admin.ID {
			t.Errorf("GetAdminByEmail returned %s, want %s", byEmail.ID, admin.ID)
		}

		byID, err := store.GetAdminByID(ctx, admin.ID)
		if err != nil {
			t.Fatalf("GetAdminByID failed: %v", err)
		}
		if byID.PasswordHash != "hash" {
			t.Errorf("PasswordHash = %s", byID.PasswordHash)
		}

		if _, err := store.GetAdminByID(ctx, "missing"); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound, got %v", err)
		}

		admins, err := store.ListAdmins(ctx)
		if err != nil {
			t.Fatalf("ListAdmins failed: %v", err)
		}
		if len(admins) != 1 {
			t.Errorf("Expected 1 admin, got %d", len(admins))
		}
	})

	t.Run("distribution runs newest first", func(t *testing.T) {
		store := newStore(t)
		if _, err := store.LastDistributionRun(ctx); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on empty log, got %v", err)
		}

		for i, date := range []string{"2025-04-08", "2025-04-09", "2025-04-10"} {
			run := &models.DistributionRun{
				Date:            date,
				Trigger:         models.TriggerSchedule,
				StartedAt:       int64(1000 + i),
				FinishedAt:      int64(1001 + i),
				MembersCredited: i,
				SolarCredited:   decimal.NewFromInt(int64(i)),
			}
			if date == "2025-04-09" {
				run.Error = "boom"
			}
			if err := store.RecordDistributionRun(ctx, run); err != nil {
				t.Fatalf("RecordDistributionRun failed: %v", err)
			}
		}

		runs, err := store.ListDistributionRuns(ctx, 2)
		if err != nil {
			t.Fatalf("ListDistributionRuns failed: %v", err)
		}
		if len(runs) != 2 {
			t.Fatalf("Expected 2 runs, got %d", len(runs))
		}
		if runs[0].Date != "2025-04-10" || runs[1].Date != "2025-04-09" {
			t.Errorf("Unexpected order: %s, %s", runs[0].Date, runs[1].Date)
		}
		if runs[1].Error != "boom" || runs[1].Succeeded() {
			t.Errorf("Expected failed run to keep its error, got %q", runs[1].Error)
		}

		last, err := store.LastDistributionRun(ctx)
		if err != nil {
			t.Fatalf("LastDistributionRun failed: %v", err)
		}
		if last.Date != "2025-04-10" || !last.SolarCredited.Equal(decimal.NewFromInt(2)) {
			t.Errorf("Unexpected last run: %+v", last)
		}
	})

	t.Run("artifacts", func(t *testing.T) {
		store := newStore(t)
		a := &models.Artifact{
			OwnerID:     "owner-1",
			Title:       "Sunrise",
			FileName:    "sunrise.png",
			ContentType: "image/png",
			Size:        42,
			SHA256:      "abc",
			PriceSolar:  decimal.RequireFromString("0.25"),
			HasPreview:  true,
			CreatedAt:   100,
		}
		b := &models.Artifact{
			OwnerID: "owner-2", Title: "Notes", FileName: "notes.txt",
			ContentType: "text/plain", SHA256: "def", PriceSolar: decimal.Zero, CreatedAt: 200,
		}
		for _, art := range []*models.Artifact{a, b} {
			if err := store.CreateArtifact(ctx, art); err != nil {
				t.Fatalf("CreateArtifact failed: %v", err)
			}
		}

		got, err := store.GetArtifact(ctx, a.ID)
		if err != nil {
			t.Fatalf("GetArtifact failed: %v", err)
		}
		if got.Title != "Sunrise" || !got.HasPreview || !got.PriceSolar.Equal(a.PriceSolar) {
			t.Errorf("Unexpected artifact: %+v", got)
		}

		all, err := store.ListArtifacts(ctx, "")
		if err != nil {
			t.Fatalf("ListArtifacts failed: %v", err)
		}
		if len(all) != 2 || all[0].ID != b.ID {
			t.Errorf("Expected newest first, got %v", all)
		}

		owned, err := store.ListArtifacts(ctx, "owner-1")
		if err != nil {
			t.Fatalf("ListArtifacts failed: %v", err)
		}
		if len(owned) != 1 {
			t.Errorf("Expected 1 artifact for owner-1, got %d", len(owned))
		}

		if err := store.DeleteArtifact(ctx, a.ID); err != nil {
			t.Fatalf("DeleteArtifact failed: %v", err)
		}
		if _, err := store.GetArtifact(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound after delete, got %v", err)
		}
		if err := store.DeleteArtifact(ctx, a.ID); !errors.Is(err, storage.ErrNotFound) {
			t.Errorf("Expected ErrNotFound on second delete, got %v", err)
		}
	})
}
