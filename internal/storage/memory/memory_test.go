package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/currentsee/internal/models"
	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/storetest"
)

func TestMemoryStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		return New()
	})
}

func TestReturnedMembersAreCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	m := storetest.NewMember("lee", time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC))
	if err := s.CreateMember(ctx, m); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	m.Name = "mutated after insert"
	got, err := s.GetMember(ctx, m.ID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if got.Name == "mutated after insert" {
		t.Error("store shares state with the caller's struct")
	}

	got.Name = "mutated after read"
	again, _ := s.GetMember(ctx, m.ID)
	if again.Name == "mutated after read" {
		t.Error("store shares state with returned struct")
	}
}

func TestOnChangeFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	joined := time.Date(2025, 4, 7, 0, 0, 0, 0, time.UTC)
	ada := storetest.NewMember("ada", joined)
	if err := s.CreateMember(ctx, ada); err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	s.OnChange(func() error { return errors.New("disk full") })

	mia := storetest.NewMember("mia", joined)
	if err := s.CreateMember(ctx, mia); err == nil {
		t.Error("expected persist failure to surface")
	}
	if _, err := s.GetMember(ctx, mia.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected unsaved member to be rolled back, got %v", err)
	}

	renamed := *ada
	renamed.Name = "Ada King"
	if err := s.UpdateMember(ctx, &renamed); err == nil {
		t.Error("expected persist failure to surface")
	}
	got, err := s.GetMember(ctx, ada.ID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if got.Name != ada.Name {
		t.Errorf("Name = %q after failed update, want %q", got.Name, ada.Name)
	}

	credit := models.MemberCredit{MemberID: ada.ID, DaysCredited: 2, TotalSolar: decimal.NewFromInt(3)}
	if _, err := s.ApplyDistribution(ctx, "2025-04-09", []models.MemberCredit{credit}); err == nil {
		t.Error("expected persist failure to surface")
	}
	got, _ = s.GetMember(ctx, ada.ID)
	if !got.TotalSolar.Equal(decimal.NewFromInt(1)) || got.LastDistributionDate != "2025-04-07" {
		t.Errorf("Balance moved after failed apply: %s on %s", got.TotalSolar, got.LastDistributionDate)
	}
}
