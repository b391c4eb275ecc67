package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

func TestApplyRejectsStaleVersion(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	account, err := s.GetAccount(ctx, "cash_in_hand")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}

	mu := store.Mutation{
		ExpectedAccounts: map[string]int64{account.ID: account.Version + 1},
		BalanceDeltas:    map[string]decimal.Decimal{account.ID: decimal.NewFromInt(10)},
	}
	if err := s.Apply(ctx, mu); !errors.Is(err, apperrors.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	after, err := s.GetAccount(ctx, "cash_in_hand")
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !after.Balance.Equal(account.Balance) {
		t.Fatalf("expected balance untouched after rejected mutation")
	}
}

func TestApplyAllOrNothing(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	account, _ := s.GetAccount(ctx, "cash_in_hand")
	item, _ := s.GetItem(ctx, "item-cocacola")

	// valid balance delta combined with an impossible stock delta
	mu := store.Mutation{
		ExpectedAccounts: map[string]int64{account.ID: account.Version},
		ExpectedItems:    map[string]int64{item.ID: item.Version},
		BalanceDeltas:    map[string]decimal.Decimal{account.ID: decimal.NewFromInt(100)},
		StockDeltas:      map[string]int{item.ID: -(item.Stock + 1)},
	}
	if err := s.Apply(ctx, mu); !errors.Is(err, apperrors.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	after, _ := s.GetAccount(ctx, "cash_in_hand")
	if !after.Balance.Equal(account.Balance) {
		t.Fatalf("expected balance untouched when a sibling effect fails")
	}
	itemAfter, _ := s.GetItem(ctx, "item-cocacola")
	if itemAfter.Stock != item.Stock {
		t.Fatalf("expected stock untouched, got %d", itemAfter.Stock)
	}
}

func TestApplyBumpsVersions(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	account, _ := s.GetAccount(ctx, "esewa_wallet")
	mu := store.Mutation{
		ExpectedAccounts: map[string]int64{account.ID: account.Version},
		BalanceDeltas:    map[string]decimal.Decimal{account.ID: decimal.NewFromInt(-500)},
	}
	if err := s.Apply(ctx, mu); err != nil {
		t.Fatalf("apply failed: %v", err)
	}

	after, _ := s.GetAccount(ctx, "esewa_wallet")
	if after.Version != account.Version+1 {
		t.Fatalf("expected version bump %d -> %d, got %d", account.Version, account.Version+1, after.Version)
	}
	if !after.Balance.Equal(decimal.NewFromInt(11500)) {
		t.Fatalf("expected balance 11500, got %s", after.Balance)
	}
}

func TestApplyReplacesEntryUnderSameID(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	original := domain.LedgerEntry{
		ID:     "txn-edit-target",
		Kind:   domain.EntryExpense,
		Title:  "Old title",
		Amount: decimal.NewFromInt(100),
	}
	if err := s.Apply(ctx, store.Mutation{AppendEntries: []domain.LedgerEntry{original}}); err != nil {
		t.Fatalf("seed entry: %v", err)
	}
	stored, err := s.GetEntry(ctx, original.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}

	replacement := original
	replacement.Title = "New title"
	replacement.Amount = decimal.NewFromInt(250)
	mu := store.Mutation{
		ExpectedEntries: map[string]int64{original.ID: stored.Version},
		RemoveEntryIDs:  []string{original.ID},
		AppendEntries:   []domain.LedgerEntry{replacement},
	}
	if err := s.Apply(ctx, mu); err != nil {
		t.Fatalf("replace failed: %v", err)
	}

	after, err := s.GetEntry(ctx, original.ID)
	if err != nil {
		t.Fatalf("get replaced entry: %v", err)
	}
	if after.Title != "New title" || !after.Amount.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("expected replacement content, got %+v", after)
	}
}

func TestApplyDuplicateEntryRejected(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	entry := domain.LedgerEntry{ID: "txn-dup", Kind: domain.EntryExpense, Amount: decimal.NewFromInt(10)}
	if err := s.Apply(ctx, store.Mutation{AppendEntries: []domain.LedgerEntry{entry}}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.Apply(ctx, store.Mutation{AppendEntries: []domain.LedgerEntry{entry}}); !errors.Is(err, apperrors.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestDeadContextMapsToTimeout(t *testing.T) {
	s := NewSeeded()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if _, err := s.GetAccount(ctx, "cash_in_hand"); !errors.Is(err, apperrors.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

func TestUpdateItemKeepsBarcode(t *testing.T) {
	s := NewSeeded()
	ctx := context.Background()

	item, _ := s.GetItem(ctx, "item-waiwai")
	edit := *item
	edit.Barcode = "ITEM-FORGED00000"
	edit.Name = "Wai Wai Chicken"

	updated, err := s.UpdateItem(ctx, edit)
	if err != nil {
		t.Fatalf("update item: %v", err)
	}
	if updated.Barcode != item.Barcode {
		t.Fatalf("expected barcode %s preserved, got %s", item.Barcode, updated.Barcode)
	}
	if updated.Version != item.Version+1 {
		t.Fatalf("expected version bump, got %d", updated.Version)
	}
}

func TestListEntriesNewestFirstWithLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		entry := domain.LedgerEntry{
			ID:        "txn-" + string(rune('a'+i)),
			Kind:      domain.EntryExpense,
			Amount:    decimal.NewFromInt(int64(i + 1)),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.Apply(ctx, store.Mutation{AppendEntries: []domain.LedgerEntry{entry}}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := s.ListEntries(ctx, domain.EntryExpense, 3)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].ID != "txn-e" || entries[2].ID != "txn-c" {
		t.Fatalf("expected newest first, got %s .. %s", entries[0].ID, entries[2].ID)
	}
}

func TestListEntriesDefaultLimit(t *testing.T) {
	s := New()
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < store.DefaultEntryLimit+5; i++ {
		entry := domain.LedgerEntry{
			ID:        fmt.Sprintf("txn-%03d", i),
			Kind:      domain.EntryExpense,
			Amount:    decimal.NewFromInt(1),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := s.Apply(ctx, store.Mutation{AppendEntries: []domain.LedgerEntry{entry}}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	entries, err := s.ListEntries(ctx, "", 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != store.DefaultEntryLimit {
		t.Fatalf("expected %d entries for unset limit, got %d", store.DefaultEntryLimit, len(entries))
	}
}
