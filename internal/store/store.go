package store

import (
	"context"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/domain"
)

// Mutation is one atomic effect set: signed balance and stock deltas, loan
// remaining-amount replacements, ledger appends/removals, and the entity
// versions the caller computed them from. A store either applies the whole
// mutation or none of it. A version mismatch at commit time rejects with
// apperrors.ErrConflict so the orchestrator can rebuild from fresh reads.
type Mutation struct {
	ExpectedAccounts map[string]int64
	ExpectedItems    map[string]int64
	ExpectedLoans    map[string]int64
	ExpectedEntries  map[string]int64

	BalanceDeltas map[string]decimal.Decimal
	StockDeltas   map[string]int
	LoanRemaining map[string]decimal.Decimal
	ItemPrices    map[string]decimal.Decimal

	AppendEntries  []domain.LedgerEntry
	RemoveEntryIDs []string
}

// Empty reports whether the mutation carries no effect at all.
func (m Mutation) Empty() bool {
	return len(m.BalanceDeltas) == 0 && len(m.StockDeltas) == 0 &&
		len(m.LoanRemaining) == 0 && len(m.ItemPrices) == 0 &&
		len(m.AppendEntries) == 0 && len(m.RemoveEntryIDs) == 0
}

// Repository is the persistence collaborator. Single-entity reads return
// version-stamped snapshots; every cross-entity write goes through Apply.
// DefaultEntryLimit caps ledger listings when the caller passes no limit, so
// every Repository implementation pages the same way.
const DefaultEntryLimit = 100

type Repository interface {
	CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context) ([]domain.Account, error)

	CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	GetItem(ctx context.Context, id string) (*domain.Item, error)
	GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error)
	UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error)
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context) ([]domain.Item, error)

	CreateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error)
	GetLoan(ctx context.Context, id string) (*domain.Loan, error)
	UpdateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, id string) error
	ListLoans(ctx context.Context) ([]domain.Loan, error)

	GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error)
	ListEntries(ctx context.Context, kind domain.EntryKind, limit int) ([]domain.LedgerEntry, error)

	// Apply commits the mutation atomically, re-validating non-negative
	// balances and stock at commit time.
	Apply(ctx context.Context, mu Mutation) error
}
