package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/cache"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/scan"
	"pasal/backend/internal/store"
)

const (
	commitAttempts = 3
	retryBackoff   = 25 * time.Millisecond

	cacheKeyAccountTotals = "proj:account-totals"
	cacheKeyStockLevels   = "proj:stock-levels"
	cacheKeyLoanSummary   = "proj:loan-summary"
)

// Service is the transaction orchestrator: the only writer of cross-entity
// effects. Account, item and loan primitives never call each other; every
// multi-entity mutation is assembled here and committed through a single
// store.Apply.
type Service struct {
	repo      store.Repository
	cache     cache.ProjectionCache
	decoder   scan.Decoder
	payments  map[string]string
	opTimeout time.Duration
	projTTL   time.Duration
}

// New wires the orchestrator. payments maps payment-method labels to account
// ids (validated at startup); opTimeout bounds every persistence round-trip.
func New(repo store.Repository, projections cache.ProjectionCache, decoder scan.Decoder, payments map[string]string, opTimeout time.Duration, projTTL time.Duration) *Service {
	if projections == nil {
		projections = cache.NoopProjectionCache{}
	}
	if decoder == nil {
		decoder = scan.NoopDecoder{}
	}
	if opTimeout <= 0 {
		opTimeout = 5 * time.Second
	}
	if projTTL <= 0 {
		projTTL = 30 * time.Second
	}
	normalized := make(map[string]string, len(payments))
	for label, accountID := range payments {
		normalized[strings.ToLower(strings.TrimSpace(label))] = accountID
	}
	return &Service{
		repo:      repo,
		cache:     projections,
		decoder:   decoder,
		payments:  normalized,
		opTimeout: opTimeout,
		projTTL:   projTTL,
	}
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// slug derives a stable account id from its display name, the way the
// original operators named them (e.g. "Cash in Hand" -> cash_in_hand).
func slug(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(name))), "_")
}

// commit runs one logical operation: build the effect set from fresh reads,
// submit it, and rebuild from scratch when a concurrent writer bumped a
// version underneath us. Validation inside build is idempotent, so retrying
// the whole closure is always safe. Attempts are bounded; the last conflict
// surfaces to the caller.
func (s *Service) commit(ctx context.Context, build func(context.Context) (store.Mutation, error)) error {
	ctx, cancel := context.WithTimeout(ctx, s.opTimeout)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < commitAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(time.Duration(attempt) * retryBackoff):
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return apperrors.ErrTimeout
				}
				return ctx.Err()
			}
		}

		mu, err := build(ctx)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				lastErr = err
				continue
			}
			return err
		}

		if err := s.repo.Apply(ctx, mu); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				lastErr = err
				continue
			}
			return err
		}

		s.invalidateProjections(ctx)
		return nil
	}
	return lastErr
}

func (s *Service) invalidateProjections(ctx context.Context) {
	err := s.cache.Invalidate(ctx, cacheKeyAccountTotals, cacheKeyStockLevels, cacheKeyLoanSummary)
	if err != nil {
		log.Printf("[service] WARN: projection cache invalidation failed: %v", err)
	}
}

// resolvePaymentAccount turns a request's payment reference into an account
// snapshot. An explicit account id wins; otherwise the configured
// payment-method mapping is consulted.
func (s *Service) resolvePaymentAccount(ctx context.Context, method string, accountID string) (*domain.Account, error) {
	if accountID == "" {
		label := strings.ToLower(strings.TrimSpace(method))
		if label == "" {
			return nil, apperrors.Validation("payment account or method required")
		}
		mapped, ok := s.payments[label]
		if !ok {
			return nil, apperrors.Validation("unknown payment method %q", method)
		}
		accountID = mapped
	}
	return s.repo.GetAccount(ctx, accountID)
}

// effects accumulates one atomic mutation together with the snapshots it was
// derived from, so preconditions can be checked against the combined deltas
// before anything is submitted.
type effects struct {
	mu       store.Mutation
	accounts map[string]*domain.Account
	items    map[string]*domain.Item
	loans    map[string]*domain.Loan
}

func newEffects() *effects {
	return &effects{
		mu: store.Mutation{
			ExpectedAccounts: make(map[string]int64),
			ExpectedItems:    make(map[string]int64),
			ExpectedLoans:    make(map[string]int64),
			ExpectedEntries:  make(map[string]int64),
			BalanceDeltas:    make(map[string]decimal.Decimal),
			StockDeltas:      make(map[string]int),
			LoanRemaining:    make(map[string]decimal.Decimal),
			ItemPrices:       make(map[string]decimal.Decimal),
		},
		accounts: make(map[string]*domain.Account),
		items:    make(map[string]*domain.Item),
		loans:    make(map[string]*domain.Loan),
	}
}

func (e *effects) addBalance(account *domain.Account, delta decimal.Decimal) {
	e.accounts[account.ID] = account
	e.mu.ExpectedAccounts[account.ID] = account.Version
	e.mu.BalanceDeltas[account.ID] = e.mu.BalanceDeltas[account.ID].Add(delta)
}

func (e *effects) addStock(item *domain.Item, delta int) {
	e.items[item.ID] = item
	e.mu.ExpectedItems[item.ID] = item.Version
	if item.Class == domain.ItemService {
		return
	}
	e.mu.StockDeltas[item.ID] += delta
}

func (e *effects) expectItem(item *domain.Item) {
	e.items[item.ID] = item
	e.mu.ExpectedItems[item.ID] = item.Version
}

func (e *effects) setPrice(item *domain.Item, price decimal.Decimal) {
	e.items[item.ID] = item
	e.mu.ExpectedItems[item.ID] = item.Version
	e.mu.ItemPrices[item.ID] = price
}

func (e *effects) setLoanRemaining(loan *domain.Loan, remaining decimal.Decimal) {
	e.loans[loan.ID] = loan
	e.mu.ExpectedLoans[loan.ID] = loan.Version
	e.mu.LoanRemaining[loan.ID] = remaining
}

func (e *effects) append(entry domain.LedgerEntry) {
	e.mu.AppendEntries = append(e.mu.AppendEntries, entry)
}

func (e *effects) remove(entry *domain.LedgerEntry) {
	e.mu.ExpectedEntries[entry.ID] = entry.Version
	e.mu.RemoveEntryIDs = append(e.mu.RemoveEntryIDs, entry.ID)
}

// validate checks the combined effect set against the snapshots it was built
// from: no account may go negative, no product stock may go below zero. This
// is the before-any-write business validation; the store re-checks the same
// conditions at commit time.
func (e *effects) validate() error {
	for id, delta := range e.mu.BalanceDeltas {
		account := e.accounts[id]
		if account.Balance.Add(delta).IsNegative() {
			return apperrors.WithEntity(apperrors.ErrInsufficientFunds, "account", id)
		}
	}
	for id, delta := range e.mu.StockDeltas {
		item := e.items[id]
		if item.Class == domain.ItemService {
			continue
		}
		if item.Stock+delta < 0 {
			return apperrors.WithEntity(apperrors.ErrInsufficientStock, "item", id)
		}
	}
	for id, remaining := range e.mu.LoanRemaining {
		loan := e.loans[id]
		if remaining.IsNegative() {
			return apperrors.WithEntity(apperrors.ErrPaymentExceedsRemaining, "loan", id)
		}
		if remaining.GreaterThan(loan.TotalAmount) {
			return fmt.Errorf("%w: loan %s remaining above total", apperrors.ErrValidation, id)
		}
	}
	return nil
}
