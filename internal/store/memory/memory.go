package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

// Store is the in-memory Repository used by tests and dev mode. Every entity
// carries a version stamp bumped on each write; Apply re-checks the caller's
// expected versions under the write lock, which is what makes optimistic
// retries at the service layer correct.
type Store struct {
	mu       sync.RWMutex
	accounts map[string]domain.Account
	items    map[string]domain.Item
	loans    map[string]domain.Loan
	entries  map[string]domain.LedgerEntry
}

func New() *Store {
	return &Store{
		accounts: make(map[string]domain.Account),
		items:    make(map[string]domain.Item),
		loans:    make(map[string]domain.Loan),
		entries:  make(map[string]domain.LedgerEntry),
	}
}

// NewSeeded returns a store preloaded with the demo shop data set.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, a := range []domain.Account{
		{ID: "cash_in_hand", Name: "Cash in Hand", Kind: domain.AccountCash, Balance: decimal.NewFromInt(5000)},
		{ID: "esewa_wallet", Name: "eSewa Wallet", Kind: domain.AccountWallet, Balance: decimal.NewFromInt(12000)},
		{ID: "nic_asia", Name: "NIC Asia", Kind: domain.AccountBank, Balance: decimal.NewFromInt(150000)},
	} {
		a.Version = 1
		a.CreatedAt = now
		s.accounts[a.ID] = a
	}

	for _, it := range []domain.Item{
		{ID: "item-waiwai", Barcode: "ITEM-3F9A21B4C7D0", Name: "Wai Wai Noodles", Class: domain.ItemProduct, Price: decimal.NewFromInt(25), Cost: decimal.NewFromInt(20), Stock: 80},
		{ID: "item-khukuri", Barcode: "ITEM-8E5D02A1F6B3", Name: "Khukuri Matches", Class: domain.ItemProduct, Price: decimal.NewFromInt(10), Cost: decimal.NewFromInt(7), Stock: 120},
		{ID: "item-cocacola", Barcode: "ITEM-1C4B77E9D2A8", Name: "Coca Cola 500ml", Class: domain.ItemProduct, Price: decimal.NewFromInt(80), Cost: decimal.NewFromInt(65), Stock: 40},
		{ID: "item-recharge", Barcode: "ITEM-9A0F33C8E1D5", Name: "Mobile Recharge", Class: domain.ItemService, Price: decimal.NewFromInt(100), Cost: decimal.NewFromInt(97), Stock: 0},
		{ID: "item-photocopy", Barcode: "ITEM-5D8217F0A4C9", Name: "Photocopy per Page", Class: domain.ItemService, Price: decimal.NewFromInt(5), Cost: decimal.NewFromInt(2), Stock: 0},
	} {
		it.Version = 1
		it.CreatedAt = now
		s.items[it.ID] = it
	}

	return s
}

// ctxErr maps a dead context to the store failure taxonomy before touching
// any state.
func ctxErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return apperrors.ErrTimeout
		}
		return err
	}
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[account.ID]; exists {
		return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "account", account.ID)
	}
	account.Version = 1
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.accounts[account.ID] = account
	created := account
	return &created, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.accounts[id]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrAccountNotFound, "account", id)
	}
	found := account
	return &found, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[item.ID]; exists {
		return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "item", item.ID)
	}
	for _, existing := range s.items {
		if existing.Barcode == item.Barcode {
			return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "barcode", item.Barcode)
		}
	}
	item.Version = 1
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Class == domain.ItemService {
		item.Stock = 0
	}
	s.items[item.ID] = item
	created := item
	return &created, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
	}
	found := item
	return &found, nil
}

func (s *Store) GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.Barcode == barcode {
			found := item
			return &found, nil
		}
	}
	return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "barcode", barcode)
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[item.ID]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "item", item.ID)
	}
	if existing.Version != item.Version {
		return nil, apperrors.WithEntity(apperrors.ErrConflict, "item", item.ID)
	}
	// barcode is immutable once assigned
	item.Barcode = existing.Barcode
	item.CreatedAt = existing.CreatedAt
	if item.Class == domain.ItemService {
		item.Stock = 0
	}
	item.Version = existing.Version + 1
	s.items[item.ID] = item
	updated := item
	return &updated, nil
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
	}
	delete(s.items, id)
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := make([]domain.Item, 0, len(s.items))
	for _, it := range s.items {
		items = append(items, it)
	}
	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.loans[loan.ID]; exists {
		return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "loan", loan.ID)
	}
	loan.Version = 1
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now().UTC()
	}
	s.loans[loan.ID] = loan
	created := loan
	return &created, nil
}

func (s *Store) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	loan, ok := s.loans[id]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
	}
	found := loan
	return &found, nil
}

func (s *Store) UpdateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[loan.ID]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", loan.ID)
	}
	if existing.Version != loan.Version {
		return nil, apperrors.WithEntity(apperrors.ErrConflict, "loan", loan.ID)
	}
	loan.CreatedAt = existing.CreatedAt
	loan.Version = existing.Version + 1
	s.loans[loan.ID] = loan
	updated := loan
	return &updated, nil
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.loans[id]; !ok {
		return apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
	}
	delete(s.loans, id)
	return nil
}

func (s *Store) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	loans := make([]domain.Loan, 0, len(s.loans))
	for _, l := range s.loans {
		loans = append(loans, l)
	}
	sort.Slice(loans, func(i, j int) bool { return loans[i].CreatedAt.After(loans[j].CreatedAt) })
	return loans, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, apperrors.WithEntity(apperrors.ErrEntryNotFound, "entry", id)
	}
	found := copyEntry(entry)
	return &found, nil
}

func (s *Store) ListEntries(ctx context.Context, kind domain.EntryKind, limit int) ([]domain.LedgerEntry, error) {
	if err := ctxErr(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]domain.LedgerEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if kind != "" && e.Kind != kind {
			continue
		}
		entries = append(entries, copyEntry(e))
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID > entries[j].ID
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit < 1 {
		limit = store.DefaultEntryLimit
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// Apply commits one effect set. Order matters: every precondition (versions,
// entity existence, non-negative balances and stock) is checked before the
// first write, so a rejected mutation leaves no trace.
func (s *Store) Apply(ctx context.Context, mu store.Mutation) error {
	if err := ctxErr(ctx); err != nil {
		return err
	}
	if mu.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, version := range mu.ExpectedAccounts {
		account, ok := s.accounts[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrAccountNotFound, "account", id)
		}
		if account.Version != version {
			return apperrors.WithEntity(apperrors.ErrConflict, "account", id)
		}
	}
	for id, version := range mu.ExpectedItems {
		item, ok := s.items[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
		}
		if item.Version != version {
			return apperrors.WithEntity(apperrors.ErrConflict, "item", id)
		}
	}
	for id, version := range mu.ExpectedLoans {
		loan, ok := s.loans[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
		}
		if loan.Version != version {
			return apperrors.WithEntity(apperrors.ErrConflict, "loan", id)
		}
	}
	for id, version := range mu.ExpectedEntries {
		entry, ok := s.entries[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrEntryNotFound, "entry", id)
		}
		if entry.Version != version {
			return apperrors.WithEntity(apperrors.ErrConflict, "entry", id)
		}
	}

	// commit-time re-validation of business preconditions
	for id, delta := range mu.BalanceDeltas {
		account, ok := s.accounts[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrAccountNotFound, "account", id)
		}
		if account.Balance.Add(delta).IsNegative() {
			return apperrors.WithEntity(apperrors.ErrInsufficientFunds, "account", id)
		}
	}
	for id, delta := range mu.StockDeltas {
		item, ok := s.items[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
		}
		if item.Class == domain.ItemService {
			continue
		}
		if item.Stock+delta < 0 {
			return apperrors.WithEntity(apperrors.ErrInsufficientStock, "item", id)
		}
	}
	for id, remaining := range mu.LoanRemaining {
		loan, ok := s.loans[id]
		if !ok {
			return apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
		}
		if remaining.IsNegative() || remaining.GreaterThan(loan.TotalAmount) {
			return apperrors.WithEntity(apperrors.ErrValidation, "loan", id)
		}
	}
	for id := range mu.ItemPrices {
		if _, ok := s.items[id]; !ok {
			return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
		}
	}
	removing := make(map[string]struct{}, len(mu.RemoveEntryIDs))
	for _, id := range mu.RemoveEntryIDs {
		if _, ok := s.entries[id]; !ok {
			return apperrors.WithEntity(apperrors.ErrEntryNotFound, "entry", id)
		}
		removing[id] = struct{}{}
	}
	for _, entry := range mu.AppendEntries {
		if _, exists := s.entries[entry.ID]; exists {
			if _, replaced := removing[entry.ID]; !replaced {
				return apperrors.WithEntity(apperrors.ErrDuplicate, "entry", entry.ID)
			}
		}
	}

	for id, delta := range mu.BalanceDeltas {
		account := s.accounts[id]
		account.Balance = account.Balance.Add(delta)
		account.Version++
		s.accounts[id] = account
	}
	for id, delta := range mu.StockDeltas {
		item := s.items[id]
		if item.Class != domain.ItemService {
			item.Stock += delta
		}
		item.Version++
		s.items[id] = item
	}
	for id, price := range mu.ItemPrices {
		item := s.items[id]
		item.Price = price
		if _, alsoStocked := mu.StockDeltas[id]; !alsoStocked {
			item.Version++
		}
		s.items[id] = item
	}
	for id, remaining := range mu.LoanRemaining {
		loan := s.loans[id]
		loan.RemainingAmount = remaining
		loan.Version++
		s.loans[id] = loan
	}
	// removals first so an edit can re-append under the same id
	for _, id := range mu.RemoveEntryIDs {
		delete(s.entries, id)
	}
	for _, entry := range mu.AppendEntries {
		entry.Version = 1
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		s.entries[entry.ID] = copyEntry(entry)
	}

	return nil
}

func copyEntry(e domain.LedgerEntry) domain.LedgerEntry {
	dup := e
	if len(e.Lines) > 0 {
		dup.Lines = make([]domain.SaleLine, len(e.Lines))
		copy(dup.Lines, e.Lines)
	}
	return dup
}
