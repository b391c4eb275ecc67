package service

import (
	"context"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

func (s *Service) CreateAccount(ctx context.Context, req domain.AccountCreateRequest) (*domain.Account, error) {
	if req.Name == "" {
		return nil, apperrors.Validation("account name required")
	}
	if !req.Kind.Valid() {
		return nil, apperrors.Validation("account kind must be cash, wallet or bank")
	}
	if req.OpeningBalance.IsNegative() {
		return nil, apperrors.Validation("opening balance must not be negative")
	}

	account := domain.Account{
		ID:        slug(req.Name),
		Name:      req.Name,
		Kind:      req.Kind,
		Balance:   req.OpeningBalance,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	s.invalidateProjections(ctx)
	return created, nil
}

func (s *Service) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// AdjustBalance is the single-account primitive: a signed delta applied with
// conflict detection, no ledger entry. Orchestrated operations do not call
// it; they fold the same delta into their own effect set so the entry and
// the balance change commit together.
func (s *Service) AdjustBalance(ctx context.Context, accountID string, delta decimal.Decimal, op domain.BalanceOp) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return store.Mutation{}, err
		}
		if err := checkBalanceOp(account, delta, op); err != nil {
			return store.Mutation{}, err
		}

		e := newEffects()
		e.addBalance(account, delta)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		newBalance = account.Balance.Add(delta)
		return e.mu, nil
	})
	if err != nil {
		return decimal.Zero, err
	}
	return newBalance, nil
}

// checkBalanceOp enforces the account-kind rules: cash accounts accept sale
// credits and purchase/expense debits but refuse explicit withdrawals;
// credits are never rejected; debit-style ops must not overdraw.
func checkBalanceOp(account *domain.Account, delta decimal.Decimal, op domain.BalanceOp) error {
	if op == domain.OpWithdraw && account.Kind == domain.AccountCash {
		return apperrors.WithEntity(apperrors.ErrCashWithdrawal, "account", account.ID)
	}
	if delta.IsNegative() && account.Balance.Add(delta).IsNegative() {
		return apperrors.WithEntity(apperrors.ErrInsufficientFunds, "account", account.ID)
	}
	return nil
}

// Deposit credits an account and appends the matching ledger entry in one
// commit, mirroring the original bank page's deposit flow.
func (s *Service) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, apperrors.Validation("deposit amount must be positive")
	}

	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return store.Mutation{}, err
		}

		recorded = domain.LedgerEntry{
			ID:        newID("txn"),
			Kind:      domain.EntryDeposit,
			Amount:    amount,
			AccountID: account.ID,
			CreatedAt: time.Now().UTC(),
		}

		e := newEffects()
		e.addBalance(account, amount)
		e.append(recorded)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// Withdraw debits a wallet or bank account. Cash-in-hand refuses the
// operation outright; overdrafts are rejected before any write.
func (s *Service) Withdraw(ctx context.Context, accountID string, amount decimal.Decimal) (*domain.LedgerEntry, error) {
	if !amount.IsPositive() {
		return nil, apperrors.Validation("withdrawal amount must be positive")
	}

	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		account, err := s.repo.GetAccount(ctx, accountID)
		if err != nil {
			return store.Mutation{}, err
		}
		if err := checkBalanceOp(account, amount.Neg(), domain.OpWithdraw); err != nil {
			return store.Mutation{}, err
		}

		recorded = domain.LedgerEntry{
			ID:        newID("txn"),
			Kind:      domain.EntryWithdrawal,
			Amount:    amount,
			AccountID: account.ID,
			CreatedAt: time.Now().UTC(),
		}

		e := newEffects()
		e.addBalance(account, amount.Neg())
		e.append(recorded)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// AccountTotals sums balances per account kind; capital is the grand total.
func (s *Service) AccountTotals(ctx context.Context) (domain.AccountTotals, error) {
	var totals domain.AccountTotals
	if hit, err := s.cache.Get(ctx, cacheKeyAccountTotals, &totals); err == nil && hit {
		return totals, nil
	}

	accounts, err := s.repo.ListAccounts(ctx)
	if err != nil {
		return domain.AccountTotals{}, err
	}
	for _, account := range accounts {
		switch account.Kind {
		case domain.AccountCash:
			totals.TotalCash = totals.TotalCash.Add(account.Balance)
		case domain.AccountWallet:
			totals.TotalWallet = totals.TotalWallet.Add(account.Balance)
		case domain.AccountBank:
			totals.TotalBank = totals.TotalBank.Add(account.Balance)
		}
		totals.Capital = totals.Capital.Add(account.Balance)
	}

	if err := s.cache.Set(ctx, cacheKeyAccountTotals, totals, s.projTTL); err != nil {
		log.Printf("[service] WARN: failed to cache account totals: %v", err)
	}
	return totals, nil
}
