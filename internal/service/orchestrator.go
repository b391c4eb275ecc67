package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

// RecordSale resolves the cart, debits stock for every product line and
// credits the payment account with the sale total, all in one commit. The
// appended entry snapshots line names and prices so later item edits or
// deletions never change recorded history.
func (s *Service) RecordSale(ctx context.Context, req domain.SaleRequest) (*domain.LedgerEntry, error) {
	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		e := newEffects()
		entry, err := s.buildSale(ctx, e, req, newID("txn"), time.Now().UTC())
		if err != nil {
			return store.Mutation{}, err
		}
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		recorded = entry
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// RecordPurchase restocks one item and debits the paying account with
// quantity * unit cost. An optional selling price updates the item's price
// in the same commit, the way restocking often re-prices the shelf.
func (s *Service) RecordPurchase(ctx context.Context, req domain.PurchaseRequest) (*domain.LedgerEntry, error) {
	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		e := newEffects()
		entry, err := s.buildPurchase(ctx, e, req, newID("txn"), time.Now().UTC())
		if err != nil {
			return store.Mutation{}, err
		}
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		recorded = entry
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// RecordExpense debits the paying account and appends the expense entry.
// The account is debited exactly once, whichever way it was referenced.
func (s *Service) RecordExpense(ctx context.Context, req domain.ExpenseRequest) (*domain.LedgerEntry, error) {
	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		e := newEffects()
		entry, err := s.buildExpense(ctx, e, req, newID("txn"), time.Now().UTC())
		if err != nil {
			return store.Mutation{}, err
		}
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		recorded = entry
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

// DeleteEntry removes a ledger entry and reverses its balance, stock and
// loan effects in the same commit, so the books read as if the entry had
// never been recorded. Reversal of money already spent can fail with
// insufficient funds; nothing is changed in that case.
func (s *Service) DeleteEntry(ctx context.Context, id string) error {
	return s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		entry, err := s.repo.GetEntry(ctx, id)
		if err != nil {
			return store.Mutation{}, err
		}

		e := newEffects()
		if err := s.reverseEntry(ctx, e, entry); err != nil {
			return store.Mutation{}, err
		}
		e.remove(entry)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		return e.mu, nil
	})
}

// EditEntry replaces an existing entry with new values of the same kind. The
// old effects are reversed and the new ones applied in one commit, against
// the combined deltas, so an edit behaves exactly like delete-then-record
// without the window where neither version exists. The entry keeps its id
// and original timestamp.
func (s *Service) EditEntry(ctx context.Context, id string, req domain.EntryEditRequest) (*domain.LedgerEntry, error) {
	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		entry, err := s.repo.GetEntry(ctx, id)
		if err != nil {
			return store.Mutation{}, err
		}

		e := newEffects()
		if err := s.reverseEntry(ctx, e, entry); err != nil {
			return store.Mutation{}, err
		}

		var next domain.LedgerEntry
		switch entry.Kind {
		case domain.EntrySale:
			if req.Sale == nil {
				return store.Mutation{}, apperrors.Validation("entry %s is a sale; sale payload required", id)
			}
			next, err = s.buildSale(ctx, e, *req.Sale, entry.ID, entry.CreatedAt)
		case domain.EntryPurchase:
			if req.Purchase == nil {
				return store.Mutation{}, apperrors.Validation("entry %s is a purchase; purchase payload required", id)
			}
			next, err = s.buildPurchase(ctx, e, *req.Purchase, entry.ID, entry.CreatedAt)
		case domain.EntryExpense:
			if req.Expense == nil {
				return store.Mutation{}, apperrors.Validation("entry %s is an expense; expense payload required", id)
			}
			next, err = s.buildExpense(ctx, e, *req.Expense, entry.ID, entry.CreatedAt)
		case domain.EntryLoanPayment:
			if req.LoanPayment == nil {
				return store.Mutation{}, apperrors.Validation("entry %s is a loan payment; loan payment payload required", id)
			}
			next, err = s.buildLoanPayment(ctx, e, entry.LoanID, *req.LoanPayment, entry.ID, entry.CreatedAt)
		default:
			return store.Mutation{}, apperrors.Validation("entries of kind %s cannot be edited; delete and re-record instead", entry.Kind)
		}
		if err != nil {
			return store.Mutation{}, err
		}

		e.remove(entry)
		if err := e.validate(); err != nil {
			return store.Mutation{}, err
		}
		recorded = next
		return e.mu, nil
	})
	if err != nil {
		return nil, err
	}
	return &recorded, nil
}

func (s *Service) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return s.repo.GetEntry(ctx, id)
}

// ListLedger returns entries newest first, optionally filtered by kind, with
// the summed monetary value (sale total, otherwise entry amount).
func (s *Service) ListLedger(ctx context.Context, kind domain.EntryKind, limit int) (domain.LedgerListResponse, error) {
	if kind != "" && !kind.Valid() {
		return domain.LedgerListResponse{}, apperrors.Validation("unknown entry kind %q", kind)
	}
	entries, err := s.repo.ListEntries(ctx, kind, limit)
	if err != nil {
		return domain.LedgerListResponse{}, err
	}
	resp := domain.LedgerListResponse{Entries: entries}
	for _, entry := range entries {
		resp.Total = resp.Total.Add(entryAmount(entry))
	}
	return resp, nil
}

// entryAmount is the monetary value of an entry for reporting.
func entryAmount(entry domain.LedgerEntry) decimal.Decimal {
	if entry.Kind == domain.EntrySale {
		return entry.Total
	}
	return entry.Amount
}

// buildSale folds a sale's forward effects into e and returns the entry to
// append. id and at are supplied by the caller so edits can keep both.
func (s *Service) buildSale(ctx context.Context, e *effects, req domain.SaleRequest, id string, at time.Time) (domain.LedgerEntry, error) {
	if len(req.Cart) == 0 {
		return domain.LedgerEntry{}, apperrors.Validation("cart must not be empty")
	}
	if req.Discount.IsNegative() {
		return domain.LedgerEntry{}, apperrors.Validation("discount must not be negative")
	}
	if req.ExtraCharges.IsNegative() {
		return domain.LedgerEntry{}, apperrors.Validation("extra charges must not be negative")
	}

	lines := make([]domain.SaleLine, 0, len(req.Cart))
	subtotal := decimal.Zero
	for _, cartLine := range req.Cart {
		if cartLine.Quantity <= 0 {
			return domain.LedgerEntry{}, apperrors.Validation("line quantity must be positive")
		}
		item, err := s.resolveCartCode(ctx, strings.TrimSpace(cartLine.Code))
		if err != nil {
			return domain.LedgerEntry{}, err
		}
		e.addStock(item, -cartLine.Quantity)
		lines = append(lines, domain.SaleLine{
			ItemID:    item.ID,
			Barcode:   item.Barcode,
			Name:      item.Name,
			Class:     item.Class,
			UnitPrice: item.Price,
			Quantity:  cartLine.Quantity,
		})
		subtotal = subtotal.Add(item.Price.Mul(decimal.NewFromInt(int64(cartLine.Quantity))))
	}

	total := subtotal.Sub(req.Discount).Add(req.ExtraCharges)
	if total.IsNegative() {
		return domain.LedgerEntry{}, apperrors.Validation("discount exceeds sale value")
	}

	account, err := s.resolvePaymentAccount(ctx, req.PaymentMethod, req.AccountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.addBalance(account, total)

	return domain.LedgerEntry{
		ID:           id,
		Kind:         domain.EntrySale,
		Lines:        lines,
		Subtotal:     subtotal,
		Discount:     req.Discount,
		ExtraCharges: req.ExtraCharges,
		Total:        total,
		AccountID:    account.ID,
		CreatedAt:    at,
	}, nil
}

func (s *Service) buildPurchase(ctx context.Context, e *effects, req domain.PurchaseRequest, id string, at time.Time) (domain.LedgerEntry, error) {
	if req.Quantity <= 0 {
		return domain.LedgerEntry{}, apperrors.Validation("purchase quantity must be positive")
	}
	if req.UnitCost.IsNegative() {
		return domain.LedgerEntry{}, apperrors.Validation("unit cost must not be negative")
	}

	item, err := s.repo.GetItem(ctx, req.ItemID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.addStock(item, req.Quantity)
	if req.SellingPrice != nil {
		if !req.SellingPrice.IsPositive() {
			return domain.LedgerEntry{}, apperrors.Validation("selling price must be positive")
		}
		e.setPrice(item, *req.SellingPrice)
	}

	amount := req.UnitCost.Mul(decimal.NewFromInt(int64(req.Quantity)))
	account, err := s.resolvePaymentAccount(ctx, req.PaymentMethod, req.AccountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.addBalance(account, amount.Neg())

	return domain.LedgerEntry{
		ID:        id,
		Kind:      domain.EntryPurchase,
		ItemID:    item.ID,
		ItemName:  item.Name,
		Quantity:  req.Quantity,
		UnitCost:  req.UnitCost,
		Supplier:  strings.TrimSpace(req.Supplier),
		Amount:    amount,
		AccountID: account.ID,
		CreatedAt: at,
	}, nil
}

func (s *Service) buildExpense(ctx context.Context, e *effects, req domain.ExpenseRequest, id string, at time.Time) (domain.LedgerEntry, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return domain.LedgerEntry{}, apperrors.Validation("expense title required")
	}
	if !req.Amount.IsPositive() {
		return domain.LedgerEntry{}, apperrors.Validation("expense amount must be positive")
	}

	account, err := s.resolvePaymentAccount(ctx, req.PaymentMethod, req.AccountID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	e.addBalance(account, req.Amount.Neg())

	return domain.LedgerEntry{
		ID:        id,
		Kind:      domain.EntryExpense,
		Title:     title,
		Category:  strings.TrimSpace(req.Category),
		Amount:    req.Amount,
		AccountID: account.ID,
		CreatedAt: at,
	}, nil
}

// buildLoanPayment validates against the effective remaining amount, which
// already reflects any reversal folded into e by an edit.
func (s *Service) buildLoanPayment(ctx context.Context, e *effects, loanID string, req domain.LoanPaymentRequest, id string, at time.Time) (domain.LedgerEntry, error) {
	if !req.Amount.IsPositive() {
		return domain.LedgerEntry{}, apperrors.Validation("payment amount must be positive")
	}
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return domain.LedgerEntry{}, err
	}
	remaining := e.remainingFor(loan)
	if req.Amount.GreaterThan(remaining) {
		return domain.LedgerEntry{}, apperrors.WithEntity(apperrors.ErrPaymentExceedsRemaining, "loan", loan.ID)
	}
	e.setLoanRemaining(loan, remaining.Sub(req.Amount))

	return domain.LedgerEntry{
		ID:        id,
		Kind:      domain.EntryLoanPayment,
		LoanID:    loan.ID,
		Amount:    req.Amount,
		CreatedAt: at,
	}, nil
}

// reverseEntry folds the exact inverse of an entry's recorded effects into
// e. Items deleted since the entry was recorded are skipped: there is no
// stock row left to restore. A loan deleted since its payment was recorded
// is skipped the same way.
func (s *Service) reverseEntry(ctx context.Context, e *effects, entry *domain.LedgerEntry) error {
	switch entry.Kind {
	case domain.EntrySale:
		for _, line := range entry.Lines {
			item, err := s.repo.GetItem(ctx, line.ItemID)
			if errors.Is(err, apperrors.ErrItemNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			e.addStock(item, line.Quantity)
		}
		return s.reverseBalance(ctx, e, entry.AccountID, entry.Total.Neg())

	case domain.EntryPurchase:
		item, err := s.repo.GetItem(ctx, entry.ItemID)
		if err == nil {
			e.addStock(item, -entry.Quantity)
		} else if !errors.Is(err, apperrors.ErrItemNotFound) {
			return err
		}
		return s.reverseBalance(ctx, e, entry.AccountID, entry.Amount)

	case domain.EntryExpense:
		return s.reverseBalance(ctx, e, entry.AccountID, entry.Amount)

	case domain.EntryDeposit:
		return s.reverseBalance(ctx, e, entry.AccountID, entry.Amount.Neg())

	case domain.EntryWithdrawal:
		return s.reverseBalance(ctx, e, entry.AccountID, entry.Amount)

	case domain.EntryLoanPayment:
		loan, err := s.repo.GetLoan(ctx, entry.LoanID)
		if errors.Is(err, apperrors.ErrLoanNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		restored := e.remainingFor(loan).Add(entry.Amount)
		if restored.GreaterThan(loan.TotalAmount) {
			restored = loan.TotalAmount
		}
		e.setLoanRemaining(loan, restored)
		return nil
	}
	return apperrors.Validation("unknown entry kind %q", entry.Kind)
}

func (s *Service) reverseBalance(ctx context.Context, e *effects, accountID string, delta decimal.Decimal) error {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return err
	}
	e.addBalance(account, delta)
	return nil
}

// remainingFor is the loan's remaining amount as this effect set sees it:
// the pending override when one was folded in, the snapshot otherwise.
func (e *effects) remainingFor(loan *domain.Loan) decimal.Decimal {
	if remaining, ok := e.mu.LoanRemaining[loan.ID]; ok {
		return remaining
	}
	return loan.RemainingAmount
}
