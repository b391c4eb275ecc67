package service

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

func (s *Service) CreateLoan(ctx context.Context, req domain.LoanCreateRequest) (*domain.Loan, error) {
	req.DebtorName = strings.TrimSpace(req.DebtorName)
	if req.DebtorName == "" {
		return nil, apperrors.Validation("debtor name required")
	}
	if !req.TotalAmount.IsPositive() {
		return nil, apperrors.Validation("loan total amount must be positive")
	}
	if !req.MonthlyPayment.IsPositive() {
		return nil, apperrors.Validation("monthly payment must be positive")
	}
	if _, err := time.Parse(domain.DueDateLayout, req.DueDate); err != nil {
		return nil, apperrors.Validation("due date must be YYYY-MM-DD")
	}

	loan := domain.Loan{
		ID:              newID("loan"),
		DebtorName:      req.DebtorName,
		Contact:         strings.TrimSpace(req.Contact),
		TotalAmount:     req.TotalAmount,
		RemainingAmount: req.TotalAmount,
		MonthlyPayment:  req.MonthlyPayment,
		DueDate:         req.DueDate,
		Notes:           strings.TrimSpace(req.Notes),
		CreatedAt:       time.Now().UTC(),
	}
	created, err := s.repo.CreateLoan(ctx, loan)
	if err != nil {
		return nil, err
	}
	s.invalidateProjections(ctx)
	return created, nil
}

// UpdateLoan edits loan master data. The remaining amount is preserved:
// raising the total re-opens a settled loan, lowering it clamps the
// remaining amount so 0 <= remaining <= total keeps holding.
func (s *Service) UpdateLoan(ctx context.Context, id string, req domain.LoanUpdateRequest) (*domain.Loan, error) {
	for attempt := 0; attempt < commitAttempts; attempt++ {
		existing, err := s.repo.GetLoan(ctx, id)
		if err != nil {
			return nil, err
		}

		next := *existing
		if req.DebtorName != nil {
			name := strings.TrimSpace(*req.DebtorName)
			if name == "" {
				return nil, apperrors.Validation("debtor name required")
			}
			next.DebtorName = name
		}
		if req.Contact != nil {
			next.Contact = strings.TrimSpace(*req.Contact)
		}
		if req.TotalAmount != nil {
			if !req.TotalAmount.IsPositive() {
				return nil, apperrors.Validation("loan total amount must be positive")
			}
			next.TotalAmount = *req.TotalAmount
			if next.RemainingAmount.GreaterThan(next.TotalAmount) {
				next.RemainingAmount = next.TotalAmount
			}
		}
		if req.MonthlyPayment != nil {
			if !req.MonthlyPayment.IsPositive() {
				return nil, apperrors.Validation("monthly payment must be positive")
			}
			next.MonthlyPayment = *req.MonthlyPayment
		}
		if req.DueDate != nil {
			if _, err := time.Parse(domain.DueDateLayout, *req.DueDate); err != nil {
				return nil, apperrors.Validation("due date must be YYYY-MM-DD")
			}
			next.DueDate = *req.DueDate
		}
		if req.Notes != nil {
			next.Notes = strings.TrimSpace(*req.Notes)
		}

		updated, err := s.repo.UpdateLoan(ctx, next)
		if err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				continue
			}
			return nil, err
		}
		s.invalidateProjections(ctx)
		return updated, nil
	}
	return nil, apperrors.WithEntity(apperrors.ErrConflict, "loan", id)
}

func (s *Service) DeleteLoan(ctx context.Context, id string) error {
	if err := s.repo.DeleteLoan(ctx, id); err != nil {
		return err
	}
	s.invalidateProjections(ctx)
	return nil
}

func (s *Service) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

// ListLoans returns all loans with their derived status for the given day.
func (s *Service) ListLoans(ctx context.Context, today time.Time) ([]domain.LoanOverview, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return nil, err
	}
	overviews := make([]domain.LoanOverview, 0, len(loans))
	for _, loan := range loans {
		overviews = append(overviews, domain.LoanOverview{Loan: loan, Status: loan.Status(today)})
	}
	return overviews, nil
}

// checkLoanPayment validates a payment against a loan snapshot.
func checkLoanPayment(loan *domain.Loan, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return apperrors.Validation("payment amount must be positive")
	}
	if amount.GreaterThan(loan.RemainingAmount) {
		return apperrors.WithEntity(apperrors.ErrPaymentExceedsRemaining, "loan", loan.ID)
	}
	return nil
}

// RecordLoanPayment decrements the loan's remaining amount and appends the
// payment ledger entry in one commit. Loan payments carry no account or
// stock effect.
func (s *Service) RecordLoanPayment(ctx context.Context, loanID string, req domain.LoanPaymentRequest) (*domain.LedgerEntry, error) {
	var recorded domain.LedgerEntry
	err := s.commit(ctx, func(ctx context.Context) (store.Mutation, error) {
		loan, err := s.repo.GetLoan(ctx, loanID)
		if err != nil {
			return store.Mutation{}, err
		}
		if err := checkLoanPayment(loan, req.Amount); err != nil {
			return store.Mutation{}, err
		}

		recorded = domain.LedgerEntry{
			ID:        newID("txn"),
			Kind:      domain.EntryLoanPayment,
			LoanID:    loan.ID,
			Amount:    req.Amount,
			CreatedAt: time.Now().UTC(),
		}

		e := newEffects()
		e.setLoanRemaining(loan, loan.RemainingAmount.Sub(req.Amount))
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

// LoanSummary is the read-only loan projection: total outstanding plus each
// loan with its derived status.
func (s *Service) LoanSummary(ctx context.Context, today time.Time) (domain.LoanSummary, error) {
	var summary domain.LoanSummary
	if hit, err := s.cache.Get(ctx, cacheKeyLoanSummary, &summary); err == nil && hit {
		return summary, nil
	}

	overviews, err := s.ListLoans(ctx, today)
	if err != nil {
		return domain.LoanSummary{}, err
	}
	summary.Loans = overviews
	for _, o := range overviews {
		summary.Outstanding = summary.Outstanding.Add(o.Loan.RemainingAmount)
	}

	if err := s.cache.Set(ctx, cacheKeyLoanSummary, summary, s.projTTL); err != nil {
		log.Printf("[service] WARN: failed to cache loan summary: %v", err)
	}
	return summary, nil
}
