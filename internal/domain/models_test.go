package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoanStatusDerivation(t *testing.T) {
	today := time.Date(2026, 8, 28, 14, 30, 0, 0, time.UTC)

	cases := []struct {
		name string
		loan Loan
		want string
	}{
		{
			name: "settled wins even when overdue",
			loan: Loan{RemainingAmount: decimal.Zero, DueDate: "2026-01-01"},
			want: LoanStatusSettled,
		},
		{
			name: "past due date",
			loan: Loan{RemainingAmount: decimal.NewFromInt(100), DueDate: "2026-08-27"},
			want: LoanStatusOverdue,
		},
		{
			name: "due today",
			loan: Loan{RemainingAmount: decimal.NewFromInt(100), DueDate: "2026-08-28"},
			want: LoanStatusDueToday,
		},
		{
			name: "future due date",
			loan: Loan{RemainingAmount: decimal.NewFromInt(100), DueDate: "2026-09-01"},
			want: LoanStatusCurrent,
		},
		{
			name: "unparseable date falls back to current",
			loan: Loan{RemainingAmount: decimal.NewFromInt(100), DueDate: "someday"},
			want: LoanStatusCurrent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.loan.Status(today); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestEntryKindValid(t *testing.T) {
	for _, kind := range []EntryKind{EntrySale, EntryPurchase, EntryExpense, EntryLoanPayment, EntryDeposit, EntryWithdrawal} {
		if !kind.Valid() {
			t.Fatalf("expected %s to be valid", kind)
		}
	}
	if EntryKind("refund").Valid() {
		t.Fatalf("expected unknown kind to be invalid")
	}
}
