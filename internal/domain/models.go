package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountKind string

const (
	AccountCash   AccountKind = "cash"
	AccountWallet AccountKind = "wallet"
	AccountBank   AccountKind = "bank"
)

func (k AccountKind) Valid() bool {
	return k == AccountCash || k == AccountWallet || k == AccountBank
}

// Account is a monetary account (cash drawer, mobile wallet, bank).
// Balance is only ever changed through orchestrated signed adjustments;
// Version is bumped by the store on every write.
type Account struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Kind      AccountKind     `json:"kind"`
	Balance   decimal.Decimal `json:"balance"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

type AccountCreateRequest struct {
	Name           string          `json:"name"`
	Kind           AccountKind     `json:"kind"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

// BalanceOp declares the caller's intent for a balance adjustment.
// Cash accounts refuse explicit withdrawals but accept debits that
// settle a purchase or expense.
type BalanceOp string

const (
	OpDeposit    BalanceOp = "deposit"
	OpWithdraw   BalanceOp = "withdraw"
	OpSaleCredit BalanceOp = "sale_credit"
	OpDebit      BalanceOp = "debit"
	OpRefund     BalanceOp = "refund"
)

type ItemClass string

const (
	ItemProduct ItemClass = "product"
	ItemService ItemClass = "service"
)

func (c ItemClass) Valid() bool {
	return c == ItemProduct || c == ItemService
}

// Item is an inventory record. Barcode is assigned at creation and never
// changes. Service items carry no stock; their Stock field is pinned to 0.
type Item struct {
	ID        string          `json:"id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Class     ItemClass       `json:"class"`
	Price     decimal.Decimal `json:"price"`
	Cost      decimal.Decimal `json:"cost"`
	Stock     int             `json:"stock"`
	Version   int64           `json:"version"`
	CreatedAt time.Time       `json:"created_at"`
}

type ItemCreateRequest struct {
	Name  string          `json:"name"`
	Class ItemClass       `json:"class"`
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"cost"`
	Stock int             `json:"stock"`
}

type ItemUpdateRequest struct {
	Name  *string          `json:"name,omitempty"`
	Class *ItemClass       `json:"class,omitempty"`
	Price *decimal.Decimal `json:"price,omitempty"`
	Cost  *decimal.Decimal `json:"cost,omitempty"`
	Stock *int             `json:"stock,omitempty"`
}

type Loan struct {
	ID              string          `json:"id"`
	DebtorName      string          `json:"debtor_name"`
	Contact         string          `json:"contact,omitempty"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	MonthlyPayment  decimal.Decimal `json:"monthly_payment"`
	DueDate         string          `json:"due_date"`
	Notes           string          `json:"notes,omitempty"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
}

const (
	LoanStatusSettled  = "settled"
	LoanStatusOverdue  = "overdue"
	LoanStatusDueToday = "dueToday"
	LoanStatusCurrent  = "current"
)

// DueDateLayout is the stored form of Loan.DueDate.
const DueDateLayout = "2006-01-02"

// Status derives the loan state for a given day; it is never stored.
func (l Loan) Status(today time.Time) string {
	if l.RemainingAmount.LessThanOrEqual(decimal.Zero) {
		return LoanStatusSettled
	}
	due, err := time.Parse(DueDateLayout, l.DueDate)
	if err != nil {
		return LoanStatusCurrent
	}
	day := today.Truncate(24 * time.Hour)
	due = due.Truncate(24 * time.Hour)
	switch {
	case due.Before(day):
		return LoanStatusOverdue
	case due.Equal(day):
		return LoanStatusDueToday
	default:
		return LoanStatusCurrent
	}
}

type LoanCreateRequest struct {
	DebtorName     string          `json:"debtor_name"`
	Contact        string          `json:"contact"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	MonthlyPayment decimal.Decimal `json:"monthly_payment"`
	DueDate        string          `json:"due_date"`
	Notes          string          `json:"notes"`
}

type LoanUpdateRequest struct {
	DebtorName     *string          `json:"debtor_name,omitempty"`
	Contact        *string          `json:"contact,omitempty"`
	TotalAmount    *decimal.Decimal `json:"total_amount,omitempty"`
	MonthlyPayment *decimal.Decimal `json:"monthly_payment,omitempty"`
	DueDate        *string          `json:"due_date,omitempty"`
	Notes          *string          `json:"notes,omitempty"`
}

type EntryKind string

const (
	EntrySale        EntryKind = "sale"
	EntryPurchase    EntryKind = "purchase"
	EntryExpense     EntryKind = "expense"
	EntryLoanPayment EntryKind = "loan_payment"
	EntryDeposit     EntryKind = "deposit"
	EntryWithdrawal  EntryKind = "withdrawal"
)

func (k EntryKind) Valid() bool {
	switch k {
	case EntrySale, EntryPurchase, EntryExpense, EntryLoanPayment, EntryDeposit, EntryWithdrawal:
		return true
	}
	return false
}

// SaleLine snapshots one cart line at record time. Name, barcode and unit
// price are denormalized so the ledger stays readable after item edits or
// deletion.
type SaleLine struct {
	ItemID    string          `json:"item_id"`
	Barcode   string          `json:"barcode"`
	Name      string          `json:"name"`
	Class     ItemClass       `json:"class"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// LedgerEntry is the append-only record of one financial or stock-affecting
// event. Which fields are set depends on Kind; every entry was produced by a
// successful orchestrated operation and its balance/stock effect is already
// applied when the entry becomes visible.
type LedgerEntry struct {
	ID   string    `json:"id"`
	Kind EntryKind `json:"kind"`

	// sale
	Lines        []SaleLine      `json:"lines,omitempty"`
	Subtotal     decimal.Decimal `json:"subtotal,omitempty"`
	Discount     decimal.Decimal `json:"discount,omitempty"`
	ExtraCharges decimal.Decimal `json:"extra_charges,omitempty"`
	Total        decimal.Decimal `json:"total,omitempty"`

	// purchase
	ItemID   string          `json:"item_id,omitempty"`
	ItemName string          `json:"item_name,omitempty"`
	Quantity int             `json:"quantity,omitempty"`
	UnitCost decimal.Decimal `json:"unit_cost,omitempty"`
	Supplier string          `json:"supplier,omitempty"`

	// expense
	Title    string `json:"title,omitempty"`
	Category string `json:"category,omitempty"`

	// loan payment
	LoanID string `json:"loan_id,omitempty"`

	// expense / loan payment / deposit / withdrawal amount,
	// total cost for purchases
	Amount decimal.Decimal `json:"amount,omitempty"`

	// account the money moved through (empty for loan payments)
	AccountID string `json:"account_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	Version   int64     `json:"version"`
}

type CartLine struct {
	Code     string `json:"code"` // barcode or item id
	Quantity int    `json:"quantity"`
}

type SaleRequest struct {
	Cart          []CartLine      `json:"cart"`
	Discount      decimal.Decimal `json:"discount"`
	ExtraCharges  decimal.Decimal `json:"extra_charges"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
}

type PurchaseRequest struct {
	ItemID        string           `json:"item_id"`
	Quantity      int              `json:"quantity"`
	UnitCost      decimal.Decimal  `json:"unit_cost"`
	SellingPrice  *decimal.Decimal `json:"selling_price,omitempty"`
	Supplier      string           `json:"supplier"`
	PaymentMethod string           `json:"payment_method,omitempty"`
	AccountID     string           `json:"account_id,omitempty"`
}

type ExpenseRequest struct {
	Title         string          `json:"title"`
	Category      string          `json:"category"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method,omitempty"`
	AccountID     string          `json:"account_id,omitempty"`
}

type LoanPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// EntryEditRequest carries replacement values for an existing ledger entry.
// Exactly the field matching the entry's kind must be set; the orchestrator
// reverses the prior effect and applies the new one in a single commit.
type EntryEditRequest struct {
	Sale        *SaleRequest        `json:"sale,omitempty"`
	Purchase    *PurchaseRequest    `json:"purchase,omitempty"`
	Expense     *ExpenseRequest     `json:"expense,omitempty"`
	LoanPayment *LoanPaymentRequest `json:"loan_payment,omitempty"`
}

// AccountTotals is the read-only balance projection for the dashboard.
type AccountTotals struct {
	TotalCash   decimal.Decimal `json:"total_cash"`
	TotalWallet decimal.Decimal `json:"total_wallet"`
	TotalBank   decimal.Decimal `json:"total_bank"`
	Capital     decimal.Decimal `json:"capital"`
}

type StockLevel struct {
	ItemID  string    `json:"item_id"`
	Barcode string    `json:"barcode"`
	Name    string    `json:"name"`
	Class   ItemClass `json:"class"`
	Stock   int       `json:"stock"`
}

type LoanOverview struct {
	Loan   Loan   `json:"loan"`
	Status string `json:"status"`
}

type LoanSummary struct {
	Outstanding decimal.Decimal `json:"outstanding"`
	Loans       []LoanOverview  `json:"loans"`
}

type LedgerListResponse struct {
	Entries []LedgerEntry   `json:"entries"`
	Total   decimal.Decimal `json:"total"`
}
