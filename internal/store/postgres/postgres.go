package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"

	"pasal/backend/internal/apperrors"
	"pasal/backend/internal/domain"
	"pasal/backend/internal/store"
)

// schema is applied at startup; every statement is idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	id          text PRIMARY KEY,
	name        text NOT NULL,
	kind        text NOT NULL,
	balance     numeric(14,2) NOT NULL DEFAULT 0,
	version     bigint NOT NULL DEFAULT 1,
	created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS items (
	id          text PRIMARY KEY,
	barcode     text NOT NULL UNIQUE,
	name        text NOT NULL,
	class       text NOT NULL,
	price       numeric(14,2) NOT NULL DEFAULT 0,
	cost        numeric(14,2) NOT NULL DEFAULT 0,
	stock       integer NOT NULL DEFAULT 0,
	version     bigint NOT NULL DEFAULT 1,
	created_at  timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS loans (
	id                text PRIMARY KEY,
	debtor_name       text NOT NULL,
	contact           text NOT NULL DEFAULT '',
	total_amount      numeric(14,2) NOT NULL,
	remaining_amount  numeric(14,2) NOT NULL,
	monthly_payment   numeric(14,2) NOT NULL,
	due_date          text NOT NULL,
	notes             text NOT NULL DEFAULT '',
	version           bigint NOT NULL DEFAULT 1,
	created_at        timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS ledger_entries (
	id             text PRIMARY KEY,
	kind           text NOT NULL,
	lines          jsonb,
	subtotal       numeric(14,2) NOT NULL DEFAULT 0,
	discount       numeric(14,2) NOT NULL DEFAULT 0,
	extra_charges  numeric(14,2) NOT NULL DEFAULT 0,
	total          numeric(14,2) NOT NULL DEFAULT 0,
	item_id        text NOT NULL DEFAULT '',
	item_name      text NOT NULL DEFAULT '',
	quantity       integer NOT NULL DEFAULT 0,
	unit_cost      numeric(14,2) NOT NULL DEFAULT 0,
	supplier       text NOT NULL DEFAULT '',
	title          text NOT NULL DEFAULT '',
	category       text NOT NULL DEFAULT '',
	loan_id        text NOT NULL DEFAULT '',
	amount         numeric(14,2) NOT NULL DEFAULT 0,
	account_id     text NOT NULL DEFAULT '',
	version        bigint NOT NULL DEFAULT 1,
	created_at     timestamptz NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_ledger_entries_kind_created
	ON ledger_entries (kind, created_at DESC);
`

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateAccount(ctx context.Context, account domain.Account) (*domain.Account, error) {
	account.Version = 1
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, name, kind, balance, version, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, account.ID, account.Name, string(account.Kind), account.Balance, account.Version, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "account", account.ID)
		}
		return nil, mapErr(err)
	}
	created := account
	return &created, nil
}

func (s *Store) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	account, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, name, kind, balance, version, created_at
		FROM accounts
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WithEntity(apperrors.ErrAccountNotFound, "account", id)
		}
		return nil, mapErr(err)
	}
	return account, nil
}

func (s *Store) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, kind, balance, version, created_at
		FROM accounts
		ORDER BY name
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	accounts := make([]domain.Account, 0, 8)
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return accounts, nil
}

func (s *Store) CreateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	item.Version = 1
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if item.Class == domain.ItemService {
		item.Stock = 0
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, barcode, name, class, price, cost, stock, version, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, item.ID, item.Barcode, item.Name, string(item.Class), item.Price, item.Cost, item.Stock, item.Version, item.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "item", item.ID)
		}
		return nil, mapErr(err)
	}
	created := item
	return &created, nil
}

func (s *Store) GetItem(ctx context.Context, id string) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, barcode, name, class, price, cost, stock, version, created_at
		FROM items
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
		}
		return nil, mapErr(err)
	}
	return item, nil
}

func (s *Store) GetItemByBarcode(ctx context.Context, barcode string) (*domain.Item, error) {
	item, err := scanItem(s.db.QueryRowContext(ctx, `
		SELECT id, barcode, name, class, price, cost, stock, version, created_at
		FROM items
		WHERE barcode = $1
	`, barcode))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "barcode", barcode)
		}
		return nil, mapErr(err)
	}
	return item, nil
}

func (s *Store) UpdateItem(ctx context.Context, item domain.Item) (*domain.Item, error) {
	if item.Class == domain.ItemService {
		item.Stock = 0
	}

	// barcode and created_at never change; the version predicate is the
	// optimistic check.
	updated, err := scanItem(s.db.QueryRowContext(ctx, `
		UPDATE items
		SET name = $2, class = $3, price = $4, cost = $5, stock = $6, version = version + 1
		WHERE id = $1 AND version = $7
		RETURNING id, barcode, name, class, price, cost, stock, version, created_at
	`, item.ID, item.Name, string(item.Class), item.Price, item.Cost, item.Stock, item.Version))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapErr(err)
	}

	// no row matched: distinguish a missing item from a stale version
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM items WHERE id = $1)`, item.ID).Scan(&exists); err != nil {
		return nil, mapErr(err)
	}
	if !exists {
		return nil, apperrors.WithEntity(apperrors.ErrItemNotFound, "item", item.ID)
	}
	return nil, apperrors.WithEntity(apperrors.ErrConflict, "item", item.ID)
}

func (s *Store) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
	}
	return nil
}

func (s *Store) ListItems(ctx context.Context) ([]domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, barcode, name, class, price, cost, stock, version, created_at
		FROM items
		ORDER BY lower(name)
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0, 64)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return items, nil
}

func (s *Store) CreateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	loan.Version = 1
	if loan.CreatedAt.IsZero() {
		loan.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO loans (
			id, debtor_name, contact, total_amount, remaining_amount,
			monthly_payment, due_date, notes, version, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, loan.ID, loan.DebtorName, loan.Contact, loan.TotalAmount, loan.RemainingAmount,
		loan.MonthlyPayment, loan.DueDate, loan.Notes, loan.Version, loan.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperrors.WithEntity(apperrors.ErrDuplicate, "loan", loan.ID)
		}
		return nil, mapErr(err)
	}
	created := loan
	return &created, nil
}

func (s *Store) GetLoan(ctx context.Context, id string) (*domain.Loan, error) {
	loan, err := scanLoan(s.db.QueryRowContext(ctx, `
		SELECT id, debtor_name, contact, total_amount, remaining_amount,
			monthly_payment, due_date, notes, version, created_at
		FROM loans
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
		}
		return nil, mapErr(err)
	}
	return loan, nil
}

func (s *Store) UpdateLoan(ctx context.Context, loan domain.Loan) (*domain.Loan, error) {
	updated, err := scanLoan(s.db.QueryRowContext(ctx, `
		UPDATE loans
		SET debtor_name = $2, contact = $3, total_amount = $4, remaining_amount = $5,
			monthly_payment = $6, due_date = $7, notes = $8, version = version + 1
		WHERE id = $1 AND version = $9
		RETURNING id, debtor_name, contact, total_amount, remaining_amount,
			monthly_payment, due_date, notes, version, created_at
	`, loan.ID, loan.DebtorName, loan.Contact, loan.TotalAmount, loan.RemainingAmount,
		loan.MonthlyPayment, loan.DueDate, loan.Notes, loan.Version))
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, mapErr(err)
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`, loan.ID).Scan(&exists); err != nil {
		return nil, mapErr(err)
	}
	if !exists {
		return nil, apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", loan.ID)
	}
	return nil, apperrors.WithEntity(apperrors.ErrConflict, "loan", loan.ID)
}

func (s *Store) DeleteLoan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM loans WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
	}
	return nil
}

func (s *Store) ListLoans(ctx context.Context) ([]domain.Loan, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, debtor_name, contact, total_amount, remaining_amount,
			monthly_payment, due_date, notes, version, created_at
		FROM loans
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	loans := make([]domain.Loan, 0, 16)
	for rows.Next() {
		loan, err := scanLoan(rows)
		if err != nil {
			return nil, err
		}
		loans = append(loans, *loan)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return loans, nil
}

func (s *Store) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	entry, err := scanEntry(s.db.QueryRowContext(ctx, `
		SELECT id, kind, lines, subtotal, discount, extra_charges, total,
			item_id, item_name, quantity, unit_cost, supplier,
			title, category, loan_id, amount, account_id, version, created_at
		FROM ledger_entries
		WHERE id = $1
	`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.WithEntity(apperrors.ErrEntryNotFound, "entry", id)
		}
		return nil, mapErr(err)
	}
	return entry, nil
}

func (s *Store) ListEntries(ctx context.Context, kind domain.EntryKind, limit int) ([]domain.LedgerEntry, error) {
	if limit < 1 {
		limit = store.DefaultEntryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, lines, subtotal, discount, extra_charges, total,
			item_id, item_name, quantity, unit_cost, supplier,
			title, category, loan_id, amount, account_id, version, created_at
		FROM ledger_entries
		WHERE ($1 = '' OR kind = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, string(kind), limit)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	entries := make([]domain.LedgerEntry, 0, limit)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr(err)
	}
	return entries, nil
}

// Apply commits one effect set in a serializable transaction. Touched rows
// are locked and version-checked first, then the deltas land; any failed
// precondition rolls the whole thing back. Serialization failures surface as
// ErrConflict so the orchestrator retries from fresh reads.
func (s *Store) Apply(ctx context.Context, mu store.Mutation) error {
	if mu.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := checkVersions(ctx, tx, "accounts", "account", apperrors.ErrAccountNotFound, mu.ExpectedAccounts); err != nil {
		return err
	}
	if err := checkVersions(ctx, tx, "items", "item", apperrors.ErrItemNotFound, mu.ExpectedItems); err != nil {
		return err
	}
	if err := checkVersions(ctx, tx, "loans", "loan", apperrors.ErrLoanNotFound, mu.ExpectedLoans); err != nil {
		return err
	}
	if err := checkVersions(ctx, tx, "ledger_entries", "entry", apperrors.ErrEntryNotFound, mu.ExpectedEntries); err != nil {
		return err
	}

	for id, delta := range mu.BalanceDeltas {
		var balance decimal.Decimal
		err := tx.QueryRowContext(ctx, `
			UPDATE accounts
			SET balance = balance + $2, version = version + 1
			WHERE id = $1
			RETURNING balance
		`, id, delta).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WithEntity(apperrors.ErrAccountNotFound, "account", id)
			}
			return mapErr(err)
		}
		if balance.IsNegative() {
			return apperrors.WithEntity(apperrors.ErrInsufficientFunds, "account", id)
		}
	}

	for id, delta := range mu.StockDeltas {
		var class string
		var stock int
		err := tx.QueryRowContext(ctx, `
			UPDATE items
			SET stock = CASE WHEN class = 'service' THEN 0 ELSE stock + $2 END,
				version = version + 1
			WHERE id = $1
			RETURNING class, stock
		`, id, delta).Scan(&class, &stock)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
			}
			return mapErr(err)
		}
		if class != string(domain.ItemService) && stock < 0 {
			return apperrors.WithEntity(apperrors.ErrInsufficientStock, "item", id)
		}
	}

	for id, price := range mu.ItemPrices {
		// the stock update above already bumped the version for items
		// touched by both maps
		_, alsoStocked := mu.StockDeltas[id]
		bump := 1
		if alsoStocked {
			bump = 0
		}
		res, err := tx.ExecContext(ctx, `
			UPDATE items
			SET price = $2, version = version + $3
			WHERE id = $1
		`, id, price, bump)
		if err != nil {
			return mapErr(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperrors.WithEntity(apperrors.ErrItemNotFound, "item", id)
		}
	}

	for id, remaining := range mu.LoanRemaining {
		var total decimal.Decimal
		err := tx.QueryRowContext(ctx, `
			UPDATE loans
			SET remaining_amount = $2, version = version + 1
			WHERE id = $1
			RETURNING total_amount
		`, id, remaining).Scan(&total)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WithEntity(apperrors.ErrLoanNotFound, "loan", id)
			}
			return mapErr(err)
		}
		if remaining.IsNegative() || remaining.GreaterThan(total) {
			return apperrors.WithEntity(apperrors.ErrValidation, "loan", id)
		}
	}

	// removals first so an edit can re-insert under the same id
	for _, id := range mu.RemoveEntryIDs {
		res, err := tx.ExecContext(ctx, `DELETE FROM ledger_entries WHERE id = $1`, id)
		if err != nil {
			return mapErr(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			return apperrors.WithEntity(apperrors.ErrEntryNotFound, "entry", id)
		}
	}

	for _, entry := range mu.AppendEntries {
		entry.Version = 1
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = time.Now().UTC()
		}
		var linesJSON any
		if len(entry.Lines) > 0 {
			raw, err := json.Marshal(entry.Lines)
			if err != nil {
				return err
			}
			linesJSON = raw
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ledger_entries (
				id, kind, lines, subtotal, discount, extra_charges, total,
				item_id, item_name, quantity, unit_cost, supplier,
				title, category, loan_id, amount, account_id, version, created_at
			)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)
		`, entry.ID, string(entry.Kind), linesJSON, entry.Subtotal, entry.Discount, entry.ExtraCharges, entry.Total,
			entry.ItemID, entry.ItemName, entry.Quantity, entry.UnitCost, entry.Supplier,
			entry.Title, entry.Category, entry.LoanID, entry.Amount, entry.AccountID, entry.Version, entry.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return apperrors.WithEntity(apperrors.ErrDuplicate, "entry", entry.ID)
			}
			return mapErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return mapErr(err)
	}
	return nil
}

// checkVersions locks the named rows and compares their versions against the
// caller's expectations.
func checkVersions(ctx context.Context, tx *sql.Tx, table string, entity string, notFound error, expected map[string]int64) error {
	for id, version := range expected {
		var current int64
		err := tx.QueryRowContext(ctx, `SELECT version FROM `+table+` WHERE id = $1 FOR UPDATE`, id).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.WithEntity(notFound, entity, id)
			}
			return mapErr(err)
		}
		if current != version {
			return apperrors.WithEntity(apperrors.ErrConflict, entity, id)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*domain.Account, error) {
	var account domain.Account
	var kind string
	if err := row.Scan(&account.ID, &account.Name, &kind, &account.Balance, &account.Version, &account.CreatedAt); err != nil {
		return nil, err
	}
	account.Kind = domain.AccountKind(kind)
	account.CreatedAt = account.CreatedAt.UTC()
	return &account, nil
}

func scanItem(row rowScanner) (*domain.Item, error) {
	var item domain.Item
	var class string
	if err := row.Scan(&item.ID, &item.Barcode, &item.Name, &class, &item.Price, &item.Cost, &item.Stock, &item.Version, &item.CreatedAt); err != nil {
		return nil, err
	}
	item.Class = domain.ItemClass(class)
	item.CreatedAt = item.CreatedAt.UTC()
	return &item, nil
}

func scanLoan(row rowScanner) (*domain.Loan, error) {
	var loan domain.Loan
	if err := row.Scan(&loan.ID, &loan.DebtorName, &loan.Contact, &loan.TotalAmount, &loan.RemainingAmount,
		&loan.MonthlyPayment, &loan.DueDate, &loan.Notes, &loan.Version, &loan.CreatedAt); err != nil {
		return nil, err
	}
	loan.CreatedAt = loan.CreatedAt.UTC()
	return &loan, nil
}

func scanEntry(row rowScanner) (*domain.LedgerEntry, error) {
	var entry domain.LedgerEntry
	var kind string
	var linesRaw []byte
	if err := row.Scan(&entry.ID, &kind, &linesRaw, &entry.Subtotal, &entry.Discount, &entry.ExtraCharges, &entry.Total,
		&entry.ItemID, &entry.ItemName, &entry.Quantity, &entry.UnitCost, &entry.Supplier,
		&entry.Title, &entry.Category, &entry.LoanID, &entry.Amount, &entry.AccountID, &entry.Version, &entry.CreatedAt); err != nil {
		return nil, err
	}
	entry.Kind = domain.EntryKind(kind)
	entry.CreatedAt = entry.CreatedAt.UTC()
	if len(linesRaw) > 0 {
		if err := json.Unmarshal(linesRaw, &entry.Lines); err != nil {
			return nil, err
		}
	}
	return &entry, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// mapErr translates driver failures into the store error taxonomy:
// serialization and deadlock aborts become retryable conflicts, a dead
// deadline becomes a timeout.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.ErrTimeout
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return apperrors.ErrConflict
		}
	}
	return err
}
