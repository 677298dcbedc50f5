package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/meridianwealth/ledger/internal/interfaces"
	"github.com/meridianwealth/ledger/internal/models"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Compile-time interface check
var _ interfaces.TransactionStore = (*TransactionStore)(nil)

// TransactionStore persists ledger rows. When tx is set the store writes
// inside an open transaction scope, wrapping each write in a savepoint so a
// row-specific failure never poisons the scope.
type TransactionStore struct {
	db querier
	tx pgx.Tx
}

const txColumns = `id, transaction_date, trade_date, settlement_date, transaction_type,
	security_id, quantity, price, amount, fee, tax, description, reference,
	entry_status, master_account_id, client_account_id, client_profile_id,
	created_at, updated_at`

// scanTransaction reads one row in txColumns order.
func scanTransaction(row pgx.Row) (*models.Transaction, error) {
	var tx models.Transaction
	err := row.Scan(
		&tx.ID, &tx.TransactionDate, &tx.TradeDate, &tx.SettlementDate, &tx.Type,
		&tx.SecurityID, &tx.Quantity, &tx.Price, &tx.Amount, &tx.Fee, &tx.Tax,
		&tx.Description, &tx.Reference,
		&tx.EntryStatus, &tx.MasterAccountID, &tx.ClientAccountID, &tx.ClientProfileID,
		&tx.CreatedAt, &tx.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

// mapError translates driver errors into the domain taxonomy.
func mapError(err error, entity, id string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return &models.NotFoundError{Entity: entity, ID: id}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &models.ConflictError{Reason: "unique constraint violated: " + pgErr.ConstraintName}
		case "23514":
			return &models.ConflictError{Reason: "check constraint violated: " + pgErr.ConstraintName}
		}
	}
	return err
}

func insertTransaction(ctx context.Context, q querier, tx *models.Transaction) error {
	_, err := q.Exec(ctx, `
		INSERT INTO transactions (
			id, transaction_date, trade_date, settlement_date, transaction_type,
			security_id, quantity, price, amount, fee, tax, description, reference,
			entry_status, master_account_id, client_account_id, client_profile_id,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)`,
		tx.ID, tx.TransactionDate, tx.TradeDate, tx.SettlementDate, tx.Type,
		tx.SecurityID, tx.Quantity, tx.Price, tx.Amount, tx.Fee, tx.Tax,
		tx.Description, tx.Reference,
		tx.EntryStatus, tx.MasterAccountID, tx.ClientAccountID, tx.ClientProfileID,
		tx.CreatedAt, tx.UpdatedAt,
	)
	return err
}

func (s *TransactionStore) Create(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	if s.tx != nil {
		// Savepoint: a failed row rolls back alone, the scope stays open.
		sp, err := s.tx.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}
		if err := insertTransaction(ctx, sp, tx); err != nil {
			_ = sp.Rollback(ctx)
			return nil, mapError(err, "transaction", tx.ID)
		}
		if err := sp.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to release savepoint: %w", err)
		}
		return tx.Clone(), nil
	}

	if err := insertTransaction(ctx, s.db, tx); err != nil {
		return nil, mapError(err, "transaction", tx.ID)
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) GetByID(ctx context.Context, id string) (*models.Transaction, error) {
	row := s.db.QueryRow(ctx, `SELECT `+txColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(err, "transaction", id)
	}
	return tx, nil
}

func (s *TransactionStore) Update(ctx context.Context, tx *models.Transaction) (*models.Transaction, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE transactions SET
			transaction_date = $2, trade_date = $3, settlement_date = $4,
			transaction_type = $5, security_id = $6, quantity = $7, price = $8,
			amount = $9, fee = $10, tax = $11, description = $12, reference = $13,
			entry_status = $14, updated_at = $15
		WHERE id = $1`,
		tx.ID, tx.TransactionDate, tx.TradeDate, tx.SettlementDate,
		tx.Type, tx.SecurityID, tx.Quantity, tx.Price,
		tx.Amount, tx.Fee, tx.Tax, tx.Description, tx.Reference,
		tx.EntryStatus, tx.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err, "transaction", tx.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, &models.NotFoundError{Entity: "transaction", ID: tx.ID}
	}
	return tx.Clone(), nil
}

func (s *TransactionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	if err != nil {
		return mapError(err, "transaction", id)
	}
	if tag.RowsAffected() == 0 {
		return &models.NotFoundError{Entity: "transaction", ID: id}
	}
	return nil
}

func (s *TransactionStore) Find(ctx context.Context, filter models.TransactionFilter, opts interfaces.FindOptions) ([]*models.Transaction, int, error) {
	where, args := buildWhere(filter)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM transactions`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	query := `SELECT ` + txColumns + ` FROM transactions` + where +
		` ORDER BY transaction_date DESC, seq DESC`
	if opts.Limit > 0 {
		page := opts.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", opts.Limit, (page-1)*opts.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var result []*models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan transaction: %w", err)
		}
		result = append(result, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (s *TransactionStore) FindByNaturalKey(ctx context.Context, key models.NaturalKey) (*models.Transaction, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+txColumns+` FROM transactions
		WHERE transaction_date = $1
		  AND transaction_type = $2
		  AND amount = $3
		  AND master_account_id IS NOT DISTINCT FROM $4
		  AND client_account_id IS NOT DISTINCT FROM $5
		  AND security_id IS NOT DISTINCT FROM $6
		LIMIT 1`,
		key.TransactionDate, key.Type, key.Amount,
		key.MasterAccountID, key.ClientAccountID, key.SecurityID,
	)
	tx, err := scanTransaction(row)
	if err != nil {
		return nil, mapError(err, "transaction", "natural key")
	}
	return tx, nil
}

func (s *TransactionStore) UpdateStatus(ctx context.Context, filter models.TransactionFilter, status models.EntryStatus) (int, error) {
	where, args := buildWhere(filter)
	args = append(args, status)
	tag, err := s.db.Exec(ctx,
		fmt.Sprintf(`UPDATE transactions SET entry_status = $%d, updated_at = now()%s`, len(args), where),
		args...)
	if err != nil {
		return 0, mapError(err, "transaction", "")
	}
	return int(tag.RowsAffected()), nil
}

func (s *TransactionStore) DeleteMatching(ctx context.Context, filter models.TransactionFilter) (int, error) {
	where, args := buildWhere(filter)
	tag, err := s.db.Exec(ctx, `DELETE FROM transactions`+where, args...)
	if err != nil {
		return 0, mapError(err, "transaction", "")
	}
	return int(tag.RowsAffected()), nil
}

// buildWhere renders the composed repository predicate. The scope renders
// first: admin adds nothing, an organization scope becomes a profile
// subquery, a profile allow-list becomes ANY, and an empty scope matches
// nothing.
func buildWhere(f models.TransactionFilter) (string, []any) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch {
	case f.Scope.All:
		// no scoping predicate
	case f.Scope.OrganizationID != "":
		conds = append(conds, `client_profile_id IN (SELECT id FROM client_profiles WHERE organization_id = `+arg(f.Scope.OrganizationID)+`)`)
	case len(f.Scope.ProfileIDs) > 0:
		conds = append(conds, `client_profile_id = ANY(`+arg(f.Scope.ProfileIDs)+`)`)
	default:
		conds = append(conds, `FALSE`)
	}

	if len(f.IDs) > 0 {
		conds = append(conds, `id = ANY(`+arg(f.IDs)+`)`)
	}
	if f.MasterAccountID != nil {
		conds = append(conds, `master_account_id = `+arg(*f.MasterAccountID))
	}
	if f.ClientAccountID != nil {
		conds = append(conds, `client_account_id = `+arg(*f.ClientAccountID))
	}
	if f.StartDate != nil {
		conds = append(conds, `transaction_date >= `+arg(*f.StartDate))
	}
	if f.EndDate != nil {
		conds = append(conds, `transaction_date <= `+arg(*f.EndDate))
	}
	if f.Type != nil {
		conds = append(conds, `transaction_type = `+arg(*f.Type))
	}
	if f.Status != nil {
		conds = append(conds, `entry_status = `+arg(*f.Status))
	}
	if f.SecurityID != nil {
		conds = append(conds, `security_id = `+arg(*f.SecurityID))
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
