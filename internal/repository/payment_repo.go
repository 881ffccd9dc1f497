package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
	"github.com/Dan9191/bank-autopay/internal/utils"
	"github.com/google/uuid"
)

const paymentColumns = `id, user_id, type, target_id, amount, status, scheduled_date, processed_at, error_message, created_at`

// CreatePayments inserts pending payments in a single transaction
func (r *Repository) CreatePayments(ctx context.Context, payments []*models.AutomatedPayment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO bank.automated_payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`)
	if err != nil {
		return fmt.Errorf("failed to prepare payment insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range payments {
		_, err := stmt.ExecContext(ctx,
			p.ID, p.UserID, string(p.Type), p.TargetID, p.Amount, string(p.Status),
			p.ScheduledDate, nullTime(p.ProcessedAt), nullString(p.ErrorMessage), p.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payments: %w", err)
	}
	return nil
}

// GetPayment retrieves a payment by ID
func (r *Repository) GetPayment(ctx context.Context, paymentID string) (*models.AutomatedPayment, error) {
	query := `SELECT ` + paymentColumns + ` FROM bank.automated_payments WHERE id = $1`
	p, err := scanPayment(r.db.QueryRowContext(ctx, query, paymentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find payment: %w", err)
	}
	return p, nil
}

// ListDuePayments returns one page of pending payments due for the user
func (r *Repository) ListDuePayments(ctx context.Context, q DueQuery) ([]models.AutomatedPayment, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if q.HasCursor() {
		query := `SELECT ` + paymentColumns + `
			FROM bank.automated_payments
			WHERE user_id = $1 AND status = 'pending' AND scheduled_date <= $2
				AND (scheduled_date, id) > ($3, $4)
			ORDER BY scheduled_date, id
			LIMIT $5`
		rows, err = r.db.QueryContext(ctx, query, q.UserID, q.Now, q.AfterDate, q.AfterID, q.Limit)
	} else {
		query := `SELECT ` + paymentColumns + `
			FROM bank.automated_payments
			WHERE user_id = $1 AND status = 'pending' AND scheduled_date <= $2
			ORDER BY scheduled_date, id
			LIMIT $3`
		rows, err = r.db.QueryContext(ctx, query, q.UserID, q.Now, q.Limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list due payments: %w", err)
	}
	return collectPayments(rows)
}

// ListPayments returns the user's payments, optionally filtered by status
func (r *Repository) ListPayments(ctx context.Context, userID string, status models.PaymentStatus) ([]models.AutomatedPayment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM bank.automated_payments
		WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY scheduled_date, id`
	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return collectPayments(rows)
}

// ListUsersWithDuePayments returns the IDs of users having pending payments due at now
func (r *Repository) ListUsersWithDuePayments(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT user_id
		FROM bank.automated_payments
		WHERE status = 'pending' AND scheduled_date <= $1
		ORDER BY user_id`
	rows, err := r.db.QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list users with due payments: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ExecuteAutomatedPayment settles a payment entirely from the account balance.
// Debit, target update and the pending -> completed transition commit together.
func (r *Repository) ExecuteAutomatedPayment(ctx context.Context, p ExecutePaymentParams) error {
	return r.executePayment(ctx, p, nil)
}

// ExecuteAutomatedPaymentWithOverdraft settles a payment drawing BalanceUsed
// from the account and the remainder from a new overdraft, in one transaction.
func (r *Repository) ExecuteAutomatedPaymentWithOverdraft(ctx context.Context, p ExecutePaymentParams, od *models.Overdraft) error {
	if od == nil {
		return fmt.Errorf("overdraft is required")
	}
	return r.executePayment(ctx, p, od)
}

func (r *Repository) executePayment(ctx context.Context, p ExecutePaymentParams, od *models.Overdraft) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Claim the payment first so a concurrent settlement blocks on the row lock
	// and then finds it no longer pending.
	result, err := tx.ExecContext(ctx,
		`UPDATE bank.automated_payments SET status = 'completed', processed_at = $2, error_message = NULL WHERE id = $1 AND status = 'pending'`,
		p.PaymentID, p.ProcessedAt)
	if err != nil {
		return fmt.Errorf("failed to complete payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrPaymentNotPending
	}

	accountID, balance, err := lockAccount(ctx, tx, p.UserID)
	if err != nil {
		return err
	}
	if balance < p.BalanceUsed {
		return ErrInsufficientFunds
	}
	if p.BalanceUsed > 0 {
		if err := debitAccount(ctx, tx, accountID, p.BalanceUsed); err != nil {
			return err
		}
	}

	if od != nil {
		if err := checkOverdraftLimit(ctx, tx, p.UserID, od.Amount, p.OverdraftLimit); err != nil {
			return err
		}
		if err := insertOverdraft(ctx, tx, od); err != nil {
			return err
		}
	}

	if err := applyToTarget(ctx, tx, p); err != nil {
		return err
	}

	err = insertTransaction(ctx, tx, &models.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      p.Amount,
		Type:        models.TransactionTypeDebit,
		Status:      models.TransactionStatusCompleted,
		Description: fmt.Sprintf("Automated %s payment", p.Type),
		CreatedAt:   p.ProcessedAt,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit payment: %w", err)
	}
	return nil
}

// checkOverdraftLimit re-reads the active overdraft total while the account
// row is locked, so settlements for the same user see each other's overdrafts.
func checkOverdraftLimit(ctx context.Context, tx *sql.Tx, userID string, amount, limit float64) error {
	var active float64
	query := `SELECT COALESCE(SUM(amount), 0) FROM bank.overdrafts WHERE user_id = $1 AND status = 'active'`
	if err := tx.QueryRowContext(ctx, query, userID).Scan(&active); err != nil {
		return fmt.Errorf("failed to sum active overdrafts: %w", err)
	}
	if utils.AddAmount(active, amount) > limit {
		return ErrOverdraftLimitExceeded
	}
	return nil
}

func applyToTarget(ctx context.Context, tx *sql.Tx, p ExecutePaymentParams) error {
	var (
		result sql.Result
		err    error
	)
	switch p.Type {
	case models.PaymentTypeBill:
		result, err = tx.ExecContext(ctx,
			`UPDATE bank.bills SET status = 'paid', paid_at = $3 WHERE id = $1 AND user_id = $2`,
			p.TargetID, p.UserID, p.ProcessedAt)
	case models.PaymentTypeLoan:
		result, err = tx.ExecContext(ctx,
			`UPDATE bank.loans SET remaining_balance = GREATEST(remaining_balance - $3, 0),
				status = CASE WHEN remaining_balance - $3 <= 0 THEN 'paid_off' ELSE status END
			WHERE id = $1 AND user_id = $2`,
			p.TargetID, p.UserID, p.Amount)
	default:
		return fmt.Errorf("unsupported payment type: %q", p.Type)
	}
	if err != nil {
		return fmt.Errorf("failed to apply payment to %s: %w", p.Type, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %s not found", p.Type, p.TargetID)
	}
	return nil
}

// UpdatePaymentStatus moves a pending payment to a terminal status. It reports
// false when the payment was no longer pending.
func (r *Repository) UpdatePaymentStatus(ctx context.Context, paymentID string, status models.PaymentStatus, errMsg string, processedAt time.Time) (bool, error) {
	query := `
		UPDATE bank.automated_payments
		SET status = $2, error_message = $3, processed_at = $4
		WHERE id = $1 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, paymentID, string(status), nullString(errMsg), processedAt)
	if err != nil {
		return false, fmt.Errorf("failed to update payment status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

// CancelPayment cancels a pending payment owned by the user. It reports false
// when nothing was cancelled.
func (r *Repository) CancelPayment(ctx context.Context, userID, paymentID string) (bool, error) {
	query := `UPDATE bank.automated_payments SET status = 'cancelled' WHERE id = $1 AND user_id = $2 AND status = 'pending'`
	result, err := r.db.ExecContext(ctx, query, paymentID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to cancel payment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows > 0, nil
}

func collectPayments(rows *sql.Rows) ([]models.AutomatedPayment, error) {
	defer rows.Close()
	var payments []models.AutomatedPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	return payments, rows.Err()
}

func scanPayment(row rowScanner) (*models.AutomatedPayment, error) {
	var (
		p           models.AutomatedPayment
		paymentType string
		status      string
		processedAt sql.NullTime
		errMsg      sql.NullString
	)
	err := row.Scan(&p.ID, &p.UserID, &paymentType, &p.TargetID, &p.Amount, &status,
		&p.ScheduledDate, &processedAt, &errMsg, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	p.Type = models.PaymentType(paymentType)
	p.Status = models.PaymentStatus(status)
	p.ProcessedAt = timePtr(processedAt)
	p.ErrorMessage = errMsg.String
	return &p, nil
}
