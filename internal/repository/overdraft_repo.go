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

const overdraftColumns = `id, user_id, payment_id, amount, fee, status, created_at, due_date, repaid_at`

// CreateOverdraft inserts a new overdraft record
func (r *Repository) CreateOverdraft(ctx context.Context, od *models.Overdraft) error {
	query := `
		INSERT INTO bank.overdrafts (` + overdraftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		od.ID, od.UserID, nullString(od.PaymentID), od.Amount, od.Fee, string(od.Status),
		od.CreatedAt, od.DueDate, nullTime(od.RepaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create overdraft: %w", err)
	}
	return nil
}

func insertOverdraft(ctx context.Context, tx *sql.Tx, od *models.Overdraft) error {
	query := `
		INSERT INTO bank.overdrafts (` + overdraftColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := tx.ExecContext(ctx, query,
		od.ID, od.UserID, nullString(od.PaymentID), od.Amount, od.Fee, string(od.Status),
		od.CreatedAt, od.DueDate, nullTime(od.RepaidAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record overdraft: %w", err)
	}
	return nil
}

// GetOverdraft retrieves an overdraft by ID
func (r *Repository) GetOverdraft(ctx context.Context, overdraftID string) (*models.Overdraft, error) {
	query := `SELECT ` + overdraftColumns + ` FROM bank.overdrafts WHERE id = $1`
	od, err := scanOverdraft(r.db.QueryRowContext(ctx, query, overdraftID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverdraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find overdraft: %w", err)
	}
	return od, nil
}

// ListOverdrafts returns the user's overdrafts; an empty status lists all
func (r *Repository) ListOverdrafts(ctx context.Context, userID string, status models.OverdraftStatus) ([]models.Overdraft, error) {
	query := `SELECT ` + overdraftColumns + `
		FROM bank.overdrafts
		WHERE user_id = $1 AND ($2::text = '' OR status = $2::text)
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to list overdrafts: %w", err)
	}
	defer rows.Close()

	var overdrafts []models.Overdraft
	for rows.Next() {
		od, err := scanOverdraft(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan overdraft: %w", err)
		}
		overdrafts = append(overdrafts, *od)
	}
	return overdrafts, rows.Err()
}

// RepayOverdraft debits up to amount from the owner's account against the
// outstanding overdraft and returns the updated record.
func (r *Repository) RepayOverdraft(ctx context.Context, overdraftID string, amount float64, now time.Time) (*models.Overdraft, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + overdraftColumns + ` FROM bank.overdrafts WHERE id = $1 FOR UPDATE`
	od, err := scanOverdraft(tx.QueryRowContext(ctx, query, overdraftID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOverdraftNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock overdraft: %w", err)
	}
	if od.Status == models.OverdraftStatusRepaid {
		return nil, ErrOverdraftNotActive
	}

	repay := utils.MinAmount(amount, od.Amount)
	accountID, balance, err := lockAccount(ctx, tx, od.UserID)
	if err != nil {
		return nil, err
	}
	if balance < repay {
		return nil, ErrInsufficientFunds
	}
	if err := debitAccount(ctx, tx, accountID, repay); err != nil {
		return nil, err
	}

	od.Amount = utils.SubAmount(od.Amount, repay)
	if od.Amount <= 0 {
		od.Amount = 0
		od.Status = models.OverdraftStatusRepaid
		od.RepaidAt = &now
	}
	_, err = tx.ExecContext(ctx,
		`UPDATE bank.overdrafts SET amount = $2, status = $3, repaid_at = $4 WHERE id = $1`,
		od.ID, od.Amount, string(od.Status), nullTime(od.RepaidAt))
	if err != nil {
		return nil, fmt.Errorf("failed to update overdraft: %w", err)
	}

	err = insertTransaction(ctx, tx, &models.Transaction{
		ID:          uuid.NewString(),
		AccountID:   accountID,
		Amount:      repay,
		Type:        models.TransactionTypeDebit,
		Status:      models.TransactionStatusCompleted,
		Description: "Overdraft repayment",
		CreatedAt:   now,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit repayment: %w", err)
	}
	return od, nil
}

// MarkOverdueOverdrafts flips active overdrafts past their due date to overdue
func (r *Repository) MarkOverdueOverdrafts(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE bank.overdrafts SET status = 'overdue' WHERE status = 'active' AND due_date < $1`
	result, err := r.db.ExecContext(ctx, query, now)
	if err != nil {
		return 0, fmt.Errorf("failed to mark overdue overdrafts: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check rows affected: %w", err)
	}
	return rows, nil
}

func scanOverdraft(row rowScanner) (*models.Overdraft, error) {
	var (
		od        models.Overdraft
		paymentID sql.NullString
		status    string
		repaidAt  sql.NullTime
	)
	err := row.Scan(&od.ID, &od.UserID, &paymentID, &od.Amount, &od.Fee, &status,
		&od.CreatedAt, &od.DueDate, &repaidAt)
	if err != nil {
		return nil, err
	}
	od.PaymentID = paymentID.String
	od.Status = models.OverdraftStatus(status)
	od.RepaidAt = timePtr(repaidAt)
	return &od, nil
}
