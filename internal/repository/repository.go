package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dan9191/bank-autopay/internal/models"
)

// Repository provides database operations
type Repository struct {
	db *sql.DB
}

// NewRepository initializes a new repository
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// GetUser retrieves a user by ID
func (r *Repository) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT id, email, username, credit_score, overdraft_enabled, created_at
		FROM bank.users
		WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&user.ID, &user.Email, &user.Username, &user.CreditScore, &user.OverdraftEnabled, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// UpdateCreditScore stores the latest score on the user record
func (r *Repository) UpdateCreditScore(ctx context.Context, userID string, score int) error {
	query := `UPDATE bank.users SET credit_score = $2, updated_at = NOW() WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, score)
	if err != nil {
		return fmt.Errorf("failed to update credit score: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// AdjustCreditScore applies delta to the stored score, clamped to [300, 850]
func (r *Repository) AdjustCreditScore(ctx context.Context, userID string, delta int) (int, error) {
	query := `
		UPDATE bank.users
		SET credit_score = LEAST(850, GREATEST(300, credit_score + $2)), updated_at = NOW()
		WHERE id = $1
		RETURNING credit_score`
	var score int
	err := r.db.QueryRowContext(ctx, query, userID, delta).Scan(&score)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust credit score: %w", err)
	}
	return score, nil
}

// GetAccountByUserID retrieves the user's primary (oldest) account
func (r *Repository) GetAccountByUserID(ctx context.Context, userID string) (*models.Account, error) {
	account := &models.Account{}
	query := `
		SELECT id, user_id, balance, currency, created_at, updated_at
		FROM bank.accounts
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT 1`
	err := r.db.QueryRowContext(ctx, query, userID).
		Scan(&account.ID, &account.UserID, &account.Balance, &account.Currency, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return account, nil
}

// ListTransactions returns the user's transactions created at or after since
func (r *Repository) ListTransactions(ctx context.Context, userID string, since time.Time) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.account_id, t.amount, t.type, t.status, t.description, t.created_at
		FROM bank.transactions t
		JOIN bank.accounts a ON a.id = t.account_id
		WHERE a.user_id = $1 AND t.created_at >= $2
		ORDER BY t.created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var txns []models.Transaction
	for rows.Next() {
		var t models.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Amount, &t.Type, &t.Status, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		txns = append(txns, t)
	}
	return txns, rows.Err()
}

// ListLoans returns all loans of the user
func (r *Repository) ListLoans(ctx context.Context, userID string) ([]models.Loan, error) {
	query := `
		SELECT id, user_id, type, amount, remaining_balance, status, created_at
		FROM bank.loans
		WHERE user_id = $1
		ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []models.Loan
	for rows.Next() {
		var l models.Loan
		if err := rows.Scan(&l.ID, &l.UserID, &l.Type, &l.Amount, &l.RemainingBalance, &l.Status, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// lockAccount selects the user's primary account FOR UPDATE inside tx
func lockAccount(ctx context.Context, tx *sql.Tx, userID string) (string, float64, error) {
	var (
		accountID string
		balance   float64
	)
	query := `SELECT id, balance FROM bank.accounts WHERE user_id = $1 ORDER BY created_at LIMIT 1 FOR UPDATE`
	err := tx.QueryRowContext(ctx, query, userID).Scan(&accountID, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return "", 0, ErrAccountNotFound
	}
	if err != nil {
		return "", 0, fmt.Errorf("failed to lock account: %w", err)
	}
	return accountID, balance, nil
}

func debitAccount(ctx context.Context, tx *sql.Tx, accountID string, amount float64) error {
	query := `UPDATE bank.accounts SET balance = balance - $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, accountID, amount); err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}
	return nil
}

func insertTransaction(ctx context.Context, tx *sql.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO bank.transactions (id, account_id, amount, type, status, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := tx.ExecContext(ctx, query, t.ID, t.AccountID, t.Amount, t.Type, t.Status, t.Description, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
