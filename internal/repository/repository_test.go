package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Dan9191/bank-autopay/internal/models"
)

var testNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func newMockRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(db), mock
}

func verify(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func billParams() ExecutePaymentParams {
	return ExecutePaymentParams{
		PaymentID:   "pay-1",
		UserID:      "usr-001",
		Amount:      120,
		BalanceUsed: 120,
		Type:        models.PaymentTypeBill,
		TargetID:    "bill-1",
		ProcessedAt: testNow,
	}
}

func TestGetUser(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "found",
			setup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "email", "username", "credit_score", "overdraft_enabled", "created_at"}).
					AddRow("usr-001", "ann@example.com", "ann", 700, true, testNow)
				mock.ExpectQuery(`FROM bank.users`).WithArgs("usr-001").WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`FROM bank.users`).WithArgs("usr-001").WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrUserNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setup(mock)
			user, err := repo.GetUser(context.Background(), "usr-001")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil || user.CreditScore != 700 || !user.OverdraftEnabled {
				t.Fatalf("unexpected result %+v, %v", user, err)
			}
			verify(t, mock)
		})
	}
}

func TestExecuteAutomatedPayment_Bill(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).
		WithArgs("pay-1", testNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).WithArgs("usr-001").
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("acc-1", 500.0))
	mock.ExpectExec(`UPDATE bank.accounts SET balance = balance - \$2`).
		WithArgs("acc-1", 120.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bank.bills SET status = 'paid'`).
		WithArgs("bill-1", "usr-001", testNow).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bank.transactions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ExecuteAutomatedPayment(context.Background(), billParams()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verify(t, mock)
}

func TestExecuteAutomatedPayment_RollsBack(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name: "payment no longer pending",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).
					WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrPaymentNotPending,
		},
		{
			name: "account missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).WillReturnError(sql.ErrNoRows)
			},
			wantErr: ErrAccountNotFound,
		},
		{
			name: "balance changed since the read",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).
					WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).
					WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("acc-1", 50.0))
			},
			wantErr: ErrInsufficientFunds,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			err := repo.ExecuteAutomatedPayment(context.Background(), billParams())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			verify(t, mock)
		})
	}
}

func TestExecuteAutomatedPaymentWithOverdraft_Loan(t *testing.T) {
	repo, mock := newMockRepo(t)
	p := ExecutePaymentParams{
		PaymentID:       "pay-2",
		UserID:          "usr-001",
		Amount:          8000,
		BalanceUsed:     5000,
		OverdraftAmount: 3000,
		OverdraftLimit:  10000,
		Type:            models.PaymentTypeLoan,
		TargetID:        "loan-1",
		ProcessedAt:     testNow,
	}
	od := &models.Overdraft{
		ID: "od-1", UserID: "usr-001", PaymentID: "pay-2", Amount: 3000, Fee: 75,
		Status: models.OverdraftStatusActive, CreatedAt: testNow, DueDate: testNow.AddDate(0, 0, 30),
	}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("acc-1", 5000.0))
	mock.ExpectExec(`UPDATE bank.accounts SET balance`).WithArgs("acc-1", 5000.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT COALESCE\(SUM\(amount\), 0\) FROM bank.overdrafts`).WithArgs("usr-001").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(7000.0))
	mock.ExpectExec(`INSERT INTO bank.overdrafts`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bank.loans SET remaining_balance`).
		WithArgs("loan-1", "usr-001", 8000.0).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO bank.transactions`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.ExecuteAutomatedPaymentWithOverdraft(context.Background(), p, od); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verify(t, mock)
}

func TestExecuteAutomatedPaymentWithOverdraft_LimitTakenRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	p := ExecutePaymentParams{
		PaymentID:       "pay-3",
		UserID:          "usr-001",
		Amount:          8000,
		OverdraftAmount: 8000,
		OverdraftLimit:  10000,
		Type:            models.PaymentTypeBill,
		TargetID:        "bill-3",
		ProcessedAt:     testNow,
	}
	od := &models.Overdraft{ID: "od-2", UserID: "usr-001", Amount: 8000, Status: models.OverdraftStatusActive}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("acc-1", 0.0))
	mock.ExpectQuery(`FROM bank.overdrafts WHERE user_id = \$1 AND status = 'active'`).WithArgs("usr-001").
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(8000.0))
	mock.ExpectRollback()

	err := repo.ExecuteAutomatedPaymentWithOverdraft(context.Background(), p, od)
	if !errors.Is(err, ErrOverdraftLimitExceeded) {
		t.Fatalf("expected ErrOverdraftLimitExceeded, got %v", err)
	}
	verify(t, mock)
}

func TestExecuteAutomatedPayment_MissingTargetRollsBack(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'completed'`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT id, balance FROM bank.accounts`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "balance"}).AddRow("acc-1", 500.0))
	mock.ExpectExec(`UPDATE bank.accounts SET balance`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE bank.bills SET status = 'paid'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	if err := repo.ExecuteAutomatedPayment(context.Background(), billParams()); err == nil {
		t.Fatal("expected error for a missing bill")
	}
	verify(t, mock)
}

func TestUpdatePaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		want     bool
	}{
		{name: "pending payment updated", affected: 1, want: true},
		{name: "already terminal", affected: 0, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			mock.ExpectExec(`UPDATE bank.automated_payments\s+SET status = \$2`).
				WithArgs("pay-1", "failed", "boom", testNow).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			got, err := repo.UpdatePaymentStatus(context.Background(), "pay-1", models.PaymentStatusFailed, "boom", testNow)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			verify(t, mock)
		})
	}
}

func TestCancelPayment(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE bank.automated_payments SET status = 'cancelled'`).
		WithArgs("pay-1", "usr-001").WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.CancelPayment(context.Background(), "usr-001", "pay-1")
	if err != nil || !ok {
		t.Fatalf("expected cancel to succeed, got %v %v", ok, err)
	}
	verify(t, mock)
}

func TestListDuePayments_Cursor(t *testing.T) {
	columns := []string{"id", "user_id", "type", "target_id", "amount", "status", "scheduled_date", "processed_at", "error_message", "created_at"}
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`AND \(scheduled_date, id\) > \(\$3, \$4\)`).
		WithArgs("usr-001", testNow, testNow.AddDate(0, 0, -2), "pay-1", 2).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("pay-2", "usr-001", "bill", "bill-2", 50.0, "pending", testNow.AddDate(0, 0, -1), nil, nil, testNow))

	got, err := repo.ListDuePayments(context.Background(), DueQuery{
		UserID:    "usr-001",
		Now:       testNow,
		AfterDate: testNow.AddDate(0, 0, -2),
		AfterID:   "pay-1",
		Limit:     2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "pay-2" || got[0].ProcessedAt != nil || got[0].Type != models.PaymentTypeBill {
		t.Errorf("unexpected page %+v", got)
	}
	verify(t, mock)
}

func TestMarkOverdueOverdrafts(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE bank.overdrafts SET status = 'overdue'`).
		WithArgs(testNow).WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.MarkOverdueOverdrafts(context.Background(), testNow)
	if err != nil || n != 3 {
		t.Fatalf("expected 3 marked, got %d (%v)", n, err)
	}
	verify(t, mock)
}
