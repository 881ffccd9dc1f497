package repository

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrOverdraftNotFound = errors.New("overdraft not found")

	// ErrPaymentNotPending is returned when a guarded transition finds the
	// payment already in a terminal status.
	ErrPaymentNotPending = errors.New("payment is not pending")

	// ErrInsufficientFunds is returned when the locked balance no longer
	// covers the debit.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrOverdraftLimitExceeded is returned when active overdrafts committed
	// since authorization leave no room for the new one.
	ErrOverdraftLimitExceeded = errors.New("overdraft limit exceeded")

	ErrOverdraftNotActive = errors.New("overdraft is already repaid")
)
