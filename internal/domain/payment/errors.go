package payment

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrPaymentPaid     = errors.New("paid payments cannot be edited or deleted")
	ErrNotForward      = errors.New("payment status can only move forward")
	ErrTaskUnavailable = errors.New("task is not approved or already linked to another payment")
	ErrStaleVersion    = errors.New("payment was changed by another writer")
	ErrInvalidInput    = errors.New("invalid payment input")
)
