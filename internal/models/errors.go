package models

import "errors"

// Document editing errors
var (
	ErrLineNotFound         = errors.New("line not found")
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrUnknownField         = errors.New("unknown field")
	ErrPaymentsNotSupported = errors.New("document type does not record payments")
	ErrTooManyLines         = errors.New("too many lines")
	ErrTooManyPayments      = errors.New("too many payments")
)
