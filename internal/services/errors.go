package services

import "errors"

var (
	ErrTransactionNotFound   = errors.New("transaction not found")
	ErrAccountNotFound       = errors.New("account not found")
	ErrPaymentMethodNotFound = errors.New("payment method not found")
)
