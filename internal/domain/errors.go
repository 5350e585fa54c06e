package domain

import "errors"

var (
	ErrTransactionNotFound  = errors.New("transaction not found")
	ErrDuplicateTransaction = errors.New("transaction already exists")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNotRefundable        = errors.New("transaction is not refundable")
	ErrOverRefund           = errors.New("refund exceeds remaining refundable amount")
	ErrRefundNotFound       = errors.New("refund not found")
	ErrWebhookNotFound      = errors.New("webhook event not found")
	ErrSignatureMismatch    = errors.New("signature mismatch")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrInvalidParams        = errors.New("invalid parameters")
)
