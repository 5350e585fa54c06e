package domain

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSuccess   TransactionStatus = "success"
	TransactionFailure   TransactionStatus = "failure"
	TransactionCancelled TransactionStatus = "cancelled"
)

func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionSuccess, TransactionFailure, TransactionCancelled:
		return true
	}
	return false
}

func (s TransactionStatus) Valid() bool {
	return s == TransactionPending || s.IsTerminal()
}

// ResolveTransactionTransition decides whether moving from current to next
// must be written. A repeated success is a no-op; every other move out of a
// terminal state, and any move back to pending, is ErrInvalidTransition.
func ResolveTransactionTransition(current, next TransactionStatus) (apply bool, err error) {
	if current == TransactionSuccess && next == TransactionSuccess {
		return false, nil
	}
	if current == TransactionPending && next.IsTerminal() {
		return true, nil
	}
	return false, ErrInvalidTransition
}

type PaymentMode string

const (
	ModeCreditCard PaymentMode = "CC"
	ModeDebitCard  PaymentMode = "DC"
	ModeNetBanking PaymentMode = "NB"
	ModeUPI        PaymentMode = "UPI"
	ModeEMI        PaymentMode = "EMI"
	ModeWallet     PaymentMode = "WALLET"
	ModeCash       PaymentMode = "CASH"
)

// ParsePaymentMode maps the gateway's "mode" field. Unknown modes yield "".
func ParsePaymentMode(s string) PaymentMode {
	switch m := PaymentMode(s); m {
	case ModeCreditCard, ModeDebitCard, ModeNetBanking, ModeUPI, ModeEMI, ModeWallet, ModeCash:
		return m
	}
	return ""
}

type Payer struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Address1  string
	Address2  string
	City      string
	State     string
	Country   string
	Zipcode   string
}

type Transaction struct {
	TxnID        string
	GatewayID    string
	Amount       decimal.Decimal
	ProductInfo  string
	Payer        Payer
	UDF          [5]string
	Status       TransactionStatus
	PaymentMode  PaymentMode
	BankRef      string
	ErrorCode    string
	ErrorMessage string
	Signature    string
	RawRequest   json.RawMessage
	RawResponse  json.RawMessage
	InitiatedAt  time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (t *Transaction) IsSuccessful() bool { return t.Status == TransactionSuccess }
func (t *Transaction) IsPending() bool    { return t.Status == TransactionPending }

// CanBeRefunded reports whether a refund may still be requested given the
// sum of refunds already settled successfully.
func (t *Transaction) CanBeRefunded(refunded decimal.Decimal) bool {
	return t.IsSuccessful() && refunded.LessThan(t.Amount)
}

// RemainingRefundable never goes below zero.
func (t *Transaction) RemainingRefundable(refunded decimal.Decimal) decimal.Decimal {
	left := t.Amount.Sub(refunded)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// TransactionOutcome is what the gateway reported for a transaction, either
// through a webhook, the browser response or a verify call.
type TransactionOutcome struct {
	Status       TransactionStatus
	GatewayID    string
	PaymentMode  PaymentMode
	BankRef      string
	ErrorCode    string
	ErrorMessage string
	Signature    string
	RawResponse  json.RawMessage
	CompletedAt  time.Time
}

type TransactionFilter struct {
	Status      *TransactionStatus
	PaymentMode *PaymentMode
	Email       string
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}

// ParseGatewayStatus maps the gateway's status/unmappedstatus pair. An
// empty result means the gateway did not report a usable status.
func ParseGatewayStatus(status, unmapped string) TransactionStatus {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "captured":
		return TransactionSuccess
	case "failure", "failed":
		if isUserCancel(unmapped) {
			return TransactionCancelled
		}
		return TransactionFailure
	case "cancelled", "canceled", "usercancelled":
		return TransactionCancelled
	case "pending", "in progress", "initiated":
		return TransactionPending
	}
	return ""
}

func isUserCancel(unmapped string) bool {
	switch strings.ToLower(strings.TrimSpace(unmapped)) {
	case "usercancelled", "cancelled", "canceled":
		return true
	}
	return false
}
