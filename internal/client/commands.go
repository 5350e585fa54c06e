package client

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
)

const (
	CmdVerifyPayment        = "verify_payment"
	CmdCheckPayment         = "check_payment"
	CmdTransactionDetails   = "get_Transaction_Details"
	CmdTransactionInfo      = "get_transaction_info"
	CmdCheckDomestic        = "check_isDomestic"
	CmdBinInfo              = "getBinInfo"
	CmdCancelRefund         = "cancel_refund_transaction"
	CmdCheckActionStatus    = "check_action_status"
	CmdAllRefunds           = "getAllRefundsFromTxnIds"
	CmdNetbankingStatus     = "getNetbankingStatus"
	CmdIssuingBankStatus    = "getIssuingBankStatus"
	CmdValidateVPA          = "validateVPA"
	CmdEligibleBinsForEMI   = "eligibleBinsForEMI"
	CmdEMIAmount            = "getEmiAmountAccordingToInterest"
	CmdCreateInvoice        = "create_invoice"
	CmdExpireInvoice        = "expire_invoice"
	CmdSettlementDetails    = "get_settlement_details"
	CmdCheckoutDetails      = "get_checkout_details"
	dateLayout              = "2006-01-02"
	dateTimeLayout          = "2006-01-02 15:04:05"
	multiValueSeparator     = "|"
	netbankingDefaultFilter = "default"
)

type DateRange struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

type BinInfoParams struct {
	Type                   string `validate:"required"`
	CardInfo               string `validate:"required"`
	Index                  string `validate:"omitempty,numeric"`
	Offset                 string `validate:"omitempty,numeric"`
	ZeroRedirectionSICheck bool
}

type CancelRefundParams struct {
	GatewayID string `validate:"required"`
	// Token must be unique per refund request; the gateway deduplicates on it.
	Token  string `validate:"required"`
	Amount decimal.Decimal
}

type VPAParams struct {
	VPA     string `validate:"required,contains=@"`
	AutoPay bool
}

type EMIBinParams struct {
	Bin        string `validate:"required"`
	CardNumber string `validate:"omitempty,numeric"`
	BankName   string
}

type InvoiceRequest struct {
	TxnID            string `json:"txnid" validate:"required"`
	Amount           string `json:"amount" validate:"required,numeric"`
	ProductInfo      string `json:"productinfo" validate:"required"`
	FirstName        string `json:"firstname" validate:"required"`
	Email            string `json:"email" validate:"required,email"`
	Phone            string `json:"phone" validate:"required"`
	Address1         string `json:"address1,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	Country          string `json:"country,omitempty"`
	Zipcode          string `json:"zipcode,omitempty"`
	TemplateID       string `json:"template_id,omitempty"`
	ValidationPeriod int    `json:"validation_period,omitempty" validate:"gte=0"`
	SendEmailNow     string `json:"send_email_now,omitempty" validate:"omitempty,oneof=0 1"`
	SendSMS          string `json:"send_sms,omitempty" validate:"omitempty,oneof=0 1"`
}

// VerifyPayment looks transactions up by merchant txnid.
func (c *PayUClient) VerifyPayment(ctx context.Context, txnIDs ...string) (Result, error) {
	if err := c.checkIDs("txnid", txnIDs); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdVerifyPayment, strings.Join(txnIDs, multiValueSeparator)), nil
}

// CheckPayment looks a transaction up by the gateway id (mihpayid).
func (c *PayUClient) CheckPayment(ctx context.Context, gatewayID string) (Result, error) {
	if err := c.checkVar("gateway_id", gatewayID, "required"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdCheckPayment, gatewayID), nil
}

// TransactionDetails lists transactions between two calendar days.
func (c *PayUClient) TransactionDetails(ctx context.Context, r DateRange) (Result, error) {
	if err := c.check(r); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdTransactionDetails, r.From.Format(dateLayout), r.To.Format(dateLayout)), nil
}

// TransactionInfo lists transactions between two instants.
func (c *PayUClient) TransactionInfo(ctx context.Context, r DateRange) (Result, error) {
	if err := c.check(r); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdTransactionInfo, r.From.Format(dateTimeLayout), r.To.Format(dateTimeLayout)), nil
}

func (c *PayUClient) CheckDomesticBIN(ctx context.Context, cardBIN string) (Result, error) {
	if err := c.checkVar("card_bin", cardBIN, "required,numeric,min=6"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdCheckDomestic, cardBIN), nil
}

func (c *PayUClient) BinInfo(ctx context.Context, p BinInfoParams) (Result, error) {
	if err := c.check(p); err != nil {
		return Result{}, err
	}
	si := "0"
	if p.ZeroRedirectionSICheck {
		si = "1"
	}
	return c.execute(ctx, CmdBinInfo, p.Type, p.CardInfo, p.Index, p.Offset, si), nil
}

// CancelRefund asks the gateway to refund (or cancel, before capture) part
// or all of a transaction.
func (c *PayUClient) CancelRefund(ctx context.Context, p CancelRefundParams) (Result, error) {
	if err := c.check(p); err != nil {
		return Result{}, err
	}
	if !p.Amount.IsPositive() {
		return Result{}, fmt.Errorf("%w: refund amount must be positive", domain.ErrInvalidParams)
	}
	return c.execute(ctx, CmdCancelRefund, p.GatewayID, p.Token, domain.FormatAmount(p.Amount)), nil
}

// RefundStatus checks a refund by the request id returned from CancelRefund.
func (c *PayUClient) RefundStatus(ctx context.Context, requestID string) (Result, error) {
	if err := c.checkVar("request_id", requestID, "required"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdCheckActionStatus, requestID), nil
}

func (c *PayUClient) RefundStatusByGatewayID(ctx context.Context, gatewayID string) (Result, error) {
	if err := c.checkVar("gateway_id", gatewayID, "required"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdCheckActionStatus, gatewayID, "payuid"), nil
}

func (c *PayUClient) AllRefunds(ctx context.Context, txnIDs ...string) (Result, error) {
	if err := c.checkIDs("txnid", txnIDs); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdAllRefunds, strings.Join(txnIDs, multiValueSeparator)), nil
}

// NetbankingStatus reports bank uptime. An empty code asks for every bank.
func (c *PayUClient) NetbankingStatus(ctx context.Context, bankCode string) (Result, error) {
	if bankCode == "" {
		bankCode = netbankingDefaultFilter
	}
	return c.execute(ctx, CmdNetbankingStatus, bankCode), nil
}

func (c *PayUClient) IssuingBankStatus(ctx context.Context, cardBIN string) (Result, error) {
	if err := c.checkVar("card_bin", cardBIN, "required,numeric,min=6"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdIssuingBankStatus, cardBIN), nil
}

func (c *PayUClient) ValidateVPA(ctx context.Context, p VPAParams) (Result, error) {
	if err := c.check(p); err != nil {
		return Result{}, err
	}
	autoPay := ""
	if p.AutoPay {
		autoPay = "1"
	}
	return c.execute(ctx, CmdValidateVPA, p.VPA, autoPay), nil
}

func (c *PayUClient) EligibleEMIBins(ctx context.Context, p EMIBinParams) (Result, error) {
	if err := c.check(p); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdEligibleBinsForEMI, p.Bin, p.CardNumber, p.BankName), nil
}

func (c *PayUClient) EMIAmount(ctx context.Context, amount decimal.Decimal) (Result, error) {
	if !amount.IsPositive() {
		return Result{}, fmt.Errorf("%w: amount must be positive", domain.ErrInvalidParams)
	}
	return c.execute(ctx, CmdEMIAmount, domain.FormatAmount(amount)), nil
}

func (c *PayUClient) CreateInvoice(ctx context.Context, inv InvoiceRequest) (Result, error) {
	if err := c.check(inv); err != nil {
		return Result{}, err
	}
	details, err := json.Marshal(inv)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
	}
	return c.execute(ctx, CmdCreateInvoice, string(details)), nil
}

func (c *PayUClient) ExpireInvoice(ctx context.Context, txnID string) (Result, error) {
	if err := c.checkVar("txnid", txnID, "required"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdExpireInvoice, txnID), nil
}

// SettlementDetails takes a settlement date (YYYY-MM-DD) or a UTR number.
func (c *PayUClient) SettlementDetails(ctx context.Context, query string) (Result, error) {
	if err := c.checkVar("query", query, "required"); err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdSettlementDetails, query), nil
}

func (c *PayUClient) SettlementDetailsForDay(ctx context.Context, day time.Time) (Result, error) {
	return c.SettlementDetails(ctx, day.Format(dateLayout))
}

// CheckoutDetails sends data as var1: strings verbatim, anything else as JSON.
func (c *PayUClient) CheckoutDetails(ctx context.Context, data any) (Result, error) {
	var1, err := asVar(data)
	if err != nil {
		return Result{}, err
	}
	return c.execute(ctx, CmdCheckoutDetails, var1), nil
}

func asVar(data any) (string, error) {
	switch v := data.(type) {
	case nil:
		return "", fmt.Errorf("%w: data is required", domain.ErrInvalidParams)
	case string:
		if v == "" {
			return "", fmt.Errorf("%w: data is required", domain.ErrInvalidParams)
		}
		return v, nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("%w: %v", domain.ErrInvalidParams, err)
		}
		return string(b), nil
	}
}

func (c *PayUClient) checkIDs(name string, ids []string) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one %s is required", domain.ErrInvalidParams, name)
	}
	for _, id := range ids {
		if err := c.checkVar(name, id, "required,excludesall=0x7C"); err != nil {
			return err
		}
	}
	return nil
}
