package client

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

// TransactionDetails is one entry of verify_payment / check_payment.
type TransactionDetails struct {
	GatewayID         Text `json:"mihpayid"`
	RequestID         Text `json:"request_id"`
	TxnID             Text `json:"txnid"`
	Amount            Text `json:"amt"`
	TransactionAmount Text `json:"transaction_amount"`
	AdditionalCharges Text `json:"additional_charges"`
	ProductInfo       Text `json:"productinfo"`
	FirstName         Text `json:"firstname"`
	Status            Text `json:"status"`
	UnmappedStatus    Text `json:"unmappedstatus"`
	Mode              Text `json:"mode"`
	BankCode          Text `json:"bankcode"`
	BankRef           Text `json:"bank_ref_num"`
	ErrorCode         Text `json:"error_code"`
	ErrorMessage      Text `json:"error_Message"`
	NetAmountDebit    Text `json:"net_amount_debit"`
	AddedOn           Text `json:"addedon"`
}

// Outcome converts the details into a ledger outcome. raw is stored as the
// audit copy of the gateway response.
func (d TransactionDetails) Outcome(raw json.RawMessage, at time.Time) domain.TransactionOutcome {
	return domain.TransactionOutcome{
		Status:       domain.ParseGatewayStatus(d.Status.String(), d.UnmappedStatus.String()),
		GatewayID:    d.GatewayID.String(),
		PaymentMode:  domain.ParsePaymentMode(d.Mode.String()),
		BankRef:      d.BankRef.String(),
		ErrorCode:    d.ErrorCode.String(),
		ErrorMessage: d.ErrorMessage.String(),
		RawResponse:  raw,
		CompletedAt:  at,
	}
}

// TransactionDetails extracts the entry for txnID. verify_payment keys the
// details by txnid, check_payment returns a single object.
func (r Result) TransactionDetails(txnID string) (TransactionDetails, bool) {
	raw, ok := r.fields["transaction_details"]
	if !ok {
		return TransactionDetails{}, false
	}

	var byID map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byID); err != nil {
		return TransactionDetails{}, false
	}
	if _, single := byID["mihpayid"]; single {
		var d TransactionDetails
		if json.Unmarshal(raw, &d) != nil {
			return TransactionDetails{}, false
		}
		return d, txnID == "" || d.TxnID.String() == txnID || d.TxnID == ""
	}

	entry, ok := byID[txnID]
	if !ok {
		return TransactionDetails{}, false
	}
	var d TransactionDetails
	if json.Unmarshal(entry, &d) != nil {
		return TransactionDetails{}, false
	}
	return d, true
}

// RefundAck is the acknowledgement of cancel_refund_transaction.
type RefundAck struct {
	RequestID Text `json:"request_id"`
	GatewayID Text `json:"mihpayid"`
	BankRef   Text `json:"bank_ref_num"`
	ErrorCode Text `json:"error_code"`
	Message   Text `json:"msg"`
}

func (r Result) RefundAck() RefundAck {
	var ack RefundAck
	_ = r.DecodeAll(&ack)
	return ack
}

// RefundAction is one refund/cancel entry reported by check_action_status
// or getAllRefundsFromTxnIds.
type RefundAction struct {
	RequestID Text `json:"request_id"`
	GatewayID Text `json:"mihpayid"`
	TxnID     Text `json:"txnid"`
	Token     Text `json:"token"`
	Amount    Text `json:"amt"`
	Action    Text `json:"action"`
	Status    Text `json:"status"`
	BankRef   Text `json:"bank_ref_num"`
}

func (a RefundAction) RefundStatus() domain.RefundStatus {
	return domain.ParseGatewayRefundStatus(a.Status.String())
}

// RefundActions walks transaction_details, whose nesting differs between
// commands, and returns every object that looks like a refund action.
func (r Result) RefundActions() []RefundAction {
	raw, ok := r.fields["transaction_details"]
	if !ok {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var tree any
	if dec.Decode(&tree) != nil {
		return nil
	}
	var out []RefundAction
	collectActions(tree, &out)
	return out
}

func collectActions(node any, out *[]RefundAction) {
	switch v := node.(type) {
	case map[string]any:
		_, hasStatus := v["status"]
		_, hasRequest := v["request_id"]
		if hasStatus && hasRequest {
			b, err := json.Marshal(v)
			if err == nil {
				var a RefundAction
				if json.Unmarshal(b, &a) == nil {
					*out = append(*out, a)
				}
			}
			return
		}
		for _, child := range v {
			collectActions(child, out)
		}
	case []any:
		for _, child := range v {
			collectActions(child, out)
		}
	}
}

// OutcomeFromValues reads an outcome from a flat gateway payload (browser
// response or webhook body).
func OutcomeFromValues(v map[string]string, raw json.RawMessage, at time.Time) domain.TransactionOutcome {
	msg := v["error_Message"]
	if msg == "" {
		msg = v["field9"]
	}
	return domain.TransactionOutcome{
		Status:       domain.ParseGatewayStatus(v["status"], v["unmappedstatus"]),
		GatewayID:    v["mihpayid"],
		PaymentMode:  domain.ParsePaymentMode(v["mode"]),
		BankRef:      v["bank_ref_num"],
		ErrorCode:    v["error"],
		ErrorMessage: msg,
		Signature:    v["hash"],
		RawResponse:  raw,
		CompletedAt:  at,
	}
}
