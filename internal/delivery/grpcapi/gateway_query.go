package grpcapi

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// GatewayQuerier is the gateway command API exposed to operators.
// *client.PayUClient satisfies it.
type GatewayQuerier interface {
	VerifyPayment(ctx context.Context, txnIDs ...string) (client.Result, error)
	CheckPayment(ctx context.Context, gatewayID string) (client.Result, error)
	TransactionDetails(ctx context.Context, r client.DateRange) (client.Result, error)
	TransactionInfo(ctx context.Context, r client.DateRange) (client.Result, error)
	CheckDomesticBIN(ctx context.Context, cardBIN string) (client.Result, error)
	BinInfo(ctx context.Context, p client.BinInfoParams) (client.Result, error)
	RefundStatus(ctx context.Context, requestID string) (client.Result, error)
	RefundStatusByGatewayID(ctx context.Context, gatewayID string) (client.Result, error)
	AllRefunds(ctx context.Context, txnIDs ...string) (client.Result, error)
	NetbankingStatus(ctx context.Context, bankCode string) (client.Result, error)
	IssuingBankStatus(ctx context.Context, cardBIN string) (client.Result, error)
	ValidateVPA(ctx context.Context, p client.VPAParams) (client.Result, error)
	EligibleEMIBins(ctx context.Context, p client.EMIBinParams) (client.Result, error)
	EMIAmount(ctx context.Context, amount decimal.Decimal) (client.Result, error)
	CreateInvoice(ctx context.Context, inv client.InvoiceRequest) (client.Result, error)
	ExpireInvoice(ctx context.Context, txnID string) (client.Result, error)
	SettlementDetails(ctx context.Context, query string) (client.Result, error)
	CheckoutDetails(ctx context.Context, data any) (client.Result, error)
}

type gatewayCommand func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error)

var gatewayCommands = map[string]gatewayCommand{
	client.CmdVerifyPayment: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.VerifyPayment(ctx, a.strs("txnid")...)
	},
	client.CmdCheckPayment: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.CheckPayment(ctx, a.str("mihpayid"))
	},
	client.CmdTransactionDetails: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		r, err := dateRange(a)
		if err != nil {
			return client.Result{}, err
		}
		return g.TransactionDetails(ctx, r)
	},
	client.CmdTransactionInfo: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		r, err := dateRange(a)
		if err != nil {
			return client.Result{}, err
		}
		return g.TransactionInfo(ctx, r)
	},
	client.CmdCheckDomestic: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.CheckDomesticBIN(ctx, a.str("bin"))
	},
	client.CmdBinInfo: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.BinInfo(ctx, client.BinInfoParams{
			Type:                   a.str("type"),
			CardInfo:               a.str("card_info"),
			Index:                  a.str("index"),
			Offset:                 a.str("offset"),
			ZeroRedirectionSICheck: a.bool("zero_redirection_si_check"),
		})
	},
	client.CmdCheckActionStatus: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		if a.str("request_id") != "" {
			return g.RefundStatus(ctx, a.str("request_id"))
		}
		return g.RefundStatusByGatewayID(ctx, a.str("mihpayid"))
	},
	client.CmdAllRefunds: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.AllRefunds(ctx, a.strs("txnid")...)
	},
	client.CmdNetbankingStatus: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.NetbankingStatus(ctx, a.str("bank_code"))
	},
	client.CmdIssuingBankStatus: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.IssuingBankStatus(ctx, a.str("bin"))
	},
	client.CmdValidateVPA: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.ValidateVPA(ctx, client.VPAParams{VPA: a.str("vpa"), AutoPay: a.bool("auto_pay")})
	},
	client.CmdEligibleBinsForEMI: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.EligibleEMIBins(ctx, client.EMIBinParams{
			Bin:        a.str("bin"),
			CardNumber: a.str("card_number"),
			BankName:   a.str("bank_name"),
		})
	},
	client.CmdEMIAmount: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		amount, err := domain.ParseAmount(a.str("amount"))
		if err != nil {
			return client.Result{}, err
		}
		return g.EMIAmount(ctx, amount)
	},
	client.CmdCreateInvoice: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.CreateInvoice(ctx, client.InvoiceRequest{
			TxnID:            a.str("txnid"),
			Amount:           a.str("amount"),
			ProductInfo:      a.str("productinfo"),
			FirstName:        a.str("firstname"),
			Email:            a.str("email"),
			Phone:            a.str("phone"),
			Address1:         a.str("address1"),
			City:             a.str("city"),
			State:            a.str("state"),
			Country:          a.str("country"),
			Zipcode:          a.str("zipcode"),
			TemplateID:       a.str("template_id"),
			ValidationPeriod: a.int("validation_period"),
			SendEmailNow:     a.str("send_email_now"),
			SendSMS:          a.str("send_sms"),
		})
	},
	client.CmdExpireInvoice: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.ExpireInvoice(ctx, a.str("txnid"))
	},
	client.CmdSettlementDetails: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		return g.SettlementDetails(ctx, a.str("query"))
	},
	client.CmdCheckoutDetails: func(ctx context.Context, g GatewayQuerier, a args) (client.Result, error) {
		data, ok := a.fields["data"]
		if !ok {
			return client.Result{}, fmt.Errorf("%w: data is required", domain.ErrInvalidParams)
		}
		return g.CheckoutDetails(ctx, data.AsInterface())
	},
}

// GatewayCommands lists the command names GatewayQuery accepts.
func GatewayCommands() []string {
	names := make([]string, 0, len(gatewayCommands))
	for name := range gatewayCommands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GatewayQuery runs one gateway command and returns the gateway's body
// untouched under "result". Refunds are not available here; they must go
// through RequestRefund so the ledger reserves the amount.
func (h *PaymentHandler) GatewayQuery(ctx context.Context, r *structpb.Struct) (*structpb.Struct, error) {
	a := argsOf(r)
	name := a.str("command")
	if name == client.CmdCancelRefund {
		return nil, status.Error(codes.InvalidArgument, "use RequestRefund to refund a transaction")
	}
	cmd, ok := gatewayCommands[name]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "unknown gateway command %q", name)
	}
	res, err := cmd(ctx, h.gateway, a)
	if err != nil {
		return nil, toStatus(err)
	}
	return reply(map[string]any{"command": name, "result": res})
}

func dateRange(a args) (client.DateRange, error) {
	from, err := a.time("from")
	if err != nil {
		return client.DateRange{}, err
	}
	to, err := a.time("to")
	if err != nil {
		return client.DateRange{}, err
	}
	if to.IsZero() {
		to = time.Now()
	}
	return client.DateRange{From: from, To: to}, nil
}
