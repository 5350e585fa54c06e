package refunddto

type RequestRefundInput struct {
	TxnID  string `validate:"required,max=64"`
	Amount string `validate:"required"`
	// Type defaults to "refund".
	Type   string `validate:"omitempty,oneof=refund cancel chargeback"`
	Reason string `validate:"max=255"`
}
