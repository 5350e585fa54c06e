package paymentdto

import "time"

// Fields that take part in the request hash must not contain "|".
type InitiatePaymentInput struct {
	TxnID       string    `validate:"omitempty,max=64,excludesall=0x7C"`
	Amount      string    `validate:"required"`
	ProductInfo string    `validate:"required,max=100,excludesall=0x7C"`
	FirstName   string    `validate:"required,max=60,excludesall=0x7C"`
	LastName    string    `validate:"max=60"`
	Email       string    `validate:"required,email,max=100,excludesall=0x7C"`
	Phone       string    `validate:"required,min=8,max=15"`
	Address1    string    `validate:"max=100"`
	Address2    string    `validate:"max=100"`
	City        string    `validate:"max=50"`
	State       string    `validate:"max=50"`
	Country     string    `validate:"max=50"`
	Zipcode     string    `validate:"max=20"`
	UDF         [5]string `validate:"dive,max=255,excludesall=0x7C"`
	SuccessURL  string    `validate:"omitempty,url"`
	FailureURL  string    `validate:"omitempty,url"`
}

type ListTransactionsInput struct {
	Status      string
	PaymentMode string
	Email       string
	From        time.Time
	To          time.Time
	Page        int
	Limit       int
}
