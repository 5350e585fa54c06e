package paymentdto

import (
	"net/url"

	"github.com/LavaJover/shvark-payu-service/internal/client"
	"github.com/LavaJover/shvark-payu-service/internal/domain"
)

type FormField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Checkout is everything the browser needs to post to the gateway. Fields
// keep the order they are rendered in.
type Checkout struct {
	URL    string      `json:"url"`
	Fields []FormField `json:"fields"`
}

func (c *Checkout) Params() map[string]string {
	m := make(map[string]string, len(c.Fields))
	for _, f := range c.Fields {
		m[f.Name] = f.Value
	}
	return m
}

func (c *Checkout) Values() url.Values {
	v := make(url.Values, len(c.Fields))
	for _, f := range c.Fields {
		v.Set(f.Name, f.Value)
	}
	return v
}

type InitiatePaymentOutput struct {
	Transaction *domain.Transaction
	Checkout    *Checkout
}

type VerifyPaymentOutput struct {
	Transaction *domain.Transaction
	Gateway     client.Result
	Changed     bool
}

type ListTransactionsOutput struct {
	Transactions []*domain.Transaction
	Pagination   Pagination
}

type Pagination struct {
	CurrentPage  int32 `json:"current_page"`
	TotalPages   int32 `json:"total_pages"`
	TotalItems   int32 `json:"total_items"`
	ItemsPerPage int32 `json:"items_per_page"`
}
