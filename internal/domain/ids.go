package domain

import (
	"fmt"
	"time"

	"github.com/jaevor/go-nanoid"
)

var (
	idSuffix  = must(nanoid.Standard(12))
	txnSuffix = must(nanoid.CustomASCII("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", 8))
)

func must(gen func() string, err error) func() string {
	if err != nil {
		panic(err)
	}
	return gen
}

// NewTxnID returns TXN<unix><random>. Only letters and digits, which every
// gateway form field accepts.
func NewTxnID() string {
	return fmt.Sprintf("TXN%d%s", time.Now().Unix(), txnSuffix())
}

// NewRefundID returns REF_<unix>_<random>.
func NewRefundID() string {
	return fmt.Sprintf("REF_%d_%s", time.Now().Unix(), idSuffix())
}

// NewWebhookID returns WH_<unix>_<random>; the random part keeps ids
// distinct for events received within the same second.
func NewWebhookID() string {
	return fmt.Sprintf("WH_%d_%s", time.Now().Unix(), idSuffix())
}
