package repository

import (
	"crypto/rand"
	"math/big"
	"time"
)

const (
	invoicePrefix     = "INV-"
	invoiceSuffixLen  = 6
	invoiceAlphabet   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	invoiceNumberKey  = "uq_invoices_number"
	maxNumberAttempts = 5
)

// NewInvoiceNumber returns INV-YYYYMMDD-XXXXXX for the UTC day of now, with
// a random uppercase alphanumeric suffix. Uniqueness is left to the store.
func NewInvoiceNumber(now time.Time) (string, error) {
	buf := make([]byte, 0, len(invoicePrefix)+9+invoiceSuffixLen)
	buf = append(buf, invoicePrefix...)
	buf = now.UTC().AppendFormat(buf, "20060102")
	buf = append(buf, '-')
	max := big.NewInt(int64(len(invoiceAlphabet)))
	for i := 0; i < invoiceSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf = append(buf, invoiceAlphabet[n.Int64()])
	}
	return string(buf), nil
}
