package repository

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceNumberRE = regexp.MustCompile(`^INV-\d{8}-[A-Z0-9]{6}$`)

func TestNewInvoiceNumberFormat(t *testing.T) {
	day := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	n, err := NewInvoiceNumber(day)
	require.NoError(t, err)
	assert.Regexp(t, invoiceNumberRE, n)
	assert.Equal(t, "INV-20240309-", n[:13])
}

func TestNewInvoiceNumberUsesUTCDay(t *testing.T) {
	// 01:00 in UTC+3 is still the previous UTC day.
	local := time.Date(2024, 3, 10, 1, 0, 0, 0, time.FixedZone("UTC+3", 3*3600))
	n, err := NewInvoiceNumber(local)
	require.NoError(t, err)
	assert.Equal(t, "INV-20240309-", n[:13])
}

func TestNewInvoiceNumberSuffixVaries(t *testing.T) {
	seen := map[string]bool{}
	now := time.Now()
	for i := 0; i < 200; i++ {
		n, err := NewInvoiceNumber(now)
		require.NoError(t, err)
		seen[n] = true
	}
	// 36^6 suffixes; 200 draws colliding more than once is practically impossible.
	assert.GreaterOrEqual(t, len(seen), 199)
}
