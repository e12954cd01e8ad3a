package model

import (
    "time"

    "github.com/shopspring/decimal"
)

// Transaction types and statuses.
const (
    TxIncome  = "income"
    TxExpense = "expense"

    TxCompleted = "completed"
    TxPending   = "pending"
    TxCancelled = "cancelled"
)

// Invoice statuses.
const (
    InvoicePaid    = "paid"
    InvoiceUnpaid  = "unpaid"
    InvoicePending = "pending"
    InvoiceOverdue = "overdue"
)

func ValidTxType(s string) bool { return s == TxIncome || s == TxExpense }

func ValidTxStatus(s string) bool {
    return s == TxCompleted || s == TxPending || s == TxCancelled
}

func ValidInvoiceStatus(s string) bool {
    switch s {
    case InvoicePaid, InvoiceUnpaid, InvoicePending, InvoiceOverdue:
        return true
    }
    return false
}

// Transaction is a single bookkeeping line of a business.
type Transaction struct {
    ID          uint64          `json:"id"`
    BusinessID  uint64          `json:"business"`
    Description string          `json:"description"`
    Amount      decimal.Decimal `json:"amount"`
    Type        string          `json:"type"`
    Category    string          `json:"category"`
    Date        Date            `json:"date"`
    Status      string          `json:"status"`
    CreatedAt   time.Time       `json:"created_at"`
}

// Invoice carries a number that is assigned once and never rewritten.
type Invoice struct {
    ID            uint64          `json:"id"`
    BusinessID    uint64          `json:"business"`
    InvoiceNumber string          `json:"invoice_number"`
    ClientName    string          `json:"client_name"`
    DueDate       Date            `json:"due_date"`
    Amount        decimal.Decimal `json:"amount"`
    Status        string          `json:"status"`
    CreatedAt     time.Time       `json:"created_at"`
}

// InvoiceDocument is the input of the invoice renderer.
type InvoiceDocument struct {
    Invoice  Invoice
    Business Business
    Contact  ContactInfo
}
