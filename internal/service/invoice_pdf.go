package service

import (
    "io"
    "strings"

    "github.com/go-pdf/fpdf"

    "github.com/iliyamo/backoffice/internal/model"
)

// Renderer produces the printable form of an invoice.
type Renderer interface {
    Render(w io.Writer, doc model.InvoiceDocument) error
}

// InvoicePDF renders A4 invoices with the core Helvetica font.
type InvoicePDF struct {
    Compress bool
}

func NewInvoicePDF() *InvoicePDF { return &InvoicePDF{Compress: true} }

func (r *InvoicePDF) Render(w io.Writer, doc model.InvoiceDocument) error {
    pdf := fpdf.New("P", "mm", "A4", "")
    pdf.SetCompression(r.Compress)
    tr := pdf.UnicodeTranslatorFromDescriptor("")
    inv, biz := doc.Invoice, doc.Business

    pdf.SetTitle("Invoice "+inv.InvoiceNumber, true)
    pdf.SetAuthor(biz.Name, true)
    pdf.AddPage()

    pdf.SetFont("Helvetica", "B", 20)
    pdf.CellFormat(0, 10, tr(biz.Name), "", 1, "L", false, 0, "")
    pdf.SetFont("Helvetica", "", 10)
    for _, line := range contactLines(doc.Contact) {
        pdf.CellFormat(0, 5, tr(line), "", 1, "L", false, 0, "")
    }
    pdf.Ln(8)

    pdf.SetFont("Helvetica", "B", 14)
    pdf.CellFormat(0, 8, "INVOICE "+inv.InvoiceNumber, "", 1, "L", false, 0, "")
    pdf.Ln(2)

    pdf.SetFont("Helvetica", "", 11)
    row := func(label, value string) {
        pdf.CellFormat(40, 7, label, "", 0, "L", false, 0, "")
        pdf.CellFormat(0, 7, tr(value), "", 1, "L", false, 0, "")
    }
    row("Bill to:", inv.ClientName)
    row("Issued:", inv.CreatedAt.UTC().Format(model.DateLayout))
    row("Due:", inv.DueDate.String())
    row("Status:", strings.ToUpper(inv.Status))
    pdf.Ln(6)

    pdf.SetFont("Helvetica", "B", 12)
    pdf.SetFillColor(235, 235, 235)
    pdf.CellFormat(130, 9, "Description", "1", 0, "L", true, 0, "")
    pdf.CellFormat(0, 9, "Amount", "1", 1, "R", true, 0, "")
    pdf.SetFont("Helvetica", "", 12)
    pdf.CellFormat(130, 9, tr("Services rendered to "+inv.ClientName), "1", 0, "L", false, 0, "")
    pdf.CellFormat(0, 9, inv.Amount.StringFixed(2), "1", 1, "R", false, 0, "")
    pdf.SetFont("Helvetica", "B", 12)
    pdf.CellFormat(130, 9, "Total", "1", 0, "R", false, 0, "")
    pdf.CellFormat(0, 9, inv.Amount.StringFixed(2), "1", 1, "R", false, 0, "")

    return pdf.Output(w)
}

func contactLines(c model.ContactInfo) []string {
    var lines []string
    add := func(parts ...*string) {
        var vals []string
        for _, p := range parts {
            if p != nil && strings.TrimSpace(*p) != "" {
                vals = append(vals, strings.TrimSpace(*p))
            }
        }
        if len(vals) > 0 {
            lines = append(lines, strings.Join(vals, ", "))
        }
    }
    add(c.Address)
    add(c.City, c.State, c.PostalCode, c.Country)
    add(c.Email)
    add(c.Phone)
    return lines
}
