// Package document defines the business document model shared by every
// renderer: invoices, quotations, purchase orders and receipts.
//
// A Document arrives from the web form, an MCP tool call or a file on disk.
// Normalize fills the same defaults the form would, CalculateTotals derives
// line and summary amounts, and Validate rejects data no renderer should draw.
package document

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
)

var titles = map[Type]string{
	TypeInvoice:       "INVOICE",
	TypeQuotation:     "QUOTATION",
	TypePurchaseOrder: "PURCHASE ORDER",
	TypeReceipt:       "RECEIPT",
}

// Title returns the heading printed for a document type
func Title(t Type) string {
	if title, ok := titles[t]; ok {
		return title
	}
	return "DOCUMENT"
}

// Types returns the supported document types in display order
func Types() []Type {
	return []Type{TypeInvoice, TypeQuotation, TypePurchaseOrder, TypeReceipt}
}

// Title returns the heading for this document
func (d *Document) Title() string {
	return Title(d.Type)
}

// ShowsDueDate reports whether the due date line is printed.
// Only invoices carry a due date.
func (d *Document) ShowsDueDate() bool {
	return d.Type == TypeInvoice && strings.TrimSpace(d.DueDate) != ""
}

// Normalize applies the defaults the document form uses for blank fields
// and recomputes totals from the line items.
func (d *Document) Normalize(now time.Time) {
	if strings.TrimSpace(string(d.Type)) == "" {
		d.Type = DefaultType
	}
	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	if strings.TrimSpace(d.Number) == "" {
		d.Number = DefaultNumber
	}
	if strings.TrimSpace(d.Date) == "" {
		d.Date = now.Format(DateLayout)
	}
	if strings.TrimSpace(d.Business.Name) == "" {
		d.Business.Name = DefaultBusinessName
	}

	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	switch {
	case d.Currency != "":
	case strings.TrimSpace(d.Business.Currency) != "":
		d.Currency = strings.ToUpper(strings.TrimSpace(d.Business.Currency))
	default:
		d.Currency = DefaultCurrency
	}

	taxRate := d.Business.TaxRate
	if taxRate == 0 && d.Totals.TaxRate != 0 {
		taxRate = d.Totals.TaxRate
	}
	d.Totals = CalculateTotals(d.Items, taxRate)
}

// CalculateTotals fills in every item's line total and returns the summary.
// Discounts are clamped to 0..100 percent and amounts rounded to cents.
func CalculateTotals(items []Item, taxRate float64) Totals {
	var subtotal float64
	for i := range items {
		items[i].Total = LineTotal(items[i])
		subtotal += items[i].Total
	}
	subtotal = roundCents(subtotal)
	tax := roundCents(subtotal * taxRate / 100)
	return Totals{
		Subtotal:   subtotal,
		TaxRate:    taxRate,
		TaxAmount:  tax,
		GrandTotal: roundCents(subtotal + tax),
	}
}

// LineTotal returns quantity x price less the item discount
func LineTotal(it Item) float64 {
	discount := math.Max(0, math.Min(100, it.Discount))
	return roundCents(it.Quantity * it.Price * (1 - discount/100))
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// FileName builds the download name "<type>-<number>-<millis>.<ext>"
func (d *Document) FileName(ext string, now time.Time) string {
	number := unsafeFileChars.ReplaceAllString(d.Number, "_")
	number = strings.Trim(number, "_")
	if number == "" {
		number = "document"
	}
	kind := strings.ToLower(string(d.Type))
	if kind == "" {
		kind = string(DefaultType)
	}
	return fmt.Sprintf("%s-%s-%d.%s", kind, number, now.UnixMilli(), strings.TrimPrefix(ext, "."))
}
