package domain

import (
	"fmt"
	"strings"
	"time"
)

// InvoiceLine is an order line plus its own GST share. Per-line GST is
// rounded independently, so the invoice GST total can differ from the order's
// aggregate GST by a cent.
type InvoiceLine struct {
	OrderItem
	LineGSTCents int64 `json:"lineGstCents"`
}

// Invoice is a read-only view derived from an Order at issue time.
type Invoice struct {
	InvoiceID      string        `json:"invoiceId"`
	OrderID        string        `json:"orderId"`
	BillingName    string        `json:"billingName"`
	BillingAddress string        `json:"billingAddress,omitempty"`
	Lines          []InvoiceLine `json:"lines"`
	IssuedAt       time.Time     `json:"issuedAt"`
}

func NewInvoice(invoiceID string, order Order, billingName, billingAddress string) (Invoice, error) {
	if strings.TrimSpace(invoiceID) == "" {
		return Invoice{}, fmt.Errorf("%w: invoiceId is required", ErrInvalidInput)
	}
	if order.OrderID == "" {
		return Invoice{}, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}
	billingName = strings.TrimSpace(billingName)
	if billingName == "" {
		return Invoice{}, fmt.Errorf("%w: billingName is required", ErrInvalidInput)
	}

	lines := make([]InvoiceLine, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, InvoiceLine{
			OrderItem:    item,
			LineGSTCents: GSTCents(item.LineTotalCents),
		})
	}

	return Invoice{
		InvoiceID:      invoiceID,
		OrderID:        order.OrderID,
		BillingName:    billingName,
		BillingAddress: strings.TrimSpace(billingAddress),
		Lines:          lines,
		IssuedAt:       time.Now().UTC(),
	}, nil
}

func (inv Invoice) SubtotalCents() int64 {
	var sum int64
	for _, line := range inv.Lines {
		sum += line.LineTotalCents
	}
	return sum
}

func (inv Invoice) GSTCents() int64 {
	var sum int64
	for _, line := range inv.Lines {
		sum += line.LineGSTCents
	}
	return sum
}

func (inv Invoice) TotalCents() int64 {
	return inv.SubtotalCents() + inv.GSTCents()
}
