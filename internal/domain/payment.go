package domain

import (
	"fmt"
	"time"
)

const (
	PaymentStatusInitiated = "initiated"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
	PaymentStatusRefunded  = "refunded"
)

const (
	PaymentMethodCard         = "card"
	PaymentMethodPayPal       = "paypal"
	PaymentMethodCash         = "cash"
	PaymentMethodBankTransfer = "bank_transfer"
)

// Payment tracks a single payment attempt against an order. Its status
// machine is independent of the order's.
type Payment struct {
	PaymentID   string     `json:"paymentId"`
	OrderID     string     `json:"orderId"`
	Method      string     `json:"method"`
	AmountCents int64      `json:"amountCents"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ProcessedAt *time.Time `json:"processedAt,omitempty"`
}

func NewPayment(paymentID, orderID, method string, amountCents int64) (Payment, error) {
	if paymentID == "" {
		return Payment{}, fmt.Errorf("%w: paymentId is required", ErrInvalidInput)
	}
	if orderID == "" {
		return Payment{}, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}
	if !IsSupportedPaymentMethod(method) {
		return Payment{}, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, method)
	}
	if amountCents < 0 {
		return Payment{}, fmt.Errorf("%w: amountCents must be >= 0", ErrInvalidInput)
	}
	return Payment{
		PaymentID:   paymentID,
		OrderID:     orderID,
		Method:      method,
		AmountCents: amountCents,
		Status:      PaymentStatusInitiated,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func IsSupportedPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCard, PaymentMethodPayPal, PaymentMethodCash, PaymentMethodBankTransfer:
		return true
	}
	return false
}

func (p *Payment) Complete() error {
	if p.Status != PaymentStatusInitiated {
		return fmt.Errorf("%w: cannot complete a %s payment", ErrInvalidTransition, p.Status)
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusCompleted
	p.ProcessedAt = &now
	return nil
}

func (p *Payment) Fail() error {
	if p.Status != PaymentStatusInitiated {
		return fmt.Errorf("%w: cannot fail a %s payment", ErrInvalidTransition, p.Status)
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusFailed
	p.ProcessedAt = &now
	return nil
}

// Refund is only legal from Completed.
func (p *Payment) Refund() error {
	if p.Status != PaymentStatusCompleted {
		return fmt.Errorf("%w: only completed payments can be refunded, is %s", ErrInvalidTransition, p.Status)
	}
	now := time.Now().UTC()
	p.Status = PaymentStatusRefunded
	p.ProcessedAt = &now
	return nil
}
