package domain

import (
	"fmt"
	"time"
)

const (
	OrderStatusPending   = "pending"
	OrderStatusPaid      = "paid"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusCancelled = "cancelled"
)

// OrderItem is a cart line frozen at checkout time with its computed total.
type OrderItem struct {
	CartItem
	LineTotalCents int64 `json:"lineTotalCents"`
}

// Order is an immutable snapshot of a cart. Only Status and the transition
// timestamps change after creation.
type Order struct {
	OrderID     string      `json:"orderId"`
	CustomerID  string      `json:"customerId"`
	Items       []OrderItem `json:"items"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"createdAt"`
	PaidAt      *time.Time  `json:"paidAt,omitempty"`
	ShippedAt   *time.Time  `json:"shippedAt,omitempty"`
	DeliveredAt *time.Time  `json:"deliveredAt,omitempty"`
	CancelledAt *time.Time  `json:"cancelledAt,omitempty"`
}

func NewOrderFromCart(orderID, customerID string, items []CartItem) (Order, error) {
	if orderID == "" {
		return Order{}, fmt.Errorf("%w: orderId is required", ErrInvalidInput)
	}
	if customerID == "" {
		return Order{}, fmt.Errorf("%w: customerId is required", ErrInvalidInput)
	}
	if len(items) == 0 {
		return Order{}, fmt.Errorf("%w: order must have at least one item", ErrInvalidInput)
	}

	orderItems := make([]OrderItem, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 || item.UnitPriceCents < 0 {
			return Order{}, fmt.Errorf("%w: invalid line for product %s", ErrInvalidInput, item.ProductID)
		}
		orderItems = append(orderItems, OrderItem{
			CartItem:       item,
			LineTotalCents: item.UnitPriceCents * int64(item.Quantity),
		})
	}

	return Order{
		OrderID:    orderID,
		CustomerID: customerID,
		Items:      orderItems,
		Status:     OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func (o Order) SubtotalCents() int64 {
	var sum int64
	for _, item := range o.Items {
		sum += item.LineTotalCents
	}
	return sum
}

func (o Order) GSTCents() int64 {
	return GSTCents(o.SubtotalCents())
}

func (o Order) TotalCents() int64 {
	return o.SubtotalCents() + o.GSTCents()
}

func (o *Order) MarkPaid() error {
	if o.Status != OrderStatusPending {
		return fmt.Errorf("%w: cannot pay a %s order", ErrInvalidTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusPaid
	o.PaidAt = &now
	return nil
}

func (o *Order) MarkShipped() error {
	if o.Status != OrderStatusPaid {
		return fmt.Errorf("%w: order must be paid before shipping, is %s", ErrInvalidTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusShipped
	o.ShippedAt = &now
	return nil
}

func (o *Order) MarkDelivered() error {
	if o.Status != OrderStatusShipped {
		return fmt.Errorf("%w: order must be shipped before delivery, is %s", ErrInvalidTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusDelivered
	o.DeliveredAt = &now
	return nil
}

// Cancel is only legal before shipment.
func (o *Order) Cancel() error {
	if o.Status != OrderStatusPending && o.Status != OrderStatusPaid {
		return fmt.Errorf("%w: cannot cancel a %s order", ErrInvalidTransition, o.Status)
	}
	now := time.Now().UTC()
	o.Status = OrderStatusCancelled
	o.CancelledAt = &now
	return nil
}
