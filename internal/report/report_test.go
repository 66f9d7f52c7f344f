package report

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"storefront/backend/internal/domain"
)

func orderAt(t *testing.T, orderID string, createdAt time.Time, status string, productID string, unitCents int64, qty int) domain.Order {
	t.Helper()
	order, err := domain.NewOrderFromCart(orderID, "cust-1", []domain.CartItem{{
		ProductID:      productID,
		Name:           "Product " + productID,
		UnitPriceCents: unitCents,
		Quantity:       qty,
	}})
	if err != nil {
		t.Fatalf("new order: %v", err)
	}
	order.CreatedAt = createdAt
	order.Status = status
	return order
}

func TestGenerateAggregates(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC)
	mid := from.Add(24 * time.Hour)

	orders := []domain.Order{
		orderAt(t, "ord-1", mid, domain.OrderStatusPaid, "p-1", 1000, 2),
		orderAt(t, "ord-2", mid, domain.OrderStatusDelivered, "p-2", 500, 1),
		orderAt(t, "ord-3", mid, domain.OrderStatusCancelled, "p-1", 1000, 5),
	}

	rep, err := Generate(orders, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if rep.TotalOrders != 3 {
		t.Fatalf("expected 3 orders, got %d", rep.TotalOrders)
	}
	if rep.OrdersByStatus[domain.OrderStatusCancelled] != 1 {
		t.Fatalf("unexpected status breakdown: %v", rep.OrdersByStatus)
	}
	// revenue is GST-inclusive and counts every order in range:
	// 2200 (paid) + 550 (delivered) + 5500 (cancelled)
	if rep.TotalRevenueCents != 8250 {
		t.Fatalf("expected revenue 8250, got %d", rep.TotalRevenueCents)
	}
	if rep.TotalGSTCents != 750 {
		t.Fatalf("expected gst 750, got %d", rep.TotalGSTCents)
	}

	if len(rep.TopProducts) != 2 {
		t.Fatalf("expected 2 products, got %d", len(rep.TopProducts))
	}
	if rep.TopProducts[0].ProductID != "p-1" || rep.TopProducts[0].RevenueCents != 7000 || rep.TopProducts[0].QuantitySold != 7 {
		t.Fatalf("unexpected top product: %+v", rep.TopProducts[0])
	}
}

func TestGenerateCountsCancelledOrdersAndGST(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	orders := []domain.Order{
		orderAt(t, "ord-1", from, domain.OrderStatusPaid, "p-1", 2000, 1),
		orderAt(t, "ord-2", from, domain.OrderStatusCancelled, "p-2", 2000, 1),
	}

	rep, err := Generate(orders, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	// each order: 2000 subtotal + 200 GST = 2200 total
	if rep.TotalRevenueCents != 4400 {
		t.Fatalf("expected revenue 4400, got %d", rep.TotalRevenueCents)
	}
	if rep.TotalGSTCents != 400 {
		t.Fatalf("expected gst 400, got %d", rep.TotalGSTCents)
	}
	if rep.OrdersByStatus[domain.OrderStatusCancelled] != 1 || rep.OrdersByStatus[domain.OrderStatusPaid] != 1 {
		t.Fatalf("unexpected status breakdown: %v", rep.OrdersByStatus)
	}
}

func TestGenerateRangeIsInclusive(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)

	orders := []domain.Order{
		orderAt(t, "ord-1", from, domain.OrderStatusPaid, "p-1", 100, 1),
		orderAt(t, "ord-2", to, domain.OrderStatusPaid, "p-1", 100, 1),
		orderAt(t, "ord-3", from.Add(-time.Second), domain.OrderStatusPaid, "p-1", 100, 1),
		orderAt(t, "ord-4", to.Add(time.Second), domain.OrderStatusPaid, "p-1", 100, 1),
	}

	rep, err := Generate(orders, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.TotalOrders != 2 {
		t.Fatalf("expected both boundary orders and only those, got %d", rep.TotalOrders)
	}
}

func TestGenerateEmptyPeriod(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rep, err := Generate(nil, from, from.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if rep.TotalOrders != 0 || rep.TotalRevenueCents != 0 || len(rep.TopProducts) != 0 {
		t.Fatalf("expected empty report, got %+v", rep)
	}
}

func TestGenerateRejectsInvertedRange(t *testing.T) {
	from := time.Date(2026, 8, 2, 0, 0, 0, 0, time.UTC)
	if _, err := Generate(nil, from, from.Add(-time.Hour)); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestGenerateTopProductsCapped(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	var orders []domain.Order
	for i := 0; i < TopProductLimit+5; i++ {
		productID := fmt.Sprintf("p-%02d", i)
		orders = append(orders, orderAt(t, "ord-"+productID, from, domain.OrderStatusPaid, productID, int64(100+i), 1))
	}

	rep, err := Generate(orders, from, to)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(rep.TopProducts) != TopProductLimit {
		t.Fatalf("expected capped list of %d, got %d", TopProductLimit, len(rep.TopProducts))
	}
	// highest revenue first
	if rep.TopProducts[0].RevenueCents < rep.TopProducts[1].RevenueCents {
		t.Fatalf("expected descending revenue: %+v", rep.TopProducts[:2])
	}
}
