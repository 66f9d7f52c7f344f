package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"storefront/backend/internal/domain"
	"storefront/backend/internal/store"
)

// Store is the in-memory Repository used for tests and demo runs. All maps
// are guarded by a single RWMutex; slice-backed values are copied in and out
// so callers never share memory with the store.
type Store struct {
	mu              sync.RWMutex
	products        map[string]domain.Product
	carts           map[string]domain.Cart
	cartsByCustomer map[string]string
	orders          map[string]domain.Order
	payments        map[string]domain.Payment
	paymentsByOrder map[string][]string
	invoicesByOrder map[string]domain.Invoice
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		carts:           make(map[string]domain.Cart),
		cartsByCustomer: make(map[string]string),
		orders:          make(map[string]domain.Order),
		payments:        make(map[string]domain.Payment),
		paymentsByOrder: make(map[string][]string),
		invoicesByOrder: make(map[string]domain.Invoice),
	}
}

// NewSeeded returns a store pre-loaded with a small demo catalogue.
func NewSeeded() *Store {
	s := New()
	seed := []domain.Product{
		{ProductID: "prd-laptop-01", Name: "Aurora 14 Laptop", Category: "electronics", PriceCents: 129900, QuantityAvailable: 12, Description: "14 inch ultrabook"},
		{ProductID: "prd-mouse-01", Name: "Wireless Mouse", Category: "electronics", PriceCents: 3490, QuantityAvailable: 80},
		{ProductID: "prd-keyboard-01", Name: "Mechanical Keyboard", Category: "electronics", PriceCents: 8990, QuantityAvailable: 35},
		{ProductID: "prd-mug-01", Name: "Enamel Mug", Category: "kitchen", PriceCents: 1250, QuantityAvailable: 150},
		{ProductID: "prd-kettle-01", Name: "Electric Kettle", Category: "kitchen", PriceCents: 5600, QuantityAvailable: 40},
		{ProductID: "prd-tshirt-01", Name: "Logo T-Shirt", Category: "apparel", PriceCents: 2900, QuantityAvailable: 200},
		{ProductID: "prd-hoodie-01", Name: "Zip Hoodie", Category: "apparel", PriceCents: 6900, QuantityAvailable: 60},
		{ProductID: "prd-bottle-01", Name: "Insulated Bottle", Category: "kitchen", PriceCents: 3200, QuantityAvailable: 0},
	}
	for _, p := range seed {
		s.products[p.ProductID] = p
	}
	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

func (s *Store) GetProduct(_ context.Context, productID string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	return &p, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.ProductID]; exists {
		return nil, fmt.Errorf("product %s: %w", product.ProductID, store.ErrDuplicate)
	}
	s.products[product.ProductID] = product
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[product.ProductID]; !exists {
		return nil, fmt.Errorf("product %s: %w", product.ProductID, store.ErrNotFound)
	}
	s.products[product.ProductID] = product
	return &product, nil
}

func (s *Store) RemoveProduct(_ context.Context, productID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.products[productID]; !exists {
		return false, nil
	}
	delete(s.products, productID)
	return true, nil
}

func (s *Store) AdjustStock(_ context.Context, productID string, delta int) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	next := p.QuantityAvailable + delta
	if next < 0 {
		return nil, fmt.Errorf("product %s has %d available, requested %d: %w", productID, p.QuantityAvailable, -delta, domain.ErrInsufficientStock)
	}
	p.QuantityAvailable = next
	s.products[productID] = p
	return &p, nil
}

func (s *Store) GetCart(_ context.Context, cartID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[cartID]
	if !ok {
		return nil, fmt.Errorf("cart %s: %w", cartID, store.ErrNotFound)
	}
	copied := copyCart(cart)
	return &copied, nil
}

func (s *Store) GetCartByCustomer(_ context.Context, customerID string) (*domain.Cart, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cartID, ok := s.cartsByCustomer[customerID]
	if !ok {
		return nil, fmt.Errorf("cart for customer %s: %w", customerID, store.ErrNotFound)
	}
	copied := copyCart(s.carts[cartID])
	return &copied, nil
}

func (s *Store) SaveCart(_ context.Context, cart domain.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.CartID] = copyCart(cart)
	s.cartsByCustomer[cart.CustomerID] = cart.CartID
	return nil
}

func (s *Store) DeleteCart(_ context.Context, cartID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cart, ok := s.carts[cartID]
	if !ok {
		return nil
	}
	delete(s.carts, cartID)
	if s.cartsByCustomer[cart.CustomerID] == cartID {
		delete(s.cartsByCustomer, cart.CustomerID)
	}
	return nil
}

func (s *Store) CreateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; exists {
		return nil, fmt.Errorf("order %s: %w", order.OrderID, store.ErrDuplicate)
	}
	s.orders[order.OrderID] = copyOrder(order)
	copied := copyOrder(order)
	return &copied, nil
}

func (s *Store) GetOrder(_ context.Context, orderID string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	order, ok := s.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s: %w", orderID, store.ErrNotFound)
	}
	copied := copyOrder(order)
	return &copied, nil
}

func (s *Store) UpdateOrder(_ context.Context, order domain.Order) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[order.OrderID]; !exists {
		return nil, fmt.Errorf("order %s: %w", order.OrderID, store.ErrNotFound)
	}
	s.orders[order.OrderID] = copyOrder(order)
	copied := copyOrder(order)
	return &copied, nil
}

func (s *Store) ListOrdersByCustomer(_ context.Context, customerID string) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, order := range s.orders {
		if order.CustomerID == customerID {
			out = append(out, copyOrder(order))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListOrdersBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Order
	for _, order := range s.orders {
		if order.CreatedAt.Before(from) || order.CreatedAt.After(to) {
			continue
		}
		out = append(out, copyOrder(order))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreatePayment(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.PaymentID]; exists {
		return nil, fmt.Errorf("payment %s: %w", payment.PaymentID, store.ErrDuplicate)
	}
	s.payments[payment.PaymentID] = payment
	s.paymentsByOrder[payment.OrderID] = append(s.paymentsByOrder[payment.OrderID], payment.PaymentID)
	return &payment, nil
}

func (s *Store) GetPayment(_ context.Context, paymentID string) (*domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payment, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, store.ErrNotFound)
	}
	return &payment, nil
}

func (s *Store) UpdatePayment(_ context.Context, payment domain.Payment) (*domain.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.payments[payment.PaymentID]; !exists {
		return nil, fmt.Errorf("payment %s: %w", payment.PaymentID, store.ErrNotFound)
	}
	s.payments[payment.PaymentID] = payment
	return &payment, nil
}

func (s *Store) ListPaymentsByOrder(_ context.Context, orderID string) ([]domain.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.paymentsByOrder[orderID]
	out := make([]domain.Payment, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.payments[id])
	}
	return out, nil
}

func (s *Store) CreateInvoice(_ context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.invoicesByOrder[invoice.OrderID]; exists {
		return nil, fmt.Errorf("invoice for order %s: %w", invoice.OrderID, store.ErrDuplicate)
	}
	s.invoicesByOrder[invoice.OrderID] = copyInvoice(invoice)
	copied := copyInvoice(invoice)
	return &copied, nil
}

func (s *Store) GetInvoiceByOrder(_ context.Context, orderID string) (*domain.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	invoice, ok := s.invoicesByOrder[orderID]
	if !ok {
		return nil, fmt.Errorf("invoice for order %s: %w", orderID, store.ErrNotFound)
	}
	copied := copyInvoice(invoice)
	return &copied, nil
}

func copyCart(cart domain.Cart) domain.Cart {
	items := make([]domain.CartItem, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return cart
}

func copyOrder(order domain.Order) domain.Order {
	items := make([]domain.OrderItem, len(order.Items))
	copy(items, order.Items)
	order.Items = items
	return order
}

func copyInvoice(invoice domain.Invoice) domain.Invoice {
	lines := make([]domain.InvoiceLine, len(invoice.Lines))
	copy(lines, invoice.Lines)
	invoice.Lines = lines
	return invoice
}
