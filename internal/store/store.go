package store

import (
	"context"
	"errors"
	"time"

	"storefront/backend/internal/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// Repository is the persistence surface for catalogue, carts, orders,
// payments and invoices. Implementations return ErrNotFound for missing
// records and ErrDuplicate on unique-key conflicts.
type Repository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (*domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	// RemoveProduct reports whether a product was actually deleted.
	RemoveProduct(ctx context.Context, productID string) (bool, error)
	// AdjustStock applies a signed delta and returns the updated product.
	// A delta that would take stock negative fails with
	// domain.ErrInsufficientStock and leaves the row untouched.
	AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error)

	GetCart(ctx context.Context, cartID string) (*domain.Cart, error)
	GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error)
	SaveCart(ctx context.Context, cart domain.Cart) error
	DeleteCart(ctx context.Context, cartID string) error

	CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error)
	ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error)
	// ListOrdersBetween returns orders created in [from, to], inclusive.
	ListOrdersBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Order, error)

	CreatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error)
	UpdatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error)
	ListPaymentsByOrder(ctx context.Context, orderID string) ([]domain.Payment, error)

	CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error)
	GetInvoiceByOrder(ctx context.Context, orderID string) (*domain.Invoice, error)
}
