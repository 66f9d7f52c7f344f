package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"storefront/backend/internal/domain"
	"storefront/backend/internal/store"
)

// Store implements store.Repository on PostgreSQL. Cart items, order items
// and invoice lines are stored as JSONB alongside the row's scalar columns.
type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS products (
			product_id  TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			price_cents BIGINT NOT NULL CHECK (price_cents >= 0),
			quantity    INT NOT NULL CHECK (quantity >= 0),
			description TEXT NOT NULL DEFAULT '',
			category    TEXT NOT NULL DEFAULT '',
			image_url   TEXT NOT NULL DEFAULT '',
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE TABLE IF NOT EXISTS carts (
			cart_id     TEXT PRIMARY KEY,
			customer_id TEXT NOT NULL UNIQUE,
			items       JSONB NOT NULL DEFAULT '[]',
			created_at  TIMESTAMPTZ NOT NULL
		);
		CREATE TABLE IF NOT EXISTS orders (
			order_id     TEXT PRIMARY KEY,
			customer_id  TEXT NOT NULL,
			items        JSONB NOT NULL,
			status       TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			paid_at      TIMESTAMPTZ,
			shipped_at   TIMESTAMPTZ,
			delivered_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS orders_customer_idx ON orders (customer_id, created_at);
		CREATE INDEX IF NOT EXISTS orders_created_idx ON orders (created_at);
		CREATE TABLE IF NOT EXISTS payments (
			payment_id   TEXT PRIMARY KEY,
			order_id     TEXT NOT NULL REFERENCES orders (order_id),
			method       TEXT NOT NULL,
			amount_cents BIGINT NOT NULL,
			status       TEXT NOT NULL,
			created_at   TIMESTAMPTZ NOT NULL,
			processed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS payments_order_idx ON payments (order_id, created_at);
		CREATE TABLE IF NOT EXISTS invoices (
			invoice_id      TEXT PRIMARY KEY,
			order_id        TEXT NOT NULL UNIQUE REFERENCES orders (order_id),
			billing_name    TEXT NOT NULL,
			billing_address TEXT NOT NULL DEFAULT '',
			lines           JSONB NOT NULL,
			issued_at       TIMESTAMPTZ NOT NULL
		);
	`)
	return err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, name, price_cents, quantity, description, category, image_url
		FROM products
		ORDER BY category, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 128)
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ProductID, &p.Name, &p.PriceCents, &p.QuantityAvailable, &p.Description, &p.Category, &p.ImageURL); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		SELECT product_id, name, price_cents, quantity, description, category, image_url
		FROM products
		WHERE product_id = $1
	`, productID).Scan(&p.ProductID, &p.Name, &p.PriceCents, &p.QuantityAvailable, &p.Description, &p.Category, &p.ImageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (product_id, name, price_cents, quantity, description, category, image_url, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now(),now())
	`, product.ProductID, product.Name, product.PriceCents, product.QuantityAvailable, product.Description, product.Category, product.ImageURL)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := product
	return &created, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $2, price_cents = $3, quantity = $4, description = $5, category = $6, image_url = $7, updated_at = now()
		WHERE product_id = $1
	`, product.ProductID, product.Name, product.PriceCents, product.QuantityAvailable, product.Description, product.Category, product.ImageURL)
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := product
	return &updated, nil
}

func (s *Store) RemoveProduct(ctx context.Context, productID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *Store) AdjustStock(ctx context.Context, productID string, delta int) (*domain.Product, error) {
	var p domain.Product
	err := s.db.QueryRowContext(ctx, `
		UPDATE products
		SET quantity = quantity + $2, updated_at = now()
		WHERE product_id = $1 AND quantity + $2 >= 0
		RETURNING product_id, name, price_cents, quantity, description, category, image_url
	`, productID, delta).Scan(&p.ProductID, &p.Name, &p.PriceCents, &p.QuantityAvailable, &p.Description, &p.Category, &p.ImageURL)
	if err == nil {
		return &p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// distinguish a missing row from a guard failure
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)`, productID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, store.ErrNotFound
	}
	return nil, fmt.Errorf("product %s: %w", productID, domain.ErrInsufficientStock)
}

func (s *Store) GetCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	return s.scanCart(s.db.QueryRowContext(ctx, `
		SELECT cart_id, customer_id, items, created_at
		FROM carts
		WHERE cart_id = $1
	`, cartID))
}

func (s *Store) GetCartByCustomer(ctx context.Context, customerID string) (*domain.Cart, error) {
	return s.scanCart(s.db.QueryRowContext(ctx, `
		SELECT cart_id, customer_id, items, created_at
		FROM carts
		WHERE customer_id = $1
	`, customerID))
}

func (s *Store) scanCart(row *sql.Row) (*domain.Cart, error) {
	var (
		cart      domain.Cart
		itemsJSON []byte
	)
	err := row.Scan(&cart.CartID, &cart.CustomerID, &itemsJSON, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, fmt.Errorf("decode cart items: %w", err)
	}
	return &cart, nil
}

func (s *Store) SaveCart(ctx context.Context, cart domain.Cart) error {
	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return fmt.Errorf("encode cart items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO carts (cart_id, customer_id, items, created_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (cart_id) DO UPDATE SET items = EXCLUDED.items
	`, cart.CartID, cart.CustomerID, itemsJSON, cart.CreatedAt)
	return err
}

func (s *Store) DeleteCart(ctx context.Context, cartID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM carts WHERE cart_id = $1`, cartID)
	return err
}

func (s *Store) CreateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO orders (order_id, customer_id, items, status, created_at, paid_at, shipped_at, delivered_at, cancelled_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, order.OrderID, order.CustomerID, itemsJSON, order.Status, order.CreatedAt,
		nullTime(order.PaidAt), nullTime(order.ShippedAt), nullTime(order.DeliveredAt), nullTime(order.CancelledAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := order
	return &created, nil
}

func (s *Store) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_id, customer_id, items, status, created_at, paid_at, shipped_at, delivered_at, cancelled_at
		FROM orders
		WHERE order_id = $1
	`, orderID)
	order, err := scanOrder(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return order, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order domain.Order) (*domain.Order, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders
		SET items = $2, status = $3, paid_at = $4, shipped_at = $5, delivered_at = $6, cancelled_at = $7
		WHERE order_id = $1
	`, order.OrderID, itemsJSON, order.Status,
		nullTime(order.PaidAt), nullTime(order.ShippedAt), nullTime(order.DeliveredAt), nullTime(order.CancelledAt))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := order
	return &updated, nil
}

func (s *Store) ListOrdersByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	return s.queryOrders(ctx, `
		SELECT order_id, customer_id, items, status, created_at, paid_at, shipped_at, delivered_at, cancelled_at
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at
	`, customerID)
}

func (s *Store) ListOrdersBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Order, error) {
	return s.queryOrders(ctx, `
		SELECT order_id, customer_id, items, status, created_at, paid_at, shipped_at, delivered_at, cancelled_at
		FROM orders
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at
	`, from, to)
}

func (s *Store) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows.Scan)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

func scanOrder(scan func(...any) error) (*domain.Order, error) {
	var (
		order     domain.Order
		itemsJSON []byte
		paidAt    sql.NullTime
		shippedAt sql.NullTime
		delivered sql.NullTime
		cancelled sql.NullTime
	)
	if err := scan(&order.OrderID, &order.CustomerID, &itemsJSON, &order.Status, &order.CreatedAt,
		&paidAt, &shippedAt, &delivered, &cancelled); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, fmt.Errorf("decode order items: %w", err)
	}
	order.PaidAt = timePtr(paidAt)
	order.ShippedAt = timePtr(shippedAt)
	order.DeliveredAt = timePtr(delivered)
	order.CancelledAt = timePtr(cancelled)
	return &order, nil
}

func (s *Store) CreatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO payments (payment_id, order_id, method, amount_cents, status, created_at, processed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
	`, payment.PaymentID, payment.OrderID, payment.Method, payment.AmountCents, payment.Status,
		payment.CreatedAt, nullTime(payment.ProcessedAt))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := payment
	return &created, nil
}

func (s *Store) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	var (
		payment   domain.Payment
		processed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT payment_id, order_id, method, amount_cents, status, created_at, processed_at
		FROM payments
		WHERE payment_id = $1
	`, paymentID).Scan(&payment.PaymentID, &payment.OrderID, &payment.Method, &payment.AmountCents,
		&payment.Status, &payment.CreatedAt, &processed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	payment.ProcessedAt = timePtr(processed)
	return &payment, nil
}

func (s *Store) UpdatePayment(ctx context.Context, payment domain.Payment) (*domain.Payment, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE payments
		SET status = $2, processed_at = $3
		WHERE payment_id = $1
	`, payment.PaymentID, payment.Status, nullTime(payment.ProcessedAt))
	if err != nil {
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := payment
	return &updated, nil
}

func (s *Store) ListPaymentsByOrder(ctx context.Context, orderID string) ([]domain.Payment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT payment_id, order_id, method, amount_cents, status, created_at, processed_at
		FROM payments
		WHERE order_id = $1
		ORDER BY created_at
	`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		var (
			payment   domain.Payment
			processed sql.NullTime
		)
		if err := rows.Scan(&payment.PaymentID, &payment.OrderID, &payment.Method, &payment.AmountCents,
			&payment.Status, &payment.CreatedAt, &processed); err != nil {
			return nil, err
		}
		payment.ProcessedAt = timePtr(processed)
		payments = append(payments, payment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

func (s *Store) CreateInvoice(ctx context.Context, invoice domain.Invoice) (*domain.Invoice, error) {
	linesJSON, err := json.Marshal(invoice.Lines)
	if err != nil {
		return nil, fmt.Errorf("encode invoice lines: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO invoices (invoice_id, order_id, billing_name, billing_address, lines, issued_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, invoice.InvoiceID, invoice.OrderID, invoice.BillingName, invoice.BillingAddress, linesJSON, invoice.IssuedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	created := invoice
	return &created, nil
}

func (s *Store) GetInvoiceByOrder(ctx context.Context, orderID string) (*domain.Invoice, error) {
	var (
		invoice   domain.Invoice
		linesJSON []byte
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT invoice_id, order_id, billing_name, billing_address, lines, issued_at
		FROM invoices
		WHERE order_id = $1
	`, orderID).Scan(&invoice.InvoiceID, &invoice.OrderID, &invoice.BillingName, &invoice.BillingAddress, &linesJSON, &invoice.IssuedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(linesJSON, &invoice.Lines); err != nil {
		return nil, fmt.Errorf("decode invoice lines: %w", err)
	}
	return &invoice, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func nullTime(val *time.Time) any {
	if val == nil {
		return nil
	}
	return *val
}

func timePtr(val sql.NullTime) *time.Time {
	if !val.Valid {
		return nil
	}
	t := val.Time
	return &t
}
