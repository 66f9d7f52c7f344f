package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/backend/internal/auth"
	"storefront/backend/internal/cache"
	"storefront/backend/internal/domain"
	"storefront/backend/internal/kv"
	"storefront/backend/internal/store"
	"storefront/backend/internal/store/memory"
)

type fixture struct {
	svc      *Service
	users    *auth.Service
	repo     *memory.Store
	adminCtx context.Context
	custCtx  context.Context
	customer domain.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := auth.NewService(kv.NewMemory(), time.Hour)

	admin, err := users.RegisterAdmin(ctx, "Root", "root@example.com", "secret1", "", []string{"products", "orders", "reports"})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	customer, err := users.RegisterCustomer(ctx, "Ada", "ada@example.com", "secret1", "", "1 Example St")
	if err != nil {
		t.Fatalf("register customer: %v", err)
	}

	repo := memory.New()
	svc := New(repo, users, nil, cache.NoopReportCache{}, time.Minute)

	return &fixture{
		svc:      svc,
		users:    users,
		repo:     repo,
		adminCtx: WithActor(ctx, domain.Actor{UserID: admin.UserID, Role: admin.Role}),
		custCtx:  WithActor(ctx, domain.Actor{UserID: customer.UserID, Role: customer.Role}),
		customer: customer,
	}
}

func (f *fixture) seedProduct(t *testing.T, id string, priceCents int64, qty int) domain.Product {
	t.Helper()
	created, err := f.svc.CreateProduct(f.adminCtx, domain.ProductCreateRequest{
		ProductID:         id,
		Name:              "Product " + id,
		PriceCents:        priceCents,
		QuantityAvailable: qty,
		Category:          "test",
	})
	if err != nil {
		t.Fatalf("seed product %s: %v", id, err)
	}
	return created
}

func TestCreateProductRequiresAdmin(t *testing.T) {
	f := newFixture(t)

	req := domain.ProductCreateRequest{Name: "Widget", PriceCents: 100}
	if _, err := f.svc.CreateProduct(f.custCtx, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer create: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.CreateProduct(context.Background(), req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("anonymous create: expected ErrForbidden, got %v", err)
	}

	created, err := f.svc.CreateProduct(f.adminCtx, req)
	if err != nil {
		t.Fatalf("admin create: %v", err)
	}
	if created.ProductID == "" {
		t.Fatalf("expected generated product id")
	}
}

func TestAdminPermissionGrantsAreChecked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	limited, err := f.users.RegisterAdmin(ctx, "Junior", "junior@example.com", "secret1", "", []string{"orders"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	limitedCtx := WithActor(ctx, domain.Actor{UserID: limited.UserID, Role: limited.Role})

	if _, err := f.svc.CreateProduct(limitedCtx, domain.ProductCreateRequest{Name: "Widget", PriceCents: 100}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden without products permission, got %v", err)
	}
}

func TestListProductsFilters(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-cheap", 500, 10)
	f.seedProduct(t, "p-mid", 1500, 2)
	f.seedProduct(t, "p-dear", 5000, 0)

	all, err := f.svc.ListProducts(context.Background(), domain.ProductQuery{})
	if err != nil || len(all) != 3 {
		t.Fatalf("unfiltered: %d err=%v", len(all), err)
	}

	byKeyword, _ := f.svc.ListProducts(context.Background(), domain.ProductQuery{Keyword: "P-MID"})
	if len(byKeyword) != 1 || byKeyword[0].ProductID != "p-mid" {
		t.Fatalf("keyword filter: %+v", byKeyword)
	}

	byPrice, _ := f.svc.ListProducts(context.Background(), domain.ProductQuery{MinPriceCents: 1000, MaxPriceCents: 2000})
	if len(byPrice) != 1 || byPrice[0].ProductID != "p-mid" {
		t.Fatalf("price filter: %+v", byPrice)
	}

	threshold := 3
	low, _ := f.svc.ListProducts(context.Background(), domain.ProductQuery{LowStock: &threshold})
	if len(low) != 2 {
		t.Fatalf("low stock filter expected p-mid and p-dear, got %+v", low)
	}

	zero := 0
	out, _ := f.svc.ListProducts(context.Background(), domain.ProductQuery{LowStock: &zero})
	if len(out) != 1 || out[0].ProductID != "p-dear" {
		t.Fatalf("zero threshold filter: %+v", out)
	}
}

func TestUpdateProductPartial(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 5)

	newPrice := int64(1200)
	updated, err := f.svc.UpdateProduct(f.adminCtx, "p-1", domain.ProductUpdateRequest{PriceCents: &newPrice})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.PriceCents != 1200 || updated.Name != "Product p-1" {
		t.Fatalf("expected price-only change, got %+v", updated)
	}

	blank := "  "
	if _, err := f.svc.UpdateProduct(f.adminCtx, "p-1", domain.ProductUpdateRequest{Name: &blank}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("blank rename: expected ErrInvalidInput, got %v", err)
	}
}

func TestCartFlow(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	f.seedProduct(t, "p-2", 500, 10)

	view, err := f.svc.GetCart(f.custCtx)
	if err != nil {
		t.Fatalf("get cart: %v", err)
	}
	if len(view.Cart.Items) != 0 {
		t.Fatalf("expected empty cart on first use")
	}

	view, err = f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-1", Quantity: 2})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err = f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-2", Quantity: 1})
	if err != nil {
		t.Fatalf("add second: %v", err)
	}
	if view.SubtotalCents != 2500 || view.GSTCents != 250 || view.TotalCents != 2750 {
		t.Fatalf("unexpected totals: %+v", view)
	}

	if _, err := f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-1", Quantity: 100}); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("over-stock add: expected ErrInsufficientStock, got %v", err)
	}

	view, err = f.svc.UpdateCartItem(f.custCtx, "p-1", domain.CartUpdateRequest{Quantity: 1})
	if err != nil || view.SubtotalCents != 1500 {
		t.Fatalf("update quantity: %+v err=%v", view, err)
	}

	view, err = f.svc.RemoveFromCart(f.custCtx, "p-2")
	if err != nil || len(view.Cart.Items) != 1 {
		t.Fatalf("remove: %+v err=%v", view, err)
	}

	view, err = f.svc.ClearCart(f.custCtx)
	if err != nil || len(view.Cart.Items) != 0 {
		t.Fatalf("clear: %+v err=%v", view, err)
	}

	if _, err := f.svc.AddToCart(f.adminCtx, domain.CartAddRequest{ProductID: "p-1", Quantity: 1}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("admins have no cart, got %v", err)
	}
}

func TestCheckoutDecrementsStockAndClearsCart(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 5)

	if _, err := f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-1", Quantity: 3}); err != nil {
		t.Fatalf("add: %v", err)
	}

	view, err := f.svc.Checkout(f.custCtx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if view.Order.Status != domain.OrderStatusPending || view.TotalCents != 3300 {
		t.Fatalf("unexpected order: %+v", view)
	}

	product, err := f.svc.GetProduct(context.Background(), "p-1")
	if err != nil || product.QuantityAvailable != 2 {
		t.Fatalf("expected stock 2 after checkout, got %+v err=%v", product, err)
	}

	cart, err := f.svc.GetCart(f.custCtx)
	if err != nil || len(cart.Cart.Items) != 0 {
		t.Fatalf("expected fresh empty cart, got %+v err=%v", cart, err)
	}

	user, _ := f.users.GetUser(f.customer.UserID)
	if len(user.OrderHistory) != 1 || user.OrderHistory[0] != view.Order.OrderID {
		t.Fatalf("expected order in history, got %v", user.OrderHistory)
	}

	if _, err := f.svc.Checkout(f.custCtx); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("empty-cart checkout: expected ErrInvalidInput, got %v", err)
	}
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 5)
	f.seedProduct(t, "p-2", 500, 1)

	if _, err := f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-1", Quantity: 2}); err != nil {
		t.Fatalf("add p-1: %v", err)
	}
	if _, err := f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: "p-2", Quantity: 1}); err != nil {
		t.Fatalf("add p-2: %v", err)
	}

	// drain p-2 behind the cart's back so checkout fails mid-way
	if _, err := f.svc.AdjustStock(f.adminCtx, "p-2", -1); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if _, err := f.svc.Checkout(f.custCtx); !errors.Is(err, domain.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	p1, _ := f.svc.GetProduct(context.Background(), "p-1")
	if p1.QuantityAvailable != 5 {
		t.Fatalf("p-1 decrement must be rolled back, got %d", p1.QuantityAvailable)
	}
}

func checkoutOrder(t *testing.T, f *fixture, productID string, qty int) domain.OrderView {
	t.Helper()
	if _, err := f.svc.AddToCart(f.custCtx, domain.CartAddRequest{ProductID: productID, Quantity: qty}); err != nil {
		t.Fatalf("add: %v", err)
	}
	view, err := f.svc.Checkout(f.custCtx)
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	return view
}

func TestOrderOwnership(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	view := checkoutOrder(t, f, "p-1", 1)

	other, err := f.users.RegisterCustomer(context.Background(), "Eve", "eve@example.com", "secret1", "", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	otherCtx := WithActor(context.Background(), domain.Actor{UserID: other.UserID, Role: other.Role})

	if _, err := f.svc.GetOrder(otherCtx, view.Order.OrderID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("foreign order must look missing, got %v", err)
	}
	if _, err := f.svc.GetOrder(f.custCtx, view.Order.OrderID); err != nil {
		t.Fatalf("owner get: %v", err)
	}
	if _, err := f.svc.GetOrder(f.adminCtx, view.Order.OrderID); err != nil {
		t.Fatalf("admin get: %v", err)
	}

	mine, err := f.svc.ListMyOrders(f.custCtx)
	if err != nil || len(mine) != 1 {
		t.Fatalf("list my orders: %d err=%v", len(mine), err)
	}
}

func TestOrderLifecycleViaService(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	view := checkoutOrder(t, f, "p-1", 1)
	orderID := view.Order.OrderID

	// shipping before payment must fail
	if _, err := f.svc.ShipOrder(f.adminCtx, orderID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("ship pending: expected ErrInvalidTransition, got %v", err)
	}

	payment, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("initiate payment: %v", err)
	}
	if payment.AmountCents != view.TotalCents {
		t.Fatalf("payment must cover the order total, got %d want %d", payment.AmountCents, view.TotalCents)
	}

	if _, err := f.svc.CompletePayment(f.custCtx, payment.PaymentID); err != nil {
		t.Fatalf("complete payment: %v", err)
	}
	paid, err := f.svc.GetOrder(f.custCtx, orderID)
	if err != nil || paid.Order.Status != domain.OrderStatusPaid {
		t.Fatalf("expected paid order, got %+v err=%v", paid, err)
	}

	if _, err := f.svc.ShipOrder(f.custCtx, orderID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer ship: expected ErrForbidden, got %v", err)
	}
	if _, err := f.svc.ShipOrder(f.adminCtx, orderID); err != nil {
		t.Fatalf("ship: %v", err)
	}
	if _, err := f.svc.DeliverOrder(f.adminCtx, orderID); err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if _, err := f.svc.CancelOrder(f.custCtx, orderID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("cancel delivered: expected ErrInvalidTransition, got %v", err)
	}
}

func TestCancelOrderRestocks(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 5)
	view := checkoutOrder(t, f, "p-1", 3)

	if _, err := f.svc.CancelOrder(f.custCtx, view.Order.OrderID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	product, _ := f.svc.GetProduct(context.Background(), "p-1")
	if product.QuantityAvailable != 5 {
		t.Fatalf("expected full restock, got %d", product.QuantityAvailable)
	}
}

func TestPaymentGuards(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	view := checkoutOrder(t, f, "p-1", 1)
	orderID := view.Order.OrderID

	if _, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: "bitcoin"}); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("bad method: expected ErrInvalidInput, got %v", err)
	}

	payment, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCash})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := f.svc.FailPayment(f.custCtx, payment.PaymentID); err != nil {
		t.Fatalf("fail: %v", err)
	}
	// order stays pending, a fresh attempt is allowed
	second, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("second attempt: %v", err)
	}
	if _, err := f.svc.CompletePayment(f.custCtx, second.PaymentID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// paying a paid order must fail
	if _, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCard}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("pay paid order: expected ErrInvalidTransition, got %v", err)
	}

	payments, err := f.svc.ListOrderPayments(f.custCtx, orderID)
	if err != nil || len(payments) != 2 {
		t.Fatalf("list payments: %d err=%v", len(payments), err)
	}
}

func TestRefundCancelsAndRestocks(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 5)
	view := checkoutOrder(t, f, "p-1", 2)
	orderID := view.Order.OrderID

	payment, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := f.svc.CompletePayment(f.custCtx, payment.PaymentID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	if _, err := f.svc.RefundPayment(f.custCtx, payment.PaymentID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer refund: expected ErrForbidden, got %v", err)
	}
	refunded, err := f.svc.RefundPayment(f.adminCtx, payment.PaymentID)
	if err != nil || refunded.Status != domain.PaymentStatusRefunded {
		t.Fatalf("refund: %+v err=%v", refunded, err)
	}

	order, err := f.svc.GetOrder(f.adminCtx, orderID)
	if err != nil || order.Order.Status != domain.OrderStatusCancelled {
		t.Fatalf("expected cancelled order after refund, got %+v err=%v", order, err)
	}
	product, _ := f.svc.GetProduct(context.Background(), "p-1")
	if product.QuantityAvailable != 5 {
		t.Fatalf("expected restock after refund, got %d", product.QuantityAvailable)
	}
}

func TestIssueInvoiceOncePerOrder(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	view := checkoutOrder(t, f, "p-1", 1)
	orderID := view.Order.OrderID

	// pending orders cannot be invoiced
	if _, err := f.svc.IssueInvoice(f.custCtx, orderID, domain.InvoiceIssueRequest{}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("invoice pending: expected ErrInvalidTransition, got %v", err)
	}

	payment, err := f.svc.InitiatePayment(f.custCtx, domain.PaymentInitiateRequest{OrderID: orderID, Method: domain.PaymentMethodCard})
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := f.svc.CompletePayment(f.custCtx, payment.PaymentID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	invoice, err := f.svc.IssueInvoice(f.custCtx, orderID, domain.InvoiceIssueRequest{})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	// billing details default to the customer's profile
	if invoice.Invoice.BillingName != "Ada" || invoice.Invoice.BillingAddress != "1 Example St" {
		t.Fatalf("unexpected billing details: %+v", invoice.Invoice)
	}
	if invoice.TotalCents != view.TotalCents {
		t.Fatalf("invoice total %d, order total %d", invoice.TotalCents, view.TotalCents)
	}

	if _, err := f.svc.IssueInvoice(f.custCtx, orderID, domain.InvoiceIssueRequest{}); !errors.Is(err, store.ErrDuplicate) {
		t.Fatalf("second issue: expected ErrDuplicate, got %v", err)
	}

	got, err := f.svc.GetInvoice(f.custCtx, orderID)
	if err != nil || got.Invoice.InvoiceID != invoice.Invoice.InvoiceID {
		t.Fatalf("get invoice: %+v err=%v", got, err)
	}
}

func TestSalesReport(t *testing.T) {
	f := newFixture(t)
	f.seedProduct(t, "p-1", 1000, 10)
	checkoutOrder(t, f, "p-1", 2)

	from := time.Now().UTC().Add(-time.Hour)
	to := time.Now().UTC().Add(time.Hour)

	if _, err := f.svc.SalesReport(f.custCtx, from, to); !errors.Is(err, ErrForbidden) {
		t.Fatalf("customer report: expected ErrForbidden, got %v", err)
	}

	rep, err := f.svc.SalesReport(f.adminCtx, from, to)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	// 2000 subtotal + 200 GST
	if rep.TotalOrders != 1 || rep.TotalRevenueCents != 2200 || rep.TotalGSTCents != 200 {
		t.Fatalf("unexpected report: %+v", rep)
	}

	top, err := f.svc.TopProducts(f.adminCtx, from, to, 5)
	if err != nil || len(top) != 1 || top[0].ProductID != "p-1" {
		t.Fatalf("top products: %+v err=%v", top, err)
	}
}
