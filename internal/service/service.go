package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"storefront/backend/internal/auth"
	"storefront/backend/internal/cache"
	"storefront/backend/internal/catalogue"
	"storefront/backend/internal/domain"
	"storefront/backend/internal/report"
	"storefront/backend/internal/store"
	"storefront/backend/internal/xid"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

var ErrForbidden = errors.New("forbidden")

// Service holds the storefront's business operations. It owns no state of
// its own: products, carts, orders, payments and invoices live in the
// repository, accounts and sessions in the auth service.
type Service struct {
	repo           store.Repository
	users          *auth.Service
	loader         *catalogue.Loader
	reports        cache.ReportCache
	reportCacheTTL time.Duration
}

func New(repo store.Repository, users *auth.Service, loader *catalogue.Loader, reports cache.ReportCache, reportCacheTTL time.Duration) *Service {
	if loader == nil {
		loader = catalogue.NewLoader()
	}
	if reports == nil {
		reports = cache.NoopReportCache{}
	}
	if reportCacheTTL <= 0 {
		reportCacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:           repo,
		users:          users,
		loader:         loader,
		reports:        reports,
		reportCacheTTL: reportCacheTTL,
	}
}

func (s *Service) requireAdmin(ctx context.Context, permission string) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Actor{}, fmt.Errorf("%w: admin role required", ErrForbidden)
	}
	if permission != "" && !s.users.CheckPermission(actor.UserID, permission) {
		return domain.Actor{}, fmt.Errorf("%w: %s permission required", ErrForbidden, permission)
	}
	return actor, nil
}

func (s *Service) recordAdminAction(ctx context.Context, actor domain.Actor, action string) {
	err := s.users.UpdateUser(ctx, actor.UserID, func(u *domain.User) {
		u.RecordAction(action)
	})
	if err != nil {
		log.Printf("[service] WARN: record admin action for %s: %v", actor.UserID, err)
	}
}

// --- catalogue ---

func (s *Service) ListProducts(ctx context.Context, query domain.ProductQuery) ([]domain.Product, error) {
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	keyword := strings.ToLower(strings.TrimSpace(query.Keyword))
	category := strings.ToLower(strings.TrimSpace(query.Category))

	filtered := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Description), keyword) {
			continue
		}
		if category != "" && strings.ToLower(p.Category) != category {
			continue
		}
		if query.MinPriceCents > 0 && p.PriceCents < query.MinPriceCents {
			continue
		}
		if query.MaxPriceCents > 0 && p.PriceCents > query.MaxPriceCents {
			continue
		}
		if query.LowStock != nil && p.QuantityAvailable > *query.LowStock {
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (s *Service) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, err := s.requireAdmin(ctx, "products")
	if err != nil {
		return domain.Product{}, err
	}

	productID := strings.TrimSpace(req.ProductID)
	if productID == "" {
		productID = xid.New("prd")
	}
	product, err := domain.NewProduct(productID, req.Name, req.PriceCents, req.QuantityAvailable)
	if err != nil {
		return domain.Product{}, err
	}
	product.Description = strings.TrimSpace(req.Description)
	product.Category = strings.TrimSpace(req.Category)
	if err := product.SetImageURL(strings.TrimSpace(req.ImageURL)); err != nil {
		return domain.Product{}, err
	}

	created, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}
	s.recordAdminAction(ctx, actor, "created product "+created.ProductID)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, productID string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, err := s.requireAdmin(ctx, "products")
	if err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Name != nil {
		if err := updated.Rename(*req.Name); err != nil {
			return domain.Product{}, err
		}
	}
	if req.PriceCents != nil {
		if err := updated.SetPrice(*req.PriceCents); err != nil {
			return domain.Product{}, err
		}
	}
	if req.Description != nil {
		updated.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		updated.Category = strings.TrimSpace(*req.Category)
	}
	if req.ImageURL != nil {
		if err := updated.SetImageURL(strings.TrimSpace(*req.ImageURL)); err != nil {
			return domain.Product{}, err
		}
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	s.recordAdminAction(ctx, actor, "updated product "+saved.ProductID)
	return *saved, nil
}

func (s *Service) RemoveProduct(ctx context.Context, productID string) (bool, error) {
	actor, err := s.requireAdmin(ctx, "products")
	if err != nil {
		return false, err
	}
	removed, err := s.repo.RemoveProduct(ctx, strings.TrimSpace(productID))
	if err != nil {
		return false, err
	}
	if removed {
		s.recordAdminAction(ctx, actor, "removed product "+productID)
	}
	return removed, nil
}

func (s *Service) AdjustStock(ctx context.Context, productID string, delta int) (domain.Product, error) {
	actor, err := s.requireAdmin(ctx, "products")
	if err != nil {
		return domain.Product{}, err
	}
	if delta == 0 {
		return domain.Product{}, fmt.Errorf("%w: delta must be non-zero", domain.ErrInvalidInput)
	}
	updated, err := s.repo.AdjustStock(ctx, strings.TrimSpace(productID), delta)
	if err != nil {
		return domain.Product{}, err
	}
	s.recordAdminAction(ctx, actor, fmt.Sprintf("adjusted stock of %s by %d", productID, delta))
	return *updated, nil
}

// ImportCatalogue pulls a remote product feed and upserts every entry.
// Existing products keep their identity; price, naming and stock come from
// the feed. Entries the loader could not normalise are reported back.
func (s *Service) ImportCatalogue(ctx context.Context, req domain.CatalogueImportRequest) (domain.CatalogueImportResponse, error) {
	actor, err := s.requireAdmin(ctx, "products")
	if err != nil {
		return domain.CatalogueImportResponse{}, err
	}
	if strings.TrimSpace(req.URL) == "" {
		return domain.CatalogueImportResponse{}, fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}

	products, skipped, err := s.loader.LoadFromURL(ctx, req.URL)
	if err != nil {
		return domain.CatalogueImportResponse{}, err
	}

	resp := domain.CatalogueImportResponse{}
	for i := 0; i < skipped; i++ {
		resp.Skipped = append(resp.Skipped, "malformed feed entry")
	}
	for _, product := range products {
		if _, err := s.repo.CreateProduct(ctx, product); err == nil {
			resp.Imported++
			continue
		} else if !errors.Is(err, store.ErrDuplicate) {
			return domain.CatalogueImportResponse{}, err
		}
		if _, err := s.repo.UpdateProduct(ctx, product); err != nil {
			return domain.CatalogueImportResponse{}, err
		}
		resp.Imported++
	}
	s.recordAdminAction(ctx, actor, fmt.Sprintf("imported %d products", resp.Imported))
	return resp, nil
}

// --- carts ---

func (s *Service) requireCustomer(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleCustomer {
		return domain.Actor{}, fmt.Errorf("%w: customer role required", ErrForbidden)
	}
	return actor, nil
}

// GetCart returns the caller's cart, creating an empty one on first use.
func (s *Service) GetCart(ctx context.Context) (domain.CartView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	cart, err := s.loadOrCreateCart(ctx, actor.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(*cart), nil
}

func (s *Service) loadOrCreateCart(ctx context.Context, customerID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCartByCustomer(ctx, customerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	created := domain.NewCart(xid.New("cart"), customerID)
	if err := s.repo.SaveCart(ctx, created); err != nil {
		return nil, err
	}
	if err := s.users.UpdateUser(ctx, customerID, func(u *domain.User) {
		u.CartID = created.CartID
	}); err != nil {
		log.Printf("[service] WARN: attach cart to customer %s: %v", customerID, err)
	}
	return &created, nil
}

func (s *Service) AddToCart(ctx context.Context, req domain.CartAddRequest) (domain.CartView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.CartView{}, err
	}

	product, err := s.repo.GetProduct(ctx, strings.TrimSpace(req.ProductID))
	if err != nil {
		return domain.CartView{}, err
	}
	if req.Quantity > 0 && product.QuantityAvailable < req.Quantity {
		return domain.CartView{}, fmt.Errorf("product %s has %d available: %w", product.ProductID, product.QuantityAvailable, domain.ErrInsufficientStock)
	}

	cart, err := s.loadOrCreateCart(ctx, actor.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := cart.AddProduct(*product, req.Quantity); err != nil {
		return domain.CartView{}, err
	}
	if err := s.repo.SaveCart(ctx, *cart); err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(*cart), nil
}

func (s *Service) UpdateCartItem(ctx context.Context, productID string, req domain.CartUpdateRequest) (domain.CartView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	cart, err := s.repo.GetCartByCustomer(ctx, actor.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	if err := cart.UpdateQuantity(strings.TrimSpace(productID), req.Quantity); err != nil {
		return domain.CartView{}, err
	}
	if err := s.repo.SaveCart(ctx, *cart); err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(*cart), nil
}

func (s *Service) RemoveFromCart(ctx context.Context, productID string) (domain.CartView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	cart, err := s.repo.GetCartByCustomer(ctx, actor.UserID)
	if err != nil {
		return domain.CartView{}, err
	}
	cart.RemoveProduct(strings.TrimSpace(productID))
	if err := s.repo.SaveCart(ctx, *cart); err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(*cart), nil
}

func (s *Service) ClearCart(ctx context.Context) (domain.CartView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.CartView{}, err
	}
	cart, err := s.repo.GetCartByCustomer(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			empty, err := s.loadOrCreateCart(ctx, actor.UserID)
			if err != nil {
				return domain.CartView{}, err
			}
			return domain.NewCartView(*empty), nil
		}
		return domain.CartView{}, err
	}
	cart.Clear()
	if err := s.repo.SaveCart(ctx, *cart); err != nil {
		return domain.CartView{}, err
	}
	return domain.NewCartView(*cart), nil
}

// --- orders ---

// Checkout turns the caller's cart into a pending order. Stock for every
// line is decremented first; if any line cannot be covered the decrements
// already applied are rolled back and the checkout fails.
func (s *Service) Checkout(ctx context.Context) (domain.OrderView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return domain.OrderView{}, err
	}
	cart, err := s.repo.GetCartByCustomer(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.OrderView{}, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
		}
		return domain.OrderView{}, err
	}
	if len(cart.Items) == 0 {
		return domain.OrderView{}, fmt.Errorf("%w: cart is empty", domain.ErrInvalidInput)
	}

	var applied []domain.CartItem
	for _, item := range cart.Items {
		if _, err := s.repo.AdjustStock(ctx, item.ProductID, -item.Quantity); err != nil {
			s.restock(ctx, applied)
			return domain.OrderView{}, err
		}
		applied = append(applied, item)
	}

	order, err := domain.NewOrderFromCart(xid.New("ord"), actor.UserID, cart.Items)
	if err != nil {
		s.restock(ctx, applied)
		return domain.OrderView{}, err
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		s.restock(ctx, applied)
		return domain.OrderView{}, err
	}

	if err := s.repo.DeleteCart(ctx, cart.CartID); err != nil {
		log.Printf("[service] WARN: clear cart %s after checkout: %v", cart.CartID, err)
	}
	if err := s.users.UpdateUser(ctx, actor.UserID, func(u *domain.User) {
		u.AddToOrderHistory(created.OrderID)
		u.CartID = ""
	}); err != nil {
		log.Printf("[service] WARN: append order %s to history: %v", created.OrderID, err)
	}
	return domain.NewOrderView(*created), nil
}

func (s *Service) restock(ctx context.Context, items []domain.CartItem) {
	for _, item := range items {
		if _, err := s.repo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[service] WARN: restock %s x%d: %v", item.ProductID, item.Quantity, err)
		}
	}
}

// GetOrder enforces ownership: customers see their own orders, admins with
// the orders permission see all.
func (s *Service) GetOrder(ctx context.Context, orderID string) (domain.OrderView, error) {
	order, err := s.loadOrderAuthorized(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	return domain.NewOrderView(*order), nil
}

func (s *Service) loadOrderAuthorized(ctx context.Context, orderID string) (*domain.Order, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok {
		return nil, fmt.Errorf("%w: authentication required", ErrForbidden)
	}
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return nil, err
	}
	switch actor.Role {
	case domain.RoleAdmin:
		if !s.users.CheckPermission(actor.UserID, "orders") {
			return nil, fmt.Errorf("%w: orders permission required", ErrForbidden)
		}
	case domain.RoleCustomer:
		if order.CustomerID != actor.UserID {
			// hide the existence of other customers' orders
			return nil, fmt.Errorf("order %s: %w", orderID, store.ErrNotFound)
		}
	default:
		return nil, fmt.Errorf("%w: unknown role", ErrForbidden)
	}
	return order, nil
}

func (s *Service) ListMyOrders(ctx context.Context) ([]domain.OrderView, error) {
	actor, err := s.requireCustomer(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.ListOrdersByCustomer(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	views := make([]domain.OrderView, 0, len(orders))
	for _, order := range orders {
		views = append(views, domain.NewOrderView(order))
	}
	return views, nil
}

func (s *Service) ShipOrder(ctx context.Context, orderID string) (domain.OrderView, error) {
	return s.transitionOrder(ctx, orderID, "shipped", (*domain.Order).MarkShipped)
}

func (s *Service) DeliverOrder(ctx context.Context, orderID string) (domain.OrderView, error) {
	return s.transitionOrder(ctx, orderID, "delivered", (*domain.Order).MarkDelivered)
}

func (s *Service) transitionOrder(ctx context.Context, orderID, verb string, mark func(*domain.Order) error) (domain.OrderView, error) {
	actor, err := s.requireAdmin(ctx, "orders")
	if err != nil {
		return domain.OrderView{}, err
	}
	order, err := s.repo.GetOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.OrderView{}, err
	}
	if err := mark(order); err != nil {
		return domain.OrderView{}, err
	}
	saved, err := s.repo.UpdateOrder(ctx, *order)
	if err != nil {
		return domain.OrderView{}, err
	}
	s.recordAdminAction(ctx, actor, "marked order "+saved.OrderID+" "+verb)
	return domain.NewOrderView(*saved), nil
}

// CancelOrder is available to the owning customer and to admins with the
// orders permission. Cancelling restocks every line.
func (s *Service) CancelOrder(ctx context.Context, orderID string) (domain.OrderView, error) {
	order, err := s.loadOrderAuthorized(ctx, orderID)
	if err != nil {
		return domain.OrderView{}, err
	}
	if err := order.Cancel(); err != nil {
		return domain.OrderView{}, err
	}
	saved, err := s.repo.UpdateOrder(ctx, *order)
	if err != nil {
		return domain.OrderView{}, err
	}
	for _, item := range saved.Items {
		if _, err := s.repo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
			log.Printf("[service] WARN: restock %s x%d on cancel: %v", item.ProductID, item.Quantity, err)
		}
	}
	return domain.NewOrderView(*saved), nil
}

// --- payments ---

// InitiatePayment opens a payment attempt for a pending order. The amount is
// always the order total; partial payments are not supported.
func (s *Service) InitiatePayment(ctx context.Context, req domain.PaymentInitiateRequest) (domain.Payment, error) {
	order, err := s.loadOrderAuthorized(ctx, req.OrderID)
	if err != nil {
		return domain.Payment{}, err
	}
	if order.Status != domain.OrderStatusPending {
		return domain.Payment{}, fmt.Errorf("%w: cannot pay a %s order", domain.ErrInvalidTransition, order.Status)
	}

	payment, err := domain.NewPayment(xid.New("pay"), order.OrderID, req.Method, order.TotalCents())
	if err != nil {
		return domain.Payment{}, err
	}
	created, err := s.repo.CreatePayment(ctx, payment)
	if err != nil {
		return domain.Payment{}, err
	}
	return *created, nil
}

// CompletePayment settles a payment and marks its order paid.
func (s *Service) CompletePayment(ctx context.Context, paymentID string) (domain.Payment, error) {
	payment, err := s.loadPaymentAuthorized(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	order, err := s.repo.GetOrder(ctx, payment.OrderID)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := payment.Complete(); err != nil {
		return domain.Payment{}, err
	}
	if err := order.MarkPaid(); err != nil {
		return domain.Payment{}, err
	}
	saved, err := s.repo.UpdatePayment(ctx, *payment)
	if err != nil {
		return domain.Payment{}, err
	}
	if _, err := s.repo.UpdateOrder(ctx, *order); err != nil {
		return domain.Payment{}, err
	}
	return *saved, nil
}

func (s *Service) FailPayment(ctx context.Context, paymentID string) (domain.Payment, error) {
	payment, err := s.loadPaymentAuthorized(ctx, paymentID)
	if err != nil {
		return domain.Payment{}, err
	}
	if err := payment.Fail(); err != nil {
		return domain.Payment{}, err
	}
	saved, err := s.repo.UpdatePayment(ctx, *payment)
	if err != nil {
		return domain.Payment{}, err
	}
	return *saved, nil
}

// RefundPayment refunds a completed payment and cancels the order when it is
// still cancellable, restocking its lines.
func (s *Service) RefundPayment(ctx context.Context, paymentID string) (domain.Payment, error) {
	if _, err := s.requireAdmin(ctx, "orders"); err != nil {
		return domain.Payment{}, err
	}
	payment, err := s.repo.GetPayment(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		return domain.Payment{}, err
	}
	if err := payment.Refund(); err != nil {
		return domain.Payment{}, err
	}
	saved, err := s.repo.UpdatePayment(ctx, *payment)
	if err != nil {
		return domain.Payment{}, err
	}

	order, err := s.repo.GetOrder(ctx, saved.OrderID)
	if err == nil && order.Cancel() == nil {
		if _, err := s.repo.UpdateOrder(ctx, *order); err != nil {
			log.Printf("[service] WARN: cancel order %s after refund: %v", order.OrderID, err)
		} else {
			for _, item := range order.Items {
				if _, err := s.repo.AdjustStock(ctx, item.ProductID, item.Quantity); err != nil {
					log.Printf("[service] WARN: restock %s x%d on refund: %v", item.ProductID, item.Quantity, err)
				}
			}
		}
	}
	return *saved, nil
}

func (s *Service) ListOrderPayments(ctx context.Context, orderID string) ([]domain.Payment, error) {
	if _, err := s.loadOrderAuthorized(ctx, orderID); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentsByOrder(ctx, strings.TrimSpace(orderID))
}

func (s *Service) loadPaymentAuthorized(ctx context.Context, paymentID string) (*domain.Payment, error) {
	payment, err := s.repo.GetPayment(ctx, strings.TrimSpace(paymentID))
	if err != nil {
		return nil, err
	}
	if _, err := s.loadOrderAuthorized(ctx, payment.OrderID); err != nil {
		return nil, err
	}
	return payment, nil
}

// --- invoices ---

// IssueInvoice creates the order's invoice. An order gets exactly one; a
// second issue attempt fails with store.ErrDuplicate.
func (s *Service) IssueInvoice(ctx context.Context, orderID string, req domain.InvoiceIssueRequest) (domain.InvoiceView, error) {
	order, err := s.loadOrderAuthorized(ctx, orderID)
	if err != nil {
		return domain.InvoiceView{}, err
	}
	if order.Status == domain.OrderStatusPending || order.Status == domain.OrderStatusCancelled {
		return domain.InvoiceView{}, fmt.Errorf("%w: cannot invoice a %s order", domain.ErrInvalidTransition, order.Status)
	}

	billingName := strings.TrimSpace(req.BillingName)
	if billingName == "" {
		if user, ok := s.users.GetUser(order.CustomerID); ok {
			billingName = user.Name
			if req.BillingAddress == "" {
				req.BillingAddress = user.DeliveryAddress
			}
		}
	}

	invoice, err := domain.NewInvoice(xid.New("inv"), *order, billingName, req.BillingAddress)
	if err != nil {
		return domain.InvoiceView{}, err
	}
	created, err := s.repo.CreateInvoice(ctx, invoice)
	if err != nil {
		return domain.InvoiceView{}, err
	}
	return domain.NewInvoiceView(*created), nil
}

func (s *Service) GetInvoice(ctx context.Context, orderID string) (domain.InvoiceView, error) {
	if _, err := s.loadOrderAuthorized(ctx, orderID); err != nil {
		return domain.InvoiceView{}, err
	}
	invoice, err := s.repo.GetInvoiceByOrder(ctx, strings.TrimSpace(orderID))
	if err != nil {
		return domain.InvoiceView{}, err
	}
	return domain.NewInvoiceView(*invoice), nil
}

// --- reports ---

// SalesReport aggregates orders created in [from, to]. Results are cached
// per period for reportCacheTTL, so a report over a period still receiving
// orders can lag by up to the TTL.
func (s *Service) SalesReport(ctx context.Context, from, to time.Time) (domain.SalesReport, error) {
	actor, err := s.requireAdmin(ctx, "reports")
	if err != nil {
		return domain.SalesReport{}, err
	}

	cacheKey := fmt.Sprintf("sales-report:%s:%s", from.UTC().Format(time.RFC3339), to.UTC().Format(time.RFC3339))
	if cached, found, err := s.reports.Get(ctx, cacheKey); err != nil {
		log.Printf("[service] WARN: report cache get: %v", err)
	} else if found {
		return *cached, nil
	}

	orders, err := s.repo.ListOrdersBetween(ctx, from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}
	rep, err := report.Generate(orders, from, to)
	if err != nil {
		return domain.SalesReport{}, err
	}

	if err := s.reports.Set(ctx, cacheKey, &rep, s.reportCacheTTL); err != nil {
		log.Printf("[service] WARN: report cache set: %v", err)
	}
	s.recordAdminAction(ctx, actor, "generated sales report")
	return rep, nil
}

// TopProducts is a convenience wrapper over SalesReport for dashboards.
func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]domain.ProductSales, error) {
	rep, err := s.SalesReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	// rep.TopProducts is already sorted by revenue descending.
	top := rep.TopProducts
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}
	out := make([]domain.ProductSales, len(top))
	copy(out, top)
	return out, nil
}
