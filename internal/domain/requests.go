package domain

// Request and response shapes for the HTTP API.

type RegisterRequest struct {
	Type            string   `json:"type"`
	Name            string   `json:"name"`
	Email           string   `json:"email"`
	Password        string   `json:"password"`
	Phone           string   `json:"phone,omitempty"`
	DeliveryAddress string   `json:"deliveryAddress,omitempty"`
	Permissions     []string `json:"permissions,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type ProductCreateRequest struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	PriceCents        int64  `json:"priceCents"`
	QuantityAvailable int    `json:"quantityAvailable"`
	Description       string `json:"description,omitempty"`
	Category          string `json:"category,omitempty"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

type ProductUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	PriceCents  *int64  `json:"priceCents,omitempty"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
}

type StockAdjustRequest struct {
	Delta int `json:"delta"`
}

// ProductQuery narrows a catalogue listing. Zero values mean "no filter";
// LowStock uses a pointer so a threshold of 0 is still expressible.
type ProductQuery struct {
	Keyword       string
	Category      string
	MinPriceCents int64
	MaxPriceCents int64
	LowStock      *int
}

type CatalogueImportRequest struct {
	URL string `json:"url"`
}

type CatalogueImportResponse struct {
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped,omitempty"`
}

type CartAddRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CartUpdateRequest struct {
	Quantity int `json:"quantity"`
}

// CartView is the cart plus its computed totals.
type CartView struct {
	Cart          Cart  `json:"cart"`
	SubtotalCents int64 `json:"subtotalCents"`
	GSTCents      int64 `json:"gstCents"`
	TotalCents    int64 `json:"totalCents"`
}

// OrderView is an order plus its computed totals.
type OrderView struct {
	Order         Order `json:"order"`
	SubtotalCents int64 `json:"subtotalCents"`
	GSTCents      int64 `json:"gstCents"`
	TotalCents    int64 `json:"totalCents"`
}

type InvoiceIssueRequest struct {
	BillingName    string `json:"billingName"`
	BillingAddress string `json:"billingAddress,omitempty"`
}

// InvoiceView is an invoice plus its computed totals.
type InvoiceView struct {
	Invoice       Invoice `json:"invoice"`
	SubtotalCents int64   `json:"subtotalCents"`
	GSTCents      int64   `json:"gstCents"`
	TotalCents    int64   `json:"totalCents"`
}

type PaymentInitiateRequest struct {
	OrderID string `json:"orderId"`
	Method  string `json:"method"`
}

func NewCartView(cart Cart) CartView {
	return CartView{
		Cart:          cart,
		SubtotalCents: cart.SubtotalCents(),
		GSTCents:      cart.GSTCents(),
		TotalCents:    cart.TotalCents(),
	}
}

func NewOrderView(order Order) OrderView {
	return OrderView{
		Order:         order,
		SubtotalCents: order.SubtotalCents(),
		GSTCents:      order.GSTCents(),
		TotalCents:    order.TotalCents(),
	}
}

func NewInvoiceView(invoice Invoice) InvoiceView {
	return InvoiceView{
		Invoice:       invoice,
		SubtotalCents: invoice.SubtotalCents(),
		GSTCents:      invoice.GSTCents(),
		TotalCents:    invoice.TotalCents(),
	}
}
