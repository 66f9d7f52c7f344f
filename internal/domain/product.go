package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// Product is the catalogue's unit of sale. Price is integer cents so totals
// never touch floating point. ProductID is the identity and never changes.
type Product struct {
	ProductID         string `json:"productId"`
	Name              string `json:"name"`
	PriceCents        int64  `json:"priceCents"`
	QuantityAvailable int    `json:"quantityAvailable"`
	Description       string `json:"description,omitempty"`
	Category          string `json:"category,omitempty"`
	ImageURL          string `json:"imageUrl,omitempty"`
}

func NewProduct(productID, name string, priceCents int64, quantityAvailable int) (Product, error) {
	p := Product{
		ProductID:         strings.TrimSpace(productID),
		Name:              strings.TrimSpace(name),
		PriceCents:        priceCents,
		QuantityAvailable: quantityAvailable,
	}
	if err := p.Validate(); err != nil {
		return Product{}, err
	}
	return p, nil
}

func (p Product) Validate() error {
	if p.ProductID == "" {
		return fmt.Errorf("%w: product id is required", ErrInvalidInput)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidInput)
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("%w: priceCents must be >= 0", ErrInvalidInput)
	}
	if p.QuantityAvailable < 0 {
		return fmt.Errorf("%w: quantityAvailable must be >= 0", ErrInvalidInput)
	}
	if p.ImageURL != "" && !validImageURL(p.ImageURL) {
		return fmt.Errorf("%w: imageUrl must be a valid URL or a path starting with /", ErrInvalidInput)
	}
	return nil
}

func (p Product) IsAvailable() bool {
	return p.QuantityAvailable > 0
}

// ReduceStock decrements available quantity by amount.
func (p *Product) ReduceStock(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	if amount > p.QuantityAvailable {
		return fmt.Errorf("%w: product %s has %d available, requested %d", ErrInsufficientStock, p.ProductID, p.QuantityAvailable, amount)
	}
	p.QuantityAvailable -= amount
	return nil
}

func (p *Product) IncreaseStock(amount int) error {
	if amount <= 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	p.QuantityAvailable += amount
	return nil
}

func (p *Product) SetPrice(priceCents int64) error {
	if priceCents < 0 {
		return fmt.Errorf("%w: priceCents must be >= 0", ErrInvalidInput)
	}
	p.PriceCents = priceCents
	return nil
}

func (p *Product) SetImageURL(raw string) error {
	if raw != "" && !validImageURL(raw) {
		return fmt.Errorf("%w: imageUrl must be a valid URL or a path starting with /", ErrInvalidInput)
	}
	p.ImageURL = raw
	return nil
}

func (p *Product) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: product name cannot be blank", ErrInvalidInput)
	}
	p.Name = name
	return nil
}

func validImageURL(raw string) bool {
	if strings.HasPrefix(raw, "/") {
		return true
	}
	parsed, err := url.Parse(raw)
	return err == nil && parsed.Scheme != "" && parsed.Host != ""
}
