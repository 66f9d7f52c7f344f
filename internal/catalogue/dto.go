package catalogue

import (
	"fmt"
	"math"
	"strings"

	"storefront/backend/internal/domain"
)

// ProductDTO is the loose wire shape accepted on catalogue import. Upstream
// feeds disagree on field names, so every field carries its known aliases and
// FromDTO resolves them with a fixed priority.
type ProductDTO struct {
	ProductID string `json:"productId"`
	ID        string `json:"id"`
	SKU       string `json:"sku"`

	Name  string `json:"name"`
	Title string `json:"title"`

	PriceCents *int64   `json:"priceCents"`
	Price      *float64 `json:"price"`

	QuantityAvailable *int `json:"quantityAvailable"`
	InventoryCount    *int `json:"inventory_count"`
	Stock             *int `json:"stock"`

	Description string `json:"description"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl"`
}

// FromDTO normalises a DTO into a Product. Alias priority is fixed:
// id resolves productId before id before sku, price resolves priceCents
// before price (dollars), quantity resolves quantityAvailable before
// inventory_count before stock, and name resolves name before title.
func FromDTO(dto ProductDTO) (domain.Product, error) {
	id := firstNonBlank(dto.ProductID, dto.ID, dto.SKU)
	if id == "" {
		return domain.Product{}, fmt.Errorf("%w: product id is required (productId, id or sku)", domain.ErrInvalidInput)
	}

	name := firstNonBlank(dto.Name, dto.Title)

	var priceCents int64
	switch {
	case dto.PriceCents != nil:
		priceCents = *dto.PriceCents
	case dto.Price != nil:
		priceCents = int64(math.Round(*dto.Price * 100))
	}

	var quantity int
	switch {
	case dto.QuantityAvailable != nil:
		quantity = *dto.QuantityAvailable
	case dto.InventoryCount != nil:
		quantity = *dto.InventoryCount
	case dto.Stock != nil:
		quantity = *dto.Stock
	}

	product, err := domain.NewProduct(id, name, priceCents, quantity)
	if err != nil {
		return domain.Product{}, err
	}
	product.Description = strings.TrimSpace(dto.Description)
	product.Category = strings.TrimSpace(dto.Category)
	if err := product.SetImageURL(strings.TrimSpace(dto.ImageURL)); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
