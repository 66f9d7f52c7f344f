package domain

import (
	"fmt"
	"time"
)

// CartItem is a single product line inside a cart. UnitPriceCents is a
// snapshot taken when the product was added; later catalogue price changes
// never reach back into an existing cart.
type CartItem struct {
	ProductID      string `json:"productId"`
	Name           string `json:"name"`
	UnitPriceCents int64  `json:"unitPriceCents"`
	Quantity       int    `json:"quantity"`
}

type Cart struct {
	CartID     string     `json:"cartId"`
	CustomerID string     `json:"customerId"`
	Items      []CartItem `json:"items"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func NewCart(cartID, customerID string) Cart {
	return Cart{
		CartID:     cartID,
		CustomerID: customerID,
		Items:      []CartItem{},
		CreatedAt:  time.Now().UTC(),
	}
}

// AddProduct merges quantity into an existing line, or snapshots the product
// into a new line.
func (c *Cart) AddProduct(product Product, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: quantity must be > 0", ErrInvalidInput)
	}
	for i := range c.Items {
		if c.Items[i].ProductID == product.ProductID {
			c.Items[i].Quantity += quantity
			return nil
		}
	}
	c.Items = append(c.Items, CartItem{
		ProductID:      product.ProductID,
		Name:           product.Name,
		UnitPriceCents: product.PriceCents,
		Quantity:       quantity,
	})
	return nil
}

// UpdateQuantity sets the quantity of an existing line; zero removes it.
func (c *Cart) UpdateQuantity(productID string, quantity int) error {
	if quantity < 0 {
		return fmt.Errorf("%w: quantity must be >= 0", ErrInvalidInput)
	}
	for i := range c.Items {
		if c.Items[i].ProductID != productID {
			continue
		}
		if quantity == 0 {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
		} else {
			c.Items[i].Quantity = quantity
		}
		return nil
	}
	return fmt.Errorf("%w: product %s not in cart", ErrInvalidInput, productID)
}

func (c *Cart) RemoveProduct(productID string) {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.Items = c.Items[:0]
}

func (c Cart) SubtotalCents() int64 {
	var sum int64
	for _, item := range c.Items {
		sum += item.UnitPriceCents * int64(item.Quantity)
	}
	return sum
}

func (c Cart) GSTCents() int64 {
	return GSTCents(c.SubtotalCents())
}

func (c Cart) TotalCents() int64 {
	return c.SubtotalCents() + c.GSTCents()
}
