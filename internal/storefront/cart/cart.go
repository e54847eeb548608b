// Package cart holds a shopper's line items. Totals, item counts and tax
// are derived from the lines on every read, so no mutation can leave them
// stale.
package cart

import (
	"github.com/shopspring/decimal"
)

// TaxRate is the flat sales tax applied to the cart total.
var TaxRate = decimal.RequireFromString("0.05")

// Product is the catalog data a shopper adds to the cart.
type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       decimal.Decimal
}

type LineItem struct {
	Product
	Quantity int
}

func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is not safe for concurrent use. Each request loads its own copy from
// the session store.
type Cart struct {
	items    []LineItem
	shipping decimal.Decimal
}

func New() *Cart {
	return &Cart{}
}

// AddProduct adds one unit of p. A product already in the cart keeps the
// price it was first added at.
func (c *Cart) AddProduct(p Product) {
	if i := c.index(p.ID); i >= 0 {
		c.items[i].Quantity++
		return
	}
	c.items = append(c.items, LineItem{Product: p, Quantity: 1})
}

// RemoveProduct drops the line for id whatever its quantity.
func (c *Cart) RemoveProduct(id string) {
	if i := c.index(id); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

func (c *Cart) AddQuantity(id string) {
	if i := c.index(id); i >= 0 {
		c.items[i].Quantity++
	}
}

// DecrementQuantity removes one unit; the last unit removes the line.
func (c *Cart) DecrementQuantity(id string) {
	i := c.index(id)
	if i < 0 {
		return
	}
	if c.items[i].Quantity <= 1 {
		c.RemoveProduct(id)
		return
	}
	c.items[i].Quantity--
}

// RemoveAllProducts empties the cart and resets the shipping price.
func (c *Cart) RemoveAllProducts() {
	c.items = nil
	c.shipping = decimal.Zero
}

// SetShippingPrice stores a flat price, independent of the cart contents.
func (c *Cart) SetShippingPrice(price decimal.Decimal) {
	c.shipping = price
}

// Items returns a copy of the lines in insertion order.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

func (c *Cart) IsEmpty() bool { return len(c.items) == 0 }

func (c *Cart) TotalItems() int {
	n := 0
	for _, it := range c.items {
		n += it.Quantity
	}
	return n
}

func (c *Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, it := range c.items {
		total = total.Add(it.Subtotal())
	}
	return total
}

func (c *Cart) Tax() decimal.Decimal {
	return CalculateTax(c.TotalPrice())
}

func (c *Cart) ShippingPrice() decimal.Decimal { return c.shipping }

// GrandTotal is what the shopper pays: lines, tax and shipping.
func (c *Cart) GrandTotal() decimal.Decimal {
	return c.TotalPrice().Add(c.Tax()).Add(c.shipping)
}

// CalculateTax returns the tax owed on totalPrice.
func CalculateTax(totalPrice decimal.Decimal) decimal.Decimal {
	return totalPrice.Mul(TaxRate)
}

func (c *Cart) index(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}
