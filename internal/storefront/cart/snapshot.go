package cart

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// SnapshotVersion is bumped whenever the persisted shape changes.
const SnapshotVersion = 1

var ErrUnsupportedVersion = errors.New("cart: unsupported snapshot version")

// Snapshot is the persisted form of a cart. The field names match what
// storefront clients already keep under cart-storage. Totals are written
// for readers and ignored by Restore.
type Snapshot struct {
	Version       int            `json:"version"`
	Products      []SnapshotItem `json:"Products"`
	TotalPrice    float64        `json:"totalPrice"`
	TotalItems    int            `json:"totalItems"`
	ShippingPrice float64        `json:"shippingPrice"`
	Tax           float64        `json:"tax"`
}

type SnapshotItem struct {
	ID          string  `json:"id"`
	ImageURL    string  `json:"imageUrl"`
	Description string  `json:"productDescription"`
	Name        string  `json:"productName"`
	Price       float64 `json:"productPrice"`
	Quantity    int     `json:"quantity"`
}

func (c *Cart) Snapshot() Snapshot {
	items := make([]SnapshotItem, 0, len(c.items))
	for _, it := range c.items {
		items = append(items, SnapshotItem{
			ID:          it.ID,
			ImageURL:    it.ImageURL,
			Description: it.Description,
			Name:        it.Name,
			Price:       it.Price.InexactFloat64(),
			Quantity:    it.Quantity,
		})
	}
	return Snapshot{
		Version:       SnapshotVersion,
		Products:      items,
		TotalPrice:    c.TotalPrice().InexactFloat64(),
		TotalItems:    c.TotalItems(),
		ShippingPrice: c.shipping.InexactFloat64(),
		Tax:           c.Tax().InexactFloat64(),
	}
}

// Restore rebuilds a cart from s. Lines with a non-positive quantity are
// dropped and duplicate ids are merged, so the result always satisfies the
// one-line-per-product rule. A zero version is read as version 1.
func Restore(s Snapshot) (*Cart, error) {
	if s.Version != 0 && s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}

	c := New()
	c.shipping = decimal.NewFromFloat(s.ShippingPrice)
	for _, it := range s.Products {
		if it.ID == "" || it.Quantity <= 0 {
			continue
		}
		if i := c.index(it.ID); i >= 0 {
			c.items[i].Quantity += it.Quantity
			continue
		}
		c.items = append(c.items, LineItem{
			Product: Product{
				ID:          it.ID,
				Name:        it.Name,
				Description: it.Description,
				ImageURL:    it.ImageURL,
				Price:       decimal.NewFromFloat(it.Price),
			},
			Quantity: it.Quantity,
		})
	}
	return c, nil
}
