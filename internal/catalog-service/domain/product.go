package domain

import (
	"errors"
	"time"
)

var ErrProductNotFound = errors.New("product not found")

type Product struct {
	ID          string
	Name        string
	Description string
	ImageURL    string
	Price       float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewProduct is the input for adding a product to the catalog.
type NewProduct struct {
	Name        string
	Description string
	Price       float64
	ImageName   string
}

// ProductPatch holds the fields an update may change. Nil means unchanged.
type ProductPatch struct {
	Name        *string
	Description *string
	Price       *float64
	ImageURL    *string
	// ImageName is the file name of a replacement image upload.
	ImageName string
}

func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
}
