package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMissingFields(t *testing.T) {
	assert.Equal(t,
		[]string{"totalPrice", "fullName", "email", "address", "shippingMethod", "phoneNumber", "items"},
		CreateOrderInput{}.MissingFields())

	complete := CreateOrderInput{
		TotalPrice: 10, FullName: "Ada", Email: "ada@example.com", Address: "1 Loop St",
		ShippingMethod: "standard", PhoneNumber: "555", Items: []ItemInput{{ProductID: "p-1", Quantity: 1}},
	}
	assert.Empty(t, complete.MissingFields())
}

func TestProductIDsAreDistinct(t *testing.T) {
	in := CreateOrderInput{Items: []ItemInput{
		{ProductID: "a", Quantity: 1}, {ProductID: "b", Quantity: 2}, {ProductID: "a", Quantity: 3},
	}}
	assert.Equal(t, []string{"a", "b"}, in.ProductIDs())
}

func TestSubtotal(t *testing.T) {
	item := OrderItem{Quantity: 3, Product: &Product{Price: 2.5}}
	assert.Equal(t, 7.5, item.Subtotal())
	assert.Zero(t, OrderItem{Quantity: 3}.Subtotal())
}
