// Package checkout tracks where a shopper is in the checkout flow and what
// they entered along the way.
package checkout

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidTransition = errors.New("checkout: invalid stage transition")

type Stage string

const (
	StageNone     Stage = ""
	StageCart     Stage = "Cart"
	StageAddress  Stage = "Address"
	StageShipping Stage = "Shipping"
	StagePayment  Stage = "Payment"
)

// transitions lists the stages reachable from each stage. Staying on the
// current stage is always allowed.
var transitions = map[Stage][]Stage{
	StageNone:     {StageCart},
	StageCart:     {StageAddress},
	StageAddress:  {StageCart, StageShipping},
	StageShipping: {StageAddress, StagePayment},
	StagePayment:  {StageShipping},
}

func ParseStage(s string) (Stage, error) {
	st := Stage(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("checkout: unknown stage %q", s)
	}
	return st, nil
}

func (s Stage) CanMoveTo(to Stage) bool {
	if s == to {
		return true
	}
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Info is the contact and delivery data typed in during checkout.
type Info struct {
	Email      string `json:"email"`
	Country    string `json:"selectedCountry"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Address    string `json:"address"`
	Apartment  string `json:"apartment"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Phone      string `json:"phone"`
}

// Missing lists the required fields left blank. Apartment is optional.
func (i Info) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"email", i.Email},
		{"selectedCountry", i.Country},
		{"firstName", i.FirstName},
		{"lastName", i.LastName},
		{"address", i.Address},
		{"city", i.City},
		{"postalCode", i.PostalCode},
		{"phone", i.Phone},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

func (i Info) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// DeliveryAddress renders the address as a single line.
func (i Info) DeliveryAddress() string {
	parts := make([]string, 0, 5)
	for _, p := range []string{i.Address, i.Apartment, i.City, i.PostalCode, i.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

type Checkout struct {
	stage          Stage
	info           Info
	shippingMethod string
	finalAmount    decimal.Decimal
}

// New returns a checkout at the address stage, where shoppers land when
// they leave the cart.
func New() *Checkout {
	return &Checkout{stage: StageAddress}
}

func (c *Checkout) Stage() Stage                 { return c.stage }
func (c *Checkout) Info() Info                   { return c.info }
func (c *Checkout) ShippingMethod() string       { return c.shippingMethod }
func (c *Checkout) FinalAmount() decimal.Decimal { return c.finalAmount }

// MoveTo changes the stage. A disallowed move returns ErrInvalidTransition
// and leaves the checkout untouched.
func (c *Checkout) MoveTo(to Stage) error {
	if _, ok := transitions[to]; !ok || to == StageNone {
		return fmt.Errorf("%w: unknown stage %q", ErrInvalidTransition, to)
	}
	if !c.stage.CanMoveTo(to) {
		return fmt.Errorf("%w: %q to %q", ErrInvalidTransition, c.stage, to)
	}
	c.stage = to
	return nil
}

func (c *Checkout) SetStageCart() error     { return c.MoveTo(StageCart) }
func (c *Checkout) SetStageAddress() error  { return c.MoveTo(StageAddress) }
func (c *Checkout) SetStageShipping() error { return c.MoveTo(StageShipping) }
func (c *Checkout) SetStagePayment() error  { return c.MoveTo(StagePayment) }

func (c *Checkout) SetCheckoutInfo(info Info) { c.info = info }

func (c *Checkout) SetShippingMethod(method string) { c.shippingMethod = method }

func (c *Checkout) UpdateFinalAmount(amount decimal.Decimal) { c.finalAmount = amount }

// Clear resets every field and leaves the stage empty.
func (c *Checkout) Clear() {
	*c = Checkout{}
}
