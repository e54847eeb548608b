package checkout

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const SnapshotVersion = 1

var ErrUnsupportedVersion = errors.New("checkout: unsupported snapshot version")

// Snapshot is the persisted form kept under checkout-storage. A cleared
// checkout stores a null stage.
type Snapshot struct {
	Version        int     `json:"version"`
	Stage          *string `json:"stage"`
	Info           Info    `json:"checkoutInfo"`
	ShippingMethod string  `json:"shippingMethod"`
	FinalAmount    float64 `json:"finalAmount"`
}

func (c *Checkout) Snapshot() Snapshot {
	s := Snapshot{
		Version:        SnapshotVersion,
		Info:           c.info,
		ShippingMethod: c.shippingMethod,
		FinalAmount:    c.finalAmount.InexactFloat64(),
	}
	if c.stage != StageNone {
		stage := string(c.stage)
		s.Stage = &stage
	}
	return s
}

func Restore(s Snapshot) (*Checkout, error) {
	if s.Version != 0 && s.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, s.Version)
	}

	stage := StageNone
	if s.Stage != nil {
		var err error
		if stage, err = ParseStage(*s.Stage); err != nil {
			return nil, err
		}
	}

	return &Checkout{
		stage:          stage,
		info:           s.Info,
		shippingMethod: s.ShippingMethod,
		finalAmount:    decimal.NewFromFloat(s.FinalAmount),
	}, nil
}
