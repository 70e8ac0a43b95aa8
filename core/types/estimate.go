// Package types - System sizing and savings estimate types
package types

import (
	"github.com/shopspring/decimal"

	"green-roi/internal/errors"
)

var two = decimal.NewFromInt(2)

// HouseBounds is the allowed system size range in kWp for a property
type HouseBounds struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

// NewHouseBounds builds validated bounds
func NewHouseBounds(min, max decimal.Decimal) (HouseBounds, error) {
	b := HouseBounds{Min: min, Max: max}
	return b, b.Validate()
}

// Validate requires 0 < Min <= Max
func (b HouseBounds) Validate() error {
	if !b.Min.IsPositive() {
		return errors.Precondition("house_bounds.min", b.Min, "> 0")
	}
	if b.Max.LessThan(b.Min) {
		return errors.Precondition("house_bounds.max", b.Max, ">= house_bounds.min")
	}
	return nil
}

// Midpoint returns (Min+Max)/2
func (b HouseBounds) Midpoint() decimal.Decimal {
	return b.Min.Add(b.Max).Div(two)
}

// Clamp limits v to [Min, Max]
func (b HouseBounds) Clamp(v decimal.Decimal) decimal.Decimal {
	if v.LessThan(b.Min) {
		return b.Min
	}
	if v.GreaterThan(b.Max) {
		return b.Max
	}
	return v
}

// SavingRange is the expected monthly saving range of a band
type SavingRange struct {
	Low  decimal.Decimal `json:"low"`
	High decimal.Decimal `json:"high"`
}

// Mean returns (Low+High)/2
func (r SavingRange) Mean() decimal.Decimal {
	return r.Low.Add(r.High).Div(two)
}

// SolarBand maps an inclusive monthly bill range to a recommended system
type SolarBand struct {
	MinBill    decimal.Decimal `json:"min_bill"`
	MaxBill    decimal.Decimal `json:"max_bill"`
	SizeKW     decimal.Decimal `json:"size_kw"`
	MonthlyKWh int64           `json:"monthly_kwh"`
	Saving     SavingRange     `json:"saving"`
}

// Contains reports whether MinBill <= v <= MaxBill
func (b SolarBand) Contains(v decimal.Decimal) bool {
	return !v.LessThan(b.MinBill) && !v.GreaterThan(b.MaxBill)
}

// Recommendation is a recommended system size and its default monthly savings
type Recommendation struct {
	SizeKW         decimal.Decimal `json:"size_kw"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`

	// Matched is false when no band contained the value and the fallback was used
	Matched bool `json:"matched"`

	// Band is the matching band, nil on fallback
	Band *SolarBand `json:"band,omitempty"`

	// Clamped is true when the band size fell outside the house bounds
	Clamped bool `json:"clamped"`
}

// Estimate is the default savings derived for one category and input path
type Estimate struct {
	Category       Category        `json:"category"`
	Commodity      Commodity       `json:"commodity"`
	MonthlyBill    decimal.Decimal `json:"monthly_bill"`
	MonthlyUsage   decimal.Decimal `json:"monthly_usage"`
	UsageKnown     bool            `json:"usage_known"`
	UsageSaturated bool            `json:"usage_saturated,omitempty"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	System         *Recommendation `json:"system,omitempty"`
	Bill           *BillResult     `json:"bill,omitempty"`
	Basis          string          `json:"basis"`
}
