// Package types - Tariff and bill types
package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
)

// Bound is an inclusive tier ceiling that is either a whole number or open-ended
type Bound struct {
	value   int64
	bounded bool
}

// UpTo returns a finite inclusive bound
func UpTo(n int64) Bound {
	return Bound{value: n, bounded: true}
}

// Unbounded returns the open-ended bound of a terminal tier
func Unbounded() Bound {
	return Bound{}
}

// IsUnbounded reports whether the bound is open-ended
func (b Bound) IsUnbounded() bool {
	return !b.bounded
}

// Value returns the finite bound; ok is false for an open-ended bound
func (b Bound) Value() (int64, bool) {
	return b.value, b.bounded
}

// String renders the bound, "unbounded" when open-ended
func (b Bound) String() string {
	if !b.bounded {
		return UnboundedLiteral
	}
	return strconv.FormatInt(b.value, 10)
}

// MarshalJSON encodes a finite bound as a number and an open one as "unbounded"
func (b Bound) MarshalJSON() ([]byte, error) {
	if !b.bounded {
		return json.Marshal(UnboundedLiteral)
	}
	return []byte(strconv.FormatInt(b.value, 10)), nil
}

// UnmarshalJSON accepts a number, "unbounded" or null
func (b *Bound) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `"`+UnboundedLiteral+`"` {
		*b = Unbounded()
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid tier bound %s", s)
	}
	*b = UpTo(n)
	return nil
}

// TariffTier is one consumption band with its unit rate.
// LowerBound and UpperBound are inclusive unit counts starting at 1.
type TariffTier struct {
	LowerBound int64           `json:"lower_bound"`
	UpperBound Bound           `json:"upper_bound"`
	Rate       decimal.Decimal `json:"rate"`
}

// Capacity returns the number of units the tier holds; ok is false for the open tier
func (t TariffTier) Capacity() (decimal.Decimal, bool) {
	upper, ok := t.UpperBound.Value()
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromInt(upper - t.LowerBound + 1), true
}

// String renders the tier as "201-300 @ 0.334"
func (t TariffTier) String() string {
	if t.UpperBound.IsUnbounded() {
		return fmt.Sprintf("%d+ @ %s", t.LowerBound, t.Rate)
	}
	return fmt.Sprintf("%d-%s @ %s", t.LowerBound, t.UpperBound, t.Rate)
}

// TierCharge is the portion of a bill falling into one tier
type TierCharge struct {
	TierIndex int             `json:"tier_index"`
	Tier      TariffTier      `json:"tier"`
	Units     decimal.Decimal `json:"units"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// BillResult is the outcome of pricing a usage against a schedule
type BillResult struct {
	Commodity Commodity       `json:"commodity"`
	Usage     decimal.Decimal `json:"usage"`
	Total     decimal.Decimal `json:"total"`
	Breakdown []TierCharge    `json:"breakdown"`
}

// RoundedTotal returns the total rounded to cents for display
func (b *BillResult) RoundedTotal() decimal.Decimal {
	return b.Total.Round(2)
}

// UsageResult is the outcome of an inverse bill lookup.
// Saturated means no usage up to Ceiling reached the target and Usage equals Ceiling.
type UsageResult struct {
	Usage     int64           `json:"usage"`
	Ceiling   int64           `json:"ceiling"`
	Target    decimal.Decimal `json:"target"`
	Saturated bool            `json:"saturated"`
}
