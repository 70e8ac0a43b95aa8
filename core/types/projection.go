// Package types - Projection types
package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"green-roi/internal/errors"
)

const (
	MinHorizonYears = 1
	MaxHorizonYears = 10
	MonthsPerYear   = 12
)

// ProjectionInput is the validated request for a ROI projection
type ProjectionInput struct {
	Investment     decimal.Decimal `json:"investment"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	HorizonYears   int             `json:"horizon_years"`
}

// NewProjectionInput builds and validates a projection input
func NewProjectionInput(investment, monthlySavings decimal.Decimal, horizonYears int) (ProjectionInput, error) {
	in := ProjectionInput{
		Investment:     investment,
		MonthlySavings: monthlySavings,
		HorizonYears:   horizonYears,
	}
	if err := in.Validate(); err != nil {
		return ProjectionInput{}, err
	}
	return in, nil
}

// Validate rejects out-of-contract values instead of clamping them
func (in ProjectionInput) Validate() error {
	if !in.Investment.IsPositive() {
		return errors.Precondition("investment", in.Investment, "> 0")
	}
	if in.MonthlySavings.IsNegative() {
		return errors.Precondition("monthly_savings", in.MonthlySavings, ">= 0")
	}
	if in.HorizonYears < MinHorizonYears || in.HorizonYears > MaxHorizonYears {
		return errors.Precondition("horizon_years", in.HorizonYears,
			fmt.Sprintf("in [%d,%d]", MinHorizonYears, MaxHorizonYears))
	}
	return nil
}

// Months returns the horizon length in months
func (in ProjectionInput) Months() int {
	return in.HorizonYears * MonthsPerYear
}

// Payback is a payback period that is either a finite amount or unbounded.
// Unbounded is a distinct variant so it never leaks as Inf/NaN into JSON or CSV.
type Payback struct {
	value   decimal.Decimal
	bounded bool
}

// BoundedPayback returns a finite payback period
func BoundedPayback(v decimal.Decimal) Payback {
	return Payback{value: v, bounded: true}
}

// UnboundedPayback returns the variant used when savings never recover the investment
func UnboundedPayback() Payback {
	return Payback{}
}

// IsUnbounded reports whether the investment is never recovered
func (p Payback) IsUnbounded() bool {
	return !p.bounded
}

// Value returns the finite period; ok is false when unbounded
func (p Payback) Value() (decimal.Decimal, bool) {
	return p.value, p.bounded
}

// Round returns the payback rounded to places, keeping the variant
func (p Payback) Round(places int32) Payback {
	if !p.bounded {
		return p
	}
	return BoundedPayback(p.value.Round(places))
}

// StringFixed renders the period with fixed decimals, or "unbounded"
func (p Payback) StringFixed(places int32) string {
	if !p.bounded {
		return UnboundedLiteral
	}
	return p.value.StringFixed(places)
}

// String renders the period, or "unbounded"
func (p Payback) String() string {
	if !p.bounded {
		return UnboundedLiteral
	}
	return p.value.String()
}

// MarshalJSON encodes a finite period like a decimal and the open one as "unbounded"
func (p Payback) MarshalJSON() ([]byte, error) {
	if !p.bounded {
		return json.Marshal(UnboundedLiteral)
	}
	return p.value.MarshalJSON()
}

// UnmarshalJSON accepts a decimal or "unbounded"
func (p *Payback) UnmarshalJSON(data []byte) error {
	if string(data) == `"`+UnboundedLiteral+`"` || string(data) == "null" {
		*p = UnboundedPayback()
		return nil
	}
	var v decimal.Decimal
	if err := v.UnmarshalJSON(data); err != nil {
		return err
	}
	*p = BoundedPayback(v)
	return nil
}

// MonthPoint is one entry of the cumulative savings series
type MonthPoint struct {
	Month      int             `json:"month"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// YearPoint is the cumulative savings at the end of a year
type YearPoint struct {
	Year       int             `json:"year"`
	Cumulative decimal.Decimal `json:"cumulative"`
}

// ProjectionResult is the output of a single projection
type ProjectionResult struct {
	Input         ProjectionInput `json:"input"`
	TotalSavings  decimal.Decimal `json:"total_savings"`
	ROIPercent    decimal.Decimal `json:"roi_percent"`
	PaybackMonths Payback         `json:"payback_months"`
	PaybackYears  Payback         `json:"payback_years"`
	Series        []MonthPoint    `json:"series"`

	// NoiseFraction is the noise standard deviation as a fraction of monthly savings
	NoiseFraction float64 `json:"noise_fraction"`

	// Seed is the seed that produced Series; replaying it reproduces the series
	Seed uint64 `json:"seed"`

	// Seeded is true when the caller supplied Seed
	Seeded bool `json:"seeded"`
}

// PaybackMonthIndex returns the series month where the investment is recovered,
// when that month falls inside the horizon.
func (r *ProjectionResult) PaybackMonthIndex() (int, bool) {
	months, ok := r.PaybackMonths.Value()
	if !ok {
		return 0, false
	}
	idx := int(months.Round(0).IntPart())
	if idx < 1 || idx > r.Input.Months() {
		return 0, false
	}
	return idx, true
}

// FinalCumulative returns the last value of the series
func (r *ProjectionResult) FinalCumulative() decimal.Decimal {
	if len(r.Series) == 0 {
		return decimal.Zero
	}
	return r.Series[len(r.Series)-1].Cumulative
}

// HorizonPoint summarises one horizon of a sweep
type HorizonPoint struct {
	HorizonYears    int             `json:"horizon_years"`
	TotalSavings    decimal.Decimal `json:"total_savings"`
	ROIPercent      decimal.Decimal `json:"roi_percent"`
	FinalCumulative decimal.Decimal `json:"final_cumulative"`
}

// BenchmarkPoint is a ROI scaled by a category multiplier
type BenchmarkPoint struct {
	Category   Category        `json:"category"`
	Multiplier decimal.Decimal `json:"multiplier"`
	ROIPercent decimal.Decimal `json:"roi_percent"`
}

// ROIReferencePoint is one observed (investment, ROI%) pair
type ROIReferencePoint struct {
	Investment decimal.Decimal `json:"investment"`
	ROIPercent decimal.Decimal `json:"roi_percent"`
}
