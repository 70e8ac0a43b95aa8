// Package estimator translates a bill or a consumption figure into a
// recommended system size and a default monthly savings figure.
//
// Every method is a pure function of its arguments and the immutable band
// table the Estimator was built with.
package estimator

import (
	"github.com/shopspring/decimal"

	"green-roi/core/tariff"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

// Basis values describe which rule produced a savings estimate
const (
	BasisSolarBand       = "solar_band"
	BasisHouseMidpoint   = "house_midpoint"
	BasisConsumptionSize = "consumption_size"
	BasisWaterEfficiency = "water_efficiency"
	BasisBillFraction    = "bill_fraction"
	BasisCategoryDefault = "category_default"
)

// Options are the fixed rates used by the fallback rules
type Options struct {
	// SavingsPerKW is monthly savings per kWp when no band applies
	SavingsPerKW decimal.Decimal

	// KWhPerKW converts monthly consumption to a system size
	KWhPerKW decimal.Decimal

	// BillSavingsFraction is the share of a bill saved by non-solar categories
	BillSavingsFraction decimal.Decimal

	// GenericMonthlySavings is used when a category has neither bill nor usage
	GenericMonthlySavings decimal.Decimal

	// SearchCeiling bounds the inverse bill lookup
	SearchCeiling int64
}

// DefaultOptions returns the rates used by the calculator
func DefaultOptions() Options {
	return Options{
		SavingsPerKW:          decimal.NewFromInt(60),
		KWhPerKW:              decimal.NewFromInt(100),
		BillSavingsFraction:   decimal.RequireFromString("0.2"),
		GenericMonthlySavings: decimal.NewFromInt(1000),
		SearchCeiling:         5000,
	}
}

// Validate rejects options that would make every estimate meaningless
func (o Options) Validate() error {
	if !o.SavingsPerKW.IsPositive() {
		return errors.Configf("savings per kW must be positive, got %s", o.SavingsPerKW)
	}
	if !o.KWhPerKW.IsPositive() {
		return errors.Configf("kWh per kW must be positive, got %s", o.KWhPerKW)
	}
	if o.BillSavingsFraction.IsNegative() || o.BillSavingsFraction.GreaterThan(decimal.NewFromInt(1)) {
		return errors.Configf("bill savings fraction must be in [0,1], got %s", o.BillSavingsFraction)
	}
	if o.GenericMonthlySavings.IsNegative() {
		return errors.Configf("generic monthly savings must not be negative, got %s", o.GenericMonthlySavings)
	}
	if o.SearchCeiling <= 0 {
		return errors.Configf("search ceiling must be positive, got %d", o.SearchCeiling)
	}
	return nil
}

// Estimator holds the solar band table and fallback rates
type Estimator struct {
	bands []types.SolarBand
	opts  Options
}

// New validates the band table and returns an Estimator.
// Bands must be ascending and disjoint so the first match is the only match.
func New(bands []types.SolarBand, opts Options) (*Estimator, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateBands(bands); err != nil {
		return nil, err
	}

	owned := make([]types.SolarBand, len(bands))
	copy(owned, bands)
	return &Estimator{bands: owned, opts: opts}, nil
}

// ValidateBands checks ordering, disjointness and ranges of a band table
func ValidateBands(bands []types.SolarBand) error {
	for i, b := range bands {
		if b.MaxBill.LessThan(b.MinBill) {
			return errors.Configf("solar band %d: max bill %s below min bill %s", i, b.MaxBill, b.MinBill)
		}
		if !b.SizeKW.IsPositive() {
			return errors.Configf("solar band %d: size must be positive", i)
		}
		if b.Saving.High.LessThan(b.Saving.Low) {
			return errors.Configf("solar band %d: saving range is inverted", i)
		}
		if i > 0 && !b.MinBill.GreaterThan(bands[i-1].MaxBill) {
			return errors.Configf("solar band %d overlaps or precedes band %d", i, i-1)
		}
	}
	return nil
}

// RecommendSystem maps a monthly bill to a system size.
// The first band containing value wins and its size is clamped into bounds;
// savings are the mean of the band's saving range. With no matching band the
// midpoint of bounds is used and savings are size x SavingsPerKW.
func (e *Estimator) RecommendSystem(value decimal.Decimal, bounds types.HouseBounds) (types.Recommendation, error) {
	if value.IsNegative() {
		return types.Recommendation{}, errors.Precondition("bill", value, ">= 0")
	}
	if err := bounds.Validate(); err != nil {
		return types.Recommendation{}, err
	}

	for i := range e.bands {
		band := e.bands[i]
		if !band.Contains(value) {
			continue
		}
		size := bounds.Clamp(band.SizeKW)
		return types.Recommendation{
			SizeKW:         size,
			MonthlySavings: band.Saving.Mean(),
			Matched:        true,
			Band:           &band,
			Clamped:        !size.Equal(band.SizeKW),
		}, nil
	}

	size := bounds.Clamp(bounds.Midpoint())
	return types.Recommendation{
		SizeKW:         size,
		MonthlySavings: size.Mul(e.opts.SavingsPerKW),
	}, nil
}

// SolarFromBill estimates consumption from the bill by inverse lookup and
// recommends a system from the band table.
func (e *Estimator) SolarFromBill(schedule *tariff.Schedule, bill decimal.Decimal, bounds types.HouseBounds) (types.Estimate, error) {
	usage, err := schedule.UsageForBill(bill, e.opts.SearchCeiling)
	if err != nil {
		return types.Estimate{}, err
	}
	rec, err := e.RecommendSystem(bill, bounds)
	if err != nil {
		return types.Estimate{}, err
	}

	basis := BasisSolarBand
	if !rec.Matched {
		basis = BasisHouseMidpoint
	}
	return types.Estimate{
		Category:       types.CategorySolar,
		Commodity:      schedule.Commodity(),
		MonthlyBill:    bill,
		MonthlyUsage:   decimal.NewFromInt(usage.Usage),
		UsageKnown:     true,
		UsageSaturated: usage.Saturated,
		MonthlySavings: rec.MonthlySavings,
		System:         &rec,
		Basis:          basis,
	}, nil
}

// SolarFromConsumption prices the consumption and sizes the system at
// usage / KWhPerKW clamped into bounds.
func (e *Estimator) SolarFromConsumption(schedule *tariff.Schedule, usage decimal.Decimal, bounds types.HouseBounds) (types.Estimate, error) {
	if err := bounds.Validate(); err != nil {
		return types.Estimate{}, err
	}
	bill, err := schedule.BillFor(usage)
	if err != nil {
		return types.Estimate{}, err
	}

	raw := usage.Div(e.opts.KWhPerKW)
	size := bounds.Clamp(raw)
	rec := types.Recommendation{
		SizeKW:         size,
		MonthlySavings: size.Mul(e.opts.SavingsPerKW),
		Clamped:        !size.Equal(raw),
	}
	return types.Estimate{
		Category:       types.CategorySolar,
		Commodity:      schedule.Commodity(),
		MonthlyBill:    bill.Total,
		MonthlyUsage:   usage,
		UsageKnown:     true,
		MonthlySavings: rec.MonthlySavings,
		System:         &rec,
		Bill:           bill,
		Basis:          BasisConsumptionSize,
	}, nil
}

// WaterFromUsage prices water usage and saves efficiencyPercent of the bill
func (e *Estimator) WaterFromUsage(schedule *tariff.Schedule, usage, efficiencyPercent decimal.Decimal) (types.Estimate, error) {
	if !efficiencyPercent.IsPositive() || efficiencyPercent.GreaterThan(types.Hundred) {
		return types.Estimate{}, errors.Precondition("efficiency_percent", efficiencyPercent, "in (0,100]")
	}
	bill, err := schedule.BillFor(usage)
	if err != nil {
		return types.Estimate{}, err
	}
	return types.Estimate{
		Category:       types.CategoryWater,
		Commodity:      schedule.Commodity(),
		MonthlyBill:    bill.Total,
		MonthlyUsage:   usage,
		UsageKnown:     true,
		MonthlySavings: bill.Total.Mul(efficiencyPercent).Div(types.Hundred),
		Bill:           bill,
		Basis:          BasisWaterEfficiency,
	}, nil
}

// FromBill saves a fixed fraction of the bill; used by every non-solar category
func (e *Estimator) FromBill(category types.Category, bill decimal.Decimal) (types.Estimate, error) {
	if bill.IsNegative() {
		return types.Estimate{}, errors.Precondition("bill", bill, ">= 0")
	}
	if category == types.CategorySolar {
		return types.Estimate{}, errors.New(errors.TypeInternal, "solar bills are sized by band, use SolarFromBill")
	}
	return types.Estimate{
		Category:       category,
		Commodity:      category.Commodity(),
		MonthlyBill:    bill,
		MonthlySavings: bill.Mul(e.opts.BillSavingsFraction),
		Basis:          BasisBillFraction,
	}, nil
}

// Generic returns the category default when neither bill nor usage is known
func (e *Estimator) Generic(category types.Category) types.Estimate {
	return types.Estimate{
		Category:       category,
		Commodity:      category.Commodity(),
		MonthlyBill:    decimal.Zero,
		MonthlySavings: e.opts.GenericMonthlySavings,
		Basis:          BasisCategoryDefault,
	}
}
