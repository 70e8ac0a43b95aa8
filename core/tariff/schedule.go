// Package tariff converts metered consumption into a bill under a tiered
// rate structure, and inverts that conversion by search.
//
// A Schedule is immutable once built and safe for concurrent use.
package tariff

import (
	"fmt"

	"github.com/shopspring/decimal"

	"green-roi/core/types"
	"green-roi/internal/errors"
)

// Schedule is a validated, ordered set of contiguous tiers for one commodity
type Schedule struct {
	commodity types.Commodity
	tiers     []types.TariffTier
}

// NewSchedule validates tiers and returns a schedule.
// Tiers must start at 1, be contiguous and ascending, carry positive rates,
// and end with exactly one open-ended tier.
func NewSchedule(commodity types.Commodity, tiers []types.TariffTier) (*Schedule, error) {
	if len(tiers) == 0 {
		return nil, errors.Configf("%s tariff has no tiers", commodity)
	}

	last := len(tiers) - 1
	for i, tier := range tiers {
		if !tier.Rate.IsPositive() {
			return nil, invalidTier(commodity, i, "rate must be positive")
		}
		if i == 0 && tier.LowerBound != 1 {
			return nil, invalidTier(commodity, i, "first tier must start at 1")
		}
		if i > 0 {
			prevUpper, _ := tiers[i-1].UpperBound.Value()
			if tier.LowerBound != prevUpper+1 {
				return nil, invalidTier(commodity, i,
					fmt.Sprintf("lower bound %d does not follow previous upper bound %d", tier.LowerBound, prevUpper))
			}
		}

		upper, bounded := tier.UpperBound.Value()
		switch {
		case i == last && bounded:
			return nil, invalidTier(commodity, i, "last tier must be unbounded")
		case i < last && !bounded:
			return nil, invalidTier(commodity, i, "only the last tier may be unbounded")
		case bounded && upper < tier.LowerBound:
			return nil, invalidTier(commodity, i,
				fmt.Sprintf("upper bound %d is below lower bound %d", upper, tier.LowerBound))
		}
	}

	owned := make([]types.TariffTier, len(tiers))
	copy(owned, tiers)
	return &Schedule{commodity: commodity, tiers: owned}, nil
}

func invalidTier(commodity types.Commodity, index int, reason string) *errors.Error {
	return errors.Configf("%s tariff tier %d invalid: %s", commodity, index, reason).
		WithContext("commodity", commodity.String()).
		WithContext("tier_index", index)
}

// FlatSchedule returns a single open-ended tier at rate
func FlatSchedule(commodity types.Commodity, rate decimal.Decimal) (*Schedule, error) {
	return NewSchedule(commodity, []types.TariffTier{
		{LowerBound: 1, UpperBound: types.Unbounded(), Rate: rate},
	})
}

// Commodity returns the commodity this schedule prices
func (s *Schedule) Commodity() types.Commodity {
	return s.commodity
}

// Tiers returns a copy of the tiers
func (s *Schedule) Tiers() []types.TariffTier {
	out := make([]types.TariffTier, len(s.tiers))
	copy(out, s.tiers)
	return out
}

// BillFor prices usage by walking tiers in ascending order.
// The total equals the sum of the breakdown subtotals exactly.
func (s *Schedule) BillFor(usage decimal.Decimal) (*types.BillResult, error) {
	if usage.IsNegative() {
		return nil, errors.Precondition("usage", usage, ">= 0")
	}

	result := &types.BillResult{
		Commodity: s.commodity,
		Usage:     usage,
		Total:     decimal.Zero,
		Breakdown: []types.TierCharge{},
	}

	remaining := usage
	for i, tier := range s.tiers {
		if !remaining.IsPositive() {
			break
		}

		units := remaining
		if capacity, ok := tier.Capacity(); ok && capacity.LessThan(remaining) {
			units = capacity
		}

		subtotal := units.Mul(tier.Rate)
		result.Breakdown = append(result.Breakdown, types.TierCharge{
			TierIndex: i,
			Tier:      tier,
			Units:     units,
			Subtotal:  subtotal,
		})
		result.Total = result.Total.Add(subtotal)
		remaining = remaining.Sub(units)
	}

	return result, nil
}

// totalFor is BillFor without the breakdown, for search
func (s *Schedule) totalFor(usage int64) decimal.Decimal {
	total := decimal.Zero
	remaining := usage
	for _, tier := range s.tiers {
		if remaining <= 0 {
			break
		}
		units := remaining
		if upper, ok := tier.UpperBound.Value(); ok {
			if capacity := upper - tier.LowerBound + 1; capacity < remaining {
				units = capacity
			}
		}
		total = total.Add(decimal.NewFromInt(units).Mul(tier.Rate))
		remaining -= units
	}
	return total
}

// UsageForBill returns the smallest whole usage in [0, ceiling] whose bill
// reaches target. When even the ceiling falls short the result is the
// ceiling with Saturated set; that is a normal result, not an error.
//
// The bill is non-decreasing in usage, so a binary search gives the same
// answer as scanning upward from zero.
func (s *Schedule) UsageForBill(target decimal.Decimal, ceiling int64) (types.UsageResult, error) {
	if !target.IsPositive() {
		return types.UsageResult{}, errors.Precondition("target_bill", target, "> 0")
	}
	if ceiling <= 0 {
		return types.UsageResult{}, errors.Precondition("search_ceiling", ceiling, "> 0")
	}

	result := types.UsageResult{Ceiling: ceiling, Target: target}

	if s.totalFor(ceiling).LessThan(target) {
		result.Usage = ceiling
		result.Saturated = true
		return result, nil
	}

	// totalFor(hi) reaches target; lo only moves past usages that fall short
	lo, hi := int64(0), ceiling
	for lo < hi {
		mid := lo + (hi-lo)/2
		if s.totalFor(mid).LessThan(target) {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	result.Usage = lo
	return result, nil
}

// LinearUsageForBill scans upward from zero. It returns the same answer as
// UsageForBill in O(ceiling) and is kept as the reference implementation.
func (s *Schedule) LinearUsageForBill(target decimal.Decimal, ceiling int64) (types.UsageResult, error) {
	if !target.IsPositive() {
		return types.UsageResult{}, errors.Precondition("target_bill", target, "> 0")
	}
	if ceiling <= 0 {
		return types.UsageResult{}, errors.Precondition("search_ceiling", ceiling, "> 0")
	}
	for u := int64(0); u <= ceiling; u++ {
		if !s.totalFor(u).LessThan(target) {
			return types.UsageResult{Usage: u, Ceiling: ceiling, Target: target}, nil
		}
	}
	return types.UsageResult{Usage: ceiling, Ceiling: ceiling, Target: target, Saturated: true}, nil
}
