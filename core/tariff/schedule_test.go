package tariff

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"green-roi/core/types"
	"green-roi/internal/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func residentialTiers() []types.TariffTier {
	return []types.TariffTier{
		{LowerBound: 1, UpperBound: types.UpTo(200), Rate: d("0.218")},
		{LowerBound: 201, UpperBound: types.UpTo(300), Rate: d("0.334")},
		{LowerBound: 301, UpperBound: types.UpTo(600), Rate: d("0.516")},
		{LowerBound: 601, UpperBound: types.UpTo(900), Rate: d("0.546")},
		{LowerBound: 901, UpperBound: types.Unbounded(), Rate: d("0.571")},
	}
}

func residential(t *testing.T) *Schedule {
	t.Helper()
	s, err := NewSchedule(types.CommodityElectricity, residentialTiers())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func TestBillFor(t *testing.T) {
	s := residential(t)

	tests := []struct {
		name          string
		usage         string
		expectedTotal string
		expectedTiers int
	}{
		{name: "zero usage is free", usage: "0", expectedTotal: "0", expectedTiers: 0},
		{name: "inside first tier", usage: "150", expectedTotal: "32.7", expectedTiers: 1},
		{name: "first tier boundary", usage: "200", expectedTotal: "43.6", expectedTiers: 1},
		{name: "spills into second tier", usage: "250", expectedTotal: "60.3", expectedTiers: 2},
		{name: "fractional usage", usage: "200.5", expectedTotal: "43.767", expectedTiers: 2},
		{name: "reaches open tier", usage: "1000", expectedTotal: "452.7", expectedTiers: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bill, err := s.BillFor(d(tt.usage))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bill.Total.Equal(d(tt.expectedTotal)) {
				t.Errorf("expected total %s, got %s", tt.expectedTotal, bill.Total)
			}
			if len(bill.Breakdown) != tt.expectedTiers {
				t.Errorf("expected %d breakdown entries, got %d", tt.expectedTiers, len(bill.Breakdown))
			}
		})
	}
}

func TestBillForBreakdown(t *testing.T) {
	bill, err := residential(t).BillFor(d("250"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []struct {
		units    string
		subtotal string
	}{
		{"200", "43.6"},
		{"50", "16.7"},
	}
	for i, w := range want {
		got := bill.Breakdown[i]
		if got.TierIndex != i {
			t.Errorf("entry %d: expected tier index %d, got %d", i, i, got.TierIndex)
		}
		if !got.Units.Equal(d(w.units)) {
			t.Errorf("entry %d: expected units %s, got %s", i, w.units, got.Units)
		}
		if !got.Subtotal.Equal(d(w.subtotal)) {
			t.Errorf("entry %d: expected subtotal %s, got %s", i, w.subtotal, got.Subtotal)
		}
	}
	if bill.RoundedTotal().StringFixed(2) != "60.30" {
		t.Errorf("expected rounded total 60.30, got %s", bill.RoundedTotal().StringFixed(2))
	}
}

func TestBillForRejectsNegativeUsage(t *testing.T) {
	_, err := residential(t).BillFor(d("-1"))
	if !errors.IsType(err, errors.TypePrecondition) {
		t.Fatalf("expected precondition violation, got %v", err)
	}
}

func TestBillIsMonotonic(t *testing.T) {
	s := residential(t)
	prev := decimal.Zero
	for u := int64(0); u <= 2000; u++ {
		bill, err := s.BillFor(decimal.NewFromInt(u))
		if err != nil {
			t.Fatalf("usage %d: %v", u, err)
		}
		if bill.Total.LessThan(prev) {
			t.Fatalf("bill decreased at usage %d: %s < %s", u, bill.Total, prev)
		}
		prev = bill.Total
	}
}

func TestBillEqualsSumOfBreakdown(t *testing.T) {
	s := residential(t)
	for _, usage := range []string{"0", "1", "199.99", "301", "612.25", "900", "901", "4321.5"} {
		bill, err := s.BillFor(d(usage))
		if err != nil {
			t.Fatalf("usage %s: %v", usage, err)
		}
		sum := decimal.Zero
		units := decimal.Zero
		for _, c := range bill.Breakdown {
			sum = sum.Add(c.Subtotal)
			units = units.Add(c.Units)
		}
		if !sum.Equal(bill.Total) {
			t.Errorf("usage %s: breakdown sums to %s, total is %s", usage, sum, bill.Total)
		}
		if !units.Equal(bill.Usage) {
			t.Errorf("usage %s: breakdown covers %s units", usage, units)
		}
	}
}

func TestUsageForBill(t *testing.T) {
	s := residential(t)

	tests := []struct {
		name          string
		target        string
		ceiling       int64
		expectedUsage int64
		saturated     bool
	}{
		{name: "exact bill of 250 kWh", target: "60.30", ceiling: 5000, expectedUsage: 250},
		{name: "just above a whole-unit bill", target: "60.31", ceiling: 5000, expectedUsage: 251},
		{name: "smallest positive bill", target: "0.01", ceiling: 5000, expectedUsage: 1},
		{name: "bill equals ceiling bill", target: "43.6", ceiling: 200, expectedUsage: 200},
		{name: "ceiling cannot reach target", target: "20000", ceiling: 5000, expectedUsage: 5000, saturated: true},
		{name: "largest representable ceiling", target: "60.30", ceiling: math.MaxInt64, expectedUsage: 250},
		{name: "one below largest ceiling", target: "60.30", ceiling: math.MaxInt64 - 1, expectedUsage: 250},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := s.UsageForBill(d(tt.target), tt.ceiling)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Usage != tt.expectedUsage {
				t.Errorf("expected usage %d, got %d", tt.expectedUsage, res.Usage)
			}
			if res.Saturated != tt.saturated {
				t.Errorf("expected saturated=%v, got %v", tt.saturated, res.Saturated)
			}
			if res.Ceiling != tt.ceiling {
				t.Errorf("expected ceiling %d, got %d", tt.ceiling, res.Ceiling)
			}
		})
	}
}

func TestUsageForBillMatchesLinearScan(t *testing.T) {
	s := residential(t)
	const ceiling = 1500

	for target := d("0.37"); target.LessThan(d("900")); target = target.Add(d("13.91")) {
		res, err := s.UsageForBill(target, ceiling)
		if err != nil {
			t.Fatalf("target %s: %v", target, err)
		}
		want, err := s.LinearUsageForBill(target, ceiling)
		if err != nil {
			t.Fatalf("target %s: %v", target, err)
		}
		if res.Usage != want.Usage || res.Saturated != want.Saturated {
			t.Errorf("target %s: binary search gave (%d,%v), scan gave (%d,%v)",
				target, res.Usage, res.Saturated, want.Usage, want.Saturated)
		}
	}
}

func TestUsageForBillRoundTrip(t *testing.T) {
	s := residential(t)
	for target := d("0.5"); target.LessThan(d("3000")); target = target.Add(d("27.3")) {
		res, err := s.UsageForBill(target, 5000)
		if err != nil {
			t.Fatalf("target %s: %v", target, err)
		}
		if res.Saturated {
			continue
		}
		bill, _ := s.BillFor(decimal.NewFromInt(res.Usage))
		if bill.Total.LessThan(target) {
			t.Errorf("target %s: usage %d bills only %s", target, res.Usage, bill.Total)
		}
		if res.Usage > 0 {
			below, _ := s.BillFor(decimal.NewFromInt(res.Usage - 1))
			if !below.Total.LessThan(target) {
				t.Errorf("target %s: usage %d is not the smallest", target, res.Usage)
			}
		}
	}
}

func TestUsageForBillPreconditions(t *testing.T) {
	s := residential(t)

	if _, err := s.UsageForBill(decimal.Zero, 5000); !errors.IsType(err, errors.TypePrecondition) {
		t.Errorf("expected precondition violation for zero target, got %v", err)
	}
	if _, err := s.UsageForBill(d("-5"), 5000); !errors.IsType(err, errors.TypePrecondition) {
		t.Errorf("expected precondition violation for negative target, got %v", err)
	}
	if _, err := s.UsageForBill(d("10"), 0); !errors.IsType(err, errors.TypePrecondition) {
		t.Errorf("expected precondition violation for zero ceiling, got %v", err)
	}
}

func TestNewScheduleRejectsMalformedTiers(t *testing.T) {
	tests := []struct {
		name  string
		tiers []types.TariffTier
	}{
		{name: "no tiers", tiers: nil},
		{
			name: "gap between tiers",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.UpTo(200), Rate: d("0.2")},
				{LowerBound: 202, UpperBound: types.Unbounded(), Rate: d("0.3")},
			},
		},
		{
			name: "overlapping tiers",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.UpTo(200), Rate: d("0.2")},
				{LowerBound: 150, UpperBound: types.Unbounded(), Rate: d("0.3")},
			},
		},
		{
			name: "missing terminal open tier",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.UpTo(200), Rate: d("0.2")},
			},
		},
		{
			name: "open tier not last",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.Unbounded(), Rate: d("0.2")},
				{LowerBound: 201, UpperBound: types.Unbounded(), Rate: d("0.3")},
			},
		},
		{
			name: "does not start at one",
			tiers: []types.TariffTier{
				{LowerBound: 5, UpperBound: types.Unbounded(), Rate: d("0.2")},
			},
		},
		{
			name: "inverted bounds",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.UpTo(0), Rate: d("0.2")},
				{LowerBound: 1, UpperBound: types.Unbounded(), Rate: d("0.3")},
			},
		},
		{
			name: "zero rate",
			tiers: []types.TariffTier{
				{LowerBound: 1, UpperBound: types.Unbounded(), Rate: decimal.Zero},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSchedule(types.CommodityElectricity, tt.tiers)
			if !errors.IsType(err, errors.TypeConfig) {
				t.Fatalf("expected configuration error, got %v", err)
			}
		})
	}
}

func TestScheduleOwnsItsTiers(t *testing.T) {
	tiers := residentialTiers()
	s, err := NewSchedule(types.CommodityElectricity, tiers)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tiers[0].Rate = d("9")

	bill, _ := s.BillFor(d("100"))
	if !bill.Total.Equal(d("21.8")) {
		t.Errorf("schedule changed after caller mutated input: total %s", bill.Total)
	}
}

func TestFlatSchedule(t *testing.T) {
	s, err := FlatSchedule(types.CommodityWater, d("0.57"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	bill, _ := s.BillFor(d("20"))
	if !bill.Total.Equal(d("11.4")) {
		t.Errorf("expected 11.4, got %s", bill.Total)
	}
	if s.Commodity() != types.CommodityWater {
		t.Errorf("expected water commodity, got %s", s.Commodity())
	}
}
