package engine

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"green-roi/core/catalog"
	"green-roi/core/estimator"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func seed(v uint64) *uint64 {
	return &v
}

func years(v int) *int {
	return &v
}

func ceiling(v int64) *int64 {
	return &v
}

func newTestEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	e, err := NewEngine(cat, DefaultConfig(), zap.New(core))
	require.NoError(t, err)
	return e, logs
}

func TestCalculateSolarFromBill(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category:     types.CategorySolar,
		HouseType:    "terrace",
		Investment:   dp("5000"),
		HorizonYears: years(5),
		MonthlyBill:  dp("300"),
		Seed:         seed(11),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, types.CurrencyMYR, report.Currency)
	assert.Equal(t, estimator.BasisSolarBand, report.Estimate.Basis)
	assert.True(t, report.Estimate.MonthlyUsage.Equal(d("725")))
	require.NotNil(t, report.Estimate.System)
	assert.True(t, report.Estimate.System.SizeKW.Equal(d("5.5")))
	assert.True(t, report.MonthlySavings.Equal(d("260")))
	assert.False(t, report.SavingsOverridden)

	p := report.Projection
	assert.True(t, p.TotalSavings.Equal(d("15600")))
	assert.True(t, p.ROIPercent.Equal(d("212")))
	assert.Len(t, p.Series, 60)
	assert.Len(t, report.Yearly, 5)
	assert.Len(t, report.Horizons, types.MaxHorizonYears)
	assert.Len(t, report.Benchmarks, len(types.AllCategories))
	require.NotNil(t, report.PredictedROI)
	assert.Nil(t, report.AnnualGenerationKWh)
}

func TestCalculateSavingsOverride(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category:       types.CategoryEnergyEfficiency,
		Investment:     dp("5000"),
		HorizonYears:   years(5),
		MonthlySavings: dp("300"),
	})
	require.NoError(t, err)

	assert.True(t, report.SavingsOverridden)
	assert.True(t, report.Projection.TotalSavings.Equal(d("18000")))
	assert.True(t, report.Projection.ROIPercent.Equal(d("260")))
	assert.Equal(t, "16.67", report.Projection.PaybackMonths.StringFixed(2))
	assert.Equal(t, estimator.BasisCategoryDefault, report.Estimate.Basis)
}

func TestCalculateZeroSavingsIsUnbounded(t *testing.T) {
	e, logs := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category:       types.CategoryOther,
		Investment:     dp("5000"),
		HorizonYears:   years(5),
		MonthlySavings: dp("0"),
	})
	require.NoError(t, err)

	assert.True(t, report.Projection.PaybackMonths.IsUnbounded())
	assert.True(t, report.Projection.ROIPercent.Equal(d("-100")))
	assert.Equal(t, 1, logs.FilterMessage("investment is never recovered").Len())
}

func TestCalculateWaterFromUsage(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category:     types.CategoryWater,
		State:        "Kuala Lumpur",
		Investment:   dp("1000"),
		MonthlyUsage: dp("20"),
	})
	require.NoError(t, err)

	assert.Equal(t, estimator.BasisWaterEfficiency, report.Estimate.Basis)
	assert.True(t, report.Estimate.MonthlyBill.Equal(d("11.4")))
	assert.True(t, report.MonthlySavings.Equal(d("2.28")))
	assert.Equal(t, 5, report.Projection.Input.HorizonYears)

	report, err = e.Calculate(context.Background(), Request{
		Category:          types.CategoryWater,
		State:             "Johor",
		Investment:        dp("1000"),
		MonthlyUsage:      dp("20"),
		EfficiencyPercent: dp("50"),
	})
	require.NoError(t, err)
	assert.True(t, report.MonthlySavings.Equal(d("6")))
}

func TestCalculateBillFractionAndGeneric(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category:    types.CategoryWasteManagement,
		Investment:  dp("8000"),
		MonthlyBill: dp("450"),
	})
	require.NoError(t, err)
	assert.True(t, report.MonthlySavings.Equal(d("90")))

	report, err = e.Calculate(context.Background(), Request{
		Category:   types.CategoryWasteManagement,
		Investment: dp("8000"),
	})
	require.NoError(t, err)
	assert.True(t, report.MonthlySavings.Equal(d("1000")))
}

func TestCalculateSolarDefaults(t *testing.T) {
	e, _ := newTestEngine(t)

	report, err := e.Calculate(context.Background(), Request{
		Category: types.CategorySolar,
		State:    "Pulau Pinang",
	})
	require.NoError(t, err)

	require.NotNil(t, report.House)
	assert.Equal(t, "terrace", report.House.Key)
	assert.True(t, report.InvestmentDefaulted)
	assert.True(t, report.Projection.Input.Investment.Equal(d("20000")))
	assert.Equal(t, estimator.BasisHouseMidpoint, report.Estimate.Basis)
	assert.True(t, report.MonthlySavings.Equal(d("300")))

	require.NotNil(t, report.AnnualGenerationKWh)
	assert.True(t, report.AnnualGenerationKWh.Equal(d("9100.85")), "got %s", report.AnnualGenerationKWh)
}

func TestCalculateIsReproducibleWithSeed(t *testing.T) {
	e, _ := newTestEngine(t)
	req := Request{
		Category:    types.CategorySolar,
		HouseType:   "bungalow",
		Investment:  dp("40000"),
		MonthlyBill: dp("650"),
		Seed:        seed(99),
	}

	a, err := e.Calculate(context.Background(), req)
	require.NoError(t, err)
	b, err := e.Calculate(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.True(t, a.FinalROI.Equal(b.FinalROI))
	for i := range a.Horizons {
		assert.True(t, a.Horizons[i].FinalCumulative.Equal(b.Horizons[i].FinalCumulative))
	}
}

func TestCalculateRejectsBadRequests(t *testing.T) {
	e, _ := newTestEngine(t)

	tests := []struct {
		name     string
		req      Request
		expected errors.Type
	}{
		{name: "unknown category", req: Request{Category: "nuclear", Investment: dp("1")}, expected: errors.TypeNotFound},
		{name: "unknown state", req: Request{Category: types.CategoryOther, State: "Atlantis", Investment: dp("1")}, expected: errors.TypeNotFound},
		{name: "unknown house", req: Request{Category: types.CategorySolar, HouseType: "castle", Investment: dp("1")}, expected: errors.TypeNotFound},
		{name: "negative bill", req: Request{Category: types.CategorySolar, Investment: dp("1"), MonthlyBill: dp("-5")}, expected: errors.TypePrecondition},
		{name: "negative investment", req: Request{Category: types.CategoryOther, Investment: dp("-1")}, expected: errors.TypePrecondition},
		{name: "missing investment", req: Request{Category: types.CategoryOther}, expected: errors.TypePrecondition},
		{name: "zero investment", req: Request{Category: types.CategoryOther, Investment: dp("0")}, expected: errors.TypePrecondition},
		{name: "zero solar investment", req: Request{Category: types.CategorySolar, Investment: dp("0")}, expected: errors.TypePrecondition},
		{name: "zero horizon", req: Request{Category: types.CategoryOther, Investment: dp("1"), HorizonYears: years(0)}, expected: errors.TypePrecondition},
		{name: "horizon too long", req: Request{Category: types.CategoryOther, Investment: dp("1"), HorizonYears: years(11)}, expected: errors.TypePrecondition},
		{name: "negative noise", req: Request{Category: types.CategoryOther, Investment: dp("1"), NoiseFraction: func() *float64 { v := -0.5; return &v }()}, expected: errors.TypePrecondition},
		{name: "efficiency out of range", req: Request{Category: types.CategoryWater, Investment: dp("1"), MonthlyUsage: dp("20"), EfficiencyPercent: dp("120")}, expected: errors.TypePrecondition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Calculate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Equal(t, tt.expected, errors.TypeOf(err), "got %v", err)
		})
	}
}

func TestBillUsageRecommend(t *testing.T) {
	e, logs := newTestEngine(t)

	bill, err := e.Bill(types.CommodityElectricity, "", d("250"))
	require.NoError(t, err)
	assert.True(t, bill.Total.Equal(d("60.3")))

	bill, err = e.Bill(types.CommodityWater, "Selangor", d("10"))
	require.NoError(t, err)
	assert.True(t, bill.Total.Equal(d("5.7")))

	usage, err := e.Usage(types.CommodityElectricity, "", d("60.30"), nil)
	require.NoError(t, err)
	assert.Equal(t, int64(250), usage.Usage)
	assert.Equal(t, int64(5000), usage.Ceiling)

	usage, err = e.Usage(types.CommodityElectricity, "", d("60.30"), ceiling(100))
	require.NoError(t, err)
	assert.True(t, usage.Saturated)
	assert.Equal(t, 1, logs.FilterMessage("usage search saturated").Len())

	rec, house, err := e.Recommend(d("300"), "")
	require.NoError(t, err)
	assert.Equal(t, "terrace", house.Key)
	assert.True(t, rec.SizeKW.Equal(d("5.5")))
	assert.True(t, rec.MonthlySavings.Equal(d("260")))

	_, err = e.Bill(types.Commodity("gas"), "", d("1"))
	assert.True(t, errors.IsType(err, errors.TypeNotFound))
}

func TestProjectUsesConfiguredDefaults(t *testing.T) {
	e, _ := newTestEngine(t)

	r, err := e.Project(ProjectRequest{Investment: d("5000"), MonthlySavings: d("300")})
	require.NoError(t, err)
	assert.Equal(t, 5, r.Input.HorizonYears)
	assert.Equal(t, 0.05, r.NoiseFraction)
	assert.False(t, r.Seeded)
}

func TestExplicitZeroIsNotReplacedByDefault(t *testing.T) {
	e, _ := newTestEngine(t)

	_, err := e.Project(ProjectRequest{Investment: d("5000"), MonthlySavings: d("300"), HorizonYears: years(0)})
	assert.Equal(t, map[string]interface{}{
		errors.KeyField: "horizon_years",
		errors.KeyValue: "0",
		errors.KeyBound: "in [1,10]",
	}, errors.Details(err))

	_, err = e.Usage(types.CommodityElectricity, "", d("60.30"), ceiling(0))
	assert.Equal(t, "search_ceiling", errors.Details(err)[errors.KeyField])

	_, err = e.Calculate(context.Background(), Request{Category: types.CategorySolar, Investment: dp("0")})
	assert.Equal(t, "investment", errors.Details(err)[errors.KeyField])
}

func TestNewEngineValidatesConfig(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.DefaultHouse = "castle"
	_, err = NewEngine(cat, cfg, nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	cfg = DefaultConfig()
	cfg.DefaultHorizonYears = 0
	_, err = NewEngine(cat, cfg, nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	cfg = DefaultConfig()
	cfg.NoiseFraction = -1
	_, err = NewEngine(cat, cfg, nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))

	_, err = NewEngine(nil, DefaultConfig(), nil)
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}
