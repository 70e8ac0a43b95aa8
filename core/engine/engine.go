// Package engine provides the API-primary calculation engine.
// CLI and HTTP are thin wrappers around this engine.
//
// The engine composes the reference catalog, the tariff schedules, the
// estimator and the projection. It holds no per-request state.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"green-roi/core/catalog"
	"green-roi/core/estimator"
	"green-roi/core/projection"
	"green-roi/core/tariff"
	"green-roi/core/types"
	"green-roi/internal/config"
	"green-roi/internal/errors"
)

// Config configures the calculation engine
type Config struct {
	// Estimator holds the fallback savings rates and search ceiling
	Estimator estimator.Options

	// WaterEfficiencyPercent is used when a water request omits it
	WaterEfficiencyPercent decimal.Decimal

	// NoiseFraction is used when a request omits it
	NoiseFraction float64

	// DefaultHorizonYears is used when a request omits the horizon
	DefaultHorizonYears int

	// DefaultHouse is used when a solar request names no house type
	DefaultHouse string
}

// DefaultConfig returns the engine defaults
func DefaultConfig() Config {
	return ConfigFrom(config.Default())
}

// ConfigFrom converts application configuration
func ConfigFrom(c *config.Config) Config {
	return Config{
		Estimator: estimator.Options{
			SavingsPerKW:          decimal.NewFromFloat(c.Estimator.SavingsPerKW),
			KWhPerKW:              decimal.NewFromFloat(c.Estimator.KWhPerKW),
			BillSavingsFraction:   decimal.NewFromFloat(c.Estimator.BillSavingsFraction),
			GenericMonthlySavings: decimal.NewFromFloat(c.Estimator.GenericMonthlySavings),
			SearchCeiling:         c.Projection.SearchCeiling,
		},
		WaterEfficiencyPercent: decimal.NewFromFloat(c.Estimator.WaterEfficiencyPercent),
		NoiseFraction:          c.Projection.NoiseFraction,
		DefaultHorizonYears:    c.Projection.DefaultHorizonYears,
		DefaultHouse:           c.Estimator.DefaultHouse,
	}
}

// Engine is the primary API for bill, savings and ROI calculations
type Engine struct {
	catalog   *catalog.Catalog
	estimator *estimator.Estimator
	config    Config
	logger    *zap.Logger
}

// NewEngine creates a new calculation engine.
// A nil logger discards log output.
func NewEngine(cat *catalog.Catalog, cfg Config, logger *zap.Logger) (*Engine, error) {
	if cat == nil {
		return nil, errors.Config("engine requires a catalog")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	est, err := estimator.New(cat.SolarBands(), cfg.Estimator)
	if err != nil {
		return nil, err
	}
	if cfg.DefaultHorizonYears < types.MinHorizonYears || cfg.DefaultHorizonYears > types.MaxHorizonYears {
		return nil, errors.Configf("default horizon %d outside [%d,%d]",
			cfg.DefaultHorizonYears, types.MinHorizonYears, types.MaxHorizonYears)
	}
	if err := (projection.Options{NoiseFraction: cfg.NoiseFraction}).Validate(); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "invalid default noise fraction", err)
	}
	if cfg.DefaultHouse != "" {
		if _, err := cat.House(cfg.DefaultHouse); err != nil {
			return nil, errors.Wrapf(errors.TypeConfig, err, "default house %q", cfg.DefaultHouse)
		}
	}

	return &Engine{
		catalog:   cat,
		estimator: est,
		config:    cfg,
		logger:    logger,
	}, nil
}

// Catalog returns the reference tables in use
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Config returns the engine configuration
func (e *Engine) Config() Config {
	return e.config
}

// schedule returns the commodity schedule, priced for state when it is water
func (e *Engine) schedule(commodity types.Commodity, state string) (*tariff.Schedule, error) {
	if commodity == types.CommodityWater {
		return e.catalog.WaterSchedule(state)
	}
	return e.catalog.Schedule(commodity)
}

// Bill prices a monthly usage
func (e *Engine) Bill(commodity types.Commodity, state string, usage decimal.Decimal) (*types.BillResult, error) {
	s, err := e.schedule(commodity, state)
	if err != nil {
		return nil, err
	}
	return s.BillFor(usage)
}

// Usage estimates the monthly usage behind a bill.
// A nil ceiling uses the configured search ceiling.
func (e *Engine) Usage(commodity types.Commodity, state string, bill decimal.Decimal, ceiling *int64) (types.UsageResult, error) {
	s, err := e.schedule(commodity, state)
	if err != nil {
		return types.UsageResult{}, err
	}
	limit := e.config.Estimator.SearchCeiling
	if ceiling != nil {
		limit = *ceiling
	}
	result, err := s.UsageForBill(bill, limit)
	if err != nil {
		return types.UsageResult{}, err
	}
	if result.Saturated {
		e.logger.Debug("usage search saturated",
			zap.String("commodity", commodity.String()),
			zap.String("bill", bill.String()),
			zap.Int64("ceiling", limit))
	}
	return result, nil
}

// Recommend sizes a solar system for a monthly bill and house type
func (e *Engine) Recommend(bill decimal.Decimal, houseKey string) (types.Recommendation, catalog.HouseType, error) {
	house, err := e.house(houseKey)
	if err != nil {
		return types.Recommendation{}, catalog.HouseType{}, err
	}
	rec, err := e.estimator.RecommendSystem(bill, house.Bounds)
	if err != nil {
		return types.Recommendation{}, catalog.HouseType{}, err
	}
	return rec, house, nil
}

func (e *Engine) house(key string) (catalog.HouseType, error) {
	if key == "" {
		key = e.config.DefaultHouse
	}
	if key == "" {
		return catalog.HouseType{}, errors.Precondition("house_type", key, "a catalog house type")
	}
	return e.catalog.House(key)
}

// ProjectRequest is a direct projection request
type ProjectRequest struct {
	Investment     decimal.Decimal `json:"investment"`
	MonthlySavings decimal.Decimal `json:"monthly_savings"`
	HorizonYears   *int            `json:"horizon_years,omitempty"`
	NoiseFraction  *float64        `json:"noise_fraction,omitempty"`
	Seed           *uint64         `json:"seed,omitempty"`
}

// Project runs a projection, filling omitted options from configuration
func (e *Engine) Project(req ProjectRequest) (*types.ProjectionResult, error) {
	in, err := types.NewProjectionInput(req.Investment, req.MonthlySavings, e.horizon(req.HorizonYears))
	if err != nil {
		return nil, err
	}
	result, err := projection.Project(in, e.projectionOptions(req.NoiseFraction, req.Seed))
	if err != nil {
		return nil, err
	}
	if result.PaybackMonths.IsUnbounded() {
		e.logger.Info("investment is never recovered",
			zap.String("investment", in.Investment.String()),
			zap.Int("horizon_years", in.HorizonYears))
	}
	return result, nil
}

// horizon returns the requested horizon; an explicit value is never replaced
func (e *Engine) horizon(years *int) int {
	if years == nil {
		return e.config.DefaultHorizonYears
	}
	return *years
}

func (e *Engine) projectionOptions(noise *float64, seed *uint64) projection.Options {
	opts := projection.Options{NoiseFraction: e.config.NoiseFraction}
	if noise != nil {
		opts.NoiseFraction = *noise
	}
	if seed != nil {
		opts = opts.WithSeed(*seed)
	}
	return opts
}

// Request is a full calculation request for one investment category
type Request struct {
	Category   types.Category  `json:"category"`
	State      string          `json:"state,omitempty"`
	HouseType  string          `json:"house_type,omitempty"`

	// Investment is required except for solar, where nil uses the house cost average
	Investment *decimal.Decimal `json:"investment,omitempty"`

	// HorizonYears of nil uses the configured default
	HorizonYears *int `json:"horizon_years,omitempty"`

	MonthlyBill  *decimal.Decimal `json:"monthly_bill,omitempty"`
	MonthlyUsage *decimal.Decimal `json:"monthly_usage,omitempty"`

	// MonthlySavings overrides the estimated savings
	MonthlySavings *decimal.Decimal `json:"monthly_savings,omitempty"`

	EfficiencyPercent *decimal.Decimal `json:"efficiency_percent,omitempty"`
	NoiseFraction     *float64         `json:"noise_fraction,omitempty"`
	Seed              *uint64          `json:"seed,omitempty"`
}

// Report is the result of Calculate
type Report struct {
	ID          string         `json:"id"`
	GeneratedAt time.Time      `json:"generated_at"`
	Currency    types.Currency `json:"currency"`
	Category    types.Category `json:"category"`
	State       string         `json:"state,omitempty"`

	// House is set for solar requests
	House *catalog.HouseType `json:"house,omitempty"`

	Estimate          types.Estimate  `json:"estimate"`
	MonthlySavings    decimal.Decimal `json:"monthly_savings"`
	SavingsOverridden bool            `json:"savings_overridden"`

	// InvestmentDefaulted is set when a solar investment came from the house cost range
	InvestmentDefaulted bool `json:"investment_defaulted"`

	// AnnualGenerationKWh is system size x state solar yield
	AnnualGenerationKWh *decimal.Decimal `json:"annual_generation_kwh,omitempty"`

	Projection   *types.ProjectionResult `json:"projection"`
	Yearly       []types.YearPoint       `json:"yearly"`
	FinalROI     decimal.Decimal         `json:"final_roi_percent"`
	Horizons     []types.HorizonPoint    `json:"horizons"`
	Benchmarks   []types.BenchmarkPoint  `json:"benchmarks"`
	PredictedROI *decimal.Decimal        `json:"predicted_roi_percent,omitempty"`
}

// Calculate estimates savings for the request and projects the investment
func (e *Engine) Calculate(ctx context.Context, req Request) (*Report, error) {
	if !req.Category.IsValid() {
		return nil, errors.NotFound("category", req.Category.String())
	}
	if err := validateAmounts(req); err != nil {
		return nil, err
	}

	log := e.logger.With(zap.String("category", req.Category.String()))

	var state *catalog.State
	if req.State != "" {
		st, err := e.catalog.State(req.State)
		if err != nil {
			return nil, err
		}
		state = &st
	}

	report := &Report{
		ID:          uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Currency:    e.catalog.Currency(),
		Category:    req.Category,
		State:       req.State,
	}

	est, house, err := e.estimate(req)
	if err != nil {
		return nil, err
	}
	report.Estimate = est
	report.House = house
	log.Debug("estimate resolved",
		zap.String("basis", est.Basis),
		zap.String("monthly_savings", est.MonthlySavings.String()),
		zap.Bool("usage_saturated", est.UsageSaturated))

	report.MonthlySavings = est.MonthlySavings
	if req.MonthlySavings != nil {
		report.MonthlySavings = *req.MonthlySavings
		report.SavingsOverridden = true
	}

	var investment decimal.Decimal
	switch {
	case req.Investment != nil:
		investment = *req.Investment
	case house != nil:
		investment = house.Cost.Mean()
		report.InvestmentDefaulted = true
		log.Debug("investment defaulted from house cost", zap.String("investment", investment.String()))
	default:
		return nil, errors.Precondition("investment", "missing", "> 0")
	}

	if est.System != nil && state != nil && state.SolarYield.IsPositive() {
		gen := est.System.SizeKW.Mul(state.SolarYield)
		report.AnnualGenerationKWh = &gen
	}

	result, err := e.Project(ProjectRequest{
		Investment:     investment,
		MonthlySavings: report.MonthlySavings,
		HorizonYears:   req.HorizonYears,
		NoiseFraction:  req.NoiseFraction,
		Seed:           req.Seed,
	})
	if err != nil {
		return nil, err
	}
	report.Projection = result
	report.Yearly = projection.YearlyRollup(result)
	report.FinalROI = projection.FinalROI(result)

	sweepOpts := projection.Options{NoiseFraction: result.NoiseFraction}.WithSeed(result.Seed)
	report.Horizons, err = projection.Sweep(ctx, investment, report.MonthlySavings, sweepOpts)
	if err != nil {
		return nil, err
	}

	report.Benchmarks = projection.Benchmark(result.ROIPercent, e.catalog.Benchmarks())

	if points := e.catalog.ROIPoints(); len(points) > 0 {
		predicted, err := projection.PredictROI(points, investment)
		if err != nil {
			log.Warn("ROI prediction skipped", zap.Error(err))
		} else {
			report.PredictedROI = &predicted
		}
	}

	log.Info("calculation complete",
		zap.String("id", report.ID),
		zap.String("roi_percent", result.ROIPercent.StringFixed(2)),
		zap.String("payback_months", result.PaybackMonths.StringFixed(2)),
		zap.Uint64("seed", result.Seed))
	return report, nil
}

func validateAmounts(req Request) error {
	checks := []struct {
		field string
		value *decimal.Decimal
	}{
		{"monthly_bill", req.MonthlyBill},
		{"monthly_usage", req.MonthlyUsage},
		{"monthly_savings", req.MonthlySavings},
	}
	for _, c := range checks {
		if c.value != nil && c.value.IsNegative() {
			return errors.Precondition(c.field, *c.value, ">= 0")
		}
	}
	if req.Investment != nil && !req.Investment.IsPositive() {
		return errors.Precondition("investment", *req.Investment, "> 0")
	}
	return nil
}

// estimate picks the savings rule for the category and the inputs present
func (e *Engine) estimate(req Request) (types.Estimate, *catalog.HouseType, error) {
	hasBill := req.MonthlyBill != nil && req.MonthlyBill.IsPositive()

	switch req.Category {
	case types.CategorySolar:
		house, err := e.house(req.HouseType)
		if err != nil {
			return types.Estimate{}, nil, err
		}
		electricity, err := e.catalog.Schedule(types.CommodityElectricity)
		if err != nil {
			return types.Estimate{}, nil, err
		}

		var est types.Estimate
		switch {
		case req.MonthlyUsage != nil:
			est, err = e.estimator.SolarFromConsumption(electricity, *req.MonthlyUsage, house.Bounds)
		case hasBill:
			est, err = e.estimator.SolarFromBill(electricity, *req.MonthlyBill, house.Bounds)
		default:
			est, err = e.solarWithoutBill(house.Bounds)
		}
		return est, &house, err

	case types.CategoryWater:
		switch {
		case req.MonthlyUsage != nil:
			water, err := e.catalog.WaterSchedule(req.State)
			if err != nil {
				return types.Estimate{}, nil, err
			}
			efficiency := e.config.WaterEfficiencyPercent
			if req.EfficiencyPercent != nil {
				efficiency = *req.EfficiencyPercent
			}
			est, err := e.estimator.WaterFromUsage(water, *req.MonthlyUsage, efficiency)
			return est, nil, err
		case hasBill:
			est, err := e.estimator.FromBill(req.Category, *req.MonthlyBill)
			return est, nil, err
		}

	default:
		if hasBill {
			est, err := e.estimator.FromBill(req.Category, *req.MonthlyBill)
			return est, nil, err
		}
	}
	return e.estimator.Generic(req.Category), nil, nil
}

func (e *Engine) solarWithoutBill(bounds types.HouseBounds) (types.Estimate, error) {
	rec, err := e.estimator.RecommendSystem(decimal.Zero, bounds)
	if err != nil {
		return types.Estimate{}, err
	}
	return types.Estimate{
		Category:       types.CategorySolar,
		Commodity:      types.CommodityElectricity,
		MonthlyBill:    decimal.Zero,
		MonthlySavings: rec.MonthlySavings,
		System:         &rec,
		Basis:          estimator.BasisHouseMidpoint,
	}, nil
}
