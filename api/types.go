package api

import (
	"strings"

	"github.com/shopspring/decimal"

	"green-roi/core/catalog"
	"green-roi/core/engine"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

// BillRequest prices a monthly usage
type BillRequest struct {
	Commodity string          `json:"commodity"`
	State     string          `json:"state,omitempty"`
	Usage     decimal.Decimal `json:"usage"`
}

// BillResponse is a bill with its display total
type BillResponse struct {
	*types.BillResult
	RoundedTotal decimal.Decimal `json:"rounded_total"`
	Currency     types.Currency  `json:"currency"`
}

// UsageRequest estimates the usage behind a bill
type UsageRequest struct {
	Commodity string          `json:"commodity"`
	State     string          `json:"state,omitempty"`
	Bill      decimal.Decimal `json:"bill"`

	// Ceiling of nil uses the configured search ceiling
	Ceiling *int64 `json:"ceiling,omitempty"`
}

// UsageResponse is an inverse lookup result
type UsageResponse struct {
	types.UsageResult
	Commodity types.Commodity `json:"commodity"`
	Unit      string          `json:"unit"`
}

// RecommendRequest sizes a solar system
type RecommendRequest struct {
	MonthlyBill decimal.Decimal `json:"monthly_bill"`
	HouseType   string          `json:"house_type,omitempty"`
}

// RecommendResponse is a recommendation and the house it was bounded by
type RecommendResponse struct {
	House          catalog.HouseType    `json:"house"`
	Recommendation types.Recommendation `json:"recommendation"`
}

// ProjectResponse is a direct projection with its yearly rollup
type ProjectResponse struct {
	Projection *types.ProjectionResult `json:"projection"`
	Yearly     []types.YearPoint       `json:"yearly"`
	FinalROI   decimal.Decimal         `json:"final_roi_percent"`
}

// CalculateRequest is a full calculation; category accepts a slug or a label
type CalculateRequest struct {
	Category          string           `json:"category"`
	State             string           `json:"state,omitempty"`
	HouseType         string           `json:"house_type,omitempty"`
	Investment        *decimal.Decimal `json:"investment,omitempty"`
	HorizonYears      *int             `json:"horizon_years,omitempty"`
	MonthlyBill       *decimal.Decimal `json:"monthly_bill,omitempty"`
	MonthlyUsage      *decimal.Decimal `json:"monthly_usage,omitempty"`
	MonthlySavings    *decimal.Decimal `json:"monthly_savings,omitempty"`
	EfficiencyPercent *decimal.Decimal `json:"efficiency_percent,omitempty"`
	NoiseFraction     *float64         `json:"noise_fraction,omitempty"`
	Seed              *uint64          `json:"seed,omitempty"`
}

// toEngine resolves the category and copies the rest
func (r CalculateRequest) toEngine() (engine.Request, error) {
	category, ok := types.ParseCategory(r.Category)
	if !ok {
		return engine.Request{}, errors.NotFound("category", r.Category)
	}
	return engine.Request{
		Category:          category,
		State:             r.State,
		HouseType:         r.HouseType,
		Investment:        r.Investment,
		HorizonYears:      r.HorizonYears,
		MonthlyBill:       r.MonthlyBill,
		MonthlyUsage:      r.MonthlyUsage,
		MonthlySavings:    r.MonthlySavings,
		EfficiencyPercent: r.EfficiencyPercent,
		NoiseFraction:     r.NoiseFraction,
		Seed:              r.Seed,
	}, nil
}

// TariffResponse lists the tiers of one schedule
type TariffResponse struct {
	Commodity types.Commodity    `json:"commodity"`
	Unit      string             `json:"unit"`
	State     string             `json:"state,omitempty"`
	Currency  types.Currency     `json:"currency"`
	Tiers     []types.TariffTier `json:"tiers"`
}

// parseCommodity accepts any case; unknown names are NOT_FOUND
func parseCommodity(s string) (types.Commodity, error) {
	c := types.Commodity(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.NotFound("commodity", s)
	}
	return c, nil
}
