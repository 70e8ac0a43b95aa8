// Package catalog - Catalog decoding and validation
// Every table is checked once at load; a malformed table is a configuration
// error and no partial catalog is returned.
package catalog

import (
	"github.com/shopspring/decimal"

	"green-roi/core/estimator"
	"green-roi/core/tariff"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

// document mirrors the HCL layout of a catalog file
type document struct {
	Currency         string          `hcl:"currency,optional"`
	WaterDefaultRate *float64        `hcl:"water_default_rate,optional"`
	Tariffs          []tariffBlock   `hcl:"tariff,block"`
	States           []stateBlock    `hcl:"state,block"`
	SolarBands       []bandBlock     `hcl:"solar_band,block"`
	Houses           []houseBlock    `hcl:"house,block"`
	Categories       []categoryBlock `hcl:"category,block"`
	ROIPoints        []roiBlock      `hcl:"roi_point,block"`
}

type tariffBlock struct {
	Commodity string      `hcl:"commodity,label"`
	Tiers     []tierBlock `hcl:"tier,block"`
}

type tierBlock struct {
	From int64   `hcl:"from"`
	To   *int64  `hcl:"to,optional"`
	Rate float64 `hcl:"rate"`
}

type stateBlock struct {
	Name       string   `hcl:"name,label"`
	WaterRate  *float64 `hcl:"water_rate,optional"`
	SolarYield *float64 `hcl:"solar_yield,optional"`
}

type bandBlock struct {
	MinBill    float64 `hcl:"min_bill"`
	MaxBill    float64 `hcl:"max_bill"`
	SizeKW     float64 `hcl:"size_kw"`
	MonthlyKWh int64   `hcl:"monthly_kwh"`
	SavingLow  float64 `hcl:"saving_low"`
	SavingHigh float64 `hcl:"saving_high"`
}

type houseBlock struct {
	Key     string  `hcl:"key,label"`
	Name    string  `hcl:"name,optional"`
	MinKW   float64 `hcl:"min_kw"`
	MaxKW   float64 `hcl:"max_kw"`
	MinCost float64 `hcl:"min_cost"`
	MaxCost float64 `hcl:"max_cost"`
}

type categoryBlock struct {
	Name      string  `hcl:"name,label"`
	Benchmark float64 `hcl:"benchmark"`
}

type roiBlock struct {
	Investment float64 `hcl:"investment"`
	ROI        float64 `hcl:"roi"`
}

// build converts a decoded document into a validated Catalog
func build(doc *document) (*Catalog, error) {
	c := &Catalog{
		currency:   types.CurrencyMYR,
		schedules:  make(map[types.Commodity]*tariff.Schedule),
		stateIndex: make(map[string]int),
		houseIndex: make(map[string]int),
		benchmarks: make(map[types.Category]decimal.Decimal),
	}
	if doc.Currency != "" {
		c.currency = types.Currency(doc.Currency)
	}

	steps := []func(*Catalog, *document) error{
		buildTariffs,
		buildStates,
		buildBands,
		buildHouses,
		buildCategories,
		buildROIPoints,
	}
	for _, step := range steps {
		if err := step(c, doc); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func buildTariffs(c *Catalog, doc *document) error {
	for _, tb := range doc.Tariffs {
		commodity := types.Commodity(tb.Commodity)
		if !commodity.IsValid() {
			return errors.Configf("unknown tariff commodity %q", tb.Commodity)
		}
		if _, dup := c.schedules[commodity]; dup {
			return errors.Configf("duplicate tariff for %s", commodity)
		}

		tiers := make([]types.TariffTier, len(tb.Tiers))
		for i, t := range tb.Tiers {
			upper := types.Unbounded()
			if t.To != nil {
				upper = types.UpTo(*t.To)
			}
			tiers[i] = types.TariffTier{
				LowerBound: t.From,
				UpperBound: upper,
				Rate:       decimal.NewFromFloat(t.Rate),
			}
		}
		s, err := tariff.NewSchedule(commodity, tiers)
		if err != nil {
			return err
		}
		c.schedules[commodity] = s
	}

	if _, ok := c.schedules[types.CommodityElectricity]; !ok {
		return errors.Config("catalog has no electricity tariff")
	}

	switch {
	case doc.WaterDefaultRate != nil:
		c.waterRate = decimal.NewFromFloat(*doc.WaterDefaultRate)
	case c.schedules[types.CommodityWater] != nil:
		c.waterRate = c.schedules[types.CommodityWater].Tiers()[0].Rate
	default:
		return errors.Config("catalog needs a water tariff or water_default_rate")
	}
	if !c.waterRate.IsPositive() {
		return errors.Configf("water default rate must be positive, got %s", c.waterRate)
	}

	if _, ok := c.schedules[types.CommodityWater]; !ok {
		s, err := tariff.FlatSchedule(types.CommodityWater, c.waterRate)
		if err != nil {
			return err
		}
		c.schedules[types.CommodityWater] = s
	}
	return nil
}

func buildStates(c *Catalog, doc *document) error {
	for _, sb := range doc.States {
		key := normalize(sb.Name)
		if key == "" {
			return errors.Config("state name must not be empty")
		}
		if _, dup := c.stateIndex[key]; dup {
			return errors.Configf("duplicate state %q", sb.Name)
		}

		st := State{Name: sb.Name, WaterRate: c.waterRate, SolarYield: decimal.Zero}
		if sb.WaterRate != nil {
			st.WaterRate = decimal.NewFromFloat(*sb.WaterRate)
			if !st.WaterRate.IsPositive() {
				return errors.Configf("state %q: water rate must be positive", sb.Name)
			}
		}
		if sb.SolarYield != nil {
			st.SolarYield = decimal.NewFromFloat(*sb.SolarYield)
			if st.SolarYield.IsNegative() {
				return errors.Configf("state %q: solar yield must not be negative", sb.Name)
			}
		}

		c.stateIndex[key] = len(c.states)
		c.states = append(c.states, st)
	}
	return nil
}

func buildBands(c *Catalog, doc *document) error {
	bands := make([]types.SolarBand, len(doc.SolarBands))
	for i, b := range doc.SolarBands {
		bands[i] = types.SolarBand{
			MinBill:    decimal.NewFromFloat(b.MinBill),
			MaxBill:    decimal.NewFromFloat(b.MaxBill),
			SizeKW:     decimal.NewFromFloat(b.SizeKW),
			MonthlyKWh: b.MonthlyKWh,
			Saving: types.SavingRange{
				Low:  decimal.NewFromFloat(b.SavingLow),
				High: decimal.NewFromFloat(b.SavingHigh),
			},
		}
	}
	if err := estimator.ValidateBands(bands); err != nil {
		return err
	}
	c.bands = bands
	return nil
}

func buildHouses(c *Catalog, doc *document) error {
	for _, hb := range doc.Houses {
		name := hb.Name
		if name == "" {
			name = hb.Key
		}
		keys := []string{normalize(hb.Key), normalize(name)}
		if keys[0] == "" {
			return errors.Config("house key must not be empty")
		}
		for _, k := range keys {
			if _, dup := c.houseIndex[k]; dup {
				return errors.Configf("duplicate house type %q", k)
			}
		}

		bounds, err := types.NewHouseBounds(decimal.NewFromFloat(hb.MinKW), decimal.NewFromFloat(hb.MaxKW))
		if err != nil {
			return errors.Wrapf(errors.TypeConfig, err, "house %q", hb.Key)
		}
		cost := types.SavingRange{
			Low:  decimal.NewFromFloat(hb.MinCost),
			High: decimal.NewFromFloat(hb.MaxCost),
		}
		if cost.Low.IsNegative() || cost.High.LessThan(cost.Low) {
			return errors.Configf("house %q: cost range %s-%s is invalid", hb.Key, cost.Low, cost.High)
		}

		for _, k := range keys {
			c.houseIndex[k] = len(c.houses)
		}
		c.houses = append(c.houses, HouseType{Key: hb.Key, Name: name, Bounds: bounds, Cost: cost})
	}
	return nil
}

func buildCategories(c *Catalog, doc *document) error {
	for _, cb := range doc.Categories {
		category, ok := types.ParseCategory(cb.Name)
		if !ok {
			return errors.Configf("unknown category %q", cb.Name)
		}
		if _, dup := c.benchmarks[category]; dup {
			return errors.Configf("duplicate category %q", cb.Name)
		}
		m := decimal.NewFromFloat(cb.Benchmark)
		if !m.IsPositive() {
			return errors.Configf("category %q: benchmark must be positive", cb.Name)
		}
		c.benchmarks[category] = m
	}
	return nil
}

func buildROIPoints(c *Catalog, doc *document) error {
	if len(doc.ROIPoints) == 0 {
		return nil
	}
	if len(doc.ROIPoints) < 2 {
		return errors.Config("ROI reference table needs at least 2 points")
	}
	for i, p := range doc.ROIPoints {
		pt := types.ROIReferencePoint{
			Investment: decimal.NewFromFloat(p.Investment),
			ROIPercent: decimal.NewFromFloat(p.ROI),
		}
		if !pt.Investment.IsPositive() {
			return errors.Configf("ROI point %d: investment must be positive", i)
		}
		if i > 0 && !pt.Investment.GreaterThan(c.roiPoints[i-1].Investment) {
			return errors.Configf("ROI point %d: investments must be ascending", i)
		}
		c.roiPoints = append(c.roiPoints, pt)
	}
	return nil
}
