// Package catalog - Reference tables for tariffs, solar sizing and ROI benchmarks
// Tables are decoded from HCL once and validated before use.
// A loaded Catalog is immutable and safe for concurrent use.
package catalog

import (
	_ "embed"
	"os"
	"strings"
	"sync"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/shopspring/decimal"

	"green-roi/core/tariff"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

//go:embed data/reference.hcl
var referenceHCL []byte

// ReferenceFilename is the name reported for the embedded tables
const ReferenceFilename = "reference.hcl"

// State is a region with its own water rate and solar yield
type State struct {
	Name string `json:"name"`

	// WaterRate is RM per m3; the catalog default when the state has none
	WaterRate decimal.Decimal `json:"water_rate"`

	// SolarYield is kWh generated per kWp per year, zero when unknown
	SolarYield decimal.Decimal `json:"solar_yield"`
}

// HouseType bounds the system size and indicative cost for a property
type HouseType struct {
	Key    string            `json:"key"`
	Name   string            `json:"name"`
	Bounds types.HouseBounds `json:"bounds"`
	Cost   types.SavingRange `json:"cost"`
}

// Catalog holds the validated reference tables
type Catalog struct {
	source     string
	currency   types.Currency
	waterRate  decimal.Decimal
	schedules  map[types.Commodity]*tariff.Schedule
	states     []State
	stateIndex map[string]int
	bands      []types.SolarBand
	houses     []HouseType
	houseIndex map[string]int
	benchmarks map[types.Category]decimal.Decimal
	roiPoints  []types.ROIReferencePoint
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default returns the embedded reference catalog
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Parse(referenceHCL, ReferenceFilename)
	})
	return defaultCatalog, defaultErr
}

// Load returns the embedded catalog when path is empty, otherwise the file at path
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads and validates a catalog file
func LoadFile(path string) (*Catalog, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "failed to read catalog %s", path)
	}
	return Parse(src, path)
}

// Parse decodes and validates catalog HCL
func Parse(src []byte, filename string) (*Catalog, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, errors.Wrapf(errors.TypeConfig, diags, "failed to parse catalog %s", filename)
	}

	var doc document
	if diags := gohcl.DecodeBody(file.Body, nil, &doc); diags.HasErrors() {
		return nil, errors.Wrapf(errors.TypeConfig, diags, "failed to decode catalog %s", filename)
	}

	c, err := build(&doc)
	if err != nil {
		return nil, errors.Wrapf(errors.TypeConfig, err, "invalid catalog %s", filename)
	}
	c.source = filename
	return c, nil
}

// Source returns the file the catalog was read from
func (c *Catalog) Source() string {
	return c.source
}

// Currency returns the currency all rates are quoted in
func (c *Catalog) Currency() types.Currency {
	return c.currency
}

// Schedule returns the tariff schedule for a commodity
func (c *Catalog) Schedule(commodity types.Commodity) (*tariff.Schedule, error) {
	s, ok := c.schedules[commodity]
	if !ok {
		return nil, errors.NotFound("tariff", commodity.String())
	}
	return s, nil
}

// WaterSchedule returns a flat water schedule at the state's rate.
// An empty state uses the catalog water tariff.
func (c *Catalog) WaterSchedule(state string) (*tariff.Schedule, error) {
	if strings.TrimSpace(state) == "" {
		return c.Schedule(types.CommodityWater)
	}
	st, err := c.State(state)
	if err != nil {
		return nil, err
	}
	return tariff.FlatSchedule(types.CommodityWater, st.WaterRate)
}

// DefaultWaterRate returns the rate used for states without their own
func (c *Catalog) DefaultWaterRate() decimal.Decimal {
	return c.waterRate
}

// State looks a state up by name, ignoring case and spacing
func (c *Catalog) State(name string) (State, error) {
	i, ok := c.stateIndex[normalize(name)]
	if !ok {
		return State{}, errors.NotFound("state", name)
	}
	return c.states[i], nil
}

// States returns all states in catalog order
func (c *Catalog) States() []State {
	out := make([]State, len(c.states))
	copy(out, c.states)
	return out
}

// House looks a house type up by key or name
func (c *Catalog) House(key string) (HouseType, error) {
	i, ok := c.houseIndex[normalize(key)]
	if !ok {
		return HouseType{}, errors.NotFound("house type", key)
	}
	return c.houses[i], nil
}

// Houses returns all house types in catalog order
func (c *Catalog) Houses() []HouseType {
	out := make([]HouseType, len(c.houses))
	copy(out, c.houses)
	return out
}

// SolarBands returns a copy of the solar band table
func (c *Catalog) SolarBands() []types.SolarBand {
	out := make([]types.SolarBand, len(c.bands))
	copy(out, c.bands)
	return out
}

// Benchmarks returns the ROI multiplier per category
func (c *Catalog) Benchmarks() map[types.Category]decimal.Decimal {
	out := make(map[types.Category]decimal.Decimal, len(c.benchmarks))
	for k, v := range c.benchmarks {
		out[k] = v
	}
	return out
}

// ROIPoints returns the reference (investment, ROI%) table
func (c *Catalog) ROIPoints() []types.ROIReferencePoint {
	out := make([]types.ROIReferencePoint, len(c.roiPoints))
	copy(out, c.roiPoints)
	return out
}

func normalize(s string) string {
	s = strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}
