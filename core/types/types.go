// Package types defines core domain types shared across all layers.
// This package contains no calculation logic beyond validation and small accessors.
package types

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Commodity identifies a metered utility with its own tariff schedule
type Commodity string

const (
	CommodityElectricity Commodity = "electricity"
	CommodityWater       Commodity = "water"
)

// String returns the string representation of the commodity
func (c Commodity) String() string {
	return string(c)
}

// IsValid checks if the commodity is known
func (c Commodity) IsValid() bool {
	switch c {
	case CommodityElectricity, CommodityWater:
		return true
	default:
		return false
	}
}

// Unit returns the metering unit for the commodity
func (c Commodity) Unit() string {
	if c == CommodityWater {
		return "m3"
	}
	return "kWh"
}

// Category is a green investment category
type Category string

const (
	CategorySolar            Category = "solar"
	CategoryWater            Category = "water"
	CategoryWasteManagement  Category = "waste_management"
	CategoryEnergyEfficiency Category = "energy_efficiency"
	CategoryOther            Category = "other"
)

// AllCategories lists categories in display order
var AllCategories = []Category{
	CategorySolar,
	CategoryWater,
	CategoryWasteManagement,
	CategoryEnergyEfficiency,
	CategoryOther,
}

// String returns the string representation
func (c Category) String() string {
	return string(c)
}

// IsValid checks if the category is known
func (c Category) IsValid() bool {
	for _, known := range AllCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Label returns the human-readable name
func (c Category) Label() string {
	switch c {
	case CategorySolar:
		return "Solar"
	case CategoryWater:
		return "Water"
	case CategoryWasteManagement:
		return "Waste Management"
	case CategoryEnergyEfficiency:
		return "Energy Efficiency"
	case CategoryOther:
		return "Other"
	default:
		return string(c)
	}
}

// Commodity returns the commodity billed for the category
func (c Category) Commodity() Commodity {
	if c == CategoryWater {
		return CommodityWater
	}
	return CommodityElectricity
}

// ParseCategory accepts a slug ("energy_efficiency") or a label ("Energy Efficiency")
func ParseCategory(s string) (Category, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, c := range AllCategories {
		if string(c) == norm {
			return c, true
		}
	}
	return "", false
}

// Currency represents a currency code
type Currency string

const (
	CurrencyMYR Currency = "MYR"
)

// Symbol returns the display symbol
func (c Currency) Symbol() string {
	if c == CurrencyMYR {
		return "RM"
	}
	return string(c)
}

// UnboundedLiteral is how open-ended bounds and payback periods serialize
const UnboundedLiteral = "unbounded"

var (
	// Hundred converts ratios to percentages
	Hundred = decimal.NewFromInt(100)

	// Twelve is months per year
	Twelve = decimal.NewFromInt(MonthsPerYear)
)
