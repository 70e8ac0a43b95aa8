// Package cmd - bill, usage and recommend commands
package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"green-roi/core/output"
	"green-roi/core/types"
	"green-roi/internal/config"
	"green-roi/internal/errors"
)

var (
	commodityName string
	stateName     string
	usageAmount   decimal.Decimal
	billAmount    decimal.Decimal
	searchCeiling int64
	houseKey      string
	showBreakdown bool
)

// billCmd prices a monthly usage
var billCmd = &cobra.Command{
	Use:   "bill",
	Short: "Compute the monthly bill for a usage",
	Long: `Price a monthly usage against the tiered tariff.

Water is priced at the state's flat rate when --state is given.

Examples:
  green-roi bill --usage 250
  green-roi bill --commodity water --state Johor --usage 30
  green-roi bill --usage 1000 --format csv`,
	RunE: runBill,
}

// usageCmd inverts a bill
var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Estimate the monthly usage behind a bill",
	Long: `Find the smallest whole usage whose bill reaches the given amount.

The search stops at --ceiling; a result at the ceiling is reported as saturated.

Examples:
  green-roi usage --bill 300
  green-roi usage --bill 300 --ceiling 100`,
	RunE: runUsage,
}

// recommendCmd sizes a solar system
var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recommend a solar system size for a monthly bill",
	Long: `Match the monthly electricity bill to a sizing band and clamp the
size to the house type's bounds.

Examples:
  green-roi recommend --bill 300 --house terrace
  green-roi recommend --bill 1200 --house bungalow --format json`,
	RunE: runRecommend,
}

func init() {
	billCmd.Flags().StringVarP(&commodityName, "commodity", "c", "electricity", "commodity (electricity, water)")
	billCmd.Flags().StringVarP(&stateName, "state", "s", "", "state for the water rate")
	decimalVar(billCmd.Flags(), &usageAmount, "usage", "monthly usage in kWh or m3")
	billCmd.Flags().BoolVarP(&showBreakdown, "breakdown", "b", true, "show the tier breakdown")
	billCmd.Flags().StringP("format", "f", "", "output format (cli, json, csv)")
	_ = billCmd.MarkFlagRequired("usage")

	usageCmd.Flags().StringVarP(&commodityName, "commodity", "c", "electricity", "commodity (electricity, water)")
	usageCmd.Flags().StringVarP(&stateName, "state", "s", "", "state for the water rate")
	decimalVar(usageCmd.Flags(), &billAmount, "bill", "monthly bill in RM")
	usageCmd.Flags().Int64Var(&searchCeiling, "ceiling", 0, "search ceiling (default: configured ceiling)")
	usageCmd.Flags().StringP("format", "f", "", "output format (cli, json)")
	_ = usageCmd.MarkFlagRequired("bill")

	decimalVar(recommendCmd.Flags(), &billAmount, "bill", "monthly electricity bill in RM")
	recommendCmd.Flags().StringVar(&houseKey, "house", "", "house type (default: configured house)")
	recommendCmd.Flags().StringP("format", "f", "", "output format (cli, json)")
	_ = recommendCmd.MarkFlagRequired("bill")
}

func parseCommodity(s string) (types.Commodity, error) {
	c := types.Commodity(strings.ToLower(strings.TrimSpace(s)))
	if !c.IsValid() {
		return "", errors.NotFound("commodity", s)
	}
	return c, nil
}

func runBill(cmd *cobra.Command, args []string) error {
	commodity, err := parseCommodity(commodityName)
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	bill, err := eng.Bill(commodity, stateName, usageAmount)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch formatFlag(cmd) {
	case output.FormatJSON:
		return output.WriteJSON(w, bill, "  ")
	case output.FormatCSV:
		return output.WriteTiersCSV(w, bill)
	default:
		breakdown := showBreakdown
		if !cmd.Flags().Changed("breakdown") {
			breakdown = config.Get().Output.ShowBreakdown
		}
		return output.RenderBill(w, bill, eng.Catalog().Currency(), breakdown)
	}
}

func optionalCeiling(cmd *cobra.Command) *int64 {
	if !cmd.Flags().Changed("ceiling") {
		return nil
	}
	return &searchCeiling
}

func runUsage(cmd *cobra.Command, args []string) error {
	commodity, err := parseCommodity(commodityName)
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	result, err := eng.Usage(commodity, stateName, billAmount, optionalCeiling(cmd))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatFlag(cmd) == output.FormatJSON {
		return output.WriteJSON(w, result, "  ")
	}

	usage := fmt.Sprintf("%d %s", result.Usage, commodity.Unit())
	if result.Saturated {
		usage += " (search ceiling reached)"
	}
	return output.RenderKeyValues(w, "Usage estimate", [][2]string{
		{"Commodity", commodity.String()},
		{"Bill", output.Money(result.Target, eng.Catalog().Currency())},
		{"Usage", usage},
		{"Ceiling", strconv.FormatInt(result.Ceiling, 10)},
	})
}

func runRecommend(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}

	rec, house, err := eng.Recommend(billAmount, houseKey)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if formatFlag(cmd) == output.FormatJSON {
		return output.WriteJSON(w, map[string]interface{}{
			"house":          house,
			"recommendation": rec,
		}, "  ")
	}

	currency := eng.Catalog().Currency()
	rows := [][2]string{
		{"House type", fmt.Sprintf("%s (%s-%s kWp)", house.Name, house.Bounds.Min, house.Bounds.Max)},
		{"Monthly bill", output.Money(billAmount, currency)},
		{"System size", rec.SizeKW.String() + " kWp"},
		{"Monthly savings", output.Money(rec.MonthlySavings, currency)},
	}
	if rec.Band != nil {
		rows = append(rows, [2]string{"Band", fmt.Sprintf("%s-%s", output.Money(rec.Band.MinBill, currency), output.Money(rec.Band.MaxBill, currency))})
	} else {
		rows = append(rows, [2]string{"Band", "none (house midpoint)"})
	}
	if rec.Clamped {
		rows = append(rows, [2]string{"Note", "size limited by house type"})
	}
	return output.RenderKeyValues(w, "Solar recommendation", rows)
}
