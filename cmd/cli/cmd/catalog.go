// Package cmd - reference table commands
package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"green-roi/core/output"
	"green-roi/core/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Show the reference tables",
	Long: `Show the tariffs, states and house types in use.

Pass --catalog to read a custom HCL file instead of the built-in tables.`,
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

var catalogTariffsCmd = &cobra.Command{
	Use:   "tariffs [commodity]",
	Short: "List tariff tiers (default: electricity)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCatalogTariffs,
}

var catalogStatesCmd = &cobra.Command{
	Use:   "states",
	Short: "List states with water rates and solar yields",
	RunE:  runCatalogStates,
}

var catalogHousesCmd = &cobra.Command{
	Use:   "houses",
	Short: "List house types with size and cost ranges",
	RunE:  runCatalogHouses,
}

func init() {
	catalogTariffsCmd.Flags().StringVarP(&stateName, "state", "s", "", "state for the water rate")
	for _, c := range []*cobra.Command{catalogTariffsCmd, catalogStatesCmd, catalogHousesCmd} {
		c.Flags().StringP("format", "f", "", "output format (cli, json)")
		catalogCmd.AddCommand(c)
	}
}

func runCatalogTariffs(cmd *cobra.Command, args []string) error {
	name := types.CommodityElectricity.String()
	if len(args) > 0 {
		name = args[0]
	}
	commodity, err := parseCommodity(name)
	if err != nil {
		return err
	}
	eng, err := newEngine()
	if err != nil {
		return err
	}

	cat := eng.Catalog()
	var tiers []types.TariffTier
	if commodity == types.CommodityWater {
		s, err := cat.WaterSchedule(stateName)
		if err != nil {
			return err
		}
		tiers = s.Tiers()
	} else {
		s, err := cat.Schedule(commodity)
		if err != nil {
			return err
		}
		tiers = s.Tiers()
	}

	w := cmd.OutOrStdout()
	if formatFlag(cmd) == output.FormatJSON {
		return output.WriteJSON(w, tiers, "  ")
	}
	rows := make([][]string, 0, len(tiers))
	for i, t := range tiers {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(t.LowerBound, 10),
			t.UpperBound.String(),
			t.Rate.String(),
		})
	}
	title := "Tariff: " + commodity.String()
	if commodity == types.CommodityWater && stateName != "" {
		title += " (" + stateName + ")"
	}
	return output.RenderRows(w, title, []string{"Tier", "From", "To", "Rate per " + commodity.Unit()}, rows)
}

func runCatalogStates(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	states := eng.Catalog().States()

	w := cmd.OutOrStdout()
	if formatFlag(cmd) == output.FormatJSON {
		return output.WriteJSON(w, states, "  ")
	}
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		yield := "-"
		if s.SolarYield.IsPositive() {
			yield = s.SolarYield.String()
		}
		rows = append(rows, []string{s.Name, s.WaterRate.String(), yield})
	}
	return output.RenderRows(w, "States", []string{"State", "Water rate per m3", "Solar yield kWh/kWp"}, rows)
}

func runCatalogHouses(cmd *cobra.Command, args []string) error {
	eng, err := newEngine()
	if err != nil {
		return err
	}
	houses := eng.Catalog().Houses()
	currency := eng.Catalog().Currency()

	w := cmd.OutOrStdout()
	if formatFlag(cmd) == output.FormatJSON {
		return output.WriteJSON(w, houses, "  ")
	}
	rows := make([][]string, 0, len(houses))
	for _, h := range houses {
		rows = append(rows, []string{
			h.Key,
			h.Name,
			h.Bounds.Min.String() + "-" + h.Bounds.Max.String(),
			output.Money(h.Cost.Low, currency) + " - " + output.Money(h.Cost.High, currency),
		})
	}
	return output.RenderRows(w, "House types", []string{"Key", "Name", "Size kWp", "Indicative cost"}, rows)
}
