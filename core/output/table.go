package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"green-roi/core/engine"
	"green-roi/core/types"
)

const paybackNote = "payback"

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("35"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func section(w io.Writer, title string, t *table.Table) error {
	_, err := fmt.Fprintf(w, "%s\n%s\n\n", titleStyle.Render(title), t.Render())
	return err
}

// TableFormatter renders a report as terminal tables
type TableFormatter struct {
	// ShowSeries prints every month instead of the yearly rollup
	ShowSeries bool
}

// NewTableFormatter creates a CLI table formatter
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// Format returns FormatCLI
func (f *TableFormatter) Format() Format {
	return FormatCLI
}

// Render writes summary, series, horizon and benchmark tables
func (f *TableFormatter) Render(w io.Writer, report *engine.Report) error {
	if err := section(w, "Green investment ROI", summaryTable(report)); err != nil {
		return err
	}
	if err := RenderSeries(w, report.Projection, report.Yearly, f.ShowSeries, report.Currency); err != nil {
		return err
	}

	horizons := newTable("Years", "Total savings", "ROI")
	for _, h := range report.Horizons {
		horizons.Row(strconv.Itoa(h.HorizonYears), Money(h.TotalSavings, report.Currency), Percent(h.ROIPercent))
	}
	if err := section(w, "ROI by horizon", horizons); err != nil {
		return err
	}

	if len(report.Benchmarks) > 0 {
		bench := newTable("Category", "Multiplier", "ROI")
		for _, b := range report.Benchmarks {
			bench.Row(b.Category.Label(), b.Multiplier.String(), Percent(b.ROIPercent))
		}
		if err := section(w, "Category benchmark", bench); err != nil {
			return err
		}
	}
	return nil
}

func summaryTable(r *engine.Report) *table.Table {
	est := r.Estimate
	p := r.Projection
	t := newTable("Item", "Value")

	t.Row("Category", r.Category.Label())
	if r.State != "" {
		t.Row("State", r.State)
	}
	if r.House != nil {
		t.Row("House type", fmt.Sprintf("%s (%s-%s kWp)", r.House.Name, r.House.Bounds.Min, r.House.Bounds.Max))
	}
	t.Row("Basis", est.Basis)
	if est.MonthlyBill.IsPositive() {
		t.Row("Monthly bill", Money(est.MonthlyBill, r.Currency))
	}
	if est.UsageKnown {
		usage := fmt.Sprintf("%s %s", est.MonthlyUsage, est.Commodity.Unit())
		if est.UsageSaturated {
			usage += " (search ceiling reached)"
		}
		t.Row("Monthly usage", usage)
	}
	if est.System != nil {
		t.Row("System size", est.System.SizeKW.String()+" kWp")
	}
	if r.AnnualGenerationKWh != nil {
		t.Row("Annual generation", Amount(*r.AnnualGenerationKWh)+" kWh")
	}

	savings := Money(r.MonthlySavings, r.Currency)
	if r.SavingsOverridden {
		savings += " (given)"
	}
	t.Row("Monthly savings", savings)

	investment := Money(p.Input.Investment, r.Currency)
	if r.InvestmentDefaulted {
		investment += " (house average)"
	}
	t.Row("Investment", investment)
	t.Row("Horizon", fmt.Sprintf("%d years", p.Input.HorizonYears))
	t.Row("Total savings", Money(p.TotalSavings, r.Currency))
	t.Row("ROI", Percent(p.ROIPercent))
	t.Row("Payback", PaybackText(p))
	t.Row("ROI at end of series", Percent(r.FinalROI))
	if r.PredictedROI != nil {
		t.Row("Reference ROI", Percent(*r.PredictedROI))
	}
	t.Row("Seed", strconv.FormatUint(p.Seed, 10))
	return t
}

// PaybackText renders "16.67 months (1.39 years)" or "unbounded"
func PaybackText(p *types.ProjectionResult) string {
	if p.PaybackMonths.IsUnbounded() {
		return types.UnboundedLiteral
	}
	return fmt.Sprintf("%s months (%s years)", p.PaybackMonths.StringFixed(2), p.PaybackYears.StringFixed(2))
}

// RenderSeries writes the cumulative savings by year, or by month when monthly is set.
// The row where the investment is recovered is marked.
func RenderSeries(w io.Writer, p *types.ProjectionResult, years []types.YearPoint, monthly bool, currency types.Currency) error {
	idx, paid := p.PaybackMonthIndex()

	if monthly {
		t := newTable("Month", "Cumulative savings", "")
		for _, m := range p.Series {
			note := ""
			if paid && m.Month == idx {
				note = paybackNote
			}
			t.Row(strconv.Itoa(m.Month), Money(m.Cumulative, currency), note)
		}
		return section(w, "Cumulative savings by month", t)
	}

	t := newTable("Year", "Cumulative savings", "")
	for _, y := range years {
		note := ""
		if paid && (idx+types.MonthsPerYear-1)/types.MonthsPerYear == y.Year {
			note = paybackNote
		}
		t.Row(strconv.Itoa(y.Year), Money(y.Cumulative, currency), note)
	}
	return section(w, "Cumulative savings by year", t)
}

// RenderBill writes a bill total and, when breakdown is set, its tiers
func RenderBill(w io.Writer, bill *types.BillResult, currency types.Currency, breakdown bool) error {
	summary := newTable("Item", "Value")
	summary.Row("Commodity", bill.Commodity.String())
	summary.Row("Usage", fmt.Sprintf("%s %s", bill.Usage, bill.Commodity.Unit()))
	summary.Row("Total", Money(bill.RoundedTotal(), currency))
	if err := section(w, "Bill", summary); err != nil {
		return err
	}
	if !breakdown || len(bill.Breakdown) == 0 {
		return nil
	}

	tiers := newTable("Tier", "From", "To", "Units", "Rate", "Subtotal")
	for _, c := range bill.Breakdown {
		tiers.Row(
			strconv.Itoa(c.TierIndex+1),
			strconv.FormatInt(c.Tier.LowerBound, 10),
			c.Tier.UpperBound.String(),
			c.Units.String(),
			c.Tier.Rate.String(),
			Money(c.Subtotal, currency),
		)
	}
	return section(w, "Tier breakdown", tiers)
}

// RenderProjection writes a standalone projection
func RenderProjection(w io.Writer, p *types.ProjectionResult, years []types.YearPoint, monthly bool, currency types.Currency) error {
	summary := newTable("Item", "Value")
	summary.Row("Investment", Money(p.Input.Investment, currency))
	summary.Row("Monthly savings", Money(p.Input.MonthlySavings, currency))
	summary.Row("Horizon", fmt.Sprintf("%d years", p.Input.HorizonYears))
	summary.Row("Total savings", Money(p.TotalSavings, currency))
	summary.Row("ROI", Percent(p.ROIPercent))
	summary.Row("Payback", PaybackText(p))
	summary.Row("Seed", strconv.FormatUint(p.Seed, 10))
	if err := section(w, "Projection", summary); err != nil {
		return err
	}
	return RenderSeries(w, p, years, monthly, currency)
}

// RenderKeyValues writes a two-column table
func RenderKeyValues(w io.Writer, title string, rows [][2]string) error {
	t := newTable("Item", "Value")
	for _, r := range rows {
		t.Row(r[0], r[1])
	}
	return section(w, title, t)
}

// RenderRows writes a table with the given headers
func RenderRows(w io.Writer, title string, headers []string, rows [][]string) error {
	t := newTable(headers...)
	t.Rows(rows...)
	return section(w, title, t)
}
