package output

import (
	"encoding/csv"
	"io"
	"strconv"

	"green-roi/core/engine"
	"green-roi/core/types"
)

// WriteMonthlyCSV writes month,cumulative_savings for every month of the series
func WriteMonthlyCSV(out io.Writer, result *types.ProjectionResult) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"month", "cumulative_savings"}); err != nil {
		return err
	}
	for _, p := range result.Series {
		if err := w.Write([]string{strconv.Itoa(p.Month), p.Cumulative.StringFixed(2)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteYearlyCSV writes year,cumulative_savings at the end of each year
func WriteYearlyCSV(out io.Writer, years []types.YearPoint) error {
	w := csv.NewWriter(out)
	if err := w.Write([]string{"year", "cumulative_savings"}); err != nil {
		return err
	}
	for _, y := range years {
		if err := w.Write([]string{strconv.Itoa(y.Year), y.Cumulative.StringFixed(2)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteTiersCSV writes one row per tier charged by a bill.
// An open-ended tier writes "unbounded" in the to column.
func WriteTiersCSV(out io.Writer, bill *types.BillResult) error {
	w := csv.NewWriter(out)
	header := []string{"tier", "from", "to", "units", "rate", "subtotal"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, c := range bill.Breakdown {
		row := []string{
			strconv.Itoa(c.TierIndex + 1),
			strconv.FormatInt(c.Tier.LowerBound, 10),
			c.Tier.UpperBound.String(),
			c.Units.String(),
			c.Tier.Rate.String(),
			c.Subtotal.StringFixed(2),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// CSVFormatter renders the monthly series of a report
type CSVFormatter struct{}

// NewCSVFormatter creates a CSV formatter
func NewCSVFormatter() *CSVFormatter {
	return &CSVFormatter{}
}

// Format returns FormatCSV
func (f *CSVFormatter) Format() Format {
	return FormatCSV
}

// Render writes the monthly series
func (f *CSVFormatter) Render(w io.Writer, report *engine.Report) error {
	return WriteMonthlyCSV(w, report.Projection)
}
