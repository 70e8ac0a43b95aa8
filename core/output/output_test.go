package output

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"green-roi/core/catalog"
	"green-roi/core/engine"
	"green-roi/core/projection"
	"green-roi/core/types"
	"green-roi/internal/errors"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func quietProjection(t *testing.T, investment, savings string, years int) *types.ProjectionResult {
	t.Helper()
	in, err := types.NewProjectionInput(d(investment), d(savings), years)
	require.NoError(t, err)
	r, err := projection.Project(in, projection.Options{})
	require.NoError(t, err)
	return r
}

func testReport(t *testing.T, savings string) *engine.Report {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)
	e, err := engine.NewEngine(cat, engine.DefaultConfig(), nil)
	require.NoError(t, err)

	s := d(savings)
	noise := 0.0
	report, err := e.Calculate(context.Background(), engine.Request{
		Category:       types.CategoryEnergyEfficiency,
		Investment:     d("5000"),
		HorizonYears:   5,
		MonthlySavings: &s,
		NoiseFraction:  &noise,
	})
	require.NoError(t, err)
	return report
}

func TestAmount(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"18000", "18,000.00"},
		{"60.3", "60.30"},
		{"0", "0.00"},
		{"-5000", "-5,000.00"},
		{"0.005", "0.01"},
		{"1234567.891", "1,234,567.89"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, Amount(d(tt.in)))
		})
	}

	assert.Equal(t, "RM 18,000.00", Money(d("18000"), types.CurrencyMYR))
	assert.Equal(t, "260.00%", Percent(d("260")))
}

func readCSV(t *testing.T, buf *bytes.Buffer) [][]string {
	t.Helper()
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriteMonthlyCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteMonthlyCSV(&buf, quietProjection(t, "5000", "300", 5)))

	records := readCSV(t, &buf)
	require.Len(t, records, 61)
	assert.Equal(t, []string{"month", "cumulative_savings"}, records[0])
	assert.Equal(t, []string{"1", "300.00"}, records[1])
	assert.Equal(t, []string{"60", "18000.00"}, records[60])
}

func TestWriteYearlyCSV(t *testing.T) {
	r := quietProjection(t, "5000", "300", 3)
	var buf bytes.Buffer
	require.NoError(t, WriteYearlyCSV(&buf, projection.YearlyRollup(r)))

	records := readCSV(t, &buf)
	assert.Equal(t, [][]string{
		{"year", "cumulative_savings"},
		{"1", "3600.00"},
		{"2", "7200.00"},
		{"3", "10800.00"},
	}, records)
}

func TestWriteTiersCSV(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	s, err := cat.Schedule(types.CommodityElectricity)
	require.NoError(t, err)
	bill, err := s.BillFor(d("1000"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteTiersCSV(&buf, bill))

	records := readCSV(t, &buf)
	require.Len(t, records, 6)
	assert.Equal(t, []string{"tier", "from", "to", "units", "rate", "subtotal"}, records[0])
	assert.Equal(t, []string{"1", "1", "200", "200", "0.218", "43.60"}, records[1])
	assert.Equal(t, []string{"5", "901", "unbounded", "100", "0.571", "57.10"}, records[5])
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, []Format{FormatCLI, FormatCSV, FormatJSON}, r.Formats())

	f, err := r.Get(FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f.Format())

	_, err = r.Get(Format("pdf"))
	assert.True(t, errors.IsType(err, errors.TypeNotFound))

	err = r.Register(NewCSVFormatter())
	assert.True(t, errors.IsType(err, errors.TypeConfig))
}

func TestJSONFormatterUnboundedPayback(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Render(&buf, testReport(t, "0")))

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	p := doc["projection"].(map[string]interface{})
	assert.Equal(t, "unbounded", p["payback_months"])
	assert.Equal(t, "unbounded", p["payback_years"])
	assert.Equal(t, "-100", p["roi_percent"])
}

func TestCSVFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewCSVFormatter().Render(&buf, testReport(t, "300")))

	records := readCSV(t, &buf)
	assert.Len(t, records, 61)
	assert.Equal(t, "18000.00", records[60][1])
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewTableFormatter().Render(&buf, testReport(t, "300")))

	out := buf.String()
	assert.Contains(t, out, "RM 18,000.00")
	assert.Contains(t, out, "260.00%")
	assert.Contains(t, out, "16.67 months (1.39 years)")
	assert.Contains(t, out, paybackNote)
	assert.Contains(t, out, "Energy Efficiency")
	assert.Equal(t, 1, strings.Count(out, paybackNote))
}

func TestRenderSeriesMarksPaybackMonth(t *testing.T) {
	r := quietProjection(t, "5000", "300", 2)

	var buf bytes.Buffer
	require.NoError(t, RenderSeries(&buf, r, projection.YearlyRollup(r), true, types.CurrencyMYR))

	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.Contains(line, paybackNote) {
			assert.Contains(t, line, "RM 5,100.00")
		}
	}
}

func TestRenderBill(t *testing.T) {
	cat, err := catalog.Default()
	require.NoError(t, err)
	s, err := cat.Schedule(types.CommodityElectricity)
	require.NoError(t, err)
	bill, err := s.BillFor(d("250"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, RenderBill(&buf, bill, types.CurrencyMYR, true))
	out := buf.String()
	assert.Contains(t, out, "RM 60.30")
	assert.Contains(t, out, "Tier breakdown")
	assert.Contains(t, out, "RM 16.70")
}
