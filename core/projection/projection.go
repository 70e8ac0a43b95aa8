// Package projection computes ROI, payback and a cumulative savings series
// from an investment and a monthly savings figure.
//
// Project is a pure function of its input and seed. The only
// non-deterministic surface is an unseeded call: it draws a fresh seed, and
// records it in the result so the run can be replayed.
package projection

import (
	"math"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"

	"green-roi/core/types"
	"green-roi/internal/errors"
)

// DefaultNoiseFraction is the noise standard deviation relative to monthly savings
const DefaultNoiseFraction = 0.05

// Options control the noise applied to the cumulative series
type Options struct {
	// NoiseFraction scales the standard deviation of the monthly noise.
	// Zero produces a straight line.
	NoiseFraction float64

	// Seed makes the series reproducible. Nil draws a random seed.
	Seed *uint64
}

// DefaultOptions returns unseeded options with the default noise
func DefaultOptions() Options {
	return Options{NoiseFraction: DefaultNoiseFraction}
}

// WithSeed returns a copy of the options pinned to seed
func (o Options) WithSeed(seed uint64) Options {
	o.Seed = &seed
	return o
}

// Validate rejects negative or non-finite noise
func (o Options) Validate() error {
	if o.NoiseFraction < 0 || math.IsNaN(o.NoiseFraction) || math.IsInf(o.NoiseFraction, 0) {
		return errors.Precondition("noise_fraction", o.NoiseFraction, ">= 0 and finite")
	}
	return nil
}

// Project computes the projection for in.
//
//	totalSavings = monthlySavings x 12 x horizonYears
//	roiPercent   = (totalSavings - investment) / investment x 100
//	payback      = investment / monthlySavings, unbounded when savings are 0
//
// The series accumulates monthlySavings plus N(0, monthlySavings x NoiseFraction)
// each month. Individual months may go down; that is not corrected.
func Project(in types.ProjectionInput, opts Options) (*types.ProjectionResult, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	total := TotalSavings(in)
	result := &types.ProjectionResult{
		Input:         in,
		TotalSavings:  total,
		ROIPercent:    ROI(total, in.Investment),
		PaybackMonths: PaybackMonths(in.Investment, in.MonthlySavings),
		NoiseFraction: opts.NoiseFraction,
	}
	result.PaybackYears = paybackYears(result.PaybackMonths)

	if opts.Seed != nil {
		result.Seed = *opts.Seed
		result.Seeded = true
	} else {
		result.Seed = rand.Uint64()
	}

	result.Series = cumulativeSeries(in, opts.NoiseFraction, result.Seed)
	return result, nil
}

// TotalSavings returns monthlySavings x 12 x horizonYears
func TotalSavings(in types.ProjectionInput) decimal.Decimal {
	return in.MonthlySavings.Mul(decimal.NewFromInt(int64(in.Months())))
}

// ROI returns (total - investment) / investment x 100.
// investment must be positive; ProjectionInput enforces that.
func ROI(total, investment decimal.Decimal) decimal.Decimal {
	return total.Sub(investment).Div(investment).Mul(types.Hundred)
}

// PaybackMonths returns investment / monthlySavings, or the unbounded variant
func PaybackMonths(investment, monthlySavings decimal.Decimal) types.Payback {
	if !monthlySavings.IsPositive() {
		return types.UnboundedPayback()
	}
	return types.BoundedPayback(investment.Div(monthlySavings))
}

func paybackYears(months types.Payback) types.Payback {
	v, ok := months.Value()
	if !ok {
		return types.UnboundedPayback()
	}
	return types.BoundedPayback(v.Div(types.Twelve))
}

func cumulativeSeries(in types.ProjectionInput, noiseFraction float64, seed uint64) []types.MonthPoint {
	months := in.Months()
	series := make([]types.MonthPoint, months)

	noise := newNoise(in.MonthlySavings, noiseFraction, seed)
	cumulative := decimal.Zero
	for m := 1; m <= months; m++ {
		cumulative = cumulative.Add(in.MonthlySavings).Add(noise.next())
		series[m-1] = types.MonthPoint{Month: m, Cumulative: cumulative}
	}
	return series
}

// noise draws N(0, sigma) by inverting the normal CDF over a seeded PCG stream
type noise struct {
	dist  distuv.Normal
	src   *rand.Rand
	quiet bool
}

func newNoise(monthlySavings decimal.Decimal, fraction float64, seed uint64) *noise {
	sigma := monthlySavings.InexactFloat64() * fraction
	return &noise{
		dist:  distuv.Normal{Mu: 0, Sigma: sigma},
		src:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		quiet: sigma == 0,
	}
}

func (n *noise) next() decimal.Decimal {
	if n.quiet {
		return decimal.Zero
	}
	u := n.src.Float64()
	for u == 0 {
		u = n.src.Float64()
	}
	return decimal.NewFromFloat(n.dist.Quantile(u))
}

// FinalROI is the ROI realised by the last point of the noisy series
func FinalROI(r *types.ProjectionResult) decimal.Decimal {
	return ROI(r.FinalCumulative(), r.Input.Investment)
}

// YearlyRollup takes the cumulative value at the end of each 12-month block
func YearlyRollup(r *types.ProjectionResult) []types.YearPoint {
	years := make([]types.YearPoint, 0, len(r.Series)/types.MonthsPerYear)
	for i := types.MonthsPerYear - 1; i < len(r.Series); i += types.MonthsPerYear {
		years = append(years, types.YearPoint{
			Year:       (i + 1) / types.MonthsPerYear,
			Cumulative: r.Series[i].Cumulative,
		})
	}
	return years
}
