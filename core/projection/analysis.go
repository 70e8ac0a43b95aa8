package projection

import (
	"context"
	"math/rand/v2"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"green-roi/core/types"
	"green-roi/internal/errors"
)

// Sweep projects every horizon from 1 to 10 years for the same investment
// and savings. Horizons run concurrently; results are ordered by horizon.
// A seeded sweep derives a distinct seed per horizon so it stays reproducible.
func Sweep(ctx context.Context, investment, monthlySavings decimal.Decimal, opts Options) ([]types.HorizonPoint, error) {
	if _, err := types.NewProjectionInput(investment, monthlySavings, types.MinHorizonYears); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	base := rand.Uint64()
	if opts.Seed != nil {
		base = *opts.Seed
	}

	points := make([]types.HorizonPoint, types.MaxHorizonYears-types.MinHorizonYears+1)
	g, ctx := errgroup.WithContext(ctx)
	for i := range points {
		horizon := types.MinHorizonYears + i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			in := types.ProjectionInput{
				Investment:     investment,
				MonthlySavings: monthlySavings,
				HorizonYears:   horizon,
			}
			r, err := Project(in, opts.WithSeed(base+uint64(horizon)))
			if err != nil {
				return err
			}
			points[i] = types.HorizonPoint{
				HorizonYears:    horizon,
				TotalSavings:    r.TotalSavings,
				ROIPercent:      r.ROIPercent,
				FinalCumulative: r.FinalCumulative(),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return points, nil
}

// Benchmark scales roi by each category multiplier, in category display order.
// Categories without a multiplier are skipped.
func Benchmark(roi decimal.Decimal, multipliers map[types.Category]decimal.Decimal) []types.BenchmarkPoint {
	out := make([]types.BenchmarkPoint, 0, len(multipliers))
	for _, c := range types.AllCategories {
		m, ok := multipliers[c]
		if !ok {
			continue
		}
		out = append(out, types.BenchmarkPoint{
			Category:   c,
			Multiplier: m,
			ROIPercent: roi.Mul(m),
		})
	}
	return out
}

// PredictROI fits a least-squares line through the reference points and
// evaluates it at investment. The prediction is rounded to two places.
func PredictROI(points []types.ROIReferencePoint, investment decimal.Decimal) (decimal.Decimal, error) {
	if !investment.IsPositive() {
		return decimal.Zero, errors.Precondition("investment", investment, "> 0")
	}
	if len(points) < 2 {
		return decimal.Zero, errors.Configf("ROI prediction needs at least 2 reference points, have %d", len(points))
	}

	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	distinct := false
	for i, p := range points {
		xs[i] = p.Investment.InexactFloat64()
		ys[i] = p.ROIPercent.InexactFloat64()
		if i > 0 && xs[i] != xs[0] {
			distinct = true
		}
	}
	if !distinct {
		return decimal.Zero, errors.Config("ROI reference points share a single investment value")
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return decimal.NewFromFloat(alpha + beta*investment.InexactFloat64()).Round(2), nil
}
