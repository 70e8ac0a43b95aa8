package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveRequest(t *testing.T) {
	before := testutil.ToFloat64(RequestsTotal.WithLabelValues("/api/v1/bill", "200"))
	ObserveRequest("/api/v1/bill", "200", time.Now())
	assert.Equal(t, before+1, testutil.ToFloat64(RequestsTotal.WithLabelValues("/api/v1/bill", "200")))
}

func TestObserveCalculation(t *testing.T) {
	calc := CalculationsTotal.WithLabelValues("solar", "solar_band")
	before := testutil.ToFloat64(calc)
	unbounded := testutil.ToFloat64(UnboundedPaybackTotal)
	saturated := testutil.ToFloat64(UsageSearchSaturatedTotal)

	ObserveCalculation("solar", "solar_band", true, false)

	assert.Equal(t, before+1, testutil.ToFloat64(calc))
	assert.Equal(t, unbounded+1, testutil.ToFloat64(UnboundedPaybackTotal))
	assert.Equal(t, saturated, testutil.ToFloat64(UsageSearchSaturatedTotal))
}
