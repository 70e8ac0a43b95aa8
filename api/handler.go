package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"green-roi/core/engine"
	"green-roi/core/output"
	"green-roi/core/projection"
	"green-roi/core/tariff"
	"green-roi/core/types"
	"green-roi/internal/errors"
	"green-roi/internal/metrics"
)

// bindJSON decodes the request body, reporting failures as INPUT_ERROR
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		writeError(c, errors.Input("invalid request body", err))
		return false
	}
	return true
}

// handleHealth handles GET /health
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": s.version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// handleVersion handles GET /version
func (s *Server) handleVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version":     s.version,
		"engine":      "green-roi",
		"api_version": "v1",
		"catalog":     s.engine.Catalog().Source(),
	})
}

// handleBill handles POST /api/v1/bill
func (s *Server) handleBill(c *gin.Context) {
	var req BillRequest
	if !bindJSON(c, &req) {
		return
	}
	commodity, err := parseCommodity(req.Commodity)
	if err != nil {
		writeError(c, err)
		return
	}

	bill, err := s.engine.Bill(commodity, req.State, req.Usage)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, BillResponse{
		BillResult:   bill,
		RoundedTotal: bill.RoundedTotal(),
		Currency:     s.engine.Catalog().Currency(),
	})
}

// handleUsage handles POST /api/v1/usage
func (s *Server) handleUsage(c *gin.Context) {
	var req UsageRequest
	if !bindJSON(c, &req) {
		return
	}
	commodity, err := parseCommodity(req.Commodity)
	if err != nil {
		writeError(c, err)
		return
	}

	result, err := s.engine.Usage(commodity, req.State, req.Bill, req.Ceiling)
	if err != nil {
		writeError(c, err)
		return
	}
	if result.Saturated {
		metrics.UsageSearchSaturatedTotal.Inc()
	}
	c.JSON(http.StatusOK, UsageResponse{
		UsageResult: result,
		Commodity:   commodity,
		Unit:        commodity.Unit(),
	})
}

// handleRecommend handles POST /api/v1/recommend
func (s *Server) handleRecommend(c *gin.Context) {
	var req RecommendRequest
	if !bindJSON(c, &req) {
		return
	}

	rec, house, err := s.engine.Recommend(req.MonthlyBill, req.HouseType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, RecommendResponse{House: house, Recommendation: rec})
}

// handleProject handles POST /api/v1/project
func (s *Server) handleProject(c *gin.Context) {
	var req engine.ProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := s.engine.Project(req)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ObserveCalculation("projection", "direct", result.PaybackMonths.IsUnbounded(), false)
	c.JSON(http.StatusOK, ProjectResponse{
		Projection: result,
		Yearly:     projection.YearlyRollup(result),
		FinalROI:   projection.FinalROI(result),
	})
}

// handleCalculate handles POST /api/v1/calculate.
// ?format=csv returns the monthly series instead of the JSON report.
func (s *Server) handleCalculate(c *gin.Context) {
	var req CalculateRequest
	if !bindJSON(c, &req) {
		return
	}
	format := output.FormatJSON
	if f := c.Query("format"); f != "" {
		format = output.Format(f)
	}
	formatter, err := s.formats.Get(format)
	if err != nil {
		writeError(c, errors.Wrap(errors.TypeInput, "unsupported format", err))
		return
	}

	engineReq, err := req.toEngine()
	if err != nil {
		writeError(c, err)
		return
	}
	report, err := s.engine.Calculate(c.Request.Context(), engineReq)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ObserveCalculation(report.Category.String(), report.Estimate.Basis,
		report.Projection.PaybackMonths.IsUnbounded(), report.Estimate.UsageSaturated)

	if format == output.FormatJSON {
		c.JSON(http.StatusOK, report)
		return
	}
	c.Header("Content-Type", format.ContentType())
	c.Status(http.StatusOK)
	if err := formatter.Render(c.Writer, report); err != nil {
		_ = c.Error(err)
	}
}

// handleTariff handles GET /api/v1/tariffs/:commodity[?state=]
func (s *Server) handleTariff(c *gin.Context) {
	commodity, err := parseCommodity(c.Param("commodity"))
	if err != nil {
		writeError(c, err)
		return
	}
	cat := s.engine.Catalog()
	state := c.Query("state")

	var sched *tariff.Schedule
	if commodity == types.CommodityWater {
		sched, err = cat.WaterSchedule(state)
	} else {
		state = ""
		sched, err = cat.Schedule(commodity)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, TariffResponse{
		Commodity: commodity,
		Unit:      commodity.Unit(),
		State:     state,
		Currency:  cat.Currency(),
		Tiers:     sched.Tiers(),
	})
}

// handleStates handles GET /api/v1/states
func (s *Server) handleStates(c *gin.Context) {
	states := s.engine.Catalog().States()
	c.JSON(http.StatusOK, gin.H{"states": states, "count": len(states)})
}

// handleHouses handles GET /api/v1/houses
func (s *Server) handleHouses(c *gin.Context) {
	houses := s.engine.Catalog().Houses()
	c.JSON(http.StatusOK, gin.H{"houses": houses, "count": len(houses)})
}
