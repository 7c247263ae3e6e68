package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ccdash/internal/aggregator"
	"ccdash/internal/model"
)

func costBuckets(costs ...float64) []model.AggregatedUsage {
	buckets := make([]model.AggregatedUsage, len(costs))
	for i, c := range costs {
		buckets[i] = model.AggregatedUsage{TotalCost: c}
	}
	return buckets
}

func TestCostGrowth(t *testing.T) {
	tests := []struct {
		name        string
		costs       []float64
		wantStatus  GrowthStatus
		wantPercent float64
	}{
		{"two buckets up", []float64{100, 150}, GrowthOK, 50},
		{"two buckets down", []float64{100, 75}, GrowthOK, -25},
		{"single bucket", []float64{100}, GrowthInsufficient, 0},
		{"no buckets", nil, GrowthInsufficient, 0},
		{"zero to positive", []float64{0, 50}, GrowthNewUsage, 0},
		{"zero to zero", []float64{0, 0}, GrowthOK, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CostGrowth(costBuckets(tt.costs...))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.InDelta(t, tt.wantPercent, got.Percent, 1e-9)
		})
	}
}

func TestCacheEfficiencyBounds(t *testing.T) {
	assert.Equal(t, 0.0, CacheEfficiency(0, 0))
	assert.Equal(t, 100.0, CacheEfficiency(500, 0))
	assert.Equal(t, 0.0, CacheEfficiency(0, 500))
	assert.InDelta(t, 80.0, CacheEfficiency(800, 200), 1e-9)

	for _, c := range []struct{ read, input int64 }{{0, 0}, {1, 0}, {0, 1}, {7, 3}, {1 << 40, 1}} {
		e := CacheEfficiency(c.read, c.input)
		assert.GreaterOrEqual(t, e, 0.0)
		assert.LessOrEqual(t, e, 100.0)
	}
}

func TestCostPerMillionTokens(t *testing.T) {
	assert.Equal(t, 0.0, CostPerMillionTokens(10, 0))
	assert.InDelta(t, 2.0, CostPerMillionTokens(6, 3_000_000), 1e-9)
}

func TestProjectedMonthlyCost(t *testing.T) {
	assert.Equal(t, 0.0, ProjectedMonthlyCost(100, 0))
	assert.InDelta(t, 300.0, ProjectedMonthlyCost(10, 1), 1e-9)
	assert.InDelta(t, 150.0, ProjectedMonthlyCost(50, 10), 1e-9)
}

func TestComparePlans(t *testing.T) {
	plans := ComparePlans(150, []float64{100, 200})
	require.Len(t, plans, 2)

	assert.Equal(t, 100.0, plans[0].Utilization, "utilization caps at 100%")
	assert.Equal(t, 0.0, plans[0].Saving)
	assert.Equal(t, 50.0, plans[0].Overage)

	assert.Equal(t, 75.0, plans[1].Utilization)
	assert.Equal(t, 50.0, plans[1].Saving)
	assert.Equal(t, 0.0, plans[1].Overage)
}

func TestPlanLabel(t *testing.T) {
	ceilings := []float64{100, 200}
	assert.Equal(t, "Max $100", PlanLabel(40, ceilings))
	assert.Equal(t, "Max $100", PlanLabel(100, ceilings))
	assert.Equal(t, "Max $200", PlanLabel(150, ceilings))
	assert.Equal(t, "Over", PlanLabel(200.01, ceilings))
}

func TestPeakAndLeastDay(t *testing.T) {
	records := []model.DailyUsage{
		{Date: "2024-01-01", TotalCost: 2},
		{Date: "2024-01-02", TotalCost: 0}, // inactive
		{Date: "2024-01-03", TotalCost: 9},
		{Date: "2024-01-04", TotalCost: 1},
	}

	peak, ok := PeakDay(records)
	require.True(t, ok)
	assert.Equal(t, "2024-01-03", peak.Date)

	least, ok := LeastActiveDay(records)
	require.True(t, ok)
	assert.Equal(t, "2024-01-04", least.Date, "zero-cost days are excluded")
}

func TestLeastDayNoActiveDays(t *testing.T) {
	records := []model.DailyUsage{
		{Date: "2024-01-01", TotalCost: 0},
		{Date: "2024-01-02", TotalCost: 0},
	}
	_, ok := LeastActiveDay(records)
	assert.False(t, ok)

	_, ok = PeakDay(nil)
	assert.False(t, ok)
}

func TestClassifyPattern(t *testing.T) {
	assert.Equal(t, "regular", ClassifyPattern(9, 10))
	assert.Equal(t, "moderate", ClassifyPattern(6, 10))
	assert.Equal(t, "sporadic", ClassifyPattern(5, 10))
	assert.Equal(t, "sporadic", ClassifyPattern(0, 0))
}

func TestModelTotals(t *testing.T) {
	records := []model.DailyUsage{
		{
			Date:      "2024-01-01",
			TotalCost: 3,
			ModelBreakdowns: []model.ModelBreakdown{
				{ModelName: "claude-sonnet-4-5", InputTokens: 100, Cost: 1},
				{ModelName: "claude-opus-4-5", InputTokens: 50, Cost: 2},
			},
		},
		{
			Date:      "2024-01-02",
			TotalCost: 4,
			ModelBreakdowns: []model.ModelBreakdown{
				{ModelName: "claude-sonnet-4-5", InputTokens: 200, Cost: 4},
			},
		},
	}

	totals := ModelTotals(records)
	require.Len(t, totals, 2)

	assert.Equal(t, "claude-sonnet-4-5", totals[0].ModelName)
	assert.Equal(t, int64(300), totals[0].InputTokens)
	assert.Equal(t, 5.0, totals[0].Cost)
	assert.Equal(t, "claude-opus-4-5", totals[1].ModelName)

	// Per-model costs account for the full spend.
	var sum float64
	for _, m := range totals {
		sum += m.Cost
	}
	assert.InDelta(t, 7.0, sum, 1e-9)
}

func TestBuildSummaryEndToEnd(t *testing.T) {
	resp := model.UsageResponse{
		Daily: []model.DailyUsage{
			{Date: "2024-01-01", TotalCost: 1, TotalTokens: 1_000_000},
			{Date: "2024-01-02", TotalCost: 2, TotalTokens: 1_000_000},
			{Date: "2024-01-03", TotalCost: 3, TotalTokens: 1_000_000},
		},
		Totals: model.Totals{TotalCost: 6, TotalTokens: 3_000_000},
	}
	buckets := aggregator.Aggregate(resp.Daily, aggregator.Monthly)
	require.Len(t, buckets, 1)
	assert.Equal(t, "2024-01-01", buckets[0].Date)
	assert.Equal(t, 6.0, buckets[0].TotalCost)

	s := BuildSummary(resp, buckets, []float64{100, 200})

	assert.InDelta(t, 2.0, s.CostPerMillionTokens, 1e-9)
	assert.InDelta(t, 2.0, s.AvgDailyCost, 1e-9)
	assert.Equal(t, 3, s.ActiveDays)
	assert.Equal(t, "regular", s.Pattern)
	assert.Equal(t, "Max $100", s.PlanLabel)
	assert.Equal(t, GrowthInsufficient, s.Growth.Status, "one monthly bucket is not enough for growth")
	require.NotNil(t, s.PeakDay)
	assert.Equal(t, "2024-01-03", s.PeakDay.Date)
	require.NotNil(t, s.LeastDay)
	assert.Equal(t, "2024-01-01", s.LeastDay.Date)
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(model.UsageResponse{}, nil, []float64{100, 200})

	assert.Equal(t, 0.0, s.AvgDailyCost)
	assert.Equal(t, 0.0, s.CacheHitRate)
	assert.Equal(t, 0.0, s.CostPerMillionTokens)
	assert.Equal(t, 0.0, s.ProjectedMonthlyCost)
	assert.Equal(t, "sporadic", s.Pattern)
	assert.Nil(t, s.PeakDay)
	assert.Nil(t, s.LeastDay)
	assert.Equal(t, GrowthInsufficient, s.Growth.Status)
}
