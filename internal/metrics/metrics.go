package metrics

import (
	"fmt"
	"sort"

	"ccdash/internal/model"
)

// GrowthStatus describes whether a growth figure could be computed.
type GrowthStatus string

const (
	GrowthOK           GrowthStatus = "ok"
	GrowthInsufficient GrowthStatus = "insufficient_data"
	GrowthNewUsage     GrowthStatus = "new_usage"
)

// Growth is the period-over-period cost change for the selected aggregation.
type Growth struct {
	Status  GrowthStatus `json:"status"`
	Percent float64      `json:"percent"`
}

// CostGrowth compares the most recent bucket's cost against the prior one.
// Buckets must be in chronological order, as produced by the aggregator.
func CostGrowth(buckets []model.AggregatedUsage) Growth {
	if len(buckets) < 2 {
		return Growth{Status: GrowthInsufficient}
	}

	recent := buckets[len(buckets)-1].TotalCost
	previous := buckets[len(buckets)-2].TotalCost

	if previous == 0 {
		if recent > 0 {
			return Growth{Status: GrowthNewUsage}
		}
		return Growth{Status: GrowthOK, Percent: 0}
	}

	return Growth{Status: GrowthOK, Percent: (recent - previous) / previous * 100}
}

// CacheEfficiency returns the cache hit rate as a percentage: reads over
// reads plus fresh input. Zero denominator yields 0.
func CacheEfficiency(cacheReadTokens, inputTokens int64) float64 {
	denom := cacheReadTokens + inputTokens
	if denom == 0 {
		return 0
	}
	return float64(cacheReadTokens) / float64(denom) * 100
}

// CostPerMillionTokens returns the blended cost per million tokens, or 0
// when no tokens were consumed.
func CostPerMillionTokens(totalCost float64, totalTokens int64) float64 {
	if totalTokens == 0 {
		return 0
	}
	return totalCost / (float64(totalTokens) / 1_000_000)
}

// ProjectedMonthlyCost extrapolates the observed average daily cost over a
// flat 30 days. It is not calendar-aware.
func ProjectedMonthlyCost(totalCost float64, dailyRecords int) float64 {
	if dailyRecords == 0 {
		return 0
	}
	return totalCost / float64(dailyRecords) * 30
}

// PlanUtilization compares spend against one fixed-price plan ceiling.
type PlanUtilization struct {
	Ceiling     float64 `json:"ceiling"`
	Utilization float64 `json:"utilization"`
	Saving      float64 `json:"saving"`
	Overage     float64 `json:"overage"`
}

// ComparePlans evaluates spend against each plan ceiling. Utilization is
// capped at 100%; saving bottoms out at 0; overage is only set when spend
// exceeds the ceiling.
func ComparePlans(totalCost float64, ceilings []float64) []PlanUtilization {
	plans := make([]PlanUtilization, 0, len(ceilings))
	for _, ceiling := range ceilings {
		p := PlanUtilization{Ceiling: ceiling}
		if ceiling > 0 {
			p.Utilization = totalCost / ceiling * 100
			if p.Utilization > 100 {
				p.Utilization = 100
			}
		}
		if totalCost < ceiling {
			p.Saving = ceiling - totalCost
		}
		if totalCost > ceiling {
			p.Overage = totalCost - ceiling
		}
		plans = append(plans, p)
	}
	return plans
}

// PlanLabel names the cheapest plan that covers the spend, or "Over" when
// none does. Ceilings must be ascending.
func PlanLabel(totalCost float64, ceilings []float64) string {
	for _, ceiling := range ceilings {
		if totalCost <= ceiling {
			return fmt.Sprintf("Max $%.0f", ceiling)
		}
	}
	return "Over"
}

// PeakDay returns the daily record with the highest cost. The second return
// is false for an empty record set.
func PeakDay(records []model.DailyUsage) (model.DailyUsage, bool) {
	var peak model.DailyUsage
	found := false
	for _, r := range records {
		if !found || r.TotalCost > peak.TotalCost {
			peak = r
			found = true
		}
	}
	return peak, found
}

// LeastActiveDay returns the active (non-zero cost) day with the lowest
// cost. Inactive days are skipped; false means no active days exist.
func LeastActiveDay(records []model.DailyUsage) (model.DailyUsage, bool) {
	var least model.DailyUsage
	found := false
	for _, r := range records {
		if r.TotalCost == 0 {
			continue
		}
		if !found || r.TotalCost < least.TotalCost {
			least = r
			found = true
		}
	}
	return least, found
}

// ClassifyPattern buckets the active-day ratio into a usage pattern.
func ClassifyPattern(activeDays, totalDays int) string {
	if totalDays == 0 {
		return "sporadic"
	}
	ratio := float64(activeDays) / float64(totalDays)
	switch {
	case ratio > 0.8:
		return "regular"
	case ratio > 0.5:
		return "moderate"
	default:
		return "sporadic"
	}
}

// ModelTotals aggregates per-model breakdowns across all daily records,
// sorted by cost descending (model name breaking ties). The costs sum to
// the overall total when the source attributes every dollar to a model.
func ModelTotals(records []model.DailyUsage) []model.ModelBreakdown {
	grouped := make(map[string]*model.ModelBreakdown)

	for _, r := range records {
		for _, mb := range r.ModelBreakdowns {
			agg, ok := grouped[mb.ModelName]
			if !ok {
				agg = &model.ModelBreakdown{ModelName: mb.ModelName}
				grouped[mb.ModelName] = agg
			}
			agg.InputTokens += mb.InputTokens
			agg.OutputTokens += mb.OutputTokens
			agg.CacheCreationTokens += mb.CacheCreationTokens
			agg.CacheReadTokens += mb.CacheReadTokens
			agg.Cost += mb.Cost
		}
	}

	results := make([]model.ModelBreakdown, 0, len(grouped))
	for _, agg := range grouped {
		results = append(results, *agg)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Cost == results[j].Cost {
			return results[i].ModelName < results[j].ModelName
		}
		return results[i].Cost > results[j].Cost
	})
	return results
}
