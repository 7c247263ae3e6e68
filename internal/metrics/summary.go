package metrics

import "ccdash/internal/model"

// DayHighlight points at one notable day for the summary cards.
type DayHighlight struct {
	Date string  `json:"date"`
	Cost float64 `json:"cost"`
}

// Summary is the derived-analytics card set for one view of the data.
// Every field has a defined value for empty or degenerate record sets.
type Summary struct {
	Totals               model.Totals           `json:"totals"`
	TotalDays            int                    `json:"totalDays"`
	ActiveDays           int                    `json:"activeDays"`
	AvgDailyCost         float64                `json:"avgDailyCost"`
	Growth               Growth                 `json:"growth"`
	CacheHitRate         float64                `json:"cacheHitRate"`
	CostPerMillionTokens float64                `json:"costPerMillionTokens"`
	ProjectedMonthlyCost float64                `json:"projectedMonthlyCost"`
	PlanLabel            string                 `json:"planLabel"`
	Plans                []PlanUtilization      `json:"plans"`
	PeakDay              *DayHighlight          `json:"peakDay,omitempty"`
	LeastDay             *DayHighlight          `json:"leastDay,omitempty"`
	Pattern              string                 `json:"pattern"`
	Models               []model.ModelBreakdown `json:"models,omitempty"`
}

// BuildSummary derives the full metric card set from the source response and
// the buckets for the currently selected period. The source's totals are
// authoritative; daily records feed the day-level metrics.
func BuildSummary(resp model.UsageResponse, buckets []model.AggregatedUsage, planCeilings []float64) Summary {
	totals := resp.Totals

	activeDays := 0
	for _, d := range resp.Daily {
		if d.TotalCost > 0 {
			activeDays++
		}
	}

	s := Summary{
		Totals:               totals,
		TotalDays:            len(resp.Daily),
		ActiveDays:           activeDays,
		Growth:               CostGrowth(buckets),
		CacheHitRate:         CacheEfficiency(totals.CacheReadTokens, totals.InputTokens),
		CostPerMillionTokens: CostPerMillionTokens(totals.TotalCost, totals.TotalTokens),
		ProjectedMonthlyCost: ProjectedMonthlyCost(totals.TotalCost, len(resp.Daily)),
		PlanLabel:            PlanLabel(totals.TotalCost, planCeilings),
		Plans:                ComparePlans(totals.TotalCost, planCeilings),
		Pattern:              ClassifyPattern(activeDays, len(resp.Daily)),
		Models:               ModelTotals(resp.Daily),
	}

	if len(resp.Daily) > 0 {
		s.AvgDailyCost = totals.TotalCost / float64(len(resp.Daily))
	}
	if peak, ok := PeakDay(resp.Daily); ok {
		s.PeakDay = &DayHighlight{Date: peak.Date, Cost: peak.TotalCost}
	}
	if least, ok := LeastActiveDay(resp.Daily); ok {
		s.LeastDay = &DayHighlight{Date: least.Date, Cost: least.TotalCost}
	}

	return s
}
