package view

import "ccdash/internal/model"

const tokensPerMillion = 1_000_000

// ChartPoint is one datapoint in the dashboard's chart series. Token values
// are scaled to millions; cost is in the display currency.
type ChartPoint struct {
	Label        string  `json:"label"`
	Date         string  `json:"date"`
	Cost         float64 `json:"cost"`
	Tokens       float64 `json:"tokens"`
	InputTokens  float64 `json:"inputTokens"`
	OutputTokens float64 `json:"outputTokens"`
	CacheTokens  float64 `json:"cacheTokens"`
}

// BuildChart maps aggregated buckets onto chart series. convert maps a USD
// amount plus record date onto the display currency; nil means USD as-is.
func BuildChart(buckets []model.AggregatedUsage, convert func(usd float64, date string) float64) []ChartPoint {
	points := make([]ChartPoint, 0, len(buckets))
	for _, b := range buckets {
		cost := b.TotalCost
		if convert != nil {
			cost = convert(b.TotalCost, b.Date)
		}
		points = append(points, ChartPoint{
			Label:        chartLabel(b),
			Date:         b.Date,
			Cost:         cost,
			Tokens:       float64(b.TotalTokens) / tokensPerMillion,
			InputTokens:  float64(b.InputTokens) / tokensPerMillion,
			OutputTokens: float64(b.OutputTokens) / tokensPerMillion,
			CacheTokens:  float64(b.CacheCreationTokens+b.CacheReadTokens) / tokensPerMillion,
		})
	}
	return points
}

// chartLabel renders the axis label, e.g. "Mar 4". Malformed dates fall back
// to the raw string.
func chartLabel(b model.AggregatedUsage) string {
	t := b.Time()
	if t.IsZero() {
		return b.Date
	}
	return t.Format("Jan 2")
}
