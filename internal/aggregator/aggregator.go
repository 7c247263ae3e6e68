package aggregator

import (
	"sort"
	"time"

	"ccdash/internal/model"
)

// Period selects the bucket size for rollups.
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// ParsePeriod maps a request parameter onto a Period, defaulting to daily.
func ParsePeriod(s string) Period {
	switch Period(s) {
	case Weekly:
		return Weekly
	case Monthly:
		return Monthly
	default:
		return Daily
	}
}

// Aggregate rolls daily records up into buckets for the given period and
// returns them sorted ascending by bucket date. Input order does not matter.
// Daily is the identity rollup: one bucket per record.
func Aggregate(records []model.DailyUsage, period Period) []model.AggregatedUsage {
	grouped := make(map[string]*model.AggregatedUsage)

	for _, r := range records {
		key := bucketKey(r, period)

		agg, ok := grouped[key]
		if !ok {
			agg = &model.AggregatedUsage{Date: key}
			grouped[key] = agg
		}

		agg.InputTokens += r.InputTokens
		agg.OutputTokens += r.OutputTokens
		agg.CacheCreationTokens += r.CacheCreationTokens
		agg.CacheReadTokens += r.CacheReadTokens
		agg.TotalTokens += r.TotalTokens
		agg.TotalCost += r.TotalCost
		agg.DayCount++
	}

	results := make([]model.AggregatedUsage, 0, len(grouped))
	for _, agg := range grouped {
		results = append(results, *agg)
	}

	// ISO date keys sort chronologically as strings.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Date < results[j].Date
	})

	return results
}

// bucketKey maps a record date onto its bucket anchor date.
func bucketKey(r model.DailyUsage, period Period) string {
	switch period {
	case Weekly:
		return weekAnchor(r.Time()).Format(model.DateLayout)
	case Monthly:
		t := r.Time()
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location()).Format(model.DateLayout)
	default:
		return r.Date
	}
}

// weekAnchor returns the Monday on or before t.
func weekAnchor(t time.Time) time.Time {
	back := int(t.Weekday()) // Sunday = 0
	if back == 0 {
		back = 7
	}
	back-- // Monday = 0
	return t.AddDate(0, 0, -back)
}

// SumDaily computes field-wise totals over daily records. Used to verify the
// source's reported totals and as a fallback when the source omits them.
func SumDaily(records []model.DailyUsage) model.Totals {
	var total model.Totals
	for _, r := range records {
		total.InputTokens += r.InputTokens
		total.OutputTokens += r.OutputTokens
		total.CacheCreationTokens += r.CacheCreationTokens
		total.CacheReadTokens += r.CacheReadTokens
		total.TotalTokens += r.TotalTokens
		total.TotalCost += r.TotalCost
	}
	return total
}

// SumAggregates computes field-wise totals over rolled-up buckets.
func SumAggregates(buckets []model.AggregatedUsage) model.Totals {
	var total model.Totals
	for _, b := range buckets {
		total.InputTokens += b.InputTokens
		total.OutputTokens += b.OutputTokens
		total.CacheCreationTokens += b.CacheCreationTokens
		total.CacheReadTokens += b.CacheReadTokens
		total.TotalTokens += b.TotalTokens
		total.TotalCost += b.TotalCost
	}
	return total
}
