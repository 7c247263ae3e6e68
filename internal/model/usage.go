package model

import "time"

// DateLayout is the wire format for calendar dates throughout the system.
// Lexicographic order on these strings equals chronological order.
const DateLayout = "2006-01-02"

// DailyUsage represents one calendar day of usage as reported by the data source.
type DailyUsage struct {
	Date                string           `json:"date"`
	InputTokens         int64            `json:"inputTokens"`
	OutputTokens        int64            `json:"outputTokens"`
	CacheCreationTokens int64            `json:"cacheCreationTokens"`
	CacheReadTokens     int64            `json:"cacheReadTokens"`
	TotalTokens         int64            `json:"totalTokens"`
	TotalCost           float64          `json:"totalCost"`
	ModelsUsed          []string         `json:"modelsUsed,omitempty"`
	ModelBreakdowns     []ModelBreakdown `json:"modelBreakdowns,omitempty"`
}

// ModelBreakdown attributes one day's tokens and cost to a single model.
type ModelBreakdown struct {
	ModelName           string  `json:"modelName"`
	InputTokens         int64   `json:"inputTokens"`
	OutputTokens        int64   `json:"outputTokens"`
	CacheCreationTokens int64   `json:"cacheCreationTokens"`
	CacheReadTokens     int64   `json:"cacheReadTokens"`
	Cost                float64 `json:"cost"`
}

// Totals holds the aggregate figures reported alongside the daily records.
type Totals struct {
	InputTokens         int64   `json:"inputTokens"`
	OutputTokens        int64   `json:"outputTokens"`
	CacheCreationTokens int64   `json:"cacheCreationTokens"`
	CacheReadTokens     int64   `json:"cacheReadTokens"`
	TotalTokens         int64   `json:"totalTokens"`
	TotalCost           float64 `json:"totalCost"`
}

// UsageResponse is the payload shape produced by the usage data source.
// Totals is authoritative for summary figures; Daily feeds the pipeline.
type UsageResponse struct {
	Daily  []DailyUsage `json:"daily"`
	Totals Totals       `json:"totals"`
}

// AggregatedUsage is a daily record rolled up into a week or month bucket.
// Date is the bucket anchor: the Monday of the week or the first of the month.
type AggregatedUsage struct {
	Date                string  `json:"date"`
	InputTokens         int64   `json:"inputTokens"`
	OutputTokens        int64   `json:"outputTokens"`
	CacheCreationTokens int64   `json:"cacheCreationTokens"`
	CacheReadTokens     int64   `json:"cacheReadTokens"`
	TotalTokens         int64   `json:"totalTokens"`
	TotalCost           float64 `json:"totalCost"`
	DayCount            int     `json:"dayCount"`
}

// Time parses the record date. The zero time is returned for malformed dates.
func (d DailyUsage) Time() time.Time {
	t, _ := time.Parse(DateLayout, d.Date)
	return t
}

// Time parses the bucket anchor date.
func (a AggregatedUsage) Time() time.Time {
	t, _ := time.Parse(DateLayout, a.Date)
	return t
}

// ComponentTokenSum returns the sum of the four token counters. TotalTokens
// is expected to equal this; ingestion recomputes it when it does not.
func (d DailyUsage) ComponentTokenSum() int64 {
	return d.InputTokens + d.OutputTokens + d.CacheCreationTokens + d.CacheReadTokens
}

// ModelPricing contains per-token pricing for a model (per token, not per million).
type ModelPricing struct {
	InputCostPerToken         float64
	OutputCostPerToken        float64
	CacheCreationCostPerToken float64
	CacheReadCostPerToken     float64
}

// RawRecord is a single assistant turn parsed from a Claude Code JSONL file.
// The local usage source folds these into DailyUsage records.
type RawRecord struct {
	Timestamp           time.Time
	SessionID           string
	Model               string
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}
