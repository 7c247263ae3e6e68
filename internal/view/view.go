package view

import (
	"sort"
	"strconv"
	"strings"

	"ccdash/internal/aggregator"
	"ccdash/internal/model"
)

// SortField names a sortable column.
type SortField string

const (
	SortByDate          SortField = "date"
	SortByTotalCost     SortField = "totalCost"
	SortByInputTokens   SortField = "inputTokens"
	SortByOutputTokens  SortField = "outputTokens"
	SortByCacheCreation SortField = "cacheCreationTokens"
	SortByCacheRead     SortField = "cacheReadTokens"
	SortByTotalTokens   SortField = "totalTokens"
)

// SortDir is the sort direction.
type SortDir string

const (
	Asc  SortDir = "asc"
	Desc SortDir = "desc"
)

// ParseSortField validates a sort field parameter, defaulting to date.
func ParseSortField(s string) SortField {
	switch SortField(s) {
	case SortByTotalCost, SortByInputTokens, SortByOutputTokens,
		SortByCacheCreation, SortByCacheRead, SortByTotalTokens:
		return SortField(s)
	default:
		return SortByDate
	}
}

// PageSizes are the permitted page sizes.
var PageSizes = []int{10, 50, 100}

// Params is an immutable set of view parameters. Every user interaction
// derives a new Params value; records are never mutated in place.
type Params struct {
	Period    aggregator.Period
	SortField SortField
	SortDir   SortDir
	MinCost   *float64
	Page      int
	PageSize  int
}

// DefaultParams is the dashboard's entry state: daily records, newest first.
func DefaultParams() Params {
	return Params{
		Period:    aggregator.Daily,
		SortField: SortByDate,
		SortDir:   Desc,
		Page:      1,
		PageSize:  10,
	}
}

// WithPeriod selects a new aggregation period and resets to the first page.
func (p Params) WithPeriod(period aggregator.Period) Params {
	p.Period = period
	p.Page = 1
	return p
}

// WithSort toggles direction when the field is unchanged, otherwise switches
// to the new field descending. Either way the page resets to 1.
func (p Params) WithSort(field SortField) Params {
	if p.SortField == field {
		if p.SortDir == Desc {
			p.SortDir = Asc
		} else {
			p.SortDir = Desc
		}
	} else {
		p.SortField = field
		p.SortDir = Desc
	}
	p.Page = 1
	return p
}

// WithMinCost parses a minimum-cost filter input. Blank or non-numeric input
// clears the filter rather than erroring.
func (p Params) WithMinCost(raw string) Params {
	p.Page = 1
	raw = strings.TrimSpace(raw)
	if raw == "" {
		p.MinCost = nil
		return p
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.MinCost = nil
		return p
	}
	p.MinCost = &v
	return p
}

// WithPageSize switches the page size, ignoring values outside PageSizes.
func (p Params) WithPageSize(size int) Params {
	for _, allowed := range PageSizes {
		if size == allowed {
			p.PageSize = size
			p.Page = 1
			return p
		}
	}
	return p
}

// WithPage moves to the given page. Values below 1 clamp to 1; pages past the
// end are handled by Paginate, which returns an empty slice.
func (p Params) WithPage(page int) Params {
	if page < 1 {
		page = 1
	}
	p.Page = page
	return p
}

// Sort returns a new slice ordered by the given field and direction.
// Ties break on date ascending so paginated output is reproducible.
func Sort(records []model.AggregatedUsage, field SortField, dir SortDir) []model.AggregatedUsage {
	sorted := make([]model.AggregatedUsage, len(records))
	copy(sorted, records)

	key := sortKey(field)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := key(sorted[i]), key(sorted[j])
		if a == b {
			return sorted[i].Date < sorted[j].Date
		}
		if dir == Asc {
			return a < b
		}
		return a > b
	})

	return sorted
}

// sortKey maps a field onto a comparable numeric key. Dates compare by
// instant, not by the display string.
func sortKey(field SortField) func(model.AggregatedUsage) float64 {
	switch field {
	case SortByTotalCost:
		return func(r model.AggregatedUsage) float64 { return r.TotalCost }
	case SortByInputTokens:
		return func(r model.AggregatedUsage) float64 { return float64(r.InputTokens) }
	case SortByOutputTokens:
		return func(r model.AggregatedUsage) float64 { return float64(r.OutputTokens) }
	case SortByCacheCreation:
		return func(r model.AggregatedUsage) float64 { return float64(r.CacheCreationTokens) }
	case SortByCacheRead:
		return func(r model.AggregatedUsage) float64 { return float64(r.CacheReadTokens) }
	case SortByTotalTokens:
		return func(r model.AggregatedUsage) float64 { return float64(r.TotalTokens) }
	default:
		return func(r model.AggregatedUsage) float64 { return float64(r.Time().Unix()) }
	}
}

// Filter keeps records whose total cost meets the threshold. A nil threshold
// means no filter.
func Filter(records []model.AggregatedUsage, minCost *float64) []model.AggregatedUsage {
	if minCost == nil {
		return records
	}
	filtered := make([]model.AggregatedUsage, 0, len(records))
	for _, r := range records {
		if r.TotalCost >= *minCost {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// PageResult is one page of records plus pagination bookkeeping.
type PageResult struct {
	Items      []model.AggregatedUsage `json:"items"`
	TotalItems int                     `json:"totalItems"`
	TotalPages int                     `json:"totalPages"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"pageSize"`
}

// Paginate slices records into the requested page. A page past the end yields
// an empty items slice, never an error. TotalPages is at least 1.
func Paginate(records []model.AggregatedUsage, page, pageSize int) PageResult {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = PageSizes[0]
	}

	total := len(records)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}

	start := (page - 1) * pageSize
	if start >= total {
		return PageResult{Items: []model.AggregatedUsage{}, TotalItems: total, TotalPages: totalPages, Page: page, PageSize: pageSize}
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	items := make([]model.AggregatedUsage, end-start)
	copy(items, records[start:end])
	return PageResult{Items: items, TotalItems: total, TotalPages: totalPages, Page: page, PageSize: pageSize}
}

// Apply runs the full pipeline for one set of view parameters:
// aggregate, sort, filter, paginate.
func Apply(records []model.DailyUsage, p Params) PageResult {
	buckets := aggregator.Aggregate(records, p.Period)
	buckets = Sort(buckets, p.SortField, p.SortDir)
	buckets = Filter(buckets, p.MinCost)
	return Paginate(buckets, p.Page, p.PageSize)
}
