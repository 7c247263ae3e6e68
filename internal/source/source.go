// Package source produces the usage dataset the dashboard runs on.
// The preferred source shells out to the ccusage CLI; when that is not
// installed the local source rebuilds the same shape from Claude Code
// transcripts and the pricing catalog.
package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"

	"ccdash/internal/model"
	"ccdash/internal/parser"
	"ccdash/internal/pricing"
)

// A Source fetches a complete usage snapshot.
type Source interface {
	Fetch(ctx context.Context) (model.UsageResponse, error)
}

// CLISource runs the ccusage CLI and decodes its JSON report. The CLI's
// totals are trusted as-is since it prices tokens itself.
type CLISource struct {
	Binary string
}

// NewCLISource builds a source around the ccusage binary on PATH.
func NewCLISource() *CLISource {
	return &CLISource{Binary: "ccusage"}
}

func (s *CLISource) Fetch(ctx context.Context) (model.UsageResponse, error) {
	cmd := exec.CommandContext(ctx, s.Binary, "daily", "--json")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return model.UsageResponse{}, fmt.Errorf("running %s: %w: %s", s.Binary, err, stderr.String())
	}

	var resp model.UsageResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return model.UsageResponse{}, fmt.Errorf("decoding %s output: %w", s.Binary, err)
	}
	return resp, nil
}

// LocalSource rebuilds daily usage from the on-disk session transcripts.
type LocalSource struct {
	Root    string
	Catalog *pricing.Catalog
}

// NewLocalSource builds a transcript-backed source. An empty root means
// the default Claude Code projects directory.
func NewLocalSource(root string, catalog *pricing.Catalog) *LocalSource {
	return &LocalSource{Root: root, Catalog: catalog}
}

func (s *LocalSource) Fetch(ctx context.Context) (model.UsageResponse, error) {
	root := s.Root
	if root == "" {
		var err error
		root, err = parser.DefaultRoot()
		if err != nil {
			return model.UsageResponse{}, err
		}
	}

	records, err := parser.ParseAll(root)
	if err != nil {
		return model.UsageResponse{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.UsageResponse{}, err
	}

	return foldRecords(records, s.Catalog), nil
}

// foldRecords groups raw assistant turns into per-day records with
// per-model breakdowns, pricing each turn as it is folded in.
func foldRecords(records []model.RawRecord, catalog *pricing.Catalog) model.UsageResponse {
	type dayAccum struct {
		usage  *model.DailyUsage
		models map[string]*model.ModelBreakdown
	}

	days := make(map[string]*dayAccum)
	for _, rec := range records {
		date := rec.Timestamp.Local().Format(model.DateLayout)
		day, ok := days[date]
		if !ok {
			day = &dayAccum{
				usage:  &model.DailyUsage{Date: date},
				models: make(map[string]*model.ModelBreakdown),
			}
			days[date] = day
		}

		cost := pricing.CostOf(rec, catalog.Lookup(rec.Model))

		day.usage.InputTokens += rec.InputTokens
		day.usage.OutputTokens += rec.OutputTokens
		day.usage.CacheCreationTokens += rec.CacheCreationTokens
		day.usage.CacheReadTokens += rec.CacheReadTokens
		day.usage.TotalCost += cost

		mb, ok := day.models[rec.Model]
		if !ok {
			mb = &model.ModelBreakdown{ModelName: rec.Model}
			day.models[rec.Model] = mb
		}
		mb.InputTokens += rec.InputTokens
		mb.OutputTokens += rec.OutputTokens
		mb.CacheCreationTokens += rec.CacheCreationTokens
		mb.CacheReadTokens += rec.CacheReadTokens
		mb.Cost += cost
	}

	var resp model.UsageResponse
	for _, day := range days {
		u := *day.usage
		u.TotalTokens = u.ComponentTokenSum()

		for name, mb := range day.models {
			u.ModelsUsed = append(u.ModelsUsed, name)
			u.ModelBreakdowns = append(u.ModelBreakdowns, *mb)
		}
		sort.Strings(u.ModelsUsed)
		sort.Slice(u.ModelBreakdowns, func(i, j int) bool {
			return u.ModelBreakdowns[i].ModelName < u.ModelBreakdowns[j].ModelName
		})

		resp.Daily = append(resp.Daily, u)
	}

	sort.Slice(resp.Daily, func(i, j int) bool { return resp.Daily[i].Date < resp.Daily[j].Date })

	for _, u := range resp.Daily {
		resp.Totals.InputTokens += u.InputTokens
		resp.Totals.OutputTokens += u.OutputTokens
		resp.Totals.CacheCreationTokens += u.CacheCreationTokens
		resp.Totals.CacheReadTokens += u.CacheReadTokens
		resp.Totals.TotalTokens += u.TotalTokens
		resp.Totals.TotalCost += u.TotalCost
	}
	return resp
}

// Fallback tries the primary source and falls through to the secondary
// when it fails.
type Fallback struct {
	Primary   Source
	Secondary Source
}

func (f *Fallback) Fetch(ctx context.Context) (model.UsageResponse, error) {
	resp, err := f.Primary.Fetch(ctx)
	if err == nil {
		return resp, nil
	}
	resp, secErr := f.Secondary.Fetch(ctx)
	if secErr != nil {
		return model.UsageResponse{}, fmt.Errorf("primary source: %v; fallback source: %w", err, secErr)
	}
	return resp, nil
}

// Normalize enforces the record invariant that totalTokens equals the
// sum of the four token counters, recomputing it where the source
// disagrees. It returns the dates that were corrected.
func Normalize(resp model.UsageResponse) (model.UsageResponse, []string) {
	var corrected []string
	for i, u := range resp.Daily {
		if sum := u.ComponentTokenSum(); u.TotalTokens != sum {
			resp.Daily[i].TotalTokens = sum
			corrected = append(corrected, u.Date)
		}
	}
	return resp, corrected
}
