package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"ccdash/cli/internal/output"
	"ccdash/internal/aggregator"
	"ccdash/internal/config"
	"ccdash/internal/currency"
	"ccdash/internal/exchange"
	"ccdash/internal/metrics"
	"ccdash/internal/pricing"
	"ccdash/internal/source"
	"ccdash/internal/view"
)

const version = "0.1.0"

func main() {
	command := "daily"
	args := os.Args[1:]
	if len(args) > 0 {
		switch args[0] {
		case "daily", "weekly", "monthly":
			command = args[0]
			args = args[1:]
		case "config":
			runConfig(args[1:])
			return
		}
	}

	fs := flag.NewFlagSet("ccdash", flag.ExitOnError)
	var (
		sortField string
		sortDir   string
		minCost   string
		page      int
		pageSize  int
		jsonOut   bool
		inr       bool
		rateFlag  float64
		offline   bool
		compact   bool
		showVer   bool
	)

	fs.StringVar(&sortField, "sort", "date", "Sort column (date, totalCost, inputTokens, outputTokens, cacheCreationTokens, cacheReadTokens, totalTokens)")
	fs.StringVar(&sortDir, "dir", "desc", "Sort direction (asc, desc)")
	fs.StringVar(&minCost, "min-cost", "", "Hide rows below this cost in USD")
	fs.IntVar(&page, "page", 1, "Page number")
	fs.IntVar(&pageSize, "page-size", 10, "Rows per page (10, 50, 100)")
	fs.BoolVar(&jsonOut, "json", false, "Output as JSON")
	fs.BoolVar(&inr, "inr", false, "Show costs in INR")
	fs.Float64Var(&rateFlag, "rate", 0, "USD to INR rate override (implies --inr)")
	fs.BoolVar(&offline, "offline", false, "Skip network lookups, use embedded pricing")
	fs.BoolVar(&compact, "compact", false, "Force compact table output")
	fs.BoolVar(&compact, "c", false, "Force compact table output")
	fs.BoolVar(&showVer, "v", false, "Show version")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `ccdash - Claude Code usage report

Usage: ccdash [command] [options]

Commands:
  daily     Daily usage report (default)
  weekly    Usage rolled up by week (Monday start)
  monthly   Usage rolled up by month
  config    Persist display preferences

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccdash
  ccdash weekly --sort totalCost --dir desc
  ccdash monthly --min-cost 5 --json
  ccdash daily --inr --rate 85
`)
	}

	fs.Parse(args)

	if showVer {
		fmt.Printf("ccdash version %s\n", version)
		return
	}

	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not read config: %v\n", err)
	}
	if cfg.Offline {
		offline = true
	}
	if rateFlag > 0 {
		inr = true
	}
	if !inr && currency.Parse(cfg.Currency) == currency.INR {
		inr = true
	}

	ctx := context.Background()

	catalog := pricing.NewCatalog(offline)
	src := &source.Fallback{
		Primary:   source.NewCLISource(),
		Secondary: source.NewLocalSource("", catalog),
	}

	resp, err := src.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading usage data: %v\n", err)
		os.Exit(1)
	}
	resp, corrected := source.Normalize(resp)
	if len(corrected) > 0 {
		fmt.Fprintf(os.Stderr, "Warning: recomputed token totals for %d day(s)\n", len(corrected))
	}

	if len(resp.Daily) == 0 {
		fmt.Println("No usage data found.")
		return
	}

	params := view.DefaultParams()
	params.Period = aggregator.ParsePeriod(command)
	params.SortField = view.ParseSortField(sortField)
	if sortDir == string(view.Asc) {
		params.SortDir = view.Asc
	}
	params = params.WithMinCost(minCost)
	params = params.WithPageSize(pageSize)
	params = params.WithPage(page)

	code := currency.USD
	conv := currency.NewConverter(currency.DefaultRate)
	if inr {
		code = currency.INR
		switch {
		case rateFlag > 0:
			if !conv.SetManualRate(rateFlag) {
				fmt.Fprintf(os.Stderr, "Error: --rate must be a positive number\n")
				os.Exit(1)
			}
		case cfg.Rate > 0:
			conv.SetManualRate(cfg.Rate)
		case !offline:
			rate, fallback := exchange.NewClient().FetchINR(ctx)
			conv.SetRate("", rate)
			if fallback {
				fmt.Fprintf(os.Stderr, "Warning: rate lookup failed, using %.0f\n", rate)
			}
		}
	}

	pageResult := view.Apply(resp.Daily, params)
	buckets := aggregator.Aggregate(resp.Daily, params.Period)
	summary := metrics.BuildSummary(resp, buckets, []float64{100, 200})

	if jsonOut {
		if err := output.PrintJSON(output.Report{Table: pageResult, Summary: summary}); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing JSON: %v\n", err)
			os.Exit(1)
		}
		return
	}

	title := map[string]string{"daily": "Date", "weekly": "Week", "monthly": "Month"}[command]
	output.PrintTable(pageResult, title, conv, code, output.TableOptions{ForceCompact: compact})
	output.PrintSummary(summary, conv, code)
}

func runConfig(args []string) {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	var (
		curr    string
		rate    float64
		offline bool
		show    bool
	)
	fs.StringVar(&curr, "currency", "", "Default display currency (USD or INR)")
	fs.Float64Var(&rate, "rate", 0, "Default USD to INR rate")
	fs.BoolVar(&offline, "offline", false, "Always skip network lookups")
	fs.BoolVar(&show, "show", false, "Show current configuration")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccdash config [options]

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccdash config --currency INR --rate 85
  ccdash config --show
`)
	}
	fs.Parse(args)

	cfg, err := config.LoadCLI()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if show {
		if cfg.Currency == "" && cfg.Rate == 0 && !cfg.Offline {
			fmt.Println("No configuration found. Run 'ccdash config --currency INR' to configure.")
			return
		}
		fmt.Printf("Currency: %s\n", currency.Parse(cfg.Currency))
		if cfg.Rate > 0 {
			fmt.Printf("Rate: %.2f\n", cfg.Rate)
		}
		fmt.Printf("Offline: %v\n", cfg.Offline)
		return
	}

	if curr == "" && rate == 0 && !offline {
		fs.Usage()
		return
	}

	if curr != "" {
		cfg.Currency = string(currency.Parse(curr))
	}
	if rate > 0 {
		cfg.Rate = rate
	}
	if offline {
		cfg.Offline = true
	}

	if err := config.SaveCLI(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Configuration saved.")
}
