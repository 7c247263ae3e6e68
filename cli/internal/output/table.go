// Package output renders usage reports as terminal tables or JSON.
package output

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"ccdash/internal/currency"
	"ccdash/internal/metrics"
	"ccdash/internal/model"
	"ccdash/internal/view"
)

const (
	compactThreshold = 100
	defaultWidth     = 120
)

// TableOptions controls table display behavior.
type TableOptions struct {
	ForceCompact bool
}

// envColumns honors an explicit COLUMNS override before any platform
// console query. Returns 0 when unset or unusable.
func envColumns() int {
	cols := os.Getenv("COLUMNS")
	if cols == "" {
		return 0
	}
	var width int
	if _, err := fmt.Sscanf(cols, "%d", &width); err == nil && width > 0 {
		return width
	}
	return 0
}

func useCompact(opts TableOptions) bool {
	return opts.ForceCompact || terminalWidth() < compactThreshold
}

// FormatNumber formats a token count with thousand separators.
func FormatNumber(n int64) string {
	if n == 0 {
		return "0"
	}

	str := fmt.Sprintf("%d", n)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	var b strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			b.WriteRune(',')
		}
		b.WriteRune(c)
	}

	if negative {
		return "-" + b.String()
	}
	return b.String()
}

// PrintTable prints one page of aggregated usage.
func PrintTable(page view.PageResult, title string, conv *currency.Converter, code currency.Code, opts TableOptions) {
	if page.TotalItems == 0 {
		fmt.Println("No usage data found.")
		return
	}

	compact := useCompact(opts)

	keyWidth := len(title)
	for _, r := range page.Items {
		if len(r.Date) > keyWidth {
			keyWidth = len(r.Date)
		}
	}
	if keyWidth < 10 {
		keyWidth = 10
	}

	cost := func(r model.AggregatedUsage) string {
		return conv.Format(r.TotalCost, code, r.Date)
	}

	fmt.Println()

	if compact {
		width := keyWidth + 2 + 12 + 2 + 12 + 2 + 12
		fmt.Printf("%-*s  %12s  %12s  %12s\n", keyWidth, title, "Input", "Output", "Cost")
		fmt.Println(strings.Repeat("─", width))

		for _, r := range page.Items {
			fmt.Printf("%-*s  %12s  %12s  %12s\n",
				keyWidth, r.Date,
				FormatNumber(r.InputTokens),
				FormatNumber(r.OutputTokens),
				cost(r))
		}
	} else {
		width := keyWidth + 2 + 12 + 2 + 12 + 2 + 14 + 2 + 14 + 2 + 14 + 2 + 12
		fmt.Printf("%-*s  %12s  %12s  %14s  %14s  %14s  %12s\n",
			keyWidth, title, "Input", "Output", "Cache Create", "Cache Read", "Total Tokens", "Cost")
		fmt.Println(strings.Repeat("─", width))

		for _, r := range page.Items {
			fmt.Printf("%-*s  %12s  %12s  %14s  %14s  %14s  %12s\n",
				keyWidth, r.Date,
				FormatNumber(r.InputTokens),
				FormatNumber(r.OutputTokens),
				FormatNumber(r.CacheCreationTokens),
				FormatNumber(r.CacheReadTokens),
				FormatNumber(r.TotalTokens),
				cost(r))
		}
	}

	fmt.Println()
	fmt.Printf("Page %d of %d (%d rows)\n", page.Page, page.TotalPages, page.TotalItems)
}

// PrintSummary prints the derived metric cards under the table.
func PrintSummary(s metrics.Summary, conv *currency.Converter, code currency.Code) {
	fmt.Println()
	fmt.Printf("Total cost:        %s over %d days (%d active)\n",
		conv.Format(s.Totals.TotalCost, code, ""), s.TotalDays, s.ActiveDays)
	fmt.Printf("Total tokens:      %s\n", FormatNumber(s.Totals.TotalTokens))
	fmt.Printf("Avg daily cost:    %s\n", conv.Format(s.AvgDailyCost, code, ""))
	fmt.Printf("Projected monthly: %s\n", conv.Format(s.ProjectedMonthlyCost, code, ""))
	fmt.Printf("Cost per Mtok:     %s\n", conv.Format(s.CostPerMillionTokens, code, ""))
	fmt.Printf("Cache hit rate:    %.1f%%\n", s.CacheHitRate)

	switch s.Growth.Status {
	case metrics.GrowthInsufficient:
		fmt.Printf("Growth:            insufficient data\n")
	case metrics.GrowthNewUsage:
		fmt.Printf("Growth:            new usage\n")
	default:
		fmt.Printf("Growth:            %+.1f%%\n", s.Growth.Percent)
	}

	fmt.Printf("Usage pattern:     %s\n", s.Pattern)
	fmt.Printf("Plan fit:          %s\n", s.PlanLabel)

	if s.PeakDay != nil {
		fmt.Printf("Peak day:          %s (%s)\n",
			s.PeakDay.Date, conv.Format(s.PeakDay.Cost, code, s.PeakDay.Date))
	}
	if s.LeastDay != nil {
		fmt.Printf("Quietest day:      %s (%s)\n",
			s.LeastDay.Date, conv.Format(s.LeastDay.Cost, code, s.LeastDay.Date))
	}

	if len(s.Models) > 0 {
		fmt.Println()
		fmt.Println("Models used:")
		for _, m := range s.Models {
			fmt.Printf("  %-30s %12s  %s\n",
				m.ModelName,
				FormatNumber(m.InputTokens+m.OutputTokens),
				conv.Format(m.Cost, code, ""))
		}
	}
	fmt.Println()
}

// Report is the JSON output shape of the report command.
type Report struct {
	Table   view.PageResult `json:"table"`
	Summary metrics.Summary `json:"summary"`
}

// PrintJSON writes the report as indented JSON to stdout.
func PrintJSON(report Report) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
