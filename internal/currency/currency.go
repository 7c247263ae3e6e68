package currency

import (
	"fmt"
	"math"
	"strings"
)

// Code selects the display currency.
type Code string

const (
	USD Code = "USD"
	INR Code = "INR"
)

// Parse maps a request parameter onto a currency code, defaulting to USD.
func Parse(s string) Code {
	if strings.EqualFold(s, string(INR)) {
		return INR
	}
	return USD
}

// DefaultRate is the USD to INR rate used before the first successful fetch.
const DefaultRate = 83

// Converter maps USD amounts to display strings, using a per-date rate table
// with a current-rate fallback. It is plain client-side state; callers that
// share one across goroutines must serialize access.
type Converter struct {
	rates       map[string]float64
	currentRate float64
}

// NewConverter returns a converter seeded with the fallback rate and an
// empty rate table.
func NewConverter(fallbackRate float64) *Converter {
	if !validRate(fallbackRate) {
		fallbackRate = DefaultRate
	}
	return &Converter{
		rates:       make(map[string]float64),
		currentRate: fallbackRate,
	}
}

// CurrentRate returns the rate used for dates missing from the table.
func (c *Converter) CurrentRate() float64 {
	return c.currentRate
}

// Rate returns the conversion rate for a date, falling back to the current
// rate when the date is blank or unknown.
func (c *Converter) Rate(date string) float64 {
	if date != "" {
		if r, ok := c.rates[date]; ok {
			return r
		}
	}
	return c.currentRate
}

// SetRate records a fetched rate for a date and makes it the current rate.
// Called once per refresh with the newest date in the record set.
func (c *Converter) SetRate(date string, rate float64) {
	if !validRate(rate) {
		return
	}
	if date != "" {
		c.rates[date] = rate
	}
	c.currentRate = rate
}

// SetManualRate applies a user override. Every table entry is rewritten to
// the new rate so all displayed historical costs agree with it until the
// next automatic refresh. Non-positive or non-finite values are rejected and
// previous state kept.
func (c *Converter) SetManualRate(rate float64) bool {
	if !validRate(rate) {
		return false
	}
	c.currentRate = rate
	for date := range c.rates {
		c.rates[date] = rate
	}
	return true
}

// Clone returns an independent copy of the converter's rate state.
func (c *Converter) Clone() *Converter {
	rates := make(map[string]float64, len(c.rates))
	for date, r := range c.rates {
		rates[date] = r
	}
	return &Converter{rates: rates, currentRate: c.currentRate}
}

// Amount converts a USD amount into the display currency as a number.
func (c *Converter) Amount(usd float64, code Code, date string) float64 {
	if code == INR {
		return usd * c.Rate(date)
	}
	return usd
}

// Format renders a USD amount for display. USD keeps two decimals; INR is
// converted, rounded to a whole number, and comma-grouped.
func (c *Converter) Format(usd float64, code Code, date string) string {
	if code == INR {
		return "₹" + groupDigits(int64(math.Round(usd*c.Rate(date))))
	}
	return fmt.Sprintf("$%.2f", usd)
}

func validRate(rate float64) bool {
	return rate > 0 && !math.IsInf(rate, 0) && !math.IsNaN(rate)
}

// groupDigits formats an integer with thousand separators.
func groupDigits(n int64) string {
	if n == 0 {
		return "0"
	}

	str := fmt.Sprintf("%d", n)
	negative := n < 0
	if negative {
		str = str[1:]
	}

	var result strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteRune(',')
		}
		result.WriteRune(c)
	}

	if negative {
		return "-" + result.String()
	}
	return result.String()
}
