package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"ccdash/internal/model"
)

func offlineCatalog() *Catalog {
	return NewCatalog(true)
}

func TestLookupExact(t *testing.T) {
	p := offlineCatalog().Lookup("claude-3-5-haiku-20241022")
	assert.Equal(t, 8e-07, p.InputCostPerToken)
	assert.Equal(t, 4e-06, p.OutputCostPerToken)
}

func TestLookupNormalized(t *testing.T) {
	// Underscore and case variants resolve to the same entry.
	want := offlineCatalog().Lookup("claude-sonnet-4-5")
	got := offlineCatalog().Lookup("Claude_Sonnet_4_5")
	assert.Equal(t, want, got)
}

func TestLookupUnknownDefaultsToSonnet(t *testing.T) {
	p := offlineCatalog().Lookup("some-future-model")
	assert.Equal(t, 3e-06, p.InputCostPerToken)
	assert.Equal(t, 1.5e-05, p.OutputCostPerToken)
}

func TestCostOf(t *testing.T) {
	rec := model.RawRecord{
		Timestamp:           time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Model:               "claude-sonnet-4-5",
		InputTokens:         1_000_000,
		OutputTokens:        100_000,
		CacheCreationTokens: 200_000,
		CacheReadTokens:     2_000_000,
	}
	p := offlineCatalog().Lookup(rec.Model)

	// 1M*3e-6 + 100k*1.5e-5 + 200k*3.75e-6 + 2M*3e-7
	assert.InDelta(t, 3.0+1.5+0.75+0.6, CostOf(rec, p), 1e-9)
}
