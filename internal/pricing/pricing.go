// Package pricing resolves per-token model pricing for the local JSONL
// usage source. It prefers the LiteLLM community price table and falls
// back to an embedded snapshot when offline.
package pricing

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"ccdash/internal/model"
)

const liteLLMURL = "https://raw.githubusercontent.com/BerriAI/litellm/main/model_prices_and_context_window.json"

type liteLLMEntry struct {
	InputCostPerToken  float64 `json:"input_cost_per_token"`
	OutputCostPerToken float64 `json:"output_cost_per_token"`
	CacheCreationCost  float64 `json:"cache_creation_input_token_cost"`
	CacheReadCost      float64 `json:"cache_read_input_token_cost"`
	Provider           string  `json:"litellm_provider"`
}

// Catalog caches the remote price table for an hour and answers lookups
// by exact or normalized model name.
type Catalog struct {
	url        string
	httpClient *http.Client
	offline    bool

	mu        sync.Mutex
	table     map[string]model.ModelPricing
	fetchedAt time.Time
}

const cacheTTL = time.Hour

// NewCatalog returns a catalog backed by the LiteLLM price table.
// When offline is true only the embedded snapshot is consulted.
func NewCatalog(offline bool) *Catalog {
	return &Catalog{
		url:        liteLLMURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		offline:    offline,
	}
}

// Lookup returns pricing for the named model. Unknown models get current
// Sonnet pricing, a middle-of-the-road default.
func (c *Catalog) Lookup(modelName string) model.ModelPricing {
	table := c.load()

	if p, ok := table[modelName]; ok {
		return p
	}

	want := normalizeName(modelName)
	for name, p := range table {
		if normalizeName(name) == want {
			return p
		}
	}

	return model.ModelPricing{
		InputCostPerToken:         3e-06,
		OutputCostPerToken:        1.5e-05,
		CacheCreationCostPerToken: 3.75e-06,
		CacheReadCostPerToken:     3e-07,
	}
}

func (c *Catalog) load() map[string]model.ModelPricing {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.table != nil && time.Since(c.fetchedAt) < cacheTTL {
		return c.table
	}

	table := embeddedTable()
	if !c.offline {
		if fetched, err := c.fetchRemote(); err == nil {
			table = fetched
		}
	}

	c.table = table
	c.fetchedAt = time.Now()
	return table
}

func (c *Catalog) fetchRemote() (map[string]model.ModelPricing, error) {
	resp, err := c.httpClient.Get(c.url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errStatus(resp.StatusCode)
	}

	var raw map[string]liteLLMEntry
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, err
	}

	table := make(map[string]model.ModelPricing)
	for name, entry := range raw {
		if entry.Provider != "anthropic" {
			continue
		}
		table[name] = model.ModelPricing{
			InputCostPerToken:         entry.InputCostPerToken,
			OutputCostPerToken:        entry.OutputCostPerToken,
			CacheCreationCostPerToken: entry.CacheCreationCost,
			CacheReadCostPerToken:     entry.CacheReadCost,
		}
	}
	return table, nil
}

type errStatus int

func (e errStatus) Error() string { return "price table returned HTTP " + http.StatusText(int(e)) }

// CostOf prices a single parsed usage record.
func CostOf(rec model.RawRecord, p model.ModelPricing) float64 {
	cost := float64(rec.InputTokens) * p.InputCostPerToken
	cost += float64(rec.OutputTokens) * p.OutputCostPerToken
	cost += float64(rec.CacheCreationTokens) * p.CacheCreationCostPerToken
	cost += float64(rec.CacheReadTokens) * p.CacheReadCostPerToken
	return cost
}

func normalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

// embeddedTable is a snapshot of Anthropic model prices, used when the
// remote table is unreachable. Dated variants resolve through name
// normalization against these base entries where possible.
func embeddedTable() map[string]model.ModelPricing {
	return map[string]model.ModelPricing{
		"claude-opus-4-5": {
			InputCostPerToken:         5e-06,
			OutputCostPerToken:        2.5e-05,
			CacheCreationCostPerToken: 6.25e-06,
			CacheReadCostPerToken:     5e-07,
		},
		"claude-opus-4-1": {
			InputCostPerToken:         1.5e-05,
			OutputCostPerToken:        7.5e-05,
			CacheCreationCostPerToken: 1.875e-05,
			CacheReadCostPerToken:     1.5e-06,
		},
		"claude-opus-4-20250514": {
			InputCostPerToken:         1.5e-05,
			OutputCostPerToken:        7.5e-05,
			CacheCreationCostPerToken: 1.875e-05,
			CacheReadCostPerToken:     1.5e-06,
		},
		"claude-sonnet-4-5": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		"claude-sonnet-4-20250514": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		"claude-3-7-sonnet-20250219": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		"claude-3-5-sonnet-20241022": {
			InputCostPerToken:         3e-06,
			OutputCostPerToken:        1.5e-05,
			CacheCreationCostPerToken: 3.75e-06,
			CacheReadCostPerToken:     3e-07,
		},
		"claude-haiku-4-5": {
			InputCostPerToken:         1e-06,
			OutputCostPerToken:        5e-06,
			CacheCreationCostPerToken: 1.25e-06,
			CacheReadCostPerToken:     1e-07,
		},
		"claude-3-5-haiku-20241022": {
			InputCostPerToken:         8e-07,
			OutputCostPerToken:        4e-06,
			CacheCreationCostPerToken: 1e-06,
			CacheReadCostPerToken:     8e-08,
		},
		"claude-3-haiku-20240307": {
			InputCostPerToken:         2.5e-07,
			OutputCostPerToken:        1.25e-06,
			CacheCreationCostPerToken: 3e-07,
			CacheReadCostPerToken:     3e-08,
		},
		"claude-3-opus-20240229": {
			InputCostPerToken:         1.5e-05,
			OutputCostPerToken:        7.5e-05,
			CacheCreationCostPerToken: 1.875e-05,
			CacheReadCostPerToken:     1.5e-06,
		},
	}
}
