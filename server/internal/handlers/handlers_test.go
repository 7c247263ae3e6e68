package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ccdash/internal/currency"
	"ccdash/internal/model"
	"ccdash/server/internal/state"
)

type stubSource struct {
	resp model.UsageResponse
	err  error
}

func (s *stubSource) Fetch(ctx context.Context) (model.UsageResponse, error) {
	return s.resp, s.err
}

type stubRates struct{ rate float64 }

func (s *stubRates) FetchINR(ctx context.Context) (float64, bool) {
	return s.rate, false
}

func fixtureUsage() model.UsageResponse {
	daily := []model.DailyUsage{
		{Date: "2024-03-01", InputTokens: 500_000, OutputTokens: 100_000, TotalTokens: 600_000, TotalCost: 2},
		{Date: "2024-03-02", InputTokens: 700_000, OutputTokens: 100_000, TotalTokens: 800_000, TotalCost: 3},
		{Date: "2024-03-03", InputTokens: 300_000, OutputTokens: 300_000, TotalTokens: 600_000, TotalCost: 1},
	}
	return model.UsageResponse{
		Daily:  daily,
		Totals: model.Totals{TotalCost: 6, TotalTokens: 2_000_000, InputTokens: 1_500_000, OutputTokens: 500_000},
	}
}

func newHandler(t *testing.T) *Handler {
	t.Helper()
	store := state.New(&stubSource{resp: fixtureUsage()}, &stubRates{rate: 83}, currency.DefaultRate, zap.NewNop())
	require.NoError(t, store.Refresh(context.Background()))
	return New(store, []float64{100, 200}, zap.NewNop())
}

func getView(t *testing.T, h *Handler, query string) viewResponse {
	t.Helper()
	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest("GET", "/api/view"+query, nil))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp viewResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestViewDefaults(t *testing.T) {
	resp := getView(t, newHandler(t), "")

	assert.Equal(t, "daily", string(resp.Params.Period))
	assert.Equal(t, "date", string(resp.Params.Sort))
	assert.Equal(t, "desc", string(resp.Params.Dir))

	require.Len(t, resp.Table.Items, 3)
	assert.Equal(t, "2024-03-03", resp.Table.Items[0].Date, "newest first by default")

	// Chart stays chronological regardless of table sorting.
	require.Len(t, resp.Chart, 3)
	assert.Equal(t, "2024-03-01", resp.Chart[0].Date)
	assert.InDelta(t, 0.6, resp.Chart[0].Tokens, 1e-9, "tokens in millions")

	assert.Equal(t, "$6.00", resp.TotalCost)
	assert.InDelta(t, 3.0, resp.Summary.CostPerMillionTokens, 1e-9)
}

func TestViewSortFilterPage(t *testing.T) {
	resp := getView(t, newHandler(t), "?sort=totalCost&dir=asc&min_cost=2&page_size=10")

	require.Len(t, resp.Table.Items, 2)
	assert.Equal(t, "2024-03-01", resp.Table.Items[0].Date)
	assert.Equal(t, "2024-03-02", resp.Table.Items[1].Date)
	require.NotNil(t, resp.Params.MinCost)
	assert.Equal(t, 2.0, *resp.Params.MinCost)
}

func TestViewWeekly(t *testing.T) {
	resp := getView(t, newHandler(t), "?period=weekly")

	// 2024-03-01 is a Friday; all three days share the week of Mon 2024-02-26.
	require.Len(t, resp.Table.Items, 1)
	assert.Equal(t, "2024-02-26", resp.Table.Items[0].Date)
	assert.Equal(t, 6.0, resp.Table.Items[0].TotalCost)
}

func TestViewINR(t *testing.T) {
	resp := getView(t, newHandler(t), "?currency=inr")

	assert.Equal(t, currency.INR, resp.Currency)
	assert.Equal(t, 83.0, resp.Rate)
	assert.Equal(t, "₹498", resp.TotalCost)
	assert.InDelta(t, 2*83, resp.Chart[0].Cost, 1e-9, "chart costs converted")
}

func TestViewBadParamsFallBack(t *testing.T) {
	resp := getView(t, newHandler(t), "?period=hourly&sort=bogus&page_size=7&min_cost=abc")

	assert.Equal(t, "daily", string(resp.Params.Period))
	assert.Equal(t, "date", string(resp.Params.Sort))
	assert.Equal(t, 10, resp.Params.PageSize)
	assert.Nil(t, resp.Params.MinCost)
}

func TestViewNoData(t *testing.T) {
	store := state.New(&stubSource{}, &stubRates{rate: 83}, currency.DefaultRate, zap.NewNop())
	h := New(store, []float64{100, 200}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest("GET", "/api/view", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSetRate(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.SetRate(rec, httptest.NewRequest("POST", "/api/rate", strings.NewReader(`{"rate":90}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	resp := getView(t, h, "?currency=inr")
	assert.Equal(t, 90.0, resp.Rate)
	assert.Equal(t, "₹540", resp.TotalCost)
}

func TestSetRateInvalid(t *testing.T) {
	h := newHandler(t)

	for _, body := range []string{`{"rate":0}`, `{"rate":-5}`, `not json`} {
		rec := httptest.NewRecorder()
		h.SetRate(rec, httptest.NewRequest("POST", "/api/rate", strings.NewReader(body)))
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}

	// State is unchanged after rejections.
	resp := getView(t, h, "?currency=inr")
	assert.Equal(t, 83.0, resp.Rate)
}

func TestRefreshEndpoint(t *testing.T) {
	src := &stubSource{resp: fixtureUsage()}
	store := state.New(src, &stubRates{rate: 83}, currency.DefaultRate, zap.NewNop())
	h := New(store, []float64{100, 200}, zap.NewNop())

	rec := httptest.NewRecorder()
	h.Refresh(rec, httptest.NewRequest("POST", "/api/refresh", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, store.HasData())
}

func TestHealth(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest("GET", "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["hasData"])
}

func TestMethodNotAllowed(t *testing.T) {
	h := newHandler(t)

	rec := httptest.NewRecorder()
	h.View(rec, httptest.NewRequest("POST", "/api/view", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	h.SetRate(rec, httptest.NewRequest("GET", "/api/rate", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
