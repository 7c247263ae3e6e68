// Package handlers implements the dashboard's JSON API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"ccdash/internal/aggregator"
	"ccdash/internal/currency"
	"ccdash/internal/metrics"
	"ccdash/internal/view"
	"ccdash/server/internal/state"
)

// Handler serves the usage view endpoints.
type Handler struct {
	store        *state.Store
	planCeilings []float64
	logger       *zap.Logger
}

func New(store *state.Store, planCeilings []float64, logger *zap.Logger) *Handler {
	return &Handler{
		store:        store,
		planCeilings: planCeilings,
		logger:       logger,
	}
}

// viewResponse is the full payload a dashboard page renders from.
type viewResponse struct {
	Params       paramsOut         `json:"params"`
	Table        view.PageResult   `json:"table"`
	Chart        []view.ChartPoint `json:"chart"`
	Summary      metrics.Summary   `json:"summary"`
	Currency     currency.Code     `json:"currency"`
	Rate         float64           `json:"rate"`
	RateFallback bool              `json:"rateFallback"`
	FetchedAt    time.Time         `json:"fetchedAt"`
	TotalCost    string            `json:"totalCostDisplay"`
}

type paramsOut struct {
	Period   aggregator.Period `json:"period"`
	Sort     view.SortField    `json:"sort"`
	Dir      view.SortDir      `json:"dir"`
	MinCost  *float64          `json:"minCost"`
	Page     int               `json:"page"`
	PageSize int               `json:"pageSize"`
}

// paramsFromQuery builds validated view parameters from the request.
// Anything malformed falls back to the default for that parameter.
func paramsFromQuery(q map[string][]string) view.Params {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	p := view.DefaultParams()
	p.Period = aggregator.ParsePeriod(get("period"))
	p.SortField = view.ParseSortField(get("sort"))
	if get("dir") == string(view.Asc) {
		p.SortDir = view.Asc
	}
	p = p.WithMinCost(get("min_cost"))
	if size, err := strconv.Atoi(get("page_size")); err == nil {
		p = p.WithPageSize(size)
	}
	if page, err := strconv.Atoi(get("page")); err == nil {
		p = p.WithPage(page)
	}
	return p
}

// View handles GET /api/view.
func (h *Handler) View(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	snap, conv, err := h.store.View()
	if err != nil {
		if errors.Is(err, state.ErrNoData) {
			writeError(w, http.StatusServiceUnavailable, "no usage data loaded yet")
			return
		}
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	p := paramsFromQuery(r.URL.Query())
	code := currency.Parse(r.URL.Query().Get("currency"))

	buckets := aggregator.Aggregate(snap.Usage.Daily, p.Period)
	page := view.Paginate(view.Filter(view.Sort(buckets, p.SortField, p.SortDir), p.MinCost), p.Page, p.PageSize)

	var convert func(usd float64, date string) float64
	if code == currency.INR {
		convert = func(usd float64, date string) float64 {
			return conv.Amount(usd, code, date)
		}
	}

	writeJSON(w, http.StatusOK, viewResponse{
		Params: paramsOut{
			Period:   p.Period,
			Sort:     p.SortField,
			Dir:      p.SortDir,
			MinCost:  p.MinCost,
			Page:     page.Page,
			PageSize: page.PageSize,
		},
		Table:        page,
		Chart:        view.BuildChart(buckets, convert),
		Summary:      metrics.BuildSummary(snap.Usage, buckets, h.planCeilings),
		Currency:     code,
		Rate:         conv.CurrentRate(),
		RateFallback: snap.RateFallback,
		FetchedAt:    snap.FetchedAt,
		TotalCost:    conv.Format(snap.Usage.Totals.TotalCost, code, ""),
	})
}

// SetRate handles POST /api/rate with a {"rate": 85.2} body.
func (h *Handler) SetRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var body struct {
		Rate float64 `json:"rate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !h.store.SetManualRate(body.Rate) {
		writeError(w, http.StatusBadRequest, "rate must be a positive finite number")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "rate": body.Rate})
}

// Refresh handles POST /api/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	if err := h.store.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusBadGateway, "usage refresh failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"hasData": h.store.HasData(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
