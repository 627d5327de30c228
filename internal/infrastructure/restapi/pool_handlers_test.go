package restapi

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type fakeMonitor struct {
	filters    entity.FilterSpec
	lastSpec   entity.FilterSpec
	pools      []entity.Pool
	refreshErr error
	lastError  string
	loading    bool
	exportErr  error
}

func (f *fakeMonitor) SourceStatuses() []entity.SourceState {
	return []entity.SourceState{{Source: entity.Source{ID: "taco"}, Status: entity.SourceStatusAbsent}}
}
func (f *fakeMonitor) Pools() []entity.Pool { return f.PoolsWith(f.filters) }
func (f *fakeMonitor) PoolsWith(spec entity.FilterSpec) []entity.Pool {
	f.lastSpec = spec
	return service.ApplyFilters(f.pools, spec)
}
func (f *fakeMonitor) Markets() []entity.Market          { return service.ConsolidateMarkets(f.pools) }
func (f *fakeMonitor) Loading() bool                     { return f.loading }
func (f *fakeMonitor) LastError() string                 { return f.lastError }
func (f *fakeMonitor) LastRefreshAt() *time.Time         { return nil }
func (f *fakeMonitor) Filters() entity.FilterSpec        { return f.filters }
func (f *fakeMonitor) SetFilters(spec entity.FilterSpec) { f.filters = spec }
func (f *fakeMonitor) RefreshAll(context.Context) (*service.RefreshReport, error) {
	return &service.RefreshReport{Succeeded: 1}, f.refreshErr
}
func (f *fakeMonitor) ExportDocument() entity.ExportDocument {
	return service.BuildExportDocument(f.Pools(), f.filters, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
}
func (f *fakeMonitor) ExportFilename(doc entity.ExportDocument) string {
	return service.ExportFilename("wax-pools", doc.ExportedAt)
}
func (f *fakeMonitor) Export(context.Context) (entity.ExportDocument, string, error) {
	doc := f.ExportDocument()
	if f.exportErr != nil {
		return doc, "", f.exportErr
	}
	return doc, "/tmp/" + f.ExportFilename(doc), nil
}

func newTestRouter(m *fakeMonitor) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return SetupRouter(NewPoolHandler(m, zap.NewNop()), zap.NewNop(), RouterOptions{})
}

func newFakeMonitor() *fakeMonitor {
	return &fakeMonitor{
		filters: entity.DefaultFilterSpec(),
		pools: []entity.Pool{
			{ID: "taco:1", SourceID: "taco", PairName: "TACO/WAX", Token0Symbol: "WAX", Token1Symbol: "TACO", Reserve0Amount: 100, Reserve1Amount: 50, Liquidity: 150},
			{ID: "alcor:1", SourceID: "alcor", PairName: "USDT/WAX", Token0Symbol: "WAX", Token1Symbol: "USDT", Reserve0Amount: 10, Reserve1Amount: 5, Liquidity: 15},
		},
	}
}

func do(router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetPoolsQueryOverridesFilterForRequestOnly(t *testing.T) {
	m := newFakeMonitor()
	router := newTestRouter(m)

	w := do(router, http.MethodGet, "/api/v1/pools?min_liquidity=100&sort_dir=asc", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}

	var resp APIPoolsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Total != 1 || resp.Data[0].ID != "taco:1" {
		t.Fatalf("unexpected pools: %+v", resp)
	}
	if m.lastSpec.MinLiquidity != 100 || m.lastSpec.SortDir != entity.SortAsc {
		t.Fatalf("query not applied: %+v", m.lastSpec)
	}
	if m.filters.MinLiquidity != 0 {
		t.Fatalf("held filter must not change")
	}
}

func TestGetPoolsRejectsBadQuery(t *testing.T) {
	router := newTestRouter(newFakeMonitor())
	bad := []string{
		"min_liquidity=abc", "max_liquidity=x", "active_only=maybe", "sort_dir=sideways",
		"max_liquidity=inf", "min_liquidity=NaN", "max_liquidity=-Inf", "min_reserve=nan", "min_reserve=y",
	}
	for _, q := range bad {
		w := do(router, http.MethodGet, "/api/v1/pools?"+q, "")
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", q, w.Code)
		}
		var resp apiError
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Fatalf("%s: expected an error body, got %q", q, w.Body.String())
		}
	}
}

func TestPutFiltersFillsDefaults(t *testing.T) {
	m := newFakeMonitor()
	router := newTestRouter(m)

	w := do(router, http.MethodPut, "/api/v1/filters", `{"source":"alcor","min_liquidity":10}`)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if m.filters.Source != "alcor" || m.filters.MinLiquidity != 10 {
		t.Fatalf("filter not replaced: %+v", m.filters)
	}
	if m.filters.MaxLiquidity != math.MaxFloat64 || m.filters.SortBy != entity.SortByLiquidity {
		t.Fatalf("omitted fields must default: %+v", m.filters)
	}

	if w := do(router, http.MethodPut, "/api/v1/filters", `{"source":`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", w.Code)
	}
	if w := do(router, http.MethodPut, "/api/v1/filters", `{"max_liquidity":1e999}`); w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an overflowing bound, got %d", w.Code)
	}
	if m.filters.Source != "alcor" {
		t.Fatalf("rejected filter must not replace the held one: %+v", m.filters)
	}
}

func TestGetPoolsMinReserveQuery(t *testing.T) {
	m := newFakeMonitor()
	router := newTestRouter(m)

	w := do(router, http.MethodGet, "/api/v1/pools?min_reserve=2.5", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", w.Code, w.Body.String())
	}
	if m.lastSpec.MinReserve != 2.5 {
		t.Fatalf("min_reserve not applied: %+v", m.lastSpec)
	}
}

func TestPostRefreshStatusCodes(t *testing.T) {
	m := newFakeMonitor()
	router := newTestRouter(m)

	if w := do(router, http.MethodPost, "/api/v1/refresh", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	m.refreshErr = &entity.AggregateRefreshError{Failures: []*entity.RetrievalError{{Source: "taco", Attempts: 5, Cause: errors.New("down")}}}
	w := do(router, http.MethodPost, "/api/v1/refresh", "")
	if w.Code != http.StatusBadGateway || !strings.Contains(w.Body.String(), "taco") {
		t.Fatalf("expected 502 with summary, got %d %s", w.Code, w.Body.String())
	}

	m.refreshErr = entity.ErrNoSources
	if w := do(router, http.MethodPost, "/api/v1/refresh", ""); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
}

func TestGetExportIsDatedAttachment(t *testing.T) {
	router := newTestRouter(newFakeMonitor())

	w := do(router, http.MethodGet, "/api/v1/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="wax-pools-2024-05-01.json"` {
		t.Fatalf("unexpected disposition %q", got)
	}

	var doc entity.ExportDocument
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.TotalPools != 2 || len(doc.Data) != 2 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestPostExport(t *testing.T) {
	m := newFakeMonitor()
	router := newTestRouter(m)

	w := do(router, http.MethodPost, "/api/v1/export", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "wax-pools-2024-05-01.json") {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}

	m.exportErr = errors.New("disk full")
	if w := do(router, http.MethodPost, "/api/v1/export", ""); w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestStatusSourcesMarketsAndHealth(t *testing.T) {
	m := newFakeMonitor()
	m.loading = true
	m.lastError = "retrieval for box failed after 5 attempts: down"
	router := newTestRouter(m)

	w := do(router, http.MethodGet, "/api/v1/status", "")
	var status APIStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !status.Loading || status.Error != m.lastError {
		t.Fatalf("unexpected status: %+v", status)
	}

	if w := do(router, http.MethodGet, "/api/v1/sources", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"absent"`) {
		t.Fatalf("unexpected sources response %d %s", w.Code, w.Body.String())
	}
	if w := do(router, http.MethodGet, "/api/v1/markets", ""); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "TACO/WAX") {
		t.Fatalf("unexpected markets response %d %s", w.Code, w.Body.String())
	}
	if w := do(router, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("unexpected health status %d", w.Code)
	}
	if w := do(router, http.MethodGet, "/api/v1/filters", ""); w.Code != http.StatusOK {
		t.Fatalf("unexpected filters status %d", w.Code)
	}
}
