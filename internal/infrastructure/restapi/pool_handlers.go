package restapi

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"pool_monitor/internal/entity"
	"pool_monitor/internal/service"

	"github.com/gin-gonic/gin"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// PoolMonitor is what the handlers need from service.Monitor.
type PoolMonitor interface {
	SourceStatuses() []entity.SourceState
	Pools() []entity.Pool
	PoolsWith(spec entity.FilterSpec) []entity.Pool
	Markets() []entity.Market
	Loading() bool
	LastError() string
	LastRefreshAt() *time.Time
	Filters() entity.FilterSpec
	SetFilters(spec entity.FilterSpec)
	RefreshAll(ctx context.Context) (*service.RefreshReport, error)
	ExportDocument() entity.ExportDocument
	ExportFilename(doc entity.ExportDocument) string
	Export(ctx context.Context) (entity.ExportDocument, string, error)
}

// APIPoolsResponse определяет структуру ответа для эндпоинта пулов.
type APIPoolsResponse struct {
	Data    []entity.Pool     `json:"data"`
	Total   int               `json:"total"`
	Filters entity.FilterSpec `json:"filters"`
}

// APIStatusResponse is the loading flag plus the aggregated error of the last refresh.
type APIStatusResponse struct {
	Loading       bool       `json:"loading"`
	Error         string     `json:"error,omitempty"`
	LastRefreshAt *time.Time `json:"last_refresh_at,omitempty"`
}

type apiError struct {
	Error string `json:"error"`
}

// PoolHandler обрабатывает HTTP запросы, связанные с пулами.
type PoolHandler struct {
	monitor PoolMonitor
	logger  *zap.Logger
}

// NewPoolHandler создает новый экземпляр PoolHandler.
func NewPoolHandler(monitor PoolMonitor, logger *zap.Logger) *PoolHandler {
	return &PoolHandler{
		monitor: monitor,
		logger:  logger.Named("PoolHandler"),
	}
}

// GetSourcesHandler returns the per-source status.
func (h *PoolHandler) GetSourcesHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sources": h.monitor.SourceStatuses()})
}

// GetPoolsHandler returns the filtered, sorted pools. Query parameters override the held
// filter for this request only.
func (h *PoolHandler) GetPoolsHandler(c *gin.Context) {
	spec, err := filterFromQuery(c, h.monitor.Filters())
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	pools := h.monitor.PoolsWith(spec)
	c.JSON(http.StatusOK, APIPoolsResponse{Data: pools, Total: len(pools), Filters: spec})
}

// GetFiltersHandler returns the held filter.
func (h *PoolHandler) GetFiltersHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.monitor.Filters())
}

// PutFiltersHandler replaces the held filter. Omitted fields take their default values.
func (h *PoolHandler) PutFiltersHandler(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: "failed to read body"})
		return
	}

	spec := entity.DefaultFilterSpec()
	if err := json.Unmarshal(body, &spec); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: fmt.Sprintf("invalid filter: %v", err)})
		return
	}
	if err := validateDirection(spec.SortDir); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}
	if err := spec.ValidateBounds(); err != nil {
		c.JSON(http.StatusBadRequest, apiError{Error: err.Error()})
		return
	}

	h.monitor.SetFilters(spec)
	c.JSON(http.StatusOK, spec)
}

// PostRefreshHandler runs or joins a refresh cycle. 502 only when every source failed.
func (h *PoolHandler) PostRefreshHandler(c *gin.Context) {
	// refresh outlives a disconnecting client; joined callers share it
	ctx := context.WithoutCancel(c.Request.Context())

	report, err := h.monitor.RefreshAll(ctx)
	if err != nil {
		var agg *entity.AggregateRefreshError
		switch {
		case errors.As(err, &agg):
			c.JSON(http.StatusBadGateway, gin.H{"report": report, "error": agg.Summary()})
		case errors.Is(err, entity.ErrNoSources):
			c.JSON(http.StatusServiceUnavailable, apiError{Error: err.Error()})
		default:
			h.logger.Error("Refresh failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, apiError{Error: err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

// GetStatusHandler returns the loading flag and last aggregated error.
func (h *PoolHandler) GetStatusHandler(c *gin.Context) {
	c.JSON(http.StatusOK, APIStatusResponse{
		Loading:       h.monitor.Loading(),
		Error:         h.monitor.LastError(),
		LastRefreshAt: h.monitor.LastRefreshAt(),
	})
}

// GetExportHandler streams the export document as a dated attachment.
func (h *PoolHandler) GetExportHandler(c *gin.Context) {
	doc := h.monitor.ExportDocument()
	data, err := service.EncodeExportDocument(doc)
	if err != nil {
		h.logger.Error("Failed to encode export", zap.Error(err))
		c.JSON(http.StatusInternalServerError, apiError{Error: "failed to encode export"})
		return
	}

	filename := h.monitor.ExportFilename(doc)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/json", data)
}

// PostExportHandler saves the export document through the configured sink.
func (h *PoolHandler) PostExportHandler(c *gin.Context) {
	doc, location, err := h.monitor.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apiError{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"location": location, "total_pools": doc.TotalPools, "exported_at": doc.ExportedAt})
}

// GetMarketsHandler returns pools consolidated by pair.
func (h *PoolHandler) GetMarketsHandler(c *gin.Context) {
	markets := h.monitor.Markets()
	c.JSON(http.StatusOK, gin.H{"data": markets, "total": len(markets)})
}

func filterFromQuery(c *gin.Context, spec entity.FilterSpec) (entity.FilterSpec, error) {
	if v, ok := c.GetQuery("source"); ok {
		spec.Source = v
	}
	if v, ok := c.GetQuery("search"); ok {
		spec.Search = v
	}
	if v, ok := c.GetQuery("min_liquidity"); ok {
		f, err := parseBound(v)
		if err != nil {
			return spec, fmt.Errorf("invalid min_liquidity %q", v)
		}
		spec.MinLiquidity = f
	}
	if v, ok := c.GetQuery("max_liquidity"); ok {
		f, err := parseBound(v)
		if err != nil {
			return spec, fmt.Errorf("invalid max_liquidity %q", v)
		}
		spec.MaxLiquidity = f
	}
	if v, ok := c.GetQuery("min_reserve"); ok {
		f, err := parseBound(v)
		if err != nil {
			return spec, fmt.Errorf("invalid min_reserve %q", v)
		}
		spec.MinReserve = f
	}
	if v, ok := c.GetQuery("active_only"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return spec, fmt.Errorf("invalid active_only %q", v)
		}
		spec.ActiveOnly = b
	}
	if v, ok := c.GetQuery("sort_by"); ok {
		spec.SortBy = entity.SortField(v)
	}
	if v, ok := c.GetQuery("sort_dir"); ok {
		spec.SortDir = entity.SortDirection(v)
		if err := validateDirection(spec.SortDir); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

// parseBound accepts finite numbers only; strconv alone lets "inf" and "NaN" through.
func parseBound(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("non-finite value %q", v)
	}
	return f, nil
}

func validateDirection(dir entity.SortDirection) error {
	switch dir {
	case entity.SortAsc, entity.SortDesc, "":
		return nil
	default:
		return fmt.Errorf("invalid sort_dir %q", dir)
	}
}
