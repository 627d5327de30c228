package restapi

import (
	"net/http"
	"net/http/pprof"

	"pool_monitor/internal/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// RouterOptions toggles the optional endpoints.
type RouterOptions struct {
	EnablePprof bool
}

// SetupRouter настраивает и возвращает экземпляр Gin роутера.
func SetupRouter(handler *PoolHandler, logger *zap.Logger, opts RouterOptions) *gin.Engine {
	router := gin.New()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition"}
	router.Use(cors.New(corsConfig))

	router.Use(utils.ZapLoggerMiddleware(logger))
	router.Use(gin.Recovery())

	// Группа для API v1
	v1 := router.Group("/api/v1")
	{
		v1.GET("/sources", handler.GetSourcesHandler)
		v1.GET("/pools", handler.GetPoolsHandler)
		v1.GET("/filters", handler.GetFiltersHandler)
		v1.PUT("/filters", handler.PutFiltersHandler)
		v1.POST("/refresh", handler.PostRefreshHandler)
		v1.GET("/status", handler.GetStatusHandler)
		v1.GET("/export", handler.GetExportHandler)
		v1.POST("/export", handler.PostExportHandler)
		v1.GET("/markets", handler.GetMarketsHandler)
	}

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.EnablePprof {
		pprofRouter := router.Group("/debug/pprof")
		{
			pprofRouter.GET("/", gin.WrapF(pprof.Index))
			pprofRouter.GET("/cmdline", gin.WrapF(pprof.Cmdline))
			pprofRouter.GET("/profile", gin.WrapF(pprof.Profile))
			pprofRouter.POST("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/symbol", gin.WrapF(pprof.Symbol))
			pprofRouter.GET("/trace", gin.WrapF(pprof.Trace))
			pprofRouter.GET("/heap", gin.WrapH(pprof.Handler("heap")))
			pprofRouter.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
		}
	}

	return router
}
