package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pool_monitor/internal/client"
	"pool_monitor/internal/config"
	"pool_monitor/internal/entity"
	"pool_monitor/internal/infrastructure/exportsink"
	"pool_monitor/internal/infrastructure/restapi"
	"pool_monitor/internal/pkg/logger"
	"pool_monitor/internal/pkg/metrics"
	"pool_monitor/internal/pkg/utils"
	"pool_monitor/internal/repository"
	"pool_monitor/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

func main() {
	root := &cobra.Command{
		Use:          "pool_monitor",
		Short:        "WAX DEX liquidity pool monitor",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path (default $CONFIG_PATH or config/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("endpoint", "", "get_table_rows endpoint URL")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic refresh",
		RunE:  runServe,
	}
	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().Duration("interval", 5*time.Minute, "refresh interval")
	serveCmd.Flags().Bool("refresh-on-start", true, "refresh all sources before the first tick")

	refreshCmd := &cobra.Command{
		Use:   "refresh",
		Short: "Run one refresh cycle and report per-source results",
		RunE:  runRefresh,
	}

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Refresh once and write the filtered pools to an export file",
		RunE:  runExport,
	}
	exportCmd.Flags().String("export-dir", "", "directory for export files")
	addFilterFlags(exportCmd.Flags())

	root.AddCommand(serveCmd, refreshCmd, exportCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is the wired object graph shared by every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	monitor *service.Monitor
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stderr)

	cfgPath, _ := cmd.Flags().GetString("config")
	explicit := cfgPath != ""
	if !explicit {
		cfgPath = utils.GetEnv("CONFIG_PATH", "config/config.yaml")
	}

	var cfg *config.Config
	if _, err := os.Stat(cfgPath); err != nil && !explicit && errors.Is(err, os.ErrNotExist) {
		logrus.Infof("Config file %s not found, using defaults", cfgPath)
		cfg = config.Default()
	} else {
		cfg, err = config.LoadConfig(cfgPath)
		if err != nil {
			return nil, err
		}
	}

	if err := config.ApplyOverrides(cfg, cmd.Flags()); err != nil {
		return nil, err
	}
	if level, err := logrus.ParseLevel(cfg.Logging.Level); err == nil {
		logrus.SetLevel(level)
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}

	zapLogger, err := logger.New(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	logger.InstallSlog(zapLogger)

	metrics.MustRegisterMetrics()

	limiter := rate.NewLimiter(rate.Limit(cfg.Chain.RateLimit), cfg.Chain.BurstLimit)
	tableClient := client.NewTableClient(cfg.Chain.Endpoint, cfg.Chain.RequestTimeout(), zapLogger, client.WithRateLimiter(limiter))

	store := repository.NewInMemorySnapshotRepository()
	retrieval := service.NewRetrievalService(tableClient, cfg.Retrieval, zapLogger)
	refresher := service.NewRefreshService(cfg.Sources, retrieval, store, zapLogger)
	exporter := service.NewExportService(exportsink.NewFileSink(cfg.Export.Dir, zapLogger), cfg.Export.FilenamePrefix, zapLogger)
	monitor := service.NewMonitor(cfg.Sources, store, refresher, exporter, zapLogger)
	monitor.SetFilters(cfg.Monitor.InitialFilters())

	zapLogger.Info("Pool monitor initialized",
		zap.String("endpoint", cfg.Chain.Endpoint),
		zap.Int("sources", len(cfg.Sources)),
		zap.Int("pageLimit", cfg.Retrieval.PageLimit),
		zap.Int("maxAttempts", cfg.Retrieval.MaxAttempts))

	return &app{cfg: cfg, logger: zapLogger, monitor: monitor}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := restapi.NewPoolHandler(a.monitor, a.logger)
	router := restapi.SetupRouter(handler, a.logger, restapi.RouterOptions{EnablePprof: a.cfg.Server.Pprof})

	srv := &http.Server{
		Addr:         a.cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(a.cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.cfg.Server.IdleTimeout) * time.Second,
	}

	run := func(ctx context.Context) error {
		return a.monitor.Run(ctx, a.cfg.Monitor.RefreshInterval(), a.cfg.Monitor.ShouldRefreshOnStart())
	}
	if err := serve(ctx, srv, run, a.logger); err != nil {
		return err
	}
	a.logger.Info("Server exiting")
	return nil
}

// serve runs srv and the refresh loop until ctx is done or the server fails. It returns
// only after both have stopped.
func serve(ctx context.Context, srv *http.Server, run func(context.Context) error, logger *zap.Logger) error {
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return run(egCtx)
	})
	eg.Go(func() error {
		logger.Info(fmt.Sprintf("Server starting on port %s", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Failed to start server", zap.Error(err))
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-egCtx.Done()
		logger.Info("Shutting down server...")

		ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		if err := srv.Shutdown(ctxShutdown); err != nil {
			logger.Error("Server forced to shutdown", zap.Error(err))
			return err
		}
		return nil
	})
	return eg.Wait()
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.monitor.RefreshAll(ctx)
	logReport(a.logger, report)
	if err != nil {
		return err
	}

	a.logger.Info("Normalized pools", zap.Int("count", len(a.monitor.AllPools())))
	return nil
}

func runExport(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.logger.Sync()

	spec, err := filterFromFlags(cmd.Flags(), a.cfg.Monitor.InitialFilters())
	if err != nil {
		return err
	}
	a.monitor.SetFilters(spec)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := a.monitor.RefreshAll(ctx)
	logReport(a.logger, report)
	if err != nil {
		return err
	}

	doc, location, err := a.monitor.Export(ctx)
	if err != nil {
		return err
	}
	a.logger.Info("Export complete", zap.String("location", location), zap.Int("pools", doc.TotalPools))
	return nil
}

// addFilterFlags registers the flags read back by filterFromFlags.
func addFilterFlags(fs *pflag.FlagSet) {
	fs.String("source", entity.AllSources, "source id or \"all\"")
	fs.Float64("min-liquidity", 0, "minimum liquidity (inclusive)")
	fs.Float64("max-liquidity", 0, "maximum liquidity (inclusive), 0 means unbounded")
	fs.Float64("min-reserve", 0, "minimum amount for each reserve (inclusive), overrides monitor.minReserve")
	fs.String("search", "", "case-insensitive token or pair search")
	fs.Bool("active-only", false, "only pools with both reserves above zero")
	fs.String("sort-by", string(entity.SortByLiquidity), "liquidity, volume, price or pair")
	fs.String("sort-dir", string(entity.SortDesc), "asc or desc")
}

func filterFromFlags(flags *pflag.FlagSet, spec entity.FilterSpec) (entity.FilterSpec, error) {
	spec.Source, _ = flags.GetString("source")
	spec.MinLiquidity, _ = flags.GetFloat64("min-liquidity")
	if flags.Changed("min-reserve") {
		spec.MinReserve, _ = flags.GetFloat64("min-reserve")
	}
	if maxLiq, _ := flags.GetFloat64("max-liquidity"); maxLiq > 0 {
		spec.MaxLiquidity = maxLiq
	}
	spec.Search, _ = flags.GetString("search")
	spec.ActiveOnly, _ = flags.GetBool("active-only")

	sortBy, _ := flags.GetString("sort-by")
	spec.SortBy = entity.SortField(sortBy)
	sortDir, _ := flags.GetString("sort-dir")
	spec.SortDir = entity.SortDirection(sortDir)
	if spec.SortDir != entity.SortAsc && spec.SortDir != entity.SortDesc {
		return spec, fmt.Errorf("invalid --sort-dir %q", sortDir)
	}
	if err := spec.ValidateBounds(); err != nil {
		return spec, fmt.Errorf("invalid filter flags: %w", err)
	}
	return spec, nil
}

func logReport(l *zap.Logger, report *service.RefreshReport) {
	if report == nil {
		return
	}
	for _, r := range report.Results {
		if r.Status == entity.SourceStatusOK {
			l.Info("Source refreshed", zap.String("source", r.SourceID), zap.Int("rows", r.Rows))
			continue
		}
		l.Warn("Source failed", zap.String("source", r.SourceID), zap.Int("attempts", r.Attempts), zap.String("error", r.Error))
	}
}
