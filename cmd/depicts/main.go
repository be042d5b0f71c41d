package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"depictsgo/internal/api"
	"depictsgo/pkg/browse"
	"depictsgo/pkg/cache"
	"depictsgo/pkg/catalog"
	"depictsgo/pkg/commons"
	"depictsgo/pkg/config"
	"depictsgo/pkg/db"
	"depictsgo/pkg/logging"
	"depictsgo/pkg/request"
	"depictsgo/pkg/store"
	"depictsgo/pkg/tracker"
	"depictsgo/pkg/version"
	"depictsgo/pkg/wdqs"
	"depictsgo/pkg/wikidata"
)

var (
	configPath = flag.String("config", "configs/depicts.yaml", "Path to config file")
	initConfig = flag.Bool("init-config", false, "Generate default config file and exit")
)

func main() {
	flag.Parse()

	// .env overrides are optional, absence is fine
	_ = godotenv.Load()

	if *initConfig {
		if err := config.GenerateDefault(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Config file generated: %s\n", *configPath)
		return
	}

	if err := run(context.Background(), *configPath); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL ERROR: Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	appCfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	cleanupLogs, err := logging.Init(&appCfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer cleanupLogs()

	slog.Info("Depicts Started", "version", version.Version)

	dbConn, err := db.Init(appCfg.DB.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbConn.Close()
	st := store.NewSQLiteStore(dbConn)

	diskStore, err := cache.NewDirStore(appCfg.Cache.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize cache dir: %w", err)
	}
	responseCache := cache.New(diskStore, slog.With("component", "cache"))

	tr := tracker.New()
	svcs := initCoreServices(appCfg, tr, responseCache, st)

	return runServer(ctx, appCfg, svcs, tr, st)
}

// CoreServices bundles the wired clients and the browse service.
type CoreServices struct {
	BrowseSvc *browse.Service
	ReqClient *request.Client
}

func initCoreServices(cfg *config.Config, tr *tracker.Tracker, responseCache *cache.Cache, st *store.SQLiteStore) *CoreServices {
	reqClient := request.New(tr, time.Duration(cfg.Request.Timeout), cfg.Request.UserAgent)
	// Scraped institution pages get a shorter leash than the APIs
	scrapeClient := request.New(tr, time.Duration(cfg.Request.ScrapeTimeout), cfg.Request.UserAgent)

	queryClient := wdqs.NewClient(reqClient, responseCache.WithMetrics(tr, "wdqs"), st, slog.With("component", "wdqs"))
	queryClient.Tracker = tr
	if cfg.Wikidata.QueryEndpoint != "" {
		queryClient.Endpoint = cfg.Wikidata.QueryEndpoint
	}

	wikiClient := wikidata.NewClient(reqClient, responseCache.WithMetrics(tr, "wikidata"), slog.With("component", "wikidata"))
	if cfg.Wikidata.APIEndpoint != "" {
		wikiClient.APIEndpoint = cfg.Wikidata.APIEndpoint
	}

	commonsClient := commons.NewClient(reqClient, responseCache.WithMetrics(tr, "commons"), slog.With("component", "commons"))

	catalogSvc := catalog.NewService(scrapeClient, time.Duration(cfg.Request.ScrapeTimeout), slog.With("component", "catalog"))

	browseSvc := browse.New(queryClient, wikiClient, commonsClient, catalogSvc, st, cfg.Browse, slog.With("component", "browse"))

	return &CoreServices{
		BrowseSvc: browseSvc,
		ReqClient: reqClient,
	}
}

func runServer(ctx context.Context, cfg *config.Config, svcs *CoreServices, tr *tracker.Tracker, st *store.SQLiteStore) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	shutdownFunc := func() { quit <- syscall.SIGTERM }

	srv := api.NewServer(cfg.Server.Address,
		api.NewBrowseHandler(svcs.BrowseSvc),
		api.NewStatsHandler(tr, st),
		api.NewEditHandler(st),
		shutdownFunc,
	)

	srv.Handler = loggingMiddleware(srv.Handler)
	return runServerLifecycle(ctx, srv, quit)
}

func runServerLifecycle(ctx context.Context, srv *http.Server, quit chan os.Signal) error {
	slog.Info("Starting server", "addr", srv.Addr)
	serverErrors := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()
	select {
	case <-quit:
		slog.Info("Shutting down server...")
	case <-ctx.Done():
		slog.Info("Context cancelled, shutting down...")
	case err := <-serverErrors:
		return fmt.Errorf("server failed: %w", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		logging.RequestLogger.Info("Request Processed", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
