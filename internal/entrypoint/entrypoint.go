package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/reelsync/reelsync/internal/config"
	"github.com/reelsync/reelsync/internal/database"
	"github.com/reelsync/reelsync/internal/database/favorites"
	"github.com/reelsync/reelsync/internal/database/syncqueue"
	"github.com/reelsync/reelsync/internal/database/watchlist"
	http_controllers "github.com/reelsync/reelsync/internal/http"
	"github.com/reelsync/reelsync/internal/network"
	"github.com/reelsync/reelsync/internal/remote"
	"github.com/reelsync/reelsync/internal/scheduler"
	"github.com/reelsync/reelsync/internal/sync"
	"github.com/reelsync/reelsync/internal/tasks"
	"github.com/reelsync/reelsync/internal/tmdb"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// sweepRunner drives a scheduled sweep: enqueue the maintenance tasks,
// then drain the sync queue.
type sweepRunner struct {
	manager  *sync.Manager
	tasks    *tasks.Client
	staleAge time.Duration
}

func (r *sweepRunner) SyncAll(ctx context.Context) error {
	if r.tasks != nil {
		if _, err := r.tasks.Add(tasks.CleanupSyncQueueTask{StaleAge: r.staleAge}).Save(); err != nil {
			log.Printf("Failed to enqueue sync queue maintenance: %v", err)
		}
		if _, err := r.tasks.Add(tasks.CleanupOrphanMoviesTask{}).Save(); err != nil {
			log.Printf("Failed to enqueue orphan movie cleanup: %v", err)
		}
	}
	return r.manager.SyncAll(ctx)
}

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Graceful shutdown: wait for interrupt, then give in-flight requests
	// and background workers a bounded window to finish.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Call shutdown callback first (e.g., to stop the task queue)
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting ReelSync v%s", version)

	if cfg.Supabase.URL == "" || cfg.Supabase.Key == "" {
		log.Printf("WARNING: Supabase credentials are not set. Sync passes will skip remote calls. Set 'SUPABASE_URL' and 'SUPABASE_KEY' environment variables to enable.")
	}
	if cfg.TMDB.APIKey == "" {
		log.Printf("WARNING: TMDB API key is not set. Discovery endpoints will serve the mock dataset. Set 'TMDB_API_KEY' environment variable to enable.")
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Remote backend adapter and metadata provider
	remoteClient := remote.NewSupabaseClient(cfg.Supabase.URL, cfg.Supabase.Key)
	catalog := tmdb.NewClient(cfg.TMDB.APIKey)

	// Connectivity monitor
	monitor := network.NewMonitor(network.NewHTTPChecker(cfg.Network.ProbeURL), cfg.Network.CheckInterval)
	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	monitor.Start(monitorCtx)

	// Sync manager over the shared store handle
	manager := sync.NewManager(db.DB, remoteClient, monitor, sync.Config{
		UserID:             cfg.Sync.UserID,
		MaxRetries:         cfg.Sync.MaxRetries,
		RetryDelay:         cfg.Sync.RetryDelay,
		StaleProcessingAge: cfg.Sync.StaleProcessingAge,
	})
	managerCtx, managerCancel := context.WithCancel(context.Background())
	if err := manager.Start(managerCtx); err != nil {
		log.Fatalf("Failed to start sync manager: %v", err)
	}

	// Repositories backing the HTTP surface share the manager's queue
	// configuration so enqueued operations respect the same retry ceiling.
	queueRepo := syncqueue.NewRepositoryWithMaxRetries(db.DB, cfg.Sync.MaxRetries)
	favoritesRepo := favorites.NewRepositoryForUser(db.DB, queueRepo, cfg.Sync.UserID)
	watchlistRepo := watchlist.NewRepositoryForUser(db.DB, queueRepo, cfg.Sync.UserID)

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:           cfg.Tasks.Workers,
			MaxRetries:        cfg.Tasks.MaxRetries,
			RetryDelay:        cfg.Tasks.RetryDelay,
			TaskTimeout:       cfg.Tasks.TaskTimeout,
			ReleaseAfter:      cfg.Tasks.ReleaseAfter,
			CleanupInterval:   cfg.Tasks.CleanupInterval,
			RetentionDuration: cfg.Tasks.RetentionDuration,
		}

		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		// Register task queues
		taskClient.Register(
			tasks.NewCleanupSyncQueueQueue(queueRepo),
			tasks.NewCleanupOrphanMoviesQueue(db),
		)

		// Start task workers in background
		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic sync sweep
	runner := &sweepRunner{
		manager:  manager,
		tasks:    taskClient,
		staleAge: cfg.Sync.StaleProcessingAge,
	}
	sweeper := scheduler.NewSyncSweepScheduler(runner, cfg.Sync.Schedule, cfg.Sync.Enabled)
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start sync sweep scheduler: %v", err)
	}

	routerCfg := http_controllers.RouterConfig{
		DB:           db,
		Favorites:    favoritesRepo,
		Watchlist:    watchlistRepo,
		Catalog:      catalog,
		Sync:         manager,
		Connectivity: monitor,
		UserID:       cfg.Sync.UserID,
		Version:      version,
	}

	router := http_controllers.NewRouter(routerCfg)

	// Shutdown callback for graceful cleanup
	onShutdown := func(ctx context.Context) {
		sweeper.Stop()
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
		manager.Stop()
		managerCancel()
		monitor.Stop()
		monitorCancel()
	}

	Serve(router, cfg, onShutdown)
}
