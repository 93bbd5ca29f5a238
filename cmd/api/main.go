package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-desk/internal/api/http"
	"github.com/spec-kit/support-desk/internal/api/http/handlers"
	"github.com/spec-kit/support-desk/internal/auth"
	"github.com/spec-kit/support-desk/internal/config"
	"github.com/spec-kit/support-desk/internal/events"
	"github.com/spec-kit/support-desk/internal/extract"
	"github.com/spec-kit/support-desk/internal/observability"
	"github.com/spec-kit/support-desk/internal/persistence"
	"github.com/spec-kit/support-desk/internal/repository"
	"github.com/spec-kit/support-desk/internal/research"
	"github.com/spec-kit/support-desk/internal/service"
	"github.com/spec-kit/support-desk/internal/worker"
)

const metricsNamespace = "support_desk"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Env)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics(metricsNamespace)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	attachmentRepo := repository.NewAttachmentRepository(pool)
	researchRepo := repository.NewResearchRepository(pool)
	calendarRepo := repository.NewCalendarRepository(pool)

	if err := pg.RegisterMetrics(metrics.Registry(), metricsNamespace); err != nil {
		logger.Fatal("register postgres metrics", zap.Error(err))
	}
	if err := redis.RegisterMetrics(metrics.Registry(), metricsNamespace); err != nil {
		logger.Fatal("register redis metrics", zap.Error(err))
	}

	dispatcher := events.NewInMemoryDispatcher(logger.Named("events"))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(cfg.Auth, userRepo, tokens)
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)

	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:         ticketRepo,
		AttachmentRepo:     attachmentRepo,
		ResearchRepo:       researchRepo,
		Extractor:          extract.New(logger.Named("extract")),
		Dispatcher:         dispatcher,
		Recorder:           metrics,
		Logger:             logger.Named("tickets"),
		Config:             cfg.Tickets,
		MaxAttachmentBytes: cfg.Research.MaxAttachmentBytes,
	})

	researchService := service.NewResearchService(service.ResearchDependencies{
		Searcher:          newPipeline(cfg.Research, redis, metrics, logger.Named("research")),
		Summarizer:        research.NewSummarizer(research.NewHTTPClient(cfg.Research.UserAgent), cfg.Research.SummaryTimeout(), cfg.Research.SummaryContentLimit, logger.Named("summarizer")),
		TicketRepo:        ticketRepo,
		ResearchRepo:      researchRepo,
		Dispatcher:        dispatcher,
		Logger:            logger.Named("research"),
		DefaultMaxResults: cfg.Research.DefaultMaxResults,
	})
	calendarService := service.NewCalendarService(calendarRepo, ticketRepo)
	adminService := service.NewAdminService(ticketRepo, userRepo)

	var scheduler *worker.OverdueScheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = worker.NewOverdueScheduler(cfg.Scheduler.OverdueSpec, ticketService, metrics, logger.Named("scheduler"))
		if err != nil {
			logger.Fatal("invalid overdue schedule", zap.Error(err))
		}
	}
	background := worker.StartBackground(
		service.NewNotificationService(dispatcher, logger.Named("notifications"), cfg.Notification),
		scheduler,
		logger.Named("worker"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler(logger),
	})
	httptransport.RegisterMiddlewares(app, logger.Named("http"), metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Users:          handlers.NewUsersHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, cfg.Research.MaxAttachmentBytes),
		Research:       handlers.NewResearchHandler(researchService),
		Calendar:       handlers.NewCalendarHandler(calendarService),
		Admin:          handlers.NewAdminHandler(adminService),
		AuthMiddleware: authMiddleware,
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("fiber shutdown", zap.Error(err))
	}
	background.Stop(shutdownCtx)
}

// newPipeline assembles the retrieval ladder: the JSON provider, the HTML
// scrape, then the built-in stub. Outcomes are cached when a TTL is set.
func newPipeline(cfg config.ResearchConfig, redis *persistence.Redis, metrics *observability.Metrics, logger *zap.Logger) *research.Pipeline {
	client := research.NewHTTPClient(cfg.UserAgent)
	tiers := []research.Tier{
		{
			Name:    research.TierProvider,
			Source:  research.NewAPIProvider(client, cfg.ProviderURL, cfg.SnippetCharacterLimit),
			Timeout: cfg.ProviderTimeout(),
		},
		{
			Name:    research.TierScrape,
			Source:  research.NewHTMLScraper(client, cfg.ScrapeURL, cfg.SnippetCharacterLimit),
			Timeout: cfg.ScrapeTimeout(),
		},
	}

	opts := []research.Option{research.WithObserver(metrics)}
	if cache := research.NewRedisCache(redis.Client, cfg.CacheTTL()); cache != nil {
		opts = append(opts, research.WithCache(cache))
	}
	return research.NewPipeline(logger, cfg.MaxResultsCap, tiers, opts...)
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
