package main // Entry point package

import (
	"context"
	"errors"
	"log" // Logging before zap is up
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/interatlas/management-system/internal/audit"
	"github.com/interatlas/management-system/internal/config" // Internal config loader
	"github.com/interatlas/management-system/internal/database"
	"github.com/interatlas/management-system/internal/handler"
	"github.com/interatlas/management-system/internal/logger"
	"github.com/interatlas/management-system/internal/mailer"
	"github.com/interatlas/management-system/internal/middleware"
	"github.com/interatlas/management-system/internal/queue"
	"github.com/interatlas/management-system/internal/repository"
	"github.com/interatlas/management-system/internal/router" // Internal router setup
	"github.com/interatlas/management-system/internal/service"
	"github.com/interatlas/management-system/internal/session"
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; the environment may already be set

	cfg := config.Load() // Load environment config
	logCfg := config.LoadLogConfig()

	zl, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()
	sugar := zl.Sugar()

	actionsFile, err := logger.RotatingFile(logCfg.Dir, "user_actions")
	if err != nil {
		sugar.Fatalw("open user actions log", "err", err)
	}
	mailFile, err := logger.RotatingFile(logCfg.Dir, "mail_sender")
	if err != nil {
		sugar.Fatalw("open mail log", "err", err)
	}

	db, err := database.Open(cfg)
	if err != nil {
		sugar.Fatalw("database", "err", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.EnsureSchema(ctx, db); err != nil {
		sugar.Fatalw("schema", "err", err)
	}

	// Redis is optional: without it rate limiting and forced logout are off.
	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb == nil {
		sugar.Warnw("redis unreachable, rate limiting and session revocation disabled")
	} else {
		defer rdb.Close()
	}
	sessions := session.New(rdb, "mgmt:sess", time.Duration(cfg.AccessTTLMin)*time.Minute)

	var sink audit.Sink = audit.NewFileSink(logger.LineLogger(actionsFile))
	if cfg.AuditSink == "broker" {
		pub := queue.NewPublisher(cfg.AMQPURL)
		defer pub.Close()
		sink = audit.NewBrokerSink(pub, sink, sugar)
	}

	var transport mailer.Mailer = mailer.LogOnly{}
	if mailCfg := config.LoadMailConfig(); mailCfg.Enabled() {
		smtp, err := mailer.NewSMTP(mailCfg)
		if err != nil {
			sugar.Fatalw("smtp", "err", err)
		}
		transport = smtp
	} else {
		sugar.Warnw("SMTP not configured, mail is only logged")
	}
	notifier := mailer.NewNotifier(mailer.NewLogged(transport, logger.LineLogger(mailFile)), sugar)

	users := repository.NewUserRepo(db)
	clients := repository.NewClientRepo(db)
	machines := repository.NewMachineRepo(db)
	parts := repository.NewPartRepo(db)
	inventory := repository.NewInventoryRepo(db)
	services := repository.NewServiceRepo(db)
	replaced := repository.NewReplacementRepo(db)

	ledger := service.NewLedger(db, inventory)
	links := service.NewLinks(db, repository.NewLinkRepo(db), cfg.LinkTTL)
	accounts := service.NewAccounts(db, users, links, sessions, notifier, sink, sugar, service.AccountsConfig{
		JWTSecret:     cfg.JWTSecret,
		AccessTTLMin:  cfg.AccessTTLMin,
		BcryptCost:    cfg.BcryptCost,
		PublicBaseURL: cfg.PublicBaseURL,
	})
	catalog := service.NewCatalog(db, service.CatalogRepos{
		Clients:   clients,
		Types:     repository.NewMachineTypeRepo(db),
		Machines:  machines,
		Locations: repository.NewLocationRepo(db),
		Parts:     parts,
		Inventory: inventory,
		Services:  services,
		Replaced:  replaced,
	}, ledger, sink)

	if created, err := accounts.BootstrapAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		sugar.Fatalw("bootstrap admin", "err", err)
	} else if created {
		sugar.Infow("default admin created", "email", cfg.AdminEmail)
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(middleware.RequestLog(sugar), echomw.Recover(), middleware.Prometheus())

	router.RegisterRoutes(e, handler.Health(db)) // Register health and metrics routes
	router.RegisterAPI(e, router.Handlers{
		Accounts: handler.NewAccountHandler(accounts, sugar),
		Work: handler.NewWorkHandler(
			service.NewTasks(repository.NewTaskRepo(db), users, notifier, sink, sugar),
			service.NewVisits(db, repository.NewVisitRepo(db), clients, machines, services, users, notifier, sink, sugar),
			service.NewMaintenance(db, machines, services, sink),
			service.NewReplacements(db, parts, machines, ledger, replaced, sink),
			sugar,
		),
		Catalog: handler.NewCatalogHandler(catalog, sugar),
		Reports: handler.NewReportHandler(service.NewReports(repository.NewReportRepo(db), clients, cfg.ReportMachineType), sugar),
	}, router.Guards{
		Auth:        middleware.JWTAuth(cfg.JWTSecret, sessions),
		RateLimit:   middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, sugar),
		DefaultLang: cfg.DefaultLang,
	})

	addr := ":" + cfg.Port // Address string with port
	go func() {
		sugar.Infow("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("server", "err", err)
		}
	}()

	<-ctx.Done()
	sugar.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("shutdown", "err", err)
	}
}

