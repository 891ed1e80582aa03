package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iliyamo/ticketflow/internal/config"
	"github.com/iliyamo/ticketflow/internal/database"
	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/repository"
	"github.com/iliyamo/ticketflow/internal/router"
	"github.com/iliyamo/ticketflow/internal/security"
	"github.com/iliyamo/ticketflow/internal/service"
	"github.com/iliyamo/ticketflow/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{Service: "ticketflow-api"})
		boot.Fatal().Err(err).Msg("configuration")
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "ticketflow-api"})

	db, err := database.Open(cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Str("host", cfg.DB.Host).Msg("connect mysql")
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn().Str("addr", cfg.Redis.Addr).Msg("redis unavailable: rate limiting and response cache disabled")
	} else {
		defer rdb.Close()
	}

	var publisher service.Publisher = service.NopPublisher{}
	if cfg.Broker.URL != "" {
		qp := service.NewQueuePublisher(cfg.Broker.URL, cfg.Broker.Queue, log)
		defer qp.Close()
		publisher = qp
	}

	users := repository.NewUserRepo(db)
	events := repository.NewEventRepo(db)
	ticketTypes := repository.NewTicketTypeRepo(db)

	hasher := security.NewHasher(cfg.Auth.BcryptCost)
	tokens := security.NewTokenService(cfg.Auth.JWTSecret)
	lockout := service.NewLockout(users, cfg.Auth.LockoutThreshold)

	auth, err := service.NewAuthService(users, hasher, tokens, lockout, publisher, log)
	if err != nil {
		log.Fatal().Err(err).Msg("init auth service")
	}
	admin := service.NewUserAdmin(users, hasher, lockout, log)
	catalog := service.NewEventService(events, ticketTypes, log)
	inventory := service.NewInventory(ticketTypes, publisher, log)

	e := router.New(router.Deps{
		Config:    cfg,
		Log:       log,
		Redis:     rdb,
		Tokens:    tokens,
		Owners:    events,
		Readiness: handler.NewReadinessHandler(db, rdb),
		Auth:      handler.NewAuthHandler(auth, handler.CookieSettings{Name: cfg.Auth.CookieName, Secure: cfg.Production()}),
		Events:    handler.NewEventHandler(catalog),
		Customers: handler.NewCustomerHandler(inventory),
		Users:     handler.NewAdminUserHandler(admin, lockout.Threshold()),
	})

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
