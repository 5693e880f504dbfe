package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"authbridge/internal/bridge/extapi"
	bridgehandler "authbridge/internal/bridge/handler"
	bridgeservice "authbridge/internal/bridge/service"
	"authbridge/internal/bridge/store/pending"
	"authbridge/internal/bridge/store/savedrequest"
	"authbridge/internal/bridge/store/securitycontext"
	"authbridge/internal/consent"
	consenthandler "authbridge/internal/consent/handler"
	"authbridge/internal/consent/publisher"
	consentservice "authbridge/internal/consent/service"
	consentpg "authbridge/internal/consent/store/postgres"
	enginehandler "authbridge/internal/engine/handler"
	"authbridge/internal/engine/registry"
	engineservice "authbridge/internal/engine/service"
	"authbridge/internal/extidp"
	"authbridge/internal/jwtauth"
	"authbridge/internal/platform/config"
	"authbridge/internal/platform/httpserver"
	"authbridge/internal/platform/logger"
	platformredis "authbridge/internal/platform/redis"
	httptransport "authbridge/internal/transport/http"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	// Session-correlation stores: Redis when configured, in-memory otherwise.
	var (
		pendingStore  pending.Store
		savedStore    savedrequest.Store
		securityStore securitycontext.Store
	)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		pendingStore = pending.NewRedisStore(redisClient.Client, cfg.PendingTTL)
		savedStore = savedrequest.NewRedisStore(redisClient.Client, cfg.PendingTTL)
		securityStore = securitycontext.NewRedisStore(redisClient.Client, cfg.SessionTTL)
		log.Info("using redis-backed session stores")
	} else {
		pendingStore = pending.NewInMemoryStore(cfg.PendingTTL)
		savedStore = savedrequest.NewInMemoryStore(cfg.PendingTTL)
		securityStore = securitycontext.NewInMemoryStore(cfg.SessionTTL)
		log.Info("using in-memory session stores")
	}

	// Consent ledger: Postgres when configured, in-memory otherwise.
	var consentStore consent.Store
	if cfg.Postgres.DSN != "" {
		db, err := consentpg.Open(cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := consentpg.Schema(context.Background(), db); err != nil {
			return err
		}
		consentStore = consentpg.New(db)
		log.Info("using postgres consent ledger")
	} else {
		consentStore = consent.NewInMemoryStore()
		log.Info("using in-memory consent ledger")
	}

	// Optional Kafka mirror of consent events.
	var mirror consentservice.EventMirror
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := publisher.NewKafka(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaPublisher.Close()
		mirror = kafkaPublisher
		log.Info("mirroring consent events to kafka", "topic", cfg.Kafka.Topic)
	}

	consentSvc := consentservice.New(consentStore, mirror, consentservice.AlwaysReconsent, log)

	clients := registry.NewInMemoryFromSeeds(cfg.ClientSeeds)

	identity := extapi.New(
		cfg.ExternalAuth.FullAPIURL(),
		cfg.ExternalAuth.PlatformID,
		cfg.ExternalAuth.ConnectTimeout,
		cfg.ExternalAuth.ReadTimeout,
	)

	bridgeSvc := bridgeservice.New(
		pendingStore,
		savedStore,
		securityStore,
		clients,
		identity,
		cfg.ExternalAuth.FullLoginURL(),
		log,
	)
	engineSvc := engineservice.New(clients, securityStore, savedStore, pendingStore, consentSvc, log)

	jwtService := jwtauth.NewJWTService(cfg.JWTSigningKey, "authbridge", "authbridge-admin")
	jwtValidator := jwtauth.NewJWTServiceAdapter(jwtService)

	surfaces := []httptransport.RouteRegistrar{
		bridgehandler.New(bridgeSvc, cfg.BaseURL, log),
		enginehandler.New(engineSvc, log),
		consenthandler.New(consentSvc, log, jwtValidator),
	}
	if cfg.EmbedProvider {
		providerStore := extidp.NewInMemoryStore(cfg.SessionTTL)
		surfaces = append(surfaces, extidp.New(providerStore, log))
		log.Info("serving embedded external provider stand-in")
	}

	router := httptransport.NewRouter(log, surfaces...)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting authbridge", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
