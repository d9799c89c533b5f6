// Command server runs the probation case-management API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"casework/internal/access"
	accessmetrics "casework/internal/access/metrics"
	courthandler "casework/internal/court/handler"
	courtservice "casework/internal/court/service"
	courtstore "casework/internal/court/store"
	custodyhandler "casework/internal/custody/handler"
	custodymetrics "casework/internal/custody/metrics"
	custodyservice "casework/internal/custody/service"
	custodystore "casework/internal/custody/store"
	"casework/internal/jwttoken"
	"casework/internal/notification"
	"casework/internal/notification/kafka"
	offenderhandler "casework/internal/offender/handler"
	offenderservice "casework/internal/offender/service"
	offenderstore "casework/internal/offender/store"
	"casework/internal/platform/config"
	"casework/internal/platform/features"
	"casework/internal/platform/httpserver"
	"casework/internal/platform/logger"
	platformredis "casework/internal/platform/redis"
	"casework/internal/reference"
	httptransport "casework/internal/transport/http"
	"casework/pkg/platform/telemetry"
	"casework/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Error("opening database", "error", err.Error())
		os.Exit(1)
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error("database unreachable", "error", err.Error())
		os.Exit(1)
	}

	rdb, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting redis", "error", err.Error())
		os.Exit(1)
	}
	var redisClient *goredis.Client
	if rdb != nil {
		redisClient = rdb.Client
		defer rdb.Close()
	}

	switches, err := features.New(redisClient, log, cfg.CustodyUpdateEnabled, cfg.CourtCodeAllowedPattern)
	if err != nil {
		log.Error("building feature switches", "error", err.Error())
		os.Exit(1)
	}

	var notifier notification.Notifier
	var dispatcher *kafka.Dispatcher
	if len(cfg.Kafka.Brokers) > 0 {
		dispatcher, err = kafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("connecting kafka", "error", err.Error())
			os.Exit(1)
		}
		defer dispatcher.Close()
		if err := dispatcher.EnsureTopic(ctx, 3, 1); err != nil {
			log.Error("ensuring notification topic", "error", err.Error())
			os.Exit(1)
		}
		notifier = dispatcher
	} else {
		log.Warn("no kafka brokers configured, notifications will be dropped")
		notifier = notification.Noop{}
	}

	offenderStore := offenderstore.NewPostgres(db)
	eventStore := custodystore.NewPostgresEvents(db)
	historyStore := custodystore.NewPostgresHistory(db)
	refStore := reference.NewPostgresStore(db)
	courtStore := courtstore.NewPostgres(db)
	directory := access.NewPostgresDirectory(db)

	gate := access.NewGate(directory,
		cfg.IgnoreExclusionAuthorities, cfg.IgnoreRestrictionAuthorities,
		accessmetrics.New(), log)

	offenderSvc := offenderservice.New(offenderStore, eventStore, log)
	custodySvc := custodyservice.New(offenderSvc, eventStore, historyStore, refStore, gate,
		switches, notifier, telemetry.New(log), custodymetrics.New(), tx.NewSQLRunner(db), log)
	courtSvc := courtservice.New(courtStore, refStore, switches, log)

	tokens := jwttoken.NewService(cfg.JWTSigningKey, "casework")
	router := httptransport.NewRouter(httptransport.Handlers{
		Offender: offenderhandler.New(offenderSvc, gate, log),
		Custody:  custodyhandler.New(custodySvc, log),
		Court:    courthandler.New(courtSvc, log),
	}, tokens, log)

	apiServer := httpserver.New(cfg.Addr, router)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsServer := httpserver.New(cfg.MetricsAddr, metricsMux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("api server listening", "addr", cfg.Addr)
		if err := apiServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		log.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			log.Warn("api server shutdown", "error", err.Error())
		}
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err.Error())
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
