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

	"github.com/tomassolanoprieto/subprice/internal/access"
	accesshandler "github.com/tomassolanoprieto/subprice/internal/access/handler"
	accessmetrics "github.com/tomassolanoprieto/subprice/internal/access/metrics"
	"github.com/tomassolanoprieto/subprice/internal/audit"
	"github.com/tomassolanoprieto/subprice/internal/conditions"
	conditionshandler "github.com/tomassolanoprieto/subprice/internal/conditions/handler"
	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/identity"
	jwttoken "github.com/tomassolanoprieto/subprice/internal/jwt_token"
	"github.com/tomassolanoprieto/subprice/internal/matching"
	matchinghandler "github.com/tomassolanoprieto/subprice/internal/matching/handler"
	matchingmetrics "github.com/tomassolanoprieto/subprice/internal/matching/metrics"
	"github.com/tomassolanoprieto/subprice/internal/offer"
	"github.com/tomassolanoprieto/subprice/internal/offer/adapters"
	offerhandler "github.com/tomassolanoprieto/subprice/internal/offer/handler"
	offermetrics "github.com/tomassolanoprieto/subprice/internal/offer/metrics"
	"github.com/tomassolanoprieto/subprice/internal/platform/config"
	"github.com/tomassolanoprieto/subprice/internal/platform/httpserver"
	"github.com/tomassolanoprieto/subprice/internal/platform/logger"
	platformredis "github.com/tomassolanoprieto/subprice/internal/platform/redis"
	"github.com/tomassolanoprieto/subprice/internal/profile"
	profilehandler "github.com/tomassolanoprieto/subprice/internal/profile/handler"
	httptransport "github.com/tomassolanoprieto/subprice/internal/transport/http"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// stores groups the persistence ports so wiring can swap the whole set
// between in-memory and PostgreSQL at once.
type stores struct {
	policies  access.Store
	records   demand.Store
	profiles  conditions.Store
	declared  profile.Store
	offers    offer.Store
	directory identity.Directory
	events    audit.Store
}

// demandRefresher narrows the demand service to the refresh hook the
// conditions service needs.
type demandRefresher struct {
	demand *demand.Service
}

func (r demandRefresher) Refresh(ctx context.Context, customerID id.CustomerID, sector id.Sector) error {
	_, err := r.demand.Refresh(ctx, customerID, sector)
	return err
}

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	st, db, err := buildStores(cfg)
	if err != nil {
		log.Error("store initialization failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis initialization failed", "error", err)
		os.Exit(1)
	}
	var notifier offer.Notifier = adapters.NewLogNotifier(log)
	if redisClient != nil {
		defer redisClient.Close()
		notifier = adapters.NewRedisNotifier(redisClient.Client)
	}

	auditor := audit.NewPublisher(st.events, log)
	accessService := access.NewService(st.policies, log, accessmetrics.New(), auditor)
	demandService := demand.NewService(st.records, st.directory, profile.NewAttributeSource(st.declared), log)
	profileService := profile.NewService(st.declared, demandService, log)
	conditionsService := conditions.NewService(st.profiles, demandRefresher{demandService}, log)
	matchingService := matching.NewService(st.policies, st.records, log, matchingmetrics.New())
	offerMetrics := offermetrics.New()
	offerService := offer.NewService(
		st.offers, st.policies, st.records, st.profiles, st.directory,
		notifier, cfg.OfferValidity, log, offerMetrics, auditor,
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "subprice", "subprice-api")
	router := httptransport.NewRouter(httptransport.Handlers{
		Matching:   matchinghandler.New(matchingService, log),
		Access:     accesshandler.New(accessService, log),
		Conditions: conditionshandler.New(conditionsService, log),
		Profiles:   profilehandler.New(profileService, log),
		Offers:     offerhandler.New(offerService, log),
	}, jwttoken.NewJWTServiceAdapter(jwtService), log, healthCheck(db, redisClient))

	srv := httpserver.New(cfg.Addr, router)

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := offer.NewSweeper(st.offers, log, offerMetrics)
	go func() {
		if err := sweeper.Start(rootCtx, cfg.SweepInterval); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("offer sweep stopped", "error", err)
		}
	}()

	go func() {
		log.Info("starting subprice server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			stop()
		}
	}()

	<-rootCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}

// buildStores picks PostgreSQL when configured and in-memory otherwise.
func buildStores(cfg config.Server) (stores, *sql.DB, error) {
	if cfg.PostgresURL == "" {
		return stores{
			policies:  access.NewInMemoryStore(),
			records:   demand.NewInMemoryStore(),
			profiles:  conditions.NewInMemoryStore(),
			declared:  profile.NewInMemoryStore(),
			offers:    offer.NewInMemoryStore(),
			directory: identity.NewInMemoryDirectory(),
			events:    audit.NewInMemoryStore(),
		}, nil, nil
	}

	db, err := sql.Open("postgres", cfg.PostgresURL)
	if err != nil {
		return stores{}, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return stores{}, nil, err
	}
	return stores{
		policies:  access.NewPostgres(db),
		records:   demand.NewPostgres(db),
		profiles:  conditions.NewPostgres(db),
		declared:  profile.NewPostgres(db),
		offers:    offer.NewPostgres(db),
		directory: identity.NewPostgresDirectory(db),
		events:    audit.NewPostgres(db),
	}, db, nil
}

func healthCheck(db *sql.DB, redisClient *platformredis.Client) httptransport.HealthChecker {
	return func(r *http.Request) error {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				return err
			}
		}
		if redisClient != nil {
			return redisClient.Health(r.Context())
		}
		return nil
	}
}
