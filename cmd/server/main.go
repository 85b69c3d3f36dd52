package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/taxbyte/go-identity-server/auth"
	"github.com/taxbyte/go-identity-server/cloud"
	"github.com/taxbyte/go-identity-server/companies"
	"github.com/taxbyte/go-identity-server/internal/config"
	"github.com/taxbyte/go-identity-server/internal/metrics"
	"github.com/taxbyte/go-identity-server/internal/postgres"
	"github.com/taxbyte/go-identity-server/oauthflow"
	"github.com/taxbyte/go-identity-server/security"
	"github.com/taxbyte/go-identity-server/server"
)

func main() {
	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	cfg := config.New()
	configureLogging(cfg)
	displayAppname(cfg.GetAppName())

	handler, err := buildServer(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{Addr: cfg.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	handler.Close()
	return returnError
}

func buildServer(cfg config.Config) (*server.Server, error) {
	db, err := postgres.Open(cfg.GetDatabaseURL())
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] postgres.Open")
	}
	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "[buildServer] db.Ping")
	}
	if err := postgres.RunMigrations(cfg.GetDatabaseURL()); err != nil {
		return nil, errors.Wrap(err, "[buildServer] RunMigrations")
	}

	hasher := security.NewPasswordHasher()
	tokens := security.NewTokenGenerator()
	codec, err := security.NewCodec(cfg.GetEncryptionKey())
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] NewCodec")
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	attemptRepo := postgres.NewLoginAttemptRepo(db)
	limiter := auth.NewRateLimiter(attemptRepo, cfg.GetRateLimitMaxAttempts(), cfg.GetRateLimitWindow())

	authService, err := auth.NewService(auth.Repos{
		Users:    postgres.NewUserRepo(db),
		Sessions: postgres.NewSessionRepo(db),
		Attempts: attemptRepo,
	}, hasher, tokens, limiter, cfg, auth.WithMetrics(collector))
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] NewService")
	}

	provider, err := selectProvider(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] selectProvider")
	}
	manager, err := oauthflow.NewManager(postgres.NewPendingStateRepo(db), provider, codec, tokens, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] NewManager")
	}

	connectService, err := companies.NewConnectService(companies.Repos{
		Companies: postgres.NewCompanyRepo(db),
		Members:   postgres.NewMemberRepo(db),
	}, manager, cloud.NewDriveProber(), companies.WithConnectMetrics(collector))
	if err != nil {
		return nil, errors.Wrap(err, "[buildServer] NewConnectService")
	}

	return server.New(cfg, authService, connectService, registry)
}

// selectProvider returns the mock provider only when explicitly enabled;
// everything else gets the real one.
func selectProvider(cfg config.Config) (oauthflow.Provider, error) {
	if cfg.GetMockOAuth() {
		log.Warn().Msg("MOCK_OAUTH enabled: using the mock identity provider")
		return oauthflow.NewMockProvider(cfg.GetOAuthRedirectURL()), nil
	}
	return oauthflow.NewGoogleProvider(cfg)
}

func configureLogging(cfg config.Config) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.GetEnv() == "DEV" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(httpServer *http.Server) error {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Wrap(err, "server.ListenAndServe")
	}
	return nil
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
