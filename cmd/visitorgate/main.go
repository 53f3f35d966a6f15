package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	appvisitor "github.com/NeuralTrust/VisitorGate/pkg/app/visitor"
	"github.com/NeuralTrust/VisitorGate/pkg/cache"
	"github.com/NeuralTrust/VisitorGate/pkg/config"
	handlers "github.com/NeuralTrust/VisitorGate/pkg/handlers/http"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/httpx"
	infraLogger "github.com/NeuralTrust/VisitorGate/pkg/infra/logger"
	"github.com/NeuralTrust/VisitorGate/pkg/infra/moonito"
	"github.com/NeuralTrust/VisitorGate/pkg/middleware"
	"github.com/NeuralTrust/VisitorGate/pkg/server"
	"github.com/NeuralTrust/VisitorGate/pkg/server/router"
	"github.com/NeuralTrust/VisitorGate/pkg/version"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	envFile := os.Getenv("ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, logCloser, err := infraLogger.NewLogger(infraLogger.Config{
		Level: cfg.Log.Level,
		File:  cfg.Log.File,
		Dir:   cfg.Log.Dir,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logCloser.Close()

	logger.WithFields(logrus.Fields{
		"version":   version.Version,
		"protected": cfg.Protection.IsProtected,
		"action":    cfg.Protection.UnwantedVisitorAction.String(),
		"target":    cfg.Protection.UnwantedVisitorTo.Kind().String(),
	}).Info("starting " + version.AppName)

	verdictClient, closeCache, err := buildVerdictClient(cfg, logger)
	if err != nil {
		logger.Fatalf("failed to initialize verdict client: %v", err)
	}
	defer closeCache()

	evaluator, err := appvisitor.NewEvaluator(
		cfg.Protection.Visitor(),
		appvisitor.WithVerdictClient(verdictClient),
		appvisitor.WithContentClient(httpx.NewFastHTTPClient(
			httpx.WithTimeout(cfg.Content.Timeout),
			httpx.WithInsecureSkipVerify(cfg.Content.InsecureSkipVerify),
			httpx.WithUserAgent(version.AppName+"/"+version.Version),
		)),
		appvisitor.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("failed to initialize visitor evaluator: %v", err)
	}

	middlewareTransport := &middleware.Transport{
		PanicRecoverMiddleware: middleware.NewPanicRecoverMiddleware(logger),
		VisitorMiddleware: middleware.NewVisitorMiddleware(logger, evaluator, middleware.VisitorOptions{
			FailOpen: cfg.Server.FailOpen,
		}),
	}
	handlerTransport := &handlers.HandlerTransport{
		EvaluateVisitorHandler: handlers.NewEvaluateVisitorHandler(logger, evaluator),
		GetVersionHandler:      handlers.NewGetVersionHandler(logger),
	}

	srv := server.NewGateServer(server.GateServerDI{
		Config: cfg,
		Logger: logger,
		Routers: []router.ServerRouter{
			router.NewGateRouter(middlewareTransport, handlerTransport, cfg),
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Run)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		done := make(chan error, 1)
		go func() { done <- srv.Shutdown() }()
		select {
		case err := <-done:
			return err
		case <-time.After(shutdownGrace(cfg)):
			return errors.New("graceful shutdown timed out")
		}
	})

	if err := g.Wait(); err != nil {
		logger.WithError(err).Error("server stopped with error")
		return
	}
	logger.Info("server gracefully stopped")
}

// buildVerdictClient wires the remote client with its optional breaker and
// redis cache. The returned func releases the cache connection.
func buildVerdictClient(cfg *config.Config, logger *logrus.Logger) (moonito.Client, func(), error) {
	opts := []moonito.MoonitoClientOption{
		moonito.WithBaseURL(cfg.Moonito.BaseURL),
		moonito.WithHTTPClient(httpx.NewFastHTTPClient(
			httpx.WithTimeout(cfg.Moonito.Timeout),
			httpx.WithDecodeBody(true),
		)),
	}
	if cfg.Moonito.BreakerMaxFailures > 0 {
		opts = append(opts, moonito.WithCircuitBreaker(httpx.NewCircuitBreaker(
			"moonito-verdict", cfg.Moonito.BreakerTimeout, cfg.Moonito.BreakerMaxFailures,
		)))
	}
	client := moonito.NewMoonitoClient(logger, opts...)

	if cfg.VerdictCache.TTL <= 0 {
		return client, func() {}, nil
	}

	redisCache, err := cache.NewCache(cache.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		TLS:      cfg.Redis.TLS,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := redisCache.Ping(context.Background()); err != nil {
		logger.WithError(err).Warn("verdict cache unreachable, lookups will fall through")
	}
	logger.WithField("ttl", cfg.VerdictCache.TTL.String()).Info("verdict cache enabled")

	closeCache := func() {
		if err := redisCache.Close(); err != nil {
			logger.WithError(err).Warn("failed to close verdict cache")
		}
	}
	return moonito.NewCachedClient(client, redisCache, cfg.VerdictCache.TTL, logger), closeCache, nil
}

func shutdownGrace(cfg *config.Config) time.Duration {
	if cfg.Server.ShutdownGrace > 0 {
		return cfg.Server.ShutdownGrace
	}
	return 10 * time.Second
}
