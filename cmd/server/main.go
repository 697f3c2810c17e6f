package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"

	"tracker-suite/internal/auth"
	"tracker-suite/internal/config"
	"tracker-suite/internal/events"
	gweb "tracker-suite/internal/grpcweb"
	"tracker-suite/internal/handler"
	"tracker-suite/internal/identity"
	"tracker-suite/internal/logging"
	"tracker-suite/internal/middleware"
	"tracker-suite/internal/repository"
	"tracker-suite/internal/store"
)

func main() {
	cfg, err := config.Load()
	logger := logging.New(os.Stderr, cfg.LogLevel)
	if err != nil {
		logger.Fatal("config", "err", err)
	}
	if err := cfg.RequireServer(); err != nil {
		logger.Fatal("config", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	backend, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		logger.Fatal("db", "driver", cfg.DBDriver, "err", err)
	}
	defer backend.Close()
	logger.Info("storage ready", "driver", cfg.DBDriver)

	hasher, err := auth.NewPasswordHasher(cfg.PasswordHasher)
	if err != nil {
		logger.Fatal("hasher", "err", err)
	}
	if err := identity.Seed(ctx, identity.New(backend, identity.DefaultTenantID), hasher, cfg.AdminPassword, logger); err != nil {
		logger.Fatal("seed", "err", err)
	}

	tokens, err := auth.NewJWTService(auth.JWTConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
		Leeway:   cfg.JWTLeeway,
	})
	if err != nil {
		logger.Fatal("jwt", "err", err)
	}

	// change events
	var hook repository.CommitHook = events.LogHook(logger)
	if len(cfg.KafkaBrokers) > 0 {
		pub := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logging.With(logger, "component", "events"))
		defer pub.Close()
		hook = pub
		logger.Info("publishing change events", "topic", cfg.KafkaTopic)
	}

	h := handler.New(handler.Options{
		Backend:    backend,
		Tokens:     tokens,
		Hasher:     hasher,
		Logger:     logging.With(logger, "component", "handler"),
		Hooks:      []repository.CommitHook{hook},
		RefreshTTL: cfg.RefreshTTL,
	})

	// grpc server
	rl := middleware.NewRateLimiter(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.Logging(logging.With(logger, "component", "grpc")),
			middleware.RateLimit(rl),
			middleware.Auth(tokens),
		),
	)
	health := handler.Register(srv, h)

	lis, err := net.Listen("tcp", ":"+cfg.Port)
	if err != nil {
		logger.Fatal("listen", "err", err)
	}
	go func() {
		logger.Info("grpc listening", "port", cfg.Port)
		if err := srv.Serve(lis); err != nil {
			logger.Error("grpc", "err", err)
		}
	}()

	// grpc-web bridge -> forwards browser requests to grpc on localhost
	bridge, err := gweb.New("localhost:"+cfg.Port, logging.With(logger, "component", "grpcweb"), cfg.CORSOrigins)
	if err != nil {
		logger.Fatal("bridge", "err", err)
	}
	defer bridge.Close()

	httpSrv := &http.Server{
		Addr:              ":" + cfg.WebPort,
		Handler:           bridge.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("grpc-web listening", "port", cfg.WebPort)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http", "err", err)
		}
	}()

	// graceful shutdown
	<-ctx.Done()
	logger.Info("shutting down")
	health.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
	srv.GracefulStop()
}
