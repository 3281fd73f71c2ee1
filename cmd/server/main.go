package main

import (
	"context"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"marketplace/candidates/internal/candidates"
	"marketplace/candidates/internal/config"
	"marketplace/candidates/internal/db"
	candidatesgrpc "marketplace/candidates/internal/grpc"
	internalhttp "marketplace/candidates/internal/http"
	"marketplace/candidates/internal/jobs"
	"marketplace/candidates/internal/logging"
	"marketplace/candidates/internal/metrics"
	"marketplace/candidates/internal/profile"
	"marketplace/candidates/internal/ratelimit"
	"marketplace/candidates/internal/stats"
	"marketplace/candidates/internal/views"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("env file not loaded: %v", err)
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.LogLevel, cfg.LogDir)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	defer pool.Close()
	store := db.NewStore(pool)

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis ping failed, view rate limiting fails open", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
	} else {
		logger.Info("REDIS_ADDR not set, view rate limiting disabled")
	}

	m := metrics.New()
	candidateService := candidates.NewService(store)
	statsService := stats.NewService(store)
	profileService := profile.NewService(store, logger.Named("profile"))
	viewService := views.NewService(views.FromStore(store))
	limiter := ratelimit.New(redisClient, "candidates:ratelimit:", cfg.ViewRateLimit, cfg.ViewRateWindow)

	server := internalhttp.NewServer(cfg, internalhttp.Services{
		Candidates: candidateService,
		Stats:      statsService,
		Profiles:   profileService,
		Views:      viewService,
	}, limiter, m, logger.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.GRPCAddr != "" {
		serviceAuthInterceptor, err := candidatesgrpc.NewServiceAuthUnaryInterceptor(cfg.ServiceAuthToken)
		if err != nil {
			logger.Fatal("grpc service auth init failed", zap.Error(err))
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuthInterceptor))
		candidatesgrpc.RegisterCandidateQueryServer(grpcServer, candidatesgrpc.NewCandidateQueryServer(candidateService, statsService, profileService))
	}

	jobs.StartPoolStatsJob(ctx, cfg.PoolStatsInterval, jobs.PgxPoolSampler(pool), m, logger.Named("jobs"))

	go func() {
		logger.Info("candidates http listening", zap.String("addr", cfg.HTTPAddr), zap.String("env", cfg.Environment))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("http server error", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				logger.Fatal("grpc listen error", zap.Error(err))
			}
			logger.Info("candidates grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcServer.Serve(listener); err != nil {
				logger.Fatal("grpc server error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}
