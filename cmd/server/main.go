package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/neven/neven/internal/config"
	"github.com/neven/neven/internal/handlers"
	"github.com/neven/neven/internal/middleware"
	"github.com/neven/neven/internal/repository"
	"github.com/neven/neven/internal/service"
	"github.com/neven/neven/internal/sms"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const otpSweepInterval = time.Minute

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := repository.OpenAccountStores(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize account store")
	}
	defer stores.Close()

	var redisClient *redis.Client
	if cfg.OTP.Store == config.OTPStoreRedis || cfg.JWT.Revocation {
		redisClient, err = repository.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to initialize Redis")
		}
		defer redisClient.Close()
	}

	var otpStore service.OTPStore
	if cfg.OTP.Store == config.OTPStoreRedis {
		otpStore = repository.NewRedisOTPStore(redisClient, logger)
	} else {
		memoryStore := repository.NewMemoryOTPStore()
		go memoryStore.RunSweeper(ctx, otpSweepInterval)
		otpStore = memoryStore
		logger.Warn("Using in-memory OTP store: codes are lost on restart and not shared between instances")
	}

	var denylist service.Denylist
	if cfg.JWT.Revocation {
		denylist = repository.NewRedisDenylist(redisClient, logger)
	}

	tokenService, err := service.NewTokenService(&cfg.JWT, denylist, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize token service")
	}

	otpService, err := service.NewOTPService(otpStore, &cfg.OTP, cfg.IsProduction(), logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize OTP service")
	}

	sender, err := sms.NewSender(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize SMS sender")
	}

	cookies := handlers.CookieOptions{Secure: cfg.IsProduction()}
	adminHandlers := handlers.NewAdminHandlers(stores.Admins, tokenService, cookies, logger)
	customerHandlers := handlers.NewCustomerHandlers(stores.Customers, otpService, sender, tokenService, cookies, cfg.OTP.Expiry, logger)
	authMiddleware := middleware.NewAuthMiddleware(tokenService, logger)

	router := handlers.NewRouter(adminHandlers, customerHandlers, authMiddleware, cfg.Server.AllowedOrigins, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"port":    cfg.Server.Port,
			"env":     cfg.Env,
			"backend": cfg.Backend,
		}).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
