package main // Entry point package

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/cinecritique/review-api/internal/config"
	"github.com/cinecritique/review-api/internal/database"
	"github.com/cinecritique/review-api/internal/handler"
	"github.com/cinecritique/review-api/internal/middleware"
	"github.com/cinecritique/review-api/internal/queue"
	"github.com/cinecritique/review-api/internal/repository"
	"github.com/cinecritique/review-api/internal/router"
	queue_publisher "github.com/cinecritique/review-api/internal/service"
	"github.com/cinecritique/review-api/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg)
	if err != nil {
		logrus.WithError(err).Fatal("database connection failed")
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter; nil disables both.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logrus.Warn("redis unavailable; caching and rate limiting disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	reviews := repository.NewReviewRepo(db)
	media := storage.NewMediaStore(cfg.MediaRoot)

	authHandler := handler.NewAuthHandler(cfg, users, tokens)
	profileHandler := handler.NewProfileHandler(users, media)
	reviewHandler := handler.NewReviewHandler(reviews, users, queue_publisher.PublishReviewCreated)

	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = router.JSONErrorHandler
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limitMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	router.RegisterRoutes(e, cfg.MediaRoot)
	router.RegisterAPI(e, authHandler, profileHandler, reviewHandler, cfg.JWTSecret, cacheMW, limitMW)

	// Background consumer mirrors review.created events into logs/review.log.
	go func() {
		if err := queue.StartReviewConsumer(); err != nil {
			logrus.WithError(err).Error("review consumer stopped")
		}
	}()

	addr := ":" + cfg.Port
	logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env}).Info("listening")

	go func() {
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("server failed")
		}
	}()

	// Block until SIGINT/SIGTERM, then drain in-flight requests.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("shutdown failed")
	}
}
