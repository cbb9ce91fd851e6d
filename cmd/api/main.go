package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-cinema-reservation/internal/api"
	"github.com/sanosuguru/go-cinema-reservation/internal/api/handler"
	custommw "github.com/sanosuguru/go-cinema-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-cinema-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/rabbitmq"
	redisinfra "github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/redis"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/clock"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/logger"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/metrics"
	"github.com/sanosuguru/go-cinema-reservation/internal/worker"
)

func main() {
	// .env があれば読み込む（本番では環境変数をそのまま使う）
	_ = godotenv.Load()

	cfg := config.Load()
	defer func() { _ = logger.Sync() }()

	m := metrics.Init()

	// PostgreSQL
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗", zap.Error(err))
	}
	defer db.Close()

	if err := postgres.RunMigrations(db.DB, "migrations"); err != nil {
		logger.Fatal("マイグレーションに失敗", zap.Error(err))
	}

	// Redis（任意。無効なら空席数キャッシュとレートリミットは素通し）
	var availabilityCache *redisinfra.AvailabilityCache
	var redisClient = redisinfra.NewClient(&cfg.Redis)
	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisinfra.Ping(ctx, redisClient); err != nil {
			logger.Warn("Redis接続に失敗、キャッシュなしで継続", zap.Error(err))
			redisClient = nil
		} else {
			availabilityCache = redisinfra.NewAvailabilityCache(redisClient)
		}
		cancel()
	} else {
		redisClient = nil
	}

	// RabbitMQ（任意）
	var publisher application.EventPublisher
	if cfg.Broker.Enabled {
		publisher = rabbitmq.NewPublisher(cfg.Broker.URL)
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	screeningRepo := postgres.NewScreeningRepository(db)
	movieRepo := postgres.NewMovieRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// サービス
	clk := clock.Real{}
	reservationService := application.NewReservationService(
		txManager, reservationRepo, screeningRepo, roomRepo, clk, availabilityCache, publisher)
	catalogService := application.NewCatalogService(movieRepo, screeningRepo, roomRepo, availabilityCache)
	authService := application.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, clk)

	// ハンドラー
	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	movieHandler := handler.NewMovieHandler(catalogService)
	screeningHandler := handler.NewScreeningHandler(catalogService)
	roomHandler := handler.NewRoomHandler(catalogService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommw.SetupMiddleware(e)
	e.Use(custommw.PrometheusMiddleware(m))
	e.Use(custommw.RateLimit(cfg.RateLimit, redisClient))

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), custommw.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)
	v1.POST("/auth/login", authHandler.Login)

	v1.GET("/movies", movieHandler.List)
	v1.GET("/movies/:id", movieHandler.GetByID)
	v1.GET("/screenings", screeningHandler.List)
	v1.GET("/screenings/:id", screeningHandler.GetByID)
	v1.GET("/screenings/:id/availability", screeningHandler.GetAvailability)
	v1.GET("/screenings/:id/seats", screeningHandler.GetSeatMap)
	v1.GET("/rooms/:id/seats", roomHandler.GetSeats)

	// 認証必須
	authed := v1.Group("", custommw.JWTAuth(cfg.Auth.JWTSecret))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/reservations", reservationHandler.Create)
	authed.GET("/reservations", reservationHandler.List)
	authed.GET("/reservations/:id", reservationHandler.GetByID)
	authed.POST("/reservations/:id/seats", reservationHandler.AllocateSeats)
	authed.GET("/reservations/:id/seats", reservationHandler.GetSeats)
	authed.PATCH("/reservations/:id/status", reservationHandler.TransitionStatus)

	// 期限切れ予約スイーパー
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	var sweeper *worker.ExpiredReservationSweeper
	if cfg.Sweeper.Enabled {
		sweeper = worker.NewExpiredReservationSweeper(reservationService, cfg.Sweeper.Interval)
		go sweeper.Start(sweepCtx)
	}

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("サーバー起動", zap.String("addr", addr), zap.String("env", cfg.Server.Env))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("シャットダウン開始")

	sweepCancel()
	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
