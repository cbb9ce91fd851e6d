package e2e

import (
	"os"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-cinema-reservation/internal/api"
	"github.com/sanosuguru/go-cinema-reservation/internal/api/handler"
	custommw "github.com/sanosuguru/go-cinema-reservation/internal/api/middleware"
	"github.com/sanosuguru/go-cinema-reservation/internal/application"
	"github.com/sanosuguru/go-cinema-reservation/internal/config"
	"github.com/sanosuguru/go-cinema-reservation/internal/infrastructure/postgres"
	"github.com/sanosuguru/go-cinema-reservation/internal/pkg/clock"
)

var (
	testServer *TestServer
	testDB     *sqlx.DB
)

// TestMain はE2Eテストのエントリポイント
// パッケージ全体で1回だけサーバーを組み立てることで高速化
func TestMain(m *testing.M) {
	cfg := config.Load()

	// DB接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		os.Exit(0) // DB未起動時はスキップ
	}
	testDB = db

	if err := postgres.RunMigrations(db.DB, "../migrations"); err != nil {
		db.Close()
		os.Exit(0)
	}

	// リポジトリ初期化
	txManager := postgres.NewTxManager(db)
	reservationRepo := postgres.NewReservationRepository(db)
	screeningRepo := postgres.NewScreeningRepository(db)
	movieRepo := postgres.NewMovieRepository(db)
	roomRepo := postgres.NewRoomRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// Redis・RabbitMQなしで検証する（キャッシュとイベント配信は素通し）
	clk := clock.Real{}
	reservationService := application.NewReservationService(
		txManager, reservationRepo, screeningRepo, roomRepo, clk, nil, nil)
	catalogService := application.NewCatalogService(movieRepo, screeningRepo, roomRepo, nil)
	authService := application.NewAuthService(userRepo, cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, clk)

	healthHandler := handler.NewHealthHandler()
	authHandler := handler.NewAuthHandler(authService)
	movieHandler := handler.NewMovieHandler(catalogService)
	screeningHandler := handler.NewScreeningHandler(catalogService)
	roomHandler := handler.NewRoomHandler(catalogService)
	reservationHandler := handler.NewReservationHandler(reservationService)

	// Echo セットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	custommw.SetupMiddleware(e)

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

	authed := v1.Group("", custommw.JWTAuth(cfg.Auth.JWTSecret))
	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/reservations", reservationHandler.Create)
	authed.GET("/reservations", reservationHandler.List)
	authed.GET("/reservations/:id", reservationHandler.GetByID)
	authed.POST("/reservations/:id/seats", reservationHandler.AllocateSeats)
	authed.GET("/reservations/:id/seats", reservationHandler.GetSeats)
	authed.PATCH("/reservations/:id/status", reservationHandler.TransitionStatus)

	testServer = &TestServer{Echo: e}

	// テスト実行
	code := m.Run()

	// 最終クリーンアップ
	cleanupTables()
	db.Close()

	os.Exit(code)
}

// cleanupTables はテーブルをクリーンアップ
func cleanupTables() {
	testDB.Exec("TRUNCATE TABLE reservation_seats, reservations, screenings, seats, rooms, movies, users RESTART IDENTITY CASCADE")
}

// getTestServer は共有サーバーを取得（テスト前にテーブルをクリーンアップ）
func getTestServer(t *testing.T) *TestServer {
	t.Helper()
	if testServer == nil {
		t.Skip("テスト環境が利用できません")
	}
	cleanupTables()
	return testServer
}
