package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"tubefetch/internal/config"
	"tubefetch/internal/extraction"
	"tubefetch/internal/handlers"
	"tubefetch/internal/version"
	"tubefetch/internal/worker"
	"tubefetch/internal/youtube"

	"github.com/kataras/golog"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func main() {
	// .envファイルと環境変数から設定を読み込み
	cfg, err := config.Load()
	if err != nil {
		golog.Fatal(err)
	}
	golog.SetLevel(cfg.LogLevel)

	// ダウンロードエンジンとジョブマネージャー
	engine := youtube.NewClient(youtube.WithFFmpegPath(cfg.FFmpegPath))
	manager := worker.NewManager(extraction.NewAdapter(engine), cfg.HistorySize)

	// Echoインスタンスの作成
	e := echo.New()
	e.HideBanner = true

	// ミドルウェアの設定
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// ルートの登録
	e.GET("/health", handlers.Health)
	handlers.NewDownloadHandler(manager, youtube.IsValidURL).Register(e)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// サーバー起動
	go func() {
		golog.Infof("Starting tubefetch v%s on %s", version.Version, cfg.Addr())
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			golog.Fatal(err)
		}
	}()

	<-ctx.Done()
	golog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		golog.Warnf("HTTP shutdown: %v", err)
	}
	if err := manager.Shutdown(shutdownCtx); err != nil {
		golog.Warnf("Job shutdown: %v", err)
	}
}
