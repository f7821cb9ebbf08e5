package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api/handlers"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/api/middleware"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/config"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/database"
	"github.com/progate-hackathon-strawberry-flavor/gitris-engine/internal/services/tetris"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 結果の保存先。DATABASE_URL が無ければインメモリで動かす
	var (
		resultRepo database.ResultRepository
		pinger     handlers.Pinger
	)
	if cfg.DatabaseURL != "" {
		dbService, err := database.NewDatabaseService(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("データベースの初期化に失敗しました: %v", err)
		}
		defer dbService.Close()
		if err := dbService.EnsureSchema(ctx); err != nil {
			log.Fatalf("%v", err)
		}
		resultRepo = database.NewResultRepository(dbService.DB)
		pinger = dbService
	} else {
		log.Println("warning: DATABASE_URL が設定されていないため、結果はメモリに保存されます")
		resultRepo = database.NewMemoryResultRepository()
	}

	sessionManager := tetris.NewSessionManager(cfg.Game, cfg.TickInterval(), resultRepo)
	sessionManager.SetOwnerJoinTimeout(cfg.RoomJoinTimeout)
	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth)
	if cfg.BypassAuth {
		log.Println("warning: BYPASS_AUTH が有効です。本番環境では使わないでください")
	}

	router := api.NewRouter(api.Handlers{
		Game:   handlers.NewGameHandler(sessionManager, auth, cfg.AllowedOrigins),
		Result: handlers.NewResultHandler(resultRepo),
		Public: handlers.NewPublicHandler(pinger, sessionManager),
		Auth:   auth,
	}, cfg.AllowedOrigins)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("Server starting on :%s (tick %s, board %dx%d)", cfg.Port, cfg.TickInterval(), cfg.Game.BoardWidth, cfg.Game.BoardHeight)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		sessionManager.Shutdown()
		return err
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server error: %v", err)
	}
	log.Println("Server stopped")
}
