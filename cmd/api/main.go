package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-apps/internal/config"
	"todo-apps/internal/render"
	"todo-apps/internal/repositories"
	"todo-apps/internal/routes"
	"todo-apps/internal/services"
	"todo-apps/internal/todo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if level, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Unknown log level, using info", "level", cfg.LogLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kv, err := repositories.Open(ctx, cfg)
	if err != nil {
		if !errors.Is(err, repositories.ErrStorageUnavailable) {
			log.Fatalf("Failed to open storage: %v", err)
		}
		// ストレージが無くてもセッション中は動かす
		log.Warn("Storage could not be opened", "backend", cfg.StorageBackend, "err", err)
		kv = nil
	}
	if kv != nil {
		defer kv.Close()
	}

	gin.SetMode(gin.ReleaseMode)
	r, err := newApp(ctx, cfg, kv)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Server listening on %s...", cfg.Addr())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	log.Info("Server stopped")
}

// newApp はストア・永続化・描画・サービスを組み立て、起動時の読み込みを行ってルーターを返します。
func newApp(ctx context.Context, cfg *config.Config, kv repositories.KVStore) (*gin.Engine, error) {
	persistence, err := services.NewPersistence(kv, cfg.StorageKey, cfg.RecoverMalformed)
	if err != nil {
		return nil, err
	}
	renderer := render.NewController(nil)
	persistence.Subscribe(renderer)

	todoService := services.NewTodoService(todo.NewStore(), persistence, todo.NewIDGenerator(nil))
	if err := todoService.Start(ctx); err != nil {
		if errors.Is(err, services.ErrMalformedData) {
			log.Error("Stored task list is malformed; set RECOVER_MALFORMED=true to start with an empty list")
		}
		return nil, err
	}

	return routes.SetupRouter(routes.Deps{
		AllowOrigins: cfg.AllowOrigins,
		TodoService:  todoService,
		JWTService:   services.NewJWTService(cfg.JWTSecret, 0),
		Renderer:     renderer,
	})
}
