// Package routesはroutingを行います。
package routes

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"todo-apps/internal/handlers"
	"todo-apps/internal/render"
	"todo-apps/internal/services"
)

// Deps はルーターが使うサービス群です。
type Deps struct {
	AllowOrigins []string
	TodoService  *services.TodoService
	JWTService   *services.JWTService
	Renderer     *render.Controller
}

// SetupRouter はGinルーターをセットアップし、すべてのエンドポイントを登録します。
func SetupRouter(deps Deps) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger())

	// CORS対策 (JSON APIを別オリジンのフロントエンドから使う場合)
	config := cors.DefaultConfig()
	config.AllowOrigins = deps.AllowOrigins
	config.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	config.MaxAge = 12 * time.Hour
	if len(config.AllowOrigins) > 0 {
		r.Use(cors.New(config))
	}

	tmpl, err := render.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	// ハンドラー
	todoHandler := handlers.NewTodoHandler(deps.TodoService, deps.JWTService, deps.Renderer)
	apiHandler := handlers.NewAPIHandler(deps.TodoService, deps.JWTService)

	// ページ
	r.GET("/", todoHandler.IndexHandler)
	r.POST("/todos", todoHandler.CreateTodoHandler)
	r.POST("/todos/:id/complete", todoHandler.CompleteTodoHandler)
	r.POST("/todos/:id/undo", todoHandler.UndoTodoHandler)
	r.GET("/todos/:id/delete", todoHandler.ConfirmDeleteHandler)
	r.POST("/todos/:id/delete", todoHandler.DeleteTodoHandler)
	r.GET("/events", todoHandler.EventsHandler)

	// JSON API
	api := r.Group("/api")
	{
		api.GET("/hello", apiHandler.HelloHandler)
		api.GET("/storagecheck", apiHandler.StorageCheckHandler)
		api.GET("/todos", apiHandler.GetTodosHandler)
		api.GET("/todos/:id", apiHandler.GetTodoByIDHandler)
		api.POST("/todos", apiHandler.CreateTodoHandler)
		api.PUT("/todos/:id/complete", apiHandler.CompleteTodoHandler)
		api.PUT("/todos/:id/undo", apiHandler.UndoTodoHandler)
		api.POST("/todos/:id/delete-confirmation", apiHandler.DeleteConfirmationHandler)
		api.DELETE("/todos/:id", apiHandler.DeleteTodoHandler)
	}

	return r, nil
}
