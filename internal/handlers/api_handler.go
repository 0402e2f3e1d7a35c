package handlers

import (
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-apps/internal/models"
	"todo-apps/internal/services"
	"todo-apps/internal/todo"
)

// APIHandler はJSON APIのハンドラーを管理します。
type APIHandler struct {
	todoService *services.TodoService
	jwtService  *services.JWTService
}

// NewAPIHandler は新しいAPIHandlerを作成します。
func NewAPIHandler(todoService *services.TodoService, jwtService *services.JWTService) *APIHandler {
	return &APIHandler{todoService: todoService, jwtService: jwtService}
}

// HelloHandler はシンプルなヘルスチェックエンドポイントです。
func (h *APIHandler) HelloHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Hello from Go Backend!"})
}

// StorageCheckHandler は永続ストアの状態を返します。
func (h *APIHandler) StorageCheckHandler(c *gin.Context) {
	if !h.todoService.StorageAvailable(c.Request.Context()) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": services.StorageWarningMessage})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Storage is available"})
}

// GetTodosHandler はタスク一覧をリスト順で返します。
func (h *APIHandler) GetTodosHandler(c *gin.Context) {
	c.JSON(http.StatusOK, h.todoService.Tasks())
}

// GetTodoByIDHandler は指定IDのタスクを返します。
func (h *APIHandler) GetTodoByIDHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	task, found := h.todoService.GetTask(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTodoHandler は新しいタスクを作成します。
func (h *APIHandler) CreateTodoHandler(c *gin.Context) {
	var form models.TaskForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	task, err := h.todoService.AddTask(c.Request.Context(), form)
	if err != nil {
		if errors.Is(err, services.ErrMissingField) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title and date are required"})
			return
		}
		log.Printf("Failed to create todo: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create todo"})
		return
	}
	c.JSON(http.StatusCreated, task)
}

// CompleteTodoHandler はタスクを完了にします。
func (h *APIHandler) CompleteTodoHandler(c *gin.Context) {
	h.setCompleted(c, true)
}

// UndoTodoHandler はタスクを未完了に戻します。
func (h *APIHandler) UndoTodoHandler(c *gin.Context) {
	h.setCompleted(c, false)
}

func (h *APIHandler) setCompleted(c *gin.Context, completed bool) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var res todo.Result
	if completed {
		res = h.todoService.CompleteTask(c.Request.Context(), id)
	} else {
		res = h.todoService.UndoTask(c.Request.Context(), id)
	}
	if status, body := resultStatus(res); res != todo.Applied {
		c.JSON(status, body)
		return
	}
	task, _ := h.todoService.GetTask(id)
	c.JSON(http.StatusOK, task)
}

// DeleteConfirmationHandler は完了済みタスクの削除確認トークンを発行します。
func (h *APIHandler) DeleteConfirmationHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	task, found := h.todoService.GetTask(id)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Todo not found"})
		return
	}
	if !task.Completed {
		_, body := resultStatus(todo.NotCompleted)
		c.JSON(http.StatusConflict, body)
		return
	}
	token, err := h.jwtService.GenerateDeleteConfirmation(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "id": id})
}

// DeleteTodoHandler は確認トークン (?token=) 付きでタスクを削除します。
func (h *APIHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.jwtService.ValidateDeleteConfirmation(c.Query("token"), id); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": "Delete confirmation required"})
		return
	}
	res := h.todoService.DeleteTask(c.Request.Context(), id)
	if status, body := resultStatus(res); res != todo.Applied {
		c.JSON(status, body)
		return
	}
	c.Status(http.StatusNoContent)
}

// resultStatus はAPI向けに操作結果をHTTPステータスへ変換します。
func resultStatus(res todo.Result) (int, gin.H) {
	switch res {
	case todo.Applied:
		return http.StatusOK, nil
	case todo.NotCompleted:
		return http.StatusConflict, gin.H{"error": "Only completed todos can be deleted"}
	default:
		return http.StatusNotFound, gin.H{"error": "Todo not found"}
	}
}
