// Package handlers はHTTPハンドラーを提供します。
package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"todo-apps/internal/models"
	"todo-apps/internal/render"
	"todo-apps/internal/services"
)

// TodoHandler はHTMLページ (フォーム送信とボタン操作) のハンドラーを管理します。
type TodoHandler struct {
	todoService *services.TodoService
	jwtService  *services.JWTService
	renderer    *render.Controller
}

// NewTodoHandler は新しいTodoHandlerを作成します。
func NewTodoHandler(todoService *services.TodoService, jwtService *services.JWTService, renderer *render.Controller) *TodoHandler {
	return &TodoHandler{todoService: todoService, jwtService: jwtService, renderer: renderer}
}

func (h *TodoHandler) page() render.Page {
	return render.Page{
		View:    h.renderer.View(),
		Warning: h.todoService.StorageWarning(),
	}
}

// IndexHandler はタスク一覧ページを表示します。
func (h *TodoHandler) IndexHandler(c *gin.Context) {
	c.HTML(http.StatusOK, render.PageTemplate, h.page())
}

// CreateTodoHandler はフォーム送信から新しいタスクを作成します。
func (h *TodoHandler) CreateTodoHandler(c *gin.Context) {
	var form models.TaskForm
	if err := c.ShouldBind(&form); err != nil {
		h.renderFormError(c)
		return
	}
	if _, err := h.todoService.AddTask(c.Request.Context(), form); err != nil {
		if errors.Is(err, services.ErrMissingField) {
			h.renderFormError(c)
			return
		}
		log.Printf("Failed to add todo: %v", err)
		c.String(http.StatusInternalServerError, "Failed to add todo")
		return
	}
	// リダイレクトでフォームの入力をリセットする
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *TodoHandler) renderFormError(c *gin.Context) {
	page := h.page()
	page.Error = "Title and date are required"
	c.HTML(http.StatusBadRequest, render.PageTemplate, page)
}

// CompleteTodoHandler はタスクを完了にします。存在しないIDは無視します。
func (h *TodoHandler) CompleteTodoHandler(c *gin.Context) {
	if id, ok := parseID(c); ok {
		h.todoService.CompleteTask(c.Request.Context(), id)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// UndoTodoHandler は完了したタスクを未完了に戻します。存在しないIDは無視します。
func (h *TodoHandler) UndoTodoHandler(c *gin.Context) {
	if id, ok := parseID(c); ok {
		h.todoService.UndoTask(c.Request.Context(), id)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

// ConfirmDeleteHandler は削除確認ダイアログを表示します。
// 完了済みのタスクでなければ何もせず一覧へ戻します。
func (h *TodoHandler) ConfirmDeleteHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	task, found := h.todoService.GetTask(id)
	if !found || !task.Completed {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	token, err := h.jwtService.GenerateDeleteConfirmation(id)
	if err != nil {
		log.Printf("Failed to generate delete confirmation: %v", err)
		c.String(http.StatusInternalServerError, "Failed to prepare delete confirmation")
		return
	}

	page := h.page()
	page.Confirm = &render.Confirmation{ID: task.ID, Title: task.Title, Token: token}
	c.HTML(http.StatusOK, render.PageTemplate, page)
}

// DeleteTodoHandler は確認済みのタスクを削除します。
// 確認トークンが無効なら削除せず確認ダイアログを出し直します。
func (h *TodoHandler) DeleteTodoHandler(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	if err := h.jwtService.ValidateDeleteConfirmation(c.PostForm("token"), id); err != nil {
		log.Warn("Rejected delete without valid confirmation", "id", id, "err", err)
		c.Redirect(http.StatusSeeOther, "/todos/"+strconv.FormatInt(id, 10)+"/delete")
		return
	}
	h.todoService.DeleteTask(c.Request.Context(), id)
	c.Redirect(http.StatusSeeOther, "/")
}

// EventsHandler はリストが変わるたびに "render" イベントを送るSSEストリームです。
func (h *TodoHandler) EventsHandler(c *gin.Context) {
	hub := h.renderer.Hub()
	id, ch := hub.Subscribe()
	defer hub.Unsubscribe(id)

	c.Stream(func(w io.Writer) bool {
		select {
		case version, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("render", strconv.FormatUint(version, 10))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}
