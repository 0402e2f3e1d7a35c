// Package testutil はハンドラーテスト用のセットアップ関数を提供します。
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"todo-apps/internal/config"
	"todo-apps/internal/models"
	"todo-apps/internal/render"
	"todo-apps/internal/repositories"
	"todo-apps/internal/routes"
	"todo-apps/internal/services"
	"todo-apps/internal/todo"
)

// TestSecret はテスト用のJWT署名鍵です。
const TestSecret = "test-secret"

// TestApp はテスト用に組み立てたアプリケーションです。
type TestApp struct {
	Router      *gin.Engine
	KV          *repositories.MemoryKVStore
	TodoService *services.TodoService
	JWTService  *services.JWTService
	Renderer    *render.Controller
}

// SetupTestRouter はメモリKVを使うテスト用のGinルーターをセットアップします。
func SetupTestRouter(t *testing.T) *TestApp {
	t.Helper()
	return SetupTestRouterWithKV(t, repositories.NewMemoryKVStore())
}

// SetupTestRouterWithKV は指定したKVを使ってルーターをセットアップします。kvがnilならストレージ無しで動かします。
func SetupTestRouterWithKV(t *testing.T, kv *repositories.MemoryKVStore) *TestApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var store repositories.KVStore
	if kv != nil {
		store = kv
	}
	persistence, err := services.NewPersistence(store, config.DefaultStorageKey, false)
	require.NoError(t, err)

	renderer := render.NewController(nil)
	persistence.Subscribe(renderer)

	todoService := services.NewTodoService(todo.NewStore(), persistence, nil)
	require.NoError(t, todoService.Start(context.Background()))

	jwtService := services.NewJWTService(TestSecret, 0)
	r, err := routes.SetupRouter(routes.Deps{
		AllowOrigins: []string{"http://localhost:3000"},
		TodoService:  todoService,
		JWTService:   jwtService,
		Renderer:     renderer,
	})
	require.NoError(t, err)

	return &TestApp{
		Router:      r,
		KV:          kv,
		TodoService: todoService,
		JWTService:  jwtService,
		Renderer:    renderer,
	}
}

// Do はリクエストを実行してレスポンスを返します。
func (a *TestApp) Do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	a.Router.ServeHTTP(w, req)
	return w
}

// PostForm はフォーム送信のリクエストを実行します。
func (a *TestApp) PostForm(path string, values url.Values) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.Do(req)
}

// Get はGETリクエストを実行します。
func (a *TestApp) Get(path string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	return a.Do(req)
}

// JSON はJSONボディ付きのリクエストを実行します。
func (a *TestApp) JSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		_ = json.NewEncoder(&body).Encode(payload)
	}
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	return a.Do(req)
}

// Page はトップページを取得してgoqueryのドキュメントとして返します。
func (a *TestApp) Page(t *testing.T) *goquery.Document {
	t.Helper()
	w := a.Get("/")
	require.Equal(t, http.StatusOK, w.Code)
	doc, err := goquery.NewDocumentFromReader(w.Body)
	require.NoError(t, err)
	return doc
}

// CreateTestTodo はAPI経由でテスト用のタスクを作成します。
func CreateTestTodo(t *testing.T, app *TestApp, title, date string) models.Task {
	t.Helper()
	w := app.JSON(http.MethodPost, "/api/todos", map[string]string{"task": title, "timestamp": date})
	require.Equal(t, http.StatusCreated, w.Code, "TODO作成に失敗しました: %s", w.Body.String())

	var created models.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

// StoredTasks はKVに保存されているタスク一覧を読み出します。
func StoredTasks(t *testing.T, app *TestApp) []models.Task {
	t.Helper()
	raw, ok, err := app.KV.Get(context.Background(), config.DefaultStorageKey)
	require.NoError(t, err)
	require.True(t, ok, "task list was never saved")

	var tasks []models.Task
	require.NoError(t, json.Unmarshal([]byte(raw), &tasks))
	return tasks
}
