package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"repair-tracker/internal/config"
	"repair-tracker/internal/database"
	"repair-tracker/internal/handlers"
	"repair-tracker/internal/service"
	"repair-tracker/internal/token"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type envelope struct {
	Status      string          `json:"status"`
	Kind        string          `json:"kind"`
	Reason      string          `json:"reason"`
	Description string          `json:"description"`
	Data        json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	router http.Handler
	token  string
}

func (c apiClient) do(method, path string, body interface{}) (int, envelope) {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			c.t.Fatalf("%s %s: decode response: %v (%s)", method, path, err, w.Body.String())
		}
	} else {
		env.Data = w.Body.Bytes()
	}
	return w.Code, env
}

func (c apiClient) as(tok string) apiClient {
	c.token = tok
	return c
}

func (c apiClient) login(login, password string) string {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/login", gin.H{"login": login, "password": password})
	if code != http.StatusOK {
		c.t.Fatalf("login %s: %d %+v", login, code, env)
	}
	var data struct {
		Token string `json:"token"`
	}
	_ = json.Unmarshal(env.Data, &data)
	return data.Token
}

func (c apiClient) register(login string) uint {
	c.t.Helper()
	code, env := c.do(http.MethodPost, "/api/auth/register", gin.H{
		"full_name": "Пользователь " + login, "phone": "+7900", "login": login, "password": "pass",
	})
	if code != http.StatusCreated {
		c.t.Fatalf("register %s: %d %+v", login, code, env)
	}
	var data struct {
		UserID uint `json:"user_id"`
	}
	_ = json.Unmarshal(env.Data, &data)
	return data.UserID
}

func newTestAPI(t *testing.T) apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		if strings.Contains(err.Error(), "requires cgo") {
			t.Skipf("skip API tests: %v", err)
		}
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		if strings.Contains(err.Error(), "requires cgo") {
			t.Skipf("skip API tests: %v", err)
		}
		t.Fatalf("Migrate error: %v", err)
	}
	if err := database.CreateDefaultAdmin(db, database.AdminSeed{Login: "root", Password: "rootpass"}); err != nil {
		t.Fatalf("CreateDefaultAdmin error: %v", err)
	}

	st := database.NewStore(db)
	auth := service.NewAuthService(st)
	tokens := token.NewManager("jwt-secret", time.Hour, token.NewMemoryBlacklist())
	h := handlers.New(auth, service.NewRequestService(st), service.NewReportService(st), tokens)

	cfg := &config.Config{SessionSecret: "session-secret", JWTTTL: time.Hour}
	return apiClient{t: t, router: NewRouter(cfg, h, auth, tokens)}
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t)
	code, env := api.do(http.MethodGet, "/health", nil)
	if code != http.StatusOK || string(env.Data) != "ok" {
		t.Fatalf("unexpected health response %d %q", code, env.Data)
	}
}

func TestAuthErrors(t *testing.T) {
	api := newTestAPI(t)

	code, env := api.do(http.MethodPost, "/api/auth/register", gin.H{
		"full_name": "Иван", "phone": "1", "login": "ab", "password": "xyz",
	})
	if code != http.StatusBadRequest || env.Kind != "validation" || env.Reason != "too-short" {
		t.Fatalf("unexpected short-login response %d %+v", code, env)
	}

	api.register("abc")
	code, env = api.do(http.MethodPost, "/api/auth/register", gin.H{
		"full_name": "Иван", "phone": "1", "login": "abc", "password": "xyz",
	})
	if code != http.StatusConflict || env.Kind != "login_taken" {
		t.Fatalf("unexpected duplicate response %d %+v", code, env)
	}

	code, env = api.do(http.MethodPost, "/api/auth/login", gin.H{"login": "abc", "password": "wrong"})
	if code != http.StatusUnauthorized || env.Kind != "invalid_credentials" {
		t.Fatalf("unexpected bad-login response %d %+v", code, env)
	}

	code, env = api.do(http.MethodGet, "/api/requests", nil)
	if code != http.StatusUnauthorized || env.Kind != "unauthenticated" {
		t.Fatalf("unexpected anonymous response %d %+v", code, env)
	}
}

func TestRequestFlow(t *testing.T) {
	api := newTestAPI(t)
	admin := api.as(api.login("root", "rootpass"))

	api.register("client")
	client := api.as(api.login("client", "pass"))
	masterID := api.register("master")

	code, env := admin.do(http.MethodPut, "/api/users/"+itoa(masterID)+"/role", gin.H{"role": "Мастер"})
	if code != http.StatusOK {
		t.Fatalf("promote master: %d %+v", code, env)
	}
	master := api.as(api.login("master", "pass"))

	code, env = client.do(http.MethodPost, "/api/requests", gin.H{
		"equipment_type": "Холодильник", "model": "Atlant", "description": "не морозит",
	})
	if code != http.StatusCreated {
		t.Fatalf("create request: %d %+v", code, env)
	}
	var created struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	}
	_ = json.Unmarshal(env.Data, &created)
	if created.Status != "Новая" {
		t.Fatalf("unexpected status %q", created.Status)
	}
	path := "/api/requests/" + itoa(created.ID)

	code, env = client.do(http.MethodPost, path+"/assign", gin.H{"master_id": masterID})
	if code != http.StatusForbidden || env.Kind != "unauthorized" {
		t.Fatalf("client assign: %d %+v", code, env)
	}

	code, env = admin.do(http.MethodPost, path+"/assign", gin.H{"master_id": masterID})
	if code != http.StatusOK {
		t.Fatalf("assign: %d %+v", code, env)
	}
	code, env = admin.do(http.MethodPost, path+"/assign", gin.H{"master_id": masterID})
	if code != http.StatusConflict || env.Reason != "already-assigned" {
		t.Fatalf("second assign: %d %+v", code, env)
	}

	code, env = master.do(http.MethodPost, path+"/complete", gin.H{"cost": 150.0, "repair_parts": "компрессор"})
	if code != http.StatusOK {
		t.Fatalf("complete: %d %+v", code, env)
	}
	var completed struct {
		Status        string   `json:"status"`
		Cost          *float64 `json:"cost"`
		DateCompleted *string  `json:"date_completed"`
	}
	_ = json.Unmarshal(env.Data, &completed)
	if completed.Status != "Выполнена" || completed.Cost == nil || *completed.Cost != 150 || completed.DateCompleted == nil {
		t.Fatalf("unexpected completed request: %s", env.Data)
	}

	code, env = master.do(http.MethodPost, path+"/complete", gin.H{"cost": 150.0})
	if code != http.StatusConflict || env.Reason != "terminal" {
		t.Fatalf("second complete: %d %+v", code, env)
	}

	code, env = client.do(http.MethodGet, path+"/history", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), "complete") {
		t.Fatalf("history: %d %s", code, env.Data)
	}

	code, env = admin.do(http.MethodGet, "/api/reports/average-time", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"count":1`) {
		t.Fatalf("average time: %d %s", code, env.Data)
	}
	code, env = admin.do(http.MethodGet, "/api/reports/performance?format=text", nil)
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Заявка №"+itoa(created.ID)) {
		t.Fatalf("performance text: %d %s", code, env.Data)
	}
	code, env = client.do(http.MethodGet, "/api/reports/status", nil)
	if code != http.StatusForbidden {
		t.Fatalf("client report: %d %+v", code, env)
	}
}

func TestSelfRoleChangeAndLogout(t *testing.T) {
	api := newTestAPI(t)
	tok := api.login("root", "rootpass")
	admin := api.as(tok)

	code, env := admin.do(http.MethodGet, "/api/auth/me", nil)
	if code != http.StatusOK {
		t.Fatalf("me: %d %+v", code, env)
	}
	var me struct {
		UserID uint `json:"user_id"`
	}
	_ = json.Unmarshal(env.Data, &me)

	code, env = admin.do(http.MethodPut, "/api/users/"+itoa(me.UserID)+"/role", gin.H{"role": "Оператор"})
	if code != http.StatusForbidden || env.Reason != "self-role-change" {
		t.Fatalf("self role change: %d %+v", code, env)
	}

	code, _ = admin.do(http.MethodPost, "/api/auth/logout", nil)
	if code != http.StatusOK {
		t.Fatalf("logout: %d", code)
	}
	code, env = admin.do(http.MethodGet, "/api/auth/me", nil)
	if code != http.StatusUnauthorized {
		t.Fatalf("revoked token accepted: %d %+v", code, env)
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
