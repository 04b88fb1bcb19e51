package httptransport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"quill-server-go/internal/domain/session"
	"quill-server-go/internal/domain/session/store"
	"quill-server-go/internal/platform/config"
	"quill-server-go/internal/platform/storage"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

var harnessDBSeq atomic.Int64

type harness struct {
	engine  *gin.Engine
	manager *session.Manager
	users   *storage.UserRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:http-test-%d?mode=memory&cache=shared", harnessDBSeq.Add(1))
	db, err := storage.Open(dsn)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	users := storage.NewUserRepository(db)
	content := storage.NewContentRepository(db)

	codec, err := session.NewCodec(session.CodecConfig{
		AccessSecret:  "harness-access",
		RefreshSecret: "harness-refresh",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
	})
	if err != nil {
		t.Fatalf("codec: %v", err)
	}

	manager, err := session.NewManager(session.Options{
		Store:  store.NewMemory(store.Config{}),
		Codec:  codec,
		Users:  users,
		Logger: nopLogger{},
	})
	if err != nil {
		t.Fatalf("manager: %v", err)
	}
	t.Cleanup(func() { _ = manager.Close() })

	cookies := CookieWriter{AccessTTL: time.Minute, RefreshTTL: time.Hour}
	guards := &Guards{Manager: manager, Logger: nopLogger{}}

	cfg := &config.Config{}
	cfg.Log.Level = "error"
	cfg.Auth.RegisterLimit = 100
	cfg.Auth.RegisterLimitWindow = time.Minute

	router, err := Build(Options{
		Config: cfg,
		Guards: guards,
		Auth:   &AuthHandler{Manager: manager, Users: users, Cookies: cookies, Logger: nopLogger{}},
		Content: &ContentHandler{
			Content: content,
			Logger:  nopLogger{},
		},
		Admin: &AdminHandler{Users: users, CredStore: manager.Store(), StartedAt: time.Now()},
	})
	if err != nil {
		t.Fatalf("router: %v", err)
	}

	return &harness{engine: router.Engine, manager: manager, users: users}
}

func (h *harness) do(t *testing.T, method, path string, body any, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	t.Helper()

	var payload *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request: %v", err)
		}
		payload = bytes.NewBuffer(raw)
	} else {
		payload = &bytes.Buffer{}
	}

	req := httptest.NewRequest(method, path, payload)
	req.Header.Set("Content-Type", "application/json")
	for _, fn := range mutate {
		fn(req)
	}

	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func (h *harness) register(t *testing.T, email, password string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/auth/register", gin.H{
		"email":    email,
		"name":     "Tester",
		"password": password,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register = %d: %s", rec.Code, rec.Body.String())
	}
}

// login returns the access and refresh tokens from the response body.
func (h *harness) login(t *testing.T, email, password string) (string, string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/auth/login", gin.H{
		"email":    email,
		"password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	return body.Data.Tokens.AccessToken, body.Data.Tokens.RefreshToken
}

func withBearer(token string) func(*http.Request) {
	return func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func withCookie(name, value string) func(*http.Request) {
	return func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}
}
