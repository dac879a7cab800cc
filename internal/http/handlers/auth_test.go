package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/madialex/accounthub/internal/auth"
	"github.com/madialex/accounthub/internal/config"
	"github.com/madialex/accounthub/internal/domain/user"
	httpx "github.com/madialex/accounthub/internal/http"
	"github.com/madialex/accounthub/internal/http/handlers"
	"github.com/madialex/accounthub/internal/jobs"
	"github.com/madialex/accounthub/internal/repo/memory"
	"github.com/madialex/accounthub/internal/security"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig() config.Config {
	return config.Config{
		Env:        "test",
		JWTSecret:  "test-secret-key",
		JWTTTLDays: 1,
	}
}

type captureQueue struct {
	enqueued [][]byte
	err      error
}

func (q *captureQueue) Enqueue(_ context.Context, payload []byte) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, payload)
	return nil
}

func newAuthEngine(store handlers.UsersStore, queue handlers.WelcomeEnqueuer) *gin.Engine {
	cfg := testConfig()
	jwtManager := auth.NewManager(cfg.JWTSecret, cfg.TokenTTL())
	h := handlers.NewAuthHandler(store, jwtManager, queue, cfg)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(httpx.ErrorHandler(log))
	r.POST("/signup", h.SignUp)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()

	res := w.Result()
	defer res.Body.Close()

	for _, c := range res.Cookies() {
		if c.Name == "jwt" {
			return c
		}
	}
	return nil
}

func TestSignUpCreatesUserAndSetsCookie(t *testing.T) {
	store := memory.NewUsersRepo()
	r := newAuthEngine(store, nil)

	w := postJSON(r, "/signup", `{"name":"Alice","email":"alice@x.com","password":"s3cretpass"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Message string      `json:"message"`
		User    user.Public `json:"user"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("bad response body: %v", err)
	}

	if body.Message != "User registered!" {
		t.Fatalf("message = %q", body.Message)
	}

	if body.User.Email != "alice@x.com" || body.User.IsAdmin {
		t.Fatalf("unexpected public user: %+v", body.User)
	}

	if strings.Contains(w.Body.String(), "s3cretpass") {
		t.Fatalf("response leaked the plaintext password")
	}

	cookie := sessionCookie(t, w)
	if cookie == nil {
		t.Fatalf("expected a session cookie after signup")
	}
	if !cookie.HttpOnly {
		t.Fatalf("session cookie must be HttpOnly")
	}

	stored, err := store.GetByEmail(context.Background(), "alice@x.com")
	if err != nil {
		t.Fatalf("user not persisted: %v", err)
	}

	if stored.PasswordHash == "s3cretpass" {
		t.Fatalf("password stored in plaintext")
	}

	if err := security.CheckPassword(stored.PasswordHash, "s3cretpass"); err != nil {
		t.Fatalf("stored hash does not verify the original password: %v", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	store := memory.NewUsersRepo()
	r := newAuthEngine(store, nil)

	if w := postJSON(r, "/signup", `{"name":"Alice","email":"alice@x.com","password":"s3cretpass"}`); w.Code != http.StatusCreated {
		t.Fatalf("first signup failed: %d %s", w.Code, w.Body.String())
	}

	w := postJSON(r, "/signup", `{"name":"Another Alice","email":"alice@x.com","password":"otherpass1"}`)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
	}

	if !strings.Contains(w.Body.String(), "User with email alice@x.com already exists!") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	all, err := store.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("duplicate signup must not create a record, have %d", len(all))
	}
}

func TestSignUpValidation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing email", body: `{"name":"Alice","password":"s3cretpass"}`},
		{name: "bad email", body: `{"name":"Alice","email":"nope","password":"s3cretpass"}`},
		{name: "short password", body: `{"name":"Alice","email":"a@x.com","password":"short"}`},
		{name: "not json", body: `name=Alice`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthEngine(memory.NewUsersRepo(), nil)

			w := postJSON(r, "/signup", tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestLogin(t *testing.T) {
	store := memory.NewUsersRepo()
	r := newAuthEngine(store, nil)

	if w := postJSON(r, "/signup", `{"name":"Alice","email":"alice@x.com","password":"s3cretpass"}`); w.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", w.Code, w.Body.String())
	}

	t.Run("unknown email", func(t *testing.T) {
		w := postJSON(r, "/login", `{"email":"bob@x.com","password":"whatever123"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "bob@x.com not registered!") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		w := postJSON(r, "/login", `{"email":"alice@x.com","password":"wrongpass1"}`)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", w.Code)
		}
		if !strings.Contains(w.Body.String(), "Invalid Password!") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}
		if sessionCookie(t, w) != nil {
			t.Fatalf("failed login must not set a session cookie")
		}
	})

	t.Run("success", func(t *testing.T) {
		w := postJSON(r, "/login", `{"email":"alice@x.com","password":"s3cretpass"}`)

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200, body=%s", w.Code, w.Body.String())
		}
		if !strings.Contains(w.Body.String(), "login successful!") {
			t.Fatalf("unexpected body: %s", w.Body.String())
		}

		cookie := sessionCookie(t, w)
		if cookie == nil || cookie.Value == "" {
			t.Fatalf("expected a session cookie after login")
		}
	})
}

func TestLogoutClearsCookie(t *testing.T) {
	r := newAuthEngine(memory.NewUsersRepo(), nil)

	w := postJSON(r, "/logout", "")

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "logout successfully!") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}

	cookie := sessionCookie(t, w)
	if cookie == nil {
		t.Fatalf("logout must rewrite the session cookie")
	}
	if cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("logout cookie not cleared: value=%q maxAge=%d", cookie.Value, cookie.MaxAge)
	}
}

func TestSignUpEnqueuesWelcomeJob(t *testing.T) {
	queue := &captureQueue{}
	r := newAuthEngine(memory.NewUsersRepo(), queue)

	if w := postJSON(r, "/signup", `{"name":"Alice","email":"alice@x.com","password":"s3cretpass"}`); w.Code != http.StatusCreated {
		t.Fatalf("signup failed: %d %s", w.Code, w.Body.String())
	}

	if len(queue.enqueued) != 1 {
		t.Fatalf("enqueued %d jobs, want 1", len(queue.enqueued))
	}

	j, err := jobs.Decode(queue.enqueued[0])
	if err != nil {
		t.Fatalf("enqueued bytes are not a job: %v", err)
	}

	decoded, err := jobs.DecodePayload(j)
	if err != nil {
		t.Fatalf("bad payload: %v", err)
	}

	p, ok := decoded.(jobs.WelcomeEmailPayload)
	if !ok {
		t.Fatalf("payload has type %T", decoded)
	}
	if p.Email != "alice@x.com" || p.Name != "Alice" {
		t.Fatalf("payload mismatch: %+v", p)
	}
}

func TestSignUpSurvivesQueueOutage(t *testing.T) {
	queue := &captureQueue{err: errors.New("redis down")}
	store := memory.NewUsersRepo()
	r := newAuthEngine(store, queue)

	w := postJSON(r, "/signup", `{"name":"Alice","email":"alice@x.com","password":"s3cretpass"}`)

	if w.Code != http.StatusCreated {
		t.Fatalf("queue outage must not fail signup: %d %s", w.Code, w.Body.String())
	}

	if _, err := store.GetByEmail(context.Background(), "alice@x.com"); err != nil {
		t.Fatalf("user not persisted: %v", err)
	}
}
