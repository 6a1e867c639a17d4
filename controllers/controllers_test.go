package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civicpulse-be/engine"
	"civicpulse-be/middlewares"
	"civicpulse-be/models"
	"civicpulse-be/services"
	"civicpulse-be/store"
	authUtils "civicpulse-be/utils"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))

var testTokens = authUtils.NewTokens("controller-secret", time.Hour)

type stubLoader map[primitive.ObjectID]*models.User

func (s stubLoader) GetUser(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, engine.NotFound("user")
}

// harness is a router whose authenticated routes resolve the bearer token
// against a fixed set of users.
type harness struct {
	r     *gin.Engine
	users stubLoader
	auth  gin.HandlerFunc
}

func newHarness() *harness {
	h := &harness{r: gin.New(), users: stubLoader{}}
	h.auth = middlewares.AuthMiddleware(testTokens, h.users, quietLog)
	return h
}

func (h *harness) login(t *testing.T, role models.Role) (*models.User, string) {
	t.Helper()
	u := &models.User{ID: primitive.NewObjectID(), Role: role, IsEmailVerified: true, IsPhoneVerified: true}
	h.users[u.ID] = u
	token, err := testTokens.GenerateToken(u.ID.Hex(), string(role))
	if err != nil {
		t.Fatal(err)
	}
	return u, token
}

func (h *harness) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	if s, ok := body.(string); ok {
		buf = bytes.NewBufferString(s)
	} else if body != nil {
		b, _ := json.Marshal(body)
		buf = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{engine.NotFound("issue"), http.StatusNotFound},
		{engine.Forbidden("nope"), http.StatusForbidden},
		{engine.ErrDuplicateVote, http.StatusConflict},
		{engine.ErrDuplicateBadge, http.StatusConflict},
		{engine.ErrInvalidBadge, http.StatusBadRequest},
		{engine.Invalid("title is required"), http.StatusBadRequest},
		{services.ErrUserExists, http.StatusBadRequest},
		{fmt.Errorf("issue x: %w", store.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: expired", authUtils.ErrInvalidToken), http.StatusUnauthorized},
		{services.ErrMediaUnavailable, http.StatusServiceUnavailable},
		{errors.New("socket closed"), 0},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestRespondErrorHidesInternalErrors(t *testing.T) {
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) { respondError(c, quietLog, errors.New("mongo: connection reset")) })
	r.GET("/missing", func(c *gin.Context) { respondError(c, quietLog, engine.NotFound("issue")) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["error"]; got != "Something went wrong" {
		t.Errorf("error = %v", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
	if got := decode(t, w)["error"]; got != "not found: issue" {
		t.Errorf("error = %v", got)
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query       string
		page, limit int
	}{
		{"", 1, 10},
		{"?page=3&limit=25", 3, 25},
		{"?page=0&limit=0", 1, 10},
		{"?page=x&limit=1000", 1, 10},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/"+tt.query, nil)
		page, limit := pagination(c, 10)
		if page != tt.page || limit != tt.limit {
			t.Errorf("%q: got (%d, %d), want (%d, %d)", tt.query, page, limit, tt.page, tt.limit)
		}
	}
	if got := totalPages(21, 10); got != 3 {
		t.Errorf("totalPages = %d", got)
	}
}
