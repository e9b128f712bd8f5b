package middleware_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Abhinav7558/employee-management-system/internal/auth/token"
	"github.com/Abhinav7558/employee-management-system/internal/domain"
	"github.com/Abhinav7558/employee-management-system/internal/middleware"
	"github.com/Abhinav7558/employee-management-system/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "test-secret-0123456789"

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	tokens := token.NewManager(testSecret, time.Minute, time.Hour)
	pair, err := tokens.Issue("u-1", "viewer")
	require.NoError(t, err)

	r := newEngine()
	r.GET("/me", middleware.AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString("user_id"),
			"role":    c.GetString("role"),
			"ctx":     contextutil.GetUserID(c.Request.Context()),
		})
	})

	t.Run("bearer header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.Access)

		w := serve(r, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"user_id":"u-1","role":"viewer","ctx":"u-1"}`, w.Body.String())
	})

	t.Run("cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: pair.Access})

		w := serve(r, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "UNAUTHORIZED")
	})

	t.Run("refresh token is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer "+pair.Refresh)

		w := serve(r, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("garbage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")

		w := serve(r, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

type stubRBAC struct {
	allowed bool
	err     error
	got     domain.EnforceRequest
}

func (s *stubRBAC) Enforce(req domain.EnforceRequest) (bool, error) {
	s.got = req
	return s.allowed, s.err
}

func TestRBACAuthorize(t *testing.T) {
	build := func(svc middleware.RBACService, role string) *gin.Engine {
		r := newEngine()
		r.GET("/forms",
			func(c *gin.Context) {
				if role != "" {
					c.Set("role", role)
				}
			},
			middleware.RBACAuthorize(svc, "form", "read"),
			func(c *gin.Context) { c.Status(http.StatusNoContent) },
		)
		return r
	}

	t.Run("allowed", func(t *testing.T) {
		svc := &stubRBAC{allowed: true}
		w := serve(build(svc, "viewer"), httptest.NewRequest(http.MethodGet, "/forms", nil))

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, domain.EnforceRequest{Role: "viewer", Resource: "form", Action: "read"}, svc.got)
	})

	t.Run("denied", func(t *testing.T) {
		w := serve(build(&stubRBAC{}, "viewer"), httptest.NewRequest(http.MethodGet, "/forms", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "FORBIDDEN")
	})

	t.Run("no role", func(t *testing.T) {
		w := serve(build(&stubRBAC{allowed: true}, ""), httptest.NewRequest(http.MethodGet, "/forms", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("enforcer error", func(t *testing.T) {
		w := serve(build(&stubRBAC{err: errors.New("boom")}, "user"), httptest.NewRequest(http.MethodGet, "/forms", nil))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "boom")
	})
}

func TestRateLimitByUser(t *testing.T) {
	r := newEngine()
	r.GET("/x",
		func(c *gin.Context) { c.Set("user_id", c.Query("u")) },
		middleware.RateLimitByUser(0.001, 1),
		func(c *gin.Context) { c.Status(http.StatusOK) },
	)

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x?u=a", nil)).Code)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/x?u=a", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "TOO_MANY_REQUESTS")

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x?u=b", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestRateLimitByIP(t *testing.T) {
	r := newEngine()
	r.GET("/x", middleware.RateLimitByIP(0.001, 2), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusOK, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, httptest.NewRequest(http.MethodGet, "/x", nil)).Code)
}

func TestIdempotency(t *testing.T) {
	const body = `{"ok":true,"data":{"id":"t-1"}}`

	newRouter := func(t *testing.T) (*gin.Engine, redismock.ClientMock, *int) {
		rdb, mock := redismock.NewClientMock()
		calls := 0
		r := newEngine()
		r.POST("/forms",
			func(c *gin.Context) { c.Set("user_id", "u-1") },
			middleware.Idempotency(rdb),
			func(c *gin.Context) {
				calls++
				c.Data(http.StatusCreated, "application/json; charset=utf-8", []byte(body))
			},
		)
		return r, mock, &calls
	}

	post := func(key string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/forms", nil)
		if key != "" {
			req.Header.Set(middleware.IdempotencyHeader, key)
		}
		return req
	}

	cacheKey := middleware.IdempotencyCacheKey("/forms", "u-1", "k-1")

	t.Run("first request is stored", func(t *testing.T) {
		r, mock, calls := newRouter(t)
		stored, _ := json.Marshal(middleware.StoredResponse{Status: http.StatusCreated, Body: json.RawMessage(body)})

		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(true)
		mock.ExpectSet(cacheKey, stored, 24*time.Hour).SetVal("OK")
		mock.ExpectDel(cacheKey + ":lock").SetVal(1)

		w := serve(r, post("k-1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, *calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("replay skips the handler", func(t *testing.T) {
		r, mock, calls := newRouter(t)
		stored, _ := json.Marshal(middleware.StoredResponse{Status: http.StatusCreated, Body: json.RawMessage(body)})
		mock.ExpectGet(cacheKey).SetVal(string(stored))

		w := serve(r, post("k-1"))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, body, w.Body.String())
		assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))
		assert.Equal(t, 0, *calls)
	})

	t.Run("in flight duplicate", func(t *testing.T) {
		r, mock, calls := newRouter(t)
		mock.ExpectGet(cacheKey).RedisNil()
		mock.ExpectSetNX(cacheKey+":lock", "locked", 30*time.Second).SetVal(false)

		w := serve(r, post("k-1"))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, 0, *calls)
	})

	t.Run("no key", func(t *testing.T) {
		r, mock, calls := newRouter(t)

		w := serve(r, post(""))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, 1, *calls)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRequestIDAndContextLogger(t *testing.T) {
	r := newEngine()
	r.Use(middleware.RequestID())
	r.GET("/x",
		func(c *gin.Context) { c.Set("user_id", "u-9") },
		middleware.ContextLogger(zap.NewNop()),
		func(c *gin.Context) {
			ctx := c.Request.Context()
			c.JSON(http.StatusOK, gin.H{
				"rid": contextutil.GetRequestID(ctx),
				"uid": contextutil.GetUserID(ctx),
			})
		},
	)

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "req-42")
	w := serve(r, req)

	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.JSONEq(t, `{"rid":"req-42","uid":"u-9"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
