package mw

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"panel-backend/internal/apperr"
	"panel-backend/internal/cache"
	"panel-backend/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrors(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		bind         bool
		expectedCode int
		expectedBody string
	}{
		{
			name:         "Not found",
			err:          apperr.ErrNotFound,
			expectedCode: http.StatusNotFound,
			expectedBody: `{"errors":[{"code":"NotFoundHttpException","status":"404","detail":"The requested resource could not be located on the server."}]}`,
		},
		{
			name:         "Forbidden",
			err:          apperr.ErrForbidden,
			expectedCode: http.StatusForbidden,
			expectedBody: `{"errors":[{"code":"AccessDeniedHttpException","status":"403","detail":"This action is unauthorized."}]}`,
		},
		{
			name:         "Unauthenticated",
			err:          apperr.ErrUnauthenticated,
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"errors":[{"code":"AuthenticationException","status":"401","detail":"Unauthenticated."}]}`,
		},
		{
			name:         "Display error",
			err:          apperr.Display("You do not have enough credits."),
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"errors":[{"code":"DisplayException","status":"400","detail":"You do not have enough credits."}]}`,
		},
		{
			name:         "Validation error",
			err:          errors.New("Key: 'name' Error:Field validation for 'name' failed on the 'required' tag"),
			bind:         true,
			expectedCode: http.StatusUnprocessableEntity,
			expectedBody: `{"errors":[{"code":"ValidationException","status":"422","detail":"Key: 'name' Error:Field validation for 'name' failed on the 'required' tag"}]}`,
		},
		{
			name:         "Wrapped not found",
			err:          errors.Join(errors.New("lookup"), apperr.ErrNotFound),
			expectedCode: http.StatusNotFound,
			expectedBody: `{"errors":[{"code":"NotFoundHttpException","status":"404","detail":"The requested resource could not be located on the server."}]}`,
		},
		{
			name:         "Internal error hides details",
			err:          errors.New("pq: connection refused"),
			expectedCode: http.StatusInternalServerError,
			expectedBody: `{"errors":[{"code":"HttpException","status":"500","detail":"An unexpected error was encountered while processing this request."}]}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(Errors())
			r.GET("/", func(c *gin.Context) {
				e := c.Error(tc.err)
				if tc.bind {
					e.SetType(gin.ErrorTypeBind)
				}
			})

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.expectedCode, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

type fakeAuth struct {
	users    map[string]*model.User
	approved bool
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, apperr.ErrUnauthenticated
}

func (f *fakeAuth) CheckApproved(ctx context.Context, user *model.User) error {
	if f.approved || user.Approved {
		return nil
	}
	return apperr.ErrForbidden
}

func TestAuth(t *testing.T) {
	auth := &fakeAuth{users: map[string]*model.User{
		"user-token":    {ID: 1, Approved: true},
		"admin-token":   {ID: 2, Approved: true, RootAdmin: true},
		"pending-token": {ID: 3},
	}}

	r := gin.New()
	r.Use(Errors())
	client := r.Group("/client", RequireUser(auth), RequireApproved(auth))
	client.GET("/me", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": CurrentUser(c).ID})
	})
	admin := r.Group("/admin", RequireUser(auth), RequireAdmin())
	admin.GET("/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	testCases := []struct {
		name         string
		path         string
		header       string
		expectedCode int
	}{
		{"No header", "/client/me", "", http.StatusUnauthorized},
		{"Wrong scheme", "/client/me", "Basic user-token", http.StatusUnauthorized},
		{"Unknown token", "/client/me", "Bearer nope", http.StatusUnauthorized},
		{"Valid user", "/client/me", "Bearer user-token", http.StatusOK},
		{"Unapproved user", "/client/me", "Bearer pending-token", http.StatusForbidden},
		{"Admin route as user", "/admin/ping", "Bearer user-token", http.StatusForbidden},
		{"Admin route as admin", "/admin/ping", "Bearer admin-token", http.StatusNoContent},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.expectedCode, w.Code)
		})
	}
}

func TestCache(t *testing.T) {
	store := cache.NewMemory()
	calls := 0

	r := gin.New()
	r.Use(Errors())
	r.GET("/nests", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		c.JSON(http.StatusOK, gin.H{"calls": calls})
	})
	r.GET("/missing", Cache(store, time.Minute), func(c *gin.Context) {
		calls++
		_ = c.Error(apperr.ErrNotFound)
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/nests", nil)
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"calls":1}`, w.Body.String())
		assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
	}

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/missing", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code)
	}
	assert.Equal(t, 3, calls, "errors are not cached")
}

func TestRateLimiter(t *testing.T) {
	r := gin.New()
	r.Use(RateLimiter(rate.Limit(1), 2))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
}
