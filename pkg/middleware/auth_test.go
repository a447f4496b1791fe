package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/sitechat/sitechat/pkg/jwt"
)

func newTestRouter(t *testing.T) (*gin.Engine, *jwt.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager := jwt.NewManager("test-secret", "sitechat", time.Hour)
	m := NewAuthMiddleware(manager)

	r := gin.New()
	r.GET("/whoami", m.RequireAuth(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"admin_id": GetAdminID(c),
			"name":     GetAdminName(c),
		})
	})
	return r, manager
}

func TestRequireAuthSetsIdentity(t *testing.T) {
	req := require.New(t)
	r, manager := newTestRouter(t)

	token, err := manager.GenerateToken("admin-1", "a@example.com", "Alice")
	req.NoError(err)

	w := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	request.Header.Set(AuthHeaderKey, BearerPrefix+token)
	r.ServeHTTP(w, request)

	req.Equal(http.StatusOK, w.Code)
	req.JSONEq(`{"admin_id":"admin-1","name":"Alice"}`, w.Body.String())
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	req.Equal(http.StatusUnauthorized, w.Code)
}

func TestRequireAuthRejectsBadToken(t *testing.T) {
	req := require.New(t)
	r, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	request := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	request.Header.Set(AuthHeaderKey, BearerPrefix+"garbage")
	r.ServeHTTP(w, request)

	req.Equal(http.StatusUnauthorized, w.Code)
}
