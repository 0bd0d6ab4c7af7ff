package middleware

import (
	"kwizzy_backend/internal/config"
	"kwizzy_backend/internal/model"
	"kwizzy_backend/internal/util"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(cfg *config.Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	admin := r.Group("/admin", AuthMiddleware(cfg), RoleMiddleware(model.Admin))
	admin.GET("/ping", func(c *gin.Context) {
		util.Success(c, util.GetUserFromContext(c).UserID)
	})
	return r
}

func tokenFor(t *testing.T, cfg *config.Config, role model.UserRole) string {
	u := &model.User{Email: "x@example.com", Role: role}
	u.ID = 3
	tok, err := util.GenerateJWT(u, cfg.JWT.Secret, time.Hour)
	require.NoError(t, err)
	return tok
}

func TestAuthAndRoleMiddleware(t *testing.T) {
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret"
	r := newTestRouter(cfg)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"garbage token", "Bearer nope", http.StatusUnauthorized},
		{"student", "Bearer " + tokenFor(t, cfg, model.Student), http.StatusForbidden},
		{"admin", "Bearer " + tokenFor(t, cfg, model.Admin), http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/ping", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
