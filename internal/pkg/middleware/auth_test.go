package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"blog_api/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "middleware-test-secret-key-32-chars!!"

type MockAccountLoader struct {
	mock.Mock
}

func (m *MockAccountLoader) LoadAccount(ctx context.Context, userID string) (*Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Account), args.Error(1)
}

func setupRouter(tokens security.TokenService, loader AccountLoader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Authenticate(tokens, loader))

	r.GET("/public", func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, p.Username)
	})
	r.GET("/private", RequireAuth(), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/admin", RequireRole(security.RoleAdmin), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/moderator", RequireRole(security.RoleModerator), func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func doRequest(r http.Handler, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticate(t *testing.T) {
	tokens := security.NewJWTTokenService(testSecret, "blog-api", time.Hour)

	issue := func(t *testing.T, id, username string, roles ...security.RoleName) string {
		token, _, err := tokens.Issue(&security.Principal{UserID: id, Username: username, Roles: roles})
		require.NoError(t, err)
		return token
	}

	t.Run("No header stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		w := doRequest(setupRouter(tokens, loader), "/public", "")
		assert.Equal(t, "anonymous", w.Body.String())
		loader.AssertNotCalled(t, "LoadAccount", mock.Anything, mock.Anything)
	})

	t.Run("Non bearer header stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		w := doRequest(setupRouter(tokens, loader), "/public", "Basic dXNlcjpwYXNz")
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("Empty bearer token stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		w := doRequest(setupRouter(tokens, loader), "/public", "Bearer   ")
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("Malformed token continues anonymously", func(t *testing.T) {
		loader := new(MockAccountLoader)
		w := doRequest(setupRouter(tokens, loader), "/public", "Bearer garbage")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("Valid token injects principal", func(t *testing.T) {
		loader := new(MockAccountLoader)
		loader.On("LoadAccount", mock.Anything, "u1").Return(&Account{
			ID: "u1", Username: "alice", Roles: []security.RoleName{security.RoleUser}, Enabled: true,
		}, nil)

		w := doRequest(setupRouter(tokens, loader), "/public", "Bearer "+issue(t, "u1", "alice", security.RoleUser))
		assert.Equal(t, "alice", w.Body.String())
		loader.AssertExpectations(t)
	})

	t.Run("Roles come from the store, not the token", func(t *testing.T) {
		loader := new(MockAccountLoader)
		loader.On("LoadAccount", mock.Anything, "u1").Return(&Account{
			ID: "u1", Username: "alice", Roles: []security.RoleName{security.RoleUser}, Enabled: true,
		}, nil)

		w := doRequest(setupRouter(tokens, loader), "/admin", "Bearer "+issue(t, "u1", "alice", security.RoleAdmin))
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("Disabled account stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		loader.On("LoadAccount", mock.Anything, "u2").Return(&Account{ID: "u2", Username: "bob", Enabled: false}, nil)

		w := doRequest(setupRouter(tokens, loader), "/private", "Bearer "+issue(t, "u2", "bob"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Locked account stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		loader.On("LoadAccount", mock.Anything, "u3").Return(&Account{ID: "u3", Username: "eve", Enabled: true, Locked: true}, nil)

		w := doRequest(setupRouter(tokens, loader), "/public", "Bearer "+issue(t, "u3", "eve"))
		assert.Equal(t, "anonymous", w.Body.String())
	})

	t.Run("Store failure stays anonymous", func(t *testing.T) {
		loader := new(MockAccountLoader)
		loader.On("LoadAccount", mock.Anything, "u4").Return(nil, errors.New("db down"))

		w := doRequest(setupRouter(tokens, loader), "/public", "Bearer "+issue(t, "u4", "zed"))
		assert.Equal(t, "anonymous", w.Body.String())
	})
}

func TestRequireRole(t *testing.T) {
	tokens := security.NewJWTTokenService(testSecret, "blog-api", time.Hour)
	token, _, err := tokens.Issue(&security.Principal{UserID: "admin-1", Username: "root"})
	require.NoError(t, err)

	loader := new(MockAccountLoader)
	loader.On("LoadAccount", mock.Anything, "admin-1").Return(&Account{
		ID: "admin-1", Username: "root", Roles: []security.RoleName{security.RoleAdmin}, Enabled: true,
	}, nil)
	r := setupRouter(tokens, loader)

	t.Run("Anonymous gets 401", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/admin", "").Code)
		assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/private", "").Code)
	})

	t.Run("Admin passes admin gate", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doRequest(r, "/admin", "Bearer "+token).Code)
	})

	t.Run("Admin implies moderator", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, doRequest(r, "/moderator", "Bearer "+token).Code)
	})
}

func TestBearerToken(t *testing.T) {
	token, ok := bearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = bearerToken("Bearer")
	assert.False(t, ok)

	_, ok = bearerToken("Token abc")
	assert.False(t, ok)
}
