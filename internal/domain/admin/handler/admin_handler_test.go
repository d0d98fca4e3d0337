package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"blog_api/internal/domain/admin/service"
	userModel "blog_api/internal/domain/user/model"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAdminService is a mock of AdminService
type MockAdminService struct {
	mock.Mock
}

func (m *MockAdminService) userOrNil(args mock.Arguments) (*userModel.UserResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.UserResponse), args.Error(1)
}

func (m *MockAdminService) ListUsers(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[userModel.UserResponse], error) {
	args := m.Called(ctx, search, p)
	return args.Get(0).(utils.PageResult[userModel.UserResponse]), args.Error(1)
}

func (m *MockAdminService) GetUser(ctx context.Context, id string) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id))
}

func (m *MockAdminService) UpdateUser(ctx context.Context, id string, patch service.UserPatch) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id, patch))
}

func (m *MockAdminService) DeleteUser(ctx context.Context, id string, actor *security.Principal) error {
	return m.Called(ctx, id, actor).Error(0)
}

func (m *MockAdminService) Ban(ctx context.Context, id string, actor *security.Principal) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id, actor))
}

func (m *MockAdminService) Unban(ctx context.Context, id string) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id))
}

func (m *MockAdminService) AssignRole(ctx context.Context, id string, role security.RoleName) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id, role))
}

func (m *MockAdminService) RemoveRole(ctx context.Context, id string, role security.RoleName, actor *security.Principal) (*userModel.UserResponse, error) {
	return m.userOrNil(m.Called(ctx, id, role, actor))
}

func (m *MockAdminService) Statistics(ctx context.Context) (*service.SystemStatistics, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SystemStatistics), args.Error(1)
}

func (m *MockAdminService) FeaturePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) UnfeaturePost(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockAdminService) DeleteAnyPost(ctx context.Context, id string, actor *security.Principal) error {
	return m.Called(ctx, id, actor).Error(0)
}

func (m *MockAdminService) DeleteAnyComment(ctx context.Context, id string, actor *security.Principal) error {
	return m.Called(ctx, id, actor).Error(0)
}

func setupRouter(svc *MockAdminService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewAdminHandler(svc)
	r.PUT("/admin/users/:id", h.UpdateUser)
	r.POST("/admin/users/:id/roles", h.AssignRole)
	r.POST("/admin/users/:id/assign-admin", h.AssignFixedRole(security.RoleAdmin))
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUpdateUserHandler(t *testing.T) {
	t.Run("Unknown key is rejected", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin/users/u1", strings.NewReader(`{"bio":"x","password":"hunter2"}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decodeBody(t, w)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "VALIDATION_FAILED", body["error"].(map[string]interface{})["code"])
		svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Invalid email fails validation", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin/users/u1", strings.NewReader(`{"email":"nope"}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "UpdateUser", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Typed patch reaches the service", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)
		svc.On("UpdateUser", mock.Anything, "u1", mock.MatchedBy(func(p service.UserPatch) bool {
			return p.Locked != nil && *p.Locked && p.Bio == nil
		})).Return(&userModel.UserResponse{ID: "u1", Locked: true}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPut, "/admin/users/u1", strings.NewReader(`{"locked":true}`))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeBody(t, w)["data"].(map[string]interface{})
		assert.Equal(t, true, data["locked"])
		svc.AssertExpectations(t)
	})
}

func TestAssignRoleHandler(t *testing.T) {
	t.Run("Role name is parsed leniently", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)
		svc.On("AssignRole", mock.Anything, "u1", security.RoleModerator).
			Return(&userModel.UserResponse{ID: "u1"}, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/users/u1/roles", strings.NewReader(`{"role":"role_moderator"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("Unknown role", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/admin/users/u1/roles", strings.NewReader(`{"role":"superuser"}`))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Fixed admin route", func(t *testing.T) {
		svc := new(MockAdminService)
		r := setupRouter(svc)
		svc.On("AssignRole", mock.Anything, "u1", security.RoleAdmin).Return(&userModel.UserResponse{ID: "u1"}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/users/u1/assign-admin", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		svc.AssertExpectations(t)
	})
}
