package repository

import (
	"context"
	"errors"

	"blog_api/internal/domain/user/model"
	"blog_api/pkg/database"
	"blog_api/pkg/security"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var roleDescriptions = map[security.RoleName]string{
	security.RoleUser:      "Default user role",
	security.RoleModerator: "Can moderate comments and posts",
	security.RoleAdmin:     "Full administrative access",
}

// RoleRepository 角色与用户角色关联
type RoleRepository interface {
	GetOrCreate(ctx context.Context, name security.RoleName) (*model.Role, error)
	Assign(ctx context.Context, userID string, role *model.Role) (bool, error)
	Remove(ctx context.Context, userID string, role *model.Role) (bool, error)
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// GetOrCreate 角色不存在时创建，并发创建冲突时重新读取
func (r *roleRepository) GetOrCreate(ctx context.Context, name security.RoleName) (*model.Role, error) {
	db := database.Conn(ctx, r.db)

	var role model.Role
	err := db.Where("name = ?", name).First(&role).Error
	if err == nil {
		return &role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role = model.Role{Name: name, Description: roleDescriptions[name]}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&role).Error; err != nil {
		return nil, err
	}
	if err := db.Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// Assign 为用户添加角色，已拥有时返回 false
func (r *roleRepository) Assign(ctx context.Context, userID string, role *model.Role) (bool, error) {
	result := database.Conn(ctx, r.db).Exec(
		"INSERT INTO user_roles (user_id, role_id) VALUES (?, ?) ON CONFLICT DO NOTHING", userID, role.ID)
	return result.RowsAffected > 0, result.Error
}

// Remove 移除用户角色，未拥有时返回 false
func (r *roleRepository) Remove(ctx context.Context, userID string, role *model.Role) (bool, error) {
	result := database.Conn(ctx, r.db).Exec(
		"DELETE FROM user_roles WHERE user_id = ? AND role_id = ?", userID, role.ID)
	return result.RowsAffected > 0, result.Error
}
