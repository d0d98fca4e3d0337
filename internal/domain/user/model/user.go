package model

import (
	"strings"
	"time"

	"blog_api/pkg/model"
	"blog_api/pkg/security"
)

// Role 角色
type Role struct {
	model.BaseModel
	Name        security.RoleName `gorm:"type:varchar(20);uniqueIndex;not null" json:"name"`
	Description string            `gorm:"size:255" json:"description"`
}

// User 用户模型
type User struct {
	model.BaseModel
	Email         string     `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Username      string     `gorm:"uniqueIndex;size:50;not null" json:"username"`
	PasswordHash  string     `gorm:"column:password;not null" json:"-"` // 密码不返回给前端
	FirstName     string     `gorm:"size:50" json:"firstName"`
	LastName      string     `gorm:"size:50" json:"lastName"`
	Bio           string     `gorm:"size:500" json:"bio"`
	AvatarURL     string     `gorm:"size:255" json:"avatarUrl"`
	Enabled       bool       `gorm:"not null" json:"enabled"`
	Locked        bool       `gorm:"not null" json:"locked"`
	EmailVerified bool       `gorm:"not null" json:"emailVerified"`
	LastLoginAt   *time.Time `json:"lastLoginAt"`
	Roles         []Role     `gorm:"many2many:user_roles;" json:"roles"`
}

// FullName 姓名，均为空时返回用户名
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

// RoleNames 角色名列表
func (u *User) RoleNames() []security.RoleName {
	names := make([]security.RoleName, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Name)
	}
	return names
}

// HasRole 是否直接拥有角色（不做蕴含展开）
func (u *User) HasRole(name security.RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Active 可登录状态
func (u *User) Active() bool {
	return u.Enabled && !u.Locked
}

// Principal 转换为鉴权身份
func (u *User) Principal() *security.Principal {
	return &security.Principal{UserID: u.ID, Username: u.Username, Roles: u.RoleNames()}
}

// Subscription 关注关系：subscriber 关注 author
// 粉丝与关注列表都是对这一张边表的查询
type Subscription struct {
	SubscriberID string    `gorm:"primaryKey;type:uuid"`
	AuthorID     string    `gorm:"primaryKey;type:uuid"`
	CreatedAt    time.Time
}

func (Subscription) TableName() string {
	return "subscriptions"
}
