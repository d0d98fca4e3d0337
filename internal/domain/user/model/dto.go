package model

import (
	"time"

	"blog_api/pkg/security"
)

// UserSummary 嵌入在帖子、评论中的作者信息
type UserSummary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// UserResponse 用户详情
type UserResponse struct {
	ID             string              `json:"id"`
	Username       string              `json:"username"`
	Email          string              `json:"email"`
	FirstName      string              `json:"firstName"`
	LastName       string              `json:"lastName"`
	FullName       string              `json:"fullName"`
	Bio            string              `json:"bio"`
	AvatarURL      string              `json:"avatarUrl"`
	Enabled        bool                `json:"enabled"`
	Locked         bool                `json:"locked"`
	EmailVerified  bool                `json:"emailVerified"`
	Roles          []security.RoleName `json:"roles"`
	CreatedAt      time.Time           `json:"createdAt"`
	LastLoginAt    *time.Time          `json:"lastLoginAt,omitempty"`
	FollowersCount int64               `json:"followersCount"`
	FollowingCount int64               `json:"followingCount"`
}

// UserStatistics 用户统计
type UserStatistics struct {
	UserID                string    `json:"userId"`
	Username              string    `json:"username"`
	PostsCount            int64     `json:"postsCount"`
	PublishedPostsCount   int64     `json:"publishedPostsCount"`
	FollowersCount        int64     `json:"followersCount"`
	FollowingCount        int64     `json:"followingCount"`
	TotalLikesReceived    int64     `json:"totalLikesReceived"`
	TotalCommentsReceived int64     `json:"totalCommentsReceived"`
	TotalViews            int64     `json:"totalViews"`
	MemberSince           time.Time `json:"memberSince"`
	AccountAgeDays        int       `json:"accountAgeDays"`
}

// ToSummary 转换为摘要
func (u *User) ToSummary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName(), AvatarURL: u.AvatarURL}
}

// ToResponse 转换为详情
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:            u.ID,
		Username:      u.Username,
		Email:         u.Email,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		FullName:      u.FullName(),
		Bio:           u.Bio,
		AvatarURL:     u.AvatarURL,
		Enabled:       u.Enabled,
		Locked:        u.Locked,
		EmailVerified: u.EmailVerified,
		Roles:         u.RoleNames(),
		CreatedAt:     u.CreatedAt,
		LastLoginAt:   u.LastLoginAt,
	}
}
