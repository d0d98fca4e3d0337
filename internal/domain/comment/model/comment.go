package model

import (
	"time"

	postModel "blog_api/internal/domain/post/model"
	userModel "blog_api/internal/domain/user/model"
	baseModel "blog_api/pkg/model"
	"blog_api/pkg/security"
)

// Comment 评论，通过 ParentID 组成回复树，删除只打标记
type Comment struct {
	baseModel.BaseModel
	Content   string         `gorm:"type:text;not null" json:"content"`
	IsDeleted bool           `gorm:"not null;default:false" json:"isDeleted"`
	ParentID  *string        `gorm:"type:uuid;index" json:"parentId"`
	PostID    string         `gorm:"type:uuid;not null;index" json:"postId"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"userId"`
	User      userModel.User `gorm:"foreignKey:UserID" json:"-"`
	Post      postModel.Post `gorm:"foreignKey:PostID" json:"-"`
	Parent    *Comment       `gorm:"foreignKey:ParentID" json:"-"`
}

func (c *Comment) IsAuthor(userID string) bool {
	return c.UserID == userID
}

// CanModify 作者、版主、管理员可以修改或删除
func (c *Comment) CanModify(p *security.Principal) bool {
	return p != nil && (c.IsAuthor(p.UserID) || p.IsModerator())
}

// CommentInput 发表评论
type CommentInput struct {
	PostID   string  `json:"postId" binding:"required"`
	ParentID *string `json:"parentId"`
	Content  string  `json:"content" binding:"required,min=1,max=1000"`
}

// ContentInput 回复或修改评论
type ContentInput struct {
	Content string `json:"content" binding:"required,min=1,max=1000"`
}

// CommentResponse 评论响应
type CommentResponse struct {
	ID             string    `json:"id"`
	Content        string    `json:"content"`
	IsDeleted      bool      `json:"isDeleted"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
	UserID         string    `json:"userId"`
	Username       string    `json:"username"`
	UserAvatar     string    `json:"userAvatar,omitempty"`
	PostID         string    `json:"postId"`
	PostTitle      string    `json:"postTitle,omitempty"`
	PostSlug       string    `json:"postSlug,omitempty"`
	ParentID       *string   `json:"parentId,omitempty"`
	ParentUsername string    `json:"parentUsername,omitempty"`
	ReplyCount     int64     `json:"replyCount"`
	CanEdit        bool      `json:"canEdit"`
	CanDelete      bool      `json:"canDelete"`
}

// ToResponse viewer 为 nil 时 canEdit/canDelete 均为 false
func (c *Comment) ToResponse(replyCount int64, viewer *security.Principal) CommentResponse {
	resp := CommentResponse{
		ID:         c.ID,
		Content:    c.Content,
		IsDeleted:  c.IsDeleted,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
		UserID:     c.UserID,
		Username:   c.User.Username,
		UserAvatar: c.User.AvatarURL,
		PostID:     c.PostID,
		PostTitle:  c.Post.Title,
		PostSlug:   c.Post.Slug,
		ParentID:   c.ParentID,
		ReplyCount: replyCount,
	}
	if c.Parent != nil {
		resp.ParentUsername = c.Parent.User.Username
	}
	modify := c.CanModify(viewer)
	resp.CanEdit = modify
	resp.CanDelete = modify
	return resp
}
