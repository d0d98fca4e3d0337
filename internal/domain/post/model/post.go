package model

import (
	"strings"
	"time"

	tagModel "blog_api/internal/domain/tag/model"
	userModel "blog_api/internal/domain/user/model"
	"blog_api/pkg/apperror"
	baseModel "blog_api/pkg/model"
	"blog_api/pkg/utils"

	"gorm.io/gorm"
)

// PostStatus 帖子状态
type PostStatus string

const (
	StatusDraft     PostStatus = "DRAFT"
	StatusPublished PostStatus = "PUBLISHED"
	StatusArchived  PostStatus = "ARCHIVED"
)

// ParseStatus 不区分大小写解析状态
func ParseStatus(s string) (PostStatus, bool) {
	switch status := PostStatus(strings.ToUpper(strings.TrimSpace(s))); status {
	case StatusDraft, StatusPublished, StatusArchived:
		return status, true
	default:
		return "", false
	}
}

// ErrArchivedPost 归档是终态
var ErrArchivedPost = apperror.InvalidOperation("Archived posts cannot change status")

// Post 帖子
type Post struct {
	baseModel.BaseModel
	Title        string         `gorm:"size:200;not null" json:"title"`
	Slug         string         `gorm:"size:255;not null;uniqueIndex:uk_posts_slug" json:"slug"`
	Content      string         `gorm:"type:text;not null" json:"content"`
	Excerpt      string         `gorm:"type:text" json:"excerpt"`
	Status       PostStatus     `gorm:"size:20;not null;index" json:"status"`
	ViewCount    int64          `gorm:"not null;default:0" json:"viewCount"`
	LikeCount    int64          `gorm:"not null;default:0" json:"likeCount"`
	CommentCount int64          `gorm:"not null;default:0" json:"commentCount"`
	Featured     bool           `gorm:"not null;default:false" json:"featured"`
	PublishedAt  *time.Time     `json:"publishedAt"`
	AuthorID     string         `gorm:"type:uuid;not null;index" json:"authorId"`
	Author       userModel.User `gorm:"foreignKey:AuthorID" json:"-"`
	Tags         []tagModel.Tag `gorm:"many2many:post_tags" json:"-"`
}

// PostLike 点赞关系
type PostLike struct {
	UserID    string    `gorm:"primaryKey;type:uuid"`
	PostID    string    `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
}

func (PostLike) TableName() string {
	return "post_likes"
}

// SavedPost 收藏关系
type SavedPost struct {
	UserID    string    `gorm:"primaryKey;type:uuid"`
	PostID    string    `gorm:"primaryKey;type:uuid"`
	CreatedAt time.Time
}

func (SavedPost) TableName() string {
	return "saved_posts"
}

// BeforeSave 补全 slug、摘要，已发布但缺少发布时间时补记
func (p *Post) BeforeSave(tx *gorm.DB) error {
	if strings.TrimSpace(p.Slug) == "" {
		p.Slug = utils.Slugify(p.Title)
	}
	if strings.TrimSpace(p.Excerpt) == "" {
		p.Excerpt = utils.Excerpt(p.Content)
	}
	if p.Status == StatusPublished && p.PublishedAt == nil {
		now := time.Now()
		p.PublishedAt = &now
	}
	return nil
}

// IsPublished 是否对外可见
func (p *Post) IsPublished() bool {
	return p.Status == StatusPublished
}

func (p *Post) IsAuthor(userID string) bool {
	return p.AuthorID == userID
}

// TransitionTo 状态迁移
// 只有从 DRAFT 发布时记录发布时间，重复发布不改变发布时间
func (p *Post) TransitionTo(target PostStatus, now time.Time) error {
	if target == p.Status {
		return nil
	}
	if p.Status == StatusArchived {
		return ErrArchivedPost
	}
	if target == StatusPublished && p.Status == StatusDraft && p.PublishedAt == nil {
		p.PublishedAt = &now
	}
	p.Status = target
	return nil
}

// TagIDs 当前标签 ID
func (p *Post) TagIDs() []string {
	ids := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		ids = append(ids, t.ID)
	}
	return ids
}

// TagNames 当前标签名
func (p *Post) TagNames() []string {
	names := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		names = append(names, t.Name)
	}
	return names
}

// ReadTime 按每分钟 200 词估算阅读时间
func (p *Post) ReadTime() int {
	words := len(strings.Fields(p.Content))
	minutes := (words + 199) / 200
	if minutes < 1 {
		return 1
	}
	return minutes
}
