package model

import (
	baseModel "blog_api/pkg/model"
	"blog_api/pkg/utils"

	"gorm.io/gorm"
)

// Tag 标签，post_count 为冗余计数
type Tag struct {
	baseModel.BaseModel
	Name        string `gorm:"size:50;not null;uniqueIndex:uk_tags_name" json:"name"`
	Slug        string `gorm:"size:60;not null;uniqueIndex:uk_tags_slug" json:"slug"`
	Description string `gorm:"size:255" json:"description"`
	PostCount   int64  `gorm:"not null;default:0" json:"postCount"`
}

// BeforeSave 名称变更时同步 slug
func (t *Tag) BeforeSave(tx *gorm.DB) error {
	t.Slug = utils.Slugify(t.Name)
	return nil
}

// TagInput 创建/更新标签
type TagInput struct {
	Name        string `json:"name" binding:"required,min=1,max=50"`
	Description string `json:"description" binding:"max=255"`
}

// MergeInput 合并标签
type MergeInput struct {
	SourceID string `json:"sourceId" binding:"required"`
	TargetID string `json:"targetId" binding:"required"`
}
