package model

import "time"

// PostInput 创建/更新帖子
// Status 为空或无法识别时按 PUBLISHED 处理（仅创建时）
type PostInput struct {
	Title    string   `json:"title" binding:"required,min=1,max=200"`
	Content  string   `json:"content" binding:"required"`
	Excerpt  string   `json:"excerpt" binding:"max=500"`
	Status   string   `json:"status"`
	Tags     []string `json:"tags" binding:"omitempty,max=10,dive,min=1,max=50"`
	Featured *bool    `json:"featured"`
}

// PostResponse 帖子详情
type PostResponse struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Content      string     `json:"content,omitempty"`
	Excerpt      string     `json:"excerpt"`
	Status       PostStatus `json:"status"`
	ViewCount    int64      `json:"viewCount"`
	LikeCount    int64      `json:"likeCount"`
	CommentCount int64      `json:"commentCount"`
	Featured     bool       `json:"featured"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
	ReadTime     int        `json:"readTime"`

	AuthorID       string `json:"authorId"`
	AuthorUsername string `json:"authorUsername"`
	AuthorAvatar   string `json:"authorAvatar,omitempty"`

	Tags  []string `json:"tags"`
	Liked *bool    `json:"liked,omitempty"`
	Saved *bool    `json:"saved,omitempty"`
}

// LikeResult 点赞切换结果
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"likeCount"`
}

// ToResponse 转换为响应，Author/Tags 需已预加载
func (p *Post) ToResponse() PostResponse {
	return PostResponse{
		ID:             p.ID,
		Title:          p.Title,
		Slug:           p.Slug,
		Content:        p.Content,
		Excerpt:        p.Excerpt,
		Status:         p.Status,
		ViewCount:      p.ViewCount,
		LikeCount:      p.LikeCount,
		CommentCount:   p.CommentCount,
		Featured:       p.Featured,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		PublishedAt:    p.PublishedAt,
		ReadTime:       p.ReadTime(),
		AuthorID:       p.AuthorID,
		AuthorUsername: p.Author.Username,
		AuthorAvatar:   p.Author.AvatarURL,
		Tags:           p.TagNames(),
	}
}

// ToSummary 列表项，不含正文
func (p *Post) ToSummary() PostResponse {
	resp := p.ToResponse()
	resp.Content = ""
	return resp
}
