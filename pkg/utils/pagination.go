package utils

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Pagination 分页请求参数，page 从 0 开始
type Pagination struct {
	Page int    `json:"page" form:"page"`
	Size int    `json:"size" form:"size"`
	Sort string `json:"sort" form:"sort"` // field,asc|desc
}

// PageResult 分页响应结果
type PageResult[T any] struct {
	Content       []T    `json:"content"`
	Page          int    `json:"page"`
	Size          int    `json:"size"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
	Empty         bool   `json:"empty"`
	Sort          string `json:"sort,omitempty"`
}

// ParsePagination 从查询参数解析分页，非法值回落到默认值
func ParsePagination(c *gin.Context) Pagination {
	var p Pagination
	_ = c.ShouldBindQuery(&p)
	p.Normalize()
	return p
}

// Normalize 修正越界参数
func (p *Pagination) Normalize() {
	if p.Page < 0 {
		p.Page = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
}

// GetPageOffset 计算分页偏移量
func (p *Pagination) GetPageOffset() (int, int) {
	p.Normalize()
	return p.Page * p.Size, p.Size
}

// OrderBy 将 sort 参数转换为 ORDER BY 子句
// allowed 为对外字段名到列名的白名单，未命中时使用 fallback
func (p *Pagination) OrderBy(allowed map[string]string, fallback string) string {
	if p.Sort == "" {
		return fallback
	}
	parts := strings.SplitN(p.Sort, ",", 2)
	column, ok := allowed[strings.TrimSpace(parts[0])]
	if !ok {
		return fallback
	}
	dir := "desc"
	if len(parts) == 2 && strings.EqualFold(strings.TrimSpace(parts[1]), "asc") {
		dir = "asc"
	}
	return column + " " + dir
}

// NewPageResult 组装分页结果
func NewPageResult[T any](content []T, p Pagination, total int64) PageResult[T] {
	p.Normalize()
	if content == nil {
		content = []T{}
	}
	totalPages := 0
	if total > 0 {
		totalPages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return PageResult[T]{
		Content:       content,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         p.Page == 0,
		Last:          p.Page >= totalPages-1,
		Empty:         len(content) == 0,
		Sort:          p.Sort,
	}
}

// MapPage 转换分页内容类型
func MapPage[T, R any](page PageResult[T], fn func(T) R) PageResult[R] {
	out := make([]R, 0, len(page.Content))
	for _, item := range page.Content {
		out = append(out, fn(item))
	}
	return PageResult[R]{
		Content:       out,
		Page:          page.Page,
		Size:          page.Size,
		TotalElements: page.TotalElements,
		TotalPages:    page.TotalPages,
		First:         page.First,
		Last:          page.Last,
		Empty:         page.Empty,
		Sort:          page.Sort,
	}
}

// QueryInt 读取整数查询参数，缺失或非法时返回 def
func QueryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
