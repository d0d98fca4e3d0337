package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client 调用博客 API 的压测客户端
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, maxConns int) *Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = maxConns
	t.MaxIdleConnsPerHost = maxConns
	t.MaxConnsPerHost = maxConns
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Transport: t, Timeout: 10 * time.Second},
	}
}

// envelope 统一响应结构
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

// APIError 非 2xx 或 success=false
type APIError struct {
	Status int
	Code   string
	Msg    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status=%d code=%s msg=%s", e.Status, e.Code, e.Msg)
}

// Do 发送请求，out 非 nil 时解析 data 字段
func (c *Client) Do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return &APIError{Status: resp.StatusCode, Msg: string(raw)}
	}
	if resp.StatusCode >= 300 || !env.Success {
		apiErr := &APIError{Status: resp.StatusCode, Msg: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
		}
		return apiErr
	}
	if out != nil && len(env.Data) > 0 {
		return json.Unmarshal(env.Data, out)
	}
	return nil
}

// Health 健康检查
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return &APIError{Status: resp.StatusCode, Msg: "unhealthy"}
	}
	return nil
}

// Register 注册并返回令牌
func (c *Client) Register(ctx context.Context, username, email, password string) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	return out.Token, err
}

// PostCounters 帖子计数
type PostCounters struct {
	ID           string `json:"id"`
	ViewCount    int64  `json:"viewCount"`
	LikeCount    int64  `json:"likeCount"`
	CommentCount int64  `json:"commentCount"`
}

// CreatePost 发布帖子
func (c *Client) CreatePost(ctx context.Context, token, title, content string) (*PostCounters, error) {
	var out PostCounters
	err := c.Do(ctx, http.MethodPost, "/api/posts", token, map[string]string{
		"title":   title,
		"content": content,
	}, &out)
	return &out, err
}

// GetPost 读取帖子，浏览数加一
func (c *Client) GetPost(ctx context.Context, id string) (*PostCounters, error) {
	var out PostCounters
	err := c.Do(ctx, http.MethodGet, "/api/posts/"+id, "", nil, &out)
	return &out, err
}

// Like 切换点赞
func (c *Client) Like(ctx context.Context, token, postID string) (bool, error) {
	var out struct {
		Liked bool `json:"liked"`
	}
	err := c.Do(ctx, http.MethodPost, "/api/posts/"+postID+"/like", token, nil, &out)
	return out.Liked, err
}

// Comment 发表评论
func (c *Client) Comment(ctx context.Context, token, postID, content string) error {
	return c.Do(ctx, http.MethodPost, "/api/comments", token, map[string]string{
		"postId":  postID,
		"content": content,
	}, nil)
}

// ListPosts 已发布帖子列表
func (c *Client) ListPosts(ctx context.Context, page, size int) error {
	return c.Do(ctx, http.MethodGet, fmt.Sprintf("/api/posts?page=%d&size=%d", page, size), "", nil, nil)
}
