package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"blog_api/pkg/loadtest"

	"github.com/google/uuid"
)

// 博客计数器压测工具
// likes: N 个用户并发点赞同一帖子，校验 likeCount == N
// views: M 次并发读取帖子详情，校验 viewCount 增量 == M
// read:  持续读取帖子列表与详情，输出延迟分位数
func main() {
	var (
		baseURL     = flag.String("url", "http://localhost:8080", "API 基础地址")
		scenario    = flag.String("scenario", "likes", "压测场景: likes, views, read")
		users       = flag.Int("users", 200, "likes 场景的用户数")
		views       = flag.Int("views", 2000, "views 场景的请求数")
		concurrency = flag.Int("c", 100, "并发数")
		duration    = flag.Duration("d", 30*time.Second, "read 场景的持续时间")
	)
	flag.Parse()

	client := loadtest.NewClient(*baseURL, *concurrency)
	ctx := context.Background()

	if err := client.Health(ctx); err != nil {
		fmt.Printf("❌ 服务器不可用: %v\n", err)
		os.Exit(1)
	}

	var err error
	switch *scenario {
	case "likes":
		err = runLikes(ctx, client, *users, *concurrency)
	case "views":
		err = runViews(ctx, client, *views, *concurrency)
	case "read":
		err = runRead(ctx, client, *concurrency, *duration)
	default:
		err = fmt.Errorf("unknown scenario: %s", *scenario)
	}
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
}

// setupPost 注册作者并发布一篇帖子
func setupPost(ctx context.Context, client *loadtest.Client) (string, error) {
	token, err := register(ctx, client, "author")
	if err != nil {
		return "", fmt.Errorf("register author: %w", err)
	}
	post, err := client.CreatePost(ctx, token, "Stress "+time.Now().Format(time.RFC3339Nano), "stress test content")
	if err != nil {
		return "", fmt.Errorf("create post: %w", err)
	}
	return post.ID, nil
}

// register 注册接口有限流，429 时退避重试
func register(ctx context.Context, client *loadtest.Client, prefix string) (string, error) {
	name := fmt.Sprintf("%s_%s", prefix, uuid.NewString()[:8])
	for attempt := 0; ; attempt++ {
		token, err := client.Register(ctx, name, name+"@stress.local", "password123")
		var apiErr *loadtest.APIError
		if err != nil && errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests && attempt < 20 {
			time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
			continue
		}
		return token, err
	}
}

func runLikes(ctx context.Context, client *loadtest.Client, n, concurrency int) error {
	postID, err := setupPost(ctx, client)
	if err != nil {
		return err
	}

	fmt.Printf("👥 注册 %d 个用户...\n", n)
	tokens := make([]string, 0, n)
	for i := 0; i < n; i++ {
		token, err := register(ctx, client, "liker")
		if err != nil {
			return fmt.Errorf("register user %d: %w", i, err)
		}
		tokens = append(tokens, token)
	}

	fmt.Printf("🚀 开始并发点赞, 帖子: %s, 用户: %d, 并发: %d\n", postID, n, concurrency)
	var liked int64
	runner := loadtest.NewRunner("Concurrent Likes", concurrency, n, 0)
	res := runner.Run(ctx, func(ctx context.Context, i int) error {
		ok, err := client.Like(ctx, tokens[i], postID)
		if ok {
			atomic.AddInt64(&liked, 1)
		}
		return err
	})
	res.Print()

	post, err := client.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	fmt.Printf("点赞成功: %d, likeCount: %d\n", liked, post.LikeCount)
	if post.LikeCount != liked {
		return fmt.Errorf("likeCount mismatch: want %d, got %d", liked, post.LikeCount)
	}
	fmt.Println("✅ 点赞计数一致")
	return nil
}

func runViews(ctx context.Context, client *loadtest.Client, n, concurrency int) error {
	postID, err := setupPost(ctx, client)
	if err != nil {
		return err
	}

	before, err := client.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}

	fmt.Printf("🚀 开始并发浏览, 帖子: %s, 请求: %d, 并发: %d\n", postID, n, concurrency)
	runner := loadtest.NewRunner("Concurrent Views", concurrency, n, 0)
	res := runner.Run(ctx, func(ctx context.Context, _ int) error {
		_, err := client.GetPost(ctx, postID)
		return err
	})
	res.Print()

	after, err := client.GetPost(ctx, postID)
	if err != nil {
		return fmt.Errorf("get post: %w", err)
	}
	// 最后一次读取自身也会计数
	delta := after.ViewCount - before.ViewCount - 1
	fmt.Printf("成功请求: %d, viewCount 增量: %d\n", res.SuccessRequests, delta)
	if delta != res.SuccessRequests {
		return fmt.Errorf("viewCount mismatch: want %d, got %d", res.SuccessRequests, delta)
	}
	fmt.Println("✅ 浏览计数一致")
	return nil
}

func runRead(ctx context.Context, client *loadtest.Client, concurrency int, d time.Duration) error {
	postID, err := setupPost(ctx, client)
	if err != nil {
		return err
	}

	var mu sync.Mutex
	results := make([]*loadtest.Result, 0, 2)
	var wg sync.WaitGroup
	for _, s := range []struct {
		name string
		fn   func(ctx context.Context, i int) error
	}{
		{"List Posts", func(ctx context.Context, i int) error { return client.ListPosts(ctx, i%5, 10) }},
		{"Get Post", func(ctx context.Context, _ int) error { _, err := client.GetPost(ctx, postID); return err }},
	} {
		wg.Add(1)
		go func(name string, fn func(ctx context.Context, i int) error) {
			defer wg.Done()
			res := loadtest.NewRunner(name, concurrency/2+1, 0, d).Run(ctx, fn)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
		}(s.name, s.fn)
	}
	wg.Wait()

	for _, res := range results {
		res.Print()
		if res.ErrorRate() > 0.01 {
			return fmt.Errorf("%s error rate too high: %.2f%%", res.Name, res.ErrorRate()*100)
		}
	}
	return nil
}
