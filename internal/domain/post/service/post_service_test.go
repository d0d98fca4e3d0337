package service

import (
	"context"
	"testing"
	"time"

	"blog_api/internal/domain/post/model"
	"blog_api/internal/domain/post/repository"
	tagModel "blog_api/internal/domain/tag/model"
	userModel "blog_api/internal/domain/user/model"
	"blog_api/pkg/apperror"
	"blog_api/pkg/database"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	alice = &security.Principal{UserID: "alice-id", Username: "alice", Roles: []security.RoleName{security.RoleUser}}
	bob   = &security.Principal{UserID: "bob-id", Username: "bob", Roles: []security.RoleName{security.RoleUser}}
	admin = &security.Principal{UserID: "admin-id", Username: "root", Roles: []security.RoleName{security.RoleAdmin}}
)

func setupPostService() (*MockPostRepository, *MockTagService, *postService) {
	repo := new(MockPostRepository)
	tags := new(MockTagService)
	svc := NewPostService(repo, tags, database.NoopTransactor{}, nil, metrics.NewMetricsCollector()).(*postService)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return repo, tags, svc
}

func storedPost(id string, status model.PostStatus, authorID string, tags ...tagModel.Tag) *model.Post {
	p := &model.Post{
		Title:    "Hello World",
		Slug:     "hello-world",
		Content:  "body",
		Status:   status,
		AuthorID: authorID,
		Author:   userModel.User{Username: "alice"},
		Tags:     tags,
	}
	p.ID = id
	return p
}

func tag(id, name string) tagModel.Tag {
	t := tagModel.Tag{Name: name}
	t.ID = id
	return t
}

func TestCreatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Status omitted defaults to PUBLISHED", func(t *testing.T) {
		repo, tags, svc := setupPostService()
		goTag := tag("t1", "go")
		var created *model.Post

		repo.On("ExistsBySlug", ctx, "hello-world", "").Return(true, nil)
		repo.On("ExistsBySlug", ctx, "hello-world-2", "").Return(false, nil)
		tags.On("Resolve", ctx, []string{"go", "Go "}).Return([]tagModel.Tag{goTag}, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*model.Post")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*model.Post) }).
			Return(nil)
		repo.On("ReplaceTags", ctx, "new-post", []string{"t1"}).Return(nil)
		tags.On("Attach", ctx, []string{"t1"}).Return(nil)
		repo.On("GetByID", ctx, "new-post").Return(storedPost("new-post", model.StatusPublished, alice.UserID, goTag), nil)
		repo.On("IsLiked", ctx, alice.UserID, "new-post").Return(false, nil)
		repo.On("IsSaved", ctx, alice.UserID, "new-post").Return(false, nil)

		resp, err := svc.Create(ctx, model.PostInput{Title: "Hello World!", Content: "body", Tags: []string{"go", "Go "}}, alice)

		require.NoError(t, err)
		require.NotNil(t, created)
		assert.Equal(t, model.StatusPublished, created.Status)
		assert.Equal(t, "hello-world-2", created.Slug)
		require.NotNil(t, created.PublishedAt)
		assert.Equal(t, svc.now(), *created.PublishedAt)
		assert.Equal(t, []string{"go"}, resp.Tags)
		tags.AssertExpectations(t)
	})

	t.Run("Unknown status falls back to PUBLISHED", func(t *testing.T) {
		repo, tags, svc := setupPostService()
		var created *model.Post

		repo.On("ExistsBySlug", ctx, "draft-idea", "").Return(false, nil)
		tags.On("Resolve", ctx, []string(nil)).Return([]tagModel.Tag{}, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*model.Post")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*model.Post) }).
			Return(nil)
		repo.On("ReplaceTags", ctx, "new-post", []string{}).Return(nil)
		tags.On("Attach", ctx, []string{}).Return(nil)
		repo.On("GetByID", ctx, "new-post").Return(storedPost("new-post", model.StatusPublished, alice.UserID), nil)
		repo.On("IsLiked", ctx, alice.UserID, "new-post").Return(false, nil)
		repo.On("IsSaved", ctx, alice.UserID, "new-post").Return(false, nil)

		_, err := svc.Create(ctx, model.PostInput{Title: "Draft idea", Content: "x", Status: "pending"}, alice)

		require.NoError(t, err)
		assert.Equal(t, model.StatusPublished, created.Status)
	})

	t.Run("Featured flag ignored for non-admins", func(t *testing.T) {
		repo, tags, svc := setupPostService()
		var created *model.Post
		featured := true

		repo.On("ExistsBySlug", ctx, "mine", "").Return(false, nil)
		tags.On("Resolve", ctx, []string(nil)).Return([]tagModel.Tag{}, nil)
		repo.On("Create", ctx, mock.AnythingOfType("*model.Post")).
			Run(func(args mock.Arguments) { created = args.Get(1).(*model.Post) }).
			Return(nil)
		repo.On("ReplaceTags", ctx, "new-post", []string{}).Return(nil)
		tags.On("Attach", ctx, []string{}).Return(nil)
		repo.On("GetByID", ctx, "new-post").Return(storedPost("new-post", model.StatusDraft, alice.UserID), nil)
		repo.On("IsLiked", ctx, alice.UserID, "new-post").Return(false, nil)
		repo.On("IsSaved", ctx, alice.UserID, "new-post").Return(false, nil)

		_, err := svc.Create(ctx, model.PostInput{Title: "Mine", Content: "x", Status: "draft", Featured: &featured}, alice)

		require.NoError(t, err)
		assert.False(t, created.Featured)
		assert.Equal(t, model.StatusDraft, created.Status)
		assert.Nil(t, created.PublishedAt)
	})
}

func TestGetPost(t *testing.T) {
	ctx := context.Background()

	t.Run("Anonymous read counts one view", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)
		repo.On("IncrementViewCount", ctx, "p1").Return(int64(1), nil)

		resp, err := svc.Get(ctx, "p1", nil)

		require.NoError(t, err)
		assert.Equal(t, int64(1), resp.ViewCount)
		assert.Nil(t, resp.Liked)
	})

	t.Run("N reads add N views", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)
		for i := 1; i <= 3; i++ {
			repo.On("IncrementViewCount", ctx, "p1").Return(int64(i), nil).Once()
		}

		var last *model.PostResponse
		for i := 0; i < 3; i++ {
			resp, err := svc.Get(ctx, "p1", nil)
			require.NoError(t, err)
			last = resp
		}

		assert.Equal(t, int64(3), last.ViewCount)
		repo.AssertNumberOfCalls(t, "IncrementViewCount", 3)
	})

	t.Run("Draft is hidden and not counted", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusDraft, alice.UserID), nil)

		_, err := svc.Get(ctx, "p1", nil)

		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
		repo.AssertNotCalled(t, "IncrementViewCount", mock.Anything, mock.Anything)
	})

	t.Run("Missing post", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetBySlug", ctx, "nope").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.GetBySlug(ctx, "nope", nil)

		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	})

	t.Run("Signed-in reader sees like state", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)
		repo.On("IncrementViewCount", ctx, "p1").Return(int64(8), nil)
		repo.On("IsLiked", ctx, bob.UserID, "p1").Return(true, nil)
		repo.On("IsSaved", ctx, bob.UserID, "p1").Return(false, nil)

		resp, err := svc.Get(ctx, "p1", bob)

		require.NoError(t, err)
		require.NotNil(t, resp.Liked)
		assert.True(t, *resp.Liked)
		assert.False(t, *resp.Saved)
	})
}

func TestUpdatePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Other users are forbidden", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)

		_, err := svc.Update(ctx, "p1", model.PostInput{Title: "x", Content: "y"}, bob)

		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
		repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Archived posts cannot be republished", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusArchived, alice.UserID), nil)

		_, err := svc.Update(ctx, "p1", model.PostInput{Title: "x", Content: "y", Status: "PUBLISHED"}, alice)

		assert.ErrorIs(t, err, model.ErrArchivedPost)
		assert.Equal(t, apperror.KindInvalidOperation, apperror.KindOf(err))
	})

	t.Run("Invalid status is rejected", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusDraft, alice.UserID), nil)

		_, err := svc.Update(ctx, "p1", model.PostInput{Title: "x", Content: "y", Status: "deleted"}, alice)

		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})

	t.Run("Admin replaces the tag set", func(t *testing.T) {
		repo, tags, svc := setupPostService()
		post := storedPost("p1", model.StatusPublished, alice.UserID, tag("t1", "go"), tag("t2", "web"))
		web, rust := tag("t2", "web"), tag("t3", "rust")

		repo.On("GetByID", ctx, "p1").Return(post, nil)
		tags.On("Detach", ctx, []string{"t1", "t2"}).Return(nil)
		tags.On("Resolve", ctx, []string{"web", "rust"}).Return([]tagModel.Tag{web, rust}, nil)
		repo.On("ReplaceTags", ctx, "p1", []string{"t2", "t3"}).Return(nil)
		tags.On("Attach", ctx, []string{"t2", "t3"}).Return(nil)
		repo.On("Update", ctx, post).Return(nil)
		repo.On("IsLiked", ctx, admin.UserID, "p1").Return(false, nil)
		repo.On("IsSaved", ctx, admin.UserID, "p1").Return(false, nil)

		resp, err := svc.Update(ctx, "p1", model.PostInput{Title: "New title", Content: "new body", Tags: []string{"web", "rust"}}, admin)

		require.NoError(t, err)
		assert.Equal(t, "New title", post.Title)
		assert.Equal(t, "hello-world", post.Slug)
		assert.Equal(t, "new body", post.Excerpt)
		assert.Equal(t, []string{"web", "rust"}, resp.Tags)
		tags.AssertExpectations(t)
	})
}

func TestDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Author delete releases tag counts", func(t *testing.T) {
		repo, tags, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID, tag("t1", "go")), nil)
		tags.On("Detach", ctx, []string{"t1"}).Return(nil)
		repo.On("Delete", ctx, "p1").Return(nil)

		require.NoError(t, svc.Delete(ctx, "p1", alice))
		repo.AssertExpectations(t)
		tags.AssertExpectations(t)
	})

	t.Run("Non author is forbidden", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)

		err := svc.Delete(ctx, "p1", bob)

		assert.Equal(t, apperror.KindForbidden, apperror.KindOf(err))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestLikeRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupPostService()
	repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)

	repo.On("AddLike", ctx, bob.UserID, "p1").Return(true, nil).Once()
	repo.On("LikeCount", ctx, "p1").Return(int64(1), nil).Once()
	first, err := svc.Like(ctx, "p1", bob)
	require.NoError(t, err)
	assert.True(t, first.Liked)
	assert.Equal(t, int64(1), first.LikeCount)

	repo.On("AddLike", ctx, bob.UserID, "p1").Return(false, nil).Once()
	repo.On("RemoveLike", ctx, bob.UserID, "p1").Return(true, nil).Once()
	repo.On("LikeCount", ctx, "p1").Return(int64(0), nil).Once()
	second, err := svc.Like(ctx, "p1", bob)
	require.NoError(t, err)
	assert.False(t, second.Liked)
	assert.Equal(t, int64(0), second.LikeCount)

	repo.AssertExpectations(t)
}

func TestInteractionsOnUnpublishedPosts(t *testing.T) {
	ctx := context.Background()

	t.Run("Stranger cannot like a draft", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusDraft, alice.UserID), nil)

		_, err := svc.Like(ctx, "p1", bob)

		assert.True(t, apperror.Is(err, apperror.KindNotFound))
		repo.AssertNotCalled(t, "AddLike", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Stranger cannot save an archived post", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusArchived, alice.UserID), nil)

		err := svc.Save(ctx, "p1", bob)

		assert.True(t, apperror.Is(err, apperror.KindNotFound))
		repo.AssertNotCalled(t, "AddSave", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Author may still like and save own draft", func(t *testing.T) {
		repo, _, svc := setupPostService()
		repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusDraft, alice.UserID), nil)
		repo.On("AddLike", ctx, alice.UserID, "p1").Return(true, nil)
		repo.On("LikeCount", ctx, "p1").Return(int64(1), nil)
		repo.On("AddSave", ctx, alice.UserID, "p1").Return(true, nil)

		res, err := svc.Like(ctx, "p1", alice)
		require.NoError(t, err)
		assert.True(t, res.Liked)
		assert.NoError(t, svc.Save(ctx, "p1", alice))
	})
}

func TestArchive(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupPostService()
	post := storedPost("p1", model.StatusPublished, alice.UserID)
	repo.On("GetByID", ctx, "p1").Return(post, nil)
	repo.On("Update", ctx, post).Return(nil)

	resp, err := svc.Archive(ctx, "p1")

	require.NoError(t, err)
	assert.Equal(t, model.StatusArchived, resp.Status)
}

func TestSimilarFallsBackToContent(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupPostService()
	repo.On("GetByID", ctx, "p1").Return(storedPost("p1", model.StatusPublished, alice.UserID), nil)
	repo.On("List", ctx, mock.MatchedBy(func(f repository.PostFilter) bool {
		return f.PublishedOnly && f.Query == "body" && f.ExcludeID == "p1"
	}), 0, 20).Return([]model.Post{}, int64(0), nil)

	page, err := svc.Similar(ctx, "p1", utils.Pagination{})

	require.NoError(t, err)
	assert.True(t, page.Empty)
	repo.AssertExpectations(t)
}

type recordingInvalidator struct {
	reasons []string
}

func (r *recordingInvalidator) Invalidate(reason string) {
	r.reasons = append(r.reasons, reason)
}

func TestSetFeaturedInvalidatesCache(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates on success", func(t *testing.T) {
		repo, _, svc := setupPostService()
		inv := &recordingInvalidator{}
		svc.invalidator = inv
		repo.On("SetFeatured", ctx, "p1", true).Return(true, nil)

		require.NoError(t, svc.SetFeatured(ctx, "p1", true))
		assert.Equal(t, []string{"post_featured"}, inv.reasons)
	})

	t.Run("missing post leaves cache alone", func(t *testing.T) {
		repo, _, svc := setupPostService()
		inv := &recordingInvalidator{}
		svc.invalidator = inv
		repo.On("SetFeatured", ctx, "missing", true).Return(false, nil)

		err := svc.SetFeatured(ctx, "missing", true)
		assert.True(t, apperror.Is(err, apperror.KindNotFound))
		assert.Empty(t, inv.reasons)
	})
}
