package service

import (
	"context"

	"blog_api/internal/domain/post/model"
	"blog_api/internal/domain/post/repository"
	tagModel "blog_api/internal/domain/tag/model"
	"blog_api/pkg/utils"

	"github.com/stretchr/testify/mock"
)

// MockPostRepository is a mock of PostRepository
type MockPostRepository struct {
	mock.Mock
}

func (m *MockPostRepository) postOrNil(args mock.Arguments) (*model.Post, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Post), args.Error(1)
}

func (m *MockPostRepository) Create(ctx context.Context, post *model.Post) error {
	args := m.Called(ctx, post)
	if post.ID == "" {
		post.ID = "new-post"
	}
	return args.Error(0)
}

func (m *MockPostRepository) GetByID(ctx context.Context, id string) (*model.Post, error) {
	return m.postOrNil(m.Called(ctx, id))
}

func (m *MockPostRepository) GetBySlug(ctx context.Context, slug string) (*model.Post, error) {
	return m.postOrNil(m.Called(ctx, slug))
}

func (m *MockPostRepository) ExistsBySlug(ctx context.Context, slug, excludeID string) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) Update(ctx context.Context, post *model.Post) error {
	return m.Called(ctx, post).Error(0)
}

func (m *MockPostRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) ReplaceTags(ctx context.Context, postID string, tagIDs []string) error {
	return m.Called(ctx, postID, tagIDs).Error(0)
}

func (m *MockPostRepository) List(ctx context.Context, filter repository.PostFilter, offset, limit int) ([]model.Post, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	return args.Get(0).([]model.Post), args.Get(1).(int64), args.Error(2)
}

func (m *MockPostRepository) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) IncrementCommentCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) DecrementCommentCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostRepository) SetFeatured(ctx context.Context, id string, featured bool) (bool, error) {
	args := m.Called(ctx, id, featured)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) AddLike(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) RemoveLike(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) IsLiked(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) LikeCount(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) AddSave(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) RemoveSave(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) IsSaved(ctx context.Context, userID, postID string) (bool, error) {
	args := m.Called(ctx, userID, postID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPostRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPostRepository) CountByStatus(ctx context.Context, status model.PostStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockTagService is a mock of TagService
type MockTagService struct {
	mock.Mock
}

func (m *MockTagService) tagOrNil(args mock.Arguments) (*tagModel.Tag, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tagModel.Tag), args.Error(1)
}

func (m *MockTagService) GetOrCreate(ctx context.Context, name string) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, name))
}

func (m *MockTagService) Resolve(ctx context.Context, names []string) ([]tagModel.Tag, error) {
	args := m.Called(ctx, names)
	return args.Get(0).([]tagModel.Tag), args.Error(1)
}

func (m *MockTagService) Attach(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockTagService) Detach(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockTagService) Create(ctx context.Context, input tagModel.TagInput) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, input))
}

func (m *MockTagService) Update(ctx context.Context, id string, input tagModel.TagInput) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, id, input))
}

func (m *MockTagService) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTagService) Merge(ctx context.Context, sourceID, targetID string) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, sourceID, targetID))
}

func (m *MockTagService) Get(ctx context.Context, id string) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, id))
}

func (m *MockTagService) GetByName(ctx context.Context, name string) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, name))
}

func (m *MockTagService) GetBySlug(ctx context.Context, slug string) (*tagModel.Tag, error) {
	return m.tagOrNil(m.Called(ctx, slug))
}

func (m *MockTagService) List(ctx context.Context, search string, p utils.Pagination) (utils.PageResult[tagModel.Tag], error) {
	args := m.Called(ctx, search, p)
	return args.Get(0).(utils.PageResult[tagModel.Tag]), args.Error(1)
}

func (m *MockTagService) Popular(ctx context.Context, limit int) ([]tagModel.Tag, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]tagModel.Tag), args.Error(1)
}

func (m *MockTagService) Trending(ctx context.Context, days, limit int) ([]tagModel.Tag, error) {
	args := m.Called(ctx, days, limit)
	return args.Get(0).([]tagModel.Tag), args.Error(1)
}

func (m *MockTagService) PostCount(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}
