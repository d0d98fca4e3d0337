package service

import (
	"context"

	"blog_api/internal/domain/comment/model"
	"blog_api/internal/domain/comment/repository"
	postModel "blog_api/internal/domain/post/model"

	"github.com/stretchr/testify/mock"
)

// MockCommentRepository is a mock of CommentRepository
type MockCommentRepository struct {
	mock.Mock
}

func (m *MockCommentRepository) Create(ctx context.Context, comment *model.Comment) error {
	args := m.Called(ctx, comment)
	if comment.ID == "" {
		comment.ID = "new-comment"
	}
	return args.Error(0)
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Comment), args.Error(1)
}

func (m *MockCommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	return m.Called(ctx, id, content).Error(0)
}

func (m *MockCommentRepository) List(ctx context.Context, filter repository.CommentFilter, offset, limit int) ([]model.Comment, int64, error) {
	args := m.Called(ctx, filter, offset, limit)
	return args.Get(0).([]model.Comment), args.Get(1).(int64), args.Error(2)
}

func (m *MockCommentRepository) ChildIDs(ctx context.Context, parentIDs []string) ([]string, error) {
	args := m.Called(ctx, parentIDs)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCommentRepository) ClaimDeleted(ctx context.Context, id string) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockCommentRepository) MarkDeleted(ctx context.Context, ids []string) (int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCommentRepository) ReplyCounts(ctx context.Context, ids []string) (map[string]int64, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[string]int64), args.Error(1)
}

func (m *MockCommentRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockPostStore is a mock of PostStore
type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) GetByID(ctx context.Context, id string) (*postModel.Post, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*postModel.Post), args.Error(1)
}

func (m *MockPostStore) IncrementCommentCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockPostStore) DecrementCommentCount(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
