package service

import (
	"context"
	"testing"
	"time"

	"blog_api/internal/domain/tag/model"
	"blog_api/pkg/apperror"
	"blog_api/pkg/cache"
	"blog_api/pkg/database"
	"blog_api/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// MockTagRepository is a mock of TagRepository
type MockTagRepository struct {
	mock.Mock
}

func (m *MockTagRepository) tagOrNil(args mock.Arguments) (*model.Tag, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockTagRepository) Create(ctx context.Context, tag *model.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockTagRepository) CreateIfAbsent(ctx context.Context, tag *model.Tag) (bool, error) {
	args := m.Called(ctx, tag)
	if args.Bool(0) && tag.ID == "" {
		tag.ID = "new-tag"
	}
	return args.Bool(0), args.Error(1)
}

func (m *MockTagRepository) GetByID(ctx context.Context, id string) (*model.Tag, error) {
	return m.tagOrNil(m.Called(ctx, id))
}

func (m *MockTagRepository) GetByName(ctx context.Context, name string) (*model.Tag, error) {
	return m.tagOrNil(m.Called(ctx, name))
}

func (m *MockTagRepository) GetBySlug(ctx context.Context, slug string) (*model.Tag, error) {
	return m.tagOrNil(m.Called(ctx, slug))
}

func (m *MockTagRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	args := m.Called(ctx, name)
	return args.Bool(0), args.Error(1)
}

func (m *MockTagRepository) List(ctx context.Context, search, orderBy string, offset, limit int) ([]model.Tag, int64, error) {
	args := m.Called(ctx, search, orderBy, offset, limit)
	return args.Get(0).([]model.Tag), args.Get(1).(int64), args.Error(2)
}

func (m *MockTagRepository) Update(ctx context.Context, tag *model.Tag) error {
	return m.Called(ctx, tag).Error(0)
}

func (m *MockTagRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTagRepository) CountPostLinks(ctx context.Context, id string) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockTagRepository) IncrementPostCount(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockTagRepository) DecrementPostCount(ctx context.Context, ids ...string) error {
	return m.Called(ctx, ids).Error(0)
}

func (m *MockTagRepository) Popular(ctx context.Context, limit int) ([]model.Tag, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagRepository) Trending(ctx context.Context, since time.Time, limit int) ([]model.Tag, error) {
	args := m.Called(ctx, since, limit)
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockTagRepository) MovePosts(ctx context.Context, sourceID, targetID string) error {
	return m.Called(ctx, sourceID, targetID).Error(0)
}

func (m *MockTagRepository) AddPostCount(ctx context.Context, id string, delta int64) error {
	return m.Called(ctx, id, delta).Error(0)
}

func (m *MockTagRepository) CountAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func newTag(id, name string, count int64) *model.Tag {
	t := &model.Tag{Name: name, PostCount: count}
	t.ID = id
	return t
}

func setupTagService() (*MockTagRepository, *cache.MemoryCache, TagService) {
	repo := new(MockTagRepository)
	mc := cache.NewMemoryCache()
	return repo, mc, NewTagService(repo, database.NoopTransactor{}, mc, metrics.NewMetricsCollector())
}

func TestGetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Existing tag is reused", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByName", ctx, "go").Return(newTag("t1", "go", 3), nil)

		tag, err := svc.GetOrCreate(ctx, "  go ")

		require.NoError(t, err)
		assert.Equal(t, "t1", tag.ID)
		repo.AssertNotCalled(t, "CreateIfAbsent", mock.Anything, mock.Anything)
	})

	t.Run("Missing tag is created", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByName", ctx, "rust").Return(nil, gorm.ErrRecordNotFound)
		repo.On("CreateIfAbsent", ctx, mock.AnythingOfType("*model.Tag")).Return(true, nil)

		tag, err := svc.GetOrCreate(ctx, "rust")

		require.NoError(t, err)
		assert.Equal(t, "new-tag", tag.ID)
		assert.Equal(t, "rust", tag.Name)
	})

	t.Run("Lost insert race re-reads the winner", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByName", ctx, "zig").Return(nil, gorm.ErrRecordNotFound).Once()
		repo.On("CreateIfAbsent", ctx, mock.AnythingOfType("*model.Tag")).Return(false, nil)
		repo.On("GetByName", ctx, "zig").Return(newTag("t9", "zig", 0), nil).Once()

		tag, err := svc.GetOrCreate(ctx, "zig")

		require.NoError(t, err)
		assert.Equal(t, "t9", tag.ID)
	})

	t.Run("Blank name", func(t *testing.T) {
		_, _, svc := setupTagService()

		_, err := svc.GetOrCreate(ctx, "   ")

		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestResolveCollapsesDuplicates(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupTagService()
	repo.On("GetByName", ctx, "go").Return(newTag("t1", "go", 0), nil)
	repo.On("GetByName", ctx, "web").Return(newTag("t2", "web", 0), nil)

	tags, err := svc.Resolve(ctx, []string{"go", "web", "go"})

	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "t1", tags[0].ID)
	assert.Equal(t, "t2", tags[1].ID)
}

func TestDeleteTag(t *testing.T) {
	ctx := context.Background()

	t.Run("Tag in use", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByID", ctx, "t1").Return(newTag("t1", "go", 2), nil)
		repo.On("CountPostLinks", ctx, "t1").Return(int64(2), nil)

		err := svc.Delete(ctx, "t1")

		assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
		repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("Unused tag", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByID", ctx, "t1").Return(newTag("t1", "go", 0), nil)
		repo.On("CountPostLinks", ctx, "t1").Return(int64(0), nil)
		repo.On("Delete", ctx, "t1").Return(nil)

		assert.NoError(t, svc.Delete(ctx, "t1"))
		repo.AssertExpectations(t)
	})
}

func TestMergeTags(t *testing.T) {
	ctx := context.Background()

	t.Run("Into itself", func(t *testing.T) {
		_, _, svc := setupTagService()

		_, err := svc.Merge(ctx, "t1", "t1")

		assert.Equal(t, apperror.KindInvalidOperation, apperror.KindOf(err))
	})

	t.Run("Counts are summed and source removed", func(t *testing.T) {
		repo, mc, svc := setupTagService()
		require.NoError(t, mc.Set(ctx, tagCacheKey("t2"), newTag("t2", "golang", 2), TagCacheTTL))

		repo.On("GetByID", ctx, "t1").Return(newTag("t1", "go", 3), nil)
		repo.On("GetByID", ctx, "t2").Return(newTag("t2", "golang", 2), nil).Once()
		repo.On("MovePosts", ctx, "t1", "t2").Return(nil)
		repo.On("AddPostCount", ctx, "t2", int64(3)).Return(nil)
		repo.On("Delete", ctx, "t1").Return(nil)
		repo.On("GetByID", ctx, "t2").Return(newTag("t2", "golang", 5), nil).Once()

		merged, err := svc.Merge(ctx, "t1", "t2")

		require.NoError(t, err)
		assert.Equal(t, int64(5), merged.PostCount)
		assert.Equal(t, 0, mc.Len())
		repo.AssertExpectations(t)
	})

	t.Run("Unknown target leaves source untouched", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("GetByID", ctx, "t1").Return(newTag("t1", "go", 3), nil)
		repo.On("GetByID", ctx, "nope").Return(nil, gorm.ErrRecordNotFound)

		_, err := svc.Merge(ctx, "t1", "nope")

		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
		repo.AssertNotCalled(t, "MovePosts", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateTag(t *testing.T) {
	ctx := context.Background()

	t.Run("Duplicate name", func(t *testing.T) {
		repo, _, svc := setupTagService()
		repo.On("ExistsByName", ctx, "go").Return(true, nil)

		_, err := svc.Create(ctx, model.TagInput{Name: "go"})

		assert.ErrorIs(t, err, apperror.ErrDuplicateTagName)
	})

	t.Run("Name without slug characters", func(t *testing.T) {
		_, _, svc := setupTagService()

		_, err := svc.Create(ctx, model.TagInput{Name: "!!!"})

		assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))
	})
}

func TestGetTagUsesCache(t *testing.T) {
	ctx := context.Background()
	repo, _, svc := setupTagService()
	repo.On("GetByID", ctx, "t1").Return(newTag("t1", "go", 4), nil).Once()

	_, err := svc.Get(ctx, "t1")
	require.NoError(t, err)
	count, err := svc.PostCount(ctx, "t1")
	require.NoError(t, err)

	assert.Equal(t, int64(4), count)
	repo.AssertNumberOfCalls(t, "GetByID", 1)
}
