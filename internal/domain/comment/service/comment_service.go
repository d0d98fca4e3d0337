package service

import (
	"context"
	"strings"
	"time"

	"blog_api/internal/domain/comment/model"
	"blog_api/internal/domain/comment/repository"
	postModel "blog_api/internal/domain/post/model"
	"blog_api/pkg/apperror"
	"blog_api/pkg/database"
	"blog_api/pkg/logger"
	"blog_api/pkg/metrics"
	"blog_api/pkg/security"
	"blog_api/pkg/utils"

	"go.uber.org/zap"
)

const DefaultRecentDays = 7

// PostStore 评论依赖的帖子操作
type PostStore interface {
	GetByID(ctx context.Context, id string) (*postModel.Post, error)
	IncrementCommentCount(ctx context.Context, id string) error
	DecrementCommentCount(ctx context.Context, id string) error
}

// CommentService 评论业务
type CommentService interface {
	Create(ctx context.Context, input model.CommentInput, actor *security.Principal) (*model.CommentResponse, error)
	Reply(ctx context.Context, parentID, content string, actor *security.Principal) (*model.CommentResponse, error)
	Update(ctx context.Context, id, content string, actor *security.Principal) (*model.CommentResponse, error)
	Delete(ctx context.Context, id string, actor *security.Principal) error

	Get(ctx context.Context, id string, viewer *security.Principal) (*model.CommentResponse, error)
	ListByPost(ctx context.Context, postID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error)
	ListReplies(ctx context.Context, parentID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error)
	ListByUser(ctx context.Context, userID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error)
	Recent(ctx context.Context, days int, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error)
}

type commentService struct {
	repo    repository.CommentRepository
	posts   PostStore
	tx      database.Transactor
	metrics *metrics.MetricsCollector
	now     func() time.Time
}

func NewCommentService(
	repo repository.CommentRepository,
	posts PostStore,
	tx database.Transactor,
	collector *metrics.MetricsCollector,
) CommentService {
	return &commentService{
		repo:    repo,
		posts:   posts,
		tx:      tx,
		metrics: collector,
		now:     time.Now,
	}
}

func (s *commentService) load(ctx context.Context, id string) (*model.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperror.NotFound("Comment not found with id: %s", id)
		}
		return nil, err
	}
	return comment, nil
}

// Create 发表评论或回复，帖子评论数加一
func (s *commentService) Create(ctx context.Context, input model.CommentInput, actor *security.Principal) (*model.CommentResponse, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, apperror.Validation("content", "Content is required")
	}

	var id string
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		if _, err := s.posts.GetByID(ctx, input.PostID); err != nil {
			if database.IsNotFound(err) {
				return apperror.NotFound("Post not found with id: %s", input.PostID)
			}
			return err
		}

		if input.ParentID != nil && *input.ParentID != "" {
			parent, err := s.load(ctx, *input.ParentID)
			if err != nil {
				return err
			}
			if parent.PostID != input.PostID {
				return apperror.Validation("parentId", "Parent comment belongs to another post")
			}
			if parent.IsDeleted {
				return apperror.InvalidOperation("Cannot reply to a deleted comment")
			}
		} else {
			input.ParentID = nil
		}

		comment := &model.Comment{
			Content:  content,
			PostID:   input.PostID,
			ParentID: input.ParentID,
			UserID:   actor.UserID,
		}
		if err := s.repo.Create(ctx, comment); err != nil {
			return err
		}
		id = comment.ID
		return s.posts.IncrementCommentCount(ctx, input.PostID)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("comment created",
		zap.String("comment_id", id),
		zap.String("post_id", input.PostID),
		zap.String("user_id", actor.UserID))
	s.metrics.RecordEvent("comment_created")
	return s.Get(ctx, id, actor)
}

// Reply 回复评论，帖子取自父评论
func (s *commentService) Reply(ctx context.Context, parentID, content string, actor *security.Principal) (*model.CommentResponse, error) {
	parent, err := s.load(ctx, parentID)
	if err != nil {
		return nil, err
	}
	return s.Create(ctx, model.CommentInput{
		PostID:   parent.PostID,
		ParentID: &parent.ID,
		Content:  content,
	}, actor)
}

func (s *commentService) Update(ctx context.Context, id, content string, actor *security.Principal) (*model.CommentResponse, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.Validation("content", "Content is required")
	}

	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !comment.CanModify(actor) {
		return nil, apperror.Forbidden("You are not authorized to update this comment")
	}
	if comment.IsDeleted {
		return nil, apperror.InvalidOperation("Cannot update a deleted comment")
	}
	if err := s.repo.UpdateContent(ctx, id, content); err != nil {
		return nil, err
	}
	return s.Get(ctx, id, actor)
}

// Delete 软删除评论及其全部回复
// 帖子评论数只减一，与创建时每条加一不对称
func (s *commentService) Delete(ctx context.Context, id string, actor *security.Principal) error {
	var marked int64
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		comment, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if !comment.CanModify(actor) {
			return apperror.Forbidden("You are not authorized to delete this comment")
		}
		if comment.IsDeleted {
			return nil
		}

		claimed, err := s.repo.ClaimDeleted(ctx, comment.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return nil
		}
		marked = 1

		ids, err := s.subtree(ctx, comment.ID)
		if err != nil {
			return err
		}
		if replies := ids[1:]; len(replies) > 0 {
			n, err := s.repo.MarkDeleted(ctx, replies)
			if err != nil {
				return err
			}
			marked += n
		}
		return s.posts.DecrementCommentCount(ctx, comment.PostID)
	})
	if err != nil {
		return err
	}

	if marked > 0 {
		logger.Log.Info("comment deleted",
			zap.String("comment_id", id),
			zap.Int64("marked", marked),
			zap.String("actor", actor.Username))
		s.metrics.RecordEvent("comment_deleted")
	}
	return nil
}

// subtree 按层收集 rootID 及所有后代
func (s *commentService) subtree(ctx context.Context, rootID string) ([]string, error) {
	seen := map[string]bool{rootID: true}
	ids := []string{rootID}
	frontier := []string{rootID}

	for len(frontier) > 0 {
		children, err := s.repo.ChildIDs(ctx, frontier)
		if err != nil {
			return nil, err
		}
		var next []string
		for _, child := range children {
			if seen[child] {
				continue
			}
			seen[child] = true
			ids = append(ids, child)
			next = append(next, child)
		}
		frontier = next
	}
	return ids, nil
}

func (s *commentService) Get(ctx context.Context, id string, viewer *security.Principal) (*model.CommentResponse, error) {
	comment, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.repo.ReplyCounts(ctx, []string{comment.ID})
	if err != nil {
		return nil, err
	}
	resp := comment.ToResponse(counts[comment.ID], viewer)
	return &resp, nil
}

// ListByPost 帖子下的顶层评论
func (s *commentService) ListByPost(ctx context.Context, postID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error) {
	return s.page(ctx, repository.CommentFilter{PostID: postID, RootsOnly: true}, p, viewer)
}

func (s *commentService) ListReplies(ctx context.Context, parentID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error) {
	if _, err := s.load(ctx, parentID); err != nil {
		return utils.PageResult[model.CommentResponse]{}, err
	}
	return s.page(ctx, repository.CommentFilter{ParentID: parentID}, p, viewer)
}

func (s *commentService) ListByUser(ctx context.Context, userID string, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error) {
	return s.page(ctx, repository.CommentFilter{UserID: userID, OrderBy: "comments.created_at desc"}, p, viewer)
}

func (s *commentService) Recent(ctx context.Context, days int, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error) {
	if days <= 0 {
		days = DefaultRecentDays
	}
	since := s.now().AddDate(0, 0, -days)
	return s.page(ctx, repository.CommentFilter{Since: &since, OrderBy: "comments.created_at desc"}, p, viewer)
}

func (s *commentService) page(ctx context.Context, filter repository.CommentFilter, p utils.Pagination, viewer *security.Principal) (utils.PageResult[model.CommentResponse], error) {
	offset, limit := p.GetPageOffset()
	comments, total, err := s.repo.List(ctx, filter, offset, limit)
	if err != nil {
		return utils.PageResult[model.CommentResponse]{}, err
	}

	ids := make([]string, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.ID)
	}
	counts, err := s.repo.ReplyCounts(ctx, ids)
	if err != nil {
		return utils.PageResult[model.CommentResponse]{}, err
	}

	out := make([]model.CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, comments[i].ToResponse(counts[comments[i].ID], viewer))
	}
	return utils.NewPageResult(out, p, total), nil
}
