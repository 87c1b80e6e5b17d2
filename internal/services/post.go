package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/apperr"
	"github.com/social-platform/social-platform/internal/models"
	"github.com/social-platform/social-platform/internal/repository"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
)

type PostService struct {
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	likeRepo    *repository.LikeRepository
	userRepo    *repository.UserRepository
	producer    EventPublisher
	logger      *logger.Logger
}

func NewPostService(
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	likeRepo *repository.LikeRepository,
	userRepo *repository.UserRepository,
	producer EventPublisher,
	logger *logger.Logger,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		userRepo:    userRepo,
		producer:    producer,
		logger:      logger,
	}
}

type CreatePostRequest struct {
	Content string `json:"content" binding:"required"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required,min=1,max=500"`
}

func (s *PostService) CreatePost(ctx context.Context, callerUsername string, req *CreatePostRequest) (*PostView, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.InvalidArgument("post content must not be empty")
	}

	author, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:  author.ID,
		Content: req.Content,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostCreated, author.ID.String(), map[string]string{
		"post_id": post.ID.String(),
		"user_id": author.ID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"post_id": post.ID,
		"user_id": author.ID,
	}).Info("Post created successfully")

	// New post: no comments, no likes.
	view := newPostView(post, nil, 0)
	return &view, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uuid.UUID) (*PostView, error) {
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}
	return s.assemblePost(ctx, post)
}

// ListPosts pages over all posts. Without a keyword the page is in insertion
// order; with one, posts whose content contains the keyword are returned
// ordered by content ascending.
func (s *PostService) ListPosts(ctx context.Context, page, size int, keyword string) ([]PostView, PageMeta, error) {
	var (
		posts []*models.Post
		total int64
		err   error
	)
	if keyword == "" {
		posts, total, err = s.postRepo.List(ctx, page*size, size)
	} else {
		posts, total, err = s.postRepo.SearchByContent(ctx, keyword, page*size, size)
	}
	if err != nil {
		return nil, PageMeta{}, err
	}

	views, err := s.assemblePosts(ctx, posts)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return views, newPageMeta(page, size, total), nil
}

// SearchPosts is the dedicated search surface: always content-ordered, with
// or without a keyword.
func (s *PostService) SearchPosts(ctx context.Context, page, size int, keyword string) ([]PostView, PageMeta, error) {
	posts, total, err := s.postRepo.SearchByContent(ctx, keyword, page*size, size)
	if err != nil {
		return nil, PageMeta{}, err
	}

	views, err := s.assemblePosts(ctx, posts)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return views, newPageMeta(page, size, total), nil
}

func (s *PostService) UpdatePost(ctx context.Context, callerUsername string, postID uuid.UUID, req *CreatePostRequest) (*PostView, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperr.InvalidArgument("post content must not be empty")
	}
	if callerUsername == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}

	if post.User.Username != callerUsername {
		return nil, apperr.Forbidden("You are not authorized to edit this post.")
	}

	// Content is the only mutable field; owner and timestamp never change.
	post.Content = req.Content
	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostUpdated, post.UserID.String(), map[string]string{
		"post_id": post.ID.String(),
		"user_id": post.UserID.String(),
	})

	s.logger.WithField("post_id", post.ID).Info("Post updated successfully")
	return s.assemblePost(ctx, post)
}

func (s *PostService) DeletePost(ctx context.Context, callerUsername string, postID uuid.UUID) error {
	if callerUsername == "" {
		return apperr.Unauthenticated("authentication required")
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return apperr.NotFound("post not found")
	}

	if post.User.Username != callerUsername {
		return apperr.Forbidden("You are not authorized to delete this post.")
	}

	if err := s.postRepo.DeleteCascade(ctx, postID); err != nil {
		return err
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventPostDeleted, post.UserID.String(), map[string]string{
		"post_id": post.ID.String(),
		"user_id": post.UserID.String(),
	})

	s.logger.WithField("post_id", postID).Info("Post deleted successfully")
	return nil
}

// ListPostsByUser returns the user's posts in insertion order. A user with
// no posts yields an empty list, not an error and not an absent field.
func (s *PostService) ListPostsByUser(ctx context.Context, userID uuid.UUID) ([]PostView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	posts, err := s.postRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	views, err := s.assemblePosts(ctx, posts)
	if err != nil {
		return nil, err
	}
	if views == nil {
		views = []PostView{}
	}
	return views, nil
}

func (s *PostService) AddComment(ctx context.Context, callerUsername string, postID uuid.UUID, req *CreateCommentRequest) (*CommentView, error) {
	author, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}

	comment := &models.Comment{
		PostID:  post.ID,
		UserID:  author.ID,
		Content: req.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventCommentCreated, author.ID.String(), map[string]string{
		"comment_id": comment.ID.String(),
		"post_id":    post.ID.String(),
		"user_id":    author.ID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"comment_id": comment.ID,
		"post_id":    post.ID,
	}).Info("Comment created successfully")

	view := newCommentView(comment)
	return &view, nil
}

// LikePost records a like keyed by (post, user) and returns the reloaded
// view. Liking a post twice is idempotent: the existing row stays, the count
// does not move.
func (s *PostService) LikePost(ctx context.Context, callerUsername string, postID uuid.UUID) (*PostView, error) {
	caller, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return nil, err
	}

	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	if post == nil {
		return nil, apperr.NotFound("post not found")
	}

	existing, err := s.likeRepo.Get(ctx, caller.ID, post.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check like status: %w", err)
	}
	if existing == nil {
		like := &models.Like{
			PostID: post.ID,
			UserID: caller.ID,
		}
		if err := s.likeRepo.Create(ctx, like); err != nil {
			// A concurrent like may have won the composite-key race; if the
			// row is there now, fall through to the idempotent path.
			if recheck, recheckErr := s.likeRepo.Get(ctx, caller.ID, post.ID); recheckErr != nil || recheck == nil {
				return nil, err
			}
		} else {
			publishEvent(ctx, s.producer, s.logger, queue.EventPostLiked, caller.ID.String(), map[string]string{
				"post_id": post.ID.String(),
				"user_id": caller.ID.String(),
			})
		}
	}

	reloaded, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload post: %w", err)
	}
	if reloaded == nil {
		return nil, apperr.NotFound("post not found")
	}
	return s.assemblePost(ctx, reloaded)
}

func (s *PostService) resolvePrincipal(ctx context.Context, username string) (*models.User, error) {
	if username == "" {
		return nil, apperr.Unauthenticated("authentication required")
	}
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve principal: %w", err)
	}
	if user == nil {
		return nil, apperr.PrincipalNotFound("no user found for authenticated principal")
	}
	return user, nil
}

func (s *PostService) assemblePost(ctx context.Context, post *models.Post) (*PostView, error) {
	comments, err := s.commentRepo.GetByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	likeCount, err := s.likeRepo.CountByPostID(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	view := newPostView(post, comments, likeCount)
	return &view, nil
}

func (s *PostService) assemblePosts(ctx context.Context, posts []*models.Post) ([]PostView, error) {
	if len(posts) == 0 {
		return nil, nil
	}
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		view, err := s.assemblePost(ctx, post)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}
