package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/apperr"
	"github.com/social-platform/social-platform/internal/middleware"
	"github.com/social-platform/social-platform/internal/models"
	"github.com/social-platform/social-platform/internal/repository"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
	"golang.org/x/crypto/bcrypt"
)

type UserService struct {
	userRepo    *repository.UserRepository
	postRepo    *repository.PostRepository
	commentRepo *repository.CommentRepository
	likeRepo    *repository.LikeRepository
	followRepo  *repository.FollowRepository
	producer    EventPublisher
	logger      *logger.Logger
	jwtSecret   string
	jwtExpiry   time.Duration
}

func NewUserService(
	userRepo *repository.UserRepository,
	postRepo *repository.PostRepository,
	commentRepo *repository.CommentRepository,
	likeRepo *repository.LikeRepository,
	followRepo *repository.FollowRepository,
	producer EventPublisher,
	logger *logger.Logger,
	jwtSecret string,
	jwtExpiry time.Duration,
) *UserService {
	return &UserService{
		userRepo:    userRepo,
		postRepo:    postRepo,
		commentRepo: commentRepo,
		likeRepo:    likeRepo,
		followRepo:  followRepo,
		producer:    producer,
		logger:      logger,
		jwtSecret:   jwtSecret,
		jwtExpiry:   jwtExpiry,
	}
}

type RegisterRequest struct {
	Username       string `json:"username" binding:"required,min=3,max=30"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required,min=6,max=50"`
	ProfilePicture string `json:"profile_picture"`
	Bio            string `json:"bio" binding:"max=500"`
	Role           string `json:"role"`
}

type LoginRequest struct {
	UsernameOrEmail string `json:"username_or_email" binding:"required"`
	Password        string `json:"password" binding:"required"`
}

type UpdateUserRequest struct {
	Username       *string `json:"username"`
	Email          *string `json:"email"`
	Password       *string `json:"password"`
	ProfilePicture *string `json:"profile_picture"`
	Bio            *string `json:"bio"`
}

func (s *UserService) Register(ctx context.Context, req *RegisterRequest) (*UserView, error) {
	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("username already exists")
	}

	existing, err = s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("email already exists")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	role := models.RoleUser
	if req.Role == string(models.RoleAdmin) {
		role = models.RoleAdmin
	}

	user := &models.User{
		Username:       req.Username,
		Email:          req.Email,
		Password:       string(hashedPassword),
		ProfilePicture: req.ProfilePicture,
		Bio:            req.Bio,
		Role:           role,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventUserRegistered, user.ID.String(), map[string]string{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User registered successfully")

	// A fresh user owns nothing, so the view is assembled without store reads.
	return &UserView{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
	}, nil
}

// Authenticate verifies the identifier (username or email) and password and
// issues a signed, time-bound token with the username as subject.
func (s *UserService) Authenticate(ctx context.Context, req *LoginRequest) (string, error) {
	user, err := s.userRepo.GetByUsernameOrEmail(ctx, req.UsernameOrEmail)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", apperr.InvalidCredentials("invalid username/email or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return "", apperr.InvalidCredentials("invalid username/email or password")
	}

	token, err := middleware.GenerateToken(user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.logger.WithField("user_id", user.ID).Info("User logged in successfully")
	return token, nil
}

func (s *UserService) GetByID(ctx context.Context, userID uuid.UUID) (*UserView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	return s.assembleUser(ctx, user)
}

// Update modifies username, email or password. Only the user themselves or
// an admin may do it.
func (s *UserService) Update(ctx context.Context, callerUsername string, userID uuid.UUID, req *UpdateUserRequest) (*UserView, error) {
	caller, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	if caller.ID != user.ID && caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("You are not authorized to update this user.")
	}

	if req.Username != nil && *req.Username != user.Username {
		existing, err := s.userRepo.GetByUsername(ctx, *req.Username)
		if err != nil {
			return nil, fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil {
			return nil, apperr.Conflict("username already exists")
		}
		user.Username = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		existing, err := s.userRepo.GetByEmail(ctx, *req.Email)
		if err != nil {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		if existing != nil {
			return nil, apperr.Conflict("email already exists")
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = *req.ProfilePicture
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventUserUpdated, user.ID.String(), map[string]string{
		"user_id":  user.ID.String(),
		"username": user.Username,
	})

	s.logger.WithField("user_id", user.ID).Info("User updated successfully")
	return s.assembleUser(ctx, user)
}

// Delete removes the user and cascades posts, comments, follows in both
// directions and likes, as explicit ordered deletes in one transaction.
func (s *UserService) Delete(ctx context.Context, callerUsername string, userID uuid.UUID) error {
	caller, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return apperr.NotFound("user not found")
	}

	if caller.ID != user.ID && caller.Role != models.RoleAdmin {
		return apperr.Forbidden("You are not authorized to delete this user.")
	}

	if err := s.userRepo.DeleteCascade(ctx, userID); err != nil {
		return err
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventUserDeleted, userID.String(), map[string]string{
		"user_id":  userID.String(),
		"username": user.Username,
	})

	s.logger.WithField("user_id", userID).Info("User deleted successfully")
	return nil
}

// Search pages over users, matching the keyword against username, email and
// bio when present, ordered by username ascending. Without a keyword the
// page is in insertion order.
func (s *UserService) Search(ctx context.Context, page, size int, keyword string) ([]*models.User, PageMeta, error) {
	var (
		users []*models.User
		total int64
		err   error
	)
	if keyword == "" {
		users, total, err = s.userRepo.List(ctx, page*size, size)
	} else {
		users, total, err = s.userRepo.Search(ctx, keyword, page*size, size)
	}
	if err != nil {
		return nil, PageMeta{}, err
	}
	return users, newPageMeta(page, size, total), nil
}

// Follow creates a directed edge caller -> target. Self-follows and
// duplicate edges are rejected.
func (s *UserService) Follow(ctx context.Context, callerUsername string, targetID uuid.UUID) (*FollowingView, error) {
	caller, err := s.resolvePrincipal(ctx, callerUsername)
	if err != nil {
		return nil, err
	}

	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("failed to get target user: %w", err)
	}
	if target == nil {
		return nil, apperr.NotFound("user not found")
	}

	if caller.ID == target.ID {
		return nil, apperr.InvalidArgument("cannot follow yourself")
	}

	existing, err := s.followRepo.Get(ctx, caller.ID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check follow status: %w", err)
	}
	if existing != nil {
		return nil, apperr.Conflict("already following this user")
	}

	follow := &models.Follow{
		FollowerID:  caller.ID,
		FollowingID: target.ID,
	}
	if err := s.followRepo.Create(ctx, follow); err != nil {
		return nil, fmt.Errorf("failed to create follow: %w", err)
	}

	publishEvent(ctx, s.producer, s.logger, queue.EventFollowCreated, caller.ID.String(), map[string]string{
		"follower_id":  caller.ID.String(),
		"following_id": target.ID.String(),
	})

	s.logger.WithFields(map[string]interface{}{
		"follower_id":  caller.ID,
		"following_id": target.ID,
	}).Info("User followed successfully")

	return &FollowingView{Username: target.Username, Email: target.Email}, nil
}

func (s *UserService) GetFollowers(ctx context.Context, userID uuid.UUID) ([]FollowerView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	edges, err := s.followRepo.GetFollowers(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newFollowerViews(edges), nil
}

func (s *UserService) GetFollowing(ctx context.Context, userID uuid.UUID) ([]FollowingView, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperr.NotFound("user not found")
	}

	edges, err := s.followRepo.GetFollowing(ctx, userID)
	if err != nil {
		return nil, err
	}
	return newFollowingViews(edges), nil
}

// resolvePrincipal maps the authenticated username back to a user row. A
// valid token whose subject no longer exists is a data-consistency failure,
// reported as PrincipalNotFound rather than Unauthenticated.
func (s *UserService) resolvePrincipal(ctx context.Context, username string) (*models.User, error) {
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

// assembleUser builds the nested user view from pre-fetched rows. Nesting is
// one level deep: the user's posts carry their own comments, and nothing
// below that recurses.
func (s *UserService) assembleUser(ctx context.Context, user *models.User) (*UserView, error) {
	posts, err := s.postRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	postViews := make([]PostView, 0, len(posts))
	for _, post := range posts {
		comments, err := s.commentRepo.GetByPostID(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		likeCount, err := s.likeRepo.CountByPostID(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		postViews = append(postViews, newPostView(post, comments, likeCount))
	}
	if len(postViews) == 0 {
		postViews = nil
	}

	comments, err := s.commentRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	following, err := s.followRepo.GetFollowing(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	followers, err := s.followRepo.GetFollowers(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	likeCount, err := s.likeRepo.CountByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &UserView{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Posts:     postViews,
		Comments:  newCommentViews(comments),
		Following: newFollowingViews(following),
		Followers: newFollowerViews(followers),
		Likes:     likeCount,
	}, nil
}
