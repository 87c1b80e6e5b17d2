package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/models"
	"gorm.io/gorm"
)

type FollowRepository struct {
	db *gorm.DB
}

func NewFollowRepository(db *gorm.DB) *FollowRepository {
	return &FollowRepository{db: db}
}

func (r *FollowRepository) Create(ctx context.Context, follow *models.Follow) error {
	if err := r.db.WithContext(ctx).Create(follow).Error; err != nil {
		return fmt.Errorf("failed to create follow: %w", err)
	}
	return nil
}

func (r *FollowRepository) Get(ctx context.Context, followerID, followingID uuid.UUID) (*models.Follow, error) {
	var follow models.Follow
	if err := r.db.WithContext(ctx).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		First(&follow).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get follow: %w", err)
	}
	return &follow, nil
}

// GetFollowers returns the incoming edges of a user in creation order, with
// the follower user preloaded.
func (r *FollowRepository) GetFollowers(ctx context.Context, userID uuid.UUID) ([]*models.Follow, error) {
	var follows []*models.Follow
	if err := r.db.WithContext(ctx).
		Preload("Follower").
		Where("following_id = ?", userID).
		Order("created_at ASC").
		Find(&follows).Error; err != nil {
		return nil, fmt.Errorf("failed to get followers: %w", err)
	}
	return follows, nil
}

// GetFollowing returns the outgoing edges of a user in creation order, with
// the followed user preloaded.
func (r *FollowRepository) GetFollowing(ctx context.Context, userID uuid.UUID) ([]*models.Follow, error) {
	var follows []*models.Follow
	if err := r.db.WithContext(ctx).
		Preload("Following").
		Where("follower_id = ?", userID).
		Order("created_at ASC").
		Find(&follows).Error; err != nil {
		return nil, fmt.Errorf("failed to get following: %w", err)
	}
	return follows, nil
}
