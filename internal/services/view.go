package services

import (
	"time"

	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/models"
)

// Read models returned to clients. Empty child collections are omitted from
// the serialized form entirely (nil slice + omitempty), not rendered as [].
// Likes are never listed, only counted.

type CommentView struct {
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type PostView struct {
	Content   string        `json:"content"`
	CreatedAt time.Time     `json:"created_at"`
	Comments  []CommentView `json:"comments,omitempty"`
	Likes     int64         `json:"likes"`
}

type FollowerView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type FollowingView struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type UserView struct {
	ID        uuid.UUID       `json:"id"`
	Username  string          `json:"username"`
	Email     string          `json:"email"`
	Posts     []PostView      `json:"posts,omitempty"`
	Comments  []CommentView   `json:"comments,omitempty"`
	Following []FollowingView `json:"following,omitempty"`
	Followers []FollowerView  `json:"followers,omitempty"`
	Likes     int64           `json:"likes"`
}

// UserSummary is the flat row shape used by the paged user search; the
// nested UserView is reserved for single-profile reads.
type UserSummary struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	Bio            string    `json:"bio,omitempty"`
}

func NewUserSummary(user *models.User) UserSummary {
	return UserSummary{
		ID:             user.ID,
		Username:       user.Username,
		Email:          user.Email,
		ProfilePicture: user.ProfilePicture,
		Bio:            user.Bio,
	}
}

type PageMeta struct {
	CurrentPage int   `json:"currentPage"`
	TotalItems  int64 `json:"totalItems"`
	TotalPages  int   `json:"totalPages"`
}

func newPageMeta(page, size int, total int64) PageMeta {
	totalPages := 0
	if size > 0 {
		totalPages = int((total + int64(size) - 1) / int64(size))
	}
	return PageMeta{
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}

// The builders below are plain projections over rows the caller has already
// fetched. Nesting is bounded: a user view holds post views, a post view
// holds comment views, and a comment view holds text and timestamp only.

func newCommentView(comment *models.Comment) CommentView {
	return CommentView{
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
}

func newCommentViews(comments []*models.Comment) []CommentView {
	if len(comments) == 0 {
		return nil
	}
	views := make([]CommentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, newCommentView(c))
	}
	return views
}

func newPostView(post *models.Post, comments []*models.Comment, likeCount int64) PostView {
	return PostView{
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
		Comments:  newCommentViews(comments),
		Likes:     likeCount,
	}
}

func newFollowerView(edge *models.Follow) FollowerView {
	return FollowerView{
		Username: edge.Follower.Username,
		Email:    edge.Follower.Email,
	}
}

func newFollowingView(edge *models.Follow) FollowingView {
	return FollowingView{
		Username: edge.Following.Username,
		Email:    edge.Following.Email,
	}
}

func newFollowerViews(edges []*models.Follow) []FollowerView {
	if len(edges) == 0 {
		return nil
	}
	views := make([]FollowerView, 0, len(edges))
	for _, e := range edges {
		views = append(views, newFollowerView(e))
	}
	return views
}

func newFollowingViews(edges []*models.Follow) []FollowingView {
	if len(edges) == 0 {
		return nil
	}
	views := make([]FollowingView, 0, len(edges))
	for _, e := range edges {
		views = append(views, newFollowingView(e))
	}
	return views
}
