package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/social-platform/social-platform/internal/apperr"
	"github.com/social-platform/social-platform/internal/middleware"
	"github.com/social-platform/social-platform/internal/models"
	"github.com/social-platform/social-platform/pkg/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_ReturnsBareView(t *testing.T) {
	env := newTestEnv(t)

	view := env.register(t, "zeerak", "zeerak@example.com")

	assert.Equal(t, "zeerak", view.Username)
	assert.Equal(t, "zeerak@example.com", view.Email)
	assert.NotEqual(t, uuid.Nil, view.ID)
	assert.Nil(t, view.Posts, "a fresh user must have no posts field")
	assert.Nil(t, view.Comments)
	assert.Nil(t, view.Following)
	assert.Nil(t, view.Followers)
	assert.Zero(t, view.Likes)
}

func TestRegister_PasswordNeverStoredPlain(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "zeerak", "zeerak@example.com")

	user := env.userByUsername(t, "zeerak")
	assert.NotEqual(t, "password123", user.Password)
	assert.NotEmpty(t, user.Password)
}

func TestRegister_DuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Register(context.Background(), &RegisterRequest{
		Username: "zeerak",
		Email:    "other@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Register(context.Background(), &RegisterRequest{
		Username: "other",
		Email:    "zeerak@example.com",
		Password: "password123",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestAuthenticate_ByUsernameAndEmail(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")

	for _, identifier := range []string{"zeerak", "zeerak@example.com"} {
		token, err := env.users.Authenticate(context.Background(), &LoginRequest{
			UsernameOrEmail: identifier,
			Password:        "password123",
		})
		require.NoError(t, err, "login with %q should succeed", identifier)

		subject, err := middleware.ParseToken(token, testJWTSecret)
		require.NoError(t, err)
		assert.Equal(t, "zeerak", subject, "token subject must be the username")
	}
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Authenticate(context.Background(), &LoginRequest{
		UsernameOrEmail: "zeerak",
		Password:        "wrong-password",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))
}

func TestAuthenticate_UnknownIdentifier(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.Authenticate(context.Background(), &LoginRequest{
		UsernameOrEmail: "nobody",
		Password:        "password123",
	})

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidCredentials, apperr.KindOf(err))
}

func TestFollow_Scenario(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")
	zayyan := env.register(t, "zayyan", "zayyan@example.com")
	zeerak := env.userByUsername(t, "zeerak")

	view, err := env.users.Follow(context.Background(), "zeerak", zayyan.ID)
	require.NoError(t, err)
	assert.Equal(t, "zayyan", view.Username)
	assert.Equal(t, "zayyan@example.com", view.Email)

	following, err := env.users.GetFollowing(context.Background(), zeerak.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "zayyan", following[0].Username)

	followers, err := env.users.GetFollowers(context.Background(), zayyan.ID)
	require.NoError(t, err)
	require.Len(t, followers, 1)
	assert.Equal(t, "zeerak", followers[0].Username)
}

func TestFollow_SelfRejected(t *testing.T) {
	env := newTestEnv(t)
	zeerak := env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Follow(context.Background(), "zeerak", zeerak.ID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindInvalidArgument, apperr.KindOf(err))
}

func TestFollow_DuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")
	zayyan := env.register(t, "zayyan", "zayyan@example.com")

	_, err := env.users.Follow(context.Background(), "zeerak", zayyan.ID)
	require.NoError(t, err)

	_, err = env.users.Follow(context.Background(), "zeerak", zayyan.ID)
	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestFollow_TargetNotFound(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Follow(context.Background(), "zeerak", uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestFollow_UnknownPrincipal(t *testing.T) {
	env := newTestEnv(t)
	zayyan := env.register(t, "zayyan", "zayyan@example.com")

	_, err := env.users.Follow(context.Background(), "ghost", zayyan.ID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindPrincipalNotFound, apperr.KindOf(err))
}

func TestGetFollowers_UnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.GetFollowers(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = env.users.GetFollowing(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestGetByID_AssemblesNestedView(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")
	zayyan := env.register(t, "zayyan", "zayyan@example.com")
	zeerak := env.userByUsername(t, "zeerak")

	env.createPost(t, "zeerak", "hello world")
	post := env.postByContent(t, "hello world")

	_, err := env.posts.AddComment(context.Background(), "zayyan", post.ID, &CreateCommentRequest{Content: "nice post"})
	require.NoError(t, err)
	_, err = env.posts.LikePost(context.Background(), "zayyan", post.ID)
	require.NoError(t, err)
	_, err = env.users.Follow(context.Background(), "zeerak", zayyan.ID)
	require.NoError(t, err)
	_, err = env.users.Follow(context.Background(), "zayyan", zeerak.ID)
	require.NoError(t, err)

	view, err := env.users.GetByID(context.Background(), zeerak.ID)
	require.NoError(t, err)

	require.Len(t, view.Posts, 1)
	assert.Equal(t, "hello world", view.Posts[0].Content)
	require.Len(t, view.Posts[0].Comments, 1, "the user's post carries its comments, one level deep")
	assert.Equal(t, "nice post", view.Posts[0].Comments[0].Content)
	assert.Equal(t, int64(1), view.Posts[0].Likes)

	assert.Nil(t, view.Comments, "zeerak has commented nowhere")
	require.Len(t, view.Following, 1)
	assert.Equal(t, "zayyan", view.Following[0].Username)
	require.Len(t, view.Followers, 1)
	assert.Equal(t, "zayyan", view.Followers[0].Username)
	assert.Zero(t, view.Likes, "zeerak has liked nothing")
}

func TestGetByID_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.users.GetByID(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUpdateUser_OnlySelfOrAdmin(t *testing.T) {
	env := newTestEnv(t)
	zeerak := env.register(t, "zeerak", "zeerak@example.com")
	env.register(t, "zayyan", "zayyan@example.com")

	newBio := "updated bio"
	_, err := env.users.Update(context.Background(), "zayyan", zeerak.ID, &UpdateUserRequest{Bio: &newBio})
	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))

	view, err := env.users.Update(context.Background(), "zeerak", zeerak.ID, &UpdateUserRequest{Bio: &newBio})
	require.NoError(t, err)
	assert.Equal(t, "zeerak", view.Username)
	assert.Equal(t, newBio, env.userByUsername(t, "zeerak").Bio)
}

func TestUpdateUser_AdminMayEditOthers(t *testing.T) {
	env := newTestEnv(t)
	zeerak := env.register(t, "zeerak", "zeerak@example.com")

	_, err := env.users.Register(context.Background(), &RegisterRequest{
		Username: "admin",
		Email:    "admin@example.com",
		Password: "password123",
		Role:     string(models.RoleAdmin),
	})
	require.NoError(t, err)

	newBio := "moderated"
	_, err = env.users.Update(context.Background(), "admin", zeerak.ID, &UpdateUserRequest{Bio: &newBio})
	require.NoError(t, err)
}

func TestUpdateUser_UsernameConflict(t *testing.T) {
	env := newTestEnv(t)
	zeerak := env.register(t, "zeerak", "zeerak@example.com")
	env.register(t, "zayyan", "zayyan@example.com")

	taken := "zayyan"
	_, err := env.users.Update(context.Background(), "zeerak", zeerak.ID, &UpdateUserRequest{Username: &taken})

	require.Error(t, err)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))
}

func TestDeleteUser_CascadesEverythingOwned(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "zeerak", "zeerak@example.com")
	zayyan := env.register(t, "zayyan", "zayyan@example.com")
	zeerak := env.userByUsername(t, "zeerak")

	env.createPost(t, "zeerak", "zeerak post")
	env.createPost(t, "zayyan", "zayyan post")
	zeerakPost := env.postByContent(t, "zeerak post")
	zayyanPost := env.postByContent(t, "zayyan post")

	ctx := context.Background()
	_, err := env.posts.AddComment(ctx, "zayyan", zeerakPost.ID, &CreateCommentRequest{Content: "on zeerak's post"})
	require.NoError(t, err)
	_, err = env.posts.AddComment(ctx, "zeerak", zayyanPost.ID, &CreateCommentRequest{Content: "on zayyan's post"})
	require.NoError(t, err)
	_, err = env.posts.LikePost(ctx, "zayyan", zeerakPost.ID)
	require.NoError(t, err)
	_, err = env.posts.LikePost(ctx, "zeerak", zayyanPost.ID)
	require.NoError(t, err)
	_, err = env.users.Follow(ctx, "zeerak", zayyan.ID)
	require.NoError(t, err)
	_, err = env.users.Follow(ctx, "zayyan", zeerak.ID)
	require.NoError(t, err)

	require.NoError(t, env.users.Delete(ctx, "zeerak", zeerak.ID))

	var count int64
	env.db.Model(&models.User{}).Where("id = ?", zeerak.ID).Count(&count)
	assert.Zero(t, count, "user row gone")
	env.db.Model(&models.Post{}).Where("user_id = ?", zeerak.ID).Count(&count)
	assert.Zero(t, count, "user's posts gone")
	env.db.Model(&models.Comment{}).Where("user_id = ?", zeerak.ID).Count(&count)
	assert.Zero(t, count, "user's comments gone")
	env.db.Model(&models.Comment{}).Where("post_id = ?", zeerakPost.ID).Count(&count)
	assert.Zero(t, count, "comments on the user's posts gone")
	env.db.Model(&models.Like{}).Where("user_id = ?", zeerak.ID).Count(&count)
	assert.Zero(t, count, "user's likes gone")
	env.db.Model(&models.Like{}).Where("post_id = ?", zeerakPost.ID).Count(&count)
	assert.Zero(t, count, "likes on the user's posts gone")
	env.db.Model(&models.Follow{}).Where("follower_id = ? OR following_id = ?", zeerak.ID, zeerak.ID).Count(&count)
	assert.Zero(t, count, "follow edges in both directions gone")

	// The other user's content survives.
	env.db.Model(&models.Post{}).Where("id = ?", zayyanPost.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestDeleteUser_ForbiddenForOthers(t *testing.T) {
	env := newTestEnv(t)
	zeerak := env.register(t, "zeerak", "zeerak@example.com")
	env.register(t, "zayyan", "zayyan@example.com")

	err := env.users.Delete(context.Background(), "zayyan", zeerak.ID)

	require.Error(t, err)
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
}

func TestUserSearch_KeywordAndOrdering(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "charlie", "charlie@example.com")
	env.register(t, "alice", "alice@example.com")
	env.register(t, "bob", "bob@other.org")

	users, meta, err := env.users.Search(context.Background(), 0, 10, "example")
	require.NoError(t, err)

	require.Len(t, users, 2)
	assert.Equal(t, "alice", users[0].Username, "search results are username-ascending")
	assert.Equal(t, "charlie", users[1].Username)
	assert.Equal(t, int64(2), meta.TotalItems)
	assert.Equal(t, 1, meta.TotalPages)
}

func TestUserSearch_MatchesBio(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.users.Register(context.Background(), &RegisterRequest{
		Username: "zeerak",
		Email:    "zeerak@example.com",
		Password: "password123",
		Bio:      "gopher at heart",
	})
	require.NoError(t, err)

	users, _, err := env.users.Search(context.Background(), 0, 10, "Gopher")
	require.NoError(t, err)
	require.Len(t, users, 1, "bio keyword match is case-insensitive")
	assert.Equal(t, "zeerak", users[0].Username)
}

func TestRegister_PublishesEvent(t *testing.T) {
	env := newTestEnv(t)

	env.register(t, "zeerak", "zeerak@example.com")

	assert.Contains(t, env.events.eventTypes(), queue.EventUserRegistered)
}
