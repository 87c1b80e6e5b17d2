package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/social-platform/social-platform/internal/models"
	"github.com/social-platform/social-platform/internal/repository"
	"github.com/social-platform/social-platform/pkg/logger"
	"github.com/social-platform/social-platform/pkg/queue"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const (
	testJWTSecret = "test-secret-key"
	testJWTExpiry = 1 * time.Hour
)

// recorderPublisher captures published events instead of talking to Kafka.
type recorderPublisher struct {
	mu     sync.Mutex
	events []queue.Event
}

func (p *recorderPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event, ok := value.(queue.Event); ok {
		p.events = append(p.events, event)
	}
	return nil
}

func (p *recorderPublisher) eventTypes() []queue.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]queue.EventType, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.Type)
	}
	return types
}

type testEnv struct {
	db     *gorm.DB
	users  *UserService
	posts  *PostService
	events *recorderPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// A single connection keeps every session on the same in-memory database.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Follow{},
		&models.Post{},
		&models.Like{},
		&models.Comment{},
	))

	events := &recorderPublisher{}
	log := logger.NewLogger()

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	followRepo := repository.NewFollowRepository(db)

	return &testEnv{
		db:     db,
		users:  NewUserService(userRepo, postRepo, commentRepo, likeRepo, followRepo, events, log, testJWTSecret, testJWTExpiry),
		posts:  NewPostService(postRepo, commentRepo, likeRepo, userRepo, events, log),
		events: events,
	}
}

func (env *testEnv) register(t *testing.T, username, email string) *UserView {
	t.Helper()
	view, err := env.users.Register(context.Background(), &RegisterRequest{
		Username: username,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return view
}

func (env *testEnv) createPost(t *testing.T, username, content string) *PostView {
	t.Helper()
	view, err := env.posts.CreatePost(context.Background(), username, &CreatePostRequest{Content: content})
	require.NoError(t, err)
	return view
}

// postByContent looks up a post row by its content, so tests can use its id
// without it appearing in the view.
func (env *testEnv) postByContent(t *testing.T, content string) *models.Post {
	t.Helper()
	var post models.Post
	require.NoError(t, env.db.First(&post, "content = ?", content).Error)
	return &post
}

func (env *testEnv) userByUsername(t *testing.T, username string) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, env.db.First(&user, "username = ?", username).Error)
	return &user
}
