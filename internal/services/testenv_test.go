package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/requestdata"
	"github.com/jobhackerbot/backend/internal/types"
)

// testEnv wires real repos over an in-memory database so service tests
// exercise the full persistence path.
type testEnv struct {
	db       *gorm.DB
	userRepo repos.UserRepo
	msgRepo  repos.ChatMessageRepo
	pageRepo repos.PageRepo

	auth     AuthService
	messages MessageService
	pages    PageService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.Page{},
		&types.ChatMessage{},
	))

	log := logger.NewNop()
	userRepo := repos.NewUserRepo(db, log)
	userTokenRepo := repos.NewUserTokenRepo(db, log)
	pageRepo := repos.NewPageRepo(db, log)
	msgRepo := repos.NewChatMessageRepo(db, log)

	return &testEnv{
		db:       db,
		userRepo: userRepo,
		msgRepo:  msgRepo,
		pageRepo: pageRepo,
		auth:     NewAuthService(db, log, userRepo, userTokenRepo, "test-secret", time.Hour, 24*time.Hour),
		messages: NewMessageService(db, log, msgRepo, pageRepo, userRepo),
		pages:    NewPageService(db, log, pageRepo, msgRepo),
	}
}

// newUser inserts a user and returns a context authenticated as them.
func (env *testEnv) newUser(t *testing.T, email string) (*types.User, context.Context) {
	t.Helper()
	user, err := env.userRepo.Create(context.Background(), nil, &types.User{
		Email:     email,
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	ctx := requestdata.WithRequestData(context.Background(), &requestdata.RequestData{
		UserID: user.ID,
	})
	return user, ctx
}

func (env *testEnv) newPage(t *testing.T, ctx context.Context, title string) *types.Page {
	t.Helper()
	page, err := env.pages.Create(ctx, nil, title)
	require.NoError(t, err)
	return page
}

func anonymousCtx() context.Context {
	return context.Background()
}
