package repos

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/types"
)

func testLog() *logger.Logger {
	return logger.NewNop()
}

func openTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *types.User {
	t.Helper()
	user := &types.User{
		Email:     email,
		Password:  "hashed",
		FirstName: "Test",
		LastName:  "User",
	}
	user, err := NewUserRepo(db, testLog()).Create(context.Background(), nil, user)
	require.NoError(t, err)
	return user
}

func createTestPage(t *testing.T, db *gorm.DB, userID uuid.UUID, title string) *types.Page {
	t.Helper()
	page := &types.Page{UserID: userID, Title: title}
	page, err := NewPageRepo(db, testLog()).Create(context.Background(), nil, page)
	require.NoError(t, err)
	return page
}
