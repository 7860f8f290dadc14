package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/types"
)

func TestPageRepo_CreateAssignsID(t *testing.T) {
	db := openTestDB(t)
	repo := NewPageRepo(db, testLog())
	user := createTestUser(t, db, "pages@example.com")

	page, err := repo.Create(context.Background(), nil, &types.Page{UserID: user.ID, Title: "Resume review"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, page.ID)
	assert.Nil(t, page.LastOpenedAt)
}

func TestPageRepo_GetUserPagesOrdering(t *testing.T) {
	db := openTestDB(t)
	repo := NewPageRepo(db, testLog())
	user := createTestUser(t, db, "ordering@example.com")
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	older, err := repo.Create(ctx, nil, &types.Page{UserID: user.ID, Title: "Older", CreatedAt: base})
	require.NoError(t, err)
	newer, err := repo.Create(ctx, nil, &types.Page{UserID: user.ID, Title: "Newer", CreatedAt: base.Add(time.Minute)})
	require.NoError(t, err)

	pages, err := repo.GetUserPages(ctx, nil, user.ID)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, newer.ID, pages[0].ID)
	assert.Equal(t, older.ID, pages[1].ID)

	t.Run("opening an old page bubbles it up", func(t *testing.T) {
		require.NoError(t, repo.TouchLastOpened(ctx, nil, older.ID))
		pages, err := repo.GetUserPages(ctx, nil, user.ID)
		require.NoError(t, err)
		require.Len(t, pages, 2)
		assert.Equal(t, older.ID, pages[0].ID)
	})
}

func TestPageRepo_TouchLastOpened(t *testing.T) {
	db := openTestDB(t)
	repo := NewPageRepo(db, testLog())
	user := createTestUser(t, db, "touch@example.com")
	page := createTestPage(t, db, user.ID, "Open me")
	ctx := context.Background()

	require.NoError(t, repo.TouchLastOpened(ctx, nil, page.ID))

	got, err := repo.GetByID(ctx, nil, page.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastOpenedAt)
	assert.WithinDuration(t, time.Now(), *got.LastOpenedAt, 5*time.Second)
}

func TestPageRepo_UpdateTitle(t *testing.T) {
	db := openTestDB(t)
	repo := NewPageRepo(db, testLog())
	user := createTestUser(t, db, "rename@example.com")
	page := createTestPage(t, db, user.ID, "Draft")
	ctx := context.Background()

	require.NoError(t, repo.UpdateTitle(ctx, nil, page.ID, "Final"))

	got, err := repo.GetByID(ctx, nil, page.ID)
	require.NoError(t, err)
	assert.Equal(t, "Final", got.Title)
}

func TestPageRepo_FullDeletes(t *testing.T) {
	db := openTestDB(t)
	repo := NewPageRepo(db, testLog())
	user := createTestUser(t, db, "deletes@example.com")
	keep := createTestPage(t, db, user.ID, "Keep")
	drop := createTestPage(t, db, user.ID, "Drop")
	ctx := context.Background()

	require.NoError(t, repo.FullDeleteByID(ctx, nil, drop.ID))
	_, err := repo.GetByID(ctx, nil, drop.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	_, err = repo.GetByID(ctx, nil, keep.ID)
	require.NoError(t, err)

	require.NoError(t, repo.FullDeleteByUserID(ctx, nil, user.ID))
	pages, err := repo.GetUserPages(ctx, nil, user.ID)
	require.NoError(t, err)
	assert.Empty(t, pages)
}
