package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jobhackerbot/backend/internal/errs"
	"github.com/jobhackerbot/backend/internal/types"
)

func TestPageService_Create(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "pages@example.com")

	page, err := env.pages.Create(ctx, nil, "Cover letter")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, page.ID)
	assert.Equal(t, "Cover letter", page.Title)

	t.Run("client-supplied id is honored", func(t *testing.T) {
		want := uuid.New()
		page, err := env.pages.Create(ctx, &want, "Pre-generated")
		require.NoError(t, err)
		assert.Equal(t, want, page.ID)
	})

	t.Run("blank title", func(t *testing.T) {
		_, err := env.pages.Create(ctx, nil, "   ")
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("no authenticated user", func(t *testing.T) {
		_, err := env.pages.Create(anonymousCtx(), nil, "Nope")
		assert.True(t, errs.IsForbidden(err))
	})
}

func TestPageService_OpenAndRename(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "openrename@example.com")
	page := env.newPage(t, ctx, "Draft")

	require.NoError(t, env.pages.Open(ctx, page.ID))
	require.NoError(t, env.pages.Rename(ctx, page.ID, "Final"))

	pages, err := env.pages.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "Final", pages[0].Title)
	assert.NotNil(t, pages[0].LastOpenedAt)

	t.Run("rename to blank title", func(t *testing.T) {
		err := env.pages.Rename(ctx, page.ID, "")
		assert.True(t, errs.IsValidation(err))
	})

	t.Run("unknown page", func(t *testing.T) {
		err := env.pages.Open(ctx, uuid.New())
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("someone else's page", func(t *testing.T) {
		_, otherCtx := env.newUser(t, "stranger@example.com")
		err := env.pages.Rename(otherCtx, page.ID, "Mine now")
		assert.True(t, errs.IsForbidden(err))
	})
}

func TestPageService_DeleteRemovesMessages(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "pagedelete@example.com")
	page := env.newPage(t, ctx, "Doomed")

	msg, err := env.messages.Append(ctx, &page.ID, types.TextContent("hello"), true)
	require.NoError(t, err)
	require.NoError(t, env.messages.Delete(ctx, msg.ID, false, false))
	_, err = env.messages.Append(ctx, &page.ID, types.TextContent("still here"), false)
	require.NoError(t, err)

	require.NoError(t, env.pages.Delete(ctx, page.ID))

	pages, err := env.pages.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pages)

	// Both live and soft-deleted rows are physically gone.
	var count int64
	require.NoError(t, env.db.Unscoped().Model(&types.ChatMessage{}).
		Where("page_id = ?", page.ID).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPageService_ListIsPerUser(t *testing.T) {
	env := newTestEnv(t)
	_, aliceCtx := env.newUser(t, "alice@example.com")
	_, bobCtx := env.newUser(t, "bob@example.com")

	env.newPage(t, aliceCtx, "Alice's page")

	pages, err := env.pages.List(bobCtx)
	require.NoError(t, err)
	assert.Empty(t, pages)
}
