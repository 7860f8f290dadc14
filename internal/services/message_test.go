package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/jobhackerbot/backend/internal/errs"
	"github.com/jobhackerbot/backend/internal/logger"
	"github.com/jobhackerbot/backend/internal/repos"
	"github.com/jobhackerbot/backend/internal/types"
)

// failingPageRepo delegates to the real repo but refuses the bulk delete, so
// tests can force a mid-transaction failure.
type failingPageRepo struct {
	repos.PageRepo
}

func (failingPageRepo) FullDeleteByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	return errors.New("connection reset")
}

func TestMessageService_AppendAndListRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "roundtrip@example.com")
	page := env.newPage(t, ctx, "Interview prep")

	userMsg, err := env.messages.Append(ctx, &page.ID, types.TextContent("hello bot"), true)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, userMsg.ID)

	doc, err := types.StructuredContent(map[string]interface{}{
		"kind":  "resume_feedback",
		"score": 7,
	})
	require.NoError(t, err)
	_, err = env.messages.Append(ctx, &page.ID, doc, false)
	require.NoError(t, err)

	views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, "hello bot", views[0].Content)
	assert.True(t, views[0].IsUserMessage)

	structured, ok := views[1].Content.(map[string]interface{})
	require.True(t, ok, "structured content must decode back to a document")
	assert.Equal(t, "resume_feedback", structured["kind"])
	assert.False(t, views[1].IsUserMessage)
}

func TestMessageService_AppendValidation(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "appendcheck@example.com")

	t.Run("no authenticated user", func(t *testing.T) {
		_, err := env.messages.Append(anonymousCtx(), nil, types.TextContent("hi"), true)
		assert.True(t, errs.IsForbidden(err))
	})

	t.Run("unknown page", func(t *testing.T) {
		missing := uuid.New()
		_, err := env.messages.Append(ctx, &missing, types.TextContent("hi"), true)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("someone else's page", func(t *testing.T) {
		_, otherCtx := env.newUser(t, "other@example.com")
		theirPage := env.newPage(t, otherCtx, "Not yours")
		_, err := env.messages.Append(ctx, &theirPage.ID, types.TextContent("hi"), true)
		assert.True(t, errs.IsForbidden(err))
	})
}

func TestMessageService_ListBounds(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "bounds@example.com")

	for _, tc := range []struct {
		name   string
		limit  int
		offset int
	}{
		{"zero limit", 0, 0},
		{"limit over max", MaxListLimit + 1, 0},
		{"negative offset", 10, -1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.messages.List(ctx, nil, tc.limit, tc.offset)
			assert.True(t, errs.IsValidation(err))
		})
	}
}

func TestMessageService_RecentKeepsTheConversationTail(t *testing.T) {
	env := newTestEnv(t)
	user, ctx := env.newUser(t, "recent@example.com")
	page := env.newPage(t, ctx, "Long thread")

	base := time.Now().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 6; i++ {
		msg := &types.ChatMessage{
			UserID:        user.ID,
			PageID:        &page.ID,
			IsUserMessage: i%2 == 0,
			CreatedAt:     base.Add(time.Duration(i) * time.Second),
		}
		msg.SetContent(types.TextContent(string(rune('a' + i))))
		_, err := env.msgRepo.Create(context.Background(), nil, msg)
		require.NoError(t, err)
	}

	views, err := env.messages.Recent(ctx, &page.ID, 4)
	require.NoError(t, err)
	require.Len(t, views, 4)

	// The window holds the newest turns in chronological order, so the last
	// element is the latest message even when the page exceeds the limit.
	assert.Equal(t, "c", views[0].Content)
	assert.Equal(t, "f", views[3].Content)
	for i := 1; i < len(views); i++ {
		assert.True(t, views[i-1].CreatedAt.Before(views[i].CreatedAt))
	}

	t.Run("limit bounds", func(t *testing.T) {
		_, err := env.messages.Recent(ctx, &page.ID, 0)
		assert.True(t, errs.IsValidation(err))
		_, err = env.messages.Recent(ctx, &page.ID, MaxListLimit+1)
		assert.True(t, errs.IsValidation(err))
	})
}

func TestMessageService_NilPageSelectsOnlyUnscoped(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "scope@example.com")
	page := env.newPage(t, ctx, "Scoped")

	_, err := env.messages.Append(ctx, &page.ID, types.TextContent("on page"), true)
	require.NoError(t, err)
	_, err = env.messages.Append(ctx, nil, types.TextContent("off page"), true)
	require.NoError(t, err)

	views, err := env.messages.List(ctx, nil, DefaultListLimit, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "off page", views[0].Content)
}

func TestMessageService_DeleteSingle(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "delete@example.com")
	page := env.newPage(t, ctx, "Deletions")

	msg, err := env.messages.Append(ctx, &page.ID, types.TextContent("oops"), true)
	require.NoError(t, err)

	require.NoError(t, env.messages.Delete(ctx, msg.ID, false, false))

	views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
	require.NoError(t, err)
	assert.Empty(t, views)

	t.Run("retry is a no-op success", func(t *testing.T) {
		require.NoError(t, env.messages.Delete(ctx, msg.ID, false, false))
	})

	t.Run("unknown message", func(t *testing.T) {
		err := env.messages.Delete(ctx, uuid.New(), false, false)
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("someone else's message", func(t *testing.T) {
		_, otherCtx := env.newUser(t, "intruder@example.com")
		err := env.messages.Delete(otherCtx, msg.ID, false, false)
		assert.True(t, errs.IsForbidden(err))
	})
}

func TestMessageService_DeleteCascade(t *testing.T) {
	seed := func(t *testing.T, env *testEnv, ctx context.Context, pageID uuid.UUID) [3]*types.ChatMessage {
		t.Helper()
		var out [3]*types.ChatMessage
		for i, body := range []string{"question", "answer", "followup"} {
			msg, err := env.messages.Append(ctx, &pageID, types.TextContent(body), i%2 == 0)
			require.NoError(t, err)
			out[i] = msg
			time.Sleep(5 * time.Millisecond)
		}
		return out
	}

	t.Run("cascade takes the target and everything after it", func(t *testing.T) {
		env := newTestEnv(t)
		_, ctx := env.newUser(t, "cascade@example.com")
		page := env.newPage(t, ctx, "Cascade")
		msgs := seed(t, env, ctx, page.ID)

		require.NoError(t, env.messages.Delete(ctx, msgs[1].ID, true, false))

		views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.Equal(t, "question", views[0].Content)
	})

	t.Run("cascade above spares the target", func(t *testing.T) {
		env := newTestEnv(t)
		_, ctx := env.newUser(t, "above@example.com")
		page := env.newPage(t, ctx, "Regenerate")
		msgs := seed(t, env, ctx, page.ID)

		require.NoError(t, env.messages.Delete(ctx, msgs[1].ID, true, true))

		views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
		require.NoError(t, err)
		require.Len(t, views, 2)
		assert.Equal(t, "question", views[0].Content)
		assert.Equal(t, "answer", views[1].Content)
	})
}

func TestMessageService_Update(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "update@example.com")
	page := env.newPage(t, ctx, "Edits")

	msg, err := env.messages.Append(ctx, &page.ID, types.TextContent("draft"), true)
	require.NoError(t, err)

	view, err := env.messages.Update(ctx, msg.ID, types.TextContent("final"))
	require.NoError(t, err)
	assert.Equal(t, "final", view.Content)

	t.Run("unknown message", func(t *testing.T) {
		_, err := env.messages.Update(ctx, uuid.New(), types.TextContent("x"))
		assert.True(t, errs.IsNotFound(err))
	})

	t.Run("someone else's message", func(t *testing.T) {
		_, otherCtx := env.newUser(t, "noteditor@example.com")
		_, err := env.messages.Update(otherCtx, msg.ID, types.TextContent("x"))
		assert.True(t, errs.IsForbidden(err))
	})

	t.Run("soft-deleted counts as missing", func(t *testing.T) {
		require.NoError(t, env.messages.Delete(ctx, msg.ID, false, false))
		_, err := env.messages.Update(ctx, msg.ID, types.TextContent("ghost"))
		assert.True(t, errs.IsNotFound(err))
	})
}

func TestMessageService_ClearHistory(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "clear@example.com")
	page := env.newPage(t, ctx, "Everything")

	_, err := env.messages.Append(ctx, &page.ID, types.TextContent("gone soon"), true)
	require.NoError(t, err)
	_, err = env.messages.Append(ctx, nil, types.TextContent("orphan gone too"), true)
	require.NoError(t, err)

	require.NoError(t, env.messages.ClearHistory(ctx))

	views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
	require.NoError(t, err)
	assert.Empty(t, views)

	pages, err := env.pages.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, pages)

	deleted, err := env.messages.Deleted(ctx)
	require.NoError(t, err)
	assert.Empty(t, deleted, "clear history is a hard wipe, not a soft delete")

	t.Run("clearing an empty history succeeds", func(t *testing.T) {
		require.NoError(t, env.messages.ClearHistory(ctx))
	})
}

func TestMessageService_ClearHistoryIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "atomic@example.com")
	page := env.newPage(t, ctx, "Survivor")

	_, err := env.messages.Append(ctx, &page.ID, types.TextContent("still here"), true)
	require.NoError(t, err)

	broken := NewMessageService(env.db, logger.NewNop(), env.msgRepo, failingPageRepo{env.pageRepo}, env.userRepo)

	err = broken.ClearHistory(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsStorage(err))

	// The failed page delete rolls back the whole transaction: the message
	// wipe that ran before it must be undone too.
	views, err := env.messages.List(ctx, &page.ID, DefaultListLimit, 0)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "still here", views[0].Content)

	pages, err := env.pages.List(ctx)
	require.NoError(t, err)
	require.Len(t, pages, 1)
}

func TestMessageService_DebugReads(t *testing.T) {
	env := newTestEnv(t)
	_, ctx := env.newUser(t, "debug@example.com")
	page := env.newPage(t, ctx, "Diagnostics")

	onPage, err := env.messages.Append(ctx, &page.ID, types.TextContent("scoped"), true)
	require.NoError(t, err)
	_, err = env.messages.Append(ctx, nil, types.TextContent("orphan"), true)
	require.NoError(t, err)
	require.NoError(t, env.messages.Delete(ctx, onPage.ID, false, false))

	orphans, err := env.messages.Orphaned(ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, "orphan", orphans[0].Content)

	deleted, err := env.messages.Deleted(ctx)
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, onPage.ID, deleted[0].ID)
	require.NotNil(t, deleted[0].DeletedAt)
}
