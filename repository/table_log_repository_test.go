package repository

import (
	"context"
	"testing"
	"time"

	"bookclub/models"
	"bookclub/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableLogRepository(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewTableLogRepository(testDB.DB)
	ctx := context.Background()

	day1 := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC)

	entries := []*models.TableLog{
		{DiscordUserID: "42", Type: models.TableLogVoiceJoin, ChannelName: "테이블 1", Username: "reader", LoggedAt: day1},
		{DiscordUserID: "42", Type: models.TableLogVoiceLeave, ChannelName: "테이블 1", Username: "reader", DurationMinutes: 45, LoggedAt: day1.Add(45 * time.Minute)},
		{DiscordUserID: "42", Type: models.TableLogVoiceLeave, ChannelName: "테이블 2", Username: "reader", DurationMinutes: 30, LoggedAt: day1.Add(2 * time.Hour)},
		{DiscordUserID: "42", Type: models.TableLogVoiceLeave, ChannelName: "테이블 1", Username: "reader", DurationMinutes: 90, LoggedAt: day2},
		{DiscordUserID: "77", Type: models.TableLogVoiceLeave, ChannelName: "테이블 1", Username: "other", DurationMinutes: 500, LoggedAt: day2},
	}
	for _, entry := range entries {
		require.NoError(t, repo.Create(ctx, entry))
		assert.NotZero(t, entry.ID)
	}

	t.Run("list newest first", func(t *testing.T) {
		logs, err := repo.ListByDiscordUser(ctx, "42", 2)
		require.NoError(t, err)
		require.Len(t, logs, 2)
		assert.Equal(t, 90, logs[0].DurationMinutes)
		assert.Equal(t, "테이블 2", logs[1].ChannelName)
	})

	t.Run("summarize counts leaves only", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, "42")
		require.NoError(t, err)
		assert.Equal(t, 165, summary.TotalMinutes)
		assert.Equal(t, 2, summary.Days)
	})

	t.Run("summarize unknown user", func(t *testing.T) {
		summary, err := repo.Summarize(ctx, "nobody")
		require.NoError(t, err)
		assert.Equal(t, 0, summary.TotalMinutes)
		assert.Equal(t, 0, summary.Days)
	})
}
