package repository

import (
	"context"
	"testing"

	"github.com/inkbloom/inkbloom/internal/feedback"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepoLifecycle(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryRepo()
	require.NoError(t, r.Create(ctx, &feedback.Feedback{FeedbackID: "1", UserID: "a", Content: "hello"}))
	require.NoError(t, r.Create(ctx, &feedback.Feedback{FeedbackID: "2", UserID: "b", Content: "hi"}))
	require.NoError(t, r.Create(ctx, &feedback.Feedback{FeedbackID: "3", UserID: "a", Content: "again"}))

	all, err := r.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "3", all[0].FeedbackID)

	mine, err := r.ListForUser(ctx, "a")
	require.NoError(t, err)
	require.Len(t, mine, 2)

	n, err := r.DeleteForUser(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, int64(2), n)
	mine, err = r.ListForUser(ctx, "a")
	require.NoError(t, err)
	require.Empty(t, mine)
}
