package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

func intPtr(v int) *int {
	return &v
}

func int64Ptr(v int64) *int64 {
	return &v
}

func storedComment(id int64, prNumber int, path string, created time.Time) model.ReviewComment {
	return model.ReviewComment{
		ID:               id,
		PRNumber:         prNumber,
		Author:           "alice",
		Body:             "anchor here",
		Path:             path,
		CommitID:         "headsha",
		DiffHunk:         "@@ -10,3 +10,4 @@\n a\n+b\n c\n d",
		Position:         intPtr(4),
		OriginalPosition: 4,
		OriginalCommitID: "feedc0ffee",
		CreatedAt:        created.UTC(),
		UpdatedAt:        created.UTC(),
	}
}

func TestCommentRepo_UpsertAndGetByPR(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(100, 42, "a.go", now)))

	reply := storedComment(101, 42, "a.go", now.Add(time.Minute))
	reply.InReplyToID = int64Ptr(100)
	reply.Position = nil
	require.NoError(t, repo.UpsertReviewComment(ctx, reply))

	comments, err := repo.GetReviewCommentsByPR(ctx, 42)

	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, int64(100), comments[0].ID)
	assert.Equal(t, "alice", comments[0].Author)
	require.NotNil(t, comments[0].Position)
	assert.Equal(t, 4, *comments[0].Position)
	assert.Nil(t, comments[0].InReplyToID)

	assert.Equal(t, int64(101), comments[1].ID)
	assert.Nil(t, comments[1].Position)
	require.NotNil(t, comments[1].InReplyToID)
	assert.Equal(t, int64(100), *comments[1].InReplyToID)
}

func TestCommentRepo_UpsertIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	first := storedComment(100, 42, "a.go", now)
	require.NoError(t, repo.UpsertReviewComment(ctx, first))

	// Same ID, edited body: upsert must replace, not duplicate.
	edited := first
	edited.Body = "edited body"
	require.NoError(t, repo.UpsertReviewComment(ctx, edited))

	comments, err := repo.GetReviewCommentsByPR(ctx, 42)

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "edited body", comments[0].Body)
}

func TestCommentRepo_GetByPath(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(100, 42, "a.go", now)))
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(200, 42, "b.go", now)))
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(300, 7, "a.go", now)))

	comments, err := repo.GetReviewCommentsByPath(ctx, 42, "a.go")

	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, int64(100), comments[0].ID)
}

func TestCommentRepo_GetByPathOrderedByArrival(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now().Truncate(time.Second)

	// Insert out of creation order; reads must come back in arrival order.
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(300, 42, "a.go", now.Add(2*time.Minute))))
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(100, 42, "a.go", now)))
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(200, 42, "a.go", now.Add(time.Minute))))

	comments, err := repo.GetReviewCommentsByPath(ctx, 42, "a.go")

	require.NoError(t, err)
	require.Len(t, comments, 3)
	assert.Equal(t, int64(100), comments[0].ID)
	assert.Equal(t, int64(200), comments[1].ID)
	assert.Equal(t, int64(300), comments[2].ID)
}

func TestCommentRepo_UpdateCommentResolution(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(100, 42, "a.go", time.Now())))

	require.NoError(t, repo.UpdateCommentResolution(ctx, 100, true))

	comments, err := repo.GetReviewCommentsByPR(ctx, 42)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.True(t, comments[0].IsResolved)
}

func TestCommentRepo_DeleteByPR(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(100, 42, "a.go", now)))
	require.NoError(t, repo.UpsertReviewComment(ctx, storedComment(200, 7, "a.go", now)))

	require.NoError(t, repo.DeleteReviewCommentsByPR(ctx, 42))

	gone, err := repo.GetReviewCommentsByPR(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, gone)

	kept, err := repo.GetReviewCommentsByPR(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, kept, 1)
}

func TestCommentRepo_EmptyResultIsNotNil(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCommentRepo(db)

	comments, err := repo.GetReviewCommentsByPR(context.Background(), 999)

	require.NoError(t, err)
	assert.NotNil(t, comments)
	assert.Empty(t, comments)
}
