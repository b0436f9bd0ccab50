package application

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func int64Ptr(v int64) *int64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}

const testHunk = "@@ -10,3 +10,4 @@\n a\n+b\n c\n d"

func wireComment(id int64, replyTo *int64, created time.Time) model.ReviewComment {
	return model.ReviewComment{
		ID:               id,
		Author:           "octocat",
		Body:             "looks wrong",
		Path:             "internal/app/server.go",
		CommitID:         "feedc0ffee",
		DiffHunk:         testHunk,
		Position:         intPtr(4),
		OriginalPosition: 4,
		OriginalCommitID: "feedc0ffee",
		InReplyToID:      replyTo,
		CreatedAt:        created,
	}
}

func TestBuildThreads_RootWithReplies(t *testing.T) {
	now := time.Now().Truncate(time.Second)

	comments := []model.ReviewComment{
		wireComment(100, nil, now),
		wireComment(101, int64Ptr(100), now.Add(time.Minute)),
		wireComment(102, int64Ptr(100), now.Add(2*time.Minute)),
	}

	threads := BuildThreads(comments, testLogger())

	require.Len(t, threads, 1)
	thread := threads[0]

	require.Len(t, thread.Comments, 3)
	assert.Equal(t, "100", thread.Comments[0].ID)
	assert.Equal(t, "101", thread.Comments[1].ID)
	assert.Equal(t, "102", thread.Comments[2].ID)

	assert.Equal(t, model.ThreadKey{OriginalCommitSHA: "feedc0ffee", OriginalPosition: 4}, thread.Key)
	assert.Equal(t, model.UnanchoredLine, thread.CurrentLine)
	assert.Equal(t, diff.LineKindContext, thread.LineKind)
	require.Len(t, thread.DiffContext, 4)
	assert.Equal(t, "d", thread.DiffContext[3].Content)
}

func TestBuildThreads_OrphanReplyDropped(t *testing.T) {
	now := time.Now()

	comments := []model.ReviewComment{
		wireComment(100, nil, now),
		wireComment(101, int64Ptr(100), now),
		wireComment(102, int64Ptr(100), now),
		wireComment(999, int64Ptr(555), now), // Reply to a root we never saw.
	}

	threads := BuildThreads(comments, testLogger())

	require.Len(t, threads, 1)
	assert.Len(t, threads[0].Comments, 3)
}

func TestBuildThreads_RepliesBeforeRootInArrivalOrder(t *testing.T) {
	now := time.Now()

	// Replies arrive before their root; grouping must still find them, and
	// their relative order must be preserved.
	comments := []model.ReviewComment{
		wireComment(101, int64Ptr(100), now),
		wireComment(102, int64Ptr(100), now),
		wireComment(100, nil, now),
	}

	threads := BuildThreads(comments, testLogger())

	require.Len(t, threads, 1)
	require.Len(t, threads[0].Comments, 3)
	assert.Equal(t, "100", threads[0].Comments[0].ID)
	assert.Equal(t, "101", threads[0].Comments[1].ID)
	assert.Equal(t, "102", threads[0].Comments[2].ID)
}

func TestBuildThreads_GroupingRoundTrip(t *testing.T) {
	now := time.Now()

	comments := []model.ReviewComment{
		wireComment(1, nil, now),
		wireComment(2, nil, now),
		wireComment(10, int64Ptr(1), now),
		wireComment(20, int64Ptr(2), now),
		wireComment(11, int64Ptr(1), now),
	}

	threads := BuildThreads(comments, testLogger())

	require.Len(t, threads, 2)

	// Flattening each thread recovers the per-root grouping: root first,
	// replies in original relative order.
	var flat [][]string
	for _, th := range threads {
		ids := make([]string, 0, len(th.Comments))
		for _, c := range th.Comments {
			ids = append(ids, c.ID)
		}
		flat = append(flat, ids)
	}

	assert.Equal(t, [][]string{{"1", "10", "11"}, {"2", "20"}}, flat)
}

func TestBuildThreads_UnparseableHunkYieldsEmptyFingerprint(t *testing.T) {
	root := wireComment(100, nil, time.Now())
	root.DiffHunk = "@@ not a header @@\n x"

	threads := BuildThreads([]model.ReviewComment{root}, testLogger())

	require.Len(t, threads, 1)
	assert.Empty(t, threads[0].DiffContext)
	assert.Equal(t, model.UnanchoredLine, threads[0].CurrentLine)
}

func TestBuildThreads_Empty(t *testing.T) {
	threads := BuildThreads(nil, testLogger())

	assert.Empty(t, threads)
}

func TestFilterThreadsForFile(t *testing.T) {
	now := time.Now()

	other := wireComment(300, nil, now)
	other.Path = "README.md"

	outdatedRoot := wireComment(400, nil, now)
	outdatedRoot.Position = nil
	outdatedReply := wireComment(401, int64Ptr(400), now)

	comments := []model.ReviewComment{
		wireComment(100, nil, now),
		wireComment(101, int64Ptr(100), now),
		other,
		outdatedRoot,
		outdatedReply,
	}

	threads := FilterThreadsForFile(comments, "internal/app/server.go", testLogger())

	// Only the live thread on the requested path survives: the README thread
	// is out of scope and the outdated thread cannot be anchored.
	require.Len(t, threads, 1)
	assert.Equal(t, model.ThreadKey{OriginalCommitSHA: "feedc0ffee", OriginalPosition: 4}, threads[0].Key)
	assert.Len(t, threads[0].Comments, 2)
}
