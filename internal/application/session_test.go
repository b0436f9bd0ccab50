package application

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// recordingSink captures published change sets for assertions.
type recordingSink struct {
	mu      sync.Mutex
	batches [][]model.LineChange
}

func (r *recordingSink) Publish(_ string, changes []model.LineChange) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, changes)
}

func (r *recordingSink) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.batches)
}

const sessionPath = "internal/app/server.go"

func sessionComments() []model.ReviewComment {
	now := time.Now()
	return []model.ReviewComment{
		wireCommentAt(100, nil, sessionPath, now),
		wireCommentAt(101, int64Ptr(100), sessionPath, now.Add(time.Minute)),
	}
}

func wireCommentAt(id int64, replyTo *int64, path string, created time.Time) model.ReviewComment {
	c := wireComment(id, replyTo, created)
	c.Path = path
	return c
}

func TestSession_RebuildWithDiffAnchorsThreads(t *testing.T) {
	sink := &recordingSink{}
	s := NewSession(sessionPath, time.Millisecond, sink, testLogger())

	changes, err := s.RebuildWithDiff(sessionComments(), testHunk)

	require.NoError(t, err)
	require.Len(t, changes, 1)
	assert.Equal(t, diff.SideRight, changes[0].Side)

	threads := s.Snapshot()
	require.Len(t, threads, 1)
	// Anchor is "d", new-side line 13, zero-based 12.
	assert.Equal(t, 12, threads[0].CurrentLine)
	assert.Len(t, threads[0].Comments, 2)
	assert.Equal(t, 1, sink.count())
}

func TestSession_RebuildReplacesThreadSet(t *testing.T) {
	s := NewSession(sessionPath, time.Millisecond, nil, testLogger())

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)

	// Second fetch returns only a new root; the old thread must be gone.
	replacement := []model.ReviewComment{wireCommentAt(200, nil, sessionPath, time.Now())}
	replacement[0].OriginalPosition = 9

	_, err = s.RebuildWithDiff(replacement, testHunk)
	require.NoError(t, err)

	threads := s.Snapshot()
	require.Len(t, threads, 1)
	assert.Equal(t, 9, threads[0].Key.OriginalPosition)
}

func TestSession_RebuildWithMalformedDiffFails(t *testing.T) {
	s := NewSession(sessionPath, time.Millisecond, nil, testLogger())

	_, err := s.RebuildWithDiff(sessionComments(), "@@ broken @@\n x")

	assert.Error(t, err)
}

func TestSession_DocumentChangedMarksThreadsStale(t *testing.T) {
	s := NewSession(sessionPath, time.Hour, nil, testLogger())

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)

	s.DocumentChanged(testHunk)
	defer s.Close()

	threads := s.Snapshot()
	require.Len(t, threads, 1)
	assert.True(t, threads[0].IsStale)
}

func TestSession_DocumentChangedDebounceCoalesces(t *testing.T) {
	sink := &recordingSink{}
	s := NewSession(sessionPath, 30*time.Millisecond, sink, testLogger())
	defer s.Close()

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)
	require.Equal(t, 1, sink.count())

	// A burst of edits: only the last diff text should be reconciled, once.
	moved := "@@ -20,3 +20,4 @@\n a\n+b\n c\n d"
	s.DocumentChanged(testHunk)
	s.DocumentChanged(testHunk)
	s.DocumentChanged(moved)

	require.Eventually(t, func() bool {
		threads := s.Snapshot()
		return len(threads) == 1 && threads[0].CurrentLine == 22 && !threads[0].IsStale
	}, time.Second, 5*time.Millisecond)

	// One rebuild batch plus one debounced batch.
	assert.Equal(t, 2, sink.count())
}

func TestSession_FlushKeepsStateOnParseFailure(t *testing.T) {
	s := NewSession(sessionPath, 10*time.Millisecond, nil, testLogger())
	defer s.Close()

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)

	s.DocumentChanged("@@ broken @@\n x")

	// The stale marking from the edit persists; the anchor does not move.
	require.Eventually(t, func() bool {
		threads := s.Snapshot()
		return len(threads) == 1 && threads[0].IsStale
	}, time.Second, 5*time.Millisecond)

	threads := s.Snapshot()
	assert.Equal(t, 12, threads[0].CurrentLine)
}

func TestSession_ReconcileNow(t *testing.T) {
	s := NewSession(sessionPath, time.Hour, nil, testLogger())

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)

	changes, err := s.ReconcileNow("@@ -20,3 +20,4 @@\n a\n+b\n c\n d")

	require.NoError(t, err)
	assert.Equal(t, []model.LineChange{
		{Line: 12, Side: diff.SideRight},
		{Line: 22, Side: diff.SideRight},
	}, changes)
}

func TestSession_AppendComment(t *testing.T) {
	s := NewSession(sessionPath, time.Millisecond, nil, testLogger())

	_, err := s.RebuildWithDiff(sessionComments(), testHunk)
	require.NoError(t, err)

	key := model.ThreadKey{OriginalCommitSHA: "feedc0ffee", OriginalPosition: 4}
	ok := s.AppendComment(key, model.Comment{Author: "me", Body: "on it"})

	require.True(t, ok)
	threads := s.Snapshot()
	require.Len(t, threads[0].Comments, 3)
	placeholder := threads[0].Comments[2]
	assert.True(t, placeholder.IsPlaceholder())
	assert.Equal(t, key, placeholder.ThreadKey)

	assert.False(t, s.AppendComment(model.ThreadKey{OriginalCommitSHA: "nope"}, model.Comment{}))
}

func TestSessionManager_SingleSessionPerPath(t *testing.T) {
	m := NewSessionManager(time.Millisecond, nil, testLogger())

	first, existed := m.GetOrCreate(sessionPath)
	require.False(t, existed)

	second, existed := m.GetOrCreate(sessionPath)
	require.True(t, existed)
	assert.Same(t, first, second)

	assert.Len(t, m.All(), 1)

	m.Remove(sessionPath)
	assert.Nil(t, m.Get(sessionPath))
	assert.Empty(t, m.All())
}
