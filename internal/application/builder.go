// Package application contains use-case orchestration services.
package application

import (
	"log/slog"
	"strconv"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// BuildThreads assembles flat review comments into ordered threads. Roots
// (no InReplyToID) are bucketed by comment ID in arrival order; replies are
// appended to their root's bucket, preserving arrival order. A reply whose
// InReplyToID matches no known root is dropped: partially loaded pagination
// can deliver orphans, and they must not abort thread assembly. Dropped
// orphans are counted and logged for diagnosis.
func BuildThreads(comments []model.ReviewComment, logger *slog.Logger) []*model.Thread {
	threads := []*model.Thread{}
	byRootID := make(map[int64]*model.Thread)

	for _, c := range comments {
		if !c.IsRoot() {
			continue
		}

		thread := newThreadFromRoot(c, logger)
		thread.Comments = append(thread.Comments, toComment(c, thread.Key))
		threads = append(threads, thread)
		byRootID[c.ID] = thread
	}

	orphans := 0
	for _, c := range comments {
		if c.IsRoot() {
			continue
		}

		thread, ok := byRootID[*c.InReplyToID]
		if !ok {
			orphans++
			continue
		}
		thread.Comments = append(thread.Comments, toComment(c, thread.Key))
	}

	if orphans > 0 {
		logger.Warn("dropped orphaned replies during thread assembly",
			"count", orphans,
			"total_comments", len(comments),
		)
	}

	return threads
}

// FilterThreadsForFile narrows a thread set to one file path, excluding
// threads whose root comment GitHub already marked outdated (Position nil).
// Only the surviving threads are handed to reconciliation.
func FilterThreadsForFile(comments []model.ReviewComment, path string, logger *slog.Logger) []*model.Thread {
	scoped := make([]model.ReviewComment, 0, len(comments))
	rootOutdated := make(map[int64]bool)

	for _, c := range comments {
		if c.IsRoot() && c.IsOutdated() {
			rootOutdated[c.ID] = true
		}
	}

	for _, c := range comments {
		if c.Path != path {
			continue
		}
		if c.IsRoot() && rootOutdated[c.ID] {
			continue
		}
		if !c.IsRoot() && rootOutdated[*c.InReplyToID] {
			continue
		}
		scoped = append(scoped, c)
	}

	return BuildThreads(scoped, logger)
}

// newThreadFromRoot derives the anchor state of a thread from its root
// comment. A root whose stored diff hunk does not parse produces a thread
// with an empty fingerprint; it can never re-anchor and stays at
// UnanchoredLine, which is the honest representation of an unusable hunk.
func newThreadFromRoot(root model.ReviewComment, logger *slog.Logger) *model.Thread {
	key := model.ThreadKey{
		OriginalCommitSHA: root.OriginalCommitID,
		OriginalPosition:  root.OriginalPosition,
	}

	ctx, err := diff.ContextFromHunk(root.DiffHunk)
	if err != nil {
		logger.Warn("unparseable diff hunk on root comment",
			"comment_id", root.ID,
			"path", root.Path,
			"error", err,
		)
		ctx = diff.Context{}
	}

	return &model.Thread{
		Path:        root.Path,
		Key:         key,
		DiffContext: ctx,
		LineKind:    ctx.AnchorKind(),
		CurrentLine: model.UnanchoredLine,
		IsResolved:  root.IsResolved,
	}
}

// toComment converts a wire record into a thread-owned comment.
func toComment(c model.ReviewComment, key model.ThreadKey) model.Comment {
	var inReplyTo string
	if c.InReplyToID != nil {
		inReplyTo = strconv.FormatInt(*c.InReplyToID, 10)
	}

	return model.Comment{
		ID:          strconv.FormatInt(c.ID, 10),
		ThreadKey:   key,
		Author:      c.Author,
		Body:        c.Body,
		InReplyToID: inReplyTo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
