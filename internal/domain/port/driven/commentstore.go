package driven

import (
	"context"

	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// CommentStore defines the driven port for the local review-comment cache.
// The daemon persists fetched wire records so sessions can rebuild threads
// without re-fetching, and so state survives restarts.
type CommentStore interface {
	UpsertReviewComment(ctx context.Context, comment model.ReviewComment) error
	GetReviewCommentsByPR(ctx context.Context, prNumber int) ([]model.ReviewComment, error)
	GetReviewCommentsByPath(ctx context.Context, prNumber int, path string) ([]model.ReviewComment, error)
	UpdateCommentResolution(ctx context.Context, commentID int64, isResolved bool) error
	// DeleteReviewCommentsByPR removes all cached comments for a PR, used
	// when the tracked PR changes or is closed.
	DeleteReviewCommentsByPR(ctx context.Context, prNumber int) error
}
