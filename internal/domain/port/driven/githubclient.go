// Package driven defines the outbound port interfaces implemented by adapters.
package driven

import (
	"context"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// GitHubClient defines the driven port for the GitHub API. Read methods fetch
// pull-request and review-comment data; write methods post comments.
type GitHubClient interface {
	// FindPullRequest returns the open pull request whose head is the given
	// branch, or nil when no such PR exists.
	FindPullRequest(ctx context.Context, repoFullName string, branch string) (*model.PullRequest, error)

	// FetchReviewComments retrieves all inline review comments for a pull
	// request, paginating as needed.
	FetchReviewComments(ctx context.Context, repoFullName string, prNumber int) ([]model.ReviewComment, error)

	// FetchThreadResolution returns a map of review comment ID to resolved
	// status, sourced from the GraphQL API. Best effort: failures yield an
	// empty map, never an error that blocks a sync.
	FetchThreadResolution(ctx context.Context, repoFullName string, prNumber int) (map[int64]bool, error)

	// ReplyToReviewComment posts a reply to an existing review comment
	// thread. commentID must be the thread's root comment ID. Returns the
	// saved comment as the API echoed it back.
	ReplyToReviewComment(ctx context.Context, repoFullName string, prNumber int, commentID int64, body string) (*model.ReviewComment, error)

	// CreateReviewComment starts a new review thread on a line of a file.
	// line is the 1-based line number on the given side of the diff; commitID
	// is the head commit the comment is written against.
	CreateReviewComment(ctx context.Context, repoFullName string, prNumber int, path, commitID string, line int, side diff.Side, body string) (*model.ReviewComment, error)
}
