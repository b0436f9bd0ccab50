package github

import (
	"context"
	"fmt"
	"strings"

	gh "github.com/google/go-github/v82/github"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// ReplyToReviewComment posts a reply to an existing review comment thread.
// commentID must be the root comment ID of the thread. The saved comment, as
// GitHub echoed it back, replaces the caller's local placeholder on the next
// sync.
func (c *Client) ReplyToReviewComment(ctx context.Context, repoFullName string, prNumber int, commentID int64, body string) (*model.ReviewComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	created, resp, err := c.gh.PullRequests.CreateCommentInReplyTo(ctx, owner, repo, prNumber, body, commentID)
	if err != nil {
		return nil, fmt.Errorf("replying to comment %d on %s#%d: %w", commentID, repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName, 1, 1)

	saved := mapReviewComment(created)
	saved.PRNumber = prNumber
	return &saved, nil
}

// CreateReviewComment starts a new review thread on a line of a file. GitHub
// expects the 1-based line number on the given diff side and the head commit
// SHA the line numbering refers to.
func (c *Client) CreateReviewComment(ctx context.Context, repoFullName string, prNumber int, path, commitID string, line int, side diff.Side, body string) (*model.ReviewComment, error) {
	owner, repo, err := splitRepo(repoFullName)
	if err != nil {
		return nil, err
	}

	comment := &gh.PullRequestComment{
		Body:     gh.Ptr(body),
		Path:     gh.Ptr(path),
		CommitID: gh.Ptr(commitID),
		Line:     gh.Ptr(line),
		Side:     gh.Ptr(strings.ToUpper(string(side))),
	}

	created, resp, err := c.gh.PullRequests.CreateComment(ctx, owner, repo, prNumber, comment)
	if err != nil {
		return nil, fmt.Errorf("creating comment on %s:%d of %s#%d: %w", path, line, repoFullName, prNumber, err)
	}

	logRateLimit(resp, repoFullName, 1, 1)

	saved := mapReviewComment(created)
	saved.PRNumber = prNumber
	return &saved, nil
}
