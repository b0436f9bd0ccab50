package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
	"github.com/ericfisherdev/reviewanchor/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CommentStore = (*CommentRepo)(nil)

// CommentRepo is the SQLite implementation of the CommentStore port.
type CommentRepo struct {
	db *DB
}

// NewCommentRepo creates a new CommentRepo backed by the given DB.
func NewCommentRepo(db *DB) *CommentRepo {
	return &CommentRepo{db: db}
}

// UpsertReviewComment inserts or updates a review comment by its GitHub ID.
func (r *CommentRepo) UpsertReviewComment(ctx context.Context, comment model.ReviewComment) error {
	const query = `
		INSERT INTO review_comments (
			id, pr_number, author, body, path, commit_id, diff_hunk,
			position, original_position, original_commit_id, is_resolved,
			in_reply_to_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			pr_number = excluded.pr_number,
			author = excluded.author,
			body = excluded.body,
			path = excluded.path,
			commit_id = excluded.commit_id,
			diff_hunk = excluded.diff_hunk,
			position = excluded.position,
			original_position = excluded.original_position,
			original_commit_id = excluded.original_commit_id,
			is_resolved = excluded.is_resolved,
			in_reply_to_id = excluded.in_reply_to_id,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`

	isResolved := 0
	if comment.IsResolved {
		isResolved = 1
	}

	_, err := r.db.Writer.ExecContext(ctx, query,
		comment.ID, comment.PRNumber, comment.Author, comment.Body, comment.Path,
		comment.CommitID, comment.DiffHunk, comment.Position, comment.OriginalPosition,
		comment.OriginalCommitID, isResolved, comment.InReplyToID,
		comment.CreatedAt.UTC(), comment.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert review comment %d: %w", comment.ID, err)
	}

	return nil
}

// GetReviewCommentsByPR returns all cached comments for a PR in arrival
// (creation, then id) order, as thread assembly expects.
func (r *CommentRepo) GetReviewCommentsByPR(ctx context.Context, prNumber int) ([]model.ReviewComment, error) {
	const query = `
		SELECT id, pr_number, author, body, path, commit_id, diff_hunk,
			position, original_position, original_commit_id, is_resolved,
			in_reply_to_id, created_at, updated_at
		FROM review_comments
		WHERE pr_number = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, prNumber)
	if err != nil {
		return nil, fmt.Errorf("query review comments for PR %d: %w", prNumber, err)
	}
	defer func() { _ = rows.Close() }()

	return scanComments(rows)
}

// GetReviewCommentsByPath returns the cached comments for one file of a PR,
// in arrival order.
func (r *CommentRepo) GetReviewCommentsByPath(ctx context.Context, prNumber int, path string) ([]model.ReviewComment, error) {
	const query = `
		SELECT id, pr_number, author, body, path, commit_id, diff_hunk,
			position, original_position, original_commit_id, is_resolved,
			in_reply_to_id, created_at, updated_at
		FROM review_comments
		WHERE pr_number = ? AND path = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.Reader.QueryContext(ctx, query, prNumber, path)
	if err != nil {
		return nil, fmt.Errorf("query review comments for PR %d path %q: %w", prNumber, path, err)
	}
	defer func() { _ = rows.Close() }()

	return scanComments(rows)
}

// UpdateCommentResolution sets the resolved flag on a single comment.
func (r *CommentRepo) UpdateCommentResolution(ctx context.Context, commentID int64, isResolved bool) error {
	resolved := 0
	if isResolved {
		resolved = 1
	}

	_, err := r.db.Writer.ExecContext(ctx,
		`UPDATE review_comments SET is_resolved = ? WHERE id = ?`,
		resolved, commentID,
	)
	if err != nil {
		return fmt.Errorf("update resolution for comment %d: %w", commentID, err)
	}

	return nil
}

// DeleteReviewCommentsByPR removes all cached comments for a PR.
func (r *CommentRepo) DeleteReviewCommentsByPR(ctx context.Context, prNumber int) error {
	_, err := r.db.Writer.ExecContext(ctx,
		`DELETE FROM review_comments WHERE pr_number = ?`,
		prNumber,
	)
	if err != nil {
		return fmt.Errorf("delete review comments for PR %d: %w", prNumber, err)
	}

	return nil
}

// scanComments maps query rows to domain wire records.
func scanComments(rows *sql.Rows) ([]model.ReviewComment, error) {
	comments := []model.ReviewComment{}

	for rows.Next() {
		var (
			c          model.ReviewComment
			position   sql.NullInt64
			inReplyTo  sql.NullInt64
			isResolved int
		)

		err := rows.Scan(
			&c.ID, &c.PRNumber, &c.Author, &c.Body, &c.Path, &c.CommitID,
			&c.DiffHunk, &position, &c.OriginalPosition, &c.OriginalCommitID,
			&isResolved, &inReplyTo, &c.CreatedAt, &c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan review comment: %w", err)
		}

		if position.Valid {
			val := int(position.Int64)
			c.Position = &val
		}
		if inReplyTo.Valid {
			val := inReplyTo.Int64
			c.InReplyToID = &val
		}
		c.IsResolved = isResolved != 0

		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review comments: %w", err)
	}

	return comments, nil
}
