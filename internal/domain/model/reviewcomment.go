package model

import "time"

// ReviewComment is the flat wire record for an inline pull-request comment as
// delivered by the GitHub API, before thread assembly. Position is nil when
// GitHub considers the comment outdated (no longer anchorable in the current
// head diff); OriginalPosition and OriginalCommitID always refer to the diff
// the comment was written against.
type ReviewComment struct {
	ID               int64
	PRNumber         int
	Author           string
	Body             string
	Path             string
	CommitID         string
	DiffHunk         string
	Position         *int
	OriginalPosition int
	OriginalCommitID string
	IsResolved       bool
	InReplyToID      *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsOutdated reports whether GitHub can no longer anchor the comment in the
// current head diff.
func (c ReviewComment) IsOutdated() bool {
	return c.Position == nil
}

// IsRoot reports whether the comment starts a thread.
func (c ReviewComment) IsRoot() bool {
	return c.InReplyToID == nil
}
