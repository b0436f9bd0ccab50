package model

import "time"

// PullRequest carries the subset of pull-request metadata the daemon needs to
// locate and diff a review target: which PR tracks the checked-out branch,
// and the base/head commits bounding its diff.
type PullRequest struct {
	ID         int64
	Number     int
	Title      string
	Author     string
	URL        string
	Branch     string
	BaseBranch string
	HeadSHA    string
	BaseSHA    string
	IsDraft    bool
	UpdatedAt  time.Time
}
