package model

import (
	"fmt"
	"time"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
)

// UnanchoredLine is the CurrentLine value of a thread whose fingerprint could
// not be located in the current diff. The front-end hides or flags such
// threads instead of drawing a gutter glyph.
const UnanchoredLine = -1

// ThreadKey identifies a thread stably across rebuilds: the commit the root
// comment was written against plus its position within that commit's diff.
type ThreadKey struct {
	OriginalCommitSHA string
	OriginalPosition  int
}

// String renders the key for logging and foreign-key storage on comments.
func (k ThreadKey) String() string {
	return fmt.Sprintf("%s:%d", k.OriginalCommitSHA, k.OriginalPosition)
}

// Comment is one entry of a thread's conversation. Comments are owned by
// their thread and reference it by key rather than back-pointer.
type Comment struct {
	ID          string // Empty for a locally created, not-yet-saved placeholder.
	ThreadKey   ThreadKey
	Author      string
	Body        string
	InReplyToID string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsPlaceholder reports whether the comment has not been persisted to GitHub yet.
func (c Comment) IsPlaceholder() bool {
	return c.ID == ""
}

// Thread is one review conversation anchored to a line of a file's diff.
// The root (first) comment defines the anchor fingerprint; replies follow in
// creation order. Threads live for the lifetime of one file-diff view and are
// rebuilt wholesale when the pull request is refetched.
type Thread struct {
	Path        string
	Key         ThreadKey
	DiffContext diff.Context
	LineKind    diff.LineKind
	CurrentLine int // Zero-based gutter coordinate; UnanchoredLine when unmatched.
	IsStale     bool
	IsResolved  bool
	Comments    []Comment
}

// Side returns the diff pane this thread's annotation is drawn on.
func (t *Thread) Side() diff.Side {
	return diff.SideFor(t.LineKind)
}

// Root returns the thread's root comment. Threads are never built empty.
func (t *Thread) Root() Comment {
	return t.Comments[0]
}

// LineChange is one entry of the minimal redraw set emitted by
// reconciliation: a zero-based gutter line whose annotation changed, and the
// pane it lives on.
type LineChange struct {
	Line int
	Side diff.Side
}
