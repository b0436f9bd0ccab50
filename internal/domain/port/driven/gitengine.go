package driven

import "context"

// GitEngine defines the driven port for local git plumbing. The core never
// generates diffs itself; this engine produces the unified-diff text the
// parser consumes.
type GitEngine interface {
	// CurrentBranch returns the short name of the checked-out branch.
	CurrentBranch(ctx context.Context) (string, error)

	// HeadSHA returns the commit SHA the worktree is checked out at.
	HeadSHA(ctx context.Context) (string, error)

	// MergeBase returns the best common ancestor of the two commits.
	MergeBase(ctx context.Context, baseSHA, headSHA string) (string, error)

	// DiffFile returns unified-diff text for a single file between two
	// commits. An empty string means the file is unchanged between them.
	DiffFile(ctx context.Context, fromSHA, toSHA, path string) (string, error)
}
