// Package git implements the GitEngine port using the go-git library.
package git

import (
	"context"
	"fmt"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/ericfisherdev/reviewanchor/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.GitEngine = (*Engine)(nil)

// Engine implements the driven.GitEngine port against a local repository.
// It only reads: branch resolution, merge-base walks, and tree diffs. All
// mutation (fetch, checkout, push) stays outside the daemon.
type Engine struct {
	repo *gogit.Repository
}

// NewEngine opens the repository containing workdir, walking up to find the
// .git directory the way the git CLI does.
func NewEngine(workdir string) (*Engine, error) {
	repo, err := gogit.PlainOpenWithOptions(workdir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", workdir, err)
	}
	return &Engine{repo: repo}, nil
}

// NewEngineWithRepository wraps an already open repository. This constructor
// is intended for testing with in-memory repositories.
func NewEngineWithRepository(repo *gogit.Repository) *Engine {
	return &Engine{repo: repo}
}

// CurrentBranch returns the short name of the checked-out branch. A detached
// HEAD has no branch and is an error; the daemon cannot map it to a PR.
func (e *Engine) CurrentBranch(_ context.Context) (string, error) {
	head, err := e.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s, not on a branch", head.Hash())
	}
	return head.Name().Short(), nil
}

// HeadSHA returns the commit SHA the worktree is checked out at.
func (e *Engine) HeadSHA(_ context.Context) (string, error) {
	head, err := e.repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	return head.Hash().String(), nil
}

// MergeBase returns the best common ancestor of the two commits.
func (e *Engine) MergeBase(_ context.Context, baseSHA, headSHA string) (string, error) {
	base, err := e.commit(baseSHA)
	if err != nil {
		return "", err
	}
	head, err := e.commit(headSHA)
	if err != nil {
		return "", err
	}

	ancestors, err := base.MergeBase(head)
	if err != nil {
		return "", fmt.Errorf("computing merge base of %s and %s: %w", baseSHA, headSHA, err)
	}
	if len(ancestors) == 0 {
		return "", fmt.Errorf("no common ancestor of %s and %s", baseSHA, headSHA)
	}

	// Criss-cross merges can yield several candidates; any is valid, take the first.
	return ancestors[0].Hash.String(), nil
}

// DiffFile returns unified-diff text for a single file between two commits.
// An empty string means the file did not change between them.
func (e *Engine) DiffFile(ctx context.Context, fromSHA, toSHA, path string) (string, error) {
	fromTree, err := e.tree(fromSHA)
	if err != nil {
		return "", err
	}
	toTree, err := e.tree(toSHA)
	if err != nil {
		return "", err
	}

	changes, err := object.DiffTreeWithOptions(ctx, fromTree, toTree, object.DefaultDiffTreeOptions)
	if err != nil {
		return "", fmt.Errorf("diffing trees %s..%s: %w", fromSHA, toSHA, err)
	}

	for _, change := range changes {
		if change.From.Name != path && change.To.Name != path {
			continue
		}

		patch, err := change.PatchContext(ctx)
		if err != nil {
			return "", fmt.Errorf("rendering patch for %s: %w", path, err)
		}
		return patch.String(), nil
	}

	return "", nil
}

func (e *Engine) commit(sha string) (*object.Commit, error) {
	commit, err := e.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return nil, fmt.Errorf("loading commit %s: %w", sha, err)
	}
	return commit, nil
}

func (e *Engine) tree(sha string) (*object.Tree, error) {
	commit, err := e.commit(sha)
	if err != nil {
		return nil, err
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("loading tree of %s: %w", sha, err)
	}
	return tree, nil
}
