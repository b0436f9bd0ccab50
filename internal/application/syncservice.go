package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
	"github.com/ericfisherdev/reviewanchor/internal/domain/port/driven"
)

// refreshRequest represents a manual refresh trigger.
type refreshRequest struct {
	done chan error
}

// SyncService orchestrates periodic GitHub polling for the tracked
// repository: it discovers the pull request for the checked-out branch,
// fetches its review comments and thread resolution, persists them, and
// rebuilds every open session against a fresh merge-base diff.
type SyncService struct {
	ghClient     driven.GitHubClient
	store        driven.CommentStore
	git          driven.GitEngine
	sessions     *SessionManager
	mergeBases   *MergeBaseCache
	repoFullName string
	interval     time.Duration
	refreshCh    chan refreshRequest

	mu        sync.RWMutex
	currentPR *model.PullRequest
}

// NewSyncService creates a SyncService with all required dependencies.
func NewSyncService(
	ghClient driven.GitHubClient,
	store driven.CommentStore,
	git driven.GitEngine,
	sessions *SessionManager,
	repoFullName string,
	interval time.Duration,
) *SyncService {
	return &SyncService{
		ghClient:     ghClient,
		store:        store,
		git:          git,
		sessions:     sessions,
		mergeBases:   NewMergeBaseCache(),
		repoFullName: repoFullName,
		interval:     interval,
		refreshCh:    make(chan refreshRequest),
	}
}

// Start begins the sync loop. It runs an immediate sync, then syncs on the
// configured interval, and serves manual refresh requests in between. Start
// blocks until the context is canceled.
func (s *SyncService) Start(ctx context.Context) {
	if err := s.syncOnce(ctx); err != nil {
		slog.Error("initial sync failed", "error", err)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sync service stopped")
			return
		case <-ticker.C:
			if err := s.syncOnce(ctx); err != nil {
				slog.Error("sync cycle failed", "error", err)
			}
		case req := <-s.refreshCh:
			req.done <- s.syncOnce(ctx)
		}
	}
}

// Refresh triggers a sync immediately, bypassing the polling interval. It
// blocks until the sync completes or the context is canceled.
func (s *SyncService) Refresh(ctx context.Context) error {
	done := make(chan error, 1)

	select {
	case s.refreshCh <- refreshRequest{done: done}:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentPR returns the pull request tracked by the most recent sync, or nil
// when no PR exists for the checked-out branch.
func (s *SyncService) CurrentPR() *model.PullRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentPR
}

// syncOnce performs one full sync cycle.
func (s *SyncService) syncOnce(ctx context.Context) error {
	start := time.Now()

	branch, err := s.git.CurrentBranch(ctx)
	if err != nil {
		return fmt.Errorf("resolving current branch: %w", err)
	}

	pr, err := s.ghClient.FindPullRequest(ctx, s.repoFullName, branch)
	if err != nil {
		return fmt.Errorf("finding pull request for branch %q: %w", branch, err)
	}
	if pr == nil {
		slog.Info("no open pull request for branch", "branch", branch)
		s.setCurrentPR(nil)
		return nil
	}

	s.handlePRSwitch(ctx, pr)

	comments, err := s.ghClient.FetchReviewComments(ctx, s.repoFullName, pr.Number)
	if err != nil {
		return fmt.Errorf("fetching review comments for #%d: %w", pr.Number, err)
	}

	// Resolution data is supplementary; a failed GraphQL call leaves all
	// threads unresolved rather than failing the sync.
	resolution, err := s.ghClient.FetchThreadResolution(ctx, s.repoFullName, pr.Number)
	if err != nil {
		slog.Warn("thread resolution fetch failed", "pr_number", pr.Number, "error", err)
		resolution = map[int64]bool{}
	}

	for i := range comments {
		comments[i].PRNumber = pr.Number
		if resolved, ok := resolution[comments[i].ID]; ok {
			comments[i].IsResolved = resolved
		}
	}

	for _, c := range comments {
		if err := s.store.UpsertReviewComment(ctx, c); err != nil {
			return fmt.Errorf("persisting comment %d: %w", c.ID, err)
		}
	}

	if err := s.rebuildSessions(ctx, pr, comments); err != nil {
		return err
	}

	slog.Info("sync complete",
		"pr_number", pr.Number,
		"branch", branch,
		"comments", len(comments),
		"sessions", len(s.sessions.All()),
		"duration", time.Since(start).Round(time.Millisecond),
	)

	return nil
}

// rebuildSessions recomputes each open session's diff against the PR's merge
// base and replaces its thread set atomically.
func (s *SyncService) rebuildSessions(ctx context.Context, pr *model.PullRequest, comments []model.ReviewComment) error {
	headSHA, err := s.git.HeadSHA(ctx)
	if err != nil {
		return fmt.Errorf("resolving head: %w", err)
	}

	mergeBase, err := s.mergeBases.GetOrCompute(ctx, pr.BaseSHA, headSHA, s.git.MergeBase)
	if err != nil {
		return fmt.Errorf("computing merge base of %s and %s: %w", pr.BaseSHA, headSHA, err)
	}

	for _, session := range s.sessions.All() {
		diffText, err := s.git.DiffFile(ctx, mergeBase, headSHA, session.Path())
		if err != nil {
			slog.Error("diffing file failed, session not rebuilt",
				"path", session.Path(),
				"error", err,
			)
			continue
		}

		if _, err := session.RebuildWithDiff(comments, diffText); err != nil {
			slog.Error("session rebuild failed",
				"path", session.Path(),
				"error", err,
			)
		}
	}

	return nil
}

// handlePRSwitch clears the cached comments of a previously tracked PR when
// the branch now maps to a different one.
func (s *SyncService) handlePRSwitch(ctx context.Context, pr *model.PullRequest) {
	s.mu.Lock()
	previous := s.currentPR
	s.currentPR = pr
	s.mu.Unlock()

	if previous != nil && previous.Number != pr.Number {
		if err := s.store.DeleteReviewCommentsByPR(ctx, previous.Number); err != nil {
			slog.Warn("clearing stale comment cache failed",
				"pr_number", previous.Number,
				"error", err,
			)
		}
	}
}

func (s *SyncService) setCurrentPR(pr *model.PullRequest) {
	s.mu.Lock()
	s.currentPR = pr
	s.mu.Unlock()
}
