package application

import (
	"log/slog"
	"sync"
	"time"

	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// ChangeSink receives the redraw set produced by a reconciliation pass.
// The HTTP layer buffers these per file until the front-end drains them.
type ChangeSink interface {
	Publish(path string, changes []model.LineChange)
}

// Session owns the comment-thread state for one open file. All mutation goes
// through its mutex: thread rebuilds (on pull-request refetch) and diff
// recomputations (on document edit) serialize against each other, so a
// rebuild can never be observed half-applied by a concurrent read.
//
// Document edits are coalesced: DocumentChanged stores the latest diff text
// and (re)arms a timer, so a burst of keystrokes triggers one reconciliation
// after the debounce delay rather than one per edit.
type Session struct {
	path     string
	debounce time.Duration
	sink     ChangeSink
	logger   *slog.Logger

	mu          sync.Mutex
	threads     []*model.Thread
	chunks      []diff.Chunk
	pendingDiff string
	timer       *time.Timer
}

// NewSession creates a session for one file path. The sink may be nil when
// the caller only reads snapshots.
func NewSession(path string, debounce time.Duration, sink ChangeSink, logger *slog.Logger) *Session {
	return &Session{
		path:     path,
		debounce: debounce,
		sink:     sink,
		logger:   logger,
	}
}

// Path returns the file this session anchors threads for.
func (s *Session) Path() string {
	return s.path
}

// Rebuild replaces the session's thread set wholesale from freshly fetched
// wire comments and reconciles it against the session's current diff. The
// previous thread set is discarded; thread identity across rebuilds is the
// (commit, position) key, not object identity.
func (s *Session) Rebuild(comments []model.ReviewComment) []model.LineChange {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.threads = FilterThreadsForFile(comments, s.path, s.logger)
	changes := Reconcile(s.threads, s.chunks)
	s.publish(changes)
	return changes
}

// RebuildWithDiff replaces both the thread set and the diff in one locked
// step, so a refetch lands atomically with the diff it was fetched against.
func (s *Session) RebuildWithDiff(comments []model.ReviewComment, diffText string) ([]model.LineChange, error) {
	chunks, err := diff.Parse(diffText)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = chunks
	s.threads = FilterThreadsForFile(comments, s.path, s.logger)
	changes := Reconcile(s.threads, s.chunks)
	s.publish(changes)
	return changes, nil
}

// DocumentChanged records new diff text for the file and schedules a
// debounced reconciliation. Successive calls within the debounce window
// collapse into a single pass over the most recent text.
func (s *Session) DocumentChanged(diffText string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pendingDiff = diffText

	// The file diverged from what the threads were matched against; dim the
	// anchored glyphs until the pending pass re-evaluates them.
	for _, t := range s.threads {
		if t.CurrentLine != model.UnanchoredLine {
			t.IsStale = true
		}
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flushPending)
}

// ReconcileNow applies diff text immediately, bypassing the debounce. Used
// for the initial diff when a session opens and by tests.
func (s *Session) ReconcileNow(diffText string) ([]model.LineChange, error) {
	chunks, err := diff.Parse(diffText)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.chunks = chunks
	changes := Reconcile(s.threads, s.chunks)
	s.publish(changes)
	return changes, nil
}

// flushPending runs on the debounce timer. Parse failures keep the previous
// chunk state: the diff text is deterministic, so retrying would not help,
// and the stale flags set at edit time remain visible.
func (s *Session) flushPending() {
	s.mu.Lock()
	defer s.mu.Unlock()

	chunks, err := diff.Parse(s.pendingDiff)
	if err != nil {
		s.logger.Error("diff parse failed, keeping previous anchor state",
			"path", s.path,
			"error", err,
		)
		return
	}

	s.chunks = chunks
	s.publish(Reconcile(s.threads, s.chunks))
}

// AppendComment attaches a comment the next refetch has not seen yet to the
// thread with the given key, so the conversation shows it immediately.
// Returns false when no such thread exists.
func (s *Session) AppendComment(key model.ThreadKey, comment model.Comment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range s.threads {
		if t.Key == key {
			comment.ThreadKey = key
			t.Comments = append(t.Comments, comment)
			return true
		}
	}
	return false
}

// Snapshot returns deep copies of the session's threads, safe to read while
// rebuilds and reconciliations continue.
func (s *Session) Snapshot() []*model.Thread {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*model.Thread, 0, len(s.threads))
	for _, t := range s.threads {
		copied := *t
		copied.Comments = append([]model.Comment(nil), t.Comments...)
		copied.DiffContext = append(diff.Context(nil), t.DiffContext...)
		out = append(out, &copied)
	}
	return out
}

// Close stops any pending debounce timer.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// publish forwards a non-empty change set to the sink. Callers hold s.mu;
// sinks must not call back into the session.
func (s *Session) publish(changes []model.LineChange) {
	if s.sink != nil && len(changes) > 0 {
		s.sink.Publish(s.path, changes)
	}
}
