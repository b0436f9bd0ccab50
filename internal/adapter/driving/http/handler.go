// Package httphandler is the HTTP driving adapter serving the editor-facing
// JSON API.
package httphandler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/ericfisherdev/reviewanchor/internal/application"
	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
	"github.com/ericfisherdev/reviewanchor/internal/domain/port/driven"
)

// PRTracker is the slice of the sync service the handler needs: which pull
// request is currently tracked, and a way to trigger an out-of-cycle sync.
type PRTracker interface {
	CurrentPR() *model.PullRequest
	Refresh(ctx context.Context) error
}

// Handler is the HTTP driving adapter. The front-end talks to it over
// loopback: it registers open documents, reads thread snapshots, drains
// redraw sets, and posts replies.
type Handler struct {
	sessions *application.SessionManager
	store    driven.CommentStore
	gh       driven.GitHubClient
	tracker  PRTracker
	changes  *ChangeBuffer
	repo     string
	logger   *slog.Logger
}

// NewHandler creates a Handler. gh and tracker may be nil when the daemon
// runs without GitHub credentials; the endpoints needing them return 503.
func NewHandler(
	sessions *application.SessionManager,
	store driven.CommentStore,
	gh driven.GitHubClient,
	tracker PRTracker,
	changes *ChangeBuffer,
	repo string,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		sessions: sessions,
		store:    store,
		gh:       gh,
		tracker:  tracker,
		changes:  changes,
		repo:     repo,
		logger:   logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/health", h.Health)
	mux.HandleFunc("GET /api/v1/threads", h.ListThreads)
	mux.HandleFunc("GET /api/v1/changes", h.DrainChanges)
	mux.HandleFunc("POST /api/v1/document", h.UpdateDocument)
	mux.HandleFunc("DELETE /api/v1/document", h.CloseDocument)
	mux.HandleFunc("POST /api/v1/comment", h.CreateComment)
	mux.HandleFunc("POST /api/v1/reply", h.Reply)
	mux.HandleFunc("POST /api/v1/refresh", h.Refresh)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Health reports liveness and the currently tracked pull request number.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	}
	if h.tracker != nil {
		if pr := h.tracker.CurrentPR(); pr != nil {
			resp.PRNumber = pr.Number
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListThreads returns the thread snapshot for an open file, with current
// gutter coordinates and rendered comment bodies.
func (h *Handler) ListThreads(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}

	sess := h.sessions.Get(path)
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open document for path")
		return
	}

	threads := sess.Snapshot()
	resp := make([]ThreadResponse, 0, len(threads))
	for _, t := range threads {
		resp = append(resp, toThreadResponse(t))
	}

	writeJSON(w, http.StatusOK, resp)
}

// DrainChanges returns and clears the pending redraw set for a file. The
// front-end polls this after posting a document update.
func (h *Handler) DrainChanges(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}

	writeJSON(w, http.StatusOK, toChangesResponse(path, h.changes.Drain(path)))
}

// UpdateDocument registers a file's current diff. The first call for a path
// opens a session, seeds its threads from the comment cache, and reconciles
// immediately; later calls record the new diff and let the session's debounce
// coalesce them. Redraw sets arrive through the changes endpoint either way.
func (h *Handler) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	var req DocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "missing path")
		return
	}

	sess, existed := h.sessions.GetOrCreate(req.Path)
	if existed {
		sess.DocumentChanged(req.DiffText)
		writeJSON(w, http.StatusAccepted, statusResponse{Status: "accepted"})
		return
	}

	comments, err := h.cachedComments(r.Context(), req.Path)
	if err != nil {
		h.logger.Error("failed to load cached comments", "path", req.Path, "error", err)
		h.sessions.Remove(req.Path)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if _, err := sess.RebuildWithDiff(comments, req.DiffText); err != nil {
		h.sessions.Remove(req.Path)
		writeError(w, http.StatusBadRequest, "malformed diff text")
		return
	}

	writeJSON(w, http.StatusCreated, statusResponse{Status: "opened"})
}

// CloseDocument tears down the session for a file when the editor closes it.
func (h *Handler) CloseDocument(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}

	h.sessions.Remove(path)
	w.WriteHeader(http.StatusNoContent)
}

// CreateComment starts a new review thread on a line of the tracked pull
// request's head commit. The thread itself appears on the next sync; the
// response carries the saved root comment.
func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	if h.gh == nil || h.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "github client not configured")
		return
	}

	var req NewCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "missing path or body")
		return
	}
	if req.Line < 0 {
		writeError(w, http.StatusBadRequest, "line must not be negative")
		return
	}

	side := diff.Side(req.Side)
	if side != diff.SideLeft && side != diff.SideRight {
		writeError(w, http.StatusBadRequest, "side must be left or right")
		return
	}

	pr := h.tracker.CurrentPR()
	if pr == nil {
		writeError(w, http.StatusConflict, "no pull request tracked")
		return
	}

	// The editor speaks zero-based gutter lines; GitHub wants 1-based.
	saved, err := h.gh.CreateReviewComment(r.Context(), h.repo, pr.Number, req.Path, pr.HeadSHA, req.Line+1, side, req.Body)
	if err != nil {
		h.logger.Error("failed to create comment", "path", req.Path, "line", req.Line, "error", err)
		writeError(w, http.StatusBadGateway, "creating comment on github failed")
		return
	}

	if err := h.store.UpsertReviewComment(r.Context(), *saved); err != nil {
		h.logger.Error("failed to cache created comment", "comment_id", saved.ID, "error", err)
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(commentFromWire(*saved)))
}

// Reply posts a reply to a thread, addressed by its stable key. The saved
// comment is appended to the session and cached so the thread shows it before
// the next sync cycle refetches.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	if h.gh == nil || h.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "github client not configured")
		return
	}

	var req ReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" || req.Body == "" {
		writeError(w, http.StatusBadRequest, "missing path or body")
		return
	}

	sess := h.sessions.Get(req.Path)
	if sess == nil {
		writeError(w, http.StatusNotFound, "no open document for path")
		return
	}

	key := model.ThreadKey{
		OriginalCommitSHA: req.OriginalCommitSHA,
		OriginalPosition:  req.OriginalPosition,
	}

	root, ok := findRoot(sess.Snapshot(), key)
	if !ok {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}

	rootID, err := strconv.ParseInt(root.ID, 10, 64)
	if err != nil {
		// The root is itself a pending placeholder; GitHub has nothing to
		// reply to yet.
		writeError(w, http.StatusConflict, "thread root not yet saved")
		return
	}

	pr := h.tracker.CurrentPR()
	if pr == nil {
		writeError(w, http.StatusConflict, "no pull request tracked")
		return
	}

	saved, err := h.gh.ReplyToReviewComment(r.Context(), h.repo, pr.Number, rootID, req.Body)
	if err != nil {
		h.logger.Error("failed to post reply", "thread", key.String(), "error", err)
		writeError(w, http.StatusBadGateway, "posting reply to github failed")
		return
	}

	if err := h.store.UpsertReviewComment(r.Context(), *saved); err != nil {
		h.logger.Error("failed to cache posted reply", "comment_id", saved.ID, "error", err)
	}

	comment := commentFromWire(*saved)
	if !sess.AppendComment(key, comment) {
		h.logger.Warn("reply saved but thread vanished before append", "thread", key.String())
	}

	writeJSON(w, http.StatusCreated, toCommentResponse(comment))
}

// Refresh triggers an out-of-cycle sync against GitHub and waits for it.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	if h.tracker == nil {
		writeError(w, http.StatusServiceUnavailable, "github client not configured")
		return
	}

	if err := h.tracker.Refresh(r.Context()); err != nil {
		h.logger.Error("manual refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{Status: "refreshed"})
}

// cachedComments loads the stored wire comments for a path, scoped to the
// tracked pull request. Without a tracked PR there is nothing to anchor.
func (h *Handler) cachedComments(ctx context.Context, path string) ([]model.ReviewComment, error) {
	if h.tracker == nil {
		return nil, nil
	}
	pr := h.tracker.CurrentPR()
	if pr == nil {
		return nil, nil
	}
	return h.store.GetReviewCommentsByPath(ctx, pr.Number, path)
}

// findRoot locates the root comment of the thread with the given key.
func findRoot(threads []*model.Thread, key model.ThreadKey) (model.Comment, bool) {
	for _, t := range threads {
		if t.Key == key {
			return t.Root(), true
		}
	}
	return model.Comment{}, false
}

// commentFromWire converts a saved wire record into a thread comment.
func commentFromWire(c model.ReviewComment) model.Comment {
	var inReplyTo string
	if c.InReplyToID != nil {
		inReplyTo = strconv.FormatInt(*c.InReplyToID, 10)
	}

	return model.Comment{
		ID:          strconv.FormatInt(c.ID, 10),
		Author:      c.Author,
		Body:        c.Body,
		InReplyToID: inReplyTo,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}
