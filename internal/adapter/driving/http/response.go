package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// statusResponse is the body of endpoints that only acknowledge an action.
type statusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Time     string `json:"time"`
	PRNumber int    `json:"pr_number"` // 0 when no pull request is tracked.
}

// ThreadResponse is the JSON representation of one anchored review thread.
// Line is the zero-based gutter coordinate, -1 when the thread could not be
// located in the current diff.
type ThreadResponse struct {
	Path              string                `json:"path"`
	OriginalCommitSHA string                `json:"original_commit_sha"`
	OriginalPosition  int                   `json:"original_position"`
	Line              int                   `json:"line"`
	Side              string                `json:"side"`
	IsAnchored        bool                  `json:"is_anchored"`
	IsStale           bool                  `json:"is_stale"`
	IsResolved        bool                  `json:"is_resolved"`
	Context           []ContextLineResponse `json:"context"`
	ContextHTML       string                `json:"context_html"`
	Comments          []CommentResponse     `json:"comments"`
}

// ContextLineResponse is one line of a thread's anchor fingerprint.
type ContextLineResponse struct {
	Kind    string `json:"kind"`
	Content string `json:"content"`
}

// CommentResponse is the JSON representation of one comment in a thread.
// BodyHTML is the sanitized rendering of the markdown body.
type CommentResponse struct {
	ID          string `json:"id"`
	Author      string `json:"author"`
	Body        string `json:"body"`
	BodyHTML    string `json:"body_html"`
	InReplyToID string `json:"in_reply_to_id,omitempty"`
	IsPending   bool   `json:"is_pending"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// LineChangeResponse is one entry of a drained redraw set.
type LineChangeResponse struct {
	Line int    `json:"line"`
	Side string `json:"side"`
}

// ChangesResponse is the body of the changes endpoint: the gutter coordinates
// whose annotations changed since the last drain.
type ChangesResponse struct {
	Path    string               `json:"path"`
	Changes []LineChangeResponse `json:"changes"`
}

// DocumentRequest is the JSON body for the document endpoint. DiffText is the
// unified diff of the merge base against the editor's live buffer; empty means
// the file matches the base.
type DocumentRequest struct {
	Path     string `json:"path"`
	DiffText string `json:"diff_text"`
}

// NewCommentRequest is the JSON body for the comment endpoint, starting a new
// thread on a line. Line is the zero-based gutter coordinate the editor
// shows; Side is "left" or "right".
type NewCommentRequest struct {
	Path string `json:"path"`
	Line int    `json:"line"`
	Side string `json:"side"`
	Body string `json:"body"`
}

// ReplyRequest is the JSON body for the reply endpoint. The thread is
// addressed by its stable key, not by gutter line, so a reply posted against a
// re-anchored thread still lands on the right conversation.
type ReplyRequest struct {
	Path              string `json:"path"`
	OriginalCommitSHA string `json:"original_commit_sha"`
	OriginalPosition  int    `json:"original_position"`
	Body              string `json:"body"`
}

// toThreadResponse converts a domain Thread to its JSON representation.
func toThreadResponse(t *model.Thread) ThreadResponse {
	ctx := make([]ContextLineResponse, 0, len(t.DiffContext))
	for _, line := range t.DiffContext {
		ctx = append(ctx, ContextLineResponse{
			Kind:    string(line.Kind),
			Content: line.Content,
		})
	}

	comments := make([]CommentResponse, 0, len(t.Comments))
	for _, c := range t.Comments {
		comments = append(comments, toCommentResponse(c))
	}

	return ThreadResponse{
		Path:              t.Path,
		OriginalCommitSHA: t.Key.OriginalCommitSHA,
		OriginalPosition:  t.Key.OriginalPosition,
		Line:              t.CurrentLine,
		Side:              string(t.Side()),
		IsAnchored:        t.CurrentLine != model.UnanchoredLine,
		IsStale:           t.IsStale,
		IsResolved:        t.IsResolved,
		Context:           ctx,
		ContextHTML:       renderContextHTML(t.DiffContext),
		Comments:          comments,
	}
}

// toCommentResponse converts a domain Comment to its JSON representation.
func toCommentResponse(c model.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		Author:      c.Author,
		Body:        c.Body,
		BodyHTML:    renderMarkdown(c.Body),
		InReplyToID: c.InReplyToID,
		IsPending:   c.IsPlaceholder(),
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// toChangesResponse converts a drained redraw set to its JSON representation.
func toChangesResponse(path string, changes []model.LineChange) ChangesResponse {
	out := make([]LineChangeResponse, 0, len(changes))
	for _, c := range changes {
		out = append(out, LineChangeResponse{Line: c.Line, Side: string(c.Side)})
	}
	return ChangesResponse{Path: path, Changes: out}
}
