// Package diff parses unified-diff text into per-line records and re-locates
// comment anchors inside freshly computed diffs by content fingerprinting.
package diff

// LineKind classifies a single line within a unified-diff hunk.
type LineKind string

const (
	LineKindAdd     LineKind = "add"
	LineKindDelete  LineKind = "delete"
	LineKindContext LineKind = "context"
)

// Side identifies the diff pane a gutter annotation belongs to.
type Side string

const (
	SideLeft  Side = "left"  // Old/base pane; carries deleted lines.
	SideRight Side = "right" // New/head pane; carries added and context lines.
)

// ContextWindow is the maximum number of trailing lines compared when
// re-anchoring a comment. Windows longer than this are truncated to the most
// recent lines before matching.
const ContextWindow = 5

// Line is one record of a parsed hunk. OldLine and NewLine are 1-based;
// a zero value means the line does not exist on that side (added lines have
// no OldLine, deleted lines have no NewLine, context lines have both).
type Line struct {
	OldLine int
	NewLine int
	Kind    LineKind
	Content string
}

// Chunk is one contiguous hunk of a unified diff, in source order.
type Chunk struct {
	OldStart int
	OldCount int
	NewStart int
	NewCount int
	Lines    []Line
}

// ContextLine is one entry of an anchor fingerprint: the kind and content of
// a line, independent of absolute line numbers.
type ContextLine struct {
	Kind    LineKind
	Content string
}

// Context is an ordered fingerprint of up to ContextWindow trailing lines
// ending at a comment's anchor line. It survives insertions and deletions
// elsewhere in the file because it carries no line numbers.
type Context []ContextLine

// AnchorKind returns the kind of the anchor line (the last entry), or
// LineKindContext for an empty fingerprint.
func (c Context) AnchorKind() LineKind {
	if len(c) == 0 {
		return LineKindContext
	}
	return c[len(c)-1].Kind
}

// SideFor maps an anchor kind to the pane its annotation is drawn on.
// Deleted lines exist only in the old pane; everything else renders right.
func SideFor(kind LineKind) Side {
	if kind == LineKindDelete {
		return SideLeft
	}
	return SideRight
}
