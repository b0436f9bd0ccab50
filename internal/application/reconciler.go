package application

import (
	"github.com/ericfisherdev/reviewanchor/internal/domain/diff"
	"github.com/ericfisherdev/reviewanchor/internal/domain/model"
)

// Reconcile recomputes every thread's gutter line against a freshly parsed
// diff and returns the minimal set of (line, side) coordinates whose
// annotation changed. Callers redraw only those glyphs instead of the whole
// file, which matters because reconciliation re-runs on a debounce after
// every document edit.
//
// Per thread: the fingerprint is re-matched; a Delete-anchored thread maps to
// the matched line's old-side number minus one (zero-based, left pane),
// anything else to the new-side number minus one (right pane); no match maps
// to UnanchoredLine. Staleness is re-evaluated fresh on every pass, so a
// previously stale thread is always cleared and reported. A thread whose
// line did not move and was not stale contributes nothing.
func Reconcile(threads []*model.Thread, chunks []diff.Chunk) []model.LineChange {
	changes := []model.LineChange{}

	for _, thread := range threads {
		oldLine := thread.CurrentLine

		newLine := model.UnanchoredLine
		if line, ok := diff.Match(chunks, thread.DiffContext); ok {
			if thread.LineKind == diff.LineKindDelete {
				newLine = line.OldLine - 1
			} else {
				newLine = line.NewLine - 1
			}
		}

		changed := false
		if thread.IsStale {
			thread.IsStale = false
			changed = true
		}
		if newLine != oldLine {
			thread.CurrentLine = newLine
			thread.IsStale = false
			changed = true
		}

		if !changed {
			continue
		}

		side := thread.Side()
		if oldLine != model.UnanchoredLine {
			changes = append(changes, model.LineChange{Line: oldLine, Side: side})
		}
		if newLine != model.UnanchoredLine && newLine != oldLine {
			changes = append(changes, model.LineChange{Line: newLine, Side: side})
		}
	}

	return changes
}
