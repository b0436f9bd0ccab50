package diff

// Match locates the line in chunks whose trailing window of (kind, content)
// pairs exactly equals the target fingerprint. The window length is
// min(len(target), ContextWindow), taken from the most recent end of the
// fingerprint. Matching is exact on content (whitespace-sensitive); windows
// never span chunk boundaries.
//
// When duplicated code produces several identical windows, the first
// occurrence in file order wins. That is deterministic and stable but can
// anchor a comment to the wrong instance of a repeated block; callers live
// with this rather than guessing.
//
// An empty fingerprint or the absence of any matching window returns false.
func Match(chunks []Chunk, target Context) (Line, bool) {
	if len(target) == 0 {
		return Line{}, false
	}

	window := target
	if len(window) > ContextWindow {
		window = window[len(window)-ContextWindow:]
	}
	k := len(window)

	for _, chunk := range chunks {
		for i := k - 1; i < len(chunk.Lines); i++ {
			if windowMatches(chunk.Lines, i, window) {
				return chunk.Lines[i], true
			}
		}
	}

	return Line{}, false
}

// windowMatches reports whether the k lines ending at index end equal the
// fingerprint window, comparing kind and content of each line.
func windowMatches(lines []Line, end int, window Context) bool {
	start := end - len(window) + 1
	for j, want := range window {
		got := lines[start+j]
		if got.Kind != want.Kind || got.Content != want.Content {
			return false
		}
	}
	return true
}

// ContextFromHunk builds an anchor fingerprint from a stored diff hunk, as
// delivered by the GitHub API on a review comment. GitHub truncates the hunk
// at the commented line, so the anchor is the hunk's last line and the
// fingerprint is its trailing window.
func ContextFromHunk(hunk string) (Context, error) {
	chunks, err := Parse(hunk)
	if err != nil {
		return nil, err
	}

	var flat []Line
	for _, chunk := range chunks {
		flat = append(flat, chunk.Lines...)
	}
	if len(flat) > ContextWindow {
		flat = flat[len(flat)-ContextWindow:]
	}

	ctx := make(Context, 0, len(flat))
	for _, line := range flat {
		ctx = append(ctx, ContextLine{Kind: line.Kind, Content: line.Content})
	}

	return ctx, nil
}
