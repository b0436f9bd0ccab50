package diff

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// hunkHeaderPattern matches a unified-diff hunk header such as
// "@@ -10,3 +10,4 @@" or the short form "@@ -1 +1 @@". Trailing section
// headings after the closing @@ are permitted and ignored.
var hunkHeaderPattern = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@`)

// MalformedDiffError reports a hunk header that could not be parsed.
// The diff text is a deterministic function of its inputs, so callers should
// surface the error rather than retry.
type MalformedDiffError struct {
	LineNumber int    // 1-based line within the diff text.
	Header     string // The offending header line.
}

func (e *MalformedDiffError) Error() string {
	return fmt.Sprintf("malformed hunk header at line %d: %q", e.LineNumber, e.Header)
}

// Parse converts unified-diff text into an ordered sequence of chunks with
// per-line old/new numbering. Empty input yields an empty slice. File headers
// ("diff --git", "---", "+++", "index") are skipped; "\ No newline at end of
// file" markers are tolerated. A hunk header that does not parse returns a
// *MalformedDiffError and no partial result.
func Parse(diffText string) ([]Chunk, error) {
	if strings.TrimSpace(diffText) == "" {
		return []Chunk{}, nil
	}

	chunks := []Chunk{}
	var current *Chunk
	oldLine, newLine := 0, 0

	lines := strings.Split(diffText, "\n")
	for i, raw := range lines {
		line := strings.TrimSuffix(raw, "\r")

		if strings.HasPrefix(line, "@@") {
			m := hunkHeaderPattern.FindStringSubmatch(line)
			if m == nil {
				return nil, &MalformedDiffError{LineNumber: i + 1, Header: line}
			}

			chunk := Chunk{
				OldStart: mustAtoi(m[1]),
				OldCount: atoiDefault(m[2], 1),
				NewStart: mustAtoi(m[3]),
				NewCount: atoiDefault(m[4], 1),
			}
			chunks = append(chunks, chunk)
			current = &chunks[len(chunks)-1]
			oldLine = current.OldStart
			newLine = current.NewStart
			continue
		}

		if strings.HasPrefix(line, "diff ") {
			// A new file section; its ---/+++ headers must not be read as
			// content lines of the previous hunk.
			current = nil
			continue
		}

		if current == nil {
			// File headers and any other preamble before the first hunk.
			continue
		}

		switch {
		case strings.HasPrefix(line, "+"):
			current.Lines = append(current.Lines, Line{
				NewLine: newLine,
				Kind:    LineKindAdd,
				Content: line[1:],
			})
			newLine++
		case strings.HasPrefix(line, "-"):
			current.Lines = append(current.Lines, Line{
				OldLine: oldLine,
				Kind:    LineKindDelete,
				Content: line[1:],
			})
			oldLine++
		case strings.HasPrefix(line, `\`):
			// "\ No newline at end of file" -- not a content line.
		case line == "" && i == len(lines)-1:
			// Trailing newline in the diff text itself.
		default:
			content := line
			if strings.HasPrefix(line, " ") {
				content = line[1:]
			}
			current.Lines = append(current.Lines, Line{
				OldLine: oldLine,
				NewLine: newLine,
				Kind:    LineKindContext,
				Content: content,
			})
			oldLine++
			newLine++
		}
	}

	return chunks, nil
}

// mustAtoi converts a regexp-validated digit string; the pattern guarantees
// it parses.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// atoiDefault returns def when the optional count group was absent.
func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
