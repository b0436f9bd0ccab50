package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, text string) []Chunk {
	t.Helper()
	chunks, err := Parse(text)
	require.NoError(t, err)
	return chunks
}

func TestMatch_ExactWindow(t *testing.T) {
	chunks := mustParse(t, "@@ -1,4 +1,5 @@\n one\n two\n+inserted\n three\n four")

	target := Context{
		{Kind: LineKindContext, Content: "two"},
		{Kind: LineKindAdd, Content: "inserted"},
	}

	line, ok := Match(chunks, target)

	require.True(t, ok)
	assert.Equal(t, LineKindAdd, line.Kind)
	assert.Equal(t, 3, line.NewLine)
	assert.Zero(t, line.OldLine)
}

func TestMatch_SurvivesLineNumberShift(t *testing.T) {
	// Same content as above but the hunk starts 40 lines later; the
	// fingerprint carries no line numbers so it still anchors.
	chunks := mustParse(t, "@@ -41,4 +43,5 @@\n one\n two\n+inserted\n three\n four")

	target := Context{
		{Kind: LineKindContext, Content: "two"},
		{Kind: LineKindAdd, Content: "inserted"},
	}

	line, ok := Match(chunks, target)

	require.True(t, ok)
	assert.Equal(t, 45, line.NewLine)
}

func TestMatch_KindMismatchIsNotAMatch(t *testing.T) {
	// Content equal but the anchor flipped from added to context.
	chunks := mustParse(t, "@@ -1,3 +1,3 @@\n one\n two\n inserted")

	target := Context{
		{Kind: LineKindContext, Content: "two"},
		{Kind: LineKindAdd, Content: "inserted"},
	}

	_, ok := Match(chunks, target)

	assert.False(t, ok)
}

func TestMatch_WhitespaceSensitive(t *testing.T) {
	chunks := mustParse(t, "@@ -1,2 +1,2 @@\n a\n+\tindented")

	target := Context{
		{Kind: LineKindContext, Content: "a"},
		{Kind: LineKindAdd, Content: "    indented"},
	}

	_, ok := Match(chunks, target)

	assert.False(t, ok)
}

func TestMatch_FirstOccurrenceWinsOnDuplicates(t *testing.T) {
	// Two identical windows; the earlier one in file order is chosen.
	chunks := mustParse(t, "@@ -1,6 +1,6 @@\n guard\n+dup\n mid\n guard\n+dup\n tail")

	target := Context{
		{Kind: LineKindContext, Content: "guard"},
		{Kind: LineKindAdd, Content: "dup"},
	}

	line, ok := Match(chunks, target)

	require.True(t, ok)
	assert.Equal(t, 2, line.NewLine)
}

func TestMatch_WindowTruncatedToFiveLines(t *testing.T) {
	chunks := mustParse(t, "@@ -1,6 +1,6 @@\n a\n b\n c\n d\n e\n f")

	// Seven-line fingerprint whose oldest two entries are wrong; only the
	// trailing five participate, so it still matches line "f".
	target := Context{
		{Kind: LineKindContext, Content: "WRONG"},
		{Kind: LineKindContext, Content: "ALSO WRONG"},
		{Kind: LineKindContext, Content: "b"},
		{Kind: LineKindContext, Content: "c"},
		{Kind: LineKindContext, Content: "d"},
		{Kind: LineKindContext, Content: "e"},
		{Kind: LineKindContext, Content: "f"},
	}

	line, ok := Match(chunks, target)

	require.True(t, ok)
	assert.Equal(t, 6, line.NewLine)
}

func TestMatch_WindowDoesNotSpanChunks(t *testing.T) {
	chunks := mustParse(t, "@@ -1,1 +1,1 @@\n alpha\n@@ -10,1 +10,1 @@\n beta")

	target := Context{
		{Kind: LineKindContext, Content: "alpha"},
		{Kind: LineKindContext, Content: "beta"},
	}

	_, ok := Match(chunks, target)

	assert.False(t, ok)
}

func TestMatch_DeletedAnchor(t *testing.T) {
	chunks := mustParse(t, "@@ -4,3 +4,2 @@\n keep\n-removed\n after")

	target := Context{
		{Kind: LineKindContext, Content: "keep"},
		{Kind: LineKindDelete, Content: "removed"},
	}

	line, ok := Match(chunks, target)

	require.True(t, ok)
	assert.Equal(t, 5, line.OldLine)
	assert.Zero(t, line.NewLine)
}

func TestMatch_EmptyContext(t *testing.T) {
	chunks := mustParse(t, "@@ -1,1 +1,1 @@\n a")

	_, ok := Match(chunks, nil)

	assert.False(t, ok)
}

func TestMatch_NoChunks(t *testing.T) {
	_, ok := Match(nil, Context{{Kind: LineKindContext, Content: "a"}})

	assert.False(t, ok)
}

func TestContextFromHunk(t *testing.T) {
	hunk := "@@ -10,3 +10,4 @@\n a\n+b\n c\n d"

	ctx, err := ContextFromHunk(hunk)

	require.NoError(t, err)
	want := Context{
		{Kind: LineKindContext, Content: "a"},
		{Kind: LineKindAdd, Content: "b"},
		{Kind: LineKindContext, Content: "c"},
		{Kind: LineKindContext, Content: "d"},
	}
	assert.Equal(t, want, ctx)
	assert.Equal(t, LineKindContext, ctx.AnchorKind())
}

func TestContextFromHunk_TruncatesToWindow(t *testing.T) {
	hunk := "@@ -1,7 +1,7 @@\n a\n b\n c\n d\n e\n f\n g"

	ctx, err := ContextFromHunk(hunk)

	require.NoError(t, err)
	require.Len(t, ctx, ContextWindow)
	assert.Equal(t, "c", ctx[0].Content)
	assert.Equal(t, "g", ctx[len(ctx)-1].Content)
}

func TestContextFromHunk_Malformed(t *testing.T) {
	_, err := ContextFromHunk("@@ bogus @@\n x")

	assert.Error(t, err)
}

func TestSideFor(t *testing.T) {
	assert.Equal(t, SideLeft, SideFor(LineKindDelete))
	assert.Equal(t, SideRight, SideFor(LineKindAdd))
	assert.Equal(t, SideRight, SideFor(LineKindContext))
}
