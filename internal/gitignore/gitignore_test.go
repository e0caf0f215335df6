package gitignore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleset_Ignored_Basename(t *testing.T) {
	rs := New()
	rs.Add("draft.md", "")

	assert.True(t, rs.Ignored("draft.md", false))
	assert.True(t, rs.Ignored("notes/draft.md", false))
	assert.False(t, rs.Ignored("drafting.md", false))
}

func TestRuleset_Ignored_Wildcards(t *testing.T) {
	rs := New()
	rs.Add("*.tmp", "")
	rs.Add("backup-?.md", "")

	assert.True(t, rs.Ignored("scratch.tmp", false))
	assert.True(t, rs.Ignored("deep/nested/scratch.tmp", false))
	assert.False(t, rs.Ignored("scratch.tmpx", false))

	assert.True(t, rs.Ignored("backup-1.md", false))
	assert.False(t, rs.Ignored("backup-12.md", false))

	// * must not cross directory boundaries.
	rs2 := New()
	rs2.Add("/notes/*.md", "")
	assert.True(t, rs2.Ignored("notes/a.md", false))
	assert.False(t, rs2.Ignored("notes/sub/a.md", false))
}

func TestRuleset_Ignored_DirOnly(t *testing.T) {
	rs := New()
	rs.Add("archive/", "")

	assert.True(t, rs.Ignored("archive", true))
	assert.False(t, rs.Ignored("archive", false), "plain file named archive is not a directory match")
	assert.True(t, rs.Ignored("archive/old.md", false), "files inside a matched directory are covered")
	assert.True(t, rs.Ignored("notes/archive/old.md", false))
}

func TestRuleset_Ignored_Anchored(t *testing.T) {
	rs := New()
	rs.Add("/todo.md", "")
	rs.Add("docs/internal", "")

	assert.True(t, rs.Ignored("todo.md", false))
	assert.False(t, rs.Ignored("notes/todo.md", false))

	// An inner slash anchors without a leading one.
	assert.True(t, rs.Ignored("docs/internal", false))
	assert.False(t, rs.Ignored("other/docs/internal", false))
}

func TestRuleset_Ignored_DoubleStar(t *testing.T) {
	rs := New()
	rs.Add("**/generated/*.md", "")
	rs.Add("logs/**", "")

	assert.True(t, rs.Ignored("generated/a.md", false))
	assert.True(t, rs.Ignored("x/y/generated/a.md", false))
	assert.False(t, rs.Ignored("generated/sub/a.md", false))

	assert.True(t, rs.Ignored("logs/a.txt", false))
	assert.True(t, rs.Ignored("logs/deep/b.txt", false))
}

func TestRuleset_Ignored_Negation(t *testing.T) {
	rs := New()
	rs.Add("*.md", "")
	rs.Add("!keep.md", "")

	assert.True(t, rs.Ignored("drop.md", false))
	assert.False(t, rs.Ignored("keep.md", false))

	// Later rules win over earlier ones.
	rs.Add("keep.md", "")
	assert.True(t, rs.Ignored("keep.md", false))
}

func TestRuleset_Ignored_ScopedBase(t *testing.T) {
	rs := New()
	rs.Add("*.log", "sub")

	assert.True(t, rs.Ignored("sub/run.log", false))
	assert.True(t, rs.Ignored("sub/deeper/run.log", false))
	assert.False(t, rs.Ignored("run.log", false), "rule is scoped below its base")
	assert.False(t, rs.Ignored("other/run.log", false))
}

func TestRuleset_Add_SkipsCommentsAndBlanks(t *testing.T) {
	rs := New()
	rs.Add("", "")
	rs.Add("   ", "")
	rs.Add("# a comment", "")
	rs.Add(`\#literal`, "")

	assert.Equal(t, 1, rs.Len())
	assert.True(t, rs.Ignored("#literal", false))
}

func TestRuleset_Add_MalformedClassFallsBackToLiteral(t *testing.T) {
	rs := New()
	rs.Add("odd[name", "")

	assert.True(t, rs.Ignored("odd[name", false))
	assert.False(t, rs.Ignored("oddXname", false))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".gitignore")
	content := "# ignore scratch space\n*.tmp\n\narchive/\n!important.tmp\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rs, err := Load(path, "")
	require.NoError(t, err)
	assert.Equal(t, 3, rs.Len())

	assert.True(t, rs.Ignored("a.tmp", false))
	assert.False(t, rs.Ignored("important.tmp", false))
	assert.True(t, rs.Ignored("archive/x.md", false))

	_, err = Load(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)
}
