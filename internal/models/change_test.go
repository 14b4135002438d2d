package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoalesce(t *testing.T) {
	files := []ChangedFile{
		{Path: "a.go", Additions: 1, Deletions: 2},
		{Path: "b.go", Additions: 5},
		{Path: "a.go", Additions: 3, Deletions: 1},
		{Path: ""},
		{Path: "b.go"},
	}

	got := Coalesce(files)

	assert.Equal(t, []ChangedFile{
		{Path: "a.go", Additions: 4, Deletions: 3},
		{Path: "b.go", Additions: 5},
	}, got)
}

func TestCoalesce_Empty(t *testing.T) {
	assert.Empty(t, Coalesce(nil))
}

func TestCommitTitle(t *testing.T) {
	assert.Equal(t, "fix: login", Commit{Message: "fix: login\n\nlong body"}.Title())
	assert.Equal(t, "single", Commit{Message: "single"}.Title())
	assert.Equal(t, "", Commit{}.Title())
}

func TestChangedFileChanges(t *testing.T) {
	assert.Equal(t, 7, ChangedFile{Additions: 3, Deletions: 4}.Changes())
}

func TestIsZeroRevision(t *testing.T) {
	assert.True(t, IsZeroRevision(""))
	assert.True(t, IsZeroRevision("0000000000000000000000000000000000000000"))
	assert.False(t, IsZeroRevision("a1b2c3"))
}
