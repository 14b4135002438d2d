package notify

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nahidhasan98/checklist-notifier/internal/checklist"
	"github.com/nahidhasan98/checklist-notifier/internal/classify"
	"github.com/nahidhasan98/checklist-notifier/internal/models"
	"github.com/nahidhasan98/checklist-notifier/internal/teams"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  []string
	}{
		{"empty", "", 10, nil},
		{"fits", "abc\ndef", 10, []string{"abc\ndef"}},
		{"packs lines greedily", "aaa\nbbb\nccc", 7, []string{"aaa\nbbb", "ccc"}},
		{"exact fit", "aaaa\nbbbbb", 10, []string{"aaaa\nbbbbb"}},
		{"hard splits long line", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"remainder packs with next line", "abcdefg\nhi", 4, []string{"abcd", "efg", "hi"}},
		{"remainder joins short line", "abcde\nf", 4, []string{"abcd", "e\nf"}},
		{"counts runes not bytes", "ééé\nééé", 7, []string{"ééé\nééé"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Split(tt.text, tt.limit))
		})
	}
}

func TestSplit_RespectsLimit(t *testing.T) {
	var lines []string
	for i := 0; i < 300; i++ {
		lines = append(lines, strings.Repeat(string(rune('a'+i%26)), i%40+1))
	}
	lines = append(lines, strings.Repeat("x", 250))
	text := strings.Join(lines, "\n")

	chunks := Split(text, 100)
	for _, c := range chunks {
		assert.LessOrEqual(t, Length(c), 100)
	}
	assert.Equal(t, strings.ReplaceAll(text, "\n", ""), strings.ReplaceAll(strings.Join(chunks, ""), "\n", ""))
}

func TestNormalizeMention(t *testing.T) {
	assert.Equal(t, "<@123>", NormalizeMention("<@123>"))
	assert.Equal(t, "<@&456>", NormalizeMention("<@&456>"))
	assert.Equal(t, "<@&backend>", NormalizeMention("@backend"))
	assert.Equal(t, "<@789>", NormalizeMention("789"))
	assert.Equal(t, "<@789>", NormalizeMention(" 789 "))
	assert.Equal(t, "", NormalizeMention("  "))
}

func TestMentionPrefix(t *testing.T) {
	prefix, dropped := MentionPrefix([]string{"1", "@ops", "<@2>", "1"}, 100)
	assert.Equal(t, "<@1> <@&ops> <@2>", prefix)
	assert.Empty(t, dropped)

	prefix, dropped = MentionPrefix([]string{"1111", "2222", "3"}, 13)
	assert.Equal(t, "<@1111> <@3>", prefix)
	assert.Equal(t, []string{"2222"}, dropped)
}

func TestMentionPrefix_BoundedByPlainTextLimit(t *testing.T) {
	var tokens []string
	for i := 0; i < 500; i++ {
		tokens = append(tokens, fmt.Sprintf("%018d", i))
	}

	prefix, dropped := MentionPrefix(tokens, MaxPlainTextLength)
	assert.LessOrEqual(t, Length(prefix), MaxPlainTextLength)
	assert.NotEmpty(t, dropped)
	for _, token := range strings.Fields(prefix) {
		assert.Regexp(t, `^<@\d{18}>$`, token)
	}
}

func baseMessage() Message {
	return Message{
		Repository: "acme/api",
		Branch:     "main",
		CommitURL:  "https://github.com/acme/api/compare/a...b",
		Files:      []models.ChangedFile{{Path: "api/a.go", Additions: 3, Deletions: 1}},
		Commits:    []models.Commit{{Message: "Add endpoint\n\nbody"}},
		Classification: classify.Classification{
			RiskLevel: classify.RiskModerate,
			Scope:     classify.ScopeModerate,
		},
		Checklist: checklist.Result{
			Summary:   "Adds a new endpoint",
			Primary:   checklist.Section{Items: []string{"Verify API contract"}},
			Secondary: &checklist.Section{Items: []string{"Call the endpoint"}},
		},
		Assignments: teams.Assignments{
			"backend": {Recipients: []string{"123", "@api"}, MatchedFiles: []string{"api/a.go"}},
		},
	}
}

func TestBuild_Order(t *testing.T) {
	fragments := NewBuilder(nil).Build(baseMessage())
	require.Len(t, fragments, 3)

	assert.Equal(t, SummaryTitle, fragments[0].Title)
	assert.Equal(t, ColorInfo, fragments[0].ColorTag)
	assert.Equal(t, "<@123> <@&api>", fragments[0].MentionPrefix)
	assert.Contains(t, fragments[0].Body, "**Project:** acme/api")
	assert.Contains(t, fragments[0].Body, "**Branch:** main")
	assert.Contains(t, fragments[0].Body, "**Risk:** moderate | **Scope:** moderate")
	assert.Contains(t, fragments[0].Body, "**Teams:** backend")
	assert.Contains(t, fragments[0].Body, "Adds a new endpoint")
	assert.Contains(t, fragments[0].Body, "• `api/a.go` (+3/-1)")
	assert.Contains(t, fragments[0].Body, "• Add endpoint")
	assert.NotContains(t, fragments[0].Body, "body")
	assert.Contains(t, fragments[0].Body, "[View changes](https://github.com/acme/api/compare/a...b)")

	assert.Equal(t, PrimaryTitle, fragments[1].Title)
	assert.Equal(t, "☐ Verify API contract", fragments[1].Body)
	assert.Empty(t, fragments[1].MentionPrefix)

	assert.Equal(t, SecondaryTitle, fragments[2].Title)
	assert.Equal(t, ColorSecondary, fragments[2].ColorTag)
	assert.Empty(t, fragments[2].MentionPrefix)
}

func TestBuild_ErrorSummaryColor(t *testing.T) {
	msg := baseMessage()
	msg.Checklist.Summary = checklist.ErrorSummaryPrefix + "timeout"

	fragments := NewBuilder(nil).Build(msg)
	assert.Equal(t, ColorError, fragments[0].ColorTag)
}

func TestBuild_AbsentSecondary(t *testing.T) {
	msg := baseMessage()
	msg.Checklist.Secondary = nil

	fragments := NewBuilder(nil).Build(msg)
	require.Len(t, fragments, 2)
	for _, f := range fragments {
		assert.NotEqual(t, SecondaryTitle, f.Title)
	}
}

func TestBuild_EmptySecondaryRendersPlaceholder(t *testing.T) {
	msg := baseMessage()
	msg.Checklist.Secondary = &checklist.Section{}

	fragments := NewBuilder(nil).Build(msg)
	require.Len(t, fragments, 3)
	assert.Equal(t, NoChecklist, fragments[2].Body)
}

func TestBuild_EmptyInputs(t *testing.T) {
	fragments := NewBuilder(nil).Build(Message{})
	require.Len(t, fragments, 2)

	assert.Contains(t, fragments[0].Body, NoSummary)
	assert.Contains(t, fragments[0].Body, NoFiles)
	assert.Contains(t, fragments[0].Body, NoCommits)
	assert.Empty(t, fragments[0].MentionPrefix)
	assert.Equal(t, NoChecklist, fragments[1].Body)
}

func TestBuild_ListCaps(t *testing.T) {
	msg := baseMessage()
	msg.Files = nil
	for i := 0; i < 25; i++ {
		msg.Files = append(msg.Files, models.ChangedFile{Path: fmt.Sprintf("f%d.go", i)})
	}
	msg.Commits = nil
	for i := 0; i < 12; i++ {
		msg.Commits = append(msg.Commits, models.Commit{Message: fmt.Sprintf("commit %d", i)})
	}

	body := NewBuilder(nil).Build(msg)[0].Body
	assert.Contains(t, body, "**Files changed (25):**")
	assert.Contains(t, body, "...and 5 more")
	assert.Contains(t, body, "...and 2 more")
	assert.Contains(t, body, "f19.go")
	assert.NotContains(t, body, "f20.go")
	assert.Contains(t, body, "commit 9")
	assert.NotContains(t, body, "commit 10")
}

func TestBuild_LargeChecklistFragments(t *testing.T) {
	items := make([]string, 500)
	for i := range items {
		items[i] = fmt.Sprintf("item %03d %s", i, strings.Repeat("x", 41))
		require.Len(t, items[i], 50)
	}

	msg := baseMessage()
	msg.Checklist.Primary.Items = items
	msg.Checklist.Secondary = nil

	fragments := NewBuilder(nil).Build(msg)
	require.Greater(t, len(fragments), 2)

	var rendered []string
	for i, f := range fragments {
		assert.LessOrEqual(t, Length(f.Body), MaxBodyLength)
		if i > 1 {
			assert.Empty(t, f.Title, "continuation fragment %d has a title", i)
			assert.Empty(t, f.MentionPrefix)
		}
		if f.ColorTag == ColorPrimary {
			rendered = append(rendered, strings.Split(f.Body, "\n")...)
		}
	}

	require.Len(t, rendered, 500)
	for i, line := range rendered {
		assert.Equal(t, "☐ "+items[i], line)
	}
}

func TestBuild_LongSummarySplits(t *testing.T) {
	msg := baseMessage()
	msg.Checklist.Summary = strings.Repeat("s", 5000)

	fragments := NewBuilder(nil).Build(msg)
	assert.Equal(t, SummaryTitle, fragments[0].Title)
	assert.Empty(t, fragments[1].Title)
	assert.Equal(t, ColorInfo, fragments[1].ColorTag)
	for _, f := range fragments {
		assert.LessOrEqual(t, Length(f.Body), MaxBodyLength)
	}
}

func TestPlainText(t *testing.T) {
	fragments := NewBuilder(nil).Build(baseMessage())
	messages := PlainText(fragments, MaxPlainTextLength)

	require.Len(t, messages, 3)
	assert.True(t, strings.HasPrefix(messages[0], "*"+SummaryTitle+"*\n"))
	assert.Contains(t, messages[0], "*Project:* acme/api")
	assert.NotContains(t, messages[0], "<@123>")
	for _, m := range messages {
		assert.LessOrEqual(t, Length(m), MaxPlainTextLength)
	}
}

func TestPlainText_SplitsLongFragments(t *testing.T) {
	body := strings.Repeat(strings.Repeat("y", 99)+"\n", 50)
	messages := PlainText([]Fragment{{Title: "T", Body: body}}, 0)

	assert.Greater(t, len(messages), 1)
	for _, m := range messages {
		assert.LessOrEqual(t, Length(m), MaxPlainTextLength)
	}
}
