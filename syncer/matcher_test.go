package syncer

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"

	"worklogsync/config"
)

func newTestMatcher(t *testing.T, patterns ...string) *Matcher {
	t.Helper()
	compiled, err := config.CompileIssuePatterns(patterns)
	require.NoError(t, err)
	matcher, err := NewMatcher(compiled)
	require.NoError(t, err)
	return matcher
}

func TestMatcher_FirstPatternWins(t *testing.T) {
	t.Parallel()

	matcher := newTestMatcher(t, `(WT-\d+)`, `(DEV-\d+)`)

	match, ok := matcher.Match("fixed WT-12 per DEV-99")
	require.True(t, ok)
	require.Equal(t, "WT-12", match.IssueKey)

	match, ok = matcher.Match("DEV-99 came before WT-12")
	require.True(t, ok)
	require.Equal(t, "WT-12", match.IssueKey, "pattern order beats position in the description")

	match, ok = matcher.Match("only DEV-99 here")
	require.True(t, ok)
	require.Equal(t, "DEV-99", match.IssueKey)
}

func TestMatcher_FirstOccurrenceAndCaseInsensitive(t *testing.T) {
	t.Parallel()

	matcher := newTestMatcher(t, `(WT-\d+)`)

	match, ok := matcher.Match("wt-1 then WT-2")
	require.True(t, ok)
	require.Equal(t, "wt-1", match.IssueKey)

	_, ok = matcher.Match("meeting without ticket")
	require.False(t, ok)
}

func TestMatcher_EmptyGroupIsNoMatch(t *testing.T) {
	t.Parallel()

	matcher, err := NewMatcher([]*regexp.Regexp{
		regexp.MustCompile(`ticket:(\w*)`),
		regexp.MustCompile(`(OPS-\d+)`),
	})
	require.NoError(t, err)

	match, ok := matcher.Match("ticket: none, see OPS-4")
	require.True(t, ok)
	require.Equal(t, "OPS-4", match.IssueKey)
}

func TestNewMatcher_RejectsInvalidPatterns(t *testing.T) {
	t.Parallel()

	_, err := NewMatcher(nil)
	require.Error(t, err)

	_, err = NewMatcher([]*regexp.Regexp{regexp.MustCompile(`WT-\d+`)})
	require.ErrorContains(t, err, "no capture group")
}
