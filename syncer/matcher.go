package syncer

import (
	"errors"
	"fmt"
	"regexp"
)

// Match is the issue key extracted from a work entry description.
type Match struct {
	IssueKey string
	Pattern  string
}

// Matcher applies issue patterns in configured order. The first pattern that
// matches anywhere in the description wins and its first match is used.
type Matcher struct {
	patterns []*regexp.Regexp
}

func NewMatcher(patterns []*regexp.Regexp) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, errors.New("at least one issue pattern is required")
	}
	for i, pattern := range patterns {
		if pattern == nil {
			return nil, fmt.Errorf("issue pattern %d is nil", i)
		}
		if pattern.NumSubexp() < 1 {
			return nil, fmt.Errorf("issue pattern %q has no capture group", pattern.String())
		}
	}
	return &Matcher{patterns: append([]*regexp.Regexp(nil), patterns...)}, nil
}

// Match returns group 1 of the first matching pattern. A pattern whose group
// did not participate in the match does not count as a match.
func (m *Matcher) Match(description string) (Match, bool) {
	for _, pattern := range m.patterns {
		groups := pattern.FindStringSubmatch(description)
		if len(groups) < 2 || groups[1] == "" {
			continue
		}
		return Match{IssueKey: groups[1], Pattern: pattern.String()}, true
	}
	return Match{}, false
}
