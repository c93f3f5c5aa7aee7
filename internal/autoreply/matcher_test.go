package autoreply

import (
	"testing"

	"github.com/aethery0y/vryzen/internal/database"
)

func TestMatches(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		pattern       string
		matchMode     string
		caseSensitive bool
		text          string
		want          bool
	}{
		// Wildcard mode (default)
		{
			name:      "wildcard prefix matches",
			pattern:   "hello*",
			matchMode: database.MatchWildcard,
			text:      "Hello world",
			want:      true,
		},
		{
			name:      "wildcard is anchored to the whole string",
			pattern:   "hello*",
			matchMode: database.MatchWildcard,
			text:      "say hello",
			want:      false,
		},
		{
			name:      "wildcard star matches zero characters",
			pattern:   "hello*",
			matchMode: database.MatchWildcard,
			text:      "hello",
			want:      true,
		},
		{
			name:      "wildcard question mark matches exactly one character",
			pattern:   "gr?y",
			matchMode: database.MatchWildcard,
			text:      "grey",
			want:      true,
		},
		{
			name:      "wildcard question mark does not match two characters",
			pattern:   "gr?y",
			matchMode: database.MatchWildcard,
			text:      "graay",
			want:      false,
		},
		{
			name:      "wildcard quotes regex metacharacters",
			pattern:   "price (usd)*",
			matchMode: database.MatchWildcard,
			text:      "price (usd) is 5",
			want:      true,
		},
		{
			name:      "empty match mode defaults to wildcard",
			pattern:   "ping*",
			matchMode: "",
			text:      "PING me later",
			want:      true,
		},
		{
			name:          "wildcard case sensitive",
			pattern:       "hello*",
			matchMode:     database.MatchWildcard,
			caseSensitive: true,
			text:          "Hello world",
			want:          false,
		},

		// Exact mode
		{
			name:      "exact case insensitive",
			pattern:   "hi",
			matchMode: database.MatchExact,
			text:      "Hi",
			want:      true,
		},
		{
			name:          "exact case sensitive mismatch",
			pattern:       "hi",
			matchMode:     database.MatchExact,
			caseSensitive: true,
			text:          "Hi",
			want:          false,
		},
		{
			name:      "exact does not match substring",
			pattern:   "hi",
			matchMode: database.MatchExact,
			text:      "hi there",
			want:      false,
		},

		// Regex mode
		{
			name:      "regex matches",
			pattern:   `^h[ae]llo\b`,
			matchMode: database.MatchRegex,
			text:      "Hallo there",
			want:      true,
		},
		{
			name:          "regex case sensitive",
			pattern:       "^hello",
			matchMode:     database.MatchRegex,
			caseSensitive: true,
			text:          "Hello",
			want:          false,
		},
		{
			name:      "invalid regex is a non-match, not an error",
			pattern:   "([unclosed",
			matchMode: database.MatchRegex,
			text:      "([unclosed",
			want:      false,
		},
		{
			name:      "empty pattern never matches",
			pattern:   "",
			matchMode: database.MatchRegex,
			text:      "anything",
			want:      false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rule := &database.AutoReplyRule{
				Pattern:       tc.pattern,
				MatchMode:     tc.matchMode,
				CaseSensitive: tc.caseSensitive,
			}
			if got := Matches(rule, tc.text); got != tc.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tc.pattern, tc.text, got, tc.want)
			}
		})
	}
}

func TestMatchesNeverPanics(t *testing.T) {
	t.Parallel()

	patterns := []string{"([", "**", "??", `\`, "(?P<", "a{2,1}", "[z-a]"}
	modes := []string{database.MatchWildcard, database.MatchRegex, database.MatchExact}

	for _, pattern := range patterns {
		for _, mode := range modes {
			rule := &database.AutoReplyRule{Pattern: pattern, MatchMode: mode}
			// Must not panic for any pattern in any mode.
			Matches(rule, "some input text")
		}
	}
}
