// Package autoreply implements the auto-reply rule engine: pattern
// matching against operator-defined rules and response templating.
package autoreply

import (
	"regexp"
	"strings"

	"github.com/aethery0y/vryzen/internal/database"
)

// Matches reports whether text satisfies the rule's pattern under the
// rule's match mode. It never fails: an invalid regex is treated as a
// non-match so that operator-entered bad patterns cannot break message
// handling.
func Matches(rule *database.AutoReplyRule, text string) bool {
	if rule == nil || rule.Pattern == "" {
		return false
	}

	switch rule.MatchMode {
	case database.MatchRegex:
		return matchRegex(rule.Pattern, text, rule.CaseSensitive)
	case database.MatchExact:
		if rule.CaseSensitive {
			return rule.Pattern == text
		}
		return strings.EqualFold(rule.Pattern, text)
	default:
		// Wildcard is the default mode, including for unknown values.
		return matchWildcard(rule.Pattern, text, rule.CaseSensitive)
	}
}

func matchRegex(pattern, text string, caseSensitive bool) bool {
	if !caseSensitive {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

// matchWildcard translates * to "zero or more characters" and ? to
// "exactly one character", anchored to the whole string. If the
// translated pattern fails to compile it falls back to plain substring
// containment rather than failing the rule.
func matchWildcard(pattern, text string, caseSensitive bool) bool {
	var sb strings.Builder
	if !caseSensitive {
		sb.WriteString("(?i)")
	}
	sb.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '*':
			sb.WriteString(".*")
		case '?':
			sb.WriteString(".")
		default:
			sb.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	sb.WriteString("$")

	re, err := regexp.Compile(sb.String())
	if err != nil {
		if caseSensitive {
			return strings.Contains(text, pattern)
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(pattern))
	}
	return re.MatchString(text)
}
