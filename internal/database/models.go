package database

import "time"

// Rule scopes controlling which chats a rule is eligible to fire in.
const (
	ScopeGlobal  = "global"
	ScopeGroup   = "group"
	ScopePrivate = "private"
)

// Rule match modes.
const (
	MatchWildcard = "wildcard"
	MatchRegex    = "regex"
	MatchExact    = "exact"
)

// AutoReplyRule represents an operator-defined auto-reply rule.
// A rule fires when a message matches its pattern in the chats its
// scope covers; the stored response is rendered and sent without
// touching the generative backend.
type AutoReplyRule struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`

	Pattern       string `db:"pattern"`
	Response      string `db:"response"`
	Scope         string `db:"scope"`    // global, group or private
	GroupID       string `db:"group_id"` // set only when Scope is group
	MatchMode     string `db:"match_mode"`
	CaseSensitive bool   `db:"case_sensitive"`
	Enabled       bool   `db:"enabled"`
	Hits          int64  `db:"hits"`
}

// RuleFilter narrows ListRules results. Zero-valued fields are ignored.
type RuleFilter struct {
	Scope   string
	GroupID string
}
