package autoreply

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/aethery0y/vryzen/internal/database"
)

// RuleSource is the subset of the rule store the engine consumes.
type RuleSource interface {
	ListRules(ctx context.Context, filter database.RuleFilter) ([]database.AutoReplyRule, error)
	IncrementRuleHits(ctx context.Context, id int64) error
}

// ChatContext describes the chat a message arrived in.
type ChatContext struct {
	ChatID  string
	Sender  string
	GroupID string
	IsGroup bool
}

// MatchResult is the outcome of running a message through the rule engine.
type MatchResult struct {
	Matched  bool
	Response string
	RuleID   int64
}

// Engine matches inbound messages against stored auto-reply rules and
// renders the winning rule's response.
type Engine struct {
	rules  RuleSource
	logger *slog.Logger
}

// NewEngine creates an auto-reply engine backed by the given rule source.
func NewEngine(rules RuleSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{
		rules:  rules,
		logger: logger.With("component", "autoreply_engine"),
	}
}

// Match tests text against every applicable rule in stored (creation)
// order and returns the response of the first rule that matches.
//
// First-match-wins is an intentional tie-break, not an oversight: an
// operator who wants specific rules to win over broad ones must order or
// scope them accordingly. A miss across all applicable rules yields
// {Matched: false}, never an error; rule evaluation problems degrade to
// "no match" so a bad rule can never take down message handling.
func (e *Engine) Match(ctx context.Context, text string, chat ChatContext) (MatchResult, error) {
	rules, err := e.rules.ListRules(ctx, database.RuleFilter{})
	if err != nil {
		return MatchResult{}, err
	}

	for i := range rules {
		rule := &rules[i]
		if !e.applicable(rule, chat) {
			continue
		}
		if !Matches(rule, text) {
			continue
		}

		// Hits counts real matches, incremented exactly once per match.
		if err := e.rules.IncrementRuleHits(ctx, rule.ID); err != nil {
			e.logger.WarnContext(ctx, "Failed to increment rule hits", "rule_id", rule.ID, "error", err)
		}

		response := Render(rule.Response, TemplateVars{
			Sender:  chat.Sender,
			Message: text,
			Now:     time.Now(),
		})

		e.logger.DebugContext(ctx, "Auto-reply rule matched", "rule_id", rule.ID, "chat_id", chat.ChatID)
		return MatchResult{Matched: true, Response: response, RuleID: rule.ID}, nil
	}

	return MatchResult{}, nil
}

// applicable reports whether a rule is eligible to fire in the given chat.
func (e *Engine) applicable(rule *database.AutoReplyRule, chat ChatContext) bool {
	if !rule.Enabled {
		return false
	}
	switch rule.Scope {
	case database.ScopeGlobal:
		return true
	case database.ScopeGroup:
		return chat.IsGroup && rule.GroupID == chat.GroupID
	case database.ScopePrivate:
		return !chat.IsGroup
	default:
		return false
	}
}
