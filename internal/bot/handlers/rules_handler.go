package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/aethery0y/vryzen/internal/database"
)

// NewRuleListHandler returns a handler for the /rules command.
func NewRuleListHandler(deps HandlerDeps) bot.HandlerFunc {
	return ruleListHandler{deps}.Handle
}

type ruleListHandler struct {
	deps HandlerDeps
}

func (h ruleListHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rule_list")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	rules, err := h.deps.Store.ListRules(ctx, database.RuleFilter{})
	if err != nil {
		log.ErrorContext(ctx, "Failed to list rules", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	if len(rules) == 0 {
		sendText(ctx, b, log, chatID, "No auto-reply rules configured.")
		return
	}

	var sb strings.Builder
	sb.WriteString("Auto-reply rules (first match wins, in creation order):\n")
	for _, rule := range rules {
		state := "on"
		if !rule.Enabled {
			state = "off"
		}
		scope := rule.Scope
		if rule.Scope == database.ScopeGroup {
			scope = fmt.Sprintf("%s:%s", rule.Scope, rule.GroupID)
		}
		fmt.Fprintf(&sb, "#%d [%s] (%s, %s) %q -> %q (hits: %d)\n",
			rule.ID, state, scope, rule.MatchMode, rule.Pattern, rule.Response, rule.Hits)
	}
	sendText(ctx, b, log, chatID, sb.String())
}

// NewRuleAddHandler returns a handler for the /rule_add command.
//
// Syntax: /rule_add [scope=global|group|private] [group=<id>] [mode=wildcard|regex|exact] [cs=true] <pattern> | <response>
func NewRuleAddHandler(deps HandlerDeps) bot.HandlerFunc {
	return ruleAddHandler{deps}.Handle
}

type ruleAddHandler struct {
	deps HandlerDeps
}

const ruleAddUsage = "Usage: /rule_add [scope=global|group|private] [group=<id>] [mode=wildcard|regex|exact] [cs=true] <pattern> | <response>"

func (h ruleAddHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rule_add")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text, "/rule_add")
	rule, err := parseRuleAddArgs(args)
	if err != nil {
		sendText(ctx, b, log, chatID, err.Error()+"\n"+ruleAddUsage)
		return
	}

	if err := h.deps.Store.CreateRule(ctx, rule); err != nil {
		if errors.Is(err, database.ErrRuleInvalid) {
			sendText(ctx, b, log, chatID, fmt.Sprintf("Invalid rule: %v\n%s", err, ruleAddUsage))
			return
		}
		log.ErrorContext(ctx, "Failed to create rule", "error", err, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
		return
	}

	log.InfoContext(ctx, "Rule created", "rule_id", rule.ID, "scope", rule.Scope, "chat_id", chatID)
	sendText(ctx, b, log, chatID, fmt.Sprintf("Rule #%d created.", rule.ID))
}

// parseRuleAddArgs splits "flags pattern | response" into a rule. Flags
// are leading key=value tokens; everything after them up to the pipe is
// the pattern, everything after the pipe is the response.
func parseRuleAddArgs(args string) (*database.AutoReplyRule, error) {
	left, response, found := strings.Cut(args, "|")
	if !found {
		return nil, fmt.Errorf("missing '|' separator between pattern and response")
	}
	response = strings.TrimSpace(response)

	rule := &database.AutoReplyRule{
		Scope:     database.ScopeGlobal,
		MatchMode: database.MatchWildcard,
		Enabled:   true,
		Response:  response,
	}

	fields := strings.Fields(left)
	i := 0
	for ; i < len(fields); i++ {
		key, value, ok := strings.Cut(fields[i], "=")
		if !ok {
			break
		}
		switch key {
		case "scope":
			rule.Scope = value
		case "group":
			rule.GroupID = value
		case "mode":
			rule.MatchMode = value
		case "cs":
			rule.CaseSensitive = value == "true" || value == "1"
		default:
			return nil, fmt.Errorf("unknown flag %q", key)
		}
	}

	rule.Pattern = strings.Join(fields[i:], " ")
	return rule, nil
}

// NewRuleDeleteHandler returns a handler for the /rule_del command.
func NewRuleDeleteHandler(deps HandlerDeps) bot.HandlerFunc {
	return ruleDeleteHandler{deps}.Handle
}

type ruleDeleteHandler struct {
	deps HandlerDeps
}

func (h ruleDeleteHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rule_del")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	args := commandArgs(update.Message.Text, "/rule_del")
	id, err := strconv.ParseInt(args, 10, 64)
	if err != nil {
		sendText(ctx, b, log, chatID, "Usage: /rule_del <id>")
		return
	}

	switch err := h.deps.Store.DeleteRule(ctx, id); {
	case errors.Is(err, database.ErrRuleNotFound):
		sendText(ctx, b, log, chatID, fmt.Sprintf("No rule with id %d.", id))
	case err != nil:
		log.ErrorContext(ctx, "Failed to delete rule", "error", err, "rule_id", id, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		log.InfoContext(ctx, "Rule deleted", "rule_id", id, "chat_id", chatID)
		sendText(ctx, b, log, chatID, fmt.Sprintf("Rule #%d deleted.", id))
	}
}

// NewRuleToggleHandler returns a handler for the /rule_toggle command.
func NewRuleToggleHandler(deps HandlerDeps) bot.HandlerFunc {
	return ruleToggleHandler{deps}.Handle
}

type ruleToggleHandler struct {
	deps HandlerDeps
}

func (h ruleToggleHandler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	log := h.deps.Logger.With("handler", "rule_toggle")
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	fields := strings.Fields(commandArgs(update.Message.Text, "/rule_toggle"))
	if len(fields) != 2 {
		sendText(ctx, b, log, chatID, "Usage: /rule_toggle <id> <on|off>")
		return
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil || (fields[1] != "on" && fields[1] != "off") {
		sendText(ctx, b, log, chatID, "Usage: /rule_toggle <id> <on|off>")
		return
	}
	enabled := fields[1] == "on"

	switch err := h.deps.Store.SetRuleEnabled(ctx, id, enabled); {
	case errors.Is(err, database.ErrRuleNotFound):
		sendText(ctx, b, log, chatID, fmt.Sprintf("No rule with id %d.", id))
	case err != nil:
		log.ErrorContext(ctx, "Failed to toggle rule", "error", err, "rule_id", id, "chat_id", chatID)
		sendText(ctx, b, log, chatID, h.deps.Config.Messages.GeneralError)
	default:
		log.InfoContext(ctx, "Rule toggled", "rule_id", id, "enabled", enabled, "chat_id", chatID)
		sendText(ctx, b, log, chatID, fmt.Sprintf("Rule #%d is now %s.", id, fields[1]))
	}
}

// commandArgs strips the command token (with an optional @botname suffix)
// from a message and returns the trimmed remainder.
func commandArgs(text, command string) string {
	rest := strings.TrimPrefix(text, command)
	if strings.HasPrefix(rest, "@") {
		if idx := strings.IndexAny(rest, " \t"); idx != -1 {
			rest = rest[idx:]
		} else {
			rest = ""
		}
	}
	return strings.TrimSpace(rest)
}

func sendText(ctx context.Context, b *bot.Bot, log *slog.Logger, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text}); err != nil {
		log.ErrorContext(ctx, "Failed to send message", "error", err, "chat_id", chatID)
	}
}
