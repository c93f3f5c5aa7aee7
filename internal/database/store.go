package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
)

// Sentinel errors returned by rule store operations.
var (
	// ErrRuleInvalid indicates a rule failed validation before being persisted.
	ErrRuleInvalid = errors.New("invalid auto-reply rule")

	// ErrRuleNotFound indicates no rule exists with the requested id.
	ErrRuleNotFound = errors.New("auto-reply rule not found")
)

// Store defines the interface for database operations.
// Methods accept context.Context for cancellation and timeouts.
type Store interface {
	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// CreateRule validates and inserts a new auto-reply rule, assigning its ID.
	// Returns ErrRuleInvalid if the rule is missing required fields.
	CreateRule(ctx context.Context, rule *AutoReplyRule) error

	// DeleteRule removes a rule by id. Returns ErrRuleNotFound if no rule matched.
	DeleteRule(ctx context.Context, id int64) error

	// SetRuleEnabled toggles a rule on or off. Returns ErrRuleNotFound if no rule matched.
	SetRuleEnabled(ctx context.Context, id int64, enabled bool) error

	// ListRules retrieves rules matching the filter, in creation (id) order.
	ListRules(ctx context.Context, filter RuleFilter) ([]AutoReplyRule, error)

	// IncrementRuleHits records one successful match against a rule.
	IncrementRuleHits(ctx context.Context, id int64) error

	// RunSQLMaintenance performs database maintenance tasks like VACUUM.
	RunSQLMaintenance(ctx context.Context) error
}

// sqlxStore provides an implementation of the Store interface using sqlx.
type sqlxStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStore creates a new Store implementation backed by sqlx.
// It requires a connected sqlx.DB instance and a logger.
func NewStore(db *sqlx.DB, logger *slog.Logger) Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sqlxStore{
		db:     db,
		logger: logger.With("component", "store"),
	}
}

// Ping checks the database connection.
func (s *sqlxStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// validateRule enforces the rule invariants before anything touches the database.
func validateRule(rule *AutoReplyRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", ErrRuleInvalid)
	}
	if rule.Pattern == "" {
		return fmt.Errorf("%w: pattern is empty", ErrRuleInvalid)
	}
	if rule.Response == "" {
		return fmt.Errorf("%w: response is empty", ErrRuleInvalid)
	}
	switch rule.Scope {
	case ScopeGlobal, ScopePrivate:
		// GroupID is ignored for these scopes.
	case ScopeGroup:
		if rule.GroupID == "" {
			return fmt.Errorf("%w: scope %q requires a group id", ErrRuleInvalid, ScopeGroup)
		}
	default:
		return fmt.Errorf("%w: unknown scope %q", ErrRuleInvalid, rule.Scope)
	}
	switch rule.MatchMode {
	case "":
		rule.MatchMode = MatchWildcard
	case MatchWildcard, MatchRegex, MatchExact:
	default:
		return fmt.Errorf("%w: unknown match mode %q", ErrRuleInvalid, rule.MatchMode)
	}
	return nil
}

// CreateRule validates and inserts a new auto-reply rule.
func (s *sqlxStore) CreateRule(ctx context.Context, rule *AutoReplyRule) error {
	if err := validateRule(rule); err != nil {
		return err
	}

	rule.CreatedAt = time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to begin transaction for creating rule", "error", err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if tx != nil {
			if rollbackErr := tx.Rollback(); rollbackErr != nil {
				if !errors.Is(rollbackErr, sql.ErrTxDone) {
					s.logger.WarnContext(ctx, "Error rolling back transaction", "error", rollbackErr)
				}
			}
		}
	}()

	query := `
        INSERT INTO auto_reply_rules (pattern, response, scope, group_id, match_mode, case_sensitive, enabled, hits, created_at)
        VALUES (:pattern, :response, :scope, :group_id, :match_mode, :case_sensitive, :enabled, :hits, :created_at);
    `

	result, err := tx.NamedExecContext(ctx, query, rule)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error creating rule", "pattern", rule.Pattern, "error", err)
		return fmt.Errorf("failed to create rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err == nil {
		rule.ID = id
	} else {
		s.logger.WarnContext(ctx, "Could not retrieve last insert ID after creating rule", "error", err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit transaction", "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	tx = nil

	s.logger.DebugContext(ctx, "Rule created successfully", "rule_id", rule.ID, "scope", rule.Scope)
	return nil
}

// DeleteRule removes a rule by id.
func (s *sqlxStore) DeleteRule(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM auto_reply_rules WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error deleting rule", "rule_id", id, "error", err)
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when deleting rule", "rule_id", id, "error", err)
	} else if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRuleNotFound, id)
	}

	s.logger.DebugContext(ctx, "Rule deleted successfully", "rule_id", id)
	return nil
}

// SetRuleEnabled toggles a rule on or off.
func (s *sqlxStore) SetRuleEnabled(ctx context.Context, id int64, enabled bool) error {
	result, err := s.db.ExecContext(ctx, `UPDATE auto_reply_rules SET enabled = ? WHERE id = ?`, enabled, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error toggling rule", "rule_id", id, "enabled", enabled, "error", err)
		return fmt.Errorf("failed to toggle rule %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		s.logger.WarnContext(ctx, "Could not get affected row count when toggling rule", "rule_id", id, "error", err)
	} else if affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRuleNotFound, id)
	}

	s.logger.DebugContext(ctx, "Rule toggled successfully", "rule_id", id, "enabled", enabled)
	return nil
}

// ListRules retrieves rules matching the filter, in creation (id) order.
// Reads always reflect the latest committed state.
func (s *sqlxStore) ListRules(ctx context.Context, filter RuleFilter) ([]AutoReplyRule, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	query := `
        SELECT id, pattern, response, scope, group_id, match_mode, case_sensitive, enabled, hits, created_at
        FROM auto_reply_rules
    `
	var conds []string
	var args []any
	if filter.Scope != "" {
		conds = append(conds, "scope = ?")
		args = append(args, filter.Scope)
	}
	if filter.GroupID != "" {
		conds = append(conds, "group_id = ?")
		args = append(args, filter.GroupID)
	}
	for i, cond := range conds {
		if i == 0 {
			query += " WHERE " + cond
		} else {
			query += " AND " + cond
		}
	}
	query += " ORDER BY id ASC;"

	var rules []AutoReplyRule
	err := s.db.SelectContext(ctx, &rules, query, args...)

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "Context timeout or cancellation while listing rules", "error", err)
		return nil, err

	case err != nil:
		s.logger.ErrorContext(ctx, "Error listing rules", "error", err)
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}

	s.logger.DebugContext(ctx, "Listed rules successfully", "count", len(rules))
	return rules, nil
}

// IncrementRuleHits records one successful match against a rule.
func (s *sqlxStore) IncrementRuleHits(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE auto_reply_rules SET hits = hits + 1 WHERE id = ?`, id)
	if err != nil {
		s.logger.ErrorContext(ctx, "Error incrementing rule hits", "rule_id", id, "error", err)
		return fmt.Errorf("failed to increment hits for rule %d: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return fmt.Errorf("%w: id %d", ErrRuleNotFound, id)
	}

	return nil
}

// RunSQLMaintenance executes a VACUUM command on the SQLite database.
func (s *sqlxStore) RunSQLMaintenance(ctx context.Context) error {
	if ctx.Err() != nil {
		s.logger.WarnContext(ctx, "Context cancelled or timed out before starting VACUUM", "error", ctx.Err())
		return ctx.Err()
	}

	s.logger.InfoContext(ctx, "Starting database maintenance (VACUUM)...")

	// VACUUM must run outside a transaction in SQLite.
	_, err := s.db.ExecContext(ctx, "VACUUM;")

	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		s.logger.WarnContext(ctx, "VACUUM operation timed out or was cancelled", "error", err)
		return fmt.Errorf("database maintenance (VACUUM) timed out: %w", err)

	case err != nil:
		s.logger.ErrorContext(ctx, "Database maintenance (VACUUM) failed", "error", err)
		return fmt.Errorf("failed to execute VACUUM: %w", err)

	default:
		s.logger.InfoContext(ctx, "Database maintenance (VACUUM) completed successfully")
	}

	return nil
}
