// Package tasks implements scheduled tasks for the bot, including task
// definitions, dependencies, and registration.
package tasks

import (
	"log/slog"

	"github.com/aethery0y/vryzen/internal/config"
	"github.com/aethery0y/vryzen/internal/database"
)

// TaskDeps contains all dependencies required by scheduled tasks.
type TaskDeps struct {
	Logger *slog.Logger
	Store  database.Store
	Config *config.Config
}
