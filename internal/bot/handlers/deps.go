package handlers

import (
	"log/slog"

	"github.com/aethery0y/vryzen/internal/autoreply"
	"github.com/aethery0y/vryzen/internal/config"
	"github.com/aethery0y/vryzen/internal/database"
	"github.com/aethery0y/vryzen/internal/responder"
)

// HandlerDeps provides dependencies for Telegram command and message handlers.
type HandlerDeps struct {
	Logger    *slog.Logger
	Config    *config.Config
	Store     database.Store
	Engine    *autoreply.Engine
	Responder *responder.Responder
}
