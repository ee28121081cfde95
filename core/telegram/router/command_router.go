package router

import (
	"log/slog"
	"time"

	"github.com/m3rciful/primatebot/core/logger"
	tg "github.com/m3rciful/primatebot/core/telegram"
	"github.com/m3rciful/primatebot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// CommandRouteOptions configures how commands are wrapped and exposed.
type CommandRouteOptions struct {
	AdminID       int64
	OnAdminReject tele.HandlerFunc
}

// CommandRoutes prepares command handlers wrapped with shared middleware.
func CommandRoutes(reg *tg.Registry, opts CommandRouteOptions) []tg.Route {
	if reg == nil {
		return nil
	}

	adminOpts := middleware.AdminOptions{
		AdminID:  opts.AdminID,
		OnReject: opts.OnAdminReject,
	}

	routes := make([]tg.Route, 0, len(reg.Commands()))
	for cmd, def := range reg.Commands() {
		h := wrapCommand(cmd, def.Handler)
		if def.AdminOnly {
			h = middleware.AdminOnlyMiddleware(adminOpts)(h)
		}
		routes = append(routes, tg.Route{
			Endpoint: cmd,
			Handler:  h,
		})
	}

	logger.Info(logger.Background(), "tg.wire", "tg.wire",
		slog.String("status", "ok"),
		slog.Int("commands", len(reg.Commands())),
	)

	return routes
}

func wrapCommand(name string, h tele.HandlerFunc) tele.HandlerFunc {
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, handlerName, start, func() error {
			return h(c)
		})
	}
}
