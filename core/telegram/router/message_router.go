package router

import (
	"time"

	tg "github.com/m3rciful/primatebot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// Conversation drives multi-step dialogue flows keyed by chat.
// InProgress reports whether the chat is mid-flow; HandleText consumes
// the next plain-text message of that flow.
type Conversation interface {
	InProgress(chatID int64) bool
	HandleText(c tele.Context) error
}

// MessageRouteOptions configures non-command message routing.
type MessageRouteOptions struct {
	Conversation Conversation
	Photo        tele.HandlerFunc
}

// mediaEndpoints are update kinds that carry neither text nor a photo.
var mediaEndpoints = []string{
	tele.OnDocument,
	tele.OnSticker,
	tele.OnVoice,
	tele.OnVideo,
	tele.OnAudio,
	tele.OnAnimation,
}

// MessageRoutes prepares routes for plain text, photos and other media.
// Commands are dispatched by the bot before OnText fires, so a command
// sent mid-flow always wins over the conversation handler.
func MessageRoutes(reg *tg.Registry, opts MessageRouteOptions) []tg.Route {
	routes := []tg.Route{
		{Endpoint: tele.OnText, Handler: textHandler(reg, opts.Conversation)},
	}

	if opts.Photo != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnPhoto,
			Handler:  wrapMessage("photo", opts.Photo),
		})
	}

	if fallback := reg.MediaFallback(); fallback != nil {
		h := wrapMessage("media_fallback", fallback)
		for _, ep := range mediaEndpoints {
			routes = append(routes, tg.Route{Endpoint: ep, Handler: h})
		}
	}

	return routes
}

func textHandler(reg *tg.Registry, conv Conversation) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()

		if conv != nil && c.Chat() != nil && conv.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "conversation", start, func() error {
				return conv.HandleText(c)
			})
		}

		if fallback := reg.TextFallback(); fallback != nil {
			return handleWithSummary(c, "text_fallback", start, func() error {
				return fallback(c)
			})
		}

		logHandlerSummary(c, "text_fallback", start, "skip", nil)
		return nil
	}
}

func wrapMessage(name string, h tele.HandlerFunc) tele.HandlerFunc {
	handlerName := normalizeHandlerName(name)
	return func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, handlerName, start, func() error {
			return h(c)
		})
	}
}
