package commands

import (
	tele "gopkg.in/telebot.v4"
)

// Command describes a single bot command as held by the registry.
// Hidden commands are dispatched but never appear in the Telegram
// command menu; AdminOnly commands are additionally gated on the
// configured admin chat.
type Command struct {
	Handler     tele.HandlerFunc
	Description string
	AdminOnly   bool
	Hidden      bool
	Aliases     []string
}
