package bot

import (
	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/primatebot/app/accounts"
	tghelpers "github.com/m3rciful/primatebot/core/telegram/helpers"
)

// conversation adapts the account dialogue states to the text router.
// Only the password-prompt states consume free text; a chat waiting for
// an image still treats unknown text as an unknown command.
type conversation struct {
	app *App
}

func (cv conversation) InProgress(chatID int64) bool {
	switch cv.app.accounts.State(chatID) {
	case accounts.StateAwaitRegisterPass, accounts.StateAwaitLoginPass:
		return true
	}
	return false
}

func (cv conversation) HandleText(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	password := c.Text()

	switch cv.app.accounts.State(chat.ID) {
	case accounts.StateAwaitRegisterPass:
		ok, err := cv.app.accounts.CompleteRegistration(ctx, chat.ID, password)
		if err != nil {
			return err
		}
		if !ok {
			return tghelpers.SendText(c, msgAlreadyRegistered)
		}
		return tghelpers.SendText(c, msgRegistered)

	case accounts.StateAwaitLoginPass:
		if cv.app.accounts.CompleteLogin(ctx, chat.ID, password) {
			return tghelpers.SendText(c, msgLoginOK)
		}
		return tghelpers.SendText(c, msgLoginFail)
	}

	return tghelpers.SendText(c, msgUnknownCommand)
}
