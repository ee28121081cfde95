package bot

import (
	"errors"
	"fmt"
	"io"
	"os"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/primatebot/app/accounts"
	"github.com/m3rciful/primatebot/app/classifier"
	tghelpers "github.com/m3rciful/primatebot/core/telegram/helpers"
	"github.com/m3rciful/primatebot/core/telegram/keyboard"
)

func (a *App) handleStart(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.Reset(ctx, chat.ID)
	return tghelpers.SendText(c, msgStart, &tele.SendOptions{
		ReplyMarkup: keyboard.ReplyButtons("/register", "/login", "/predict"),
	})
}

func (a *App) handleRegister(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.BeginRegistration(ctx, chat.ID)
	return tghelpers.SendText(c, msgRegisterPrompt)
}

func (a *App) handleLogin(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.BeginLogin(ctx, chat.ID)
	return tghelpers.SendText(c, msgLoginPrompt)
}

func (a *App) handlePredict(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.Ensure(ctx, chat.ID)

	acc, _ := a.accounts.Get(chat.ID)
	if acc == nil || !acc.LoggedIn {
		a.accounts.ClearState(ctx, chat.ID)
		return tghelpers.SendText(c, msgPredictNeedLogin)
	}

	a.accounts.AwaitImage(ctx, chat.ID)
	return tghelpers.SendText(c, msgPredictPrompt)
}

func (a *App) handleLogout(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.Logout(ctx, chat.ID)
	return tghelpers.SendText(c, msgLogout, &tele.SendOptions{
		ReplyMarkup: keyboard.RemoveKeyboard(),
	})
}

func (a *App) handleCancel(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.Cancel(ctx, chat.ID)
	return tghelpers.SendText(c, msgCancelled)
}

func (a *App) handleStats(c tele.Context) error {
	st := a.accounts.Stats()
	return tghelpers.SendText(c, fmt.Sprintf(
		"Пользователи: %d\nЗарегистрированы: %d\nВ системе: %d",
		st.Total, st.Registered, st.LoggedIn,
	))
}

// handlePhoto runs the classification pipeline. Whatever the outcome of
// the armed branch, the pending state is consumed.
func (a *App) handlePhoto(c tele.Context) error {
	chat := c.Chat()
	if chat == nil || c.Message() == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	a.accounts.Ensure(ctx, chat.ID)

	if a.accounts.State(chat.ID) != accounts.StateAwaitImageForPredict {
		return tghelpers.SendText(c, msgPhotoUnexpected)
	}
	defer a.accounts.ClearState(ctx, chat.ID)

	acc, _ := a.accounts.Get(chat.ID)
	if acc == nil || !acc.LoggedIn {
		return tghelpers.SendText(c, msgPhotoNeedLogin)
	}

	photo := c.Message().Photo
	if photo == nil {
		return tghelpers.SendText(c, msgPhotoError)
	}

	path, err := a.downloadPhoto(photo)
	if err != nil {
		return tghelpers.SendText(c, msgPhotoError)
	}
	defer os.Remove(path)

	pred, err := a.model.Classify(ctx, path)
	if err != nil {
		if errors.Is(err, classifier.ErrUnavailable) {
			return tghelpers.SendText(c, msgModelUnavailable)
		}
		return tghelpers.SendText(c, msgPhotoError)
	}

	return tghelpers.SendText(c, fmt.Sprintf(msgPredictionFormat, pred.Label, pred.Confidence*100))
}

// downloadPhoto pulls the largest photo variant into a temp file and
// returns its path. The caller removes the file.
func (a *App) downloadPhoto(photo *tele.Photo) (string, error) {
	rc, err := a.files.File(&photo.File)
	if err != nil {
		return "", fmt.Errorf("bot: fetch photo: %w", err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp("", "photo_*.jpg")
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(tmp, rc); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("bot: save photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

func (a *App) handleTextFallback(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	a.accounts.Ensure(tghelpers.BuildContext(c), chat.ID)
	return tghelpers.SendText(c, msgUnknownCommand)
}

func (a *App) handleMediaFallback(c tele.Context) error {
	chat := c.Chat()
	if chat == nil {
		return nil
	}
	a.accounts.Ensure(tghelpers.BuildContext(c), chat.ID)
	return tghelpers.SendText(c, msgUseCommands)
}
