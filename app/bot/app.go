package bot

import (
	"context"
	"io"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/primatebot/app/accounts"
	"github.com/m3rciful/primatebot/app/classifier"
	coreconfig "github.com/m3rciful/primatebot/core/config"
	tg "github.com/m3rciful/primatebot/core/telegram"
	"github.com/m3rciful/primatebot/core/telegram/commands"
	"github.com/m3rciful/primatebot/core/telegram/router"
)

// FileDownloader fetches Telegram file content. *tele.Bot satisfies it.
type FileDownloader interface {
	File(file *tele.File) (io.ReadCloser, error)
}

// App wires account, storage and classifier services into bot handlers.
type App struct {
	cfg      *coreconfig.Config
	accounts *accounts.Service
	model    classifier.Classifier
	files    FileDownloader
}

// New builds the application. The file downloader is bound later, when
// the bot instance exists.
func New(cfg *coreconfig.Config, svc *accounts.Service, model classifier.Classifier) *App {
	return &App{
		cfg:      cfg,
		accounts: svc,
		model:    model,
	}
}

// Registry declares all bot commands and fallbacks.
func (a *App) Registry() *tg.Registry {
	reg := tg.NewRegistry()

	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "начало работы",
	})
	reg.RegisterCommand("/register", commands.Command{
		Handler:     a.handleRegister,
		Description: "регистрация",
	})
	reg.RegisterCommand("/login", commands.Command{
		Handler:     a.handleLogin,
		Description: "вход",
	})
	reg.RegisterCommand("/predict", commands.Command{
		Handler:     a.handlePredict,
		Description: "классификация изображения",
	})
	reg.RegisterCommand("/logout", commands.Command{
		Handler:     a.handleLogout,
		Description: "выход",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "отмена операции",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "статистика пользователей",
		AdminOnly:   true,
		Hidden:      true,
	})

	reg.SetTextFallback(a.handleTextFallback)
	reg.SetMediaFallback(a.handleMediaFallback)
	return reg
}

// TelegramRunOptions assembles the full bot wiring for tg.RunTelegram.
func (a *App) TelegramRunOptions() tg.RunOptions {
	reg := a.Registry()

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminID: a.cfg.Telegram.AdminID,
	})
	routes = append(routes, router.MessageRoutes(reg, router.MessageRouteOptions{
		Conversation: conversation{app: a},
		Photo:        a.handlePhoto,
	})...)

	return tg.RunOptions{
		Config:      a.cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(a.cfg, nil),
		Routes:      routes,
		OnStart: func(_ context.Context, rt tg.Runtime) error {
			if a.files == nil {
				a.files = rt.Bot
			}
			return nil
		},
	}
}
