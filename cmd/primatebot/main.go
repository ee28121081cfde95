package main

import (
	"log"

	"github.com/m3rciful/primatebot/app/accounts"
	"github.com/m3rciful/primatebot/app/bot"
	"github.com/m3rciful/primatebot/app/classifier"
	"github.com/m3rciful/primatebot/app/storage"
	"github.com/m3rciful/primatebot/core/bootstrap"
	"github.com/m3rciful/primatebot/core/buildinfo"
	corecmd "github.com/m3rciful/primatebot/core/cmd"
	coreconfig "github.com/m3rciful/primatebot/core/config"
	"github.com/m3rciful/primatebot/core/logger"
)

func main() {
	log.Printf("primatebot %s (%s)", buildinfo.Version, buildinfo.Commit)

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config/config.yaml",
		Bootstrap:         buildApp,
	})
	if err != nil {
		log.Fatalf("primatebot: %v", err)
	}
}

func buildApp(cfg *coreconfig.Config) (corecmd.TelegramApp, func(), error) {
	infra, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if infra.DB != nil {
			_ = infra.DB.Close()
		}
	}

	store, err := storage.New(cfg.Dataset, infra.DB)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	ctx := logger.Background()
	svc := accounts.NewService(ctx, store, cfg.Auth.BcryptCost)
	model := classifier.NewTFServing(ctx, cfg.Classifier)

	return bot.New(cfg, svc, model), cleanup, nil
}
