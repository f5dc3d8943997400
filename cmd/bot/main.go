package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/moviegate/postbot/internal/config"
	"github.com/moviegate/postbot/internal/database"
	"github.com/moviegate/postbot/internal/pinger"
	"github.com/moviegate/postbot/internal/render"
	"github.com/moviegate/postbot/internal/repository"
	"github.com/moviegate/postbot/internal/service"
	"github.com/moviegate/postbot/internal/storage"
	"github.com/moviegate/postbot/internal/telegram"
	"github.com/moviegate/postbot/internal/web"
	"github.com/moviegate/postbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("database connect: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("database migrate: %v", err)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	premiumRepo := repository.NewPremiumRepository(db)
	codeRepo := repository.NewCodeRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	postRepo := repository.NewPostRepository(db)

	entitlementService := service.NewEntitlementService(cfg.OwnerID, premiumRepo, codeRepo)
	settingsService := service.NewSettingsService(settingsRepo, channelRepo)
	offerService := service.NewOfferService(offerRepo)
	postService := service.NewPostService(cfg.PublicBaseURL, logr, postRepo, settingsService, render.New())

	var uploader telegram.ImageStorage
	if cfg.S3Configured() {
		up, err := storage.NewUploader(storage.Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
			Prefix:        cfg.S3Prefix,
		})
		if err != nil {
			log.Fatalf("storage uploader: %v", err)
		}
		uploader = up
	}

	bot := telegram.NewBot(cfg, botAPI, logr, entitlementService, settingsService, offerService, postService, uploader)

	webServer := web.NewServer(cfg.ListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, postService, offerService, entitlementService)
	go func() {
		if err := webServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("web server stopped", "err", err)
		}
	}()

	go pinger.New(cfg.KeepAliveURL, cfg.KeepAliveInterval, logr).Run(ctx)

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}
