package cli

import (
	"fmt"
	"io"

	"birthday_notification_bot/internal/app"
	"birthday_notification_bot/internal/domain/notification"
	"birthday_notification_bot/internal/infra/config"
	"birthday_notification_bot/internal/infra/database"
	"birthday_notification_bot/internal/infra/logger"
	"birthday_notification_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

// runtime holds the wired application shared by all commands.
type runtime struct {
	cfg     *config.AppConfig
	log     *logrus.Logger
	db      *database.DB
	members *database.MemberRepository
	service *app.BirthdayService
}

func bootstrap(logOut io.Writer) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("could not load application configuration: %w", err)
	}

	log := logger.NewWithOutput(cfg, logOut)
	log.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Debug("Configuration loaded")

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}
	log.WithField("dialect", db.Dialect.String()).Debug("Database connection established")

	deliverer, err := newDeliverer(cfg, log)
	if err != nil {
		db.Close()
		return nil, err
	}

	members := database.NewMemberRepository(db)
	sender := app.NewRetryingSender(deliverer, app.RetryPolicy{
		MaxRetries: cfg.DeliveryMaxRetries,
		BaseDelay:  cfg.DeliveryBaseDelay,
	}, logger.Component(log, "sender"))
	dispatcher := app.NewDispatcher(sender, cfg.DeliveryMaxConcurrency, logger.Component(log, "dispatcher"))
	service := app.NewBirthdayService(
		members,
		app.NewMatcher(cfg.NotifyLocalHour),
		dispatcher,
		logger.Component(log, "birthday_service"),
	)

	return &runtime{
		cfg:     cfg,
		log:     log,
		db:      db,
		members: members,
		service: service,
	}, nil
}

func newDeliverer(cfg *config.AppConfig, log *logrus.Logger) (notification.Deliverer, error) {
	if cfg.TelegramToken == "" {
		log.Warn("TELEGRAM_TOKEN is not set; greetings will only be logged")
		return app.NewLogDeliverer(logger.Component(log, "log_deliverer")), nil
	}
	bot, err := telegram.NewBot(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	log.WithField("bot", bot.Me.Username).Info("Telegram bot connected")
	return telegram.NewDeliverer(bot), nil
}

func (rt *runtime) Close() error {
	return rt.db.Close()
}
