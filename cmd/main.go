package main

import (
	"io"
	"os"
	"time"

	"github.com/go-telegram-bot-api/telegram-bot-api"
	"github.com/rs/zerolog"

	"github.com/t1ery/ParrainageBot/config"
	"github.com/t1ery/ParrainageBot/internal/bot"
	"github.com/t1ery/ParrainageBot/internal/storage"
	"github.com/t1ery/ParrainageBot/internal/submission"
	"github.com/t1ery/ParrainageBot/internal/wizard"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	// Здесь мы читаем токен и другие значения из файла конфигурации
	cfg, err := config.Load(config.Path())
	if err != nil {
		log.Fatal().Err(err).Msg("Не удалось загрузить конфигурацию")
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Создаем бота с использованием значений из конфигурации
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Не удалось подключиться к Telegram")
	}
	botAPI.Debug = cfg.Debug

	// Создание хранилища состояний анкет
	dataStorage, err := storage.New(cfg.StorageDriver, cfg.StoragePath)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Не удалось открыть хранилище")
	}
	if closer, ok := dataStorage.(io.Closer); ok {
		defer closer.Close()
	}

	store := wizard.NewStore(dataStorage, log)
	client := submission.NewClient(cfg.Submission(), log)
	notifier := bot.NewNotifier(botAPI, log)
	controller := wizard.NewController(store, client, notifier, log,
		wizard.WithPhotoPolicy(cfg.PhotoPolicy()))

	b := bot.NewBot(botAPI, controller, log)

	// Добавляем лог для сообщения о запуске бота
	log.Info().
		Str("storage", cfg.StorageDriver).
		Str("api", cfg.APIBaseURL).
		Msg("Бот запущен!")

	b.Run()
}
