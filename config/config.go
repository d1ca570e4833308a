package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/t1ery/ParrainageBot/internal/registration"
	"github.com/t1ery/ParrainageBot/internal/storage"
	"github.com/t1ery/ParrainageBot/internal/submission"
)

// DefaultPath - файл конфигурации, если CONFIG_PATH не задан
const DefaultPath = "config.yaml"

// Переменные окружения
const (
	EnvConfigPath = "CONFIG_PATH"
	EnvBotToken   = "BOT_TOKEN"
	EnvAPIBaseURL = "API_BASE_URL"
	EnvDebug      = "DEBUG"
)

// Структура для конфигурации
type Config struct {
	BotToken       string        `yaml:"BotToken"`
	Debug          bool          `yaml:"Debug"`
	APIBaseURL     string        `yaml:"APIBaseURL"`
	SubmitPath     string        `yaml:"SubmitPath"`
	RequestTimeout time.Duration `yaml:"RequestTimeout"`
	StorageDriver  string        `yaml:"StorageDriver"`
	StoragePath    string        `yaml:"StoragePath"`
	PhotoMaxSize   int64         `yaml:"PhotoMaxSize"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() Config {
	return Config{
		APIBaseURL:     submission.DefaultBaseURL,
		SubmitPath:     submission.DefaultSubmitPath,
		RequestTimeout: submission.DefaultTimeout,
		StorageDriver:  storage.DriverSQLite,
		StoragePath:    "data/" + storage.Name + ".db",
		PhotoMaxSize:   registration.MaxPhotoSize,
	}
}

// Path возвращает путь к файлу конфигурации
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// Load читает конфигурацию из YAML-файла и применяет переменные окружения.
// Отсутствующий файл не ошибка: остаются значения по умолчанию.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvBotToken); v != "" {
		c.BotToken = v
	}
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		c.APIBaseURL = v
	}
	if v := os.Getenv(EnvDebug); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDebug, err)
		}
		c.Debug = debug
	}
	return nil
}

// Validate проверяет обязательные значения
func (c Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BotToken is required (config file or %s)", EnvBotToken)
	}
	switch c.StorageDriver {
	case "", storage.DriverMemory, storage.DriverFile, storage.DriverSQLite:
	default:
		return fmt.Errorf("unknown StorageDriver %q", c.StorageDriver)
	}
	if c.RequestTimeout < 0 {
		return errors.New("RequestTimeout must not be negative")
	}
	if c.PhotoMaxSize < 0 {
		return errors.New("PhotoMaxSize must not be negative")
	}
	return nil
}

// PhotoPolicy - ограничения на фотографию из конфигурации
func (c Config) PhotoPolicy() registration.PhotoPolicy {
	p := registration.DefaultPhotoPolicy()
	if c.PhotoMaxSize > 0 {
		p.MaxSize = c.PhotoMaxSize
	}
	return p
}

// Submission - настройки клиента API
func (c Config) Submission() submission.Config {
	return submission.Config{
		BaseURL:    c.APIBaseURL,
		SubmitPath: c.SubmitPath,
		Timeout:    c.RequestTimeout,
	}
}
