package config

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/viper"
)

// Config хранит все настройки приложения
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Generation GenerationConfig
	Engine     EngineConfig
	CORS       CORSConfig
}

// ServerConfig содержит настройки HTTP сервера
type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

// DatabaseConfig содержит настройки подключения к PostgreSQL
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int `mapstructure:"max_open_conns"`
	MaxIdleConns int `mapstructure:"max_idle_conns"`
}

// RedisConfig содержит унифицированные настройки подключения к Redis
// Поддерживает режимы: single, sentinel, cluster
type RedisConfig struct {
	// Mode: режим работы Redis ("single", "sentinel", "cluster"). По умолчанию "single".
	Mode string `mapstructure:"mode"`

	// Addrs: список адресов Redis (хост:порт). Используется для всех режимов.
	Addrs []string `mapstructure:"addrs"`

	// Addr: альтернативный адрес для режима 'single', если Addrs пустой.
	Addr string `mapstructure:"addr"`

	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`

	// MasterName: имя мастер-сервера Redis (только для режима "sentinel")
	MasterName string `mapstructure:"master_name"`
}

// JWTConfig содержит настройки проверки токенов
type JWTConfig struct {
	Secret        string `mapstructure:"secret"`
	ExpirationHrs int    `mapstructure:"expirationHrs"`
}

// GenerationConfig содержит настройки генерации вопросов
type GenerationConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"`
	ChatModel  string `mapstructure:"chat_model"`
	ImageModel string `mapstructure:"image_model"`
	TimeoutSec int    `mapstructure:"timeout_sec"`
}

// EngineConfig содержит настройки движка раунда
type EngineConfig struct {
	PerQuestionSeconds   int `mapstructure:"per_question_seconds"`
	LeadInSeconds        int `mapstructure:"lead_in_seconds"`
	ResultDisplaySeconds int `mapstructure:"result_display_seconds"`
	TimeFreezeSeconds    int `mapstructure:"time_freeze_seconds"`
	StrikeSeconds        int `mapstructure:"strike_seconds"`
}

// CORSConfig содержит настройки CORS
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Load загружает конфигурацию из файла и переменных окружения.
// Переменные окружения имеют приоритет над файлом; файл опционален.
func Load(configPath string) (*Config, error) {
	vip := viper.New()

	// Значения по умолчанию
	vip.SetDefault("server.port", "8080")
	vip.SetDefault("server.readtimeout", 10)
	vip.SetDefault("server.writetimeout", 10)
	vip.SetDefault("database.sslmode", "disable")
	vip.SetDefault("database.max_open_conns", 25)
	vip.SetDefault("database.max_idle_conns", 10)
	vip.SetDefault("jwt.expirationHrs", 24)
	vip.SetDefault("generation.base_url", "https://api.openai.com/v1")
	vip.SetDefault("generation.chat_model", "gpt-4o")
	vip.SetDefault("generation.image_model", "dall-e-3")
	vip.SetDefault("generation.timeout_sec", 30)
	vip.SetDefault("engine.per_question_seconds", 30)
	vip.SetDefault("engine.lead_in_seconds", 3)
	vip.SetDefault("engine.result_display_seconds", 3)
	vip.SetDefault("engine.time_freeze_seconds", 10)
	vip.SetDefault("engine.strike_seconds", 10)
	vip.SetDefault("cors.allowed_origins", []string{"*"})

	// Явная привязка переменных окружения
	vip.BindEnv("server.port", "SERVER_PORT")

	vip.BindEnv("database.host", "DATABASE_HOST")
	vip.BindEnv("database.port", "DATABASE_PORT")
	vip.BindEnv("database.user", "DATABASE_USER")
	vip.BindEnv("database.password", "DATABASE_PASSWORD")
	vip.BindEnv("database.dbname", "DATABASE_DBNAME")
	vip.BindEnv("database.sslmode", "DATABASE_SSLMODE")
	vip.BindEnv("database.max_open_conns", "DATABASE_MAX_OPEN_CONNS")
	vip.BindEnv("database.max_idle_conns", "DATABASE_MAX_IDLE_CONNS")

	vip.BindEnv("redis.mode", "REDIS_MODE")
	vip.BindEnv("redis.addrs", "REDIS_ADDRS")
	vip.BindEnv("redis.addr", "REDIS_ADDR")
	vip.BindEnv("redis.password", "REDIS_PASSWORD")
	vip.BindEnv("redis.db", "REDIS_DB")
	vip.BindEnv("redis.master_name", "REDIS_MASTER_NAME")

	vip.BindEnv("jwt.secret", "JWT_SECRET")
	vip.BindEnv("jwt.expirationHrs", "JWT_EXPIRATIONHRS")

	vip.BindEnv("generation.enabled", "GENERATION_ENABLED")
	vip.BindEnv("generation.api_key", "GENERATION_API_KEY")
	vip.BindEnv("generation.base_url", "GENERATION_BASE_URL")
	vip.BindEnv("generation.chat_model", "GENERATION_CHAT_MODEL")
	vip.BindEnv("generation.image_model", "GENERATION_IMAGE_MODEL")

	vip.BindEnv("engine.per_question_seconds", "ENGINE_PER_QUESTION_SECONDS")
	vip.BindEnv("engine.lead_in_seconds", "ENGINE_LEAD_IN_SECONDS")
	vip.BindEnv("engine.result_display_seconds", "ENGINE_RESULT_DISPLAY_SECONDS")

	vip.BindEnv("cors.allowed_origins", "CORS_ALLOWED_ORIGINS")

	// Файл конфигурации опционален: BindEnv покрывает все ключи
	if configPath != "" {
		vip.SetConfigFile(configPath)
		if err := vip.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok || os.IsNotExist(err) {
				log.Printf("[Config] Файл конфигурации %s не найден, используются окружение и дефолты", configPath)
			} else {
				return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
			}
		}
	}

	var cfg Config
	if err := vip.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	return &cfg, nil
}

// PostgresDSN собирает строку подключения к PostgreSQL
func (c *DatabaseConfig) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
