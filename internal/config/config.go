// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// minSecretLen — минимальная длина секрета подписи токенов в байтах.
const minSecretLen = 32

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	Hash      HashConfig      `yaml:"hash"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"15s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"50070"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"168h"`
	Issuer         string        `yaml:"issuer"   env:"ISSUER" env-default:"go-service-template"`
	Audience       []string      `yaml:"audience" env:"AUDIENCE" env-default:"web"`
}

// HashConfig — параметры стоимости argon2id.
type HashConfig struct {
	MemoryKiB   uint32 `yaml:"memory_kib"  env:"HASH_MEMORY_KIB"  env-default:"65536"`
	Time        uint32 `yaml:"time"        env:"HASH_TIME"        env-default:"1"`
	Parallelism uint8  `yaml:"parallelism" env:"HASH_PARALLELISM" env-default:"4"`
	SaltLen     uint32 `yaml:"salt_len"    env:"HASH_SALT_LEN"    env-default:"16"`
	KeyLen      uint32 `yaml:"key_len"     env:"HASH_KEY_LEN"     env-default:"32"`
}

// RateLimitPolicy — лимит запросов на ключ в пределах окна.
type RateLimitPolicy struct {
	Limit  int           `yaml:"limit"`
	Window time.Duration `yaml:"window"`
}

// RateLimitConfig — политики ограничения частоты запросов.
// Global применяется ко всем маршрутам, Auth — дополнительно
// к login/register (срабатывает более строгая из двух).
type RateLimitConfig struct {
	Global RateLimitPolicy `yaml:"global"`
	Auth   RateLimitPolicy `yaml:"auth"`
}

// CORSConfig — настройки кросс-доменных запросов браузера.
// "*" в allowed_origins разрешает любой источник.
type CORSConfig struct {
	AllowedOrigins   []string `yaml:"allowed_origins"   env:"CORS_ALLOWED_ORIGINS"   env-default:"*"`
	AllowedHeaders   []string `yaml:"allowed_headers"   env:"CORS_ALLOWED_HEADERS"   env-default:"Origin,Content-Type,Accept,Authorization,X-Request-Id"`
	ExposedHeaders   []string `yaml:"exposed_headers"   env:"CORS_EXPOSED_HEADERS"   env-default:"X-Request-Id"`
	AllowCredentials bool     `yaml:"allow_credentials" env:"CORS_ALLOW_CREDENTIALS" env-default:"false"`
	MaxAgeSeconds    int      `yaml:"max_age_seconds"   env:"CORS_MAX_AGE_SECONDS"   env-default:"300"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — опциональное внешнее хранилище счётчиков rate limiter.
// Пустой URL означает per-process счётчики в памяти.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// ВАЖНО: после чтения файла накладываем ENV-переменные поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	load := func() (*Config, error) {
		// 1) Явный путь.
		if path != "" {
			return tryRead(path)
		}

		// 2) CONFIG_PATH.
		if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
			return tryRead(envPath)
		}

		// 3) ./local.yaml.
		if _, err := os.Stat("local.yaml"); err == nil {
			return tryRead("local.yaml")
		}

		// 4) Только ENV.
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}

		return &cfg, nil
	}

	c, err := load()
	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate проверяет инварианты, которые cleanenv не выражает тегами.
func (c *Config) validate() error {
	if len(c.Auth.JWTSecret) < minSecretLen {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", minSecretLen)
	}

	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("auth.access_token_ttl must be positive")
	}

	if c.RateLimit.Global.Limit <= 0 {
		c.RateLimit.Global = RateLimitPolicy{Limit: 100, Window: time.Minute}
	}

	if c.RateLimit.Auth.Limit <= 0 {
		c.RateLimit.Auth = RateLimitPolicy{Limit: 2, Window: time.Second}
	}

	if c.RateLimit.Global.Window <= 0 || c.RateLimit.Auth.Window <= 0 {
		return fmt.Errorf("rate_limit windows must be positive")
	}

	return nil
}
