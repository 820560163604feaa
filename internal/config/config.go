package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"report_embed/internal/apperror"

	"github.com/google/uuid"
	"github.com/spf13/viper"
)

// Server содержит настройки HTTP-сервера.
type Server struct {
	Address         string        `mapstructure:"address"`
	Debug           bool          `mapstructure:"debug"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// PowerBI описывает встраиваемый отчет и REST API Power BI.
type PowerBI struct {
	WorkspaceID    string        `mapstructure:"workspace_id"`
	ReportID       string        `mapstructure:"report_id"`
	ServiceRootURL string        `mapstructure:"service_root_url"`
	Scope          string        `mapstructure:"scope"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

// Identity содержит учетные данные приложения в Azure AD.
type Identity struct {
	AuthorityHost string `mapstructure:"authority_host"`
	TenantID      string `mapstructure:"tenant_id"`
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
}

// TokenURL возвращает адрес token endpoint для client credentials.
func (i Identity) TokenURL() string {
	return strings.TrimRight(i.AuthorityHost, "/") + "/" + url.PathEscape(i.TenantID) + "/oauth2/v2.0/token"
}

// TokenCache настраивает кеширование access token.
type TokenCache struct {
	Enabled       bool          `mapstructure:"enabled"`
	RenewalBuffer time.Duration `mapstructure:"renewal_buffer"`
}

// Logging содержит настройки логирования.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Config объединяет все разделы конфигурации.
type Config struct {
	Server     Server     `mapstructure:"server"`
	PowerBI    PowerBI    `mapstructure:"powerbi"`
	Identity   Identity   `mapstructure:"identity"`
	TokenCache TokenCache `mapstructure:"token_cache"`
	Logging    Logging    `mapstructure:"logging"`
}

// Load читает конфигурацию из файла и окружения с помощью viper.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/report-embed")

	// Настройка для environment variables
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnvironmentVariables(v)

	// Файл конфигурации опционален
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, apperror.NewConfigurationError("config", "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, apperror.NewConfigurationError("config", "failed to unmarshal config", err)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// setDefaults устанавливает значения по умолчанию
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.debug", false)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Power BI defaults
	v.SetDefault("powerbi.service_root_url", "https://api.powerbi.com")
	v.SetDefault("powerbi.scope", "https://analysis.windows.net/powerbi/api/.default")
	v.SetDefault("powerbi.request_timeout", 15*time.Second)

	// Identity defaults
	v.SetDefault("identity.authority_host", "https://login.microsoftonline.com")

	// Token cache defaults
	v.SetDefault("token_cache.enabled", true)
	v.SetDefault("token_cache.renewal_buffer", 5*time.Minute)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// bindEnvironmentVariables привязывает переменные окружения к конфигурации
func bindEnvironmentVariables(v *viper.Viper) {
	// Server
	v.BindEnv("server.address", "APP_SERVER_ADDRESS")
	v.BindEnv("server.debug", "APP_SERVER_DEBUG")
	v.BindEnv("server.shutdown_timeout", "APP_SERVER_SHUTDOWN_TIMEOUT")

	// Power BI
	v.BindEnv("powerbi.workspace_id", "APP_POWERBI_WORKSPACE_ID")
	v.BindEnv("powerbi.report_id", "APP_POWERBI_REPORT_ID")
	v.BindEnv("powerbi.service_root_url", "APP_POWERBI_SERVICE_ROOT_URL")
	v.BindEnv("powerbi.scope", "APP_POWERBI_SCOPE")
	v.BindEnv("powerbi.request_timeout", "APP_POWERBI_REQUEST_TIMEOUT")

	// Identity
	v.BindEnv("identity.authority_host", "APP_IDENTITY_AUTHORITY_HOST")
	v.BindEnv("identity.tenant_id", "APP_IDENTITY_TENANT_ID")
	v.BindEnv("identity.client_id", "APP_IDENTITY_CLIENT_ID")
	v.BindEnv("identity.client_secret", "APP_IDENTITY_CLIENT_SECRET")

	// Token cache
	v.BindEnv("token_cache.enabled", "APP_TOKEN_CACHE_ENABLED")
	v.BindEnv("token_cache.renewal_buffer", "APP_TOKEN_CACHE_RENEWAL_BUFFER")

	// Logging
	v.BindEnv("logging.level", "APP_LOGGING_LEVEL")
	v.BindEnv("logging.format", "APP_LOGGING_FORMAT")
}

// validateConfig проверяет корректность конфигурации
func validateConfig(cfg Config) error {
	if cfg.Server.Address == "" {
		return apperror.NewConfigurationError("server.address", "cannot be empty", nil)
	}

	// Идентификаторы отчета обязательны и должны быть UUID
	if err := validateID("powerbi.workspace_id", cfg.PowerBI.WorkspaceID); err != nil {
		return err
	}
	if err := validateID("powerbi.report_id", cfg.PowerBI.ReportID); err != nil {
		return err
	}
	if err := validateURL("powerbi.service_root_url", cfg.PowerBI.ServiceRootURL); err != nil {
		return err
	}
	if cfg.PowerBI.Scope == "" {
		return apperror.NewConfigurationError("powerbi.scope", "cannot be empty", nil)
	}
	if cfg.PowerBI.RequestTimeout <= 0 {
		return apperror.NewConfigurationError("powerbi.request_timeout", "must be positive", nil)
	}

	// Учетные данные приложения
	if err := validateURL("identity.authority_host", cfg.Identity.AuthorityHost); err != nil {
		return err
	}
	if cfg.Identity.TenantID == "" {
		return apperror.NewConfigurationError("identity.tenant_id", "cannot be empty", nil)
	}
	if cfg.Identity.ClientID == "" {
		return apperror.NewConfigurationError("identity.client_id", "cannot be empty", nil)
	}
	if cfg.Identity.ClientSecret == "" {
		return apperror.NewConfigurationError("identity.client_secret", "cannot be empty", nil)
	}

	if cfg.TokenCache.RenewalBuffer < 0 {
		return apperror.NewConfigurationError("token_cache.renewal_buffer", "cannot be negative", nil)
	}

	// Проверка уровня логирования
	validLogLevels := []string{"debug", "info", "warn", "error", "fatal", "panic"}
	isValidLevel := false
	for _, level := range validLogLevels {
		if strings.ToLower(cfg.Logging.Level) == level {
			isValidLevel = true
			break
		}
	}
	if !isValidLevel {
		return apperror.NewConfigurationError("logging.level",
			fmt.Sprintf("invalid level %q, valid levels: %v", cfg.Logging.Level, validLogLevels), nil)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return apperror.NewConfigurationError("logging.format", "must be 'text' or 'json', got: "+cfg.Logging.Format, nil)
	}

	return nil
}

func validateID(key, value string) error {
	if value == "" {
		return apperror.NewConfigurationError(key, "cannot be empty", nil)
	}
	if _, err := uuid.Parse(value); err != nil {
		return apperror.NewConfigurationError(key, "must be a UUID", err)
	}
	return nil
}

func validateURL(key, value string) error {
	if value == "" {
		return apperror.NewConfigurationError(key, "cannot be empty", nil)
	}
	u, err := url.Parse(value)
	if err != nil {
		return apperror.NewConfigurationError(key, "must be a URL", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperror.NewConfigurationError(key, "must be an absolute http(s) URL", nil)
	}
	return nil
}

// IsDevelopment возвращает true, если приложение запущено в режиме разработки
func (c Config) IsDevelopment() bool {
	return c.Server.Debug
}

// String возвращает строковое представление конфигурации (без чувствительных данных)
func (c Config) String() string {
	return fmt.Sprintf("Config{Server: %+v, PowerBI: %+v, Identity: {AuthorityHost: %s, TenantID: %s, ClientID: %s, ClientSecret: [HIDDEN]}, TokenCache: %+v, Logging: %+v}",
		c.Server, c.PowerBI, c.Identity.AuthorityHost, c.Identity.TenantID, c.Identity.ClientID, c.TokenCache, c.Logging)
}
