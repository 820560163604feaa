package di

import (
	"net/http"
	"time"

	"report_embed/internal/auth"
	"report_embed/internal/config"
	"report_embed/internal/server"
	"report_embed/internal/service"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

// Core предоставляет всё, кроме HTTP сервера: конфигурацию, логгер,
// HTTP клиент, провайдер токенов и сервис встраивания.
var Core = fx.Options(
	fx.Provide(
		config.Load,
		NewLogger,
		NewHTTPClient,
		auth.NewTokenProviderFromConfig,
		service.NewEmbedServiceFromConfig,
	),
)

// Module собирает всё приложение вместе с HTTP сервером.
var Module = fx.Options(
	Core,
	fx.Provide(
		fx.Annotate(server.NewServer, fx.As(new(server.HTTPServer))),
	),
)

// NewLogger создает и настраивает логгер на основе конфигурации
func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
		logger.WithError(err).Warn("Неверный уровень логирования, используется info")
	}
	logger.SetLevel(level)

	switch cfg.Logging.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.RFC3339,
		})
	}

	return logger
}

// NewHTTPClient возвращает общий клиент для обмена учетных данных и вызовов
// Power BI. Таймаут ограничивает каждый исходящий запрос.
func NewHTTPClient(cfg config.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 10

	return &http.Client{
		Transport: transport,
		Timeout:   cfg.PowerBI.RequestTimeout,
	}
}
