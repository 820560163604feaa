package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"report_embed/internal/config"
	"report_embed/internal/di"
	"report_embed/internal/server"

	"github.com/sirupsen/logrus"
	"go.uber.org/fx"
)

func main() {
	var cfg config.Config

	app := fx.New(
		// Поставщики зависимостей
		di.Module,

		// Хуки жизненного цикла
		fx.Invoke(registerLifecycleHooks),
		fx.Populate(&cfg),
	)

	// Запуск приложения с остановкой
	runWithGracefulShutdown(app, &cfg)
}

// registerLifecycleHooks настраивает хуки жизненного цикла приложения
func registerLifecycleHooks(
	srv server.HTTPServer,
	cfg config.Config,
	logger *logrus.Logger,
	lc fx.Lifecycle,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			logger.WithField("config", cfg.String()).Info("Запуск сервиса встраивания отчетов")
			go func() {
				if err := srv.Start(cfg.Server.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.WithError(err).Error("Не удалось запустить HTTP сервер")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Завершение работы HTTP сервера")
			return srv.Shutdown(ctx)
		},
	})
}

// runWithGracefulShutdown обрабатывает жизненный цикл приложения с обработкой сигналов
func runWithGracefulShutdown(app *fx.App, cfg *config.Config) {
	if err := app.Err(); err != nil {
		logrus.WithError(err).Fatal("Не удалось собрать приложение")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Настраиваем обработку сигналов
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	startCtx, startCancel := context.WithTimeout(ctx, 15*time.Second)
	defer startCancel()

	if err := app.Start(startCtx); err != nil {
		logrus.WithError(err).Fatal("Не удалось запустить приложение")
	}

	// Ожидаем сигнал завершения
	<-quit
	logrus.Info("Получен сигнал завершения работы")

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	stopCtx, stopCancel := context.WithTimeout(context.Background(), timeout)
	defer stopCancel()

	if err := app.Stop(stopCtx); err != nil {
		logrus.WithError(err).Error("Ошибка при завершении работы")
		os.Exit(1)
	}

	logrus.Info("Сервис встраивания отчетов остановлен корректно")
}
