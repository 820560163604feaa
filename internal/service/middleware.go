package service

import (
	"context"
	"net/http"
	"time"

	"report_embed/internal/apperror"
	"report_embed/internal/models"

	"github.com/sirupsen/logrus"
)

// LoggingMiddleware добавляет логирование к получению данных встраивания
type LoggingMiddleware struct {
	service EmbedService
	logger  *logrus.Logger
}

// NewLoggingMiddleware создает новый logging middleware
func NewLoggingMiddleware(service EmbedService, logger *logrus.Logger) EmbedService {
	return &LoggingMiddleware{
		service: service,
		logger:  logger,
	}
}

// GetReport логирует получение отчета. Значения токенов в лог не попадают.
func (m *LoggingMiddleware) GetReport(ctx context.Context, workspaceID, reportID string) (*models.EmbedDescriptor, error) {
	start := time.Now()
	logger := m.logger.WithFields(logrus.Fields{
		"operation":    "get_report",
		"workspace_id": workspaceID,
		"report_id":    reportID,
	})

	logger.Debug("Начало получения данных встраивания")

	descriptor, err := m.service.GetReport(ctx, workspaceID, reportID)

	duration := time.Since(start)
	if err != nil {
		entry := logger.WithError(err).WithField("duration", duration)
		if kind := apperror.KindOf(err); kind != "" {
			entry = entry.WithField("error_kind", kind)
		}
		// Уровень совпадает с уровнем обработчика ошибок HTTP
		if apperror.HTTPStatus(err) >= http.StatusInternalServerError {
			entry.Error("Ошибка получения данных встраивания")
		} else {
			entry.Warn("Ошибка получения данных встраивания")
		}
		return nil, err
	}

	fields := logrus.Fields{
		"duration":    duration,
		"report_name": descriptor.Name,
	}
	if !descriptor.Expiration.IsZero() {
		fields["token_expiration"] = descriptor.Expiration
	}
	logger.WithFields(fields).Info("Данные встраивания получены успешно")

	return descriptor, nil
}
