package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"report_embed/internal/apperror"
	"report_embed/internal/auth"
	"report_embed/internal/config"
	"report_embed/internal/models"
	"report_embed/internal/powerbi"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EmbedService интерфейс для получения данных встраивания отчета
type EmbedService interface {
	GetReport(ctx context.Context, workspaceID, reportID string) (*models.EmbedDescriptor, error)
}

// ReportsAPI операции Power BI REST API, нужные для встраивания
type ReportsAPI interface {
	GetReportInGroup(ctx context.Context, groupID, reportID uuid.UUID) (*powerbi.Report, error)
	GenerateTokenInGroup(ctx context.Context, groupID, reportID uuid.UUID, req powerbi.GenerateTokenRequest) (*powerbi.EmbedToken, error)
}

// ClientFactory создает клиент API, привязанный к access token
type ClientFactory func(baseURL *url.URL, accessToken string) ReportsAPI

// EmbedServiceImpl реализация сервиса встраивания отчетов
type EmbedServiceImpl struct {
	tokens         auth.TokenProvider
	newClient      ClientFactory
	serviceRootURL string
	logger         *logrus.Logger
}

// NewEmbedService создает новый сервис встраивания
func NewEmbedService(
	tokens auth.TokenProvider,
	newClient ClientFactory,
	serviceRootURL string,
	logger *logrus.Logger,
) EmbedService {
	return &EmbedServiceImpl{
		tokens:         tokens,
		newClient:      newClient,
		serviceRootURL: serviceRootURL,
		logger:         logger,
	}
}

// NewPowerBIClientFactory возвращает фабрику клиентов Power BI с общим http.Client
func NewPowerBIClientFactory(httpClient *http.Client, timeout time.Duration) ClientFactory {
	return func(baseURL *url.URL, accessToken string) ReportsAPI {
		return powerbi.NewClient(baseURL, accessToken, httpClient, timeout)
	}
}

// GetReport получает метаданные отчета и embed token только для просмотра.
// Дескриптор возвращается только если оба вызова API завершились успешно.
func (s *EmbedServiceImpl) GetReport(ctx context.Context, workspaceID, reportID string) (*models.EmbedDescriptor, error) {
	groupID, err := uuid.Parse(workspaceID)
	if err != nil {
		return nil, apperror.NewConfigurationError("powerbi.workspace_id", "must be a UUID", err)
	}
	repID, err := uuid.Parse(reportID)
	if err != nil {
		return nil, apperror.NewConfigurationError("powerbi.report_id", "must be a UUID", err)
	}
	baseURL, err := s.parseServiceRootURL()
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.AccessToken(ctx)
	if err != nil {
		var authErr *apperror.AuthenticationError
		if !errors.As(err, &authErr) {
			err = &apperror.AuthenticationError{Err: err}
		}
		return nil, err
	}

	client := s.newClient(baseURL, token.Value)

	report, err := client.GetReportInGroup(ctx, groupID, repID)
	if err != nil {
		s.invalidateOnUnauthorized(err)
		return nil, err
	}

	embedToken, err := client.GenerateTokenInGroup(ctx, groupID, repID, powerbi.GenerateTokenRequest{
		AccessLevel: powerbi.AccessLevelView,
		DatasetID:   report.DatasetID,
	})
	if err != nil {
		s.invalidateOnUnauthorized(err)
		return nil, err
	}

	if report.ID == "" || report.EmbedURL == "" || embedToken.Token == "" {
		return nil, &apperror.UpstreamAPIError{
			Kind:      apperror.KindUnknown,
			Operation: "assemble embed descriptor",
			Message:   "reporting API returned an incomplete response",
		}
	}

	return models.NewEmbedDescriptor(report.ID, report.Name, report.EmbedURL, embedToken.Token, embedToken.Expiration), nil
}

func (s *EmbedServiceImpl) parseServiceRootURL() (*url.URL, error) {
	u, err := url.Parse(s.serviceRootURL)
	if err != nil {
		return nil, apperror.NewConfigurationError("powerbi.service_root_url", "must be a URL", err)
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, apperror.NewConfigurationError("powerbi.service_root_url", fmt.Sprintf("must be absolute, got %q", s.serviceRootURL), nil)
	}
	return u, nil
}

// invalidateOnUnauthorized сбрасывает кешированный токен, если API отклонил его
func (s *EmbedServiceImpl) invalidateOnUnauthorized(err error) {
	if !apperror.IsUnauthorized(err) {
		return
	}
	if inv, ok := s.tokens.(auth.Invalidator); ok {
		s.logger.Warn("Power BI API отклонил access token, кеш токена сброшен")
		inv.Invalidate()
	}
}

// NewEmbedServiceFromConfig создает полностью настроенный сервис встраивания
func NewEmbedServiceFromConfig(cfg config.Config, tokens auth.TokenProvider, httpClient *http.Client, logger *logrus.Logger) EmbedService {
	factory := NewPowerBIClientFactory(httpClient, cfg.PowerBI.RequestTimeout)
	svc := NewEmbedService(tokens, factory, cfg.PowerBI.ServiceRootURL, logger)
	return NewLoggingMiddleware(svc, logger)
}
