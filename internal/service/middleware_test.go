package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"report_embed/internal/apperror"
	"report_embed/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockEmbedService is a mock implementation of the EmbedService interface
type MockEmbedService struct {
	mock.Mock
}

func (m *MockEmbedService) GetReport(ctx context.Context, workspaceID, reportID string) (*models.EmbedDescriptor, error) {
	args := m.Called(ctx, workspaceID, reportID)
	descriptor, _ := args.Get(0).(*models.EmbedDescriptor)
	return descriptor, args.Error(1)
}

func TestLoggingMiddlewareSuccess(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	inner := new(MockEmbedService)
	descriptor := models.NewEmbedDescriptor(testReportID, "Sales", "https://app.powerbi.com/reportEmbed", "abc.def.ghi", time.Now().Add(time.Hour))
	inner.On("GetReport", mock.Anything, testWorkspaceID, testReportID).Return(descriptor, nil)

	svc := NewLoggingMiddleware(inner, logger)

	got, err := svc.GetReport(context.Background(), testWorkspaceID, testReportID)
	require.NoError(t, err)
	assert.Same(t, descriptor, got)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.InfoLevel, last.Level)
	assert.Equal(t, "Sales", last.Data["report_name"])

	for _, entry := range hook.AllEntries() {
		line, err := entry.String()
		require.NoError(t, err)
		assert.NotContains(t, line, "abc.def.ghi")
	}
}

func TestLoggingMiddlewareFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()

	inner := new(MockEmbedService)
	upstream := &apperror.UpstreamAPIError{Kind: apperror.KindNotFound, Operation: "get report", StatusCode: 404}
	inner.On("GetReport", mock.Anything, testWorkspaceID, testReportID).Return(nil, upstream)

	svc := NewLoggingMiddleware(inner, logger)

	got, err := svc.GetReport(context.Background(), testWorkspaceID, testReportID)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, upstream)

	last := hook.LastEntry()
	require.NotNil(t, last)
	assert.Equal(t, logrus.WarnLevel, last.Level)
	assert.Equal(t, apperror.KindNotFound, last.Data["error_kind"])
	assert.Equal(t, testWorkspaceID, fmt.Sprint(last.Data["workspace_id"]))
}

func TestLoggingMiddlewareFailureLevels(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantLevel logrus.Level
	}{
		{
			name:      "not found",
			err:       &apperror.UpstreamAPIError{Kind: apperror.KindNotFound, Operation: "get report", StatusCode: 404},
			wantLevel: logrus.WarnLevel,
		},
		{
			name:      "transient",
			err:       &apperror.UpstreamAPIError{Kind: apperror.KindTransient, Operation: "get report", StatusCode: 503},
			wantLevel: logrus.ErrorLevel,
		},
		{
			name:      "forbidden",
			err:       &apperror.UpstreamAPIError{Kind: apperror.KindForbidden, Operation: "generate embed token", StatusCode: 403},
			wantLevel: logrus.ErrorLevel,
		},
		{
			name:      "authentication",
			err:       &apperror.AuthenticationError{Tenant: "contoso", Err: fmt.Errorf("invalid_client")},
			wantLevel: logrus.ErrorLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, hook := test.NewNullLogger()

			inner := new(MockEmbedService)
			inner.On("GetReport", mock.Anything, testWorkspaceID, testReportID).Return(nil, tt.err)

			_, err := NewLoggingMiddleware(inner, logger).GetReport(context.Background(), testWorkspaceID, testReportID)
			require.Error(t, err)

			last := hook.LastEntry()
			require.NotNil(t, last)
			assert.Equal(t, tt.wantLevel, last.Level)
		})
	}
}
