package config

import (
	"errors"
	"testing"
	"time"

	"report_embed/internal/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testWorkspaceID = "11111111-1111-1111-1111-111111111111"
	testReportID    = "22222222-2222-2222-2222-222222222222"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_POWERBI_WORKSPACE_ID", testWorkspaceID)
	t.Setenv("APP_POWERBI_REPORT_ID", testReportID)
	t.Setenv("APP_IDENTITY_TENANT_ID", "contoso.onmicrosoft.com")
	t.Setenv("APP_IDENTITY_CLIENT_ID", "client-id")
	t.Setenv("APP_IDENTITY_CLIENT_SECRET", "s3cr3t")
}

func TestLoadFromEnvironment(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_POWERBI_REQUEST_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testWorkspaceID, cfg.PowerBI.WorkspaceID)
	assert.Equal(t, testReportID, cfg.PowerBI.ReportID)
	assert.Equal(t, "https://api.powerbi.com", cfg.PowerBI.ServiceRootURL)
	assert.Equal(t, "https://analysis.windows.net/powerbi/api/.default", cfg.PowerBI.Scope)
	assert.Equal(t, 3*time.Second, cfg.PowerBI.RequestTimeout)
	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.True(t, cfg.TokenCache.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.TokenCache.RenewalBuffer)
	assert.Equal(t, "https://login.microsoftonline.com/contoso.onmicrosoft.com/oauth2/v2.0/token", cfg.Identity.TokenURL())
}

func TestLoadMissingWorkspaceID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_POWERBI_WORKSPACE_ID", "")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *apperror.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "powerbi.workspace_id", cfgErr.Key)
}

func TestLoadMalformedReportID(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_POWERBI_REPORT_ID", "not-a-guid")

	_, err := Load()

	var cfgErr *apperror.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "powerbi.report_id", cfgErr.Key)
}

func TestLoadRelativeServiceRootURL(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_POWERBI_SERVICE_ROOT_URL", "api.powerbi.com")

	_, err := Load()

	var cfgErr *apperror.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "powerbi.service_root_url", cfgErr.Key)
}

func TestLoadMissingClientSecret(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_IDENTITY_CLIENT_SECRET", "")

	_, err := Load()

	var cfgErr *apperror.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "identity.client_secret", cfgErr.Key)
}

func TestStringHidesSecret(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.NotContains(t, cfg.String(), "s3cr3t")
	assert.Contains(t, cfg.String(), "[HIDDEN]")
}
