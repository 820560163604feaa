// Package auth obtains application access tokens for the Power BI REST API.
//
// ClientCredentialsProvider performs the OAuth2 client-credentials grant
// against Azure AD on every call. CachingProvider wraps any provider and
// reuses a token until it is close to expiry.
package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"report_embed/internal/apperror"
	"report_embed/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// PowerBIScope is the default permission scope of the Power BI REST API.
const PowerBIScope = "https://analysis.windows.net/powerbi/api/.default"

// AccessToken is a bearer credential for the reporting API.
type AccessToken struct {
	Value     string
	ExpiresOn time.Time
}

// TokenProvider returns a currently valid access token.
type TokenProvider interface {
	AccessToken(ctx context.Context) (AccessToken, error)
}

// Invalidator is implemented by providers that keep a token between calls.
type Invalidator interface {
	Invalidate()
}

// ClientCredentialsProvider exchanges the application's client id and
// secret for an access token.
type ClientCredentialsProvider struct {
	config     clientcredentials.Config
	tenantID   string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewClientCredentialsProvider creates a provider for the configured tenant.
// An empty scope falls back to PowerBIScope; a nil httpClient uses the
// oauth2 package default.
func NewClientCredentialsProvider(identity config.Identity, scope string, httpClient *http.Client, logger *logrus.Logger) *ClientCredentialsProvider {
	if scope == "" {
		scope = PowerBIScope
	}
	return &ClientCredentialsProvider{
		config: clientcredentials.Config{
			ClientID:     identity.ClientID,
			ClientSecret: identity.ClientSecret,
			TokenURL:     identity.TokenURL(),
			Scopes:       []string{scope},
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		tenantID:   identity.TenantID,
		httpClient: httpClient,
		logger:     logger,
	}
}

// AccessToken performs one token request against the identity provider.
func (p *ClientCredentialsProvider) AccessToken(ctx context.Context) (AccessToken, error) {
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	tok, err := p.config.Token(ctx)
	if err != nil {
		fields := logrus.Fields{"tenant_id": p.tenantID}
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			fields["error_code"] = retrieveErr.ErrorCode
			if retrieveErr.Response != nil {
				fields["status"] = retrieveErr.Response.StatusCode
			}
		}
		p.logger.WithFields(fields).WithError(err).Error("Access token request rejected")
		return AccessToken{}, &apperror.AuthenticationError{Tenant: p.tenantID, Err: err}
	}
	if tok.AccessToken == "" {
		return AccessToken{}, &apperror.AuthenticationError{Tenant: p.tenantID, Err: errors.New("identity provider returned an empty access token")}
	}

	expiry := tok.Expiry
	if expiry.IsZero() {
		expiry = jwtExpiry(tok.AccessToken)
	}

	p.logger.WithFields(logrus.Fields{
		"tenant_id":  p.tenantID,
		"expires_on": expiry,
	}).Debug("Access token acquired")

	return AccessToken{Value: tok.AccessToken, ExpiresOn: expiry}, nil
}

// jwtExpiry reads the exp claim of an Azure AD access token without
// verifying it. It returns the zero time when the token is not a JWT.
func jwtExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

// NewTokenProviderFromConfig builds the provider used by the service: the
// client-credentials exchange, wrapped in a cache unless disabled.
func NewTokenProviderFromConfig(cfg config.Config, httpClient *http.Client, logger *logrus.Logger) TokenProvider {
	var provider TokenProvider = NewClientCredentialsProvider(cfg.Identity, cfg.PowerBI.Scope, httpClient, logger)
	if cfg.TokenCache.Enabled {
		provider = NewCachingProvider(provider, cfg.TokenCache.RenewalBuffer, logger)
	}
	return provider
}
