// Package powerbi is a minimal client for the Power BI REST API covering the
// two operations needed to embed a report: reading report metadata and
// generating an embed token.
package powerbi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"report_embed/internal/apperror"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

const (
	// maxErrorBody limits how much of an error response is read.
	maxErrorBody = 64 << 10

	requestIDHeader = "RequestId"
)

// Report is the subset of report metadata used for embedding.
type Report struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	WebURL     string `json:"webUrl"`
	EmbedURL   string `json:"embedUrl"`
	DatasetID  string `json:"datasetId"`
	ReportType string `json:"reportType,omitempty"`
}

// TokenAccessLevel is the permission granted by an embed token.
type TokenAccessLevel string

// AccessLevelView grants read-only access to the report.
const AccessLevelView TokenAccessLevel = "View"

// GenerateTokenRequest is the body of the GenerateToken call.
type GenerateTokenRequest struct {
	AccessLevel TokenAccessLevel `json:"accessLevel"`
	DatasetID   string           `json:"datasetId,omitempty"`
}

// EmbedToken is a viewer credential for one report.
type EmbedToken struct {
	Token      string    `json:"token"`
	TokenID    string    `json:"tokenId"`
	Expiration time.Time `json:"expiration"`
}

// Client calls the Power BI REST API with a bearer access token. A Client is
// bound to one token and is cheap to create per request.
type Client struct {
	baseURL     *url.URL
	accessToken string
	httpClient  *http.Client
	timeout     time.Duration
}

// NewClient creates a client for the API rooted at baseURL. timeout bounds
// each call; zero leaves only the caller's context.
func NewClient(baseURL *url.URL, accessToken string, httpClient *http.Client, timeout time.Duration) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  httpClient,
		timeout:     timeout,
	}
}

// GetReportInGroup returns the report reportID from workspace groupID.
func (c *Client) GetReportInGroup(ctx context.Context, groupID, reportID uuid.UUID) (*Report, error) {
	var report Report
	p := fmt.Sprintf("v1.0/myorg/groups/%s/reports/%s", groupID, reportID)
	if err := c.do(ctx, "get report", http.MethodGet, p, nil, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// GenerateTokenInGroup generates an embed token for reportID in workspace groupID.
func (c *Client) GenerateTokenInGroup(ctx context.Context, groupID, reportID uuid.UUID, req GenerateTokenRequest) (*EmbedToken, error) {
	var token EmbedToken
	p := fmt.Sprintf("v1.0/myorg/groups/%s/reports/%s/GenerateToken", groupID, reportID)
	if err := c.do(ctx, "generate embed token", http.MethodPost, p, req, &token); err != nil {
		return nil, err
	}
	return &token, nil
}

func (c *Client) do(ctx context.Context, op, method, p string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(data)
	}

	u := *c.baseURL
	u.Path = path.Join("/", u.Path, p)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &apperror.UpstreamAPIError{
			Kind:       apperror.KindUnknown,
			Operation:  op,
			StatusCode: resp.StatusCode,
			Message:    "malformed response body",
			RequestID:  resp.Header.Get(requestIDHeader),
			Err:        err,
		}
	}
	return nil
}

// transportError classifies a failure that produced no HTTP response. Timeouts
// and network errors are transient; cancellation by the caller is not.
func transportError(op string, err error) error {
	kind := apperror.KindTransient
	if errors.Is(err, context.Canceled) {
		kind = apperror.KindUnknown
	}
	return &apperror.UpstreamAPIError{Kind: kind, Operation: op, Err: err}
}

// statusError builds an UpstreamAPIError from a non-2xx response. Power BI
// reports failures as {"error":{"code":..,"message":..}}, sometimes with the
// detail nested under "pbi.error".
func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	code := gjson.GetBytes(raw, "error.code").String()
	if nested := gjson.GetBytes(raw, `error.pbi\.error.code`).String(); nested != "" {
		code = nested
	}
	message := gjson.GetBytes(raw, "error.message").String()

	return &apperror.UpstreamAPIError{
		Kind:       apperror.KindForStatus(resp.StatusCode),
		Operation:  op,
		StatusCode: resp.StatusCode,
		Code:       code,
		Message:    message,
		RequestID:  resp.Header.Get(requestIDHeader),
	}
}
