package server

import (
	"errors"
	"net/http"
	"strings"

	"report_embed/internal/apperror"
	"report_embed/internal/models"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// index renders the landing page.
func (s *Server) index(c echo.Context) error {
	return c.Render(http.StatusOK, "index.html", pageData{Title: "Home"})
}

// embed resolves the configured report and renders the embed page.
func (s *Server) embed(c echo.Context) error {
	descriptor, err := s.service.GetReport(c.Request().Context(), s.powerBI.WorkspaceID, s.powerBI.ReportID)
	if err != nil {
		return err
	}

	noStore(c)
	return c.Render(http.StatusOK, "embed.html", pageData{
		Title: descriptor.Name,
		Body:  descriptor.ViewModel(),
	})
}

// embedInfo returns a fresh view model so the page can replace its embed
// token before it expires.
func (s *Server) embedInfo(c echo.Context) error {
	descriptor, err := s.service.GetReport(c.Request().Context(), s.powerBI.WorkspaceID, s.powerBI.ReportID)
	if err != nil {
		return err
	}

	noStore(c)
	return c.JSON(http.StatusOK, descriptor.ViewModel())
}

// errorPage renders the generic error page.
func (s *Server) errorPage(c echo.Context) error {
	noStore(c)
	return c.Render(http.StatusOK, "error.html", pageData{
		Title: "Error",
		Body: models.ErrorViewModel{
			RequestID: requestID(c),
			Message:   "An error occurred while processing your request.",
		},
	})
}

// handleError converts any error that reaches the router into the error page,
// or into a JSON body for API routes. Internal details never reach the client.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	id := requestID(c)
	status := apperror.HTTPStatus(err)
	message := userMessage(err)

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		message = http.StatusText(he.Code)
	}

	entry := s.logger.WithFields(logrus.Fields{
		"request_id": id,
		"status":     status,
		"path":       c.Request().URL.Path,
	}).WithError(err)
	if status >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request failed")
	}

	noStore(c)

	var respErr error
	switch {
	case c.Request().Method == http.MethodHead:
		respErr = c.NoContent(status)
	case strings.HasPrefix(c.Request().URL.Path, "/api/"):
		respErr = c.JSON(status, map[string]string{
			"error":      message,
			"request_id": id,
		})
	default:
		respErr = c.Render(status, "error.html", pageData{
			Title: "Error",
			Body: models.ErrorViewModel{
				RequestID: id,
				Status:    status,
				Message:   message,
			},
		})
	}
	if respErr != nil {
		s.logger.WithError(respErr).WithField("request_id", id).Error("Failed to write error response")
	}
}

func userMessage(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindNotFound:
		return "The requested report could not be found."
	case apperror.KindTransient:
		return "The reporting service is temporarily unavailable. Please try again later."
	}
	return "An error occurred while processing your request."
}

func requestID(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return c.Request().Header.Get(echo.HeaderXRequestID)
}

func noStore(c echo.Context) {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-cache, no-store")
	c.Response().Header().Set("Pragma", "no-cache")
}
