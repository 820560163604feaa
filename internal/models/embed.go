package models

import "time"

// EmbedDescriptor carries everything the browser needs to embed one report.
// It is built only from a fetched report and a generated embed token.
type EmbedDescriptor struct {
	ID         string
	Name       string
	EmbedURL   string
	Token      string
	Expiration time.Time
}

// NewEmbedDescriptor assembles a descriptor from report metadata and an
// embed token.
func NewEmbedDescriptor(id, name, embedURL, token string, expiration time.Time) *EmbedDescriptor {
	return &EmbedDescriptor{
		ID:         id,
		Name:       name,
		EmbedURL:   embedURL,
		Token:      token,
		Expiration: expiration,
	}
}

// ViewModel returns the client-visible form of the descriptor.
func (d *EmbedDescriptor) ViewModel() ViewModel {
	vm := ViewModel{
		ReportID:   d.ID,
		ReportName: d.Name,
		EmbedURL:   d.EmbedURL,
		Token:      d.Token,
	}
	if !d.Expiration.IsZero() {
		vm.Expiration = d.Expiration.UTC().Format(time.RFC3339)
	}
	return vm
}

// ViewModel is serialized into the embed page as window.viewModel.
type ViewModel struct {
	ReportID   string `json:"reportId"`
	ReportName string `json:"reportName"`
	EmbedURL   string `json:"embedUrl"`
	Token      string `json:"token"`
	Expiration string `json:"expiration,omitempty"`
}

// ErrorViewModel is rendered by the error page.
type ErrorViewModel struct {
	RequestID string
	Status    int
	Message   string
}

// ShowRequestID reports whether the page has a correlation id to display.
func (m ErrorViewModel) ShowRequestID() bool {
	return m.RequestID != ""
}
