package templates

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/jonathan/resume-builder/internal/schemas"
)

// DefaultTimeout bounds a remote listing request.
const DefaultTimeout = 5 * time.Second

const maxListingBytes = 1 << 20

// Source lists templates from somewhere other than the built-in set.
type Source interface {
	Templates(ctx context.Context) ([]Template, error)
}

// SourceError represents a failure to obtain a remote listing.
type SourceError struct {
	URL     string
	Message string
	Cause   error
}

func (e *SourceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("template source %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("template source %s: %s", e.URL, e.Message)
}

func (e *SourceError) Unwrap() error {
	return e.Cause
}

// HTTPSource fetches a JSON template listing. The payload is an array of
// rows shaped like {id, name, description, template_data{layout, colors},
// is_premium}.
type HTTPSource struct {
	URL     string
	Client  *http.Client
	Timeout time.Duration
	Headers map[string]string
}

type remoteTemplate struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description"`
	TemplateData Style   `json:"template_data"`
	IsPremium    *bool   `json:"is_premium"`
}

// Templates implements Source.
func (s *HTTPSource) Templates(ctx context.Context) ([]Template, error) {
	parsed, err := url.Parse(s.URL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, &SourceError{URL: s.URL, Message: "invalid URL", Cause: err}
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL, nil)
	if err != nil {
		return nil, &SourceError{URL: s.URL, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")
	for key, value := range s.Headers {
		req.Header.Set(key, value)
	}

	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, &SourceError{URL: s.URL, Message: "HTTP request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &SourceError{URL: s.URL, Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxListingBytes))
	if err != nil {
		return nil, &SourceError{URL: s.URL, Message: "failed to read response body", Cause: err}
	}

	return decodeListing(s.URL, body)
}

func decodeListing(source string, body []byte) ([]Template, error) {
	if err := schemas.Validate(schemas.Templates, body); err != nil {
		return nil, &SourceError{URL: source, Message: "listing does not match schema", Cause: err}
	}

	var rows []remoteTemplate
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, &SourceError{URL: source, Message: "failed to decode listing", Cause: err}
	}

	out := make([]Template, 0, len(rows))
	for _, row := range rows {
		t := Template{
			ID:    row.ID,
			Name:  row.Name,
			Style: row.TemplateData.withDefaults(),
		}
		if row.Description != nil {
			t.Description = *row.Description
		}
		if row.IsPremium != nil {
			t.Premium = *row.IsPremium
		}
		out = append(out, t)
	}
	return out, nil
}
