// Package remote implements the validation service over HTTP. Each
// operation posts its request payload as JSON to a fixed path under the
// configured base URL and returns the raw response body; decoding and
// normalization belong to the validation package. Construction helpers live
// in the top-level formflow package.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/formflow/pkg/validation"
)

// Options carries pre-resolved construction parameters.
type Options struct {
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
	AuthToken      string
}

// Service posts validation operations to a remote endpoint.
type Service struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	token   string
}

var _ validation.Service = (*Service)(nil)

// New constructs a Service from pre-resolved options.
func New(options Options) (*Service, error) {
	if options.BaseURL == "" {
		return nil, errors.New("remote: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(options.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("remote: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("remote: unsupported scheme %q", base.Scheme)
	}

	timeout := options.RequestTimeout
	var httpClient *http.Client
	if options.HTTPClient != nil {
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	} else {
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Service{
		base:    base,
		http:    httpClient,
		timeout: timeout,
		token:   options.AuthToken,
	}, nil
}

// ValidateSection posts to the validateSection endpoint.
func (s *Service) ValidateSection(ctx context.Context, req validation.SectionRequest) ([]byte, error) {
	return s.post(ctx, "validateSection", req)
}

// ValidateForm posts to the validateForm endpoint.
func (s *Service) ValidateForm(ctx context.Context, req validation.FormRequest) ([]byte, error) {
	return s.post(ctx, "validateForm", req)
}

// ValidatePage posts to the validatePage endpoint.
func (s *Service) ValidatePage(ctx context.Context, req validation.PageRequest) ([]byte, error) {
	return s.post(ctx, "validatePage", req)
}

// FetchForm posts to the getForm endpoint.
func (s *Service) FetchForm(ctx context.Context, req validation.FetchRequest) ([]byte, error) {
	return s.post(ctx, "getForm", req)
}

func (s *Service) post(ctx context.Context, operation string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("remote: encode %s request: %w", operation, err)
	}

	reqCtx := ctx
	var cancel context.CancelFunc
	if s.timeout > 0 {
		reqCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	endpoint := *s.base
	endpoint.Path = strings.TrimRight(endpoint.Path, "/") + "/" + operation

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote: build %s request: %w", operation, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s: %w", operation, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, errors.New("remote: " + operation + ": unexpected status " + resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read %s response: %w", operation, err)
	}
	return data, nil
}
