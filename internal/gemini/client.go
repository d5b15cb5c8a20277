package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/kong/ideamixer/internal/httpclient"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	DefaultModel   = "gemini-1.5-flash"

	// maxResponseBytes bounds how much of a reply is read into memory
	maxResponseBytes = 8 << 20
)

// Options configure a Client. Zero values fall back to the public endpoint and default model.
type Options struct {
	BaseURL    string
	Model      string
	HTTPClient httpclient.Doer
	Logger     *slog.Logger
}

// Client calls the generateContent endpoint of one model.
type Client struct {
	baseURL *url.URL
	model   string
	http    httpclient.Doer
	logger  *slog.Logger
}

func NewClient(opts Options) (*Client, error) {
	base := strings.TrimSpace(opts.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", base, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", base)
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	if strings.ContainsAny(model, "/?#") {
		return nil, fmt.Errorf("invalid model name %q", model)
	}

	doer := opts.HTTPClient
	if doer == nil {
		doer = httpclient.NewLoggingHTTPClient(opts.Logger)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Client{baseURL: u, model: model, http: doer, logger: logger}, nil
}

// Model is the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Endpoint is the generateContent URL without credentials.
func (c *Client) Endpoint() string {
	u := *c.baseURL
	u.Path = u.Path + "/" + c.model + ":generateContent"
	u.RawPath = ""
	return u.String()
}

// GenerateContent performs one POST. A non-2xx reply is returned as *APIError and a
// failure to obtain or decode a reply as *TransportError. The request is never retried.
func (c *Client) GenerateContent(
	ctx context.Context, apiKey string, body *GenerateContentRequest,
) (*GenerateContentResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint, err := url.Parse(c.Endpoint())
	if err != nil {
		return nil, fmt.Errorf("build endpoint: %w", err)
	}
	q := endpoint.Query()
	q.Set("key", apiKey)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, newTransportError(err, endpoint)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, newTransportError(fmt.Errorf("read response: %w", err), endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Status: resp.Status}
		var env errorEnvelope
		if len(raw) > 0 && json.Unmarshal(raw, &env) == nil && env.Error != nil {
			apiErr.Message = env.Error.Message
		}
		c.logger.Debug("generateContent rejected",
			slog.Int("status_code", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return nil, apiErr
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &TransportError{Err: fmt.Errorf("decode response: %w", err)}
	}
	return &out, nil
}

func newTransportError(err error, endpoint *url.URL) *TransportError {
	return &TransportError{Err: err, msg: httpclient.RedactURLs(err.Error(), endpoint)}
}

// IsAPIError unwraps err into an *APIError.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}

// IsTransportError unwraps err into a *TransportError.
func IsTransportError(err error) (*TransportError, bool) {
	var tErr *TransportError
	ok := errors.As(err, &tErr)
	return tErr, ok
}
