package httpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kong/ideamixer/internal/log"
)

const (
	redactedValue   = "[REDACTED]"
	logTypeRequest  = "http_request"
	logTypeResponse = "http_response"
	logTypeFailure  = "http_failure"

	maxLoggedBodyBytes = 4096
)

// Doer is satisfied by *http.Client and LoggingHTTPClient.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingHTTPClient wraps an HTTP client and logs each exchange. Metadata is
// logged at debug, bodies at trace. Secrets in query strings, headers and JSON
// bodies are redacted.
type LoggingHTTPClient struct {
	wrapped *http.Client
	logger  *slog.Logger
}

// NewLoggingHTTPClient wraps http.DefaultClient's behaviour without a timeout;
// the transport's own defaults apply.
func NewLoggingHTTPClient(logger *slog.Logger) *LoggingHTTPClient {
	return NewLoggingHTTPClientWithClient(&http.Client{}, logger)
}

func NewLoggingHTTPClientWithClient(client *http.Client, logger *slog.Logger) *LoggingHTTPClient {
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &LoggingHTTPClient{
		wrapped: client,
		logger:  logger,
	}
}

func (c *LoggingHTTPClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if !c.logger.Enabled(ctx, slog.LevelDebug) {
		return c.wrapped.Do(req)
	}

	trace := c.logger.Enabled(ctx, log.LevelTrace)
	id := uuid.NewString()
	base := slices.Clip(append([]slog.Attr{slog.String("request_id", id)}, log.HTTPLogContextAttrs(ctx)...))

	c.logRequest(req, base, trace)

	start := time.Now()
	resp, err := c.wrapped.Do(req)
	duration := time.Since(start)
	if err != nil {
		attrs := append(base,
			slog.String("log_type", logTypeFailure),
			slog.String("method", req.Method),
			slog.String("route", req.URL.Path),
			slog.Duration("duration", duration),
			slog.String("error", RedactURLs(err.Error(), req.URL)),
		)
		c.logger.LogAttrs(ctx, slog.LevelDebug, "HTTP request failed", attrs...)
		return nil, err
	}

	c.logResponse(req, resp, base, duration, trace)
	return resp, nil
}

func (c *LoggingHTTPClient) logRequest(req *http.Request, base []slog.Attr, trace bool) {
	attrs := append(base,
		slog.String("log_type", logTypeRequest),
		slog.String("method", req.Method),
		slog.String("host", req.URL.Host),
		slog.String("route", req.URL.Path),
		slog.Any("query_params", redactQuery(req.URL.Query())),
		slog.Any("request_headers", redactHeaders(req.Header)),
	)

	if trace && req.Body != nil && req.GetBody != nil {
		if body, err := req.GetBody(); err == nil {
			raw, _ := io.ReadAll(body)
			body.Close()
			attrs = append(attrs, slog.String("request_body", redactBody(raw)))
		}
	} else if trace && req.Body != nil {
		raw, err := io.ReadAll(req.Body)
		if err == nil {
			req.Body = io.NopCloser(bytes.NewReader(raw))
			attrs = append(attrs, slog.String("request_body", redactBody(raw)))
		}
	}

	level := slog.LevelDebug
	if trace {
		level = log.LevelTrace
	}
	c.logger.LogAttrs(req.Context(), level, "HTTP request", attrs...)
}

func (c *LoggingHTTPClient) logResponse(
	req *http.Request, resp *http.Response, base []slog.Attr, duration time.Duration, trace bool,
) {
	attrs := append(base,
		slog.String("log_type", logTypeResponse),
		slog.Int("status_code", resp.StatusCode),
		slog.String("status", resp.Status),
		slog.Duration("duration", duration),
		slog.Any("response_headers", redactHeaders(resp.Header)),
	)

	if trace && resp.Body != nil {
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		// the caller still reads the body
		resp.Body = io.NopCloser(bytes.NewReader(raw))
		if err == nil {
			attrs = append(attrs, slog.String("response_body", redactBody(raw)))
		}
	}

	level := slog.LevelDebug
	if trace {
		level = log.LevelTrace
	}
	c.logger.LogAttrs(req.Context(), level, "HTTP response", attrs...)
}

func isSensitiveName(name string) bool {
	n := strings.ToLower(name)
	n = strings.NewReplacer("-", "", "_", "").Replace(n)
	switch n {
	case "key", "token", "accesstoken", "refreshtoken", "idtoken":
		return true
	}
	for _, marker := range []string{"password", "secret", "apikey", "authorization", "cookie"} {
		if strings.Contains(n, marker) {
			return true
		}
	}
	return false
}

func redactQuery(values url.Values) map[string]string {
	out := make(map[string]string, len(values))
	for k, v := range values {
		if isSensitiveName(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = strings.Join(v, ",")
	}
	return out
}

func redactHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitiveName(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = strings.Join(v, ", ")
	}
	return out
}

func redactBody(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return truncate(string(raw))
	}
	encoded, err := json.Marshal(redactValue(payload))
	if err != nil {
		return truncate(string(raw))
	}
	return truncate(string(encoded))
}

func redactValue(v any) any {
	switch value := v.(type) {
	case map[string]any:
		for k, inner := range value {
			if isSensitiveName(k) {
				value[k] = redactedValue
				continue
			}
			value[k] = redactValue(inner)
		}
		return value
	case []any:
		for i := range value {
			value[i] = redactValue(value[i])
		}
		return value
	default:
		return value
	}
}

// RedactURLs replaces sensitive query values of u wherever u appears in msg.
// net/http echoes the full request URL, including ?key=, in transport errors.
func RedactURLs(msg string, u *url.URL) string {
	if u == nil || u.RawQuery == "" {
		return msg
	}
	q := u.Query()
	for k := range q {
		if isSensitiveName(k) {
			q.Set(k, "REDACTED")
		}
	}
	clean := *u
	clean.RawQuery = q.Encode()
	return strings.ReplaceAll(msg, u.String(), clean.String())
}

func truncate(s string) string {
	if len(s) <= maxLoggedBodyBytes {
		return s
	}
	return fmt.Sprintf("%s... [truncated, total %d bytes]", s[:maxLoggedBodyBytes], len(s))
}
