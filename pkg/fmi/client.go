package fmi

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"
)

const (
	// DefaultBaseURL is the download (WFS) endpoint of the FMI open data API.
	DefaultBaseURL = "https://opendata.fmi.fi/wfs"
	// DefaultMetaURL is the metadata endpoint of the FMI open data API.
	DefaultMetaURL = "https://opendata.fmi.fi/meta"
	// DefaultTimeout bounds a single HTTP request. The service can be slow
	// to assemble large coverage documents.
	DefaultTimeout = 120 * time.Second
)

// wfsParams are present on every feature-endpoint query.
var wfsParams = url.Values{"service": {"WFS"}, "version": {"2.0.0"}}

// ExceptionReport is the OWS error document the service returns on failed
// requests.
type ExceptionReport struct {
	XMLName    xml.Name    `xml:"ExceptionReport"`
	Exceptions []Exception `xml:"Exception"`
}

// Exception is a single entry of an ExceptionReport.
type Exception struct {
	ExceptionCode string   `xml:"exceptionCode,attr"`
	ExceptionText []string `xml:"ExceptionText"`
}

// BackoffConfig controls retry behaviour on transient transport failures.
type BackoffConfig struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithEndpoints overrides both service endpoints. Used by tests and by
// deployments behind a proxy.
func WithEndpoints(baseURL, metaURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = baseURL
		c.metaURL = metaURL
	}
}

// WithBackoff overrides the retry policy.
func WithBackoff(b BackoffConfig) ClientOption {
	return func(c *Client) { c.backoff = b }
}

// WithLogger sets the logger used for request-level diagnostics.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// Client is the transport collaborator for the FMI open data API. It owns
// retries on transient failures and a circuit breaker; callers above it
// never retry on their own.
type Client struct {
	baseURL    string
	metaURL    string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	backoff    BackoffConfig
	logger     *slog.Logger
}

// NewClient creates a client for the FMI open data API.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		metaURL:    DefaultMetaURL,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		backoff: BackoffConfig{
			MaxRetries:      3,
			InitialInterval: 500 * time.Millisecond,
			MaxInterval:     5 * time.Second,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "fmi-api",
	})
	return c
}

// Logger returns the logger the client was configured with, falling back
// to the default logger when unset.
func (c *Client) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// QueryWFS issues a GET against the feature endpoint with the fixed WFS
// service parameters merged in, returning the raw XML body.
func (c *Client) QueryWFS(ctx context.Context, params url.Values) ([]byte, error) {
	merged := url.Values{}
	for k, vs := range wfsParams {
		merged[k] = vs
	}
	for k, vs := range params {
		merged[k] = vs
	}
	return c.get(ctx, c.baseURL, merged)
}

// QueryMeta issues a GET against the metadata endpoint, returning the raw
// XML body.
func (c *Client) QueryMeta(ctx context.Context, params url.Values) ([]byte, error) {
	return c.get(ctx, c.metaURL, params)
}

// Capabilities lists the operations the API supports.
func (c *Client) Capabilities(ctx context.Context) ([]string, error) {
	doc, err := c.QueryWFS(ctx, url.Values{"request": {"getCapabilities"}})
	if err != nil {
		return nil, err
	}
	var cap capabilitiesDoc
	if err := xml.Unmarshal(doc, &cap); err != nil {
		return nil, fmt.Errorf("failed to parse capabilities: %w", err)
	}
	names := make([]string, 0, len(cap.Operations))
	for _, op := range cap.Operations {
		names = append(names, op.Name)
	}
	return names, nil
}

type capabilitiesDoc struct {
	XMLName    xml.Name `xml:"WFS_Capabilities"`
	Operations []struct {
		Name string `xml:"name,attr"`
	} `xml:"OperationsMetadata>Operation"`
}

var errServerStatus = errors.New("server error")

// get executes the request with bounded retries, exponential backoff and a
// circuit breaker. Only transient failures (network errors, 5xx, 429) are
// retried; other non-2xx statuses fail immediately with the error body
// attached when the service returned one.
func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	requestURL := path + "?" + params.Encode()

	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := c.breaker.Execute(func() (interface{}, error) {
			return c.doOnce(ctx, requestURL)
		})
		if err == nil {
			return result.([]byte), nil
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("circuit breaker open: %w", err)
		}

		var te *TransportError
		if errors.As(err, &te) && !retryableStatus(te.StatusCode) {
			return nil, err
		}

		lastErr = err
		if attempt >= c.backoff.MaxRetries {
			return nil, lastErr
		}

		delay := c.backoff.InitialInterval * time.Duration(math.Pow(2, float64(attempt)))
		if c.backoff.MaxInterval > 0 && delay > c.backoff.MaxInterval {
			delay = c.backoff.MaxInterval
		}
		c.Logger().Debug("retrying FMI request", "url", requestURL, "attempt", attempt+1, "delay", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

func (c *Client) doOnce(ctx context.Context, requestURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request to FMI API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		te := &TransportError{StatusCode: resp.StatusCode, Status: resp.Status}
		if strings.Contains(resp.Header.Get("Content-Type"), "xml") {
			if msg, perr := parseExceptionReport(body); perr == nil {
				te.Body = msg
				return nil, te
			}
			te.Body = string(body)
		}
		return nil, te
	}
	return body, nil
}

func retryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= 500
}

// parseExceptionReport extracts a readable message from an OWS exception
// document.
func parseExceptionReport(body []byte) (string, error) {
	var report ExceptionReport
	if err := xml.Unmarshal(body, &report); err != nil {
		return "", err
	}
	if len(report.Exceptions) == 0 {
		return "unknown FMI API error", nil
	}

	exc := report.Exceptions[0]
	msg := fmt.Sprintf("FMI API error [%s]", exc.ExceptionCode)
	for i, text := range exc.ExceptionText {
		if i == 0 {
			msg += ": " + text
		} else {
			msg += " | " + text
		}
	}
	return msg, nil
}
