package spectrum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spectrumleads/formgate/internal/forms"
	appErrors "github.com/spectrumleads/formgate/pkg/errors"
	"github.com/spectrumleads/formgate/pkg/logger"
	"github.com/spectrumleads/formgate/pkg/metrics"
)

// Retry policy defaults. Three attempts at 10s/10s/5s plus the 100ms delays
// keep the worst case under a 30 second upstream gateway timeout.
const (
	DefaultAttemptTimeout = 10 * time.Second
	DefaultFinalTimeout   = 5 * time.Second
	DefaultMaxRetries     = 2
	DefaultRetryDelay     = 100 * time.Millisecond
)

// Control fields injected by the renderer that must not reach the vendor.
const (
	orgField           = "org"
	referringPageField = "referring_page"
)

// Config bundles the HTTP client options.
type Config struct {
	BaseURL        string
	AttemptTimeout time.Duration // earlier attempts
	FinalTimeout   time.Duration // last attempt
	MaxRetries     int           // retries after the first attempt
	RetryDelay     time.Duration
}

// HTTPClient talks to the real vendor API.
type HTTPClient struct {
	baseURL        string
	httpClient     *http.Client
	attemptTimeout time.Duration
	finalTimeout   time.Duration
	maxRetries     int
	retryDelay     time.Duration
	sleep          func(time.Duration)
	log            *zap.Logger
}

// NewHTTPClient constructs a vendor client from configuration, applying the
// documented retry defaults for any zero value.
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("spectrum: base url is required")
	}

	client := &HTTPClient{
		baseURL:        base,
		httpClient:     &http.Client{},
		attemptTimeout: cfg.AttemptTimeout,
		finalTimeout:   cfg.FinalTimeout,
		maxRetries:     cfg.MaxRetries,
		retryDelay:     cfg.RetryDelay,
		sleep:          time.Sleep,
		log:            logger.WithModule("spectrum"),
	}

	if client.attemptTimeout <= 0 {
		client.attemptTimeout = DefaultAttemptTimeout
	}
	if client.finalTimeout <= 0 {
		client.finalTimeout = DefaultFinalTimeout
	}
	if client.maxRetries < 0 {
		client.maxRetries = 0
	} else if cfg.MaxRetries == 0 {
		client.maxRetries = DefaultMaxRetries
	}
	if client.retryDelay <= 0 {
		client.retryDelay = DefaultRetryDelay
	}

	return client, nil
}

// WithTransport overrides the underlying http.Client, primarily for tests.
func (c *HTTPClient) WithTransport(httpClient *http.Client) *HTTPClient {
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// WithSleep overrides the retry delay function, primarily for tests.
func (c *HTTPClient) WithSleep(sleep func(time.Duration)) *HTTPClient {
	if sleep != nil {
		c.sleep = sleep
	}
	return c
}

// FormsList implements Client. The result always includes the default inquiry
// form; vendor entries are merged on top. Transport failures surface as
// transport errors since this backs the admin read path only.
func (c *HTTPClient) FormsList(ctx context.Context, creds Credentials) (map[string]*string, error) {
	result := map[string]*string{DefaultFormName: nil}

	query := url.Values{APIKeyParam: {creds.APIKey}}
	body, err := c.get(ctx, SubmittablePath, query)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data struct {
			SemForms map[string]*string `json:"sem_forms"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return result, nil
	}

	for name, id := range decoded.Data.SemForms {
		result[name] = id
	}
	return result, nil
}

// Requirements implements Client. A response without a data envelope is a
// vendor protocol failure carrying the vendor's message field.
func (c *HTTPClient) Requirements(ctx context.Context, creds Credentials, formID string) (*forms.Definition, error) {
	query := url.Values{APIKeyParam: {creds.APIKey}}
	if formID != "" {
		query.Set("formID", formID)
	}

	body, err := c.get(ctx, RequirementsPath, query)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Data    json.RawMessage `json:"data"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, appErrors.ErrVendorProtocol.WithInternal(err)
	}

	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		c.log.Error("bad response from form API server", zap.String("message", envelope.Message))
		return nil, appErrors.ErrVendorProtocol.WithMessage("Error: " + envelope.Message)
	}

	var definition forms.Definition
	if err := json.Unmarshal(envelope.Data, &definition); err != nil {
		return nil, appErrors.ErrVendorProtocol.WithInternal(err)
	}
	return &definition, nil
}

// Submit implements Client, posting the prepared fields with bounded retry on
// transient transport failures. The caller blocks until the outcome is known.
func (c *HTTPClient) Submit(ctx context.Context, creds Credentials, fields map[string]string) SubmissionResult {
	if strings.TrimSpace(creds.APIKey) == "" {
		return SubmissionResult{Status: 0, Response: "API Key missing", Data: ""}
	}

	// Capture the referring page for failure logs, then strip the control
	// fields the vendor must not see.
	referringPage := fields[referringPageField]

	values := url.Values{}
	for key, value := range fields {
		if key == orgField || key == referringPageField {
			continue
		}
		values.Set(key, value)
	}
	values.Set(APIKeyParam, creds.APIKey)

	return c.submitAttempt(ctx, values, referringPage, 0)
}

func (c *HTTPClient) submitAttempt(ctx context.Context, values url.Values, referringPage string, attempt int) SubmissionResult {
	timeout := c.attemptTimeout
	if attempt == c.maxRetries {
		timeout = c.finalTimeout
	}

	start := time.Now()
	body, err := c.post(ctx, SubmitPath, values, timeout)
	metrics.VendorRequestDuration.WithLabelValues("submit").Observe(time.Since(start).Seconds())

	if err != nil {
		shouldRetry := attempt < c.maxRetries && isRetryable(err)

		outcome := "giving up"
		if shouldRetry {
			outcome = "retrying"
		}
		c.log.Warn("submit attempt failed",
			zap.Int("attempt", attempt+1),
			zap.String("outcome", outcome),
			zap.String("referring_page", referringPage),
			zap.Error(err),
		)

		if shouldRetry {
			metrics.SubmissionRetries.Inc()
			c.sleep(c.retryDelay)
			return c.submitAttempt(ctx, values, referringPage, attempt+1)
		}

		return SubmissionResult{
			Status:   0,
			Response: "Failed submitting to the form API. Please retry. Error: " + err.Error(),
			Data:     "",
		}
	}

	var decoded struct {
		Status  string `json:"status"`
		Message string `json:"message"`
		Data    any    `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return SubmissionResult{
			Status:   0,
			Response: "Something bad happened, please refresh the page and try again.",
			Data:     "",
		}
	}

	result := SubmissionResult{Data: ""}
	if decoded.Status == "success" {
		result.Status = 1
	}
	if decoded.Data != nil {
		result.Data = decoded.Data
	}
	if decoded.Message != "" {
		result.Response = decoded.Message
	} else {
		result.Response = "Something bad happened, please refresh the page and try again."
	}
	return result
}

func (c *HTTPClient) get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s?%s", c.baseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErrors.ErrTransport.WithInternal(err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error("form API call failed", zap.String("path", path), zap.Error(err))
		return nil, appErrors.ErrTransport.WithMessage("Error: " + err.Error()).WithInternal(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.ErrTransport.WithInternal(err)
	}
	return body, nil
}

// post returns retryableStatusError for HTTP 500/503 so the submit loop can
// treat them like transient transport failures.
func (c *HTTPClient) post(ctx context.Context, path string, values url.Values, timeout time.Duration) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, endpoint, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusInternalServerError || resp.StatusCode == http.StatusServiceUnavailable {
		return nil, retryableStatusError{status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return body, nil
}

type retryableStatusError struct {
	status int
}

func (e retryableStatusError) Error() string {
	return fmt.Sprintf("HTTP %d from form API", e.status)
}

// isRetryable reports whether a submit failure belongs to the fixed retryable
// set: low-level transport errors from the HTTP client (DNS, TLS, connection
// resets, request timeouts) and HTTP 500/503. Request construction and
// body-read failures are not retried.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var statusErr retryableStatusError
	if errors.As(err, &statusErr) {
		return true
	}

	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
