package lm_client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"logicmonitor.com/gcp-flowlogs-relay/config"
	"logicmonitor.com/gcp-flowlogs-relay/logger"
)

// LogicMonitor endpoint paths. The ingest API signature covers the resource
// path without the /rest prefix.
const (
	ingestResourcePath = "/log/ingest"
	ingestAPIPath      = "/rest/log/ingest"
	webhookPathPrefix  = "/rest/api/v1/webhook/ingest/"
)

const (
	authorizationHeader = "Authorization"
	contentTypeHeader   = "Content-Type"
	apiVersionHeader    = "X-Version"

	contentTypeJSON  = "application/json"
	ingestAPIVersion = "3"
)

// Retry budget for transient failures, applied inside the transport. All
// requests issued by this client are POSTs.
const (
	maxRetries     = 3
	retryWaitMin   = 500 * time.Millisecond
	retryWaitMax   = 8 * time.Second
	requestTimeout = 30 * time.Second
)

// maxLoggedBodyBytes caps how much of an error response body ends up in logs
const maxLoggedBodyBytes = 4096

var clientLogger = logger.NewLogger("lm-client")

// retryStatusCodes are the transient responses the transport retries before
// the caller ever sees them. Everything else surfaces immediately.
var retryStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Client sends flow log payloads to LogicMonitor. One Client lives for the
// whole process so the pooled connections are amortized across invocations.
type Client struct {
	cfg     *config.Config
	http    *retryablehttp.Client
	baseURL string
}

func NewClient(cfg *config.Config) *Client {
	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	rc.RetryMax = maxRetries
	rc.RetryWaitMin = retryWaitMin
	rc.RetryWaitMax = retryWaitMax
	rc.Logger = nil
	rc.CheckRetry = checkRetry
	rc.ErrorHandler = giveUpHandler

	return &Client{
		cfg:     cfg,
		http:    rc,
		baseURL: fmt.Sprintf("https://%s.%s", cfg.CompanyName, cfg.CompanyDomain),
	}
}

// checkRetry retries transport-level failures and transient status codes.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return retryStatusCodes[resp.StatusCode], nil
}

// giveUpHandler runs once the retry budget is spent. A final transient status
// is handed back as an ordinary response so the caller can log it and
// acknowledge; only transport-level failures escape as errors, which is what
// signals event redelivery upstream.
func giveUpHandler(resp *http.Response, err error, numTries int) (*http.Response, error) {
	if resp != nil {
		return resp, nil
	}
	return nil, fmt.Errorf("request failed after %d attempts: %w", numTries, err)
}

// SendToIngestAPI POSTs payloads as one JSON array to the LM Logs ingest API
// using LMv1 signing. The signature covers the exact bytes sent; any
// re-serialization after signing would break verification. Returns true only
// on HTTP 200/202 and false on any other status. A transport failure that
// survives the retry budget is returned as an error.
func (c *Client) SendToIngestAPI(ctx context.Context, payloads []map[string]any) (bool, error) {
	body, err := json.Marshal(payloads)
	if err != nil {
		return false, fmt.Errorf("marshaling ingest payloads: %w", err)
	}

	token := GenerateLMv1Token(c.cfg.AccessID, c.cfg.AccessKey, http.MethodPost, ingestResourcePath, string(body))

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ingestAPIPath, body)
	if err != nil {
		return false, err
	}
	req.Header.Set(authorizationHeader, token)
	req.Header.Set(contentTypeHeader, contentTypeJSON)
	req.Header.Set(apiVersionHeader, ingestAPIVersion)

	return c.post(req, "LM Ingest API")
}

// SendToWebhook POSTs a single JSON object to the LM webhook endpoint using
// static bearer auth. Same success and retry semantics as the ingest API.
func (c *Client) SendToWebhook(ctx context.Context, payload map[string]any) (bool, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return false, fmt.Errorf("marshaling webhook payload: %w", err)
	}

	endpoint := c.baseURL + webhookPathPrefix + url.PathEscape(c.cfg.WebhookSourceName)
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return false, err
	}
	for key, value := range BearerHeader(c.cfg.BearerToken) {
		req.Header.Set(key, value)
	}
	req.Header.Set(contentTypeHeader, contentTypeJSON)

	return c.post(req, "LM Webhook")
}

func (c *Client) post(req *retryablehttp.Request, endpoint string) (bool, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		clientLogger.Error(fmt.Sprintf("%s request failed: %v", endpoint, err))
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusAccepted {
		return true, nil
	}

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxLoggedBodyBytes))
	clientLogger.Error(fmt.Sprintf("%s error: status=%d body=%s", endpoint, resp.StatusCode, string(respBody)))
	return false, nil
}
