package lm_client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"logicmonitor.com/gcp-flowlogs-relay/config"
)

func testConfig() *config.Config {
	return &config.Config{
		CompanyName:       "acme",
		CompanyDomain:     "logicmonitor.com",
		AccessID:          "test-access-id",
		AccessKey:         "test-access-key",
		BearerToken:       "test-bearer-token",
		WebhookSourceName: "GCP-VPC-FlowLogs",
	}
}

// newTestClient points the client at a local server and shrinks the retry
// backoff so exhaustion tests finish quickly
func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	c := NewClient(testConfig())
	c.baseURL = serverURL
	c.http.RetryWaitMin = time.Millisecond
	c.http.RetryWaitMax = 5 * time.Millisecond
	return c
}

func TestNewClientBaseURL(t *testing.T) {
	c := NewClient(testConfig())
	assert.Equal(t, "https://acme.logicmonitor.com", c.baseURL)
}

func TestSendToIngestAPI(t *testing.T) {
	payloads := []map[string]any{{"msg": "VPC Flow: 10.128.0.15:443 -> 10.128.0.22:52340 proto=6 bytes=15234"}}

	t.Run("signs the exact bytes sent", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rest/log/ingest", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			assert.Equal(t, "3", r.Header.Get("X-Version"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			var decoded []map[string]any
			assert.NoError(t, json.Unmarshal(body, &decoded), "body must be a JSON array")
			assert.Len(t, decoded, 1)

			// recompute the signature over the received bytes; it must match
			// the token exactly, so the signature covers what was sent
			auth := r.Header.Get("Authorization")
			if match := tokenPattern.FindStringSubmatch(auth); assert.NotNil(t, match, "token %q does not match the LMv1 format", auth) {
				expected := buildLMv1Token("test-access-id", "test-access-key", http.MethodPost, "/log/ingest", string(body), match[3])
				assert.Equal(t, expected, auth)
			}

			w.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		accepted, err := newTestClient(t, server.URL).SendToIngestAPI(context.Background(), payloads)
		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("status matrix", func(t *testing.T) {
		tests := []struct {
			status   int
			accepted bool
			attempts int32 // retryable statuses burn the whole budget
		}{
			{http.StatusOK, true, 1},
			{http.StatusAccepted, true, 1},
			{http.StatusBadRequest, false, 1},
			{http.StatusUnauthorized, false, 1},
			{http.StatusTooManyRequests, false, 4},
			{http.StatusInternalServerError, false, 4},
			{http.StatusServiceUnavailable, false, 4},
		}
		for _, tt := range tests {
			t.Run(http.StatusText(tt.status), func(t *testing.T) {
				var attempts int32
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					atomic.AddInt32(&attempts, 1)
					w.WriteHeader(tt.status)
				}))
				defer server.Close()

				accepted, err := newTestClient(t, server.URL).SendToIngestAPI(context.Background(), payloads)
				require.NoError(t, err, "a response, even after retries, is not a transport error")
				assert.Equal(t, tt.accepted, accepted)
				assert.Equal(t, tt.attempts, atomic.LoadInt32(&attempts))
			})
		}
	})

	t.Run("recovers within the retry budget", func(t *testing.T) {
		var attempts int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&attempts, 1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		accepted, err := newTestClient(t, server.URL).SendToIngestAPI(context.Background(), payloads)
		require.NoError(t, err)
		assert.True(t, accepted)
		assert.EqualValues(t, 3, atomic.LoadInt32(&attempts))
	})

	t.Run("transport failure propagates after retries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close() // connection refused from here on

		accepted, err := newTestClient(t, server.URL).SendToIngestAPI(context.Background(), payloads)
		require.Error(t, err)
		assert.False(t, accepted)
	})
}

func TestSendToWebhook(t *testing.T) {
	payload := map[string]any{"message": "VPC Flow: 10.128.0.15:443 -> 10.128.0.22:52340 proto=6 bytes=15234"}

	t.Run("bearer auth and single object body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/rest/api/v1/webhook/ingest/GCP-VPC-FlowLogs", r.URL.Path)
			assert.Equal(t, "Bearer test-bearer-token", r.Header.Get("Authorization"))
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			body, err := io.ReadAll(r.Body)
			assert.NoError(t, err)
			var decoded map[string]any
			assert.NoError(t, json.Unmarshal(body, &decoded), "body must be a single JSON object")
			assert.Contains(t, decoded, "message")

			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		accepted, err := newTestClient(t, server.URL).SendToWebhook(context.Background(), payload)
		require.NoError(t, err)
		assert.True(t, accepted)
	})

	t.Run("non-2xx returns false without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "bad token", http.StatusUnauthorized)
		}))
		defer server.Close()

		accepted, err := newTestClient(t, server.URL).SendToWebhook(context.Background(), payload)
		require.NoError(t, err)
		assert.False(t, accepted)
	})

	t.Run("transport failure propagates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		accepted, err := newTestClient(t, server.URL).SendToWebhook(context.Background(), payload)
		require.Error(t, err)
		assert.False(t, accepted)
	})
}
