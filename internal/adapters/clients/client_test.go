package clients

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/fee-quotation-service/internal/adapters/http/middleware"
	"github.com/jsamuelsen/fee-quotation-service/internal/platform/config"
)

func quotationAPIConfig() *Config {
	return &Config{
		ServiceName: "quotation-api",
		Timeout:     2 * time.Second,
		Retry: config.RetryConfig{
			MaxAttempts:     3,
			InitialInterval: 5 * time.Millisecond,
			MaxInterval:     20 * time.Millisecond,
			Multiplier:      2,
		},
		Circuit: config.CircuitBreakerConfig{
			MaxFailures:   2,
			Timeout:       time.Minute,
			HalfOpenLimit: 1,
		},
	}
}

func newClient(t *testing.T, mutate func(*Config)) *Client {
	t.Helper()

	cfg := quotationAPIConfig()
	if mutate != nil {
		mutate(cfg)
	}

	client, err := New(cfg)
	require.NoError(t, err)

	return client
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil)
	require.EqualError(t, err, "config is required")

	_, err = New(&Config{})
	require.EqualError(t, err, "service name is required")

	client, err := New(&Config{ServiceName: "host-platform", BaseURL: "https://journals.example/"})
	require.NoError(t, err)
	assert.Equal(t, "https://journals.example", client.baseURL)
	assert.Equal(t, defaultTimeout, client.http.Timeout)
	assert.Equal(t, 1, client.cfg.Retry.MaxAttempts)
}

func TestClient_Post_QuotationRequest(t *testing.T) {
	var (
		gotBody   string
		gotHeader http.Header
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		gotBody, gotHeader = string(raw), r.Header.Clone()

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"Q-1"}}`))
	}))
	defer server.Close()

	client := newClient(t, nil)

	ctx := middleware.ContextWithCorrelationID(middleware.ContextWithRequestID(context.Background(), "req-9"), "corr-9")
	body := `{"article":{"id":101},"callback":"https://fees.example/webhook/oae/"}`

	resp, err := client.Post(ctx, server.URL+"/quotes", []byte(body), http.Header{"X-Api-Key": {"k-1"}})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.JSONEq(t, body, gotBody)
	assert.Equal(t, "application/json", gotHeader.Get("Content-Type"))
	assert.Equal(t, "k-1", gotHeader.Get("X-Api-Key"))
	assert.Equal(t, "req-9", gotHeader.Get(middleware.HeaderRequestID))
	assert.Equal(t, "corr-9", gotHeader.Get(middleware.HeaderCorrelationID))
}

func TestClient_Retries(t *testing.T) {
	tests := []struct {
		name     string
		statuses []int
		attempts int32
		status   int
		wantErr  error
	}{
		{
			name:     "recovers after 5xx",
			statuses: []int{http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusOK},
			attempts: 3,
			status:   http.StatusOK,
		},
		{
			name:     "4xx is returned at once",
			statuses: []int{http.StatusUnprocessableEntity},
			attempts: 1,
			status:   http.StatusUnprocessableEntity,
		},
		{
			name:     "exhausted",
			statuses: []int{http.StatusInternalServerError},
			attempts: 3,
			wantErr:  ErrMaxRetriesExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(calls.Add(1)) - 1
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, `{"quote":1}`, string(body))
				w.WriteHeader(tt.statuses[min(n, len(tt.statuses)-1)])
			}))
			defer server.Close()

			client := newClient(t, func(c *Config) { c.Circuit.MaxFailures = 0 })

			resp, err := client.Post(context.Background(), server.URL, []byte(`{"quote":1}`), nil)
			assert.Equal(t, tt.attempts, calls.Load())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)

				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)

				return
			}

			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestClient_StreamingBodyIsSentOnce(t *testing.T) {
	var calls atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := newClient(t, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, server.URL,
		io.NopCloser(strings.NewReader(`{"quote":1}`)))
	require.NoError(t, err)

	_, err = client.Do(context.Background(), req)
	require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_BreakersArePerHost(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	client := newClient(t, func(c *Config) { c.Retry.MaxAttempts = 1 })

	for range 2 {
		_, err := client.Get(context.Background(), failing.URL+"/quotes")
		require.ErrorIs(t, err, ErrMaxRetriesExceeded)
	}

	failingHost := strings.TrimPrefix(failing.URL, "http://")
	assert.Equal(t, StateOpen, client.CircuitStateFor(failingHost))

	_, err := client.Get(context.Background(), failing.URL+"/quotes")
	require.ErrorIs(t, err, ErrCircuitOpen)

	resp, err := client.Get(context.Background(), healthy.URL+"/quotes")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, StateClosed, client.CircuitStateFor(strings.TrimPrefix(healthy.URL, "http://")))
}

func TestClient_CircuitState_BaseURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newClient(t, func(c *Config) {
		c.BaseURL = server.URL + "/api"
		c.ServiceName = "host-platform"
		c.Retry.MaxAttempts = 1
	})

	assert.Equal(t, StateClosed, client.CircuitState())

	for range 2 {
		_, _ = client.Get(context.Background(), "articles/101")
	}

	assert.Equal(t, StateOpen, client.CircuitState())
}

func TestClient_CanceledContext(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()
	defer close(release)

	client := newClient(t, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Get(ctx, server.URL)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMaxRetriesExceeded)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_Resolve(t *testing.T) {
	client := newClient(t, func(c *Config) { c.BaseURL = "https://journals.example/" })

	assert.Equal(t, "https://journals.example/api/articles/1", client.resolve("/api/articles/1"))
	assert.Equal(t, "https://journals.example/api/articles/1", client.resolve("api/articles/1"))
	assert.Equal(t, "https://billing.example/quotes", client.resolve("https://billing.example/quotes"))
}

func TestClient_Backoff(t *testing.T) {
	client := newClient(t, func(c *Config) {
		c.Retry = config.RetryConfig{InitialInterval: 100 * time.Millisecond, MaxInterval: time.Second, Multiplier: 2}
	})

	for range 20 {
		first := client.backoff(1)
		assert.GreaterOrEqual(t, first, 150*time.Millisecond)
		assert.LessOrEqual(t, first, 250*time.Millisecond)

		capped := client.backoff(10)
		assert.LessOrEqual(t, capped, 1250*time.Millisecond)
		assert.GreaterOrEqual(t, capped, 750*time.Millisecond)
	}
}

func TestRetryable(t *testing.T) {
	refused := &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}

	assert.True(t, retryable(refused))
	assert.False(t, retryable(context.Canceled))
	assert.False(t, retryable(context.DeadlineExceeded))
	assert.False(t, retryable(errors.New("tls: bad certificate")))
}
