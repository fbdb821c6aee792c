package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justchokingaround/mangadl/internal/config"
)

func fastConfig(retries int) ClientConfig {
	return ClientConfig{
		Timeout:    5 * time.Second,
		MaxRetries: retries,
		RetryWait:  time.Millisecond,
	}
}

func TestNewClient(t *testing.T) {
	t.Run("creates client with default config", func(t *testing.T) {
		client := NewClient(DefaultClientConfig())

		assert.NotNil(t, client)
		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 3, client.GetMaxRetries())
	})

	t.Run("creates client with custom config", func(t *testing.T) {
		client := NewClient(ClientConfig{
			Timeout:    10 * time.Second,
			MaxRetries: 5,
			UserAgent:  "test-agent/1.0",
		})

		assert.Equal(t, 10*time.Second, client.GetTimeout())
		assert.Equal(t, 5, client.GetMaxRetries())
	})

	t.Run("zero retries stay disabled", func(t *testing.T) {
		client := NewClient(ClientConfig{})

		assert.Equal(t, 30*time.Second, client.GetTimeout())
		assert.Equal(t, 0, client.GetMaxRetries())
	})

	t.Run("from network config", func(t *testing.T) {
		cfg := ConfigFromNetwork(config.NetworkConfig{
			BaseURL:    "https://example.org",
			Timeout:    7 * time.Second,
			MaxRetries: 1,
		}, false, nil)
		client := NewClient(cfg)

		assert.Equal(t, "https://example.org", client.BaseURL())
		assert.Equal(t, 7*time.Second, client.GetTimeout())
		assert.Equal(t, 1, client.GetMaxRetries())
		assert.Equal(t, config.DefaultUserAgent, cfg.UserAgent)
	})
}

func TestClient_Get(t *testing.T) {
	t.Run("successful GET request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "/test", r.URL.Path)
			assert.Equal(t, config.DefaultUserAgent, r.Header.Get("User-Agent"))
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))
		resp, err := client.Get(context.Background(), server.URL+"/test", nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Contains(t, string(resp.Body()), "ok")
	})

	t.Run("relative path uses base URL", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/chapter/getall", r.URL.Path)
			assert.Equal(t, "abc", r.URL.Query().Get("mangaIdentification"))
		}))
		defer server.Close()

		cfg := fastConfig(0)
		cfg.BaseURL = server.URL
		client := NewClient(cfg)

		_, err := client.Get(context.Background(), "/chapter/getall?mangaIdentification=abc", nil)
		require.NoError(t, err)
	})

	t.Run("GET request with custom headers", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "custom-value", r.Header.Get("X-Custom-Header"))
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))
		resp, err := client.Get(context.Background(), server.URL, map[string]string{
			"X-Custom-Header": "custom-value",
		})

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
	})

	t.Run("handles 404 error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte("not found"))
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))
		_, err := client.Get(context.Background(), server.URL, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "404")

		var statusErr *StatusError
		require.True(t, errors.As(err, &statusErr))
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
		assert.Equal(t, "not found", statusErr.Body)
	})

	t.Run("handles context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(100 * time.Millisecond)
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := client.Get(ctx, server.URL, nil)
		require.Error(t, err)
	})

	t.Run("handles server errors with retry", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if attempts.Add(1) < 3 {
				w.WriteHeader(http.StatusInternalServerError)
			}
		}))
		defer server.Close()

		client := NewClient(fastConfig(3))
		resp, err := client.Get(context.Background(), server.URL, nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode())
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		var attempts atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			attempts.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := NewClient(fastConfig(2))
		_, err := client.Get(context.Background(), server.URL, nil)

		require.Error(t, err)
		assert.Equal(t, int32(3), attempts.Load())
	})
}

func TestClient_Post(t *testing.T) {
	t.Run("successful POST request", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			w.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))
		resp, err := client.Post(context.Background(), server.URL, map[string]string{"key": "value"}, nil)

		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, resp.StatusCode())
	})

	t.Run("handles POST errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := NewClient(fastConfig(0))
		_, err := client.Post(context.Background(), server.URL, nil, nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "400")
	})
}

func TestClient_PostForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Contains(t, r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
		assert.Equal(t, "XMLHttpRequest", r.Header.Get("X-Requested-With"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "one piece", r.PostForm.Get("filter[queryString]"))
		assert.Equal(t, []string{"-1", "2"}, r.PostForm["filter[generes][]"])
		_, _ = w.Write([]byte("<a></a>"))
	}))
	defer server.Close()

	client := NewClient(fastConfig(0))
	form := url.Values{}
	form.Set("filter[queryString]", "one piece")
	form.Add("filter[generes][]", "-1")
	form.Add("filter[generes][]", "2")

	resp, err := client.PostForm(context.Background(), server.URL, form, map[string]string{
		"X-Requested-With": "XMLHttpRequest",
	})
	require.NoError(t, err)
	assert.Equal(t, "<a></a>", resp.String())
}

func TestClient_Download(t *testing.T) {
	payload := []byte{0x89, 'P', 'N', 'G', 0, 1, 2}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	client := NewClient(fastConfig(0))
	data, err := client.Download(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, payload, data)
}

func TestClient_SetHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-value", r.Header.Get("X-Test-Header"))
		assert.Equal(t, "https://inmanga.com", r.Header.Get("Referer"))
	}))
	defer server.Close()

	client := NewClient(fastConfig(0))
	client.SetHeader("X-Test-Header", "test-value")
	client.SetHeaders(map[string]string{"Referer": "https://inmanga.com"})

	_, err := client.Get(context.Background(), server.URL, nil)
	require.NoError(t, err)
}
