package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/anisette/internal/config"
	"github.com/aatumaykin/anisette/internal/headers"
	"github.com/aatumaykin/anisette/internal/logger"
	"github.com/aatumaykin/anisette/internal/workers"
)

// Helper function to create test logger
func createTestLogger(t *testing.T) *logger.Logger {
	t.Helper()

	log, err := logger.New(logger.Config{
		Level:  "info",
		Format: "text",
		Output: "stdout",
	})
	require.NoError(t, err)
	return log
}

// Helper function to create test config
func createTestConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Pool.Size = 2
	cfg.Provider.Type = "static"
	cfg.Provider.Command = ""
	cfg.Provider.Headers = map[string]string{"X-Test": "1"}
	cfg.Server.ShutdownTimeoutSeconds = 2
	require.Empty(t, cfg.Validate())
	return cfg
}

func TestBuildProvider(t *testing.T) {
	log := createTestLogger(t)

	t.Run("static", func(t *testing.T) {
		p, err := BuildProvider(config.ProviderConfig{
			Type:          "static",
			Headers:       map[string]string{"X-Test": "1"},
			RetryAttempts: 1,
		}, log)
		require.NoError(t, err)

		h, err := p.Generate()
		require.NoError(t, err)
		assert.Equal(t, headers.Headers{"X-Test": "1"}, h)
	})

	t.Run("static with invalid header is rejected at generation", func(t *testing.T) {
		p, err := BuildProvider(config.ProviderConfig{
			Type:    "static",
			Headers: map[string]string{"Bad Name": "1"},
		}, log)
		require.NoError(t, err)

		_, err = p.Generate()
		assert.ErrorIs(t, err, headers.ErrGeneration)
	})

	t.Run("command", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("requires sh")
		}
		p, err := BuildProvider(config.ProviderConfig{
			Type:           "command",
			Command:        "sh",
			Args:           []string{"-c", `printf '{"X-Apple-I-MD":"AAAA"}'`},
			TimeoutSeconds: 5,
			RetryAttempts:  2,
			RetryBackoffMs: 1,
		}, log)
		require.NoError(t, err)

		h, err := p.Generate()
		require.NoError(t, err)
		assert.Equal(t, "AAAA", h["X-Apple-I-MD"])
	})

	t.Run("command without path", func(t *testing.T) {
		_, err := BuildProvider(config.ProviderConfig{Type: "command"}, log)
		assert.Error(t, err)
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := BuildProvider(config.ProviderConfig{Type: "native"}, log)
		assert.Error(t, err)
	})
}

func TestApp_Initialize(t *testing.T) {
	cfg := createTestConfig(t)
	app := New(cfg, createTestLogger(t))

	require.NoError(t, app.Initialize())
	require.NoError(t, app.Initialize())
	require.NotNil(t, app.Pool())
	assert.Equal(t, 2, app.Pool().WorkerCount())
	assert.Nil(t, app.Registry())

	require.NoError(t, app.Shutdown(context.Background()))
	assert.ErrorIs(t, app.Pool().Submit(func() {}), workers.ErrPoolClosed)
}

func TestApp_InitializeErrors(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Pool.Size = 0
	assert.Error(t, New(cfg, createTestLogger(t)).Initialize())

	cfg = createTestConfig(t)
	cfg.Provider.Type = "native"
	assert.Error(t, New(cfg, createTestLogger(t)).Initialize())
}

func TestApp_ShutdownBeforeInitialize(t *testing.T) {
	app := New(createTestConfig(t), createTestLogger(t))
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApp_Serve(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Metrics.Enabled = true
	cfg.Logging.StatsSchedule = "@every 1s"

	app := New(cfg, createTestLogger(t))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	baseURL := "http://" + ln.Addr().String()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- app.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second}

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = client.Get(baseURL + "/")
		return err == nil
	}, 2*time.Second, 10*time.Millisecond)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", body["X-Test"])

	resp, err = client.Get(baseURL + "/metrics")
	require.NoError(t, err)
	metrics, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "anisette_pool_workers 2")
	assert.Contains(t, string(metrics), "anisette_http_requests_total")
	assert.Contains(t, string(metrics), "go_goroutines")

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}

	assert.ErrorIs(t, app.Pool().Submit(func() {}), workers.ErrPoolClosed)
}

func TestApp_RunRejectsBusyPort(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	cfg := createTestConfig(t)
	cfg.Server.Port = ln.Addr().(*net.TCPAddr).Port

	err = New(cfg, createTestLogger(t)).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen on")
}

func TestGenerateOnce(t *testing.T) {
	cfg := createTestConfig(t)

	h, err := GenerateOnce(context.Background(), cfg, createTestLogger(t))
	require.NoError(t, err)
	assert.Equal(t, headers.Headers{"X-Test": "1"}, h)
}

func TestGenerateOnce_Failure(t *testing.T) {
	failing := headers.ProviderFunc(func() (headers.Headers, error) {
		return nil, fmt.Errorf("%w: helper not found", headers.ErrGeneration)
	})

	_, err := generateWith(context.Background(), failing, logger.Nop())
	assert.ErrorIs(t, err, headers.ErrGeneration)
}

func TestGenerateOnce_ContextDeadline(t *testing.T) {
	slow := headers.ProviderFunc(func() (headers.Headers, error) {
		time.Sleep(200 * time.Millisecond)
		return headers.Headers{"X-Test": "1"}, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := generateWith(ctx, slow, logger.Nop())
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
