package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestServer_ServesMetrics(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}
	cfg.ApplyDefaults()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	srv := NewServer(cfg, logger.NewNopLogger())
	go func() { done <- srv.Serve(ctx, listener) }()

	EventInc("ProjectFunded", OutcomeApplied)
	LastIndexedBlockSet(42)

	url := "http://" + listener.Addr().String() + cfg.Path

	var body string
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return false
		}
		body = string(data)

		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	require.True(t, strings.Contains(body, `fundify_events_total{event="ProjectFunded",outcome="applied"}`))
	require.Contains(t, body, "fundify_last_indexed_block 42")

	cancel()
	require.NoError(t, <-done)
}
