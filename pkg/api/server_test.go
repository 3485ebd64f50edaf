package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	apimocks "github.com/fundify/indexer/internal/api/mocks"
	"github.com/fundify/indexer/internal/common"
	"github.com/fundify/indexer/internal/logger"
	"github.com/fundify/indexer/pkg/config"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		config   *config.APIConfig
		validate func(t *testing.T, server *Server)
	}{
		{
			name: "basic config",
			config: &config.APIConfig{
				Enabled:       true,
				ListenAddress: "localhost:8080",
				ReadTimeout:   common.NewDuration(5 * time.Second),
				WriteTimeout:  common.NewDuration(10 * time.Second),
				IdleTimeout:   common.NewDuration(60 * time.Second),
			},
			validate: func(t *testing.T, server *Server) {
				t.Helper()

				require.NotNil(t, server.handler)
				require.NotNil(t, server.log)
				require.Equal(t, "localhost:8080", server.server.Addr)
				require.Equal(t, 5*time.Second, server.server.ReadTimeout)
				require.Equal(t, 10*time.Second, server.server.WriteTimeout)
				require.Equal(t, 60*time.Second, server.server.IdleTimeout)
			},
		},
		{
			name: "CORS enabled",
			config: &config.APIConfig{
				Enabled:       true,
				ListenAddress: ":9091",
				CORS: config.CORSConfig{
					Enabled:        true,
					AllowedOrigins: []string{"http://localhost:3000"},
				},
			},
			validate: func(t *testing.T, server *Server) {
				t.Helper()

				req := httptest.NewRequest(http.MethodGet, "/health", nil)
				req.Header.Set("Origin", "http://localhost:3000")
				w := httptest.NewRecorder()
				server.Handler().ServeHTTP(w, req)

				require.Equal(t, http.StatusOK, w.Code)
				require.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
			},
		},
		{
			name: "CORS disabled",
			config: &config.APIConfig{
				Enabled:       true,
				ListenAddress: ":9092",
			},
			validate: func(t *testing.T, server *Server) {
				t.Helper()

				req := httptest.NewRequest(http.MethodGet, "/health", nil)
				req.Header.Set("Origin", "http://localhost:3000")
				w := httptest.NewRecorder()
				server.Handler().ServeHTTP(w, req)

				require.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := NewServer(tt.config, nil, apimocks.NewStatusProvider(t), logger.NewNopLogger())
			tt.validate(t, server)
		})
	}
}

func TestServer_Start_Disabled(t *testing.T) {
	t.Parallel()

	server := NewServer(&config.APIConfig{Enabled: false, ListenAddress: ":8080"},
		nil, apimocks.NewStatusProvider(t), logger.NewNopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	require.NoError(t, server.Start(ctx))
}

func TestServer_Serve(t *testing.T) {
	t.Parallel()

	server := NewServer(&config.APIConfig{Enabled: true}, nil, apimocks.NewStatusProvider(t), logger.NewNopLogger())

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, listener) }()

	resp, err := http.Get("http://" + listener.Addr().String() + "/health")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `"status":"ok"`)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	server := NewServer(&config.APIConfig{}, nil, apimocks.NewStatusProvider(t), logger.NewNopLogger())

	w := httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	server.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/projects", nil))
	require.Equal(t, http.StatusMethodNotAllowed, w.Code)
}
