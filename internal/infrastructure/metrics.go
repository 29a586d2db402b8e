package infrastructure

import (
	"fmt"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer exposes this process's Prometheus registry. The scraper
// binaries run it alongside the workers; the counters they increment live in
// the process's default registry and are invisible to any other process.
type MetricsServer struct {
	listener net.Listener
	server   *http.Server
}

// NewMetricsServer binds the metrics listener. Port 0 picks a free port.
func NewMetricsServer(port int) (*MetricsServer, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("failed to bind metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	return &MetricsServer{
		listener: listener,
		server:   &http.Server{Handler: mux},
	}, nil
}

// Addr returns the bound address, useful when the port was chosen freely.
func (m *MetricsServer) Addr() string {
	return m.listener.Addr().String()
}

// Serve blocks until Close is called.
func (m *MetricsServer) Serve() error {
	if err := m.server.Serve(m.listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Close stops the server immediately.
func (m *MetricsServer) Close() error {
	return m.server.Close()
}
