package langserver

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync"
	"time"

	"golang.org/x/net/http2"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// Manager owns the single cached Connection and the reusable HTTP/2 client.
// All access is serialized; a Reset racing a Connection lookup must never
// observe a half-discarded client.
type Manager struct {
	mu       sync.Mutex
	detector *Detector
	timeout  time.Duration
	conn     *models.Connection
	client   *http.Client
}

// NewManager creates a connection manager with the given per-request timeout.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		detector: NewDetector(),
		timeout:  timeout,
	}
}

// newHTTPClient builds the HTTP/2 client used for all control API calls.
// The language server only listens on loopback with a self-signed
// certificate, so verification is disabled.
func newHTTPClient(timeout time.Duration) *http.Client {
	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 -- loopback self-signed endpoint
	}
	if err := http2.ConfigureTransport(transport); err != nil {
		logger.Warn("failed to enable HTTP/2 on transport", "error", err)
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// httpClient returns the shared client, building it on first use.
// Callers must hold m.mu.
func (m *Manager) httpClient() *http.Client {
	if m.client == nil {
		m.client = newHTTPClient(m.timeout)
	}
	return m.client
}

// closeClient tears down the shared client so its pooled sockets are
// released. Callers must hold m.mu.
func (m *Manager) closeClient() {
	if m.client != nil {
		m.client.CloseIdleConnections()
		m.client = nil
	}
}

// Connection returns the cached connection, running detection when the cache
// is empty. A failed detection is not cached; the next call re-detects.
func (m *Manager) Connection() *models.Connection {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.conn == nil {
		client := m.httpClient()
		m.conn = m.detector.Detect(context.Background(), func(port int, csrfToken string) bool {
			return probePort(client, port, csrfToken)
		})
	}
	return m.conn
}

// Invalidate discards the cached connection and rebuilds the client on next
// use. A stale transport-layer session is a plausible failure cause distinct
// from a stale connection, so both go.
func (m *Manager) Invalidate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conn = nil
	m.closeClient()
	logger.Info("connection invalidated")
}

// Reset unconditionally discards both the cached connection and the client.
// Used on confirmed fetch failure.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.conn = nil
	m.closeClient()
	logger.Info("connection manager reset, stale connection discarded")
}
