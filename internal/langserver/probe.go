package langserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
)

// endpointURL builds the control API URL for a resolved port.
func endpointURL(port int, endpoint string) string {
	return fmt.Sprintf("https://127.0.0.1:%d/%s/%s", port, serviceBase, endpoint)
}

// setAPIHeaders applies the headers every control API request requires.
func setAPIHeaders(req *http.Request, csrfToken string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerProtocolVersion, protocolVersion)
	req.Header.Set(headerCsrfToken, csrfToken)
}

// probePort tests whether a port serves the language server control API.
// Success is strictly HTTP 200 with a well-formed JSON body. Probing is
// speculative across many ports, so every failure mode resolves to false and
// nothing is ever propagated as an error.
func probePort(client *http.Client, port int, csrfToken string) bool {
	req, err := http.NewRequest(http.MethodPost,
		endpointURL(port, endpointGetUnleashData),
		strings.NewReader(`{"wrapper_data":{}}`))
	if err != nil {
		return false
	}
	setAPIHeaders(req, csrfToken)

	resp, err := client.Do(req)
	if err != nil {
		logger.Debug("port probe failed", "port", port, "error", err)
		return false
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		logger.Debug("port probe rejected", "port", port, "status", resp.StatusCode)
		return false
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false
	}
	return json.Valid(body)
}
