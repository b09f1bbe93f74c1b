package langserver

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"
	"time"
)

// testServerPort extracts the loopback port an httptest server listens on.
func testServerPort(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	u, err := url.Parse(ts.URL)
	if err != nil {
		t.Fatalf("failed to parse test server URL: %v", err)
	}
	port, err := strconv.Atoi(u.Port())
	if err != nil {
		t.Fatalf("failed to parse test server port: %v", err)
	}
	return port
}

func TestProbePort_Success(t *testing.T) {
	var gotToken, gotProto string
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get(headerCsrfToken)
		gotProto = r.Header.Get(headerProtocolVersion)
		if r.URL.Path != "/"+serviceBase+"/"+endpointGetUnleashData {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"unleashData":{}}`))
	}))
	defer ts.Close()

	client := newHTTPClient(5 * time.Second)
	if !probePort(client, testServerPort(t, ts), "tok-1") {
		t.Fatal("probePort() = false, want true")
	}
	if gotToken != "tok-1" {
		t.Errorf("csrf token header = %q, want tok-1", gotToken)
	}
	if gotProto != protocolVersion {
		t.Errorf("protocol version header = %q, want %q", gotProto, protocolVersion)
	}
}

func TestProbePort_NonOKStatus(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such service", http.StatusNotFound)
	}))
	defer ts.Close()

	client := newHTTPClient(5 * time.Second)
	if probePort(client, testServerPort(t, ts), "tok") {
		t.Error("probePort() = true for 404, want false")
	}
}

func TestProbePort_MalformedBody(t *testing.T) {
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer ts.Close()

	client := newHTTPClient(5 * time.Second)
	if probePort(client, testServerPort(t, ts), "tok") {
		t.Error("probePort() = true for non-JSON body, want false")
	}
}

func TestProbePort_UnreachablePort(t *testing.T) {
	// Grab a port that was listening and no longer is.
	ts := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	port := testServerPort(t, ts)
	ts.Close()

	client := newHTTPClient(2 * time.Second)
	if probePort(client, port, "tok") {
		t.Error("probePort() = true for closed port, want false")
	}
}
