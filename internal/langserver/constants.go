// Package langserver discovers the local Antigravity language server process
// and talks to its private HTTP/2 control API.
package langserver

import "regexp"

// serviceBase is the Connect service path prefix for all control API calls.
const serviceBase = "exa.language_server_pb.LanguageServerService"

// Control API endpoints.
const (
	endpointGetUnleashData = "GetUnleashData"
	endpointGetUserStatus  = "GetUserStatus"
)

// Request headers required by the language server.
const (
	headerProtocolVersion = "Connect-Protocol-Version"
	headerCsrfToken       = "X-Codeium-Csrf-Token"
	protocolVersion       = "1"
)

// markerFlag must appear on the command line; it signals that the extension
// server (and with it the control API) is enabled.
const markerFlag = "--extension_server_port"

// processNames maps runtime.GOOS to the language server binary name fragment.
var processNames = map[string]string{
	"linux":   "language_server_linux",
	"darwin":  "language_server_macos",
	"windows": "language_server_windows",
}

// Command-line extraction patterns. First match wins; a process without a
// token match is disqualified.
var (
	csrfTokenPattern     = regexp.MustCompile(`--csrf_token[=\s]+([a-zA-Z0-9\-]+)`)
	extensionPortPattern = regexp.MustCompile(`--extension_server_port[=\s]+(\d+)`)
)
