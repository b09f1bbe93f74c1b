package models

// ProcessCandidate is a language server process that matched the detection
// heuristics. Produced fresh on every detection pass, never persisted.
type ProcessCandidate struct {
	PID            int32
	Cmdline        string
	CsrfToken      string
	ExtensionPort  int
	ListeningPorts []int
}

// Connection describes a probe-validated language server endpoint.
// It is only constructed after a successful probe on Port.
type Connection struct {
	Port          int    `json:"port"`
	CsrfToken     string `json:"-"`
	PID           int32  `json:"pid"`
	ExtensionPort int    `json:"extension_port"`
}
