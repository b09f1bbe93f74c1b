package langserver

import (
	"context"
	"runtime"
	"sort"
	"strconv"
	"strings"

	gnet "github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// procEntry is a snapshot of one OS process as seen by the detector.
type procEntry struct {
	pid     int32
	name    string
	cmdline string
}

// Detector locates the running language server process and resolves a
// probe-validated connection to its control API. The process and socket
// enumeration functions are injectable for tests.
type Detector struct {
	enumerate      func(ctx context.Context) ([]procEntry, error)
	listeningPorts func(ctx context.Context, pid int32) ([]int, error)
}

// NewDetector creates a detector backed by gopsutil.
func NewDetector() *Detector {
	return &Detector{
		enumerate:      enumerateProcesses,
		listeningPorts: listeningPorts,
	}
}

// targetProcessName returns the OS-specific binary name fragment.
func targetProcessName() string {
	if name, ok := processNames[runtime.GOOS]; ok {
		return name
	}
	return "language_server"
}

// Detect scans all OS processes for the language server and returns a
// Connection for the first candidate with a port that passes probe.
// Introspection failures on individual processes skip that candidate; they
// never abort the scan. Returns nil when nothing matches or no port probes
// successfully.
func (d *Detector) Detect(ctx context.Context, probe func(port int, csrfToken string) bool) *models.Connection {
	target := targetProcessName()
	logger.Info("scanning for language server process", "name", target)

	entries, err := d.enumerate(ctx)
	if err != nil {
		logger.Warn("process enumeration failed", "error", err)
		return nil
	}

	for _, entry := range entries {
		candidate := d.matchCandidate(ctx, entry, target)
		if candidate == nil {
			continue
		}

		logger.Info("found language server",
			"pid", candidate.PID, "ports", candidate.ListeningPorts)

		for _, port := range candidate.ListeningPorts {
			if probe(port, candidate.CsrfToken) {
				logger.Info("connected to language server", "port", port)
				return &models.Connection{
					Port:          port,
					CsrfToken:     candidate.CsrfToken,
					PID:           candidate.PID,
					ExtensionPort: candidate.ExtensionPort,
				}
			}
		}
	}

	logger.Warn("language server not found")
	return nil
}

// matchCandidate applies the name/flag/token heuristics to a single process.
// Returns nil if the process does not qualify.
func (d *Detector) matchCandidate(ctx context.Context, entry procEntry, target string) *models.ProcessCandidate {
	searchable := entry.name + " " + entry.cmdline
	if !strings.Contains(searchable, target) {
		return nil
	}
	if !strings.Contains(searchable, markerFlag) {
		return nil
	}

	token := extractCsrfToken(searchable)
	if token == "" {
		// Control port flag without a token is unusable; keep scanning.
		return nil
	}

	ports, err := d.listeningPorts(ctx, entry.pid)
	if err != nil {
		// The process vanished or denied introspection mid-scan.
		logger.Debug("socket enumeration failed", "pid", entry.pid, "error", err)
		ports = nil
	}

	return &models.ProcessCandidate{
		PID:            entry.pid,
		Cmdline:        entry.cmdline,
		CsrfToken:      token,
		ExtensionPort:  extractExtensionPort(searchable),
		ListeningPorts: ports,
	}
}

// extractCsrfToken pulls the auth token out of a command-line string.
// Returns "" when the flag is absent.
func extractCsrfToken(cmdline string) string {
	if m := csrfTokenPattern.FindStringSubmatch(cmdline); len(m) > 1 {
		return m[1]
	}
	return ""
}

// extractExtensionPort pulls the advertised extension server port out of a
// command-line string. The value is informational only; it is not
// necessarily the control API port. Returns 0 when absent.
func extractExtensionPort(cmdline string) int {
	if m := extensionPortPattern.FindStringSubmatch(cmdline); len(m) > 1 {
		if port, err := strconv.Atoi(m[1]); err == nil {
			return port
		}
	}
	return 0
}

// enumerateProcesses lists all OS processes with name and command line.
// Per-process read failures yield empty fields rather than errors.
func enumerateProcesses(ctx context.Context) ([]procEntry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]procEntry, 0, len(procs))
	for _, p := range procs {
		name, _ := p.NameWithContext(ctx)
		cmdline, _ := p.CmdlineWithContext(ctx)
		entries = append(entries, procEntry{pid: p.Pid, name: name, cmdline: cmdline})
	}
	return entries, nil
}

// listeningPorts returns the deduplicated, ascending list of inet ports the
// process is listening on.
func listeningPorts(ctx context.Context, pid int32) ([]int, error) {
	conns, err := gnet.ConnectionsPidWithContext(ctx, "inet", pid)
	if err != nil {
		return nil, err
	}

	seen := make(map[int]bool)
	var ports []int
	for _, conn := range conns {
		if conn.Status != "LISTEN" {
			continue
		}
		port := int(conn.Laddr.Port)
		if !seen[port] {
			seen[port] = true
			ports = append(ports, port)
		}
	}

	sort.Ints(ports)
	return ports, nil
}
