package quota

import (
	"errors"
	"fmt"
	"testing"

	"github.com/antigravity-tools/quota-monitor/internal/langserver"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// fakeLangServer scripts connection and fetch outcomes per call.
type fakeLangServer struct {
	connections []*models.Connection
	fetchErrs   []error

	connectionCalls int
	fetchCalls      int
	resetCalls      int
	invalidateCalls int

	lastFetchConn *models.Connection
}

func (f *fakeLangServer) Connection() *models.Connection {
	idx := f.connectionCalls
	f.connectionCalls++
	if idx >= len(f.connections) {
		return nil
	}
	return f.connections[idx]
}

func (f *fakeLangServer) Invalidate() { f.invalidateCalls++ }
func (f *fakeLangServer) Reset()      { f.resetCalls++ }

func (f *fakeLangServer) FetchUserStatus(conn *models.Connection) (*langserver.UserStatusResponse, error) {
	idx := f.fetchCalls
	f.fetchCalls++
	f.lastFetchConn = conn
	if idx < len(f.fetchErrs) && f.fetchErrs[idx] != nil {
		return nil, f.fetchErrs[idx]
	}
	return &langserver.UserStatusResponse{}, nil
}

func TestService_ReportNotFound(t *testing.T) {
	fake := &fakeLangServer{}
	svc := New(fake)

	report, err := svc.Report()
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if report != nil {
		t.Errorf("report = %+v, want nil", report)
	}
	if fake.fetchCalls != 0 {
		t.Errorf("fetch calls = %d, want 0 (no retry when nothing is running)", fake.fetchCalls)
	}
	if fake.resetCalls != 0 {
		t.Errorf("reset calls = %d, want 0", fake.resetCalls)
	}
}

func TestService_ReportSuccess(t *testing.T) {
	fake := &fakeLangServer{
		connections: []*models.Connection{{Port: 42100, CsrfToken: "tok"}},
	}
	svc := New(fake)

	report, err := svc.Report()
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report == nil {
		t.Fatal("report = nil")
	}
	if fake.fetchCalls != 1 || fake.resetCalls != 0 {
		t.Errorf("fetch/reset calls = %d/%d, want 1/0", fake.fetchCalls, fake.resetCalls)
	}
}

func TestService_ReportRecoversAfterReset(t *testing.T) {
	staleConn := &models.Connection{Port: 42100, CsrfToken: "stale"}
	freshConn := &models.Connection{Port: 42200, CsrfToken: "fresh"}
	fake := &fakeLangServer{
		connections: []*models.Connection{staleConn, freshConn},
		fetchErrs:   []error{fmt.Errorf("connection refused")},
	}
	svc := New(fake)

	report, err := svc.Report()
	if err != nil {
		t.Fatalf("Report() error = %v", err)
	}
	if report == nil {
		t.Fatal("report = nil")
	}
	if fake.resetCalls != 1 {
		t.Errorf("reset calls = %d, want 1", fake.resetCalls)
	}
	if fake.fetchCalls != 2 {
		t.Errorf("fetch calls = %d, want 2", fake.fetchCalls)
	}
	if fake.lastFetchConn != freshConn {
		t.Error("retry must use the freshly detected connection")
	}
}

func TestService_ReportDoubleFailureClearsCache(t *testing.T) {
	firstErr := fmt.Errorf("connection refused")
	retryErr := fmt.Errorf("status 500")
	fake := &fakeLangServer{
		connections: []*models.Connection{
			{Port: 42100, CsrfToken: "a"},
			{Port: 42200, CsrfToken: "b"},
		},
		fetchErrs: []error{firstErr, retryErr},
	}
	svc := New(fake)

	_, err := svc.Report()

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if !errors.Is(err, retryErr) {
		t.Errorf("err = %v, want wrapped retry cause %v", err, retryErr)
	}
	// Both the pre-retry reset and the final cleanup must have run so no
	// stale connection survives the failed cycle.
	if fake.resetCalls != 2 {
		t.Errorf("reset calls = %d, want 2", fake.resetCalls)
	}
}

func TestService_ReportRedetectFailsAfterReset(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	fake := &fakeLangServer{
		connections: []*models.Connection{{Port: 42100, CsrfToken: "a"}},
		fetchErrs:   []error{cause},
	}
	svc := New(fake)

	_, err := svc.Report()

	var remoteErr *RemoteError
	if !errors.As(err, &remoteErr) {
		t.Fatalf("err = %v, want *RemoteError", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v, want wrapped original cause %v", err, cause)
	}
	if fake.fetchCalls != 1 {
		t.Errorf("fetch calls = %d, want 1 (no connection to retry against)", fake.fetchCalls)
	}
}

func TestService_Invalidate(t *testing.T) {
	fake := &fakeLangServer{}
	svc := New(fake)

	svc.Invalidate()
	if fake.invalidateCalls != 1 {
		t.Errorf("invalidate calls = %d, want 1", fake.invalidateCalls)
	}
}
