package langserver

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/antigravity-tools/quota-monitor/internal/logger"
	"github.com/antigravity-tools/quota-monitor/internal/models"
)

// FlexInt decodes an integer that the protobuf-JSON upstream may serialize
// as either a number or a string.
type FlexInt int64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid integer value %q: %w", s, err)
	}
	*f = FlexInt(n)
	return nil
}

// UserStatusResponse is the raw GetUserStatus payload. Every field is
// optional; absent fields decode to zero values or nil pointers, and
// downstream normalization must tolerate both.
type UserStatusResponse struct {
	UserStatus UserStatus `json:"userStatus"`
}

// UserStatus carries plan, model and identity data for the signed-in user.
type UserStatus struct {
	Name                   string                 `json:"name"`
	Email                  string                 `json:"email"`
	PlanStatus             PlanStatus             `json:"planStatus"`
	CascadeModelConfigData CascadeModelConfigData `json:"cascadeModelConfigData"`
}

// PlanStatus holds current credit balances alongside static plan info.
type PlanStatus struct {
	PlanInfo               PlanInfo `json:"planInfo"`
	AvailablePromptCredits *FlexInt `json:"availablePromptCredits"`
	AvailableFlowCredits   *FlexInt `json:"availableFlowCredits"`
}

// PlanInfo describes the subscription plan and its monthly allotments.
type PlanInfo struct {
	PlanName             string  `json:"planName"`
	TeamsTier            string  `json:"teamsTier"`
	MonthlyPromptCredits FlexInt `json:"monthlyPromptCredits"`
	MonthlyFlowCredits   FlexInt `json:"monthlyFlowCredits"`
}

// CascadeModelConfigData wraps the per-model client configuration list.
type CascadeModelConfigData struct {
	ClientModelConfigs []ClientModelConfig `json:"clientModelConfigs"`
}

// ClientModelConfig is one model entry; QuotaInfo is nil for models without
// quota tracking.
type ClientModelConfig struct {
	Label        string       `json:"label"`
	ModelOrAlias ModelOrAlias `json:"modelOrAlias"`
	QuotaInfo    *QuotaInfo   `json:"quotaInfo"`
}

// ModelOrAlias resolves to a concrete model identifier.
type ModelOrAlias struct {
	Model string `json:"model"`
}

// QuotaInfo is the upstream quota state for one model.
type QuotaInfo struct {
	RemainingFraction *float64 `json:"remainingFraction"`
	ResetTime         string   `json:"resetTime"`
}

// userStatusRequest is the fixed metadata body GetUserStatus expects.
const userStatusRequest = `{"metadata":{"ideName":"antigravity","extensionName":"antigravity","locale":"en"}}`

// FetchUserStatus issues the authenticated GetUserStatus call against a
// validated connection. Transport errors, non-success statuses and
// unparseable bodies all surface as errors; retry policy lives with the
// caller.
func (m *Manager) FetchUserStatus(conn *models.Connection) (*UserStatusResponse, error) {
	req, err := http.NewRequest(http.MethodPost,
		endpointURL(conn.Port, endpointGetUserStatus),
		strings.NewReader(userStatusRequest))
	if err != nil {
		return nil, fmt.Errorf("failed to create user status request: %w", err)
	}
	setAPIHeaders(req, conn.CsrfToken)

	m.mu.Lock()
	client := m.httpClient()
	m.mu.Unlock()

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user status request failed: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Error("failed to close response body", "error", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read user status response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("user status request failed (status %d): %s", resp.StatusCode, string(body))
	}

	var status UserStatusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return nil, fmt.Errorf("failed to parse user status response: %w", err)
	}

	return &status, nil
}
