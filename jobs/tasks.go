package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStockExpiryScan classifies every stock batch against its expiry date.
	TaskStockExpiryScan = "stock:expiry-scan"
	// TaskAlertsDigest counts active alerts per severity.
	TaskAlertsDigest = "alerts:digest"
)

// ExpiryScanPayload parameterises an expiry scan.
type ExpiryScanPayload struct {
	// ProjectID restricts the scan to one project when positive.
	ProjectID int64 `json:"project_id,omitempty"`
	// AsOf overrides the scan date (YYYY-MM-DD); empty means today.
	AsOf string `json:"as_of,omitempty"`
}

// NewExpiryScanTask constructs an expiry scan task.
func NewExpiryScanTask(payload ExpiryScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStockExpiryScan, data), nil
}

// AlertDigestPayload parameterises an alert digest.
type AlertDigestPayload struct {
	HealthFacilityID int64 `json:"health_facility_id,omitempty"`
}

// NewAlertDigestTask constructs an alert digest task.
func NewAlertDigestTask(payload AlertDigestPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAlertsDigest, data), nil
}
