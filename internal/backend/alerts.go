package backend

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

const alertsPath = "/alerts/"

// AlertStore implements alerts.Store.
type AlertStore struct {
	client *Client
}

// NewAlertStore constructs AlertStore.
func NewAlertStore(client *Client) *AlertStore {
	return &AlertStore{client: client}
}

var _ alerts.Store = (*AlertStore)(nil)

// ListAlerts fetches alerts matching filter.
func (s *AlertStore) ListAlerts(ctx context.Context, sess *shared.Session, filter alerts.ListFilter) ([]alerts.Alert, error) {
	query := map[string]string{}
	if filter.ActiveOnly {
		query["is_active"] = "true"
	}
	if filter.HealthFacilityID > 0 {
		query["health_facility"] = strconv.FormatInt(filter.HealthFacilityID, 10)
	}
	if filter.Type != "" {
		query["alert_type"] = string(filter.Type)
	}
	return list[alerts.Alert](ctx, s.client, sess, alertsPath, query)
}

// GetAlert fetches one alert.
func (s *AlertStore) GetAlert(ctx context.Context, sess *shared.Session, id int64) (alerts.Alert, error) {
	var alert alerts.Alert
	if err := s.client.do(ctx, sess, resty.MethodGet, itemPath(alertsPath, id), nil, nil, &alert); err != nil {
		return alerts.Alert{}, notFoundAs(err, "alert", id)
	}
	return alert, nil
}

// UpdateAlert patches an alert.
func (s *AlertStore) UpdateAlert(ctx context.Context, sess *shared.Session, id int64, patch alerts.ResolvePatch) (alerts.Alert, error) {
	var alert alerts.Alert
	if err := s.client.do(ctx, sess, resty.MethodPatch, itemPath(alertsPath, id), nil, patch, &alert); err != nil {
		return alerts.Alert{}, notFoundAs(err, "alert", id)
	}
	return alert, nil
}
