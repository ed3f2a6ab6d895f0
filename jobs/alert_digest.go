package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	jobmetrics "github.com/pharmaflow/pharmaflow/internal/jobs"
	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// AlertLister is satisfied by *alerts.Service.
type AlertLister interface {
	List(ctx context.Context, sess *shared.Session, filter alerts.ListFilter) ([]alerts.Alert, error)
}

// AlertDigestJob logs the active alerts and publishes per-severity gauges.
type AlertDigestJob struct {
	Source  AlertLister
	Token   string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewAlertDigestJob initialises the alert digest handler.
func NewAlertDigestJob(source AlertLister, token string, logger *slog.Logger, metrics *jobmetrics.Metrics) *AlertDigestJob {
	return &AlertDigestJob{Source: source, Token: token, Logger: logger, Metrics: metrics}
}

// Handle executes the digest.
func (j *AlertDigestJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil {
		return errors.New("alert digest: handler not configured")
	}
	var payload AlertDigestPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.Metrics.Track(TaskAlertsDigest)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	start := time.Now()

	list, err := j.Source.List(ctx, shared.NewSession("", j.Token), alerts.ListFilter{
		ActiveOnly:       true,
		HealthFacilityID: payload.HealthFacilityID,
	})
	if err != nil {
		logger.Error("alert digest failed", slog.Any("error", err))
		if errors.Is(err, shared.ErrAuth) {
			return errors.Join(err, asynq.SkipRetry)
		}
		return err
	}

	counts := alerts.CountBySeverity(list)
	attrs := make([]any, 0, len(alerts.Severities)+1)
	for _, sev := range alerts.Severities {
		j.Metrics.SetActiveAlerts(string(sev), counts[sev])
		attrs = append(attrs, slog.Int(string(sev), counts[sev]))
	}
	attrs = append(attrs, slog.Duration("duration", time.Since(start)))
	logger.Info("active alert digest", attrs...)

	for _, a := range list {
		if a.Severity.Normalize() != alerts.SeverityCritical {
			break
		}
		logger.Warn("critical alert open",
			slog.Int64("alert_id", a.ID),
			slog.String("type", string(a.Type)),
			slog.String("title", a.Title),
			slog.Time("created_at", a.CreatedAt))
	}
	return nil
}
