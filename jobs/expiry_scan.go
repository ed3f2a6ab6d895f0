package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/pharmaflow/pharmaflow/internal/jobs"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
)

// LedgerSource is satisfied by *stock.Service.
type LedgerSource interface {
	Ledger(ctx context.Context, sess *shared.Session, q stock.LedgerQuery) (stock.Ledger, error)
}

// ExpiryScanJob classifies all stock batches and publishes the counts.
type ExpiryScanJob struct {
	Source  LedgerSource
	Token   string
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	clock   func() time.Time
}

// NewExpiryScanJob initialises the expiry scan handler. token is the
// backend service token used for the scheduled reads.
func NewExpiryScanJob(source LedgerSource, token string, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpiryScanJob {
	return &ExpiryScanJob{
		Source:  source,
		Token:   token,
		Logger:  logger,
		Metrics: metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes the expiry scan.
func (j *ExpiryScanJob) Handle(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Source == nil {
		return errors.New("expiry scan: handler not configured")
	}
	var payload ExpiryScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}
	asOf := stock.DateOf(j.clock().UTC()).Time
	if payload.AsOf != "" {
		d, ok := stock.ParseDate(payload.AsOf)
		if !ok {
			return asynq.SkipRetry
		}
		asOf = d.Time
	}

	tracker := j.Metrics.Track(TaskStockExpiryScan)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(
		slog.String("run_id", uuid.NewString()),
		slog.String("as_of", asOf.Format(stock.DateLayout)),
		slog.Int64("project_id", payload.ProjectID),
	)
	logger.Info("starting expiry scan")
	start := time.Now()

	sess := shared.NewSession("", j.Token)
	ledger, err := j.Source.Ledger(ctx, sess, stock.LedgerQuery{
		ListFilter: stock.ListFilter{ProjectID: payload.ProjectID},
		AsOf:       asOf,
	})
	if err != nil {
		logger.Error("expiry scan failed", slog.Any("error", err))
		if errors.Is(err, shared.ErrAuth) || errors.Is(err, shared.ErrValidation) {
			return errors.Join(err, asynq.SkipRetry)
		}
		return err
	}

	counts := map[stock.ExpiryStatus]int{
		stock.ExpiryExpired:      0,
		stock.ExpiryExpiringSoon: 0,
		stock.ExpiryNormal:       0,
	}
	for _, row := range ledger.Rows {
		counts[row.Status]++
		if row.Status == stock.ExpiryNormal {
			continue
		}
		attrs := []any{
			slog.Int64("entry_id", row.ID),
			slog.String("medication", row.MedicationName),
			slog.String("batch", row.BatchNumber),
			slog.String("status", string(row.Status)),
			slog.String("value", row.Value.StringFixed(2)),
		}
		if row.DaysUntilExpiry != nil {
			attrs = append(attrs, slog.Int("days_until_expiry", *row.DaysUntilExpiry))
		}
		logger.Warn("batch needs attention", attrs...)
	}
	for status, n := range counts {
		j.Metrics.SetStockBatches(string(status), n)
	}
	value, _ := ledger.Summary.TotalValue.Float64()
	j.Metrics.SetStockValue(value)

	logger.Info("completed expiry scan",
		slog.Int("batches", ledger.Summary.TotalItems),
		slog.Int("expired", ledger.Summary.ExpiredCount),
		slog.Int("expiring_soon", ledger.Summary.ExpiringSoonCount),
		slog.String("total_value", ledger.Summary.TotalValue.StringFixed(2)),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

func (j *ExpiryScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
