// Package dashboard composes the stock and alert summaries shown on the
// landing screen.
package dashboard

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pharmaflow/pharmaflow/internal/alerts"
	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
)

// StockSummarizer is satisfied by *stock.Service.
type StockSummarizer interface {
	Summary(ctx context.Context, sess *shared.Session, filter stock.ListFilter, asOf time.Time) (stock.Summary, error)
}

// AlertSummarizer is satisfied by *alerts.Service.
type AlertSummarizer interface {
	Summary(ctx context.Context, sess *shared.Session) (alerts.SeverityCounts, error)
}

// Overview is the dashboard payload.
type Overview struct {
	AsOf         time.Time             `json:"as_of"`
	Stock        stock.Summary         `json:"stock"`
	ActiveAlerts alerts.SeverityCounts `json:"active_alerts"`
}

// Service builds the dashboard overview.
type Service struct {
	stock  StockSummarizer
	alerts AlertSummarizer
	clock  func() time.Time
}

// NewService builds Service.
func NewService(stockSvc StockSummarizer, alertSvc AlertSummarizer) *Service {
	return &Service{stock: stockSvc, alerts: alertSvc, clock: func() time.Time { return time.Now().UTC() }}
}

// Overview fetches both summaries in parallel. A failure of either fails the
// whole overview.
func (s *Service) Overview(ctx context.Context, sess *shared.Session, filter stock.ListFilter) (Overview, error) {
	out := Overview{AsOf: stock.DateOf(s.clock().UTC()).Time}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		summary, err := s.stock.Summary(gctx, sess, filter, out.AsOf)
		if err != nil {
			return err
		}
		out.Stock = summary
		return nil
	})
	g.Go(func() error {
		counts, err := s.alerts.Summary(gctx, sess)
		if err != nil {
			return err
		}
		out.ActiveAlerts = counts
		return nil
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}
	return out, nil
}
