package backend

import (
	"context"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/pharmaflow/pharmaflow/internal/shared"
	"github.com/pharmaflow/pharmaflow/internal/stock"
)

const (
	stockEntriesPath = "/stock-entries/"
	projectsPath     = "/projects/"
)

// StockStore implements stock.Store.
type StockStore struct {
	client *Client
}

// NewStockStore constructs StockStore.
func NewStockStore(client *Client) *StockStore {
	return &StockStore{client: client}
}

var _ stock.Store = (*StockStore)(nil)

// ListStockEntries fetches every stock entry matching filter.
func (s *StockStore) ListStockEntries(ctx context.Context, sess *shared.Session, filter stock.ListFilter) ([]stock.StockEntry, error) {
	query := map[string]string{}
	if filter.ProjectID > 0 {
		query["project"] = strconv.FormatInt(filter.ProjectID, 10)
	}
	if filter.MedicationID > 0 {
		query["medication"] = strconv.FormatInt(filter.MedicationID, 10)
	}
	return list[stock.StockEntry](ctx, s.client, sess, stockEntriesPath, query)
}

// GetStockEntry fetches one entry.
func (s *StockStore) GetStockEntry(ctx context.Context, sess *shared.Session, id int64) (stock.StockEntry, error) {
	var entry stock.StockEntry
	if err := s.client.do(ctx, sess, resty.MethodGet, itemPath(stockEntriesPath, id), nil, nil, &entry); err != nil {
		return stock.StockEntry{}, notFoundAs(err, "stock entry", id)
	}
	return entry, nil
}

// CreateStockEntry records a receipt.
func (s *StockStore) CreateStockEntry(ctx context.Context, sess *shared.Session, in stock.Input) (stock.StockEntry, error) {
	var entry stock.StockEntry
	if err := s.client.do(ctx, sess, resty.MethodPost, stockEntriesPath, nil, in, &entry); err != nil {
		return stock.StockEntry{}, err
	}
	return entry, nil
}

// UpdateStockEntry sends a partial update.
func (s *StockStore) UpdateStockEntry(ctx context.Context, sess *shared.Session, id int64, patch stock.Patch) (stock.StockEntry, error) {
	var entry stock.StockEntry
	if err := s.client.do(ctx, sess, resty.MethodPatch, itemPath(stockEntriesPath, id), nil, patch, &entry); err != nil {
		return stock.StockEntry{}, notFoundAs(err, "stock entry", id)
	}
	return entry, nil
}

// DeleteStockEntry removes an entry.
func (s *StockStore) DeleteStockEntry(ctx context.Context, sess *shared.Session, id int64) error {
	err := s.client.do(ctx, sess, resty.MethodDelete, itemPath(stockEntriesPath, id), nil, nil, nil)
	return notFoundAs(err, "stock entry", id)
}

// ListProjects fetches the supply projects.
func (s *StockStore) ListProjects(ctx context.Context, sess *shared.Session) ([]stock.Project, error) {
	return list[stock.Project](ctx, s.client, sess, projectsPath, nil)
}
