package stock

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pharmaflow/pharmaflow/internal/shared"
)

// Store abstracts the backend holding stock entries.
type Store interface {
	ListStockEntries(ctx context.Context, sess *shared.Session, filter ListFilter) ([]StockEntry, error)
	GetStockEntry(ctx context.Context, sess *shared.Session, id int64) (StockEntry, error)
	CreateStockEntry(ctx context.Context, sess *shared.Session, in Input) (StockEntry, error)
	UpdateStockEntry(ctx context.Context, sess *shared.Session, id int64, patch Patch) (StockEntry, error)
	DeleteStockEntry(ctx context.Context, sess *shared.Session, id int64) error
	ListProjects(ctx context.Context, sess *shared.Session) ([]Project, error)
}

// Service coordinates stock receipt operations.
type Service struct {
	store    Store
	validate *validator.Validate
	clock    func() time.Time
}

// NewService builds Service.
func NewService(store Store) *Service {
	return &Service{
		store:    store,
		validate: newValidator(),
		clock:    func() time.Time { return time.Now().UTC() },
	}
}

// Ledger fetches entries and computes the annotated view.
func (s *Service) Ledger(ctx context.Context, sess *shared.Session, q LedgerQuery) (Ledger, error) {
	entries, err := s.store.ListStockEntries(ctx, sess, q.ListFilter)
	if err != nil {
		return Ledger{}, err
	}
	asOf := q.AsOf
	if asOf.IsZero() {
		asOf = s.clock()
	}
	asOf = DateOf(asOf.UTC()).Time
	return BuildLedger(FilterByFreeText(entries, q.Search), asOf), nil
}

// Summary fetches entries and aggregates them as of asOf (now when zero).
func (s *Service) Summary(ctx context.Context, sess *shared.Session, filter ListFilter, asOf time.Time) (Summary, error) {
	entries, err := s.store.ListStockEntries(ctx, sess, filter)
	if err != nil {
		return Summary{}, err
	}
	if asOf.IsZero() {
		asOf = s.clock()
	}
	return Aggregate(entries, DateOf(asOf.UTC()).Time), nil
}

// Get returns a single entry.
func (s *Service) Get(ctx context.Context, sess *shared.Session, id int64) (StockEntry, error) {
	if id <= 0 {
		return StockEntry{}, shared.Validation("id", "must be positive")
	}
	return s.store.GetStockEntry(ctx, sess, id)
}

// Create records a stock receipt after validating it.
func (s *Service) Create(ctx context.Context, sess *shared.Session, in Input) (StockEntry, error) {
	if err := validateInput(s.validate, in); err != nil {
		return StockEntry{}, err
	}
	return s.store.CreateStockEntry(ctx, sess, in)
}

// Update applies a partial edit. The merged entry is validated against the
// current stored state before the patch is sent.
func (s *Service) Update(ctx context.Context, sess *shared.Session, id int64, patch Patch) (StockEntry, error) {
	if id <= 0 {
		return StockEntry{}, shared.Validation("id", "must be positive")
	}
	if patch.IsEmpty() {
		return StockEntry{}, shared.Validation("", "nothing to update")
	}
	current, err := s.store.GetStockEntry(ctx, sess, id)
	if err != nil {
		return StockEntry{}, err
	}
	if err := validateInput(s.validate, inputFromEntry(patch.Apply(current))); err != nil {
		return StockEntry{}, err
	}
	return s.store.UpdateStockEntry(ctx, sess, id, patch)
}

// Delete permanently removes an entry.
func (s *Service) Delete(ctx context.Context, sess *shared.Session, id int64) error {
	if id <= 0 {
		return shared.Validation("id", "must be positive")
	}
	return s.store.DeleteStockEntry(ctx, sess, id)
}

// Projects lists the supply projects entries can be filed under.
func (s *Service) Projects(ctx context.Context, sess *shared.Session) ([]Project, error) {
	return s.store.ListProjects(ctx, sess)
}
