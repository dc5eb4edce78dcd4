// Package shoebox is the photo library service: every user-facing
// operation on photos, albums, tags, layouts and settings, composed from
// the store, the consistency maintainer and the date organizer.
//
// Each operation runs as one unit of work. Writes that touch several
// collections run inside a single Store.Update, so readers never observe a
// partial change. Input is validated before anything is written.
//
// Errors belong to the taxonomy in package types: ErrNotFound, ErrConflict,
// ErrValidation and ErrQuotaExceeded reach the caller unchanged, and any
// other failure is wrapped in a *types.OperationError naming the operation.
package shoebox

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mesh-intelligence/shoebox/internal/consistency"
	"github.com/mesh-intelligence/shoebox/internal/logger"
	"github.com/mesh-intelligence/shoebox/internal/metrics"
	"github.com/mesh-intelligence/shoebox/internal/organize"
	"github.com/mesh-intelligence/shoebox/internal/validation"
	"github.com/mesh-intelligence/shoebox/pkg/types"
)

// Import defaults.
const (
	DefaultImportConcurrency = 4
	DefaultBatchSize         = organize.DefaultBatchSize
)

// Service implements the photo library operations over an attached store.
type Service struct {
	store     types.Store
	maint     *consistency.Maintainer
	organizer *organize.Organizer
	validate  *validation.Validator
	log       *slog.Logger
	now       func() time.Time

	extractor   types.MetadataExtractor
	thumbnails  types.ThumbnailGenerator
	files       types.FileValidator
	concurrency int
	batchSize   int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger. A nil logger discards output.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = logger.OrDiscard(log) }
}

// WithClock sets the time source for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetadataExtractor sets the extractor consulted on import.
func WithMetadataExtractor(e types.MetadataExtractor) Option {
	return func(s *Service) { s.extractor = e }
}

// WithThumbnailGenerator sets the thumbnail generator used on import.
func WithThumbnailGenerator(g types.ThumbnailGenerator) Option {
	return func(s *Service) { s.thumbnails = g }
}

// WithFileValidator sets the validator that accepts or rejects imported files.
func WithFileValidator(v types.FileValidator) Option {
	return func(s *Service) { s.files = v }
}

// WithImportConcurrency bounds how many files are prepared in parallel.
func WithImportConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithBatchSize sets how many photos each import or organize update writes.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// New creates a Service over an attached store.
func New(store types.Store, opts ...Option) *Service {
	s := &Service{
		store:       store,
		validate:    validation.New(),
		log:         logger.Discard(),
		now:         func() time.Time { return time.Now().UTC() },
		concurrency: DefaultImportConcurrency,
		batchSize:   DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.maint = consistency.New(s.log, consistency.WithClock(s.now))
	s.organizer = organize.New(store, s.maint,
		organize.WithLogger(s.log), organize.WithBatchSize(s.batchSize))
	return s
}

// update runs fn in a read-write unit of work and records the operation.
func (s *Service) update(ctx context.Context, op string, fn func(tx types.Tx) error) (err error) {
	defer observe(op, time.Now(), &err)
	return wrap(op, s.store.Update(ctx, fn))
}

// view runs fn in a read-only unit of work and records the operation.
func (s *Service) view(ctx context.Context, op string, fn func(tx types.Tx) error) (err error) {
	defer observe(op, time.Now(), &err)
	return wrap(op, s.store.View(ctx, fn))
}

func observe(op string, start time.Time, err *error) {
	metrics.ObserveOperation(op, start, *err)
}

// wrap maps err into the error taxonomy. Malformed ids and filters become
// validation errors; failures outside the taxonomy become OperationErrors.
func wrap(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case types.IsDomainError(err):
		return err
	case errors.Is(err, types.ErrInvalidID), errors.Is(err, types.ErrInvalidFilter), errors.Is(err, types.ErrInvalidData):
		return &types.ValidationError{Message: err.Error()}
	default:
		return &types.OperationError{Op: op, Err: err}
	}
}

func (s *Service) check(req any) error {
	return s.validate.Validate(req)
}
