package audit

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shoebox/backoffice/internal/shared"
)

// RepositoryPort defines persistence for audit entries.
type RepositoryPort interface {
	InsertEntry(ctx context.Context, entry Entry) error
	ListEntries(ctx context.Context, filters TimelineFilters, limit, offset int) ([]Entry, int, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service records and serves the mutation timeline.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	clock  func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
		clock:  func() time.Time { return time.Now().UTC() },
	}
}

// Record persists an audit entry. Recording failure is logged and swallowed:
// an audit miss must not fail the mutation it describes.
func (s *Service) Record(ctx context.Context, entry Entry) {
	if s == nil || s.repo == nil {
		return
	}
	if entry.At.IsZero() {
		entry.At = s.clock()
	}
	if err := s.validate(entry); err != nil {
		if s.logger != nil {
			s.logger.Warn("audit record rejected", slog.Any("error", err))
		}
		return
	}
	if err := s.repo.InsertEntry(ctx, entry); err != nil && s.logger != nil {
		s.logger.Error("audit record failed", slog.Any("error", err),
			slog.String("entity", entry.Entity), slog.String("action", entry.Action))
	}
}

// Timeline lists recorded entries, newest first, with paging metadata.
func (s *Service) Timeline(ctx context.Context, filters TimelineFilters, page shared.ListFilters) ([]Entry, shared.Pagination, error) {
	page = page.Normalize()
	entries, total, err := s.repo.ListEntries(ctx, filters, page.PerPage, page.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return entries, shared.NewPagination(page.Page, page.PerPage, total), nil
}

// Prune removes entries recorded before the cutoff, returning the count.
func (s *Service) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.repo == nil {
		return 0, errors.New("audit: repository not configured")
	}
	return s.repo.PruneBefore(ctx, cutoff)
}

func (s *Service) validate(entry Entry) error {
	if entry.Action == "" || entry.Entity == "" || entry.EntityID == "" {
		return errors.New("audit entry requires action, entity and entity id")
	}
	return nil
}
