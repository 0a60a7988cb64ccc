package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/BradenHooton/landing/internal/metrics"
	"github.com/BradenHooton/landing/internal/models"
	pkglogger "github.com/BradenHooton/landing/pkg/logger"
)

const (
	DefaultContactPageSize = 50
	MaxContactPageSize     = 100

	notifyTimeout = 15 * time.Second
)

// ContactStore persists contact form submissions
type ContactStore interface {
	Create(ctx context.Context, c *models.ContactSubmission) (*models.ContactSubmission, error)
	List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error)
	ListAll(ctx context.Context) ([]*models.ContactSubmission, error)
}

// ContactInput is a validated contact form
type ContactInput struct {
	FullName string
	Email    string
	Phone    string
}

type ContactService struct {
	store    ContactStore
	notifier OwnerNotifier
	metrics  *metrics.Manager
	logger   *slog.Logger
	pending  sync.WaitGroup
}

func NewContactService(store ContactStore, notifier OwnerNotifier, metricsManager *metrics.Manager, logger *slog.Logger) *ContactService {
	if notifier == nil {
		notifier = NewNoopNotifier(logger)
	}
	return &ContactService{
		store:    store,
		notifier: notifier,
		metrics:  metricsManager,
		logger:   logger,
	}
}

// Submit stores the submission and notifies the owner in the background.
// A failed notification is logged and never fails the submission.
func (s *ContactService) Submit(ctx context.Context, in ContactInput) (*models.ContactSubmission, error) {
	submission := &models.ContactSubmission{
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Phone:    strings.TrimSpace(in.Phone),
	}

	created, err := s.store.Create(ctx, submission)
	if err != nil {
		s.logger.Error("failed to store contact submission",
			slog.String("email", pkglogger.SanitizedEmail(submission.Email)),
			slog.Any("error", err))
		return nil, infraError(err)
	}

	if s.metrics != nil {
		s.metrics.CounterContacts.Inc()
	}

	s.pending.Add(1)
	go func(c models.ContactSubmission) {
		defer s.pending.Done()

		notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()

		if err := s.notifier.NotifyNewContact(notifyCtx, &c); err != nil {
			if s.metrics != nil {
				s.metrics.CounterNotifyFailure.Inc()
			}
			s.logger.Error("failed to notify owner",
				slog.String("contact_id", c.ID),
				slog.Any("error", err))
		}
	}(*created)

	return created, nil
}

// Wait blocks until background notifications have finished.
func (s *ContactService) Wait() {
	s.pending.Wait()
}

// ClampPage bounds limit to 1..MaxContactPageSize (0 means default) and offset to >= 0
func ClampPage(limit, offset int) (int, int) {
	switch {
	case limit == 0:
		limit = DefaultContactPageSize
	case limit < 1:
		limit = 1
	case limit > MaxContactPageSize:
		limit = MaxContactPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// List returns a page of submissions, newest first
func (s *ContactService) List(ctx context.Context, limit, offset int) ([]*models.ContactSubmission, error) {
	limit, offset = ClampPage(limit, offset)

	contacts, err := s.store.List(ctx, limit, offset)
	if err != nil {
		s.logger.Error("failed to list contact submissions", slog.Any("error", err))
		return nil, infraError(err)
	}
	return contacts, nil
}

var csvHeader = []string{"id", "full_name", "email", "phone", "created_at"}

// ExportCSV writes every submission, newest first, as CSV
func (s *ContactService) ExportCSV(ctx context.Context, w io.Writer) error {
	contacts, err := s.store.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to load contact submissions for export", slog.Any("error", err))
		return infraError(err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range contacts {
		record := []string{
			c.ID,
			csvSafe(c.FullName),
			csvSafe(c.Email),
			csvSafe(c.Phone),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// csvSafe neutralises values a spreadsheet would evaluate as a formula
func csvSafe(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
