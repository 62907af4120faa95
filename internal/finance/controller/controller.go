// Package controller implements the write and read front door of the
// core: it runs every mutation through validation, delegates storage to
// the repository, and fires mutation events after successful commits.
// The CLI, dashboard and notebook all call this one API so results
// never diverge between front-ends.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/events"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/finance/validation"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// EventProducer publishes mutation events. A nil producer disables
// publishing.
type EventProducer interface {
	Produce(eventType events.EventType, key string, payload interface{})
}

// Repository defines the storage surface the service needs.
type Repository interface {
	CreateEmployee(ctx context.Context, emp *models.Employee) error
	GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error)
	UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error
	DeleteEmployee(ctx context.Context, id uuid.UUID) error
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
	UpsertFinancialRecord(ctx context.Context, rec *models.FinancialRecord) error
	GetFinancialRecord(ctx context.Context, period models.Period) (*models.FinancialRecord, error)
	GetFinancialHistory(ctx context.Context, from, to models.Period) ([]models.FinancialRecord, error)
	Close() error
}

// Service provides validated CRUD over employees and financial records.
type Service struct {
	repo     Repository
	producer EventProducer
	logger   *zap.Logger
	now      func() time.Time
}

// NewService constructs a Service. producer may be nil.
func NewService(repo Repository, producer EventProducer, logger *zap.Logger) *Service {
	return &Service{
		repo:     repo,
		producer: producer,
		logger:   logger.Named("finance_service"),
		now:      time.Now,
	}
}

// CreateEmployee validates and stores a new employee. A nil id gets a
// fresh one; a caller-supplied id that collides yields ErrConflict.
func (s *Service) CreateEmployee(ctx context.Context, emp *models.Employee) (*models.Employee, error) {
	if err := validation.Employee(emp, s.now()); err != nil {
		return nil, err
	}

	if emp.ID == uuid.Nil {
		emp.ID = uuid.New()
	}
	if err := s.repo.CreateEmployee(ctx, emp); err != nil {
		if errors.Is(err, e.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}
	s.produce(events.EmployeeCreated, emp.ID.String(), emp)
	return emp, nil
}

// GetEmployee retrieves an employee by id.
func (s *Service) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	emp, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return emp, nil
}

// UpdateEmployee applies a partial update. The merged record is
// re-validated before anything is written.
func (s *Service) UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) (*models.Employee, error) {
	if update.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: missing employee ID", e.ErrInvalidInput)
	}

	current, err := s.repo.GetEmployee(ctx, update.ID)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee for update: %w", err)
	}
	merged := current.Apply(update)
	if err := validation.Employee(&merged, s.now()); err != nil {
		return nil, err
	}
	// Name may have been normalized during validation.
	if update.Name != nil {
		update.Name = &merged.Name
	}

	if err := s.repo.UpdateEmployee(ctx, update); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	updated, err := s.repo.GetEmployee(ctx, update.ID)
	if err != nil {
		s.logger.Error("Failed to get employee after update",
			zap.Error(err),
			zap.String("employee_id", update.ID.String()),
		)
		return nil, err
	}
	s.produce(events.EmployeeUpdated, updated.ID.String(), updated)
	return updated, nil
}

// DeleteEmployee removes an employee. Repeating the call after success
// reports ErrNotFound; historical KPI snapshots computed earlier are
// unaffected, only future computations see the smaller employee set.
func (s *Service) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	emp, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to get employee for deletion: %w", err)
	}

	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	s.produce(events.EmployeeDeleted, id.String(), emp)
	return nil
}

// ListEmployees returns employees ordered by id.
func (s *Service) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	employees, err := s.repo.ListEmployees(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, nil
}

// UpsertFinancialRecord validates and writes the record for a period,
// replacing any existing one.
func (s *Service) UpsertFinancialRecord(ctx context.Context, rec *models.FinancialRecord) (*models.FinancialRecord, error) {
	if err := validation.FinancialRecord(rec); err != nil {
		return nil, err
	}
	if err := s.repo.UpsertFinancialRecord(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to upsert financial record: %w", err)
	}
	s.produce(events.FinancialUpserted, rec.Period.String(), rec)
	return rec, nil
}

// GetFinancialHistory returns records in [from, to] ordered by period.
// An empty range yields an empty slice, not an error.
func (s *Service) GetFinancialHistory(ctx context.Context, from, to models.Period) ([]models.FinancialRecord, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s precedes start %s", e.ErrInvalidInput, to, from)
	}
	history, err := s.repo.GetFinancialHistory(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to read financial history: %w", err)
	}
	return history, nil
}

func (s *Service) produce(eventType events.EventType, key string, payload interface{}) {
	if s.producer == nil {
		return
	}
	go func() {
		s.producer.Produce(eventType, key, payload)
	}()
}
