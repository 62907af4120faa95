package controller

import (
	"context"
	"sync"
	"testing"
	"time"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/events"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockRepository implements the Repository interface for testing.
type MockRepository struct {
	createEmployee        func(context.Context, *models.Employee) error
	getEmployee           func(context.Context, uuid.UUID) (*models.Employee, error)
	updateEmployee        func(context.Context, *models.EmployeeUpdate) error
	deleteEmployee        func(context.Context, uuid.UUID) error
	listEmployees         func(context.Context, bool) ([]models.Employee, error)
	upsertFinancialRecord func(context.Context, *models.FinancialRecord) error
	getFinancialRecord    func(context.Context, models.Period) (*models.FinancialRecord, error)
	getFinancialHistory   func(context.Context, models.Period, models.Period) ([]models.FinancialRecord, error)
}

func (m *MockRepository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	return m.createEmployee(ctx, emp)
}

func (m *MockRepository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	return m.getEmployee(ctx, id)
}

func (m *MockRepository) UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error {
	return m.updateEmployee(ctx, update)
}

func (m *MockRepository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	return m.deleteEmployee(ctx, id)
}

func (m *MockRepository) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	return m.listEmployees(ctx, activeOnly)
}

func (m *MockRepository) UpsertFinancialRecord(ctx context.Context, rec *models.FinancialRecord) error {
	return m.upsertFinancialRecord(ctx, rec)
}

func (m *MockRepository) GetFinancialRecord(ctx context.Context, period models.Period) (*models.FinancialRecord, error) {
	return m.getFinancialRecord(ctx, period)
}

func (m *MockRepository) GetFinancialHistory(ctx context.Context, from, to models.Period) ([]models.FinancialRecord, error) {
	return m.getFinancialHistory(ctx, from, to)
}

func (m *MockRepository) Close() error {
	return nil
}

// MockProducer records produced events and signals the wait group.
type MockProducer struct {
	mu       sync.Mutex
	produced []events.EventType
	wg       *sync.WaitGroup
}

func (m *MockProducer) Produce(eventType events.EventType, key string, payload interface{}) {
	m.mu.Lock()
	m.produced = append(m.produced, eventType)
	m.mu.Unlock()
	if m.wg != nil {
		m.wg.Done()
	}
}

func validEmployee() *models.Employee {
	return &models.Employee{
		Name:       "Ada",
		BaseSalary: decimal.NewFromInt(2000),
		HireDate:   time.Date(2023, time.March, 1, 0, 0, 0, 0, time.UTC),
		Active:     true,
	}
}

func TestServiceCreateEmployee(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	producer := &MockProducer{wg: &wg}

	var stored *models.Employee
	repo := &MockRepository{
		createEmployee: func(_ context.Context, emp *models.Employee) error {
			stored = emp
			return nil
		},
	}
	svc := NewService(repo, producer, zaptest.NewLogger(t))

	created, err := svc.CreateEmployee(context.Background(), validEmployee())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID, "a nil id gets a fresh one")
	assert.Equal(t, stored, created)

	wg.Wait()
	assert.Equal(t, []events.EventType{events.EmployeeCreated}, producer.produced)
}

func TestServiceCreateEmployeeInvalid(t *testing.T) {
	repo := &MockRepository{
		createEmployee: func(context.Context, *models.Employee) error {
			t.Fatal("repository must not be reached for invalid input")
			return nil
		},
	}
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	emp := validEmployee()
	emp.Name = "  "
	emp.BaseSalary = decimal.NewFromInt(-5)

	_, err := svc.CreateEmployee(context.Background(), emp)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 2, "both violations should be reported at once")
}

func TestServiceCreateEmployeeConflict(t *testing.T) {
	repo := &MockRepository{
		createEmployee: func(context.Context, *models.Employee) error {
			return e.ErrConflict
		},
	}
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	emp := validEmployee()
	emp.ID = uuid.New()
	_, err := svc.CreateEmployee(context.Background(), emp)
	assert.ErrorIs(t, err, e.ErrConflict)
}

// TestServiceUpdateEmployee verifies the merged record is re-validated
// before the write.
func TestServiceUpdateEmployee(t *testing.T) {
	current := validEmployee()
	current.ID = uuid.New()

	t.Run("valid partial update", func(t *testing.T) {
		updated := false
		repo := &MockRepository{
			getEmployee: func(context.Context, uuid.UUID) (*models.Employee, error) {
				emp := *current
				if updated {
					emp.BaseSalary = decimal.NewFromInt(2500)
				}
				return &emp, nil
			},
			updateEmployee: func(context.Context, *models.EmployeeUpdate) error {
				updated = true
				return nil
			},
		}
		svc := NewService(repo, nil, zaptest.NewLogger(t))

		result, err := svc.UpdateEmployee(context.Background(), &models.EmployeeUpdate{
			ID:         current.ID,
			BaseSalary: utils.Ptr(decimal.NewFromInt(2500)),
		})
		require.NoError(t, err)
		assert.True(t, decimal.NewFromInt(2500).Equal(result.BaseSalary))
	})

	t.Run("merged record fails validation", func(t *testing.T) {
		repo := &MockRepository{
			getEmployee: func(context.Context, uuid.UUID) (*models.Employee, error) {
				emp := *current
				return &emp, nil
			},
			updateEmployee: func(context.Context, *models.EmployeeUpdate) error {
				t.Fatal("invalid merged record must not be written")
				return nil
			},
		}
		svc := NewService(repo, nil, zaptest.NewLogger(t))

		_, err := svc.UpdateEmployee(context.Background(), &models.EmployeeUpdate{
			ID:         current.ID,
			BaseSalary: utils.Ptr(decimal.NewFromInt(-100)),
		})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("missing id", func(t *testing.T) {
		svc := NewService(&MockRepository{}, nil, zaptest.NewLogger(t))

		_, err := svc.UpdateEmployee(context.Background(), &models.EmployeeUpdate{})
		assert.ErrorIs(t, err, e.ErrInvalidInput)
	})

	t.Run("unknown employee", func(t *testing.T) {
		repo := &MockRepository{
			getEmployee: func(context.Context, uuid.UUID) (*models.Employee, error) {
				return nil, e.ErrNotFound
			},
		}
		svc := NewService(repo, nil, zaptest.NewLogger(t))

		_, err := svc.UpdateEmployee(context.Background(), &models.EmployeeUpdate{
			ID:   uuid.New(),
			Name: utils.Ptr("Nobody"),
		})
		assert.ErrorIs(t, err, e.ErrNotFound)
	})
}

func TestServiceDeleteEmployee(t *testing.T) {
	current := validEmployee()
	current.ID = uuid.New()

	var wg sync.WaitGroup
	wg.Add(1)
	producer := &MockProducer{wg: &wg}

	deleted := false
	repo := &MockRepository{
		getEmployee: func(context.Context, uuid.UUID) (*models.Employee, error) {
			if deleted {
				return nil, e.ErrNotFound
			}
			return current, nil
		},
		deleteEmployee: func(context.Context, uuid.UUID) error {
			deleted = true
			return nil
		},
	}
	svc := NewService(repo, producer, zaptest.NewLogger(t))
	ctx := context.Background()

	require.NoError(t, svc.DeleteEmployee(ctx, current.ID))
	wg.Wait()
	assert.Equal(t, []events.EventType{events.EmployeeDeleted}, producer.produced)

	// The second delete reports NotFound; callers treat it as expected.
	err := svc.DeleteEmployee(ctx, current.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
}

func TestServiceUpsertFinancialRecord(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	producer := &MockProducer{wg: &wg}

	repo := &MockRepository{
		upsertFinancialRecord: func(context.Context, *models.FinancialRecord) error {
			return nil
		},
	}
	svc := NewService(repo, producer, zaptest.NewLogger(t))

	rec := &models.FinancialRecord{
		Period:  models.Period{Year: 2024, Month: time.January},
		Revenue: decimal.NewFromInt(10000),
		TaxRate: decimal.NewFromFloat(0.2),
	}
	_, err := svc.UpsertFinancialRecord(context.Background(), rec)
	require.NoError(t, err)

	wg.Wait()
	assert.Equal(t, []events.EventType{events.FinancialUpserted}, producer.produced)
}

func TestServiceUpsertFinancialRecordInvalid(t *testing.T) {
	repo := &MockRepository{
		upsertFinancialRecord: func(context.Context, *models.FinancialRecord) error {
			t.Fatal("repository must not be reached for invalid input")
			return nil
		},
	}
	svc := NewService(repo, nil, zaptest.NewLogger(t))

	rec := &models.FinancialRecord{
		Period:  models.Period{Year: 2024, Month: time.January},
		Revenue: decimal.NewFromInt(-1),
		TaxRate: decimal.NewFromInt(2),
	}
	_, err := svc.UpsertFinancialRecord(context.Background(), rec)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}

func TestServiceGetFinancialHistoryInvalidRange(t *testing.T) {
	svc := NewService(&MockRepository{}, nil, zaptest.NewLogger(t))

	from := models.Period{Year: 2024, Month: time.June}
	to := models.Period{Year: 2024, Month: time.January}
	_, err := svc.GetFinancialHistory(context.Background(), from, to)
	assert.ErrorIs(t, err, e.ErrInvalidInput)
}
