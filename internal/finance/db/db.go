// Package db implements the durable store for employees and financial
// records on top of GORM. SQLite is the default medium; Postgres is
// selected by config. Every exported method is one atomic transaction.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

const connectRetries = 5

// Repository owns all persisted state. It is the single source of
// truth; every other component is a read-only view over it.
type Repository struct {
	db *gorm.DB
}

// Config selects and parameterizes the storage driver.
type Config struct {
	// Driver is "sqlite" (default) or "postgres".
	Driver string
	// Path is the SQLite database file.
	Path string
	// Postgres connection settings.
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (c *Config) dialector() (gorm.Dialector, error) {
	switch c.Driver {
	case "", "sqlite":
		path := c.Path
		if path == "" {
			path = "finsight.db"
		}
		return sqlite.Open(path), nil
	case "postgres":
		dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
		return postgres.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", c.Driver)
	}
}

// NewRepository opens the database, retrying the initial connection
// with exponential backoff, and migrates the schema.
func NewRepository(cfg *Config) (*Repository, error) {
	dialector, err := cfg.dialector()
	if err != nil {
		return nil, err
	}

	var gdb *gorm.DB
	err = backoff.Retry(func() error {
		gdb, err = gorm.Open(dialector, &gorm.Config{
			TranslateError: true,
			Logger:         logger.Default.LogMode(logger.Silent),
		})
		return err
	}, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), connectRetries))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to database: %v", e.ErrStorage, err)
	}

	if err := gdb.AutoMigrate(&employeeRow{}, &financialRow{}); err != nil {
		return nil, fmt.Errorf("%w: failed to migrate database: %v", e.ErrStorage, err)
	}
	return &Repository{db: gdb}, nil
}

// CreateEmployee inserts a new employee. A colliding id, including the
// id of a soft-deleted employee, yields ErrConflict.
func (r *Repository) CreateEmployee(ctx context.Context, emp *models.Employee) error {
	result := r.db.WithContext(ctx).Create(toEmployeeRow(emp))
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: employee id %s already exists", e.ErrConflict, emp.ID)
		}
		return storageErr(result.Error)
	}
	return nil
}

// GetEmployee fetches one employee by id.
func (r *Repository) GetEmployee(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var row employeeRow
	result := r.db.WithContext(ctx).First(&row, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: employee %s", e.ErrNotFound, id)
		}
		return nil, storageErr(result.Error)
	}
	return row.toModel(), nil
}

// UpdateEmployee applies the non-nil fields of update.
func (r *Repository) UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error {
	fields := map[string]interface{}{}
	if update.Name != nil {
		fields["name"] = *update.Name
	}
	if update.BaseSalary != nil {
		fields["base_salary"] = *update.BaseSalary
	}
	if update.HireDate != nil {
		fields["hire_date"] = *update.HireDate
	}
	if update.Active != nil {
		fields["active"] = *update.Active
	}
	if len(fields) == 0 {
		// Nothing to change; still report a missing id.
		_, err := r.GetEmployee(ctx, update.ID)
		return err
	}

	result := r.db.WithContext(ctx).Model(&employeeRow{}).
		Where("id = ?", update.ID).
		Updates(fields)
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: employee %s", e.ErrNotFound, update.ID)
	}
	return nil
}

// DeleteEmployee soft-deletes an employee. A second delete of the same
// id reports ErrNotFound; callers treat that as expected.
func (r *Repository) DeleteEmployee(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&employeeRow{}, "id = ?", id)
	if result.Error != nil {
		return storageErr(result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: employee %s", e.ErrNotFound, id)
	}
	return nil
}

// ListEmployees returns employees ordered by id, so output is stable
// regardless of insertion order.
func (r *Repository) ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error) {
	query := r.db.WithContext(ctx).Model(&employeeRow{}).Order("id")
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var rows []employeeRow
	if err := query.Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	employees := make([]models.Employee, 0, len(rows))
	for i := range rows {
		employees = append(employees, *rows[i].toModel())
	}
	return employees, nil
}

// UpsertFinancialRecord creates or replaces the record for a period in
// one atomic statement.
func (r *Repository) UpsertFinancialRecord(ctx context.Context, rec *models.FinancialRecord) error {
	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "period"}},
		DoUpdates: clause.AssignmentColumns([]string{"revenue", "expenses", "tax_rate", "updated_at"}),
	}).Create(toFinancialRow(rec))
	if result.Error != nil {
		return storageErr(result.Error)
	}
	return nil
}

// GetFinancialRecord fetches the record for one period.
func (r *Repository) GetFinancialRecord(ctx context.Context, period models.Period) (*models.FinancialRecord, error) {
	var row financialRow
	result := r.db.WithContext(ctx).First(&row, "period = ?", period.String())
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no financial record for %s", e.ErrNotFound, period)
		}
		return nil, storageErr(result.Error)
	}
	return row.toModel()
}

// GetFinancialHistory returns records with from <= period <= to,
// ordered by period ascending. An empty range is not an error.
func (r *Repository) GetFinancialHistory(ctx context.Context, from, to models.Period) ([]models.FinancialRecord, error) {
	var rows []financialRow
	err := r.db.WithContext(ctx).
		Where("period >= ? AND period <= ?", from.String(), to.String()).
		Order("period").
		Find(&rows).Error
	if err != nil {
		return nil, storageErr(err)
	}
	return rowsToRecords(rows)
}

// ListFinancialRecords returns the full history ordered by period.
func (r *Repository) ListFinancialRecords(ctx context.Context) ([]models.FinancialRecord, error) {
	var rows []financialRow
	if err := r.db.WithContext(ctx).Order("period").Find(&rows).Error; err != nil {
		return nil, storageErr(err)
	}
	return rowsToRecords(rows)
}

// WithTransaction runs fn inside a single transaction; bulk import uses
// it to make "all rows or none" hold.
func (r *Repository) WithTransaction(ctx context.Context, fn func(repo *Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Repository{db: tx})
	})
}

func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return storageErr(err)
	}
	return sqlDB.Close()
}

func rowsToRecords(rows []financialRow) ([]models.FinancialRecord, error) {
	records := make([]models.FinancialRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, storageErr(err)
		}
		records = append(records, *rec)
	}
	return records, nil
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", e.ErrStorage, err)
}
