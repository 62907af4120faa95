package db

import (
	"time"

	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// employeeRow is the persistence shape of an Employee. Soft deletion
// keeps the row so an id is never reused.
type employeeRow struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name       string          `gorm:"not null"`
	BaseSalary decimal.Decimal `gorm:"type:numeric;not null"`
	HireDate   time.Time       `gorm:"not null"`
	Active     bool            `gorm:"not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (employeeRow) TableName() string { return "employees" }

// financialRow is the persistence shape of a FinancialRecord. The
// period string YYYY-MM is the primary key, so uniqueness per period is
// enforced by the store itself.
type financialRow struct {
	Period    string          `gorm:"primaryKey;size:7"`
	Revenue   decimal.Decimal `gorm:"type:numeric;not null"`
	Expenses  decimal.Decimal `gorm:"type:numeric;not null"`
	TaxRate   decimal.Decimal `gorm:"type:numeric;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (financialRow) TableName() string { return "financial_records" }

func toEmployeeRow(emp *models.Employee) *employeeRow {
	return &employeeRow{
		ID:         emp.ID,
		Name:       emp.Name,
		BaseSalary: emp.BaseSalary,
		HireDate:   emp.HireDate,
		Active:     emp.Active,
	}
}

func (r *employeeRow) toModel() *models.Employee {
	return &models.Employee{
		ID:         r.ID,
		Name:       r.Name,
		BaseSalary: r.BaseSalary,
		HireDate:   r.HireDate,
		Active:     r.Active,
	}
}

func toFinancialRow(rec *models.FinancialRecord) *financialRow {
	return &financialRow{
		Period:   rec.Period.String(),
		Revenue:  rec.Revenue,
		Expenses: rec.Expenses,
		TaxRate:  rec.TaxRate,
	}
}

func (r *financialRow) toModel() (*models.FinancialRecord, error) {
	period, err := models.ParsePeriod(r.Period)
	if err != nil {
		return nil, err
	}
	return &models.FinancialRecord{
		Period:   period,
		Revenue:  r.Revenue,
		Expenses: r.Expenses,
		TaxRate:  r.TaxRate,
	}, nil
}
