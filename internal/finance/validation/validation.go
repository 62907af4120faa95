// Package validation enforces field-level and cross-field invariants
// before any write reaches the repository. All validators are pure:
// they normalize in place, collect every violated rule, and report the
// whole batch in a single ValidationError.
package validation

import (
	"strings"
	"time"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/shopspring/decimal"
)

var (
	minDelta = decimal.NewFromInt(-1)
	one      = decimal.NewFromInt(1)
)

// Employee normalizes and validates a full employee record. The name is
// trimmed before the non-empty check.
func Employee(emp *models.Employee, now time.Time) error {
	verr := &e.ValidationError{}
	emp.Name = strings.TrimSpace(emp.Name)
	if emp.Name == "" {
		verr.Add("name must be non-empty")
	}
	if emp.BaseSalary.IsNegative() {
		verr.Add("base_salary must not be negative, got %s", emp.BaseSalary)
	}
	if emp.HireDate.IsZero() {
		verr.Add("hire_date is required")
	} else if emp.HireDate.After(now) {
		verr.Add("hire_date %s is in the future", emp.HireDate.Format("2006-01-02"))
	}
	return verr.Err()
}

// FinancialRecord validates one month of financials.
func FinancialRecord(rec *models.FinancialRecord) error {
	verr := &e.ValidationError{}
	if rec.Period.IsZero() {
		verr.Add("period is required")
	}
	if rec.Revenue.IsNegative() {
		verr.Add("revenue must not be negative, got %s", rec.Revenue)
	}
	if rec.Expenses.IsNegative() {
		verr.Add("expenses must not be negative, got %s", rec.Expenses)
	}
	if rec.TaxRate.IsNegative() || rec.TaxRate.GreaterThan(one) {
		verr.Add("tax_rate must be between 0 and 1, got %s", rec.TaxRate)
	}
	return verr.Err()
}

// SimulationParameters checks scenario overrides: deltas may shrink a
// figure to zero but not below, and a tax override stays a valid rate.
func SimulationParameters(params models.SimulationParameters) error {
	verr := &e.ValidationError{}
	if params.SalaryDeltaPct != nil && params.SalaryDeltaPct.LessThan(minDelta) {
		verr.Add("salary_delta_pct must not be below -1, got %s", params.SalaryDeltaPct)
	}
	if params.ExpenseDeltaPct != nil && params.ExpenseDeltaPct.LessThan(minDelta) {
		verr.Add("expense_delta_pct must not be below -1, got %s", params.ExpenseDeltaPct)
	}
	if o := params.TaxRateOverride; o != nil && (o.IsNegative() || o.GreaterThan(one)) {
		verr.Add("tax_rate_override must be between 0 and 1, got %s", o)
	}
	return verr.Err()
}
