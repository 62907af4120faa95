// Package models defines the domain types shared by the storage,
// analytics, simulation and forecasting layers.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Employee is a payroll entry. BaseSalary is the monthly base salary.
type Employee struct {
	// ID is the unique identifier; never reused after deletion.
	ID uuid.UUID
	// Name is the employee's display name, trimmed and non-empty.
	Name string
	// BaseSalary is the non-negative monthly base salary.
	BaseSalary decimal.Decimal
	// HireDate is never in the future.
	HireDate time.Time
	// Active marks whether the employee currently draws a salary.
	Active bool
}

// EmployeeUpdate carries a partial update for an Employee.
// Pointer fields are applied only when non-nil.
type EmployeeUpdate struct {
	ID         uuid.UUID
	Name       *string
	BaseSalary *decimal.Decimal
	HireDate   *time.Time
	Active     *bool
}

// Apply merges u into a copy of e and returns the merged record.
func (e Employee) Apply(u *EmployeeUpdate) Employee {
	if u.Name != nil {
		e.Name = *u.Name
	}
	if u.BaseSalary != nil {
		e.BaseSalary = *u.BaseSalary
	}
	if u.HireDate != nil {
		e.HireDate = *u.HireDate
	}
	if u.Active != nil {
		e.Active = *u.Active
	}
	return e
}

// FinancialRecord holds one month of company financials. At most one
// record exists per period; derived figures live on KpiSnapshot and are
// computed on read, never stored.
type FinancialRecord struct {
	Period   Period
	Revenue  decimal.Decimal
	Expenses decimal.Decimal
	// TaxRate is a fraction in [0, 1].
	TaxRate decimal.Decimal
}

// KpiSnapshot is the computed view of one period.
type KpiSnapshot struct {
	Period          Period
	Revenue         decimal.Decimal
	Expenses        decimal.Decimal
	TotalSalary     decimal.Decimal
	ProfitBeforeTax decimal.Decimal
	ProfitAfterTax  decimal.Decimal
	// ProfitMargin is profit_after_tax / revenue, 0 when revenue is 0.
	ProfitMargin decimal.Decimal
}

// RangeSummary aggregates KPI figures across a period range.
type RangeSummary struct {
	From             Period
	To               Period
	Periods          int
	TotalRevenue     decimal.Decimal
	TotalProfit      decimal.Decimal
	AvgProfitMargin  decimal.Decimal
	AvgSalaryExpense decimal.Decimal
}

// SimulationParameters are hypothetical overrides applied on top of a
// stored FinancialRecord. Nil fields leave the stored value unchanged.
// Parameters are never persisted.
type SimulationParameters struct {
	// SalaryDeltaPct scales total salary: 0.05 means +5%.
	SalaryDeltaPct *decimal.Decimal
	// TaxRateOverride replaces the stored tax rate when set.
	TaxRateOverride *decimal.Decimal
	// ExpenseDeltaPct scales expenses: -0.1 means -10%.
	ExpenseDeltaPct *decimal.Decimal
}

// SimulationDelta pairs a simulated snapshot with its baseline and the
// resulting change in profit after tax.
type SimulationDelta struct {
	Baseline            KpiSnapshot
	Simulated           KpiSnapshot
	ProfitAfterTaxDelta decimal.Decimal
}

// PredictionResult is one forecast point. It is recomputed on demand
// and never persisted. PredictedRevenue may be negative; callers must
// surface that rather than clamp it.
type PredictionResult struct {
	ForecastPeriod   Period
	PredictedRevenue decimal.Decimal
	// ConfidenceNote flags weakly supported forecasts, e.g. "limited history".
	ConfidenceNote string
}
