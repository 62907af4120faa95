// Package kpi computes per-period business figures from stored
// financial records and the employee set. It never writes.
package kpi

import (
	"context"
	"fmt"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Store is the read-only slice of the repository the engine needs.
type Store interface {
	GetFinancialRecord(ctx context.Context, period models.Period) (*models.FinancialRecord, error)
	GetFinancialHistory(ctx context.Context, from, to models.Period) ([]models.FinancialRecord, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
}

// Engine aggregates financial records into KPI snapshots.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Compute returns the snapshot for one period. ErrNotFound when no
// financial record exists for it; callers decide whether that means
// "no data yet" or a real problem.
func (en *Engine) Compute(ctx context.Context, period models.Period) (*models.KpiSnapshot, error) {
	rec, err := en.store.GetFinancialRecord(ctx, period)
	if err != nil {
		return nil, err
	}
	employees, err := en.store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}
	snap := Snapshot(rec, TotalSalary(employees, period))
	return &snap, nil
}

// Trend returns one snapshot per period present in [from, to], ordered
// ascending. Missing periods are skipped, never interpolated.
func (en *Engine) Trend(ctx context.Context, from, to models.Period) ([]models.KpiSnapshot, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s precedes start %s", e.ErrInvalidInput, to, from)
	}
	history, err := en.store.GetFinancialHistory(ctx, from, to)
	if err != nil {
		return nil, err
	}
	employees, err := en.store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}

	snapshots := make([]models.KpiSnapshot, 0, len(history))
	for i := range history {
		rec := &history[i]
		snapshots = append(snapshots, Snapshot(rec, TotalSalary(employees, rec.Period)))
	}
	return snapshots, nil
}

// Summary aggregates a range into totals and averages. Averages are
// taken over the periods that have records.
func (en *Engine) Summary(ctx context.Context, from, to models.Period) (*models.RangeSummary, error) {
	snapshots, err := en.Trend(ctx, from, to)
	if err != nil {
		return nil, err
	}

	summary := &models.RangeSummary{From: from, To: to, Periods: len(snapshots)}
	totalSalary := decimal.Zero
	for i := range snapshots {
		summary.TotalRevenue = summary.TotalRevenue.Add(snapshots[i].Revenue)
		summary.TotalProfit = summary.TotalProfit.Add(snapshots[i].ProfitAfterTax)
		totalSalary = totalSalary.Add(snapshots[i].TotalSalary)
	}
	if summary.TotalRevenue.IsPositive() {
		summary.AvgProfitMargin = summary.TotalProfit.Div(summary.TotalRevenue)
	}
	if len(snapshots) > 0 {
		summary.AvgSalaryExpense = totalSalary.Div(decimal.NewFromInt(int64(len(snapshots))))
	}
	return summary, nil
}

// TotalSalary sums base salaries of active employees hired on or before
// the end of the period. Deleted employees are already absent from the
// input, so deletion affects only computations made after it.
func TotalSalary(employees []models.Employee, period models.Period) decimal.Decimal {
	total := decimal.Zero
	end := period.End()
	for i := range employees {
		if employees[i].Active && !employees[i].HireDate.After(end) {
			total = total.Add(employees[i].BaseSalary)
		}
	}
	return total
}

// Snapshot derives all KPI figures from a financial record and a salary
// total. The simulation engine reuses it so both paths share one set of
// formulas.
func Snapshot(rec *models.FinancialRecord, totalSalary decimal.Decimal) models.KpiSnapshot {
	profitBefore := rec.Revenue.Sub(rec.Expenses).Sub(totalSalary)
	profitAfter := profitBefore.Mul(one.Sub(rec.TaxRate))

	margin := decimal.Zero
	if !rec.Revenue.IsZero() {
		margin = profitAfter.Div(rec.Revenue)
	}
	return models.KpiSnapshot{
		Period:          rec.Period,
		Revenue:         rec.Revenue,
		Expenses:        rec.Expenses,
		TotalSalary:     totalSalary,
		ProfitBeforeTax: profitBefore,
		ProfitAfterTax:  profitAfter,
		ProfitMargin:    margin,
	}
}
