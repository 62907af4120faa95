// Package simulate recomputes KPIs for a period under hypothetical
// salary, tax and expense overrides. It shares the KPI formulas with
// package kpi and never writes to the store.
package simulate

import (
	"context"

	"github.com/dkovacs/finsight/internal/finance/kpi"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/finance/validation"
	"github.com/shopspring/decimal"
)

var one = decimal.NewFromInt(1)

// Store is the read-only slice of the repository the engine needs.
type Store interface {
	GetFinancialRecord(ctx context.Context, period models.Period) (*models.FinancialRecord, error)
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
}

// Engine runs what-if scenarios over stored financials.
type Engine struct {
	store Store
}

func NewEngine(store Store) *Engine {
	return &Engine{store: store}
}

// Run applies params on top of the stored record for period and returns
// the recomputed snapshot. Holding everything else fixed, profit after
// tax never increases with a higher tax override or salary delta, and
// never decreases with higher revenue.
func (en *Engine) Run(ctx context.Context, period models.Period, params models.SimulationParameters) (*models.KpiSnapshot, error) {
	if err := validation.SimulationParameters(params); err != nil {
		return nil, err
	}
	rec, err := en.store.GetFinancialRecord(ctx, period)
	if err != nil {
		return nil, err
	}
	employees, err := en.store.ListEmployees(ctx, true)
	if err != nil {
		return nil, err
	}

	effective := *rec
	if params.TaxRateOverride != nil {
		effective.TaxRate = *params.TaxRateOverride
	}
	if params.ExpenseDeltaPct != nil {
		effective.Expenses = rec.Expenses.Mul(one.Add(*params.ExpenseDeltaPct))
	}
	salary := kpi.TotalSalary(employees, period)
	if params.SalaryDeltaPct != nil {
		salary = salary.Mul(one.Add(*params.SalaryDeltaPct))
	}

	snap := kpi.Snapshot(&effective, salary)
	return &snap, nil
}

// Delta runs the scenario and pairs it with the stored baseline, so a
// front-end can show "what changes" directly.
func (en *Engine) Delta(ctx context.Context, period models.Period, params models.SimulationParameters) (*models.SimulationDelta, error) {
	simulated, err := en.Run(ctx, period, params)
	if err != nil {
		return nil, err
	}
	baseline, err := en.Run(ctx, period, models.SimulationParameters{})
	if err != nil {
		return nil, err
	}
	return &models.SimulationDelta{
		Baseline:            *baseline,
		Simulated:           *simulated,
		ProfitAfterTaxDelta: simulated.ProfitAfterTax.Sub(baseline.ProfitAfterTax),
	}, nil
}
