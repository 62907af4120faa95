package validation

import (
	"errors"
	"testing"
	"time"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/pkg/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC)

// TestEmployeeBatchReporting verifies every violated rule is reported
// in one error, not just the first.
func TestEmployeeBatchReporting(t *testing.T) {
	emp := &models.Employee{
		Name:       "   ",
		BaseSalary: decimal.NewFromInt(-1),
		HireDate:   now.AddDate(0, 0, 1),
	}

	err := Employee(emp, now)
	require.Error(t, err)
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	var verr *e.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Len(t, verr.Violations, 3, "all three violations should be listed")
}

func TestEmployeeNormalizesName(t *testing.T) {
	emp := &models.Employee{
		Name:       "  Ada Lovelace  ",
		BaseSalary: decimal.NewFromInt(2000),
		HireDate:   now.AddDate(-1, 0, 0),
	}

	require.NoError(t, Employee(emp, now))
	assert.Equal(t, "Ada Lovelace", emp.Name)
}

func TestEmployeeValid(t *testing.T) {
	emp := &models.Employee{
		Name:       "Grace",
		BaseSalary: decimal.Zero,
		HireDate:   now,
	}
	assert.NoError(t, Employee(emp, now), "zero salary and same-day hire are valid")
}

func TestFinancialRecord(t *testing.T) {
	period := models.Period{Year: 2024, Month: time.January}

	tests := []struct {
		name       string
		rec        models.FinancialRecord
		violations int
	}{
		{
			name: "valid",
			rec: models.FinancialRecord{
				Period:  period,
				Revenue: decimal.NewFromInt(1000),
				TaxRate: decimal.NewFromFloat(0.2),
			},
		},
		{
			name: "tax rate of exactly 1 is allowed",
			rec: models.FinancialRecord{
				Period:  period,
				TaxRate: decimal.NewFromInt(1),
			},
		},
		{
			name:       "missing period",
			rec:        models.FinancialRecord{},
			violations: 1,
		},
		{
			name: "negative figures and out-of-range tax",
			rec: models.FinancialRecord{
				Period:   period,
				Revenue:  decimal.NewFromInt(-1),
				Expenses: decimal.NewFromInt(-1),
				TaxRate:  decimal.NewFromFloat(1.5),
			},
			violations: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FinancialRecord(&tt.rec)
			if tt.violations == 0 {
				assert.NoError(t, err)
				return
			}
			var verr *e.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Len(t, verr.Violations, tt.violations)
		})
	}
}

func TestSimulationParameters(t *testing.T) {
	assert.NoError(t, SimulationParameters(models.SimulationParameters{}))

	ok := models.SimulationParameters{
		SalaryDeltaPct:  utils.Ptr(decimal.NewFromFloat(-1)),
		TaxRateOverride: utils.Ptr(decimal.NewFromFloat(0.3)),
	}
	assert.NoError(t, SimulationParameters(ok))

	bad := models.SimulationParameters{
		SalaryDeltaPct:  utils.Ptr(decimal.NewFromFloat(-1.5)),
		TaxRateOverride: utils.Ptr(decimal.NewFromFloat(2)),
		ExpenseDeltaPct: utils.Ptr(decimal.NewFromFloat(-2)),
	}
	err := SimulationParameters(bad)
	var verr *e.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Violations, 3)
}
