// Package forecast fits an ordinary least squares line to the stored
// revenue series and extrapolates it. The model is derived state:
// retraining replaces it in place, and results are fully determined by
// the training input, with no random seed anywhere.
package forecast

import (
	"fmt"
	"math"

	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"
)

const (
	// MinTrainingPeriods is the least history Train accepts.
	MinTrainingPeriods = 3
	// shortHistory marks forecasts that rest on few observations.
	shortHistory = 6
)

// Model regresses revenue against the period index. The zero value is
// untrained; Predict on an untrained model fails with
// ErrInsufficientData instead of producing a low-confidence guess.
type Model struct {
	trained    bool
	alpha      float64 // intercept
	beta       float64 // slope per month
	n          int
	lastPeriod models.Period
	mae        float64
}

func NewModel() *Model {
	return &Model{}
}

// Train fits the model to history, which must be ordered by period
// ascending (the order GetFinancialHistory returns). Fewer than
// MinTrainingPeriods resets the model to untrained and reports
// ErrInsufficientData. A successful Train supersedes any prior fit.
func (m *Model) Train(history []models.FinancialRecord) error {
	m.trained = false
	if len(history) < MinTrainingPeriods {
		return fmt.Errorf("%w: need at least %d periods, got %d",
			e.ErrInsufficientData, MinTrainingPeriods, len(history))
	}

	xs := make([]float64, len(history))
	ys := make([]float64, len(history))
	for i := range history {
		xs[i] = float64(i)
		ys[i] = history[i].Revenue.InexactFloat64()
	}
	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	var absErr float64
	for i := range xs {
		absErr += math.Abs(ys[i] - (alpha + beta*xs[i]))
	}

	m.alpha = alpha
	m.beta = beta
	m.n = len(history)
	m.lastPeriod = history[len(history)-1].Period
	m.mae = absErr / float64(len(xs))
	m.trained = true
	return nil
}

// Trained reports whether the model holds a fit.
func (m *Model) Trained() bool {
	return m.trained
}

// Fit returns the fitted intercept, slope and in-sample mean absolute
// error. Zero values when untrained.
func (m *Model) Fit() (intercept, slope, mae float64) {
	return m.alpha, m.beta, m.mae
}

// Predict extrapolates periodsAhead months past the last trained
// period. The output is not clamped: a negative forecast signals a
// business condition the caller must surface, not hide.
func (m *Model) Predict(periodsAhead int) (*models.PredictionResult, error) {
	if !m.trained {
		return nil, fmt.Errorf("%w: model is untrained", e.ErrInsufficientData)
	}
	if periodsAhead < 1 {
		return nil, fmt.Errorf("%w: forecast horizon must be at least 1, got %d",
			e.ErrInvalidInput, periodsAhead)
	}

	x := float64(m.n - 1 + periodsAhead)
	predicted := m.alpha + m.beta*x

	note := ""
	if m.n < shortHistory {
		note = "limited history"
	}
	return &models.PredictionResult{
		ForecastPeriod:   m.lastPeriod.AddMonths(periodsAhead),
		PredictedRevenue: decimal.NewFromFloat(predicted).Round(2),
		ConfidenceNote:   note,
	}, nil
}
