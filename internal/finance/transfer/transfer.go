// Package transfer moves employees and financial records in and out of
// the store as flat CSV, for interchange with external spreadsheets.
// Import validates every row before any write and commits all rows in a
// single transaction: one bad row aborts the whole import.
package transfer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dkovacs/finsight/internal/finance/db"
	e "github.com/dkovacs/finsight/internal/finance/errors"
	"github.com/dkovacs/finsight/internal/finance/models"
	"github.com/dkovacs/finsight/internal/finance/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const hireDateLayout = "2006-01-02"

var (
	employeeHeader  = []string{"id", "name", "base_salary", "hire_date", "active"}
	financialHeader = []string{"period", "revenue", "expenses", "tax_rate"}
)

// Repository is the storage surface bulk transfer needs.
type Repository interface {
	ListEmployees(ctx context.Context, activeOnly bool) ([]models.Employee, error)
	ListFinancialRecords(ctx context.Context) ([]models.FinancialRecord, error)
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// Transfer performs bulk CSV import and export.
type Transfer struct {
	repo   Repository
	logger *zap.Logger
	now    func() time.Time
}

func New(repo Repository, logger *zap.Logger) *Transfer {
	return &Transfer{
		repo:   repo,
		logger: logger.Named("transfer"),
		now:    time.Now,
	}
}

// ImportEmployees reads employee rows from r and creates them all in
// one transaction. Returns the number of imported rows.
func (t *Transfer) ImportEmployees(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readRows(r, employeeHeader)
	if err != nil {
		return 0, err
	}

	verr := &e.ValidationError{}
	employees := make([]models.Employee, 0, len(rows))
	for i, row := range rows {
		emp, err := parseEmployeeRow(row)
		if err != nil {
			verr.Add("row %d: %v", i+1, err)
			continue
		}
		if ferr := validation.Employee(emp, t.now()); ferr != nil {
			for _, v := range ferr.(*e.ValidationError).Violations {
				verr.Add("row %d: %s", i+1, v)
			}
			continue
		}
		employees = append(employees, *emp)
	}
	if err := verr.Err(); err != nil {
		return 0, err
	}

	err = t.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		for i := range employees {
			if err := tx.CreateEmployee(ctx, &employees[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	t.logger.Info("imported employees", zap.Int("count", len(employees)))
	return len(employees), nil
}

// ImportFinancialRecords reads financial rows from r and upserts them
// all in one transaction. Returns the number of imported rows.
func (t *Transfer) ImportFinancialRecords(ctx context.Context, r io.Reader) (int, error) {
	rows, err := readRows(r, financialHeader)
	if err != nil {
		return 0, err
	}

	verr := &e.ValidationError{}
	records := make([]models.FinancialRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := parseFinancialRow(row)
		if err != nil {
			verr.Add("row %d: %v", i+1, err)
			continue
		}
		if ferr := validation.FinancialRecord(rec); ferr != nil {
			for _, v := range ferr.(*e.ValidationError).Violations {
				verr.Add("row %d: %s", i+1, v)
			}
			continue
		}
		records = append(records, *rec)
	}
	if err := verr.Err(); err != nil {
		return 0, err
	}

	err = t.repo.WithTransaction(ctx, func(tx *db.Repository) error {
		for i := range records {
			if err := tx.UpsertFinancialRecord(ctx, &records[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	t.logger.Info("imported financial records", zap.Int("count", len(records)))
	return len(records), nil
}

// ExportEmployees writes all employees, ordered by id, to w.
func (t *Transfer) ExportEmployees(ctx context.Context, w io.Writer) error {
	employees, err := t.repo.ListEmployees(ctx, false)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(employeeHeader); err != nil {
		return err
	}
	for i := range employees {
		emp := &employees[i]
		row := []string{
			emp.ID.String(),
			emp.Name,
			emp.BaseSalary.String(),
			emp.HireDate.Format(hireDateLayout),
			strconv.FormatBool(emp.Active),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFinancialRecords writes the full history, ordered by period, to w.
func (t *Transfer) ExportFinancialRecords(ctx context.Context, w io.Writer) error {
	records, err := t.repo.ListFinancialRecords(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(financialHeader); err != nil {
		return err
	}
	for i := range records {
		rec := &records[i]
		row := []string{
			rec.Period.String(),
			rec.Revenue.String(),
			rec.Expenses.String(),
			rec.TaxRate.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func readRows(r io.Reader, header []string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)

	got, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input, expected header %v", e.ErrInvalidInput, header)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
	}
	for i := range header {
		if got[i] != header[i] {
			return nil, fmt.Errorf("%w: unexpected header %v, expected %v", e.ErrInvalidInput, got, header)
		}
	}

	var rows [][]string
	for {
		row, err := cr.Read()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", e.ErrInvalidInput, err)
		}
		rows = append(rows, row)
	}
}

func parseEmployeeRow(row []string) (*models.Employee, error) {
	emp := &models.Employee{Name: row[1]}

	// A blank id means "assign one"; that keeps hand-written sheets valid.
	if row[0] != "" {
		id, err := uuid.Parse(row[0])
		if err != nil {
			return nil, fmt.Errorf("bad id %q", row[0])
		}
		emp.ID = id
	} else {
		emp.ID = uuid.New()
	}

	salary, err := decimal.NewFromString(row[2])
	if err != nil {
		return nil, fmt.Errorf("bad base_salary %q", row[2])
	}
	emp.BaseSalary = salary

	hireDate, err := time.Parse(hireDateLayout, row[3])
	if err != nil {
		return nil, fmt.Errorf("bad hire_date %q, expected YYYY-MM-DD", row[3])
	}
	emp.HireDate = hireDate

	active, err := strconv.ParseBool(row[4])
	if err != nil {
		return nil, fmt.Errorf("bad active flag %q", row[4])
	}
	emp.Active = active
	return emp, nil
}

func parseFinancialRow(row []string) (*models.FinancialRecord, error) {
	period, err := models.ParsePeriod(row[0])
	if err != nil {
		return nil, err
	}
	rec := &models.FinancialRecord{Period: period}

	if rec.Revenue, err = decimal.NewFromString(row[1]); err != nil {
		return nil, fmt.Errorf("bad revenue %q", row[1])
	}
	if rec.Expenses, err = decimal.NewFromString(row[2]); err != nil {
		return nil, fmt.Errorf("bad expenses %q", row[2])
	}
	if rec.TaxRate, err = decimal.NewFromString(row[3]); err != nil {
		return nil, fmt.Errorf("bad tax_rate %q", row[3])
	}
	return rec, nil
}
