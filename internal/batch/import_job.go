package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"credit-engine/internal/config"
	"credit-engine/internal/domain/customer"
	"credit-engine/internal/domain/loan"
	"credit-engine/internal/infrastructure/monitoring"
	"credit-engine/internal/pkg/apperrors"
)

// ImportJob loads historical customer and loan data from CSV exports. Rows
// are tolerated individually: a bad row is logged and skipped, never aborting
// the file. Loans referencing customers absent from the customer table are
// skipped.
type ImportJob struct {
	customerRepo customer.CustomerRepository
	loanRepo     loan.Repository
	cfg          config.ImporterConfig
	logger       *slog.Logger
}

func NewImportJob(customerRepo customer.CustomerRepository, loanRepo loan.Repository, cfg config.ImporterConfig, logger *slog.Logger) *ImportJob {
	if customerRepo == nil || loanRepo == nil || logger == nil {
		panic("ImportJob dependencies cannot be nil")
	}
	return &ImportJob{
		customerRepo: customerRepo,
		loanRepo:     loanRepo,
		cfg:          cfg,
		logger:       logger.With("job", "DataImport"),
	}
}

// Run imports customers first so the loan pass can resolve its owners.
func (j *ImportJob) Run(ctx context.Context) error {
	startTime := time.Now()
	j.logger.InfoContext(ctx, "Starting bulk data import job.")

	customersLoaded, customersSkipped, err := j.importCustomers(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Customer import failed, aborting job.", slog.Any("error", err))
		return fmt.Errorf("importing customers: %w", err)
	}

	loansLoaded, loansSkipped, err := j.importLoans(ctx)
	if err != nil {
		j.logger.ErrorContext(ctx, "Loan import failed.", slog.Any("error", err))
		return fmt.Errorf("importing loans: %w", err)
	}

	j.logger.With(
		slog.Duration("duration", time.Since(startTime)),
		slog.Int("customers_loaded", customersLoaded),
		slog.Int("customers_skipped", customersSkipped),
		slog.Int("loans_loaded", loansLoaded),
		slog.Int("loans_skipped", loansSkipped),
	).InfoContext(ctx, "Bulk data import job finished.")
	return nil
}

func (j *ImportJob) importCustomers(ctx context.Context) (loaded, skipped int, err error) {
	rows, err := openCSV(j.cfg.CustomerFile)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for {
		if ctx.Err() != nil {
			return loaded, skipped, ctx.Err()
		}
		record, readErr := rows.Next()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			j.logger.WarnContext(ctx, "Unreadable customer row, skipping.", slog.Any("error", readErr))
			skipped++
			monitoring.RecordImportedRow("customer", "skipped")
			continue
		}

		cust, rowErr := parseCustomerRow(record)
		if rowErr != nil {
			j.logger.WarnContext(ctx, "Invalid customer row, skipping.", slog.Any("error", rowErr))
			skipped++
			monitoring.RecordImportedRow("customer", "skipped")
			continue
		}

		if upsertErr := j.customerRepo.Upsert(ctx, cust); upsertErr != nil {
			j.logger.WarnContext(ctx, "Failed to upsert customer row, skipping.",
				slog.Int64("customerID", cust.CustomerID), slog.Any("error", upsertErr))
			skipped++
			monitoring.RecordImportedRow("customer", "skipped")
			continue
		}
		loaded++
		monitoring.RecordImportedRow("customer", "loaded")
	}

	return loaded, skipped, nil
}

func (j *ImportJob) importLoans(ctx context.Context) (loaded, skipped int, err error) {
	rows, err := openCSV(j.cfg.LoanFile)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	for {
		if ctx.Err() != nil {
			return loaded, skipped, ctx.Err()
		}
		record, readErr := rows.Next()
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			j.logger.WarnContext(ctx, "Unreadable loan row, skipping.", slog.Any("error", readErr))
			skipped++
			monitoring.RecordImportedRow("loan", "skipped")
			continue
		}

		l, rowErr := parseLoanRow(record)
		if rowErr != nil {
			j.logger.WarnContext(ctx, "Invalid loan row, skipping.", slog.Any("error", rowErr))
			skipped++
			monitoring.RecordImportedRow("loan", "skipped")
			continue
		}

		if _, findErr := j.customerRepo.FindByID(ctx, l.CustomerID); findErr != nil {
			if errors.Is(findErr, customer.ErrNotFound) || errors.Is(findErr, apperrors.ErrNotFound) {
				j.logger.WarnContext(ctx, "Customer not found, skipping loan.",
					slog.Int64("customerID", l.CustomerID), slog.Int64("loanID", l.ID))
				skipped++
				monitoring.RecordImportedRow("loan", "skipped")
				continue
			}
			return loaded, skipped, findErr
		}

		if upsertErr := j.loanRepo.UpsertLoan(ctx, l); upsertErr != nil {
			j.logger.WarnContext(ctx, "Failed to upsert loan row, skipping.",
				slog.Int64("loanID", l.ID), slog.Any("error", upsertErr))
			skipped++
			monitoring.RecordImportedRow("loan", "skipped")
			continue
		}
		loaded++
		monitoring.RecordImportedRow("loan", "loaded")
	}

	return loaded, skipped, nil
}

// csvRows reads a headered CSV and resolves fields by column name, so the
// export's column order does not matter.
type csvRows struct {
	file    *os.File
	reader  *csv.Reader
	columns map[string]int
}

func openCSV(path string) (*csvRows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("reading header of %s: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	return &csvRows{file: f, reader: reader, columns: columns}, nil
}

func (r *csvRows) Next() (map[string]string, error) {
	record, err := r.reader.Read()
	if err != nil {
		return nil, err
	}
	row := make(map[string]string, len(r.columns))
	for name, i := range r.columns {
		if i < len(record) {
			row[name] = strings.TrimSpace(record[i])
		}
	}
	return row, nil
}

func (r *csvRows) Close() error {
	return r.file.Close()
}

func parseCustomerRow(row map[string]string) (*customer.Customer, error) {
	id, err := strconv.ParseInt(row["customer_id"], 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("bad customer_id %q", row["customer_id"])
	}
	age, err := strconv.Atoi(row["age"])
	if err != nil {
		return nil, fmt.Errorf("bad age %q", row["age"])
	}
	salary, err := strconv.ParseFloat(row["monthly_salary"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad monthly_salary %q", row["monthly_salary"])
	}
	limit, err := strconv.ParseFloat(row["approved_limit"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad approved_limit %q", row["approved_limit"])
	}

	// Historical exports carry no debt column; imported customers start
	// with a clean slate unless the file says otherwise.
	debt := 0.0
	if v, ok := row["current_debt"]; ok && v != "" {
		debt, err = strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("bad current_debt %q", v)
		}
	}

	return &customer.Customer{
		CustomerID:    id,
		FirstName:     row["first_name"],
		LastName:      row["last_name"],
		Age:           age,
		PhoneNumber:   row["phone_number"],
		MonthlySalary: salary,
		ApprovedLimit: limit,
		CurrentDebt:   debt,
	}, nil
}

func parseLoanRow(row map[string]string) (*loan.Loan, error) {
	loanID, err := strconv.ParseInt(row["loan_id"], 10, 64)
	if err != nil || loanID <= 0 {
		return nil, fmt.Errorf("bad loan_id %q", row["loan_id"])
	}
	customerID, err := strconv.ParseInt(row["customer_id"], 10, 64)
	if err != nil || customerID <= 0 {
		return nil, fmt.Errorf("bad customer_id %q", row["customer_id"])
	}
	amount, err := strconv.ParseFloat(row["loan_amount"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad loan_amount %q", row["loan_amount"])
	}
	tenure, err := strconv.Atoi(row["tenure"])
	if err != nil || tenure <= 0 {
		return nil, fmt.Errorf("bad tenure %q", row["tenure"])
	}
	rate, err := strconv.ParseFloat(row["interest_rate"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad interest_rate %q", row["interest_rate"])
	}
	installment, err := strconv.ParseFloat(row["monthly_payment"], 64)
	if err != nil {
		return nil, fmt.Errorf("bad monthly_payment %q", row["monthly_payment"])
	}
	paidOnTime, err := strconv.Atoi(row["emis_paid_on_time"])
	if err != nil || paidOnTime < 0 {
		return nil, fmt.Errorf("bad emis_paid_on_time %q", row["emis_paid_on_time"])
	}
	startDate, err := parseDate(row["date_of_approval"])
	if err != nil {
		return nil, fmt.Errorf("bad date_of_approval %q", row["date_of_approval"])
	}
	endDate, err := parseDate(row["end_date"])
	if err != nil {
		return nil, fmt.Errorf("bad end_date %q", row["end_date"])
	}

	return &loan.Loan{
		ID:                 loanID,
		CustomerID:         customerID,
		LoanAmount:         amount,
		TenureMonths:       tenure,
		InterestRate:       rate,
		MonthlyInstallment: installment,
		EMIsPaidOnTime:     paidOnTime,
		StartDate:          startDate,
		EndDate:            endDate,
	}, nil
}

var dateLayouts = []string{"2006-01-02", "1/2/2006", "02-01-2006"}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}
