package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"budgetbuddy/internal/core"
)

// CSVHeaders is the column layout written by ExportCSV.
var CSVHeaders = []string{"id", "tx_date", "tx_type", "category", "amount", "note"}

// CSVError locates a failed import row. Err is either a *core.ValidationError
// or, for a non-numeric amount, the *strconv.NumError from parsing it.
type CSVError struct {
	Line  int
	Field string
	Err   error
}

func (e *CSVError) Error() string {
	return fmt.Sprintf("csv line %d, field %s: %v", e.Line, e.Field, e.Err)
}

func (e *CSVError) Unwrap() error {
	return e.Err
}

// ExportCSV writes the header and one row per transaction in ListAll order.
func ExportCSV(w io.Writer, ledger *core.Ledger) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeaders); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, tx := range ledger.ListAll() {
		row := []string{
			tx.ID,
			tx.Date,
			tx.Type.String(),
			tx.Category,
			core.FormatAmount(tx.Amount),
			tx.Note,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write transaction %s: %w", tx.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ImportCSV builds a new ledger from r. Columns may appear in any order but
// all of CSVHeaders must be present. Rows with an empty id get a fresh one.
// The first bad row aborts the import.
func ImportCSV(r io.Reader) (*core.Ledger, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return core.NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		cols[strings.ToLower(name)] = i
	}
	for _, name := range CSVHeaders {
		if _, ok := cols[name]; !ok {
			return nil, fmt.Errorf("csv header missing column %q", name)
		}
	}

	ledger := core.NewLedger()
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		line, _ := cr.FieldPos(0)

		field := func(name string) string {
			if i := cols[name]; i < len(record) {
				return record[i]
			}
			return ""
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(field("amount")), 64)
		if err != nil {
			return nil, &CSVError{Line: line, Field: "amount", Err: err}
		}

		id := strings.TrimSpace(field("id"))
		if id == "" {
			_, err = ledger.Create(field("tx_date"), field("tx_type"), field("category"), amount, field("note"))
		} else {
			err = ledger.Add(core.Transaction{
				ID:       id,
				Date:     field("tx_date"),
				Type:     core.TxType(field("tx_type")),
				Category: field("category"),
				Amount:   amount,
				Note:     field("note"),
			})
		}
		if err != nil {
			return nil, &CSVError{Line: line, Field: fieldOf(err), Err: err}
		}
	}
	return ledger, nil
}

// ExportCSVFile writes the ledger to path, creating parent directories.
func ExportCSVFile(path string, ledger *core.Ledger) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := ExportCSV(f, ledger); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ImportCSVFile reads a ledger from the CSV file at path.
func ImportCSVFile(path string) (*core.Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ImportCSV(f)
}

func fieldOf(err error) string {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		return verr.Field
	}
	return ""
}
