// Package input reads company rows from CSV and XLSX batch files. Column
// headers are matched case-insensitively; name is the only required column.
package input

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/resolver-cli/internal/model"
)

// columnAliases maps header names to CompanyInput fields.
var columnAliases = map[string]string{
	"id":           "id",
	"name":         "name",
	"company":      "name",
	"company_name": "name",
	"domain":       "domain",
	"website":      "domain",
	"url":          "domain",
	"city":         "city",
	"state":        "state",
	"phone":        "phone",
	"phone_number": "phone",
	"address":      "address",
	"category":     "category",
	"industry":     "category",
	"context":      "context",
	"notes":        "context",
}

// ReadFile reads a batch file, dispatching on extension (.csv, .xlsx).
func ReadFile(path string) ([]model.CompanyInput, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "input: open csv")
		}
		defer f.Close()
		return ReadCSV(f)
	case ".xlsx":
		return ReadXLSX(path)
	default:
		return nil, eris.Errorf("input: unsupported file type: %s", path)
	}
}

// ReadCSV parses company rows from CSV. The first row must be a header.
func ReadCSV(r io.Reader) ([]model.CompanyInput, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "input: read csv header")
	}
	cols, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var inputs []model.CompanyInput
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "input: read csv row")
		}
		if in, ok := rowToInput(cols, row); ok {
			inputs = append(inputs, in)
		}
	}
	return inputs, nil
}

// ReadXLSX parses company rows from the first sheet of an XLSX file.
func ReadXLSX(path string) ([]model.CompanyInput, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "input: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("input: xlsx file has no sheets")
	}
	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("input: xlsx sheet is empty")
	}

	cols, err := mapHeader(rowToStrings(sheet.Rows[0]))
	if err != nil {
		return nil, err
	}

	var inputs []model.CompanyInput
	for _, row := range sheet.Rows[1:] {
		if in, ok := rowToInput(cols, rowToStrings(row)); ok {
			inputs = append(inputs, in)
		}
	}
	return inputs, nil
}

// mapHeader resolves header names to field keys by position.
func mapHeader(header []string) (map[int]string, error) {
	cols := make(map[int]string, len(header))
	hasName := false
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		field, ok := columnAliases[key]
		if !ok {
			continue
		}
		cols[i] = field
		if field == "name" {
			hasName = true
		}
	}
	if !hasName {
		return nil, eris.New("input: no name column in header")
	}
	return cols, nil
}

func rowToInput(cols map[int]string, row []string) (model.CompanyInput, bool) {
	var in model.CompanyInput
	for i, field := range cols {
		if i >= len(row) {
			continue
		}
		val := strings.TrimSpace(row[i])
		switch field {
		case "id":
			in.ID = val
		case "name":
			in.Name = val
		case "domain":
			in.Domain = val
		case "city":
			in.City = val
		case "state":
			in.State = val
		case "phone":
			in.Phone = val
		case "address":
			in.Address = val
		case "category":
			in.Category = val
		case "context":
			in.Context = val
		}
	}
	if in.Name == "" {
		return in, false
	}
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	return in, true
}

func rowToStrings(row *xlsx.Row) []string {
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
