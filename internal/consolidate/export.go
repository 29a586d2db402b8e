package consolidate

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "mnsos/internal/errors"
	"mnsos/pkg/contracts/domain"
)

const (
	sourceName = "Minnesota Secretary of State Business Search"
	sourceURL  = "https://mblsportal.sos.mn.gov/Business/Search"

	sqlBatchSize = 100
)

// ExportCSV writes the dataset as a single CSV in canonical column order.
func ExportCSV(ds *Dataset, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create csv export", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(domain.Columns); err != nil {
		return apperrors.NewStorageError("failed to write csv header", err)
	}
	for _, row := range ds.Rows() {
		if err := writer.Write(rowToCells(row)); err != nil {
			return apperrors.NewStorageError("failed to write csv row", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return apperrors.NewStorageError("failed to flush csv export", err)
	}
	return nil
}

type jsonExport struct {
	Metadata jsonMetadata        `json:"metadata"`
	Records  []map[string]string `json:"businesses"`
}

type jsonMetadata struct {
	TotalRecords int    `json:"total_records"`
	ExportedAt   string `json:"exported_at"`
	Source       string `json:"source"`
	URL          string `json:"url"`
	RunID        string `json:"run_id,omitempty"`
}

// ExportJSON writes the dataset as a JSON document with a metadata envelope.
// runID identifies the run that produced the export; empty omits the field.
func ExportJSON(ds *Dataset, path string, now time.Time, runID string) error {
	rows := ds.Rows()
	out := jsonExport{
		Metadata: jsonMetadata{
			TotalRecords: len(rows),
			ExportedAt:   now.Format(time.RFC3339),
			Source:       sourceName,
			URL:          sourceURL,
			RunID:        runID,
		},
		Records: rows,
	}

	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create json export", err)
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	if err := enc.Encode(out); err != nil {
		return apperrors.NewStorageError("failed to encode json export", err)
	}
	return nil
}

// sqlColumnType returns the MySQL column type for a canonical column.
func sqlColumnType(col string) string {
	switch col {
	case "file_number":
		return "VARCHAR(100)"
	case "business_name":
		return "VARCHAR(500)"
	case "mn_statute":
		return "VARCHAR(20)"
	case "business_type", "home_jurisdiction":
		return "VARCHAR(100)"
	case "filing_date", "renewal_due_date", "scraped_at":
		return "DATE"
	case "status", "mark_type", "number_of_shares":
		return "VARCHAR(50)"
	case "chief_executive_officer", "manager", "registered_agent_name", "applicant_name":
		return "VARCHAR(200)"
	case "filing_history":
		return "TEXT"
	}
	// Address component columns.
	if strings.HasSuffix(col, "_address_raw") {
		return "TEXT"
	}
	if strings.HasSuffix(col, "_city") || strings.HasSuffix(col, "_street_name") {
		return "VARCHAR(200)"
	}
	return "VARCHAR(100)"
}

// ExportSQL writes a MySQL-compatible dump: table DDL, indexes, and batched
// INSERT statements. Empty date cells become NULL so the DATE columns load.
func ExportSQL(ds *Dataset, path, tableName string, now time.Time) error {
	file, err := os.Create(path)
	if err != nil {
		return apperrors.NewStorageError("failed to create sql export", err)
	}
	defer file.Close()

	rows := ds.Rows()
	var b strings.Builder

	fmt.Fprintf(&b, "-- Minnesota Business Data Export\n")
	fmt.Fprintf(&b, "-- Generated: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "-- Total Records: %d\n\n", len(rows))
	b.WriteString("SET NAMES utf8mb4;\nSET CHARACTER SET utf8mb4;\n\n")

	fmt.Fprintf(&b, "DROP TABLE IF EXISTS %s;\n\n", tableName)
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", tableName)
	b.WriteString("    id INT AUTO_INCREMENT PRIMARY KEY,\n")
	for i, col := range domain.Columns {
		fmt.Fprintf(&b, "    `%s` %s", col, sqlColumnType(col))
		if i < len(domain.Columns)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;\n\n")

	fmt.Fprintf(&b, "CREATE INDEX idx_file_number ON %s(file_number(50));\n", tableName)
	fmt.Fprintf(&b, "CREATE INDEX idx_business_name ON %s(business_name(100));\n", tableName)
	fmt.Fprintf(&b, "CREATE INDEX idx_filing_date ON %s(filing_date);\n", tableName)
	fmt.Fprintf(&b, "CREATE INDEX idx_status ON %s(status);\n", tableName)
	fmt.Fprintf(&b, "CREATE INDEX idx_business_type ON %s(business_type);\n\n", tableName)

	b.WriteString("-- Data\n")
	quoted := make([]string, len(domain.Columns))
	for i, col := range domain.Columns {
		quoted[i] = "`" + col + "`"
	}
	columnList := strings.Join(quoted, ", ")

	for start := 0; start < len(rows); start += sqlBatchSize {
		end := start + sqlBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES\n", tableName, columnList)
		for i, row := range rows[start:end] {
			values := make([]string, len(domain.Columns))
			for j, col := range domain.Columns {
				values[j] = sqlValue(col, cell(row, col))
			}
			b.WriteString("(" + strings.Join(values, ", ") + ")")
			if i < end-start-1 {
				b.WriteString(",\n")
			} else {
				b.WriteString(";\n")
			}
		}
		b.WriteString("\n")
	}

	if _, err := file.WriteString(b.String()); err != nil {
		return apperrors.NewStorageError("failed to write sql export", err)
	}
	return nil
}

func sqlValue(col, val string) string {
	if val == "" {
		switch col {
		case "filing_date", "renewal_due_date", "scraped_at":
			// An empty string is not a valid DATE literal.
			return "NULL"
		}
		return "''"
	}
	escaped := strings.ReplaceAll(val, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, "'", `\'`)
	return "'" + escaped + "'"
}

// ExportXLSX writes the dataset as a single-sheet workbook for spreadsheet
// consumers.
func ExportXLSX(ds *Dataset, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Businesses"
	f.SetSheetName("Sheet1", sheet)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return apperrors.NewStorageError("failed to create xlsx stream writer", err)
	}

	header := make([]interface{}, len(domain.Columns))
	for i, col := range domain.Columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return apperrors.NewStorageError("failed to write xlsx header", err)
	}

	for i, row := range ds.Rows() {
		cells := rowToCells(row)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return apperrors.NewStorageError("failed to compute xlsx cell", err)
		}
		if err := sw.SetRow(addr, values); err != nil {
			return apperrors.NewStorageError("failed to write xlsx row", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return apperrors.NewStorageError("failed to flush xlsx export", err)
	}
	if err := f.SaveAs(path); err != nil {
		return apperrors.NewStorageError("failed to save xlsx export", err)
	}
	return nil
}
