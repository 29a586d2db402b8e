package consolidate

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mnsos/internal/config"
	"mnsos/internal/sink"
	"mnsos/pkg/contracts/domain"
)

func writeSink(t *testing.T, path string, records ...*domain.BusinessRecord) {
	t.Helper()
	s, err := sink.Open(path)
	require.NoError(t, err)
	for _, rec := range records {
		require.NoError(t, s.Append(rec))
	}
	require.NoError(t, s.Close())
}

func rec(fileNumber, name, filingDate, businessType string) *domain.BusinessRecord {
	return &domain.BusinessRecord{
		FileNumber:   fileNumber,
		BusinessName: name,
		BusinessType: businessType,
		FilingDate:   filingDate,
		ScrapedAt:    "2026-08-23",
	}
}

func TestDatasetLastWriteWins(t *testing.T) {
	ds := NewDataset()
	ds.Upsert(map[string]string{"file_number": "1", "business_name": "OLD"})
	ds.Upsert(map[string]string{"file_number": "2", "business_name": "OTHER"})
	ds.Upsert(map[string]string{"file_number": "1", "business_name": "NEW"})

	rows := ds.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, "OTHER", rows[0]["business_name"])
	assert.Equal(t, "NEW", rows[1]["business_name"])
	assert.Equal(t, 2, ds.Len())
}

func TestMergeSinksSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	writeSink(t, filepath.Join(dir, "businesses_worker_0.csv"),
		rec("1", "A LLC", "2024-01-01", "Limited Liability Company (Domestic)"))
	// Not CSV at all; merge logs and moves on.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "businesses_worker_1.csv"), []byte(`"unterminated`), 0o644))
	writeSink(t, filepath.Join(dir, "businesses_alpha_worker_0.csv"),
		rec("guid-2", "B CORP", "2025-02-02", "Business Corporation (Domestic)"))

	ds := NewDataset()
	n := MergeSinks(ds, dir, slog.Default())
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, ds.Len())
}

func TestMergeSinksWorkersWinOverExisting(t *testing.T) {
	outputDir := t.TempDir()
	dataDir := t.TempDir()

	existing := filepath.Join(dataDir, "businesses.csv")
	writeSink(t, existing,
		rec("1", "STALE NAME LLC", "2024-01-01", "Limited Liability Company (Domestic)"),
		rec("9", "ONLY IN EXISTING INC", "2020-05-05", "Business Corporation (Domestic)"))
	writeSink(t, filepath.Join(outputDir, "businesses_worker_0.csv"),
		rec("1", "FRESH NAME LLC", "2024-01-01", "Limited Liability Company (Domestic)"))

	ds := NewDataset()
	MergeExisting(ds, existing, slog.Default())
	MergeSinks(ds, outputDir, slog.Default())

	require.Equal(t, 2, ds.Len())
	byKey := map[string]string{}
	for _, row := range ds.Rows() {
		byKey[row["file_number"]] = row["business_name"]
	}
	assert.Equal(t, "FRESH NAME LLC", byKey["1"])
	assert.Equal(t, "ONLY IN EXISTING INC", byKey["9"])
}

func TestExportCSVCanonicalOrder(t *testing.T) {
	ds := NewDataset()
	ds.Upsert(map[string]string{
		"file_number":   "1",
		"business_name": "A LLC",
		"filing_date":   "2024-01-01",
	})

	path := filepath.Join(t.TempDir(), "businesses.csv")
	require.NoError(t, ExportCSV(ds, path))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, domain.Columns, rows[0])
	assert.Len(t, rows[1], len(domain.Columns))
	assert.Equal(t, "1", rows[1][0])
}

func TestExportJSONEnvelope(t *testing.T) {
	ds := NewDataset()
	ds.Upsert(map[string]string{"file_number": "1", "business_name": "A LLC"})

	path := filepath.Join(t.TempDir(), "businesses.json")
	now := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	require.NoError(t, ExportJSON(ds, path, now, "run-1234"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var out struct {
		Metadata struct {
			TotalRecords int    `json:"total_records"`
			Source       string `json:"source"`
			URL          string `json:"url"`
			RunID        string `json:"run_id"`
		} `json:"metadata"`
		Businesses []map[string]string `json:"businesses"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, 1, out.Metadata.TotalRecords)
	assert.Equal(t, "Minnesota Secretary of State Business Search", out.Metadata.Source)
	assert.Equal(t, "run-1234", out.Metadata.RunID)
	require.Len(t, out.Businesses, 1)
	assert.Equal(t, "A LLC", out.Businesses[0]["business_name"])
}

func TestExportSQL(t *testing.T) {
	ds := NewDataset()
	ds.Upsert(map[string]string{
		"file_number":   "1",
		"business_name": `O'BRIEN \ SONS LLC`,
		"filing_date":   "2024-01-01",
		// renewal_due_date left empty: must render as NULL.
	})

	path := filepath.Join(t.TempDir(), "businesses.sql")
	require.NoError(t, ExportSQL(ds, path, "mn_businesses", time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)

	assert.Contains(t, text, "SET NAMES utf8mb4;")
	assert.Contains(t, text, "DROP TABLE IF EXISTS mn_businesses;")
	assert.Contains(t, text, "CREATE TABLE mn_businesses (")
	assert.Contains(t, text, "id INT AUTO_INCREMENT PRIMARY KEY")
	assert.Contains(t, text, "CREATE INDEX idx_file_number ON mn_businesses(file_number(50));")
	assert.Contains(t, text, "CREATE INDEX idx_business_name ON mn_businesses(business_name(100));")
	// Backslash escaped first, then the quote.
	assert.Contains(t, text, `'O\'BRIEN \\ SONS LLC'`)
	assert.Contains(t, text, "NULL")
}

func TestExportSQLBatches(t *testing.T) {
	ds := NewDataset()
	for i := 0; i < 250; i++ {
		ds.Upsert(map[string]string{"file_number": strconv.Itoa(i)})
	}

	path := filepath.Join(t.TempDir(), "businesses.sql")
	require.NoError(t, ExportSQL(ds, path, "mn_businesses", time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	inserts := strings.Count(string(data), "INSERT INTO mn_businesses")
	assert.Equal(t, 3, inserts)
}

func TestBuildSummary(t *testing.T) {
	ds := NewDataset()
	ds.Upsert(map[string]string{"file_number": "1", "filing_date": "2024-01-01", "business_type": "Limited Liability Company (Domestic)"})
	ds.Upsert(map[string]string{"file_number": "2", "filing_date": "2024-06-01", "business_type": "Limited Liability Company (Domestic)"})
	ds.Upsert(map[string]string{"file_number": "3", "filing_date": "2023-01-01", "business_type": "Business Corporation (Domestic)"})
	ds.Upsert(map[string]string{"file_number": "4", "filing_date": "", "business_type": ""})

	s := BuildSummary(ds, map[string]string{"csv": "businesses.csv"}, time.Now())
	assert.Equal(t, 4, s.TotalBusinesses)
	assert.Equal(t, map[string]int{"2024": 2, "2023": 1}, s.ByYear)
	assert.Equal(t, map[string]int{
		"Limited Liability Company (Domestic)": 2,
		"Business Corporation (Domestic)":      1,
	}, s.ByType)
}

func TestSummaryTopN(t *testing.T) {
	counts := map[string]int{}
	for i := 0; i < 15; i++ {
		counts[string(rune('a'+i))] = i + 1
	}
	top := topN(counts, 10)
	require.Len(t, top, 10)
	assert.NotContains(t, top, "a")
	assert.Contains(t, top, "o")
}

func TestRunFullPass(t *testing.T) {
	outputDir := t.TempDir()
	dataDir := t.TempDir()

	writeSink(t, filepath.Join(outputDir, "businesses_worker_0.csv"),
		rec("1", "A LLC", "2024-01-01", "Limited Liability Company (Domestic)"))
	writeSink(t, filepath.Join(outputDir, "businesses_alpha_worker_0.csv"),
		rec("guid-1", "B CORP", "2025-01-01", "Business Corporation (Domestic)"),
		rec("1", "A LLC RENAMED", "2024-01-01", "Limited Liability Company (Domestic)"))

	cfg := config.Default()
	paths := &config.Paths{OutputDir: outputDir, DataDir: dataDir, LogsDir: t.TempDir()}

	result, err := Run(context.Background(), cfg, paths, slog.Default(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Total)

	for _, name := range []string{"businesses.csv", "businesses.json", "businesses.sql", "businesses.xlsx", "summary.json"} {
		_, err := os.Stat(filepath.Join(dataDir, name))
		assert.NoError(t, err, name)
	}

	s, err := LoadSummary(filepath.Join(dataDir, "summary.json"))
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalBusinesses)
}

func TestRunEmptyWorkspace(t *testing.T) {
	cfg := config.Default()
	paths := &config.Paths{OutputDir: t.TempDir(), DataDir: t.TempDir(), LogsDir: t.TempDir()}

	result, err := Run(context.Background(), cfg, paths, slog.Default(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, result.Total)
	_, err = os.Stat(filepath.Join(paths.DataDir, "summary.json"))
	assert.True(t, os.IsNotExist(err))
}
