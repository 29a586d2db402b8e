package consolidate

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	apperrors "mnsos/internal/errors"
)

// summaryTopN limits the by-year and by-type breakdowns to the largest
// buckets.
const summaryTopN = 10

// Summary is the dashboard-facing digest written next to the exports.
type Summary struct {
	LastUpdated     string            `json:"last_updated"`
	TotalBusinesses int               `json:"total_businesses"`
	Files           map[string]string `json:"files"`
	ByYear          map[string]int    `json:"by_year"`
	ByType          map[string]int    `json:"by_type"`
}

// BuildSummary computes the digest from the dataset. Filing years come from
// the first four characters of the normalized filing date; rows without one
// are excluded from the year breakdown.
func BuildSummary(ds *Dataset, files map[string]string, now time.Time) Summary {
	byYear := make(map[string]int)
	byType := make(map[string]int)
	for _, row := range ds.Rows() {
		if date := cell(row, "filing_date"); len(date) >= 4 {
			byYear[date[:4]]++
		}
		if bt := cell(row, "business_type"); bt != "" {
			byType[bt]++
		}
	}

	return Summary{
		LastUpdated:     now.Format(time.RFC3339),
		TotalBusinesses: ds.Len(),
		Files:           files,
		ByYear:          topN(byYear, summaryTopN),
		ByType:          topN(byType, summaryTopN),
	}
}

// WriteSummary writes the digest as indented JSON.
func WriteSummary(s Summary, path string) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode summary", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.NewStorageError("failed to write summary", err)
	}
	return nil
}

// LoadSummary reads a previously written summary, for the dashboard.
func LoadSummary(path string) (Summary, error) {
	var s Summary
	data, err := os.ReadFile(path)
	if err != nil {
		return s, apperrors.NewStorageError("failed to read summary", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, apperrors.NewParsingError("failed to decode summary", err)
	}
	return s, nil
}

func topN(counts map[string]int, n int) map[string]int {
	if len(counts) <= n {
		return counts
	}
	type bucket struct {
		key   string
		count int
	}
	buckets := make([]bucket, 0, len(counts))
	for k, v := range counts {
		buckets = append(buckets, bucket{k, v})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].count != buckets[j].count {
			return buckets[i].count > buckets[j].count
		}
		return buckets[i].key < buckets[j].key
	})

	out := make(map[string]int, n)
	for _, b := range buckets[:n] {
		out[b.key] = b.count
	}
	return out
}
