package web

import (
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/render"

	"mnsos/internal/consolidate"
	apperrors "mnsos/internal/errors"
	"mnsos/internal/progress"
	"mnsos/internal/worker"
)

const (
	// maxScannedWorkers bounds the checkpoint scan; worker IDs above this
	// never occur in practice.
	maxScannedWorkers = 20

	defaultPageSize = 50
	maxPageSize     = 500
)

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

type bucketStat struct {
	Key   string  `json:"key"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

type workerStat struct {
	ID                int    `json:"id"`
	CompletedPatterns int    `json:"completed_patterns"`
	FoundCount        int    `json:"found_count"`
	RecentCount       int    `json:"recent_count"`
	UpdatedAt         string `json:"updated_at"`
}

type statsResponse struct {
	TotalRecords      int          `json:"total_records"`
	YearsData         []bucketStat `json:"years_data"`
	TypesData         []bucketStat `json:"types_data"`
	PatternsCompleted int          `json:"patterns_completed"`
	PatternsTotal     int          `json:"patterns_total"`
	ProgressPct       float64      `json:"progress_pct"`
	Workers           []workerStat `json:"workers"`
	Timestamp         string       `json:"timestamp"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	ds := s.loadDataset()
	rows := ds.Rows()

	byYear := make(map[string]int)
	byType := make(map[string]int)
	for _, row := range rows {
		if date := row["filing_date"]; len(date) >= 4 {
			byYear[date[:4]]++
		}
		if bt := row["business_type"]; bt != "" {
			byType[bt]++
		}
	}

	workers := s.loadWorkerStats()
	completed := 0
	for _, ws := range workers {
		completed += ws.CompletedPatterns
	}
	totalPatterns := len(worker.GeneratePatterns())

	resp := statsResponse{
		TotalRecords:      len(rows),
		YearsData:         topBuckets(byYear, len(rows)),
		TypesData:         topBuckets(byType, len(rows)),
		PatternsCompleted: completed,
		PatternsTotal:     totalPatterns,
		ProgressPct:       pct(completed, totalPatterns),
		Workers:           workers,
		Timestamp:         time.Now().Format(time.RFC3339),
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := consolidate.LoadSummary(s.paths.DataPath("summary.json"))
	if err != nil {
		render.Render(w, r, apperrors.ErrNoDataset)
		return
	}
	render.JSON(w, r, summary)
}

type businessesResponse struct {
	Total      int                 `json:"total"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	Businesses []map[string]string `json:"businesses"`
}

func (s *Server) handleBusinesses(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", defaultPageSize)
	if page < 1 {
		render.Render(w, r, apperrors.ErrInvalidRequest)
		return
	}
	if perPage < 1 || perPage > maxPageSize {
		perPage = defaultPageSize
	}

	rows := s.loadDataset().Rows()

	start := (page - 1) * perPage
	end := start + perPage
	if start > len(rows) {
		start = len(rows)
	}
	if end > len(rows) {
		end = len(rows)
	}

	render.JSON(w, r, businessesResponse{
		Total:      len(rows),
		Page:       page,
		PerPage:    perPage,
		Businesses: rows[start:end],
	})
}

func (s *Server) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	path := s.paths.DataPath("businesses.csv")
	if _, err := os.Stat(path); err != nil {
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, apperrors.ErrNoDataset)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="businesses.csv"`)
	http.ServeFile(w, r, path)
}

// loadDataset reads the consolidated CSV fresh on every request. The dataset
// is small enough that serving stale cached data is worse than the read.
func (s *Server) loadDataset() *consolidate.Dataset {
	ds := consolidate.NewDataset()
	consolidate.MergeExisting(ds, s.paths.DataPath("businesses.csv"), s.logger)
	return ds
}

// loadWorkerStats collects every alpha worker checkpoint that exists.
func (s *Server) loadWorkerStats() []workerStat {
	var stats []workerStat
	for i := 0; i < maxScannedWorkers; i++ {
		path := s.paths.AlphaProgressPath(i)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cp := progress.NewStore(path, s.logger).LoadAlpha()
		stats = append(stats, workerStat{
			ID:                i,
			CompletedPatterns: len(cp.CompletedPatterns),
			FoundCount:        cp.FoundCount,
			RecentCount:       cp.RecentCount,
			UpdatedAt:         cp.UpdatedAt,
		})
	}
	return stats
}

func topBuckets(counts map[string]int, total int) []bucketStat {
	buckets := make([]bucketStat, 0, len(counts))
	for k, v := range counts {
		buckets = append(buckets, bucketStat{Key: k, Count: v, Pct: pct(v, total)})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Key < buckets[j].Key
	})
	if len(buckets) > 10 {
		buckets = buckets[:10]
	}
	return buckets
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(int(float64(part)/float64(total)*1000+0.5)) / 10
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return n
}
