// Package worker contains the scraping loops: the sequential file-number
// prober, the alphabetical name-search worker, and the fan-out that runs
// several of either in parallel.
package worker

// Range is a contiguous, inclusive span of file numbers.
type Range struct {
	Start int
	End   int
}

// PartitionRange splits [start, end] into n contiguous spans. The last span
// absorbs the remainder so every file number is covered exactly once.
func PartitionRange(start, end, n int) []Range {
	if n < 1 {
		n = 1
	}
	total := end - start + 1
	if total < 1 {
		return nil
	}
	if n > total {
		n = total
	}

	size := total / n
	ranges := make([]Range, 0, n)
	for i := 0; i < n; i++ {
		s := start + i*size
		e := s + size - 1
		if i == n-1 {
			e = end
		}
		ranges = append(ranges, Range{Start: s, End: e})
	}
	return ranges
}

// GeneratePatterns returns the 676 two-letter name-search patterns, aa
// through zz in lexicographic order.
func GeneratePatterns() []string {
	patterns := make([]string, 0, 26*26)
	for first := 'a'; first <= 'z'; first++ {
		for second := 'a'; second <= 'z'; second++ {
			patterns = append(patterns, string(first)+string(second))
		}
	}
	return patterns
}

// PartitionPatterns divides patterns into n contiguous slices. The last
// worker absorbs the remainder.
func PartitionPatterns(patterns []string, n int) [][]string {
	if n < 1 {
		n = 1
	}
	if n > len(patterns) {
		n = len(patterns)
	}
	if len(patterns) == 0 {
		return nil
	}

	size := len(patterns) / n
	chunks := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		s := i * size
		e := s + size
		if i == n-1 {
			e = len(patterns)
		}
		chunks = append(chunks, patterns[s:e])
	}
	return chunks
}
