package parse

import (
	"regexp"
	"strings"
	"time"
)

var isoPrefixRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// NormalizeDate converts a portal date string to ISO YYYY-MM-DD.
// Rules, in order: empty input yields ""; MM/DD/YYYY (single-digit month
// and day accepted) is reformatted; a leading YYYY-MM-DD keeps its first
// ten characters, discarding any time suffix; anything else is returned
// unchanged. The function is idempotent and never fails.
func NormalizeDate(dateStr string) string {
	dateStr = strings.TrimSpace(dateStr)
	if dateStr == "" {
		return ""
	}

	for _, layout := range []string{"01/02/2006", "1/2/2006"} {
		if t, err := time.Parse(layout, dateStr); err == nil {
			return t.Format("2006-01-02")
		}
	}

	if isoPrefixRe.MatchString(dateStr) {
		return dateStr[:10]
	}

	return dateStr
}
