// Package scrape contains the portal-specific logic: locating businesses
// through the search form and turning detail pages into records.
package scrape

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	apperrors "mnsos/internal/errors"
	"mnsos/internal/parse"
	"mnsos/pkg/contracts/domain"
)

// maxFilingHistoryRows caps the filing history to keep cell sizes bounded.
const maxFilingHistoryRows = 20

// labelFields maps detail-page dt labels (matched by substring, lowercase)
// to setters on the record. First match per field wins; later duplicate
// labels never overwrite an already-populated field.
var labelFields = []struct {
	label string
	set   func(r *domain.BusinessRecord, v string)
	get   func(r *domain.BusinessRecord) string
}{
	{"business type", func(r *domain.BusinessRecord, v string) { r.BusinessType = v }, func(r *domain.BusinessRecord) string { return r.BusinessType }},
	{"mn statute", func(r *domain.BusinessRecord, v string) { r.MNStatute = v }, func(r *domain.BusinessRecord) string { return r.MNStatute }},
	{"home jurisdiction", func(r *domain.BusinessRecord, v string) { r.HomeJurisdiction = v }, func(r *domain.BusinessRecord) string { return r.HomeJurisdiction }},
	{"filing date", func(r *domain.BusinessRecord, v string) { r.FilingDate = v }, func(r *domain.BusinessRecord) string { return r.FilingDate }},
	// Some entity types label the filing date differently.
	{"date of incorporation", func(r *domain.BusinessRecord, v string) { r.FilingDate = v }, func(r *domain.BusinessRecord) string { return r.FilingDate }},
	{"status", func(r *domain.BusinessRecord, v string) { r.Status = v }, func(r *domain.BusinessRecord) string { return r.Status }},
	{"renewal due date", func(r *domain.BusinessRecord, v string) { r.RenewalDueDate = v }, func(r *domain.BusinessRecord) string { return r.RenewalDueDate }},
	{"mark type", func(r *domain.BusinessRecord, v string) { r.MarkType = v }, func(r *domain.BusinessRecord) string { return r.MarkType }},
	{"number of shares", func(r *domain.BusinessRecord, v string) { r.NumberOfShares = v }, func(r *domain.BusinessRecord) string { return r.NumberOfShares }},
	{"chief executive officer", func(r *domain.BusinessRecord, v string) { r.ChiefExecutiveOfficer = v }, func(r *domain.BusinessRecord) string { return r.ChiefExecutiveOfficer }},
	{"manager", func(r *domain.BusinessRecord, v string) { r.Manager = v }, func(r *domain.BusinessRecord) string { return r.Manager }},
	{"registered agent", func(r *domain.BusinessRecord, v string) { r.RegisteredAgentName = v }, func(r *domain.BusinessRecord) string { return r.RegisteredAgentName }},
}

// ExtractRecord parses a detail-page HTML document into a BusinessRecord.
// Extraction degrades gracefully: fields that cannot be located are left
// empty rather than failing the record. The returned error is non-nil only
// when the HTML itself cannot be parsed.
func ExtractRecord(html, fileNumber, businessName string, now time.Time) (*domain.BusinessRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, apperrors.NewParsingError("failed to parse details page", err)
	}

	record := &domain.BusinessRecord{
		FileNumber:   fileNumber,
		BusinessName: businessName,
		ScrapedAt:    now.Format("2006-01-02"),
	}

	extractDefinitionPairs(doc, record)
	extractApplicant(doc, record)
	extractFilingHistory(doc, record)

	record.Principal = parse.ParseAddress(record.PrincipalRaw)
	record.RegisteredOffice = parse.ParseAddress(record.RegisteredRaw)
	record.ExecutiveOffice = parse.ParseAddress(record.ExecutiveRaw)
	record.Applicant = parse.ParseAddress(record.ApplicantRaw)

	record.FilingDate = parse.NormalizeDate(record.FilingDate)
	record.RenewalDueDate = parse.NormalizeDate(record.RenewalDueDate)

	return record, nil
}

// extractDefinitionPairs walks the page's dt/dd pairs. Address labels are
// intercepted first and keep their raw multi-line text; everything else
// goes through the label mapping.
func extractDefinitionPairs(doc *goquery.Document, record *domain.BusinessRecord) {
	doc.Find("dt").Each(func(_ int, dt *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(dt.Text()))
		dd := dt.Next()
		if !dd.Is("dd") {
			return
		}
		value := strings.TrimSpace(dd.Text())

		if strings.Contains(label, "address") {
			switch {
			case strings.Contains(label, "principal place of business"):
				record.PrincipalRaw = value
				return
			case strings.Contains(label, "principal executive office"):
				record.ExecutiveRaw = value
				return
			case strings.Contains(label, "registered office"):
				record.RegisteredRaw = value
				return
			}
		}

		if value == "" {
			return
		}
		for _, lf := range labelFields {
			if strings.Contains(label, lf.label) {
				if lf.get(record) == "" {
					lf.set(record, value)
				}
				return
			}
		}
	})
}

// extractApplicant pulls the applicant or markholder name and address from
// the first data row of the applicant table.
func extractApplicant(doc *goquery.Document, record *domain.BusinessRecord) {
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !tableHasHeader(table, "applicant") && !tableHasHeader(table, "markholder") {
			return true
		}
		cells := table.Find("tbody tr").First().Find("td")
		if cells.Length() >= 2 {
			record.ApplicantName = strings.TrimSpace(cells.Eq(0).Text())
			record.ApplicantRaw = strings.TrimSpace(cells.Eq(1).Text())
		}
		return false
	})
}

// extractFilingHistory serializes the filing table into a single cell:
// cells joined with " | ", rows with " ;; ", capped at maxFilingHistoryRows.
func extractFilingHistory(doc *goquery.Document, record *domain.BusinessRecord) {
	var history []string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		if !tableHasHeader(table, "filing") || tableHasHeader(table, "applicant") {
			return true
		}
		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("td").Each(func(_ int, cell *goquery.Selection) {
				if text := strings.TrimSpace(cell.Text()); text != "" {
					cells = append(cells, text)
				}
			})
			if len(cells) > 0 {
				history = append(history, strings.Join(cells, " | "))
			}
		})
		return false
	})

	if len(history) > maxFilingHistoryRows {
		history = history[:maxFilingHistoryRows]
	}
	record.FilingHistory = strings.Join(history, " ;; ")
}

func tableHasHeader(table *goquery.Selection, substr string) bool {
	found := false
	table.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(th.Text()), substr) {
			found = true
			return false
		}
		return true
	})
	return found
}
