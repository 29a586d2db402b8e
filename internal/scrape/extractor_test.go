package scrape

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const detailsPageHTML = `<html><head><title>Business Record Details</title></head>
<body>
<h2>NORTH STAR WIDGETS LLC</h2>
<dl>
  <dt>Business Type</dt><dd>Limited Liability Company (Domestic)</dd>
  <dt>MN Statute</dt><dd>322C</dd>
  <dt>Home Jurisdiction</dt><dd>Minnesota</dd>
  <dt>Filing Date</dt><dd>01/15/2024</dd>
  <dt>Status</dt><dd>Active / In Good Standing</dd>
  <dt>Renewal Due Date</dt><dd>12/31/2025</dd>
  <dt>Manager</dt><dd>Jordan Example</dd>
  <dt>Registered Agent(s)</dt><dd>Agent Services Inc</dd>
  <dt>Principal Place of Business Address</dt>
  <dd>123 Main Street NE
Ste 200
Minneapolis, MN 55401</dd>
  <dt>Registered Office Address</dt>
  <dd>456 Oak Ave
St Paul, MN 55102</dd>
  <dt>Principal Executive Office Address</dt>
  <dd>789 Elm St, Duluth, MN 55802</dd>
</dl>
<table>
  <thead><tr><th>Applicant Name</th><th>Address</th></tr></thead>
  <tbody>
    <tr><td>Pat Applicant</td><td>10 First Ave N
Rochester, MN 55901</td></tr>
    <tr><td>Second Row</td><td>ignored</td></tr>
  </tbody>
</table>
<table>
  <thead><tr><th>Filing Date</th><th>Filing</th></tr></thead>
  <tbody>
    <tr><td>01/15/2024</td><td>Original Filing</td></tr>
    <tr><td>03/02/2024</td><td>Amendment</td></tr>
  </tbody>
</table>
</body></html>`

func TestExtractRecord(t *testing.T) {
	now := time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

	record, err := ExtractRecord(detailsPageHTML, "1467890200021", "NORTH STAR WIDGETS LLC", now)
	require.NoError(t, err)

	assert.Equal(t, "1467890200021", record.FileNumber)
	assert.Equal(t, "NORTH STAR WIDGETS LLC", record.BusinessName)
	assert.Equal(t, "Limited Liability Company (Domestic)", record.BusinessType)
	assert.Equal(t, "322C", record.MNStatute)
	assert.Equal(t, "Minnesota", record.HomeJurisdiction)
	assert.Equal(t, "Active / In Good Standing", record.Status)
	assert.Equal(t, "Jordan Example", record.Manager)
	assert.Equal(t, "Agent Services Inc", record.RegisteredAgentName)
	assert.Equal(t, "2026-08-23", record.ScrapedAt)

	// Dates come out normalized.
	assert.Equal(t, "2024-01-15", record.FilingDate)
	assert.Equal(t, "2025-12-31", record.RenewalDueDate)
	assert.Equal(t, "2024", record.FilingYear())

	// Address blocks keep the raw text and gain parsed components.
	assert.Contains(t, record.PrincipalRaw, "123 Main Street NE")
	assert.Equal(t, "123", record.Principal.StreetNumber)
	assert.Equal(t, "Main", record.Principal.StreetName)
	assert.Equal(t, "Street", record.Principal.StreetType)
	assert.Equal(t, "NE", record.Principal.StreetDirection)
	assert.Equal(t, "Ste 200", record.Principal.Unit)
	assert.Equal(t, "Minneapolis", record.Principal.City)
	assert.Equal(t, "MN", record.Principal.State)
	assert.Equal(t, "55401", record.Principal.Zip)

	assert.Equal(t, "St Paul", record.RegisteredOffice.City)
	assert.Equal(t, "Duluth", record.ExecutiveOffice.City)

	// Applicant comes from the first data row of the applicant table.
	assert.Equal(t, "Pat Applicant", record.ApplicantName)
	assert.Equal(t, "Rochester", record.Applicant.City)

	// Filing history rows are pipe-joined, then ";;"-joined.
	assert.Equal(t, "01/15/2024 | Original Filing ;; 03/02/2024 | Amendment", record.FilingHistory)
}

func TestExtractRecordAlternativeFilingDateLabel(t *testing.T) {
	html := `<html><body><dl>
		<dt>Business Type</dt><dd>Business Corporation (Domestic)</dd>
		<dt>Date of Incorporation</dt><dd>06/01/2023</dd>
	</dl></body></html>`

	record, err := ExtractRecord(html, "42", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01", record.FilingDate)
}

func TestExtractRecordFirstLabelWins(t *testing.T) {
	html := `<html><body><dl>
		<dt>Status</dt><dd>Active</dd>
		<dt>Status</dt><dd>Dissolved</dd>
	</dl></body></html>`

	record, err := ExtractRecord(html, "42", "", time.Now())
	require.NoError(t, err)
	assert.Equal(t, "Active", record.Status)
}

func TestExtractRecordFilingHistoryCap(t *testing.T) {
	html := `<html><body><table><thead><tr><th>Filing</th></tr></thead><tbody>`
	for i := 0; i < 30; i++ {
		html += `<tr><td>Entry</td></tr>`
	}
	html += `</tbody></table></body></html>`

	record, err := ExtractRecord(html, "42", "", time.Now())
	require.NoError(t, err)

	count := 1
	for i := 0; i+4 <= len(record.FilingHistory); i++ {
		if record.FilingHistory[i:i+4] == " ;; " {
			count++
		}
	}
	assert.Equal(t, maxFilingHistoryRows, count)
}

func TestExtractRecordEmptyPage(t *testing.T) {
	record, err := ExtractRecord("<html><body></body></html>", "7", "", time.Now())
	require.NoError(t, err)
	assert.False(t, record.HasIdentity())
	assert.Equal(t, "7", record.FileNumber)
}
