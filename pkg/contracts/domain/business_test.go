package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowMatchesColumns(t *testing.T) {
	r := &BusinessRecord{
		FileNumber:   "1358007400026",
		BusinessName: "NORTH STAR LLC",
		FilingDate:   "2024-01-15",
		Principal:    Address{City: "Minneapolis", State: "MN", Zip: "55401"},
		PrincipalRaw: "123 Main St\nMinneapolis, MN 55401",
		ScrapedAt:    "2026-08-23",
	}

	row := r.Row()
	assert.Len(t, row, len(Columns))

	fields := r.Fields()
	assert.Equal(t, "1358007400026", fields["file_number"])
	assert.Equal(t, "Minneapolis", fields["principal_city"])
	assert.Equal(t, "123 Main St\nMinneapolis, MN 55401", fields["principal_address_raw"])
	assert.Equal(t, "2026-08-23", fields["scraped_at"])
}

func TestHasIdentity(t *testing.T) {
	assert.False(t, (&BusinessRecord{FileNumber: "1"}).HasIdentity())
	assert.True(t, (&BusinessRecord{BusinessName: "A LLC"}).HasIdentity())
	assert.True(t, (&BusinessRecord{BusinessType: "Business Corporation (Domestic)"}).HasIdentity())
}

func TestFilingYear(t *testing.T) {
	assert.Equal(t, "2024", (&BusinessRecord{FilingDate: "2024-01-15"}).FilingYear())
	assert.Equal(t, "", (&BusinessRecord{}).FilingYear())
}
