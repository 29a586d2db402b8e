// Package domain contains the core data types shared across the scraper,
// the consolidation step, and the dashboard.
package domain

// Address holds the parsed components of a US street address.
// Every field defaults to the empty string so tabular consumers never
// have to deal with missing values.
type Address struct {
	StreetNumber    string `json:"street_number"`
	StreetName      string `json:"street_name"`
	StreetType      string `json:"street_type"`
	StreetDirection string `json:"street_direction"`
	Unit            string `json:"unit"`
	City            string `json:"city"`
	State           string `json:"state"`
	Zip             string `json:"zip"`
}

// BusinessRecord is the canonical unit produced by the scraper.
// FileNumber is either the decimal MN SOS file number or, for records
// discovered through name search, the filing GUID from the details link.
type BusinessRecord struct {
	FileNumber             string `json:"file_number"`
	BusinessName           string `json:"business_name"`
	MNStatute              string `json:"mn_statute"`
	BusinessType           string `json:"business_type"`
	HomeJurisdiction       string `json:"home_jurisdiction"`
	FilingDate             string `json:"filing_date"`
	Status                 string `json:"status"`
	RenewalDueDate         string `json:"renewal_due_date"`
	MarkType               string `json:"mark_type"`
	NumberOfShares         string `json:"number_of_shares"`
	ChiefExecutiveOfficer  string `json:"chief_executive_officer"`
	Manager                string `json:"manager"`

	Principal          Address `json:"principal"`
	PrincipalRaw       string  `json:"principal_address_raw"`
	RegisteredOffice   Address `json:"reg_office"`
	RegisteredRaw      string  `json:"reg_office_address_raw"`
	ExecutiveOffice    Address `json:"exec_office"`
	ExecutiveRaw       string  `json:"exec_office_address_raw"`
	ApplicantName      string  `json:"applicant_name"`
	Applicant          Address `json:"applicant"`
	ApplicantRaw       string  `json:"applicant_address_raw"`

	RegisteredAgentName string `json:"registered_agent_name"`
	FilingHistory       string `json:"filing_history"`
	ScrapedAt           string `json:"scraped_at"`
}

// HasIdentity reports whether the record located at least a name or a type.
// Records without either are treated as misses and never persisted.
func (r *BusinessRecord) HasIdentity() bool {
	return r.BusinessName != "" || r.BusinessType != ""
}

// FilingYear returns the four-digit year derived from the normalized filing
// date. The file number's digit structure is opaque and never used for this.
func (r *BusinessRecord) FilingYear() string {
	if len(r.FilingDate) < 4 {
		return ""
	}
	return r.FilingDate[:4]
}

// Columns is the fixed, ordered CSV column set for business records. The
// order here determines the column order of every sink and export file.
var Columns = []string{
	"file_number",
	"business_name",
	"mn_statute",
	"business_type",
	"home_jurisdiction",
	"filing_date",
	"status",
	"renewal_due_date",
	"mark_type",
	"number_of_shares",
	"chief_executive_officer",
	"manager",

	"principal_street_number",
	"principal_street_name",
	"principal_street_type",
	"principal_street_direction",
	"principal_unit",
	"principal_city",
	"principal_state",
	"principal_zip",
	"principal_address_raw",

	"reg_office_street_number",
	"reg_office_street_name",
	"reg_office_street_type",
	"reg_office_street_direction",
	"reg_office_unit",
	"reg_office_city",
	"reg_office_state",
	"reg_office_zip",
	"reg_office_address_raw",

	"exec_office_street_number",
	"exec_office_street_name",
	"exec_office_street_type",
	"exec_office_street_direction",
	"exec_office_unit",
	"exec_office_city",
	"exec_office_state",
	"exec_office_zip",
	"exec_office_address_raw",

	"applicant_name",
	"applicant_street_number",
	"applicant_street_name",
	"applicant_street_type",
	"applicant_street_direction",
	"applicant_unit",
	"applicant_city",
	"applicant_state",
	"applicant_zip",
	"applicant_address_raw",

	"registered_agent_name",
	"filing_history",
	"scraped_at",
}

func addressCells(a Address) []string {
	return []string{
		a.StreetNumber,
		a.StreetName,
		a.StreetType,
		a.StreetDirection,
		a.Unit,
		a.City,
		a.State,
		a.Zip,
	}
}

// Row renders the record as a CSV row matching Columns.
func (r *BusinessRecord) Row() []string {
	row := make([]string, 0, len(Columns))
	row = append(row,
		r.FileNumber,
		r.BusinessName,
		r.MNStatute,
		r.BusinessType,
		r.HomeJurisdiction,
		r.FilingDate,
		r.Status,
		r.RenewalDueDate,
		r.MarkType,
		r.NumberOfShares,
		r.ChiefExecutiveOfficer,
		r.Manager,
	)
	row = append(row, addressCells(r.Principal)...)
	row = append(row, r.PrincipalRaw)
	row = append(row, addressCells(r.RegisteredOffice)...)
	row = append(row, r.RegisteredRaw)
	row = append(row, addressCells(r.ExecutiveOffice)...)
	row = append(row, r.ExecutiveRaw)
	row = append(row, r.ApplicantName)
	row = append(row, addressCells(r.Applicant)...)
	row = append(row, r.ApplicantRaw)
	row = append(row,
		r.RegisteredAgentName,
		r.FilingHistory,
		r.ScrapedAt,
	)
	return row
}

// Fields returns the record as a column→value map, used by the consolidation
// step which works on rows from sink files with possibly reordered headers.
func (r *BusinessRecord) Fields() map[string]string {
	row := r.Row()
	m := make(map[string]string, len(Columns))
	for i, col := range Columns {
		m[col] = row[i]
	}
	return m
}
