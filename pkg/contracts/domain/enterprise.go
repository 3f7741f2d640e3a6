package domain

// Enterprise is a reporting tenant backed by one spreadsheet.
type Enterprise struct {
	Code             string     `json:"code" yaml:"code" validate:"required,alphanum,min=2,max=32"`
	Name             string     `json:"name" yaml:"name" validate:"required"`
	SpreadsheetID    string     `json:"spreadsheet_id" yaml:"spreadsheet_id" validate:"required"`
	RegistrantsRange string     `json:"registrants_range" yaml:"registrants_range" validate:"required"`
	SubmissionsRange string     `json:"submissions_range" yaml:"submissions_range" validate:"required"`
	StartDate        string     `json:"start_date" yaml:"start_date" validate:"required,len=8"`
	Organizations    []string   `json:"organizations" yaml:"organizations" validate:"dive,required"`
	Columns          *ColumnMap `json:"columns,omitempty" yaml:"columns"`
}

// ColumnLayout returns the configured column map, falling back to the default layout.
func (e Enterprise) ColumnLayout() ColumnMap {
	if e.Columns == nil {
		return DefaultColumnMap()
	}
	return *e.Columns
}

// Dataset names used for caching fetched ranges.
const (
	DatasetRegistrants = "registrants"
	DatasetSubmissions = "submissions"
)

// Datasets holds the raw rows of one enterprise.
type Datasets struct {
	Registrants []Record `json:"registrants"`
	Submissions []Record `json:"submissions"`
}
