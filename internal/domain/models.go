// internal/domain/models.go
package domain

// SchoolLevel mirrors the level codes used by the national roster export
// (2 = elementary, 3 = middle, 4 = high).
type SchoolLevel int

const (
	LevelUnknown    SchoolLevel = 0
	LevelElementary SchoolLevel = 2
	LevelMiddle     SchoolLevel = 3
	LevelHigh       SchoolLevel = 4
)

// MaxGrade returns the highest grade taught at this school level.
func (l SchoolLevel) MaxGrade() int {
	switch l {
	case LevelElementary:
		return 6
	case LevelMiddle, LevelHigh:
		return 3
	default:
		return 0
	}
}

func (l SchoolLevel) String() string {
	switch l {
	case LevelElementary:
		return "elementary"
	case LevelMiddle:
		return "middle"
	case LevelHigh:
		return "high"
	default:
		return "unknown"
	}
}

// TargetTag marks whether an order row counts toward one of the two
// contractual target-subject buckets.
type TargetTag int

const (
	TargetNone TargetTag = iota
	TargetSubject1
	TargetSubject2
)

func (t TargetTag) String() string {
	switch t {
	case TargetSubject1:
		return "target-subject-1"
	case TargetSubject2:
		return "target-subject-2"
	default:
		return ""
	}
}

// SchoolRoster is one school's enrollment snapshot for a single year.
// Grades is keyed by grade number (1..MaxGrade for the school's level).
type SchoolRoster struct {
	SchoolCode    string      `json:"school_code"`
	SchoolName    string      `json:"school_name"`
	Level         SchoolLevel `json:"level"`
	Region        string      `json:"region"`
	District      string      `json:"district"`
	Distributor   string      `json:"distributor"`          // raw assigned-distributor name from the roster
	OfficialDist  string      `json:"official_distributor"` // resolved official name, filled at load
	Grades        map[int]int `json:"grades"`
	TotalStudents int         `json:"total_students"`
}

// GradeCount returns the enrollment for a grade, 0 when absent.
func (s SchoolRoster) GradeCount(grade int) int {
	if s.Grades == nil {
		return 0
	}
	return s.Grades[grade]
}

// OrderRecord is a single order line. A (school, book, year) combination may
// repeat across rows; consumers must sum, never overwrite.
type OrderRecord struct {
	SchoolCode      string      `json:"school_code"`
	SchoolYear      int         `json:"school_year"`
	BookCode        string      `json:"book_code"`
	Subject         string      `json:"subject"`         // raw subject/textbook name
	DisplaySubject  string      `json:"display_subject"` // level-tagged name, e.g. "[중등] 정보"
	Level           SchoolLevel `json:"level"`
	Quantity        int         `json:"quantity"`
	Amount          int64       `json:"amount"`
	Distributor     string      `json:"distributor"`      // raw distributor name on the order row
	DistributorCode string      `json:"distributor_code"` // normalized numeric code
	OfficialDist    string      `json:"official_distributor"`
	TargetTag       TargetTag   `json:"target_tag"`
	Region          string      `json:"region"`
	District        string      `json:"district"`
}

// ProductCatalogEntry enriches order rows with a school level and a target
// subject slot. Read-only reference data.
type ProductCatalogEntry struct {
	BookCode      string      `json:"book_code"`
	Level         SchoolLevel `json:"level"`
	SubjectFamily string      `json:"subject_family"`
	Title         string      `json:"title"`
	TargetTag     TargetTag   `json:"target_tag"`
}

// DistributorEntry is one row of the distributor reference table. Code is the
// raw value; normalization happens in market.NormalizeCode.
type DistributorEntry struct {
	Code         string `json:"code"`
	Name         string `json:"name"` // raw name variant
	OfficialName string `json:"official_name"`
	GradeLetter  string `json:"grade_letter"` // S/A/B/C/D/E/G
}

// SalesTarget is one distributor's yearly target, split into the two
// target-subject buckets.
type SalesTarget struct {
	DistributorCode string `json:"distributor_code"`
	DistributorName string `json:"distributor_name"`
	TargetSubject1  int    `json:"target_subject_1"`
	TargetSubject2  int    `json:"target_subject_2"`
}

// Combined returns the total target quantity.
func (t SalesTarget) Combined() int {
	return t.TargetSubject1 + t.TargetSubject2
}

// Dataset is the loaded-and-joined value object every computation receives
// explicitly. It replaces the source dashboard's ambient session state.
type Dataset struct {
	Roster       []SchoolRoster
	Orders       []OrderRecord
	Targets      []SalesTarget
	Products     []ProductCatalogEntry
	Distributors []DistributorEntry

	// Capability flags resolved once at load time so business logic never
	// probes for optional columns.
	HasGradeEnrollment bool
	HasTargetTags      bool
	HasYears           bool
}

// RosterBySchool indexes the roster by school code.
func (d *Dataset) RosterBySchool() map[string]SchoolRoster {
	out := make(map[string]SchoolRoster, len(d.Roster))
	for _, s := range d.Roster {
		out[s.SchoolCode] = s
	}
	return out
}

// OrdersForYear returns the order rows for one school year.
func (d *Dataset) OrdersForYear(year int) []OrderRecord {
	out := make([]OrderRecord, 0, len(d.Orders))
	for _, o := range d.Orders {
		if o.SchoolYear == year {
			out = append(out, o)
		}
	}
	return out
}
