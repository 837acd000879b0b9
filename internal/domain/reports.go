package domain

// MarketShareRow is the engine output every dashboard page is built from.
// Exactly one of the grouping fields is set for single-key groupings; the
// distributor×subject matrix sets both.
type MarketShareRow struct {
	Subject     string      `json:"subject,omitempty" db:"subject"`
	Distributor string      `json:"distributor,omitempty" db:"distributor"`
	Region      string      `json:"region,omitempty" db:"region"`
	Level       SchoolLevel `json:"level,omitempty" db:"level"`
	TargetGrade string      `json:"target_grade,omitempty" db:"target_grade"`
	MarketSize  int         `json:"market_size" db:"market_size"`
	Quantity    int         `json:"quantity" db:"quantity"`
	Amount      int64       `json:"amount" db:"amount"`
	Schools     int         `json:"schools" db:"schools"`
	SharePct    float64     `json:"share_pct" db:"share_pct"`
}

// GroupKey is the composite sort key used for deterministic tie-breaks.
func (r MarketShareRow) GroupKey() string {
	key := r.Subject
	if r.Distributor != "" {
		if key != "" {
			key = r.Distributor + "|" + key
		} else {
			key = r.Distributor
		}
	}
	if r.Region != "" {
		key = r.Region + "|" + key
	}
	return key
}

// YearComparisonRow compares order volume for one group across two adjacent
// school years.
type YearComparisonRow struct {
	Key       string  `json:"key"`
	QtyPrev   int     `json:"qty_prev"`
	QtyNext   int     `json:"qty_next"`
	Delta     int     `json:"delta"`
	GrowthPct float64 `json:"growth_pct"`
}

// SchoolChurn summarizes school retention between two adjacent years.
type SchoolChurn struct {
	Retained int `json:"retained"`
	New      int `json:"new"`
	Churned  int `json:"churned"`
}

// AchievementRow is one distributor's target-vs-actual line. Distributors
// without a positive combined target are excluded upstream, never zero-filled.
type AchievementRow struct {
	Distributor    string  `json:"distributor" db:"distributor"`
	GradeLetter    string  `json:"grade_letter" db:"grade_letter"`
	Target1        int     `json:"target_1" db:"target_1"`
	Actual1        int     `json:"actual_1" db:"actual_1"`
	Rate1          float64 `json:"rate_1" db:"rate_1"`
	Target2        int     `json:"target_2" db:"target_2"`
	Actual2        int     `json:"actual_2" db:"actual_2"`
	Rate2          float64 `json:"rate_2" db:"rate_2"`
	CombinedTarget int     `json:"combined_target" db:"combined_target"`
	Actual         int     `json:"actual" db:"actual"`
	AchievementPct float64 `json:"achievement_pct" db:"achievement_pct"`
	Gap            int     `json:"gap" db:"gap"`
	Bucket         string  `json:"bucket" db:"bucket"`
	Schools        int     `json:"schools" db:"schools"`
	Amount         int64   `json:"amount" db:"amount"`
	MarketSize     int     `json:"market_size" db:"market_size"`
	SharePct       float64 `json:"share_pct" db:"share_pct"`
}

// UnmappedDistributor surfaces order rows whose normalized code has no
// directory entry, so operators can repair the reference table.
type UnmappedDistributor struct {
	RawCode  string `json:"raw_code"`
	RawName  string `json:"raw_name"`
	Quantity int    `json:"quantity"`
}

// NameSuggestion is a diagnostic-only hint pairing an unmapped order name
// with a similarly named official entry. Suggestions are never applied
// automatically; an operator confirms them into the reference table.
type NameSuggestion struct {
	RawCode   string `json:"raw_code"`
	RawName   string `json:"raw_name"`
	Suggested string `json:"suggested"`
	Quantity  int    `json:"quantity"`
}

// DistributorMarketRow is the per-distributor market split over the schools
// the distributor is responsible for.
type DistributorMarketRow struct {
	Distributor   string  `json:"distributor" db:"distributor"`
	GradeLetter   string  `json:"grade_letter" db:"grade_letter"`
	MiddleMarket  int     `json:"middle_market" db:"middle_market"`
	HighMarket    int     `json:"high_market" db:"high_market"`
	TotalMarket   int     `json:"total_market" db:"total_market"`
	Quantity      int     `json:"quantity" db:"quantity"`
	Amount        int64   `json:"amount" db:"amount"`
	OrderSchools  int     `json:"order_schools" db:"order_schools"`
	MiddleSchools int     `json:"middle_schools" db:"middle_schools"`
	HighSchools   int     `json:"high_schools" db:"high_schools"`
	TotalSchools  int     `json:"total_schools" db:"total_schools"`
	SharePct      float64 `json:"share_pct" db:"share_pct"`
}

// ExecutiveSummary is the KPI header of the dashboard's landing page.
type ExecutiveSummary struct {
	TotalStudents   int     `json:"total_students"`
	TotalOrders     int     `json:"total_orders"`
	TotalAmount     int64   `json:"total_amount"`
	OverallSharePct float64 `json:"overall_share_pct"`
	OrderSchools    int     `json:"order_schools"`
	PenetrationPct  float64 `json:"penetration_pct"`
	AvgPerSchool    float64 `json:"avg_per_school"`
	Subjects        int     `json:"subjects"`
	Distributors    int     `json:"distributors"`
	Regions         int     `json:"regions"`
}
