// internal/market/share.go
package market

import (
	"sort"
	"strings"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// GroupBy selects the grouping granularity for share aggregation.
type GroupBy int

const (
	BySubject GroupBy = iota
	ByDistributor
	ByDistributorSubject
	ByRegion
	ByRegionSubject
)

// SortOrder selects the output ordering. Ties always break on the group key
// ascending so results are reproducible.
type SortOrder int

const (
	SortByQuantity SortOrder = iota
	SortByShare
)

const unknownSubject = "미상"

// Aggregator joins order totals with market sizes at a requested granularity
// and produces the share tables every dashboard page consumes. It never
// mutates its inputs; each call returns a fresh table.
type Aggregator struct {
	calc     *Calculator
	assigner *GradeAssigner
	order    SortOrder

	// bookYears feeds the year-presence grade strategy: school|subject ->
	// distinct school years the pair was ordered in.
	bookYears    map[string][]int
	earlierYear  int
	laterYear    int
	hasYearSpan  bool
	yearShiftOff bool
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		calc:     NewCalculator(),
		assigner: NewGradeAssigner(),
	}
}

// SortBy returns a copy of the aggregator with the given output ordering.
func (a *Aggregator) SortBy(order SortOrder) *Aggregator {
	cp := *a
	cp.order = order
	return &cp
}

// SameYearUsage returns a copy that models same-year adoption (no +1 grade
// shift), used for the earlier-year order cohort.
func (a *Aggregator) SameYearUsage() *Aggregator {
	cp := *a
	cp.yearShiftOff = true
	return &cp
}

// WithHistory returns a copy primed with the full multi-year order history,
// enabling the year-presence grade strategy for books whose enrollment ratio
// is inconclusive.
func (a *Aggregator) WithHistory(history []domain.OrderRecord, earlier, later int) *Aggregator {
	cp := *a
	cp.bookYears = make(map[string][]int)
	cp.earlierYear = earlier
	cp.laterYear = later
	cp.hasYearSpan = true

	seen := make(map[string]map[int]bool)
	for _, o := range history {
		key := o.SchoolCode + "|" + subjectKey(o)
		if seen[key] == nil {
			seen[key] = make(map[int]bool)
		}
		if !seen[key][o.SchoolYear] {
			seen[key][o.SchoolYear] = true
			cp.bookYears[key] = append(cp.bookYears[key], o.SchoolYear)
		}
	}
	return &cp
}

type groupKey struct {
	Subject     string
	Distributor string
	Region      string
	Level       domain.SchoolLevel
}

type groupAccum struct {
	qty     int
	amount  int64
	schools map[string]bool
	// per-school quantity inside the group, for grade inference
	bySchool map[string]int
	// votes for the representative target grade label
	gradeVotes map[string]int
}

// Aggregate groups orders by the requested key, computes each group's market
// size over the population scoped to that group, and returns share rows.
// No input row is dropped: orders whose distributor is unmapped land in an
// empty-keyed group with a zero market size, so quantity totals are conserved
// while unmapped volume never inflates a real distributor's share.
func (a *Aggregator) Aggregate(orders []domain.OrderRecord, roster []domain.SchoolRoster, groupBy GroupBy) []domain.MarketShareRow {
	groups := make(map[groupKey]*groupAccum)

	for _, o := range orders {
		key := a.keyFor(o, groupBy)
		acc := groups[key]
		if acc == nil {
			acc = &groupAccum{
				schools:    make(map[string]bool),
				bySchool:   make(map[string]int),
				gradeVotes: make(map[string]int),
			}
			groups[key] = acc
		}
		acc.qty += o.Quantity
		acc.amount += o.Amount
		if o.SchoolCode != "" {
			acc.schools[o.SchoolCode] = true
		}
		acc.bySchool[o.SchoolCode] += o.Quantity
	}

	rosterIdx := make(map[string]domain.SchoolRoster, len(roster))
	for _, s := range roster {
		rosterIdx[s.SchoolCode] = s
	}

	rows := make([]domain.MarketShareRow, 0, len(groups))
	for key, acc := range groups {
		marketSize := a.groupMarketSize(key, acc, roster, rosterIdx, groupBy)

		row := domain.MarketShareRow{
			Subject:     key.Subject,
			Distributor: key.Distributor,
			Region:      key.Region,
			Level:       key.Level,
			TargetGrade: topVote(acc.gradeVotes),
			MarketSize:  marketSize,
			Quantity:    acc.qty,
			Amount:      acc.amount,
			Schools:     len(acc.schools),
			SharePct:    sharePct(acc.qty, marketSize),
		}
		rows = append(rows, row)
	}

	a.sortRows(rows)
	return rows
}

func (a *Aggregator) keyFor(o domain.OrderRecord, groupBy GroupBy) groupKey {
	switch groupBy {
	case BySubject:
		return groupKey{Subject: subjectKey(o), Level: o.Level}
	case ByDistributor:
		return groupKey{Distributor: o.OfficialDist}
	case ByDistributorSubject:
		return groupKey{Distributor: o.OfficialDist, Subject: subjectKey(o), Level: o.Level}
	case ByRegion:
		return groupKey{Region: o.Region}
	case ByRegionSubject:
		return groupKey{Region: o.Region, Subject: subjectKey(o), Level: o.Level}
	default:
		return groupKey{Subject: subjectKey(o), Level: o.Level}
	}
}

// groupMarketSize resolves the denominator population for one group.
//
// Subject-scoped groups estimate per ordering school: each school's grade
// placement is inferred (ratio first, year pattern as fallback, curriculum
// table last) and that school's enrollment slice is summed. Distributor and
// region groups measure the whole population the entity is responsible for,
// whether or not it ordered.
func (a *Aggregator) groupMarketSize(key groupKey, acc *groupAccum, roster []domain.SchoolRoster, rosterIdx map[string]domain.SchoolRoster, groupBy GroupBy) int {
	calc := a.calc
	if a.yearShiftOff {
		calc = calc.NextYearShift(false)
	}

	switch groupBy {
	case ByDistributor:
		if key.Distributor == "" {
			return 0
		}
		return calc.LevelMarketSizes(assignedSchools(roster, key.Distributor))[domain.LevelUnknown]

	case ByDistributorSubject:
		if key.Distributor == "" {
			return 0
		}
		assigned := assignedSchools(roster, key.Distributor)
		if key.Level == domain.LevelUnknown {
			return calc.LevelMarketSizes(assigned)[domain.LevelUnknown]
		}
		return calc.MarketSize(assigned, key.Level, AllGrades())

	case ByRegion:
		return calc.LevelMarketSizes(regionSchools(roster, key.Region))[domain.LevelUnknown]

	case ByRegionSubject:
		return a.inferredMarketSize(calc, key, acc, rosterIdx, key.Region)

	default: // BySubject
		return a.inferredMarketSize(calc, key, acc, rosterIdx, "")
	}
}

func (a *Aggregator) inferredMarketSize(calc *Calculator, key groupKey, acc *groupAccum, rosterIdx map[string]domain.SchoolRoster, region string) int {
	total := 0
	for schoolCode, qty := range acc.bySchool {
		school, ok := rosterIdx[schoolCode]
		if !ok {
			continue
		}
		if region != "" && school.Region != region {
			continue
		}

		assign := a.assignFor(qty, school, schoolCode, key.Subject)
		acc.gradeVotes[assign.String()]++
		total += calc.SchoolMarketSize(school, assign)
	}
	return total
}

func (a *Aggregator) assignFor(qty int, school domain.SchoolRoster, schoolCode, subject string) GradeAssignment {
	var years []int
	if a.hasYearSpan {
		years = a.bookYears[schoolCode+"|"+subject]
	}
	assign := a.assigner.Assign(qty, &school, years, a.earlierYear, a.laterYear)
	if assign.Kind == GradeUnknown {
		assign = CurriculumGrade(subject, school.Level)
	}
	return assign
}

func (a *Aggregator) sortRows(rows []domain.MarketShareRow) {
	sort.Slice(rows, func(i, j int) bool {
		var li, lj float64
		switch a.order {
		case SortByShare:
			li, lj = rows[i].SharePct, rows[j].SharePct
		default:
			li, lj = float64(rows[i].Quantity), float64(rows[j].Quantity)
		}
		if li != lj {
			return li > lj
		}
		return rows[i].GroupKey() < rows[j].GroupKey()
	})
}

// YearOverYear compares order volume between two adjacent years at the given
// granularity. Groups present in only one year still appear, with the other
// side zero.
func (a *Aggregator) YearOverYear(prev, next []domain.OrderRecord, groupBy GroupBy) []domain.YearComparisonRow {
	prevTotals := make(map[groupKey]int)
	nextTotals := make(map[groupKey]int)
	for _, o := range prev {
		prevTotals[a.keyFor(o, groupBy)] += o.Quantity
	}
	for _, o := range next {
		nextTotals[a.keyFor(o, groupBy)] += o.Quantity
	}

	keys := make(map[groupKey]bool)
	for k := range prevTotals {
		keys[k] = true
	}
	for k := range nextTotals {
		keys[k] = true
	}

	rows := make([]domain.YearComparisonRow, 0, len(keys))
	for k := range keys {
		p, n := prevTotals[k], nextTotals[k]
		rows = append(rows, domain.YearComparisonRow{
			Key:       labelFor(k),
			QtyPrev:   p,
			QtyNext:   n,
			Delta:     n - p,
			GrowthPct: growthPct(p, n),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].QtyNext != rows[j].QtyNext {
			return rows[i].QtyNext > rows[j].QtyNext
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}

// SchoolChurnBetween counts schools retained, gained and lost between two
// adjacent years' orders.
func SchoolChurnBetween(prev, next []domain.OrderRecord) domain.SchoolChurn {
	prevSet := make(map[string]bool)
	nextSet := make(map[string]bool)
	for _, o := range prev {
		if o.SchoolCode != "" {
			prevSet[o.SchoolCode] = true
		}
	}
	for _, o := range next {
		if o.SchoolCode != "" {
			nextSet[o.SchoolCode] = true
		}
	}

	var churn domain.SchoolChurn
	for code := range prevSet {
		if nextSet[code] {
			churn.Retained++
		} else {
			churn.Churned++
		}
	}
	for code := range nextSet {
		if !prevSet[code] {
			churn.New++
		}
	}
	return churn
}

func sharePct(qty, marketSize int) float64 {
	if marketSize <= 0 {
		return 0
	}
	return float64(qty) / float64(marketSize) * 100
}

func growthPct(prev, next int) float64 {
	if prev > 0 {
		return float64(next-prev) / float64(prev) * 100
	}
	if next > 0 {
		return 100
	}
	return 0
}

func subjectKey(o domain.OrderRecord) string {
	if s := strings.TrimSpace(o.DisplaySubject); s != "" {
		return s
	}
	if s := strings.TrimSpace(o.Subject); s != "" {
		return s
	}
	return unknownSubject
}

func labelFor(k groupKey) string {
	parts := make([]string, 0, 3)
	if k.Region != "" {
		parts = append(parts, k.Region)
	}
	if k.Distributor != "" {
		parts = append(parts, k.Distributor)
	}
	if k.Subject != "" {
		parts = append(parts, k.Subject)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "|")
}

func assignedSchools(roster []domain.SchoolRoster, official string) []domain.SchoolRoster {
	out := make([]domain.SchoolRoster, 0)
	for _, s := range roster {
		if s.OfficialDist == official || (s.OfficialDist == "" && s.Distributor == official) {
			out = append(out, s)
		}
	}
	return out
}

func regionSchools(roster []domain.SchoolRoster, region string) []domain.SchoolRoster {
	out := make([]domain.SchoolRoster, 0)
	for _, s := range roster {
		if s.Region == region {
			out = append(out, s)
		}
	}
	return out
}

func topVote(votes map[string]int) string {
	best, bestN := "", 0
	keys := make([]string, 0, len(votes))
	for k := range votes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if votes[k] > bestN {
			best, bestN = k, votes[k]
		}
	}
	return best
}
