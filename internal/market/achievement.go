// internal/market/achievement.go
package market

import (
	"sort"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// Achievement buckets, half-open below 100% and closed at the 120% cap so a
// distributor landing exactly on target or exactly on 120% counts as having
// reached that band.
const (
	BucketBelow50  = "50% 미만"
	Bucket50To80   = "50~80%"
	Bucket80To100  = "80~100%"
	Bucket100To120 = "100~120%"
	BucketAbove120 = "120% 초과"
)

// Bucket maps an achievement percentage to its display band.
func Bucket(pct float64) string {
	switch {
	case pct < 50:
		return BucketBelow50
	case pct < 80:
		return Bucket50To80
	case pct < 100:
		return Bucket80To100
	case pct <= 120:
		return Bucket100To120
	default:
		return BucketAbove120
	}
}

// AchievementEngine joins per-distributor sales targets with actual target
// subject orders for the reporting year. The join is strictly code based;
// name similarity is surfaced as diagnostics elsewhere, never applied here.
type AchievementEngine struct {
	dir        *Directory
	reportYear int
}

func NewAchievementEngine(dir *Directory, reportYear int) *AchievementEngine {
	return &AchievementEngine{dir: dir, reportYear: reportYear}
}

// FilterTargetOrders keeps only reporting-year orders for the two target
// subjects. Everything else is out of scope for achievement math.
func (e *AchievementEngine) FilterTargetOrders(orders []domain.OrderRecord) []domain.OrderRecord {
	out := make([]domain.OrderRecord, 0, len(orders))
	for _, o := range orders {
		if o.SchoolYear != e.reportYear {
			continue
		}
		if o.TargetTag == domain.TargetNone {
			continue
		}
		out = append(out, o)
	}
	return out
}

type actuals struct {
	qty1    int
	qty2    int
	amount  int64
	schools map[string]bool
}

// Build produces one achievement row per distributor that carries a positive
// combined target. Distributors with a target but no orders appear with zero
// actuals; order volume for distributors without any target row is excluded
// rather than attributed to a zero target.
func (e *AchievementEngine) Build(orders []domain.OrderRecord, targets []domain.SalesTarget, roster []domain.SchoolRoster) []domain.AchievementRow {
	filtered := e.FilterTargetOrders(orders)

	byCode := make(map[string]*actuals)
	for _, o := range filtered {
		code := o.DistributorCode
		if code == "" {
			code, _ = e.dir.CodeFor(o.OfficialDist)
		}
		if code == "" {
			continue
		}
		acc := byCode[code]
		if acc == nil {
			acc = &actuals{schools: make(map[string]bool)}
			byCode[code] = acc
		}
		switch o.TargetTag {
		case domain.TargetSubject1:
			acc.qty1 += o.Quantity
		case domain.TargetSubject2:
			acc.qty2 += o.Quantity
		}
		acc.amount += o.Amount
		if o.SchoolCode != "" {
			acc.schools[o.SchoolCode] = true
		}
	}

	calc := NewCalculator()
	rows := make([]domain.AchievementRow, 0, len(targets))
	seen := make(map[string]bool)
	for _, t := range targets {
		code := NormalizeCode(t.DistributorCode)
		if code == "" || seen[code] {
			continue
		}
		seen[code] = true

		combined := t.Combined()
		if combined <= 0 {
			continue
		}

		name, ok := e.dir.Resolve(code)
		if !ok || name == "" {
			name = t.DistributorName
		}

		acc := byCode[code]
		if acc == nil {
			acc = &actuals{schools: map[string]bool{}}
		}
		actual := acc.qty1 + acc.qty2
		pct := ratePct(actual, combined)

		market := calc.LevelMarketSizes(assignedSchools(roster, name))[domain.LevelUnknown]

		rows = append(rows, domain.AchievementRow{
			Distributor:    name,
			GradeLetter:    e.dir.GradeLetter(name),
			Target1:        t.TargetSubject1,
			Actual1:        acc.qty1,
			Rate1:          ratePct(acc.qty1, t.TargetSubject1),
			Target2:        t.TargetSubject2,
			Actual2:        acc.qty2,
			Rate2:          ratePct(acc.qty2, t.TargetSubject2),
			CombinedTarget: combined,
			Actual:         actual,
			AchievementPct: pct,
			Gap:            actual - combined,
			Bucket:         Bucket(pct),
			Schools:        len(acc.schools),
			Amount:         acc.amount,
			MarketSize:     market,
			SharePct:       sharePct(actual, market),
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		gi, gj := GradeOrder(rows[i].GradeLetter), GradeOrder(rows[j].GradeLetter)
		if gi != gj {
			return gi < gj
		}
		if rows[i].AchievementPct != rows[j].AchievementPct {
			return rows[i].AchievementPct > rows[j].AchievementPct
		}
		return rows[i].Distributor < rows[j].Distributor
	})
	return rows
}

// BucketCounts tallies rows per achievement band, in band order.
func BucketCounts(rows []domain.AchievementRow) map[string]int {
	counts := make(map[string]int, 5)
	for _, r := range rows {
		counts[r.Bucket]++
	}
	return counts
}

func ratePct(actual, target int) float64 {
	if target <= 0 {
		return 0
	}
	return float64(actual) / float64(target) * 100
}
