// internal/market/distmarket.go
package market

import (
	"sort"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// DistributorMarkets splits each official distributor's addressable market by
// school level. The market is the adoptable population of the schools the
// distributor is responsible for per the roster, independent of whether those
// schools ordered anything.
func DistributorMarkets(orders []domain.OrderRecord, roster []domain.SchoolRoster, dir *Directory) []domain.DistributorMarketRow {
	calc := NewCalculator()

	type accum struct {
		qty     int
		amount  int64
		schools map[string]bool
	}
	byDist := make(map[string]*accum)
	for _, o := range orders {
		if o.OfficialDist == "" {
			continue
		}
		acc := byDist[o.OfficialDist]
		if acc == nil {
			acc = &accum{schools: make(map[string]bool)}
			byDist[o.OfficialDist] = acc
		}
		acc.qty += o.Quantity
		acc.amount += o.Amount
		if o.SchoolCode != "" {
			acc.schools[o.SchoolCode] = true
		}
	}

	// Every official distributor appears, ordered or not: a zero-order row
	// with a real assigned market is exactly what the gap analysis wants.
	officials := make(map[string]bool)
	for _, name := range dir.Officials() {
		officials[name] = true
	}
	for name := range byDist {
		officials[name] = true
	}

	rows := make([]domain.DistributorMarketRow, 0, len(officials))
	for name := range officials {
		assigned := assignedSchools(roster, name)

		row := domain.DistributorMarketRow{
			Distributor: name,
			GradeLetter: dir.GradeLetter(name),
		}
		for _, s := range assigned {
			size := calc.MarketSize([]domain.SchoolRoster{s}, s.Level, AllGrades())
			switch s.Level {
			case domain.LevelMiddle:
				row.MiddleMarket += size
				row.MiddleSchools++
			case domain.LevelHigh:
				row.HighMarket += size
				row.HighSchools++
			}
		}
		row.TotalMarket = row.MiddleMarket + row.HighMarket
		row.TotalSchools = row.MiddleSchools + row.HighSchools

		if acc := byDist[name]; acc != nil {
			row.Quantity = acc.qty
			row.Amount = acc.amount
			row.OrderSchools = len(acc.schools)
		}
		row.SharePct = sharePct(row.Quantity, row.TotalMarket)
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		gi, gj := GradeOrder(rows[i].GradeLetter), GradeOrder(rows[j].GradeLetter)
		if gi != gj {
			return gi < gj
		}
		if rows[i].Quantity != rows[j].Quantity {
			return rows[i].Quantity > rows[j].Quantity
		}
		return rows[i].Distributor < rows[j].Distributor
	})
	return rows
}
