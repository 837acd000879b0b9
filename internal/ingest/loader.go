// internal/ingest/loader.go
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/cmass/marketshare-backend/internal/config"
	"github.com/cmass/marketshare-backend/internal/domain"
	"github.com/cmass/marketshare-backend/internal/market"
	"github.com/cmass/marketshare-backend/pkg/logger"
)

// Loader reads the five publisher exports into one Dataset. All column
// probing and header-variant handling lives here; downstream code receives
// typed rows and capability flags and never touches raw cells.
type Loader struct {
	cfg config.DataConfig
}

func NewLoader(cfg config.DataConfig) *Loader {
	return &Loader{cfg: cfg}
}

// Load reads every configured file, joins the product catalog onto order
// rows and resolves distributor codes through the reference directory.
// Roster and orders are required; the other files are optional and their
// absence just clears the matching capability flag.
func (l *Loader) Load(ctx context.Context) (*domain.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roster, hasGrades, err := l.loadRoster(l.cfg.RosterFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load roster: %w", err)
	}

	products, err := l.loadProducts(l.cfg.ProductFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load product catalog: %w", err)
	}

	distributors, err := l.loadDistributors(l.cfg.DistributorFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load distributor table: %w", err)
	}

	targets, err := l.loadTargets(l.cfg.TargetFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}

	orders, err := l.loadOrders(l.cfg.OrderFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load orders: %w", err)
	}

	dir := market.BuildDirectory(distributors)
	orders = enrichOrders(orders, products, dir)
	resolveRosterDistributors(roster, distributors)

	hasTags := false
	years := make(map[int]bool)
	for _, o := range orders {
		if o.TargetTag != domain.TargetNone {
			hasTags = true
		}
		if o.SchoolYear > 0 {
			years[o.SchoolYear] = true
		}
	}

	ds := &domain.Dataset{
		Roster:             roster,
		Orders:             orders,
		Targets:            targets,
		Products:           products,
		Distributors:       distributors,
		HasGradeEnrollment: hasGrades,
		HasTargetTags:      hasTags,
		HasYears:           len(years) > 1,
	}

	logger.Log.Info().
		Int("schools", len(ds.Roster)).
		Int("orders", len(ds.Orders)).
		Int("targets", len(ds.Targets)).
		Int("distributors", dir.Len()).
		Bool("grade_enrollment", ds.HasGradeEnrollment).
		Bool("target_tags", ds.HasTargetTags).
		Msg("dataset loaded")

	return ds, nil
}

func (l *Loader) loadRoster(path string) ([]domain.SchoolRoster, bool, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, false, err
	}

	idx := newHeaderIndex(header)
	idxCode := idx.col("정보공시 학교코드", "정보공시학교코드", "학교코드", "school_code")
	idxName := idx.col("학교명", "school_name")
	idxLevel := idx.col("학교급코드", "학교급", "level")
	idxRegion := idx.col("시도", "시도교육청", "지역", "region")
	idxDistrict := idx.col("시군구", "교육지원청", "district")
	idxDist := idx.col("총판", "담당총판", "총판명", "distributor")
	idxTotal := idx.col("학생수 합계", "전체 학생수", "총학생수", "total_students")

	gradeIdx := make(map[int]int, 6)
	for g := 1; g <= 6; g++ {
		gradeIdx[g] = idx.col(
			fmt.Sprintf("%d학년", g),
			fmt.Sprintf("%d학년 학생수", g),
			fmt.Sprintf("grade_%d", g),
		)
	}

	hasGrades := false
	rows := make([]domain.SchoolRoster, 0, len(records))
	for _, record := range records {
		code := market.NormalizeCode(cell(record, idxCode))
		if code == "" {
			continue
		}

		s := domain.SchoolRoster{
			SchoolCode:    code,
			SchoolName:    cell(record, idxName),
			Level:         parseLevel(cell(record, idxLevel)),
			Region:        cell(record, idxRegion),
			District:      cell(record, idxDistrict),
			Distributor:   cell(record, idxDist),
			TotalStudents: market.ParseCount(cell(record, idxTotal)),
		}
		for g, ci := range gradeIdx {
			if ci < 0 {
				continue
			}
			if n := market.ParseCount(cell(record, ci)); n > 0 {
				if s.Grades == nil {
					s.Grades = make(map[int]int, 6)
				}
				s.Grades[g] = n
				hasGrades = true
			}
		}
		if s.TotalStudents == 0 && s.Grades != nil {
			for _, n := range s.Grades {
				s.TotalStudents += n
			}
		}
		rows = append(rows, s)
	}
	return rows, hasGrades, nil
}

func (l *Loader) loadOrders(path string) ([]domain.OrderRecord, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idx := newHeaderIndex(header)
	idxSchool := idx.col("정보공시 학교코드", "정보공시학교코드", "학교코드", "school_code")
	idxYear := idx.col("학년도", "년도", "year")
	idxBook := idx.col("도서코드", "서명코드", "book_code")
	idxSubject := idx.col("과목", "도서명", "서명", "subject")
	idxQty := idx.col("부수", "수량", "quantity")
	idxAmount := idx.col("금액", "공급가액", "amount")
	idxDist := idx.col("총판명", "총판", "distributor")
	idxDistCode := idx.col("총판코드", "distributor_code")
	idxRegion := idx.col("시도", "지역", "region")
	idxDistrict := idx.col("시군구", "district")

	rows := make([]domain.OrderRecord, 0, len(records))
	for _, record := range records {
		qty := market.ParseCount(cell(record, idxQty))
		o := domain.OrderRecord{
			SchoolCode:      market.NormalizeCode(cell(record, idxSchool)),
			SchoolYear:      market.ParseCount(cell(record, idxYear)),
			BookCode:        market.NormalizeCode(cell(record, idxBook)),
			Subject:         cell(record, idxSubject),
			Quantity:        qty,
			Amount:          market.ParseAmount(cell(record, idxAmount)),
			Distributor:     cell(record, idxDist),
			DistributorCode: cell(record, idxDistCode),
			Region:          cell(record, idxRegion),
			District:        cell(record, idxDistrict),
		}
		if o.SchoolCode == "" && o.Quantity == 0 {
			continue
		}
		rows = append(rows, o)
	}
	return rows, nil
}

func (l *Loader) loadTargets(path string) ([]domain.SalesTarget, error) {
	header, records, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Log.Warn().Str("path", path).Msg("target file missing, achievement reports disabled")
			return nil, nil
		}
		return nil, err
	}

	idx := newHeaderIndex(header)
	idxCode := idx.col("총판코드", "distributor_code")
	idxName := idx.col("총판명", "총판", "distributor")
	idxT1 := idx.col("목표과목1 부수", "목표과목1", "목표1", "target_1")
	idxT2 := idx.col("목표과목2 부수", "목표과목2", "목표2", "target_2")

	rows := make([]domain.SalesTarget, 0, len(records))
	for _, record := range records {
		t := domain.SalesTarget{
			DistributorCode: market.NormalizeCode(cell(record, idxCode)),
			DistributorName: cell(record, idxName),
			// targets arrive comma-formatted ("1,000")
			TargetSubject1: market.ParseCount(cell(record, idxT1)),
			TargetSubject2: market.ParseCount(cell(record, idxT2)),
		}
		if t.DistributorCode == "" && t.DistributorName == "" {
			continue
		}
		rows = append(rows, t)
	}
	return rows, nil
}

func (l *Loader) loadProducts(path string) ([]domain.ProductCatalogEntry, error) {
	header, records, err := readCSV(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Log.Warn().Str("path", path).Msg("product catalog missing, orders keep raw subjects")
			return nil, nil
		}
		return nil, err
	}

	idx := newHeaderIndex(header)
	idxCode := idx.col("도서코드", "서명코드", "book_code")
	idxLevel := idx.col("학교급코드", "학교급", "level")
	idxFamily := idx.col("과목계열", "과목", "subject_family")
	idxTitle := idx.col("서명", "도서명", "title")
	idxTarget := idx.col("목표과목", "target_slot")

	rows := make([]domain.ProductCatalogEntry, 0, len(records))
	for _, record := range records {
		code := market.NormalizeCode(cell(record, idxCode))
		if code == "" {
			continue
		}
		rows = append(rows, domain.ProductCatalogEntry{
			BookCode:      code,
			Level:         parseLevel(cell(record, idxLevel)),
			SubjectFamily: cell(record, idxFamily),
			Title:         cell(record, idxTitle),
			TargetTag:     parseTargetTag(cell(record, idxTarget)),
		})
	}
	return rows, nil
}

func (l *Loader) loadDistributors(path string) ([]domain.DistributorEntry, error) {
	header, records, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idx := newHeaderIndex(header)
	idxCode := idx.col("총판코드", "코드", "code")
	idxName := idx.col("총판명", "name")
	idxOfficial := idx.col("총판명(공식)", "공식명", "공식 총판명", "official_name")
	idxGrade := idx.col("등급", "grade")

	rows := make([]domain.DistributorEntry, 0, len(records))
	for _, record := range records {
		e := domain.DistributorEntry{
			Code:         cell(record, idxCode),
			Name:         cell(record, idxName),
			OfficialName: cell(record, idxOfficial),
			GradeLetter:  cell(record, idxGrade),
		}
		if e.OfficialName == "" {
			e.OfficialName = e.Name
		}
		if e.Code == "" && e.Name == "" {
			continue
		}
		rows = append(rows, e)
	}
	return rows, nil
}

// enrichOrders joins the product catalog onto order rows (level, target tag,
// display subject) and resolves distributor codes to official names. Rows
// without a catalog entry keep their raw subject and an unknown level.
func enrichOrders(orders []domain.OrderRecord, products []domain.ProductCatalogEntry, dir *market.Directory) []domain.OrderRecord {
	catalog := make(map[string]domain.ProductCatalogEntry, len(products))
	for _, p := range products {
		catalog[p.BookCode] = p
	}

	out := dir.ResolveOrders(orders)
	for i := range out {
		if p, ok := catalog[out[i].BookCode]; ok {
			out[i].Level = p.Level
			out[i].TargetTag = p.TargetTag
			title := out[i].Subject
			if title == "" {
				title = p.Title
			}
			out[i].DisplaySubject = market.DisplaySubject(market.BaseSubject(title), p.Level)
		} else {
			out[i].DisplaySubject = market.DisplaySubject(market.BaseSubject(out[i].Subject), out[i].Level)
		}
	}
	return out
}

// resolveRosterDistributors fills OfficialDist on roster rows. Roster rows
// carry a distributor name, not a code, so resolution goes through the
// reference table's exact name variants only; nothing fuzzy.
func resolveRosterDistributors(roster []domain.SchoolRoster, distributors []domain.DistributorEntry) {
	byName := make(map[string]string, len(distributors)*2)
	for _, d := range distributors {
		official := strings.TrimSpace(d.OfficialName)
		if official == "" {
			continue
		}
		byName[official] = official
		if name := strings.TrimSpace(d.Name); name != "" {
			byName[name] = official
		}
	}
	for i := range roster {
		roster[i].OfficialDist = byName[strings.TrimSpace(roster[i].Distributor)]
	}
}

func readCSV(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	// UTF-8 BOM from spreadsheet exports
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}

	records := make([][]string, 0)
	for {
		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, nil, fmt.Errorf("error reading record: %w", err)
		}
		records = append(records, record)
	}
	return header, records, nil
}

type headerIndex struct {
	header []string
}

func newHeaderIndex(header []string) headerIndex {
	return headerIndex{header: header}
}

// col returns the index of the first header matching any alias, -1 when none
// is present. Matching ignores case, surrounding space and internal spacing.
func (h headerIndex) col(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, col := range h.header {
		if _, ok := targets[normalizeColumnName(col)]; ok {
			return i
		}
	}
	return -1
}

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	name = strings.ReplaceAll(name, " ", "")
	name = strings.ReplaceAll(name, "_", "")
	return name
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// parseLevel accepts both the numeric roster codes and name prefixes.
func parseLevel(raw string) domain.SchoolLevel {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.LevelUnknown
	}
	if n, err := strconv.Atoi(s); err == nil {
		switch n {
		case 2:
			return domain.LevelElementary
		case 3:
			return domain.LevelMiddle
		case 4:
			return domain.LevelHigh
		}
		return domain.LevelUnknown
	}
	switch {
	case strings.HasPrefix(s, "초"):
		return domain.LevelElementary
	case strings.HasPrefix(s, "중"):
		return domain.LevelMiddle
	case strings.HasPrefix(s, "고"):
		return domain.LevelHigh
	}
	return domain.LevelUnknown
}

func parseTargetTag(raw string) domain.TargetTag {
	switch strings.TrimSpace(raw) {
	case "1", "목표1", "목표과목1":
		return domain.TargetSubject1
	case "2", "목표2", "목표과목2":
		return domain.TargetSubject2
	}
	return domain.TargetNone
}
