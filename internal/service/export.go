// internal/service/export.go
package service

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cmass/marketshare-backend/internal/domain"
)

// ExportBundleCSV writes every report table to outputDir, one UTF-8 CSV per
// table. Files are overwritten; direction is one way, these exports are never
// read back.
func ExportBundleCSV(outputDir string, bundle *ReportBundle) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed creating output directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"share_by_subject.csv", func(w *csv.Writer) error { return writeShares(w, bundle.SharesBySubject) }},
		{"share_by_distributor.csv", func(w *csv.Writer) error { return writeShares(w, bundle.SharesByDistributor) }},
		{"share_by_region.csv", func(w *csv.Writer) error { return writeShares(w, bundle.SharesByRegion) }},
		{"share_matrix.csv", func(w *csv.Writer) error { return writeShares(w, bundle.ShareMatrix) }},
		{"achievement.csv", func(w *csv.Writer) error { return writeAchievement(w, bundle.Achievement) }},
		{"distributor_markets.csv", func(w *csv.Writer) error { return writeDistributorMarkets(w, bundle.DistributorMarkets) }},
		{"unmapped_distributors.csv", func(w *csv.Writer) error { return writeUnmapped(w, bundle.Unmapped, bundle.Suggestions) }},
	}

	for _, spec := range writers {
		if err := writeCSVFile(filepath.Join(outputDir, spec.name), spec.write); err != nil {
			return fmt.Errorf("failed writing %s: %w", spec.name, err)
		}
	}
	return nil
}

func writeCSVFile(path string, write func(w *csv.Writer) error) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	// BOM so spreadsheet tools pick up UTF-8 Korean text
	if _, err := file.WriteString("\uFEFF"); err != nil {
		return err
	}

	w := csv.NewWriter(file)
	if err := write(w); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func writeShares(w *csv.Writer, rows []domain.MarketShareRow) error {
	if err := w.Write([]string{"subject", "distributor", "region", "level", "target_grade", "market_size", "quantity", "amount", "schools", "share_pct"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Subject, r.Distributor, r.Region, r.Level.String(), r.TargetGrade,
			strconv.Itoa(r.MarketSize), strconv.Itoa(r.Quantity),
			strconv.FormatInt(r.Amount, 10), strconv.Itoa(r.Schools),
			strconv.FormatFloat(r.SharePct, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeAchievement(w *csv.Writer, rows []domain.AchievementRow) error {
	if err := w.Write([]string{"distributor", "grade", "target_1", "actual_1", "target_2", "actual_2", "combined_target", "actual", "achievement_pct", "gap", "bucket", "schools", "share_pct"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Distributor, r.GradeLetter,
			strconv.Itoa(r.Target1), strconv.Itoa(r.Actual1),
			strconv.Itoa(r.Target2), strconv.Itoa(r.Actual2),
			strconv.Itoa(r.CombinedTarget), strconv.Itoa(r.Actual),
			strconv.FormatFloat(r.AchievementPct, 'f', 1, 64),
			strconv.Itoa(r.Gap), r.Bucket,
			strconv.Itoa(r.Schools),
			strconv.FormatFloat(r.SharePct, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeDistributorMarkets(w *csv.Writer, rows []domain.DistributorMarketRow) error {
	if err := w.Write([]string{"distributor", "grade", "middle_market", "high_market", "total_market", "quantity", "order_schools", "total_schools", "share_pct"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.Distributor, r.GradeLetter,
			strconv.Itoa(r.MiddleMarket), strconv.Itoa(r.HighMarket), strconv.Itoa(r.TotalMarket),
			strconv.Itoa(r.Quantity), strconv.Itoa(r.OrderSchools), strconv.Itoa(r.TotalSchools),
			strconv.FormatFloat(r.SharePct, 'f', 2, 64),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// writeUnmapped interleaves repair suggestions with the unmapped rows so the
// operator has everything on one sheet.
func writeUnmapped(w *csv.Writer, rows []domain.UnmappedDistributor, suggestions []domain.NameSuggestion) error {
	suggested := make(map[string]string, len(suggestions))
	for _, s := range suggestions {
		suggested[s.RawCode+"|"+s.RawName] = s.Suggested
	}

	if err := w.Write([]string{"raw_code", "raw_name", "quantity", "suggested_official"}); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			r.RawCode, r.RawName, strconv.Itoa(r.Quantity),
			suggested[r.RawCode+"|"+r.RawName],
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
