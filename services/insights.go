package services

import (
	"fmt"
	"sort"
	"strings"

	"credit-dashboard/models"
	"credit-dashboard/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate summarizes a cleaned dataset per occupation.
func (s *InsightService) Generate(ds *Dataset) *models.InsightReport {
	clean := ds.Report()
	report := &models.InsightReport{
		InputRows:     clean.InputRows,
		TotalRows:     ds.Len(),
		DroppedRows:   clean.DroppedRows(),
		DroppedByRule: clean.DroppedByRule,
	}

	bounds := ds.AgeBounds()
	report.AgeMin = float64(bounds.Min)
	report.AgeMax = float64(bounds.Max)

	type acc struct {
		count  int
		income float64
		n      int
	}
	byOcc := make(map[string]*acc)
	var totalIncome float64
	var incomeRows int

	for _, r := range ds.Table().records {
		a, ok := byOcc[r.Occupation]
		if !ok {
			a = &acc{}
			byOcc[r.Occupation] = a
		}
		a.count++
		if inc := r.Number(models.ColAnnualIncome); inc.Valid {
			a.income += inc.Value
			a.n++
			totalIncome += inc.Value
			incomeRows++
		}
	}

	if incomeRows > 0 {
		report.MeanIncome = models.Num(round2(totalIncome / float64(incomeRows)))
	}

	for _, occ := range ds.Occupations() {
		a := byOcc[occ]
		stat := models.OccupationStat{Occupation: occ, Count: a.count}
		if a.n > 0 {
			stat.MeanIncome = models.Num(round2(a.income / float64(a.n)))
		}
		report.ByOccupation = append(report.ByOccupation, stat)
	}

	// Top 5 by mean income
	ranked := make([]models.OccupationStat, 0, len(report.ByOccupation))
	for _, st := range report.ByOccupation {
		if st.MeanIncome.Valid {
			ranked = append(ranked, st)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].MeanIncome.Value > ranked[j].MeanIncome.Value
	})
	if len(ranked) > 5 {
		ranked = ranked[:5]
	}
	report.TopByIncome = ranked

	s.logger.Debug("[insights] %d occupations over %d rows", len(report.ByOccupation), report.TotalRows)
	return report
}

func (s *InsightService) Print(r *models.InsightReport) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Printf("\n\033[1;35m%s\033[0m\n", sep)
	fmt.Printf("\033[1;35m  📊 CUSTOMER DATASET INSIGHTS\033[0m\n")
	fmt.Printf("\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Printf("\033[1;33m  Overview\033[0m\n")
	fmt.Printf("  %s\n", thin)
	fmt.Printf("  Rows loaded     : \033[1m%d\033[0m\n", r.InputRows)
	fmt.Printf("  Rows kept       : \033[1m%d\033[0m\n", r.TotalRows)
	fmt.Printf("  Rows dropped    : \033[1m%d\033[0m\n", r.DroppedRows)
	fmt.Printf("  Age range       : \033[1m%.0f–%.0f\033[0m\n", r.AgeMin, r.AgeMax)
	if r.MeanIncome.Valid {
		fmt.Printf("  Mean income     : \033[1;32m%.2f\033[0m\n", r.MeanIncome.Value)
	}
	fmt.Println()

	// Drop reasons
	if len(r.DroppedByRule) > 0 {
		fmt.Printf("\033[1;33m  Dropped Rows by Rule\033[0m\n")
		fmt.Printf("  %s\n", thin)
		rules := make([]string, 0, len(r.DroppedByRule))
		for rule := range r.DroppedByRule {
			rules = append(rules, rule)
		}
		sort.Strings(rules)
		for _, rule := range rules {
			fmt.Printf("  %-30s %d\n", rule, r.DroppedByRule[rule])
		}
		fmt.Println()
	}

	// ── TOP 5 BY INCOME ──────────────────────────────────────────────────
	fmt.Printf("\033[1;33m  Top 5 Occupations by Mean Income\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.TopByIncome) == 0 {
		fmt.Printf("  No income data available\n")
	} else {
		for i, st := range r.TopByIncome {
			fmt.Printf("  \033[1m%d.\033[0m %-32s \033[1;32m%12.2f\033[0m\n",
				i+1, truncate(st.Occupation, 30), st.MeanIncome.Value)
		}
	}
	fmt.Println()

	// Rows by occupation
	fmt.Printf("\033[1;33m  Rows by Occupation\033[0m\n")
	fmt.Printf("  %s\n", thin)
	if len(r.ByOccupation) == 0 {
		fmt.Printf("  No occupation data\n")
	} else {
		stats := make([]models.OccupationStat, len(r.ByOccupation))
		copy(stats, r.ByOccupation)
		sort.SliceStable(stats, func(i, j int) bool {
			return stats[i].Count > stats[j].Count
		})
		max := stats[0].Count
		for _, st := range stats {
			bar := strings.Repeat("█", scaleBar(st.Count, max, 20))
			fmt.Printf("  %-30s %s (%d)\n", truncate(st.Occupation, 28), bar, st.Count)
		}
	}

	fmt.Printf("\n\033[1;35m%s\033[0m\n\n", sep)
}

func scaleBar(n, max, width int) int {
	if max == 0 {
		return 0
	}
	w := n * width / max
	if w == 0 && n > 0 {
		w = 1
	}
	return w
}

func round2(f float64) float64 {
	if f < 0 {
		return -round2(-f)
	}
	return float64(int64(f*100+0.5)) / 100
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
