package services

import (
	"testing"
	"unicode/utf8"

	"credit-dashboard/utils"
)

func sampleDataset() *Dataset {
	return mustNormalize(rawTable(
		customerRow("1", "Engineer", "25", "50000"),
		customerRow("2", "Engineer", "35", "70000"),
		customerRow("3", "Doctor", "41", "120000"),
		customerRow("4", "Architect", "52", "30000"),
		customerRow("5", "Architect", "150", "30000"),
		customerRow("6", "Lawyer", "29", "kaput"),
	))
}

func TestInsightCounts(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDataset())
	if r.InputRows != 6 {
		t.Errorf("InputRows: got %d, want 6", r.InputRows)
	}
	if r.TotalRows != 4 {
		t.Errorf("TotalRows: got %d, want 4", r.TotalRows)
	}
	if r.DroppedRows != 2 {
		t.Errorf("DroppedRows: got %d, want 2", r.DroppedRows)
	}
	if r.DroppedByRule["age_out_of_range"] != 1 || r.DroppedByRule["income_too_high"] != 1 {
		t.Errorf("DroppedByRule: got %v", r.DroppedByRule)
	}
}

func TestInsightMeanIncome(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDataset())
	if !r.MeanIncome.Valid || r.MeanIncome.Value != 67500 {
		t.Errorf("MeanIncome: got %v, want 67500", r.MeanIncome)
	}
	if r.AgeMin != 25 || r.AgeMax != 52 {
		t.Errorf("age range: got %.0f–%.0f, want 25–52", r.AgeMin, r.AgeMax)
	}
}

func TestInsightByOccupation(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDataset())
	if len(r.ByOccupation) != 3 {
		t.Fatalf("ByOccupation len: got %d, want 3", len(r.ByOccupation))
	}
	eng := r.ByOccupation[0]
	if eng.Occupation != "Engineer" || eng.Count != 2 || eng.MeanIncome.Value != 60000 {
		t.Errorf("Engineer stat: got %+v", eng)
	}
}

func TestInsightTopByIncome(t *testing.T) {
	svc := NewInsightService(utils.NewDiscardLogger())
	r := svc.Generate(sampleDataset())
	if len(r.TopByIncome) != 3 {
		t.Fatalf("TopByIncome len: got %d, want 3", len(r.TopByIncome))
	}
	if r.TopByIncome[0].Occupation != "Doctor" {
		t.Errorf("TopByIncome[0]: got %q, want %q", r.TopByIncome[0].Occupation, "Doctor")
	}
	if r.TopByIncome[2].Occupation != "Architect" {
		t.Errorf("TopByIncome[2]: got %q, want %q", r.TopByIncome[2].Occupation, "Architect")
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1.006, 1.01},
		{2.344, 2.34},
		{-2.346, -2.35},
	}
	for _, tt := range tests {
		if got := round2(tt.in); got != tt.want {
			t.Errorf("round2(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Engineer", 10, "Engineer"},
		{"Media_Manager_Senior", 10, "Media_M..."},
		{"Журналист-аналитик", 10, "Журнали..."},
		{"Врач", 4, "Врач"},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.max)
		if got != tt.want {
			t.Errorf("truncate(%q, %d) = %q; want %q", tt.in, tt.max, got, tt.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("truncate(%q, %d) produced invalid UTF-8", tt.in, tt.max)
		}
	}
}
