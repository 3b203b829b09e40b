package models

// DroppedRow records a raw row removed during cleaning and the rule it failed.
type DroppedRow struct {
	Row  int    `json:"row"`
	Rule string `json:"rule"`
}

// CleanReport accounts for everything Normalize did to the raw table.
type CleanReport struct {
	InputRows        int            `json:"input_rows"`
	KeptRows         int            `json:"kept_rows"`
	Dropped          []DroppedRow   `json:"dropped,omitempty"`
	DroppedByRule    map[string]int `json:"dropped_by_rule"`
	CoercionFailures map[string]int `json:"coercion_failures"`
}

// DroppedRows is the number of rows removed.
func (r *CleanReport) DroppedRows() int {
	return len(r.Dropped)
}

// HistogramSpec is the bucketed distribution of one column over a view.
// Edges has one more element than Counts; bucket i covers
// [Edges[i], Edges[i+1]) and the last bucket is closed on the right. Rows is
// the size of the filtered view.
type HistogramSpec struct {
	View    string    `json:"view"`
	Column  string    `json:"column"`
	Title   string    `json:"title"`
	Rows    int       `json:"rows"`
	Edges   []float64 `json:"edges"`
	Counts  []int     `json:"counts"`
	Total   int       `json:"total"`
	Missing int       `json:"missing"`
	Capped  int       `json:"capped"`
	Empty   bool      `json:"empty"`
	Reason  string    `json:"reason,omitempty"`
}

// MaxCount returns the largest bucket count, used to scale bars.
func (h *HistogramSpec) MaxCount() int {
	max := 0
	for _, c := range h.Counts {
		if c > max {
			max = c
		}
	}
	return max
}

// RadarAxis is one spoke of the radar chart.
type RadarAxis struct {
	Column     string `json:"column"`
	Normalized Number `json:"normalized"`
	Mean       Number `json:"mean"`
	Min        Number `json:"min"`
	Max        Number `json:"max"`
}

// RadarSpec holds min-max normalized means per selected column.
type RadarSpec struct {
	Axes   []RadarAxis `json:"axes"`
	Rows   int         `json:"rows"`
	Empty  bool        `json:"empty"`
	Reason string      `json:"reason,omitempty"`
}

// OccupationStat summarizes one occupation in the cleaned dataset.
type OccupationStat struct {
	Occupation string `json:"occupation"`
	Count      int    `json:"count"`
	MeanIncome Number `json:"mean_income"`
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	InputRows     int
	TotalRows     int
	DroppedRows   int
	DroppedByRule map[string]int
	AgeMin        float64
	AgeMax        float64
	MeanIncome    Number
	ByOccupation  []OccupationStat
	TopByIncome   []OccupationStat
}
