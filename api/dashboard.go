package api

import (
	"bytes"
	"embed"
	"html/template"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"credit-dashboard/models"
	"credit-dashboard/services"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTmpl = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"pct":   percent,
	"round": func(n models.Number) string { return formatNumber(n, 2) },
	"edge":  func(f float64) string { return formatNumber(models.Num(f), 2) },
}).ParseFS(templateFS, "templates/dashboard.html"))

type dashboardPage struct {
	Occupations []string
	Occupation  string
	Ages        services.AgeRange
	Bounds      services.AgeRange
	Views       []services.ViewSpec
	Active      string
	Rows        int
	Histogram   models.HistogramSpec
	Radar       models.RadarSpec
	Report      *models.CleanReport
	ExportCSV   string
	ExportXLSX  string
	Error       string
}

type bar struct {
	Lo, Hi float64
	Count  int
	Width  float64
}

// Bars pairs each histogram bucket with its relative width.
func (p dashboardPage) Bars() []bar {
	h := p.Histogram
	max := h.MaxCount()
	out := make([]bar, len(h.Counts))
	for i, c := range h.Counts {
		out[i] = bar{Lo: h.Edges[i], Hi: h.Edges[i+1], Count: c}
		if max > 0 {
			out[i].Width = 100 * float64(c) / float64(max)
		}
	}
	return out
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	page := dashboardPage{
		Occupations: s.ds.Occupations(),
		Bounds:      s.ds.AgeBounds(),
		Views:       s.views.Specs(),
		Report:      s.ds.Report(),
		Active:      r.URL.Query().Get("view"),
	}
	if page.Active == "" && len(page.Views) > 0 {
		page.Active = page.Views[0].Name
	}

	status := http.StatusOK
	q, err := s.parseFilter(r)
	if err != nil {
		status = http.StatusBadRequest
		page.Error = err.Error()
	}
	page.Occupation = q.Occupation
	if !r.URL.Query().Has("occupation") && len(page.Occupations) > 0 {
		page.Occupation = page.Occupations[0]
	}
	page.Ages = q.ages(page.Bounds)

	export := url.Values{}
	export.Set("occupation", page.Occupation)
	export.Set("age_min", strconv.Itoa(page.Ages.Min))
	export.Set("age_max", strconv.Itoa(page.Ages.Max))
	page.ExportCSV = "/export.csv?" + export.Encode()
	page.ExportXLSX = "/export.xlsx?" + export.Encode()

	v := s.ds.Filter(page.Occupation, page.Ages)
	page.Rows = v.Len()
	if page.Error == "" {
		if page.Histogram, err = s.views.Histogram(v, page.Active); err != nil {
			status = http.StatusNotFound
			page.Error = err.Error()
		}
		page.Radar = services.Radar(v, s.opts.RadarColumns)
	}

	var buf bytes.Buffer
	if err := dashboardTmpl.Execute(&buf, page); err != nil {
		s.logger.Error("[api] render dashboard: %v", err)
		http.Error(w, "failed to render dashboard", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func percent(n models.Number) float64 {
	if !n.Valid {
		return 0
	}
	return math.Max(0, math.Min(100, 100*n.Value))
}

func formatNumber(n models.Number, places int) string {
	if !n.Valid {
		return "–"
	}
	p := math.Pow(10, float64(places))
	return models.Num(math.Round(n.Value*p) / p).String()
}
