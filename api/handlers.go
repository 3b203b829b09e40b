package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"credit-dashboard/models"
	"credit-dashboard/services"
	"credit-dashboard/storage"
)

type exportFormat string

const (
	formatCSV  exportFormat = "csv"
	formatXLSX exportFormat = "xlsx"
)

type healthResponse struct {
	Status string `json:"status"`
	Rows   int    `json:"rows"`
}

type viewInfo struct {
	Name   string `json:"name"`
	Title  string `json:"title"`
	Column string `json:"column"`
}

type optionsResponse struct {
	Occupations  []string          `json:"occupations"`
	AgeBounds    services.AgeRange `json:"age_bounds"`
	Views        []viewInfo        `json:"views"`
	RadarColumns []string          `json:"radar_columns"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, r, "ok", healthResponse{Status: "ok", Rows: s.ds.Len()})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	resp := optionsResponse{
		Occupations:  s.ds.Occupations(),
		AgeBounds:    s.ds.AgeBounds(),
		RadarColumns: s.opts.RadarColumns,
	}
	for _, spec := range s.views.Specs() {
		resp.Views = append(resp.Views, viewInfo{Name: spec.Name, Title: spec.Title, Column: spec.Column})
	}
	respondOK(w, r, "ok", resp)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "view")
	start := time.Now()

	q, err := s.parseFilter(r)
	if err != nil {
		s.metrics.ObserveView(name, "error", time.Since(start))
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	v := s.ds.Filter(q.Occupation, q.ages(s.ds.AgeBounds()))
	spec, err := s.views.Histogram(v, name)
	if errors.Is(err, services.ErrUnknownView) {
		respondError(w, r, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("[api] view %s: %v", name, err)
		respondError(w, r, http.StatusInternalServerError, "failed to build view")
		return
	}

	s.metrics.ObserveView(name, outcome(spec.Empty), time.Since(start))
	respondOK(w, r, "ok", spec)
}

func (s *Server) handleRadar(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	q, err := s.parseFilter(r)
	if err != nil {
		s.metrics.ObserveView("radar", "error", time.Since(start))
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	cols := q.Columns
	if len(cols) == 0 {
		cols = s.opts.RadarColumns
	}

	v := s.ds.Filter(q.Occupation, q.ages(s.ds.AgeBounds()))
	spec, err := s.ds.Radar(v, cols)
	if errors.Is(err, services.ErrUnknownColumn) {
		s.metrics.ObserveView("radar", "error", time.Since(start))
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Error("[api] radar: %v", err)
		respondError(w, r, http.StatusInternalServerError, "failed to build radar")
		return
	}

	s.metrics.ObserveView("radar", outcome(spec.Empty), time.Since(start))
	respondOK(w, r, "ok", spec)
}

func (s *Server) handleCleanReport(w http.ResponseWriter, r *http.Request) {
	report := *s.ds.Report()
	if r.URL.Query().Get("detail") != "true" {
		report.Dropped = nil
	}
	respondOK(w, r, "ok", struct {
		models.CleanReport
		DroppedRows int `json:"dropped_rows"`
	}{report, s.ds.Report().DroppedRows()})
}

func (s *Server) handleExport(format exportFormat) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := s.parseFilter(r)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, err.Error())
			return
		}

		v := s.ds.Filter(q.Occupation, q.ages(s.ds.AgeBounds()))
		header, rows, numeric := s.ds.Export(v)

		var out storage.ExportWriter
		switch format {
		case formatXLSX:
			w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
			out, err = storage.NewXLSXStreamWriter(w, numeric)
			if err != nil {
				s.logger.Error("[api] export: %v", err)
				respondError(w, r, http.StatusInternalServerError, "failed to start export")
				return
			}
		default:
			w.Header().Set("Content-Type", "text/csv; charset=utf-8")
			out = storage.NewCSVStreamWriter(w)
		}
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="customers.%s"`, format))

		if err := out.WriteTable(header, rows); err != nil {
			s.logger.Error("[api] export %s: %v", format, err)
			_ = out.Close()
			return
		}
		if err := out.Close(); err != nil {
			s.logger.Error("[api] export %s: %v", format, err)
			return
		}
		s.metrics.ObserveExport(string(format))
	}
}

func outcome(empty bool) string {
	if empty {
		return "empty"
	}
	return "ok"
}
