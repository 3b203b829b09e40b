package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"credit-dashboard/metrics"
	"credit-dashboard/models"
	"credit-dashboard/services"
	"credit-dashboard/utils"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// RadarColumns are used when a radar request names no columns.
	RadarColumns []string
}

// Server serves the dashboard over one cleaned dataset. The dataset is
// immutable, so handlers share it without locking.
type Server struct {
	ds       *services.Dataset
	views    *services.ViewRegistry
	metrics  *metrics.Recorder
	logger   *utils.Logger
	validate *validator.Validate
	opts     Options
}

// NewServer wires a server around a ready dataset.
func NewServer(ds *services.Dataset, views *services.ViewRegistry, rec *metrics.Recorder, logger *utils.Logger, opts Options) *Server {
	if len(opts.RadarColumns) == 0 {
		for _, col := range ds.NumericColumns() {
			if col != models.ColAge {
				opts.RadarColumns = append(opts.RadarColumns, col)
			}
		}
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	rec.ObserveCleaning(ds.Report())

	return &Server{
		ds:       ds,
		views:    views,
		metrics:  rec,
		logger:   logger,
		validate: newValidator(),
		opts:     opts,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: s.logger, NoColor: true}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleDashboard)
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())
	r.Get("/export.csv", s.handleExport(formatCSV))
	r.Get("/export.xlsx", s.handleExport(formatXLSX))

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/options", s.handleOptions)
		r.Get("/views/{view}", s.handleView)
		r.Get("/radar", s.handleRadar)
		r.Get("/clean-report", s.handleCleanReport)
	})

	return r
}

// NewHTTPServer applies the configured timeouts to an http.Server.
func NewHTTPServer(addr string, h http.Handler, read, write time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       read,
		ReadHeaderTimeout: read,
		WriteTimeout:      write,
	}
}
