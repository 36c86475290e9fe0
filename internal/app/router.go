package app

import (
	"database/sql"
	"net/http"
	"time"

	"qbank/internal/app/observability"
	"qbank/internal/exam"
	"qbank/internal/report"
	"qbank/internal/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg Config, db *sql.DB) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	collector := observability.NewCollector(db)
	r.Use(collector.Middleware)
	r.Use(CSRFMiddleware(cfg.CSRFEnforced))

	uploadLimiter := NewIPRateLimiter(cfg.UploadRateLimitPerMin, time.Minute)

	examSvc := exam.NewService(db)
	examHandler := exam.NewHandler(examSvc)

	uploadSvc := upload.NewService(db)
	uploadHandler := upload.NewHandler(uploadSvc)

	reportSvc := report.NewService(db)
	reportHandler := report.NewHandler(reportSvc)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})
	r.Get("/metrics", collector.MetricsHandler)

	r.Route("/api/v1", func(api chi.Router) {
		api.Post("/exams", examHandler.CreateExam)
		api.Get("/exams", examHandler.ListExams)
		api.Get("/exams/{examID}", examHandler.GetExam)
		api.Put("/exams/{examID}", examHandler.UpdateExam)
		api.Delete("/exams/{examID}", examHandler.DeleteExam)
		api.Get("/exams/{examID}/summary", reportHandler.Summary)

		api.Group(func(up chi.Router) {
			up.Use(RateLimitMiddleware(uploadLimiter))
			up.Post("/exams/{examID}/bulk-upload", uploadHandler.Upload)
			up.Post("/exams/{examID}/bulk-upload/confirm", uploadHandler.Confirm)
		})

		api.Get("/bulk-upload/formats", uploadHandler.Formats)
		api.Get("/bulk-upload/template/{kind}", uploadHandler.Template)
	})

	return r
}
