package routers

import (
	"github.com/go-chi/chi/v5"

	"interview/internal/handlers"
	"interview/internal/metrics"
)

func InterviewRoutes(router *chi.Mux, candidateHandler *handlers.CandidateHandler, interviewHandler *handlers.InterviewHandler, wsHandler *handlers.WSHandler) {
	router.Route("/api/v1/interview", func(r chi.Router) {
		r.Post("/upload", candidateHandler.UploadHandler)
		r.Post("/candidate/info", candidateHandler.InfoHandler)
		r.Get("/candidates", candidateHandler.CandidatesHandler)
		r.Get("/candidates/{id}", candidateHandler.CandidateDetailHandler)

		r.Get("/check", interviewHandler.CheckHandler)
		r.Post("/start", interviewHandler.StartHandler)
		r.Post("/answer", interviewHandler.AnswerHandler)

		r.Get("/ws", wsHandler.ServeWS)
	})
}

func HealthRoutes(router *chi.Mux, healthHandler *handlers.HealthHandler) {
	router.Get("/healthz", healthHandler.HealthzHandler)
	router.Get("/readyz", healthHandler.ReadyzHandler)
	router.Handle("/metrics", metrics.Handler())
}
