package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/kalambet/promptlift/internal/classify"
	"github.com/kalambet/promptlift/internal/convo"
	"github.com/kalambet/promptlift/internal/pipeline"
	"github.com/kalambet/promptlift/internal/questions"
	"github.com/kalambet/promptlift/internal/storage"
)

const maxRequestBodySize = 1 << 20 // 1MB

// HistoryReader lists recorded improvements.
type HistoryReader interface {
	GetInteraction(id string) (storage.Interaction, error)
	GetRecentInteractions(limit int) ([]storage.Interaction, error)
	GetConversationInteractions(conversationID string) ([]storage.Interaction, error)
}

// Deps holds everything the HTTP handlers need.
type Deps struct {
	Improver   *pipeline.Improver
	Classifier *classify.Classifier
	Questions  *questions.Catalog
	Contexts   convo.Store
	History    HistoryReader

	CORSOrigins    []string
	RateLimit      int // per client IP per minute; 0 disables
	RequestTimeout time.Duration
}

// NewHandler returns the promptlift REST API.
func NewHandler(deps Deps) http.Handler {
	if deps.Classifier == nil {
		deps.Classifier = classify.Default()
	}
	if deps.Questions == nil {
		deps.Questions = questions.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	origins := deps.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimit > 0 {
			r.Use(httprate.LimitByIP(deps.RateLimit, time.Minute))
		}
		if deps.RequestTimeout > 0 {
			r.Use(middleware.Timeout(deps.RequestTimeout))
		}

		r.Post("/classify", handleClassify(deps))
		r.Post("/questions", handleQuestions(deps))
		r.Post("/score", handleScore)
		r.Get("/domains", handleDomains(deps))

		r.Post("/context", handleSaveContext(deps))
		r.Get("/context/{conversationId}", handleGetContext(deps))
		r.Delete("/context/{conversationId}", handleDeleteContext(deps))

		r.Post("/improve", handleImprove(deps))
		r.Get("/history", handleHistory(deps))
		r.Get("/history/{id}", handleGetInteraction(deps))
	})

	return r
}

// requestLogger logs each request at debug level once it completes.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
