package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"stylebooth/internal/http/handlers"
	"stylebooth/internal/middleware"
)

// RouterOptions holds the cross-cutting settings of the HTTP surface.
type RouterOptions struct {
	AllowedOrigins  []string
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)
	r.Get("/v1/openapi.json", app.OpenAPIJSON)
	r.Get("/v1/docs", app.OpenAPIDocs)
	r.Get("/v1/metrics", app.MetricsSnapshot)

	r.Get("/v1/options", app.StyleOptions)
	r.Get("/v1/presets", app.Presets)

	r.Route("/v1/style", func(r chi.Router) {
		r.Get("/", app.GetStyle)
		r.Put("/", app.PutStyle)
		r.Post("/preset", app.ApplyPreset)
		r.Post("/recommendation", app.ApplyRecommendation)
		r.Post("/dictation", app.AppendDictation)
		r.Put("/reference", app.PutReference)
		r.Delete("/reference", app.DeleteReference)
	})

	r.Route("/v1/media", func(r chi.Router) {
		r.Get("/", app.MediaStatus)
		r.Delete("/", app.StopMedia)
		r.Post("/camera", app.StartCamera)
		r.Delete("/camera/error", app.DismissCameraError)
		r.Post("/frames", app.PushFrame)
		r.Post("/upload", app.Upload)
		r.Get("/capture", app.CapturePreview)
	})

	// Model calls are the only routes worth throttling.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/v1/generate", app.Generate)
		r.Post("/v1/analysis", app.Analyze)
	})

	r.Route("/v1/result", func(r chi.Router) {
		r.Get("/", app.GetResult)
		r.Delete("/", app.DeleteResult)
		r.Get("/download", app.DownloadResult)
		r.Get("/bundle", app.DownloadBundle)
		r.Post("/save", app.SaveResult)
	})

	r.Get("/v1/analysis", app.GetAnalysis)
	r.Delete("/v1/analysis", app.CloseAnalysis)
	r.Delete("/v1/analysis/error", app.DismissAnalysisError)

	return r
}
