package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"stylebooth/internal/analysis"
	"stylebooth/internal/camera"
	"stylebooth/internal/capture"
	"stylebooth/internal/domain"
	"stylebooth/internal/infra"
	"stylebooth/internal/media"
	"stylebooth/internal/metrics"
	"stylebooth/internal/providers/gemini"
	"stylebooth/internal/shell"
	"stylebooth/internal/storage"
	"stylebooth/internal/stylegen"
)

// App carries the session and the collaborators the HTTP handlers use.
type App struct {
	Shell     *shell.Shell
	Capture   *capture.Adapter
	Feed      *camera.FeedDevice
	Files     *storage.FileStore
	Metrics   *metrics.Registry
	Logger    *infra.Logger
	MaxUpload int64
}

// Options configures NewApp.
type Options struct {
	Shell     *shell.Shell
	Capture   *capture.Adapter
	Feed      *camera.FeedDevice
	Files     *storage.FileStore
	Metrics   *metrics.Registry
	Logger    *infra.Logger
	MaxUpload int64
}

func NewApp(opts Options) *App {
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = capture.DefaultMaxUpload
	}
	return &App{
		Shell:     opts.Shell,
		Capture:   opts.Capture,
		Feed:      opts.Feed,
		Files:     opts.Files,
		Metrics:   opts.Metrics,
		Logger:    logger,
		MaxUpload: maxUpload,
	}
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorResponse{Error: errorBody{Code: errCode, Message: msg}})
}

// fail maps a domain error onto a status code and a user-facing message.
func (a *App) fail(w http.ResponseWriter, err error) {
	status, code, msg := classify(err)
	if status >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("code", code).Msg("request failed")
	}
	a.error(w, status, code, msg)
}

func classify(err error) (int, string, string) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrBusy):
		return http.StatusConflict, "busy", "A request is already in progress."
	case errors.Is(err, domain.ErrInputNotReady):
		return http.StatusUnprocessableEntity, "input_not_ready", shell.NoImageMessage
	case errors.Is(err, domain.ErrFatalPipeline) && gemini.IsRateLimited(err):
		return http.StatusTooManyRequests, "rate_limited", stylegen.FailureMessage
	case errors.Is(err, domain.ErrFatalPipeline):
		return http.StatusBadGateway, "generation_failed", stylegen.FailureMessage
	case errors.Is(err, domain.ErrAnalysisMalformed):
		return http.StatusBadGateway, "analysis_malformed", analysis.FailureMessage
	case errors.Is(err, domain.ErrAnalysisUnavailable) && gemini.IsRateLimited(err):
		return http.StatusTooManyRequests, "rate_limited", analysis.FailureMessage
	case errors.Is(err, domain.ErrAnalysisUnavailable):
		return http.StatusServiceUnavailable, "analysis_unavailable", analysis.FailureMessage
	case errors.Is(err, domain.ErrCameraUnavailable):
		return http.StatusServiceUnavailable, "camera_unavailable", capture.CameraDeniedMessage
	case errors.Is(err, domain.ErrUnknownPreset):
		return http.StatusNotFound, "unknown_preset", err.Error()
	case errors.Is(err, domain.ErrInvalidStyle):
		return http.StatusBadRequest, "invalid_style", err.Error()
	case errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge, "too_large", "The uploaded file is too large."
	case errors.Is(err, media.ErrUnsupportedFormat), errors.Is(err, media.ErrEmptyImage):
		return http.StatusUnsupportedMediaType, "unsupported_image", "Please upload a JPEG, PNG, GIF or WebP image."
	case errors.Is(err, media.ErrInvalidDataURI):
		return http.StatusBadRequest, "invalid_data_uri", "The image data could not be read."
	case errors.Is(err, camera.ErrNotStreaming):
		return http.StatusConflict, "camera_not_started", "Start the camera before sending frames."
	default:
		return http.StatusInternalServerError, "internal", "Something went wrong."
	}
}

func jsonDecode(r io.Reader, v any) error {
	if err := json.NewDecoder(r).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, domain.ErrInvalidStyle) {
			return err
		}
		return fmt.Errorf("%w: %v", media.ErrInvalidDataURI, err)
	}
	return nil
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, a.MaxUpload)).Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) || errors.Is(err, domain.ErrInvalidStyle) {
			a.fail(w, err)
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	return true
}
